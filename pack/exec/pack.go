// Package exec provides local computation tools: subprocess code execution
// and an arithmetic calculator.
package exec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/helixforge/labrun/domain/pack"
	"github.com/helixforge/labrun/domain/tool"
)

// OutputCap bounds combined stdout and stderr returned to the caller.
const OutputCap = 10_000

// DefaultTimeout bounds a single code execution.
const DefaultTimeout = 2 * time.Minute

// ErrUnsupportedLanguage indicates a language with no registered interpreter.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Config configures the exec pack.
type Config struct {
	// WorkDir is the directory scripts run in. Empty means the process cwd.
	WorkDir string

	// Timeout bounds a single execution. Zero means DefaultTimeout.
	Timeout time.Duration

	// Interpreters maps a language name to the command that runs a script
	// passed on stdin. Defaults cover python and bash.
	Interpreters map[string][]string
}

func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Interpreters == nil {
		c.Interpreters = map[string][]string{
			"python": {"python3", "-"},
			"bash":   {"bash", "-s"},
			"sh":     {"sh", "-s"},
		}
	}
	return c
}

// New creates the exec pack.
func New(cfg Config) *pack.Pack {
	cfg = cfg.withDefaults()

	return pack.NewBuilder("exec").
		WithDescription("Local code execution and calculation").
		WithVersion("1.0.0").
		AddTools(
			executeCodeTool(cfg),
			calculatorTool(),
		).
		MustBuild()
}

type executeCodeInput struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

type executeCodeOutput struct {
	ExitCode  int    `json:"exit_code"`
	Output    string `json:"output"`
	Truncated bool   `json:"truncated"`
}

func executeCodeTool(cfg Config) tool.Tool {
	return tool.NewBuilder("execute_code").
		WithDescription("Run a code snippet in a subprocess and return its combined output.").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"language": tool.StringProperty("script language, e.g. python or bash"),
			"code":     tool.StringProperty("script source"),
		}, []string{"language", "code"})).
		WithTimeout(cfg.Timeout).
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in executeCodeInput
			if err := json.Unmarshal(input, &in); err != nil {
				return tool.Result{}, err
			}
			if in.Language == "" {
				in.Language = "python"
			}

			argv, ok := cfg.Interpreters[in.Language]
			if !ok {
				return tool.Result{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, in.Language)
			}

			cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
			cmd.Dir = cfg.WorkDir
			cmd.Stdin = bytes.NewReader([]byte(in.Code))

			var combined bytes.Buffer
			cmd.Stdout = &combined
			cmd.Stderr = &combined

			runErr := cmd.Run()

			out := executeCodeOutput{Output: combined.String()}
			if len(out.Output) > OutputCap {
				out.Output = out.Output[:OutputCap]
				out.Truncated = true
			}

			var exitErr *exec.ExitError
			switch {
			case runErr == nil:
			case errors.As(runErr, &exitErr):
				out.ExitCode = exitErr.ExitCode()
			default:
				return tool.Result{}, runErr
			}

			data, _ := json.Marshal(out)
			res := tool.NewResult(data)
			res.Truncated = out.Truncated
			if out.ExitCode != 0 {
				res.Error = fmt.Errorf("exit code %d", out.ExitCode)
			}
			return res, nil
		}).
		MustBuild()
}

type calculatorInput struct {
	Expression string `json:"expression"`
}

type calculatorOutput struct {
	Result float64 `json:"result"`
}

func calculatorTool() tool.Tool {
	return tool.NewBuilder("calculator").
		WithDescription("Evaluate an arithmetic expression with + - * / and parentheses.").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"expression": tool.StringProperty("arithmetic expression, e.g. (3.2 + 4) * 2"),
		}, []string{"expression"})).
		ReadOnly().
		WithTimeout(5 * time.Second).
		WithHandler(func(_ context.Context, input json.RawMessage) (tool.Result, error) {
			var in calculatorInput
			if err := json.Unmarshal(input, &in); err != nil {
				return tool.Result{}, err
			}

			value, err := Evaluate(in.Expression)
			if err != nil {
				return tool.Result{}, err
			}

			data, _ := json.Marshal(calculatorOutput{Result: value})
			return tool.NewResult(data), nil
		}).
		MustBuild()
}
