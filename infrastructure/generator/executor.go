package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/helixforge/labrun/domain/agent"
	"github.com/helixforge/labrun/domain/chat"
)

// ExecToolName is the gateway tool the code executor invokes.
const ExecToolName = "execute_code"

var fencedBlock = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)\n(.*?)```")

// CodeExecutor is the non-LLM participant of the implementation team. It
// never generates prose; it extracts fenced code blocks from its partner's
// latest turn and turns each into an execute_code invocation for the gateway
// to run.
type CodeExecutor struct {
	// Partner is the role whose turns are scanned for code.
	Partner string
}

var _ agent.Generator = (*CodeExecutor)(nil)

// NewCodeExecutor creates an executor paired with the named role.
func NewCodeExecutor(partner string) *CodeExecutor {
	return &CodeExecutor{Partner: partner}
}

// ExecRequest is the execute_code tool input.
type ExecRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// Generate scans backwards for the partner's most recent turn and emits one
// tool call per fenced code block found in it.
func (e *CodeExecutor) Generate(_ context.Context, role agent.RoleConfig, _ string, transcript chat.Transcript) (chat.Turn, error) {
	turns := transcript.Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Author != e.Partner {
			continue
		}

		blocks := ExtractCodeBlocks(turns[i].Content)
		if len(blocks) == 0 {
			return chat.NewTurn(role.Name, "No code blocks found in the last message."), nil
		}

		turn := chat.NewTurn(role.Name, fmt.Sprintf("Executing %d code block(s).", len(blocks)))
		for _, block := range blocks {
			args, err := json.Marshal(block)
			if err != nil {
				return chat.Turn{}, err
			}
			turn = turn.WithToolCall(chat.ToolInvocation{Tool: ExecToolName, Args: args})
		}
		return turn, nil
	}

	return chat.NewTurn(role.Name, "No message from "+e.Partner+" to execute."), nil
}

// ExtractCodeBlocks returns the fenced code blocks in the content, in order.
// A missing language tag defaults to python.
func ExtractCodeBlocks(content string) []ExecRequest {
	var blocks []ExecRequest
	for _, m := range fencedBlock.FindAllStringSubmatch(content, -1) {
		lang := m[1]
		if lang == "" {
			lang = "python"
		}
		if m[2] == "" {
			continue
		}
		blocks = append(blocks, ExecRequest{Language: lang, Code: m[2]})
	}
	return blocks
}
