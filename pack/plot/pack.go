// Package plot provides a vision-backed tool that describes chart images so
// text-only agents can reason about experiment figures.
package plot

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/helixforge/labrun/domain/pack"
	"github.com/helixforge/labrun/domain/tool"
)

// MaxImageBytes bounds the image file sent for analysis.
const MaxImageBytes = 8 << 20

// ErrImageTooLarge indicates an image exceeding MaxImageBytes.
var ErrImageTooLarge = errors.New("image too large")

// ErrPathEscape indicates a path resolving outside the workspace.
var ErrPathEscape = errors.New("path escapes the workspace")

const defaultPrompt = "Describe this plot: axes, series, trends, and any anomalies. Be specific about values where readable."

// Config configures the plot pack.
type Config struct {
	// Root is the workspace directory image paths resolve against.
	Root string

	// APIKey authenticates against the vision endpoint.
	APIKey string

	// BaseURL is an OpenAI-compatible chat completions endpoint.
	BaseURL string

	// Model is the vision model. Defaults to gpt-4o.
	Model string

	// Client is the HTTP client used for analysis calls.
	Client *http.Client
}

// New creates the plot pack.
func New(cfg Config) *pack.Pack {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 120 * time.Second}
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return pack.NewBuilder("plot").
		WithDescription("Plot and figure analysis").
		WithVersion("1.0.0").
		AddTools(analyzePlotTool(cfg)).
		MustBuild()
}

type analyzePlotInput struct {
	Path     string `json:"path"`
	Question string `json:"question,omitempty"`
}

type analyzePlotOutput struct {
	Analysis string `json:"analysis"`
}

func analyzePlotTool(cfg Config) tool.Tool {
	return tool.NewBuilder("analyze_plot").
		WithDescription("Analyze a plot image from the workspace and describe what it shows.").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"path":     tool.StringProperty("image path relative to the workspace root"),
			"question": tool.StringProperty("optional question to answer about the plot"),
		}, []string{"path"})).
		ReadOnly().
		WithTimeout(2 * time.Minute).
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in analyzePlotInput
			if err := json.Unmarshal(input, &in); err != nil {
				return tool.Result{}, err
			}

			path, err := resolve(cfg.Root, in.Path)
			if err != nil {
				return tool.Result{}, err
			}

			image, err := os.ReadFile(path)
			if err != nil {
				return tool.Result{}, err
			}
			if len(image) > MaxImageBytes {
				return tool.Result{}, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, len(image))
			}

			prompt := defaultPrompt
			if in.Question != "" {
				prompt = in.Question
			}

			analysis, err := describe(ctx, cfg, mimeType(path), image, prompt)
			if err != nil {
				return tool.Result{}, err
			}

			data, _ := json.Marshal(analyzePlotOutput{Analysis: analysis})
			return tool.NewResult(data), nil
		}).
		MustBuild()
}

func resolve(root, rel string) (string, error) {
	abs := filepath.Join(root, filepath.Clean("/"+rel))
	rootClean := filepath.Clean(root)
	if abs != rootClean && !strings.HasPrefix(abs, rootClean+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, rel)
	}
	return abs, nil
}

func mimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// describe sends the image to the vision endpoint and returns the model's
// description.
func describe(ctx context.Context, cfg Config, mime string, image []byte, prompt string) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image))

	reqBody, err := json.Marshal(map[string]any{
		"model": cfg.Model,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": prompt},
					{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := cfg.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision endpoint status %d", resp.StatusCode)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("vision endpoint returned no analysis")
	}
	return parsed.Choices[0].Message.Content, nil
}
