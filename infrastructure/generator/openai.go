// Package generator provides agent.Generator implementations: the
// OpenAI-compatible chat-completions client used in production, the code
// executor participant, and a scripted generator for tests and demos.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/helixforge/labrun/domain/agent"
	"github.com/helixforge/labrun/domain/chat"
	"github.com/helixforge/labrun/domain/config"
	"github.com/helixforge/labrun/domain/tool"
)

// OpenAIGenerator speaks the chat-completions protocol. Any endpoint
// implementing it works, not just OpenAI itself.
type OpenAIGenerator struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
	registry    tool.Registry
}

var _ agent.Generator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator creates a generator from LLM configuration. The
// registry, when non-nil, is used to advertise each role's granted tools as
// callable functions.
func NewOpenAIGenerator(cfg config.LLMConfig, registry tool.Registry) *OpenAIGenerator {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &OpenAIGenerator{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
		registry:    registry,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	Tools       []toolSpec    `json:"tools,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolSpec struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate produces the role's next turn from the task and transcript.
func (g *OpenAIGenerator) Generate(ctx context.Context, role agent.RoleConfig, task string, transcript chat.Transcript) (chat.Turn, error) {
	req := chatRequest{
		Model:       g.model,
		Messages:    g.buildMessages(role, task, transcript),
		Temperature: g.temperature,
		Tools:       g.toolSpecs(role),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return chat.Turn{}, fmt.Errorf("marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return chat.Turn{}, fmt.Errorf("create completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return chat.Turn{}, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return chat.Turn{}, fmt.Errorf("read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return chat.Turn{}, fmt.Errorf("completion endpoint status %d: %s", resp.StatusCode, truncate(string(respBody), 500))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return chat.Turn{}, fmt.Errorf("parse completion response: %w", err)
	}
	if parsed.Error != nil {
		return chat.Turn{}, fmt.Errorf("completion endpoint error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return chat.Turn{}, fmt.Errorf("completion response has no choices")
	}

	choice := parsed.Choices[0]
	turn := chat.NewTurn(role.Name, choice.Message.Content)
	for _, call := range choice.Message.ToolCalls {
		turn = turn.WithToolCall(chat.ToolInvocation{
			Tool: call.Function.Name,
			Args: json.RawMessage(call.Function.Arguments),
		})
	}
	return turn, nil
}

// buildMessages renders the group discussion for a single-speaker completion
// API: the role's own prior turns become assistant messages, everyone else's
// become user messages labeled with the author.
func (g *OpenAIGenerator) buildMessages(role agent.RoleConfig, task string, transcript chat.Transcript) []chatMessage {
	messages := []chatMessage{
		{Role: "system", Content: role.Prompt},
		{Role: "user", Content: "Task:\n" + task},
	}

	for _, turn := range transcript.Turns() {
		if turn.Author == role.Name {
			messages = append(messages, chatMessage{Role: "assistant", Content: turn.Content})
			continue
		}
		messages = append(messages, chatMessage{
			Role:    "user",
			Content: fmt.Sprintf("[%s]\n%s", turn.Author, turn.Content),
		})
	}
	return messages
}

// toolSpecs advertises the role's granted tools.
func (g *OpenAIGenerator) toolSpecs(role agent.RoleConfig) []toolSpec {
	if g.registry == nil {
		return nil
	}

	var specs []toolSpec
	for _, name := range role.Capabilities {
		t, ok := g.registry.Get(name)
		if !ok {
			continue
		}
		specs = append(specs, toolSpec{
			Type: "function",
			Function: toolFunction{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.InputSchema().Raw(),
			},
		})
	}
	return specs
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
