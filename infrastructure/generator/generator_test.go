package generator_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/helixforge/labrun/domain/agent"
	"github.com/helixforge/labrun/domain/chat"
	"github.com/helixforge/labrun/domain/config"
	"github.com/helixforge/labrun/infrastructure/generator"
)

func TestScripted(t *testing.T) {
	t.Parallel()

	s := generator.NewScripted().
		Say("lead", "first line", "second line")

	role := agent.RoleConfig{Name: "lead"}
	ctx := context.Background()

	turn, err := s.Generate(ctx, role, "task", chat.NewTranscript())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if turn.Content != "first line" {
		t.Errorf("Content = %q, want first line", turn.Content)
	}

	if _, err := s.Generate(ctx, role, "task", chat.NewTranscript()); err != nil {
		t.Fatal(err)
	}
	_, err = s.Generate(ctx, role, "task", chat.NewTranscript())
	if !errors.Is(err, generator.ErrScriptExhausted) {
		t.Errorf("Generate() past script error = %v, want ErrScriptExhausted", err)
	}
}

func TestCodeExecutor(t *testing.T) {
	t.Parallel()

	exec := generator.NewCodeExecutor("engineer")
	role := agent.RoleConfig{Name: "code_executor", Capabilities: []string{generator.ExecToolName}}
	ctx := context.Background()

	t.Run("extracts fenced blocks from partner turn", func(t *testing.T) {
		t.Parallel()

		transcript := chat.NewTranscript().
			Append(chat.NewTurn("engineer", "Run this:\n```python\nprint(1)\n```\nand this:\n```bash\nls -la\n```")).
			Append(chat.NewTurn("critic", "```python\nnot_mine()\n```"))

		turn, err := exec.Generate(ctx, role, "task", transcript)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if len(turn.ToolCalls) != 2 {
			t.Fatalf("ToolCalls len = %d, want 2", len(turn.ToolCalls))
		}

		var first generator.ExecRequest
		if err := json.Unmarshal(turn.ToolCalls[0].Args, &first); err != nil {
			t.Fatal(err)
		}
		if first.Language != "python" || first.Code != "print(1)\n" {
			t.Errorf("first block = %+v", first)
		}

		var second generator.ExecRequest
		if err := json.Unmarshal(turn.ToolCalls[1].Args, &second); err != nil {
			t.Fatal(err)
		}
		if second.Language != "bash" {
			t.Errorf("second block language = %s, want bash", second.Language)
		}
	})

	t.Run("no code blocks", func(t *testing.T) {
		t.Parallel()

		transcript := chat.NewTranscript().Append(chat.NewTurn("engineer", "Thinking out loud, no code yet."))
		turn, err := exec.Generate(ctx, role, "task", transcript)
		if err != nil {
			t.Fatal(err)
		}
		if len(turn.ToolCalls) != 0 {
			t.Errorf("ToolCalls len = %d, want 0", len(turn.ToolCalls))
		}
	})

	t.Run("untagged fence defaults to python", func(t *testing.T) {
		t.Parallel()

		blocks := generator.ExtractCodeBlocks("```\nx = 1\n```")
		if len(blocks) != 1 || blocks[0].Language != "python" {
			t.Errorf("ExtractCodeBlocks() = %+v, want one python block", blocks)
		}
	})
}

func TestOpenAIGenerator(t *testing.T) {
	t.Parallel()

	var captured struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{
			"choices": [{
				"message": {
					"role": "assistant",
					"content": "The plan looks complete. PLANNING_COMPLETE",
					"tool_calls": [{"function": {"name": "read_notebook", "arguments": "{}"}}]
				},
				"finish_reason": "stop"
			}]
		}`))
	}))
	defer server.Close()

	gen := generator.NewOpenAIGenerator(config.LLMConfig{
		BaseURL: server.URL,
		Model:   "gpt-4o",
	}, nil)

	role := agent.RoleConfig{Name: "lead", Prompt: "You lead the discussion."}
	transcript := chat.NewTranscript().
		Append(chat.NewTurn("ml_expert", "Suggest cross-validation.")).
		Append(chat.NewTurn("lead", "Agreed."))

	turn, err := gen.Generate(context.Background(), role, "analyze the dataset", transcript)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if turn.Author != "lead" {
		t.Errorf("Author = %s, want lead", turn.Author)
	}
	if !turn.Contains("PLANNING_COMPLETE") {
		t.Error("turn content missing model output")
	}
	if len(turn.ToolCalls) != 1 || turn.ToolCalls[0].Tool != "read_notebook" {
		t.Errorf("ToolCalls = %+v, want one read_notebook call", turn.ToolCalls)
	}

	if captured.Model != "gpt-4o" {
		t.Errorf("request model = %s", captured.Model)
	}
	if len(captured.Messages) != 4 {
		t.Fatalf("request messages = %d, want 4", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" {
		t.Errorf("first message role = %s, want system", captured.Messages[0].Role)
	}
	if captured.Messages[2].Role != "user" {
		t.Errorf("other speaker should map to user, got %s", captured.Messages[2].Role)
	}
	if captured.Messages[3].Role != "assistant" {
		t.Errorf("own turn should map to assistant, got %s", captured.Messages[3].Role)
	}
}
