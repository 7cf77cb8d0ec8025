// Package research provides web research tools: an answer-engine search and
// a webpage text extractor.
package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/helixforge/labrun/domain/pack"
	"github.com/helixforge/labrun/domain/tool"
)

// TextCap bounds extracted webpage text and search answers.
const TextCap = 10_000

// Config configures the research pack.
type Config struct {
	// APIKey authenticates against the search endpoint.
	APIKey string

	// BaseURL is the search endpoint. Defaults to the Perplexity API.
	BaseURL string

	// Model is the answer model. Defaults to sonar.
	Model string

	// Client is the HTTP client used by both tools.
	Client *http.Client
}

// New creates the research pack.
func New(cfg Config) *pack.Pack {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.perplexity.ai"
	}
	if cfg.Model == "" {
		cfg.Model = "sonar"
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 60 * time.Second}
	}

	return pack.NewBuilder("research").
		WithDescription("Web research tools").
		WithVersion("1.0.0").
		AddTools(
			searchTool(cfg),
			webpageParserTool(cfg.Client),
		).
		MustBuild()
}

type searchInput struct {
	Query string `json:"query"`
}

type searchOutput struct {
	Answer string `json:"answer"`
}

func searchTool(cfg Config) tool.Tool {
	return tool.NewBuilder("perplexity_search").
		WithDescription("Search the web and return a cited answer for the query.").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"query": tool.StringProperty("natural-language search query"),
		}, []string{"query"})).
		ReadOnly().
		WithTimeout(90 * time.Second).
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in searchInput
			if err := json.Unmarshal(input, &in); err != nil {
				return tool.Result{}, err
			}

			reqBody, err := json.Marshal(map[string]any{
				"model": cfg.Model,
				"messages": []map[string]string{
					{"role": "user", "content": in.Query},
				},
			})
			if err != nil {
				return tool.Result{}, err
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
			if err != nil {
				return tool.Result{}, err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

			resp, err := cfg.Client.Do(req)
			if err != nil {
				return tool.Result{}, err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return tool.Result{}, err
			}
			if resp.StatusCode != http.StatusOK {
				return tool.Result{}, fmt.Errorf("search endpoint status %d", resp.StatusCode)
			}

			var parsed struct {
				Choices []struct {
					Message struct {
						Content string `json:"content"`
					} `json:"message"`
				} `json:"choices"`
			}
			if err := json.Unmarshal(body, &parsed); err != nil {
				return tool.Result{}, err
			}
			if len(parsed.Choices) == 0 {
				return tool.Result{}, fmt.Errorf("search returned no answer")
			}

			answer := parsed.Choices[0].Message.Content
			truncated := false
			if len(answer) > TextCap {
				answer = answer[:TextCap]
				truncated = true
			}

			data, _ := json.Marshal(searchOutput{Answer: answer})
			res := tool.NewResult(data)
			res.Truncated = truncated
			return res, nil
		}).
		MustBuild()
}

var (
	scriptBlocks = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	htmlTags     = regexp.MustCompile(`(?s)<[^>]*>`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
	spaceRuns    = regexp.MustCompile(`[ \t]{2,}`)
)

type webpageInput struct {
	URL string `json:"url"`
}

type webpageOutput struct {
	Text      string `json:"text"`
	Truncated bool   `json:"truncated"`
}

func webpageParserTool(client *http.Client) tool.Tool {
	return tool.NewBuilder("webpage_parser").
		WithDescription("Fetch a webpage and return its visible text.").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"url": tool.StringProperty("absolute URL to fetch"),
		}, []string{"url"})).
		ReadOnly().
		WithTimeout(60 * time.Second).
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in webpageInput
			if err := json.Unmarshal(input, &in); err != nil {
				return tool.Result{}, err
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.URL, nil)
			if err != nil {
				return tool.Result{}, err
			}

			resp, err := client.Do(req)
			if err != nil {
				return tool.Result{}, err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return tool.Result{}, fmt.Errorf("fetch %s: status %d", in.URL, resp.StatusCode)
			}

			body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			if err != nil {
				return tool.Result{}, err
			}

			out := webpageOutput{Text: ExtractText(string(body))}
			if len(out.Text) > TextCap {
				out.Text = out.Text[:TextCap]
				out.Truncated = true
			}

			data, _ := json.Marshal(out)
			res := tool.NewResult(data)
			res.Truncated = out.Truncated
			return res, nil
		}).
		MustBuild()
}

// ExtractText strips markup from an HTML document and normalizes whitespace.
func ExtractText(html string) string {
	text := scriptBlocks.ReplaceAllString(html, " ")
	text = htmlTags.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = spaceRuns.ReplaceAllString(text, " ")
	text = blankRuns.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	var kept []string
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}
