// Package notebookpack exposes the lab notebook to agents as tools. Reads
// return the tail of the rendered markdown document; writes append immutable
// entries through the configured store.
package notebookpack

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/helixforge/labrun/domain/agent"
	"github.com/helixforge/labrun/domain/notebook"
	"github.com/helixforge/labrun/domain/pack"
	"github.com/helixforge/labrun/domain/tool"
)

// Config configures the notebook pack.
type Config struct {
	// Store is the notebook persistence backend.
	Store notebook.Store

	// ReadLimit caps rendered notebook characters returned by reads.
	// Zero means notebook.DefaultReadLimit.
	ReadLimit int

	// Source names the writer recorded on appended entries, typically the
	// role name of the agent holding the tool.
	Source string

	// Team is the team recorded on appended entries.
	Team agent.Team
}

// New creates the notebook pack.
func New(cfg Config) *pack.Pack {
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = notebook.DefaultReadLimit
	}
	if cfg.Source == "" {
		cfg.Source = "agent"
	}

	return pack.NewBuilder("notebook").
		WithDescription("Durable lab notebook access").
		WithVersion("1.0.0").
		AddTools(
			readNotebookTool(cfg),
			writeNotebookTool(cfg),
		).
		MustBuild()
}

type readNotebookOutput struct {
	Content string `json:"content"`
	Entries int    `json:"entries"`
}

func readNotebookTool(cfg Config) tool.Tool {
	return tool.NewBuilder("read_notebook").
		WithDescription("Read the lab notebook. Long notebooks are clipped to their most recent entries.").
		WithInputSchema(tool.EmptySchema()).
		ReadOnly().
		WithTimeout(30 * time.Second).
		WithHandler(func(ctx context.Context, _ json.RawMessage) (tool.Result, error) {
			entries, err := cfg.Store.Read(ctx)
			if err != nil {
				return tool.Result{}, err
			}

			out := readNotebookOutput{
				Content: notebook.RenderTail(entries, cfg.ReadLimit),
				Entries: len(entries),
			}
			data, _ := json.Marshal(out)
			res := tool.NewResult(data)
			res.Truncated = len(notebook.Render(entries)) > cfg.ReadLimit
			return res, nil
		}).
		MustBuild()
}

type writeNotebookInput struct {
	Type string `json:"type"`
	Body string `json:"body"`
}

type writeNotebookOutput struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
}

func writeNotebookTool(cfg Config) tool.Tool {
	return tool.NewBuilder("write_notebook").
		WithDescription("Append an entry to the lab notebook. Type is one of PLAN, NOTE, OUTPUT, COMPLETION.").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"type": tool.StringProperty("entry type: PLAN, NOTE, OUTPUT or COMPLETION"),
			"body": tool.StringProperty("entry content, markdown allowed"),
		}, []string{"type", "body"})).
		WithTimeout(30 * time.Second).
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in writeNotebookInput
			if err := json.Unmarshal(input, &in); err != nil {
				return tool.Result{}, err
			}

			entry := notebook.NewEntry(cfg.Source, cfg.Team, notebook.EntryType(in.Type), in.Body)
			if err := entry.Validate(); err != nil {
				return tool.Result{}, fmt.Errorf("%w: %v", tool.ErrInvalidInput, err)
			}
			if err := cfg.Store.Append(ctx, entry); err != nil {
				return tool.Result{}, err
			}

			data, _ := json.Marshal(writeNotebookOutput{
				ID:        entry.ID.String(),
				Timestamp: entry.Timestamp.Format(time.RFC3339),
			})
			return tool.NewResult(data), nil
		}).
		MustBuild()
}
