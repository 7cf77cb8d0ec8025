// Package fileops provides workspace file tools. Every path is resolved
// against the workspace root; escapes are rejected.
package fileops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/helixforge/labrun/domain/pack"
	"github.com/helixforge/labrun/domain/tool"
)

// ReadCap bounds how many characters read_text_file returns. Longer files
// are truncated with a marker so agents know to narrow their read.
const ReadCap = 10_000

// ErrPathEscape indicates a path resolving outside the workspace.
var ErrPathEscape = errors.New("path escapes the workspace")

// New creates the fileops pack rooted at the given workspace directory.
func New(root string) *pack.Pack {
	return pack.NewBuilder("fileops").
		WithDescription("Workspace file operations").
		WithVersion("1.0.0").
		AddTools(
			readTextFileTool(root),
			readArrowFileTool(root),
			writeTextFileTool(root),
			searchDirectoryTool(root),
		).
		MustBuild()
}

// resolve joins the relative path to the root and rejects escapes.
func resolve(root, rel string) (string, error) {
	abs := filepath.Join(root, filepath.Clean("/"+rel))
	rootClean := filepath.Clean(root)
	if abs != rootClean && !strings.HasPrefix(abs, rootClean+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, rel)
	}
	return abs, nil
}

type readTextFileInput struct {
	Path string `json:"path"`
}

type readTextFileOutput struct {
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
	Size      int64  `json:"size"`
}

func readTextFileTool(root string) tool.Tool {
	return tool.NewBuilder("read_text_file").
		WithDescription("Read a UTF-8 text file from the workspace, truncated to 10k characters.").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"path": tool.StringProperty("path relative to the workspace root"),
		}, []string{"path"})).
		ReadOnly().
		WithHandler(func(_ context.Context, input json.RawMessage) (tool.Result, error) {
			var in readTextFileInput
			if err := json.Unmarshal(input, &in); err != nil {
				return tool.Result{}, err
			}

			path, err := resolve(root, in.Path)
			if err != nil {
				return tool.Result{}, err
			}

			content, err := os.ReadFile(path)
			if err != nil {
				return tool.Result{}, err
			}

			out := readTextFileOutput{Content: string(content), Size: int64(len(content))}
			if len(out.Content) > ReadCap {
				out.Content = out.Content[:ReadCap]
				out.Truncated = true
			}

			data, _ := json.Marshal(out)
			res := tool.NewResult(data)
			res.Truncated = out.Truncated
			return res, nil
		}).
		MustBuild()
}

type writeTextFileInput struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type writeTextFileOutput struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

func writeTextFileTool(root string) tool.Tool {
	return tool.NewBuilder("write_text_file").
		WithDescription("Write a UTF-8 text file into the workspace, creating parent directories.").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"path":    tool.StringProperty("path relative to the workspace root"),
			"content": tool.StringProperty("file content"),
		}, []string{"path", "content"})).
		WithHandler(func(_ context.Context, input json.RawMessage) (tool.Result, error) {
			var in writeTextFileInput
			if err := json.Unmarshal(input, &in); err != nil {
				return tool.Result{}, err
			}

			path, err := resolve(root, in.Path)
			if err != nil {
				return tool.Result{}, err
			}

			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return tool.Result{}, err
			}
			if err := os.WriteFile(path, []byte(in.Content), 0o600); err != nil {
				return tool.Result{}, err
			}

			data, _ := json.Marshal(writeTextFileOutput{Path: in.Path, Bytes: len(in.Content)})
			return tool.NewResult(data), nil
		}).
		MustBuild()
}

type searchDirectoryInput struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path,omitempty"`
}

type searchDirectoryOutput struct {
	Matches []string `json:"matches"`
	Count   int      `json:"count"`
}

func searchDirectoryTool(root string) tool.Tool {
	return tool.NewBuilder("search_directory").
		WithDescription("Find workspace files whose names contain the pattern.").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"pattern": tool.StringProperty("substring to match against file names"),
			"path":    tool.StringProperty("subdirectory to search, defaults to the workspace root"),
		}, []string{"pattern"})).
		ReadOnly().
		WithHandler(func(_ context.Context, input json.RawMessage) (tool.Result, error) {
			var in searchDirectoryInput
			if err := json.Unmarshal(input, &in); err != nil {
				return tool.Result{}, err
			}

			start, err := resolve(root, in.Path)
			if err != nil {
				return tool.Result{}, err
			}

			out := searchDirectoryOutput{Matches: []string{}}
			err = filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					return nil
				}
				if strings.Contains(d.Name(), in.Pattern) {
					rel, err := filepath.Rel(root, path)
					if err != nil {
						return err
					}
					out.Matches = append(out.Matches, rel)
				}
				return nil
			})
			if err != nil {
				return tool.Result{}, err
			}
			out.Count = len(out.Matches)

			data, _ := json.Marshal(out)
			return tool.NewResult(data), nil
		}).
		MustBuild()
}
