package fileops

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/helixforge/labrun/domain/tool"
)

// PreviewRows bounds how many rows read_arrow_file renders. The methylation
// matrices the tool targets run to hundreds of thousands of rows; agents get
// the schema plus a head sample and narrow their reads from there.
const PreviewRows = 20

type readArrowFileInput struct {
	Path string `json:"path"`
	Rows int    `json:"rows,omitempty"`
}

type arrowColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type readArrowFileOutput struct {
	Columns   []arrowColumn `json:"columns"`
	Rows      [][]string    `json:"rows"`
	TotalRows int64         `json:"total_rows"`
	Truncated bool          `json:"truncated"`
}

func readArrowFileTool(root string) tool.Tool {
	return tool.NewBuilder("read_arrow_file").
		WithDescription("Preview an Arrow or Feather file from the workspace: schema plus the first rows.").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"path": tool.StringProperty("path relative to the workspace root"),
			"rows": tool.IntProperty("rows to preview, defaults to 20"),
		}, []string{"path"})).
		ReadOnly().
		WithHandler(func(_ context.Context, input json.RawMessage) (tool.Result, error) {
			var in readArrowFileInput
			if err := json.Unmarshal(input, &in); err != nil {
				return tool.Result{}, err
			}
			if in.Rows <= 0 || in.Rows > PreviewRows {
				in.Rows = PreviewRows
			}

			path, err := resolve(root, in.Path)
			if err != nil {
				return tool.Result{}, err
			}

			f, err := os.Open(path)
			if err != nil {
				return tool.Result{}, err
			}
			defer f.Close()

			r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.DefaultAllocator))
			if err != nil {
				return tool.Result{}, err
			}
			defer r.Close()

			out := readArrowFileOutput{Rows: [][]string{}}
			for _, field := range r.Schema().Fields() {
				out.Columns = append(out.Columns, arrowColumn{
					Name: field.Name,
					Type: field.Type.String(),
				})
			}

			for {
				rec, err := r.Read()
				if err == io.EOF {
					break
				}
				if err != nil {
					return tool.Result{}, err
				}

				out.TotalRows += rec.NumRows()
				for i := 0; int64(i) < rec.NumRows() && len(out.Rows) < in.Rows; i++ {
					row := make([]string, int(rec.NumCols()))
					for c, col := range rec.Columns() {
						row[c] = col.ValueStr(i)
					}
					out.Rows = append(out.Rows, row)
				}
			}
			out.Truncated = out.TotalRows > int64(len(out.Rows))

			data, _ := json.Marshal(out)
			res := tool.NewResult(data)
			res.Truncated = out.Truncated
			return res, nil
		}).
		MustBuild()
}
