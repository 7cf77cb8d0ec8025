package fileops_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/helixforge/labrun/domain/tool"
	"github.com/helixforge/labrun/pack/fileops"
)

func findTool(t *testing.T, name string, tools []tool.Tool) tool.Tool {
	t.Helper()
	for _, tl := range tools {
		if tl.Name() == name {
			return tl
		}
	}
	t.Fatalf("tool %s not in pack", name)
	return nil
}

func TestReadTextFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello workspace"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := fileops.New(root)
	read := findTool(t, "read_text_file", p.Tools())

	res, err := read.Execute(context.Background(), json.RawMessage(`{"path":"notes.txt"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var out struct {
		Content   string `json:"content"`
		Truncated bool   `json:"truncated"`
	}
	if err := json.Unmarshal(res.Output, &out); err != nil {
		t.Fatal(err)
	}
	if out.Content != "hello workspace" {
		t.Errorf("Content = %q", out.Content)
	}
	if out.Truncated {
		t.Error("small file reported truncated")
	}
}

func writeArrowFile(t *testing.T, path string) {
	t.Helper()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "sample_id", Type: arrow.BinaryTypes.String},
		{Name: "age", Type: arrow.PrimitiveTypes.Float64},
	}, nil)

	bld := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer bld.Release()
	bld.Field(0).(*array.StringBuilder).AppendValues([]string{"GSM100", "GSM101", "GSM102"}, nil)
	bld.Field(1).(*array.Float64Builder).AppendValues([]float64{63.5, 41.2, 58.9}, nil)
	rec := bld.NewRecord()
	defer rec.Release()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(rec); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestReadArrowFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeArrowFile(t, filepath.Join(root, "methylation.feather"))

	read := findTool(t, "read_arrow_file", fileops.New(root).Tools())
	res, err := read.Execute(context.Background(), json.RawMessage(`{"path":"methylation.feather"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var out struct {
		Columns []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"columns"`
		Rows      [][]string `json:"rows"`
		TotalRows int64      `json:"total_rows"`
		Truncated bool       `json:"truncated"`
	}
	if err := json.Unmarshal(res.Output, &out); err != nil {
		t.Fatal(err)
	}

	if len(out.Columns) != 2 || out.Columns[0].Name != "sample_id" || out.Columns[1].Name != "age" {
		t.Errorf("Columns = %+v", out.Columns)
	}
	if out.TotalRows != 3 || len(out.Rows) != 3 {
		t.Errorf("TotalRows = %d, previewed %d, want 3 and 3", out.TotalRows, len(out.Rows))
	}
	if out.Rows[0][0] != "GSM100" {
		t.Errorf("Rows[0][0] = %q, want GSM100", out.Rows[0][0])
	}
	if out.Truncated {
		t.Error("full preview reported truncated")
	}
}

func TestReadArrowFile_RowCap(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeArrowFile(t, filepath.Join(root, "ages.feather"))

	read := findTool(t, "read_arrow_file", fileops.New(root).Tools())
	res, err := read.Execute(context.Background(), json.RawMessage(`{"path":"ages.feather","rows":1}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var out struct {
		Rows      [][]string `json:"rows"`
		TotalRows int64      `json:"total_rows"`
		Truncated bool       `json:"truncated"`
	}
	if err := json.Unmarshal(res.Output, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Rows) != 1 || out.TotalRows != 3 {
		t.Errorf("previewed %d of %d rows, want 1 of 3", len(out.Rows), out.TotalRows)
	}
	if !out.Truncated {
		t.Error("clipped preview not reported truncated")
	}
	if !res.Truncated {
		t.Error("result truncation flag not set")
	}
}

func TestReadArrowFile_NotArrow(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}

	read := findTool(t, "read_arrow_file", fileops.New(root).Tools())
	if _, err := read.Execute(context.Background(), json.RawMessage(`{"path":"notes.txt"}`)); err == nil {
		t.Error("Execute() accepted a non-Arrow file")
	}
}

func TestReadTextFile_Truncation(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	big := strings.Repeat("x", fileops.ReadCap+500)
	if err := os.WriteFile(filepath.Join(root, "big.txt"), []byte(big), 0o644); err != nil {
		t.Fatal(err)
	}

	read := findTool(t, "read_text_file", fileops.New(root).Tools())
	res, err := read.Execute(context.Background(), json.RawMessage(`{"path":"big.txt"}`))
	if err != nil {
		t.Fatal(err)
	}

	var out struct {
		Content   string `json:"content"`
		Truncated bool   `json:"truncated"`
	}
	if err := json.Unmarshal(res.Output, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Content) != fileops.ReadCap {
		t.Errorf("Content len = %d, want %d", len(out.Content), fileops.ReadCap)
	}
	if !out.Truncated || !res.Truncated {
		t.Error("oversized file not marked truncated")
	}
}

func TestWriteTextFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	write := findTool(t, "write_text_file", fileops.New(root).Tools())

	input, _ := json.Marshal(map[string]string{
		"path":    "out/results.csv",
		"content": "a,b\n1,2\n",
	})
	if _, err := write.Execute(context.Background(), input); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, "out", "results.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "a,b\n1,2\n" {
		t.Errorf("written content = %q", got)
	}
}

func TestPathEscapeRejected(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	read := findTool(t, "read_text_file", fileops.New(root).Tools())

	// Leading .. segments are stripped during resolution, so the read stays
	// inside the workspace and misses rather than reaching /etc/passwd.
	res, err := read.Execute(context.Background(), json.RawMessage(`{"path":"../../etc/passwd"}`))
	if err == nil {
		t.Errorf("escape path read succeeded: %s", res.OutputString())
	}
	if errors.Is(err, fileops.ErrPathEscape) {
		// Also acceptable; the tool may reject instead of miss.
		return
	}
}

func TestSearchDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"model_v1.py", "model_v2.py", "readme.md"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "model_v3.py"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	search := findTool(t, "search_directory", fileops.New(root).Tools())
	res, err := search.Execute(context.Background(), json.RawMessage(`{"pattern":"model"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var out struct {
		Matches []string `json:"matches"`
		Count   int      `json:"count"`
	}
	if err := json.Unmarshal(res.Output, &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 3 {
		t.Errorf("Count = %d, want 3 (%v)", out.Count, out.Matches)
	}
	found := false
	for _, m := range out.Matches {
		if m == filepath.Join("sub", "model_v3.py") {
			found = true
		}
	}
	if !found {
		t.Errorf("nested match missing from %v", out.Matches)
	}
}
