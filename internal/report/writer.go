package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Writer persists rendered reports and masked documents under one output
// directory. All files from a run share its timestamp suffix.
type Writer struct {
	dir string
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &Writer{dir: dir}, nil
}

// WriteReports writes the plain and masked report files and returns their
// paths.
func (w *Writer) WriteReports(r *Report) (plainPath, maskedPath string, err error) {
	ts := r.GeneratedAt.Format(timestampLayout)

	plainPath = filepath.Join(w.dir, fmt.Sprintf("diff_report_%s.txt", ts))
	if err = os.WriteFile(plainPath, []byte(Render(r)), 0o644); err != nil {
		return "", "", fmt.Errorf("write report: %w", err)
	}

	maskedPath = filepath.Join(w.dir, fmt.Sprintf("diff_report_masked_%s.txt", ts))
	if err = os.WriteFile(maskedPath, []byte(RenderMasked(r)), 0o644); err != nil {
		return "", "", fmt.Errorf("write masked report: %w", err)
	}
	return plainPath, maskedPath, nil
}

// WriteMaskedDocuments masks each document via the assembler and writes one
// masked_<name>_<ts>.txt file per document. Returns the written paths.
func (w *Writer) WriteMaskedDocuments(ctx context.Context, a *Assembler, r *Report, docs []Document) ([]string, error) {
	ts := r.GeneratedAt.Format(timestampLayout)
	paths := make([]string, 0, len(docs))
	for _, doc := range docs {
		masked, _ := a.MaskDocument(ctx, doc)
		name := fmt.Sprintf("masked_%s_%s.txt", baseName(doc.Name), ts)
		path := filepath.Join(w.dir, name)
		if err := os.WriteFile(path, []byte(masked), 0o644); err != nil {
			return paths, fmt.Errorf("write masked document %s: %w", doc.Name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// baseName strips directory and extension from a document name for use in
// output file names.
func baseName(name string) string {
	base := filepath.Base(name)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
