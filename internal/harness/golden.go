package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/pushdown/internal/ir"
	"github.com/roach88/pushdown/internal/loader"
)

// Snapshot renders the observable part of r as canonical JSON: document,
// trace ID, and per filter its outcome, condition, error and IDs. Check
// failures are not part of a snapshot.
func Snapshot(r *Result) ([]byte, error) {
	filters := make([]any, len(r.Filters))
	for i, f := range r.Filters {
		m := map[string]any{
			"seq":     f.Seq,
			"name":    f.Name,
			"outcome": string(f.Outcome),
		}
		if f.Condition != "" {
			m["condition"] = f.Condition
		}
		if f.Error != "" {
			m["error"] = f.Error
			m["message"] = f.Message
		}
		if f.IDs != nil {
			ids := make([]any, len(f.IDs))
			for j, id := range f.IDs {
				ids[j] = id
			}
			m["ids"] = ids
		}
		filters[i] = m
	}

	snapshot := map[string]any{
		"document": r.Document,
		"filters":  filters,
	}
	if r.TraceID != "" {
		snapshot["trace_id"] = r.TraceID
	}
	return ir.MarshalCanonical(snapshot)
}

// RunWithGolden runs doc and compares its snapshot against
// testdata/golden/{doc.Name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, h *Harness, doc *loader.Document) (*Result, error) {
	t.Helper()

	result, err := h.Run(context.Background(), doc)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, doc.Name, result)
}

// AssertGolden compares the snapshot of result against the golden file
// for name.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

// GoldenPath returns golden/<base>.golden next to the document file.
func GoldenPath(docFile string) string {
	base := filepath.Base(docFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(docFile), "golden", name+".golden")
}

// UpdateGolden writes the snapshot of result to path.
func UpdateGolden(path string, result *Result) error {
	data, err := Snapshot(result)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether the snapshot of result equals the
// golden file at path.
func CompareGolden(path string, result *Result) (bool, error) {
	want, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	got, err := Snapshot(result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return bytes.Equal(want, got), nil
}
