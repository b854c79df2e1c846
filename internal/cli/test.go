package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pushdown/internal/harness"
	"github.com/roach88/pushdown/internal/loader"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // document filter (glob on the file name without extension)
	DBPath string // SQLite path for fixtures
}

// DocumentResult holds the result of one document.
type DocumentResult struct {
	File   string   `json:"file"`
	Name   string   `json:"name,omitempty"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Documents []DocumentResult `json:"documents"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <dir>",
		Short: "Run filter documents through the harness",
		Long: `Run every filter document under a directory through the harness.

Each filter is translated and checked against its expect block; documents
with vertex fixtures are scanned against a freshly seeded store. When
golden/<name>.golden exists next to a document, the run's snapshot must
match it.

Exit codes:
  0 - All documents passed
  1 - One or more documents failed
  2 - Command error (directory not found, no documents)

Examples:
  pushdown test ./filters
  pushdown test ./filters --filter "range*"
  pushdown test ./filters --update
  pushdown test ./filters --db /tmp/harness.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter documents by glob pattern")
	cmd.Flags().StringVar(&opts.DBPath, "db", ":memory:", "SQLite database for vertex fixtures")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	files, err := loader.FindFiles(dir)
	if err != nil {
		code, message := loadErrorParts(err)
		_ = formatter.Error(code, message, nil)
		return WrapExitError(ExitCommandError, code, err)
	}
	if files, err = filterFiles(files, opts.Filter); err != nil {
		_ = formatter.Error(loader.ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid filter", err)
	}

	if len(files) == 0 {
		if formatter.JSON() {
			return formatter.Respond(TestResult{Documents: []DocumentResult{}}, nil)
		}
		fmt.Fprintln(formatter.Writer, "No documents found.")
		return nil
	}

	// Snapshots carry the harness's fixed trace ID so golden files stay
	// stable across runs.
	h := harness.New(
		harness.WithLogger(opts.Logger(cmd.ErrOrStderr())),
		harness.WithDBPath(opts.DBPath),
	)

	result := TestResult{
		Documents: make([]DocumentResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		dr := runDocument(h, file, opts, cmd)
		if dr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Documents = append(result.Documents, dr)

		if !formatter.JSON() {
			outputDocumentText(formatter, dr)
		}
	}

	if formatter.JSON() {
		var cliErr *CLIError
		if result.Failed > 0 {
			cliErr = &CLIError{
				Code:    "E_TEST_FAILED",
				Message: fmt.Sprintf("%d document(s) failed", result.Failed),
			}
		}
		if err := formatter.Respond(result, cliErr); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
		if result.Failed == 0 {
			fmt.Fprintln(w, "✓ All documents passed")
		}
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d document(s) failed", result.Failed))
	}
	return nil
}

// filterFiles keeps files whose name without extension matches pattern.
func filterFiles(files []string, pattern string) ([]string, error) {
	if pattern == "" {
		return files, nil
	}
	var out []string
	for _, f := range files {
		base := filepath.Base(f)
		matched, err := filepath.Match(pattern, strings.TrimSuffix(base, filepath.Ext(base)))
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			out = append(out, f)
		}
	}
	return out, nil
}

func runDocument(h *harness.Harness, file string, opts *TestOptions, cmd *cobra.Command) DocumentResult {
	dr := DocumentResult{File: file}

	doc, err := loader.LoadFile(file)
	if err != nil {
		dr.Errors = []string{fmt.Sprintf("load error: %v", err)}
		return dr
	}
	dr.Name = doc.Name

	result, err := h.Run(cmd.Context(), doc)
	if err != nil {
		dr.Errors = []string{fmt.Sprintf("execution error: %v", err)}
		return dr
	}
	dr.Errors = result.Failures()

	goldenPath := harness.GoldenPath(file)
	switch {
	case opts.Update:
		if err := harness.UpdateGolden(goldenPath, result); err != nil {
			dr.Errors = append(dr.Errors, fmt.Sprintf("golden update error: %v", err))
		}
	case fileExists(goldenPath):
		match, err := harness.CompareGolden(goldenPath, result)
		if err != nil {
			dr.Errors = append(dr.Errors, fmt.Sprintf("golden comparison error: %v", err))
		} else if !match {
			dr.Errors = append(dr.Errors, "snapshot does not match golden file (run with --update to regenerate)")
		}
	}

	dr.Pass = len(dr.Errors) == 0
	return dr
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func outputDocumentText(formatter *OutputFormatter, dr DocumentResult) {
	name := dr.Name
	if name == "" {
		name = filepath.Base(dr.File)
	}
	if dr.Pass {
		fmt.Fprintf(formatter.Writer, "✓ %s\n", name)
		return
	}
	fmt.Fprintf(formatter.Writer, "✗ %s\n", name)
	for _, e := range dr.Errors {
		fmt.Fprintf(formatter.Writer, "  %s\n", e)
	}
}
