package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pushdown/internal/predicate"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Strict bool // treat portability warnings as failures
}

// FilterCheck is the structural check of one filter.
type FilterCheck struct {
	Name       string   `json:"name"`
	WellFormed bool     `json:"well_formed"`
	Portable   bool     `json:"portable"`
	Problems   []string `json:"problems,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// CheckResult holds the checks of one document.
type CheckResult struct {
	Document string        `json:"document"`
	Valid    bool          `json:"valid"`
	Filters  []FilterCheck `json:"filters"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Check filters without translating them",
		Long: `Load a filter document and check every filter structurally.

Problems (nil nodes, constants without values, unknown comparators) make a
filter unusable. Warnings name the parts of a filter that have no storage
counterpart; such filters translate to an error or fall back to the engine.

Exit codes:
  0 - No problems (and, with --strict, no warnings)
  1 - One or more filters have problems
  2 - Command error (unreadable or malformed document)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on portability warnings")

	return cmd
}

func runCheck(opts *CheckOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	doc, err := loadDocument(formatter, path)
	if err != nil {
		return err
	}

	result := CheckResult{
		Document: doc.Name,
		Valid:    true,
		Filters:  make([]FilterCheck, 0, len(doc.Filters)),
	}
	failed := 0
	for _, f := range doc.Filters {
		v := predicate.ValidateEvaluator(f.Evaluator)
		fc := FilterCheck{
			Name:       f.Name,
			WellFormed: v.WellFormed,
			Portable:   v.Portable,
			Problems:   v.Problems,
			Warnings:   v.Warnings,
		}
		if !fc.WellFormed || (opts.Strict && !fc.Portable) {
			failed++
			result.Valid = false
		}
		result.Filters = append(result.Filters, fc)
	}

	if formatter.JSON() {
		var cliErr *CLIError
		if failed > 0 {
			cliErr = &CLIError{
				Code:    "E_CHECK_FAILED",
				Message: fmt.Sprintf("%d filter(s) failed the check", failed),
			}
		}
		if err := formatter.Respond(result, cliErr); err != nil {
			return err
		}
	} else {
		outputCheckText(formatter, result)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d filter(s) failed the check", failed))
	}
	return nil
}

func outputCheckText(formatter *OutputFormatter, result CheckResult) {
	w := formatter.Writer
	for _, fc := range result.Filters {
		mark := "✓"
		if !fc.WellFormed {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, fc.Name)
		for _, p := range fc.Problems {
			fmt.Fprintf(w, "  problem: %s\n", p)
		}
		for _, warn := range fc.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warn)
		}
	}

	fmt.Fprintln(w)
	if result.Valid {
		fmt.Fprintf(w, "✓ %s: all filters valid\n", result.Document)
	} else {
		fmt.Fprintf(w, "✗ %s: check failed\n", result.Document)
	}
}
