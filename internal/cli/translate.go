package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pushdown/internal/condition"
	"github.com/roach88/pushdown/internal/pushdown"
)

// FilterTranslation is the outcome of translating one filter.
type FilterTranslation struct {
	Name      string `json:"name"`
	Filter    string `json:"filter"`
	Outcome   string `json:"outcome"` // pushed | fallback | error
	Condition string `json:"condition,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// TranslateResult holds the translations of one document.
type TranslateResult struct {
	Document string              `json:"document"`
	Filters  []FilterTranslation `json:"filters"`
	Pushed   int                 `json:"pushed"`
	Fallback int                 `json:"fallback"`
	Failed   int                 `json:"failed"`
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "translate <file>",
		Short: "Translate every filter of a document",
		Long: `Translate every filter of a filter document (.yaml, .yml or .cue) and
print the storage condition it pushes down.

Exit codes:
  0 - Every filter was pushed down or falls back to the engine
  1 - One or more filters failed to translate
  2 - Command error (unreadable or malformed document)

Examples:
  pushdown translate filters.yaml
  pushdown translate filters.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(rootOpts, args[0], cmd)
		},
	}
}

func runTranslate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	doc, err := loadDocument(formatter, path)
	if err != nil {
		return err
	}

	translator := pushdown.NewTranslator(opts.Logger(cmd.ErrOrStderr()).With("trace_id", formatter.TraceID))
	result := TranslateResult{
		Document: doc.Name,
		Filters:  make([]FilterTranslation, 0, len(doc.Filters)),
	}

	for _, f := range doc.Filters {
		ft := FilterTranslation{Name: f.Name, Filter: describeFilter(f.Evaluator)}

		cond, ok, err := translator.TranslateEvaluator(f.Evaluator)
		switch {
		case err != nil:
			ft.Outcome = "error"
			ft.ErrorCode = string(pushdown.CodeOf(err))
			ft.Error = err.Error()
			result.Failed++
		case ok:
			ft.Outcome = "pushed"
			ft.Condition = condition.Format(cond)
			result.Pushed++
		default:
			ft.Outcome = "fallback"
			result.Fallback++
		}
		result.Filters = append(result.Filters, ft)
	}

	if formatter.JSON() {
		var cliErr *CLIError
		if result.Failed > 0 {
			cliErr = &CLIError{
				Code:    "E_TRANSLATE_FAILED",
				Message: fmt.Sprintf("%d filter(s) failed to translate", result.Failed),
			}
		}
		if err := formatter.Respond(result, cliErr); err != nil {
			return err
		}
	} else {
		outputTranslateText(formatter, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d filter(s) failed to translate", result.Failed))
	}
	return nil
}

func outputTranslateText(formatter *OutputFormatter, result TranslateResult) {
	w := formatter.Writer
	for _, ft := range result.Filters {
		switch ft.Outcome {
		case "pushed":
			fmt.Fprintf(w, "%s: pushed %s\n", ft.Name, ft.Condition)
		case "fallback":
			fmt.Fprintf(w, "%s: fallback\n", ft.Name)
		default:
			fmt.Fprintf(w, "%s: error %s\n", ft.Name, ft.Error)
		}
		formatter.VerboseLog("  filter %s: %s", ft.Name, ft.Filter)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s: %d pushed, %d fallback, %d failed\n", result.Document, result.Pushed, result.Fallback, result.Failed)
}
