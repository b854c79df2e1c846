package harness

import (
	"fmt"

	"github.com/roach88/pushdown/internal/loader"
)

// Result is the outcome of running one document.
type Result struct {
	Document string         `json:"document"`
	TraceID  string         `json:"trace_id,omitempty"`
	Pass     bool           `json:"pass"`
	Filters  []FilterResult `json:"filters"`
}

// FilterResult records what happened to one filter.
type FilterResult struct {
	Seq     int64          `json:"seq"`
	Name    string         `json:"name"`
	Outcome loader.Outcome `json:"outcome"`

	// Condition is the rendered storage condition; set when pushed.
	Condition string `json:"condition,omitempty"`

	// Error is the lowercase error code and Message the full error text;
	// set when the translation failed.
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`

	// IDs are the matching vertex IDs; nil when the document has no
	// fixtures or the translation failed.
	IDs []int64 `json:"ids,omitempty"`

	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

func newResult(doc string, traceID string) *Result {
	return &Result{
		Document: doc,
		TraceID:  traceID,
		Pass:     true,
		Filters:  []FilterResult{},
	}
}

func (r *Result) add(f FilterResult) {
	if !f.Pass {
		r.Pass = false
	}
	r.Filters = append(r.Filters, f)
}

func (f *FilterResult) fail(format string, args ...any) {
	f.Errors = append(f.Errors, fmt.Sprintf(format, args...))
	f.Pass = false
}

// Failures lists every failed check as "filter: message".
func (r *Result) Failures() []string {
	var out []string
	for _, f := range r.Filters {
		for _, e := range f.Errors {
			out = append(out, f.Name+": "+e)
		}
	}
	return out
}
