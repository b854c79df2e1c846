package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/pushdown/internal/condition"
	"github.com/roach88/pushdown/internal/loader"
	"github.com/roach88/pushdown/internal/predicate"
	"github.com/roach88/pushdown/internal/pushdown"
	"github.com/roach88/pushdown/internal/store"
	"github.com/roach88/pushdown/internal/testutil"
)

// TraceIDGenerator supplies the trace ID recorded for each run.
type TraceIDGenerator interface {
	Generate() string
}

// Harness runs documents. It is not safe for concurrent use: the filter
// sequence restarts with every Run.
type Harness struct {
	translator *pushdown.Translator
	logger     *slog.Logger
	dbPath     string
	seq        *testutil.Sequence
	traceIDs   TraceIDGenerator
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger for the harness and its translator. The
// default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) { h.logger = logger }
}

// WithDBPath sets the SQLite path fixtures are loaded into. The default
// is ":memory:". An existing file is cleared before seeding.
func WithDBPath(path string) Option {
	return func(h *Harness) { h.dbPath = path }
}

// WithTraceIDs sets the trace ID source. The default returns
// testutil.DefaultTraceID.
func WithTraceIDs(gen TraceIDGenerator) Option {
	return func(h *Harness) { h.traceIDs = gen }
}

// New returns a harness with the given options applied.
func New(opts ...Option) *Harness {
	h := &Harness{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		dbPath:   ":memory:",
		seq:      testutil.NewSequence(),
		traceIDs: testutil.NewFixedTraceIDs(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.translator = pushdown.NewTranslator(h.logger)
	return h
}

// Run runs doc with a default harness.
func Run(doc *loader.Document) (*Result, error) {
	return New().Run(context.Background(), doc)
}

// Run translates every filter of doc and checks it against its expect
// block. Failed checks and failed scans are reported per filter in the
// Result; an error means the store could not be opened or seeded.
func (h *Harness) Run(ctx context.Context, doc *loader.Document) (*Result, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}

	h.seq.Reset()
	result := newResult(doc.Name, h.traceIDs.Generate())

	var st *store.Store
	if len(doc.Vertices) > 0 {
		var err error
		if st, err = h.seed(ctx, doc.Vertices); err != nil {
			return nil, fmt.Errorf("document %q: %w", doc.Name, err)
		}
		defer st.Close()
	}

	for _, f := range doc.Filters {
		result.add(h.runFilter(ctx, st, f))
	}

	h.logger.Info("document checked",
		"document", doc.Name,
		"trace_id", result.TraceID,
		"filters", len(result.Filters),
		"pass", result.Pass,
	)
	return result, nil
}

func (h *Harness) seed(ctx context.Context, vertices []store.Vertex) (*store.Store, error) {
	st, err := store.Open(h.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := st.Clear(ctx); err != nil {
		st.Close()
		return nil, err
	}
	if err := st.PutVertices(ctx, vertices); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}
	return st, nil
}

func (h *Harness) runFilter(ctx context.Context, st *store.Store, f loader.Filter) FilterResult {
	fr := FilterResult{Seq: h.seq.Next(), Name: f.Name, Pass: true}

	cond, ok, err := h.translator.TranslateEvaluator(f.Evaluator)
	switch {
	case err != nil:
		fr.Outcome = loader.OutcomeError
		fr.Error = strings.ToLower(string(pushdown.CodeOf(err)))
		fr.Message = err.Error()
	case ok:
		fr.Outcome = loader.OutcomePushed
		fr.Condition = condition.Format(cond)
	default:
		fr.Outcome = loader.OutcomeFallback
	}

	if st != nil {
		if local, scan := h.residual(f.Evaluator, ok, err); scan {
			ids, scanErr := h.selectIDs(ctx, st, cond, local)
			if scanErr != nil {
				fr.fail("rows: %v", scanErr)
			} else {
				fr.IDs = ids
			}
		}
	}

	check(&fr, f.Expect, st != nil)

	h.logger.Debug("filter checked",
		"seq", fr.Seq,
		"filter", fr.Name,
		"outcome", fr.Outcome,
		"ids", fr.IDs,
		"pass", fr.Pass,
	)
	return fr
}

// rowFilter decides whether the engine keeps a scanned vertex.
type rowFilter func(v store.Vertex) (bool, error)

// residual returns the engine-side filter applied to scanned rows, and
// whether the filter is scanned at all. Pushed filters need no residual.
// A fallback tree is matched locally. A general expression is matched
// locally too; vertices it fails on are dropped. Filters that failed
// translation for any other reason are not scanned.
func (h *Harness) residual(e predicate.Evaluator, pushed bool, err error) (rowFilter, bool) {
	if general := generalExpr(e); general != nil {
		return func(v store.Vertex) (bool, error) {
			match, err := general.Matches(v.ID, v.Label, v.Props)
			if err != nil {
				h.logger.Debug("expression failed on vertex", "id", v.ID, "error", err)
				return false, nil
			}
			return match, nil
		}, true
	}
	if err != nil {
		return nil, false
	}
	if pushed {
		return nil, true
	}
	tree := predicateTree(e)
	return func(v store.Vertex) (bool, error) {
		return predicate.Match(tree, v.ID, v.Label, v.Props)
	}, true
}

// selectIDs scans with cond and keeps the rows local accepts. A nil
// local keeps every row.
func (h *Harness) selectIDs(ctx context.Context, st *store.Store, cond condition.Condition, local rowFilter) ([]int64, error) {
	rows, err := st.Scan(ctx, cond)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(rows))
	for _, v := range rows {
		if local != nil {
			keep, err := local(v)
			if err != nil {
				return nil, fmt.Errorf("vertex %d: %w", v.ID, err)
			}
			if !keep {
				continue
			}
		}
		ids = append(ids, v.ID)
	}
	return ids, nil
}

func check(fr *FilterResult, e *loader.Expect, seeded bool) {
	if e == nil {
		return
	}

	if fr.Outcome != e.Outcome {
		if fr.Message != "" {
			fr.fail("outcome: want %s, got %s (%s)", e.Outcome, fr.Outcome, fr.Message)
		} else {
			fr.fail("outcome: want %s, got %s", e.Outcome, fr.Outcome)
		}
	}
	if e.Condition != "" && fr.Condition != e.Condition {
		fr.fail("condition: want %q, got %q", e.Condition, fr.Condition)
	}
	if e.Error != "" && fr.Error != e.Error {
		fr.fail("error: want %s, got %s", e.Error, orNone(fr.Error))
	}
	if e.CheckIDs {
		switch {
		case !seeded:
			fr.fail("ids: document has no vertices")
		case fr.IDs == nil && fr.Outcome == loader.OutcomeError:
			fr.fail("ids: translation failed, nothing was scanned")
		case fr.IDs != nil && !slices.Equal(fr.IDs, e.IDs):
			fr.fail("ids: want %v, got %v", e.IDs, fr.IDs)
		}
	}
}

func predicateTree(e predicate.Evaluator) predicate.Predicates {
	switch ev := e.(type) {
	case predicate.PredicateEvaluator:
		return ev.Tree
	case *predicate.PredicateEvaluator:
		if ev != nil {
			return ev.Tree
		}
	}
	return nil
}

func generalExpr(e predicate.Evaluator) *predicate.General {
	switch ev := e.(type) {
	case predicate.GeneralEvaluator:
		return ev.Expr
	case *predicate.GeneralEvaluator:
		if ev != nil {
			return ev.Expr
		}
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
