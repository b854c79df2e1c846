package pushdown

import (
	"context"
	"log/slog"

	"github.com/roach88/pushdown/internal/condition"
	"github.com/roach88/pushdown/internal/predicate"
)

// Translator translates filters and logs the outcome. The zero value logs
// to slog.Default().
type Translator struct {
	logger *slog.Logger
}

// NewTranslator returns a Translator logging to logger, or to
// slog.Default() when logger is nil.
func NewTranslator(logger *slog.Logger) *Translator {
	return &Translator{logger: logger}
}

func (t *Translator) log() *slog.Logger {
	if t == nil || t.logger == nil {
		return slog.Default()
	}
	return t.logger
}

// Translate is the package-level Translate with logging: fallbacks at
// Debug, errors at Warn.
func (t *Translator) Translate(p predicate.Predicates) (condition.Condition, bool, error) {
	cond, ok, err := translate(p, "root")
	t.report(func() string { return formatFilter(p) }, cond, ok, err)
	return cond, ok, err
}

// TranslateEvaluator is the package-level TranslateEvaluator with logging.
func (t *Translator) TranslateEvaluator(e predicate.Evaluator) (condition.Condition, bool, error) {
	cond, ok, err := translateEvaluator(e)
	t.report(func() string { return describeEvaluator(e) }, cond, ok, err)
	return cond, ok, err
}

// formatFilter renders filters for log records.
var formatFilter = predicate.Format

// report logs the outcome. describe runs only when the record's level is
// enabled.
func (t *Translator) report(describe func() string, cond condition.Condition, ok bool, err error) {
	logger := t.log()
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelWarn
	}
	if !logger.Enabled(context.Background(), level) {
		return
	}

	switch {
	case err != nil:
		logger.Warn("filter push-down failed",
			"filter", describe(),
			"code", string(CodeOf(err)),
			"error", err,
		)
	case !ok:
		logger.Debug("filter evaluated by engine", "filter", describe())
	default:
		logger.Debug("filter pushed down", "filter", describe(), "condition", cond.String())
	}
}

// Translate converts p into a storage condition. See the package
// documentation for the outcomes and rules.
func Translate(p predicate.Predicates) (condition.Condition, bool, error) {
	return (*Translator)(nil).Translate(p)
}

// TranslateEvaluator translates the tree inside a PredicateEvaluator. A
// GeneralEvaluator fails with ErrGeneralExpression; general expressions
// are never interpreted for push-down.
func TranslateEvaluator(e predicate.Evaluator) (condition.Condition, bool, error) {
	return (*Translator)(nil).TranslateEvaluator(e)
}

func translateEvaluator(e predicate.Evaluator) (condition.Condition, bool, error) {
	switch ev := e.(type) {
	case predicate.PredicateEvaluator:
		return translate(ev.Tree, "root")
	case *predicate.PredicateEvaluator:
		if ev != nil {
			return translate(ev.Tree, "root")
		}
	case predicate.GeneralEvaluator:
		return nil, false, generalError(ev.Expr)
	case *predicate.GeneralEvaluator:
		if ev != nil {
			return nil, false, generalError(ev.Expr)
		}
	case nil:
	default:
		return nil, false, newError(CodeInvalidPredicate, "root", nil, "unknown evaluator type %T", e)
	}
	return nil, false, newError(CodeInvalidPredicate, "root", nil, "nil evaluator")
}

func generalError(g *predicate.General) error {
	return newError(CodeGeneralExpression, "root", nil, "general expression %q cannot be pushed down", g.Source())
}

func describeEvaluator(e predicate.Evaluator) string {
	switch ev := e.(type) {
	case predicate.PredicateEvaluator:
		return formatFilter(ev.Tree)
	case *predicate.PredicateEvaluator:
		if ev != nil {
			return formatFilter(ev.Tree)
		}
	case predicate.GeneralEvaluator:
		return ev.Expr.String()
	case *predicate.GeneralEvaluator:
		if ev != nil {
			return ev.Expr.String()
		}
	}
	return "<nil>"
}

func translate(p predicate.Predicates, path string) (condition.Condition, bool, error) {
	switch node := deref(p).(type) {
	case nil:
		return nil, false, newError(CodeInvalidPredicate, path, nil, "nil predicate")

	case predicate.Init:
		return nil, false, nil

	case predicate.SingleItem:
		id, err := varPropID(node.Operand, path+".operand")
		if err != nil {
			return nil, false, err
		}
		return build(condition.NewBuilder().And(condition.HasPropCond(id)))

	case predicate.Predicate:
		leaf, err := translateLeaf(node, path)
		if err != nil {
			return nil, false, err
		}
		return build(condition.NewBuilder().And(leaf))

	case predicate.Not:
		inner, ok, err := translate(node.Inner, path+".inner")
		if err != nil || !ok {
			return nil, false, err
		}
		return build(condition.NewBuilder().And(inner).Not())

	case predicate.And:
		left, right, ok, err := translatePair(node.Left, node.Right, path)
		if err != nil || !ok {
			return nil, false, err
		}
		return build(condition.NewBuilder().And(left).And(right))

	case predicate.Or:
		left, right, ok, err := translatePair(node.Left, node.Right, path)
		if err != nil || !ok {
			return nil, false, err
		}
		return build(condition.NewBuilder().And(left).Or(right))

	default:
		return nil, false, newError(CodeInvalidPredicate, path, nil, "unknown predicate type %T", p)
	}
}

// translatePair translates both children, left first. ok is true only when
// both are pushed down.
func translatePair(l, r predicate.Predicates, path string) (left, right condition.Condition, ok bool, err error) {
	left, leftOK, err := translate(l, path+".left")
	if err != nil {
		return nil, nil, false, err
	}
	right, rightOK, err := translate(r, path+".right")
	if err != nil {
		return nil, nil, false, err
	}
	if !leftOK || !rightOK {
		return nil, nil, false, nil
	}
	return left, right, true, nil
}

func translateLeaf(p predicate.Predicate, path string) (condition.Condition, error) {
	left, err := storeOperand(p.Left, path+".left")
	if err != nil {
		return nil, err
	}
	right, err := storeOperand(p.Right, path+".right")
	if err != nil {
		return nil, err
	}
	op, err := storeComparator(p.Cmp, path)
	if err != nil {
		return nil, err
	}
	return condition.CompareCond(left, op, right), nil
}

// StoreComparator maps an engine comparator to its storage counterpart.
// Only Eq, Ne, Lt, Le, Gt, Ge, Within and Without have one.
func StoreComparator(cmp predicate.Logical) (condition.CmpOperator, error) {
	return storeComparator(cmp, "")
}

func storeComparator(cmp predicate.Logical, path string) (condition.CmpOperator, error) {
	switch cmp {
	case predicate.OpEq:
		return condition.Equal, nil
	case predicate.OpNe:
		return condition.NotEqual, nil
	case predicate.OpLt:
		return condition.LessThan, nil
	case predicate.OpLe:
		return condition.LessEqual, nil
	case predicate.OpGt:
		return condition.GreaterThan, nil
	case predicate.OpGe:
		return condition.GreaterEqual, nil
	case predicate.OpWithin:
		return condition.WithIn, nil
	case predicate.OpWithout:
		return condition.WithOut, nil
	default:
		return 0, newError(CodeUnsupportedComparator, path, nil, "comparator %s", cmp.Name())
	}
}

func build(b *condition.Builder) (condition.Condition, bool, error) {
	cond, ok := b.Build()
	return cond, ok, nil
}

// deref returns the value form of p, or nil for a nil pointer.
func deref(p predicate.Predicates) predicate.Predicates {
	switch n := p.(type) {
	case *predicate.Init:
		if n != nil {
			return *n
		}
	case *predicate.SingleItem:
		if n != nil {
			return *n
		}
	case *predicate.Predicate:
		if n != nil {
			return *n
		}
	case *predicate.Not:
		if n != nil {
			return *n
		}
	case *predicate.And:
		if n != nil {
			return *n
		}
	case *predicate.Or:
		if n != nil {
			return *n
		}
	default:
		return p
	}
	return nil
}
