package predicate

// Predicates is a boolean filter tree.
//
// Sealed: Init, SingleItem, Predicate, Not, And and Or.
type Predicates interface {
	predicatesNode()
	String() string
}

// Init is the empty filter. It matches every element.
type Init struct{}

func (Init) predicatesNode() {}

// SingleItem is an implicit existence test: the element has the property
// the operand reads.
type SingleItem struct {
	Operand Operand
}

func (SingleItem) predicatesNode() {}

// Predicate is a comparison leaf.
//
// Example:
//
//	Predicate{Left: Prop(1), Cmp: OpGe, Right: Int(10)}  // @.1 >= 10
type Predicate struct {
	Left  Operand
	Cmp   Logical
	Right Operand
}

func (Predicate) predicatesNode() {}

// Not negates Inner.
type Not struct {
	Inner Predicates
}

func (Not) predicatesNode() {}

// And holds when both sides hold.
type And struct {
	Left  Predicates
	Right Predicates
}

func (And) predicatesNode() {}

// Or holds when either side holds.
type Or struct {
	Left  Predicates
	Right Predicates
}

func (Or) predicatesNode() {}

// Compare builds a comparison leaf.
func Compare(left Operand, cmp Logical, right Operand) Predicate {
	return Predicate{Left: left, Cmp: cmp, Right: right}
}

// Has builds an existence test on op.
func Has(op Operand) SingleItem {
	return SingleItem{Operand: op}
}

// Negate wraps p in Not.
func Negate(p Predicates) Not {
	return Not{Inner: p}
}

// AllOf folds ps left-associatively into binary And nodes:
// AllOf(a, b, c) is And{And{a, b}, c}. A single element is returned as is;
// no elements yield Init.
func AllOf(ps ...Predicates) Predicates {
	return fold(ps, func(l, r Predicates) Predicates { return And{Left: l, Right: r} })
}

// AnyOf is AllOf for Or.
func AnyOf(ps ...Predicates) Predicates {
	return fold(ps, func(l, r Predicates) Predicates { return Or{Left: l, Right: r} })
}

func fold(ps []Predicates, join func(l, r Predicates) Predicates) Predicates {
	if len(ps) == 0 {
		return Init{}
	}
	acc := ps[0]
	for _, p := range ps[1:] {
		acc = join(acc, p)
	}
	return acc
}

// Evaluator is the engine's compiled filter: either a structural tree that
// storage may execute, or a general expression only the engine can run.
//
// Sealed: PredicateEvaluator and GeneralEvaluator.
type Evaluator interface {
	evaluatorNode()
}

// PredicateEvaluator wraps a structural tree.
type PredicateEvaluator struct {
	Tree Predicates
}

func (PredicateEvaluator) evaluatorNode() {}

// GeneralEvaluator wraps a general expression.
type GeneralEvaluator struct {
	Expr *General
}

func (GeneralEvaluator) evaluatorNode() {}
