package condition

import (
	"fmt"
	"strconv"
	"strings"
)

// Operand is a storage-side term.
//
// Sealed: PropRef, LabelRef, IDRef and ConstRef.
type Operand interface {
	operand()
	String() string
}

// PropRef references a property by identifier.
type PropRef int32

// LabelRef references the element label.
type LabelRef struct{}

// IDRef references the element identifier.
type IDRef struct{}

// ConstRef is a typed constant.
type ConstRef struct {
	Value Property
}

func (PropRef) operand()  {}
func (LabelRef) operand() {}
func (IDRef) operand()    {}
func (ConstRef) operand() {}

func (p PropRef) String() string { return "prop[" + strconv.FormatInt(int64(p), 10) + "]" }
func (LabelRef) String() string  { return "~label" }
func (IDRef) String() string     { return "~id" }

func (c ConstRef) String() string {
	if c.Value == nil {
		return "<nil>"
	}
	return c.Value.String()
}

// CmpOperator is a storage comparison.
type CmpOperator int

const (
	Equal CmpOperator = iota
	NotEqual
	LessThan
	LessEqual
	GreaterThan
	GreaterEqual
	WithIn
	WithOut
)

func (op CmpOperator) String() string {
	switch op {
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case LessThan:
		return "<"
	case LessEqual:
		return "<="
	case GreaterThan:
		return ">"
	case GreaterEqual:
		return ">="
	case WithIn:
		return "within"
	case WithOut:
		return "without"
	default:
		return fmt.Sprintf("CmpOperator(%d)", int(op))
	}
}

// PredCondition is a leaf test.
//
// Sealed: HasProp and Compare.
type PredCondition interface {
	predCondition()
	String() string
}

// HasProp holds when the element carries property Prop.
type HasProp struct {
	Prop int32
}

// Compare holds when Left Op Right.
type Compare struct {
	Left  Operand
	Op    CmpOperator
	Right Operand
}

func (HasProp) predCondition() {}
func (Compare) predCondition() {}

func (h HasProp) String() string {
	return "has(" + PropRef(h.Prop).String() + ")"
}

func (c Compare) String() string {
	return fmt.Sprintf("%s %s %s", operandString(c.Left), c.Op, operandString(c.Right))
}

func operandString(op Operand) string {
	if op == nil {
		return "<nil>"
	}
	return op.String()
}

// Condition is a storage filter tree.
//
// Sealed: Pred, And, Or and Not.
type Condition interface {
	conditionNode()
	String() string
}

// Pred is a leaf.
type Pred struct {
	Cond PredCondition
}

// And holds when every item holds.
type And struct {
	Items []Condition
}

// Or holds when any item holds.
type Or struct {
	Items []Condition
}

// Not negates Inner.
type Not struct {
	Inner Condition
}

func (Pred) conditionNode() {}
func (And) conditionNode()  {}
func (Or) conditionNode()   {}
func (Not) conditionNode()  {}

// String forms: has(prop[1]), prop[1] >= 10, AND(a, b), OR(a, b), NOT(a).
func (p Pred) String() string {
	if p.Cond == nil {
		return "<nil>"
	}
	return p.Cond.String()
}

func (a And) String() string { return "AND(" + joinConditions(a.Items) + ")" }
func (o Or) String() string  { return "OR(" + joinConditions(o.Items) + ")" }
func (n Not) String() string { return "NOT(" + Format(n.Inner) + ")" }

func joinConditions(items []Condition) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = Format(item)
	}
	return strings.Join(parts, ", ")
}

// Format renders c, or "<nil>" for a nil condition.
func Format(c Condition) string {
	if c == nil {
		return "<nil>"
	}
	return c.String()
}

// HasPropCond returns the leaf has(prop[id]).
func HasPropCond(id int32) Pred {
	return Pred{Cond: HasProp{Prop: id}}
}

// CompareCond returns the leaf left op right.
func CompareCond(left Operand, op CmpOperator, right Operand) Pred {
	return Pred{Cond: Compare{Left: left, Op: op, Right: right}}
}
