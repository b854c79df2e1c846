package predicate

import "fmt"

// String forms:
//
//	Init        true
//	SingleItem  has(@.1)
//	Predicate   @.1 >= 10
//	Not         !(@.1 >= 10)
//	And         (@.1 >= 10 && @.~label == 3)
//	Or          (@.1 >= 10 || @.~label == 3)

func (Init) String() string { return "true" }

func (s SingleItem) String() string {
	return "has(" + formatOperand(s.Operand) + ")"
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %s", formatOperand(p.Left), p.Cmp, formatOperand(p.Right))
}

func (n Not) String() string {
	return "!(" + Format(n.Inner) + ")"
}

func (a And) String() string {
	return "(" + Format(a.Left) + " && " + Format(a.Right) + ")"
}

func (o Or) String() string {
	return "(" + Format(o.Left) + " || " + Format(o.Right) + ")"
}

// Format renders p, tolerating nil nodes.
func Format(p Predicates) string {
	if p == nil || isNilNode(p) {
		return "<nil>"
	}
	return p.String()
}

// isNilNode reports a typed nil pointer stored in the interface.
func isNilNode(p Predicates) bool {
	switch n := p.(type) {
	case *Init:
		return n == nil
	case *SingleItem:
		return n == nil
	case *Predicate:
		return n == nil
	case *Not:
		return n == nil
	case *And:
		return n == nil
	case *Or:
		return n == nil
	}
	return false
}
