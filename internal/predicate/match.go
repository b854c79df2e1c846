package predicate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/pushdown/internal/ir"
)

// Match evaluates p against one element the way the engine does for a
// filter that was not pushed down.
//
// Comparisons follow the store's two-valued rules: a missing property or a
// JSON null never satisfies a comparison, except "== null" which matches
// it and "!= null" which rejects it. has() holds when the property key is
// present, even with a null value. Init matches every element.
//
// Operands that only make sense with other bound elements (tags, whole
// elements, names, lengths) are errors.
func Match(p Predicates, id int64, label int32, props ir.IRObject) (bool, error) {
	m := matcher{id: id, label: label, props: props}
	return m.node(p)
}

type matcher struct {
	id    int64
	label int32
	props ir.IRObject
}

func (m matcher) node(p Predicates) (bool, error) {
	if p == nil || isNilNode(p) {
		return false, fmt.Errorf("match: nil node")
	}
	switch n := p.(type) {
	case Init, *Init:
		return true, nil
	case SingleItem:
		return m.has(n.Operand)
	case *SingleItem:
		return m.has(n.Operand)
	case Predicate:
		return m.compare(n)
	case *Predicate:
		return m.compare(*n)
	case Not:
		ok, err := m.node(n.Inner)
		return !ok, err
	case *Not:
		ok, err := m.node(n.Inner)
		return !ok, err
	case And:
		return m.and(n.Left, n.Right)
	case *And:
		return m.and(n.Left, n.Right)
	case Or:
		return m.or(n.Left, n.Right)
	case *Or:
		return m.or(n.Left, n.Right)
	default:
		return false, fmt.Errorf("match: unsupported node %s", Format(p))
	}
}

func (m matcher) and(l, r Predicates) (bool, error) {
	ok, err := m.node(l)
	if err != nil || !ok {
		return false, err
	}
	return m.node(r)
}

func (m matcher) or(l, r Predicates) (bool, error) {
	ok, err := m.node(l)
	if err != nil || ok {
		return ok, err
	}
	return m.node(r)
}

func (m matcher) has(op Operand) (bool, error) {
	v, err := asVar(op)
	if err != nil {
		return false, fmt.Errorf("match: has(%s): %w", formatOperand(op), err)
	}
	switch key := v.Key.(type) {
	case KeyID:
		_, ok := m.props[key.String()]
		return ok, nil
	case LabelKey, IDKey:
		return true, nil
	default:
		return false, fmt.Errorf("match: has(%s): cannot read %s", v, describeKey(v.Key))
	}
}

// value resolves op. ok is false for a missing property or a null.
func (m matcher) value(op Operand) (val ir.IRValue, ok bool, err error) {
	switch o := op.(type) {
	case Const:
		return constValue(o)
	case *Const:
		if o != nil {
			return constValue(*o)
		}
	case Var, *Var:
		v, err := asVar(op)
		if err != nil {
			return nil, false, err
		}
		switch key := v.Key.(type) {
		case KeyID:
			val, ok = m.props[key.String()]
		case LabelKey:
			val, ok = ir.IRInt(m.label), true
		case IDKey:
			val, ok = ir.IRInt(m.id), true
		default:
			return nil, false, fmt.Errorf("cannot read %s", describeKey(v.Key))
		}
		if _, isNull := val.(ir.IRNull); isNull {
			ok = false
		}
		return val, ok, nil
	}
	return nil, false, fmt.Errorf("nil operand")
}

func isNullConst(op Operand) bool {
	var c Const
	switch o := op.(type) {
	case Const:
		c = o
	case *Const:
		if o == nil {
			return false
		}
		c = *o
	default:
		return false
	}
	_, isNull := c.Value.(ir.IRNull)
	return isNull
}

func constValue(c Const) (ir.IRValue, bool, error) {
	if c.Value == nil {
		return nil, false, fmt.Errorf("constant without a value")
	}
	_, isNull := c.Value.(ir.IRNull)
	return c.Value, !isNull, nil
}

func (m matcher) compare(p Predicate) (bool, error) {
	left, lok, err := m.value(p.Left)
	if err != nil {
		return false, fmt.Errorf("match: %s: left: %w", p, err)
	}
	if p.Cmp == OpIsNull {
		return !lok, nil
	}
	right, rok, err := m.value(p.Right)
	if err != nil {
		return false, fmt.Errorf("match: %s: right: %w", p, err)
	}
	if (p.Cmp == OpEq || p.Cmp == OpNe) && isNullConst(p.Right) {
		return lok == (p.Cmp == OpNe), nil
	}
	if !lok || !rok {
		return false, nil
	}

	switch p.Cmp {
	case OpEq:
		return valuesEqual(left, right), nil
	case OpNe:
		return !valuesEqual(left, right), nil
	case OpLt, OpLe, OpGt, OpGe:
		c, ok := order(left, right)
		if !ok {
			return false, nil
		}
		switch p.Cmp {
		case OpLt:
			return c < 0, nil
		case OpLe:
			return c <= 0, nil
		case OpGt:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case OpWithin, OpWithout:
		list, isList := right.(ir.IRArray)
		if !isList {
			return false, fmt.Errorf("match: %s: right operand must be a list, got %s", p, ir.Kind(right))
		}
		found := false
		for _, elem := range list {
			if valuesEqual(left, elem) {
				found = true
				break
			}
		}
		return found == (p.Cmp == OpWithin), nil
	case OpStartsWith, OpEndsWith:
		ls, lstr := left.(ir.IRString)
		rs, rstr := right.(ir.IRString)
		if !lstr || !rstr {
			return false, nil
		}
		if p.Cmp == OpStartsWith {
			return strings.HasPrefix(string(ls), string(rs)), nil
		}
		return strings.HasSuffix(string(ls), string(rs)), nil
	case OpRegex:
		ls, lstr := left.(ir.IRString)
		rs, rstr := right.(ir.IRString)
		if !lstr || !rstr {
			return false, nil
		}
		re, err := regexp.Compile(string(rs))
		if err != nil {
			return false, fmt.Errorf("match: %s: %w", p, err)
		}
		return re.MatchString(string(ls)), nil
	default:
		return false, fmt.Errorf("match: %s: %s is not a comparator", p, p.Cmp.Name())
	}
}

func asVar(op Operand) (Var, error) {
	var v Var
	switch o := op.(type) {
	case Var:
		v = o
	case *Var:
		if o == nil {
			return Var{}, fmt.Errorf("nil operand")
		}
		v = *o
	case nil:
		return Var{}, fmt.Errorf("nil operand")
	default:
		return Var{}, fmt.Errorf("needs a variable, got %s", formatOperand(op))
	}
	if v.Tag != "" {
		return Var{}, fmt.Errorf("tagged element %q is not bound", v.Tag)
	}
	return v, nil
}

func describeKey(k PropKey) string {
	if k == nil {
		return "the whole element"
	}
	return "key " + k.String()
}

// number returns v as a float when it is numeric. Booleans count as 0 and
// 1, as in the store.
func number(v ir.IRValue) (float64, bool) {
	switch n := v.(type) {
	case ir.IRInt:
		return float64(n), true
	case ir.IRFloat:
		return float64(n), true
	case ir.IRBool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func valuesEqual(a, b ir.IRValue) bool {
	if ai, ok := a.(ir.IRInt); ok {
		if bi, ok := b.(ir.IRInt); ok {
			return ai == bi
		}
	}
	if x, ok := number(a); ok {
		y, ok := number(b)
		return ok && x == y
	}
	switch av := a.(type) {
	case ir.IRString:
		bv, ok := b.(ir.IRString)
		return ok && av == bv
	case ir.IRArray:
		bv, ok := b.(ir.IRArray)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case ir.IRObject:
		bv, ok := b.(ir.IRObject)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, x := range av {
			y, ok := bv[k]
			if !ok || !valuesEqual(x, y) {
				return false
			}
		}
		return true
	case ir.IRNull:
		_, ok := b.(ir.IRNull)
		return ok
	}
	return false
}

// order compares scalars: numbers before strings, strings byte-wise. Lists
// and objects have no order.
func order(a, b ir.IRValue) (int, bool) {
	rank := func(v ir.IRValue) int {
		if _, ok := number(v); ok {
			return 0
		}
		if _, ok := v.(ir.IRString); ok {
			return 1
		}
		return -1
	}
	ra, rb := rank(a), rank(b)
	if ra < 0 || rb < 0 {
		return 0, false
	}
	if ra != rb {
		return ra - rb, true
	}
	if ra == 1 {
		return strings.Compare(string(a.(ir.IRString)), string(b.(ir.IRString))), true
	}
	if ai, ok := a.(ir.IRInt); ok {
		if bi, ok := b.(ir.IRInt); ok {
			switch {
			case ai < bi:
				return -1, true
			case ai > bi:
				return 1, true
			}
			return 0, true
		}
	}
	x, _ := number(a)
	y, _ := number(b)
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}
