package loader

import (
	"math"
	"slices"
	"strings"

	"github.com/roach88/pushdown/internal/ir"
	"github.com/roach88/pushdown/internal/predicate"
)

var nodeKeys = []string{"init", "has", "cmp", "not", "and", "or", "expr"}

// parseEvaluator parses a top-level filter. Only here may an "expr" node
// appear; it yields a general evaluator.
func parseEvaluator(n *node) (predicate.Evaluator, error) {
	key, value, err := singleKey(n, "filter node", nodeKeys)
	if err != nil {
		return nil, err
	}
	if key == "expr" {
		src, ok := value.scalar.(string)
		if value.kind != kindScalar || !ok {
			return nil, errorf(ErrCodeInvalidNode, value.pos, "expr must be a string, got %s", describe(value))
		}
		general, err := predicate.CompileGeneral(src)
		if err != nil {
			return nil, errorf(ErrCodeInvalidExpr, value.pos, "%v", err)
		}
		return predicate.GeneralEvaluator{Expr: general}, nil
	}

	tree, err := parseTree(n)
	if err != nil {
		return nil, err
	}
	return predicate.PredicateEvaluator{Tree: tree}, nil
}

func parseTree(n *node) (predicate.Predicates, error) {
	key, value, err := singleKey(n, "filter node", nodeKeys)
	if err != nil {
		return nil, err
	}

	switch key {
	case "init":
		if !isTrueOrEmpty(value) {
			return nil, errorf(ErrCodeInvalidNode, value.pos, "init takes true or {}, got %s", describe(value))
		}
		return predicate.Init{}, nil

	case "has":
		op, err := parseOperand(value)
		if err != nil {
			return nil, err
		}
		return predicate.Has(op), nil

	case "cmp":
		return parseCompare(value)

	case "not":
		inner, err := parseTree(value)
		if err != nil {
			return nil, err
		}
		return predicate.Negate(inner), nil

	case "and", "or":
		if value.kind != kindList {
			return nil, errorf(ErrCodeInvalidNode, value.pos, "%s takes a list, got %s", key, describe(value))
		}
		if len(value.items) < 2 {
			return nil, errorf(ErrCodeInvalidNode, value.pos, "%s needs at least two operands, got %d", key, len(value.items))
		}
		parts := make([]predicate.Predicates, len(value.items))
		for i, item := range value.items {
			if parts[i], err = parseTree(item); err != nil {
				return nil, err
			}
		}
		if key == "and" {
			return predicate.AllOf(parts...), nil
		}
		return predicate.AnyOf(parts...), nil

	default: // expr
		return nil, errorf(ErrCodeInvalidNode, value.pos, "expr is only allowed at the top of a filter")
	}
}

func parseCompare(n *node) (predicate.Predicates, error) {
	if n.kind != kindMap {
		return nil, errorf(ErrCodeInvalidNode, n.pos, "cmp takes a mapping, got %s", describe(n))
	}
	if err := checkKeys(n, "cmp", []string{"left", "op", "right"}); err != nil {
		return nil, err
	}

	var (
		left, right predicate.Operand
		cmp         predicate.Logical
		err         error
	)
	for _, name := range []string{"left", "op", "right"} {
		v := n.lookup(name)
		if v == nil {
			return nil, errorf(ErrCodeInvalidNode, n.pos, "cmp is missing %q", name)
		}
		switch name {
		case "left":
			left, err = parseOperand(v)
		case "right":
			right, err = parseOperand(v)
		default:
			cmp, err = parseOperator(v)
		}
		if err != nil {
			return nil, err
		}
	}
	return predicate.Compare(left, cmp, right), nil
}

// parseOperator accepts a symbol or name ("ge", ">=", "within"), or a raw
// operator number.
func parseOperator(n *node) (predicate.Logical, error) {
	switch v := n.scalar.(type) {
	case string:
		op, err := predicate.ParseLogical(v)
		if err != nil {
			return 0, errorf(ErrCodeInvalidOperator, n.pos, "%v", err)
		}
		return op, nil
	case int, int64:
		i := toInt64(v)
		if i < math.MinInt32 || i > math.MaxInt32 {
			return 0, errorf(ErrCodeInvalidOperator, n.pos, "operator %d out of range", i)
		}
		return predicate.Logical(i), nil
	default:
		return 0, errorf(ErrCodeInvalidOperator, n.pos, "op must be a name or number, got %s", describe(n))
	}
}

var keyNames = []string{"prop", "label", "id", "len", "all"}

// parseOperand reads {const: v} or a variable: one of prop, label, id,
// len or all, optionally with a tag. A lone tag names the whole tagged
// element.
func parseOperand(n *node) (predicate.Operand, error) {
	if n.kind != kindMap {
		return nil, errorf(ErrCodeInvalidOperand, n.pos, "operand must be a mapping, got %s", describe(n))
	}

	if c := n.lookup("const"); c != nil {
		if len(n.fields) != 1 {
			return nil, errorf(ErrCodeInvalidOperand, n.pos, "const operand takes no other keys, got %s", strings.Join(n.keys(), ", "))
		}
		v, err := ir.FromAny(c.toAny())
		if err != nil {
			return nil, errorf(ErrCodeInvalidOperand, c.pos, "const: %v", err)
		}
		return predicate.Value(v), nil
	}

	if err := checkKeys(n, "operand", append([]string{"tag"}, keyNames...)); err != nil {
		return nil, err
	}

	var v predicate.Var
	if t := n.lookup("tag"); t != nil {
		tag, ok := t.scalar.(string)
		if t.kind != kindScalar || !ok {
			return nil, errorf(ErrCodeInvalidOperand, t.pos, "tag must be a string, got %s", describe(t))
		}
		v.Tag = tag
	}

	var keyField *field
	for i := range n.fields {
		if n.fields[i].key == "tag" {
			continue
		}
		if keyField != nil {
			return nil, errorf(ErrCodeInvalidOperand, n.fields[i].pos, "operand has both %s and %s", keyField.key, n.fields[i].key)
		}
		keyField = &n.fields[i]
	}

	if keyField == nil {
		if v.Tag == "" {
			return nil, errorf(ErrCodeInvalidOperand, n.pos, "operand needs const, tag or one of %s", strings.Join(keyNames, ", "))
		}
		return v, nil
	}

	key, err := parseKey(keyField)
	if err != nil {
		return nil, err
	}
	v.Key = key
	return v, nil
}

func parseKey(f *field) (predicate.PropKey, error) {
	value := f.value
	if f.key == "prop" {
		switch s := value.scalar.(type) {
		case string:
			if s == "" {
				return nil, errorf(ErrCodeInvalidOperand, value.pos, "prop name must not be empty")
			}
			return predicate.KeyName(s), nil
		case int, int64:
			i := toInt64(s)
			if i < math.MinInt32 || i > math.MaxInt32 {
				return nil, errorf(ErrCodeInvalidOperand, value.pos, "prop %d out of int32 range", i)
			}
			return predicate.KeyID(int32(i)), nil
		default:
			return nil, errorf(ErrCodeInvalidOperand, value.pos, "prop must be an integer or name, got %s", describe(value))
		}
	}

	if b, ok := value.scalar.(bool); !ok || !b {
		return nil, errorf(ErrCodeInvalidOperand, value.pos, "%s takes true, got %s", f.key, describe(value))
	}
	switch f.key {
	case "label":
		return predicate.LabelKey{}, nil
	case "id":
		return predicate.IDKey{}, nil
	case "len":
		return predicate.LenKey{}, nil
	default:
		return predicate.AllKey{}, nil
	}
}

// singleKey requires n to be a mapping with exactly one of allowed.
func singleKey(n *node, what string, allowed []string) (string, *node, error) {
	if n.kind != kindMap {
		return "", nil, errorf(ErrCodeInvalidNode, n.pos, "%s must be a mapping, got %s", what, describe(n))
	}
	if len(n.fields) != 1 {
		return "", nil, errorf(ErrCodeInvalidNode, n.pos, "%s needs exactly one of %s, got %d keys", what, strings.Join(allowed, ", "), len(n.fields))
	}
	f := n.fields[0]
	if slices.Contains(allowed, f.key) {
		return f.key, f.value, nil
	}
	return "", nil, errorf(ErrCodeInvalidNode, f.pos, "unknown %s %q", what, f.key)
}

func checkKeys(n *node, what string, allowed []string) error {
	for _, f := range n.fields {
		if !slices.Contains(allowed, f.key) {
			code := ErrCodeInvalidNode
			if what == "operand" {
				code = ErrCodeInvalidOperand
			}
			return errorf(code, f.pos, "unknown %s key %q", what, f.key)
		}
	}
	return nil
}

func isTrueOrEmpty(n *node) bool {
	switch n.kind {
	case kindMap:
		return len(n.fields) == 0
	case kindScalar:
		b, ok := n.scalar.(bool)
		return ok && b
	default:
		return false
	}
}

func toInt64(v any) int64 {
	switch i := v.(type) {
	case int:
		return int64(i)
	case int64:
		return i
	default:
		return 0
	}
}
