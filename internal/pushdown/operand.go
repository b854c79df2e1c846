package pushdown

import (
	"github.com/roach88/pushdown/internal/condition"
	"github.com/roach88/pushdown/internal/predicate"
)

// StoreOperand converts an engine operand into a storage operand.
//
//	@.n       prop[n]
//	@.~label  ~label
//	@.~id     ~id
//	const v   condition.FromValue(v)
//
// Tagged variables and other keys fail with ErrUnsupportedOperand; a
// constant that does not convert fails with ErrConstantConversion wrapping
// the conversion error.
func StoreOperand(op predicate.Operand) (condition.Operand, error) {
	return storeOperand(op, "")
}

// VarPropID returns n for an untagged variable @.n. Any other operand fails
// with ErrUnsupportedOperand.
func VarPropID(op predicate.Operand) (int32, error) {
	return varPropID(op, "")
}

func storeOperand(op predicate.Operand, path string) (condition.Operand, error) {
	switch o := derefOperand(op).(type) {
	case predicate.Var:
		return storeVar(o, path)
	case predicate.Const:
		prop, err := condition.FromValue(o.Value)
		if err != nil {
			return nil, newError(CodeConstantConversion, path, err, "constant %s", o)
		}
		return condition.ConstRef{Value: prop}, nil
	case nil:
		return nil, newError(CodeInvalidPredicate, path, nil, "nil operand")
	default:
		return nil, newError(CodeUnsupportedOperand, path, nil, "unknown operand type %T", op)
	}
}

func storeVar(v predicate.Var, path string) (condition.Operand, error) {
	if v.Tag != "" {
		return nil, newError(CodeUnsupportedOperand, path, nil, "tagged variable %s", v)
	}
	switch key := v.Key.(type) {
	case predicate.KeyID:
		return condition.PropRef(key), nil
	case predicate.LabelKey:
		return condition.LabelRef{}, nil
	case predicate.IDKey:
		return condition.IDRef{}, nil
	case nil:
		return nil, newError(CodeUnsupportedOperand, path, nil, "variable %s has no property key", v)
	default:
		return nil, newError(CodeUnsupportedOperand, path, nil, "key %s of %s", key, v)
	}
}

func varPropID(op predicate.Operand, path string) (int32, error) {
	o := derefOperand(op)
	if o == nil {
		return 0, newError(CodeInvalidPredicate, path, nil, "nil operand")
	}
	v, isVar := o.(predicate.Var)
	if isVar && v.Tag == "" {
		if id, ok := v.Key.(predicate.KeyID); ok {
			return int32(id), nil
		}
	}
	return 0, newError(CodeUnsupportedOperand, path, nil, "%s is not a property reference", o)
}

// derefOperand returns the value form of op, or nil for a nil pointer.
func derefOperand(op predicate.Operand) predicate.Operand {
	switch o := op.(type) {
	case *predicate.Var:
		if o == nil {
			return nil
		}
		return *o
	case *predicate.Const:
		if o == nil {
			return nil
		}
		return *o
	}
	return op
}
