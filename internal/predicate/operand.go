package predicate

import (
	"strconv"

	"github.com/roach88/pushdown/internal/ir"
)

// PropKey selects what a variable reads from the element it is bound to.
//
// Sealed: KeyID, KeyName, LabelKey, IDKey, LenKey and AllKey.
type PropKey interface {
	propKey()
	String() string
}

// KeyID reads a property by its numeric identifier.
type KeyID int32

func (KeyID) propKey() {}

func (k KeyID) String() string { return strconv.FormatInt(int64(k), 10) }

// KeyName reads a property by name. Names are resolved to identifiers by
// the engine's schema, which storage does not share.
type KeyName string

func (KeyName) propKey() {}

func (k KeyName) String() string { return string(k) }

// LabelKey reads the element's label.
type LabelKey struct{}

func (LabelKey) propKey() {}

func (LabelKey) String() string { return "~label" }

// IDKey reads the element's identifier.
type IDKey struct{}

func (IDKey) propKey() {}

func (IDKey) String() string { return "~id" }

// LenKey reads the length of a path element.
type LenKey struct{}

func (LenKey) propKey() {}

func (LenKey) String() string { return "~len" }

// AllKey reads every property of the element as a map.
type AllKey struct{}

func (AllKey) propKey() {}

func (AllKey) String() string { return "~all" }

// Operand is an atomic term of a comparison.
//
// Sealed: Var and Const.
type Operand interface {
	operandNode()
	String() string
}

// Var references the element bound to Tag, or the current element when Tag
// is empty. A nil Key references the element itself.
type Var struct {
	Tag string
	Key PropKey
}

func (Var) operandNode() {}

// String renders the variable as @tag.key, e.g. "@.1" or "@a.~label".
func (v Var) String() string {
	if v.Key == nil {
		return "@" + v.Tag
	}
	return "@" + v.Tag + "." + v.Key.String()
}

// Const is a literal value.
type Const struct {
	Value ir.IRValue
}

func (Const) operandNode() {}

func (c Const) String() string {
	if c.Value == nil {
		return "<nil>"
	}
	return ir.Format(c.Value)
}

// Prop returns an untagged variable reading property id.
func Prop(id int32) Var { return Var{Key: KeyID(id)} }

// PropNamed returns an untagged variable reading property name.
func PropNamed(name string) Var { return Var{Key: KeyName(name)} }

// Label returns an untagged variable reading the element label.
func Label() Var { return Var{Key: LabelKey{}} }

// ID returns an untagged variable reading the element identifier.
func ID() Var { return Var{Key: IDKey{}} }

// Value wraps v as a constant operand.
func Value(v ir.IRValue) Const { return Const{Value: v} }

// Int is shorthand for Value(ir.IRInt(n)).
func Int(n int64) Const { return Const{Value: ir.IRInt(n)} }

// Str is shorthand for Value(ir.IRString(s)).
func Str(s string) Const { return Const{Value: ir.IRString(s)} }

func formatOperand(op Operand) string {
	if op == nil {
		return "<nil>"
	}
	switch o := op.(type) {
	case *Var:
		if o == nil {
			return "<nil>"
		}
	case *Const:
		if o == nil {
			return "<nil>"
		}
	}
	return op.String()
}
