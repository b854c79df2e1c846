package condition

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/pushdown/internal/ir"
)

// Property is a typed storage value.
//
// Sealed: Null, Bool, Int, Long, Double, String, ListLong, ListDouble and
// ListString.
type Property interface {
	property()
	String() string
}

// Null is the absent value.
type Null struct{}

// Bool is a boolean value.
type Bool bool

// Int is a 32-bit integer.
type Int int32

// Long is a 64-bit integer.
type Long int64

// Double is a 64-bit float.
type Double float64

// String is a UTF-8 string in NFC form.
type String string

// ListLong is a list of 64-bit integers.
type ListLong []int64

// ListDouble is a list of 64-bit floats.
type ListDouble []float64

// ListString is a list of strings.
type ListString []string

func (Null) property()       {}
func (Bool) property()       {}
func (Int) property()        {}
func (Long) property()       {}
func (Double) property()     {}
func (String) property()     {}
func (ListLong) property()   {}
func (ListDouble) property() {}
func (ListString) property() {}

func (Null) String() string     { return "null" }
func (b Bool) String() string   { return strconv.FormatBool(bool(b)) }
func (i Int) String() string    { return strconv.FormatInt(int64(i), 10) }
func (l Long) String() string   { return strconv.FormatInt(int64(l), 10) }
func (d Double) String() string { return formatDouble(float64(d)) }
func (s String) String() string { return strconv.Quote(string(s)) }

func (l ListLong) String() string {
	parts := make([]string, len(l))
	for i, n := range l {
		parts[i] = strconv.FormatInt(n, 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l ListDouble) String() string {
	parts := make([]string, len(l))
	for i, f := range l {
		parts[i] = formatDouble(f)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l ListString) String() string {
	parts := make([]string, len(l))
	for i, s := range l {
		parts[i] = strconv.Quote(s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatDouble(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !math.IsInf(f, 0) && !math.IsNaN(f) && !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// ErrUnconvertible is wrapped by every FromValue failure.
var ErrUnconvertible = errors.New("value has no property representation")

// FromValue converts an engine value into a storage property.
//
//	IRNull                    Null
//	IRBool                    Bool
//	IRInt                     Int when it fits in 32 bits, else Long
//	IRFloat                   Double (must be finite)
//	IRString                  String, NFC-normalized
//	IRArray of IRInt          ListLong
//	IRArray of numbers        ListDouble when at least one is IRFloat
//	IRArray of IRString       ListString
//
// Empty, nested, mixed and boolean arrays, objects and nil fail with an
// error wrapping ErrUnconvertible.
func FromValue(v ir.IRValue) (Property, error) {
	switch val := v.(type) {
	case ir.IRNull:
		return Null{}, nil
	case ir.IRBool:
		return Bool(val), nil
	case ir.IRInt:
		if val >= math.MinInt32 && val <= math.MaxInt32 {
			return Int(val), nil
		}
		return Long(val), nil
	case ir.IRFloat:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil, fmt.Errorf("%w: non-finite float %v", ErrUnconvertible, float64(val))
		}
		return Double(val), nil
	case ir.IRString:
		return String(norm.NFC.String(string(val))), nil
	case ir.IRArray:
		return fromArray(val)
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrUnconvertible)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnconvertible, ir.Kind(v))
	}
}

func fromArray(arr ir.IRArray) (Property, error) {
	if len(arr) == 0 {
		return nil, fmt.Errorf("%w: empty array has no element type", ErrUnconvertible)
	}

	switch arr[0].(type) {
	case ir.IRString:
		out := make(ListString, len(arr))
		for i, elem := range arr {
			s, ok := elem.(ir.IRString)
			if !ok {
				return nil, mixedArray(i, "string", elem)
			}
			out[i] = norm.NFC.String(string(s))
		}
		return out, nil

	case ir.IRInt, ir.IRFloat:
		hasFloat := false
		for i, elem := range arr {
			switch n := elem.(type) {
			case ir.IRInt:
			case ir.IRFloat:
				if math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
					return nil, fmt.Errorf("%w: array[%d]: non-finite float", ErrUnconvertible, i)
				}
				hasFloat = true
			default:
				return nil, mixedArray(i, "number", elem)
			}
		}
		if !hasFloat {
			out := make(ListLong, len(arr))
			for i, elem := range arr {
				out[i] = int64(elem.(ir.IRInt))
			}
			return out, nil
		}
		out := make(ListDouble, len(arr))
		for i, elem := range arr {
			switch n := elem.(type) {
			case ir.IRInt:
				out[i] = float64(n)
			case ir.IRFloat:
				out[i] = float64(n)
			}
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: array of %s", ErrUnconvertible, ir.Kind(arr[0]))
	}
}

func mixedArray(i int, want string, got ir.IRValue) error {
	return fmt.Errorf("%w: array[%d]: expected %s, got %s", ErrUnconvertible, i, want, ir.Kind(got))
}
