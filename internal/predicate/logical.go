package predicate

import (
	"fmt"
	"strings"
)

// Logical is the engine's operator enumeration. OpAnd, OpOr and OpNot
// appear only in expression form and are not valid comparators.
type Logical int32

const (
	OpEq Logical = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpWithin
	OpWithout
	OpStartsWith
	OpEndsWith
	OpAnd
	OpOr
	OpNot
	OpIsNull
	OpRegex
)

var logicalNames = map[Logical]string{
	OpEq:         "eq",
	OpNe:         "ne",
	OpLt:         "lt",
	OpLe:         "le",
	OpGt:         "gt",
	OpGe:         "ge",
	OpWithin:     "within",
	OpWithout:    "without",
	OpStartsWith: "starts_with",
	OpEndsWith:   "ends_with",
	OpAnd:        "and",
	OpOr:         "or",
	OpNot:        "not",
	OpIsNull:     "is_null",
	OpRegex:      "regex",
}

var logicalSymbols = map[Logical]string{
	OpEq: "==",
	OpNe: "!=",
	OpLt: "<",
	OpLe: "<=",
	OpGt: ">",
	OpGe: ">=",
}

// Name returns the lowercase name used in filter documents, or
// "Logical(n)" for values outside the enumeration.
func (l Logical) Name() string {
	if name, ok := logicalNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Logical(%d)", int32(l))
}

// String renders comparison operators as symbols and the rest by name.
func (l Logical) String() string {
	if sym, ok := logicalSymbols[l]; ok {
		return sym
	}
	return l.Name()
}

// Known reports whether l is a member of the enumeration.
func (l Logical) Known() bool {
	_, ok := logicalNames[l]
	return ok
}

// IsComparator reports whether l may appear as a Predicate's Cmp.
func (l Logical) IsComparator() bool {
	return l.Known() && l != OpAnd && l != OpOr && l != OpNot
}

// ParseLogical accepts an operator name ("ge", "starts_with") or a
// comparison symbol (">="). Matching is case-insensitive for names.
func ParseLogical(s string) (Logical, error) {
	for l, sym := range logicalSymbols {
		if s == sym {
			return l, nil
		}
	}
	lower := strings.ToLower(strings.TrimSpace(s))
	for l, name := range logicalNames {
		if lower == name {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}
