package pushdown

import (
	"errors"
	"fmt"
)

// Error reports why a filter cannot be translated.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path locates the offending node, e.g. "root.left.right".
	Path string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes translation errors.
type ErrorCode string

const (
	// CodeUnsupportedOperand indicates an operand with no storage counterpart.
	CodeUnsupportedOperand ErrorCode = "UNSUPPORTED_OPERAND"

	// CodeUnsupportedComparator indicates a comparator outside the storage set.
	CodeUnsupportedComparator ErrorCode = "UNSUPPORTED_COMPARATOR"

	// CodeConstantConversion indicates a constant with no property representation.
	CodeConstantConversion ErrorCode = "CONSTANT_CONVERSION_FAILED"

	// CodeGeneralExpression indicates a general expression was offered for push-down.
	CodeGeneralExpression ErrorCode = "GENERAL_EXPRESSION_UNSUPPORTED"

	// CodeInvalidPredicate indicates a nil or unknown node.
	CodeInvalidPredicate ErrorCode = "INVALID_PREDICATE"
)

// Sentinels for errors.Is. Any *Error matches the sentinel with the same
// Code.
var (
	ErrUnsupportedOperand    = &Error{Code: CodeUnsupportedOperand, Message: "unsupported operand"}
	ErrUnsupportedComparator = &Error{Code: CodeUnsupportedComparator, Message: "unsupported comparator"}
	ErrConstantConversion    = &Error{Code: CodeConstantConversion, Message: "constant conversion failed"}
	ErrGeneralExpression     = &Error{Code: CodeGeneralExpression, Message: "general expression cannot be pushed down"}
	ErrInvalidPredicate      = &Error{Code: CodeInvalidPredicate, Message: "invalid predicate"}
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (at %s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsUnsupportedOperand returns true if err is an unsupported operand error.
func IsUnsupportedOperand(err error) bool {
	return CodeOf(err) == CodeUnsupportedOperand
}

// IsUnsupportedComparator returns true if err is an unsupported comparator error.
func IsUnsupportedComparator(err error) bool {
	return CodeOf(err) == CodeUnsupportedComparator
}

// IsConstantConversion returns true if err is a constant conversion error.
func IsConstantConversion(err error) bool {
	return CodeOf(err) == CodeConstantConversion
}

// IsGeneralExpression returns true if err rejects a general expression.
func IsGeneralExpression(err error) bool {
	return CodeOf(err) == CodeGeneralExpression
}

func newError(code ErrorCode, path string, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Path:    path,
		Err:     cause,
	}
}
