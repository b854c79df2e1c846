package loader

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error code constants, shared with the CLI output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No filter documents found
	ErrCodeParseFailed = "E004" // YAML or CUE syntax error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeSchema      = "E006" // Document does not match the schema
	ErrCodeExtension   = "E007" // Unsupported file extension

	ErrCodeInvalidNode     = "E201" // Malformed filter node
	ErrCodeInvalidOperand  = "E202" // Malformed operand
	ErrCodeInvalidOperator = "E203" // Unknown operator
	ErrCodeInvalidExpect   = "E204" // Malformed expect block
	ErrCodeInvalidVertex   = "E205" // Malformed vertex fixture
	ErrCodeDuplicateName   = "E206" // Two filters share a name
	ErrCodeInvalidExpr     = "E207" // General expression does not compile
)

// Position locates a node in a source file. Line and Column are 1-based;
// zero means unknown.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	switch {
	case p.Line > 0 && p.Column > 0:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	case p.Line > 0:
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	default:
		return p.File
	}
}

func cuePosition(pos token.Pos) Position {
	if !pos.IsValid() {
		return Position{}
	}
	return Position{File: pos.Filename(), Line: pos.Line(), Column: pos.Column()}
}

// LoadError represents an error that occurred while loading a filter
// document.
type LoadError struct {
	Code    string
	Message string
	Pos     Position
}

func (e *LoadError) Error() string {
	if pos := e.Pos.String(); pos != "" {
		return fmt.Sprintf("%s: %s: %s", pos, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func errorf(code string, pos Position, format string, args ...any) *LoadError {
	return &LoadError{Code: code, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// formatCUEError extracts position info from CUE errors. Only the first
// error is reported.
func formatCUEError(err error, code string, file string) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error(), Pos: Position{File: file}}
	}

	first := errs[0]
	pos := Position{File: file}
	if positions := errors.Positions(first); len(positions) > 0 {
		if p := cuePosition(positions[0]); p.File != "" {
			pos = p
		}
	}
	return &LoadError{Code: code, Message: first.Error(), Pos: pos}
}
