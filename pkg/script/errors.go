package script

import (
	"errors"
	"fmt"
)

// ErrProgramFinished is returned by Advance when no statements remain.
var ErrProgramFinished = errors.New("program finished")

// ErrorType categorizes evaluation errors.
type ErrorType string

const (
	// ErrorTypeSyntax indicates the source could not be parsed.
	ErrorTypeSyntax ErrorType = "syntax"
	// ErrorTypeRuntime indicates a statement failed while executing.
	ErrorTypeRuntime ErrorType = "runtime"
	// ErrorTypeUndefined indicates a reference to an undeclared name.
	ErrorTypeUndefined ErrorType = "undefined"
	// ErrorTypeLimit indicates a step or call depth limit was reached.
	ErrorTypeLimit ErrorType = "limit"
)

// EvalError describes a parse or evaluation failure at a source line.
type EvalError struct {
	// Type categorizes the error.
	Type ErrorType
	// Line is the 1-based source line (0 if unknown).
	Line int
	// Statement is the source text of the failing statement.
	Statement string
	// Message is a human-readable description.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s", e.Type, e.Line, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *EvalError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newEvalError(typ ErrorType, stmt Statement, cause error, format string, args ...interface{}) *EvalError {
	return &EvalError{
		Type:      typ,
		Line:      stmt.Line,
		Statement: stmt.Text,
		Message:   fmt.Sprintf(format, args...),
		Cause:     cause,
	}
}

func syntaxError(line int, text string, format string, args ...interface{}) *EvalError {
	return &EvalError{
		Type:      ErrorTypeSyntax,
		Line:      line,
		Statement: text,
		Message:   fmt.Sprintf(format, args...),
	}
}
