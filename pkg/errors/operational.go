package errors

import (
	"fmt"
	"time"
)

// OperationalError represents enhanced error information for debugging.
//
// It wraps errors with operational context including session ID, source
// line, and timestamp. This lets a front end report where in the debugged
// program a command failed without losing the underlying cause.
type OperationalError struct {
	Operation  string                 // What operation was being performed
	SessionID  string                 // Which debug session
	Line       int                    // Source line (0 if not applicable)
	Timestamp  time.Time              // When error occurred
	Attributes map[string]interface{} // Additional context (optional)
	Cause      error                  // Underlying error
}

// NewOperationalError creates an OperationalError wrapping an error.
//
// Returns nil if cause is nil (no error to wrap).
//
// Example:
//
//	if err := interp.Advance(); err != nil {
//	    return NewOperationalError("step", sessionID, line, err)
//	}
func NewOperationalError(operation, sessionID string, line int, cause error) *OperationalError {
	if cause == nil {
		return nil
	}

	return &OperationalError{
		Operation: operation,
		SessionID: sessionID,
		Line:      line,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// NewOperationalErrorWithAttrs creates an OperationalError with additional attributes.
//
// Returns nil if cause is nil (no error to wrap).
func NewOperationalErrorWithAttrs(operation, sessionID string, line int, cause error, attrs map[string]interface{}) *OperationalError {
	err := NewOperationalError(operation, sessionID, line, cause)
	if err != nil {
		err.Attributes = attrs
	}
	return err
}

// Error implements the error interface.
//
// Format: "operation: session={id} line={n}: {cause}"
// If the line is 0, it's omitted from the message.
func (e *OperationalError) Error() string {
	if e == nil {
		return "<nil OperationalError>"
	}

	if e.Line > 0 {
		return fmt.Sprintf("%s: session=%s line=%d: %v", e.Operation, e.SessionID, e.Line, e.Cause)
	}
	return fmt.Sprintf("%s: session=%s: %v", e.Operation, e.SessionID, e.Cause)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *OperationalError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
