package transform

import "errors"

// Sentinel errors shared across all transform operations
var (
	// Path errors
	ErrInvalidPath  = errors.New("invalid path syntax")
	ErrPathNotFound = errors.New("path not found")
	ErrTypeMismatch = errors.New("type mismatch")
	ErrNilData      = errors.New("cannot query nil data")

	// Expression errors
	ErrUnsafeOperation   = errors.New("unsafe operation attempted")
	ErrInvalidExpression = errors.New("invalid expression syntax")
	ErrEvaluationFailed  = errors.New("expression evaluation failed")

	// Shared undefined variable error
	ErrUndefinedVariable = errors.New("undefined variable")
)
