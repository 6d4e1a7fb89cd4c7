package transform

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

// ExpressionEvaluator defines the interface for evaluating expressions.
// Supports:
//   - Comparison operators: >, <, >=, <=, ==, !=
//   - Logical operators: && (AND), || (OR), ! (NOT)
//   - Arithmetic operators: +, -, *, /, %
//   - Array and map literals, member and index access
//   - Ternary conditionals and the expr-lang builtins (len, upper, ...)
//   - Variable references from the environment map
//
// Sandboxed for security - no arbitrary code execution.
type ExpressionEvaluator interface {
	Evaluate(ctx context.Context, expression string, env map[string]interface{}) (interface{}, error)
}

// exprEvaluator implements ExpressionEvaluator using github.com/expr-lang/expr.
// Evaluation is synchronous; the evaluator is owned by a single interpreter.
type exprEvaluator struct {
	programCache map[string]*vm.Program
}

// NewExpressionEvaluator creates a new expression evaluator with sandboxing
func NewExpressionEvaluator() ExpressionEvaluator {
	return &exprEvaluator{
		programCache: make(map[string]*vm.Program),
	}
}

// Evaluate executes an expression with the given environment
func (e *exprEvaluator) Evaluate(ctx context.Context, expression string, env map[string]interface{}) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := validateExpression(expression); err != nil {
		return nil, err
	}

	if env == nil {
		env = map[string]interface{}{}
	}

	program, err := e.getOrCompileProgram(expression, env)
	if err != nil {
		return nil, err
	}

	result, err := vm.Run(program, env)
	if err != nil {
		if strings.Contains(err.Error(), "undefined") || strings.Contains(err.Error(), "unknown name") {
			return nil, fmt.Errorf("%w: %v", ErrUndefinedVariable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrEvaluationFailed, err)
	}
	return result, nil
}

// validateExpression checks for unsafe operations
func validateExpression(expression string) error {
	unsafePatterns := []string{
		"os.",
		"exec.",
		"http.",
		"net.",
		"syscall.",
		"unsafe.",
		"__proto__",
		"ReadFile",
		"WriteFile",
	}

	lowerExpr := strings.ToLower(expression)
	for _, pattern := range unsafePatterns {
		if strings.Contains(lowerExpr, strings.ToLower(pattern)) {
			return ErrUnsafeOperation
		}
	}

	return nil
}

// ValidateSyntax parses expression without an environment and reports
// syntax errors only. Unknown identifiers are accepted.
func ValidateSyntax(expression string) error {
	if strings.TrimSpace(expression) == "" {
		return fmt.Errorf("%w: empty expression", ErrInvalidExpression)
	}
	if err := validateExpression(expression); err != nil {
		return err
	}
	if _, err := parser.Parse(expression); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	return nil
}

// ParseTree returns the syntax tree of expression.
func ParseTree(expression string) (ast.Node, error) {
	tree, err := parser.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}
	return tree.Node, nil
}

// DumpTree renders the syntax tree of expression for display.
func DumpTree(expression string) (string, error) {
	node, err := ParseTree(expression)
	if err != nil {
		return "", err
	}
	return ast.Dump(node), nil
}

// getOrCompileProgram retrieves cached program or compiles new one.
// Programs are typed against the environment, so the cache key includes the
// name and dynamic type of every variable.
func (e *exprEvaluator) getOrCompileProgram(expression string, env map[string]interface{}) (*vm.Program, error) {
	key := cacheKey(expression, env)
	if program, ok := e.programCache[key]; ok {
		return program, nil
	}

	// "contains", "not", "and" and "or" are operators in expr-lang; use the
	// infix forms (s contains "x", not ok).
	options := []expr.Option{
		expr.Env(env),
	}

	program, err := expr.Compile(expression, options...)
	if err != nil {
		if strings.Contains(err.Error(), "unknown name") || strings.Contains(err.Error(), "undefined") {
			return nil, fmt.Errorf("%w: %v", ErrUndefinedVariable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	e.programCache[key] = program

	return program, nil
}

func cacheKey(expression string, env map[string]interface{}) string {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(expression)
	for _, name := range names {
		fmt.Fprintf(&b, "\x00%s:%T", name, env[name])
	}
	return b.String()
}

// IsTruthy checks if a value is truthy in a boolean context.
// Falsy values: nil, false, 0, 0.0, empty string, empty collections
// Truthy values: everything else
func IsTruthy(val interface{}) bool {
	if val == nil {
		return false
	}

	switch v := val.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	case []interface{}:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	default:
		return true
	}
}
