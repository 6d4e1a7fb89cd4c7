package script

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/ttdb/pkg/domain/scope"
	"github.com/dshills/ttdb/pkg/transform"
)

const (
	// DefaultMaxSteps bounds the number of statements a program may execute.
	DefaultMaxSteps = 100000
	// DefaultMaxDepth bounds the call stack depth.
	DefaultMaxDepth = 256
)

// Interpreter executes a Program one statement at a time.
//
// An Interpreter is not safe for concurrent use.
type Interpreter struct {
	program   *Program
	state     *scope.State
	evaluator transform.ExpressionEvaluator
	maxSteps  int
	maxDepth  int
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithMaxSteps sets the executed-statement limit (<= 0 keeps the default).
func WithMaxSteps(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxSteps = n
		}
	}
}

// WithMaxDepth sets the call depth limit (<= 0 keeps the default).
func WithMaxDepth(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxDepth = n
		}
	}
}

// WithEvaluator replaces the expression evaluator.
func WithEvaluator(e transform.ExpressionEvaluator) Option {
	return func(in *Interpreter) {
		if e != nil {
			in.evaluator = e
		}
	}
}

// NewInterpreter creates an interpreter positioned before the first statement
// of prog.
func NewInterpreter(prog *Program, opts ...Option) *Interpreter {
	in := &Interpreter{
		program:   prog,
		state:     scope.NewState(),
		evaluator: transform.NewExpressionEvaluator(),
		maxSteps:  DefaultMaxSteps,
		maxDepth:  DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Program returns the program being executed.
func (in *Interpreter) Program() *Program {
	return in.program
}

// Done reports whether every statement has been executed.
func (in *Interpreter) Done() bool {
	return in.state.PC >= in.program.Len()
}

// CurrentLine returns the source line of the next statement, or 0 when the
// program has finished.
func (in *Interpreter) CurrentLine() int {
	stmt, ok := in.NextStatement()
	if !ok {
		return 0
	}
	return stmt.Line
}

// NextStatement returns the statement Advance would execute.
func (in *Interpreter) NextStatement() (Statement, bool) {
	if in.Done() {
		return Statement{}, false
	}
	return in.program.Statements[in.state.PC], true
}

// State returns the live interpreter state. The returned value is shared
// with the interpreter.
func (in *Interpreter) State() *scope.State {
	return in.state
}

// SetState replaces the live state. The interpreter takes ownership of st.
func (in *Interpreter) SetState(st *scope.State) {
	if st == nil {
		st = scope.NewState()
	}
	in.state = st
}

// Bindings returns the names visible from the innermost scope of the current
// frame, outermost declarations first, and the values they resolve to.
func (in *Interpreter) Bindings() ([]string, map[string]scope.Value) {
	return in.state.Top().Scope.Visible()
}

// Lookup resolves name in the current scope chain.
func (in *Interpreter) Lookup(name string) (scope.Value, bool) {
	return in.state.Top().Scope.Lookup(name)
}

// CallStack describes the active function calls, innermost first. It is
// empty while executing top-level code.
func (in *Interpreter) CallStack() []string {
	frames := in.state.Frames
	stack := make([]string, 0, len(frames))
	for i := len(frames) - 1; i > 0; i-- {
		f := frames[i]
		stack = append(stack, fmt.Sprintf("%s() called from line %d", f.Function, f.CallLine))
	}
	return stack
}

// Output returns the lines printed so far.
func (in *Interpreter) Output() []string {
	out := make([]string, len(in.state.Output))
	copy(out, in.state.Output)
	return out
}

// Advance executes exactly one statement. On error the state is left as it
// was before the call.
func (in *Interpreter) Advance() error {
	stmt, ok := in.NextStatement()
	if !ok {
		return ErrProgramFinished
	}
	if in.state.Executed >= in.maxSteps {
		return newEvalError(ErrorTypeLimit, stmt, nil, "step limit of %d reached", in.maxSteps)
	}

	if err := in.exec(stmt); err != nil {
		return err
	}
	in.state.Executed++
	return nil
}

func (in *Interpreter) exec(stmt Statement) error {
	st := in.state
	frame := st.Top()

	switch stmt.Kind {
	case KindLet:
		if stmt.IsCall {
			return in.call(stmt, stmt.Name, true)
		}
		v, err := in.eval(stmt, stmt.Expr)
		if err != nil {
			return err
		}
		frame.Scope.Declare(stmt.Name, v)
		st.PC++

	case KindAssign:
		if _, ok := frame.Scope.Lookup(stmt.Name); !ok {
			return newEvalError(ErrorTypeUndefined, stmt, transform.ErrUndefinedVariable,
				"assignment to undeclared variable %q", stmt.Name)
		}
		if stmt.IsCall {
			return in.call(stmt, stmt.Name, false)
		}
		v, err := in.eval(stmt, stmt.Expr)
		if err != nil {
			return err
		}
		frame.Scope.Assign(stmt.Name, v)
		st.PC++

	case KindSetIndex:
		if err := in.setIndex(stmt); err != nil {
			return err
		}
		st.PC++

	case KindPrint:
		v, err := in.eval(stmt, stmt.Expr)
		if err != nil {
			return err
		}
		st.Output = append(st.Output, Display(v))
		st.PC++

	case KindBlock:
		frame.Scope = scope.NewScope(frame.Scope)
		st.PC++

	case KindIf, KindWhile:
		v, err := in.eval(stmt, stmt.Expr)
		if err != nil {
			return err
		}
		if transform.IsTruthy(v) {
			frame.Scope = scope.NewScope(frame.Scope)
			st.PC++
		} else {
			st.PC = stmt.Match + 1
		}

	case KindFunc:
		frame.Scope.Declare(stmt.Name, &scope.Function{
			Name:    stmt.Name,
			Params:  append([]string(nil), stmt.Params...),
			Entry:   st.PC + 1,
			Exit:    stmt.Match,
			Closure: frame.Scope,
		})
		st.PC = stmt.Match + 1

	case KindCall:
		return in.call(stmt, "", false)

	case KindReturn:
		var v scope.Value
		if stmt.Expr != "" {
			var err error
			if v, err = in.eval(stmt, stmt.Expr); err != nil {
				return err
			}
		}
		return in.ret(stmt, v)

	case KindEnd:
		opener := in.program.Statements[stmt.Match]
		switch opener.Kind {
		case KindFunc:
			return in.ret(stmt, nil)
		case KindWhile:
			frame.Scope = frame.Scope.Parent()
			st.PC = stmt.Match
		default:
			frame.Scope = frame.Scope.Parent()
			st.PC++
		}

	default:
		return newEvalError(ErrorTypeRuntime, stmt, nil, "unknown statement kind %s", stmt.Kind)
	}
	return nil
}

// call pushes a frame for stmt's callee. The result is bound to resultVar
// by the matching return.
func (in *Interpreter) call(stmt Statement, resultVar string, declare bool) error {
	st := in.state
	callee, ok := st.Top().Scope.Lookup(stmt.Callee)
	if !ok {
		return newEvalError(ErrorTypeUndefined, stmt, transform.ErrUndefinedVariable,
			"call to undefined function %q", stmt.Callee)
	}
	fn, ok := callee.(*scope.Function)
	if !ok {
		return newEvalError(ErrorTypeRuntime, stmt, nil, "%q is not a function", stmt.Callee)
	}
	if len(stmt.Args) != len(fn.Params) {
		return newEvalError(ErrorTypeRuntime, stmt, nil,
			"%s expects %d arguments, got %d", fn.Name, len(fn.Params), len(stmt.Args))
	}
	if st.Depth() >= in.maxDepth {
		return newEvalError(ErrorTypeLimit, stmt, nil, "call depth limit of %d reached", in.maxDepth)
	}

	args := make([]scope.Value, len(stmt.Args))
	for i, a := range stmt.Args {
		v, err := in.eval(stmt, a)
		if err != nil {
			return err
		}
		args[i] = v
	}

	local := scope.NewScope(fn.Closure)
	for i, p := range fn.Params {
		local.Declare(p, args[i])
	}
	st.Push(&scope.Frame{
		Function:      fn.Name,
		CallLine:      stmt.Line,
		Scope:         local,
		ReturnPC:      st.PC + 1,
		ResultVar:     resultVar,
		DeclareResult: declare,
	})
	st.PC = fn.Entry
	return nil
}

func (in *Interpreter) ret(stmt Statement, v scope.Value) error {
	st := in.state
	if st.Depth() <= 1 {
		return newEvalError(ErrorTypeRuntime, stmt, nil, "return outside of a function")
	}
	callee := st.Frames[len(st.Frames)-1]
	caller := st.Frames[len(st.Frames)-2]

	if callee.ResultVar != "" && !callee.DeclareResult {
		if _, ok := caller.Scope.Lookup(callee.ResultVar); !ok {
			return newEvalError(ErrorTypeUndefined, stmt, transform.ErrUndefinedVariable,
				"assignment to undeclared variable %q", callee.ResultVar)
		}
	}

	st.Pop()
	switch {
	case callee.ResultVar == "":
	case callee.DeclareResult:
		caller.Scope.Declare(callee.ResultVar, v)
	default:
		caller.Scope.Assign(callee.ResultVar, v)
	}
	st.PC = callee.ReturnPC
	return nil
}

func (in *Interpreter) setIndex(stmt Statement) error {
	target, ok := in.state.Top().Scope.Lookup(stmt.Name)
	if !ok {
		return newEvalError(ErrorTypeUndefined, stmt, transform.ErrUndefinedVariable,
			"assignment to undeclared variable %q", stmt.Name)
	}
	key, err := in.eval(stmt, stmt.Index)
	if err != nil {
		return err
	}
	v, err := in.eval(stmt, stmt.Expr)
	if err != nil {
		return err
	}

	switch coll := target.(type) {
	case []interface{}:
		i, ok := key.(int)
		if !ok {
			return newEvalError(ErrorTypeRuntime, stmt, nil, "array index must be an int, got %T", key)
		}
		if i < 0 {
			i += len(coll)
		}
		if i < 0 || i >= len(coll) {
			return newEvalError(ErrorTypeRuntime, stmt, nil, "index %v out of range [0, %d)", key, len(coll))
		}
		coll[i] = v
	case map[string]interface{}:
		k, ok := key.(string)
		if !ok {
			return newEvalError(ErrorTypeRuntime, stmt, nil, "map key must be a string, got %T", key)
		}
		coll[k] = v
	default:
		return newEvalError(ErrorTypeRuntime, stmt, nil, "%q is not an array or map", stmt.Name)
	}
	return nil
}

func (in *Interpreter) eval(stmt Statement, expression string) (scope.Value, error) {
	_, env := in.Bindings()
	v, err := in.evaluator.Evaluate(context.Background(), expression, env)
	if err != nil {
		typ := ErrorTypeRuntime
		if errors.Is(err, transform.ErrUndefinedVariable) {
			typ = ErrorTypeUndefined
		}
		return nil, newEvalError(typ, stmt, err, "%v", err)
	}
	return v, nil
}
