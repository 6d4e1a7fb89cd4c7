package execution

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dshills/ttdb/pkg/transform"
)

// ErrInvalidBreakpoint is returned for breakpoints on non-positive lines or
// with a malformed condition.
var ErrInvalidBreakpoint = errors.New("invalid breakpoint")

// Breakpoint pauses forward execution before a statement on Line runs.
type Breakpoint struct {
	Line int
	// Condition is an optional expression; the breakpoint only triggers when
	// it evaluates truthy.
	Condition string
	// Hits counts how many times the breakpoint has triggered.
	Hits int
}

func (bp Breakpoint) String() string {
	if bp.Condition != "" {
		return fmt.Sprintf("line %d if %s (hits %d)", bp.Line, bp.Condition, bp.Hits)
	}
	return fmt.Sprintf("line %d (hits %d)", bp.Line, bp.Hits)
}

// Breakpoints is the set of lines at which Continue pauses.
type Breakpoints struct {
	points    map[int]*Breakpoint
	evaluator transform.ExpressionEvaluator
}

// NewBreakpoints creates an empty breakpoint set. evaluator is used for
// conditional breakpoints; nil selects the default expression evaluator.
func NewBreakpoints(evaluator transform.ExpressionEvaluator) *Breakpoints {
	if evaluator == nil {
		evaluator = transform.NewExpressionEvaluator()
	}
	return &Breakpoints{
		points:    make(map[int]*Breakpoint),
		evaluator: evaluator,
	}
}

// Set adds an unconditional breakpoint. Setting an existing line again is a
// no-op, except that it drops any condition on it. Returns false if line was
// already a breakpoint.
func (b *Breakpoints) Set(line int) (bool, error) {
	if line <= 0 {
		return false, fmt.Errorf("%w: line %d", ErrInvalidBreakpoint, line)
	}
	if bp, ok := b.points[line]; ok {
		bp.Condition = ""
		return false, nil
	}
	b.points[line] = &Breakpoint{Line: line}
	return true, nil
}

// SetConditional adds or replaces a breakpoint that only triggers when
// condition is truthy.
func (b *Breakpoints) SetConditional(line int, condition string) error {
	if line <= 0 {
		return fmt.Errorf("%w: line %d", ErrInvalidBreakpoint, line)
	}
	if err := transform.ValidateSyntax(condition); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBreakpoint, err)
	}
	if bp, ok := b.points[line]; ok {
		bp.Condition = condition
		return nil
	}
	b.points[line] = &Breakpoint{Line: line, Condition: condition}
	return nil
}

// IsBreakpoint reports whether line carries a breakpoint, regardless of its
// condition.
func (b *Breakpoints) IsBreakpoint(line int) bool {
	_, ok := b.points[line]
	return ok
}

// ShouldBreak reports whether execution should pause before line, given the
// bindings visible there. A condition that cannot be evaluated triggers the
// breakpoint so the problem is visible to the user.
func (b *Breakpoints) ShouldBreak(line int, env map[string]interface{}) bool {
	bp, ok := b.points[line]
	if !ok {
		return false
	}
	if bp.Condition != "" {
		v, err := b.evaluator.Evaluate(context.Background(), bp.Condition, env)
		if err == nil && !transform.IsTruthy(v) {
			return false
		}
	}
	bp.Hits++
	return true
}

// Remove deletes the breakpoint on line. Returns false if there was none.
func (b *Breakpoints) Remove(line int) bool {
	if _, ok := b.points[line]; !ok {
		return false
	}
	delete(b.points, line)
	return true
}

// Clear removes every breakpoint.
func (b *Breakpoints) Clear() {
	b.points = make(map[int]*Breakpoint)
}

// Count returns the number of breakpoints.
func (b *Breakpoints) Count() int {
	return len(b.points)
}

// Lines returns the breakpoint lines in ascending order.
func (b *Breakpoints) Lines() []int {
	lines := make([]int, 0, len(b.points))
	for line := range b.points {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

// List returns copies of all breakpoints ordered by line.
func (b *Breakpoints) List() []Breakpoint {
	list := make([]Breakpoint, 0, len(b.points))
	for _, line := range b.Lines() {
		list = append(list, *b.points[line])
	}
	return list
}
