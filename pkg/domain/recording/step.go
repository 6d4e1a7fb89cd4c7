// Package recording defines the execution log of a debug session: the
// immutable per-step records, their variable bindings and the deep-copied
// interpreter snapshots that let a session travel back in time.
package recording

import (
	"time"

	"github.com/dshills/ttdb/pkg/domain/scope"
	"github.com/dshills/ttdb/pkg/domain/types"
)

// Bindings is an ordered, read-only mapping from variable name to value.
// Values held by Bindings must not be modified.
type Bindings struct {
	names  []string
	values map[string]scope.Value
}

// NewBindings creates Bindings over the given names. Names without a value in
// values are bound to nil. The caller hands over ownership of values.
func NewBindings(names []string, values map[string]scope.Value) Bindings {
	b := Bindings{
		names:  make([]string, 0, len(names)),
		values: make(map[string]scope.Value, len(names)),
	}
	for _, name := range names {
		if _, dup := b.values[name]; dup {
			continue
		}
		b.names = append(b.names, name)
		b.values[name] = values[name]
	}
	return b
}

// Get returns the value bound to name. A missing name is not an error:
// Get returns (nil, false).
func (b Bindings) Get(name string) (scope.Value, bool) {
	v, ok := b.values[name]
	return v, ok
}

// Names returns the bound names in order.
func (b Bindings) Names() []string {
	names := make([]string, len(b.names))
	copy(names, b.names)
	return names
}

// Len returns the number of bindings.
func (b Bindings) Len() int {
	return len(b.names)
}

// StepState is the record of one evaluation step. A StepState is never
// modified once it has been appended to a Recording.
type StepState struct {
	// Number is assigned by the recorder and equals the step's index.
	Number types.StepNumber
	// Line is the source line of the statement this step executed.
	Line int
	// Variables are the bindings visible after the statement executed.
	Variables Bindings
	// Snapshot is the interpreter state after the statement executed.
	Snapshot *ExecutionSnapshot
	// RecordedAt is when the step was appended.
	RecordedAt time.Time
}

// Lookup returns the value of name as recorded in this step.
func (s StepState) Lookup(name string) (scope.Value, bool) {
	return s.Variables.Get(name)
}

// ExecutionSnapshot is an interpreter state owned by exactly one StepState.
// It shares no mutable storage with the live interpreter or with any other
// snapshot.
type ExecutionSnapshot struct {
	state      *scope.State
	capturedAt time.Time
}

// NewExecutionSnapshot wraps st, which the caller must have copied and must
// not retain.
func NewExecutionSnapshot(st *scope.State) *ExecutionSnapshot {
	return &ExecutionSnapshot{
		state:      st,
		capturedAt: time.Now(),
	}
}

// State returns the captured state. The returned value is a read-only view;
// use execution.SnapshotManager.Restore to obtain a copy that may be run.
func (s *ExecutionSnapshot) State() *scope.State {
	if s == nil {
		return nil
	}
	return s.state
}

// CapturedAt returns when the snapshot was taken.
func (s *ExecutionSnapshot) CapturedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.capturedAt
}

// Lookup resolves name from the innermost scope of the captured call stack.
func (s *ExecutionSnapshot) Lookup(name string) (scope.Value, bool) {
	if s == nil || s.state == nil {
		return nil, false
	}
	top := s.state.Top()
	if top == nil {
		return nil, false
	}
	return top.Scope.Lookup(name)
}

// PC returns the index of the statement that would execute next.
func (s *ExecutionSnapshot) PC() int {
	if s == nil || s.state == nil {
		return 0
	}
	return s.state.PC
}
