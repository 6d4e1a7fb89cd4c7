package execution

import (
	"reflect"

	"github.com/dshills/ttdb/pkg/domain/recording"
	"github.com/dshills/ttdb/pkg/domain/scope"
)

// SnapshotManager produces interpreter snapshots that share no mutable
// storage with the live interpreter or with each other.
//
// Copies are structural: every frame, every scope up to the root of each
// chain, every binding table and every collection value is duplicated.
// Scopes that are shared inside the source graph (a closure and the frame
// that defined it, for example) stay shared inside the copy, so the copy
// behaves exactly like the original when it is run.
type SnapshotManager struct {
	captured int
	restored int
}

// NewSnapshotManager creates a new snapshot manager.
func NewSnapshotManager() *SnapshotManager {
	return &SnapshotManager{}
}

// Capture deep-copies st into a new snapshot. A nil state yields a nil
// snapshot.
func (sm *SnapshotManager) Capture(st *scope.State) *recording.ExecutionSnapshot {
	if st == nil {
		return nil
	}
	sm.captured++
	return recording.NewExecutionSnapshot(CopyState(st))
}

// Restore returns a fresh copy of the snapshot's state that the caller may
// run. The snapshot itself is left untouched.
func (sm *SnapshotManager) Restore(snap *recording.ExecutionSnapshot) *scope.State {
	if snap == nil || snap.State() == nil {
		return nil
	}
	sm.restored++
	return CopyState(snap.State())
}

// SnapshotStats reports how many copies a SnapshotManager has made.
type SnapshotStats struct {
	Captured int
	Restored int
}

// Stats returns copy counters.
func (sm *SnapshotManager) Stats() SnapshotStats {
	return SnapshotStats{Captured: sm.captured, Restored: sm.restored}
}

// CopyState returns a structural deep copy of st.
func CopyState(st *scope.State) *scope.State {
	if st == nil {
		return nil
	}
	c := newCopier()

	out := &scope.State{
		Frames:   make([]*scope.Frame, len(st.Frames)),
		PC:       st.PC,
		Output:   append([]string(nil), st.Output...),
		Executed: st.Executed,
	}
	for i, f := range st.Frames {
		out.Frames[i] = &scope.Frame{
			Function:      f.Function,
			CallLine:      f.CallLine,
			Scope:         c.scope(f.Scope),
			ReturnPC:      f.ReturnPC,
			ResultVar:     f.ResultVar,
			DeclareResult: f.DeclareResult,
		}
	}
	return out
}

// CopyValue returns a deep copy of v. Functions are copied together with
// their closure chain.
func CopyValue(v scope.Value) scope.Value {
	return newCopier().value(v)
}

// CopyBindings deep-copies a name/value table, preserving order.
func CopyBindings(names []string, values map[string]scope.Value) recording.Bindings {
	c := newCopier()
	copied := make(map[string]scope.Value, len(values))
	for _, name := range names {
		copied[name] = c.value(values[name])
	}
	return recording.NewBindings(names, copied)
}

// copier memoises copied scopes, functions and collections by identity so
// that sharing inside the source graph is reproduced, and cycles (a function
// stored in the scope it closes over) terminate.
type copier struct {
	scopes    map[*scope.Scope]*scope.Scope
	functions map[*scope.Function]*scope.Function
	slices    map[sliceKey][]interface{}
	maps      map[uintptr]map[string]interface{}
}

// sliceKey identifies a slice by its backing array and length.
type sliceKey struct {
	data uintptr
	len  int
}

func newCopier() *copier {
	return &copier{
		scopes:    make(map[*scope.Scope]*scope.Scope),
		functions: make(map[*scope.Function]*scope.Function),
		slices:    make(map[sliceKey][]interface{}),
		maps:      make(map[uintptr]map[string]interface{}),
	}
}

func (c *copier) scope(s *scope.Scope) *scope.Scope {
	if s == nil {
		return nil
	}
	if done, ok := c.scopes[s]; ok {
		return done
	}

	parent := c.scope(s.Parent())
	// copying the parent may already have reached s through a function value
	if done, ok := c.scopes[s]; ok {
		return done
	}

	out := scope.NewScope(parent)
	// register before copying values: a function bound here may close over s
	c.scopes[s] = out
	for _, name := range s.Names() {
		v, _ := s.Local(name)
		out.Declare(name, c.value(v))
	}
	return out
}

func (c *copier) value(v scope.Value) scope.Value {
	switch val := v.(type) {
	case []interface{}:
		if val == nil {
			return val
		}
		if len(val) == 0 {
			return []interface{}{}
		}
		key := sliceKey{data: reflect.ValueOf(val).Pointer(), len: len(val)}
		if done, ok := c.slices[key]; ok {
			return done
		}
		out := make([]interface{}, len(val))
		c.slices[key] = out
		for i, item := range val {
			out[i] = c.value(item)
		}
		return out
	case map[string]interface{}:
		if val == nil {
			return val
		}
		key := reflect.ValueOf(val).Pointer()
		if done, ok := c.maps[key]; ok {
			return done
		}
		out := make(map[string]interface{}, len(val))
		c.maps[key] = out
		for k, item := range val {
			out[k] = c.value(item)
		}
		return out
	case *scope.Function:
		return c.function(val)
	default:
		// nil, bool, numbers and strings are immutable
		return val
	}
}

func (c *copier) function(f *scope.Function) *scope.Function {
	if f == nil {
		return nil
	}
	if done, ok := c.functions[f]; ok {
		return done
	}
	out := &scope.Function{
		Name:   f.Name,
		Params: append([]string(nil), f.Params...),
		Entry:  f.Entry,
		Exit:   f.Exit,
	}
	c.functions[f] = out
	out.Closure = c.scope(f.Closure)
	return out
}
