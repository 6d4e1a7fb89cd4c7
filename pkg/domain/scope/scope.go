// Package scope defines the interpreter's mutable runtime state: lexical
// scope chains, call frames and the program counter.
//
// Scopes are linked to their parent by pointer. Closures hold a pointer to
// the scope they were defined in, so several frames and functions may share
// the same scope and observe each other's updates. Any copy of a State that
// is meant to survive further execution must therefore be structural; see
// execution.SnapshotManager.
package scope

import (
	"fmt"
	"strings"
)

// Value is a runtime value. Values produced by the interpreter are nil, bool,
// int, float64, string, []interface{}, map[string]interface{} or *Function.
type Value = interface{}

// Scope is one level of a lexical scope chain.
type Scope struct {
	names  []string
	vars   map[string]Value
	parent *Scope
}

// NewScope creates an empty scope enclosed by parent (nil for a root scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{
		vars:   make(map[string]Value),
		parent: parent,
	}
}

// Parent returns the enclosing scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Declare binds name in this scope. Redeclaring a name in the same scope
// replaces its value but keeps its original declaration position.
func (s *Scope) Declare(name string, value Value) {
	if _, exists := s.vars[name]; !exists {
		s.names = append(s.names, name)
	}
	s.vars[name] = value
}

// Local returns the value bound to name in this scope only.
func (s *Scope) Local(name string) (Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Lookup resolves name by walking the chain from this scope to the root.
func (s *Scope) Lookup(name string) (Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Assign updates the nearest scope that declares name.
// Returns false if name is not declared anywhere in the chain.
func (s *Scope) Assign(name string, value Value) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.vars[name]; ok {
			cur.vars[name] = value
			return true
		}
	}
	return false
}

// Names returns the names declared in this scope in declaration order.
func (s *Scope) Names() []string {
	names := make([]string, len(s.names))
	copy(names, s.names)
	return names
}

// Len returns the number of names declared in this scope.
func (s *Scope) Len() int {
	return len(s.names)
}

// Depth returns the number of scopes in the chain, including this one.
func (s *Scope) Depth() int {
	depth := 0
	for cur := s; cur != nil; cur = cur.parent {
		depth++
	}
	return depth
}

// Chain returns the scopes from the root down to this scope.
func (s *Scope) Chain() []*Scope {
	var chain []*Scope
	for cur := s; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Visible returns every name visible from this scope, outermost declarations
// first, together with the value each name resolves to. Inner declarations
// shadow outer ones but do not change the name's position.
func (s *Scope) Visible() ([]string, map[string]Value) {
	var names []string
	values := make(map[string]Value)
	for _, sc := range s.Chain() {
		for _, name := range sc.names {
			if _, seen := values[name]; !seen {
				names = append(names, name)
			}
			values[name] = sc.vars[name]
		}
	}
	return names, values
}

// Function is a user-defined function value. Closure is the scope the
// function was defined in; calls create a child of it.
type Function struct {
	Name    string
	Params  []string
	Entry   int // index of the first body statement
	Exit    int // index of the closing brace
	Closure *Scope
}

// String returns the function's signature.
func (f *Function) String() string {
	return fmt.Sprintf("fn %s(%s)", f.Name, strings.Join(f.Params, ", "))
}
