// Package env implements the scoped typing environment of spec.md §3: a
// stack of frames mapping source names to types, a global map from
// *renamed* names to types, and a per-name fresh counter that assigns
// `x$k` to the k-th redeclaration of `x` (in any scope, open or closed).
package env

import (
	"fmt"

	"github.com/twyair/verification-project/internal/typesystem"
)

// Environment is grounded on original_source/expr.py's Environment
// dataclass (scopes / vars / names_count / renamer), rendered as a Go
// struct with the same four-part shape.
type Environment struct {
	scopes  []map[string]typesystem.Type // source name -> type, per open scope
	renamer []map[string]string          // source name -> renamed name, per open scope
	vars    map[string]typesystem.Type   // renamed name -> type (the global, flattened universe)
	counts  map[string]int               // source name -> redeclaration count so far
}

// New returns an empty Environment with one (global) scope open.
func New() *Environment {
	return &Environment{
		scopes:  []map[string]typesystem.Type{{}},
		renamer: []map[string]string{{}},
		vars:    map[string]typesystem.Type{},
		counts:  map[string]int{},
	}
}

// OpenScope pushes a fresh frame (and rename-frame) onto the stack.
func (e *Environment) OpenScope() {
	e.scopes = append(e.scopes, map[string]typesystem.Type{})
	e.renamer = append(e.renamer, map[string]string{})
}

// CloseScope pops the innermost frame and rename-frame. Renamed entries
// already installed in the global map persist (spec.md §3 invariant).
func (e *Environment) CloseScope() {
	e.scopes = e.scopes[:len(e.scopes)-1]
	e.renamer = e.renamer[:len(e.renamer)-1]
}

// Declare binds name to ty in the current (innermost) scope. If name was
// declared before, in any scope (including one already closed), the new
// binding gets a fresh
// renamed identifier `name$k`; lookups of the bare source name through
// Rename resolve to this new identifier for the remainder of the current
// scope. Declare returns the identifier that must be used in lowered
// expressions (the renamed name, or name itself on first declaration).
func (e *Environment) Declare(name string, ty typesystem.Type) string {
	e.scopes[len(e.scopes)-1][name] = ty
	renamed := name
	if e.counts[name] > 0 {
		renamed = fmt.Sprintf("%s$%d", name, e.counts[name])
		e.renamer[len(e.renamer)-1][name] = renamed
	}
	e.counts[name]++
	e.vars[renamed] = ty
	return renamed
}

// Lookup returns the declared type of name, searching innermost-scope-out,
// mirroring Environment.__getitem__.
func (e *Environment) Lookup(name string) (typesystem.Type, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if ty, ok := e.scopes[i][name]; ok {
			return ty, true
		}
	}
	return nil, false
}

// Contains reports whether name is declared in any open scope.
func (e *Environment) Contains(name string) bool {
	_, ok := e.Lookup(name)
	return ok
}

// Rename resolves a source name to its canonical (possibly `name$k`)
// identifier through the innermost rename-frame that has an entry for it,
// falling back to the bare name when it was never shadowed.
func (e *Environment) Rename(name string) string {
	for i := len(e.renamer) - 1; i >= 0; i-- {
		if r, ok := e.renamer[i][name]; ok {
			return r
		}
	}
	return name
}

// Forget removes a renamed identifier from the global variable map. Used
// by quantifier translation to exclude the bound variable from the free
// variable universe while its body is being translated (spec.md §4.1).
func (e *Environment) Forget(renamedName string) {
	delete(e.vars, renamedName)
}

// Vars returns a copy of the global renamed-name -> type map.
func (e *Environment) Vars() map[string]typesystem.Type {
	out := make(map[string]typesystem.Type, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return out
}

// TypeOf does a total reverse lookup of a renamed identifier's type,
// per the invariant that every identifier in a lowered expression is a
// key of the global map.
func (e *Environment) TypeOf(renamedName string) (typesystem.Type, bool) {
	ty, ok := e.vars[renamedName]
	return ty, ok
}
