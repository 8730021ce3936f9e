// Package diagnostics defines the structured error codes the core reports
// for contract violations (spec.md §7): malformed AST, unknown node types,
// and other conditions that mean the core cannot produce a verification
// verdict at all.
package diagnostics

import (
	"fmt"

	"github.com/twyair/verification-project/internal/ast"
)

// Code identifies a class of contract violation. The "C" prefix marks
// these as core-layer codes, mirroring the teacher's per-stage code
// prefixes (ErrP### for its parser, ErrA### for its analyzer).
type Code string

const (
	ErrUnsupportedSyntax   Code = "C001" // AST shape the core's expression/statement translation does not recognize.
	ErrUnknownNodeType     Code = "C002" // a node's Type field matches nothing in ast.Type's closed set.
	ErrBadCast             Code = "C003" // cast target type is not Int or Real.
	ErrMalformedQuantifier Code = "C004" // forall/exists binder shape is wrong.
	ErrBreakOutsideLoop    Code = "C005" // break with no enclosing loop_end.
	ErrContinueOutsideLoop Code = "C006" // continue with no enclosing loop_start.
	ErrUnsupportedForInit  Code = "C007" // for-init is an expression statement, not a declaration (Open Question 1). Not returned: internal/cfg translates such an init.
	ErrGotoUnsupported     Code = "C008" // goto is explicitly out of scope (Open Question 2).
	ErrMultiDeclUnsupported Code = "C009" // "int x, y;" is explicitly out of scope (Open Question 3).
	ErrUnknownParamType    Code = "C010" // function parameter type is not scalar or 1-D array of scalar.
	ErrRequiresNotLeading  Code = "C011" // requires(...) appeared somewhere other than the function's leading statements.
	ErrUnresolvedIdentifier Code = "C012" // identifier has no entry in the environment.
	ErrSolverFailure       Code = "C013" // the Solver collaborator raised instead of returning sat/unsat/unknown.
)

// Error is a contract-violation diagnostic: a code, the source range it
// applies to (if any), and a human-readable detail.
type Error struct {
	Code    Code
	Range   ast.Range
	Detail  string
	HasRange bool
}

func (e *Error) Error() string {
	if e.HasRange {
		return fmt.Sprintf("%s at %s: %s", e.Code, e.Range, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// New builds an Error carrying a source range.
func New(code Code, rng ast.Range, detail string) *Error {
	return &Error{Code: code, Range: rng, Detail: detail, HasRange: true}
}

// NewNoRange builds an Error with no associated source range (e.g. a
// driver-level Solver failure that isn't tied to one AST node).
func NewNoRange(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// Newf is New with a formatted detail.
func Newf(code Code, rng ast.Range, format string, args ...any) *Error {
	return New(code, rng, fmt.Sprintf(format, args...))
}
