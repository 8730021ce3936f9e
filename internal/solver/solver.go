// Package solver is the Go-side face of the external Solver collaborator
// (spec.md §6): an SMT/Horn-logic backend treated as a black box. The core
// only ever talks to the Solver interface; concrete transports live in
// solver/grpcclient (talks to an out-of-process SMT service) and
// solver/stub (an in-process reference decision procedure for tests).
package solver

import "context"

// Sort is one of the backend's declared sorts: Int, Real, Bool, or an
// Array over two sorts.
type Sort struct {
	Kind    SortKind
	Index   *Sort // for SortArray: the index sort
	Element *Sort // for SortArray: the element sort
}

type SortKind int

const (
	SortInt SortKind = iota
	SortReal
	SortBool
	SortArray
)

func (s Sort) String() string {
	switch s.Kind {
	case SortInt:
		return "Int"
	case SortReal:
		return "Real"
	case SortBool:
		return "Bool"
	case SortArray:
		return "(Array " + s.Index.String() + " " + s.Element.String() + ")"
	default:
		return "?"
	}
}

// Term is an opaque handle to a term built by a Builder; its concrete
// representation is owned by whichever Solver implementation produced it.
type Term interface{}

// Builder constructs Terms in a particular Solver's native representation.
// expr.LowerToSolver is total over this interface for every supported
// variant (spec.md §4.1).
type Builder interface {
	Const(name string, sort Sort) Term
	IntLit(n int64) Term
	RealLit(r float64) Term
	BoolLit(b bool) Term

	Add(l, r Term) Term
	Sub(l, r Term) Term
	Mul(l, r Term) Term
	Div(l, r Term) Term // Z3-style truncating integer division when both operands are Int.
	Mod(l, r Term) Term
	Neg(t Term) Term

	Eq(l, r Term) Term
	Ne(l, r Term) Term
	Lt(l, r Term) Term
	Le(l, r Term) Term
	Gt(l, r Term) Term
	Ge(l, r Term) Term

	And(args ...Term) Term
	Or(args ...Term) Term
	Not(t Term) Term
	Implies(p, q Term) Term
	IfThenElse(c, t, e Term) Term

	Select(array, index Term) Term
	Store(array, index, value Term) Term

	ToInt(t Term) Term
	ToReal(t Term) Term

	Forall(vars []Term, body Term) Term
	Exists(vars []Term, body Term) Term

	// Predicate returns an application of an uninterpreted relation symbol
	// of the given argument sorts (the Horn invariant placeholder).
	Predicate(name string, argSorts []Sort, args []Term) Term
}

// Verdict is the outcome of Check.
type Verdict int

const (
	Unsat Verdict = iota
	Sat
	Unknown
)

// Model maps declared constant names to their values in a satisfying
// assignment.
type Model interface {
	// Entries returns (name, value) pairs in the model, stringified for
	// display (spec.md §6's CounterExample shape).
	Entries() []ModelEntry
}

type ModelEntry struct {
	Name  string
	Value string
}

// FuncInterp is the finite interpretation the backend assigns to a Horn
// predicate symbol once Check returns Sat in Horn mode: a list of
// input-tuple -> value mappings plus an optional else-value.
type FuncInterp struct {
	Name    string
	Entries []FuncInterpEntry
	Else    *string
}

type FuncInterpEntry struct {
	Inputs []string
	Value  string
}

// Solver is one checking session: build terms, assert formulas, check.
type Solver interface {
	Builder
	Assert(t Term)
	Check(ctx context.Context) (Verdict, error)
	Model() (Model, error)
	Close() error
}

// HornSolver additionally exposes function interpretations, used after a
// Sat result from a Horn-mode Check.
type HornSolver interface {
	Solver
	FuncInterp(predicateName string) (FuncInterp, error)
}
