// Package verify drives a function.Function through a Solver to produce a
// verification verdict, grounded on original_source/function.py's
// CheckResult hierarchy and Function.check/check_iter/get_failing_props.
package verify

import (
	"context"
	"iter"

	"github.com/twyair/verification-project/internal/expr"
	"github.com/twyair/verification-project/internal/function"
	"github.com/twyair/verification-project/internal/path"
	"github.com/twyair/verification-project/internal/solver"
	"github.com/twyair/verification-project/internal/vc"
)

// Outcome is one of Ok, CounterExample, Unknown, HornOk, or HornFail.
type Outcome interface {
	// IsOk reports whether the function verified (spec.md §5's
	// CheckResult.is_ok).
	IsOk() bool
	isOutcome()
}

// Ok means every path's VC held (non-Horn mode; the Solver proved the
// negation unsatisfiable).
type Ok struct{}

func (Ok) IsOk() bool { return true }
func (Ok) isOutcome() {}

// CounterExample means the Solver found a model of the negated proof
// rule: a concrete assignment under which some path's VC fails.
type CounterExample struct {
	Model solver.Model
}

func (CounterExample) IsOk() bool { return false }
func (CounterExample) isOutcome() {}

// Unknown means the Solver could not decide satisfiability.
type Unknown struct{}

func (Unknown) IsOk() bool { return false }
func (Unknown) isOutcome() {}

// HornOk means the Horn system was satisfiable. Model is the Horn
// session's Model() (its constant assignments); the driver does not
// query FuncInterp, so no per-predicate interpretation is carried.
type HornOk struct {
	Model solver.Model
}

func (HornOk) IsOk() bool { return true }
func (HornOk) isOutcome() {}

// HornFail means the Horn system was unsatisfiable: no invariant of the
// chosen cutpoints' shape proves the function.
type HornFail struct{}

func (HornFail) IsOk() bool { return false }
func (HornFail) isOutcome() {}

// Driver checks a function.Function against a Solver collaborator. One
// Driver serves many calls; Check and CheckIter each open and close
// their own session(s) via newSolver/newHorn, mirroring z3.Solver()'s
// per-call session lifetime in the original.
type Driver struct {
	newSolver func() (solver.Solver, error)
	newHorn   func() (solver.HornSolver, error)
}

// New builds a Driver. newSolver opens a fresh non-Horn session;
// newHorn opens a fresh Horn session. Either may be nil if the caller
// never exercises that mode.
func New(newSolver func() (solver.Solver, error), newHorn func() (solver.HornSolver, error)) *Driver {
	return &Driver{newSolver: newSolver, newHorn: newHorn}
}

func allPaths(fn *function.Function) []path.BasicPath {
	var out []path.BasicPath
	for p := range path.Enumerate(fn.CFG.Start) {
		out = append(out, p)
	}
	return out
}

// Check runs fn's full proof rule (or CHC system, in Horn mode) against
// a single Solver session and returns the resulting Outcome, per
// spec.md §4.6's non-iterative check.
func (d *Driver) Check(ctx context.Context, fn *function.Function) (Outcome, error) {
	if fn.Horn {
		return d.checkHorn(ctx, fn)
	}

	paths := allPaths(fn)
	rule := vc.GenerateFunctionRule(paths, fn.Vars)

	s, err := d.newSolver()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	t, err := expr.LowerToSolver(rule, s)
	if err != nil {
		return nil, err
	}
	s.Assert(s.Not(t))

	verdict, err := s.Check(ctx)
	if err != nil {
		return nil, err
	}
	switch verdict {
	case solver.Unsat:
		return Ok{}, nil
	case solver.Sat:
		m, err := s.Model()
		if err != nil {
			return nil, err
		}
		return CounterExample{Model: m}, nil
	default:
		return Unknown{}, nil
	}
}

func (d *Driver) checkHorn(ctx context.Context, fn *function.Function) (Outcome, error) {
	paths := allPaths(fn)
	allVars := append(append([]expr.Var{}, fn.Vars...), fn.Params...)
	chcs := vc.GeneratePathCHCs(paths, allVars)
	chcs = append(chcs, vc.GeneratePredicateCHCs(fn.Cutpoints)...)

	s, err := d.newHorn()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	for _, c := range chcs {
		t, err := expr.LowerToSolver(c, s)
		if err != nil {
			return nil, err
		}
		s.Assert(t)
	}

	verdict, err := s.Check(ctx)
	if err != nil {
		return nil, err
	}
	switch verdict {
	case solver.Sat:
		m, err := s.Model()
		if err != nil {
			return nil, err
		}
		return HornOk{Model: m}, nil
	case solver.Unsat:
		return HornFail{}, nil
	default:
		return Unknown{}, nil
	}
}

// CheckIter checks fn path-by-path, stopping at the first failing path
// instead of conjoining the whole proof rule into one query, per
// original_source/function.py's check_iter. In Horn mode it runs the
// same CHC check as Check (the CHC system has no single "failing path"
// notion).
func (d *Driver) CheckIter(ctx context.Context, fn *function.Function) (Outcome, error) {
	if fn.Horn {
		return d.checkHorn(ctx, fn)
	}
	for range d.FailingPaths(ctx, fn) {
		return CounterExample{}, nil
	}
	return Ok{}, nil
}

// FailingPaths lazily yields every path whose VC is not valid under a
// fresh Solver session per path, grounded on
// original_source/function.py's get_failing_props. Each yielded
// path.BasicPath's VC, not the path itself, is what failed to verify;
// the path is returned so a caller can report source locations.
//
// A Solver error aborts iteration (Solver is a black-box external
// collaborator; spec.md §7 treats its failure as a core-level
// diagnostic, not a verification verdict) — FailingPaths has no error
// return, so callers needing that distinction should use Check instead.
func (d *Driver) FailingPaths(ctx context.Context, fn *function.Function) iter.Seq[path.BasicPath] {
	return func(yield func(path.BasicPath) bool) {
		for p := range path.Enumerate(fn.CFG.Start) {
			formula := vc.Generate(p)
			ok, err := d.pathFails(ctx, formula)
			if err != nil {
				return
			}
			if ok {
				if !yield(p) {
					return
				}
			}
		}
	}
}

func (d *Driver) pathFails(ctx context.Context, formula expr.Expr) (bool, error) {
	s, err := d.newSolver()
	if err != nil {
		return false, err
	}
	defer s.Close()

	t, err := expr.LowerToSolver(formula, s)
	if err != nil {
		return false, err
	}
	s.Assert(s.Not(t))

	verdict, err := s.Check(ctx)
	if err != nil {
		return false, err
	}
	return verdict != solver.Unsat, nil
}
