// Package vc turns a path.BasicPath into the verification-condition
// formula of spec.md §4.4, and combines per-path VCs into a full
// function rule (non-Horn) or a CHC system (Horn).
package vc

import (
	"github.com/twyair/verification-project/internal/cfg"
	"github.com/twyair/verification-project/internal/expr"
	"github.com/twyair/verification-project/internal/path"
)

// Generate builds the single verification condition of p:
//
//	(⋀reach ∧ pre) → post           if p has a start assertion
//	post                             if not, and reach is empty
//	(⋀reach) → post                  if not, and reach is non-empty
//
// p must carry a non-nil AssertionEnd (every BasicPath produced by
// package path does).
func Generate(p path.BasicPath) expr.Expr {
	if p.AssertionEnd == nil {
		panic("vc: basic path has no assertion_end")
	}
	post := *p.AssertionEnd

	if p.AssertionStart != nil {
		args := append(append([]expr.Expr{}, p.Reachability...), *p.AssertionStart)
		return expr.Implies{P: expr.And{Args: args}, Q: post}
	}
	if len(p.Reachability) == 0 {
		return post
	}
	args := append([]expr.Expr{}, p.Reachability...)
	return expr.Implies{P: expr.And{Args: args}, Q: post}
}

// GenerateFunctionRule builds the single non-Horn proof obligation for a
// whole function: the conjunction of every path's VC, universally
// quantified over every name in the variable universe except the
// function's parameters (parameters remain implicitly universal — the
// Solver treats free constants identically; spec.md §4.4).
func GenerateFunctionRule(paths []path.BasicPath, locals []expr.Var) expr.Expr {
	vcs := make([]expr.Expr, len(paths))
	for i, p := range paths {
		vcs[i] = Generate(p)
	}
	rule := expr.Expr(expr.And{Args: vcs})
	if len(locals) == 0 {
		return rule
	}
	return expr.Forall{Vars: locals, Body: rule}
}

// GeneratePathCHCs wraps every path's VC in a universal quantifier over
// all variables (locals + parameters), producing one CHC per path
// (spec.md §4.4's Horn-mode rule).
func GeneratePathCHCs(paths []path.BasicPath, allVars []expr.Var) []expr.Expr {
	out := make([]expr.Expr, len(paths))
	for i, p := range paths {
		out[i] = expr.Forall{Vars: allVars, Body: Generate(p)}
	}
	return out
}

// GeneratePredicateCHCs emits one additional CHC per cutpoint that was
// spliced in place of a user assertion: `∀vars. P(vars) → partial`, where
// `partial` is the original assertion recorded by the cutpoint selector
// (spec.md §4.5's "side CHC"). Cutpoints with no partial invariant (those
// chosen purely for cycle coverage) contribute nothing.
func GeneratePredicateCHCs(cutpoints []*cfg.CutpointNode) []expr.Expr {
	var out []expr.Expr
	for _, cp := range cutpoints {
		if cp.PartialInvariant == nil {
			continue
		}
		vars := make([]expr.Var, 0, len(cp.Predicate.Args))
		for _, a := range cp.Predicate.Args {
			if v, ok := a.(expr.Var); ok {
				vars = append(vars, v)
			}
		}
		body := expr.Implies{P: cp.Predicate, Q: cp.PartialInvariant}
		out = append(out, expr.Forall{Vars: vars, Body: body})
	}
	return out
}
