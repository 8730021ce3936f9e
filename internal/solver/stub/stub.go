// Package stub is an in-process reference decision procedure implementing
// solver.Solver and solver.HornSolver over a small bounded domain, for use
// in tests where no out-of-process SMT backend is available. It has no
// third-party grounding: the example pack carries no SMT or constraint
// library, so this is a hand-rolled bounded enumerator, documented as such
// in DESIGN.md rather than presented as idiomatic production code.
package stub

import (
	"context"
	"fmt"
	"sort"

	"github.com/twyair/verification-project/internal/solver"
)

// Bound is the half-open integer domain [-Bound, Bound) tried for every
// free Int constant and array index during Check's brute-force search.
// Real constants reuse the same bound, restricted to integral values —
// sufficient for the toy arithmetic the scenario tests exercise.
const Bound = 4

type kind int

const (
	kConst kind = iota
	kIntLit
	kRealLit
	kBoolLit
	kApp
	kArraySelect
	kArrayStore
	kIfThenElse
	kQuant
	kPredicateApp
)

// term is the stub's uniform Term representation: every Builder method
// returns one of these, and Check evaluates a tree of them against a
// candidate assignment.
type term struct {
	kind   kind
	name   string // kConst/kPredicateApp name
	sort   solver.Sort
	i      int64
	f      float64
	b      bool
	op     string
	args   []*term
	quant  string // "forall" / "exists"
	vars   []*term
	body   *term
}

func (*term) isTerm() {}

func t(k kind) *term { return &term{kind: k} }

// Builder implements solver.Builder by constructing term trees.
type Builder struct {
	decls []*term // declared constants, in declaration order, for model reporting
	seen  map[string]bool
}

func NewBuilder() *Builder { return &Builder{seen: map[string]bool{}} }

func (b *Builder) Const(name string, s solver.Sort) solver.Term {
	c := &term{kind: kConst, name: name, sort: s}
	if !b.seen[name] {
		b.seen[name] = true
		b.decls = append(b.decls, c)
	}
	return c
}

func (b *Builder) IntLit(n int64) solver.Term    { return &term{kind: kIntLit, i: n} }
func (b *Builder) RealLit(r float64) solver.Term { return &term{kind: kRealLit, f: r} }
func (b *Builder) BoolLit(v bool) solver.Term    { return &term{kind: kBoolLit, b: v} }

func bin(op string, l, r solver.Term) solver.Term {
	return &term{kind: kApp, op: op, args: []*term{l.(*term), r.(*term)}}
}

func (b *Builder) Add(l, r solver.Term) solver.Term { return bin("+", l, r) }
func (b *Builder) Sub(l, r solver.Term) solver.Term { return bin("-", l, r) }
func (b *Builder) Mul(l, r solver.Term) solver.Term { return bin("*", l, r) }
func (b *Builder) Div(l, r solver.Term) solver.Term { return bin("div", l, r) }
func (b *Builder) Mod(l, r solver.Term) solver.Term { return bin("mod", l, r) }
func (b *Builder) Neg(x solver.Term) solver.Term {
	return &term{kind: kApp, op: "neg", args: []*term{x.(*term)}}
}

func (b *Builder) Eq(l, r solver.Term) solver.Term { return bin("=", l, r) }
func (b *Builder) Ne(l, r solver.Term) solver.Term { return bin("!=", l, r) }
func (b *Builder) Lt(l, r solver.Term) solver.Term { return bin("<", l, r) }
func (b *Builder) Le(l, r solver.Term) solver.Term { return bin("<=", l, r) }
func (b *Builder) Gt(l, r solver.Term) solver.Term { return bin(">", l, r) }
func (b *Builder) Ge(l, r solver.Term) solver.Term { return bin(">=", l, r) }

func (b *Builder) And(args ...solver.Term) solver.Term {
	return &term{kind: kApp, op: "and", args: toTerms(args)}
}
func (b *Builder) Or(args ...solver.Term) solver.Term {
	return &term{kind: kApp, op: "or", args: toTerms(args)}
}
func (b *Builder) Not(x solver.Term) solver.Term {
	return &term{kind: kApp, op: "not", args: []*term{x.(*term)}}
}
func (b *Builder) Implies(p, q solver.Term) solver.Term { return bin("=>", p, q) }
func (b *Builder) IfThenElse(c, th, el solver.Term) solver.Term {
	return &term{kind: kIfThenElse, args: []*term{c.(*term), th.(*term), el.(*term)}}
}

func (b *Builder) Select(array, index solver.Term) solver.Term {
	return &term{kind: kArraySelect, args: []*term{array.(*term), index.(*term)}}
}
func (b *Builder) Store(array, index, value solver.Term) solver.Term {
	return &term{kind: kArrayStore, args: []*term{array.(*term), index.(*term), value.(*term)}}
}

func (b *Builder) ToInt(x solver.Term) solver.Term {
	return &term{kind: kApp, op: "to_int", args: []*term{x.(*term)}}
}
func (b *Builder) ToReal(x solver.Term) solver.Term {
	return &term{kind: kApp, op: "to_real", args: []*term{x.(*term)}}
}

func (b *Builder) Forall(vars []solver.Term, body solver.Term) solver.Term {
	return &term{kind: kQuant, quant: "forall", vars: toTerms(vars), body: body.(*term)}
}
func (b *Builder) Exists(vars []solver.Term, body solver.Term) solver.Term {
	return &term{kind: kQuant, quant: "exists", vars: toTerms(vars), body: body.(*term)}
}

func (b *Builder) Predicate(name string, argSorts []solver.Sort, args []solver.Term) solver.Term {
	return &term{kind: kPredicateApp, name: name, args: toTerms(args)}
}

func toTerms(xs []solver.Term) []*term {
	out := make([]*term, len(xs))
	for i, x := range xs {
		out[i] = x.(*term)
	}
	return out
}

// value is a dynamically-typed result of evaluating a term under an
// assignment: an int64, a float64, a bool, or an arrayVal.
type arrayVal map[int64]any

// Solver is a single checking session: a Builder plus the asserted
// formulas, decided by brute-force search over Bound's integer domain.
type Solver struct {
	*Builder
	asserts []*term
	model   map[string]any
}

// NewSolver opens a fresh non-Horn session.
func NewSolver() *Solver { return &Solver{Builder: NewBuilder()} }

func (s *Solver) Assert(tm solver.Term) { s.asserts = append(s.asserts, tm.(*term)) }

// Check performs exhaustive search over every declared constant's
// bounded domain until it finds an assignment satisfying every
// assertion, or exhausts the space. It reports Unknown only together
// with a non-nil error (a cancelled context or an evaluation failure);
// a predicate application evaluates to true.
func (s *Solver) Check(ctx context.Context) (solver.Verdict, error) {
	names := make([]string, 0, len(s.decls))
	sorts := make(map[string]solver.Sort, len(s.decls))
	for _, d := range s.decls {
		names = append(names, d.name)
		sorts[d.name] = d.sort
	}
	sort.Strings(names)

	assignment := map[string]any{}
	found, err := search(ctx, names, sorts, assignment, func() (bool, error) {
		for _, a := range s.asserts {
			v, err := eval(a, assignment)
			if err != nil {
				return false, err
			}
			if b, ok := v.(bool); !ok || !b {
				return false, nil
			}
		}
		return true, nil
	})
	if err != nil {
		return solver.Unknown, err
	}
	if found {
		s.model = assignment
		return solver.Sat, nil
	}
	return solver.Unsat, nil
}

func (s *Solver) Model() (solver.Model, error) {
	return stubModel{vals: s.model}, nil
}

func (s *Solver) Close() error { return nil }

// HornSolver additionally tracks which predicate names were built through
// Predicate so FuncInterp can answer for them: since the stub has no
// quantifier-elimination engine, FuncInterp reports the constant-true
// interpretation for any such name, whatever Check returned, and an
// error for any other name.
type HornSolver struct {
	*Solver
	predicates map[string]bool
}

func NewHornSolver() *HornSolver {
	return &HornSolver{Solver: NewSolver(), predicates: map[string]bool{}}
}

func (h *HornSolver) Predicate(name string, argSorts []solver.Sort, args []solver.Term) solver.Term {
	h.predicates[name] = true
	return h.Solver.Builder.Predicate(name, argSorts, args)
}

func (h *HornSolver) FuncInterp(name string) (solver.FuncInterp, error) {
	if !h.predicates[name] {
		return solver.FuncInterp{}, fmt.Errorf("stub: unknown predicate %q", name)
	}
	trueVal := "true"
	return solver.FuncInterp{Name: name, Else: &trueVal}, nil
}

type stubModel struct {
	vals map[string]any
}

func (m stubModel) Entries() []solver.ModelEntry {
	names := make([]string, 0, len(m.vals))
	for n := range m.vals {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]solver.ModelEntry, len(names))
	for i, n := range names {
		out[i] = solver.ModelEntry{Name: n, Value: fmt.Sprint(m.vals[n])}
	}
	return out
}

// search enumerates every assignment of names' bounded domains depth
// first, calling check() once the assignment is complete. Quantified
// variables bound inside a term are handled separately by eval, which
// recurses with its own nested search over the quantifier's vars.
func search(ctx context.Context, names []string, sorts map[string]solver.Sort, assignment map[string]any, check func() (bool, error)) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if len(names) == 0 {
		return check()
	}
	name := names[0]
	rest := names[1:]
	domain := domainFor(sorts[name])
	for _, v := range domain {
		assignment[name] = v
		ok, err := search(ctx, rest, sorts, assignment, check)
		if err != nil {
			delete(assignment, name)
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	delete(assignment, name)
	return false, nil
}

func domainFor(s solver.Sort) []any {
	switch s.Kind {
	case solver.SortBool:
		return []any{false, true}
	case solver.SortArray:
		// A handful of constant arrays over the bounded index range
		// [0, Bound); arrays with differing elements are never tried.
		var out []any
		for fill := int64(-Bound); fill < Bound; fill++ {
			av := arrayVal{}
			for i := int64(0); i < Bound; i++ {
				av[i] = fill
			}
			out = append(out, av)
		}
		return out
	default: // SortInt, SortReal
		out := make([]any, 0, 2*Bound)
		for n := int64(-Bound); n < Bound; n++ {
			out = append(out, n)
		}
		return out
	}
}

func eval(tm *term, assignment map[string]any) (any, error) {
	switch tm.kind {
	case kConst:
		v, ok := assignment[tm.name]
		if !ok {
			return nil, fmt.Errorf("stub: unassigned constant %q", tm.name)
		}
		return v, nil
	case kIntLit:
		return tm.i, nil
	case kRealLit:
		return tm.f, nil
	case kBoolLit:
		return tm.b, nil
	case kIfThenElse:
		c, err := eval(tm.args[0], assignment)
		if err != nil {
			return nil, err
		}
		if c.(bool) {
			return eval(tm.args[1], assignment)
		}
		return eval(tm.args[2], assignment)
	case kArraySelect:
		arr, err := eval(tm.args[0], assignment)
		if err != nil {
			return nil, err
		}
		idx, err := eval(tm.args[1], assignment)
		if err != nil {
			return nil, err
		}
		av := arr.(arrayVal)
		v, ok := av[asInt(idx)]
		if !ok {
			return int64(0), nil
		}
		return v, nil
	case kArrayStore:
		arr, err := eval(tm.args[0], assignment)
		if err != nil {
			return nil, err
		}
		idx, err := eval(tm.args[1], assignment)
		if err != nil {
			return nil, err
		}
		val, err := eval(tm.args[2], assignment)
		if err != nil {
			return nil, err
		}
		out := arrayVal{}
		for k, v := range arr.(arrayVal) {
			out[k] = v
		}
		out[asInt(idx)] = val
		return out, nil
	case kQuant:
		return evalQuant(tm, assignment)
	case kPredicateApp:
		// The stub never receives an interpretation for a bare
		// Predicate application outside Horn mode; treat it as
		// vacuously true so non-Horn VCs that happen to reference one
		// (they shouldn't per spec.md §4.4) don't crash evaluation.
		return true, nil
	case kApp:
		return evalApp(tm, assignment)
	default:
		return nil, fmt.Errorf("stub: unknown term kind %d", tm.kind)
	}
}

func evalQuant(tm *term, assignment map[string]any) (any, error) {
	names := make([]string, len(tm.vars))
	sorts := map[string]solver.Sort{}
	for i, v := range tm.vars {
		names[i] = v.name
		sorts[v.name] = v.sort
	}
	nested := map[string]any{}
	for k, v := range assignment {
		nested[k] = v
	}
	want := tm.quant == "exists"
	found, err := search(context.Background(), names, sorts, nested, func() (bool, error) {
		v, err := eval(tm.body, nested)
		if err != nil {
			return false, err
		}
		b := v.(bool)
		if want {
			return b, nil
		}
		return !b, nil
	})
	if err != nil {
		return nil, err
	}
	if tm.quant == "exists" {
		return found, nil
	}
	return !found, nil
}

func evalApp(tm *term, assignment map[string]any) (any, error) {
	if tm.op == "and" || tm.op == "or" {
		results := make([]bool, len(tm.args))
		for i, a := range tm.args {
			v, err := eval(a, assignment)
			if err != nil {
				return nil, err
			}
			results[i] = v.(bool)
		}
		acc := tm.op == "and"
		for _, r := range results {
			if tm.op == "and" {
				acc = acc && r
			} else {
				acc = acc || r
			}
		}
		return acc, nil
	}

	vals := make([]any, len(tm.args))
	for i, a := range tm.args {
		v, err := eval(a, assignment)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}

	switch tm.op {
	case "not":
		return !vals[0].(bool), nil
	case "neg":
		return negNumeric(vals[0]), nil
	case "to_int":
		return asInt(vals[0]), nil
	case "to_real":
		return asFloat(vals[0]), nil
	case "=>":
		return !vals[0].(bool) || vals[1].(bool), nil
	}

	l, r := vals[0], vals[1]
	_, lIsFloat := l.(float64)
	_, rIsFloat := r.(float64)
	useFloat := lIsFloat || rIsFloat

	switch tm.op {
	case "=":
		return numEqual(l, r), nil
	case "!=":
		return !numEqual(l, r), nil
	case "<", "<=", ">", ">=":
		lf, rf := asFloat(l), asFloat(r)
		switch tm.op {
		case "<":
			return lf < rf, nil
		case "<=":
			return lf <= rf, nil
		case ">":
			return lf > rf, nil
		default:
			return lf >= rf, nil
		}
	}

	if useFloat {
		lf, rf := asFloat(l), asFloat(r)
		switch tm.op {
		case "+":
			return lf + rf, nil
		case "-":
			return lf - rf, nil
		case "*":
			return lf * rf, nil
		case "div", "mod":
			return nil, fmt.Errorf("stub: div/mod require Int operands")
		}
	}
	li, ri := asInt(l), asInt(r)
	switch tm.op {
	case "+":
		return li + ri, nil
	case "-":
		return li - ri, nil
	case "*":
		return li * ri, nil
	case "div":
		if ri == 0 {
			return nil, fmt.Errorf("stub: division by zero")
		}
		// Z3-style truncating division (toward zero), matching
		// solver.Builder.Div's documented contract.
		q := li / ri
		return q, nil
	case "mod":
		if ri == 0 {
			return nil, fmt.Errorf("stub: mod by zero")
		}
		m := li % ri
		if m < 0 {
			m += absInt(ri)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("stub: unknown operator %q", tm.op)
	}
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

func negNumeric(v any) any {
	switch n := v.(type) {
	case int64:
		return -n
	case float64:
		return -n
	default:
		return v
	}
}

func numEqual(l, r any) bool {
	if av, ok := l.(arrayVal); ok {
		bv, ok2 := r.(arrayVal)
		return ok2 && arraysEqual(av, bv)
	}
	return asFloat(l) == asFloat(r)
}

func arraysEqual(a, b arrayVal) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func absInt(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
