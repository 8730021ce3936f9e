// Package expr is the expression algebra of spec.md §3/§4.1: a tagged
// variant of terms and propositions, capture-avoiding substitution, a
// pretty-printer, and lowering to/from the Solver's term representation.
package expr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/twyair/verification-project/internal/typesystem"
)

// Expr is implemented by every variant in spec.md §3's table. All
// variants are immutable Go structs holding owned subtrees, grounded on
// original_source/expr.py's frozen dataclasses and the teacher's
// one-struct-per-AST-variant style (internal/ast/ast_core.go).
type Expr interface {
	fmt.Stringer
	// Assign applies a substitution, capture-avoiding.
	Assign(Subst) Expr
	// Type returns the expression's static type.
	Type() typesystem.Type
	isExpr()
}

// Subst maps a renamed variable name to its replacement expression.
type Subst map[string]Expr

// Compose returns a substitution equivalent to applying outer after inner,
// i.e. e.Assign(inner).Assign(outer) == e.Assign(Compose(outer, inner))
// for any e whose free variables don't collide with outer's keys in a way
// that breaks capture-avoidance (spec.md §8, substitution composition).
func Compose(outer, inner Subst) Subst {
	out := make(Subst, len(outer)+len(inner))
	for k, v := range inner {
		out[k] = v.Assign(outer)
	}
	for k, v := range outer {
		if _, ok := inner[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// ---- leaves ----

type Var struct {
	Name string
	Ty   typesystem.Type
}

func (v Var) Assign(s Subst) Expr {
	if r, ok := s[v.Name]; ok {
		return r
	}
	return v
}
func (v Var) String() string        { return v.Name }
func (v Var) Type() typesystem.Type { return v.Ty }
func (Var) isExpr()                 {}

type IntLit struct{ Value int64 }

func (l IntLit) Assign(Subst) Expr          { return l }
func (l IntLit) String() string             { return strconv.FormatInt(l.Value, 10) }
func (IntLit) Type() typesystem.Type        { return typesystem.Int }
func (IntLit) isExpr()                      {}

type RealLit struct{ Value float64 }

func (l RealLit) Assign(Subst) Expr   { return l }
func (l RealLit) String() string      { return strconv.FormatFloat(l.Value, 'g', -1, 64) }
func (RealLit) Type() typesystem.Type { return typesystem.Real }
func (RealLit) isExpr()               {}

type BoolLit struct{ Value bool }

func (l BoolLit) Assign(Subst) Expr   { return l }
func (l BoolLit) String() string      { return strconv.FormatBool(l.Value) }
func (BoolLit) Type() typesystem.Type { return typesystem.Bool }
func (BoolLit) isExpr()               {}

// ---- arithmetic ----

// BinaryOp is one of + - * / %; integer `/` truncates Z3-style.
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpMod BinaryOp = "%"
)

type Binary struct {
	Op   BinaryOp
	L, R Expr
}

func (b Binary) Assign(s Subst) Expr { return Binary{Op: b.Op, L: b.L.Assign(s), R: b.R.Assign(s)} }
func (b Binary) String() string {
	if b.Op == OpMul || b.Op == OpDiv || b.Op == OpMod {
		lhs := fmt.Sprintf("%s", b.L)
		if inner, ok := b.L.(Binary); ok && (inner.Op == OpAdd || inner.Op == OpSub) {
			lhs = "(" + lhs + ")"
		}
		rhs := fmt.Sprintf("%s", b.R)
		if inner, ok := b.R.(Binary); ok && inner.Op != b.Op {
			rhs = "(" + rhs + ")"
		}
		return lhs + " " + string(b.Op) + " " + rhs
	}
	return fmt.Sprintf("%s %s %s", b.L, b.Op, b.R)
}
func (b Binary) Type() typesystem.Type { return b.L.Type() }
func (Binary) isExpr()                 {}

// UnaryOp is + or -.
type UnaryOp string

const (
	OpPos UnaryOp = "+"
	OpNeg UnaryOp = "-"
)

type Unary struct {
	Op      UnaryOp
	Operand Expr
}

func (u Unary) Assign(s Subst) Expr { return Unary{Op: u.Op, Operand: u.Operand.Assign(s)} }
func (u Unary) String() string {
	operand := fmt.Sprintf("%s", u.Operand)
	if _, ok := u.Operand.(Binary); ok {
		operand = "(" + operand + ")"
	}
	return string(u.Op) + operand
}
func (u Unary) Type() typesystem.Type { return u.Operand.Type() }
func (Unary) isExpr()                 {}

// ---- relational / boolean ----

// RelOp is one of = ≠ < ≤ > ≥, spelled using the source operators.
type RelOp string

const (
	OpEq RelOp = "=="
	OpNe RelOp = "!="
	OpLt RelOp = "<"
	OpLe RelOp = "<="
	OpGt RelOp = ">"
	OpGe RelOp = ">="
)

var relPretty = map[RelOp]string{
	OpEq: "=", OpNe: "≠", OpLt: "<", OpLe: "≤", OpGt: ">", OpGe: "≥",
}

type Rel struct {
	Op   RelOp
	L, R Expr
}

func (r Rel) Assign(s Subst) Expr      { return Rel{Op: r.Op, L: r.L.Assign(s), R: r.R.Assign(s)} }
func (r Rel) String() string           { return fmt.Sprintf("%s %s %s", r.L, relPretty[r.Op], r.R) }
func (Rel) Type() typesystem.Type      { return typesystem.Bool }
func (Rel) isExpr()                    {}

type And struct{ Args []Expr }

func (a And) Assign(s Subst) Expr {
	args := make([]Expr, len(a.Args))
	for i, x := range a.Args {
		args[i] = x.Assign(s)
	}
	return And{Args: args}
}
func (a And) String() string {
	parts := make([]string, len(a.Args))
	for i, x := range a.Args {
		if isAtomic(x) {
			parts[i] = x.String()
		} else {
			parts[i] = "(" + x.String() + ")"
		}
	}
	return strings.Join(parts, " ∧ ")
}
func (And) Type() typesystem.Type { return typesystem.Bool }
func (And) isExpr()               {}

type Or struct{ Args []Expr }

func (o Or) Assign(s Subst) Expr {
	args := make([]Expr, len(o.Args))
	for i, x := range o.Args {
		args[i] = x.Assign(s)
	}
	return Or{Args: args}
}
func (o Or) String() string {
	parts := make([]string, len(o.Args))
	for i, x := range o.Args {
		if isAtomic(x) {
			parts[i] = x.String()
		} else {
			parts[i] = "(" + x.String() + ")"
		}
	}
	return strings.Join(parts, " ∨ ")
}
func (Or) Type() typesystem.Type { return typesystem.Bool }
func (Or) isExpr()               {}

func isAtomic(e Expr) bool {
	switch e.(type) {
	case And, Or, Not, Var, BoolLit:
		return true
	default:
		return false
	}
}

type Not struct{ Operand Expr }

func (n Not) Assign(s Subst) Expr      { return Not{Operand: n.Operand.Assign(s)} }
func (n Not) String() string           { return "¬(" + n.Operand.String() + ")" }
func (Not) Type() typesystem.Type      { return typesystem.Bool }
func (Not) isExpr()                    {}

type Implies struct{ P, Q Expr }

func (i Implies) Assign(s Subst) Expr { return Implies{P: i.P.Assign(s), Q: i.Q.Assign(s)} }
func (i Implies) String() string {
	then := i.Q.String()
	switch i.Q.(type) {
	case Implies, Forall, ForallRange, Exists:
		then = "(" + then + ")"
	}
	return i.P.String() + " → " + then
}
func (Implies) Type() typesystem.Type { return typesystem.Bool }
func (Implies) isExpr()               {}

type IfThenElse struct {
	Cond, Then, Else Expr
}

func (i IfThenElse) Assign(s Subst) Expr {
	return IfThenElse{Cond: i.Cond.Assign(s), Then: i.Then.Assign(s), Else: i.Else.Assign(s)}
}
func (i IfThenElse) String() string {
	return fmt.Sprintf("(%s?{%s}:{%s})", i.Cond, i.Then, i.Else)
}

// Type is polymorphic over the branch type; both branches must already
// agree by construction (the from_ast translator only builds well-typed
// trees), so Then's type is authoritative.
func (i IfThenElse) Type() typesystem.Type { return i.Then.Type() }
func (IfThenElse) isExpr()                 {}

// ---- arrays ----

type ArraySelect struct {
	Array, Index Expr
}

func (a ArraySelect) Assign(s Subst) Expr {
	return ArraySelect{Array: a.Array.Assign(s), Index: a.Index.Assign(s)}
}
func (a ArraySelect) String() string      { return fmt.Sprintf("%s[%s]", a.Array, a.Index) }
func (a ArraySelect) Type() typesystem.Type { return a.Array.Type().Elem() }
func (ArraySelect) isExpr()               {}

type ArrayStore struct {
	Array, Index, Value Expr
}

func (a ArrayStore) Assign(s Subst) Expr {
	return ArrayStore{Array: a.Array.Assign(s), Index: a.Index.Assign(s), Value: a.Value.Assign(s)}
}
func (a ArrayStore) String() string      { return fmt.Sprintf("Store(%s, %s, %s)", a.Array, a.Index, a.Value) }
func (a ArrayStore) Type() typesystem.Type { return a.Array.Type() }
func (ArrayStore) isExpr()               {}

// ---- coercions ----

type AsInt struct{ Operand Expr }

func (c AsInt) Assign(s Subst) Expr   { return AsInt{Operand: c.Operand.Assign(s)} }
func (c AsInt) String() string        { return fmt.Sprintf("int(%s)", c.Operand) }
func (AsInt) Type() typesystem.Type   { return typesystem.Int }
func (AsInt) isExpr()                 {}

type AsReal struct{ Operand Expr }

func (c AsReal) Assign(s Subst) Expr  { return AsReal{Operand: c.Operand.Assign(s)} }
func (c AsReal) String() string       { return fmt.Sprintf("real(%s)", c.Operand) }
func (AsReal) Type() typesystem.Type  { return typesystem.Real }
func (AsReal) isExpr()                {}

// ---- quantifiers ----

type Forall struct {
	Vars []Var
	Body Expr
}

func (f Forall) Assign(s Subst) Expr {
	// quantified variables shadow s: remove their keys before recursing (invariant 1, §3).
	filtered := withoutKeysFor(s, f.Vars)
	return Forall{Vars: f.Vars, Body: f.Body.Assign(filtered)}
}
func (f Forall) String() string {
	names := make([]string, len(f.Vars))
	for i, v := range f.Vars {
		names[i] = fmt.Sprintf("%s∈%s", v.Name, v.Ty)
	}
	return "∀" + strings.Join(names, ",") + "." + f.Body.String()
}
func (Forall) Type() typesystem.Type { return typesystem.Bool }
func (Forall) isExpr()               {}

// ForallRange is sugar for ∀v. lo ≤ v < hi → body.
type ForallRange struct {
	V        Var
	Lo, Hi   Expr
	Body     Expr
}

func (f ForallRange) Assign(s Subst) Expr {
	filtered := withoutKeysFor(s, []Var{f.V})
	return ForallRange{V: f.V, Lo: f.Lo.Assign(filtered), Hi: f.Hi.Assign(filtered), Body: f.Body.Assign(filtered)}
}
func (f ForallRange) String() string {
	return fmt.Sprintf("∀%s∈(%s,%s).%s", f.V.Name, f.Lo, f.Hi, f.Body)
}
func (ForallRange) Type() typesystem.Type { return typesystem.Bool }
func (ForallRange) isExpr()               {}

// ExistsDomain is either a scalar Type or a (Lo,Hi) numeric range.
type ExistsDomain struct {
	Ty     typesystem.Type // non-nil when the domain is a type
	Lo, Hi Expr            // non-nil when the domain is a range
}

func (d ExistsDomain) IsRange() bool { return d.Lo != nil }

type Exists struct {
	V      Var
	Domain ExistsDomain
	Body   Expr
}

func (e Exists) Assign(s Subst) Expr {
	filtered := withoutKeysFor(s, []Var{e.V})
	d := e.Domain
	if d.IsRange() {
		d = ExistsDomain{Lo: d.Lo.Assign(filtered), Hi: d.Hi.Assign(filtered)}
	}
	return Exists{V: e.V, Domain: d, Body: e.Body.Assign(filtered)}
}
func (e Exists) String() string {
	var domain string
	if e.Domain.IsRange() {
		domain = fmt.Sprintf("(%s,%s)", e.Domain.Lo, e.Domain.Hi)
	} else {
		domain = e.Domain.Ty.String()
	}
	return fmt.Sprintf("∃%s∈%s.%s", e.V.Name, domain, e.Body)
}
func (Exists) Type() typesystem.Type { return typesystem.Bool }
func (Exists) isExpr()               {}

func withoutKeysFor(s Subst, vars []Var) Subst {
	if len(s) == 0 {
		return s
	}
	out := make(Subst, len(s))
	for k, v := range s {
		out[k] = v
	}
	for _, v := range vars {
		delete(out, v.Name)
	}
	return out
}

// ---- Horn invariant placeholder ----

// Predicate is the uninterpreted relation symbol erected at a cutpoint
// by the cutpoint selector (C5) to stand in for an unknown loop invariant.
type Predicate struct {
	Name     string
	Args     []Expr
	ArgSorts []typesystem.Type
}

func (p Predicate) Assign(s Subst) Expr {
	args := make([]Expr, len(p.Args))
	for i, a := range p.Args {
		args[i] = a.Assign(s)
	}
	return Predicate{Name: p.Name, Args: args, ArgSorts: p.ArgSorts}
}
func (p Predicate) String() string {
	parts := make([]string, len(p.Args))
	for i, a := range p.Args {
		parts[i] = a.String()
	}
	return p.Name + "(" + strings.Join(parts, ",") + ")"
}
func (Predicate) Type() typesystem.Type { return typesystem.Bool }
func (Predicate) isExpr()               {}

// SortedVarNames returns a copy of vars sorted lexicographically by name, matching the cutpoint selector's deterministic sort
// signature (spec.md §4.5).
func SortedVarNames(vars []Var) []Var {
	out := make([]Var, len(vars))
	copy(out, vars)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
