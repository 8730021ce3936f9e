package grpcclient

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/twyair/verification-project/internal/solver"
)

// node is a Term whose only job is rendering itself as an SMT-LIB2
// s-expression; the gRPC session never inspects a node's structure
// beyond that, since the actual decision procedure runs server-side.
type node struct {
	text   string
	consts map[string]solver.Sort // constants referenced transitively, for a (declare-const ...) preamble
}

func (*node) isTerm() {}

func leaf(text string) *node { return &node{text: text} }

func merge(text string, parts ...*node) *node {
	consts := map[string]solver.Sort{}
	for _, p := range parts {
		for k, v := range p.consts {
			consts[k] = v
		}
	}
	return &node{text: text, consts: consts}
}

func (n *node) smtlib() string {
	var sb strings.Builder
	for name, sort := range n.consts {
		sb.WriteString(fmt.Sprintf("(declare-const %s %s)\n", name, sortToSMT(sort)))
	}
	sb.WriteString(n.text)
	return sb.String()
}

func sortToSMT(s solver.Sort) string {
	switch s.Kind {
	case solver.SortInt:
		return "Int"
	case solver.SortReal:
		return "Real"
	case solver.SortBool:
		return "Bool"
	case solver.SortArray:
		return fmt.Sprintf("(Array %s %s)", sortToSMT(*s.Index), sortToSMT(*s.Element))
	default:
		return "Int"
	}
}

type builder struct {
	asserted []*node
}

func newBuilder() *builder { return &builder{} }

func (b *builder) Const(name string, sort solver.Sort) solver.Term {
	return &node{text: name, consts: map[string]solver.Sort{name: sort}}
}
func (b *builder) IntLit(n int64) solver.Term    { return leaf(strconv.FormatInt(n, 10)) }
func (b *builder) RealLit(r float64) solver.Term { return leaf(strconv.FormatFloat(r, 'f', -1, 64) + ".0") }
func (b *builder) BoolLit(v bool) solver.Term {
	if v {
		return leaf("true")
	}
	return leaf("false")
}

func app(op string, args ...solver.Term) *node {
	ns := make([]*node, len(args))
	parts := make([]string, len(args))
	for i, a := range args {
		ns[i] = a.(*node)
		parts[i] = ns[i].text
	}
	return merge(fmt.Sprintf("(%s %s)", op, strings.Join(parts, " ")), ns...)
}

func (b *builder) Add(l, r solver.Term) solver.Term   { return app("+", l, r) }
func (b *builder) Sub(l, r solver.Term) solver.Term   { return app("-", l, r) }
func (b *builder) Mul(l, r solver.Term) solver.Term   { return app("*", l, r) }
func (b *builder) Div(l, r solver.Term) solver.Term   { return app("div", l, r) }
func (b *builder) Mod(l, r solver.Term) solver.Term   { return app("mod", l, r) }
func (b *builder) Neg(t solver.Term) solver.Term      { return app("-", t) }
func (b *builder) Eq(l, r solver.Term) solver.Term    { return app("=", l, r) }
func (b *builder) Ne(l, r solver.Term) solver.Term    { return app("not", app("=", l, r)) }
func (b *builder) Lt(l, r solver.Term) solver.Term    { return app("<", l, r) }
func (b *builder) Le(l, r solver.Term) solver.Term    { return app("<=", l, r) }
func (b *builder) Gt(l, r solver.Term) solver.Term    { return app(">", l, r) }
func (b *builder) Ge(l, r solver.Term) solver.Term    { return app(">=", l, r) }
func (b *builder) And(args ...solver.Term) solver.Term { return app("and", args...) }
func (b *builder) Or(args ...solver.Term) solver.Term  { return app("or", args...) }
func (b *builder) Not(t solver.Term) solver.Term       { return app("not", t) }
func (b *builder) Implies(p, q solver.Term) solver.Term { return app("=>", p, q) }
func (b *builder) IfThenElse(c, t, e solver.Term) solver.Term { return app("ite", c, t, e) }
func (b *builder) Select(a, i solver.Term) solver.Term { return app("select", a, i) }
func (b *builder) Store(a, i, v solver.Term) solver.Term { return app("store", a, i, v) }
func (b *builder) ToInt(t solver.Term) solver.Term     { return app("to_int", t) }
func (b *builder) ToReal(t solver.Term) solver.Term    { return app("to_real", t) }

func (b *builder) quant(kw string, vars []solver.Term, body solver.Term) solver.Term {
	binders := make([]string, len(vars))
	bound := map[string]bool{}
	for i, v := range vars {
		vn := v.(*node)
		sort := "Int"
		for name, s := range vn.consts {
			sort = sortToSMT(s)
			bound[name] = true
		}
		binders[i] = fmt.Sprintf("(%s %s)", vn.text, sort)
	}
	bodyNode := body.(*node)
	text := fmt.Sprintf("(%s (%s) %s)", kw, strings.Join(binders, " "), bodyNode.text)

	consts := map[string]solver.Sort{}
	for k, v := range bodyNode.consts {
		if !bound[k] {
			consts[k] = v
		}
	}
	return &node{text: text, consts: consts}
}

func (b *builder) Forall(vars []solver.Term, body solver.Term) solver.Term {
	return b.quant("forall", vars, body)
}
func (b *builder) Exists(vars []solver.Term, body solver.Term) solver.Term {
	return b.quant("exists", vars, body)
}

func (b *builder) Predicate(name string, argSorts []solver.Sort, args []solver.Term) solver.Term {
	ns := make([]*node, len(args))
	parts := make([]string, len(args))
	for i, a := range args {
		ns[i] = a.(*node)
		parts[i] = ns[i].text
	}
	text := name
	if len(args) > 0 {
		text = fmt.Sprintf("(%s %s)", name, strings.Join(parts, " "))
	}
	return merge(text, ns...)
}
