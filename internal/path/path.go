// Package path enumerates BasicPaths over a built CFG: loop-free
// traversals between Start/Assert/Cutpoint/End, each carrying a
// reachability conjunction and a substitution, per spec.md §4.3.
package path

import (
	"iter"

	"github.com/twyair/verification-project/internal/cfg"
	"github.com/twyair/verification-project/internal/expr"
)

// OrderedSubst is an insertion-ordered variable-to-expression map: later
// Sets of an already-present key overwrite the value but keep the
// original position, matching "latest store wins" (spec.md §3's
// BasicPath.transformation contract).
type OrderedSubst struct {
	keys []string
	vals map[string]expr.Expr
}

func newOrderedSubst() *OrderedSubst {
	return &OrderedSubst{vals: map[string]expr.Expr{}}
}

func (o *OrderedSubst) clone() *OrderedSubst {
	out := &OrderedSubst{
		keys: append([]string{}, o.keys...),
		vals: make(map[string]expr.Expr, len(o.vals)),
	}
	for k, v := range o.vals {
		out.vals[k] = v
	}
	return out
}

func (o *OrderedSubst) set(name string, e expr.Expr) {
	if _, ok := o.vals[name]; !ok {
		o.keys = append(o.keys, name)
	}
	o.vals[name] = e
}

// AsSubst returns the accumulated substitution in expr.Expr.Assign's
// native shape.
func (o *OrderedSubst) AsSubst() expr.Subst {
	return expr.Subst(o.vals)
}

// Entry is one (variable, replacement) pair in insertion order.
type Entry struct {
	Name string
	Expr expr.Expr
}

// Entries returns the substitution's (name, expr) pairs in insertion
// order, for display and for Horn-mode CHC generation.
func (o *OrderedSubst) Entries() []Entry {
	out := make([]Entry, len(o.keys))
	for i, k := range o.keys {
		out[i] = Entry{Name: k, Expr: o.vals[k]}
	}
	return out
}

// BasicPath is a loop-free trace through the CFG between two cut points
// (Start/Assert/Cutpoint on entry; Assert/Cutpoint/End on exit), per
// spec.md §3.
type BasicPath struct {
	Reachability   []expr.Expr
	Transformation *OrderedSubst
	AssertionStart *expr.Expr
	AssertionEnd   *expr.Expr
	Nodes          []cfg.Node
}

func appendExpr(s []expr.Expr, e expr.Expr) []expr.Expr {
	out := make([]expr.Expr, len(s)+1)
	copy(out, s)
	out[len(s)] = e
	return out
}

func appendNode(s []cfg.Node, n cfg.Node) []cfg.Node {
	out := make([]cfg.Node, len(s)+1)
	copy(out, s)
	out[len(s)] = n
	return out
}

// Enumerate lazily walks start (normally a *cfg.StartNode), yielding every
// BasicPath per the traversal rules of spec.md §4.3. It is a depth-first
// walk with a per-path accumulator threaded by value (reachability,
// substitution) so that forking at a Cond never lets one branch's
// continuation mutate data already handed to the caller via yield.
//
// visited tracks which Assert/Cutpoint nodes have already restarted a
// path on this particular call to Enumerate (spec.md §4.3's "not already
// been traversed on the current iterator"); termination follows because
// every cycle crosses at least one such node. End is not tracked: every
// arrival at an End carrying an Ensures yields a path.
func Enumerate(start cfg.Node) iter.Seq[BasicPath] {
	return func(yield func(BasicPath) bool) {
		visited := map[cfg.Node]bool{}

		var walk func(n cfg.Node, assertionStart *expr.Expr, reach []expr.Expr, subst *OrderedSubst, nodes []cfg.Node) bool
		walk = func(n cfg.Node, assertionStart *expr.Expr, reach []expr.Expr, subst *OrderedSubst, nodes []cfg.Node) bool {
			switch t := n.(type) {
			case *cfg.StartNode:
				var as *expr.Expr
				if t.Requires != nil {
					r := t.Requires
					as = &r
				}
				return walk(t.Next, as, reach, subst, appendNode(nodes, n))

			case *cfg.AssignNode:
				val := t.Expression.Assign(subst.AsSubst())
				next := subst.clone()
				next.set(t.Var.Name, val)
				return walk(t.Next, assertionStart, reach, next, appendNode(nodes, n))

			case *cfg.AssumeNode:
				g := t.Guard.Assign(subst.AsSubst())
				return walk(t.Next, assertionStart, appendExpr(reach, g), subst, appendNode(nodes, n))

			case *cfg.CondNode:
				c := t.Condition.Assign(subst.AsSubst())
				notC := expr.Not{Operand: c}
				withNode := appendNode(nodes, n)
				if !walk(t.TrueBr, assertionStart, appendExpr(reach, c), subst, withNode) {
					return false
				}
				return walk(t.FalseBr, assertionStart, appendExpr(reach, notC), subst, withNode)

			case *cfg.AssertNode:
				p := t.Assertion.Assign(subst.AsSubst())
				completed := BasicPath{
					Reachability:   reach,
					Transformation: subst,
					AssertionStart: assertionStart,
					AssertionEnd:   &p,
					Nodes:          appendNode(nodes, n),
				}
				if !yield(completed) {
					return false
				}
				if visited[n] {
					return true
				}
				visited[n] = true
				return walk(t.Next, &p, nil, newOrderedSubst(), []cfg.Node{n})

			case *cfg.CutpointNode:
				p := t.Predicate.Assign(subst.AsSubst())
				completed := BasicPath{
					Reachability:   reach,
					Transformation: subst,
					AssertionStart: assertionStart,
					AssertionEnd:   &p,
					Nodes:          appendNode(nodes, n),
				}
				if !yield(completed) {
					return false
				}
				if visited[n] {
					return true
				}
				visited[n] = true
				return walk(t.Next, &p, nil, newOrderedSubst(), []cfg.Node{n})

			case *cfg.EndNode:
				// Unlike Assert/Cutpoint, End never recurses further, so it
				// poses no cycle-termination risk and every distinct path
				// reaching it (each with its own reachability/substitution)
				// must still get its own postcondition obligation.
				if t.Ensures == nil {
					return true
				}
				e := t.Ensures.Assign(subst.AsSubst())
				completed := BasicPath{
					Reachability:   reach,
					Transformation: subst,
					AssertionStart: assertionStart,
					AssertionEnd:   &e,
					Nodes:          appendNode(nodes, n),
				}
				return yield(completed)

			case *cfg.DummyNode:
				// A Dummy reachable here means the CFG builder failed to
				// rewire a placeholder — an implementation bug, not a
				// verification outcome (spec.md §4.6's panic exception).
				panic("path: Dummy node reachable during enumeration")

			default:
				panic("path: unknown cfg.Node variant")
			}
		}

		walk(start, nil, nil, newOrderedSubst(), nil)
	}
}
