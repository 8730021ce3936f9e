// Package cfg builds and manipulates the control-flow graph of spec.md §3/
// §4.2: a mutable, shared-by-identity node graph with loop back-edges,
// lowered from a structured function body AST via destination-passing
// statement translation.
package cfg

import (
	"fmt"
	"io"

	"github.com/twyair/verification-project/internal/ast"
	"github.com/twyair/verification-project/internal/expr"
)

// Node is implemented by every CFG vertex variant in spec.md §3's table.
// All implementations are pointer types so identity comparison (used by
// the patch walk, the path enumerator's visited set, and the cutpoint
// selector) is just Go pointer/interface equality.
type Node interface {
	isNode()
}

// StartNode is the unique entry vertex. Requires is nil when the function
// carries no precondition.
type StartNode struct {
	Requires expr.Expr
	Next     Node
	Range    ast.Range
}

func (*StartNode) isNode() {}

// EndNode is the unique exit vertex. Ensures is nil when the function
// carries no postcondition.
type EndNode struct {
	Ensures expr.Expr
	Range   ast.Range
}

func (*EndNode) isNode() {}

// AssignNode stores Expression into Var and continues to Next.
type AssignNode struct {
	Var        expr.Var
	Expression expr.Expr
	Next       Node
	Range      ast.Range
}

func (*AssignNode) isNode() {}

// AssumeNode narrows reachability by Guard without checking it.
type AssumeNode struct {
	Guard expr.Expr
	Next  Node
	Range ast.Range
}

func (*AssumeNode) isNode() {}

// AssertNode is a proof obligation: Assertion must hold whenever control
// reaches this node, and also cuts the path enumerator's traversal (every
// cycle must cross one).
type AssertNode struct {
	Assertion expr.Expr
	Next      Node
	Range     ast.Range
}

func (*AssertNode) isNode() {}

// CondNode forks control on Condition.
type CondNode struct {
	Condition        expr.Expr
	TrueBr, FalseBr  Node
	Range            ast.Range
}

func (*CondNode) isNode() {}

// CutpointNode replaces a feedback-vertex-set member (or an existing
// Assert) with an uninterpreted predicate standing in for an unknown loop
// invariant (spec.md §4.5). PartialInvariant is non-nil only when this
// cutpoint was spliced in place of a user assertion — it records the
// original assertion expression for the side CHC `∀. P → partial`.
type CutpointNode struct {
	Predicate        expr.Predicate
	PartialInvariant expr.Expr
	Next             Node
	Range            ast.Range
}

func (*CutpointNode) isNode() {}

// DummyNode is a placeholder used wherever a successor cannot be named yet
// (chiefly before a loop back-edge exists). No Dummy may remain reachable
// from Start once a function's CFG is fully built.
type DummyNode struct{}

func (*DummyNode) isNode() {}

// Graph holds a built function's CFG by its Start and End nodes. The
// variables declared while building it are tracked by the Builder's
// env.Environment, not here.
type Graph struct {
	Start *StartNode
	End   *EndNode
}

// WriteDOT emits a Graphviz DOT rendering of g, re-expressing
// original_source/function.py's Function.draw_cfg (which used pygraphviz)
// as plain text output with no third-party graph-drawing dependency.
func WriteDOT(w io.Writer, g *Graph) error {
	fmt.Fprintln(w, "digraph cfg {")
	ids := map[Node]int{}
	next := 0
	id := func(n Node) int {
		if v, ok := ids[n]; ok {
			return v
		}
		ids[n] = next
		next++
		return ids[n]
	}

	visited := map[Node]bool{}
	var walk func(n Node)
	walk = func(n Node) {
		if n == nil || visited[n] {
			return
		}
		visited[n] = true
		switch t := n.(type) {
		case *StartNode:
			fmt.Fprintf(w, "  %d [label=%q shape=ellipse color=green];\n", id(n), fmt.Sprintf("start: %v", t.Requires))
			fmt.Fprintf(w, "  %d -> %d;\n", id(n), id(t.Next))
			walk(t.Next)
		case *EndNode:
			fmt.Fprintf(w, "  %d [label=%q shape=ellipse color=black];\n", id(n), fmt.Sprintf("end: %v", t.Ensures))
		case *AssignNode:
			fmt.Fprintf(w, "  %d [label=%q shape=rectangle color=blue];\n", id(n), fmt.Sprintf("%s := %s", t.Var, t.Expression))
			fmt.Fprintf(w, "  %d -> %d;\n", id(n), id(t.Next))
			walk(t.Next)
		case *AssumeNode:
			fmt.Fprintf(w, "  %d [label=%q shape=circle color=pink];\n", id(n), fmt.Sprintf("assume %s", t.Guard))
			fmt.Fprintf(w, "  %d -> %d;\n", id(n), id(t.Next))
			walk(t.Next)
		case *AssertNode:
			fmt.Fprintf(w, "  %d [label=%q shape=octagon color=purple];\n", id(n), fmt.Sprintf("assert %s", t.Assertion))
			fmt.Fprintf(w, "  %d -> %d;\n", id(n), id(t.Next))
			walk(t.Next)
		case *CondNode:
			fmt.Fprintf(w, "  %d [label=%q shape=diamond color=red];\n", id(n), fmt.Sprintf("%s", t.Condition))
			fmt.Fprintf(w, "  %d -> %d [label=T];\n", id(n), id(t.TrueBr))
			fmt.Fprintf(w, "  %d -> %d [label=F];\n", id(n), id(t.FalseBr))
			walk(t.TrueBr)
			walk(t.FalseBr)
		case *CutpointNode:
			fmt.Fprintf(w, "  %d [label=%q shape=house color=orange];\n", id(n), fmt.Sprintf("%s", t.Predicate))
			fmt.Fprintf(w, "  %d -> %d;\n", id(n), id(t.Next))
			walk(t.Next)
		case *DummyNode:
			fmt.Fprintf(w, "  %d [label=\"???\" shape=star color=yellow];\n", id(n))
		}
	}
	walk(g.Start)
	fmt.Fprintln(w, "}")
	return nil
}
