package cutpoint

import (
	"testing"

	"github.com/twyair/verification-project/internal/cfg"
	"github.com/twyair/verification-project/internal/expr"
	"github.com/twyair/verification-project/internal/typesystem"
)

func vr(name string) expr.Var { return expr.Var{Name: name, Ty: typesystem.Int} }

// plainLoop builds Start -> Cond(i<n) -> [true: Assign(i:=i+1) -> back to
// Cond] [false: End], with no user assertion anywhere: the only cycle is
// the back edge through Cond itself, so Select must pick exactly one
// feedback-vertex cutpoint.
func plainLoop() (*cfg.Graph, []expr.Var) {
	end := &cfg.EndNode{}
	cond := &cfg.CondNode{Condition: expr.Rel{Op: expr.OpLt, L: vr("i"), R: vr("n")}, FalseBr: end}
	incr := &cfg.AssignNode{Var: vr("i"), Expression: expr.Binary{Op: expr.OpAdd, L: vr("i"), R: expr.IntLit{Value: 1}}, Next: cond}
	cond.TrueBr = incr
	start := &cfg.StartNode{Next: cond}
	return &cfg.Graph{Start: start, End: end}, []expr.Var{vr("i"), vr("n")}
}

func TestSelectPicksOneCutpointForASimpleLoop(t *testing.T) {
	g, vars := plainLoop()
	cps := Select(g, vars)
	if len(cps) != 1 {
		t.Fatalf("expected exactly 1 cutpoint for a single back edge, got %d", len(cps))
	}
}

func TestSelectSplicesCutpointIntoTheGraph(t *testing.T) {
	g, vars := plainLoop()
	cps := Select(g, vars)
	cp := cps[0]

	// The spliced cutpoint must now be reachable from Start, and its
	// predicate's argument sorts must match the (sorted) variable vector.
	found := false
	visited := map[cfg.Node]bool{}
	var walk func(n cfg.Node)
	walk = func(n cfg.Node) {
		if n == nil || visited[n] {
			return
		}
		visited[n] = true
		if n == cfg.Node(cp) {
			found = true
		}
		switch t := n.(type) {
		case *cfg.StartNode:
			walk(t.Next)
		case *cfg.AssignNode:
			walk(t.Next)
		case *cfg.CondNode:
			walk(t.TrueBr)
			walk(t.FalseBr)
		case *cfg.CutpointNode:
			walk(t.Next)
		}
	}
	walk(g.Start)
	if !found {
		t.Fatalf("the selected cutpoint is not reachable from Start after splicing")
	}
	if len(cp.Predicate.ArgSorts) != 2 {
		t.Fatalf("expected 2 predicate argument sorts (i, n), got %d", len(cp.Predicate.ArgSorts))
	}
}

// loopWithUserAssert is the same loop but with an explicit assert(i<=n)
// inside the body: Select must replace that Assert in place (recording
// its assertion as PartialInvariant) rather than also picking a separate
// feedback-vertex cutpoint for the back edge, since the Assert alone
// already cuts the only cycle.
func loopWithUserAssert() (*cfg.Graph, []expr.Var, *cfg.AssertNode) {
	end := &cfg.EndNode{}
	cond := &cfg.CondNode{Condition: expr.Rel{Op: expr.OpLt, L: vr("i"), R: vr("n")}, FalseBr: end}
	assertion := expr.Rel{Op: expr.OpLe, L: vr("i"), R: vr("n")}
	assertNode := &cfg.AssertNode{Assertion: assertion}
	incr := &cfg.AssignNode{Var: vr("i"), Expression: expr.Binary{Op: expr.OpAdd, L: vr("i"), R: expr.IntLit{Value: 1}}, Next: cond}
	assertNode.Next = incr
	cond.TrueBr = assertNode
	start := &cfg.StartNode{Next: cond}
	return &cfg.Graph{Start: start, End: end}, []expr.Var{vr("i"), vr("n")}, assertNode
}

func TestSelectReplacesUserAssertWithPartialInvariant(t *testing.T) {
	g, vars, assertNode := loopWithUserAssert()
	cps := Select(g, vars)
	if len(cps) != 1 {
		t.Fatalf("expected the single user Assert to be the only cutpoint, got %d", len(cps))
	}
	cp := cps[0]
	if cp.PartialInvariant == nil {
		t.Fatalf("expected PartialInvariant to carry the original assertion")
	}
	if cp.Next != cfg.Node(assertNode.Next) {
		t.Fatalf("cutpoint should take over the Assert's original Next, got %T", cp.Next)
	}
	if g.Start.Next.(*cfg.CondNode).TrueBr == cfg.Node(assertNode) {
		t.Fatalf("the original AssertNode should no longer be reachable after splicing")
	}
}
