// Package cutpoint selects and splices Cutpoint nodes into a built CFG,
// converting it to Horn form per spec.md §4.5, grounded on
// original_source/function.py's Function.set_cutpoints.
package cutpoint

import (
	"fmt"

	"github.com/twyair/verification-project/internal/cfg"
	"github.com/twyair/verification-project/internal/expr"
	"github.com/twyair/verification-project/internal/typesystem"
)

// Select converts g's feedback vertex set into Cutpoint nodes and returns
// them in allocation order (predicate name Pi matches index i).
//
// Every reachable Assert is treated as an unconditional cutpoint — it
// already breaks any cycle through it, the same reason the path
// enumerator (package path) re-enters at Assert nodes — so Assert edges
// are excluded from the cycle-detection graph below (they're pre-cut) but
// still tracked for predecessor rewiring. The remaining cutpoints come
// from a greedy maximum-uncovered-cycles feedback vertex set over
// whatever cycles survive once Asserts are excluded, exactly as
// set_cutpoints computes it (cycles via a bounded-rank DFS standing in
// for networkx.simple_cycles, greedy max-coverage loop, vertex-rank
// tie-break).
//
// vars is the function's full variable vector (locals + params);
// predicate argument sorts are drawn from it, sorted lexicographically by
// name (spec.md §4.5's "sort signature ... from the sorted variable
// vector").
func Select(g *cfg.Graph, vars []expr.Var) []*cfg.CutpointNode {
	sortedVars := expr.SortedVarNames(vars)

	preds := map[cfg.Node][]cfg.Node{}
	cycleAdj := map[cfg.Node][]cfg.Node{}
	var order []cfg.Node
	var asserts []cfg.Node

	visited := map[cfg.Node]bool{}
	var walk func(n cfg.Node)
	walk = func(n cfg.Node) {
		if n == nil || visited[n] {
			return
		}
		visited[n] = true
		order = append(order, n)
		switch t := n.(type) {
		case *cfg.StartNode:
			preds[t.Next] = append(preds[t.Next], n)
			cycleAdj[n] = append(cycleAdj[n], t.Next)
			walk(t.Next)
		case *cfg.AssignNode:
			preds[t.Next] = append(preds[t.Next], n)
			cycleAdj[n] = append(cycleAdj[n], t.Next)
			walk(t.Next)
		case *cfg.AssumeNode:
			preds[t.Next] = append(preds[t.Next], n)
			cycleAdj[n] = append(cycleAdj[n], t.Next)
			walk(t.Next)
		case *cfg.CutpointNode:
			preds[t.Next] = append(preds[t.Next], n)
			cycleAdj[n] = append(cycleAdj[n], t.Next)
			walk(t.Next)
		case *cfg.CondNode:
			preds[t.TrueBr] = append(preds[t.TrueBr], n)
			preds[t.FalseBr] = append(preds[t.FalseBr], n)
			cycleAdj[n] = append(cycleAdj[n], t.TrueBr, t.FalseBr)
			walk(t.TrueBr)
			walk(t.FalseBr)
		case *cfg.AssertNode:
			// Real edge tracked for rewiring; no cycleAdj entry (sink for
			// cycle-detection purposes — already an unconditional cutpoint).
			preds[t.Next] = append(preds[t.Next], n)
			asserts = append(asserts, n)
			walk(t.Next)
		case *cfg.EndNode, *cfg.DummyNode:
			// sinks.
		}
	}
	walk(g.Start)

	rank := make(map[cfg.Node]int, len(order))
	for i, n := range order {
		rank[n] = i
	}

	cycles := simpleCycles(order, rank, cycleAdj)
	nodeToCycles := map[cfg.Node]map[int]bool{}
	for i, c := range cycles {
		for _, n := range c {
			if nodeToCycles[n] == nil {
				nodeToCycles[n] = map[int]bool{}
			}
			nodeToCycles[n][i] = true
		}
	}

	var greedy []cfg.Node
	for len(nodeToCycles) > 0 {
		var best cfg.Node
		bestCount := -1
		for n, cs := range nodeToCycles {
			if len(cs) > bestCount || (len(cs) == bestCount && rank[n] < rank[best]) {
				best, bestCount = n, len(cs)
			}
		}
		greedy = append(greedy, best)
		for i := range nodeToCycles[best] {
			for _, n := range cycles[i] {
				if n == best {
					continue
				}
				delete(nodeToCycles[n], i)
				if len(nodeToCycles[n]) == 0 {
					delete(nodeToCycles, n)
				}
			}
		}
		delete(nodeToCycles, best)
	}

	// Selection order: greedy feedback-vertex choices first (in the order
	// they were picked), then every reachable Assert (in preorder
	// traversal order). Both orderings are individually deterministic and
	// stable across runs on the same AST.
	selected := append(append([]cfg.Node{}, greedy...), asserts...)

	predArgs := make([]expr.Expr, len(sortedVars))
	argSorts := make([]typesystem.Type, len(sortedVars))
	for i, v := range sortedVars {
		predArgs[i] = v
		argSorts[i] = v.Ty
	}

	cutpoints := make([]*cfg.CutpointNode, 0, len(selected))
	for index, victim := range selected {
		pred := expr.Predicate{
			Name:     fmt.Sprintf("P%d", index),
			Args:     append([]expr.Expr{}, predArgs...),
			ArgSorts: append([]typesystem.Type{}, argSorts...),
		}

		var cp *cfg.CutpointNode
		if a, ok := victim.(*cfg.AssertNode); ok {
			// Replace the Assert in place: the new Cutpoint takes over its
			// position in the graph, recording the original assertion as
			// the partial invariant for the side CHC (spec.md §4.5 step 4).
			cp = &cfg.CutpointNode{Predicate: pred, PartialInvariant: a.Assertion, Next: a.Next, Range: a.Range}
			for _, p := range preds[victim] {
				rewire(p, victim, cp)
			}
		} else {
			// Splice before the vertex: the Cutpoint's Next is the victim
			// itself, left otherwise untouched (spec.md §4.5 step 5).
			cp = &cfg.CutpointNode{Predicate: pred, Next: victim}
			for _, p := range preds[victim] {
				rewire(p, victim, cp)
			}
		}
		cutpoints = append(cutpoints, cp)
	}
	return cutpoints
}

func rewire(predecessor, oldTarget, newTarget cfg.Node) {
	switch t := predecessor.(type) {
	case *cfg.StartNode:
		if t.Next == oldTarget {
			t.Next = newTarget
		}
	case *cfg.AssignNode:
		if t.Next == oldTarget {
			t.Next = newTarget
		}
	case *cfg.AssumeNode:
		if t.Next == oldTarget {
			t.Next = newTarget
		}
	case *cfg.AssertNode:
		if t.Next == oldTarget {
			t.Next = newTarget
		}
	case *cfg.CutpointNode:
		if t.Next == oldTarget {
			t.Next = newTarget
		}
	case *cfg.CondNode:
		if t.TrueBr == oldTarget {
			t.TrueBr = newTarget
		}
		if t.FalseBr == oldTarget {
			t.FalseBr = newTarget
		}
	}
}

// simpleCycles enumerates every simple cycle in the graph described by
// adj, each reported exactly once (at the DFS rooted at its
// lowest-rank member), standing in for networkx.simple_cycles without a
// graph-library dependency the example pack doesn't carry.
func simpleCycles(order []cfg.Node, rank map[cfg.Node]int, adj map[cfg.Node][]cfg.Node) [][]cfg.Node {
	var cycles [][]cfg.Node
	for si, s := range order {
		visited := map[cfg.Node]bool{s: true}
		path := []cfg.Node{s}
		var dfs func(cur cfg.Node)
		dfs = func(cur cfg.Node) {
			for _, next := range adj[cur] {
				if next == s {
					cyc := make([]cfg.Node, len(path))
					copy(cyc, path)
					cycles = append(cycles, cyc)
					continue
				}
				if rank[next] < si || visited[next] {
					continue
				}
				visited[next] = true
				path = append(path, next)
				dfs(next)
				path = path[:len(path)-1]
				visited[next] = false
			}
		}
		dfs(s)
	}
	return cycles
}
