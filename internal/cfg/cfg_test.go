package cfg

import (
	"testing"

	"github.com/twyair/verification-project/internal/ast"
	"github.com/twyair/verification-project/internal/env"
	"github.com/twyair/verification-project/internal/typesystem"
)

func leaf(ty ast.Type, text string) *ast.Node {
	t := text
	return &ast.Node{Type: ty, Text: &t}
}

func node(ty ast.Type, children ...*ast.Node) *ast.Node {
	return &ast.Node{Type: ty, Children: children}
}

func id(name string) *ast.Node { return leaf(ast.Identifier, name) }

func opTok(text string) *ast.Node { return leaf(ast.Type("op"), text) }

func rel(ty ast.Type, op string, l, r *ast.Node) *ast.Node {
	return node(ty, l, opTok(op), r)
}

func exprStmt(inner *ast.Node) *ast.Node {
	return node(ast.ExpressionStatement, inner, leaf(ast.Semicolon, ";"))
}

func emptyExprStmt() *ast.Node {
	return node(ast.ExpressionStatement, nil, leaf(ast.Semicolon, ";"))
}

func jump(kw ast.Type, kwText string, value *ast.Node) *ast.Node {
	return node(ast.JumpStatement, leaf(kw, kwText), value)
}

func block(stmts ...*ast.Node) *ast.Node {
	return node(ast.CompoundStatement, node(ast.BlockItemList, stmts...))
}

// whileLoop builds `while (i < n) { if (i == 3) { break; } i = i + 1; }`
// as a raw ast.Node tree, exercising buildWhile's Dummy-free back-edge
// construction and buildJump's break target resolution.
func whileLoop() *ast.Node {
	incr := exprStmt(node(ast.AssignmentExpr, id("i"), opTok("="), node(ast.AdditiveExpr, id("i"), opTok("+"), leaf(ast.Constant, "1"))))
	breakIf := node(ast.SelectionStatement,
		leaf(ast.KwIf, "if"), leaf(ast.ParenLeft, "("),
		rel(ast.EqualityExpr, "==", id("i"), leaf(ast.Constant, "3")),
		leaf(ast.ParenRight, ")"),
		block(jump(ast.KwBreak, "break", nil)),
	)
	body := block(breakIf, incr)
	return node(ast.IterationStatement,
		leaf(ast.KwWhile, "while"), leaf(ast.ParenLeft, "("),
		rel(ast.RelationalExpr, "<", id("i"), id("n")),
		leaf(ast.ParenRight, ")"),
		body,
	)
}

func newEnvWithIntVars(names ...string) *env.Environment {
	e := env.New()
	for _, n := range names {
		e.Declare(n, typesystem.Int)
	}
	return e
}

// reachableFrom walks every Node reachable from start by identity,
// following every *Node-typed field this package defines.
func reachableFrom(start Node) map[Node]bool {
	seen := map[Node]bool{}
	var walk func(n Node)
	walk = func(n Node) {
		if n == nil || seen[n] {
			return
		}
		seen[n] = true
		switch t := n.(type) {
		case *StartNode:
			walk(t.Next)
		case *EndNode:
		case *AssignNode:
			walk(t.Next)
		case *AssumeNode:
			walk(t.Next)
		case *AssertNode:
			walk(t.Next)
		case *CondNode:
			walk(t.TrueBr)
			walk(t.FalseBr)
		case *CutpointNode:
			walk(t.Next)
		case *DummyNode:
		}
	}
	walk(start)
	return seen
}

func TestBuildWhileLeavesNoDummyReachable(t *testing.T) {
	e := newEnvWithIntVars("i", "n")
	g, err := Build(block(whileLoop()), e)
	if err != nil {
		t.Fatalf("Build: %s", err.Error())
	}
	for n := range reachableFrom(g.Start) {
		if _, ok := n.(*DummyNode); ok {
			t.Fatalf("a DummyNode is reachable from Start after Build completed")
		}
	}
}

func TestBuildWhileBreakReachesLoopEnd(t *testing.T) {
	e := newEnvWithIntVars("i", "n")
	g, err := Build(block(whileLoop()), e)
	if err != nil {
		t.Fatalf("Build: %s", err.Error())
	}
	// Start -> while CondNode
	cond, ok := g.Start.Next.(*CondNode)
	if !ok {
		t.Fatalf("expected Start.Next to be the while's CondNode, got %T", g.Start.Next)
	}
	// FalseBr exits the loop straight to End (nothing follows the while).
	if cond.FalseBr != Node(g.End) {
		t.Fatalf("expected while's FalseBr to be the function End, got %T", cond.FalseBr)
	}
	// TrueBr enters the body: the break-if CondNode.
	breakCond, ok := cond.TrueBr.(*CondNode)
	if !ok {
		t.Fatalf("expected loop body entry to be the break-if CondNode, got %T", cond.TrueBr)
	}
	// Taking the break (i==3 true) must land on the loop's break target,
	// i.e. the same node as the while's own FalseBr (both exit the loop).
	if breakCond.TrueBr != cond.FalseBr {
		t.Fatalf("break should jump to the loop's end target, got %T", breakCond.TrueBr)
	}
}

func TestBuildRejectsGoto(t *testing.T) {
	e := newEnvWithIntVars("i")
	body := block(jump(ast.Type("goto"), "goto", leaf(ast.Identifier, "somewhere")))
	if _, err := Build(body, e); err == nil {
		t.Fatalf("expected goto to be rejected")
	}
}

func TestBuildRejectsBreakOutsideLoop(t *testing.T) {
	e := newEnvWithIntVars("i")
	body := block(jump(ast.KwBreak, "break", nil))
	if _, err := Build(body, e); err == nil {
		t.Fatalf("expected break outside a loop to be rejected")
	}
}

func TestBuildRejectsContinueOutsideLoop(t *testing.T) {
	e := newEnvWithIntVars("i")
	body := block(jump(ast.KwContinue, "continue", nil))
	if _, err := Build(body, e); err == nil {
		t.Fatalf("expected continue outside a loop to be rejected")
	}
}

func TestBuildEmptyExpressionStatementIsANoOp(t *testing.T) {
	e := newEnvWithIntVars("i")
	g, err := Build(block(emptyExprStmt()), e)
	if err != nil {
		t.Fatalf("Build: %s", err.Error())
	}
	if g.Start.Next != Node(g.End) {
		t.Fatalf("an empty statement body should fall straight through to End, got %T", g.Start.Next)
	}
}

func assign(name string, value *ast.Node) *ast.Node {
	return node(ast.AssignmentExpr, id(name), opTok("="), value)
}

// forLoop builds `for (i = 0; i < n; i = i + 1) { sum = sum + i; }` as a
// raw ast.Node tree, exercising buildFor's init/cond/incr wiring and its
// incr-node-as-loop-start back edge.
func forLoop() *ast.Node {
	initStmt := exprStmt(assign("i", leaf(ast.Constant, "0")))
	condStmt := exprStmt(rel(ast.RelationalExpr, "<", id("i"), id("n")))
	incr := assign("i", node(ast.AdditiveExpr, id("i"), opTok("+"), leaf(ast.Constant, "1")))
	loopBody := block(exprStmt(assign("sum", node(ast.AdditiveExpr, id("sum"), opTok("+"), id("i")))))
	return node(ast.IterationStatement,
		leaf(ast.KwFor, "for"), leaf(ast.ParenLeft, "("),
		initStmt, condStmt, incr, leaf(ast.ParenRight, ")"),
		loopBody,
	)
}

func TestBuildForWiresCondBodyAndIncrBackEdge(t *testing.T) {
	e := newEnvWithIntVars("i", "n", "sum")
	g, err := Build(block(forLoop()), e)
	if err != nil {
		t.Fatalf("Build: %s", err.Error())
	}
	init, ok := g.Start.Next.(*AssignNode)
	if !ok {
		t.Fatalf("expected Start.Next to be the for's init assignment, got %T", g.Start.Next)
	}
	cond, ok := init.Next.(*CondNode)
	if !ok {
		t.Fatalf("expected the init assignment to fall through to the for's CondNode, got %T", init.Next)
	}
	if cond.FalseBr != Node(g.End) {
		t.Fatalf("expected for's FalseBr to be the function End, got %T", cond.FalseBr)
	}
	sumAssign, ok := cond.TrueBr.(*AssignNode)
	if !ok {
		t.Fatalf("expected loop body entry to be the sum assignment, got %T", cond.TrueBr)
	}
	incrAssign, ok := sumAssign.Next.(*AssignNode)
	if !ok {
		t.Fatalf("expected the body to fall through into the incr assignment, got %T", sumAssign.Next)
	}
	if incrAssign.Next != Node(cond) {
		t.Fatalf("expected the incr assignment to close the back edge to Cond, got %T", incrAssign.Next)
	}
	for n := range reachableFrom(g.Start) {
		if _, ok := n.(*DummyNode); ok {
			t.Fatalf("a DummyNode is reachable from Start after Build completed")
		}
	}
}
