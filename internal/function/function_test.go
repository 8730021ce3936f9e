package function_test

import (
	"context"
	"testing"

	"github.com/twyair/verification-project/internal/ast"
	"github.com/twyair/verification-project/internal/function"
	"github.com/twyair/verification-project/internal/path"
	"github.com/twyair/verification-project/internal/solver"
	"github.com/twyair/verification-project/internal/solver/stub"
	"github.com/twyair/verification-project/internal/verify"
)

// The fixtures below hand-build the Parser's JSON-tree shape directly as
// *ast.Node values (spec.md §6's external Parser is a black-box
// collaborator with no implementation in this module to drive from
// source text), exercising spec.md §8's scenarios 1, 2, and 5.

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

func and(l, r *ast.Node) *ast.Node { return node(ast.LogicalAndExpr, l, opTok("&&"), r) }
func or(l, r *ast.Node) *ast.Node  { return node(ast.LogicalOrExpr, l, opTok("||"), r) }
func not(x *ast.Node) *ast.Node    { return node(ast.UnaryExpression, opTok("!"), x) }

func call(name string, arg *ast.Node) *ast.Node {
	children := []*ast.Node{id(name), leaf(ast.ParenLeft, "(")}
	if arg != nil {
		children = append(children, arg)
	} else {
		children = append(children, nil)
	}
	children = append(children, leaf(ast.ParenRight, ")"))
	return node(ast.PostfixExpression, children...)
}

func exprStmt(inner *ast.Node) *ast.Node {
	return node(ast.ExpressionStatement, inner, leaf(ast.Semicolon, ";"))
}

func returnStmt(value *ast.Node) *ast.Node {
	return node(ast.JumpStatement, leaf(ast.KwReturn, "return"), value)
}

func ifElse(cond, thenStmt, elseStmt *ast.Node) *ast.Node {
	return node(ast.SelectionStatement,
		leaf(ast.KwIf, "if"), leaf(ast.ParenLeft, "("), cond, leaf(ast.ParenRight, ")"),
		thenStmt, leaf(ast.KwElse, "else"), elseStmt)
}

func param(ty string, name string) *ast.Node {
	return node(ast.ParameterDeclaration, leaf(ast.Type(ty), ty), id(name))
}

func body(stmts ...*ast.Node) *ast.Node {
	return node(ast.CompoundStatement, node(ast.BlockItemList, stmts...))
}

func funcDef(retType string, params []*ast.Node, b *ast.Node) *ast.Node {
	declarator := node(ast.DirectDeclarator,
		id("f"), leaf(ast.ParenLeft, "("),
		node(ast.ParameterList, params...),
	)
	return node(ast.FunctionDefinition, leaf(ast.Type(retType), retType), declarator, b)
}

func check(t *testing.T, fn *function.Function) verify.Outcome {
	t.Helper()
	driver := verify.New(
		func() (solver.Solver, error) { return stub.NewSolver(), nil },
		func() (solver.HornSolver, error) { return stub.NewHornSolver(), nil },
	)
	outcome, err := driver.Check(context.Background(), fn)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	return outcome
}

func countPaths(fn *function.Function) int {
	n := 0
	for range path.Enumerate(fn.CFG.Start) {
		n++
	}
	return n
}

// Scenario 1: max2 correct.
func TestMax2Correct(t *testing.T) {
	params := []*ast.Node{param("int", "a"), param("int", "b")}
	requires := exprStmt(call("requires", id("true")))
	ensures := exprStmt(call("ensures",
		and(
			and(rel(ast.RelationalExpr, ">=", id("ret"), id("a")), rel(ast.RelationalExpr, ">=", id("ret"), id("b"))),
			or(rel(ast.EqualityExpr, "==", id("ret"), id("a")), rel(ast.EqualityExpr, "==", id("ret"), id("b"))),
		)))
	ifStmt := ifElse(rel(ast.RelationalExpr, ">=", id("a"), id("b")), returnStmt(id("a")), returnStmt(id("b")))
	def := funcDef("int", params, body(requires, ensures, ifStmt))

	fn, derr := function.FromAST(def, false)
	if derr != nil {
		t.Fatalf("FromAST: %s", derr.Error())
	}
	if n := countPaths(fn); n != 2 {
		t.Fatalf("expected 2 basic paths, got %d", n)
	}
	outcome := check(t, fn)
	if _, ok := outcome.(verify.Ok); !ok {
		t.Fatalf("expected Ok, got %#v", outcome)
	}
}

// Scenario 2: max2 buggy (`return a;` unconditionally).
func TestMax2Buggy(t *testing.T) {
	params := []*ast.Node{param("int", "a"), param("int", "b")}
	requires := exprStmt(call("requires", id("true")))
	ensures := exprStmt(call("ensures",
		and(
			and(rel(ast.RelationalExpr, ">=", id("ret"), id("a")), rel(ast.RelationalExpr, ">=", id("ret"), id("b"))),
			or(rel(ast.EqualityExpr, "==", id("ret"), id("a")), rel(ast.EqualityExpr, "==", id("ret"), id("b"))),
		)))
	def := funcDef("int", params, body(requires, ensures, returnStmt(id("a"))))

	fn, derr := function.FromAST(def, false)
	if derr != nil {
		t.Fatalf("FromAST: %s", derr.Error())
	}
	if n := countPaths(fn); n != 1 {
		t.Fatalf("expected 1 basic path, got %d", n)
	}
	outcome := check(t, fn)
	if _, ok := outcome.(verify.CounterExample); !ok {
		t.Fatalf("expected CounterExample (ret >= b can fail), got %#v", outcome)
	}
}

// Scenario 5: de Morgan, !(a && b) == (!a || !b).
func TestDeMorgan(t *testing.T) {
	params := []*ast.Node{param("bool", "a"), param("bool", "b")}
	lhs := not(and(id("a"), id("b")))
	rhs := or(not(id("a")), not(id("b")))
	ensures := exprStmt(call("ensures", rel(ast.EqualityExpr, "==", lhs, rhs)))
	def := funcDef("bool", params, body(
		exprStmt(call("requires", id("true"))),
		ensures,
		returnStmt(id("true")),
	))

	fn, derr := function.FromAST(def, false)
	if derr != nil {
		t.Fatalf("FromAST: %s", derr.Error())
	}
	outcome := check(t, fn)
	if _, ok := outcome.(verify.Ok); !ok {
		t.Fatalf("expected Ok for the de Morgan identity, got %#v", outcome)
	}
}
