package cfg

import (
	gast "github.com/twyair/verification-project/internal/ast"
	"github.com/twyair/verification-project/internal/diagnostics"
	"github.com/twyair/verification-project/internal/env"
	"github.com/twyair/verification-project/internal/expr"
	"github.com/twyair/verification-project/internal/typesystem"
)

// Builder translates a function body's compound statement into a Graph,
// threading a destination-passing continuation through each constructor
// per spec.md §4.2's statement table.
type Builder struct {
	Env *env.Environment

	continueTargets []Node // loop_start stack: what `continue` jumps to
	breakTargets    []Node // loop_end stack: what `break` jumps to (loops and switches both push here)
	remembers       [][]expr.Expr

	end             *EndNode
	pendingRequires expr.Expr

	sawFirstStatement bool
}

// Build lowers body (a compound_statement node) into a Graph. e must
// already hold the function's parameters in its global scope (installed
// by package function before calling Build).
func Build(body *gast.Node, e *env.Environment) (*Graph, *diagnostics.Error) {
	b := &Builder{Env: e}
	b.end = &EndNode{}
	b.openScope()
	entry, err := b.buildCompound(body, b.end)
	b.closeScope()
	if err != nil {
		return nil, err
	}
	start := &StartNode{Next: entry, Requires: b.pendingRequires}
	return &Graph{Start: start, End: b.end}, nil
}

func (b *Builder) openScope() {
	b.Env.OpenScope()
	b.remembers = append(b.remembers, nil)
}

func (b *Builder) closeScope() {
	b.Env.CloseScope()
	b.remembers = b.remembers[:len(b.remembers)-1]
}

func (b *Builder) remember(p expr.Expr) {
	b.remembers[len(b.remembers)-1] = append(b.remembers[len(b.remembers)-1], p)
}

func (b *Builder) activeRemembers() []expr.Expr {
	var out []expr.Expr
	for _, scope := range b.remembers {
		out = append(out, scope...)
	}
	return out
}

// pushLoop records both a continue target and a break target, for while/
// do/for bodies.
func (b *Builder) pushLoop(start, end Node) {
	b.continueTargets = append(b.continueTargets, start)
	b.breakTargets = append(b.breakTargets, end)
}

func (b *Builder) popLoop() {
	b.continueTargets = b.continueTargets[:len(b.continueTargets)-1]
	b.breakTargets = b.breakTargets[:len(b.breakTargets)-1]
}

// pushBreakOnly records a break target without affecting continue, for a
// switch body: `continue` inside a switch (per C semantics) still targets
// whatever loop encloses the switch, if any.
func (b *Builder) pushBreakOnly(end Node) {
	b.breakTargets = append(b.breakTargets, end)
}

func (b *Builder) popBreakOnly() {
	b.breakTargets = b.breakTargets[:len(b.breakTargets)-1]
}

func (b *Builder) curLoopStart() (Node, bool) {
	if len(b.continueTargets) == 0 {
		return nil, false
	}
	return b.continueTargets[len(b.continueTargets)-1], true
}

func (b *Builder) curLoopEnd() (Node, bool) {
	if len(b.breakTargets) == 0 {
		return nil, false
	}
	return b.breakTargets[len(b.breakTargets)-1], true
}

// patchDummy walks the graph reachable from root, rewiring every edge that
// points at target to point at replacement instead. Uses a visited-by-
// identity set (spec.md §4.2) to terminate on cyclic graphs.
func patchDummy(root Node, target *DummyNode, replacement Node) {
	visited := map[Node]bool{}
	var walk func(n Node)
	walk = func(n Node) {
		if n == nil || visited[n] {
			return
		}
		visited[n] = true
		switch t := n.(type) {
		case *StartNode:
			if t.Next == Node(target) {
				t.Next = replacement
			} else {
				walk(t.Next)
			}
		case *AssignNode:
			if t.Next == Node(target) {
				t.Next = replacement
			} else {
				walk(t.Next)
			}
		case *AssumeNode:
			if t.Next == Node(target) {
				t.Next = replacement
			} else {
				walk(t.Next)
			}
		case *AssertNode:
			if t.Next == Node(target) {
				t.Next = replacement
			} else {
				walk(t.Next)
			}
		case *CutpointNode:
			if t.Next == Node(target) {
				t.Next = replacement
			} else {
				walk(t.Next)
			}
		case *CondNode:
			if t.TrueBr == Node(target) {
				t.TrueBr = replacement
			} else {
				walk(t.TrueBr)
			}
			if t.FalseBr == Node(target) {
				t.FalseBr = replacement
			} else {
				walk(t.FalseBr)
			}
		case *EndNode, *DummyNode:
			// no outgoing edges.
		}
	}
	walk(root)
}

// buildCompound translates a compound_statement (a "{" block_item_list "}"
// node, or a bare block_item_list) with dest as its continuation,
// opening/closing a fresh scope around it.
func (b *Builder) buildCompound(node *gast.Node, dest Node) (Node, *diagnostics.Error) {
	b.openScope()
	entry, err := b.buildBlockItemList(blockItems(node), dest)
	b.closeScope()
	return entry, err
}

// blockItems flattens a compound_statement node down to its ordered list
// of statement/declaration children, looking past the brace tokens and the
// optional intermediate block_item_list wrapper.
func blockItems(node *gast.Node) []*gast.Node {
	if node == nil {
		return nil
	}
	if node.Type == gast.CompoundStatement {
		for _, c := range node.Children {
			if c.Type == gast.BlockItemList {
				return flattenBlockItemList(c)
			}
		}
		return nil
	}
	if node.Type == gast.BlockItemList {
		return flattenBlockItemList(node)
	}
	return []*gast.Node{node}
}

// flattenBlockItemList handles a left-recursive block_item_list
// (block_item_list block_item | block_item), collecting items in source
// order.
func flattenBlockItemList(node *gast.Node) []*gast.Node {
	var out []*gast.Node
	var walk func(n *gast.Node)
	walk = func(n *gast.Node) {
		if n == nil {
			return
		}
		if n.Type != gast.BlockItemList {
			out = append(out, n)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(node)
	return out
}

// buildBlockItemList implements the `{ s1 ... sn }` rule from spec.md
// §4.2: each statement is built with a fresh Dummy as its destination
// (except the last, built with dest), then the dummy is patched to the
// entry of the following statement once that entry is known. A statement
// that adds no node (requires, ensures, an empty statement, ...) returns
// its own Dummy as entry and is thereby skipped.
func (b *Builder) buildBlockItemList(stmts []*gast.Node, dest Node) (Node, *diagnostics.Error) {
	if len(stmts) == 0 {
		return dest, nil
	}
	var head Node
	dummies := make([]*DummyNode, len(stmts))
	for i, s := range stmts {
		var stmtDest Node
		if i == len(stmts)-1 {
			stmtDest = dest
		} else {
			d := &DummyNode{}
			dummies[i] = d
			stmtDest = d
		}
		entry, err := b.buildStatement(s, stmtDest)
		if err != nil {
			return nil, err
		}
		switch {
		case i == 0:
			head = entry
		case head == Node(dummies[i-1]):
			// Every statement so far was skipped.
			head = entry
		default:
			patchDummy(head, dummies[i-1], entry)
		}
	}
	return head, nil
}

// buildStatement dispatches on node's grammar production, per spec.md
// §4.2's statement table.
func (b *Builder) buildStatement(node *gast.Node, dest Node) (Node, *diagnostics.Error) {
	wasFirst := !b.sawFirstStatement
	b.sawFirstStatement = true

	switch node.Type {
	case gast.Semicolon:
		return dest, nil

	case gast.CompoundStatement:
		return b.buildCompound(node, dest)

	case gast.ExpressionStatement:
		return b.buildExpressionStatement(node, dest, wasFirst)

	case gast.Declaration:
		return b.buildDeclaration(node, dest)

	case gast.SelectionStatement:
		return b.buildSelection(node, dest)

	case gast.IterationStatement:
		return b.buildIteration(node, dest)

	case gast.JumpStatement:
		return b.buildJump(node, dest)

	default:
		return nil, diagnostics.Newf(diagnostics.ErrUnsupportedSyntax, node.Range, "unsupported statement of type %q", node.Type)
	}
}

func firstChildOfType(node *gast.Node, ty gast.Type) *gast.Node {
	if node == nil {
		return nil
	}
	for _, c := range node.Children {
		if c.Type == ty {
			return c
		}
	}
	return nil
}

// buildExpressionStatement handles both the specification-construct
// builtins (assert/assume/requires/ensures/freeze/remember) and ordinary
// assignment/increment expression statements.
func (b *Builder) buildExpressionStatement(node *gast.Node, dest Node, wasFirst bool) (Node, *diagnostics.Error) {
	inner := node.Child(0)
	if inner == nil {
		return dest, nil
	}
	if name, args, ok := expr.CallArgs(inner); ok && expr.IsBuiltinCallName(name) {
		switch name {
		case "assert":
			p, err := expr.FromAST(expr.SingleArg(args), b.Env)
			if err != nil {
				return nil, err
			}
			active := b.activeRemembers()
			assertion := p
			if len(active) > 0 {
				assertion = expr.And{Args: append(append([]expr.Expr{}, active...), p)}
			}
			return &AssertNode{Assertion: assertion, Next: dest, Range: node.Range}, nil

		case "assume":
			p, err := expr.FromAST(expr.SingleArg(args), b.Env)
			if err != nil {
				return nil, err
			}
			return &AssumeNode{Guard: p, Next: dest, Range: node.Range}, nil

		case "requires":
			if !wasFirst {
				return nil, diagnostics.New(diagnostics.ErrRequiresNotLeading, node.Range, "requires(...) must be the function's leading statement")
			}
			p, err := expr.FromAST(expr.SingleArg(args), b.Env)
			if err != nil {
				return nil, err
			}
			b.pendingRequires = p
			return dest, nil

		case "ensures":
			p, err := expr.FromAST(expr.SingleArg(args), b.Env)
			if err != nil {
				return nil, err
			}
			b.end.Ensures = p
			return dest, nil

		case "remember":
			p, err := expr.FromAST(expr.SingleArg(args), b.Env)
			if err != nil {
				return nil, err
			}
			b.remember(p)
			return dest, nil

		case "freeze":
			if args != nil && args.Type == gast.ArgumentExpressionList {
				snapshotNode := args.Child(0)
				exprNode := args.Child(2)
				snapshotName := snapshotNode.TextOrEmpty()
				valueExpr, err := expr.FromAST(exprNode, b.Env)
				if err != nil {
					return nil, err
				}
				renamed := b.Env.Declare(snapshotName, valueExpr.Type())
				return &AssignNode{Var: expr.Var{Name: renamed, Ty: valueExpr.Type()}, Expression: valueExpr, Next: dest, Range: node.Range}, nil
			}
			return nil, diagnostics.New(diagnostics.ErrMalformedQuantifier, node.Range, "freeze(snapshot, expr) requires two arguments")
		}
	}

	return b.buildPlainExpressionStatement(inner, dest)
}

// buildPlainExpressionStatement handles `x = e;`, compound assignment,
// `a[i] = e;`, and `x++`/`++x`/`x--`/`--x`.
func (b *Builder) buildPlainExpressionStatement(node *gast.Node, dest Node) (Node, *diagnostics.Error) {
	if node.Type == gast.AssignmentExpr {
		lhs := node.Child(0)
		op := node.Child(1).TextOrEmpty()
		rhsNode := node.Child(2)

		var value expr.Expr
		var err *diagnostics.Error
		if op == "=" {
			value, err = expr.FromAST(rhsNode, b.Env)
		} else {
			binOp, ok := compoundOpToBinary(op)
			if !ok {
				return nil, diagnostics.Newf(diagnostics.ErrUnsupportedSyntax, node.Range, "unsupported assignment operator %q", op)
			}
			lhsExpr, lerr := expr.FromAST(lhs, b.Env)
			if lerr != nil {
				return nil, lerr
			}
			rhsExpr, rerr := expr.FromAST(rhsNode, b.Env)
			if rerr != nil {
				return nil, rerr
			}
			value = expr.Binary{Op: binOp, L: lhsExpr, R: rhsExpr}
		}
		if err != nil {
			return nil, err
		}
		return b.buildAssignTo(lhs, value, dest, node.Range)
	}

	if node.Type == gast.PostfixExpression && node.Child(1) != nil && (node.Child(1).TextOrEmpty() == "++" || node.Child(1).TextOrEmpty() == "--") {
		target := node.Child(0)
		delta := int64(1)
		if node.Child(1).TextOrEmpty() == "--" {
			delta = -1
		}
		lhsExpr, err := expr.FromAST(target, b.Env)
		if err != nil {
			return nil, err
		}
		value := expr.Binary{Op: expr.OpAdd, L: lhsExpr, R: expr.IntLit{Value: delta}}
		return b.buildAssignTo(target, value, dest, node.Range)
	}

	if node.Type == gast.UnaryExpression && (node.Child(0).TextOrEmpty() == "++" || node.Child(0).TextOrEmpty() == "--") {
		target := node.Child(1)
		delta := int64(1)
		if node.Child(0).TextOrEmpty() == "--" {
			delta = -1
		}
		lhsExpr, err := expr.FromAST(target, b.Env)
		if err != nil {
			return nil, err
		}
		value := expr.Binary{Op: expr.OpAdd, L: lhsExpr, R: expr.IntLit{Value: delta}}
		return b.buildAssignTo(target, value, dest, node.Range)
	}

	return nil, diagnostics.Newf(diagnostics.ErrUnsupportedSyntax, node.Range, "unsupported expression statement of type %q", node.Type)
}

func compoundOpToBinary(op string) (expr.BinaryOp, bool) {
	switch op {
	case "+=":
		return expr.OpAdd, true
	case "-=":
		return expr.OpSub, true
	case "*=":
		return expr.OpMul, true
	case "/=":
		return expr.OpDiv, true
	case "%=":
		return expr.OpMod, true
	default:
		return "", false
	}
}

// buildAssignTo builds an AssignNode for `lhs := value`, handling both
// plain-variable and array-index targets (`a[i] := Store(a,i,value)`).
func (b *Builder) buildAssignTo(lhs *gast.Node, value expr.Expr, dest Node, rng gast.Range) (Node, *diagnostics.Error) {
	if lhs.Type == gast.PostfixExpression && lhs.Child(1) != nil && lhs.Child(1).Type == gast.BracketLeft {
		arrayNode := lhs.Child(0)
		indexNode := lhs.Child(2)
		if arrayNode.Type != gast.Identifier {
			return nil, diagnostics.New(diagnostics.ErrUnsupportedSyntax, lhs.Range, "only simple array names can be assignment targets")
		}
		arrayExpr, err := expr.FromAST(arrayNode, b.Env)
		if err != nil {
			return nil, err
		}
		indexExpr, err := expr.FromAST(indexNode, b.Env)
		if err != nil {
			return nil, err
		}
		arrayVar := arrayExpr.(expr.Var)
		store := expr.ArrayStore{Array: arrayExpr, Index: indexExpr, Value: value}
		return &AssignNode{Var: arrayVar, Expression: store, Next: dest, Range: rng}, nil
	}

	if lhs.Type != gast.Identifier {
		return nil, diagnostics.New(diagnostics.ErrUnsupportedSyntax, lhs.Range, "unsupported assignment target")
	}
	ty, ok := b.Env.Lookup(lhs.TextOrEmpty())
	if !ok {
		return nil, diagnostics.Newf(diagnostics.ErrUnresolvedIdentifier, lhs.Range, "identifier %q is not in scope", lhs.TextOrEmpty())
	}
	renamed := b.Env.Rename(lhs.TextOrEmpty())
	return &AssignNode{Var: expr.Var{Name: renamed, Ty: ty}, Expression: value, Next: dest, Range: rng}, nil
}

// buildDeclaration handles `int x = e;` and `int x[];`.
func (b *Builder) buildDeclaration(node *gast.Node, dest Node) (Node, *diagnostics.Error) {
	specs := firstChildOfType(node, gast.DeclarationSpecifiers)
	tyName := ""
	if specs != nil && len(specs.Children) > 0 {
		tyName = specs.Children[0].TextOrEmpty()
	}
	scalarTy, ok := typesystem.FromName(tyName)
	if !ok {
		return nil, diagnostics.Newf(diagnostics.ErrUnknownParamType, node.Range, "unknown declared type %q", tyName)
	}

	initDecl := firstChildOfType(node, gast.InitDeclarator)
	if initDecl == nil {
		// A bare `int x;` with no initializer and no array brackets has no
		// well-defined initial value in this language; treat as unsupported.
		return nil, diagnostics.New(diagnostics.ErrUnsupportedSyntax, node.Range, "declarations must have an initializer or be array declarations")
	}

	declarator := initDecl.Child(0)
	if declarator.Type == gast.DirectDeclarator {
		// `int x[];` — array declaration, no initializer.
		nameNode := firstChildOfType(declarator, gast.Identifier)
		arrTy, err := typesystem.NewArray(scalarTy)
		if err != nil {
			return nil, diagnostics.New(diagnostics.ErrUnknownParamType, node.Range, err.Error())
		}
		b.Env.Declare(nameNode.TextOrEmpty(), arrTy)
		return dest, nil
	}

	if declarator.Type != gast.Identifier {
		return nil, diagnostics.New(diagnostics.ErrMultiDeclUnsupported, node.Range, "multi-variable declarations are not supported")
	}
	valueNode := initDecl.Child(2)
	value, err := expr.FromAST(valueNode, b.Env)
	if err != nil {
		return nil, err
	}
	renamed := b.Env.Declare(declarator.TextOrEmpty(), scalarTy)
	return &AssignNode{Var: expr.Var{Name: renamed, Ty: scalarTy}, Expression: value, Next: dest, Range: node.Range}, nil
}

func (b *Builder) buildSelection(node *gast.Node, dest Node) (Node, *diagnostics.Error) {
	if node.Child(0).TextOrEmpty() == "switch" {
		return b.buildSwitch(node, dest)
	}
	condNode := node.Child(2)
	cond, err := expr.FromAST(condNode, b.Env)
	if err != nil {
		return nil, err
	}
	thenStmt := node.Child(4)
	thenEntry, err := b.buildStatement(thenStmt, dest)
	if err != nil {
		return nil, err
	}
	elseEntry := dest
	if elseKw := firstChildOfType(node, gast.KwElse); elseKw != nil {
		elseStmt := node.Children[len(node.Children)-1]
		elseEntry, err = b.buildStatement(elseStmt, dest)
		if err != nil {
			return nil, err
		}
	}
	return &CondNode{Condition: cond, TrueBr: thenEntry, FalseBr: elseEntry, Range: node.Range}, nil
}

// buildSwitch emits a right-leaning chain of equality tests, per spec.md
// §4.2: `break` inside the switch jumps to dest (installed as loop_end for
// the duration, mirroring how `break` otherwise targets an enclosing
// loop's exit — a switch is break's nearest enclosing construct).
func (b *Builder) buildSwitch(node *gast.Node, dest Node) (Node, *diagnostics.Error) {
	subject, err := expr.FromAST(node.Child(2), b.Env)
	if err != nil {
		return nil, err
	}
	body := node.Children[len(node.Children)-1]
	items := blockItems(body)

	b.pushBreakOnly(dest)
	defer b.popBreakOnly()

	type switchCase struct {
		value *gast.Node // nil for default
		stmts []*gast.Node
	}
	var cases []switchCase
	var cur *switchCase
	for _, item := range items {
		if item.Type == gast.LabeledStatement {
			label := item.Child(0)
			var c switchCase
			if label.TextOrEmpty() == "default" {
				c = switchCase{value: nil}
			} else {
				c = switchCase{value: item.Child(1)}
			}
			cases = append(cases, c)
			cur = &cases[len(cases)-1]
			cur.stmts = append(cur.stmts, item.Children[len(item.Children)-1])
			continue
		}
		if cur == nil {
			continue
		}
		cur.stmts = append(cur.stmts, item)
	}

	entry := dest
	for i := len(cases) - 1; i >= 0; i-- {
		c := cases[i]
		caseEntry, err := b.buildBlockItemList(c.stmts, entry)
		if err != nil {
			return nil, err
		}
		if c.value == nil {
			entry = caseEntry
			continue
		}
		caseVal, err := expr.FromAST(c.value, b.Env)
		if err != nil {
			return nil, err
		}
		entry = &CondNode{Condition: expr.Rel{Op: expr.OpEq, L: subject, R: caseVal}, TrueBr: caseEntry, FalseBr: entry, Range: node.Range}
	}
	if len(cases) == 0 {
		return dest, nil
	}
	return entry, nil
}

func (b *Builder) buildIteration(node *gast.Node, dest Node) (Node, *diagnostics.Error) {
	switch node.Child(0).TextOrEmpty() {
	case "while":
		return b.buildWhile(node, dest)
	case "do":
		return b.buildDoWhile(node, dest)
	case "for":
		return b.buildFor(node, dest)
	default:
		return nil, diagnostics.Newf(diagnostics.ErrUnsupportedSyntax, node.Range, "unsupported iteration statement %q", node.Child(0).TextOrEmpty())
	}
}

// buildWhile creates the condition node up front (its TrueBr field stands
// in for the spec's Dummy placeholder: since CondNode is a mutable struct
// we already hold a pointer to, the loop back-edge is closed by a direct
// field assignment once bodyEntry is known, rather than a patch walk —
// equivalent to, and simpler than, routing through an explicit Dummy).
func (b *Builder) buildWhile(node *gast.Node, dest Node) (Node, *diagnostics.Error) {
	cond, err := expr.FromAST(node.Child(2), b.Env)
	if err != nil {
		return nil, err
	}
	condNode := &CondNode{Condition: cond, FalseBr: dest, Range: node.Range}

	b.pushLoop(condNode, dest)
	bodyEntry, err := b.buildStatement(node.Child(4), condNode)
	b.popLoop()
	if err != nil {
		return nil, err
	}
	condNode.TrueBr = bodyEntry
	return condNode, nil
}

func (b *Builder) buildDoWhile(node *gast.Node, dest Node) (Node, *diagnostics.Error) {
	// children: do, stmt, while, (, expr, ), ;
	condAst := node.Children[4]
	cond, err := expr.FromAST(condAst, b.Env)
	if err != nil {
		return nil, err
	}
	condNode := &CondNode{Condition: cond, FalseBr: dest, Range: node.Range}

	b.pushLoop(condNode, dest)
	bodyEntry, err := b.buildStatement(node.Child(1), condNode)
	b.popLoop()
	if err != nil {
		return nil, err
	}
	condNode.TrueBr = bodyEntry
	return bodyEntry, nil
}

// buildFor handles `for (init; cond; incr) body`. init and cond are
// expression_statement nodes (possibly an empty `;`); incr is a bare
// expression, or absent.
func (b *Builder) buildFor(node *gast.Node, dest Node) (Node, *diagnostics.Error) {
	b.openScope()
	defer b.closeScope()

	initStmt := node.Child(2)
	condStmt := node.Child(3)
	// The increment expression and body occupy the remaining children up
	// to the closing paren; the body is always last.
	bodyStmt := node.Children[len(node.Children)-1]
	var incrNode *gast.Node
	if len(node.Children) > 6 {
		incrNode = node.Children[4]
	}

	var cond expr.Expr
	if inner := condStmt.Child(0); inner != nil {
		c, err := expr.FromAST(inner, b.Env)
		if err != nil {
			return nil, err
		}
		cond = c
	} else {
		cond = expr.BoolLit{Value: true}
	}

	condNode := &CondNode{Condition: cond, FalseBr: dest, Range: node.Range}

	incrEntry := Node(condNode)
	if incrNode != nil {
		e, err := b.buildPlainExpressionStatement(incrNode, condNode)
		if err != nil {
			return nil, err
		}
		incrEntry = e
	}

	b.pushLoop(incrEntry, dest)
	bodyEntry, err := b.buildStatement(bodyStmt, incrEntry)
	b.popLoop()
	if err != nil {
		return nil, err
	}
	condNode.TrueBr = bodyEntry

	if inner := initStmt.Child(0); inner != nil {
		if initStmt.Type == gast.Declaration {
			return b.buildDeclaration(initStmt, condNode)
		}
		return b.buildPlainExpressionStatement(inner, condNode)
	}
	if initStmt.Type == gast.Declaration {
		return b.buildDeclaration(initStmt, condNode)
	}
	return condNode, nil
}

func (b *Builder) buildJump(node *gast.Node, dest Node) (Node, *diagnostics.Error) {
	switch node.Child(0).TextOrEmpty() {
	case "break":
		end, ok := b.curLoopEnd()
		if !ok {
			return nil, diagnostics.New(diagnostics.ErrBreakOutsideLoop, node.Range, "break outside a loop or switch")
		}
		return end, nil

	case "continue":
		start, ok := b.curLoopStart()
		if !ok {
			return nil, diagnostics.New(diagnostics.ErrContinueOutsideLoop, node.Range, "continue outside a loop")
		}
		return start, nil

	case "return":
		if node.Child(1) != nil && node.Child(1).Type != gast.Semicolon {
			value, err := expr.FromAST(node.Child(1), b.Env)
			if err != nil {
				return nil, err
			}
			ty, ok := b.Env.Lookup("ret")
			if !ok {
				ty = value.Type()
			}
			return &AssignNode{Var: expr.Var{Name: b.Env.Rename("ret"), Ty: ty}, Expression: value, Next: b.end, Range: node.Range}, nil
		}
		return b.end, nil

	case "goto":
		return nil, diagnostics.New(diagnostics.ErrGotoUnsupported, node.Range, "goto is not supported")

	default:
		return nil, diagnostics.Newf(diagnostics.ErrUnsupportedSyntax, node.Range, "unsupported jump statement %q", node.Child(0).TextOrEmpty())
	}
}
