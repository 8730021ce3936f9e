// Package function extracts a verifiable Function from a
// function_definition AST node, grounded on
// original_source/function.py's Function.from_ast.
package function

import (
	"github.com/twyair/verification-project/internal/ast"
	"github.com/twyair/verification-project/internal/cfg"
	"github.com/twyair/verification-project/internal/cutpoint"
	"github.com/twyair/verification-project/internal/diagnostics"
	"github.com/twyair/verification-project/internal/env"
	"github.com/twyair/verification-project/internal/expr"
	"github.com/twyair/verification-project/internal/typesystem"
)

// Function is a built, verifiable unit: its CFG, the cutpoints spliced in
// (non-nil only in Horn mode), and its variable vector split into
// parameters and locals (spec.md §3/§4.7).
type Function struct {
	Name      string
	CFG       *cfg.Graph
	Horn      bool
	Cutpoints []*cfg.CutpointNode
	Params    []expr.Var
	Vars      []expr.Var // locals only — params excluded
}

// FromAST builds a Function from a function_definition node. The
// `requires` leading-statement scan described in spec.md §4.7 is
// performed by cfg.Build itself while translating the body (it already
// walks every top-level statement in source order and must recognize
// requires() to enforce "only as the first statement" — duplicating that
// scan here would just be two passes over the same data), so FromAST
// does not re-scan the AST: the precondition stays on the built graph's
// Start node (CFG.Start.Requires).
func FromAST(node *ast.Node, horn bool) (*Function, *diagnostics.Error) {
	if node == nil || node.Type != ast.FunctionDefinition {
		return nil, diagnostics.NewNoRange(diagnostics.ErrUnknownNodeType, "function.FromAST requires a function_definition node")
	}

	declarator := firstChildOfType(node, ast.DirectDeclarator)
	if declarator == nil {
		return nil, diagnostics.New(diagnostics.ErrUnsupportedSyntax, node.Range, "function definition has no direct_declarator")
	}
	nameNode := firstChildOfType(declarator, ast.Identifier)
	if nameNode == nil {
		return nil, diagnostics.New(diagnostics.ErrUnsupportedSyntax, node.Range, "function definition has no name")
	}
	fnName := nameNode.TextOrEmpty()

	e := env.New()

	retType := ""
	if len(node.Children) > 0 {
		retType = node.Children[0].TextOrEmpty()
	}
	if retType != "void" {
		ty, ok := typesystem.FromName(retType)
		if !ok {
			return nil, diagnostics.Newf(diagnostics.ErrUnknownParamType, node.Range, "unknown return type %q", retType)
		}
		e.Declare("ret", ty)
	}

	paramNames, err := declareParams(declarator, e)
	if err != nil {
		return nil, err
	}

	body := node.Children[len(node.Children)-1]
	graph, err := cfg.Build(body, e)
	if err != nil {
		return nil, err
	}

	allVars := e.Vars()
	params := make([]expr.Var, 0, len(paramNames))
	for _, name := range paramNames {
		ty, ok := allVars[name]
		if !ok {
			continue
		}
		params = append(params, expr.Var{Name: name, Ty: ty})
		delete(allVars, name)
	}
	locals := make([]expr.Var, 0, len(allVars))
	for name, ty := range allVars {
		locals = append(locals, expr.Var{Name: name, Ty: ty})
	}

	fn := &Function{Name: fnName, CFG: graph, Horn: horn, Params: params, Vars: locals}
	if horn {
		fn.Cutpoints = cutpoint.Select(graph, append(append([]expr.Var{}, locals...), params...))
	}
	return fn, nil
}

// declareParams walks a direct_declarator's parameter_list, declaring
// each scalar or one-dimensional-array parameter into e, and returns the
// declared (unrenamed, since parameters are declared exactly once) names
// in source order.
func declareParams(declarator *ast.Node, e *env.Environment) ([]string, *diagnostics.Error) {
	paramList := declarator.Child(2)
	if paramList == nil || paramList.Type != ast.ParameterList {
		return nil, nil
	}
	var names []string
	for _, p := range paramList.Children {
		if p.Type != ast.ParameterDeclaration {
			continue
		}
		tyNode := p.Child(0)
		scalarTy, ok := typesystem.FromName(tyNode.TextOrEmpty())
		if !ok {
			return nil, diagnostics.Newf(diagnostics.ErrUnknownParamType, p.Range, "unknown parameter type %q", tyNode.TextOrEmpty())
		}
		declNode := p.Child(1)
		var name string
		ty := scalarTy
		if declNode.Type == ast.Identifier {
			name = declNode.TextOrEmpty()
		} else if declNode.Type == ast.DirectDeclarator && declNode.Child(0) != nil && declNode.Child(0).Type == ast.Identifier && declNode.Child(1) != nil && declNode.Child(1).Type == ast.BracketLeft {
			name = declNode.Child(0).TextOrEmpty()
			arrTy, aerr := typesystem.NewArray(scalarTy)
			if aerr != nil {
				return nil, diagnostics.New(diagnostics.ErrUnknownParamType, p.Range, aerr.Error())
			}
			ty = arrTy
		} else {
			return nil, diagnostics.New(diagnostics.ErrUnknownParamType, p.Range, "unsupported parameter declarator shape")
		}
		e.Declare(name, ty)
		names = append(names, name)
	}
	return names, nil
}

func firstChildOfType(node *ast.Node, ty ast.Type) *ast.Node {
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
