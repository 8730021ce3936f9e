package expr

import (
	gast "github.com/twyair/verification-project/internal/ast"
	"github.com/twyair/verification-project/internal/diagnostics"
	"github.com/twyair/verification-project/internal/env"
	"github.com/twyair/verification-project/internal/typesystem"
)

// builtinHandler translates the argument list of a recognized `name(...)`
// call into an Expr. Statement-level builtins (assert, assume, requires,
// ensures, freeze, remember) are recognized by package cfg directly via
// CallArgs/SingleArg, since they need the raw proposition node rather than
// a fully-lowered Expr; this table only covers the expression-level forms
// that can appear nested inside an arbitrary expression.
type builtinHandler func(args *gast.Node, e *env.Environment) (Expr, *diagnostics.Error)

// builtins is the single dispatch table for expression-level built-in
// calls, grounded in the teacher's analyzer/builtins.go RegisterBuiltins
// single-registration-point pattern: one map, populated once, instead of a
// chain of if/else string comparisons scattered across the translator.
// It is filled in init because its handlers reach back into FromAST,
// which itself consults this table.
var builtins map[string]builtinHandler

func init() {
	builtins = map[string]builtinHandler{
		"forall": func(args *gast.Node, e *env.Environment) (Expr, *diagnostics.Error) {
			return fromQuantifier("forall", args, e)
		},
		"exists": func(args *gast.Node, e *env.Environment) (Expr, *diagnostics.Error) {
			return fromQuantifier("exists", args, e)
		},
		"then": fromThen,
	}
}

// dispatchBuiltin looks up name in builtins and, if present, translates
// args through the matching handler. handled is false when name isn't a
// recognized built-in, in which case the caller should treat the call as
// an error (ordinary function calls are not part of the expression
// language; spec.md §9).
func dispatchBuiltin(name string, args *gast.Node, e *env.Environment) (result Expr, handled bool, err *diagnostics.Error) {
	h, ok := builtins[name]
	if !ok {
		return nil, false, nil
	}
	result, err = h(args, e)
	return result, true, err
}

func fromThen(args *gast.Node, e *env.Environment) (Expr, *diagnostics.Error) {
	if args == nil {
		return nil, diagnostics.NewNoRange(diagnostics.ErrUnsupportedSyntax, "then() requires arguments")
	}
	if args.Child(0) != nil && args.Child(0).Type == gast.ArgumentExpressionList {
		// 3-argument form: then(c, t, e) -> IfThenElse.
		inner := args.Child(0)
		c, err := FromAST(inner.Child(0), e)
		if err != nil {
			return nil, err
		}
		t, err := FromAST(inner.Child(2), e)
		if err != nil {
			return nil, err
		}
		elseExpr, err := FromAST(args.Child(2), e)
		if err != nil {
			return nil, err
		}
		return IfThenElse{Cond: c, Then: t, Else: elseExpr}, nil
	}
	// 2-argument form: then(p, q) -> Implies.
	p, err := FromAST(args.Child(0), e)
	if err != nil {
		return nil, err
	}
	q, err := FromAST(args.Child(2), e)
	if err != nil {
		return nil, err
	}
	return Implies{P: p, Q: q}, nil
}

func fromQuantifier(quantifier string, args *gast.Node, e *env.Environment) (Expr, *diagnostics.Error) {
	if args == nil || args.Child(0) == nil {
		return nil, diagnostics.NewNoRange(diagnostics.ErrMalformedQuantifier, quantifier+"() requires a binder and a body")
	}
	binder := args.Child(0)
	varNode := binder.Child(0)
	domainNode := binder.Child(2)
	if varNode == nil || varNode.Type != gast.Identifier || domainNode == nil {
		return nil, diagnostics.New(diagnostics.ErrMalformedQuantifier, binder.Range, "malformed quantifier binder")
	}
	varName := varNode.TextOrEmpty()

	var domainTy typesystem.Type
	var lo, hi Expr
	isRange := false
	if domainNode.Type == gast.Identifier {
		ty, ok := typesystem.FromName(domainNode.TextOrEmpty())
		if !ok {
			return nil, diagnostics.Newf(diagnostics.ErrMalformedQuantifier, domainNode.Range, "unknown domain type %q", domainNode.TextOrEmpty())
		}
		domainTy = ty
	} else {
		// range(lo, hi): domainNode is a postfix call; its argument list is child(2).
		rangeArgs := domainNode.Child(2)
		if rangeArgs == nil || rangeArgs.Child(0) == nil || rangeArgs.Child(2) == nil {
			return nil, diagnostics.New(diagnostics.ErrMalformedQuantifier, domainNode.Range, "malformed range domain")
		}
		var err *diagnostics.Error
		lo, err = FromAST(rangeArgs.Child(0), e)
		if err != nil {
			return nil, err
		}
		hi, err = FromAST(rangeArgs.Child(2), e)
		if err != nil {
			return nil, err
		}
		isRange = true
		domainTy = typesystem.Int
	}

	e.OpenScope()
	renamed := e.Declare(varName, domainTy)
	// Exclude the quantified variable from the free-variable universe
	// for the duration of the body translation (spec.md §4.1).
	e.Forget(renamed)
	body, err := FromAST(args.Child(2), e)
	e.CloseScope()
	if err != nil {
		return nil, err
	}
	v := Var{Name: renamed, Ty: domainTy}

	switch quantifier {
	case "forall":
		if isRange {
			return ForallRange{V: v, Lo: lo, Hi: hi, Body: body}, nil
		}
		return Forall{Vars: []Var{v}, Body: body}, nil
	case "exists":
		if isRange {
			return Exists{V: v, Domain: ExistsDomain{Lo: lo, Hi: hi}, Body: body}, nil
		}
		return Exists{V: v, Domain: ExistsDomain{Ty: domainTy}, Body: body}, nil
	default:
		return nil, diagnostics.NewNoRange(diagnostics.ErrMalformedQuantifier, "unknown quantifier "+quantifier)
	}
}

// IsBuiltinCallName reports whether name is one of the spec's recognized
// specification-construct identifiers, used by package cfg to recognize
// statement-level builtins before falling through to ordinary expression
// translation.
func IsBuiltinCallName(name string) bool {
	switch name {
	case "assert", "assume", "requires", "ensures", "freeze", "remember", "forall", "exists", "then":
		return true
	default:
		return false
	}
}

// CallArgs returns the raw argument list node of a `name(...)` postfix-call
// shape, or nil if node isn't one.
func CallArgs(node *gast.Node) (name string, args *gast.Node, ok bool) {
	if node == nil || node.Type != gast.PostfixExpression {
		return "", nil, false
	}
	if node.Child(0) == nil || node.Child(0).Type != gast.Identifier {
		return "", nil, false
	}
	if node.Child(1) == nil || node.Child(1).Type != gast.ParenLeft {
		return "", nil, false
	}
	return node.Child(0).TextOrEmpty(), node.Child(2), true
}

// SingleArg returns the sole argument expression of a `name(p)` call's
// argument list (used for assert/assume/requires/ensures/remember, all of
// which take exactly one proposition).
func SingleArg(args *gast.Node) *gast.Node {
	if args == nil {
		return nil
	}
	if args.Type == gast.ArgumentExpressionList {
		return args.Child(0)
	}
	return args
}
