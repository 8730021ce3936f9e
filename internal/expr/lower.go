package expr

import (
	"fmt"

	"github.com/twyair/verification-project/internal/solver"
	"github.com/twyair/verification-project/internal/typesystem"
)

// LowerToSolver translates e into the backend's native term representation
// via b, grounded on original_source/expr.py's per-class as_z3 methods.
// Open Question 4 (spec.md §9) is resolved here: Exists over a numeric
// range lowers to a conjunction (lo ≤ v < hi ∧ body), not an implication —
// an implication would be vacuously true whenever no witness satisfies the
// range, defeating the existential's purpose.
func LowerToSolver(e Expr, b solver.Builder) (solver.Term, error) {
	switch t := e.(type) {
	case Var:
		return b.Const(t.Name, sortOf(t.Ty)), nil
	case IntLit:
		return b.IntLit(t.Value), nil
	case RealLit:
		return b.RealLit(t.Value), nil
	case BoolLit:
		return b.BoolLit(t.Value), nil

	case Binary:
		l, err := LowerToSolver(t.L, b)
		if err != nil {
			return nil, err
		}
		r, err := LowerToSolver(t.R, b)
		if err != nil {
			return nil, err
		}
		switch t.Op {
		case OpAdd:
			return b.Add(l, r), nil
		case OpSub:
			return b.Sub(l, r), nil
		case OpMul:
			return b.Mul(l, r), nil
		case OpDiv:
			return b.Div(l, r), nil
		case OpMod:
			return b.Mod(l, r), nil
		default:
			return nil, fmt.Errorf("expr: unknown binary operator %q", t.Op)
		}

	case Unary:
		operand, err := LowerToSolver(t.Operand, b)
		if err != nil {
			return nil, err
		}
		if t.Op == OpNeg {
			return b.Neg(operand), nil
		}
		return operand, nil

	case Rel:
		l, err := LowerToSolver(t.L, b)
		if err != nil {
			return nil, err
		}
		r, err := LowerToSolver(t.R, b)
		if err != nil {
			return nil, err
		}
		switch t.Op {
		case OpEq:
			return b.Eq(l, r), nil
		case OpNe:
			return b.Ne(l, r), nil
		case OpLt:
			return b.Lt(l, r), nil
		case OpLe:
			return b.Le(l, r), nil
		case OpGt:
			return b.Gt(l, r), nil
		case OpGe:
			return b.Ge(l, r), nil
		default:
			return nil, fmt.Errorf("expr: unknown relational operator %q", t.Op)
		}

	case And:
		args, err := lowerAll(t.Args, b)
		if err != nil {
			return nil, err
		}
		return b.And(args...), nil

	case Or:
		args, err := lowerAll(t.Args, b)
		if err != nil {
			return nil, err
		}
		return b.Or(args...), nil

	case Not:
		operand, err := LowerToSolver(t.Operand, b)
		if err != nil {
			return nil, err
		}
		return b.Not(operand), nil

	case Implies:
		p, err := LowerToSolver(t.P, b)
		if err != nil {
			return nil, err
		}
		q, err := LowerToSolver(t.Q, b)
		if err != nil {
			return nil, err
		}
		return b.Implies(p, q), nil

	case IfThenElse:
		c, err := LowerToSolver(t.Cond, b)
		if err != nil {
			return nil, err
		}
		then, err := LowerToSolver(t.Then, b)
		if err != nil {
			return nil, err
		}
		els, err := LowerToSolver(t.Else, b)
		if err != nil {
			return nil, err
		}
		return b.IfThenElse(c, then, els), nil

	case ArraySelect:
		arr, err := LowerToSolver(t.Array, b)
		if err != nil {
			return nil, err
		}
		idx, err := LowerToSolver(t.Index, b)
		if err != nil {
			return nil, err
		}
		return b.Select(arr, idx), nil

	case ArrayStore:
		arr, err := LowerToSolver(t.Array, b)
		if err != nil {
			return nil, err
		}
		idx, err := LowerToSolver(t.Index, b)
		if err != nil {
			return nil, err
		}
		val, err := LowerToSolver(t.Value, b)
		if err != nil {
			return nil, err
		}
		return b.Store(arr, idx, val), nil

	case AsInt:
		operand, err := LowerToSolver(t.Operand, b)
		if err != nil {
			return nil, err
		}
		return b.ToInt(operand), nil

	case AsReal:
		operand, err := LowerToSolver(t.Operand, b)
		if err != nil {
			return nil, err
		}
		return b.ToReal(operand), nil

	case Forall:
		vars := make([]solver.Term, len(t.Vars))
		for i, v := range t.Vars {
			vars[i] = b.Const(v.Name, sortOf(v.Ty))
		}
		body, err := LowerToSolver(t.Body, b)
		if err != nil {
			return nil, err
		}
		return b.Forall(vars, body), nil

	case ForallRange:
		v := b.Const(t.V.Name, sortOf(t.V.Ty))
		lo, err := LowerToSolver(t.Lo, b)
		if err != nil {
			return nil, err
		}
		hi, err := LowerToSolver(t.Hi, b)
		if err != nil {
			return nil, err
		}
		body, err := LowerToSolver(t.Body, b)
		if err != nil {
			return nil, err
		}
		inRange := b.And(b.Le(lo, v), b.Lt(v, hi))
		return b.Forall([]solver.Term{v}, b.Implies(inRange, body)), nil

	case Exists:
		v := b.Const(t.V.Name, sortOf(t.V.Ty))
		body, err := LowerToSolver(t.Body, b)
		if err != nil {
			return nil, err
		}
		if !t.Domain.IsRange() {
			return b.Exists([]solver.Term{v}, body), nil
		}
		lo, err := LowerToSolver(t.Domain.Lo, b)
		if err != nil {
			return nil, err
		}
		hi, err := LowerToSolver(t.Domain.Hi, b)
		if err != nil {
			return nil, err
		}
		inRange := b.And(b.Le(lo, v), b.Lt(v, hi))
		return b.Exists([]solver.Term{v}, b.And(inRange, body)), nil

	case Predicate:
		args, err := lowerAll(t.Args, b)
		if err != nil {
			return nil, err
		}
		sorts := make([]solver.Sort, len(t.ArgSorts))
		for i, s := range t.ArgSorts {
			sorts[i] = sortOf(s)
		}
		return b.Predicate(t.Name, sorts, args), nil

	default:
		return nil, fmt.Errorf("expr: unsupported variant %T in LowerToSolver", e)
	}
}

func lowerAll(args []Expr, b solver.Builder) ([]solver.Term, error) {
	out := make([]solver.Term, len(args))
	for i, a := range args {
		t, err := LowerToSolver(a, b)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func sortOf(t typesystem.Type) solver.Sort {
	switch tt := t.(type) {
	case typesystem.Array:
		element := sortOf(tt.Elem())
		return solver.Sort{Kind: solver.SortArray, Index: &solver.Sort{Kind: solver.SortInt}, Element: &element}
	default:
		switch t {
		case typesystem.Int:
			return solver.Sort{Kind: solver.SortInt}
		case typesystem.Real:
			return solver.Sort{Kind: solver.SortReal}
		case typesystem.Bool:
			return solver.Sort{Kind: solver.SortBool}
		default:
			return solver.Sort{Kind: solver.SortInt}
		}
	}
}
