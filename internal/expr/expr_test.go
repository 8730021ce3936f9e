package expr

import (
	"reflect"
	"testing"

	"github.com/twyair/verification-project/internal/typesystem"
)

func v(name string) Var { return Var{Name: name, Ty: typesystem.Int} }

func sampleExprs() []Expr {
	a, b, c := v("a"), v("b"), v("c")
	return []Expr{
		IntLit{Value: 3},
		BoolLit{Value: true},
		a,
		Binary{Op: OpAdd, L: a, R: IntLit{Value: 1}},
		Rel{Op: OpLt, L: a, R: b},
		And{Args: []Expr{Rel{Op: OpLe, L: a, R: b}, Rel{Op: OpLe, L: b, R: c}}},
		Or{Args: []Expr{Rel{Op: OpEq, L: a, R: b}, Rel{Op: OpEq, L: a, R: c}}},
		Not{Operand: Rel{Op: OpEq, L: a, R: b}},
		Implies{P: Rel{Op: OpLt, L: a, R: b}, Q: Rel{Op: OpLe, L: a, R: b}},
		IfThenElse{Cond: Rel{Op: OpGe, L: a, R: b}, Then: a, Else: b},
		Forall{Vars: []Var{a}, Body: Rel{Op: OpGe, L: a, R: IntLit{Value: 0}}},
		ForallRange{V: a, Lo: IntLit{Value: 0}, Hi: b, Body: Rel{Op: OpGe, L: a, R: IntLit{Value: 0}}},
		Predicate{Name: "inv", Args: []Expr{a, b}, ArgSorts: []typesystem.Type{typesystem.Int, typesystem.Int}},
	}
}

func TestSubstitutionIdentity(t *testing.T) {
	for _, e := range sampleExprs() {
		got := e.Assign(Subst{})
		if !reflect.DeepEqual(got, e) {
			t.Errorf("identity substitution changed %s: got %s", e, got)
		}
	}
}

func TestSubstitutionIdempotenceOnClosedTerms(t *testing.T) {
	e := Rel{Op: OpLt, L: v("x"), R: IntLit{Value: 5}}
	s := Subst{"y": IntLit{Value: 9}}
	got := e.Assign(s)
	if !reflect.DeepEqual(got, e) {
		t.Errorf("substitution of a variable not free in e changed it: got %s, want %s", got, e)
	}
}

func TestSubstitutionComposition(t *testing.T) {
	x, y, z := v("x"), v("y"), v("z")
	e := Binary{Op: OpAdd, L: x, R: y}
	s1 := Subst{"x": z}
	s2 := Subst{"y": IntLit{Value: 2}}

	lhs := e.Assign(s1).Assign(s2)
	rhs := e.Assign(Compose(s2, s1))
	if !reflect.DeepEqual(lhs, rhs) {
		t.Errorf("composition law failed: e.Assign(s1).Assign(s2) = %s, e.Assign(Compose(s2,s1)) = %s", lhs, rhs)
	}
}

func TestForallShadowsSubstitution(t *testing.T) {
	a := v("a")
	f := Forall{Vars: []Var{a}, Body: Rel{Op: OpGe, L: a, R: IntLit{Value: 0}}}
	s := Subst{"a": IntLit{Value: 42}}
	got := f.Assign(s)
	if !reflect.DeepEqual(got, f) {
		t.Errorf("substitution for a name bound by Forall must not reach the body: got %s, want %s", got, f)
	}
}

func TestForallRangeShadowsSubstitution(t *testing.T) {
	a, b := v("a"), v("b")
	f := ForallRange{V: a, Lo: IntLit{Value: 0}, Hi: b, Body: Rel{Op: OpGe, L: a, R: IntLit{Value: 0}}}
	s := Subst{"a": IntLit{Value: 42}}
	got := f.Assign(s).(ForallRange)
	if !reflect.DeepEqual(got.Body, f.Body) {
		t.Errorf("ForallRange bound var leaked into substitution: got %s", got.Body)
	}
	// Lo/Hi are not bound, so a free substitution on b should still apply there.
	s2 := Subst{"b": IntLit{Value: 7}}
	got2 := f.Assign(s2).(ForallRange)
	want := IntLit{Value: 7}
	if !reflect.DeepEqual(got2.Hi, want) {
		t.Errorf("ForallRange.Hi should be substituted: got %s, want %s", got2.Hi, want)
	}
}

func TestTypePreservation(t *testing.T) {
	for _, e := range sampleExprs() {
		want := e.Type()
		got := e.Assign(Subst{"a": IntLit{Value: 1}, "b": IntLit{Value: 2}, "c": IntLit{Value: 3}}).Type()
		if !typesystem.Equal(want, got) {
			t.Errorf("type changed under substitution for %s: %s != %s", e, want, got)
		}
	}
}

func TestSortedVarNamesIsStableAndSorted(t *testing.T) {
	vars := []Var{v("z"), v("a"), v("m")}
	got := SortedVarNames(vars)
	want := []string{"a", "m", "z"}
	for i, g := range got {
		if g.Name != want[i] {
			t.Fatalf("SortedVarNames[%d] = %s, want %s", i, g.Name, want[i])
		}
	}
	// original slice must be untouched (fresh allocation, no aliasing).
	if vars[0].Name != "z" {
		t.Fatalf("SortedVarNames mutated its input")
	}
}

func TestComposeDisjointDomains(t *testing.T) {
	s1 := Subst{"x": IntLit{Value: 1}}
	s2 := Subst{"y": IntLit{Value: 2}}
	composed := Compose(s2, s1)
	if len(composed) != 2 {
		t.Fatalf("Compose of disjoint substitutions should have 2 entries, got %d", len(composed))
	}
}
