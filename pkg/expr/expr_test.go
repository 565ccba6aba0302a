package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMkAtomNormalization(t *testing.T) {
	x, y := V("x"), V("y")

	type tc struct {
		Name     string
		Formula  Formula
		Expected string
	}

	for _, tt := range []tc{
		{
			Name:     "divides inequality by gcd rounding down",
			Formula:  Le(x.Scale(2), K(5)),
			Expected: "(<= x 2)",
		},
		{
			Name:     "equality without integer solution",
			Formula:  Eq(x.Scale(2), K(5)),
			Expected: "false",
		},
		{
			Name:     "disequality without integer solution",
			Formula:  Ne(x.Scale(2), K(5)),
			Expected: "true",
		},
		{
			Name:     "equality gets positive leading coefficient",
			Formula:  Eq(x.Scale(-1), K(3)),
			Expected: "(= x -3)",
		},
		{
			Name:     "strict inequality",
			Formula:  Lt(x, y),
			Expected: "(<= (+ x (- y)) -1)",
		},
		{
			Name:     "ground atom",
			Formula:  Le(K(1), K(2)),
			Expected: "true",
		},
		{
			Name:     "negated inequality",
			Formula:  MkNot(Le(x, K(3))),
			Expected: "(<= (- x) -4)",
		},
		{
			Name:     "negated equality",
			Formula:  MkNot(Eq(x, y)),
			Expected: "(distinct (+ x (- y)) 0)",
		},
		{
			Name:     "complementary literals",
			Formula:  MkAnd(Le(x, K(3)), Gt(x, K(3))),
			Expected: "false",
		},
		{
			Name:     "complementary props",
			Formula:  MkOr(Prop("b"), MkNot(Prop("b"))),
			Expected: "true",
		},
		{
			Name:     "nested conjunctions flatten",
			Formula:  MkAnd(Le(x, K(1)), MkAnd(True, Le(y, K(2)), Le(x, K(1)))),
			Expected: "(and (<= x 1) (<= y 2))",
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			assert.Equal(t, tt.Expected, tt.Formula.String())
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, src := range []string{
		"(and (<= x 10) (>= x 0))",
		"(or b (not c) (= (+ x y) 3))",
		"(=> (< x 3) (distinct (* 2 y) (- x 1)))",
		"(and (<= (+ (* 3 x) (- y)) -7) true)",
		"(> (- x y z) (+ 1 2))",
	} {
		t.Run(src, func(t *testing.T) {
			f, err := ParseFormula(src)
			require.NoError(t, err)
			g, err := ParseFormula(f.String())
			require.NoError(t, err)
			assert.Equal(t, f.String(), g.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"(and (<= x 10)",
		"(<= x)",
		"(* x y)",
		"(frobnicate x)",
		"(<= x 1))",
		"3",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := ParseFormula(src)
			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestConnectivesFoldConstants(t *testing.T) {
	x := Le(V("x"), K(3))
	p := Prop("p")

	type tc struct {
		Name     string
		Formula  Formula
		Expected Formula
	}

	for _, tt := range []tc{
		{Name: "and with false", Formula: MkAnd(x, False), Expected: False},
		{Name: "and with true", Formula: MkAnd(True, x), Expected: x},
		{Name: "and of nothing", Formula: MkAnd(), Expected: True},
		{Name: "and with a complement", Formula: MkAnd(p, x, MkNot(p)), Expected: False},
		{Name: "or with true", Formula: MkOr(x, True), Expected: True},
		{Name: "or with false", Formula: MkOr(False, x), Expected: x},
		{Name: "or of nothing", Formula: MkOr(), Expected: False},
		{Name: "nested false", Formula: MkAnd(x, MkAnd(p, False)), Expected: False},
		{Name: "nested true", Formula: MkOr(p, MkOr(x, True)), Expected: True},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			assert.Equal(t, tt.Expected.String(), tt.Formula.String())
		})
	}
}

func TestEval(t *testing.T) {
	m := NewModel()
	m.SetInt("x", 4)
	m.SetInt("y", -2)
	m.SetBool("b", true)

	for _, tt := range []struct {
		Src      string
		Expected bool
	}{
		{Src: "(<= x 4)", Expected: true},
		{Src: "(< x 4)", Expected: false},
		{Src: "(= (+ x y) 2)", Expected: true},
		{Src: "(and b (distinct x y))", Expected: true},
		{Src: "(or (not b) (> y 0))", Expected: false},
		{Src: "(=> (> x 10) (< y -100))", Expected: true},
		{Src: "(= z 0)", Expected: true},
	} {
		t.Run(tt.Src, func(t *testing.T) {
			assert.Equal(t, tt.Expected, Eval(MustParseFormula(tt.Src), m))
		})
	}
}

func TestSubstituteIsSimultaneous(t *testing.T) {
	f := MustParseFormula("(<= (+ x (* 2 y)) 5)")
	g := Substitute(f, Subst{Ints: map[Var]Linear{"x": V("y"), "y": V("x")}})
	assert.Equal(t, MustParseFormula("(<= (+ y (* 2 x)) 5)").String(), g.String())
}

func TestRenameAndVars(t *testing.T) {
	f := MustParseFormula("(and (<= (+ x y) 5) b)")
	g := RenameMap(f, map[Var]Var{"x": "x'", "b": "b'"})
	ints, bools := Vars(g)
	assert.Equal(t, []Var{"x'", "y"}, ints)
	assert.Equal(t, []Var{"b'"}, bools)
	assert.True(t, Mentions(g, "y"))
	assert.False(t, Mentions(g, "x"))
}

func TestLitImplies(t *testing.T) {
	for _, tt := range []struct {
		A, B     string
		Expected bool
	}{
		{A: "(<= x 3)", B: "(<= x 5)", Expected: true},
		{A: "(<= x 5)", B: "(<= x 3)", Expected: false},
		{A: "(= x 2)", B: "(<= x 3)", Expected: true},
		{A: "(= x 2)", B: "(>= x 3)", Expected: false},
		{A: "(>= x 6)", B: "(>= x 4)", Expected: true},
		{A: "(<= x 3)", B: "(distinct x 5)", Expected: true},
		{A: "(<= x 3)", B: "(distinct x 2)", Expected: false},
		{A: "(<= (* 2 x) 6)", B: "(< x 4)", Expected: true},
		{A: "(<= x 3)", B: "(<= y 3)", Expected: false},
		{A: "false", B: "(<= y 3)", Expected: true},
	} {
		t.Run(tt.A+" => "+tt.B, func(t *testing.T) {
			assert.Equal(t, tt.Expected, LitImplies(MustParseFormula(tt.A), MustParseFormula(tt.B)))
		})
	}
}

func TestCubeImplies(t *testing.T) {
	strong := Conjuncts(MustParseFormula("(and (>= x 6) (<= y 0))"))
	weak := Conjuncts(MustParseFormula("(>= x 4)"))
	assert.True(t, CubeImplies(strong, weak))
	assert.False(t, CubeImplies(weak, strong))
}

func TestExpandEqualities(t *testing.T) {
	lits := ExpandEqualities([]Formula{MustParseFormula("(= x 100)"), Prop("b")})
	require.Len(t, lits, 3)
	assert.Equal(t, "(<= x 100)", lits[0].String())
	assert.Equal(t, "(<= (- x) -100)", lits[1].String())
	assert.Equal(t, "b", lits[2].String())
}
