// Package qe implements model-based projection for linear integer
// arithmetic with boolean variables.
package qe

import (
	"github.com/hornwork/spacer/pkg/expr"
)

// Implicant returns literals of f that are true in m and together imply
// f. It panics if m does not satisfy f.
func Implicant(f expr.Formula, m expr.Model) []expr.Formula {
	var out []expr.Formula
	var walk func(expr.Formula)
	walk = func(f expr.Formula) {
		switch t := f.(type) {
		case expr.Bool:
			if !t {
				panic("qe: model does not satisfy formula")
			}
		case expr.And:
			for _, g := range t {
				walk(g)
			}
		case expr.Or:
			for _, g := range t {
				if expr.Eval(g, m) {
					walk(g)
					return
				}
			}
			panic("qe: model does not satisfy formula")
		default:
			if !expr.Eval(f, m) {
				panic("qe: model does not satisfy formula")
			}
			out = append(out, f)
		}
	}
	walk(f)
	return out
}

// Project eliminates vars from f guided by m. The result is true in m,
// does not mention vars, and implies the existential closure of f over
// vars. Elimination is exact for variables that only occur with unit
// coefficients and falls back to substituting the model value otherwise.
func Project(vars []expr.Var, f expr.Formula, m expr.Model) expr.Formula {
	lits := Implicant(f, m)
	for i, l := range lits {
		lits[i] = strictify(l, m)
	}
	for _, v := range vars {
		lits = eliminate(v, lits, m)
	}
	return expr.Cube(lits)
}

// ProjectOnto keeps only the variables in keep.
func ProjectOnto(keep []expr.Var, f expr.Formula, m expr.Model) expr.Formula {
	kept := make(map[expr.Var]struct{}, len(keep))
	for _, v := range keep {
		kept[v] = struct{}{}
	}
	var vars []expr.Var
	for _, v := range expr.AllVars(f) {
		if _, ok := kept[v]; !ok {
			vars = append(vars, v)
		}
	}
	return Project(vars, f, m)
}

// strictify replaces a disequality by the strict inequality that holds
// in m.
func strictify(l expr.Formula, m expr.Model) expr.Formula {
	a, ok := l.(expr.Atom)
	if !ok || a.Op != expr.OpNe {
		return l
	}
	if a.Lin.Eval(m) < 0 {
		return expr.MkAtom(expr.OpLe, a.Lin.AddConst(1))
	}
	return expr.MkAtom(expr.OpLe, a.Lin.Scale(-1).AddConst(1))
}

func eliminate(v expr.Var, lits []expr.Formula, m expr.Model) []expr.Formula {
	var (
		rest           []expr.Formula
		eqs            []expr.Atom
		lowers, uppers []expr.Atom
		nonUnit        bool
	)
	for _, l := range lits {
		if isBoolLit(l, v) {
			// v only occurs here, so the literal can be dropped
			continue
		}
		a, ok := l.(expr.Atom)
		if !ok || a.Lin.Coeff(v) == 0 {
			rest = append(rest, l)
			continue
		}
		c := a.Lin.Coeff(v)
		if c != 1 && c != -1 {
			nonUnit = true
		}
		switch {
		case a.Op == expr.OpEq:
			eqs = append(eqs, a)
		case c < 0:
			lowers = append(lowers, a)
		default:
			uppers = append(uppers, a)
		}
	}
	if len(eqs)+len(lowers)+len(uppers) == 0 {
		return rest
	}

	for _, e := range eqs {
		if c := e.Lin.Coeff(v); c == 1 || c == -1 {
			// c*v + r = 0 gives v = -c*r
			return substitute(v, e.Lin.Without(v).Scale(-c), lits)
		}
	}
	if nonUnit || len(eqs) > 0 {
		return substitute(v, expr.K(m.Int(v)), lits)
	}
	if len(lowers) == 0 || len(uppers) == 0 {
		return rest
	}

	// -v + r <= 0 is the lower bound v >= r; take the largest one in m
	best := 0
	bestVal := lowers[0].Lin.Without(v).Eval(m)
	for i, l := range lowers[1:] {
		if val := l.Lin.Without(v).Eval(m); val > bestVal {
			best, bestVal = i+1, val
		}
	}
	return substitute(v, lowers[best].Lin.Without(v), lits)
}

func isBoolLit(l expr.Formula, v expr.Var) bool {
	switch t := l.(type) {
	case expr.Prop:
		return expr.Var(t) == v
	case expr.Not:
		p, ok := t.F.(expr.Prop)
		return ok && expr.Var(p) == v
	}
	return false
}

func substitute(v expr.Var, def expr.Linear, lits []expr.Formula) []expr.Formula {
	s := expr.Subst{Ints: map[expr.Var]expr.Linear{v: def}}
	out := make([]expr.Formula, 0, len(lits))
	for _, l := range lits {
		if isBoolLit(l, v) {
			continue
		}
		g := expr.Substitute(l, s)
		if b, ok := g.(expr.Bool); ok && bool(b) {
			continue
		}
		out = append(out, g)
	}
	return out
}
