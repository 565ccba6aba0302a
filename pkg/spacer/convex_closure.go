package spacer

import (
	"github.com/hornwork/spacer/pkg/expr"
	"github.com/hornwork/spacer/pkg/kernel"
)

// convexClosure describes a convex set over the variables hole!i that
// contains every point. Equalities come from the affine dependencies of
// the points. A one dimensional hull is bounded by the extreme values of
// a varying coordinate; larger hulls are written as combinations of the
// points with weights mu!j/scale. aux lists the weight variables, which
// the caller projects away.
func convexClosure(points [][]int64, scale int64) (lits []expr.Formula, aux []expr.Var) {
	dim := len(points[0])
	deps, ok := kernel.LinearDeps(points)
	if !ok {
		return boundingBox(points), nil
	}
	for _, d := range deps {
		terms := make([]expr.Term, 0, dim)
		for i := 0; i < dim; i++ {
			terms = append(terms, expr.Term{Var: holeVar(i), Coeff: d[i]})
		}
		lits = append(lits, expr.MkAtom(expr.OpEq, expr.NewLinear(terms, d[dim])))
	}

	if dim-len(deps) <= 1 {
		for i := 0; i < dim; i++ {
			lo, hi := extent(points, i)
			if lo != hi {
				h := expr.V(holeVar(i))
				lits = append(lits, expr.Ge(h, expr.K(lo)), expr.Le(h, expr.K(hi)))
				break
			}
		}
		return lits, nil
	}

	for j := range points {
		aux = append(aux, muVar(j))
	}
	for i := 0; i < dim; i++ {
		terms := []expr.Term{{Var: holeVar(i), Coeff: scale}}
		for j, p := range points {
			terms = append(terms, expr.Term{Var: aux[j], Coeff: -p[i]})
		}
		lits = append(lits, expr.MkAtom(expr.OpEq, expr.NewLinear(terms, 0)))
	}
	sum := make([]expr.Term, len(aux))
	for j, mu := range aux {
		sum[j] = expr.Term{Var: mu, Coeff: 1}
		lits = append(lits, expr.Ge(expr.V(mu), expr.K(0)), expr.Le(expr.V(mu), expr.K(scale)))
	}
	lits = append(lits, expr.MkAtom(expr.OpEq, expr.NewLinear(sum, -scale)))
	return lits, aux
}

func boundingBox(points [][]int64) []expr.Formula {
	var lits []expr.Formula
	for i := range points[0] {
		lo, hi := extent(points, i)
		h := expr.V(holeVar(i))
		lits = append(lits, expr.Ge(h, expr.K(lo)), expr.Le(h, expr.K(hi)))
	}
	return lits
}

func extent(points [][]int64, i int) (lo, hi int64) {
	lo, hi = points[0][i], points[0][i]
	for _, p := range points[1:] {
		if p[i] < lo {
			lo = p[i]
		}
		if p[i] > hi {
			hi = p[i]
		}
	}
	return lo, hi
}
