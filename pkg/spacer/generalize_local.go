package spacer

import (
	"context"

	"github.com/hornwork/spacer/pkg/expr"
	"github.com/hornwork/spacer/pkg/oracle"
	"github.com/hornwork/spacer/pkg/qe"
)

// InductiveGeneralizer weakens a lemma's cube while it stays inductive
// relative to the frame below the lemma's level. It drops literals,
// replaces a cube over several variables by its projection onto one of
// them, and relaxes single variable bounds as far as they stay
// inductive.
type InductiveGeneralizer struct {
	c *Context
}

// weakening is the cube under construction and the level it is known to
// hold at.
type weakening struct {
	pt      *PredTransformer
	level   int
	cube    []expr.Formula
	changed bool
}

// try replaces the cube by the part of candidate the inductiveness proof
// needed, if candidate is inductive.
func (w *weakening) try(ctx context.Context, candidate []expr.Formula) (bool, error) {
	core, uses, ok, err := w.pt.CheckInductive(ctx, w.level, candidate)
	if err != nil || !ok {
		return false, err
	}
	w.cube = core
	w.level = maxLevel(w.level, uses)
	w.changed = true
	return true, nil
}

func (g *InductiveGeneralizer) Generalize(ctx context.Context, l *Lemma, n *Pob) error {
	c := g.c
	if !c.cfg.LocalGeneralization {
		return nil
	}
	w := &weakening{pt: l.pt, level: l.level, cube: l.cube}

	expanded := expr.ExpandEqualities(l.cube)
	if len(expanded) != len(l.cube) {
		ok, err := w.try(ctx, expanded)
		if err != nil {
			return err
		}
		// splitting an equality is only worth keeping if a later step
		// makes use of it
		w.changed = ok && (len(w.cube) < len(expanded) || w.level > l.level)
	}

	limit := c.cfg.FailureLimit - n.weakness
	if limit < 1 {
		limit = 1
	}
	if err := w.drop(ctx, limit); err != nil {
		return err
	}
	if err := w.project(ctx); err != nil {
		return err
	}
	if err := w.expandBounds(ctx, c.cfg.DomainWidth); err != nil {
		return err
	}

	if !w.changed {
		c.stats.LocalGenFailure++
		return nil
	}
	c.stats.LocalGenSuccess++
	l.setCube(w.cube)
	l.setLevel(w.level)
	return nil
}

// drop removes literals one at a time, giving up after limit failures.
func (w *weakening) drop(ctx context.Context, limit int) error {
	failures := 0
	for i := 0; i < len(w.cube) && len(w.cube) > 1 && failures < limit; {
		if err := checkpoint(ctx); err != nil {
			return err
		}
		candidate := make([]expr.Formula, 0, len(w.cube)-1)
		candidate = append(candidate, w.cube[:i]...)
		candidate = append(candidate, w.cube[i+1:]...)
		ok, err := w.try(ctx, candidate)
		if err != nil {
			return err
		}
		if !ok {
			failures++
			i++
		}
	}
	return nil
}

// project tries the projection of the cube onto each of its variables.
// A projection covers the whole cube, so blocking it still blocks the
// obligation.
func (w *weakening) project(ctx context.Context) error {
	vars := cubeVars(w.cube)
	if len(w.cube) < 2 || len(vars) < 2 {
		return nil
	}
	res, m, _, err := w.pt.check(ctx, w.cube, nil)
	if err != nil || res != oracle.Sat {
		return err
	}
	f := expr.MkAnd(w.cube...)
	for _, v := range vars {
		if err := checkpoint(ctx); err != nil {
			return err
		}
		r := expr.Conjuncts(qe.ProjectOnto([]expr.Var{v}, f, m))
		if len(r) == 0 {
			continue
		}
		res, _, _, err := w.pt.check(ctx, []expr.Formula{f, expr.MkNot(expr.MkAnd(r...))}, nil)
		if err != nil {
			return err
		}
		if res != oracle.Unsat {
			continue
		}
		ok, err := w.try(ctx, r)
		if err != nil || ok {
			return err
		}
	}
	return nil
}

// expandBounds relaxes every single variable upper bound, and through
// its normal form every lower bound, by binary search over the constant.
func (w *weakening) expandBounds(ctx context.Context, width int) error {
	for i := 0; i < len(w.cube); i++ {
		a, ok := w.cube[i].(expr.Atom)
		if !ok || a.Op != expr.OpLe || len(a.Lin.Terms) != 1 {
			continue
		}
		// below lo the bound holds for every value of the domain
		lo := -(abs64(a.Lin.Terms[0].Coeff) << uint(width-1))
		hi := a.Lin.Const
		var best []expr.Formula
		bestUses := 0
		for hi-lo > 1 {
			if err := checkpoint(ctx); err != nil {
				return err
			}
			mid := lo + (hi-lo)/2
			candidate := make([]expr.Formula, len(w.cube))
			copy(candidate, w.cube)
			candidate[i] = expr.MkAtom(expr.OpLe, a.Lin.AddConst(mid-a.Lin.Const))
			_, uses, ok, err := w.pt.CheckInductive(ctx, w.level, candidate)
			if err != nil {
				return err
			}
			if ok {
				hi, best, bestUses = mid, candidate, uses
			} else {
				lo = mid
			}
		}
		if best != nil {
			w.cube = best
			w.level = maxLevel(w.level, bestUses)
			w.changed = true
		}
	}
	return nil
}

func cubeVars(cube []expr.Formula) []expr.Var {
	seen := make(map[expr.Var]struct{})
	var out []expr.Var
	for _, l := range cube {
		for _, v := range expr.AllVars(l) {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func abs64(k int64) int64 {
	if k < 0 {
		return -k
	}
	return k
}

func maxLevel(a, b int) int {
	if a > b {
		return a
	}
	return b
}
