package spacer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/hornwork/spacer/pkg/expr"
	"github.com/hornwork/spacer/pkg/oracle"
	"github.com/hornwork/spacer/pkg/qe"
)

// GlobalGeneralizer looks at the cluster of a new lemma and proposes a
// may obligation for a cube that covers every member. Proving that cube
// unreachable yields one lemma subsuming the whole cluster.
type GlobalGeneralizer struct {
	c *Context
}

func (g *GlobalGeneralizer) Generalize(ctx context.Context, l *Lemma, n *Pob) error {
	c := g.c
	if !c.cfg.GlobalGeneralization || len(l.cube) == 0 {
		return nil
	}
	cl := c.clusters.find(l.pt, l.cube)
	if cl == nil {
		return nil
	}
	if cl.gas <= 0 {
		c.stats.ClusterOutOfGas++
		return nil
	}
	log := l.pt.log.WithFields(logrus.Fields{"pattern": cl.pattern.String(), "lemma": l.body.String()})

	if !cl.pattern.IsLinear() {
		n.concretize = cl.pattern
		cl.gas--
		log.Debug("concretize")
		return nil
	}

	cube, err := g.subsume(ctx, cl, l)
	if err != nil {
		return err
	}
	if cube == nil {
		cube = g.conjecture(cl, l)
	}
	if cube == nil {
		return nil
	}
	cl.gas--
	log.WithField("cube", expr.MkAnd(cube...).String()).Debug("may obligation")
	g.propose(cl, l, n, cube)
	return nil
}

// subsume computes a cube that contains the cube of every member and of
// l, using the convex closure of their hole values.
func (g *GlobalGeneralizer) subsume(ctx context.Context, cl *LemmaCluster, l *Lemma) ([]expr.Formula, error) {
	c := g.c
	var points [][]int64
	var cubes []expr.Formula
	seen := make(map[string]bool)
	addPoint := func(cube []expr.Formula, sub []int64) {
		k := expr.MkAnd(cube...).String()
		if seen[k] {
			return
		}
		seen[k] = true
		points = append(points, sub)
		cubes = append(cubes, expr.MkAnd(cube...))
	}
	for _, m := range cl.live() {
		addPoint(m.lemma.cube, m.sub)
	}
	if sub, ok := cl.pattern.Match(l.cube); ok {
		addPoint(l.cube, sub)
	}
	if len(points) < 2 {
		return nil, nil
	}

	closure, aux := convexClosure(points, int64(c.cfg.ClosureScale))
	body := append(cl.pattern.Formula(), closure...)
	outside := append([]expr.Formula{}, body...)
	for _, cube := range cubes {
		outside = append(outside, expr.MkNot(cube))
	}
	res, m, _, err := l.pt.check(ctx, outside, nil)
	if err != nil {
		return nil, err
	}
	if res != oracle.Sat {
		res, m, _, err = l.pt.check(ctx, body, nil)
		if err != nil {
			return nil, err
		}
		if res != oracle.Sat {
			c.stats.SubsumeFailure++
			return nil, nil
		}
	}
	vars := make([]expr.Var, 0, cl.pattern.Holes+len(aux))
	for i := 0; i < cl.pattern.Holes; i++ {
		vars = append(vars, holeVar(i))
	}
	vars = append(vars, aux...)
	lits := expr.Conjuncts(qe.Project(vars, expr.MkAnd(body...), m))

	// Drop literals until every member is covered.
	members := expr.MkOr(cubes...)
	for len(lits) > 0 {
		if err := checkpoint(ctx); err != nil {
			return nil, err
		}
		res, m, _, err := l.pt.check(ctx, []expr.Formula{members, expr.MkNot(expr.MkAnd(lits...))}, nil)
		if err != nil {
			return nil, err
		}
		if res == oracle.Unsat {
			break
		}
		if res != oracle.Sat {
			c.stats.SubsumeFailure++
			return nil, nil
		}
		kept := lits[:0:0]
		for _, lit := range lits {
			if expr.Eval(lit, m) {
				kept = append(kept, lit)
			}
		}
		lits = kept
	}
	if len(lits) == 0 || cubeEqual(lits, l.cube) {
		c.stats.SubsumeFailure++
		return nil, nil
	}
	c.stats.Subsumed++
	return lits, nil
}

// conjecture drops the only literal of l that the pattern abstracts.
func (g *GlobalGeneralizer) conjecture(cl *LemmaCluster, l *Lemma) []expr.Formula {
	holes := cl.pattern.holeLits()
	if len(holes) != 1 || len(cl.pattern.Lits) < 2 {
		return nil
	}
	cube := byShape(l.cube)
	out := append(append([]expr.Formula{}, cube[:holes[0]]...), cube[holes[0]+1:]...)
	g.c.stats.Conjectures++
	return out
}

// propose turns cube into a may obligation. A may obligation that was
// itself blocked is rewritten in place.
func (g *GlobalGeneralizer) propose(cl *LemmaCluster, l *Lemma, n *Pob, cube []expr.Formula) {
	c := g.c
	if n.may {
		n.NewPost(cube)
		return
	}
	lvl := cl.minLevel()
	if l.level < lvl {
		lvl = l.level
	}
	level := nextLevel(lvl)
	if level > c.queue.MaxLevel() {
		level = c.queue.MaxLevel()
	}
	kid := c.pobs.newPob(l.pt, n.parent, cube, level, n.depth)
	kid.may = true
	kid.gas = c.cfg.PobGas
	c.stats.Pobs++
	c.pendingPobs = append(c.pendingPobs, kid)
}
