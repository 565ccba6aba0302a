package spacer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hornwork/spacer/pkg/expr"
	"github.com/hornwork/spacer/pkg/oracle"
)

// Solve searches for an invariant or a derivation of the query, opening
// one level at a time starting at fromLevel. Cancellation of ctx yields
// an Unknown result; the lemmas learned so far stay valid and Solve may
// be called again.
func (c *Context) Solve(ctx context.Context, fromLevel int) (*Result, error) {
	root := c.pobs.newPob(c.query, noPob, nil, fromLevel, 0)
	c.stats.Pobs++
	c.queue.SetRoot(root, fromLevel, 0)
	c.pendingPobs = c.pendingPobs[:0]
	c.answer = nil
	log := c.log.WithField("query", c.query.rel.Name)
	log.WithField("from", fromLevel).Info("solving")

	res, err := c.solve(ctx, log)
	if err != nil {
		if isCanceled(err) {
			log.WithError(err).Info("cancelled")
			return c.unknown(ReasonCanceled), nil
		}
		if errors.Is(err, errUnknown) {
			return c.unknown(ReasonOracle), nil
		}
		return nil, err
	}
	if c.cfg.Validate && res.Status != StatusUnknown {
		if err := c.Validate(ctx, res); err != nil {
			return nil, err
		}
	}
	log.WithFields(logrus.Fields{"status": res.Status, "level": res.Level}).Info("solved")
	return res, nil
}

func (c *Context) solve(ctx context.Context, log logrus.FieldLogger) (*Result, error) {
	lvl := c.queue.MaxLevel()
	for {
		if err := checkpoint(ctx); err != nil {
			return nil, err
		}
		c.expandedLevel = InfLevel
		if lvl > c.stats.MaxLevel {
			c.stats.MaxLevel = lvl
		}
		reached, err := c.checkReachability(ctx)
		if err != nil {
			return nil, err
		}
		if reached {
			return c.unsafe(ctx, lvl)
		}
		if lvl > 0 {
			safe, err := c.propagate(ctx, c.expandedLevel, lvl, InfLevel)
			if err != nil {
				return nil, err
			}
			if safe {
				return c.checkedSafe(ctx, lvl)
			}
		}
		if c.isInductive() {
			return c.checkedSafe(ctx, lvl)
		}
		c.queue.IncLevel()
		lvl = c.queue.MaxLevel()
		log.WithField("level", lvl).Info("level")
		if lvl > c.cfg.MaxLevel {
			return c.unknown(ReasonResourceLimit), nil
		}
	}
}

// isInductive reports whether the query is blocked at every level.
func (c *Context) isInductive() bool {
	for _, l := range c.query.frames.lemmasGeq(InfLevel) {
		if len(l.cube) == 0 {
			return true
		}
	}
	return false
}

// checkReachability expands obligations up to the current level. It
// returns true once the root is reached and false once the queue holds
// nothing at this level.
func (c *Context) checkReachability(ctx context.Context) (bool, error) {
	var lastReachable *Pob
	threshold := c.restartThreshold()
	lemmas := c.stats.Lemmas

	for lastReachable != nil || c.queue.Len() > 0 {
		if err := checkpoint(ctx); err != nil {
			return false, err
		}
		c.progress.Do(func() {
			c.log.WithFields(logrus.Fields{
				"level":  c.queue.MaxLevel(),
				"queue":  c.queue.Len(),
				"lemmas": c.stats.Lemmas,
			}).Info("progress")
		})

		if lastReachable != nil {
			if c.queue.IsRoot(lastReachable) {
				return true, nil
			}
			parent := c.pobs.get(lastReachable.parent)
			lastReachable = nil
			if parent == nil || parent.IsClosed() {
				continue
			}
			next, err := c.climb(ctx, parent)
			if err != nil {
				return false, err
			}
			lastReachable = next
			continue
		}

		if c.cfg.UseRestarts && c.stats.Lemmas-lemmas > threshold {
			c.restarts++
			c.stats.Restarts++
			c.queue.Reset()
			lemmas = c.stats.Lemmas
			threshold = c.restartThreshold()
			c.log.WithField("restarts", c.restarts).Debug("restart")
		}

		n := c.queue.Top()
		if n == nil {
			return false, nil
		}
		if n.IsDirty() {
			c.queue.Pop()
			n.Clean()
			c.queue.Push(n)
			continue
		}
		c.queue.Pop()
		if n.depth > c.stats.MaxDepth {
			c.stats.MaxDepth = n.depth
		}

		outcome, err := c.expandPob(ctx, n)
		if err != nil {
			return false, err
		}
		c.tracer.Trace(Step{
			Pob:      n.id,
			Relation: n.pt.rel.Name,
			Level:    n.level,
			Depth:    n.depth,
			Post:     n.PostFormula(),
			Outcome:  outcome,
		})
		switch outcome {
		case OutcomeReachable:
			c.flushPending()
			lastReachable = n
		case OutcomeBlocked:
			c.flushPending()
			if c.queue.IsRoot(n) {
				return false, nil
			}
		case OutcomeUndef:
			c.flushPending()
			c.queue.Push(n)
		}
	}
	return false, nil
}

func (c *Context) restartThreshold() int {
	return luby(c.restarts+1) * c.cfg.RestartInitialThreshold
}

// luby returns the i-th element (from 1) of 1 1 2 1 1 2 4 1 1 2 ...
func luby(i int) int {
	for k := 1; ; k++ {
		if i == 1<<k-1 {
			return 1 << (k - 1)
		}
		if 1<<(k-1) <= i && i < 1<<k-1 {
			return luby(i - 1<<(k-1) + 1)
		}
	}
}

// climb re-checks the parent of a reached obligation against the reach
// facts only, now that the child has one. It returns n if n was reached
// too. Otherwise n stays queued and is expanded again with the new
// facts.
func (c *Context) climb(ctx context.Context, n *Pob) (*Pob, error) {
	res, err := n.pt.IsReachableFromFacts(ctx, n)
	if err != nil {
		return nil, err
	}
	if res.res != oracle.Sat {
		if n.weakness < c.cfg.MaxWeakness {
			n.weakness++
		}
		return nil, nil
	}
	return c.reached(ctx, n, res)
}

// reached records the reach fact of a concrete model of n and closes n.
// It returns n if the search should continue with n's parent.
func (c *Context) reached(ctx context.Context, n *Pob, res *reachResult) (*Pob, error) {
	rf := n.pt.mkReachFact(res)
	if !res.rule.isInit() {
		n.pt.AddReachFact(rf)
	}
	if c.queue.IsRoot(n) {
		c.answer = rf
		c.closePob(n, PobReachable)
		return n, nil
	}
	if n.may {
		c.closePob(n, PobReachable)
		return nil, nil
	}
	d := n.detachDerivation()
	c.closePob(n, PobReachable)
	if d != nil {
		next, err := d.nextChild(ctx)
		if err != nil {
			return nil, err
		}
		if next != nil {
			c.queue.Push(next)
			return nil, nil
		}
	}
	return n, nil
}

// expandPob makes one step on n: it either blocks it, reaches it or
// creates a child. New obligations are left in pendingPobs.
func (c *Context) expandPob(ctx context.Context, n *Pob) (Outcome, error) {
	log := n.pt.log.WithFields(logrus.Fields{"pob": n.id, "level": n.level, "depth": n.depth})
	log.WithField("post", n.PostFormula().String()).Debug("expand")

	if n.level < c.expandedLevel {
		c.expandedLevel = n.level
	}
	if n.may {
		if n.gas <= 0 {
			c.closePob(n, PobAbandoned)
			return OutcomeBlocked, nil
		}
		n.gas--
	}

	blocked, uses, err := n.pt.IsBlocked(ctx, n)
	if err != nil {
		return "", err
	}
	if blocked {
		c.afterBlocked(n, uses)
		return OutcomeBlocked, nil
	}

	m, must, err := n.pt.IsMustReachable(ctx, n.post)
	if err != nil {
		return "", err
	}
	if must {
		if c.queue.IsRoot(n) {
			c.answer = n.pt.firstTrueFact(-1, m)
		}
		if n.may {
			c.closePob(n, PobReachable)
			return OutcomeUndef, nil
		}
		d := n.detachDerivation()
		c.closePob(n, PobReachable)
		if d != nil {
			next, err := d.nextChild(ctx)
			if err != nil {
				return "", err
			}
			if next != nil {
				c.pendingPobs = append(c.pendingPobs, next)
				return OutcomeUndef, nil
			}
		}
		return OutcomeReachable, nil
	}

	rctx := ctx
	if c.cfg.OracleTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, c.cfg.OracleTimeout*time.Duration(n.weakness+1))
		defer cancel()
	}
	res, err := n.pt.IsReachable(rctx, n)
	if err != nil {
		return "", err
	}

	switch res.res {
	case oracle.Sat:
		if res.concrete {
			next, err := c.reached(ctx, n, res)
			if err != nil {
				return "", err
			}
			if next == nil {
				return OutcomeUndef, nil
			}
			return OutcomeReachable, nil
		}
		c.stats.ExpandUndef++
		if n.concretize != nil {
			c.concretize(n, res.model)
			return OutcomeUndef, nil
		}
		d := newDerivation(c, n, res)
		if kid := d.firstChild(res.model); kid != nil {
			c.pendingPobs = append(c.pendingPobs, kid)
		} else {
			n.weakness++
		}
		return OutcomeUndef, nil

	case oracle.Unsat:
		l := newLemma(c.nextID(), n.pt, res.core, res.uses, n.id)
		for _, g := range c.generalizers {
			if err := g.Generalize(ctx, l, n); err != nil {
				if cerr := checkpoint(ctx); cerr != nil {
					return "", cerr
				}
				log.WithError(err).Debug("generalization failed")
			}
		}
		if n.pt.AddLemma(l) {
			n.lemmas = append(n.lemmas, l)
		}
		c.afterBlocked(n, l.level)
		return OutcomeBlocked, nil
	}

	if err := checkpoint(ctx); err != nil {
		return "", err
	}
	if n.weakness < c.cfg.MaxWeakness {
		n.weakness++
		return OutcomeUndef, nil
	}
	log.Info("giving up on obligation")
	return OutcomeUnknown, errors.Wrapf(errUnknown, "%s at level %d", n.pt.rel.Name, n.level)
}

// afterBlocked requeues or closes a blocked obligation.
func (c *Context) afterBlocked(n *Pob, uses int) {
	if n.IsDirty() {
		c.pendingPobs = append(c.pendingPobs, n)
		return
	}
	if c.queue.IsRoot(n) {
		return
	}
	if c.cfg.PushPobs && n.depth-c.queue.MinDepth() < c.cfg.PushPobMaxDepth && !IsInfinite(uses) && uses+1 <= c.queue.MaxLevel() {
		for n.level < uses+1 {
			n.IncLevel()
		}
		c.pendingPobs = append(c.pendingPobs, n)
		return
	}
	c.closePob(n, PobBlocked)
}

// concretize replaces the literals of n that a non-linear cluster
// pattern matched by bounds on their variables taken from m, and queues
// the result as a may obligation next to n.
func (c *Context) concretize(n *Pob, m expr.Model) {
	p := n.concretize
	n.concretize = nil
	var post []expr.Formula
	changed := false
	for _, lit := range n.post {
		a, ok := lit.(expr.Atom)
		if !ok || a.Op != expr.OpLe || !p.hasNonLinearShape(lit) {
			post = append(post, lit)
			continue
		}
		changed = true
		for _, t := range a.Lin.Terms {
			v := expr.V(t.Var)
			k := expr.K(m.Int(t.Var))
			if t.Coeff > 0 {
				post = append(post, expr.Le(v, k))
			} else {
				post = append(post, expr.Ge(v, k))
			}
		}
	}
	if changed {
		kid := c.pobs.newPob(n.pt, n.parent, post, n.level, n.depth)
		kid.may = true
		kid.gas = c.cfg.PobGas
		c.stats.Pobs++
		c.stats.Concretized++
		c.pendingPobs = append(c.pendingPobs, kid)
	}
}
