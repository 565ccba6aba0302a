package spacer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hornwork/spacer/pkg/chc"
	"github.com/hornwork/spacer/pkg/expr"
	"github.com/hornwork/spacer/pkg/oracle"
)

// checkedSafe returns the safe result at level unless some rule derives
// a state outside the integer domain from the invariant. Frames only
// describe states of DomainWidth bits, so in that case the invariant
// says nothing about the unbounded problem.
func (c *Context) checkedSafe(ctx context.Context, level int) (*Result, error) {
	res := c.safe(level)
	r, err := c.escapesDomain(ctx, res.Invariant)
	if err != nil {
		return nil, err
	}
	if r != nil {
		c.log.WithFields(logrus.Fields{"rule": r.Name, "width": c.cfg.DomainWidth}).Info("invariant leaves the integer domain")
		return c.unknown(ReasonDomain), nil
	}
	return res, nil
}

// escapesDomain looks for a rule whose body states satisfy inv and lie
// in the domain while one of its head arguments does not. The check runs
// on an oracle twice as wide as the domain.
func (c *Context) escapesDomain(ctx context.Context, inv map[string]expr.Formula) (*chc.Rule, error) {
	width := c.cfg.DomainWidth
	wide := 2*width + 2
	if wide > 62 {
		wide = 62
	}
	if wide <= width {
		return nil, nil
	}
	o, err := oracle.New(oracle.WithWidth(wide), oracle.WithLogger(c.log))
	if err != nil {
		return nil, err
	}
	lo, hi := -(int64(1) << uint(width-1)), int64(1)<<uint(width-1)-1
	inside := func(v expr.Var) expr.Formula {
		return expr.MkAnd(expr.Ge(expr.V(v), expr.K(lo)), expr.Le(expr.V(v), expr.K(hi)))
	}

	for _, head := range c.order {
		if len(head.sig) == 0 {
			continue
		}
		outside := make([]expr.Formula, len(head.sig))
		for i, v := range head.sig {
			outside[i] = expr.MkNot(inside(v))
		}
		for _, r := range head.rules {
			fs := []expr.Formula{r.trans, expr.MkOr(outside...)}
			for _, occ := range r.premises {
				fs = append(fs, toOrigin(inv[occ.pt.rel.Name], occ.oidx))
				for _, v := range occ.vars {
					fs = append(fs, inside(v))
				}
			}
			o.Push()
			o.Assert(fs...)
			res, err := o.Check(ctx)
			o.Pop()
			if err != nil {
				if cerr := checkpoint(ctx); cerr != nil {
					return nil, cerr
				}
				return nil, errors.Wrapf(err, "checking the domain of %s", r.rule.Name)
			}
			if res == oracle.Sat {
				return r.rule, nil
			}
		}
	}
	return nil, nil
}
