package spacer

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hornwork/spacer/pkg/expr"
	"github.com/hornwork/spacer/pkg/oracle"
)

var (
	ErrInvalidInvariant = errors.New("invariant is not inductive")
	ErrInvalidWitness   = errors.New("witness does not replay")
)

// Validate re-checks res independently of the frames: a safe result's
// invariant must be closed under every rule and exclude the query, an
// unsafe result's witness must replay rule by rule.
func (c *Context) Validate(ctx context.Context, res *Result) error {
	switch res.Status {
	case StatusSafe:
		return c.validateInvariant(ctx, res.Invariant)
	case StatusUnsafe:
		return c.validateWitness(ctx, res.Witness)
	}
	return nil
}

func (c *Context) validateInvariant(ctx context.Context, inv map[string]expr.Formula) error {
	o := c.newOracle()
	for _, head := range c.order {
		for _, r := range head.rules {
			premises := []expr.Formula{r.trans}
			for _, occ := range r.premises {
				premises = append(premises, toOrigin(inv[occ.pt.rel.Name], occ.oidx))
			}
			ok, err := oracle.Entails(ctx, o, premises, inv[head.rel.Name])
			if err != nil {
				return errors.Wrapf(err, "validating %s", r.rule.Name)
			}
			if !ok {
				return errors.Wrapf(ErrInvalidInvariant, "rule %s", r.rule.Name)
			}
		}
	}
	return nil
}

func (c *Context) validateWitness(ctx context.Context, w *Witness) error {
	if w == nil || w.Relation != c.query.rel.Name {
		return errors.Wrap(ErrInvalidWitness, "witness does not derive the query")
	}
	return c.replay(ctx, c.newOracle(), w)
}

func (c *Context) replay(ctx context.Context, o oracle.Oracle, w *Witness) error {
	pt, ok := c.PredTransformer(w.Relation)
	if !ok {
		return errors.Wrapf(ErrInvalidWitness, "unknown relation %s", w.Relation)
	}
	var rule *ruleInfo
	for _, r := range pt.rules {
		if r.rule.Name == w.Rule {
			rule = r
			break
		}
	}
	if rule == nil || len(rule.premises) != len(w.Premises) {
		return errors.Wrapf(ErrInvalidWitness, "%s has no rule %s with %d premises", w.Relation, w.Rule, len(w.Premises))
	}
	fs := []expr.Formula{rule.trans}
	for i, v := range pt.sig {
		fs = append(fs, expr.Eq(expr.V(v), expr.K(w.Args[i])))
	}
	for j, occ := range rule.premises {
		p := w.Premises[j]
		if p.Relation != occ.pt.rel.Name {
			return errors.Wrapf(ErrInvalidWitness, "premise %d of %s is %s", j, w.Rule, p.Relation)
		}
		for i, v := range occ.vars {
			fs = append(fs, expr.Eq(expr.V(v), expr.K(p.Args[i])))
		}
	}
	o.Push()
	o.Assert(fs...)
	res, err := o.Check(ctx)
	o.Pop()
	if err != nil {
		return err
	}
	if res != oracle.Sat {
		return errors.Wrapf(ErrInvalidWitness, "step %s of %s", w.Rule, w.Relation)
	}
	for _, p := range w.Premises {
		if err := c.replay(ctx, o, p); err != nil {
			return err
		}
	}
	return nil
}
