package spacer

import (
	"context"

	"github.com/hornwork/spacer/pkg/expr"
	"github.com/hornwork/spacer/pkg/oracle"
	"github.com/hornwork/spacer/pkg/qe"
)

type premise struct {
	pt      *PredTransformer
	oidx    int
	ovars   []expr.Var
	summary expr.Formula
	must    bool
}

// Derivation tracks how the post of a pob is derived by one rule: body
// occurrences are refuted or reached one at a time, left to right. It
// belongs to the pob of its active premise and moves to the next one.
type Derivation struct {
	c        *Context
	parent   PobID
	rule     *ruleInfo
	premises []premise
	active   int
}

func newDerivation(c *Context, parent *Pob, res *reachResult) *Derivation {
	d := &Derivation{c: c, parent: parent.id, rule: res.rule, active: -1}
	level := prevLevel(parent.level)
	for j, occ := range res.rule.premises {
		summary, _ := occ.pt.originSummary(res.model, level, occ.oidx, res.must[j])
		d.premises = append(d.premises, premise{
			pt:      occ.pt,
			oidx:    occ.oidx,
			ovars:   occ.vars,
			summary: summary,
			must:    res.must[j],
		})
	}
	return d
}

// Parent returns the pob whose post this derivation explains.
func (d *Derivation) Parent() PobID { return d.parent }

func (d *Derivation) firstChild(m expr.Model) *Pob {
	d.active = d.nextMay(0)
	if d.active < 0 {
		return nil
	}
	return d.childAt(m)
}

func (d *Derivation) nextMay(from int) int {
	for j := from; j < len(d.premises); j++ {
		if !d.premises[j].must {
			return j
		}
	}
	return -1
}

// childAt creates the obligation of the active premise: the states of
// its relation that, with the other premises, derive the parent's post.
func (d *Derivation) childAt(m expr.Model) *Pob {
	parent := d.c.pobs.get(d.parent)
	p := d.premises[d.active]
	parts := append([]expr.Formula{}, parent.post...)
	parts = append(parts, d.rule.trans)
	for i, q := range d.premises {
		if i != d.active {
			parts = append(parts, q.summary)
		}
	}
	post := qe.ProjectOnto(p.ovars, expr.MkAnd(parts...), m)
	post = renameVars(post, p.ovars, p.pt.sig)
	kid := d.c.pobs.newPob(p.pt, parent.id, expr.Conjuncts(post), prevLevel(parent.level), parent.depth)
	kid.may = parent.may
	kid.gas = parent.gas
	kid.derivation = d
	d.c.stats.Pobs++
	return kid
}

// nextChild is called once the active premise has been reached. It picks
// a reach fact for it and creates the obligation of the next premise
// that is not known to be reachable. It returns nil when every premise is
// reachable or the reach facts of the active one do not derive the post.
func (d *Derivation) nextChild(ctx context.Context) (*Pob, error) {
	if d.active < 0 || d.active+1 >= len(d.premises) {
		return nil, nil
	}
	parent := d.c.pobs.get(d.parent)
	p := d.premises[d.active]
	rfs := make([]expr.Formula, len(p.pt.reachFacts))
	for i, rf := range p.pt.reachFacts {
		rfs[i] = rf.at(p.oidx)
	}
	fs := append([]expr.Formula{}, parent.post...)
	fs = append(fs, d.rule.trans, expr.MkOr(rfs...))
	for i, q := range d.premises {
		if i != d.active {
			fs = append(fs, q.summary)
		}
	}
	res, m, _, err := parent.pt.check(ctx, fs, nil)
	if err != nil || res != oracle.Sat {
		return nil, err
	}
	summary, _ := p.pt.originSummary(m, 0, p.oidx, true)
	d.premises[d.active].summary = summary
	d.premises[d.active].must = true
	d.active = d.nextMay(d.active + 1)
	if d.active < 0 {
		return nil, nil
	}
	return d.childAt(m), nil
}
