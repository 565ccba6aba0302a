package spacer

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hornwork/spacer/pkg/chc"
	"github.com/hornwork/spacer/pkg/expr"
	"github.com/hornwork/spacer/pkg/oracle"
	"github.com/hornwork/spacer/pkg/qe"
)

// ruleInfo is a rule compiled against the signature of its head.
type ruleInfo struct {
	rule     *chc.Rule
	index    int
	tag      expr.Prop
	trans    expr.Formula
	local    []expr.Var
	premises []occurrence
}

// occurrence is one body application of a rule.
type occurrence struct {
	pt   *PredTransformer
	oidx int
	vars []expr.Var
	cas  expr.Prop
}

func (r *ruleInfo) isInit() bool { return len(r.premises) == 0 }

// PredTransformer holds everything the solver knows about one relation:
// its frames, its reach facts and the transition relation of the rules
// deriving it.
type PredTransformer struct {
	ctx        *Context
	rel        *chc.Relation
	sig        []expr.Var
	rules      []*ruleInfo
	frames     *Frames
	reachFacts []*ReachFact
	users      []*PredTransformer
	oracle     oracle.Oracle
	log        logrus.FieldLogger
}

func newPredTransformer(c *Context, rel *chc.Relation) *PredTransformer {
	pt := &PredTransformer{
		ctx:    c,
		rel:    rel,
		sig:    sigVars(rel),
		oracle: c.newOracle(),
		log:    c.log.WithField("relation", rel.Name),
	}
	pt.frames = newFrames(pt)
	return pt
}

func (pt *PredTransformer) Relation() *chc.Relation  { return pt.rel }
func (pt *PredTransformer) Frames() *Frames          { return pt.frames }
func (pt *PredTransformer) ReachFacts() []*ReachFact { return pt.reachFacts }

// Formula is the conjunction of the lemmas of frame level over the
// signature variables.
func (pt *PredTransformer) Formula(level int) expr.Formula {
	return pt.frames.formula(level)
}

// Invariant is the infinite frame over the signature variables.
func (pt *PredTransformer) Invariant() expr.Formula {
	return pt.frames.formula(InfLevel)
}

// compile renames rule variables apart and binds the head arguments to
// the signature and each body application to its origin variables.
func (pt *PredTransformer) compile(index int, r *chc.Rule) *ruleInfo {
	ri := &ruleInfo{rule: r, index: index, tag: tagVar(index)}
	rename := make(map[expr.Var]expr.Var)
	for _, v := range r.Vars() {
		lv := localVar(index, v)
		rename[v] = lv
		ri.local = append(ri.local, lv)
	}

	parts := []expr.Formula{expr.RenameMap(r.Constraint, rename)}
	for i, v := range r.Head.Args {
		parts = append(parts, expr.Eq(expr.V(pt.sig[i]), expr.V(rename[v])))
	}
	seen := make(map[*chc.Relation]int)
	for j, app := range r.Body {
		o := seen[app.Rel]
		seen[app.Rel]++
		ovars := originVars(app.Rel, o)
		for i, v := range app.Args {
			parts = append(parts, expr.Eq(expr.V(ovars[i]), expr.V(rename[v])))
		}
		ri.premises = append(ri.premises, occurrence{
			pt:   pt.ctx.pts[app.Rel],
			oidx: o,
			vars: ovars,
			cas:  caseVar(index, j),
		})
	}
	ri.trans = expr.MkAnd(parts...)
	return ri
}

// query is the transition relation of the relation at some level with
// the premises guarded by rule tags, case variables and selectors.
type query struct {
	fs    []expr.Formula
	sels  map[int]expr.Prop
	rules []*ruleInfo
}

func (q *query) selectors() []expr.Formula {
	levels := make([]int, 0, len(q.sels))
	for l := range q.sels {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	out := make([]expr.Formula, len(levels))
	for i, l := range levels {
		out[i] = q.sels[l]
	}
	return out
}

// findRule returns the first enabled rule whose tag is true in m.
func (q *query) findRule(m expr.Model) *ruleInfo {
	for _, r := range q.rules {
		if m.Bool(expr.Var(r.tag)) {
			return r
		}
	}
	return nil
}

// buildQuery encodes one step into frame level. A body occurrence either
// takes a reach fact of its relation (case true) or satisfies the lemmas
// of frame level-1. At level 0 only the initial rules are enabled.
func (pt *PredTransformer) buildQuery(level int) *query {
	q := &query{sels: make(map[int]expr.Prop)}
	var tags []expr.Formula
	for _, r := range pt.rules {
		if level == 0 && !r.isInit() {
			continue
		}
		q.rules = append(q.rules, r)
		tags = append(tags, r.tag)
	}
	q.fs = append(q.fs, expr.MkOr(tags...))
	premise := prevLevel(level)
	for _, r := range q.rules {
		q.fs = append(q.fs, expr.MkImplies(r.tag, r.trans))
		for _, occ := range r.premises {
			rfs := make([]expr.Formula, len(occ.pt.reachFacts))
			for i, rf := range occ.pt.reachFacts {
				rfs[i] = rf.at(occ.oidx)
			}
			q.fs = append(q.fs, expr.MkImplies(expr.MkAnd(r.tag, occ.cas), expr.MkOr(rfs...)))
			for _, l := range occ.pt.frames.lemmasGeq(premise) {
				sel := selector(l.level)
				q.sels[l.level] = sel
				q.fs = append(q.fs, expr.MkImplies(expr.MkAnd(sel, r.tag, expr.MkNot(occ.cas)), l.bodyAt(occ.oidx)))
			}
		}
	}
	return q
}

// usesLevel is the highest level a conflict with the given core holds
// at: one above the lowest frame it needed.
func usesLevel(core []expr.Formula, level int) int {
	if level == 0 {
		return 0
	}
	uses := InfLevel
	for _, f := range core {
		if l, ok := selectorLevel(f); ok && l < uses {
			uses = l
		}
	}
	return nextLevel(uses)
}

// check runs the oracle on fs under assumptions. Cancellation and
// timeouts come back as Unknown with a nil error.
func (pt *PredTransformer) check(ctx context.Context, fs, assumptions []expr.Formula) (oracle.Result, expr.Model, []expr.Formula, error) {
	pt.ctx.stats.Queries++
	pt.oracle.Push()
	defer pt.oracle.Pop()
	pt.oracle.Assert(fs...)
	res, err := pt.oracle.Check(ctx, assumptions...)
	if err != nil {
		if errors.Is(err, oracle.ErrIncomplete) {
			return oracle.Unknown, expr.Model{}, nil, nil
		}
		return oracle.Unknown, expr.Model{}, nil, errors.Wrapf(err, "%s", pt.rel.Name)
	}
	switch res {
	case oracle.Sat:
		return res, pt.oracle.Model(), nil, nil
	case oracle.Unsat:
		return res, expr.Model{}, pt.oracle.UnsatCore(), nil
	}
	return res, expr.Model{}, nil, nil
}

// reachResult is the outcome of IsReachable.
type reachResult struct {
	res      oracle.Result
	model    expr.Model
	rule     *ruleInfo
	must     []bool
	concrete bool
	core     []expr.Formula
	uses     int
}

// IsReachable decides whether the post of n has a predecessor in frame
// n.level-1 or in the reach facts.
func (pt *PredTransformer) IsReachable(ctx context.Context, n *Pob) (*reachResult, error) {
	return pt.reachable(ctx, n, false)
}

// IsReachableFromFacts is IsReachable with every body occurrence taken
// from the reach facts. A model is always concrete.
func (pt *PredTransformer) IsReachableFromFacts(ctx context.Context, n *Pob) (*reachResult, error) {
	return pt.reachable(ctx, n, true)
}

func (pt *PredTransformer) reachable(ctx context.Context, n *Pob, factsOnly bool) (*reachResult, error) {
	pt.ctx.stats.ReachQueries++
	q := pt.buildQuery(n.level)
	assumptions := append(append([]expr.Formula{}, n.post...), q.selectors()...)
	if factsOnly {
		for _, r := range q.rules {
			for _, occ := range r.premises {
				assumptions = append(assumptions, occ.cas)
			}
		}
	}
	res, m, core, err := pt.check(ctx, q.fs, assumptions)
	if err != nil {
		return nil, err
	}
	out := &reachResult{res: res}
	switch res {
	case oracle.Sat:
		out.model = m
		out.rule = q.findRule(m)
		if out.rule == nil {
			return nil, errors.Errorf("%s: model enables no rule", pt.rel.Name)
		}
		out.must = make([]bool, len(out.rule.premises))
		out.concrete = true
		for j, occ := range out.rule.premises {
			out.must[j] = m.Bool(expr.Var(occ.cas))
			out.concrete = out.concrete && out.must[j]
		}
	case oracle.Unsat:
		out.core = postCore(n.post, core)
		out.uses = usesLevel(core, n.level)
	}
	return out, nil
}

// postCore keeps the literals of post that appear in core, in post order.
func postCore(post, core []expr.Formula) []expr.Formula {
	var out []expr.Formula
	for _, p := range post {
		for _, c := range core {
			if expr.Equal(p, c) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// IsMustReachable reports whether some state of state is covered by a
// reach fact.
func (pt *PredTransformer) IsMustReachable(ctx context.Context, state []expr.Formula) (expr.Model, bool, error) {
	if len(pt.reachFacts) == 0 {
		return expr.Model{}, false, nil
	}
	rfs := make([]expr.Formula, len(pt.reachFacts))
	for i, rf := range pt.reachFacts {
		rfs[i] = rf.fml
	}
	fs := append(append([]expr.Formula{}, state...), expr.MkOr(rfs...))
	res, m, _, err := pt.check(ctx, fs, nil)
	if err != nil {
		return expr.Model{}, false, err
	}
	return m, res == oracle.Sat, nil
}

// IsBlocked reports whether frame n.level already excludes the post of
// n, and the level the blocking lemmas hold at.
func (pt *PredTransformer) IsBlocked(ctx context.Context, n *Pob) (bool, int, error) {
	lemmas := pt.frames.lemmasGeq(n.level)
	if len(lemmas) == 0 {
		return false, 0, nil
	}
	for _, l := range lemmas {
		if expr.CubeImplies(n.post, l.cube) {
			return true, l.level, nil
		}
	}
	q := &query{sels: make(map[int]expr.Prop)}
	q.fs = append(q.fs, n.post...)
	for _, l := range lemmas {
		sel := selector(l.level)
		q.sels[l.level] = sel
		q.fs = append(q.fs, expr.MkImplies(sel, l.body))
	}
	res, _, core, err := pt.check(ctx, q.fs, q.selectors())
	if err != nil || res != oracle.Unsat {
		return false, 0, err
	}
	uses := InfLevel
	for _, f := range core {
		if l, ok := selectorLevel(f); ok && l < uses {
			uses = l
		}
	}
	return true, uses, nil
}

// IsInvariant checks that l holds one step into frame level, that is
// that no state of l's cube has a predecessor in frame level-1. A
// failure caches the model as the lemma's counterexample to pushing.
func (pt *PredTransformer) IsInvariant(ctx context.Context, level int, l *Lemma) (bool, int, error) {
	if l.ctp != nil && l.ctp.level == level {
		pt.ctx.stats.CtpReuse++
		return false, 0, nil
	}
	q := pt.buildQuery(level)
	assumptions := append(append([]expr.Formula{}, l.cube...), q.selectors()...)
	res, m, core, err := pt.check(ctx, q.fs, assumptions)
	if err != nil {
		return false, 0, err
	}
	switch res {
	case oracle.Unsat:
		return true, usesLevel(core, level), nil
	case oracle.Sat:
		l.ctp = &ctp{model: m, level: level, rule: q.findRule(m)}
	}
	return false, 0, nil
}

// CheckInductive checks cube relative to frame level-1 with the self
// occurrences of the rules additionally constrained by the negation of
// cube. On success it returns the part of cube the proof needed.
func (pt *PredTransformer) CheckInductive(ctx context.Context, level int, cube []expr.Formula) ([]expr.Formula, int, bool, error) {
	q := pt.buildQuery(level)
	not := expr.MkNot(expr.MkAnd(cube...))
	for _, r := range q.rules {
		for _, occ := range r.premises {
			if occ.pt == pt {
				q.fs = append(q.fs, expr.MkImplies(r.tag, toOrigin(not, occ.oidx)))
			}
		}
	}
	assumptions := append(append([]expr.Formula{}, cube...), q.selectors()...)
	res, _, core, err := pt.check(ctx, q.fs, assumptions)
	if err != nil {
		return nil, 0, false, err
	}
	if res != oracle.Unsat {
		if res == oracle.Unknown {
			if err := checkpoint(ctx); err != nil {
				return nil, 0, false, err
			}
		}
		return nil, 0, false, nil
	}
	out := postCore(cube, core)
	if len(out) == 0 {
		out = cube
	}
	return out, usesLevel(core, level), true, nil
}

// initReachFacts installs one reach fact per initial rule.
func (pt *PredTransformer) initReachFacts() {
	for _, r := range pt.rules {
		if !r.isInit() {
			continue
		}
		pt.AddReachFact(newReachFact(pt.ctx.nextID(), r.trans, r.local, r, nil))
	}
}

// AddReachFact appends rf. Reach facts are never removed.
func (pt *PredTransformer) AddReachFact(rf *ReachFact) {
	pt.reachFacts = append(pt.reachFacts, rf)
	pt.ctx.stats.ReachFacts++
	pt.log.WithField("fact", rf.String()).Debug("reach fact")
}

// firstTrueFact returns the first reach fact that holds at occurrence o
// in m, or at the signature when o is negative.
func (pt *PredTransformer) firstTrueFact(o int, m expr.Model) *ReachFact {
	for _, rf := range pt.reachFacts {
		f := rf.fml
		if o >= 0 {
			f = rf.at(o)
		}
		if expr.Eval(f, m) {
			return rf
		}
	}
	return nil
}

// mkReachFact under-approximates the states the rule of res derives from
// the reach facts chosen by its model.
func (pt *PredTransformer) mkReachFact(res *reachResult) *ReachFact {
	r := res.rule
	parts := []expr.Formula{r.trans}
	just := make([]*ReachFact, len(r.premises))
	for j, occ := range r.premises {
		rf := occ.pt.firstTrueFact(occ.oidx, res.model)
		if rf == nil {
			panic("spacer: concrete model without a justifying reach fact")
		}
		just[j] = rf
		parts = append(parts, rf.at(occ.oidx))
	}
	fml := qe.ProjectOnto(pt.sig, expr.MkAnd(parts...), res.model)
	return newReachFact(pt.ctx.nextID(), fml, nil, r, just)
}

// originSummary is what a derivation assumes about occurrence o: the
// reach fact true in m for must premises, the frame otherwise.
func (pt *PredTransformer) originSummary(m expr.Model, level, o int, must bool) (expr.Formula, *ReachFact) {
	if must {
		rf := pt.firstTrueFact(o, m)
		if rf == nil {
			panic("spacer: must premise without a reach fact")
		}
		return rf.at(o), rf
	}
	ls := pt.frames.lemmasGeq(level)
	parts := make([]expr.Formula, len(ls))
	for i, l := range ls {
		parts[i] = l.bodyAt(o)
	}
	return expr.MkAnd(parts...), nil
}

// AddLemma installs l into the frames.
func (pt *PredTransformer) AddLemma(l *Lemma) bool {
	if pt.frames.add(l) {
		pt.ctx.stats.Lemmas++
		pt.log.WithFields(logrus.Fields{
			"level": levelString(l.level),
			"lemma": l.body.String(),
		}).Debug("lemma")
		return true
	}
	return false
}

func (pt *PredTransformer) addUser(u *PredTransformer) bool {
	for _, x := range pt.users {
		if x == u {
			return false
		}
	}
	pt.users = append(pt.users, u)
	return true
}

// lemmaLearned drops counterexamples to pushing of own lemmas that the
// new lemma l of src rules out.
func (pt *PredTransformer) lemmaLearned(src *PredTransformer, l *Lemma) {
	for _, own := range pt.frames.lemmas {
		c := own.ctp
		if c == nil || c.rule == nil || l.level < prevLevel(c.level) {
			continue
		}
		for _, occ := range c.rule.premises {
			if occ.pt != src || c.model.Bool(expr.Var(occ.cas)) {
				continue
			}
			if !expr.Eval(l.bodyAt(occ.oidx), c.model) {
				own.ctp = nil
				break
			}
		}
	}
}
