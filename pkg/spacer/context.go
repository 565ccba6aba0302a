// Package spacer decides reachability problems given as constrained
// Horn clauses with the IC3/PDR proof obligation search generalized to
// non-linear rules. A Context either finds an inductive invariant per
// relation that excludes the query or a derivation of the query from
// the initial rules.
package spacer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/hornwork/spacer/pkg/chc"
	"github.com/hornwork/spacer/pkg/oracle"
)

var (
	ErrNoQuery = errors.New("rule set has no query rule")
	errUnknown = errors.New("oracle returned unknown")
)

// Context owns the solver state for one rule set. It is not safe for
// concurrent use.
type Context struct {
	rules   *chc.RuleSet
	cfg     Config
	log     logrus.FieldLogger
	tracer  Tracer
	oracles oracle.Factory
	runID   string

	pts   map[*chc.Relation]*PredTransformer
	order []*PredTransformer
	query *PredTransformer

	pobs         pobArena
	queue        PobQueue
	events       *eventRegistry
	clusters     *clusterDB
	generalizers []LemmaGeneralizer
	pendingPobs  []*Pob

	stats         Stats
	ids           int
	expandedLevel int
	answer        *ReachFact
	restarts      int
	progress      rate.Sometimes
}

// New compiles rules into a Context.
func New(rules *chc.RuleSet, options ...Option) (*Context, error) {
	c := &Context{
		rules:    rules,
		cfg:      DefaultConfig(),
		pts:      make(map[*chc.Relation]*PredTransformer),
		events:   newEventRegistry(),
		progress: rate.Sometimes{Interval: time.Second},
	}
	for _, option := range append(options, defaults...) {
		if err := option(c); err != nil {
			return nil, err
		}
	}
	if len(rules.RulesFor(rules.Query())) == 0 {
		return nil, ErrNoQuery
	}

	for _, rel := range rules.Relations() {
		pt := newPredTransformer(c, rel)
		c.pts[rel] = pt
		c.order = append(c.order, pt)
	}
	c.query = c.pts[rules.Query()]
	for i, r := range rules.Rules() {
		head := c.pts[r.Head.Rel]
		ri := head.compile(i, r)
		head.rules = append(head.rules, ri)
		for _, occ := range ri.premises {
			if occ.pt.addUser(head) {
				c.events.subscribe(occ.pt, listenerFunc(head.lemmaLearned))
			}
		}
	}
	for _, pt := range c.order {
		pt.initReachFacts()
	}

	c.clusters = newClusterDB(c)
	c.events.subscribeAll(c.clusters)
	c.generalizers = []LemmaGeneralizer{
		&InductiveGeneralizer{c: c},
		&ClusterFinder{c: c},
		&GlobalGeneralizer{c: c},
	}
	return c, nil
}

func (c *Context) newOracle() oracle.Oracle { return c.oracles() }

func (c *Context) nextID() int {
	c.ids++
	return c.ids
}

func (c *Context) Config() Config { return c.cfg }
func (c *Context) Stats() Stats   { return c.stats }
func (c *Context) RunID() string  { return c.runID }

// PredTransformer returns the transformer of the named relation.
func (c *Context) PredTransformer(name string) (*PredTransformer, bool) {
	rel, ok := c.rules.Relation(name)
	if !ok {
		return nil, false
	}
	pt, ok := c.pts[rel]
	return pt, ok
}

// Pob returns the obligation with the given id.
func (c *Context) Pob(id PobID) *Pob {
	if id < 0 || int(id) >= c.pobs.len() {
		return nil
	}
	return c.pobs.get(id)
}

// checkpoint reports cancellation of ctx.
func checkpoint(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// closePob closes n and everything derived from it.
func (c *Context) closePob(n *Pob, status PobStatus) {
	if n.IsClosed() {
		return
	}
	n.status = status
	c.queue.Remove(n)
	for _, id := range append([]PobID(nil), n.children...) {
		c.closePob(c.pobs.get(id), PobAbandoned)
	}
	c.pobs.detach(n)
}

func (c *Context) flushPending() {
	for _, n := range c.pendingPobs {
		c.queue.Push(n)
	}
	c.pendingPobs = c.pendingPobs[:0]
}
