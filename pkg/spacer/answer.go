package spacer

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hornwork/spacer/pkg/expr"
	"github.com/hornwork/spacer/pkg/oracle"
)

type Status int

const (
	StatusUnknown Status = iota
	StatusSafe
	StatusUnsafe
)

func (s Status) String() string {
	switch s {
	case StatusSafe:
		return "safe"
	case StatusUnsafe:
		return "unsafe"
	}
	return "unknown"
}

type Reason int

const (
	ReasonNone Reason = iota
	ReasonCanceled
	ReasonResourceLimit
	ReasonOracle
	// ReasonDomain means an invariant was found over the bounded integer
	// domain but some rule leaves that domain.
	ReasonDomain
)

func (r Reason) String() string {
	switch r {
	case ReasonCanceled:
		return "canceled"
	case ReasonResourceLimit:
		return "resource limit"
	case ReasonOracle:
		return "oracle unknown"
	case ReasonDomain:
		return "domain bound"
	}
	return "none"
}

// Result is the answer of Solve.
type Result struct {
	Status Status
	Reason Reason
	// Level is the last level the search opened.
	Level int
	// Invariant maps every relation to a formula over Rel!0..Rel!n-1
	// that holds in every reachable state and excludes the query. Only
	// set for safe results.
	Invariant map[string]expr.Formula
	// Witness is a ground derivation of the query. Only set for unsafe
	// results.
	Witness *Witness
	Stats   Stats
}

// Witness is one step of a derivation: the rule applied, the argument
// values of its head and the derivations of its body applications.
type Witness struct {
	Relation string
	Args     []int64
	Rule     string
	Premises []*Witness
}

func (w *Witness) String() string {
	var b strings.Builder
	w.write(&b, 0)
	return b.String()
}

func (w *Witness) write(b *strings.Builder, indent int) {
	app := []string{w.Relation}
	for _, a := range w.Args {
		app = append(app, fmt.Sprint(a))
	}
	fmt.Fprintf(b, "%s(%s) by %s\n", strings.Repeat("  ", indent), strings.Join(app, " "), w.Rule)
	for _, p := range w.Premises {
		p.write(b, indent+1)
	}
}

// Depth is the height of the derivation.
func (w *Witness) Depth() int {
	d := 0
	for _, p := range w.Premises {
		if pd := p.Depth(); pd > d {
			d = pd
		}
	}
	return d + 1
}

func (c *Context) unknown(reason Reason) *Result {
	return &Result{Status: StatusUnknown, Reason: reason, Level: c.stats.MaxLevel, Stats: c.stats}
}

func (c *Context) safe(level int) *Result {
	inv := make(map[string]expr.Formula, len(c.order))
	for _, pt := range c.order {
		inv[pt.rel.Name] = pt.Invariant()
	}
	return &Result{Status: StatusSafe, Level: level, Invariant: inv, Stats: c.stats}
}

func (c *Context) unsafe(ctx context.Context, level int) (*Result, error) {
	if c.answer == nil {
		return nil, errors.New("query reached without a reach fact")
	}
	w, err := c.ground(ctx, c.answer, nil)
	if err != nil {
		return nil, err
	}
	return &Result{Status: StatusUnsafe, Level: level, Witness: w, Stats: c.stats}, nil
}

// ground instantiates the derivation recorded by rf and its
// justifications top down, one oracle call per step, with the head
// fixed to args.
func (c *Context) ground(ctx context.Context, rf *ReachFact, args []int64) (*Witness, error) {
	r := rf.rule
	pt := c.pts[r.rule.Head.Rel]
	fs := []expr.Formula{r.trans}
	for i, v := range args {
		fs = append(fs, expr.Eq(expr.V(pt.sig[i]), expr.K(v)))
	}
	for j, occ := range r.premises {
		fs = append(fs, rf.justification[j].at(occ.oidx))
	}
	res, m, _, err := pt.check(ctx, fs, nil)
	if err != nil {
		return nil, err
	}
	if res != oracle.Sat {
		if cerr := checkpoint(ctx); cerr != nil {
			return nil, cerr
		}
		return nil, errors.Errorf("cannot ground derivation of %s by %s: %s", pt.rel.Name, r.rule.Name, res)
	}
	w := &Witness{Relation: pt.rel.Name, Args: make([]int64, len(pt.sig)), Rule: r.rule.Name}
	for i, v := range pt.sig {
		w.Args[i] = m.Int(v)
	}
	for j, occ := range r.premises {
		vals := make([]int64, len(occ.vars))
		for i, v := range occ.vars {
			vals[i] = m.Int(v)
		}
		kid, err := c.ground(ctx, rf.justification[j], vals)
		if err != nil {
			return nil, err
		}
		w.Premises = append(w.Premises, kid)
	}
	return w, nil
}
