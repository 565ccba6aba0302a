package oracle

import (
	"context"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hornwork/spacer/pkg/expr"
)

const (
	satisfiable   = 1
	unsatisfiable = -1
)

// scope holds the formulas asserted since the matching Push. Every
// formula of a pushed scope is guarded by act, which is assumed on each
// Check while the scope is open and fixed to false by Pop.
type scope struct {
	act z.Lit
	fs  []expr.Formula
}

// solver keeps one gini instance and one circuit for its whole life.
// Assertions and assumptions are encoded once and only the new part of
// the circuit is written on each call.
type solver struct {
	width   int
	timeout time.Duration
	tracer  Tracer
	log     logrus.FieldLogger

	g      *gini.Gini
	enc    *encoder
	scopes []scope
	// stale is set after gini was interrupted; the next Check starts
	// from a fresh instance and replays the open scopes.
	stale bool

	model expr.Model
	core  []expr.Formula
}

func (s *solver) Assert(fs ...expr.Formula) {
	top := &s.scopes[len(s.scopes)-1]
	top.fs = append(top.fs, fs...)
	if s.stale {
		return
	}
	for _, f := range fs {
		s.assert(top.act, f)
	}
}

func (s *solver) assert(act z.Lit, f expr.Formula) {
	m := s.enc.Formula(f)
	if m == s.enc.c.T {
		return
	}
	s.enc.Emit(s.g, m)
	if act != z.LitNull {
		s.g.Add(act.Not())
	}
	s.g.Add(m)
	s.g.Add(0)
}

func (s *solver) Push() {
	sc := scope{act: z.LitNull}
	if !s.stale {
		sc.act = s.enc.c.Lit()
		s.enc.Emit(s.g, sc.act)
	}
	s.scopes = append(s.scopes, sc)
}

func (s *solver) Pop() {
	if len(s.scopes) == 1 {
		panic("oracle: pop without matching push")
	}
	top := s.scopes[len(s.scopes)-1]
	s.scopes = s.scopes[:len(s.scopes)-1]
	if !s.stale && top.act != z.LitNull {
		s.g.Add(top.act.Not())
		s.g.Add(0)
	}
}

func (s *solver) Reset() {
	s.g = gini.New()
	s.enc = newEncoder(s.width)
	s.scopes = []scope{{act: z.LitNull}}
	s.stale = false
	s.model = expr.Model{}
	s.core = nil
}

// rebuild replays the open scopes into a fresh gini instance.
func (s *solver) rebuild() {
	s.g = gini.New()
	s.enc = newEncoder(s.width)
	s.stale = false
	for i := range s.scopes {
		sc := &s.scopes[i]
		sc.act = z.LitNull
		if i > 0 {
			sc.act = s.enc.c.Lit()
			s.enc.Emit(s.g, sc.act)
		}
		for _, f := range sc.fs {
			s.assert(sc.act, f)
		}
	}
}

func (s *solver) Model() expr.Model {
	return s.model
}

func (s *solver) UnsatCore() []expr.Formula {
	return s.core
}

func (s *solver) size() int {
	n := 0
	for _, sc := range s.scopes {
		n += len(sc.fs)
	}
	return n
}

// Check decides the conjunction of the assertions and the assumptions.
// The context is polled while gini runs in its own goroutine; a
// cancelled or timed out check reports Unknown together with
// ErrIncomplete.
func (s *solver) Check(ctx context.Context, assumptions ...expr.Formula) (result Result, err error) {
	s.model = expr.Model{}
	s.core = nil
	if s.stale {
		s.rebuild()
	}

	defer func() {
		// This likely indicates a bug, so discard whatever
		// return values were produced.
		if derr := s.enc.Error(); derr != nil {
			s.enc.errs = nil
			s.model = expr.Model{}
			s.core = nil
			result = Unknown
			err = derr
		}
	}()

	assumed := make([]z.Lit, 0, len(s.scopes)+len(assumptions))
	for _, sc := range s.scopes[1:] {
		assumed = append(assumed, sc.act)
	}
	bySelector := make(map[z.Lit]int, len(assumptions))
	for i, f := range assumptions {
		sel := s.enc.Selector(s.g, f)
		if _, ok := bySelector[sel]; !ok {
			bySelector[sel] = i
		}
		assumed = append(assumed, sel)
	}
	s.g.Assume(assumed...)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	outcome, err := s.solve(ctx)
	if err != nil {
		s.stale = true
		s.tracer.Trace(position{assumptions: assumptions, result: Unknown})
		return Unknown, err
	}

	switch outcome {
	case satisfiable:
		s.model = s.enc.Model(s.g)
		result = Sat
	case unsatisfiable:
		for _, m := range s.g.Why(nil) {
			if i, ok := bySelector[m]; ok {
				s.core = append(s.core, assumptions[i])
			}
		}
		result = Unsat
	default:
		s.stale = true
		result = Unknown
	}
	s.tracer.Trace(position{assumptions: assumptions, result: result, core: s.core})
	return result, nil
}

func (s *solver) solve(ctx context.Context) (int, error) {
	if ctx.Done() == nil {
		return s.g.Solve(), nil
	}
	if err := ctx.Err(); err != nil {
		return 0, errors.Wrap(ErrIncomplete, err.Error())
	}
	run := s.g.GoSolve()
	wait := 50 * time.Microsecond
	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		if res, done := run.Test(); done {
			return res, nil
		}
		select {
		case <-ctx.Done():
			if res := run.Stop(); res != 0 {
				return res, nil
			}
			s.log.WithField("assertions", s.size()).Debug("oracle check cancelled")
			return 0, errors.Wrap(ErrIncomplete, ctx.Err().Error())
		case <-timer.C:
			if wait < 10*time.Millisecond {
				wait *= 2
			}
			timer.Reset(wait)
		}
	}
}
