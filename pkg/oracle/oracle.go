package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hornwork/spacer/pkg/expr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -o oraclefakes/fake_oracle.go . Oracle

// Result is the outcome of a satisfiability check.
type Result int

const (
	Unsat   Result = -1
	Unknown Result = 0
	Sat     Result = 1
)

func (r Result) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	}
	return "unknown"
}

var ErrIncomplete = errors.New("cancelled before a result could be found")

// Unsatisfiable is returned by helpers that require a model. It carries
// the assumptions that were sufficient for the conflict.
type Unsatisfiable []expr.Formula

func (e Unsatisfiable) Error() string {
	const msg = "constraints not satisfiable"
	if len(e) == 0 {
		return msg
	}
	s := make([]string, len(e))
	for i, f := range e {
		s[i] = f.String()
	}
	return fmt.Sprintf("%s: %s", msg, strings.Join(s, ", "))
}

// Oracle decides satisfiability of quantifier-free linear integer
// formulas. Assertions are scoped by Push and Pop; assumptions passed to
// Check only hold for that call and are the domain of UnsatCore.
type Oracle interface {
	Assert(fs ...expr.Formula)
	Push()
	Pop()
	Check(ctx context.Context, assumptions ...expr.Formula) (Result, error)
	// Model is valid after Check returned Sat.
	Model() expr.Model
	// UnsatCore is valid after Check returned Unsat. It is a subset of
	// the assumptions of that call.
	UnsatCore() []expr.Formula
	Reset()
}

// Factory creates independent oracles.
type Factory func() Oracle

type Option func(s *solver) error

// WithWidth sets the number of bits of every integer variable. Variables
// range over [-2^(width-1), 2^(width-1)).
func WithWidth(width int) Option {
	return func(s *solver) error {
		if width < 2 || width > 62 {
			return errors.Errorf("invalid integer width %d", width)
		}
		s.width = width
		return nil
	}
}

// WithTimeout bounds every Check call. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(s *solver) error {
		s.timeout = d
		return nil
	}
}

func WithTracer(t Tracer) Option {
	return func(s *solver) error {
		s.tracer = t
		return nil
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *solver) error {
		s.log = log
		return nil
	}
}

const DefaultWidth = 16

var defaults = []Option{
	func(s *solver) error {
		if s.width == 0 {
			s.width = DefaultWidth
		}
		return nil
	},
	func(s *solver) error {
		if s.tracer == nil {
			s.tracer = DefaultTracer{}
		}
		return nil
	},
	func(s *solver) error {
		if s.log == nil {
			log := logrus.New()
			log.SetLevel(logrus.WarnLevel)
			s.log = log
		}
		return nil
	},
}

// New returns an Oracle backed by a bit-blasting encoding into gini.
func New(options ...Option) (Oracle, error) {
	s := solver{}
	for _, option := range append(options, defaults...) {
		if err := option(&s); err != nil {
			return nil, err
		}
	}
	s.Reset()
	return &s, nil
}

// NewFactory validates options once and returns a Factory using them.
func NewFactory(options ...Option) (Factory, error) {
	if _, err := New(options...); err != nil {
		return nil, err
	}
	return func() Oracle {
		o, _ := New(options...)
		return o
	}, nil
}

// Entails reports whether the conjunction of premises implies every
// conclusion.
func Entails(ctx context.Context, o Oracle, premises []expr.Formula, conclusion expr.Formula) (bool, error) {
	o.Push()
	defer o.Pop()
	o.Assert(premises...)
	o.Assert(expr.MkNot(conclusion))
	res, err := o.Check(ctx)
	if err != nil {
		return false, err
	}
	switch res {
	case Unsat:
		return true, nil
	case Sat:
		return false, nil
	}
	return false, ErrIncomplete
}
