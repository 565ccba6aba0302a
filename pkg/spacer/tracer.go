package spacer

import (
	"fmt"
	"io"

	"github.com/hornwork/spacer/pkg/expr"
)

type Outcome string

const (
	OutcomeBlocked   Outcome = "blocked"
	OutcomeReachable Outcome = "reachable"
	OutcomeUndef     Outcome = "undef"
	OutcomeUnknown   Outcome = "unknown"
)

// Step is one expansion of a proof obligation.
type Step struct {
	Pob      PobID
	Relation string
	Level    int
	Depth    int
	Post     expr.Formula
	Outcome  Outcome
}

type Tracer interface {
	Trace(s Step)
}

type DefaultTracer struct{}

func (DefaultTracer) Trace(_ Step) {
}

type LoggingTracer struct {
	Writer io.Writer
}

func (t LoggingTracer) Trace(s Step) {
	fmt.Fprintf(t.Writer, "%s@%d/%d %s: %s\n", s.Relation, s.Level, s.Depth, s.Outcome, s.Post)
}
