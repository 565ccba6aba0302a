package oracle

import (
	"fmt"
	"io"

	"github.com/hornwork/spacer/pkg/expr"
)

type SearchPosition interface {
	Assumptions() []expr.Formula
	Result() Result
	Conflicts() []expr.Formula
}

type Tracer interface {
	Trace(p SearchPosition)
}

type DefaultTracer struct{}

func (DefaultTracer) Trace(_ SearchPosition) {
}

type LoggingTracer struct {
	Writer io.Writer
}

func (t LoggingTracer) Trace(p SearchPosition) {
	fmt.Fprintf(t.Writer, "---\nResult: %s\nAssumptions:\n", p.Result())
	for _, f := range p.Assumptions() {
		fmt.Fprintf(t.Writer, "- %s\n", f)
	}
	fmt.Fprintf(t.Writer, "Conflicts:\n")
	for _, f := range p.Conflicts() {
		fmt.Fprintf(t.Writer, "- %s\n", f)
	}
}

type position struct {
	assumptions []expr.Formula
	result      Result
	core        []expr.Formula
}

func (p position) Assumptions() []expr.Formula { return p.assumptions }
func (p position) Result() Result              { return p.result }
func (p position) Conflicts() []expr.Formula   { return p.core }
