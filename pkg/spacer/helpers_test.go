package spacer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hornwork/spacer/pkg/chc"
	"github.com/hornwork/spacer/pkg/expr"
)

func loadRules(t *testing.T, name string) *chc.RuleSet {
	t.Helper()
	rs, err := chc.LoadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return rs
}

func newContext(t *testing.T, name string, options ...Option) *Context {
	t.Helper()
	c, err := New(loadRules(t, name), append([]Option{WithDomainWidth(8), WithMaxLevel(40)}, options...)...)
	require.NoError(t, err)
	return c
}

func mustPT(t *testing.T, c *Context, name string) *PredTransformer {
	t.Helper()
	pt, ok := c.PredTransformer(name)
	require.True(t, ok, "no relation %s", name)
	return pt
}

// arg is argument i of pt's relation in the current state.
func arg(pt *PredTransformer, i int) expr.Linear {
	return expr.V(sigVar(pt.rel, i))
}

func cube(lits ...expr.Formula) []expr.Formula {
	return expr.SortLits(lits)
}

func cubeString(c []expr.Formula) string {
	return expr.MkAnd(c...).String()
}

// install adds a lemma blocking c at level directly to the frames.
func install(t *testing.T, pt *PredTransformer, c []expr.Formula, level int) *Lemma {
	t.Helper()
	l := newLemma(pt.ctx.nextID(), pt, c, level, noPob)
	require.True(t, pt.AddLemma(l), "lemma %s was discarded", l)
	return l
}
