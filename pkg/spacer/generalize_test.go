package spacer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hornwork/spacer/pkg/expr"
	"github.com/hornwork/spacer/pkg/oracle"
)

func TestInductiveGeneralizer(t *testing.T) {
	type tc struct {
		Name     string
		File     string
		Relation string
		Options  []Option
		Setup    func(t *testing.T, c *Context)
		Cube     func(pt *PredTransformer) []expr.Formula
		Expected func(pt *PredTransformer) []expr.Formula
		Success  bool
	}

	for _, tt := range []tc{
		{
			Name: "drops the literal the proof does not need",
			Cube: func(pt *PredTransformer) []expr.Formula {
				return cube(expr.Ge(arg(pt, 0), expr.K(11)), expr.Le(arg(pt, 0), expr.K(20)))
			},
			Expected: func(pt *PredTransformer) []expr.Formula {
				return cube(expr.Ge(arg(pt, 0), expr.K(11)))
			},
			Success: true,
		},
		{
			Name:    "disabled",
			Options: []Option{WithLocalGeneralization(false)},
			Cube: func(pt *PredTransformer) []expr.Formula {
				return cube(expr.Ge(arg(pt, 0), expr.K(11)), expr.Le(arg(pt, 0), expr.K(20)))
			},
			Expected: func(pt *PredTransformer) []expr.Formula {
				return cube(expr.Ge(arg(pt, 0), expr.K(11)), expr.Le(arg(pt, 0), expr.K(20)))
			},
		},
		{
			Name: "equality is split and its bound relaxed",
			Cube: func(pt *PredTransformer) []expr.Formula {
				return cube(expr.Eq(arg(pt, 0), expr.K(15)))
			},
			Expected: func(pt *PredTransformer) []expr.Formula {
				return cube(expr.Ge(arg(pt, 0), expr.K(11)))
			},
			Success: true,
		},
		{
			Name: "lower bound relaxed to the first unreachable value",
			Cube: func(pt *PredTransformer) []expr.Formula {
				return cube(expr.Ge(arg(pt, 0), expr.K(40)))
			},
			Expected: func(pt *PredTransformer) []expr.Formula {
				return cube(expr.Ge(arg(pt, 0), expr.K(11)))
			},
			Success: true,
		},
		{
			Name: "equality that needs both bounds stays",
			File: "parity.yaml",
			Setup: func(t *testing.T, c *Context) {
				pt := mustPT(t, c, "Inv")
				install(t, pt, cube(expr.Le(arg(pt, 0), expr.K(-1))), 0)
				install(t, pt, cube(expr.Ge(arg(pt, 0), expr.K(1))), 0)
			},
			Cube: func(pt *PredTransformer) []expr.Formula {
				return cube(expr.Eq(arg(pt, 0), expr.K(1)))
			},
			Expected: func(pt *PredTransformer) []expr.Formula {
				return cube(expr.Eq(arg(pt, 0), expr.K(1)))
			},
		},
		{
			Name:     "relational cube projected onto one argument",
			File:     "two_relations.yaml",
			Relation: "Q",
			Setup: func(t *testing.T, c *Context) {
				p := mustPT(t, c, "P")
				install(t, p, cube(expr.Le(arg(p, 0), expr.K(-1))), 0)
				install(t, p, cube(expr.Ge(arg(p, 0), expr.K(3))), 0)
				install(t, mustPT(t, c, "Q"), nil, 0)
			},
			Cube: func(pt *PredTransformer) []expr.Formula {
				return cube(expr.Ge(arg(pt, 0), expr.K(2)), expr.Ge(arg(pt, 1), arg(pt, 0).AddConst(1)))
			},
			Expected: func(pt *PredTransformer) []expr.Formula {
				return cube(expr.Ge(arg(pt, 1), expr.K(3)))
			},
			Success: true,
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			file := tt.File
			if file == "" {
				file = "bounded.yaml"
			}
			rel := tt.Relation
			if rel == "" {
				rel = "Inv"
			}
			c := newContext(t, file, tt.Options...)
			pt := mustPT(t, c, rel)
			if tt.Setup != nil {
				tt.Setup(t, c)
			}
			n := c.pobs.newPob(pt, noPob, tt.Cube(pt), 1, 0)
			l := newLemma(c.nextID(), pt, tt.Cube(pt), 1, n.ID())

			g := &InductiveGeneralizer{c: c}
			require.NoError(t, g.Generalize(context.Background(), l, n))
			assert.Equal(t, cubeString(tt.Expected(pt)), cubeString(l.Cube()))
			assert.GreaterOrEqual(t, l.Level(), 1)
			blocks, err := oracle.Entails(context.Background(), c.newOracle(), n.Post(), l.CubeFormula())
			require.NoError(t, err)
			assert.True(t, blocks, "%s no longer blocks %s", l, n)
			if tt.Success {
				assert.Equal(t, 1, c.Stats().LocalGenSuccess)
			} else {
				assert.Equal(t, 0, c.Stats().LocalGenSuccess)
			}
		})
	}
}

func TestGlobalGeneralizerSubsume(t *testing.T) {
	ctx := context.Background()
	c := newContext(t, "bounded.yaml", WithGlobalGeneralization(true))
	pt := mustPT(t, c, "Inv")
	ge := func(k int64) []expr.Formula { return cube(expr.Ge(arg(pt, 0), expr.K(k))) }

	root := c.pobs.newPob(c.query, noPob, nil, 3, 0)
	c.queue.SetRoot(root, 3, 0)
	install(t, pt, ge(4), 1)
	install(t, pt, ge(6), 2)

	n := c.pobs.newPob(pt, root.ID(), ge(8), 1, 0)
	l := newLemma(c.nextID(), pt, ge(8), 0, n.ID())
	require.NoError(t, (&ClusterFinder{c: c}).Generalize(ctx, l, n))
	require.NoError(t, (&GlobalGeneralizer{c: c}).Generalize(ctx, l, n))

	cls := c.Clusters("Inv")
	require.Len(t, cls, 1)
	assert.Len(t, cls[0].members, 3)
	assert.Equal(t, c.Config().ClusterGas-1, cls[0].Gas())
	assert.Equal(t, 1, c.Stats().Subsumed)

	require.Len(t, c.pendingPobs, 1)
	kid := c.pendingPobs[0]
	assert.True(t, kid.IsMay())
	assert.Equal(t, c.Config().PobGas, kid.Gas())
	assert.Equal(t, 1, kid.Level())
	assert.Equal(t, root.ID(), kid.Parent())
	assert.Equal(t, cubeString(ge(4)), cubeString(kid.Post()))
}

func TestGlobalGeneralizerRewritesMayPob(t *testing.T) {
	ctx := context.Background()
	c := newContext(t, "bounded.yaml", WithGlobalGeneralization(true))
	pt := mustPT(t, c, "Inv")
	ge := func(k int64) []expr.Formula { return cube(expr.Ge(arg(pt, 0), expr.K(k))) }

	root := c.pobs.newPob(c.query, noPob, nil, 3, 0)
	c.queue.SetRoot(root, 3, 0)
	install(t, pt, ge(4), 1)
	install(t, pt, ge(6), 2)

	n := c.pobs.newPob(pt, root.ID(), ge(8), 1, 0)
	n.may = true
	l := newLemma(c.nextID(), pt, ge(8), 1, n.ID())
	require.NoError(t, (&ClusterFinder{c: c}).Generalize(ctx, l, n))
	require.NoError(t, (&GlobalGeneralizer{c: c}).Generalize(ctx, l, n))

	assert.Empty(t, c.pendingPobs)
	assert.True(t, n.IsDirty())
	require.True(t, n.Clean())
	assert.Equal(t, cubeString(ge(4)), cubeString(n.Post()))
}

func TestGlobalGeneralizerConcretize(t *testing.T) {
	ctx := context.Background()
	c := newContext(t, "two_relations.yaml", WithGlobalGeneralization(true))
	pt := mustPT(t, c, "Q")
	lin := func(k int64) []expr.Formula {
		return cube(expr.Le(arg(pt, 0).Add(arg(pt, 1).Scale(k)), expr.K(3)))
	}

	root := c.pobs.newPob(c.query, noPob, nil, 2, 0)
	c.queue.SetRoot(root, 2, 0)
	install(t, pt, lin(2), 1)

	n := c.pobs.newPob(pt, root.ID(), lin(3), 1, 0)
	l := newLemma(c.nextID(), pt, lin(3), 1, n.ID())
	require.NoError(t, (&ClusterFinder{c: c}).Generalize(ctx, l, n))
	require.NoError(t, (&GlobalGeneralizer{c: c}).Generalize(ctx, l, n))
	require.NotNil(t, n.concretize)
	assert.False(t, n.concretize.IsLinear())

	m := expr.NewModel()
	m.SetInt(sigVar(pt.rel, 0), 1)
	m.SetInt(sigVar(pt.rel, 1), 0)
	c.concretize(n, m)
	assert.Nil(t, n.concretize)
	require.Len(t, c.pendingPobs, 1)
	kid := c.pendingPobs[0]
	assert.True(t, kid.IsMay())
	assert.Equal(t, cubeString(cube(expr.Le(arg(pt, 0), expr.K(1)), expr.Le(arg(pt, 1), expr.K(0)))), cubeString(kid.Post()))
	assert.Equal(t, 1, c.Stats().Concretized)
}
