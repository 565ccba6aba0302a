package spacer

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hornwork/spacer/pkg/expr"
	"github.com/hornwork/spacer/pkg/oracle"
)

// stepRecorder keeps every traced step and hands it to onStep.
type stepRecorder struct {
	steps  []Step
	onStep func(Step)
}

func (r *stepRecorder) Trace(s Step) {
	r.steps = append(r.steps, s)
	if r.onStep != nil {
		r.onStep(s)
	}
}

// frameSnapshot lists every installed lemma as relation, level and cube.
func frameSnapshot(c *Context) []string {
	var out []string
	for _, pt := range c.order {
		for _, l := range pt.frames.Lemmas() {
			out = append(out, fmt.Sprintf("%s %s %s", pt.rel.Name, levelString(l.level), l.body))
		}
	}
	sort.Strings(out)
	return out
}

func propagateAll(t *testing.T, ctx context.Context, c *Context, level int) {
	t.Helper()
	for _, pt := range c.order {
		_, err := pt.frames.propagateToNextLevel(ctx, level)
		require.NoError(t, err)
	}
}

func TestPromotedLemmasHold(t *testing.T) {
	type tc struct {
		Name     string
		File     string
		MaxLevel int
	}

	for _, tt := range []tc{
		{Name: "counter that reaches its bad state", File: "counter_unsafe.yaml", MaxLevel: 5},
		{Name: "bounded counter", File: "bounded.yaml", MaxLevel: 2},
		{Name: "parity", File: "parity.yaml", MaxLevel: 3},
		{Name: "fibonacci", File: "fib.yaml", MaxLevel: 3},
		{Name: "two relations", File: "two_relations.yaml", MaxLevel: 3},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			ctx := context.Background()
			c := newContext(t, tt.File, WithMaxLevel(tt.MaxLevel))
			_, err := c.Solve(ctx, 0)
			require.NoError(t, err)

			for level := 0; level <= tt.MaxLevel; level++ {
				before := make(map[*Lemma]int)
				for _, pt := range c.order {
					for _, l := range pt.frames.Lemmas() {
						before[l] = l.level
					}
				}
				propagateAll(t, ctx, c, level)

				for _, pt := range c.order {
					for _, l := range pt.frames.Lemmas() {
						old, ok := before[l]
						if !ok || old == l.level {
							continue
						}
						l.ctp = nil
						holds, _, err := pt.IsInvariant(ctx, l.level, l)
						require.NoError(t, err)
						assert.True(t, holds, "%s moved from %d to %s", l, old, levelString(l.level))
					}
				}
			}
		})
	}
}

func TestInvariantLemmasAreInductive(t *testing.T) {
	type tc struct {
		Name    string
		File    string
		Options []Option
	}

	for _, tt := range []tc{
		{Name: "bounded counter", File: "bounded.yaml"},
		{Name: "parity", File: "parity.yaml"},
		{Name: "two relations", File: "two_relations.yaml"},
		{Name: "parity with global generalization", File: "parity.yaml", Options: []Option{WithGlobalGeneralization(true)}},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			ctx := context.Background()
			c := newContext(t, tt.File, tt.Options...)
			res, err := c.Solve(ctx, 0)
			require.NoError(t, err)
			require.Equal(t, StatusSafe, res.Status)

			for _, pt := range c.order {
				for _, l := range pt.frames.lemmasGeq(InfLevel) {
					l.ctp = nil
					holds, _, err := pt.IsInvariant(ctx, InfLevel, l)
					require.NoError(t, err)
					assert.True(t, holds, "%s is not inductive", l)
				}
			}
		})
	}
}

func TestPobLevelAndDepthNeverDecrease(t *testing.T) {
	type tc struct {
		Name    string
		File    string
		Options []Option
	}

	pushing := DefaultConfig()
	pushing.DomainWidth = 8
	pushing.MaxLevel = 40
	pushing.PushPobs = true

	for _, tt := range []tc{
		{Name: "bounded counter", File: "bounded.yaml"},
		{Name: "parity", File: "parity.yaml"},
		{Name: "shallow counterexample", File: "shallow_unsafe.yaml"},
		{Name: "non-linear counterexample", File: "fib_unsafe.yaml"},
		{Name: "two relations", File: "two_relations.yaml"},
		{Name: "parity with pushed obligations", File: "parity.yaml", Options: []Option{WithConfig(pushing)}},
		{Name: "parity with global generalization", File: "parity.yaml", Options: []Option{WithGlobalGeneralization(true)}},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			rec := &stepRecorder{}
			c := newContext(t, tt.File, append(tt.Options, WithTracer(rec))...)
			_, err := c.Solve(context.Background(), 0)
			require.NoError(t, err)
			require.NotEmpty(t, rec.steps)

			last := make(map[PobID]Step)
			for _, s := range rec.steps {
				if prev, ok := last[s.Pob]; ok {
					assert.GreaterOrEqual(t, s.Level, prev.Level, "pob %d", s.Pob)
					assert.GreaterOrEqual(t, s.Depth, prev.Depth, "pob %d", s.Pob)
				}
				last[s.Pob] = s
			}
		})
	}
}

func TestFramesOnlyGetStronger(t *testing.T) {
	type tc struct {
		Name string
		File string
	}

	for _, tt := range []tc{
		{Name: "bounded counter", File: "bounded.yaml"},
		{Name: "parity", File: "parity.yaml"},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			ctx := context.Background()
			var c *Context
			var o oracle.Oracle
			previous := make(map[string]expr.Formula)
			rec := &stepRecorder{onStep: func(Step) {
				levels := []int{InfLevel}
				for i := 0; i <= c.queue.MaxLevel()+1; i++ {
					levels = append(levels, i)
				}
				for _, pt := range c.order {
					for _, level := range levels {
						key := pt.rel.Name + "/" + levelString(level)
						now := pt.Formula(level)
						if old, ok := previous[key]; ok {
							stronger, err := oracle.Entails(ctx, o, []expr.Formula{now}, old)
							require.NoError(t, err)
							assert.True(t, stronger, "%s weakened from %s to %s", key, old, now)
						}
						previous[key] = now
					}
				}
			}}
			c = newContext(t, tt.File, WithTracer(rec))
			o = c.newOracle()

			res, err := c.Solve(ctx, 0)
			require.NoError(t, err)
			assert.Equal(t, StatusSafe, res.Status)
			assert.NotEmpty(t, rec.steps)
		})
	}
}

func TestNoObligationIsLost(t *testing.T) {
	type tc struct {
		Name    string
		File    string
		Options []Option
	}

	for _, tt := range []tc{
		{Name: "bounded counter", File: "bounded.yaml"},
		{Name: "shallow counterexample", File: "shallow_unsafe.yaml"},
		{Name: "non-linear counterexample", File: "fib_unsafe.yaml"},
		{Name: "counter out of levels", File: "counter_unsafe.yaml", Options: []Option{WithMaxLevel(5)}},
		{Name: "parity with global generalization", File: "parity.yaml", Options: []Option{WithGlobalGeneralization(true)}},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			c := newContext(t, tt.File, tt.Options...)
			_, err := c.Solve(context.Background(), 0)
			require.NoError(t, err)

			pending := make(map[*Pob]bool)
			for _, n := range c.pendingPobs {
				pending[n] = true
			}
			for _, n := range c.pobs.pobs {
				if n.IsClosed() || c.queue.IsRoot(n) || pending[n] {
					continue
				}
				assert.GreaterOrEqual(t, n.heapIndex, 0, "%s is open but not queued", n)
			}
		})
	}
}

func TestQueueShrinksByOnePerClosedPob(t *testing.T) {
	c := newContext(t, "bounded.yaml")
	pt := mustPT(t, c, "Inv")
	root := c.pobs.newPob(c.query, noPob, nil, 3, 0)
	c.queue.SetRoot(root, 3, 0)
	for i := int64(0); i < 5; i++ {
		c.queue.Push(c.pobs.newPob(pt, root.ID(), cube(expr.Ge(arg(pt, 0), expr.K(11+i))), 2, 1))
	}
	require.Equal(t, 6, c.queue.Len())

	for c.queue.Len() > 0 {
		before := c.queue.Len()
		n := c.queue.Top()
		require.NotNil(t, n)
		c.queue.Pop()
		c.closePob(n, PobBlocked)
		assert.Equal(t, before-1, c.queue.Len(), "closing %s", n)
	}
	assert.True(t, root.IsClosed())
	assert.Empty(t, root.Children())
}

func TestClusterRoundTrip(t *testing.T) {
	type tc struct {
		Name    string
		Members []int64
		Lemma   int64
		Lit     func(x expr.Linear, k int64) expr.Formula
	}

	for _, tt := range []tc{
		{
			Name:    "lower bounds",
			Members: []int64{4, 6},
			Lemma:   8,
			Lit:     func(x expr.Linear, k int64) expr.Formula { return expr.Ge(x, expr.K(k)) },
		},
		{
			Name:    "upper bounds",
			Members: []int64{-4, -6},
			Lemma:   -8,
			Lit:     func(x expr.Linear, k int64) expr.Formula { return expr.Le(x, expr.K(k)) },
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			ctx := context.Background()
			c := newContext(t, "bounded.yaml", WithGlobalGeneralization(true))
			pt := mustPT(t, c, "Inv")
			at := func(k int64) []expr.Formula { return cube(tt.Lit(arg(pt, 0), k)) }

			root := c.pobs.newPob(c.query, noPob, nil, 3, 0)
			c.queue.SetRoot(root, 3, 0)
			for i, k := range tt.Members {
				install(t, pt, at(k), i+1)
			}
			n := c.pobs.newPob(pt, root.ID(), at(tt.Lemma), 1, 0)
			l := newLemma(c.nextID(), pt, at(tt.Lemma), 0, n.ID())
			require.NoError(t, (&ClusterFinder{c: c}).Generalize(ctx, l, n))

			cls := c.Clusters("Inv")
			require.Len(t, cls, 1)
			cl := cls[0]
			for _, m := range cl.members {
				sub, ok := cl.pattern.Match(m.lemma.cube)
				require.True(t, ok)
				assert.Equal(t, m.sub, sub)
				assert.Equal(t, cubeString(m.lemma.cube), cubeString(expr.SortLits(cl.pattern.Instantiate(m.sub))))
			}

			generalized, err := (&GlobalGeneralizer{c: c}).subsume(ctx, cl, l)
			require.NoError(t, err)
			require.NotEmpty(t, generalized)
			for _, m := range cl.members {
				covered, err := oracle.Entails(ctx, c.newOracle(), m.lemma.cube, expr.MkAnd(generalized...))
				require.NoError(t, err)
				assert.True(t, covered, "%s is not covered by %s", cubeString(m.lemma.cube), cubeString(generalized))
			}
		})
	}
}

func TestPropagationIsIdempotent(t *testing.T) {
	type tc struct {
		Name     string
		File     string
		MaxLevel int
	}

	for _, tt := range []tc{
		{Name: "counter that reaches its bad state", File: "counter_unsafe.yaml", MaxLevel: 4},
		{Name: "parity", File: "parity.yaml", MaxLevel: 3},
		{Name: "two relations", File: "two_relations.yaml", MaxLevel: 3},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			ctx := context.Background()
			c := newContext(t, tt.File, WithMaxLevel(tt.MaxLevel))
			_, err := c.Solve(ctx, 0)
			require.NoError(t, err)

			for level := 0; level <= tt.MaxLevel; level++ {
				propagateAll(t, ctx, c, level)
				once := frameSnapshot(c)
				propagateAll(t, ctx, c, level)
				assert.Equal(t, once, frameSnapshot(c), "level %d", level)
			}
		})
	}
}
