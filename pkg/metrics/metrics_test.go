package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hornwork/spacer/pkg/spacer"
)

func TestEmitSolve(t *testing.T) {
	type tc struct {
		Name   string
		File   string
		Result *spacer.Result
		Status string
		Reason string
	}

	for _, tt := range []tc{
		{
			Name:   "safe",
			File:   "safe.yaml",
			Result: &spacer.Result{Status: spacer.StatusSafe, Level: 4, Stats: spacer.Stats{Queries: 12, Lemmas: 3}},
			Status: "safe",
		},
		{
			Name:   "unknown keeps the reason",
			File:   "limit.yaml",
			Result: &spacer.Result{Status: spacer.StatusUnknown, Reason: spacer.ReasonResourceLimit, Level: 7},
			Status: "unknown",
			Reason: "resource limit",
		},
		{
			Name:   "failed run",
			File:   "broken.yaml",
			Status: "error",
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			before := testutil.ToFloat64(solveCount.WithLabelValues(tt.Status, tt.Reason))
			EmitSolve(tt.File, tt.Result, time.Second)
			defer DeleteSolveMetric(tt.File)

			assert.Equal(t, before+1, testutil.ToFloat64(solveCount.WithLabelValues(tt.Status, tt.Reason)))
			if tt.Result == nil {
				assert.Zero(t, testutil.CollectAndCount(solveLevel, "spacer_level"))
				return
			}
			assert.Equal(t, float64(tt.Result.Level), testutil.ToFloat64(solveLevel.WithLabelValues(tt.File)))
			tt.Result.Stats.Each(func(name string, value int) {
				assert.Equal(t, float64(value), testutil.ToFloat64(solveStats.WithLabelValues(tt.File, name)), name)
			})
		})
	}
}

func TestDeleteSolveMetric(t *testing.T) {
	EmitSolve("a.yaml", &spacer.Result{Status: spacer.StatusSafe, Level: 2}, time.Millisecond)
	EmitSolve("b.yaml", &spacer.Result{Status: spacer.StatusSafe, Level: 3}, time.Millisecond)
	defer DeleteSolveMetric("b.yaml")

	DeleteSolveMetric("a.yaml")
	assert.Equal(t, 1, testutil.CollectAndCount(solveLevel, "spacer_level"))

	var m dto.Metric
	require.NoError(t, solveStats.WithLabelValues("b.yaml", "queries").Write(&m))
	assert.Zero(t, m.GetGauge().GetValue())

	n := 0
	spacer.Stats{}.Each(func(string, int) { n++ })
	assert.Equal(t, n, testutil.CollectAndCount(solveStats, "spacer_stats"))
}

func TestRegisterSolver(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	prometheus.DefaultRegisterer, reg = reg, prometheus.DefaultRegisterer.(*prometheus.Registry)
	defer func() { prometheus.DefaultRegisterer = reg }()

	assert.NotPanics(t, RegisterSolver)
	assert.Panics(t, RegisterSolver)
}
