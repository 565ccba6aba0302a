package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hornwork/spacer/pkg/spacer"
)

const (
	FileLabel    = "file"
	StatusLabel  = "status"
	ReasonLabel  = "reason"
	CounterLabel = "counter"
)

// To add new metrics:
// 1. Register new metrics in RegisterSolver() below.
// 2. Add appropriate metric updates in EmitSolve (or elsewhere instead).
var (
	solveCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spacer_solve_total",
			Help: "Monotonic count of finished solve runs",
		},
		[]string{StatusLabel, ReasonLabel},
	)

	solveDurationSummary = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "spacer_solve_duration_seconds",
			Help:       "The duration of a solve run",
			Objectives: map[float64]float64{0.95: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{StatusLabel},
	)

	solveLevel = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spacer_level",
			Help: "Last level opened by the most recent solve run of a file",
		},
		[]string{FileLabel},
	)

	solveStats = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "spacer_stats",
			Help: "Search counters of the most recent solve run of a file",
		},
		[]string{FileLabel, CounterLabel},
	)

	// exported since it's not handled by EmitSolve
	ConfigReloadCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "spacer_config_reload_total",
			Help: "Monotonic count of configuration reloads",
		},
	)
)

func RegisterSolver() {
	prometheus.MustRegister(solveCount)
	prometheus.MustRegister(solveDurationSummary)
	prometheus.MustRegister(solveLevel)
	prometheus.MustRegister(solveStats)
	prometheus.MustRegister(ConfigReloadCount)
}

// EmitSolve records a finished run over file. A nil result counts as a
// failed run.
func EmitSolve(file string, res *spacer.Result, duration time.Duration) {
	if res == nil {
		solveCount.WithLabelValues("error", "").Inc()
		return
	}
	status := res.Status.String()
	reason := ""
	if res.Status == spacer.StatusUnknown {
		reason = res.Reason.String()
	}
	solveCount.WithLabelValues(status, reason).Inc()
	solveDurationSummary.WithLabelValues(status).Observe(duration.Seconds())
	solveLevel.WithLabelValues(file).Set(float64(res.Level))
	res.Stats.Each(func(name string, value int) {
		solveStats.WithLabelValues(file, name).Set(float64(value))
	})
}

func DeleteSolveMetric(file string) {
	solveLevel.DeleteLabelValues(file)
	solveStats.DeletePartialMatch(prometheus.Labels{FileLabel: file})
}
