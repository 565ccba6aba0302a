package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/hornwork/spacer/pkg/chc"
	"github.com/hornwork/spacer/pkg/lib/filemonitor"
	"github.com/hornwork/spacer/pkg/lib/server"
	"github.com/hornwork/spacer/pkg/lib/signals"
	"github.com/hornwork/spacer/pkg/metrics"
	"github.com/hornwork/spacer/pkg/spacer"
	"github.com/hornwork/spacer/pkg/version"
)

var registerMetrics sync.Once

// ErrUnsolved is returned when a file ends without a safe or unsafe answer.
var ErrUnsolved = errors.New("some files were not solved")

type options struct {
	configPath  string
	metricsFile string
	listenAddr  string
	debug       bool
	version     bool
	watch       bool
	trace       bool
	dump        bool
	jobs        int
	fromLevel   int

	maxLevel      int
	width         int
	global        bool
	restarts      bool
	validate      bool
	oracleTimeout time.Duration

	out io.Writer
}

func newRootCmd() *cobra.Command {
	o := options{}

	cmd := &cobra.Command{
		Use:          "chcsolve [flags] FILE...",
		Short:        "Decides satisfiability of constrained Horn clauses",
		Long:         `chcsolve reads rule sets and either prints an inductive invariant per relation or a derivation of the query.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.out = cmd.OutOrStdout()
			if o.version {
				fmt.Fprint(o.out, version.String())
				return nil
			}
			if len(args) == 0 {
				return errors.New("no rule files given")
			}
			if o.jobs < 1 {
				return errors.Errorf("--jobs must be positive, got %d", o.jobs)
			}
			if o.watch && o.configPath == "" {
				return errors.New("--watch requires --config")
			}

			logger := logrus.New()
			logger.SetOutput(cmd.ErrOrStderr())
			if o.debug {
				logger.SetLevel(logrus.DebugLevel)
			}
			logger.Debugf("log level %s", logger.Level)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			return o.run(ctx, cmd, logger, args)
		},
	}

	cmd.Flags().StringVar(&o.configPath, "config", "", "path to a YAML or JSON solver configuration")
	cmd.Flags().StringVar(&o.metricsFile, "metrics-file", "", "write prometheus metrics in text format to this file after every round")
	cmd.Flags().StringVar(&o.listenAddr, "listen-address", "", "serve /metrics and /healthz on this address while watching (pprof too with --debug)")
	cmd.Flags().BoolVar(&o.debug, "debug", false, "use debug log level and dump the frames of every run")
	cmd.Flags().BoolVar(&o.version, "version", false, "displays the chcsolve version")
	cmd.Flags().BoolVar(&o.watch, "watch", false, "solve again whenever the configuration file changes or on SIGHUP")
	cmd.Flags().BoolVar(&o.trace, "trace", false, "log every expanded obligation")
	cmd.Flags().BoolVar(&o.dump, "dump", false, "print the frames of every relation after solving")
	cmd.Flags().IntVarP(&o.jobs, "jobs", "j", 4, "number of files solved at once")
	cmd.Flags().IntVar(&o.fromLevel, "from-level", 0, "first level to open")

	cmd.Flags().IntVar(&o.maxLevel, "max-level", 0, "give up after this many levels")
	cmd.Flags().IntVar(&o.width, "width", 0, "bit width of the integer domain of the oracle")
	cmd.Flags().BoolVar(&o.global, "global", false, "enable global generalization")
	cmd.Flags().BoolVar(&o.restarts, "restarts", false, "restart the obligation queue on a luby schedule")
	cmd.Flags().BoolVar(&o.validate, "validate", false, "check every answer before printing it")
	cmd.Flags().DurationVar(&o.oracleTimeout, "oracle-timeout", 0, "time limit of a single reachability query, 0 for none")

	return cmd
}

// config applies the flags that were set on top of the base configuration.
func (o *options) config(flags *pflag.FlagSet, base spacer.Config) spacer.Config {
	if flags.Changed("max-level") {
		base.MaxLevel = o.maxLevel
	}
	if flags.Changed("width") {
		base.DomainWidth = o.width
	}
	if flags.Changed("global") {
		base.GlobalGeneralization = o.global
	}
	if flags.Changed("restarts") {
		base.UseRestarts = o.restarts
	}
	if flags.Changed("validate") {
		base.Validate = o.validate
	}
	if flags.Changed("oracle-timeout") {
		base.OracleTimeout = o.oracleTimeout
	}
	return base
}

func (o *options) run(ctx context.Context, cmd *cobra.Command, logger *logrus.Logger, files []string) error {
	if o.metricsFile != "" || o.listenAddr != "" {
		registerMetrics.Do(metrics.RegisterSolver)
	}

	if !o.watch {
		base := spacer.DefaultConfig()
		if o.configPath != "" {
			cfg, err := spacer.LoadConfig(o.configPath)
			if err != nil {
				return err
			}
			base = cfg
		}
		return o.round(ctx, logger, o.config(cmd.Flags(), base), files)
	}

	reloaded := make(chan struct{}, 1)
	store, err := filemonitor.WatchConfig(ctx, logger, o.configPath, func(spacer.Config) {
		metrics.ConfigReloadCount.Inc()
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	if o.listenAddr != "" {
		serve, s := server.GetListenAndServeFunc(server.WithAddress(o.listenAddr), server.WithLogger(logger), server.WithDebug(o.debug))
		go func() {
			if err := serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("metrics server stopped")
			}
		}()
		defer s.Close()
	}
	hup := signals.Reload(ctx)
	for {
		if err := o.round(ctx, logger, o.config(cmd.Flags(), store.Config()), files); err != nil && !errors.Is(err, ErrUnsolved) {
			logger.WithError(err).Error("round failed")
		}
		logger.Info("waiting for configuration changes")
		select {
		case <-ctx.Done():
			return nil
		case <-reloaded:
		case <-hup:
			if err := store.Reload(); err != nil {
				logger.WithError(err).Warn("reload failed")
			}
		}
	}
}

// round solves every file once and prints the answers in file order.
func (o *options) round(ctx context.Context, logger *logrus.Logger, cfg spacer.Config, files []string) error {
	results := make([]string, len(files))
	var unsolved bool
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.jobs)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			out, res, err := o.solve(gctx, logger, cfg, file)
			if err != nil {
				return errors.Wrap(err, file)
			}
			mu.Lock()
			defer mu.Unlock()
			results[i] = out
			if res.Status == spacer.StatusUnknown {
				unsolved = true
			}
			return nil
		})
	}
	err := g.Wait()
	for _, out := range results {
		fmt.Fprint(o.out, out)
	}
	if o.metricsFile != "" {
		if werr := prometheus.WriteToTextfile(o.metricsFile, prometheus.DefaultGatherer); werr != nil {
			logger.WithError(werr).Warn("writing metrics")
		}
	}
	if err != nil {
		return err
	}
	if unsolved {
		return ErrUnsolved
	}
	return nil
}

func (o *options) solve(ctx context.Context, logger *logrus.Logger, cfg spacer.Config, file string) (string, *spacer.Result, error) {
	start := time.Now()
	rs, err := chc.LoadFile(file)
	if err != nil {
		metrics.EmitSolve(file, nil, time.Since(start))
		return "", nil, err
	}

	runID := uuid.New().String()
	log := logger.WithFields(logrus.Fields{"file": file})
	opts := append(cfg.Options(), spacer.WithLogger(log), spacer.WithRunID(runID))
	if o.trace {
		w := logger.WriterLevel(logrus.DebugLevel)
		defer w.Close()
		opts = append(opts, spacer.WithTracer(spacer.LoggingTracer{Writer: w}))
	}
	c, err := spacer.New(rs, opts...)
	if err != nil {
		metrics.EmitSolve(file, nil, time.Since(start))
		return "", nil, err
	}

	res, err := c.Solve(ctx, o.fromLevel)
	metrics.EmitSolve(file, res, time.Since(start))
	if err != nil {
		return "", nil, err
	}
	log.WithFields(logrus.Fields{
		"run":      runID,
		"status":   res.Status,
		"level":    res.Level,
		"duration": time.Since(start),
	}).Info("solved")

	var b strings.Builder
	writeResult(&b, file, res)
	if o.dump || o.debug {
		if err := c.Dump(&b); err != nil {
			return "", nil, err
		}
	}
	return b.String(), res, nil
}

func writeResult(w io.Writer, file string, res *spacer.Result) {
	switch res.Status {
	case spacer.StatusSafe:
		fmt.Fprintf(w, "%s: safe at level %d\n", file, res.Level)
		names := make([]string, 0, len(res.Invariant))
		for name := range res.Invariant {
			if name != chc.QueryName {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %s\n", name, res.Invariant[name])
		}
	case spacer.StatusUnsafe:
		fmt.Fprintf(w, "%s: unsafe at level %d\n", file, res.Level)
		for _, line := range strings.SplitAfter(res.Witness.String(), "\n") {
			if line != "" {
				fmt.Fprintf(w, "  %s", line)
			}
		}
	default:
		fmt.Fprintf(w, "%s: unknown (%s) at level %d\n", file, res.Reason, res.Level)
	}
}
