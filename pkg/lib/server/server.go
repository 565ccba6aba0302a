package server

import (
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const defaultAddress = ":8080"

// Option applies a configuration option to the given config.
type Option func(s *serverConfig)

// GetListenAndServeFunc builds the monitoring server of a long running
// chcsolve and returns the function that runs it.
func GetListenAndServeFunc(options ...Option) (func() error, *http.Server) {
	sc := defaultServerConfig()
	sc.apply(options)

	s := &http.Server{
		Handler: sc.handler(),
		Addr:    sc.address,
	}
	sc.logger.WithField("address", sc.address).Info("serving metrics")
	return s.ListenAndServe, s
}

func WithAddress(address string) Option {
	return func(sc *serverConfig) {
		sc.address = address
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(sc *serverConfig) {
		sc.logger = logger
	}
}

// WithDebug exposes the pprof handlers.
func WithDebug(debug bool) Option {
	return func(sc *serverConfig) {
		sc.debug = debug
	}
}

// WithGatherer replaces the default prometheus registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(sc *serverConfig) {
		sc.gatherer = g
	}
}

type serverConfig struct {
	logger   logrus.FieldLogger
	address  string
	gatherer prometheus.Gatherer
	debug    bool
}

func (sc *serverConfig) apply(options []Option) {
	for _, o := range options {
		o(sc)
	}
}

func defaultServerConfig() serverConfig {
	return serverConfig{
		logger:   logrus.StandardLogger(),
		address:  defaultAddress,
		gatherer: prometheus.DefaultGatherer,
		debug:    false,
	}
}

func (sc serverConfig) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(sc.gatherer, promhttp.HandlerOpts{}))
	if sc.debug {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}
