// Package metrics records Prometheus counters for one steamfetch run.
//
// A CLI run is short-lived, so nothing is served over HTTP; the registry can be
// written once at the end of a run in node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultNamespace = "steamfetch"
	outcomeOK        = "ok"
)

// Recorder holds the counters for one run. A nil *Recorder is valid and records nothing.
type Recorder struct {
	namespace string
	registry  *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retries         *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	gamesSkipped    prometheus.Counter
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithRegistry sets the registry the metrics are registered on.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(r *Recorder) {
		if registry != nil {
			r.registry = registry
		}
	}
}

// New creates a Recorder on a fresh registry.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: defaultNamespace,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}

	auto := promauto.With(r.registry)

	r.requests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "api_requests_total",
		Help:      "Steam Web API request attempts by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	r.requestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Steam Web API request attempt latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	r.retries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "api_retries_total",
		Help:      "Steam Web API retries by endpoint",
	}, []string{"endpoint"})

	r.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "achievement_cache_lookups_total",
		Help:      "Achievement cache lookups by result",
	}, []string{"result"})

	r.gamesSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "achievement_games_skipped_total",
		Help:      "Games skipped because their player achievements could not be fetched",
	})

	return r
}

// ObserveRequest records one request attempt. An empty outcome means success.
func (r *Recorder) ObserveRequest(endpoint, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	if outcome == "" {
		outcome = outcomeOK
	}
	r.requests.WithLabelValues(endpoint, outcome).Inc()
	r.requestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveRetry records that a request is about to be retried.
func (r *Recorder) ObserveRetry(endpoint string) {
	if r == nil {
		return
	}
	r.retries.WithLabelValues(endpoint).Inc()
}

// ObserveCacheLookup records an achievement cache hit or miss.
func (r *Recorder) ObserveCacheLookup(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveGameSkipped records a game dropped from aggregation.
func (r *Recorder) ObserveGameSkipped() {
	if r == nil {
		return
	}
	r.gamesSkipped.Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
