// Package metrics holds the Prometheus counters for the interview pipeline.
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Webhook request outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeRetry       = "retry"
	OutcomeFailure     = "failure"
	OutcomeUnavailable = "unavailable"
)

// Init cache results.
const (
	CacheHit    = "hit"
	CacheShared = "shared"
	CacheMiss   = "miss"
	CacheError  = "error"
)

type Recorder struct {
	registry *prometheus.Registry

	webhookRequests *prometheus.CounterVec
	completions     prometheus.Counter
	initCache       *prometheus.CounterVec
}

// New registers the counters on registry. It returns nil for a nil registry.
func New(registry *prometheus.Registry) *Recorder {
	if registry == nil {
		return nil
	}

	r := &Recorder{
		registry: registry,
		webhookRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentdesk_webhook_requests_total",
				Help: "Chat webhook requests by outcome",
			},
			[]string{"outcome"},
		),
		completions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "agentdesk_interview_completions_total",
				Help: "Interviews that produced a completion",
			},
		),
		initCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentdesk_init_cache_requests_total",
				Help: "Session init lookups by cache result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		r.webhookRequests,
		r.completions,
		r.initCache,
	)

	return r
}

// NewDefault builds a registry carrying the Go and process collectors.
func NewDefault() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return New(registry)
}

func (r *Recorder) WebhookRequest(outcome string) {
	if r != nil && r.webhookRequests != nil {
		r.webhookRequests.WithLabelValues(outcome).Inc()
	}
}

func (r *Recorder) InterviewCompleted() {
	if r != nil && r.completions != nil {
		r.completions.Inc()
	}
}

func (r *Recorder) InitCache(result string) {
	if r != nil && r.initCache != nil {
		r.initCache.WithLabelValues(result).Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
