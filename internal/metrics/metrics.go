// Package metrics tracks pipeline activity with Prometheus collectors.
//
// The tool is a batch job rather than a server, so metrics are gathered into a
// private registry and written once per run in the text exposition format,
// ready for a node_exporter textfile collector. All methods accept a nil
// *Metrics and do nothing, so callers never need to check.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "event_enricher"

// Event outcomes
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Metrics holds the collectors for one run
type Metrics struct {
	registry *prometheus.Registry

	PageFetches   *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	Resolutions   *prometheus.CounterVec
	Events        *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PageFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "page_fetches_total",
				Help:      "Pages fetched, labelled by HTTP status code or \"error\"",
			},
			[]string{"outcome"},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "page_fetch_duration_seconds",
				Help:      "Time spent fetching a single page",
				Buckets:   prometheus.DefBuckets,
			},
		),
		Resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "domain_resolutions_total",
				Help:      "Organizer domain resolutions by source tier (directory, lookup, none)",
			},
			[]string{"source"},
		),
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Events processed by outcome",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(m.PageFetches, m.FetchDuration, m.Resolutions, m.Events)
	return m
}

// ObserveFetch records one page fetch. A status of 0 means the request failed
// before a response arrived.
func (m *Metrics) ObserveFetch(status int, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "error"
	if status > 0 {
		outcome = strconv.Itoa(status)
	}
	m.PageFetches.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

// IncResolution counts a domain resolution result. An empty source counts as "none".
func (m *Metrics) IncResolution(source string) {
	if m == nil {
		return
	}
	if source == "" {
		source = "none"
	}
	m.Resolutions.WithLabelValues(source).Inc()
}

// IncEvent counts a processed event
func (m *Metrics) IncEvent(outcome string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(outcome).Inc()
}

// Gatherer exposes the registry, mainly for tests
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all metrics to path in the Prometheus text format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
