package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ycscrape"

// Fetch outcomes used as the result label.
const (
	ResultOK        = "ok"
	ResultNotFound  = "not_found"
	ResultEmptyName = "empty_name"
	ResultError     = "error"
)

// Metrics holds the run's counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ScrollAttempts prometheus.Counter
	EntitiesLoaded prometheus.Gauge
	SlugsFound     prometheus.Gauge
	PagesFetched   *prometheus.CounterVec
	FetchDuration  prometheus.Histogram
	FieldErrors    *prometheus.CounterVec
	Checkpoints    prometheus.Counter
	RecordsWritten prometheus.Counter
	SessionsOpen   prometheus.Gauge
}

// New registers every metric on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ScrollAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scroll_attempts_total",
			Help:      "Scroll-to-bottom iterations on the listing page.",
		}),
		EntitiesLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listing_entities_loaded",
			Help:      "Company cards visible when scrolling stopped.",
		}),
		SlugsFound: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listing_slugs_found",
			Help:      "Unique company slugs parsed from the listing.",
		}),
		PagesFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_pages_total",
			Help:      "Detail page fetches by outcome.",
		}, []string{"result"}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detail_fetch_duration_seconds",
			Help:      "Time spent on one detail page including session start-up.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
		FieldErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_extraction_errors_total",
			Help:      "Field extraction steps that failed.",
		}, []string{"field"}),
		Checkpoints: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoints_total",
			Help:      "Progress checkpoint files written.",
		}),
		RecordsWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Records in the final output file.",
		}),
		SessionsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_open",
			Help:      "Render sessions currently open.",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile dumps the registry in text exposition format, suitable for
// the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
