package search

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricSearchTotal      = "room_search_total"
	MetricSearchErrors     = "room_search_errors_total"
	MetricSearchDuration   = "room_search_duration_seconds"
	MetricSearchCandidates = "room_search_candidates"
)

// Error kinds used as the "kind" label of the error counter.
const (
	ErrorKindValidation = "validation"
	ErrorKindDataAccess = "data_access"
	ErrorKindRequester  = "unknown_requester"
	ErrorKindNotFound   = "not_found"
	ErrorKindInternal   = "internal"
)

// Metrics contains Prometheus metrics for room search.
// All operations are thread-safe.
type Metrics struct {
	searchTotal      *prometheus.CounterVec
	searchErrors     *prometheus.CounterVec
	searchDuration   prometheus.Histogram
	searchCandidates prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		searchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSearchTotal,
			Help: "Total number of room searches by ranking mode",
		}, []string{"mode"}),
		searchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSearchErrors,
			Help: "Total number of failed room searches by error kind",
		}, []string{"kind"}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricSearchDuration,
			Help:    "Histogram of room search duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		searchCandidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricSearchCandidates,
			Help:    "Histogram of candidate set sizes per search",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
		}),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncSearch counts one completed search in the given mode.
func (m *Metrics) IncSearch(mode string) {
	m.searchTotal.WithLabelValues(mode).Inc()
}

// IncError counts one failed operation of the given kind.
func (m *Metrics) IncError(kind string) {
	m.searchErrors.WithLabelValues(kind).Inc()
}

// ObserveDuration records a search duration sample.
func (m *Metrics) ObserveDuration(seconds float64) {
	m.searchDuration.Observe(seconds)
}

// ObserveCandidates records the size of a candidate set.
func (m *Metrics) ObserveCandidates(n int) {
	m.searchCandidates.Observe(float64(n))
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.searchTotal,
		m.searchErrors,
		m.searchDuration,
		m.searchCandidates,
	}
}
