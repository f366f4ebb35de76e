package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stressdost"

// Metrics exposes Prometheus collectors for trigger delivery and scoring.
type Metrics struct {
	selections           *prometheus.CounterVec
	generationRejections *prometheus.CounterVec
	sinkFailures         prometheus.Counter
	finalImpact          *prometheus.HistogramVec
	responses            *prometheus.CounterVec
	activeSessions       prometheus.Gauge
}

var (
	defaultOnce sync.Once
	shared      *Metrics
)

// Default returns the instance registered with the global registry. It is
// created once so repeated wiring does not panic on duplicate registration.
func Default() *Metrics {
	defaultOnce.Do(func() {
		shared = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return shared
}

// MustNewMetrics registers the collectors on reg. A collector that is already
// registered is reused; any other registration error panics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		selections: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trigger",
			Name:      "selections_total",
			Help:      "Triggers delivered, by source and cascade level.",
		}, []string{"source", "level"})),
		generationRejections: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "rejections_total",
			Help:      "Generated popups that could not be used, by reason.",
		}, []string{"reason"})),
		sinkFailures: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "failures_total",
			Help:      "Response rows that failed to reach at least one sink.",
		})),
		finalImpact: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "meter",
			Name:      "final_impact",
			Help:      "Final impact applied to a meter per trigger response.",
			Buckets:   []float64{-0.5, -0.2, 0, 0.1, 0.2, 0.3, 0.5, 0.75, 1},
		}, []string{"category"})),
		responses: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "meter",
			Name:      "responses_total",
			Help:      "Trigger responses processed, by category.",
		}, []string{"category"})),
		activeSessions: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Sessions currently held in memory.",
		})),
	}
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// IncSelection counts one delivered trigger.
func (m *Metrics) IncSelection(source, level string) {
	if m == nil {
		return
	}
	m.selections.WithLabelValues(source, level).Inc()
}

// IncGenerationRejection counts a generated popup that was not served.
func (m *Metrics) IncGenerationRejection(reason string) {
	if m == nil {
		return
	}
	m.generationRejections.WithLabelValues(reason).Inc()
}

// IncSinkFailure counts a response row with at least one failed sink write.
func (m *Metrics) IncSinkFailure() {
	if m == nil {
		return
	}
	m.sinkFailures.Inc()
}

// ObserveImpact records the final impact of one processed response.
func (m *Metrics) ObserveImpact(category string, impact float64) {
	if m == nil {
		return
	}
	m.responses.WithLabelValues(category).Inc()
	m.finalImpact.WithLabelValues(category).Observe(impact)
}

// SetActiveSessions reports the live session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
