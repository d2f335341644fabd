package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "miraclemap"

// Metrics holds the moderation collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	admissions       *prometheus.CounterVec
	classifyFaults   prometheus.Counter
	classifyDuration prometheus.Histogram
	decisions        *prometheus.CounterVec
	violations       *prometheus.CounterVec
	previews         *prometheus.CounterVec
	rateLimited      *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		admissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "submissions_total",
			Help:      "Admitted submissions by content kind and initial status.",
		}, []string{"kind", "status"}),
		classifyFaults: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "classification_faults_total",
			Help:      "Classifier faults converted to the fail-open verdict.",
		}),
		classifyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "duration_seconds",
			Help:      "Time spent classifying one text.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "decisions_total",
			Help:      "Moderator decisions by resulting status.",
		}, []string{"status"}),
		violations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "violations",
			Name:      "recorded_total",
			Help:      "Violation records appended by type and content kind.",
		}, []string{"type", "kind"}),
		previews: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "previews_total",
			Help:      "Live validation requests by cache outcome.",
		}, []string{"cache"}),
		rateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rate",
			Name:      "limited_total",
			Help:      "Requests refused by the per-author limiter.",
		}, []string{"scope"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAdmission(kind, status string) {
	if m == nil {
		return
	}
	m.admissions.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) ObserveClassificationFault() {
	if m == nil {
		return
	}
	m.classifyFaults.Inc()
}

func (m *Metrics) ObserveClassifyDuration(seconds float64) {
	if m == nil {
		return
	}
	m.classifyDuration.Observe(seconds)
}

func (m *Metrics) ObserveDecision(status string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveViolation(violationType, kind string) {
	if m == nil {
		return
	}
	m.violations.WithLabelValues(violationType, kind).Inc()
}

func (m *Metrics) ObservePreview(cacheHit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if cacheHit {
		outcome = "hit"
	}
	m.previews.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRateLimited(scope string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(scope).Inc()
}
