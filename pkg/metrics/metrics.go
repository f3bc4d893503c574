// Package metrics exposes Prometheus collectors for the portal.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics.
type Metrics struct {
	// Live sessions
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter
	EventsTotal    *prometheus.CounterVec
	RenderDuration prometheus.Histogram

	// Application form
	StepTransitions    *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	Attachments        *prometheus.CounterVec
	Submissions        *prometheus.CounterVec
	DraftsSaved        prometheus.Counter

	// Admin
	AdminActions *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on a fresh registry under namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(namespace, reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from g.
func NewWithRegistry(namespace string, reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions_active",
			Help:      "Number of connected live sessions",
		}),
		SessionsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_sessions_total",
			Help:      "Total live sessions established",
		}),
		EventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_events_total",
			Help:      "DOM events received, by view and event",
		}, []string{"view", "event"}),
		RenderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering a view",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		StepTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_transitions_total",
			Help:      "Wizard navigation requests, by target step and outcome",
		}, []string{"step", "outcome"}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Field validation failures, by field",
		}, []string{"field"}),
		Attachments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachments_total",
			Help:      "Selected documents, by outcome",
		}, []string{"outcome"}),
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Application submissions, by outcome",
		}, []string{"outcome"}),
		DraftsSaved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drafts_saved_total",
			Help:      "Autosaved drafts",
		}),
		AdminActions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_actions_total",
			Help:      "Admin dashboard actions, by kind",
		}, []string{"action"}),
		gatherer: g,
	}
}

// Handler returns an HTTP handler for metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Transition records a navigation request.
func (m *Metrics) Transition(step int, outcome string) {
	if m == nil {
		return
	}
	m.StepTransitions.WithLabelValues(strconv.Itoa(step), outcome).Inc()
}

// ValidationFailed records a failed field.
func (m *Metrics) ValidationFailed(field string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(field).Inc()
}

// Attachment records a document selection outcome.
func (m *Metrics) Attachment(outcome string) {
	if m == nil {
		return
	}
	m.Attachments.WithLabelValues(outcome).Inc()
}

// Submission records a submission outcome.
func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

// DraftSaved records an autosave.
func (m *Metrics) DraftSaved() {
	if m == nil {
		return
	}
	m.DraftsSaved.Inc()
}

// Event records a DOM event on a view.
func (m *Metrics) Event(view, event string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(view, event).Inc()
}

// AdminAction records an admin action.
func (m *Metrics) AdminAction(kind string) {
	if m == nil {
		return
	}
	m.AdminActions.WithLabelValues(kind).Inc()
}

// SessionOpened tracks a connected live session.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
	m.SessionsTotal.Inc()
}

// SessionClosed tracks a disconnected live session.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

// ObserveRender records a render duration in seconds.
func (m *Metrics) ObserveRender(seconds float64) {
	if m == nil {
		return
	}
	m.RenderDuration.Observe(seconds)
}
