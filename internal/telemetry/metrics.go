// Package telemetry holds the Prometheus metrics and OpenTelemetry tracing
// setup shared by the daemon's components.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "notifyd"

// Metrics groups every collector notifyd exports. All methods are safe to
// call on a nil *Metrics, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	submissions *prometheus.CounterVec
	cancels     *prometheus.CounterVec
	attachments *prometheus.CounterVec
	deliveries  *prometheus.CounterVec
	actions     *prometheus.CounterVec
	fired       *prometheus.CounterVec
	pending     prometheus.Gauge
	delivered   prometheus.Gauge
}

// NewMetrics registers all collectors on a fresh registry together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Notification submissions by trigger kind and outcome.",
		}, []string{"trigger", "outcome"}),
		cancels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Cancellation operations by scope.",
		}, []string{"scope"}),
		attachments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachment_resolutions_total",
			Help:      "Attachment resolution attempts by outcome.",
		}, []string{"outcome"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presentations_total",
			Help:      "Delivery presentations by provider and status.",
		}, []string{"provider", "status"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Delivered-notification actions handled.",
		}, []string{"action"}),
		fired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triggers_fired_total",
			Help:      "Scheduled triggers fired by the notification center.",
		}, []string{"trigger"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_notifications",
			Help:      "Pending notifications in the last refreshed view.",
		}),
		delivered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "delivered_notifications",
			Help:      "Delivered notifications in the last refreshed view.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.submissions, m.cancels, m.attachments, m.deliveries,
		m.actions, m.fired, m.pending, m.delivered,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Submission counts a submit attempt.
func (m *Metrics) Submission(trigger string, ok bool) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(trigger, outcome(ok)).Inc()
}

// Cancel counts a cancellation with scope id, all or thread.
func (m *Metrics) Cancel(scope string) {
	if m == nil {
		return
	}
	m.cancels.WithLabelValues(scope).Inc()
}

// Attachment counts an attachment resolution outcome.
func (m *Metrics) Attachment(result string) {
	if m == nil {
		return
	}
	m.attachments.WithLabelValues(result).Inc()
}

// Presentation counts a delivery attempt through a provider.
func (m *Metrics) Presentation(provider, status string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(provider, status).Inc()
}

// Action counts a handled action response.
func (m *Metrics) Action(action string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action).Inc()
}

// Fired counts a trigger fired by the scheduler.
func (m *Metrics) Fired(trigger string) {
	if m == nil {
		return
	}
	m.fired.WithLabelValues(trigger).Inc()
}

// Lists records the sizes of the refreshed pending and delivered views.
func (m *Metrics) Lists(pending, delivered int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(pending))
	m.delivered.Set(float64(delivered))
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
