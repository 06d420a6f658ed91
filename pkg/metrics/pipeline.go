package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records checkout and payment reconciliation outcomes.
type PipelineMetrics struct {
	checkoutDuration *prometheus.HistogramVec
	checkoutOutcome  *prometheus.CounterVec
	paymentOutcome   *prometheus.CounterVec
	webhookEvents    *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	checkoutOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	paymentOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliations_total",
		Help: "Payment reconciliations by source and outcome.",
	}, []string{"source", "outcome"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Gateway webhook events by type and disposition.",
	}, []string{"event", "disposition"})
	reg.MustRegister(checkoutDuration, checkoutOutcome, paymentOutcome, webhookEvents)
	return &PipelineMetrics{
		checkoutDuration: checkoutDuration,
		checkoutOutcome:  checkoutOutcome,
		paymentOutcome:   paymentOutcome,
		webhookEvents:    webhookEvents,
	}
}

// ObserveCheckout records one checkout attempt and its duration.
func (p *PipelineMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if p == nil || p.checkoutDuration == nil {
		return
	}
	label := normalizeLabel(outcome)
	p.checkoutDuration.WithLabelValues(label).Observe(duration.Seconds())
	p.checkoutOutcome.WithLabelValues(label).Inc()
}

// IncPayment increments the reconciliation counter for the given source.
func (p *PipelineMetrics) IncPayment(source, outcome string) {
	if p == nil || p.paymentOutcome == nil {
		return
	}
	p.paymentOutcome.WithLabelValues(normalizeLabel(source), normalizeLabel(outcome)).Inc()
}

// IncWebhookEvent counts one received gateway event.
func (p *PipelineMetrics) IncWebhookEvent(event, disposition string) {
	if p == nil || p.webhookEvents == nil {
		return
	}
	p.webhookEvents.WithLabelValues(normalizeLabel(event), normalizeLabel(disposition)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
