package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPipelineMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)

	m.ObserveCheckout("success", 120*time.Millisecond)
	m.ObserveCheckout("out_of_stock", 10*time.Millisecond)
	m.IncPayment("webhook", "completed")
	m.IncPayment("webhook", "completed")
	m.IncWebhookEvent("payment.captured", "processed")
	m.IncWebhookEvent("payment.captured", "duplicate")

	if got := testutil.ToFloat64(m.checkoutOutcome.WithLabelValues("success")); got != 1 {
		t.Fatalf("expected 1 successful checkout, got %v", got)
	}
	if got := testutil.ToFloat64(m.paymentOutcome.WithLabelValues("webhook", "completed")); got != 2 {
		t.Fatalf("expected 2 completed reconciliations, got %v", got)
	}
	if got := testutil.ToFloat64(m.webhookEvents.WithLabelValues("payment.captured", "duplicate")); got != 1 {
		t.Fatalf("expected 1 duplicate event, got %v", got)
	}
}

func TestPipelineMetricsNilSafe(t *testing.T) {
	var m *PipelineMetrics
	m.ObserveCheckout("success", time.Second)
	m.IncPayment("verify", "completed")
	m.IncWebhookEvent("", "")

	empty := NewPipelineMetrics(nil)
	empty.ObserveCheckout("success", time.Second)
}
