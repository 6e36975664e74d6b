package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics tracks Stripe webhook delivery outcomes.
type WebhookMetrics struct {
	processed  *prometheus.CounterVec
	duplicates prometheus.Counter
	failures   *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_webhook_events_total",
		Help: "Stripe webhook events processed.",
	}, []string{"type"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stripe_webhook_duplicates_total",
		Help: "Stripe webhook deliveries skipped as duplicates.",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_webhook_failures_total",
		Help: "Stripe webhook events that failed processing.",
	}, []string{"type"})
	reg.MustRegister(processed, duplicates, failures)
	return &WebhookMetrics{
		processed:  processed,
		duplicates: duplicates,
		failures:   failures,
	}
}

// IncProcessed increments the processed counter for the event type.
func (w *WebhookMetrics) IncProcessed(eventType string) {
	if w == nil || w.processed == nil {
		return
	}
	w.processed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncDuplicate increments the duplicate delivery counter.
func (w *WebhookMetrics) IncDuplicate() {
	if w == nil || w.duplicates == nil {
		return
	}
	w.duplicates.Inc()
}

// IncFailure increments the failure counter for the event type.
func (w *WebhookMetrics) IncFailure(eventType string) {
	if w == nil || w.failures == nil {
		return
	}
	w.failures.WithLabelValues(normalizeLabel(eventType)).Inc()
}
