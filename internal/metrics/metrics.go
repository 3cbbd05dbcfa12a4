// Package metrics exposes Prometheus counters for claim and webhook outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts redemption checks and webhook deliveries by outcome.
type Collector struct {
	claimChecks       *prometheus.CounterVec
	webhookDeliveries *prometheus.CounterVec
	webhookRejected   prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		claimChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "offerguard_claim_checks_total",
			Help: "Redemption checks by resolution status.",
		}, []string{"status"}),
		webhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "offerguard_webhook_deliveries_total",
			Help: "Verified webhook deliveries by reconciliation outcome.",
		}, []string{"outcome"}),
		webhookRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "offerguard_webhook_rejected_total",
			Help: "Webhook deliveries rejected by verification.",
		}),
	}

	reg.MustRegister(c.claimChecks, c.webhookDeliveries, c.webhookRejected)
	return c
}

func (c *Collector) RecordClaimCheck(status string) {
	c.claimChecks.WithLabelValues(status).Inc()
}

func (c *Collector) RecordWebhookDelivery(outcome string) {
	c.webhookDeliveries.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordWebhookRejected() {
	c.webhookRejected.Inc()
}

// Handler returns the scrape handler for the given gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
