// Package metrics exposes Prometheus collectors for webhook ingestion and
// record store traffic.
package metrics

import (
	"net/http"

	"pos-cloud-sync/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "possync"

// Recorder implements ports.MetricsRecorder
type Recorder struct {
	webhooks   *prometheus.CounterVec
	operations *prometheus.CounterVec
	gatherer   prometheus.Gatherer
}

// NewRecorder registers collectors on reg. A nil reg uses a fresh registry
// that also carries the Go and process collectors.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	r := &Recorder{
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Webhook deliveries by platform and outcome.",
		}, []string{"platform", "outcome"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Record store push and pull calls by result.",
		}, []string{"operation", "result"}),
		gatherer: reg,
	}
	reg.MustRegister(r.webhooks, r.operations)
	return r
}

// WebhookOutcome counts one webhook delivery
func (r *Recorder) WebhookOutcome(platform domain.Platform, outcome string) {
	r.webhooks.WithLabelValues(platform.String(), outcome).Inc()
}

// StoreOperation counts one push or pull
func (r *Recorder) StoreOperation(operation, result string) {
	r.operations.WithLabelValues(operation, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
