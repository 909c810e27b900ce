// Package metrics holds the Prometheus collectors exposed on /metrics.
//
// Collectors are package-level and registered once with the default registry
// (promauto), so constructing several servers in one process is safe.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeRejected   = "rejected"
	OutcomeFailed     = "failed"
	OutcomeTimeout    = "timeout"
	PurchaseCreated   = "created"
	PurchaseDuplicate = "existing"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artmarket_http_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "artmarket_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	IngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artmarket_image_ingest_total",
			Help: "Image ingestions by outcome.",
		},
		[]string{"outcome"},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "artmarket_image_ingest_duration_seconds",
			Help:    "Wall time of validate, resize, encode and persist.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	PurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artmarket_purchases_total",
			Help: "Purchase requests split by new row vs existing row.",
		},
		[]string{"result"},
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordIngest records one ingestion attempt.
func RecordIngest(outcome string, d time.Duration) {
	IngestTotal.WithLabelValues(outcome).Inc()
	IngestDuration.Observe(d.Seconds())
}

// RecordPurchase records whether a purchase call inserted a row.
func RecordPurchase(created bool) {
	if created {
		PurchasesTotal.WithLabelValues(PurchaseCreated).Inc()
		return
	}
	PurchasesTotal.WithLabelValues(PurchaseDuplicate).Inc()
}
