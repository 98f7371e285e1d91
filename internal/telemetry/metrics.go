package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topup_transactions_created_total",
		Help: "Transactions created, by type.",
	}, []string{"type"})

	PaymentOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topup_payment_outcomes_total",
		Help: "Payment simulator results: success, failed or noop.",
	}, []string{"outcome"})

	CatalogCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topup_catalog_cache_requests_total",
		Help: "Catalog cache lookups by result: hit, miss or error.",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "topup_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
