package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Operation results
const (
	ResultOK        = "ok"
	ResultNotFound  = "not_found"
	ResultForbidden = "forbidden"
	ResultInvalid   = "invalid"
	ResultError     = "error"
)

var (
	Operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestbook_operations_total",
			Help: "Guestbook service operations by name and result.",
		},
		[]string{"operation", "result"},
	)

	StoreDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guestbook_store_duration_seconds",
			Help:    "Latency of whole-document record store reads and writes.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)

	DocumentBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "guestbook_document_bytes",
			Help: "Size of the last written guestbook document.",
		},
	)

	Messages = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "guestbook_messages",
			Help: "Number of messages in the last written guestbook document.",
		},
	)

	Snapshots = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestbook_snapshots_total",
			Help: "Guestbook snapshot uploads by result.",
		},
		[]string{"result"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestbook_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(Operations)
	prometheus.MustRegister(StoreDuration)
	prometheus.MustRegister(DocumentBytes)
	prometheus.MustRegister(Messages)
	prometheus.MustRegister(Snapshots)
	prometheus.MustRegister(HTTPRequests)
}
