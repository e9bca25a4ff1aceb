package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smmry_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smmry_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AdmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smmry_admissions_total",
			Help: "Admission decisions by outcome.",
		},
		[]string{"outcome"},
	)

	SummarizerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smmry_summarizer_requests_total",
			Help: "Upstream summarizer calls by status.",
		},
		[]string{"status"},
	)

	SummarizerDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "smmry_summarizer_duration_seconds",
			Help:    "Upstream summarizer call duration in seconds.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "smmry_queue_depth",
			Help: "Number of unprocessed fair-queue entries.",
		},
	)

	QueueSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "smmry_queue_swept_total",
			Help: "Total abandoned queue entries reaped by the sweeper.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AdmissionsTotal,
		SummarizerRequestsTotal,
		SummarizerDuration,
		QueueDepth,
		QueueSweptTotal,
	)
}
