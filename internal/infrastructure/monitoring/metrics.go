package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	AutosavesTotal      *prometheus.CounterVec
	SubmissionsTotal    *prometheus.CounterVec
	NotificationsTotal  *prometheus.CounterVec
	DraftsCreatedTotal  prometheus.Counter
	DocumentUploadsTotal *prometheus.CounterVec
	VestaCallsTotal     *prometheus.CounterVec
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "origination_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"method", "path", "code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "origination_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "code"},
		),
	}

	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "origination_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		AutosavesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "origination_autosaves_total",
				Help: "Total number of debounced application autosaves.",
			},
			[]string{"status"},
		),
		SubmissionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "origination_submissions_total",
				Help: "Total number of application submissions.",
			},
			[]string{"status"},
		),
		NotificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "origination_notifications_total",
				Help: "Total number of post-submit notification dispatches.",
			},
			[]string{"status"},
		),
		DraftsCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "origination_drafts_created_total",
				Help: "Total number of draft loans created on first load.",
			},
		),
		DocumentUploadsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "origination_document_uploads_total",
				Help: "Total number of borrower document uploads.",
			},
			[]string{"status"},
		),
		VestaCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "origination_vesta_calls_total",
				Help: "Total number of calls to the loan-servicing integration.",
			},
			[]string{"action", "status"},
		),
	}
)

func RecordHTTPRequest(method, path, code string, duration time.Duration) {
	HTTP.RequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordAutosave(status string) {
	Business.AutosavesTotal.WithLabelValues(status).Inc()
}

func RecordSubmission(status string) {
	Business.SubmissionsTotal.WithLabelValues(status).Inc()
}

func RecordNotification(status string) {
	Business.NotificationsTotal.WithLabelValues(status).Inc()
}

func RecordDraftCreated() {
	Business.DraftsCreatedTotal.Inc()
}

func RecordDocumentUpload(status string) {
	Business.DocumentUploadsTotal.WithLabelValues(status).Inc()
}

func RecordVestaCall(action, status string) {
	Business.VestaCallsTotal.WithLabelValues(action, status).Inc()
}
