package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the various metrics used for monitoring the application.
// The gateway and list controller report client-side activity; the API
// handlers and repository report server-side activity.
type Metrics struct {
	GatewayRequests    *prometheus.CounterVec
	GatewayDuration    *prometheus.HistogramVec
	ListLoads          *prometheus.CounterVec
	LastSuccessfulLoad prometheus.Gauge
	APIRequests        *prometheus.CounterVec
	DBQueryDuration    *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with the provided Registerer.
//
// Parameters:
//   - reg: A prometheus.Registerer used to register the metrics.
//
// Returns:
//   - A pointer to the newly created Metrics instance.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		GatewayRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "iris_gateway_requests_total",
			Help: "Total number of calls made to the remote task API, by operation and outcome.",
		}, []string{"op", "outcome"}),
		GatewayDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "iris_gateway_request_duration_seconds",
			Help:    "Duration of calls made to the remote task API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		ListLoads: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "iris_list_loads_total",
			Help: "Total list reloads, by outcome: success, failure or superseded.",
		}, []string{"outcome"}),
		LastSuccessfulLoad: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "iris_list_last_successful_load_timestamp",
			Help: "Last time the held task list was replaced from the remote store",
		}),
		APIRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "iris_api_requests_total",
			Help: "Total requests served by the task API, by route and status code.",
		}, []string{"route", "code"}),
		DBQueryDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "iris_db_query_duration_seconds",
			Help:    "Duration of database queries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query_type"}), // query_type: 'list_tasks', 'update_task'
	}

	metrics.ListLoads.WithLabelValues("success")
	metrics.ListLoads.WithLabelValues("failure")
	metrics.ListLoads.WithLabelValues("superseded")

	return metrics
}
