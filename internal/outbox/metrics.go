package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts job outcomes per kind
type Metrics struct {
	processed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	dead      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics registers the outbox collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		processed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_jobs_processed_total",
			Help: "Outbox jobs that completed successfully",
		}, []string{"kind"}),
		failed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_jobs_failed_total",
			Help: "Outbox job attempts that returned an error",
		}, []string{"kind"}),
		dead: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_jobs_dead_total",
			Help: "Outbox jobs that exhausted their attempts",
		}, []string{"kind"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "outbox_job_duration_seconds",
			Help:    "Time spent running one outbox job attempt",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}
}
