package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Counters
	JobsEnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediaq_jobs_enqueued_total",
			Help: "Total number of jobs admitted to the queue",
		},
	)

	JobsRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediaq_jobs_rejected_total",
			Help: "Total number of enqueue attempts rejected because the queue was full",
		},
	)

	JobsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediaq_jobs_finished_total",
			Help: "Total number of jobs that reached a terminal status",
		},
		[]string{"status"}, // completed, failed, canceled
	)

	// Gauges
	QueuedJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediaq_queued_jobs",
			Help: "Current number of jobs waiting for a slot",
		},
	)

	RunningJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediaq_running_jobs",
			Help: "Current number of jobs holding a slot",
		},
	)

	// Buckets: 100ms to ~27min
	JobDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediaq_job_duration_seconds",
			Help:    "Time from job start to its terminal status",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 15),
		},
		[]string{"status"},
	)
)

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
