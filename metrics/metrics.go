// Package metrics exposes prometheus collectors for the worker process.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	JobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_jobs_processed_total",
			Help: "Feedback jobs executed, by terminal outcome.",
		},
		[]string{"outcome"},
	)

	JobDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedback_job_duration_seconds",
			Help:    "Wall-clock duration of feedback job executions.",
			Buckets: prometheus.ExponentialBuckets(5, 2, 8),
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedback_queue_depth",
			Help: "Jobs currently waiting in the broker queue.",
		},
	)
)

func Register() {
	prometheus.MustRegister(JobsProcessed, JobDuration, QueueDepth)
}
