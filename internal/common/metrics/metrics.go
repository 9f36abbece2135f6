// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	VendorSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendor_submissions_total",
			Help: "Vendor submissions validated, by resulting state",
		},
		[]string{"state"},
	)

	ValidationIssues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendor_validation_issues_total",
			Help: "Validation issues reported, by kind",
		},
		[]string{"kind"},
	)

	QualificationEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendor_qualification_evaluations_total",
			Help: "Recorded qualification evaluations, by vendor class",
		},
		[]string{"vendor_class"},
	)

	ExpiryNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendor_expiry_notifications_total",
			Help: "Document expiry notifications sent, by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)
)

// JobTimer tracks one job from activation to completion.
type JobTimer struct {
	taskType string
	start    time.Time
}

// StartJob marks a job active and starts its timer.
func StartJob(taskType string) *JobTimer {
	WorkerJobsActive.WithLabelValues(taskType).Inc()
	return &JobTimer{taskType: taskType, start: time.Now()}
}

// Done records the outcome. An empty errorCode counts as completed.
func (t *JobTimer) Done(errorCode string) time.Duration {
	elapsed := time.Since(t.start)
	WorkerJobsActive.WithLabelValues(t.taskType).Dec()
	WorkerJobDuration.WithLabelValues(t.taskType).Observe(elapsed.Seconds())
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(t.taskType).Inc()
	} else {
		WorkerJobsFailed.WithLabelValues(t.taskType, errorCode).Inc()
	}
	return elapsed
}
