package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestJobTimer(t *testing.T) {
	const taskType = "metrics-test-task"

	timer := StartJob(taskType)
	assert.Equal(t, 1.0, testutil.ToFloat64(WorkerJobsActive.WithLabelValues(taskType)))
	timer.Done("")

	StartJob(taskType).Done("DRAFT_STORE_FAILED")

	assert.Equal(t, 0.0, testutil.ToFloat64(WorkerJobsActive.WithLabelValues(taskType)))
	assert.Equal(t, 1.0, testutil.ToFloat64(WorkerJobsCompleted.WithLabelValues(taskType)))
	assert.Equal(t, 1.0, testutil.ToFloat64(WorkerJobsFailed.WithLabelValues(taskType, "DRAFT_STORE_FAILED")))
}
