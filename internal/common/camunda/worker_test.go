package camunda

import (
	"context"
	stderrors "errors"
	"testing"

	"procurement-workers/internal/common/camunda/camundatest"
	"procurement-workers/internal/common/logger"
	"procurement-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFunc func(worker.JobClient, entities.Job)

func (f handlerFunc) Handle(c worker.JobClient, j entities.Job) { f(c, j) }

func TestInstrument_PassesThroughCommands(t *testing.T) {
	tests := []struct {
		name   string
		handle handlerFunc
		check  func(t *testing.T, c *camundatest.JobClient)
	}{
		{
			name: "complete",
			handle: func(c worker.JobClient, j entities.Job) {
				cmd, err := c.NewCompleteJobCommand().JobKey(j.Key).VariablesFromMap(map[string]interface{}{"ok": true})
				require.NoError(t, err)
				_, err = cmd.Send(context.Background())
				require.NoError(t, err)
			},
			check: func(t *testing.T, c *camundatest.JobClient) {
				assert.Equal(t, true, c.CompletedVariables(t)["ok"])
			},
		},
		{
			name: "fail",
			handle: func(c worker.JobClient, j entities.Job) {
				_, err := c.NewFailJobCommand().JobKey(j.Key).Retries(2).ErrorMessage("boom").Send(context.Background())
				require.NoError(t, err)
			},
			check: func(t *testing.T, c *camundatest.JobClient) {
				require.Len(t, c.Failed(), 1)
				assert.Equal(t, int32(2), c.Failed()[0].Retries)
			},
		},
		{
			name: "throw",
			handle: func(c worker.JobClient, j entities.Job) {
				_, err := c.NewThrowErrorCommand().JobKey(j.Key).ErrorCode("VENDOR_VALIDATION_FAILED").Send(context.Background())
				require.NoError(t, err)
			},
			check: func(t *testing.T, c *camundatest.JobClient) {
				req, _ := c.ThrownError(t)
				assert.Equal(t, "VENDOR_VALIDATION_FAILED", req.ErrorCode)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := camundatest.NewJobClient()
			h := Instrument("test-task", tt.handle, observability.Nop(), logger.NewTestLogger(t))
			h(client, camundatest.RawJob(7, "test-task", "{}"))
			tt.check(t, client)
		})
	}
}

func TestOutcomeClient_Status(t *testing.T) {
	rec := &outcomeClient{JobClient: camundatest.NewJobClient(), status: "unanswered"}
	assert.Error(t, rec.err())

	cmd, err := rec.NewCompleteJobCommand().JobKey(7).VariablesFromMap(map[string]interface{}{"ok": true})
	require.NoError(t, err)
	assert.Equal(t, "unanswered", rec.status)
	_, err = cmd.Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "completed", rec.status)
	assert.NoError(t, rec.err())

	rec.NewThrowErrorCommand()
	assert.Equal(t, "bpmn_error", rec.status)
	assert.EqualError(t, rec.err(), "job bpmn_error")
}

func TestOutcomeClient_CompleteNotSent(t *testing.T) {
	t.Run("variables error", func(t *testing.T) {
		rec := &outcomeClient{JobClient: camundatest.NewJobClient(), status: "unanswered"}

		_, err := rec.NewCompleteJobCommand().JobKey(7).VariablesFromObject(make(chan int))
		require.Error(t, err)
		assert.Equal(t, "complete_failed", rec.status)
		assert.Error(t, rec.err())
	})

	t.Run("send error", func(t *testing.T) {
		client := camundatest.NewJobClient()
		client.Gateway.Err = stderrors.New("gateway unavailable")
		rec := &outcomeClient{JobClient: client, status: "unanswered"}

		cmd, err := rec.NewCompleteJobCommand().JobKey(7).VariablesFromMap(map[string]interface{}{"ok": true})
		require.NoError(t, err)
		_, err = cmd.Send(context.Background())
		require.Error(t, err)
		assert.Equal(t, "complete_failed", rec.status)
		assert.EqualError(t, rec.err(), "job complete_failed")
	})

	t.Run("never sent", func(t *testing.T) {
		rec := &outcomeClient{JobClient: camundatest.NewJobClient(), status: "unanswered"}

		rec.NewCompleteJobCommand().JobKey(7)
		assert.Equal(t, "unanswered", rec.status)
	})
}
