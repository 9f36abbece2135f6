// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"fmt"
	"sync"
	"time"

	"procurement-workers/internal/common/config"
	"procurement-workers/internal/common/logger"
	"procurement-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// JobHandler is implemented by every worker handler. Handlers complete,
// fail or throw on the job themselves.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Registry opens job workers and closes them together on shutdown.
type Registry struct {
	client zbc.Client
	obs    *observability.Observability
	logger *zap.Logger

	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewRegistry(client zbc.Client, obs *observability.Observability, logger *zap.Logger) *Registry {
	if obs == nil {
		obs = observability.Nop()
	}
	return &Registry{
		client:  client,
		obs:     obs,
		logger:  logger,
		workers: make(map[string]worker.JobWorker),
	}
}

// Open starts polling taskType. Disabled workers are skipped and reported
// as not opened.
func (r *Registry) Open(taskType string, wcfg config.WorkerConfig, handler JobHandler) bool {
	if !wcfg.Enabled {
		r.logger.Info("worker disabled", zap.String("taskType", taskType))
		return false
	}

	jobWorker := r.client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, r.obs, logger.NewZapAdapter(r.logger))).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	r.mu.Lock()
	r.workers[taskType] = jobWorker
	r.mu.Unlock()

	r.logger.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeoutMs", wcfg.Timeout))
	return true
}

// TaskTypes lists the open workers.
func (r *Registry) TaskTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.workers))
	for t := range r.workers {
		out = append(out, t)
	}
	return out
}

// Close stops every worker and waits for in-flight jobs.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for taskType, w := range r.workers {
		r.logger.Info("stopping worker", zap.String("taskType", taskType))
		w.Close()
		w.AwaitClose()
		delete(r.workers, taskType)
	}
}

// Instrument wraps a handler in a job span and records its outcome in the
// OpenTelemetry meters.
func Instrument(taskType string, handler JobHandler, obs *observability.Observability, log logger.Logger) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		ctx, span := obs.StartJobSpan(context.Background(), taskType, job.Key)
		start := time.Now()

		rec := &outcomeClient{JobClient: client, status: "unanswered"}
		handler.Handle(rec, job)

		elapsed := time.Since(start)
		obs.RecordJobProcessed(ctx, taskType, rec.status)
		obs.RecordJobDuration(ctx, taskType, elapsed, rec.status)
		observability.EndJobSpan(span, rec.err())

		logger.ForJob(log, taskType, job.Key, job.ProcessInstanceKey).Debug("job handled", map[string]interface{}{
			"status":     rec.status,
			"durationMs": elapsed.Milliseconds(),
		})
	}
}

// outcomeClient notes which terminal command the handler issued.
type outcomeClient struct {
	worker.JobClient
	status string
}

// NewCompleteJobCommand leaves the status alone until the completion is
// actually sent; a variables or send error records "complete_failed".
func (c *outcomeClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return completeStep1{CompleteJobCommandStep1: c.JobClient.NewCompleteJobCommand(), rec: c}
}

func (c *outcomeClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.status = "failed"
	return c.JobClient.NewFailJobCommand()
}

func (c *outcomeClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.status = "bpmn_error"
	return c.JobClient.NewThrowErrorCommand()
}

func (c *outcomeClient) completeSent(err error) {
	if err != nil {
		c.status = "complete_failed"
		return
	}
	c.status = "completed"
}

type completeStep1 struct {
	commands.CompleteJobCommandStep1
	rec *outcomeClient
}

func (s completeStep1) JobKey(key int64) commands.CompleteJobCommandStep2 {
	return completeStep2{CompleteJobCommandStep2: s.CompleteJobCommandStep1.JobKey(key), rec: s.rec}
}

type completeStep2 struct {
	commands.CompleteJobCommandStep2
	rec *outcomeClient
}

func (s completeStep2) Send(ctx context.Context) (*pb.CompleteJobResponse, error) {
	resp, err := s.CompleteJobCommandStep2.Send(ctx)
	s.rec.completeSent(err)
	return resp, err
}

func (s completeStep2) dispatch(cmd commands.DispatchCompleteJobCommand, err error) (commands.DispatchCompleteJobCommand, error) {
	if err != nil {
		s.rec.completeSent(err)
		return nil, err
	}
	return completeDispatch{DispatchCompleteJobCommand: cmd, rec: s.rec}, nil
}

func (s completeStep2) VariablesFromString(v string) (commands.DispatchCompleteJobCommand, error) {
	return s.dispatch(s.CompleteJobCommandStep2.VariablesFromString(v))
}

func (s completeStep2) VariablesFromStringer(v fmt.Stringer) (commands.DispatchCompleteJobCommand, error) {
	return s.dispatch(s.CompleteJobCommandStep2.VariablesFromStringer(v))
}

func (s completeStep2) VariablesFromMap(v map[string]interface{}) (commands.DispatchCompleteJobCommand, error) {
	return s.dispatch(s.CompleteJobCommandStep2.VariablesFromMap(v))
}

func (s completeStep2) VariablesFromObject(v interface{}) (commands.DispatchCompleteJobCommand, error) {
	return s.dispatch(s.CompleteJobCommandStep2.VariablesFromObject(v))
}

func (s completeStep2) VariablesFromObjectIgnoreOmitempty(v interface{}) (commands.DispatchCompleteJobCommand, error) {
	return s.dispatch(s.CompleteJobCommandStep2.VariablesFromObjectIgnoreOmitempty(v))
}

type completeDispatch struct {
	commands.DispatchCompleteJobCommand
	rec *outcomeClient
}

func (d completeDispatch) Send(ctx context.Context) (*pb.CompleteJobResponse, error) {
	resp, err := d.DispatchCompleteJobCommand.Send(ctx)
	d.rec.completeSent(err)
	return resp, err
}

func (c *outcomeClient) err() error {
	if c.status == "completed" {
		return nil
	}
	return fmt.Errorf("job %s", c.status)
}
