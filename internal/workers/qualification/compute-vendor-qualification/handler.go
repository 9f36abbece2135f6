// internal/workers/qualification/compute-vendor-qualification/handler.go
package computevendorqualification

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"procurement-workers/internal/common/errors"
	"procurement-workers/internal/common/logger"
	"procurement-workers/internal/common/metrics"
	"procurement-workers/internal/common/validation"
	"procurement-workers/internal/qualification"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "compute-vendor-qualification"

type Handler struct {
	config *Config
	schema *validation.Schema
	errors *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		schema: validation.MustLoad("qualification-scores"),
		errors: errors.NewErrorHandler(log),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	timer := metrics.StartJob(TaskType)
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		timer.Done(h.errors.HandleJobError(ctx, client, job, err).Code)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		timer.Done(h.errors.HandleJobError(ctx, client, job, err).Code)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err == nil {
		_, err = cmd.Send(ctx)
	}
	if err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.Key, "error": err})
		timer.Done("COMPLETE_FAILED")
		return
	}
	timer.Done("")
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	raw := []byte(job.Variables)
	if res := h.schema.ValidateJSON(raw); !res.Valid {
		return nil, errors.NewInvalidQualificationScoresError(strings.Join(res.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	return &input, nil
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	q, err := qualification.ComputeQualification(input.Scores)
	if err != nil {
		var rangeErr *qualification.ScoreRangeError
		if stderrors.As(err, &rangeErr) {
			return nil, errors.NewInvalidQualificationScoresError(rangeErr.Error()).
				WithMetadata("validationErrors", qualification.ToErrorMap(rangeErr.Issues))
		}
		return nil, err
	}

	h.logger.Info("qualification computed", map[string]interface{}{
		"vendorId":    input.VendorID,
		"totalScore":  q.TotalScore,
		"vendorClass": q.VendorClass,
	})

	return &Output{
		VendorID:    input.VendorID,
		TotalScore:  q.TotalScore,
		VendorClass: q.VendorClass,
		Breakdown:   q.Breakdown,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
