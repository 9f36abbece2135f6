// internal/workers/qualification/validate-vendor-submission/handler.go
package validatevendorsubmission

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"procurement-workers/internal/common/errors"
	"procurement-workers/internal/common/logger"
	"procurement-workers/internal/common/metrics"
	"procurement-workers/internal/common/validation"
	"procurement-workers/internal/qualification"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "validate-vendor-submission"

type Handler struct {
	config    *Config
	schema    *validation.Schema
	validator *qualification.Validator
	errors    *errors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	loc := config.Location
	if loc == nil {
		loc = time.Local
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		schema: validation.MustLoad(TaskType),
		validator: qualification.NewValidator(qualification.WithClock(func() time.Time {
			return time.Now().In(loc)
		})),
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
		bpmnErr := h.errors.HandleJobError(ctx, client, job, err)
		timer.Done(bpmnErr.Code)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		bpmnErr := h.errors.HandleJobError(ctx, client, job, err)
		timer.Done(bpmnErr.Code)
		return
	}

	if err := h.completeJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.Key, "error": err})
		timer.Done("COMPLETE_FAILED")
		return
	}
	timer.Done("")
}

// parseInput checks the variables against the schema before decoding, so
// unknown submission keys surface as field errors. On a schema failure the
// submission rules still run, and both sets of errors are reported.
func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	raw := []byte(job.Variables)

	if res := h.schema.ValidateJSON(raw); !res.Valid {
		errs := qualification.ErrorMap{}
		for _, e := range res.Errors {
			errs.Add(submissionField(e.Field), e.Message)
		}
		var mandatory []string
		if result, ok := h.validateLenient(raw); ok {
			mergeErrors(errs, result.Errors)
			mandatory = result.MandatoryDocuments
		}
		stdErr := errors.NewVendorValidationFailedError(errs, errs.Count()).
			WithMetadata("state", string(qualification.StateInvalid))
		if mandatory != nil {
			stdErr = stdErr.WithMetadata("mandatoryDocuments", mandatory)
		}
		return nil, stdErr
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	return &input, nil
}

// validateLenient runs the submission rules on whatever of the payload
// decodes, ignoring unknown keys, so a schema failure still reports the
// document and profile problems alongside it.
func (h *Handler) validateLenient(raw []byte) (qualification.SubmissionResult, bool) {
	var input Input
	if err := json.Unmarshal(raw, &input); err != nil || len(input.Submission) == 0 {
		return qualification.SubmissionResult{}, false
	}
	var submission qualification.Submission
	if err := json.Unmarshal(input.Submission, &submission); err != nil {
		return qualification.SubmissionResult{}, false
	}
	return h.validator.ValidateSubmission(submission), true
}

func mergeErrors(dst, src qualification.ErrorMap) {
	for field, msgs := range src {
	next:
		for _, msg := range msgs {
			for _, have := range dst[field] {
				if have == msg {
					continue next
				}
			}
			dst.Add(field, msg)
		}
	}
}

// submissionField maps a schema path onto the field names the validator
// reports, e.g. "submission.profile.contact.email" to "contact.email".
func submissionField(field string) string {
	for _, prefix := range []string{"submission.profile.", "submission.documents.", "submission."} {
		if strings.HasPrefix(field, prefix) {
			return strings.TrimPrefix(field, prefix)
		}
	}
	return field
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	from := input.State
	if from == "" {
		from = qualification.StateDraft
	}
	state, err := qualification.Transition(from, qualification.StateValidating)
	if err != nil {
		return nil, errors.NewBusinessRuleError("Submission cannot be validated", err.Error())
	}

	submission, err := qualification.DecodeSubmission(input.Submission)
	if err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}

	result := h.validator.ValidateSubmission(submission)
	if state, err = qualification.Transition(state, result.State); err != nil {
		return nil, errors.NewBusinessRuleError("Submission validation ended in an illegal state", err.Error())
	}
	metrics.VendorSubmissions.WithLabelValues(string(state)).Inc()

	if !result.OK {
		for kind, n := range qualification.CountByKind(result.Issues) {
			metrics.ValidationIssues.WithLabelValues(string(kind)).Add(float64(n))
		}
		h.logger.Info("vendor submission invalid", map[string]interface{}{
			"vendorId":     input.VendorID,
			"issueCount":   len(result.Issues),
			"failedFields": result.Errors.Fields(),
		})
		return nil, errors.NewVendorValidationFailedError(result.Errors, len(result.Issues)).
			WithMetadata("state", string(state)).
			WithMetadata("mandatoryDocuments", result.MandatoryDocuments)
	}

	h.logger.Info("vendor submission valid", map[string]interface{}{
		"vendorId":           input.VendorID,
		"mandatoryDocuments": len(result.MandatoryDocuments),
	})

	return &Output{
		IsValid:            true,
		State:              state,
		ValidatedData:      result.Data,
		MandatoryDocuments: result.MandatoryDocuments,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return err
	}
	_, err = cmd.Send(ctx)
	return err
}

// Execute exposes the validation step for tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
