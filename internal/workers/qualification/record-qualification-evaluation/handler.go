// internal/workers/qualification/record-qualification-evaluation/handler.go
package recordqualificationevaluation

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"procurement-workers/internal/common/errors"
	"procurement-workers/internal/common/logger"
	"procurement-workers/internal/common/metrics"
	"procurement-workers/internal/common/validation"
	"procurement-workers/internal/evaluations"
	"procurement-workers/internal/models"
	"procurement-workers/internal/qualification"
	"procurement-workers/internal/search"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "record-qualification-evaluation"

var (
	ErrMissingVendorID   = stderrors.New("MISSING_VENDOR_ID")
	ErrMissingReviewerID = stderrors.New("MISSING_REVIEWER_ID")
)

// EvaluationStore appends evaluations to the history. Appending an id that
// is already stored returns the stored evaluation with inserted false.
type EvaluationStore interface {
	Append(ctx context.Context, e models.QualificationEvaluation) (saved models.QualificationEvaluation, inserted bool, err error)
}

// VendorIndex publishes a vendor's latest class for search.
type VendorIndex interface {
	IndexVendor(ctx context.Context, doc search.VendorDocument) error
}

type Handler struct {
	config *Config
	store  EvaluationStore
	index  VendorIndex
	schema *validation.Schema
	errors *errors.ErrorHandler
	logger logger.Logger
}

// NewHandler wires the worker. index may be nil when search is disabled.
func NewHandler(config *Config, store EvaluationStore, index VendorIndex, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		store:  store,
		index:  index,
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

	output, err := h.execute(ctx, input, evaluations.IDForJob(job.Key))
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

// execute records the evaluation under evaluationID; an empty id gets a
// fresh one.
func (h *Handler) execute(ctx context.Context, input *Input, evaluationID string) (*Output, error) {
	if strings.TrimSpace(input.VendorID) == "" {
		return nil, errors.NewInputParsingFailedError(ErrMissingVendorID)
	}
	if strings.TrimSpace(input.ReviewerID) == "" {
		return nil, errors.NewInputParsingFailedError(ErrMissingReviewerID)
	}

	// Always recompute from the scores; a class supplied by the caller is
	// never trusted.
	q, err := qualification.ComputeQualification(input.Scores)
	if err != nil {
		var rangeErr *qualification.ScoreRangeError
		if stderrors.As(err, &rangeErr) {
			return nil, errors.NewInvalidQualificationScoresError(rangeErr.Error()).
				WithMetadata("validationErrors", qualification.ToErrorMap(rangeErr.Issues))
		}
		return nil, err
	}

	saved, inserted, err := h.store.Append(ctx, models.QualificationEvaluation{
		ID:          evaluationID,
		VendorID:    input.VendorID,
		ReviewerID:  input.ReviewerID,
		Scores:      input.Scores,
		TotalScore:  q.TotalScore,
		VendorClass: q.VendorClass,
		Notes:       input.Notes,
	})
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewQueryTimeoutError("append_evaluation")
		}
		return nil, errors.NewDatabaseInsertFailedError(fmt.Errorf("vendor %s: %w", input.VendorID, err))
	}
	if !inserted {
		h.logger.Warn("evaluation already recorded for this job, returning stored result", map[string]interface{}{
			"evaluationId": saved.ID,
			"vendorId":     saved.VendorID,
		})
	} else {
		metrics.QualificationEvaluations.WithLabelValues(saved.VendorClass).Inc()
	}

	h.logger.Info("qualification evaluation recorded", map[string]interface{}{
		"evaluationId": saved.ID,
		"vendorId":     saved.VendorID,
		"reviewerId":   saved.ReviewerID,
		"totalScore":   saved.TotalScore,
		"vendorClass":  saved.VendorClass,
	})

	return &Output{
		EvaluationID: saved.ID,
		VendorID:     saved.VendorID,
		TotalScore:   saved.TotalScore,
		VendorClass:  saved.VendorClass,
		Breakdown:    q.Breakdown,
		EvaluatedAt:  saved.CreatedAt,
		Indexed:      h.indexVendor(ctx, saved),
	}, nil
}

// indexVendor is best effort: the evaluation is already committed.
func (h *Handler) indexVendor(ctx context.Context, e models.QualificationEvaluation) bool {
	if h.index == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.IndexTimeout)
	defer cancel()

	err := h.index.IndexVendor(ctx, search.VendorDocument{
		VendorID:     e.VendorID,
		VendorClass:  e.VendorClass,
		TotalScore:   e.TotalScore,
		EvaluationID: e.ID,
		ReviewerID:   e.ReviewerID,
		EvaluatedAt:  e.CreatedAt,
	})
	if err != nil {
		h.logger.Warn("search index update failed", map[string]interface{}{
			"vendorId":     e.VendorID,
			"evaluationId": e.ID,
			"error":        err,
		})
		return false
	}
	return true
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input, "")
}
