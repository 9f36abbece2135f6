// internal/workers/qualification/manage-vendor-draft/handler.go
package managevendordraft

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"procurement-workers/internal/common/errors"
	"procurement-workers/internal/common/logger"
	"procurement-workers/internal/common/metrics"
	"procurement-workers/internal/common/validation"
	"procurement-workers/internal/drafts"
	"procurement-workers/internal/models"
	"procurement-workers/internal/qualification"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "manage-vendor-draft"

type Handler struct {
	config *Config
	store  drafts.Store
	schema *validation.Schema
	errors *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, store drafts.Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		store:  store,
		schema: validation.MustLoad(TaskType),
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

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	if !supportedAction(input.Action) {
		return nil, errors.NewUnsupportedDraftActionError(input.Action)
	}
	if res := h.schema.ValidateJSON(raw); !res.Valid {
		return nil, errors.NewInputParsingFailedError(stderrors.New(strings.Join(res.GetErrorMessages(), "; ")))
	}
	return &input, nil
}

func supportedAction(action string) bool {
	switch action {
	case ActionSave, ActionLoad, ActionList, ActionDelete:
		return true
	}
	return false
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	out := &Output{Action: input.Action, DraftID: input.DraftID}

	switch input.Action {
	case ActionSave:
		d, err := h.buildDraft(ctx, input)
		if err != nil {
			return nil, err
		}
		meta, err := h.store.Save(ctx, d)
		if err != nil {
			return nil, errors.NewDraftStoreFailedError(ActionSave, err)
		}
		d.ID = meta.ID
		d.State = qualification.StateDraft
		d.UpdatedAt = meta.UpdatedAt
		out.DraftID = meta.ID
		out.Draft = &d
		out.Metadata = &meta

	case ActionLoad:
		d, err := h.store.Load(ctx, input.DraftID)
		if err != nil {
			return nil, h.storeError(ActionLoad, input.DraftID, err)
		}
		out.Draft = &d

	case ActionList:
		list, err := h.store.List(ctx, input.VendorID)
		if err != nil {
			return nil, errors.NewDraftStoreFailedError(ActionList, err)
		}
		out.Drafts = list

	case ActionDelete:
		if err := h.store.Delete(ctx, input.DraftID); err != nil {
			return nil, h.storeError(ActionDelete, input.DraftID, err)
		}
		out.Deleted = true

	default:
		return nil, errors.NewUnsupportedDraftActionError(input.Action)
	}

	h.logger.Info("draft action completed", map[string]interface{}{
		"action":   input.Action,
		"draftId":  out.DraftID,
		"vendorId": input.VendorID,
	})
	return out, nil
}

// buildDraft starts from the stored draft (when one exists) and layers the
// supplied submission, profile patch and documents on top. The loaded value
// is never modified in place.
func (h *Handler) buildDraft(ctx context.Context, input *Input) (drafts.Draft, error) {
	var base drafts.Draft
	if input.DraftID != "" {
		loaded, err := h.store.Load(ctx, input.DraftID)
		switch {
		case err == nil:
			base = loaded
		case stderrors.Is(err, drafts.ErrNotFound):
			base = drafts.Draft{ID: input.DraftID}
		default:
			return drafts.Draft{}, errors.NewDraftStoreFailedError(ActionLoad, err)
		}
	}

	next := drafts.Draft{
		ID:         base.ID,
		VendorID:   base.VendorID,
		Submission: base.Submission,
	}
	if input.VendorID != "" {
		next.VendorID = input.VendorID
	}

	if len(input.Draft) > 0 {
		sub, err := qualification.DecodeSubmission(input.Draft)
		if err != nil {
			return drafts.Draft{}, errors.NewInputParsingFailedError(err)
		}
		next.Submission = sub
	}

	if input.Patch != nil {
		next.Submission.Profile = qualification.ApplyProfilePatch(next.Submission.Profile, *input.Patch)
	}

	docs := make(map[string]models.DocumentEntry, len(next.Submission.Documents)+len(input.Documents))
	for k, v := range next.Submission.Documents {
		docs[k] = v
	}
	for k, v := range input.Documents {
		docs[k] = v
	}
	next.Submission.Documents = docs
	next.Submission.Projects = append([]models.ProjectExperienceRecord(nil), next.Submission.Projects...)

	return next, nil
}

func (h *Handler) storeError(op, draftID string, err error) error {
	if stderrors.Is(err, drafts.ErrNotFound) {
		return errors.NewDraftNotFoundError(draftID)
	}
	return errors.NewDraftStoreFailedError(op, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
