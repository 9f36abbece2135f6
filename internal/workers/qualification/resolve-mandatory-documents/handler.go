// internal/workers/qualification/resolve-mandatory-documents/handler.go
package resolvemandatorydocuments

import (
	"context"
	"encoding/json"

	"procurement-workers/internal/common/errors"
	"procurement-workers/internal/common/logger"
	"procurement-workers/internal/common/metrics"
	"procurement-workers/internal/qualification"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "resolve-mandatory-documents"

type Handler struct {
	config  *Config
	catalog *qualification.Catalog
	errors  *errors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		catalog: qualification.DefaultCatalog(),
		errors:  errors.NewErrorHandler(log),
		logger:  log,
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

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		bpmnErr := h.errors.HandleJobError(ctx, client, job, errors.NewInputParsingFailedError(err))
		timer.Done(bpmnErr.Code)
		return
	}

	output := h.execute(&input)

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

// execute never fails: an unknown vendor type resolves to the base set.
func (h *Handler) execute(input *Input) *Output {
	set := h.catalog.ResolveMandatoryDocuments(input.VendorType)
	known := qualification.IsKnownVendorType(input.VendorType)

	if !known {
		h.logger.Warn("unknown vendor type, using base documents", map[string]interface{}{
			"vendorType": input.VendorType,
		})
	}

	return &Output{
		VendorTypeKey:      qualification.NormalizeVendorType(input.VendorType),
		KnownVendorType:    known,
		DocumentKeys:       set.Keys(),
		MandatoryDocuments: h.catalog.Requirements(set),
	}
}

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	return h.execute(input), nil
}
