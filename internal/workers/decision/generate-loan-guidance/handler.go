// internal/workers/decision/generate-loan-guidance/handler.go
package generateloanguidance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "loan-lens/internal/common/errors"
	"loan-lens/internal/common/logger"
	"loan-lens/internal/common/metrics"
	"loan-lens/internal/decision"
)

const (
	TaskType = "generate-loan-guidance"
)

type Handler struct {
	config *Config
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		errors: apperrors.NewErrorHandler(l),
		logger: l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, apperrors.NewParseError(err))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	report := decision.Guide(input.NegativeFactors, input.Decision, input.Probability)

	h.logger.Info("loan guidance generated", map[string]interface{}{
		"applicationId":   input.ApplicationID,
		"decision":        report.Decision,
		"recommendations": len(report.Recommendations),
		"profileStrong":   report.ProfileStrong,
	})

	return &Output{Guidance: report}, nil
}

func validateInput(input *Input) error {
	switch input.Decision {
	case decision.OutcomeApproved, decision.OutcomeRejected:
	default:
		return apperrors.NewValidationError(fmt.Sprintf("decision must be %s or %s, got %q",
			decision.OutcomeApproved, decision.OutcomeRejected, input.Decision))
	}

	if input.Probability < 0 || input.Probability > 100 {
		return apperrors.NewValidationError(fmt.Sprintf("probability must be within [0,100], got %v", input.Probability))
	}
	return nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errors.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
