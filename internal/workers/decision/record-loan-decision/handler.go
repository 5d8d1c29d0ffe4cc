// internal/workers/decision/record-loan-decision/handler.go
package recordloandecision

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"loan-lens/internal/common/database"
	apperrors "loan-lens/internal/common/errors"
	"loan-lens/internal/common/logger"
	"loan-lens/internal/common/metrics"
	"loan-lens/internal/decision"
)

const (
	TaskType = "record-loan-decision"
)

type Handler struct {
	config *Config
	store  *database.PostgresClient
	errors *apperrors.ErrorHandler
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		store:  &database.PostgresClient{DB: db},
		errors: apperrors.NewErrorHandler(l),
		logger: l,
		now:    time.Now,
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
	if strings.TrimSpace(input.ApplicationID) == "" {
		return nil, apperrors.NewValidationError("applicationId is required")
	}
	if err := validateResult(&input.Result); err != nil {
		return nil, err
	}

	recordID := uuid.New().String()
	recordedAt := h.now().UTC()

	positive, err := json.Marshal(nonNil(input.Result.PositiveFactors))
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(fmt.Errorf("marshal positive factors: %w", err))
	}
	negative, err := json.Marshal(nonNil(input.Result.NegativeFactors))
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(fmt.Errorf("marshal negative factors: %w", err))
	}
	auditPayload, err := json.Marshal(map[string]interface{}{
		"decision":    input.Result.Outcome(),
		"probability": input.Result.Probability,
		"riskLevel":   input.Result.RiskLevel,
		"explained":   input.Result.Explained,
	})
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(fmt.Errorf("marshal audit payload: %w", err))
	}

	err = h.store.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO loan_decisions (
				id, application_id, approved, probability, risk_level,
				explained, positive_factors, negative_factors, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			recordID,
			input.ApplicationID,
			input.Result.Approved,
			input.Result.Probability,
			string(input.Result.RiskLevel),
			input.Result.Explained,
			positive,
			negative,
			recordedAt,
		); err != nil {
			return fmt.Errorf("insert decision: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO audit_log (id, entity_type, entity_id, action, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New().String(),
			"loan_decision",
			recordID,
			"decision_recorded",
			auditPayload,
			recordedAt,
		); err != nil {
			return fmt.Errorf("insert audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(err)
	}

	h.logger.Info("loan decision recorded", map[string]interface{}{
		"decisionRecordId": recordID,
		"applicationId":    input.ApplicationID,
		"decision":         input.Result.Outcome(),
	})

	return &Output{
		DecisionRecordID: recordID,
		RecordedAt:       recordedAt.Format(time.RFC3339),
	}, nil
}

func validateResult(r *decision.DecisionResult) error {
	if r.Probability < 0 || r.Probability > 100 {
		return apperrors.NewValidationError(fmt.Sprintf("result.probability must be within [0,100], got %v", r.Probability))
	}
	switch r.RiskLevel {
	case decision.RiskLow, decision.RiskMedium, decision.RiskHigh:
	default:
		return apperrors.NewValidationError(fmt.Sprintf("result.riskLevel %q is not a known tier", r.RiskLevel))
	}
	return nil
}

func nonNil(factors []decision.Factor) []decision.Factor {
	if factors == nil {
		return []decision.Factor{}
	}
	return factors
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
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errors.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
