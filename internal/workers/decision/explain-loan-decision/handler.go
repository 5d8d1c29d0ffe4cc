// internal/workers/decision/explain-loan-decision/handler.go
package explainloandecision

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"loan-lens/internal/common/database"
	apperrors "loan-lens/internal/common/errors"
	"loan-lens/internal/common/logger"
	"loan-lens/internal/common/metrics"
	"loan-lens/internal/common/observability"
	"loan-lens/internal/decision"
)

const (
	TaskType = "explain-loan-decision"

	cacheKeyPrefix = "loan:decision:"
)

// DecisionExplainer is satisfied by *decision.Explainer.
type DecisionExplainer interface {
	ExplainDecision(ctx context.Context, record decision.ApplicantRecord) (*decision.DecisionResult, error)
}

type Handler struct {
	config    *Config
	explainer DecisionExplainer
	redis     redis.Cmdable
	obs       *observability.Observability
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

// NewHandler builds the worker. redis may be nil to run without a cache.
func NewHandler(config *Config, explainer DecisionExplainer, redis redis.Cmdable, obs *observability.Observability, log logger.Logger) *Handler {
	if obs == nil {
		obs = observability.NewNoop()
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		explainer: explainer,
		redis:     redis,
		obs:       obs,
		errors:    apperrors.NewErrorHandler(l),
		logger:    l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, apperrors.NewParseError(err), start)
		return
	}

	ctx, span := h.obs.StartSpan(ctx, TaskType,
		attribute.String("application_id", input.ApplicationID),
		attribute.Int64("job_key", job.Key))
	defer span.End()

	output, err := h.execute(ctx, &input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.fail(ctx, client, job, err, start)
		return
	}

	span.SetAttributes(
		attribute.Bool("approved", output.Approved),
		attribute.String("risk_level", string(output.RiskLevel)),
		attribute.Bool("cached", output.Cached),
	)
	h.completeJob(ctx, client, job, output, start)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	key, err := h.cacheKey(input.Applicant)
	if err != nil {
		return nil, apperrors.NewParseError(err)
	}

	if cached, ok := h.lookup(ctx, key); ok {
		metrics.LoanDecisionCacheHits.Inc()
		h.logger.Info("decision served from cache", map[string]interface{}{
			"applicationId": input.ApplicationID,
		})
		return newOutput(input.ApplicationID, cached, true), nil
	}

	result, err := h.explainer.ExplainDecision(ctx, input.Applicant)
	if err != nil {
		return nil, err
	}

	metrics.ObserveDecision(string(result.Outcome()), string(result.RiskLevel), result.Explained)

	// degraded results are not cached so the next call can retry attribution
	if result.Explained {
		h.store(ctx, key, result)
	}

	h.logger.Info("loan decision explained", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"decision":      result.Outcome(),
		"probability":   result.Probability,
		"riskLevel":     result.RiskLevel,
		"explained":     result.Explained,
	})

	return newOutput(input.ApplicationID, result, false), nil
}

func newOutput(applicationID string, result *decision.DecisionResult, cached bool) *Output {
	return &Output{
		ApplicationID:  applicationID,
		DecisionResult: *result,
		Decision:       result.Outcome(),
		Cached:         cached,
	}
}

// cacheKey hashes the applicant so identical inputs share one entry per
// model version.
func (h *Handler) cacheKey(applicant decision.ApplicantRecord) (string, error) {
	data, err := json.Marshal(applicant)
	if err != nil {
		return "", fmt.Errorf("encode applicant: %w", err)
	}
	sum := sha256.Sum256(data)
	return cacheKeyPrefix + h.config.ModelVersion + ":" + hex.EncodeToString(sum[:]), nil
}

func (h *Handler) cacheEnabled() bool {
	return h.redis != nil && h.config.CacheTTL > 0
}

func (h *Handler) lookup(ctx context.Context, key string) (*decision.DecisionResult, bool) {
	if !h.cacheEnabled() {
		return nil, false
	}

	var cached decision.DecisionResult
	err := database.GetJSON(ctx, h.redis, key, &cached)
	if err == nil {
		return &cached, true
	}
	if !errors.Is(err, database.ErrCacheMiss) {
		h.logger.Warn("decision cache read failed", map[string]interface{}{
			"error": apperrors.NewCacheUnavailableError(err).Error(),
		})
	}
	return nil, false
}

func (h *Handler) store(ctx context.Context, key string, result *decision.DecisionResult) {
	if !h.cacheEnabled() {
		return
	}
	if err := database.SetJSON(ctx, h.redis, key, result, h.config.CacheTTL); err != nil {
		h.logger.Warn("decision cache write failed", map[string]interface{}{
			"error": apperrors.NewCacheUnavailableError(err).Error(),
		})
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output, start time.Time) {
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
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
	h.errors.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
