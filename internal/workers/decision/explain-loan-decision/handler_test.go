// internal/workers/decision/explain-loan-decision/handler_test.go
package explainloandecision

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "loan-lens/internal/common/errors"
	"loan-lens/internal/common/logger"
	"loan-lens/internal/decision"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:      5 * time.Second,
		CacheTTL:     10 * time.Minute,
		ModelVersion: "v-test",
	}
}

func createTestInput() *Input {
	return &Input{
		ApplicationID: "LP001015",
		Applicant: decision.ApplicantRecord{
			Gender:          "Male",
			Married:         true,
			Dependents:      "0",
			Education:       "Graduate",
			ApplicantIncome: 4000,
			LoanAmount:      150000,
			LoanTerm:        360,
			CreditHistory:   false,
			PropertyArea:    "Rural",
		},
	}
}

type stubExplainer struct {
	result *decision.DecisionResult
	err    error
	calls  int
}

func (s *stubExplainer) ExplainDecision(ctx context.Context, record decision.ApplicantRecord) (*decision.DecisionResult, error) {
	s.calls++
	return s.result, s.err
}

func rejectedResult() *decision.DecisionResult {
	return &decision.DecisionResult{
		Approved:        false,
		Probability:     30,
		RiskLevel:       decision.RiskHigh,
		PositiveFactors: []decision.Factor{},
		NegativeFactors: []decision.Factor{{
			Name:      "Credit History",
			Feature:   "Credit_History",
			Impact:    decision.ImpactStrong,
			ShapValue: -0.35,
		}},
		Explained: true,
	}
}

// Create a test logger that implements your logger.Logger interface
type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	_, rdb := setupMiniredis(t)
	stub := &stubExplainer{result: rejectedResult()}
	handler := NewHandler(createTestConfig(), stub, rdb, nil, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, "LP001015", output.ApplicationID)
	assert.Equal(t, decision.OutcomeRejected, output.Decision)
	assert.Equal(t, 30.0, output.Probability)
	assert.Equal(t, decision.RiskHigh, output.RiskLevel)
	assert.False(t, output.Cached)
	assert.Equal(t, 1, stub.calls)
}

func TestHandler_Execute_CacheHit(t *testing.T) {
	_, rdb := setupMiniredis(t)
	stub := &stubExplainer{result: rejectedResult()}
	handler := NewHandler(createTestConfig(), stub, rdb, nil, newTestLogger(t))

	first, err := handler.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	second, err := handler.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.Equal(t, 1, stub.calls, "second call must not reach the model")
	assert.True(t, second.Cached)
	assert.Equal(t, first.DecisionResult, second.DecisionResult)
}

func TestHandler_Execute_CacheKeyIncludesModelVersion(t *testing.T) {
	_, rdb := setupMiniredis(t)
	stub := &stubExplainer{result: rejectedResult()}

	cfgA := createTestConfig()
	cfgB := createTestConfig()
	cfgB.ModelVersion = "v-next"

	_, err := NewHandler(cfgA, stub, rdb, nil, newTestLogger(t)).Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	_, err = NewHandler(cfgB, stub, rdb, nil, newTestLogger(t)).Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.Equal(t, 2, stub.calls)
}

func TestHandler_Execute_DegradedResultNotCached(t *testing.T) {
	mr, rdb := setupMiniredis(t)
	degraded := rejectedResult()
	degraded.NegativeFactors = []decision.Factor{}
	degraded.Explained = false

	handler := NewHandler(createTestConfig(), &stubExplainer{result: degraded}, rdb, nil, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.False(t, output.Explained)
	assert.Empty(t, mr.Keys())
}

func TestHandler_Execute_CacheUnavailable(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	stub := &stubExplainer{result: rejectedResult()}
	handler := NewHandler(createTestConfig(), stub, rdb, nil, newTestLogger(t))

	input := createTestInput()
	key, err := handler.cacheKey(input.Applicant)
	require.NoError(t, err)

	cached, _ := json.Marshal(stub.result)
	redisMock.ExpectGet(key).SetErr(errors.New("connection refused"))
	redisMock.ExpectSet(key, cached, 10*time.Minute).SetErr(errors.New("connection refused"))

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.False(t, output.Cached)
	assert.Equal(t, 1, stub.calls)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Execute_CacheMissWritesEntry(t *testing.T) {
	rdb, redisMock := redismock.NewClientMock()
	stub := &stubExplainer{result: rejectedResult()}
	handler := NewHandler(createTestConfig(), stub, rdb, nil, newTestLogger(t))

	input := createTestInput()
	key, err := handler.cacheKey(input.Applicant)
	require.NoError(t, err)

	cached, _ := json.Marshal(stub.result)
	redisMock.ExpectGet(key).RedisNil()
	redisMock.ExpectSet(key, cached, 10*time.Minute).SetVal("OK")

	_, err = handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Execute_NoCache(t *testing.T) {
	stub := &stubExplainer{result: rejectedResult()}
	handler := NewHandler(createTestConfig(), stub, nil, nil, newTestLogger(t))

	for i := 0; i < 2; i++ {
		_, err := handler.Execute(context.Background(), createTestInput())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, stub.calls)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_ModelErrorPropagates(t *testing.T) {
	modelErr := apperrors.NewModelInvocationError(errors.New("connection refused"))
	handler := NewHandler(createTestConfig(), &stubExplainer{err: modelErr}, nil, nil, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Nil(t, output)
	assert.Same(t, modelErr, err)
}

func TestHandler_Execute_WithExplainerValidation(t *testing.T) {
	explainer := decision.NewExplainer(fixedModel(0.9), nil, nil, newTestLogger(t))
	handler := NewHandler(createTestConfig(), explainer, nil, nil, newTestLogger(t))

	input := createTestInput()
	input.Applicant.PropertyArea = "Downtown"

	_, err := handler.Execute(context.Background(), input)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
}

func TestHandler_Execute_WithExplainerDegraded(t *testing.T) {
	explainer := decision.NewExplainer(fixedModel(0.82), nil, nil, newTestLogger(t))
	handler := NewHandler(createTestConfig(), explainer, nil, nil, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.True(t, output.Approved)
	assert.Equal(t, decision.OutcomeApproved, output.Decision)
	assert.Equal(t, 82.0, output.Probability)
	assert.Equal(t, decision.RiskLow, output.RiskLevel)
	assert.False(t, output.Explained)
	assert.Empty(t, output.PositiveFactors)
	assert.Empty(t, output.NegativeFactors)
}

type fixedModel float64

func (m fixedModel) PredictProba(ctx context.Context, features decision.FeatureVector) (float64, error) {
	return float64(m), nil
}

// ==========================
// Output Shape
// ==========================

func TestOutput_JSONFlattensResult(t *testing.T) {
	out := newOutput("LP001015", rejectedResult(), false)

	data, err := json.Marshal(out)
	require.NoError(t, err)

	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &vars))

	assert.Equal(t, "LP001015", vars["applicationId"])
	assert.Equal(t, "REJECTED", vars["decision"])
	assert.Equal(t, "high", vars["riskLevel"])
	assert.Equal(t, false, vars["approved"])
	assert.Contains(t, vars, "negativeFactors")
}
