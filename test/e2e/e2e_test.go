// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-lens/internal/common/logger"
	"loan-lens/internal/decision"
	"loan-lens/internal/model"
	explainloandecision "loan-lens/internal/workers/decision/explain-loan-decision"
	generateloanguidance "loan-lens/internal/workers/decision/generate-loan-guidance"
	recordloandecision "loan-lens/internal/workers/decision/record-loan-decision"
)

// ==========================
// Environment
// ==========================

type testEnvironment struct {
	sidecar      *httptest.Server
	predictCalls atomic.Int32
	explainCalls atomic.Int32

	redis *miniredis.Miniredis
	mock  sqlmock.Sqlmock

	explain *explainloandecision.Handler
	guide   *generateloanguidance.Handler
	record  *recordloandecision.Handler
}

// shap values keyed by encoded feature name; everything else is zero
var rejectedShap = map[string]float64{
	"num__ApplicantIncome":         0.02,
	"num__LoanAmount":              -0.06,
	"num__Credit_History":          -0.35,
	"num__EMI_Ratio":               -0.09,
	"cat__Property_Area_Rural":     -0.03,
	"cat__Education_Graduate":      0.01,
	"num__Loan_Amount_Term":        0.0,
	"cat__Self_Employed_No":        0.004,
	"cat__Dependents_0":            -0.001,
	"num__CoapplicantIncome":       0.0,
	"num__Total_Income":            0.012,
	"cat__Married_Yes":             0.003,
	"cat__Property_Area_Urban":     0.0,
	"cat__Property_Area_Semiurban": 0.0,
}

func setupEnvironment(t *testing.T, probability float64) *testEnvironment {
	t.Helper()

	env := &testEnvironment{}
	names := model.NewEncoder().EncodedFeatureNames()

	env.sidecar = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/predict":
			env.predictCalls.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"probabilities": [][]float64{{1 - probability, probability}},
			})
		case "/v1/explain":
			env.explainCalls.Add(1)
			values := make([]float64, len(names))
			for i, name := range names {
				values[i] = rejectedShap[name]
			}
			// per-class layout, approval class last
			negated := make([]float64, len(values))
			for i, v := range values {
				negated[i] = -v
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"shapValues": [][][]float64{{negated}, {values}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(env.sidecar.Close)

	env.redis = miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: env.redis.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	env.mock = mock

	log := logger.NewTestLogger(t)
	client := model.NewClient(env.sidecar.URL, 2*time.Second, log)
	explainer := decision.NewExplainer(client, client, client, log)

	env.explain = explainloandecision.NewHandler(&explainloandecision.Config{
		Timeout:      5 * time.Second,
		CacheTTL:     time.Minute,
		ModelVersion: "e2e",
	}, explainer, rdb, nil, log)
	env.guide = generateloanguidance.NewHandler(generateloanguidance.LoadConfig(), log)
	env.record = recordloandecision.NewHandler(recordloandecision.LoadConfig(), db, log)

	return env
}

func rejectedApplicant() decision.ApplicantRecord {
	return decision.ApplicantRecord{
		Gender:            "Male",
		Married:           true,
		Dependents:        "0",
		Education:         "Graduate",
		SelfEmployed:      false,
		ApplicantIncome:   4583,
		CoapplicantIncome: 1508,
		LoanAmount:        128000,
		LoanTerm:          360,
		CreditHistory:     false,
		PropertyArea:      "Rural",
	}
}

// passVariables round-trips a worker output through JSON the way the
// workflow engine hands variables to the next task.
func passVariables(t *testing.T, from interface{}, to interface{}) {
	t.Helper()
	raw, err := json.Marshal(from)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, to))
}

// ==========================
// Full process
// ==========================

func TestLoanDecisionProcess_Rejected(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}

	env := setupEnvironment(t, 0.30)
	ctx := context.Background()

	// 1. explain-loan-decision
	explained, err := env.explain.Execute(ctx, &explainloandecision.Input{
		ApplicationID: "LP001003",
		Applicant:     rejectedApplicant(),
	})
	require.NoError(t, err)

	assert.Equal(t, decision.OutcomeRejected, explained.Decision)
	assert.Equal(t, 30.0, explained.Probability)
	assert.Equal(t, decision.RiskHigh, explained.RiskLevel)
	assert.True(t, explained.Explained)
	assert.False(t, explained.Cached)

	require.Len(t, explained.NegativeFactors, 5)
	assert.Equal(t, "Credit_History", explained.NegativeFactors[0].Feature)
	assert.Equal(t, decision.ImpactStrong, explained.NegativeFactors[0].Impact)
	assert.Equal(t, "EMI_Ratio", explained.NegativeFactors[1].Feature)
	assert.Equal(t, "LoanAmount", explained.NegativeFactors[2].Feature)

	require.Len(t, explained.PositiveFactors, 5)
	assert.Equal(t, "ApplicantIncome", explained.PositiveFactors[0].Feature)
	for _, f := range explained.PositiveFactors {
		assert.Greater(t, f.ShapValue, 0.0)
	}

	// 2. generate-loan-guidance
	var guidanceInput generateloanguidance.Input
	passVariables(t, explained, &guidanceInput)

	guided, err := env.guide.Execute(ctx, &guidanceInput)
	require.NoError(t, err)

	g := guided.Guidance
	assert.Equal(t, decision.OutcomeRejected, g.Decision)
	assert.False(t, g.ProfileStrong)
	require.NotEmpty(t, g.Recommendations)
	assert.Contains(t, g.Recommendations[0], "Improve your credit history:")
	assert.Contains(t, g.Narrative, "rejected")

	// 3. record-loan-decision
	env.mock.ExpectBegin()
	env.mock.ExpectExec(`INSERT INTO loan_decisions`).WillReturnResult(sqlmock.NewResult(1, 1))
	env.mock.ExpectExec(`INSERT INTO audit_log`).WillReturnResult(sqlmock.NewResult(1, 1))
	env.mock.ExpectCommit()

	recorded, err := env.record.Execute(ctx, &recordloandecision.Input{
		ApplicationID: explained.ApplicationID,
		Result:        explained.DecisionResult,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, recorded.DecisionRecordID)
	assert.NoError(t, env.mock.ExpectationsWereMet())

	assert.Equal(t, int32(1), env.predictCalls.Load())
	assert.Equal(t, int32(1), env.explainCalls.Load())
}

func TestLoanDecisionProcess_RepeatServedFromCache(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}

	env := setupEnvironment(t, 0.82)
	ctx := context.Background()
	input := &explainloandecision.Input{ApplicationID: "LP002001", Applicant: rejectedApplicant()}
	input.Applicant.CreditHistory = true

	first, err := env.explain.Execute(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, decision.OutcomeApproved, first.Decision)
	assert.Equal(t, decision.RiskLow, first.RiskLevel)

	second, err := env.explain.Execute(ctx, input)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.DecisionResult, second.DecisionResult)

	assert.Equal(t, int32(1), env.predictCalls.Load())
	assert.Len(t, env.redis.Keys(), 1)
}

func TestLoanDecisionProcess_InvalidApplicantNeverReachesModel(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}

	env := setupEnvironment(t, 0.5)
	applicant := rejectedApplicant()
	applicant.PropertyArea = "Downtown"

	output, err := env.explain.Execute(context.Background(), &explainloandecision.Input{
		ApplicationID: "LP000000",
		Applicant:     applicant,
	})
	assert.Nil(t, output)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "propertyArea")
	assert.Equal(t, int32(0), env.predictCalls.Load())
}
