// internal/workers/decision/generate-loan-guidance/handler_test.go
package generateloanguidance

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "loan-lens/internal/common/errors"
	"loan-lens/internal/common/logger"
	"loan-lens/internal/decision"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), logger.NewTestLogger(t))
}

func factor(feature string, shap float64) decision.Factor {
	name, desc := decision.Annotate(feature)
	return decision.Factor{
		Name:        name,
		Feature:     feature,
		Impact:      decision.ClassifyImpact(-shap),
		Description: desc,
		ShapValue:   shap,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Rejected(t *testing.T) {
	input := &Input{
		ApplicationID: "LP001015",
		Decision:      decision.OutcomeRejected,
		Probability:   30,
		NegativeFactors: []decision.Factor{
			factor("Credit_History", -0.35),
			factor("EMI_Ratio", -0.12),
			factor("LoanAmount", -0.05),
		},
	}

	output, err := newTestHandler(t).Execute(context.Background(), input)

	require.NoError(t, err)
	g := output.Guidance
	assert.Equal(t, decision.OutcomeRejected, g.Decision)
	assert.Equal(t, 30.0, g.Probability)
	assert.False(t, g.ProfileStrong)
	require.Len(t, g.Recommendations, 3)
	assert.True(t, strings.HasPrefix(g.Recommendations[0], "Improve your credit history:"))
	assert.True(t, strings.HasPrefix(g.Recommendations[1], "Reduce your loan burden:"))
	assert.True(t, strings.HasPrefix(g.Recommendations[2], "Adjust your loan amount:"))
	assert.Contains(t, g.Narrative, "3 to 6 months")
}

func TestHandler_Execute_NoNegativeFactors(t *testing.T) {
	tests := []struct {
		name    string
		factors []decision.Factor
	}{
		{name: "nil", factors: nil},
		{name: "empty", factors: []decision.Factor{}},
		{name: "no matching rule", factors: []decision.Factor{factor("Gender_Male", -0.02)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := newTestHandler(t).Execute(context.Background(), &Input{
				Decision:        decision.OutcomeApproved,
				Probability:     82,
				NegativeFactors: tt.factors,
			})

			require.NoError(t, err)
			assert.True(t, output.Guidance.ProfileStrong)
			assert.Equal(t, []string{decision.StrongProfileMessage}, output.Guidance.Recommendations)
			assert.Contains(t, output.Guidance.Narrative, "approved successfully")
		})
	}
}

func TestHandler_Execute_DeduplicatesRecommendations(t *testing.T) {
	output, err := newTestHandler(t).Execute(context.Background(), &Input{
		Decision:    decision.OutcomeRejected,
		Probability: 41.2,
		NegativeFactors: []decision.Factor{
			factor("Property_Area_Rural", -0.1),
			factor("Property_Area_Urban", -0.04),
		},
	})

	require.NoError(t, err)
	require.Len(t, output.Guidance.Recommendations, 1)
	assert.True(t, strings.HasPrefix(output.Guidance.Recommendations[0], "Property related improvement:"))
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Execute_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{name: "missing decision", input: &Input{Probability: 50}},
		{name: "unknown decision", input: &Input{Decision: "MAYBE", Probability: 50}},
		{name: "probability above 100", input: &Input{Decision: decision.OutcomeApproved, Probability: 100.1}},
		{name: "negative probability", input: &Input{Decision: decision.OutcomeRejected, Probability: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := newTestHandler(t).Execute(context.Background(), tt.input)

			assert.Nil(t, output)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidationFailed))
		})
	}
}
