// internal/decision/explainer.go
package decision

import (
	"context"
	"fmt"
	"math"

	apperrors "loan-lens/internal/common/errors"
	"loan-lens/internal/common/logger"
	"loan-lens/internal/common/validation"
)

// Predictor returns the approval-class probability for a feature vector.
type Predictor interface {
	PredictProba(ctx context.Context, features FeatureVector) (float64, error)
}

// Attributor returns one signed contribution per encoded feature for the
// approval class, aligned with FeatureNamer.EncodedFeatureNames.
type Attributor interface {
	Contributions(ctx context.Context, features FeatureVector) ([]float64, error)
}

// FeatureNamer exposes the encoded feature names in model order.
type FeatureNamer interface {
	EncodedFeatureNames() []string
}

// Explainer runs the decision-explanation pipeline. It holds no mutable
// state and is safe for concurrent use.
type Explainer struct {
	model      Predictor
	attributor Attributor
	namer      FeatureNamer
	validate   func(interface{}) error
	logger     logger.Logger
}

// NewExplainer wires the pipeline. attributor and namer may be nil, in which
// case every decision is returned without factors.
func NewExplainer(model Predictor, attributor Attributor, namer FeatureNamer, log logger.Logger) *Explainer {
	return &Explainer{
		model:      model,
		attributor: attributor,
		namer:      namer,
		validate:   validation.ValidateApplicant,
		logger:     log.WithFields(map[string]interface{}{"component": "explainer"}),
	}
}

// ExplainDecision validates the record, scores it and explains the score.
// Model failures are returned exactly as the model reported them.
func (e *Explainer) ExplainDecision(ctx context.Context, record ApplicantRecord) (*DecisionResult, error) {
	if err := e.validate(record); err != nil {
		return nil, err
	}

	features := BuildFeatures(record)

	probability, err := e.model.PredictProba(ctx, features)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		return nil, apperrors.NewModelInvocationError(
			fmt.Errorf("probability %v outside [0,1]", probability))
	}

	approved, tier := Decide(probability)
	result := &DecisionResult{
		Approved:        approved,
		Probability:     ReportedProbability(probability),
		RiskLevel:       tier,
		PositiveFactors: []Factor{},
		NegativeFactors: []Factor{},
	}

	attributions, err := e.attributions(ctx, features)
	if err != nil {
		e.logger.Warn("attribution unavailable, returning decision without factors", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		result.PositiveFactors, result.NegativeFactors = Rank(attributions)
		result.Explained = true
	}

	e.logger.Info("loan decision explained", map[string]interface{}{
		"approved":        result.Approved,
		"probability":     result.Probability,
		"riskLevel":       result.RiskLevel,
		"positiveFactors": len(result.PositiveFactors),
		"negativeFactors": len(result.NegativeFactors),
		"explained":       result.Explained,
	})

	return result, nil
}

func (e *Explainer) attributions(ctx context.Context, features FeatureVector) ([]RawAttribution, error) {
	if e.attributor == nil || e.namer == nil {
		return nil, apperrors.NewAttributionUnavailableError(fmt.Errorf("no attribution collaborator configured"))
	}

	values, err := e.attributor.Contributions(ctx, features)
	if err != nil {
		return nil, apperrors.NewAttributionUnavailableError(err)
	}

	names := e.namer.EncodedFeatureNames()
	if len(values) != len(names) {
		return nil, apperrors.NewAttributionUnavailableError(
			fmt.Errorf("got %d contributions for %d encoded features", len(values), len(names)))
	}

	out := make([]RawAttribution, len(values))
	for i, v := range values {
		out[i] = RawAttribution{Feature: SimpleFeatureName(names[i]), Value: v}
	}
	return out, nil
}
