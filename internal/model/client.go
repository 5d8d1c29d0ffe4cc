// internal/model/client.go
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "loan-lens/internal/common/errors"
	commonhttp "loan-lens/internal/common/http"
	"loan-lens/internal/common/logger"
	"loan-lens/internal/common/metrics"
	"loan-lens/internal/decision"
)

const (
	predictPath = "/v1/predict"
	explainPath = "/v1/explain"
	healthPath  = "/health"
)

type predictRequest struct {
	Instances []decision.FeatureVector `json:"instances"`
}

type predictResponse struct {
	Probabilities [][]float64 `json:"probabilities"`
	Probability   *float64    `json:"probability"`
}

type explainRequest struct {
	FeatureNames []string    `json:"featureNames"`
	Rows         [][]float64 `json:"rows"`
}

type explainResponse struct {
	ShapValues json.RawMessage `json:"shapValues"`
}

// Client talks to the model-serving sidecar. It implements
// decision.Predictor, decision.Attributor and decision.FeatureNamer.
type Client struct {
	http    *commonhttp.Client
	baseURL string
	encoder *Encoder
	logger  logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		http:    commonhttp.NewClient(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		encoder: NewEncoder(),
		logger:  log.WithFields(map[string]interface{}{"component": "model-client"}),
	}
}

// PredictProba returns the approval-class probability.
func (c *Client) PredictProba(ctx context.Context, features decision.FeatureVector) (float64, error) {
	var resp predictResponse
	err := c.http.PostJSON(ctx, c.baseURL+predictPath, predictRequest{
		Instances: []decision.FeatureVector{features},
	}, &resp)
	if err != nil {
		return 0, c.invocationFailed(err)
	}

	p, err := resp.positiveClass()
	if err != nil {
		return 0, c.invocationFailed(err)
	}
	return p, nil
}

func (r predictResponse) positiveClass() (float64, error) {
	var p float64
	switch {
	case len(r.Probabilities) > 0:
		row := r.Probabilities[0]
		if len(row) < 2 {
			return 0, fmt.Errorf("expected two class probabilities, got %d", len(row))
		}
		p = row[1]
	case r.Probability != nil:
		p = *r.Probability
	default:
		return 0, fmt.Errorf("response carries no probability")
	}

	if p < 0 || p > 1 {
		return 0, fmt.Errorf("probability %v outside [0,1]", p)
	}
	return p, nil
}

// Contributions returns per-feature attributions for the approval class,
// aligned with EncodedFeatureNames.
func (c *Client) Contributions(ctx context.Context, features decision.FeatureVector) ([]float64, error) {
	var resp explainResponse
	err := c.http.PostJSON(ctx, c.baseURL+explainPath, explainRequest{
		FeatureNames: c.encoder.EncodedFeatureNames(),
		Rows:         [][]float64{c.encoder.Transform(features)},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.ShapValues) == 0 {
		return nil, fmt.Errorf("response carries no shapValues")
	}

	return PositiveClassContributions(resp.ShapValues, c.encoder.Width())
}

func (c *Client) EncodedFeatureNames() []string {
	return c.encoder.EncodedFeatureNames()
}

// Health checks the sidecar's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	if err := c.http.GetJSON(ctx, c.baseURL+healthPath, nil); err != nil {
		return fmt.Errorf("model server unhealthy: %w", err)
	}
	return nil
}

func (c *Client) invocationFailed(err error) error {
	metrics.LoanModelInvocationFailures.Inc()
	c.logger.Error("model invocation failed", map[string]interface{}{
		"error": err.Error(),
	})
	return apperrors.NewModelInvocationError(err)
}
