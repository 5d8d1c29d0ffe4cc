// internal/workers/decision/generate-loan-guidance/models.go
package generateloanguidance

import "loan-lens/internal/decision"

type Input struct {
	ApplicationID   string            `json:"applicationId,omitempty"`
	Decision        decision.Outcome  `json:"decision"`
	Probability     float64           `json:"probability"`
	NegativeFactors []decision.Factor `json:"negativeFactors"`
}

type Output struct {
	Guidance decision.GuidanceReport `json:"guidance"`
}
