// internal/workers/decision/explain-loan-decision/models.go
package explainloandecision

import "loan-lens/internal/decision"

type Input struct {
	ApplicationID string                   `json:"applicationId"`
	Applicant     decision.ApplicantRecord `json:"applicant"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	decision.DecisionResult
	Decision decision.Outcome `json:"decision"`
	Cached   bool             `json:"cached"`
}
