// internal/workers/decision/record-loan-decision/models.go
package recordloandecision

import "loan-lens/internal/decision"

type Input struct {
	ApplicationID string                  `json:"applicationId"`
	Result        decision.DecisionResult `json:"result"`
}

type Output struct {
	DecisionRecordID string `json:"decisionRecordId"`
	RecordedAt       string `json:"recordedAt"` // ISO 8601
}
