// internal/decision/policy.go
package decision

import "github.com/shopspring/decimal"

const (
	ApprovalThreshold = 0.6
	LowRiskThreshold  = 0.7
	MediumRiskFloor   = 0.45
)

var hundred = decimal.NewFromInt(100)

// Decide maps the approval probability to the approval flag and risk tier.
// Bands are closed at their lower bound.
func Decide(probability float64) (bool, RiskTier) {
	approved := probability >= ApprovalThreshold

	switch {
	case probability >= LowRiskThreshold:
		return approved, RiskLow
	case probability >= MediumRiskFloor:
		return approved, RiskMedium
	default:
		return approved, RiskHigh
	}
}

// ReportedProbability scales to 0-100 and rounds to one decimal place.
func ReportedProbability(probability float64) float64 {
	return decimal.NewFromFloat(probability).Mul(hundred).Round(1).InexactFloat64()
}
