// internal/decision/features.go
package decision

import (
	"strings"

	"github.com/shopspring/decimal"
)

var thousand = decimal.NewFromInt(1000)

// BuildFeatures maps a validated applicant record to the model's feature vector.
func BuildFeatures(record ApplicantRecord) FeatureVector {
	loanThousands := loanAmountInThousands(record.LoanAmount, record.LoanAmountUnit)
	totalIncome := record.ApplicantIncome + record.CoapplicantIncome

	return FeatureVector{
		Gender:            record.Gender,
		Married:           yesNo(record.Married),
		Dependents:        record.Dependents,
		Education:         record.Education,
		SelfEmployed:      yesNo(record.SelfEmployed),
		ApplicantIncome:   record.ApplicantIncome,
		CoapplicantIncome: record.CoapplicantIncome,
		LoanAmount:        loanThousands,
		LoanAmountTerm:    float64(record.LoanTerm),
		CreditHistory:     oneZero(record.CreditHistory),
		PropertyArea:      record.PropertyArea,
		TotalIncome:       totalIncome,
		// +1 keeps the denominator positive for zero-income applicants
		EMIRatio: loanThousands / (totalIncome + 1),
	}
}

// loanAmountInThousands rescales to the unit the model was trained on.
func loanAmountInThousands(amount float64, unit string) float64 {
	if strings.EqualFold(unit, UnitThousands) {
		return amount
	}
	return decimal.NewFromFloat(amount).Div(thousand).InexactFloat64()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func oneZero(v bool) float64 {
	if v {
		return 1.0
	}
	return 0.0
}
