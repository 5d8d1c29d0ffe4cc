package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "loan-lens/internal/common/errors"
)

func validApplicant() map[string]interface{} {
	return map[string]interface{}{
		"gender":            "Female",
		"married":           true,
		"dependents":        "2",
		"education":         "Not Graduate",
		"selfEmployed":      false,
		"applicantIncome":   3200,
		"coapplicantIncome": 0,
		"loanAmount":        90000,
		"loanTerm":          180,
		"creditHistory":     true,
		"propertyArea":      "Semiurban",
	}
}

func TestValidateApplicant_Valid(t *testing.T) {
	assert.NoError(t, ValidateApplicant(validApplicant()))

	withUnit := validApplicant()
	withUnit["loanAmountUnit"] = "thousands"
	assert.NoError(t, ValidateApplicant(withUnit))
}

func TestValidateApplicant_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(map[string]interface{})
		wantField string
	}{
		{"negative applicant income", func(m map[string]interface{}) { m["applicantIncome"] = -1 }, "applicantIncome"},
		{"negative coapplicant income", func(m map[string]interface{}) { m["coapplicantIncome"] = -0.5 }, "coapplicantIncome"},
		{"negative loan amount", func(m map[string]interface{}) { m["loanAmount"] = -100 }, "loanAmount"},
		{"zero term", func(m map[string]interface{}) { m["loanTerm"] = 0 }, "loanTerm"},
		{"fractional term", func(m map[string]interface{}) { m["loanTerm"] = 12.5 }, "loanTerm"},
		{"unknown gender", func(m map[string]interface{}) { m["gender"] = "Other" }, "gender"},
		{"unknown dependents", func(m map[string]interface{}) { m["dependents"] = "5" }, "dependents"},
		{"unknown area", func(m map[string]interface{}) { m["propertyArea"] = "Suburban" }, "propertyArea"},
		{"unknown unit", func(m map[string]interface{}) { m["loanAmountUnit"] = "cents" }, "loanAmountUnit"},
		{"married not boolean", func(m map[string]interface{}) { m["married"] = "Yes" }, "married"},
		{"missing credit history", func(m map[string]interface{}) { delete(m, "creditHistory") }, "creditHistory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validApplicant()
			tt.mutate(doc)

			err := ValidateApplicant(doc)
			require.Error(t, err)

			stdErr, ok := apperrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeValidationFailed, stdErr.Code)
			assert.False(t, stdErr.Retryable)

			assert.Contains(t, stdErr.Details, tt.wantField)

			fieldErrs, ok := stdErr.Metadata["errors"].([]ValidationError)
			require.True(t, ok)
			assert.NotEmpty(t, fieldErrs)
		})
	}
}

func TestValidateApplicant_ReportsEveryField(t *testing.T) {
	doc := validApplicant()
	doc["applicantIncome"] = -1
	doc["gender"] = "?"
	doc["loanTerm"] = 0

	result, err := Validate(applicantSchema, doc)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 3)
	assert.Equal(t, "applicantIncome", result.Errors[0].Field)
	assert.Equal(t, "gender", result.Errors[1].Field)
	assert.Equal(t, "loanTerm", result.Errors[2].Field)
	assert.True(t, result.HasErrors("gender"))
	assert.False(t, result.HasErrors("propertyArea"))
	assert.Len(t, result.GetErrorMessages(), 3)
}
