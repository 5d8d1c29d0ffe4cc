package validation

import (
	"fmt"
	"sort"
	"strings"

	apperrors "loan-lens/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// ApplicantSchema constrains the raw applicant record before scoring.
const ApplicantSchema = `{
  "type": "object",
  "required": [
    "gender", "married", "dependents", "education", "selfEmployed",
    "applicantIncome", "coapplicantIncome", "loanAmount", "loanTerm",
    "creditHistory", "propertyArea"
  ],
  "properties": {
    "gender":            {"type": "string", "enum": ["Male", "Female"]},
    "married":           {"type": "boolean"},
    "dependents":        {"type": "string", "enum": ["0", "1", "2", "3+"]},
    "education":         {"type": "string", "enum": ["Graduate", "Not Graduate"]},
    "selfEmployed":      {"type": "boolean"},
    "applicantIncome":   {"type": "number", "minimum": 0},
    "coapplicantIncome": {"type": "number", "minimum": 0},
    "loanAmount":        {"type": "number", "minimum": 0},
    "loanAmountUnit":    {"type": "string", "enum": ["", "currency", "thousands"]},
    "loanTerm":          {"type": "integer", "minimum": 1},
    "creditHistory":     {"type": "boolean"},
    "propertyArea":      {"type": "string", "enum": ["Urban", "Semiurban", "Rural"]}
  }
}`

var applicantSchema = mustCompile(ApplicantSchema)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func mustCompile(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return s
}

// Validate checks a Go value (marshalled through its JSON tags) against a schema.
func Validate(schema *gojsonschema.Schema, document interface{}) (*ValidationResult, error) {
	result, err := schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.SliceStable(out.Errors, func(i, j int) bool {
		return out.Errors[i].Field < out.Errors[j].Field
	})
	return out, nil
}

// ValidateApplicant returns a VALIDATION_FAILED error listing every field
// problem, or nil when the record is acceptable.
func ValidateApplicant(record interface{}) error {
	result, err := Validate(applicantSchema, record)
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if result.Valid {
		return nil
	}

	stdErr := apperrors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
	stdErr.Metadata = map[string]interface{}{"errors": result.Errors}
	return stdErr
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}
