// internal/model/encoder.go
package model

import (
	"loan-lens/internal/decision"
)

// EncodedNamePrefixes used by the preprocessing pipeline the model was
// trained with.
const (
	NumericPrefix     = "num__"
	CategoricalPrefix = "cat__"
)

type categoricalColumn struct {
	name       string
	categories []string
	value      func(decision.FeatureVector) string
}

type numericColumn struct {
	name  string
	value func(decision.FeatureVector) float64
}

// Encoder reproduces the model's preprocessing: numeric passthrough columns
// followed by one-hot categorical columns.
type Encoder struct {
	numeric     []numericColumn
	categorical []categoricalColumn
	names       []string
}

func NewEncoder() *Encoder {
	e := &Encoder{
		numeric: []numericColumn{
			{"ApplicantIncome", func(f decision.FeatureVector) float64 { return f.ApplicantIncome }},
			{"CoapplicantIncome", func(f decision.FeatureVector) float64 { return f.CoapplicantIncome }},
			{"LoanAmount", func(f decision.FeatureVector) float64 { return f.LoanAmount }},
			{"Loan_Amount_Term", func(f decision.FeatureVector) float64 { return f.LoanAmountTerm }},
			{"Credit_History", func(f decision.FeatureVector) float64 { return f.CreditHistory }},
			{"Total_Income", func(f decision.FeatureVector) float64 { return f.TotalIncome }},
			{"EMI_Ratio", func(f decision.FeatureVector) float64 { return f.EMIRatio }},
		},
		categorical: []categoricalColumn{
			{"Gender", []string{"Female", "Male"}, func(f decision.FeatureVector) string { return f.Gender }},
			{"Married", []string{"No", "Yes"}, func(f decision.FeatureVector) string { return f.Married }},
			{"Dependents", []string{"0", "1", "2", "3+"}, func(f decision.FeatureVector) string { return f.Dependents }},
			{"Education", []string{"Graduate", "Not Graduate"}, func(f decision.FeatureVector) string { return f.Education }},
			{"Self_Employed", []string{"No", "Yes"}, func(f decision.FeatureVector) string { return f.SelfEmployed }},
			{"Property_Area", []string{"Rural", "Semiurban", "Urban"}, func(f decision.FeatureVector) string { return f.PropertyArea }},
		},
	}

	for _, c := range e.numeric {
		e.names = append(e.names, NumericPrefix+c.name)
	}
	for _, c := range e.categorical {
		for _, cat := range c.categories {
			e.names = append(e.names, CategoricalPrefix+c.name+"_"+cat)
		}
	}
	return e
}

// EncodedFeatureNames returns the encoded column names in model order.
// The returned slice must not be modified.
func (e *Encoder) EncodedFeatureNames() []string {
	return e.names
}

// Width is the number of encoded columns.
func (e *Encoder) Width() int {
	return len(e.names)
}

// Transform encodes fv into a row aligned with EncodedFeatureNames.
// Unknown categories encode as all zeros.
func (e *Encoder) Transform(fv decision.FeatureVector) []float64 {
	row := make([]float64, 0, len(e.names))
	for _, c := range e.numeric {
		row = append(row, c.value(fv))
	}
	for _, c := range e.categorical {
		v := c.value(fv)
		for _, cat := range c.categories {
			if v == cat {
				row = append(row, 1)
			} else {
				row = append(row, 0)
			}
		}
	}
	return row
}
