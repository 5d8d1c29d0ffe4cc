// internal/decision/annotate.go
package decision

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EncodedNameSeparator separates the transformer group from the column name.
const EncodedNameSeparator = "__"

// GenericDescription is returned when no keyword matches.
const GenericDescription = "This feature influenced the model decision."

type keywordRule struct {
	keyword string
	text    string
}

// descriptionRules is evaluated in order; the first match wins.
var descriptionRules = []keywordRule{
	{"credit_history", "Credit history is a major driver of repayment risk."},
	{"loanamount", "Higher loan amounts increase repayment burden."},
	{"loan_amount_term", "Loan term affects monthly repayment pressure."},
	{"applicantincome", "Higher income improves repayment capacity."},
	{"coapplicantincome", "Co-applicant income can strengthen repayment ability."},
	{"total_income", "Total income improves capacity to repay."},
	{"emi_ratio", "Lower EMI-to-income ratio reduces repayment strain."},
	{"property_area", "Property area correlates with collateral value and liquidity."},
	{"self_employed", "Self employment can indicate variable income stability."},
	{"dependents", "More dependents can increase financial obligations."},
	{"education", "Education may correlate with employment stability."},
	{"married", "Marital status can correlate with household stability."},
	{"gender", "Gender is a demographic feature in the dataset."},
}

// SimpleFeatureName strips everything up to and including the last
// EncodedNameSeparator, so "cat__Property_Area_Rural" becomes "Property_Area_Rural".
func SimpleFeatureName(encoded string) string {
	if idx := strings.LastIndex(encoded, EncodedNameSeparator); idx >= 0 {
		return encoded[idx+len(EncodedNameSeparator):]
	}
	return encoded
}

// Annotate returns the display name and description for a raw feature name.
func Annotate(rawFeature string) (string, string) {
	return DisplayName(rawFeature), Describe(rawFeature)
}

// DisplayName turns "Loan_Amount_Term" into "Loan Amount Term". Each word
// keeps only its first letter upper-cased.
func DisplayName(rawFeature string) string {
	// a Caser is stateful, one per call
	titleCaser := cases.Title(language.Und)
	words := strings.Fields(strings.ReplaceAll(rawFeature, "_", " "))
	for i, w := range words {
		words[i] = titleCaser.String(w)
	}
	return strings.Join(words, " ")
}

// Describe looks the feature up in the description table, case-insensitively.
func Describe(rawFeature string) string {
	key := strings.ReplaceAll(strings.ToLower(rawFeature), " ", "_")
	if text, ok := firstMatch(descriptionRules, key); ok {
		return text
	}
	return GenericDescription
}

func firstMatch(rules []keywordRule, key string) (string, bool) {
	for _, r := range rules {
		if strings.Contains(key, r.keyword) {
			return r.text, true
		}
	}
	return "", false
}
