// internal/decision/guidance.go
package decision

import "strings"

// StrongProfileMessage is the only recommendation when no rule fires.
const StrongProfileMessage = "No major risk factors found. Your profile is already strong."

const (
	rejectedNarrative = "Your loan was rejected mainly due to financial risk factors.\n" +
		"If you follow the above suggestions and improve your profile,\n" +
		"your chances of approval will increase significantly.\n\n" +
		"We recommend waiting at least 3 to 6 months before re-applying\n" +
		"after improving your credit and income profile.\n"

	approvedNarrative = "Your loan was approved successfully.\n" +
		"To maintain a good credit profile in the future:\n" +
		"  - Always pay EMIs on time\n" +
		"  - Avoid taking unnecessary loans\n" +
		"  - Maintain a good credit score\n"
)

type guidanceRule struct {
	keywords []string
	text     string
}

// guidanceRules is evaluated in order; each factor takes its first match.
var guidanceRules = []guidanceRule{
	{
		keywords: []string{"credit_history"},
		text: "Improve your credit history:\n" +
			"  - Pay all existing EMIs and credit card bills on time\n" +
			"  - Avoid missing any payments for the next 6–12 months\n" +
			"  - Do not apply for many new loans or credit cards\n" +
			"  - Check your credit report and correct any mistakes\n",
	},
	{
		keywords: []string{"emi", "loan_income_ratio"},
		text: "Reduce your loan burden:\n" +
			"  - Try to reduce the loan amount\n" +
			"  - Increase your monthly income if possible\n" +
			"  - Close small existing loans before applying again\n" +
			"  - Choose a longer loan tenure to reduce EMI pressure\n",
	},
	{
		keywords: []string{"loanamount"},
		text: "Adjust your loan amount:\n" +
			"  - Apply for a smaller loan amount\n" +
			"  - Increase your down payment\n" +
			"  - Make sure the loan amount matches your income level\n",
	},
	{
		keywords: []string{"applicantincome"},
		text: "Improve your income profile:\n" +
			"  - Show additional income sources if available\n" +
			"  - Add a co-applicant with stable income\n" +
			"  - Apply after getting a salary hike or job promotion\n",
	},
	{
		keywords: []string{"coapplicantincome"},
		text: "Strengthen co-applicant profile:\n" +
			"  - Add a co-applicant with higher or stable income\n" +
			"  - Ensure co-applicant has good credit history\n",
	},
	{
		keywords: []string{"dependents"},
		text: "Manage dependent responsibility:\n" +
			"  - Try to reduce existing financial commitments\n" +
			"  - Increase household income before re-applying\n",
	},
	{
		keywords: []string{"property_area"},
		text: "Property related improvement:\n" +
			"  - Choose property in a more developed / urban area\n" +
			"  - Ensure property documents are clear and verified\n",
	},
	{
		keywords: []string{"self_employed"},
		text: "Strengthen employment stability:\n" +
			"  - Show stable income for the last 2–3 years\n" +
			"  - Maintain proper business financial records\n" +
			"  - File income tax returns regularly\n",
	},
}

// Guide builds remediation guidance from the negative factors of a decision.
// probability is the reported 0-100 value. Positive factors are never consulted.
func Guide(negative []Factor, outcome Outcome, probability float64) GuidanceReport {
	seen := make(map[string]struct{})
	recommendations := make([]string, 0, len(negative))

	for _, f := range negative {
		text, ok := recommendationFor(f)
		if !ok {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		recommendations = append(recommendations, text)
	}

	report := GuidanceReport{
		Decision:        outcome,
		Probability:     probability,
		Recommendations: recommendations,
		Narrative:       approvedNarrative,
	}
	if outcome == OutcomeRejected {
		report.Narrative = rejectedNarrative
	}
	if len(recommendations) == 0 {
		report.Recommendations = []string{StrongProfileMessage}
		report.ProfileStrong = true
	}

	return report
}

// GuideResult is Guide over a finished DecisionResult.
func GuideResult(result *DecisionResult) GuidanceReport {
	return Guide(result.NegativeFactors, result.Outcome(), result.Probability)
}

func recommendationFor(f Factor) (string, bool) {
	key := f.Feature
	if key == "" {
		key = f.Name
	}
	key = strings.ReplaceAll(strings.ToLower(key), " ", "_")

	for _, rule := range guidanceRules {
		for _, kw := range rule.keywords {
			if strings.Contains(key, kw) {
				return rule.text, true
			}
		}
	}
	return "", false
}
