// internal/decision/models.go
package decision

// Loan amount units accepted on an ApplicantRecord.
const (
	UnitCurrency  = "currency"
	UnitThousands = "thousands"
)

// ApplicantRecord is the raw applicant input. It is never mutated once received.
type ApplicantRecord struct {
	Gender            string  `json:"gender"`
	Married           bool    `json:"married"`
	Dependents        string  `json:"dependents"`
	Education         string  `json:"education"`
	SelfEmployed      bool    `json:"selfEmployed"`
	ApplicantIncome   float64 `json:"applicantIncome"`
	CoapplicantIncome float64 `json:"coapplicantIncome"`
	LoanAmount        float64 `json:"loanAmount"`
	LoanAmountUnit    string  `json:"loanAmountUnit,omitempty"`
	LoanTerm          int     `json:"loanTerm"`
	CreditHistory     bool    `json:"creditHistory"`
	PropertyArea      string  `json:"propertyArea"`
}

// FeatureVector is the applicant encoded the way the model was trained.
// JSON names follow the training column names.
type FeatureVector struct {
	Gender            string  `json:"Gender"`
	Married           string  `json:"Married"`
	Dependents        string  `json:"Dependents"`
	Education         string  `json:"Education"`
	SelfEmployed      string  `json:"Self_Employed"`
	ApplicantIncome   float64 `json:"ApplicantIncome"`
	CoapplicantIncome float64 `json:"CoapplicantIncome"`
	LoanAmount        float64 `json:"LoanAmount"` // thousands
	LoanAmountTerm    float64 `json:"Loan_Amount_Term"`
	CreditHistory     float64 `json:"Credit_History"`
	PropertyArea      string  `json:"Property_Area"`
	TotalIncome       float64 `json:"Total_Income"`
	EMIRatio          float64 `json:"EMI_Ratio"`
}

// RawAttribution pairs a model feature name with its signed contribution.
type RawAttribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

type Impact string

const (
	ImpactStrong   Impact = "strong"
	ImpactModerate Impact = "moderate"
	ImpactWeak     Impact = "weak"
)

type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// Outcome is the decision label used in reports and guidance.
type Outcome string

const (
	OutcomeApproved Outcome = "ACCEPTED"
	OutcomeRejected Outcome = "REJECTED"
)

// OutcomeOf maps the approval flag to its label.
func OutcomeOf(approved bool) Outcome {
	if approved {
		return OutcomeApproved
	}
	return OutcomeRejected
}

// Factor is one classified attribution.
type Factor struct {
	Name        string  `json:"name"`
	Feature     string  `json:"feature"`
	Impact      Impact  `json:"impact"`
	Description string  `json:"description"`
	Positive    bool    `json:"positive"`
	ShapValue   float64 `json:"shapValue"`
}

// DecisionResult is the terminal output of one pipeline run.
type DecisionResult struct {
	Approved        bool     `json:"approved"`
	Probability     float64  `json:"probability"` // percent, one decimal place
	RiskLevel       RiskTier `json:"riskLevel"`
	PositiveFactors []Factor `json:"positiveFactors"`
	NegativeFactors []Factor `json:"negativeFactors"`
	Explained       bool     `json:"explained"`
}

// Outcome returns the decision label of the result.
func (r *DecisionResult) Outcome() Outcome {
	return OutcomeOf(r.Approved)
}

// GuidanceReport is the remediation view of a decision.
type GuidanceReport struct {
	Decision        Outcome  `json:"decision"`
	Probability     float64  `json:"probability"`
	Recommendations []string `json:"recommendations"`
	ProfileStrong   bool     `json:"profileStrong"`
	Narrative       string   `json:"narrative"`
}
