// Package report renders decision and guidance results as the plain-text
// reports handed to applicants.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"loan-lens/internal/decision"
)

const width = 80

var rule = strings.Repeat("=", width)

// AnalysisFileName is the file an analysis report for id is saved under.
func AnalysisFileName(id string) string {
	return fmt.Sprintf("Loan_Application_Report_%s.txt", id)
}

// GuidanceFileName is the file a guidance report for id is saved under.
func GuidanceFileName(id string) string {
	return fmt.Sprintf("Loan_Guidance_Report_%s.txt", id)
}

// Analysis renders the decision analysis report.
func Analysis(applicationID string, result *decision.DecisionResult) string {
	var b strings.Builder

	section(&b, "LOAN APPLICATION ANALYSIS REPORT")
	fmt.Fprintf(&b, "APPLICATION ID: %s\n", applicationID)
	fmt.Fprintf(&b, "DECISION: %s\n", result.Outcome())
	fmt.Fprintf(&b, "APPROVAL PROBABILITY: %.1f%%\n", result.Probability)
	fmt.Fprintf(&b, "RISK LEVEL: %s\n\n", strings.ToUpper(string(result.RiskLevel)))

	section(&b, "SUMMARY OF DECISION")
	if result.Approved {
		b.WriteString("This loan application was approved based on a strong financial\n")
		b.WriteString("profile and acceptable credit risk indicators.\n")
	} else {
		b.WriteString("This loan application was rejected based on an analysis of the\n")
		b.WriteString("applicant's financial profile and credit history.\n")
	}
	b.WriteString("The model evaluated multiple factors including income, loan amount,\n")
	b.WriteString("credit history, and property details to determine the likelihood of\n")
	b.WriteString("successful loan repayment.\n\n")

	if !result.Explained {
		b.WriteString("NOTE: factor explanations were unavailable for this decision.\n\n")
	}

	section(&b, "FACTORS THAT LED TO DECISION")
	b.WriteString("NEGATIVE IMPACT FACTORS:\n")
	writeFactors(&b, result.NegativeFactors, "%.4f")

	section(&b, "POSITIVE FACTORS (Supporting Approval)")
	writeFactors(&b, result.PositiveFactors, "+%.4f")

	section(&b, "FINAL SUMMARY")
	if result.Approved {
		b.WriteString("REASON FOR APPROVAL:\n\n")
		if len(result.PositiveFactors) > 0 {
			fmt.Fprintf(&b, "The primary reason for approving this loan application is strong performance in %s.\n",
				result.PositiveFactors[0].Name)
		} else {
			b.WriteString("The application cleared the approval threshold without a single dominant factor.\n")
		}
		b.WriteString("The applicant shows good repayment capacity and acceptable credit behavior.\n")
	} else {
		b.WriteString("REASON FOR REJECTION:\n\n")
		if len(result.NegativeFactors) > 0 {
			fmt.Fprintf(&b, "The primary reason for rejecting this loan application is %s.\n",
				result.NegativeFactors[0].Name)
			b.WriteString("This factor contributed the most negative influence on the final decision.\n")
		} else {
			b.WriteString("No single factor dominated the rejection.\n")
		}
		fmt.Fprintf(&b, "With only a %.1f%% probability of approval, the application\n", result.Probability)
		b.WriteString("falls below the minimum threshold required for loan approval.\n")
	}

	b.WriteString("\n")
	closing(&b, "END OF REPORT")
	return b.String()
}

// Guidance renders the applicant guidance report.
func Guidance(g decision.GuidanceReport) string {
	var b strings.Builder

	section(&b, "LOAN APPROVAL GUIDANCE REPORT")
	fmt.Fprintf(&b, "FINAL DECISION: %s\n", g.Decision)
	fmt.Fprintf(&b, "CURRENT APPROVAL PROBABILITY: %.1f%%\n\n", g.Probability)
	b.WriteString("This guidance report explains how you can improve your chances\n")
	b.WriteString("of getting your loan approved in the future.\n")
	b.WriteString("Please follow the suggestions carefully.\n\n")

	section(&b, "MAIN AREAS THAT NEED IMPROVEMENT")
	if g.ProfileStrong {
		b.WriteString(decision.StrongProfileMessage + "\n\n")
	} else {
		for i, rec := range g.Recommendations {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
		}
	}

	section(&b, "FINAL ADVICE TO APPLICANT")
	b.WriteString(g.Narrative)
	b.WriteString("\n")
	closing(&b, "END OF GUIDANCE REPORT")
	return b.String()
}

// WriteFiles saves both reports for id into dir.
func WriteFiles(dir, id string, result *decision.DecisionResult, g decision.GuidanceReport) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	files := map[string]string{
		AnalysisFileName(id): Analysis(id, result),
		GuidanceFileName(id): Guidance(g),
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func writeFactors(b *strings.Builder, factors []decision.Factor, contribution string) {
	if len(factors) == 0 {
		b.WriteString("  None\n\n")
		return
	}
	// Casers are stateful and must not be shared across goroutines.
	title := cases.Title(language.Und)
	for i, f := range factors {
		fmt.Fprintf(b, "  %d. %s\n", i+1, f.Name)
		fmt.Fprintf(b, "     Impact: %s\n", title.String(string(f.Impact)))
		fmt.Fprintf(b, "     SHAP Contribution: "+contribution+"\n", f.ShapValue)
		if f.Description != "" {
			fmt.Fprintf(b, "     %s\n", f.Description)
		}
		b.WriteString("\n")
	}
}

func section(b *strings.Builder, title string) {
	b.WriteString(rule + "\n")
	b.WriteString(center(title) + "\n")
	b.WriteString(rule + "\n\n")
}

func closing(b *strings.Builder, title string) {
	b.WriteString(rule + "\n")
	b.WriteString(center(title) + "\n")
	b.WriteString(rule + "\n")
}

func center(title string) string {
	pad := (width - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + title
}
