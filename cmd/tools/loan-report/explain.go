// cmd/tools/loan-report/explain.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"loan-lens/internal/common/validation"
	"loan-lens/internal/decision"
	"loan-lens/internal/report"
)

type explainOptions struct {
	file          string
	applicationID string
	out           string
	record        decision.ApplicantRecord
}

func newExplainCmd(root *rootOptions) *cobra.Command {
	opts := &explainOptions{}

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Explain the decision for a single applicant",
		Long: `Scores one applicant and prints the analysis and guidance reports.

The applicant is read from --file, or assembled from the individual flags.

Examples:
  loan-report explain --file applicant.json
  loan-report explain --gender Male --married --dependents 0 --education Graduate \
    --applicant-income 5849 --loan-amount 128000 --loan-term 360 --credit-history \
    --property-area Urban --out ./reports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.file, "file", "", "applicant JSON file")
	f.StringVar(&opts.applicationID, "id", "", "application id (generated when empty)")
	f.StringVar(&opts.out, "out", "", "directory for report files (stdout when empty)")

	f.StringVar(&opts.record.Gender, "gender", "Male", "Male or Female")
	f.BoolVar(&opts.record.Married, "married", false, "applicant is married")
	f.StringVar(&opts.record.Dependents, "dependents", "0", "0, 1, 2 or 3+")
	f.StringVar(&opts.record.Education, "education", "Graduate", "Graduate or Not Graduate")
	f.BoolVar(&opts.record.SelfEmployed, "self-employed", false, "applicant is self employed")
	f.Float64Var(&opts.record.ApplicantIncome, "applicant-income", 0, "monthly applicant income")
	f.Float64Var(&opts.record.CoapplicantIncome, "coapplicant-income", 0, "monthly co-applicant income")
	f.Float64Var(&opts.record.LoanAmount, "loan-amount", 0, "requested loan amount")
	f.StringVar(&opts.record.LoanAmountUnit, "loan-unit", decision.UnitCurrency, "currency or thousands")
	f.IntVar(&opts.record.LoanTerm, "loan-term", 360, "loan term in months")
	f.BoolVar(&opts.record.CreditHistory, "credit-history", false, "applicant meets credit guidelines")
	f.StringVar(&opts.record.PropertyArea, "property-area", "Urban", "Urban, Semiurban or Rural")

	return cmd
}

func runExplain(cmd *cobra.Command, root *rootOptions, opts *explainOptions) error {
	record := opts.record
	id := opts.applicationID

	if opts.file != "" {
		raw, err := os.ReadFile(opts.file)
		if err != nil {
			return fmt.Errorf("read applicant file: %w", err)
		}
		entry, err := parseApplicant(raw)
		if err != nil {
			return err
		}
		record = entry.ApplicantRecord
		if id == "" {
			id = entry.ApplicationID
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	log := root.logger()
	explainer, err := root.explainer(log)
	if err != nil {
		return err
	}

	result, err := explainer.ExplainDecision(cmd.Context(), record)
	if err != nil {
		return fmt.Errorf("explain %s: %w", id, err)
	}

	return emit(cmd.OutOrStdout(), opts.out, id, result)
}

// parseApplicant validates raw applicant JSON against the schema before
// decoding it, so missing fields are reported instead of zero-filled.
func parseApplicant(raw json.RawMessage) (batchEntry, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return batchEntry{}, fmt.Errorf("decode applicant: %w", err)
	}
	if err := validation.ValidateApplicant(doc); err != nil {
		return batchEntry{}, err
	}

	var entry batchEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return batchEntry{}, fmt.Errorf("decode applicant: %w", err)
	}
	return entry, nil
}

// emit writes both reports into dir, or to w when dir is empty.
func emit(w io.Writer, dir, id string, result *decision.DecisionResult) error {
	guidance := decision.GuideResult(result)

	if dir == "" {
		_, err := fmt.Fprint(w, report.Analysis(id, result), "\n", report.Guidance(guidance), "\n")
		return err
	}

	if err := report.WriteFiles(dir, id, result, guidance); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s: %s (%.1f%%) -> %s, %s\n",
		id, result.Outcome(), result.Probability,
		report.AnalysisFileName(id), report.GuidanceFileName(id))
	return err
}
