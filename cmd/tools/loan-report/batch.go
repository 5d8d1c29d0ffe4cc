// cmd/tools/loan-report/batch.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"loan-lens/internal/common/logger"
	"loan-lens/internal/decision"
)

// batchEntry is one element of the batch input array.
type batchEntry struct {
	ApplicationID string `json:"applicationId,omitempty"`
	decision.ApplicantRecord
}

type batchOptions struct {
	input       string
	out         string
	concurrency int
}

type batchOutcome struct {
	id     string
	result *decision.DecisionResult
	err    error
}

func newBatchCmd(root *rootOptions) *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Explain decisions for a file of applicants",
		Long: `Reads a JSON array of applicants and writes two reports per applicant:
Loan_Application_Report_<id>.txt and Loan_Guidance_Report_<id>.txt.

An applicant without "applicationId" gets a generated id. A failing
applicant is reported and the rest of the batch still runs.

Examples:
  loan-report batch --input applicants.json --out ./reports --concurrency 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(opts.input)
			if err != nil {
				return fmt.Errorf("read batch input: %w", err)
			}

			log := root.logger()
			explainer, err := root.explainer(log)
			if err != nil {
				return err
			}

			return runBatch(cmd.Context(), explainer, raw, opts, cmd.OutOrStdout(), cmd.ErrOrStderr(), log)
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "JSON file holding an array of applicants")
	cmd.Flags().StringVar(&opts.out, "out", "", "directory for report files (stdout when empty)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "applicants scored in parallel")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runBatch(ctx context.Context, explainer applicantExplainer, raw []byte, opts *batchOptions, stdout, stderr io.Writer, log logger.Logger) error {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("batch input must be a JSON array: %w", err)
	}

	limit := opts.concurrency
	if limit < 1 {
		limit = 1
	}

	outcomes := make([]batchOutcome, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			outcomes[i] = explainOne(gctx, explainer, item)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, o := range outcomes {
		if o.err != nil {
			failed++
			fmt.Fprintf(stderr, "applicant %d (%s): %v\n", i, o.id, o.err)
			log.Warn("applicant failed", map[string]interface{}{
				"index":         i,
				"applicationId": o.id,
				"error":         o.err.Error(),
			})
			continue
		}
		if err := emit(stdout, opts.out, o.id, o.result); err != nil {
			failed++
			fmt.Fprintf(stderr, "applicant %d (%s): %v\n", i, o.id, err)
		}
	}

	fmt.Fprintf(stderr, "processed %d applicants, %d failed\n", len(items), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d applicants failed", failed, len(items))
	}
	return nil
}

func explainOne(ctx context.Context, explainer applicantExplainer, raw json.RawMessage) batchOutcome {
	var ref struct {
		ApplicationID string `json:"applicationId"`
	}
	_ = json.Unmarshal(raw, &ref)

	id := ref.ApplicationID
	if id == "" {
		id = uuid.NewString()
	}

	entry, err := parseApplicant(raw)
	if err != nil {
		return batchOutcome{id: id, err: err}
	}

	result, err := explainer.ExplainDecision(ctx, entry.ApplicantRecord)
	return batchOutcome{id: id, result: result, err: err}
}
