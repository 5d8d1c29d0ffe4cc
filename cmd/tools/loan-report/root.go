// cmd/tools/loan-report/root.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"loan-lens/internal/common/config"
	"loan-lens/internal/common/logger"
	"loan-lens/internal/decision"
	"loan-lens/internal/model"
)

// applicantExplainer is satisfied by *decision.Explainer.
type applicantExplainer interface {
	ExplainDecision(ctx context.Context, record decision.ApplicantRecord) (*decision.DecisionResult, error)
}

type rootOptions struct {
	configFile string
	modelURL   string
	timeout    time.Duration
	verbose    bool

	// overridden in tests
	newExplainer func(opts *rootOptions, log logger.Logger) (applicantExplainer, error)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{newExplainer: modelExplainer}

	cmd := &cobra.Command{
		Use:   "loan-report",
		Short: "Explain loan decisions and write applicant reports",
		Long: `loan-report scores applicants against the model server and writes the
analysis report and the guidance report for each one.

The model server address comes from --model-url, or from model.base_url in
the service configuration when the flag is not set.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is ./configs/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.modelURL, "model-url", "", "model server base URL")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "model request timeout")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(newExplainCmd(opts), newBatchCmd(opts))
	return cmd
}

func (o *rootOptions) logger() logger.Logger {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	return logger.NewStructured(level, "console", "stderr")
}

func (o *rootOptions) explainer(log logger.Logger) (applicantExplainer, error) {
	return o.newExplainer(o, log)
}

func modelExplainer(opts *rootOptions, log logger.Logger) (applicantExplainer, error) {
	baseURL, timeout, err := opts.resolveModel()
	if err != nil {
		return nil, err
	}

	client := model.NewClient(baseURL, timeout, log)
	return decision.NewExplainer(client, client, client, log), nil
}

func (o *rootOptions) resolveModel() (string, time.Duration, error) {
	if o.modelURL != "" {
		return o.modelURL, o.timeout, nil
	}

	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFromFile(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return "", 0, fmt.Errorf("no --model-url given and config could not be loaded: %w", err)
	}

	timeout := o.timeout
	if cfg.Model.Timeout > 0 {
		timeout = config.GetDuration(cfg.Model.Timeout)
	}
	return cfg.Model.BaseURL, timeout, nil
}
