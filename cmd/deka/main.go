package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ndrpnt/deka/internal/app"
	"github.com/ndrpnt/deka/internal/config"
	"github.com/ndrpnt/deka/internal/infra/logging"
	"github.com/ndrpnt/deka/internal/infra/shutdown"
)

func main() {
	// Start listening for signals immediately as first thing, before any other initialization
	signals := shutdown.Notify()

	cmd := newDekaCommand(signals)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newDekaCommand(signals <-chan os.Signal) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "deka",
		Short:        "Apply Kubernetes manifests the dumb way.",
		SilenceUsage: true,
	}

	cmd.AddCommand(newApplyCommand(signals))

	return cmd
}

func newApplyCommand(signals <-chan os.Signal) *cobra.Command {
	cfg, loadErr := config.Load()
	if loadErr != nil {
		cfg = &config.Config{}
	}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Server-side apply manifests",
		Long: "Apply every object from a multi-document manifest in no particular order.\n" +
			"Objects whose dependencies are not ready yet are retried with backoff until\n" +
			"they converge or the timeout elapses.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if loadErr != nil {
				return fmt.Errorf("load config: %w", loadErr)
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("validate config: %w", err)
			}

			logger := logging.New(cfg.LogFormat, cfg.LogLevel)

			application, err := app.New(logger, cfg)
			if err != nil {
				return fmt.Errorf("new application: %w", err)
			}

			report, err := application.Run(cmd.Context(), signals)
			if err != nil {
				return err
			}

			if !report.Success {
				return fmt.Errorf("%d of %d object(s) failed", report.Failed, len(report.Results))
			}

			return nil
		},
	}

	cfg.AddFlags(cmd.Flags())

	return cmd
}
