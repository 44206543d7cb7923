package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Runs the full pipeline",
		Long: `Fetches the ceremonies listing, scrapes the nominations of the most recent
ceremonies, enriches every unique film through OMDb, and persists the three
datasets.`,
		Args: cobra.NoArgs,
		RunE: runPipelineCommand,
	}
}

func runPipelineCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	// Fail before scraping when enrichment cannot happen.
	if err := appInstance.RequireEnricher(); err != nil {
		return err
	}

	summary, err := appInstance.Runner().Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}
	appInstance.Logger().Info("pipeline finished",
		zap.String("run_id", summary.RunID),
		zap.Int("nominations", summary.Nominations),
		zap.Int("enriched", summary.Enriched),
	)
	return printSummary(cmd.OutOrStdout(), summary)
}
