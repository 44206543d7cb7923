package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Fetches ceremonies and scrapes their nominations without enrichment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := appInstance.Runner().CollectNominations(cmd.Context())
			if err != nil {
				return fmt.Errorf("collect nominations: %w", err)
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}
}
