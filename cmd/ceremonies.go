package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCeremoniesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ceremonies",
		Short: "Fetches the ceremonies listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := appInstance.Runner().CollectCeremonies(cmd.Context())
			if err != nil {
				return fmt.Errorf("collect ceremonies: %w", err)
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}
}
