package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/oscar-cost-crawler/internal/config"
	"github.com/JakeFAU/oscar-cost-crawler/internal/dataset"
)

func newEnrichCmd() *cobra.Command {
	var (
		input     string
		delimiter string
	)
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enriches a previously scraped nominations CSV",
		Long: `Reads a winners_base.csv written by "scrape" or "run" and repeats only the
OMDb enrichment and the enriched dataset output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := appInstance.RequireEnricher(); err != nil {
				return err
			}
			if delimiter == "" {
				delimiter = appInstance.Config().Output.NominationsDelimiter
			}
			if len([]rune(delimiter)) != 1 || !config.ValidDelimiter([]rune(delimiter)[0]) {
				return fmt.Errorf("--delimiter must be a single character, got %q", delimiter)
			}

			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("open nominations: %w", err)
			}
			defer func() { _ = f.Close() }()
			noms, err := dataset.ReadNominations(f, config.Delimiter(delimiter))
			if err != nil {
				return fmt.Errorf("read %s: %w", input, err)
			}
			appInstance.Logger().Info("nominations loaded", zap.String("input", input), zap.Int("count", len(noms)))

			summary, err := appInstance.Runner().EnrichNominations(cmd.Context(), noms)
			if err != nil {
				return fmt.Errorf("enrich nominations: %w", err)
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVar(&input, "input", "winners_base.csv", "nominations CSV to enrich")
	cmd.Flags().StringVar(&delimiter, "delimiter", "", "field delimiter of --input (defaults to output.nominations_delimiter)")
	return cmd
}
