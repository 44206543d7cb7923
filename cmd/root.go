package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/oscar-cost-crawler/internal/app"
	"github.com/JakeFAU/oscar-cost-crawler/internal/config"
	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
	"github.com/JakeFAU/oscar-cost-crawler/internal/pipeline"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// Runner is the part of the pipeline the commands drive.
type Runner interface {
	Run(ctx context.Context) (pipeline.Summary, error)
	CollectCeremonies(ctx context.Context) (pipeline.Summary, error)
	CollectNominations(ctx context.Context) (pipeline.Summary, error)
	EnrichNominations(ctx context.Context, noms []oscar.NominationRecord) (pipeline.Summary, error)
}

// App defines what commands need from the service container. Tests inject a fake.
type App interface {
	Config() config.Config
	Logger() *zap.Logger
	RequireEnricher() error
	Runner() Runner
	Close(ctx context.Context) error
}

type containerApp struct {
	*app.App
	cfg config.Config
}

func (c containerApp) Config() config.Config { return c.cfg }

func (c containerApp) Runner() Runner { return c.Pipeline() }

// newApp is the application factory. It is a variable so tests can replace it.
var newApp = func(ctx context.Context, cfgPath string) (App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	a, err := app.Build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return containerApp{App: a, cfg: cfg}, nil
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "oscar-crawler",
		Short: "Builds the Academy Awards cost dataset.",
		Long: `oscar-crawler scrapes the ceremonies and nominations of the Academy Awards
from Wikipedia, enriches every nominated film through the OMDb API, and writes
the resulting CSV datasets to the configured artifact store.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				if err := appInstance.Close(context.Background()); err != nil {
					appInstance.Logger().Warn("shutdown failed", zap.Error(err))
				}
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); env vars prefixed OSCAR_ override it")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newCeremoniesCmd())
	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newEnrichCmd())
	return cmd
}

// Execute is the main entry point. SIGINT and SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

func printSummary(w io.Writer, summary pipeline.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("print summary: %w", err)
	}
	return nil
}
