// Package app initializes and holds long-lived services, acting as the
// dependency injection container for the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/oscar-cost-crawler/internal/clock"
	"github.com/JakeFAU/oscar-cost-crawler/internal/config"
	collyfetcher "github.com/JakeFAU/oscar-cost-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/oscar-cost-crawler/internal/hash/sha256"
	"github.com/JakeFAU/oscar-cost-crawler/internal/id/uuid"
	"github.com/JakeFAU/oscar-cost-crawler/internal/logging"
	"github.com/JakeFAU/oscar-cost-crawler/internal/omdb"
	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
	"github.com/JakeFAU/oscar-cost-crawler/internal/pipeline"
	"github.com/JakeFAU/oscar-cost-crawler/internal/policy/ratelimit"
	gcppublisher "github.com/JakeFAU/oscar-cost-crawler/internal/publisher/pubsub"
	"github.com/JakeFAU/oscar-cost-crawler/internal/server"
	gcsstorage "github.com/JakeFAU/oscar-cost-crawler/internal/storage/gcs"
	localstorage "github.com/JakeFAU/oscar-cost-crawler/internal/storage/local"
	memorystorage "github.com/JakeFAU/oscar-cost-crawler/internal/storage/memory"
	pgstore "github.com/JakeFAU/oscar-cost-crawler/internal/storage/postgres"
	sqlitestore "github.com/JakeFAU/oscar-cost-crawler/internal/storage/sqlite"
	"github.com/JakeFAU/oscar-cost-crawler/internal/wikipedia"
)

// App holds the services shared by every command.
type App struct {
	cfg         config.Config
	logger      *zap.Logger
	ceremonies  *wikipedia.CeremonyFetcher
	nominations *wikipedia.NominationScraper
	enricher    oscar.Enricher
	store       oscar.BlobStore
	sinks       []oscar.DatasetSink
	publisher   oscar.Publisher
	ops         *server.Server
	closers     []func() error
}

// Build creates the logger from cfg and then every other service.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return New(ctx, cfg, logger)
}

// New builds the services described by cfg. Missing OMDb keys are not an
// error here; commands that enrich call RequireEnricher.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}
	a.logger.Info("building application dependencies",
		zap.String("storage", cfg.Storage.Provider),
		zap.String("wikipedia", cfg.Wikipedia.Domain),
	)

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.HTTP.UserAgent,
		RespectRobots: cfg.HTTP.RespectRobots,
		Timeout:       cfg.HTTP.Timeout(),
		MaxBodySize:   cfg.HTTP.MaxBodyBytes,
	})
	var pages oscar.Fetcher = fetcher
	if rps := cfg.HTTP.RequestsPerSecond; rps > 0 {
		pages = ratelimit.Wrap(fetcher, ratelimit.New(ratelimit.Config{DefaultRPS: rps}))
		a.logger.Info("page fetches rate limited", zap.Float64("rps", rps))
	}
	wikiCfg := wikipedia.Config{Domain: cfg.Wikipedia.Domain, CeremoniesPath: cfg.Wikipedia.CeremoniesPath}
	a.ceremonies = wikipedia.NewCeremonyFetcher(wikiCfg, pages, logger)
	a.nominations = wikipedia.NewNominationScraper(pages, logger)

	if err := a.setupEnricher(); err != nil {
		return nil, err
	}
	steps := []func(context.Context) error{a.setupStorage, a.setupSinks, a.setupPublisher, a.setupOps}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			if cerr := a.Close(ctx); cerr != nil {
				a.logger.Warn("cleanup after failed build", zap.Error(cerr))
			}
			return nil, err
		}
	}
	if a.ops != nil {
		a.ops.SetReady(true)
	}
	return a, nil
}

func (a *App) setupEnricher() error {
	enricher, err := omdb.NewEnricher(omdb.Config{
		BaseURL:           a.cfg.OMDb.BaseURL,
		Keys:              a.cfg.OMDb.APIKeyList(),
		MaxConcurrency:    a.cfg.OMDb.MaxConcurrency,
		RequestsPerSecond: a.cfg.OMDb.RequestsPerSecond,
		Timeout:           a.cfg.OMDb.Timeout(),
		UserAgent:         a.cfg.HTTP.UserAgent,
	}, a.logger)
	switch {
	case errors.Is(err, oscar.ErrNoAPIKeys):
		a.logger.Warn("no OMDb API keys configured, enrichment disabled")
		return nil
	case err != nil:
		return fmt.Errorf("init enricher: %w", err)
	}
	a.enricher = enricher
	return nil
}

func (a *App) setupStorage(ctx context.Context) error {
	switch a.cfg.Storage.Provider {
	case "local":
		store, err := localstorage.New(localstorage.Config{BaseDir: a.cfg.Storage.LocalDir, Prefix: a.cfg.Storage.Prefix})
		if err != nil {
			return fmt.Errorf("init local storage: %w", err)
		}
		a.logger.Info("using local storage", zap.String("dir", a.cfg.Storage.LocalDir))
		a.store = store
	case "gcs":
		store, err := gcsstorage.Dial(ctx, gcsstorage.Config{Bucket: a.cfg.Storage.GCSBucket, Prefix: a.cfg.Storage.Prefix})
		if err != nil {
			return fmt.Errorf("init gcs storage: %w", err)
		}
		a.logger.Info("using GCS storage", zap.String("bucket", a.cfg.Storage.GCSBucket))
		a.store = store
		a.closers = append(a.closers, store.Close)
	case "memory":
		a.logger.Info("using in-memory storage, artifacts will be discarded")
		a.store = memorystorage.NewBlobStore()
	default:
		return fmt.Errorf("unknown storage provider %q", a.cfg.Storage.Provider)
	}
	return nil
}

func (a *App) setupSinks(ctx context.Context) error {
	if dsn := a.cfg.Sink.Postgres.DSN; dsn != "" {
		store, err := pgstore.NewDatasetStore(ctx, pgstore.Config{
			DSN:      dsn,
			Table:    a.cfg.Sink.Postgres.Table,
			MaxConns: a.cfg.Sink.Postgres.MaxConns,
		})
		if err != nil {
			return fmt.Errorf("init postgres sink: %w", err)
		}
		a.sinks = append(a.sinks, store)
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("prepare postgres sink: %w", err)
		}
		a.logger.Info("mirroring dataset to postgres", zap.String("table", a.cfg.Sink.Postgres.Table))
	}
	if path := a.cfg.Sink.SQLite.Path; path != "" {
		store, err := sqlitestore.Open(ctx, path)
		if err != nil {
			return fmt.Errorf("init sqlite sink: %w", err)
		}
		a.sinks = append(a.sinks, store)
		a.logger.Info("mirroring dataset to sqlite", zap.String("path", path))
	}
	return nil
}

func (a *App) setupPublisher(ctx context.Context) error {
	if a.cfg.PubSub.TopicName == "" {
		return nil
	}
	pub, err := gcppublisher.Dial(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return fmt.Errorf("init pubsub publisher: %w", err)
	}
	a.logger.Info("publishing run summaries", zap.String("topic", a.cfg.PubSub.TopicName))
	a.publisher = pub
	a.closers = append(a.closers, pub.Close)
	return nil
}

func (a *App) setupOps(context.Context) error {
	if a.cfg.Metrics.Addr == "" {
		return nil
	}
	a.ops = server.New(a.logger)
	if _, err := a.ops.Start(a.cfg.Metrics.Addr); err != nil {
		a.ops = nil
		return fmt.Errorf("start ops server: %w", err)
	}
	return nil
}

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Store returns the artifact store.
func (a *App) Store() oscar.BlobStore {
	return a.store
}

// RequireEnricher fails with oscar.ErrNoAPIKeys when enrichment is disabled.
func (a *App) RequireEnricher() error {
	if a.enricher == nil {
		return fmt.Errorf("set OMDB_API_KEY or omdb.api_keys: %w", oscar.ErrNoAPIKeys)
	}
	return nil
}

// Pipeline assembles an orchestrator over the shared services.
func (a *App) Pipeline() *pipeline.Pipeline {
	out := a.cfg.Output
	return pipeline.New(
		a.ceremonies,
		a.nominations,
		a.enricher,
		a.store,
		a.sinks,
		a.publisher,
		sha256.New(),
		clock.NewSystem(),
		uuid.New(),
		pipeline.Config{
			RecentCeremonies:     a.cfg.Pipeline.RecentCeremonies,
			SkipFailedCeremonies: a.cfg.Pipeline.SkipFailedCeremonies,
			CeremoniesFile:       out.CeremoniesFile,
			NominationsFile:      out.NominationsFile,
			EnrichedFile:         out.EnrichedFile,
			CeremoniesDelimiter:  config.Delimiter(out.CeremoniesDelimiter),
			NominationsDelimiter: config.Delimiter(out.NominationsDelimiter),
			EnrichedDelimiter:    config.Delimiter(out.EnrichedDelimiter),
			XLSX:                 out.XLSX,
			Topic:                a.cfg.PubSub.TopicName,
		},
		a.logger,
	)
}

// Close shuts down every service in the container.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.ops != nil {
		a.ops.SetReady(false)
		if err := a.ops.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		a.ops = nil
	}
	for _, sink := range a.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sink: %w", err))
		}
	}
	a.sinks = nil
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	// Sync fails on terminals; the result is not actionable.
	_ = a.logger.Sync()
	return errors.Join(errs...)
}
