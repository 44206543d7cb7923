package omdb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/JakeFAU/oscar-cost-crawler/internal/metrics"
	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
)

// Config controls the enrichment engine.
type Config struct {
	BaseURL string
	Keys    []string
	// MaxConcurrency bounds in-flight lookups; <= 0 means one task per key at once.
	MaxConcurrency int
	// RequestsPerSecond throttles lookups across all keys; 0 disables throttling.
	RequestsPerSecond float64
	Timeout           time.Duration
	UserAgent         string
}

// Enricher resolves FilmKeys concurrently, rotating credentials per request.
type Enricher struct {
	cfg     Config
	ring    *KeyRing
	client  *Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewEnricher builds an Enricher. It fails with oscar.ErrNoAPIKeys when no
// credentials are configured.
func NewEnricher(cfg Config, logger *zap.Logger) (*Enricher, error) {
	ring, err := NewKeyRing(cfg.Keys)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(math.Ceil(cfg.RequestsPerSecond))
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	logger = logger.Named("omdb")
	logger.Info("omdb enricher configured",
		zap.Int("api_keys", ring.Len()),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Float64("requests_per_second", cfg.RequestsPerSecond),
	)

	return &Enricher{
		cfg:     cfg,
		ring:    ring,
		client:  NewClient(cfg.BaseURL, cfg.Timeout, cfg.UserAgent),
		limiter: limiter,
		logger:  logger,
	}, nil
}

// Enrich performs one lookup per key and returns the successful results in
// completion order. Failed lookups are logged and omitted. The only error is
// cancellation of ctx.
func (e *Enricher) Enrich(ctx context.Context, keys []oscar.FilmKey) ([]oscar.EnrichmentRecord, error) {
	e.ring.Reset()
	start := time.Now()

	var (
		mu      sync.Mutex
		records = make([]oscar.EnrichmentRecord, 0, len(keys))
	)

	g, gctx := errgroup.WithContext(ctx)
	if e.cfg.MaxConcurrency > 0 {
		g.SetLimit(e.cfg.MaxConcurrency)
	}

	for _, key := range keys {
		key := key
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if e.limiter != nil {
				if err := e.limiter.Wait(gctx); err != nil {
					return fmt.Errorf("rate limiter: %w", err)
				}
			}
			rec, ok := e.lookup(gctx, key)
			if !ok {
				return nil // soft failure; keep the batch going
			}
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enrich canceled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("enrich canceled: %w", err)
	}

	e.logger.Info("enrichment finished",
		zap.Int("requested", len(keys)),
		zap.Int("resolved", len(records)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return records, nil
}

func (e *Enricher) lookup(ctx context.Context, key oscar.FilmKey) (oscar.EnrichmentRecord, bool) {
	idx, apiKey := e.ring.Next()
	metrics.ObserveKeyUse(idx)

	rec, err := e.client.Lookup(ctx, apiKey, key)
	if err == nil {
		metrics.ObserveLookup(metrics.LookupSuccess)
		return rec, true
	}

	var lookupErr *LookupError
	if errors.As(err, &lookupErr) && lookupErr.NotFound() {
		metrics.ObserveLookup(metrics.LookupEmpty)
		e.logger.Warn("omdb has no match",
			zap.String("title", key.Film),
			zap.Int("year", key.Release),
			zap.String("reason", lookupErr.Reason),
		)
		return oscar.EnrichmentRecord{}, false
	}

	metrics.ObserveLookup(metrics.LookupFailure)
	fields := []zap.Field{
		zap.String("title", key.Film),
		zap.Int("year", key.Release),
		zap.Int("key_index", idx),
		zap.Error(err),
	}
	if lookupErr != nil {
		fields = append(fields, zap.Int("status", lookupErr.StatusCode))
	}
	e.logger.Warn("omdb lookup failed", fields...)
	return oscar.EnrichmentRecord{}, false
}
