// Package pipeline runs the ceremony, nomination, and enrichment stages and
// persists their artifacts.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/oscar-cost-crawler/internal/dataset"
	"github.com/JakeFAU/oscar-cost-crawler/internal/metrics"
	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	stageCeremonies  = "ceremonies"
	stageNominations = "nominations"
	stageEnrichment  = "enrichment"
	stagePersist     = "persist"
)

// Commands recorded in the run summary.
const (
	CommandRun        = "run"
	CommandCeremonies = "ceremonies"
	CommandScrape     = "scrape"
	CommandEnrich     = "enrich"
)

// ErrNoEnricher is returned by the enrichment stage when no Enricher was wired.
var ErrNoEnricher = errors.New("enricher not configured")

// Config controls Pipeline behavior.
type Config struct {
	// RecentCeremonies keeps only the newest N ceremonies; 0 keeps all.
	RecentCeremonies     int
	SkipFailedCeremonies bool

	CeremoniesFile       string
	NominationsFile      string
	EnrichedFile         string
	CeremoniesDelimiter  rune
	NominationsDelimiter rune
	EnrichedDelimiter    rune
	XLSX                 bool

	Topic string
}

func (c Config) withDefaults() Config {
	if c.CeremoniesFile == "" {
		c.CeremoniesFile = "ceremony_base.csv"
	}
	if c.NominationsFile == "" {
		c.NominationsFile = "winners_base.csv"
	}
	if c.EnrichedFile == "" {
		c.EnrichedFile = "oscar_winners_enriched.csv"
	}
	if c.CeremoniesDelimiter == 0 {
		c.CeremoniesDelimiter = ','
	}
	if c.NominationsDelimiter == 0 {
		c.NominationsDelimiter = ','
	}
	if c.EnrichedDelimiter == 0 {
		c.EnrichedDelimiter = ';'
	}
	return c
}

// XLSXFile is the workbook name written next to the enriched CSV.
func (c Config) XLSXFile() string {
	return strings.TrimSuffix(c.EnrichedFile, filepath.Ext(c.EnrichedFile)) + ".xlsx"
}

// Artifact describes one persisted file.
type Artifact struct {
	Name   string `json:"name"`
	URI    string `json:"uri"`
	SHA256 string `json:"sha256"`
	Rows   int    `json:"rows"`
	Bytes  int    `json:"bytes"`
}

// Summary reports what a run produced. It doubles as the notification payload.
type Summary struct {
	RunID            string     `json:"run_id"`
	Command          string     `json:"command"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       time.Time  `json:"finished_at"`
	Ceremonies       int        `json:"ceremonies"`
	FailedCeremonies []string   `json:"failed_ceremonies,omitempty"`
	Nominations      int        `json:"nominations"`
	UniqueFilms      int        `json:"unique_films"`
	Enriched         int        `json:"enriched"`
	Artifacts        []Artifact `json:"artifacts"`
}

// Pipeline wires the scraping and enrichment components to the output stores.
type Pipeline struct {
	ceremonies  oscar.CeremonySource
	nominations oscar.NominationSource
	enricher    oscar.Enricher
	store       oscar.BlobStore
	sinks       []oscar.DatasetSink
	publisher   oscar.Publisher
	hasher      oscar.Hasher
	clock       oscar.Clock
	ids         oscar.IDGenerator
	cfg         Config
	logger      *zap.Logger
}

// New constructs a Pipeline. enricher, sinks, and publisher may be nil.
func New(
	ceremonies oscar.CeremonySource,
	nominations oscar.NominationSource,
	enricher oscar.Enricher,
	store oscar.BlobStore,
	sinks []oscar.DatasetSink,
	publisher oscar.Publisher,
	hasher oscar.Hasher,
	clock oscar.Clock,
	ids oscar.IDGenerator,
	cfg Config,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Pipeline{
		ceremonies:  ceremonies,
		nominations: nominations,
		enricher:    enricher,
		store:       store,
		sinks:       sinks,
		publisher:   publisher,
		hasher:      hasher,
		clock:       clock,
		ids:         ids,
		cfg:         cfg.withDefaults(),
		logger:      logger.Named("pipeline"),
	}
}

// Run executes every stage: fetch, scrape, dedupe, enrich, merge, persist.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	run, err := p.begin(CommandRun)
	if err != nil {
		return run, err
	}
	ceremonies, err := p.collectCeremonies(ctx, &run)
	if err != nil {
		return run, err
	}
	noms, err := p.collectNominations(ctx, &run, ceremonies)
	if err != nil {
		return run, err
	}
	if err := p.enrich(ctx, &run, noms); err != nil {
		return run, err
	}
	return p.finish(ctx, run)
}

// CollectCeremonies fetches the listing and persists the ceremonies artifact.
func (p *Pipeline) CollectCeremonies(ctx context.Context) (Summary, error) {
	run, err := p.begin(CommandCeremonies)
	if err != nil {
		return run, err
	}
	if _, err := p.collectCeremonies(ctx, &run); err != nil {
		return run, err
	}
	return p.finish(ctx, run)
}

// CollectNominations fetches the listing, scrapes the selected ceremonies, and
// persists both artifacts.
func (p *Pipeline) CollectNominations(ctx context.Context) (Summary, error) {
	run, err := p.begin(CommandScrape)
	if err != nil {
		return run, err
	}
	ceremonies, err := p.collectCeremonies(ctx, &run)
	if err != nil {
		return run, err
	}
	if _, err := p.collectNominations(ctx, &run, ceremonies); err != nil {
		return run, err
	}
	return p.finish(ctx, run)
}

// EnrichNominations enriches previously scraped nominations and persists the
// merged dataset.
func (p *Pipeline) EnrichNominations(ctx context.Context, noms []oscar.NominationRecord) (Summary, error) {
	run, err := p.begin(CommandEnrich)
	if err != nil {
		return run, err
	}
	run.Nominations = len(noms)
	if err := p.enrich(ctx, &run, noms); err != nil {
		return run, err
	}
	return p.finish(ctx, run)
}

func (p *Pipeline) begin(command string) (Summary, error) {
	runID, err := p.ids.NewID()
	if err != nil {
		return Summary{}, fmt.Errorf("generate run id: %w", err)
	}
	run := Summary{RunID: runID, Command: command, StartedAt: p.clock.Now()}
	p.logger.Info("run started", zap.String("run_id", runID), zap.String("command", command))
	return run, nil
}

func (p *Pipeline) collectCeremonies(ctx context.Context, run *Summary) ([]oscar.CeremonyRecord, error) {
	start := time.Now()
	defer func() { metrics.ObserveStage(stageCeremonies, time.Since(start)) }()

	all, err := p.ceremonies.FetchCeremonies(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch ceremonies: %w", err)
	}
	selected := SelectRecent(all, p.cfg.RecentCeremonies)
	run.Ceremonies = len(selected)
	p.logger.Info("ceremonies selected",
		zap.String("run_id", run.RunID),
		zap.Int("listed", len(all)),
		zap.Int("selected", len(selected)),
	)

	err = p.persist(ctx, run, p.cfg.CeremoniesFile, csvContentType, len(selected), func(w io.Writer) error {
		return dataset.WriteCeremonies(w, p.cfg.CeremoniesDelimiter, selected)
	})
	if err != nil {
		return nil, err
	}
	return selected, nil
}

func (p *Pipeline) collectNominations(
	ctx context.Context,
	run *Summary,
	ceremonies []oscar.CeremonyRecord,
) ([]oscar.NominationRecord, error) {
	start := time.Now()
	defer func() { metrics.ObserveStage(stageNominations, time.Since(start)) }()

	var noms []oscar.NominationRecord
	for _, c := range ceremonies {
		records, err := p.nominations.ScrapeCeremony(ctx, c)
		if err != nil {
			var fetchErr *oscar.FetchError
			if !p.cfg.SkipFailedCeremonies || ctx.Err() != nil || !errors.As(err, &fetchErr) {
				return nil, fmt.Errorf("scrape %s ceremony: %w", c.Label, err)
			}
			p.logger.Warn("skipping ceremony",
				zap.String("run_id", run.RunID),
				zap.String("ceremony", c.Label),
				zap.Error(err),
			)
			run.FailedCeremonies = append(run.FailedCeremonies, c.Label)
			continue
		}
		noms = append(noms, records...)
	}
	run.Nominations = len(noms)
	p.logger.Info("nominations scraped",
		zap.String("run_id", run.RunID),
		zap.Int("nominations", len(noms)),
		zap.Int("failed_ceremonies", len(run.FailedCeremonies)),
	)

	err := p.persist(ctx, run, p.cfg.NominationsFile, csvContentType, len(noms), func(w io.Writer) error {
		return dataset.WriteNominations(w, p.cfg.NominationsDelimiter, noms)
	})
	if err != nil {
		return nil, err
	}
	return noms, nil
}

func (p *Pipeline) enrich(ctx context.Context, run *Summary, noms []oscar.NominationRecord) error {
	if p.enricher == nil {
		return ErrNoEnricher
	}

	start := time.Now()
	keys := UniqueFilms(noms)
	run.UniqueFilms = len(keys)
	p.logger.Info("unique movies", zap.String("run_id", run.RunID), zap.Int("count", len(keys)))

	records, err := p.enricher.Enrich(ctx, keys)
	metrics.ObserveStage(stageEnrichment, time.Since(start))
	if err != nil {
		return fmt.Errorf("enrich films: %w", err)
	}
	run.Enriched = len(records)
	rows := Merge(noms, records)
	p.logger.Info("films enriched",
		zap.String("run_id", run.RunID),
		zap.Int("resolved", len(records)),
		zap.Int("unresolved", len(keys)-len(records)),
	)

	start = time.Now()
	defer func() { metrics.ObserveStage(stagePersist, time.Since(start)) }()

	err = p.persist(ctx, run, p.cfg.EnrichedFile, csvContentType, len(rows), func(w io.Writer) error {
		return dataset.WriteEnriched(w, p.cfg.EnrichedDelimiter, rows)
	})
	if err != nil {
		return err
	}
	if p.cfg.XLSX {
		err = p.persist(ctx, run, p.cfg.XLSXFile(), xlsxContentType, len(rows), func(w io.Writer) error {
			return dataset.WriteEnrichedXLSX(w, rows)
		})
		if err != nil {
			return err
		}
	}
	for _, sink := range p.sinks {
		if err := sink.StoreRows(ctx, run.RunID, rows); err != nil {
			return fmt.Errorf("mirror enriched rows: %w", err)
		}
	}
	return nil
}

// persist renders an artifact into memory, hashes it, and writes it to the blob store.
func (p *Pipeline) persist(
	ctx context.Context,
	run *Summary,
	name string,
	contentType string,
	rows int,
	render func(io.Writer) error,
) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	hash, err := p.hasher.Hash(buf.Bytes())
	if err != nil {
		return fmt.Errorf("hash %s: %w", name, err)
	}
	size := buf.Len()
	uri, err := p.store.PutObject(ctx, name, contentType, &buf)
	if err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	metrics.ObserveRecords(name, rows)
	run.Artifacts = append(run.Artifacts, Artifact{Name: name, URI: uri, SHA256: hash, Rows: rows, Bytes: size})
	p.logger.Info("artifact written",
		zap.String("run_id", run.RunID),
		zap.String("uri", uri),
		zap.String("hash", hash),
		zap.Int("rows", rows),
	)
	return nil
}

func (p *Pipeline) finish(ctx context.Context, run Summary) (Summary, error) {
	run.FinishedAt = p.clock.Now()
	p.logger.Info("run finished",
		zap.String("run_id", run.RunID),
		zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
		zap.Int("artifacts", len(run.Artifacts)),
	)
	if p.cfg.Topic == "" || p.publisher == nil {
		return run, nil
	}
	msgID, err := p.publisher.Publish(ctx, p.cfg.Topic, run)
	if err != nil {
		return run, fmt.Errorf("publish run summary: %w", err)
	}
	p.logger.Info("run published", zap.String("run_id", run.RunID), zap.String("message_id", msgID))
	return run, nil
}
