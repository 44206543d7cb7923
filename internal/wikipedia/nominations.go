package wikipedia

import (
	"bytes"
	"context"
	"fmt"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/oscar-cost-crawler/internal/metrics"
	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
)

// NominationScraper turns ceremony detail pages into nomination records.
type NominationScraper struct {
	fetcher oscar.Fetcher
	logger  *zap.Logger
}

// NewNominationScraper builds a NominationScraper.
func NewNominationScraper(fetcher oscar.Fetcher, logger *zap.Logger) *NominationScraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &NominationScraper{
		fetcher: fetcher,
		logger:  logger.Named("nominations"),
	}
}

// ScrapeCeremony fetches one ceremony page and extracts its nominations. The
// winner of each category comes first, followed by its nominees in page order.
func (s *NominationScraper) ScrapeCeremony(ctx context.Context, ceremony oscar.CeremonyRecord) ([]oscar.NominationRecord, error) {
	body, err := fetchPage(ctx, s.fetcher, ceremony.URL, pageKindCeremony)
	if err != nil {
		return nil, err
	}
	root, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse ceremony %s: %w", ceremony.Label, err)
	}

	tbl := htmlquery.QuerySelector(root, nominationsTableExpr)
	if tbl == nil {
		s.logger.Warn("winners table not found",
			zap.String("ceremony", ceremony.Label),
			zap.String("url", ceremony.URL),
		)
		return nil, nil
	}

	var out []oscar.NominationRecord
	for _, cell := range htmlquery.QuerySelectorAll(tbl, categoryCellExpr) {
		winners := firstMatch(cell, winnerMatchers)
		if len(winners) == 0 {
			continue
		}
		labels := firstMatch(cell, categoryMatchers)
		if len(labels) == 0 {
			continue
		}
		category := nodeText(labels[len(labels)-1])
		if category == "" {
			continue
		}
		winner := nodeText(winners[0])
		if winner == "" {
			continue
		}

		out = append(out, nomination(ceremony, category, winner, true))
		for _, n := range htmlquery.QuerySelectorAll(cell, nomineeExpr) {
			if title := nodeText(n); title != "" {
				out = append(out, nomination(ceremony, category, title, false))
			}
		}
	}

	s.logger.Debug("ceremony scraped",
		zap.String("ceremony", ceremony.Label),
		zap.Int("nominations", len(out)),
	)
	return out, nil
}

// ScrapeAll scrapes each ceremony in order and concatenates the results. The
// first fetch failure aborts the batch.
func (s *NominationScraper) ScrapeAll(ctx context.Context, ceremonies []oscar.CeremonyRecord) ([]oscar.NominationRecord, error) {
	var out []oscar.NominationRecord
	for _, c := range ceremonies {
		recs, err := s.ScrapeCeremony(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func nomination(c oscar.CeremonyRecord, category, film string, winner bool) oscar.NominationRecord {
	return oscar.NominationRecord{
		Edition:   c.Edition,
		Label:     c.Label,
		Date:      c.Date,
		Category:  category,
		IsWinner:  winner,
		Film:      film,
		SourceURL: c.URL,
	}
}
