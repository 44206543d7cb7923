// Package wikipedia scrapes Academy Awards ceremonies and nominations from
// Wikipedia pages.
package wikipedia

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/JakeFAU/oscar-cost-crawler/internal/metrics"
	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
)

const (
	// DefaultDomain is the encyclopedia origin used when none is configured.
	DefaultDomain = "https://en.wikipedia.org"
	// DefaultCeremoniesPath is the path of the ceremonies listing.
	DefaultCeremoniesPath = "/wiki/List_of_Academy_Awards_ceremonies"

	pageKindListing  = "listing"
	pageKindCeremony = "ceremony"
)

var datePattern = regexp.MustCompile(`[A-Z][a-z]+ \d{1,2}, \d{4}`)

// Config locates the source pages.
type Config struct {
	Domain         string
	CeremoniesPath string
}

func (c Config) withDefaults() Config {
	if c.Domain == "" {
		c.Domain = DefaultDomain
	}
	c.Domain = strings.TrimRight(c.Domain, "/")
	if c.CeremoniesPath == "" {
		c.CeremoniesPath = DefaultCeremoniesPath
	}
	return c
}

// CeremonyURL returns the detail page URL for an edition label such as "96th".
func (c Config) CeremonyURL(label string) string {
	return fmt.Sprintf("%s/wiki/%s_Academy_Awards", c.withDefaults().Domain, label)
}

// CeremonyFetcher retrieves and parses the ceremonies listing.
type CeremonyFetcher struct {
	cfg     Config
	fetcher oscar.Fetcher
	logger  *zap.Logger
}

// NewCeremonyFetcher builds a CeremonyFetcher.
func NewCeremonyFetcher(cfg Config, fetcher oscar.Fetcher, logger *zap.Logger) *CeremonyFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &CeremonyFetcher{
		cfg:     cfg.withDefaults(),
		fetcher: fetcher,
		logger:  logger.Named("ceremonies"),
	}
}

// FetchCeremonies downloads the listing and returns one record per ceremony in
// source order. A page without a recognizable table yields no records.
func (f *CeremonyFetcher) FetchCeremonies(ctx context.Context) ([]oscar.CeremonyRecord, error) {
	listingURL := f.cfg.Domain + f.cfg.CeremoniesPath
	body, err := fetchPage(ctx, f.fetcher, listingURL, pageKindListing)
	if err != nil {
		return nil, err
	}

	records, err := f.parseListing(body)
	if errors.Is(err, oscar.ErrNoTable) {
		f.logger.Warn("ceremonies table not found", zap.String("url", listingURL))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f.logger.Info("ceremonies parsed", zap.Int("count", len(records)))
	return records, nil
}

func (f *CeremonyFetcher) parseListing(body []byte) ([]oscar.CeremonyRecord, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	sel := locateCeremoniesTable(root, doc)
	if sel == nil {
		return nil, oscar.ErrNoTable
	}
	tbl := parseTable(sel)

	cols := ceremonyColumns{
		label:       tbl.column(func(h string) bool { return h == "#" }),
		date:        tbl.column(func(h string) bool { return strings.HasPrefix(h, "date") }),
		bestPicture: tbl.column(func(h string) bool { return strings.Contains(h, "best picture") }),
		viewers:     tbl.column(func(h string) bool { return strings.Contains(h, "viewers") }),
		rating:      tbl.column(func(h string) bool { return strings.Contains(h, "rating") }),
		hosts:       tbl.column(func(h string) bool { return strings.HasPrefix(h, "host") }),
		producers:   tbl.column(func(h string) bool { return strings.HasPrefix(h, "producer") }),
		venue:       tbl.column(func(h string) bool { return strings.HasPrefix(h, "venue") }),
		network: tbl.column(func(h string) bool {
			return strings.HasPrefix(h, "network") || strings.HasPrefix(h, "broadcaster")
		}),
	}
	if cols.label < 0 || cols.date < 0 {
		f.logger.Warn("ceremonies table lacks # or Date column", zap.Strings("header", tbl.header))
		return nil, oscar.ErrNoTable
	}

	records := make([]oscar.CeremonyRecord, 0, len(tbl.rows))
	for i := range tbl.rows {
		rec, ok := f.ceremonyFromRow(tbl, i, cols)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

type ceremonyColumns struct {
	label, date, bestPicture, viewers, rating, hosts, producers, venue, network int
}

func (f *CeremonyFetcher) ceremonyFromRow(tbl table, row int, cols ceremonyColumns) (oscar.CeremonyRecord, bool) {
	label := tbl.cell(row, cols.label)
	edition, ok := oscar.ParseOrdinal(label)
	if !ok {
		f.logger.Debug("skipping row without ordinal", zap.String("label", label))
		return oscar.CeremonyRecord{}, false
	}
	date, ok := parseCeremonyDate(tbl.cell(row, cols.date))
	if !ok {
		f.logger.Debug("skipping row with unparsable date",
			zap.String("label", label),
			zap.String("date", tbl.cell(row, cols.date)),
		)
		return oscar.CeremonyRecord{}, false
	}
	return oscar.CeremonyRecord{
		Edition:     edition,
		Label:       label,
		Date:        date,
		BestPicture: tbl.cell(row, cols.bestPicture),
		Viewers:     tbl.cell(row, cols.viewers),
		HHRating:    tbl.cell(row, cols.rating),
		Hosts:       tbl.cell(row, cols.hosts),
		Producers:   tbl.cell(row, cols.producers),
		Venue:       tbl.cell(row, cols.venue),
		Network:     tbl.cell(row, cols.network),
		URL:         f.cfg.CeremonyURL(label),
	}, true
}

// tableLocator finds a candidate table. Locators are tried in order.
type tableLocator struct {
	name   string
	locate func(root *html.Node, doc *goquery.Document) *goquery.Selection
}

var ceremonyLocators = []tableLocator{
	{
		name: "ceremonies-anchor",
		locate: func(root *html.Node, doc *goquery.Document) *goquery.Selection {
			node := htmlquery.QuerySelector(root, ceremoniesTableExpr)
			if node == nil {
				return nil
			}
			return doc.FindNodes(node)
		},
	},
	{
		name: "content-region",
		locate: func(_ *html.Node, doc *goquery.Document) *goquery.Selection {
			// The first table in the content region is the preamble infobox.
			tables := doc.Find("#mw-content-text > div.mw-content-ltr.mw-parser-output table")
			if tables.Length() < 2 {
				return nil
			}
			return tables.Eq(1)
		},
	},
}

func locateCeremoniesTable(root *html.Node, doc *goquery.Document) *goquery.Selection {
	for _, loc := range ceremonyLocators {
		if sel := loc.locate(root, doc); sel != nil && sel.Length() > 0 {
			return sel.First()
		}
	}
	return nil
}

func parseCeremonyDate(raw string) (time.Time, bool) {
	m := datePattern.FindString(raw)
	if m == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(oscar.DateLayout, m)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// fetchPage performs one GET and converts non-2xx responses into a FetchError.
func fetchPage(ctx context.Context, fetcher oscar.Fetcher, url string, kind string) ([]byte, error) {
	resp, err := fetcher.Fetch(ctx, oscar.FetchRequest{URL: url})
	if err != nil {
		status := "error"
		var fetchErr *oscar.FetchError
		if errors.As(err, &fetchErr) && fetchErr.StatusCode != 0 {
			status = strconv.Itoa(fetchErr.StatusCode)
		}
		metrics.ObservePageFetch(kind, status, 0)
		if errors.As(err, &fetchErr) {
			return nil, err
		}
		return nil, &oscar.FetchError{URL: url, Err: err}
	}
	metrics.ObservePageFetch(kind, strconv.Itoa(resp.StatusCode), len(resp.Body))
	if resp.URL == "" {
		resp.URL = url
	}
	if err := oscar.CheckResponse(resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}
