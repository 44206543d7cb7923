// Package dataset renders and reads the crawler's tabular artifacts.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
)

// Column headers of the persisted artifacts.
var (
	CeremonyHeader = []string{
		"#", "Date", "Best Picture", "U.S. viewers (millions)", "HH Rating",
		"Host(s)", "Producer(s)", "Venue", "Network", "url",
	}
	NominationHeader = []string{"#", "Date", "Category", "Winner", "Movie", "Wikipedia_URL"}
	EnrichedHeader   = append(append([]string(nil), NominationHeader...),
		"Release", "Cost", "Director", "Duration", "IMDB")
)

// WriteCeremonies writes the ceremonies listing as CSV.
func WriteCeremonies(w io.Writer, delim rune, records []oscar.CeremonyRecord) error {
	cw := newWriter(w, delim)
	if err := cw.Write(CeremonyHeader); err != nil {
		return fmt.Errorf("write ceremony header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Label, formatDate(r.Date), r.BestPicture, r.Viewers, r.HHRating,
			r.Hosts, r.Producers, r.Venue, r.Network, r.URL,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write ceremony %s: %w", r.Label, err)
		}
	}
	return flush(cw)
}

// WriteNominations writes nomination records as CSV.
func WriteNominations(w io.Writer, delim rune, records []oscar.NominationRecord) error {
	cw := newWriter(w, delim)
	if err := cw.Write(NominationHeader); err != nil {
		return fmt.Errorf("write nomination header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(nominationCells(r)); err != nil {
			return fmt.Errorf("write nomination %s/%s: %w", r.Label, r.Film, err)
		}
	}
	return flush(cw)
}

// WriteEnriched writes the merged dataset as CSV. Absent values are empty cells.
func WriteEnriched(w io.Writer, delim rune, rows []oscar.EnrichedRow) error {
	cw := newWriter(w, delim)
	if err := cw.Write(EnrichedHeader); err != nil {
		return fmt.Errorf("write enriched header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(enrichedCells(r)); err != nil {
			return fmt.Errorf("write enriched %s/%s: %w", r.Label, r.Film, err)
		}
	}
	return flush(cw)
}

// ReadNominations parses a nominations CSV previously produced by
// WriteNominations. Columns are located by header name.
func ReadNominations(r io.Reader, delim rune) ([]oscar.NominationRecord, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read nomination header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range NominationHeader {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("nominations csv missing column %q", col)
		}
	}

	var out []oscar.NominationRecord
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read nominations line %d: %w", line, err)
		}
		get := func(col string) string {
			i := idx[col]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		label := get("#")
		edition, ok := oscar.ParseOrdinal(label)
		if !ok {
			return nil, fmt.Errorf("nominations line %d: invalid edition %q", line, label)
		}
		date, err := time.Parse(oscar.DateLayout, get("Date"))
		if err != nil {
			return nil, fmt.Errorf("nominations line %d: %w", line, err)
		}
		winner, err := strconv.ParseBool(get("Winner"))
		if err != nil {
			return nil, fmt.Errorf("nominations line %d: invalid winner flag: %w", line, err)
		}
		out = append(out, oscar.NominationRecord{
			Edition:   edition,
			Label:     label,
			Date:      date,
			Category:  get("Category"),
			IsWinner:  winner,
			Film:      get("Movie"),
			SourceURL: get("Wikipedia_URL"),
		})
	}
	return out, nil
}

// FormatCost renders a cost the way the analysis layer expects, always with a
// fractional part ("123456789.0"). Nil renders as an empty cell.
func FormatCost(cost *float64) string {
	if cost == nil {
		return ""
	}
	s := strconv.FormatFloat(*cost, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func nominationCells(r oscar.NominationRecord) []string {
	return []string{
		r.Label, formatDate(r.Date), r.Category, formatBool(r.IsWinner), r.Film, r.SourceURL,
	}
}

func enrichedCells(r oscar.EnrichedRow) []string {
	return append(nominationCells(r.NominationRecord),
		strconv.Itoa(r.Release()),
		FormatCost(r.Cost),
		deref(r.Director),
		deref(r.Runtime),
		deref(r.IMDbID),
	)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(oscar.DateLayout)
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func newWriter(w io.Writer, delim rune) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	return cw
}

func flush(cw *csv.Writer) error {
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
