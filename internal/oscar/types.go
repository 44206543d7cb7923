// Package oscar defines the records and contracts shared by the scraper,
// the enrichment engine, and the pipeline.
package oscar

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"
)

// DateLayout is how ceremony dates appear in the source listing and in the CSV artifacts.
const DateLayout = "January 2, 2006"

// CeremonyRecord is one row of the ceremonies listing.
type CeremonyRecord struct {
	Edition     int       `json:"edition"`
	Label       string    `json:"label"`
	Date        time.Time `json:"date"`
	BestPicture string    `json:"best_picture"`
	Viewers     string    `json:"viewers"`
	HHRating    string    `json:"hh_rating"`
	Hosts       string    `json:"hosts"`
	Producers   string    `json:"producers"`
	Venue       string    `json:"venue"`
	Network     string    `json:"network"`
	URL         string    `json:"url"`
}

// NominationRecord is a single winner or nominee within one category of one ceremony.
type NominationRecord struct {
	Edition   int       `json:"edition"`
	Label     string    `json:"label"`
	Date      time.Time `json:"date"`
	Category  string    `json:"category"`
	IsWinner  bool      `json:"is_winner"`
	Film      string    `json:"film"`
	SourceURL string    `json:"source_url"`
}

// Release returns the eligibility year of the nominated film.
func (n NominationRecord) Release() int {
	return EligibilityYear(n.Date)
}

// Key returns the enrichment key for the nomination.
func (n NominationRecord) Key() FilmKey {
	return FilmKey{Film: n.Film, Release: n.Release()}
}

// FilmKey identifies a film for enrichment.
type FilmKey struct {
	Film    string `json:"film"`
	Release int    `json:"release"`
}

func (k FilmKey) String() string {
	return fmt.Sprintf("%s (%d)", k.Film, k.Release)
}

// EnrichmentRecord carries the metadata resolved for one FilmKey. Nil fields
// mean the service did not provide a usable value.
type EnrichmentRecord struct {
	Film     string   `json:"film"`
	Release  int      `json:"release"`
	Cost     *float64 `json:"cost,omitempty"`
	Director *string  `json:"director,omitempty"`
	Runtime  *string  `json:"runtime,omitempty"`
	IMDbID   *string  `json:"imdb_id,omitempty"`
}

// Key returns the FilmKey the record was resolved for.
func (e EnrichmentRecord) Key() FilmKey {
	return FilmKey{Film: e.Film, Release: e.Release}
}

// EnrichedRow is one nomination left-joined with its enrichment, if any.
type EnrichedRow struct {
	NominationRecord
	Cost     *float64 `json:"cost,omitempty"`
	Director *string  `json:"director,omitempty"`
	Runtime  *string  `json:"runtime,omitempty"`
	IMDbID   *string  `json:"imdb_id,omitempty"`
}

// FetchRequest captures everything needed to fetch a page.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// EligibilityYear is the release year a film competes for at a ceremony held on date.
func EligibilityYear(date time.Time) int {
	return date.Year() - 1
}

var ordinalPattern = regexp.MustCompile(`^(\d+)(?:st|nd|rd|th)$`)

// ParseOrdinal converts an edition label such as "96th" into its number.
func ParseOrdinal(label string) (int, bool) {
	m := ordinalPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// CategoryAliases groups category labels that were renamed across eras. The
// scraper never rewrites labels; consumers use this to merge them.
var CategoryAliases = map[string][]string{
	"Best International Feature Film": {"Best Foreign Language Film", "Best International Feature Film"},
	"Best Foreign Language Film":      {"Best Foreign Language Film", "Best International Feature Film"},
}
