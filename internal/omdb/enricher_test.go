package omdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
)

// fakeOMDb answers by-title lookups from a fixed catalog and records key usage.
type fakeOMDb struct {
	mu      sync.Mutex
	catalog map[oscar.FilmKey]map[string]string
	uses    map[string]int
	order   []string
	delay   time.Duration
}

func newFakeOMDb() *fakeOMDb {
	return &fakeOMDb{
		catalog: map[oscar.FilmKey]map[string]string{
			{Film: "Oppenheimer", Release: 2023}: {
				"Title": "Oppenheimer", "Director": "Christopher Nolan", "Runtime": "180 min",
				"BoxOffice": "$330,078,895", "imdbID": "tt15398776", "Response": "True",
			},
			{Film: "Barbie", Release: 2023}: {
				"Title": "Barbie", "Director": "Greta Gerwig", "Runtime": "N/A",
				"BoxOffice": "N/A", "imdbID": "tt1517268", "Response": "True",
			},
			{Film: "Past Lives", Release: 2023}: {
				"Title": "Past Lives", "Director": "Celine Song", "Runtime": "105 min",
				"BoxOffice": "$abc", "imdbID": "tt13238346", "Response": "True",
			},
		},
		uses: map[string]int{},
	}
}

func (f *fakeOMDb) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := q.Get("apikey")

	f.mu.Lock()
	f.uses[key]++
	f.order = append(f.order, key)
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if key == "revoked" {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"Response": "False", "Error": "Invalid API key!"})
		return
	}
	if q.Get("t") == "Broken" {
		_, _ = w.Write([]byte("{not json"))
		return
	}

	var year int
	_ = json.Unmarshal([]byte(q.Get("y")), &year)
	entry, ok := f.catalog[oscar.FilmKey{Film: q.Get("t"), Release: year}]
	if !ok {
		_ = json.NewEncoder(w).Encode(map[string]string{"Response": "False", "Error": "Movie not found!"})
		return
	}
	_ = json.NewEncoder(w).Encode(entry)
}

func newTestEnricher(t *testing.T, baseURL string, keys []string, concurrency int) *Enricher {
	t.Helper()
	e, err := NewEnricher(Config{
		BaseURL:        baseURL,
		Keys:           keys,
		MaxConcurrency: concurrency,
		Timeout:        2 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return e
}

func sortedKeys(records []oscar.EnrichmentRecord) []oscar.FilmKey {
	out := make([]oscar.FilmKey, 0, len(records))
	for _, r := range records {
		out = append(out, r.Key())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func TestNewEnricherRequiresKeys(t *testing.T) {
	t.Parallel()

	_, err := NewEnricher(Config{}, zap.NewNop())
	require.ErrorIs(t, err, oscar.ErrNoAPIKeys)
}

func TestEnrichResolvesOnlyKnownFilms(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newFakeOMDb())
	defer srv.Close()
	e := newTestEnricher(t, srv.URL, []string{"k1", "k2"}, 4)

	keys := []oscar.FilmKey{
		{Film: "Oppenheimer", Release: 2023},
		{Film: "Barbie", Release: 2023},
		{Film: "Past Lives", Release: 2023},
		{Film: "Unknown Film", Release: 2023},
		{Film: "Oppenheimer", Release: 1999},
		{Film: "Broken", Release: 2023},
	}
	records, err := e.Enrich(context.Background(), keys)
	require.NoError(t, err)
	require.Len(t, records, 3)

	byFilm := map[string]oscar.EnrichmentRecord{}
	for _, r := range records {
		if r.Cost != nil {
			assert.Greater(t, *r.Cost, 0.0)
		}
		byFilm[r.Film] = r
	}

	opp := byFilm["Oppenheimer"]
	require.NotNil(t, opp.Cost)
	assert.InDelta(t, 330078895.0, *opp.Cost, 0.5)
	require.NotNil(t, opp.Director)
	assert.Equal(t, "Christopher Nolan", *opp.Director)
	require.NotNil(t, opp.IMDbID)
	assert.Equal(t, "tt15398776", *opp.IMDbID)
	assert.Equal(t, 2023, opp.Release)

	barbie := byFilm["Barbie"]
	assert.Nil(t, barbie.Cost)
	assert.Nil(t, barbie.Runtime)
	require.NotNil(t, barbie.Director)

	assert.Nil(t, byFilm["Past Lives"].Cost)
}

func TestEnrichRotatesKeysEvenly(t *testing.T) {
	t.Parallel()

	fake := newFakeOMDb()
	srv := httptest.NewServer(fake)
	defer srv.Close()
	e := newTestEnricher(t, srv.URL, []string{"k1", "k2", "k3"}, 1)

	keys := make([]oscar.FilmKey, 0, 6)
	for i := 0; i < 6; i++ {
		keys = append(keys, oscar.FilmKey{Film: "Oppenheimer", Release: 2023})
	}
	_, err := e.Enrich(context.Background(), keys)
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, map[string]int{"k1": 2, "k2": 2, "k3": 2}, fake.uses)
	assert.Equal(t, []string{"k1", "k2", "k3", "k1", "k2", "k3"}, fake.order)
}

func TestEnrichResetsRotationPerBatch(t *testing.T) {
	t.Parallel()

	fake := newFakeOMDb()
	srv := httptest.NewServer(fake)
	defer srv.Close()
	e := newTestEnricher(t, srv.URL, []string{"k1", "k2"}, 1)

	one := []oscar.FilmKey{{Film: "Barbie", Release: 2023}}
	_, err := e.Enrich(context.Background(), one)
	require.NoError(t, err)
	_, err = e.Enrich(context.Background(), one)
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, []string{"k1", "k1"}, fake.order)
}

func TestEnrichIsRepeatable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newFakeOMDb())
	defer srv.Close()
	e := newTestEnricher(t, srv.URL, []string{"k1"}, 0)

	keys := []oscar.FilmKey{
		{Film: "Oppenheimer", Release: 2023},
		{Film: "Barbie", Release: 2023},
		{Film: "Nope", Release: 2023},
	}
	first, err := e.Enrich(context.Background(), keys)
	require.NoError(t, err)
	second, err := e.Enrich(context.Background(), keys)
	require.NoError(t, err)
	assert.Equal(t, sortedKeys(first), sortedKeys(second))
}

func TestEnrichTreatsAuthFailureAsSoft(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newFakeOMDb())
	defer srv.Close()
	e := newTestEnricher(t, srv.URL, []string{"revoked", "k2"}, 1)

	keys := []oscar.FilmKey{
		{Film: "Oppenheimer", Release: 2023},
		{Film: "Barbie", Release: 2023},
	}
	records, err := e.Enrich(context.Background(), keys)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Barbie", records[0].Film)
}

func TestEnrichTimeoutIsSoft(t *testing.T) {
	t.Parallel()

	fake := newFakeOMDb()
	fake.delay = time.Second
	srv := httptest.NewServer(fake)
	defer srv.Close()

	e, err := NewEnricher(Config{BaseURL: srv.URL, Keys: []string{"k1"}, Timeout: 50 * time.Millisecond}, zap.NewNop())
	require.NoError(t, err)

	records, err := e.Enrich(context.Background(), []oscar.FilmKey{{Film: "Oppenheimer", Release: 2023}})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestEnrichCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newFakeOMDb())
	defer srv.Close()
	e := newTestEnricher(t, srv.URL, []string{"k1"}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Enrich(ctx, []oscar.FilmKey{{Film: "Oppenheimer", Release: 2023}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestEnrichWithRateLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newFakeOMDb())
	defer srv.Close()
	e, err := NewEnricher(Config{
		BaseURL:           srv.URL,
		Keys:              []string{"k1"},
		MaxConcurrency:    2,
		RequestsPerSecond: 100,
		Timeout:           2 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	records, err := e.Enrich(context.Background(), []oscar.FilmKey{
		{Film: "Oppenheimer", Release: 2023},
		{Film: "Barbie", Release: 2023},
	})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
