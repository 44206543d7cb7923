package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
)

func ptr[T any](v T) *T { return &v }

func date(year int) time.Time {
	return time.Date(year, time.March, 10, 0, 0, 0, 0, time.UTC)
}

func TestSelectRecent(t *testing.T) {
	t.Parallel()

	in := []oscar.CeremonyRecord{{Edition: 3}, {Edition: 1}, {Edition: 4}, {Edition: 2}}
	got := SelectRecent(in, 2)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Edition)
	assert.Equal(t, 4, got[1].Edition)
	assert.Equal(t, 3, in[0].Edition, "input must not be reordered")

	all := SelectRecent(in, 0)
	require.Len(t, all, 4)
	assert.Equal(t, 1, all[0].Edition)

	assert.Len(t, SelectRecent(in, 10), 4)
	assert.Empty(t, SelectRecent(nil, 5))
}

func TestUniqueFilmsKeepsFirstSeenOrder(t *testing.T) {
	t.Parallel()

	noms := []oscar.NominationRecord{
		{Film: "Oppenheimer", Date: date(2024)},
		{Film: "Barbie", Date: date(2024)},
		{Film: "Oppenheimer", Date: date(2024)},
		{Film: "Barbie", Date: date(2025)},
	}
	assert.Equal(t, []oscar.FilmKey{
		{Film: "Oppenheimer", Release: 2023},
		{Film: "Barbie", Release: 2023},
		{Film: "Barbie", Release: 2024},
	}, UniqueFilms(noms))
}

func TestMergeIsLeftJoin(t *testing.T) {
	t.Parallel()

	noms := []oscar.NominationRecord{
		{Category: "Best Picture", Film: "Oppenheimer", Date: date(2024), IsWinner: true},
		{Category: "Best Picture", Film: "Barbie", Date: date(2024)},
		{Category: "Best Director", Film: "Oppenheimer", Date: date(2024), IsWinner: true},
	}
	records := []oscar.EnrichmentRecord{
		{Film: "Oppenheimer", Release: 2023, Cost: ptr(326000000.0), Director: ptr("Christopher Nolan")},
		{Film: "Oppenheimer", Release: 2023, Cost: ptr(1.0)},
		{Film: "Barbie", Release: 1999, Cost: ptr(2.0)},
	}

	rows := Merge(noms, records)
	require.Len(t, rows, len(noms))
	for i, r := range rows {
		assert.Equal(t, noms[i], r.NominationRecord)
	}
	require.NotNil(t, rows[0].Cost)
	assert.InDelta(t, 326000000.0, *rows[0].Cost, 0.5)
	assert.Equal(t, "Christopher Nolan", *rows[0].Director)
	assert.Nil(t, rows[0].Runtime)
	assert.Nil(t, rows[1].Cost, "release year must match")
	assert.Nil(t, rows[1].Director)
	assert.Equal(t, rows[0].Cost, rows[2].Cost)
}
