package pipeline

import (
	"sort"

	"github.com/JakeFAU/oscar-cost-crawler/internal/oscar"
)

// SelectRecent orders ceremonies by edition and keeps the last n. n <= 0 keeps
// all of them. The input slice is not modified.
func SelectRecent(ceremonies []oscar.CeremonyRecord, n int) []oscar.CeremonyRecord {
	out := append([]oscar.CeremonyRecord(nil), ceremonies...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Edition < out[j].Edition })
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// UniqueFilms returns the distinct enrichment keys of noms in first-seen order.
func UniqueFilms(noms []oscar.NominationRecord) []oscar.FilmKey {
	seen := make(map[oscar.FilmKey]struct{}, len(noms))
	out := make([]oscar.FilmKey, 0, len(noms))
	for _, n := range noms {
		k := n.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Merge left-joins nominations with enrichment records on (Film, Release).
// Every nomination appears exactly once, in input order; unmatched rows keep
// nil enrichment fields.
func Merge(noms []oscar.NominationRecord, records []oscar.EnrichmentRecord) []oscar.EnrichedRow {
	byKey := make(map[oscar.FilmKey]oscar.EnrichmentRecord, len(records))
	for _, r := range records {
		if _, dup := byKey[r.Key()]; !dup {
			byKey[r.Key()] = r
		}
	}

	out := make([]oscar.EnrichedRow, 0, len(noms))
	for _, n := range noms {
		row := oscar.EnrichedRow{NominationRecord: n}
		if r, ok := byKey[n.Key()]; ok {
			row.Cost = r.Cost
			row.Director = r.Director
			row.Runtime = r.Runtime
			row.IMDbID = r.IMDbID
		}
		out = append(out, row)
	}
	return out
}
