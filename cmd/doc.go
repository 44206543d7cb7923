// Package cmd defines the oscar-crawler CLI.
//
// Architecture overview:
//   - Sources: internal/wikipedia fetches the ceremonies listing and each ceremony page through the
//     colly-based fetcher, locating tables with goquery and the winner/nominee lists with XPath.
//   - Enrichment: internal/omdb resolves every unique (film, release year) pair with a bounded
//     errgroup, rotating API keys round-robin and treating lookup failures as absent data.
//   - Orchestration: internal/pipeline selects the most recent ceremonies, dedupes films, left-joins
//     the enrichment, and writes ceremony_base.csv, winners_base.csv, and oscar_winners_enriched.csv
//     through the configured artifact store (local, GCS, or memory).
//   - Fanout: enriched rows are optionally mirrored into Postgres or SQLite, and a run summary with
//     artifact digests is published to Pub/Sub when a topic is configured.
//
// Commands:
//   - run: the full pipeline.
//   - ceremonies: the listing only.
//   - scrape: listing plus nominations, no OMDb calls.
//   - enrich --input winners_base.csv: re-enrich an earlier scrape.
//
// Configuration comes from --config (YAML) with OSCAR_* environment overrides; OMDb keys may also
// be supplied as OMDB_API_KEY="key1;key2".
package cmd
