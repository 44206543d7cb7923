package oscar

import (
	"context"
	"io"
	"time"
)

// Fetcher fetches a URL and returns the body plus metadata. Implementations
// return a *FetchError for transport failures and non-2xx responses.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// CeremonySource produces the ceremonies listing.
type CeremonySource interface {
	FetchCeremonies(ctx context.Context) ([]CeremonyRecord, error)
}

// NominationSource produces the nominations of one ceremony.
type NominationSource interface {
	ScrapeCeremony(ctx context.Context, ceremony CeremonyRecord) ([]NominationRecord, error)
}

// Enricher resolves metadata for a set of films. Keys that cannot be resolved
// produce no record.
type Enricher interface {
	Enrich(ctx context.Context, keys []FilmKey) ([]EnrichmentRecord, error)
}

// BlobStore writes rendered artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// DatasetSink mirrors the enriched dataset somewhere queryable.
type DatasetSink interface {
	StoreRows(ctx context.Context, runID string, rows []EnrichedRow) error
	Close() error
}

// Publisher pushes run notifications to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes digests for artifact integrity.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
