package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is one immutable cached payload. Entries are replaced on miss, never
// mutated in place, so concurrent readers can share them freely.
type Entry struct {
	Payload   json.RawMessage `json:"payload"`
	StoredAt  time.Time       `json:"storedAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// ResultCache stores encoded resolution results keyed by request descriptor.
// Implementations must treat expired entries as absent.
type ResultCache interface {
	Lookup(ctx context.Context, key string) (Entry, bool, error)
	Store(ctx context.Context, key string, entry Entry) error
	Size(ctx context.Context) (int64, error)
	Close(ctx context.Context) error
}
