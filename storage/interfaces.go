package storage

import (
	"context"

	"github.com/poiesic/hackfind/core"
)

// EventRepository stores canonical hackathon events.
// Implementations must be thread-safe and support concurrent access.
// Every event returned carries a status resolved against the current day.
type EventRepository interface {
	// Upsert validates, resolves and stores an event, replacing any prior
	// value with the same ID. Ended events and events whose deadline has
	// passed are rejected with accepted=false and no write. Re-applying an
	// identical event is a no-op that still reports accepted=true.
	Upsert(ctx context.Context, event *core.Event) (accepted bool, err error)

	// Query filters, sorts and paginates events. The returned total is the
	// number of matches before pagination.
	Query(ctx context.Context, q EventQuery) ([]*core.Event, int, error)

	// DeleteOlderThan removes events whose effective end date precedes
	// today minus days. Undated events are kept.
	DeleteOlderThan(ctx context.Context, days int) (int, error)

	// Get retrieves a single event by ID.
	// Returns ErrNotFound if the event doesn't exist.
	Get(ctx context.Context, id string) (*core.Event, error)

	// GetMany retrieves the events that exist among ids, in the order given.
	GetMany(ctx context.Context, ids ...string) ([]*core.Event, error)

	// Delete removes events by ID. Missing IDs are ignored.
	Delete(ctx context.Context, ids ...string) error

	// AllIDs returns every stored event ID in key order.
	AllIDs(ctx context.Context) ([]string, error)

	// Count returns the number of stored events.
	Count(ctx context.Context) (int, error)

	// Sources returns per-source event counts, largest first.
	Sources(ctx context.Context) ([]core.SourceCount, error)

	// Tags returns case-folded tag counts, largest first then by tag.
	// Each event counts once per tag.
	Tags(ctx context.Context) ([]core.TagCount, error)

	// Stats aggregates events by source, resolved status, mode and tag.
	Stats(ctx context.Context) (*core.Statistics, error)
}

// MetadataRepository stores one ScrapeMetadata row per source.
type MetadataRepository interface {
	// Put writes the row for metadata.Source, replacing any previous one.
	Put(ctx context.Context, metadata *core.ScrapeMetadata) error

	// Get returns the row for source, or ErrNotFound.
	Get(ctx context.Context, source string) (*core.ScrapeMetadata, error)

	// All returns every row sorted by source name.
	All(ctx context.Context) ([]*core.ScrapeMetadata, error)
}

// VectorIndex is the semantic nearest-neighbour index over event embeddings.
type VectorIndex interface {
	// Upsert stores or overwrites the vector for id. The first write fixes the
	// dimensionality of the whole index.
	Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error

	// QueryNearest returns the k entries most similar to vector, highest first.
	QueryNearest(ctx context.Context, vector []float32, k int) ([]core.Neighbor, error)

	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)

	// Delete removes vectors by ID. Missing IDs are ignored.
	Delete(ctx context.Context, ids ...string) error

	// Clear removes every vector and resets the dimensionality.
	Clear(ctx context.Context) error
}
