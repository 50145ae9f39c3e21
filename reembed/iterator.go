package reembed

import (
	"context"

	"github.com/poiesic/hackfind/core"
	"github.com/poiesic/hackfind/storage"
)

const (
	// DefaultBatchSize is the default number of events to fetch in each batch
	DefaultBatchSize = 100
)

// EventIterator walks every stored event in batches.
type EventIterator struct {
	repo      storage.EventRepository
	batchSize int
}

// NewEventIterator creates an iterator. A non-positive batchSize selects
// DefaultBatchSize.
func NewEventIterator(repo storage.EventRepository, batchSize int) *EventIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &EventIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach loads the stored ids once, then fetches and hands events to fn one
// batch at a time. Iteration stops on the first error from fn and checks ctx
// between batches. Events deleted after the id snapshot are skipped.
func (it *EventIterator) ForEach(ctx context.Context, fn func([]*core.Event) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ids, err := it.repo.AllIDs(ctx)
	if err != nil {
		return err
	}

	for start := 0; start < len(ids); start += it.batchSize {
		end := min(start+it.batchSize, len(ids))

		events, err := it.repo.GetMany(ctx, ids[start:end]...)
		if err != nil {
			return err
		}
		if len(events) > 0 {
			if err := fn(events); err != nil {
				return err
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
