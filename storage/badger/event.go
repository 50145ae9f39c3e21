package badger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/hackfind/core"
	"github.com/poiesic/hackfind/storage"
)

// EventRepository implements storage.EventRepository for BadgerDB.
type EventRepository struct {
	backend *Backend
}

var _ storage.EventRepository = (*EventRepository)(nil)

// NewEventRepository creates a new EventRepository.
func NewEventRepository(backend *Backend) (*EventRepository, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &EventRepository{
		backend: backend,
	}, nil
}

// Upsert stores an event unless it has already ended or its deadline passed.
func (r *EventRepository) Upsert(ctx context.Context, event *core.Event) (bool, error) {
	if event != nil && event.Mode == "" {
		event.Mode = core.ModeUnknown
	}
	if err := core.ValidateEvent(event); err != nil {
		return false, err
	}
	if event.ID == "" {
		return false, fmt.Errorf("%w: id is required", core.ErrInvalidEvent)
	}

	today := r.backend.Today()
	if event.Resolve(today) == core.StatusEnded {
		r.backend.logger.Debug("rejecting ended event", "id", event.ID, "source", event.Source)
		return false, nil
	}
	if !event.Deadline.IsZero() && event.Deadline.Before(today) {
		r.backend.logger.Debug("rejecting event past deadline", "id", event.ID, "source", event.Source)
		return false, nil
	}

	err := r.backend.update(ctx, func(tx *badger.Txn) error {
		key := makeEventKey(event.ID)
		old, err := readEvent(tx, key)
		if err != nil {
			return err
		}

		if old != nil {
			event.ScrapedAt = old.ScrapedAt
			if old.SameContent(event) {
				event.LastUpdated = old.LastUpdated
				return nil
			}
		} else {
			event.ScrapedAt = r.backend.timestamp()
		}
		event.LastUpdated = r.backend.timestamp()

		return tx.Set(key, storage.MarshalEvent(event))
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Query filters, sorts and paginates the stored events.
func (r *EventRepository) Query(ctx context.Context, q storage.EventQuery) ([]*core.Event, int, error) {
	events, err := r.all(ctx)
	if err != nil {
		return nil, 0, err
	}
	page, total := storage.Apply(events, q)
	return page, total, nil
}

// DeleteOlderThan removes events whose effective end date is more than days
// before today.
func (r *EventRepository) DeleteOlderThan(ctx context.Context, days int) (int, error) {
	if days < 0 {
		return 0, fmt.Errorf("%w: days must not be negative", storage.ErrInvalidQuery)
	}
	cutoff := r.backend.Today().AddDays(-days)

	events, err := r.all(ctx)
	if err != nil {
		return 0, err
	}

	var keys [][]byte
	for _, e := range events {
		end := e.EffectiveEnd()
		if !end.IsZero() && end.Before(cutoff) {
			keys = append(keys, makeEventKey(e.ID))
		}
	}
	if err := r.backend.deleteKeys(ctx, keys); err != nil {
		return 0, err
	}

	r.backend.logger.Info("retention sweep complete", "deleted", len(keys), "cutoff", cutoff.String())
	return len(keys), nil
}

// Get retrieves a single event by ID.
func (r *EventRepository) Get(ctx context.Context, id string) (*core.Event, error) {
	var result *core.Event
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEvent(tx, makeEventKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	result.Resolve(r.backend.Today())
	return result, nil
}

// GetMany retrieves the events that exist among ids.
func (r *EventRepository) GetMany(ctx context.Context, ids ...string) ([]*core.Event, error) {
	today := r.backend.Today()
	result := make([]*core.Event, 0, len(ids))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			event, err := readEvent(tx, makeEventKey(id))
			if err != nil {
				return err
			}
			if event != nil {
				event.Resolve(today)
				result = append(result, event)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes events by ID.
func (r *EventRepository) Delete(ctx context.Context, ids ...string) error {
	keys := make([][]byte, len(ids))
	for i, id := range ids {
		keys[i] = makeEventKey(id)
	}
	return r.backend.deleteKeys(ctx, keys)
}

// AllIDs returns every stored event ID.
func (r *EventRepository) AllIDs(ctx context.Context) ([]string, error) {
	keys, err := r.backend.scanKeys(eventPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(keys))
	for i, key := range keys {
		ids[i] = eventIDFromKey(key)
	}
	return ids, nil
}

// Count returns the number of stored events.
func (r *EventRepository) Count(ctx context.Context) (int, error) {
	keys, err := r.backend.scanKeys(eventPrefix)
	return len(keys), err
}

// Sources returns per-source event counts, largest first then by name.
func (r *EventRepository) Sources(ctx context.Context) ([]core.SourceCount, error) {
	stats, err := r.Stats(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]core.SourceCount, 0, len(stats.BySource))
	for source, count := range stats.BySource {
		result = append(result, core.SourceCount{Source: source, Count: count})
	}
	slices.SortFunc(result, func(a, b core.SourceCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Source, b.Source)
	})
	return result, nil
}

// Stats aggregates the stored events.
func (r *EventRepository) Stats(ctx context.Context) (*core.Statistics, error) {
	events, err := r.all(ctx)
	if err != nil {
		return nil, err
	}

	stats := &core.Statistics{
		TotalEvents: len(events),
		BySource:    make(map[string]int),
		ByStatus:    make(map[core.Status]int),
		ByMode:      make(map[core.Mode]int),
	}
	for _, e := range events {
		stats.BySource[e.Source]++
		stats.ByStatus[e.Status]++
		stats.ByMode[e.Mode]++
	}
	stats.Tags = tagCounts(events)
	return stats, nil
}

// Tags returns case-folded tag counts across every stored event.
func (r *EventRepository) Tags(ctx context.Context) ([]core.TagCount, error) {
	events, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	return tagCounts(events), nil
}

func tagCounts(events []*core.Event) []core.TagCount {
	counts := make(map[string]int)
	for _, e := range events {
		seen := make(map[string]struct{}, len(e.Tags))
		for _, tag := range e.Tags {
			key := strings.ToLower(strings.TrimSpace(tag))
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			counts[key]++
		}
	}

	result := make([]core.TagCount, 0, len(counts))
	for tag, count := range counts {
		result = append(result, core.TagCount{Tag: tag, Count: count})
	}
	slices.SortFunc(result, func(a, b core.TagCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Tag, b.Tag)
	})
	return result
}

// all loads every stored event with its status resolved for today.
func (r *EventRepository) all(ctx context.Context) ([]*core.Event, error) {
	today := r.backend.Today()
	var events []*core.Event
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(eventPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var event *core.Event
			err := iter.Item().Value(func(val []byte) error {
				var err error
				event, err = storage.UnmarshalEvent(val)
				return err
			})
			if err != nil {
				return err
			}
			event.Resolve(today)
			events = append(events, event)
		}
		return nil
	}, false)
	return events, err
}

// readEvent reads an event from the transaction.
// Returns nil, nil if the key doesn't exist.
func readEvent(tx *badger.Txn, key []byte) (*core.Event, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var event *core.Event
	err = item.Value(func(val []byte) error {
		var err error
		event, err = storage.UnmarshalEvent(val)
		return err
	})
	return event, err
}
