package freshness

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/poiesic/hackfind/core"
	"github.com/poiesic/hackfind/storage"
)

// DefaultMaxAge is how long a source's data stays fresh.
const DefaultMaxAge = 6 * time.Hour

// ErrMetadataRepositoryRequired is returned when no repository is supplied.
var ErrMetadataRepositoryRequired = errors.New("metadata repository is required")

// Tracker decides per source whether data is due for re-ingestion, based on
// the ScrapeMetadata row written after each run.
type Tracker struct {
	repo   storage.MetadataRepository
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker) error

// WithLogger sets a custom logger for the tracker.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		t.logger = logger
		return nil
	}
}

// WithClock overrides the tracker clock.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		t.now = now
		return nil
	}
}

// NewTracker creates a Tracker over repo.
func NewTracker(repo storage.MetadataRepository, opts ...Option) (*Tracker, error) {
	if repo == nil {
		return nil, ErrMetadataRepositoryRequired
	}
	t := &Tracker{
		repo:   repo,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	t.logger = t.logger.With("component", "freshness")
	return t, nil
}

// IsStale reports whether source has never been recorded or was last
// recorded at least maxAge ago. The outcome of the last run does not matter;
// a failed run still restarts the clock.
func (t *Tracker) IsStale(ctx context.Context, source string, maxAge time.Duration) (bool, error) {
	m, err := t.repo.Get(ctx, source)
	if errors.Is(err, storage.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return t.stale(m, maxAge), nil
}

func (t *Tracker) stale(m *core.ScrapeMetadata, maxAge time.Duration) bool {
	return t.now().Sub(m.LastScraped) >= maxAge
}

// RecordRun replaces the row for source with the outcome of a run finished now.
func (t *Tracker) RecordRun(ctx context.Context, source string, eventCount int, success bool, errMsg string) error {
	m := &core.ScrapeMetadata{
		Source:       source,
		LastScraped:  t.now().UTC().Truncate(time.Microsecond),
		EventCount:   eventCount,
		Success:      success,
		ErrorMessage: errMsg,
	}
	if err := t.repo.Put(ctx, m); err != nil {
		return err
	}
	t.logger.Debug("recorded run", "source", source, "events", eventCount, "success", success)
	return nil
}

// StaleSources returns every recorded source due for re-ingestion, sorted by name.
func (t *Tracker) StaleSources(ctx context.Context, maxAge time.Duration) ([]string, error) {
	rows, err := t.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	stale := []string{}
	for _, m := range rows {
		if t.stale(m, maxAge) {
			stale = append(stale, m.Source)
		}
	}
	sort.Strings(stale)
	return stale, nil
}

// Get returns the recorded row for source, or storage.ErrNotFound.
func (t *Tracker) Get(ctx context.Context, source string) (*core.ScrapeMetadata, error) {
	return t.repo.Get(ctx, source)
}

// All returns every recorded row sorted by source.
func (t *Tracker) All(ctx context.Context) ([]*core.ScrapeMetadata, error) {
	rows, err := t.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Source < rows[j].Source })
	return rows, nil
}
