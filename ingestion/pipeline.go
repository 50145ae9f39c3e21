package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/hackfind/canonical"
	"github.com/poiesic/hackfind/core"
	"github.com/poiesic/hackfind/freshness"
	"github.com/poiesic/hackfind/metrics"
	"github.com/poiesic/hackfind/storage"
)

// Pipeline orchestrates ingestion units, one per source.
type Pipeline struct {
	events   storage.EventRepository
	tracker  *freshness.Tracker
	indexer  Indexer
	metrics  *metrics.Metrics
	pool     *ants.Pool
	scrapers map[string]Scraper
	order    []string
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets how many sources are ingested concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithIndexer indexes accepted events into the semantic index after each run.
func WithIndexer(indexer Indexer) Option {
	return func(p *Pipeline) error {
		p.indexer = indexer
		return nil
	}
}

// WithMetrics records run outcomes. A nil value disables metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) error {
		p.metrics = m
		return nil
	}
}

// WithScrapers registers the scrapers used by IngestAll and RunStale.
func WithScrapers(scrapers ...Scraper) Option {
	return func(p *Pipeline) error {
		for _, s := range scrapers {
			if err := p.register(s); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithClock sets the time source used for elapsed times.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		p.now = now
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	events storage.EventRepository,
	tracker *freshness.Tracker,
	opts ...Option,
) (*Pipeline, error) {
	if events == nil {
		return nil, ErrEventRepositoryRequired
	}
	if tracker == nil {
		return nil, ErrTrackerRequired
	}

	p := &Pipeline{
		events:   events,
		tracker:  tracker,
		scrapers: make(map[string]Scraper),
		logger:   slog.Default(),
		now:      time.Now,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}

	if p.pool == nil {
		pool, err := ants.NewPool(max(runtime.NumCPU()/2, 1))
		if err != nil {
			return nil, err
		}
		p.pool = pool
	}

	return p, nil
}

func (p *Pipeline) register(s Scraper) error {
	if s == nil {
		return ErrScraperRequired
	}
	source := s.Source()
	if _, dup := p.scrapers[source]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, source)
	}
	p.scrapers[source] = s
	p.order = append(p.order, source)
	return nil
}

// Sources lists the registered sources in registration order.
func (p *Pipeline) Sources() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// IngestRecords runs one ingestion unit over records already in hand.
//
// Records that fail canonicalization or validation are dropped and counted.
// Ended or past-deadline events are counted as rejected. A store failure
// stops the unit and marks it failed; the run is recorded with the
// freshness tracker either way.
func (p *Pipeline) IngestRecords(ctx context.Context, source string, records []*canonical.RawRecord) *SourceResult {
	start := p.now()
	res := newSourceResult(source)
	logger := p.logger.With("component", "ingestion", "source", source, "run_id", res.RunID)

	res.Received = len(records)
	if err := p.store(ctx, records, res, logger); err != nil {
		res.fail(err)
		logger.Error("ingestion failed", "accepted", res.Accepted, "err", err)
	} else {
		res.Success = true
	}

	p.finish(ctx, res, start, logger)
	return res
}

// IngestSource scrapes one source and ingests what it returned.
func (p *Pipeline) IngestSource(ctx context.Context, scraper Scraper) *SourceResult {
	start := p.now()
	records, err := scraper.Scrape(ctx)
	if err != nil {
		res := newSourceResult(scraper.Source())
		logger := p.logger.With("component", "ingestion", "source", res.Source, "run_id", res.RunID)
		res.fail(fmt.Errorf("scrape: %w", err))
		logger.Error("scrape failed", "err", err)
		p.finish(ctx, res, start, logger)
		return res
	}
	return p.IngestRecords(ctx, scraper.Source(), records)
}

// IngestAll ingests every given scraper concurrently on the worker pool, or
// every registered scraper when none are given. Results keep input order.
func (p *Pipeline) IngestAll(ctx context.Context, scrapers ...Scraper) []*SourceResult {
	if len(scrapers) == 0 {
		for _, source := range p.order {
			scrapers = append(scrapers, p.scrapers[source])
		}
	}

	results := make([]*SourceResult, len(scrapers))
	var wg sync.WaitGroup
	for i, s := range scrapers {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			results[i] = p.IngestSource(ctx, s)
		})
		if err != nil {
			wg.Done()
			res := newSourceResult(s.Source())
			res.fail(fmt.Errorf("submit: %w", err))
			results[i] = res
		}
	}
	wg.Wait()

	accepted, rejected, dropped, failed := Totals(results)
	p.logger.Info("ingestion finished", "sources", len(results), "accepted", accepted,
		"rejected", rejected, "dropped", dropped, "failed", failed)
	return results
}

// IngestNamed ingests the registered scraper of one source.
func (p *Pipeline) IngestNamed(ctx context.Context, source string) (*SourceResult, error) {
	s, ok := p.scrapers[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
	return p.IngestSource(ctx, s), nil
}

// RunStale ingests only the registered sources whose last run is older than
// maxAge or that have never run.
func (p *Pipeline) RunStale(ctx context.Context, maxAge time.Duration) ([]*SourceResult, error) {
	var due []Scraper
	for _, source := range p.order {
		stale, err := p.tracker.IsStale(ctx, source, maxAge)
		if err != nil {
			return nil, err
		}
		if stale {
			due = append(due, p.scrapers[source])
		} else {
			p.logger.Debug("source is fresh, skipping", "source", source)
		}
	}
	if len(due) == 0 {
		return []*SourceResult{}, nil
	}
	return p.IngestAll(ctx, due...), nil
}

// store normalizes and upserts records. Only store failures are returned.
func (p *Pipeline) store(ctx context.Context, records []*canonical.RawRecord, res *SourceResult, logger *slog.Logger) error {
	accepted := make([]*core.Event, 0, len(records))
	for _, raw := range records {
		event, fieldErrs, err := canonical.Normalize(raw, res.Source)
		if err != nil {
			res.Dropped++
			logger.Debug("dropping record", "err", err)
			continue
		}
		res.FieldErrors += len(fieldErrs)
		for _, fe := range fieldErrs {
			logger.Debug("field nulled", "id", event.ID, "field", fe.Field, "value", fe.Value)
		}

		ok, err := p.events.Upsert(ctx, event)
		switch {
		case errors.Is(err, core.ErrInvalidEvent):
			res.Dropped++
			logger.Debug("dropping invalid event", "id", event.ID, "err", err)
		case err != nil:
			p.index(ctx, accepted, res, logger)
			return err
		case ok:
			res.Accepted++
			accepted = append(accepted, event)
		default:
			res.Rejected++
		}
	}
	p.index(ctx, accepted, res, logger)
	return nil
}

// index is best effort: the store stays the source of truth and a rebuild
// catches up whatever failed here.
func (p *Pipeline) index(ctx context.Context, events []*core.Event, res *SourceResult, logger *slog.Logger) {
	if p.indexer == nil || len(events) == 0 {
		return
	}
	n, err := p.indexer.IndexEvents(ctx, events)
	res.Indexed += n
	if err != nil {
		logger.Warn("indexing failed", "indexed", n, "events", len(events), "err", err)
	}
}

func (p *Pipeline) finish(ctx context.Context, res *SourceResult, start time.Time, logger *slog.Logger) {
	res.Elapsed = p.now().Sub(start)

	if err := p.tracker.RecordRun(ctx, res.Source, res.Accepted, res.Success, res.Error); err != nil {
		logger.Error("failed to record scrape metadata", "err", err)
	}

	p.metrics.ObserveIngest(res.Source, res.Success, metrics.IngestCounts{
		Accepted: res.Accepted,
		Rejected: res.Rejected,
		Dropped:  res.Dropped,
		Indexed:  res.Indexed,
	}, res.Elapsed, p.now())

	logger.Info("source ingested", "success", res.Success, "received", res.Received,
		"accepted", res.Accepted, "rejected", res.Rejected, "dropped", res.Dropped,
		"indexed", res.Indexed, "elapsed", res.Elapsed)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
