package search

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/poiesic/hackfind/ai"
	"github.com/poiesic/hackfind/core"
	"github.com/poiesic/hackfind/storage"
	"golang.org/x/sync/errgroup"
)

// Ranker fuses semantic and lexical search over hackathon events.
type Ranker struct {
	events   storage.EventRepository
	index    storage.VectorIndex
	embedder ai.Embedder
	config   Config
	logger   *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithConfig replaces the default weights and limits.
func WithConfig(cfg Config) Option {
	return func(r *Ranker) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		r.config = cfg
		return nil
	}
}

// NewRanker creates a new ranker.
func NewRanker(
	events storage.EventRepository,
	index storage.VectorIndex,
	embedder ai.Embedder,
	opts ...Option,
) (*Ranker, error) {
	if events == nil {
		return nil, ErrEventRepositoryRequired
	}
	if index == nil {
		return nil, ErrVectorIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Ranker{
		events:   events,
		index:    index,
		embedder: embedder,
		config:   DefaultConfig(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Config returns the active ranking configuration.
func (r *Ranker) Config() Config {
	return r.config
}

// Search returns up to TopK events for the query ranked by fused score.
func (r *Ranker) Search(ctx context.Context, query string) ([]*core.SearchResult, error) {
	return r.SearchWithMonitor(ctx, query, nil)
}

// SearchWithMonitor is Search with callbacks at each stage of ranking.
func (r *Ranker) SearchWithMonitor(ctx context.Context, query string, monitor RankMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	monitor.Start(query)

	// 1. The index must hold vectors before semantic search means anything
	count, err := r.indexCount(ctx)
	if err != nil {
		r.logger.Error("error counting index vectors", "err", err)
		return nil, err
	}
	if count == 0 {
		return nil, ErrIndexNotReady
	}

	// 2. Embed the query
	vector, err := r.embedQuery(ctx, query)
	if err != nil {
		monitor.EmbeddingFailed(err)
		if !r.config.DegradeToLexical {
			r.logger.Error("error embedding query", "query", query, "err", err)
			return nil, err
		}
		r.logger.Warn("embedding unavailable, degrading to lexical results", "query", query, "err", err)
		vector = nil
	}

	// 3. Both legs run concurrently and finish before fusion
	var (
		neighbors  []core.Neighbor
		lexicalIDs []string
	)
	g, gctx := errgroup.WithContext(ctx)
	if vector != nil {
		g.Go(func() error {
			var err error
			neighbors, err = r.semanticLeg(gctx, vector)
			return err
		})
	}
	g.Go(func() error {
		var err error
		lexicalIDs, err = r.lexicalLeg(gctx, query)
		return err
	})
	if err := g.Wait(); err != nil {
		r.logger.Error("error running search legs", "err", err)
		return nil, err
	}
	monitor.AfterSemanticSearch(neighbors)
	monitor.AfterLexicalSearch(lexicalIDs)

	// 4. Fuse scores
	scores, signals, order := r.fuse(neighbors, lexicalIDs, monitor)
	if len(order) == 0 {
		monitor.Finish(nil)
		return []*core.SearchResult{}, nil
	}

	// 5. Resolve ids against the store; deleted events drop out
	events, err := r.materialize(ctx, order)
	if err != nil {
		r.logger.Error("error retrieving events", "count", len(order), "err", err)
		return nil, err
	}
	monitor.AfterMaterialization(events)

	results := make([]*core.SearchResult, 0, len(events))
	for _, e := range events {
		results = append(results, &core.SearchResult{
			ID:      e.ID,
			Score:   roundScore(scores[e.ID]),
			Signals: signals[e.ID],
			Event:   e,
		})
	}

	// 6. Highest score first, ties by id
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	// 7. Truncate
	if len(results) > r.config.TopK {
		results = results[:r.config.TopK]
	}
	monitor.Finish(results)

	return results, nil
}

// fuse combines both legs into a score and signal list per id. The returned
// order lists every id once: semantic hits first, then lexical-only hits.
func (r *Ranker) fuse(neighbors []core.Neighbor, lexicalIDs []string, monitor RankMonitor) (map[string]float64, map[string][]core.Signal, []string) {
	scores := make(map[string]float64, len(neighbors)+len(lexicalIDs))
	signals := make(map[string][]core.Signal, len(neighbors)+len(lexicalIDs))
	order := make([]string, 0, len(neighbors)+len(lexicalIDs))

	for _, n := range neighbors {
		if _, dup := scores[n.ID]; dup {
			continue
		}
		scores[n.ID] = n.Similarity
		signals[n.ID] = []core.Signal{core.SignalSemantic}
		order = append(order, n.ID)
	}

	for _, id := range lexicalIDs {
		sigs, seen := signals[id]
		switch {
		case seen && slices.Contains(sigs, core.SignalLexical):
			continue
		case seen:
			scores[id] += r.config.AgreementBoost
			signals[id] = append(sigs, core.SignalLexical)
			monitor.AgreementHit(id)
		default:
			scores[id] = r.config.LexicalBaseline
			signals[id] = []core.Signal{core.SignalLexical}
			order = append(order, id)
		}
	}

	return scores, signals, order
}

func (r *Ranker) indexCount(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.StoreTimeout)
	defer cancel()
	return r.index.Count(ctx)
}

func (r *Ranker) embedQuery(ctx context.Context, query string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.EmbedTimeout)
	defer cancel()

	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %v", ErrEmbeddingUnavailable, r.config.EmbedTimeout)
		}
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrEmbeddingUnavailable)
	}
	return vector, nil
}

func (r *Ranker) semanticLeg(ctx context.Context, vector []float32) ([]core.Neighbor, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.StoreTimeout)
	defer cancel()

	neighbors, err := r.index.QueryNearest(ctx, vector, r.config.SemanticTopN)
	if errors.Is(err, storage.ErrDimensionMismatch) {
		// The index was built with another model; treat it like an embedding failure.
		if r.config.DegradeToLexical {
			r.logger.Warn("query vector does not match the index, degrading to lexical results", "err", err)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}
	return neighbors, err
}

func (r *Ranker) lexicalLeg(ctx context.Context, query string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.StoreTimeout)
	defer cancel()

	events, _, err := r.events.Query(ctx, storage.EventQuery{
		Search:   query,
		Page:     1,
		PageSize: r.config.LexicalTopN,
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids, nil
}

func (r *Ranker) materialize(ctx context.Context, ids []string) ([]*core.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.StoreTimeout)
	defer cancel()
	return r.events.GetMany(ctx, ids...)
}

func roundScore(s float64) float64 {
	return math.Round(s*10000) / 10000
}
