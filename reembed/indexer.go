package reembed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/hackfind/ai"
	"github.com/poiesic/hackfind/core"
	"github.com/poiesic/hackfind/storage"
)

// Indexer embeds events and writes their vectors into the semantic index.
type Indexer struct {
	index          storage.VectorIndex
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// NewIndexer creates an indexer.
// maxRetries: maximum number of attempts for each embedding call
// retryBaseDelay: base delay for exponential backoff
func NewIndexer(index storage.VectorIndex, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) (*Indexer, error) {
	if index == nil {
		return nil, ErrVectorIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &Indexer{
		index:          index,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		logger:         slog.Default().With("component", "indexer"),
	}, nil
}

// IndexEvents embeds the search text of each event in one batch call and
// upserts the normalized vectors. Events with no searchable text are skipped.
// It returns how many events were written to the index.
func (ix *Indexer) IndexEvents(ctx context.Context, events []*core.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	batch := make([]*core.Event, 0, len(events))
	texts := make([]string, 0, len(events))
	for _, e := range events {
		text := SearchText(e)
		if text == "" {
			ix.logger.Debug("skipping event without searchable text", "id", e.ID)
			continue
		}
		batch = append(batch, e)
		texts = append(texts, text)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, ix.maxRetries, ix.retryBaseDelay, func(ctx context.Context) error {
		var err error
		vectors, err = ix.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings after %d attempts: %w", ix.maxRetries, err)
	}
	if len(vectors) != len(batch) {
		return 0, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vectors))
	}

	indexed := 0
	for i, e := range batch {
		if len(vectors[i]) == 0 {
			ix.logger.Warn("embedder returned an empty vector", "id", e.ID)
			continue
		}
		if err := ix.index.Upsert(ctx, e.ID, NormalizeVector(vectors[i]), IndexMetadata(e)); err != nil {
			return indexed, fmt.Errorf("failed to index event %s: %w", e.ID, err)
		}
		indexed++
	}
	return indexed, nil
}
