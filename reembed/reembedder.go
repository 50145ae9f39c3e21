// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/hackfind/ai"
	"github.com/poiesic/hackfind/core"
	"github.com/poiesic/hackfind/storage"
)

// Config holds configuration for an index rebuild.
type Config struct {
	// BatchSize is the number of events embedded per call
	BatchSize int

	// ReportInterval is how often to report progress (number of events)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Clear drops every vector before rebuilding, which is required when the
	// embedding model changes dimensionality.
	Clear bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      32,
		ReportInterval: 50,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Summary describes a finished rebuild.
type Summary struct {
	Total   int           // Events found in the store
	Indexed int           // Events written to the index
	Skipped int           // Events without searchable text or vector
	Elapsed time.Duration // Wall time of the rebuild
}

// Reembedder rebuilds the semantic index from every stored event.
type Reembedder struct {
	repo     storage.EventRepository
	index    storage.VectorIndex
	config   *Config
	progress io.Writer
	indexer  *Indexer
	iterator *EventIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.EventRepository, index storage.VectorIndex, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrEventRepositoryRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	indexer, err := NewIndexer(index, embedder, config.MaxRetries, config.RetryDelay)
	if err != nil {
		return nil, err
	}

	return &Reembedder{
		repo:     repo,
		index:    index,
		config:   config,
		progress: progress,
		indexer:  indexer,
		iterator: NewEventIterator(repo, config.BatchSize),
	}, nil
}

// Run embeds every stored event and upserts it into the index. A batch that
// still fails after its retries aborts the rebuild; vectors written by earlier
// batches are kept.
func (r *Reembedder) Run(ctx context.Context) (*Summary, error) {
	total, err := r.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	if r.config.Clear {
		if err := r.index.Clear(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear index: %w", err)
		}
	}

	summary := &Summary{Total: total}
	if total == 0 {
		fmt.Fprintf(r.progress, "No events found in store (0 events)\n")
		return summary, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d events (batch size: %d)\n",
		total, r.iterator.batchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, func(events []*core.Event) error {
		indexed, err := r.indexer.IndexEvents(ctx, events)
		summary.Indexed += indexed
		if err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		summary.Skipped += len(events) - indexed
		tracker.Increment(len(events))
		return nil
	})
	summary.Elapsed = tracker.Elapsed()
	if err != nil {
		return summary, err
	}

	tracker.Finish()

	fmt.Fprintf(r.progress, "Reembedding complete. Indexed %d of %d events in %v\n",
		summary.Indexed, total, summary.Elapsed.Round(time.Millisecond))

	return summary, nil
}
