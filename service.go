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

// Package hackfind wires the event store, semantic index, freshness tracker,
// embedding provider and hybrid ranker into one Service.
package hackfind

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/hackfind/ai"
	"github.com/poiesic/hackfind/ai/openai"
	"github.com/poiesic/hackfind/config"
	"github.com/poiesic/hackfind/core"
	"github.com/poiesic/hackfind/freshness"
	"github.com/poiesic/hackfind/ingestion"
	"github.com/poiesic/hackfind/metrics"
	"github.com/poiesic/hackfind/reembed"
	"github.com/poiesic/hackfind/search"
	"github.com/poiesic/hackfind/storage"
	"github.com/poiesic/hackfind/storage/badger"
)

// Service owns every long-lived component. Build it once with Open and
// close it at shutdown.
type Service struct {
	config   *config.Config
	repos    *badger.Repositories
	provider ai.AIProvider
	tracker  *freshness.Tracker
	ranker   *search.Ranker
	indexer  *reembed.Indexer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	provider ai.AIProvider
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
	inMemory bool
}

// WithProvider replaces the OpenAI-compatible embedding provider.
func WithProvider(provider ai.AIProvider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithMetrics records metrics on m.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(o *serviceOptions) {
		o.metrics = m
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock sets the time source for the store and the freshness tracker.
func WithClock(now func() time.Time) ServiceOption {
	return func(o *serviceOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithInMemory keeps all data in memory instead of cfg.DataDir.
func WithInMemory() ServiceOption {
	return func(o *serviceOptions) {
		o.inMemory = true
	}
}

// Open builds a Service from cfg.
func Open(cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &serviceOptions{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(options)
	}

	backendOpts := []badger.Option{badger.WithLogger(options.logger), badger.WithClock(options.now)}
	var (
		repos *badger.Repositories
		err   error
	)
	if options.inMemory {
		repos, err = badger.NewMemoryRepositories(backendOpts...)
	} else {
		repos, err = badger.OpenRepositories(cfg.DataDir, backendOpts...)
	}
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(cfg.AIConfig())
		if err != nil {
			repos.Close()
			return nil, err
		}
	}

	s := &Service{
		config:   cfg,
		repos:    repos,
		provider: provider,
		metrics:  options.metrics,
		logger:   options.logger,
		now:      options.now,
	}

	if s.tracker, err = freshness.NewTracker(repos.Metadata,
		freshness.WithLogger(options.logger), freshness.WithClock(options.now)); err != nil {
		s.Close()
		return nil, err
	}

	if s.ranker, err = search.NewRanker(repos.Events, repos.Vectors, provider.Embedder(),
		search.WithLogger(options.logger.With("component", "ranker")),
		search.WithConfig(cfg.RankerConfig())); err != nil {
		s.Close()
		return nil, err
	}

	reCfg := reembed.DefaultConfig()
	if s.indexer, err = reembed.NewIndexer(repos.Vectors, provider.Embedder(), reCfg.MaxRetries, reCfg.RetryDelay); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the provider and the store.
func (s *Service) Close() error {
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
		}
	}
	if err := s.repos.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (s *Service) Config() *config.Config {
	return s.config
}

func (s *Service) Events() storage.EventRepository {
	return s.repos.Events
}

func (s *Service) Metadata() storage.MetadataRepository {
	return s.repos.Metadata
}

func (s *Service) Vectors() storage.VectorIndex {
	return s.repos.Vectors
}

func (s *Service) Tracker() *freshness.Tracker {
	return s.tracker
}

func (s *Service) Ranker() *search.Ranker {
	return s.ranker
}

func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// NewIngestionPipeline creates a pipeline that indexes what it accepts.
// opts are applied after the defaults taken from the configuration.
func (s *Service) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{
		ingestion.WithIndexer(s.indexer),
		ingestion.WithMetrics(s.metrics),
		ingestion.WithLogger(s.logger),
		ingestion.WithClock(s.now),
	}
	if s.config.Ingestion.PoolSize > 0 {
		base = append(base, ingestion.WithPoolSize(s.config.Ingestion.PoolSize))
	}
	return ingestion.NewPipeline(s.repos.Events, s.tracker, append(base, opts...)...)
}

// NewReembedder creates a full index rebuild. A nil cfg uses reembed defaults.
func (s *Service) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(s.repos.Events, s.repos.Vectors, s.provider.Embedder(), cfg, progress)
}

// Search runs the hybrid ranker and records the outcome.
func (s *Service) Search(ctx context.Context, query string) ([]*core.SearchResult, error) {
	start := time.Now()
	results, err := s.ranker.Search(ctx, query)

	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, search.ErrIndexNotReady):
		outcome = metrics.OutcomeIndexNotReady
	case errors.Is(err, search.ErrEmbeddingUnavailable):
		outcome = metrics.OutcomeEmbeddingUnavailable
	case err != nil:
		outcome = metrics.OutcomeError
	}
	s.metrics.ObserveSearch(outcome, time.Since(start))
	return results, err
}

// StaleSources lists recorded sources older than maxAge. A non-positive
// maxAge uses the configured freshness window.
func (s *Service) StaleSources(ctx context.Context, maxAge time.Duration) ([]string, error) {
	if maxAge <= 0 {
		maxAge = s.config.Freshness.MaxAge
	}
	stale, err := s.tracker.StaleSources(ctx, maxAge)
	if err != nil {
		return nil, err
	}
	s.metrics.SetStaleSources(len(stale))
	return stale, nil
}

// Sweep deletes events that ended more than days ago. A negative days uses
// the configured retention. Their vectors stay in the index until the next
// rebuild; the ranker drops ids that no longer resolve.
func (s *Service) Sweep(ctx context.Context, days int) (int, error) {
	if days < 0 {
		days = s.config.Retention.Days
	}
	deleted, err := s.repos.Events.DeleteOlderThan(ctx, days)
	if err != nil {
		return 0, err
	}
	s.metrics.AddRetentionDeleted(deleted)
	s.logger.Info("retention sweep finished", "days", days, "deleted", deleted)
	return deleted, nil
}
