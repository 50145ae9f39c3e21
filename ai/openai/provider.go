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


package openai

import (
	"log/slog"

	"github.com/poiesic/hackfind/ai"
)

// Provider implements ai.AIProvider using an OpenAI-compatible embedding service.
// When the config asks for a cache, query embeddings are memoized in front
// of the remote embedder.
type Provider struct {
	config   *ai.Config
	embedder ai.Embedder
	cache    *ai.CachingEmbedder
	logger   *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		config:   config,
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-provider"),
	}

	if config.CacheSize > 0 {
		cache, err := ai.NewCachingEmbedder(embedder, config.CacheSize)
		if err != nil {
			return nil, err
		}
		p.cache = cache
		p.embedder = cache
	}

	p.logger.Debug("provider ready", "host", config.EmbeddingHost, "model", config.EmbeddingModel, "cache_size", config.CacheSize)
	return p, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Close releases the query cache. The HTTP client needs no explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	if p.cache != nil {
		p.cache.Close()
	}
	return nil
}
