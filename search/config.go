package search

import (
	"fmt"
	"time"
)

// Config holds the ranking weights and limits.
type Config struct {
	// SemanticTopN is how many nearest neighbors the semantic leg fetches
	SemanticTopN int

	// LexicalTopN is how many substring matches the lexical leg fetches
	LexicalTopN int

	// TopK caps the number of results returned
	TopK int

	// AgreementBoost is added to a semantic hit that the lexical leg also found
	AgreementBoost float64

	// LexicalBaseline is the score of a lexical-only hit
	LexicalBaseline float64

	// EmbedTimeout bounds the query embedding call
	EmbedTimeout time.Duration

	// StoreTimeout bounds each store and index call
	StoreTimeout time.Duration

	// DegradeToLexical returns lexical-only results when the query cannot be
	// embedded, or its vector does not match the index dimensionality,
	// instead of failing with ErrEmbeddingUnavailable.
	DegradeToLexical bool
}

// DefaultConfig returns the default ranking configuration.
func DefaultConfig() Config {
	return Config{
		SemanticTopN:    20,
		LexicalTopN:     20,
		TopK:            30,
		AgreementBoost:  0.2,
		LexicalBaseline: 0.4,
		EmbedTimeout:    10 * time.Second,
		StoreTimeout:    5 * time.Second,
	}
}

// Validate checks that limits are positive and weights are not negative.
func (c Config) Validate() error {
	switch {
	case c.SemanticTopN <= 0:
		return fmt.Errorf("%w: semantic top-n must be positive", ErrInvalidConfig)
	case c.LexicalTopN <= 0:
		return fmt.Errorf("%w: lexical top-n must be positive", ErrInvalidConfig)
	case c.TopK <= 0:
		return fmt.Errorf("%w: top-k must be positive", ErrInvalidConfig)
	case c.AgreementBoost < 0:
		return fmt.Errorf("%w: agreement boost cannot be negative", ErrInvalidConfig)
	case c.LexicalBaseline < 0:
		return fmt.Errorf("%w: lexical baseline cannot be negative", ErrInvalidConfig)
	case c.EmbedTimeout <= 0 || c.StoreTimeout <= 0:
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	return nil
}
