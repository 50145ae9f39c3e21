package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	ErrEventRepositoryRequired = errors.New("event repository is required")
	ErrVectorIndexRequired     = errors.New("vector index is required")
	ErrEmbedderRequired        = errors.New("embedder is required")
)
