package ingestion

import "errors"

var (
	// ErrEventRepositoryRequired is returned when an event repository is not provided.
	ErrEventRepositoryRequired = errors.New("event repository required")

	// ErrTrackerRequired is returned when a freshness tracker is not provided.
	ErrTrackerRequired = errors.New("freshness tracker required")

	// ErrScraperRequired is returned when a nil scraper is registered.
	ErrScraperRequired = errors.New("scraper required")

	// ErrDuplicateSource is returned when two scrapers claim the same source.
	ErrDuplicateSource = errors.New("duplicate source")

	// ErrUnknownSource is returned when no scraper is registered for a source.
	ErrUnknownSource = errors.New("unknown source")
)
