// Package ingestion runs scraper output through canonicalization into the
// event store.
//
// The Pipeline type manages one ingestion unit per source:
//   - Normalizing raw records into canonical events
//   - Upserting them into the event store
//   - Indexing accepted events into the semantic index
//   - Recording the run with the freshness tracker
//
// Units for different sources run concurrently on a worker pool and never
// share failure state: a store failure fails only the source that hit it.
package ingestion
