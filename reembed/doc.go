// Package reembed writes stored events into the semantic index.
//
// An Indexer embeds the search text of a batch of events and upserts the
// resulting vectors. A Reembedder walks every stored event in batches and
// rebuilds the whole index, which is how a new embedding model is rolled out.
// Embedding calls are retried with exponential backoff and progress is
// reported to a writer.
package reembed
