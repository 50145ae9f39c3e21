package badger

import "strings"

// Key prefixes for different data types
const (
	eventPrefix    = "evt:"
	metadataPrefix = "scrmeta:"
	vectorPrefix   = "vec:"
	vectorDimKey   = "vecdim"
)

// makeEventKey generates a key for an event by ID.
func makeEventKey(id string) []byte {
	return []byte(eventPrefix + id)
}

// eventIDFromKey strips the event prefix from a key.
func eventIDFromKey(key []byte) string {
	return strings.TrimPrefix(string(key), eventPrefix)
}

// makeMetadataKey generates a key for the scrape metadata of a source.
func makeMetadataKey(source string) []byte {
	return []byte(metadataPrefix + source)
}

// makeVectorKey generates a key for an index entry by event ID.
func makeVectorKey(id string) []byte {
	return []byte(vectorPrefix + id)
}
