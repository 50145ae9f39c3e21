// Package canonical turns heterogeneous scraper output into canonical events.
//
// Every scraper emits RawRecord values. Normalize validates the required
// fields, derives the stable event ID, parses dates, prizes, team sizes and
// participant counts, infers the attendance mode and canonicalizes tags.
// A record missing its title or url is rejected; a field that fails to parse
// is reported as a ParseError and left empty without stopping the record.
package canonical
