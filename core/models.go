package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// EventID derives the stable identifier of a listing from its source and the
// identifier the source itself uses for it (a slug, numeric id or URL).
// The same pair always yields the same ID, which is what makes re-ingestion
// an idempotent upsert.
func EventID(source, nativeID string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(source))
	h.Write([]byte{':'})
	h.Write([]byte(nativeID))
	return source + "-" + hex.EncodeToString(h.Sum(nil))
}

// Mode describes how an event is attended.
type Mode string

const (
	ModeOnline   Mode = "online"
	ModeInPerson Mode = "in-person"
	ModeHybrid   Mode = "hybrid"
	ModeUnknown  Mode = "unknown"
)

// Status is the display lifecycle state of an event. It is always derived
// from the event dates and the current day, never trusted from storage.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOngoing  Status = "ongoing"
	StatusEnded    Status = "ended"
	StatusUnknown  Status = "unknown"
)

// Event is one canonical hackathon listing.
type Event struct {
	ID                string    `json:"id"`
	Source            string    `json:"source"`
	Title             string    `json:"title"`
	URL               string    `json:"url"`
	Description       string    `json:"description,omitempty"`
	StartDate         Date      `json:"start_date"`
	EndDate           Date      `json:"end_date"`
	Deadline          Date      `json:"deadline"`
	Location          string    `json:"location,omitempty"`
	Mode              Mode      `json:"mode"`
	PrizePool         string    `json:"prize_pool,omitempty"`
	PrizePoolNumeric  *float64  `json:"prize_pool_numeric"`
	Tags              []string  `json:"tags"`
	Organizer         string    `json:"organizer,omitempty"`
	ImageURL          string    `json:"image_url,omitempty"`
	TeamSizeMin       *int      `json:"team_size_min,omitempty"`
	TeamSizeMax       *int      `json:"team_size_max,omitempty"`
	ParticipantsCount *int      `json:"participants_count,omitempty"`
	Status            Status    `json:"status"`
	ScrapedAt         time.Time `json:"scraped_at"`   // First time the store accepted this ID
	LastUpdated       time.Time `json:"last_updated"` // Last content-changing write
}

// SameContent reports whether two events carry the same listing data.
// Store-managed timestamps and the derived status are ignored.
func (e *Event) SameContent(o *Event) bool {
	if e == nil || o == nil {
		return e == o
	}
	if e.ID != o.ID || e.Source != o.Source || e.Title != o.Title || e.URL != o.URL ||
		e.Description != o.Description || e.Location != o.Location || e.Mode != o.Mode ||
		e.PrizePool != o.PrizePool || e.Organizer != o.Organizer || e.ImageURL != o.ImageURL {
		return false
	}
	if !e.StartDate.Equal(o.StartDate) || !e.EndDate.Equal(o.EndDate) || !e.Deadline.Equal(o.Deadline) {
		return false
	}
	if !equalFloatPtr(e.PrizePoolNumeric, o.PrizePoolNumeric) ||
		!equalIntPtr(e.TeamSizeMin, o.TeamSizeMin) ||
		!equalIntPtr(e.TeamSizeMax, o.TeamSizeMax) ||
		!equalIntPtr(e.ParticipantsCount, o.ParticipantsCount) {
		return false
	}
	if len(e.Tags) != len(o.Tags) {
		return false
	}
	for i := range e.Tags {
		if e.Tags[i] != o.Tags[i] {
			return false
		}
	}
	return true
}

func equalFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ScrapeMetadata records the outcome of the latest ingestion run of one source.
type ScrapeMetadata struct {
	Source       string    `json:"source"`
	LastScraped  time.Time `json:"last_scraped"`
	EventCount   int       `json:"event_count"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// IndexEntry is one vector stored in the semantic index.
type IndexEntry struct {
	ID       string
	Vector   []float32
	Metadata map[string]string // e.g. "title", "source", "url", "mode"
}

// Neighbor is a semantic index hit.
type Neighbor struct {
	ID         string
	Similarity float64 // 1 - cosine distance, rounded to 4 decimal places
}

// Signal names a relevance signal that contributed to a search result.
type Signal string

const (
	SignalSemantic Signal = "semantic"
	SignalLexical  Signal = "lexical"
)

// SearchResult is a hybrid search hit with its fused score.
type SearchResult struct {
	ID      string
	Score   float64
	Signals []Signal
	Event   *Event
}

// HasSignal reports whether the result was produced by the given signal.
func (r *SearchResult) HasSignal(s Signal) bool {
	for _, sig := range r.Signals {
		if sig == s {
			return true
		}
	}
	return false
}

// SourceCount pairs a source with the number of stored events it owns.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// TagCount pairs a lowercased tag with the number of events carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Statistics aggregates the event store.
type Statistics struct {
	TotalEvents int            `json:"total_events"`
	BySource    map[string]int `json:"by_source"`
	ByStatus    map[Status]int `json:"by_status"`
	ByMode      map[Mode]int   `json:"by_mode"`
	Tags        []TagCount     `json:"tags"`
}
