package core

import (
	"strings"
	"testing"
)

func TestEventID(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		nativeID string
	}{
		{name: "slug", source: "devpost", nativeID: "hack-the-planet"},
		{name: "numeric", source: "mlh", nativeID: "12345"},
		{name: "empty native id", source: "devfolio", nativeID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := EventID(tt.source, tt.nativeID)
			id2 := EventID(tt.source, tt.nativeID)

			if id1 != id2 {
				t.Errorf("EventID() produced different IDs for same input: %s vs %s", id1, id2)
			}
			if !strings.HasPrefix(id1, tt.source+"-") {
				t.Errorf("EventID() = %s, want prefix %s-", id1, tt.source)
			}
			if got := len(id1) - len(tt.source) - 1; got != 16 {
				t.Errorf("EventID() hash part has %d chars, want 16", got)
			}
		})
	}
}

func TestEventID_Different(t *testing.T) {
	if EventID("devpost", "a") == EventID("devpost", "b") {
		t.Errorf("EventID() produced same ID for different native ids")
	}
	if EventID("devpost", "a") == EventID("mlh", "a") {
		t.Errorf("EventID() produced same ID for different sources")
	}
}

func TestEvent_SameContent(t *testing.T) {
	prize := 1000.0
	base := func() *Event {
		return &Event{
			ID:               "devpost-1",
			Source:           "devpost",
			Title:            "Hack",
			URL:              "https://example.com/hack",
			StartDate:        NewDate(2025, 7, 1),
			Mode:             ModeOnline,
			PrizePoolNumeric: &prize,
			Tags:             []string{"ai", "web"},
		}
	}

	a, b := base(), base()
	if !a.SameContent(b) {
		t.Fatalf("SameContent() = false for identical events")
	}

	b.Status = StatusEnded
	b.ScrapedAt = b.ScrapedAt.AddDate(1, 0, 0)
	if !a.SameContent(b) {
		t.Errorf("SameContent() should ignore status and timestamps")
	}

	other := 2000.0
	b.PrizePoolNumeric = &other
	if a.SameContent(b) {
		t.Errorf("SameContent() = true for different prizes")
	}

	c := base()
	c.Tags = []string{"ai"}
	if a.SameContent(c) {
		t.Errorf("SameContent() = true for different tags")
	}

	d := base()
	d.EndDate = NewDate(2025, 7, 2)
	if a.SameContent(d) {
		t.Errorf("SameContent() = true for different end dates")
	}
}

func TestSearchResult_HasSignal(t *testing.T) {
	r := &SearchResult{Signals: []Signal{SignalSemantic}}
	if !r.HasSignal(SignalSemantic) {
		t.Errorf("HasSignal(semantic) = false")
	}
	if r.HasSignal(SignalLexical) {
		t.Errorf("HasSignal(lexical) = true")
	}
}
