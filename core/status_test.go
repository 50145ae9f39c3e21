package core

import "testing"

func TestResolveStatus(t *testing.T) {
	today := NewDate(2025, 6, 15)

	tests := []struct {
		name  string
		start Date
		end   Date
		want  Status
	}{
		{"future start", NewDate(2025, 6, 20), NewDate(2025, 6, 22), StatusUpcoming},
		{"in progress", NewDate(2025, 6, 10), NewDate(2025, 6, 20), StatusOngoing},
		{"already over", NewDate(2025, 6, 1), NewDate(2025, 6, 5), StatusEnded},
		{"no start", Date{}, NewDate(2025, 6, 20), StatusUnknown},
		{"single day today", NewDate(2025, 6, 15), Date{}, StatusOngoing},
		{"single day past", NewDate(2025, 6, 14), Date{}, StatusEnded},
		{"ends today", NewDate(2025, 6, 1), NewDate(2025, 6, 15), StatusOngoing},
		{"starts today", NewDate(2025, 6, 15), NewDate(2025, 6, 18), StatusOngoing},
		{"start after end in past", NewDate(2025, 6, 10), NewDate(2025, 6, 1), StatusEnded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveStatus(tt.start, tt.end, today); got != tt.want {
				t.Errorf("ResolveStatus(%s, %s) = %s, want %s", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestEvent_EffectiveEnd(t *testing.T) {
	e := &Event{StartDate: NewDate(2025, 1, 1)}
	if !e.EffectiveEnd().Equal(e.StartDate) {
		t.Errorf("EffectiveEnd() = %s, want start date", e.EffectiveEnd())
	}

	e.EndDate = NewDate(2025, 1, 3)
	if !e.EffectiveEnd().Equal(e.EndDate) {
		t.Errorf("EffectiveEnd() = %s, want end date", e.EffectiveEnd())
	}

	if !(&Event{}).EffectiveEnd().IsZero() {
		t.Errorf("EffectiveEnd() of undated event should be zero")
	}
}
