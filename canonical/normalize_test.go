package canonical

import (
	"encoding/json"
	"testing"

	"github.com/poiesic/hackfind/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	data := []byte(`{
		"id": 4821,
		"title": "  Climate Hack  ",
		"url": "https://Devpost.com/climate-hack/",
		"description": "Build for the planet",
		"start_date": "June 20, 2025",
		"end_date": "2025-06-22T18:00:00Z",
		"deadline": "garbage",
		"location": "Berlin, Germany",
		"prize": "$10,000",
		"tags": ["Climate", "AI", "ai"],
		"organizer": "Green Org",
		"image": "https://img.example/banner.png",
		"participants_count": "1,234",
		"team_size": "2-4"
	}`)

	var raw RawRecord
	require.NoError(t, json.Unmarshal(data, &raw))

	event, parseErrs, err := Normalize(&raw, "devpost")
	require.NoError(t, err)

	assert.Equal(t, core.EventID("devpost", "4821"), event.ID)
	assert.Equal(t, "devpost", event.Source)
	assert.Equal(t, "Climate Hack", event.Title)
	assert.Equal(t, "https://devpost.com/climate-hack", event.URL)
	assert.Equal(t, "2025-06-20", event.StartDate.String())
	assert.Equal(t, "2025-06-22", event.EndDate.String())
	assert.True(t, event.Deadline.IsZero())
	assert.Equal(t, core.ModeInPerson, event.Mode)
	assert.Equal(t, "$10,000", event.PrizePool)
	require.NotNil(t, event.PrizePoolNumeric)
	assert.Equal(t, 10000.0, *event.PrizePoolNumeric)
	assert.Equal(t, []string{"AI", "Climate"}, event.Tags)
	assert.Equal(t, "Green Org", event.Organizer)
	assert.Equal(t, "https://img.example/banner.png", event.ImageURL)
	require.NotNil(t, event.ParticipantsCount)
	assert.Equal(t, 1234, *event.ParticipantsCount)
	assert.Equal(t, 2, *event.TeamSizeMin)
	assert.Equal(t, 4, *event.TeamSizeMax)

	require.Len(t, parseErrs, 1)
	assert.Equal(t, "deadline", parseErrs[0].Field)
	assert.Equal(t, "garbage", parseErrs[0].Value)
	assert.ErrorIs(t, parseErrs[0], ErrParse)
}

func TestNormalize_Minimal(t *testing.T) {
	raw := &RawRecord{Title: "Tiny", URL: "https://mlh.io/events/tiny"}

	event, parseErrs, err := Normalize(raw, "mlh")
	require.NoError(t, err)
	assert.Empty(t, parseErrs)

	assert.Equal(t, core.EventID("mlh", "tiny"), event.ID)
	assert.Equal(t, core.ModeOnline, event.Mode)
	assert.Equal(t, []string{}, event.Tags)
	assert.Nil(t, event.PrizePoolNumeric)
	assert.Nil(t, event.ParticipantsCount)
	assert.True(t, event.StartDate.IsZero())
	assert.NoError(t, core.ValidateEvent(event))
}

func TestNormalize_Deterministic(t *testing.T) {
	raw := &RawRecord{Title: "Same", URL: "https://devfolio.co/same"}

	a, _, err := Normalize(raw, "devfolio")
	require.NoError(t, err)
	b, _, err := Normalize(raw, "devfolio")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.True(t, a.SameContent(b))
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		raw     *RawRecord
		source  string
		wantErr error
	}{
		{"nil record", nil, "devpost", core.ErrInvalidEvent},
		{"missing title", &RawRecord{URL: "https://x.io/a"}, "devpost", core.ErrMissingTitle},
		{"blank title", &RawRecord{Title: "   ", URL: "https://x.io/a"}, "devpost", core.ErrMissingTitle},
		{"missing url", &RawRecord{Title: "A"}, "devpost", core.ErrMissingURL},
		{"missing source", &RawRecord{Title: "A", URL: "https://x.io/a"}, " ", core.ErrMissingSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, _, err := Normalize(tt.raw, tt.source)
			assert.Nil(t, event)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, core.ErrInvalidEvent)
		})
	}
}

func TestNormalize_FieldErrorsDoNotAbort(t *testing.T) {
	raw := &RawRecord{
		Title:             "Messy",
		URL:               "https://x.io/messy",
		StartDate:         "someday",
		EndDate:           "later",
		ParticipantsCount: "lots",
		TeamSize:          "any",
	}

	event, parseErrs, err := Normalize(raw, "x")
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Len(t, parseErrs, 4)
	for _, pe := range parseErrs {
		assert.ErrorIs(t, pe, ErrParse)
	}
	assert.True(t, event.StartDate.IsZero())
	assert.Nil(t, event.ParticipantsCount)
}

func TestRawRecord_LooseScalars(t *testing.T) {
	data := []byte(`[
		{"title": "A", "url": "u", "prize": 5000, "participants_count": 42, "tags": "ai, web"},
		{"title": "B", "url": "u", "prize": null, "start_date": 1749945600, "tags": null}
	]`)

	records, err := DecodeRecords(data)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, Text("5000"), records[0].Prize)
	assert.Equal(t, Text("42"), records[0].ParticipantsCount)
	assert.Equal(t, TagList{"ai", " web"}, records[0].Tags)
	assert.Equal(t, Text(""), records[1].Prize)
	assert.Equal(t, Text("1749945600"), records[1].StartDate)
	assert.Nil(t, records[1].Tags)

	_, err = DecodeRecords([]byte(`{"title": "not an array"}`))
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = DecodeRecords([]byte(`[{"title": {"nested": true}}]`))
	assert.Error(t, err)
}
