package storage

import (
	"testing"
	"time"

	"github.com/poiesic/hackfind/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalEvent(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	event := &core.Event{
		ID:          core.EventID("devpost", "hack"),
		Source:      "devpost",
		Title:       "Hack",
		URL:         "https://devpost.com/hack",
		StartDate:   core.NewDate(2025, 7, 1),
		Mode:        core.ModeHybrid,
		Tags:        []string{"ai"},
		ScrapedAt:   now,
		LastUpdated: now,
	}

	data := MarshalEvent(event)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalEvent(data)
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}

func TestUnmarshal_Invalid(t *testing.T) {
	_, err := UnmarshalEvent([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalScrapeMetadata([]byte{0xff})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalIndexEntry(nil)
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalScrapeMetadata(t *testing.T) {
	m := &core.ScrapeMetadata{
		Source:      "mlh",
		LastScraped: time.Now().UTC().Truncate(time.Microsecond),
		EventCount:  7,
		Success:     true,
	}

	decoded, err := UnmarshalScrapeMetadata(MarshalScrapeMetadata(m))
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestMarshalUnmarshalIndexEntry(t *testing.T) {
	e := &core.IndexEntry{ID: "mlh-1", Vector: []float32{1, 0, -1}}

	decoded, err := UnmarshalIndexEntry(MarshalIndexEntry(e))
	require.NoError(t, err)
	assert.Equal(t, e, decoded)
}
