package reembed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/hackfind/core"
	"github.com/poiesic/hackfind/storage/badger"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func setupTestRepos(t *testing.T) *badger.Repositories {
	t.Helper()
	repos, err := badger.NewMemoryRepositories(badger.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

// seedEvents stores n upcoming events and returns them in insertion order.
func seedEvents(t *testing.T, repos *badger.Repositories, n int) []*core.Event {
	t.Helper()
	ctx := context.Background()
	events := make([]*core.Event, n)
	for i := range n {
		native := fmt.Sprintf("event-%03d", i)
		e := &core.Event{
			ID:        core.EventID("devpost", native),
			Source:    "devpost",
			Title:     "Hackathon " + native,
			URL:       "https://devpost.com/" + native,
			StartDate: core.NewDate(2025, 7, 1),
			EndDate:   core.NewDate(2025, 7, 3),
			Mode:      core.ModeOnline,
			Tags:      []string{"ai"},
		}
		accepted, err := repos.Events.Upsert(ctx, e)
		require.NoError(t, err)
		require.True(t, accepted)
		events[i] = e
	}
	return events
}

// mockEmbedder returns an unnormalized 3-d vector per text unless overridden.
type mockEmbedder struct {
	embedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)
	calls          int
}

func (m *mockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return []float32{1.0, 2.0, 2.0}, nil
}

func (m *mockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.embedTextsFunc != nil {
		return m.embedTextsFunc(ctx, texts)
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{1.0, 2.0, 2.0} // magnitude = 3.0
	}
	return result, nil
}
