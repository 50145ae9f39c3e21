package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/hackfind/ai/mock"
	"github.com/poiesic/hackfind/core"
	"github.com/poiesic/hackfind/storage"
	"github.com/poiesic/hackfind/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// fakeIndex serves a fixed neighbor list so fused scores are predictable.
type fakeIndex struct {
	neighbors []core.Neighbor
	count     int
	err       error
	queriedK  int
}

func (f *fakeIndex) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	return nil
}

func (f *fakeIndex) QueryNearest(ctx context.Context, vector []float32, k int) ([]core.Neighbor, error) {
	f.queriedK = k
	if f.err != nil {
		return nil, f.err
	}
	if len(f.neighbors) > k {
		return f.neighbors[:k], nil
	}
	return f.neighbors, nil
}

func (f *fakeIndex) Count(ctx context.Context) (int, error) {
	return f.count, nil
}

func (f *fakeIndex) Delete(ctx context.Context, ids ...string) error { return nil }
func (f *fakeIndex) Clear(ctx context.Context) error                 { return nil }

type recordingMonitor struct {
	noopMonitor
	agreements []string
	embedErr   error
	finished   bool
}

func (m *recordingMonitor) AgreementHit(id string)        { m.agreements = append(m.agreements, id) }
func (m *recordingMonitor) EmbeddingFailed(err error)     { m.embedErr = err }
func (m *recordingMonitor) Finish(_ []*core.SearchResult) { m.finished = true }

func setupRepos(t *testing.T) *badger.Repositories {
	t.Helper()
	repos, err := badger.NewMemoryRepositories(badger.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func storeEvent(t *testing.T, repos *badger.Repositories, native, title string) *core.Event {
	t.Helper()
	e := &core.Event{
		ID:        core.EventID("devpost", native),
		Source:    "devpost",
		Title:     title,
		URL:       "https://devpost.com/" + native,
		StartDate: core.NewDate(2025, 7, 1),
		EndDate:   core.NewDate(2025, 7, 2),
		Mode:      core.ModeOnline,
	}
	accepted, err := repos.Events.Upsert(context.Background(), e)
	require.NoError(t, err)
	require.True(t, accepted)
	return e
}

// fusionFixture stores three events:
//   - both: semantic 0.75 and lexical match on "climate"
//   - semantic: semantic 0.5 only
//   - lexical: lexical match only
func fusionFixture(t *testing.T) (*badger.Repositories, *fakeIndex, map[string]*core.Event) {
	repos := setupRepos(t)
	events := map[string]*core.Event{
		"both":     storeEvent(t, repos, "both", "Climate AI Hack"),
		"semantic": storeEvent(t, repos, "semantic", "Robotics Weekend"),
		"lexical":  storeEvent(t, repos, "lexical", "Climate Jam"),
	}
	index := &fakeIndex{
		count: 2,
		neighbors: []core.Neighbor{
			{ID: events["both"].ID, Similarity: 0.75},
			{ID: events["semantic"].ID, Similarity: 0.5},
		},
	}
	return repos, index, events
}

func TestRanker_Fusion(t *testing.T) {
	repos, index, events := fusionFixture(t)

	ranker, err := NewRanker(repos.Events, index, mock.NewMockEmbedder())
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	results, err := ranker.SearchWithMonitor(context.Background(), "climate", monitor)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, events["both"].ID, results[0].ID)
	assert.Equal(t, 0.95, results[0].Score)
	assert.Equal(t, []core.Signal{core.SignalSemantic, core.SignalLexical}, results[0].Signals)

	assert.Equal(t, events["semantic"].ID, results[1].ID)
	assert.Equal(t, 0.5, results[1].Score)
	assert.Equal(t, []core.Signal{core.SignalSemantic}, results[1].Signals)

	assert.Equal(t, events["lexical"].ID, results[2].ID)
	assert.Equal(t, 0.4, results[2].Score)
	assert.True(t, results[2].HasSignal(core.SignalLexical))
	assert.False(t, results[2].HasSignal(core.SignalSemantic))

	assert.Equal(t, "Climate AI Hack", results[0].Event.Title)
	assert.Equal(t, []string{events["both"].ID}, monitor.agreements)
	assert.True(t, monitor.finished)
	assert.Equal(t, 20, index.queriedK)
}

func TestRanker_CustomWeights(t *testing.T) {
	repos, index, events := fusionFixture(t)

	cfg := DefaultConfig()
	cfg.AgreementBoost = 0.05
	cfg.LexicalBaseline = 0.9
	ranker, err := NewRanker(repos.Events, index, mock.NewMockEmbedder(), WithConfig(cfg))
	require.NoError(t, err)

	results, err := ranker.Search(context.Background(), "climate")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, events["lexical"].ID, results[0].ID)
	assert.Equal(t, 0.9, results[0].Score)
	assert.Equal(t, 0.8, results[1].Score)
}

func TestRanker_EmptyIndex(t *testing.T) {
	repos := setupRepos(t)
	storeEvent(t, repos, "x", "Climate Jam")
	embedder := mock.NewMockEmbedder()

	ranker, err := NewRanker(repos.Events, repos.Vectors, embedder)
	require.NoError(t, err)

	_, err = ranker.Search(context.Background(), "climate")
	assert.ErrorIs(t, err, ErrIndexNotReady)
	assert.Zero(t, embedder.CallCount(), "no embedding when the index is empty")
}

func TestRanker_EmbeddingUnavailable(t *testing.T) {
	repos, index, _ := fusionFixture(t)

	tests := []struct {
		name string
		fn   func(ctx context.Context, text string) ([]float32, error)
	}{
		{"error", func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("connection refused")
		}},
		{"empty vector", func(ctx context.Context, text string) ([]float32, error) {
			return []float32{}, nil
		}},
		{"timeout", func(ctx context.Context, text string) ([]float32, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.EmbedTimeout = 20 * time.Millisecond
			embedder := mock.NewMockEmbedder().WithEmbedTextFunc(tt.fn)

			ranker, err := NewRanker(repos.Events, index, embedder, WithConfig(cfg))
			require.NoError(t, err)

			_, err = ranker.Search(context.Background(), "climate")
			assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
			assert.NotErrorIs(t, err, ErrIndexNotReady)
		})
	}
}

func TestRanker_DegradeToLexical(t *testing.T) {
	repos, index, events := fusionFixture(t)

	cfg := DefaultConfig()
	cfg.DegradeToLexical = true
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("model not loaded")
	})
	ranker, err := NewRanker(repos.Events, index, embedder, WithConfig(cfg))
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	results, err := ranker.SearchWithMonitor(context.Background(), "climate", monitor)
	require.NoError(t, err)
	require.Len(t, results, 2)

	ids := []string{results[0].ID, results[1].ID}
	assert.ElementsMatch(t, []string{events["both"].ID, events["lexical"].ID}, ids)
	for _, r := range results {
		assert.Equal(t, 0.4, r.Score)
		assert.Equal(t, []core.Signal{core.SignalLexical}, r.Signals)
	}
	assert.ErrorIs(t, monitor.embedErr, ErrEmbeddingUnavailable)
	assert.Zero(t, index.queriedK, "semantic leg skipped")
}

func TestRanker_DimensionMismatch(t *testing.T) {
	repos, index, events := fusionFixture(t)
	index.err = fmt.Errorf("%w: index holds 3 dimensions, query has 4", storage.ErrDimensionMismatch)

	t.Run("strict", func(t *testing.T) {
		ranker, err := NewRanker(repos.Events, index, mock.NewMockEmbedder())
		require.NoError(t, err)

		_, err = ranker.Search(context.Background(), "climate")
		assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
	})

	t.Run("degraded", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DegradeToLexical = true
		ranker, err := NewRanker(repos.Events, index, mock.NewMockEmbedder(), WithConfig(cfg))
		require.NoError(t, err)

		results, err := ranker.Search(context.Background(), "climate")
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.ElementsMatch(t, []string{events["both"].ID, events["lexical"].ID}, []string{results[0].ID, results[1].ID})
		for _, r := range results {
			assert.Equal(t, []core.Signal{core.SignalLexical}, r.Signals)
		}
	})
}

func TestRanker_DropsDeletedEvents(t *testing.T) {
	repos, index, events := fusionFixture(t)
	index.neighbors = append([]core.Neighbor{{ID: "devpost-deadbeefdeadbeef", Similarity: 0.99}}, index.neighbors...)

	ranker, err := NewRanker(repos.Events, index, mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := ranker.Search(context.Background(), "climate")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, events["both"].ID, results[0].ID)
}

func TestRanker_TopKAndTies(t *testing.T) {
	repos := setupRepos(t)
	index := &fakeIndex{count: 5}
	for i := range 5 {
		e := storeEvent(t, repos, fmt.Sprintf("e%d", i), fmt.Sprintf("Event %d", i))
		index.neighbors = append(index.neighbors, core.Neighbor{ID: e.ID, Similarity: 0.6})
	}

	cfg := DefaultConfig()
	cfg.TopK = 3
	ranker, err := NewRanker(repos.Events, index, mock.NewMockEmbedder(), WithConfig(cfg))
	require.NoError(t, err)

	results, err := ranker.Search(context.Background(), "no lexical match here")
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.Less(t, results[i-1].ID, results[i].ID, "equal scores order by id")
	}
}

func TestRanker_SemanticIndexIntegration(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()
	e := storeEvent(t, repos, "green", "Green Energy Sprint")
	other := storeEvent(t, repos, "space", "Space Apps")

	require.NoError(t, repos.Vectors.Upsert(ctx, e.ID, mock.GenerateDeterministicVector("renewables", mock.DefaultDimension), nil))
	require.NoError(t, repos.Vectors.Upsert(ctx, other.ID, mock.GenerateDeterministicVector("rockets", mock.DefaultDimension), nil))

	ranker, err := NewRanker(repos.Events, repos.Vectors, mock.NewMockEmbedder())
	require.NoError(t, err)

	results, err := ranker.Search(ctx, "renewables")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, e.ID, results[0].ID)
	assert.Equal(t, 1.0, results[0].Score)
}

func TestRanker_EmptyQuery(t *testing.T) {
	repos, index, _ := fusionFixture(t)
	ranker, err := NewRanker(repos.Events, index, mock.NewMockEmbedder())
	require.NoError(t, err)

	_, err = ranker.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestNewRanker_Validation(t *testing.T) {
	repos := setupRepos(t)
	embedder := mock.NewMockEmbedder()

	_, err := NewRanker(nil, repos.Vectors, embedder)
	assert.ErrorIs(t, err, ErrEventRepositoryRequired)

	_, err = NewRanker(repos.Events, nil, embedder)
	assert.ErrorIs(t, err, ErrVectorIndexRequired)

	_, err = NewRanker(repos.Events, repos.Vectors, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	bad := DefaultConfig()
	bad.TopK = 0
	_, err = NewRanker(repos.Events, repos.Vectors, embedder, WithConfig(bad))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
