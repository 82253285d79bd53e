package retrieval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-insights/internal/apperr"
	"call-insights/internal/models"
	"call-insights/internal/scorer"
	"call-insights/internal/store"
)

func date(s string) time.Time {
	t, _ := models.ParseDate(s)
	return t
}

func seedCall(t *testing.T, calls *store.CallStore, id, participant, company, callDate string, chunkTexts ...string) {
	t.Helper()
	ctx := context.Background()
	call := &models.Call{
		CallID:          id,
		CallDate:        date(callDate),
		ParticipantName: participant,
		Company:         company,
		Insights:        models.EmptyInsights(),
	}
	require.NoError(t, calls.PutMetadata(ctx, call))

	chunks := make([]models.Chunk, len(chunkTexts))
	for i, text := range chunkTexts {
		chunks[i] = models.Chunk{ChunkIndex: i, Text: text}
	}
	require.NoError(t, calls.PutChunks(ctx, id, chunks))
}

func newEngine(calls *store.CallStore) *Engine {
	return New(calls, scorer.Keyword{}, nil, 4)
}

func TestRetrieveShortQuery(t *testing.T) {
	calls := store.NewCallStore(store.NewMemory())
	e := newEngine(calls)

	_, err := e.Retrieve(context.Background(), "ok", nil)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.EqualError(t, err, "Query too short (minimum 3 characters)")
}

func TestRetrieveMatchesAndScores(t *testing.T) {
	calls := store.NewCallStore(store.NewMemory())
	seedCall(t, calls, "c1", "Dana Reyes", "Acme", "2026-05-12",
		"checkout is slow, checkout fails, users hate checkout")
	seedCall(t, calls, "c2", "Lee Park", "Globex", "2026-05-13",
		"we discussed onboarding and nothing else")

	results, err := newEngine(calls).Retrieve(context.Background(), "checkout", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].CallID)
	assert.Equal(t, 3.0, results[0].RelevanceScore)
	assert.Equal(t, "Dana Reyes", results[0].ParticipantName)
	assert.Equal(t, "Acme", results[0].Company)
}

func TestRetrieveExcludesZeroScores(t *testing.T) {
	calls := store.NewCallStore(store.NewMemory())
	seedCall(t, calls, "c1", "Dana", "Acme", "2026-05-12",
		"pricing pricing pricing", "completely unrelated text")

	results, err := newEngine(calls).Retrieve(context.Background(), "pricing", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	for _, r := range results {
		assert.Greater(t, r.RelevanceScore, 0.0)
	}
}

func TestRetrieveDescendingOrder(t *testing.T) {
	calls := store.NewCallStore(store.NewMemory())
	seedCall(t, calls, "c1", "Dana", "Acme", "2026-05-12",
		"billing", "billing billing billing", "billing billing")

	results, err := newEngine(calls).Retrieve(context.Background(), "billing", nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].RelevanceScore, results[i].RelevanceScore)
	}
	assert.Equal(t, 3.0, results[0].RelevanceScore)
}

func TestRetrieveStableTieOrder(t *testing.T) {
	calls := store.NewCallStore(store.NewMemory())
	// every chunk scores 1; ties must keep encounter order within the call
	seedCall(t, calls, "c1", "Dana", "Acme", "2026-05-12",
		"alpha billing", "beta billing", "gamma billing")

	results, err := newEngine(calls).Retrieve(context.Background(), "billing", nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Contains(t, results[0].Text, "alpha")
	assert.Contains(t, results[1].Text, "beta")
	assert.Contains(t, results[2].Text, "gamma")
}

func TestRetrieveDateRangeFilter(t *testing.T) {
	calls := store.NewCallStore(store.NewMemory())
	seedCall(t, calls, "old", "Dana", "Acme", "2026-01-10", "pricing talk")
	seedCall(t, calls, "new", "Dana", "Acme", "2026-06-10", "pricing talk")

	results, err := newEngine(calls).Retrieve(context.Background(), "pricing", &models.Filters{
		DateRange: &models.DateRange{Start: "2026-05-01", End: "2026-07-01"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].CallID)
}

func TestRetrieveParticipantFilterCaseInsensitive(t *testing.T) {
	calls := store.NewCallStore(store.NewMemory())
	seedCall(t, calls, "c1", "Dana Reyes", "Acme", "2026-05-12", "pricing talk")
	seedCall(t, calls, "c2", "Lee Park", "Globex", "2026-05-12", "pricing talk")

	results, err := newEngine(calls).Retrieve(context.Background(), "pricing", &models.Filters{
		ParticipantName: "dana",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].CallID)
}

func TestRetrieveFiltersComposeWithAND(t *testing.T) {
	calls := store.NewCallStore(store.NewMemory())
	// matches participant but is outside the date range
	seedCall(t, calls, "c1", "Dana Reyes", "Acme", "2026-01-10", "pricing talk")

	results, err := newEngine(calls).Retrieve(context.Background(), "pricing", &models.Filters{
		DateRange:       &models.DateRange{Start: "2026-05-01", End: "2026-07-01"},
		ParticipantName: "dana",
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveEmptyStore(t *testing.T) {
	calls := store.NewCallStore(store.NewMemory())
	results, err := newEngine(calls).Retrieve(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

// fakeIndex returns canned hits regardless of query.
type fakeIndex struct {
	hits []models.RelevanceResult
}

func (f *fakeIndex) Search(_ context.Context, _ string, _ int) ([]models.RelevanceResult, error) {
	return f.hits, nil
}

func (f *fakeIndex) Count() int { return len(f.hits) }

func TestRetrieveIndexPathRespectsFilters(t *testing.T) {
	calls := store.NewCallStore(store.NewMemory())
	seedCall(t, calls, "kept", "Dana Reyes", "Acme", "2026-05-12", "irrelevant for index path")
	seedCall(t, calls, "dropped", "Lee Park", "Globex", "2026-05-12", "irrelevant for index path")

	idx := &fakeIndex{hits: []models.RelevanceResult{
		{CallID: "kept", ParticipantName: "Dana Reyes", Text: "pricing excerpt", RelevanceScore: 0.92},
		{CallID: "dropped", ParticipantName: "Lee Park", Text: "pricing excerpt", RelevanceScore: 0.88},
	}}
	e := New(calls, scorer.Keyword{}, idx, 4)

	results, err := e.Retrieve(context.Background(), "pricing", &models.Filters{ParticipantName: "dana"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "kept", results[0].CallID)
}
