package semindex

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-insights/internal/config"
	"call-insights/internal/models"
)

// axisEmbedder maps text onto fixed unit vectors by topic keyword so that
// similarity is deterministic without a real embedding endpoint.
type axisEmbedder struct{}

func embed(text string) []float32 {
	switch {
	case strings.Contains(strings.ToLower(text), "pricing"):
		return []float32{1, 0, 0}
	case strings.Contains(strings.ToLower(text), "onboarding"):
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func (axisEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = embed(t)
	}
	return out, nil
}

func (axisEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return embed(text), nil
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := New(&config.EmbeddingConfig{
		InMemory:   true,
		Collection: "test_chunks",
	}, axisEmbedder{})
	require.NoError(t, err)
	return ix
}

func testCall(id, participant string) *models.Call {
	return &models.Call{
		CallID:          id,
		ParticipantName: participant,
		Company:         "Acme",
		CallDate:        time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC),
	}
}

func TestIndexAndSearch(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t)

	require.NoError(t, ix.IndexCall(ctx, testCall("c1", "Dana"), []models.Chunk{
		{ChunkIndex: 0, Text: "they found pricing far too complex"},
	}))
	require.NoError(t, ix.IndexCall(ctx, testCall("c2", "Lee"), []models.Chunk{
		{ChunkIndex: 0, Text: "onboarding took three weeks"},
	}))
	assert.Equal(t, 2, ix.Count())

	results, err := ix.Search(ctx, "what did they think of pricing?", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "c1", results[0].CallID)
	assert.Equal(t, "Dana", results[0].ParticipantName)
	assert.Contains(t, results[0].Text, "pricing")
	assert.InDelta(t, 1.0, results[0].RelevanceScore, 0.01)
	assert.Equal(t, 2026, results[0].CallDate.Year())
}

func TestSearchEmptyIndex(t *testing.T) {
	ix := newTestIndex(t)
	results, err := ix.Search(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDeleteCallRemovesChunks(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t)

	require.NoError(t, ix.IndexCall(ctx, testCall("c1", "Dana"), []models.Chunk{
		{ChunkIndex: 0, Text: "pricing concerns"},
		{ChunkIndex: 1, Text: "more pricing concerns"},
	}))
	require.Equal(t, 2, ix.Count())

	require.NoError(t, ix.DeleteCall(ctx, "c1"))
	assert.Zero(t, ix.Count())
}

func TestIndexCallNoChunks(t *testing.T) {
	ix := newTestIndex(t)
	require.NoError(t, ix.IndexCall(context.Background(), testCall("c1", "Dana"), nil))
	assert.Zero(t, ix.Count())
}
