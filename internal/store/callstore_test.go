package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-insights/internal/apperr"
	"call-insights/internal/models"
)

func testCall(id string) *models.Call {
	return &models.Call{
		CallID:          id,
		CallDate:        time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC),
		ParticipantName: "Dana Reyes",
		Company:         "Acme Corp",
		Insights:        models.EmptyInsights(),
		Metadata: models.CallStats{
			ProcessedAt:   time.Now().UTC(),
			ChunkCount:    1,
			HasTranscript: true,
		},
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewCallStore(NewMemory())

	require.NoError(t, s.PutMetadata(ctx, testCall("c1")))

	got, err := s.GetMetadata(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.CallID)
	assert.Equal(t, "Dana Reyes", got.ParticipantName)
	assert.NotNil(t, got.Insights.PainPoints)
}

func TestGetMetadataNotFound(t *testing.T) {
	s := NewCallStore(NewMemory())
	_, err := s.GetMetadata(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestTranscriptMissingIsEmpty(t *testing.T) {
	s := NewCallStore(NewMemory())
	got, err := s.GetTranscript(context.Background(), "c1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestChunksRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewCallStore(NewMemory())

	chunks := []models.Chunk{
		{ChunkIndex: 0, Text: "first window"},
		{ChunkIndex: 1, Text: "second window"},
	}
	require.NoError(t, s.PutChunks(ctx, "c1", chunks))

	got, err := s.GetChunks(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, chunks, got)

	// missing chunks are an empty sequence, not an error
	got, err = s.GetChunks(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListCallIDsKeysOffMetadata(t *testing.T) {
	ctx := context.Background()
	s := NewCallStore(NewMemory())

	require.NoError(t, s.PutMetadata(ctx, testCall("complete")))
	// partial ingestion: transcript and chunks but no metadata
	require.NoError(t, s.PutTranscript(ctx, "partial", "orphaned transcript"))
	require.NoError(t, s.PutChunks(ctx, "partial", []models.Chunk{{Text: "x"}}))

	ids, err := s.ListCallIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"complete"}, ids)
}

func TestDeleteCallRemovesAllObjects(t *testing.T) {
	ctx := context.Background()
	blobs := NewMemory()
	s := NewCallStore(blobs)

	require.NoError(t, s.PutMetadata(ctx, testCall("c1")))
	require.NoError(t, s.PutTranscript(ctx, "c1", "transcript text"))
	require.NoError(t, s.PutNotes(ctx, "c1", "notes text"))
	require.NoError(t, s.PutChunks(ctx, "c1", []models.Chunk{{Text: "x"}}))

	deleted, err := s.DeleteCall(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 4, deleted)

	_, err = s.GetMetadata(ctx, "c1")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	keys, err := blobs.List(ctx, "calls/c1/")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestDeleteCallNotFound(t *testing.T) {
	s := NewCallStore(NewMemory())
	_, err := s.DeleteCall(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestFSStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fsStore, err := NewFS(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fsStore.Put(ctx, "calls/c1/metadata.json", []byte(`{}`), ContentTypeJSON))
	require.NoError(t, fsStore.Put(ctx, "calls/c1/transcript.txt", []byte("hello"), ContentTypeText))
	require.NoError(t, fsStore.Put(ctx, "calls/c2/metadata.json", []byte(`{}`), ContentTypeJSON))

	data, err := fsStore.Get(ctx, "calls/c1/transcript.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = fsStore.Get(ctx, "calls/c1/missing.txt")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	keys, err := fsStore.List(ctx, "calls/c1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"calls/c1/metadata.json", "calls/c1/transcript.txt"}, keys)

	deleted, err := fsStore.Delete(ctx, "calls/c1/metadata.json", "calls/c1/transcript.txt", "calls/c1/missing.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	keys, err = fsStore.List(ctx, "calls/")
	require.NoError(t, err)
	assert.Equal(t, []string{"calls/c2/metadata.json"}, keys)
}
