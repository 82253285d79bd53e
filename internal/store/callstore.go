package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"call-insights/internal/apperr"
	"call-insights/internal/models"
)

// Artifact names under each call's key prefix.
const (
	callPrefix         = "calls/"
	artifactMetadata   = "metadata.json"
	artifactTranscript = "transcript.txt"
	artifactNotes      = "notes.txt"
	artifactLinkedIn   = "linkedin-experience.txt"
	artifactChunks     = "chunks.json"
)

// CallStore is the typed artifact layer over a BlobStore. Keys follow
// calls/{callId}/{artifact}. A call exists iff its metadata object exists,
// which is why ingestion writes metadata last.
type CallStore struct {
	blobs BlobStore
}

// NewCallStore wraps a blob store backend.
func NewCallStore(blobs BlobStore) *CallStore {
	return &CallStore{blobs: blobs}
}

func callKey(callID, artifact string) string {
	return callPrefix + callID + "/" + artifact
}

// PutMetadata persists the call's metadata record.
func (s *CallStore) PutMetadata(ctx context.Context, call *models.Call) error {
	data, err := json.MarshalIndent(call, "", "  ")
	if err != nil {
		return err
	}
	if err := s.blobs.Put(ctx, callKey(call.CallID, artifactMetadata), data, ContentTypeJSON); err != nil {
		return apperr.External("store call metadata", err)
	}
	return nil
}

// GetMetadata loads a call's metadata record. The transcript is not
// included; use GetTranscript for the detail path.
func (s *CallStore) GetMetadata(ctx context.Context, callID string) (*models.Call, error) {
	data, err := s.blobs.Get(ctx, callKey(callID, artifactMetadata))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, apperr.NotFoundf("Call %s not found", callID)
	}
	if err != nil {
		return nil, apperr.External("load call metadata", err)
	}
	var call models.Call
	if err := json.Unmarshal(data, &call); err != nil {
		return nil, fmt.Errorf("decode metadata for %s: %w", callID, err)
	}
	return &call, nil
}

// PutTranscript persists the raw transcript text.
func (s *CallStore) PutTranscript(ctx context.Context, callID, transcript string) error {
	if err := s.blobs.Put(ctx, callKey(callID, artifactTranscript), []byte(transcript), ContentTypeText); err != nil {
		return apperr.External("store transcript", err)
	}
	return nil
}

// GetTranscript returns the stored transcript, or "" when none was stored.
func (s *CallStore) GetTranscript(ctx context.Context, callID string) (string, error) {
	data, err := s.blobs.Get(ctx, callKey(callID, artifactTranscript))
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", apperr.External("load transcript", err)
	}
	return string(data), nil
}

// PutNotes persists the raw notes text.
func (s *CallStore) PutNotes(ctx context.Context, callID, notes string) error {
	if err := s.blobs.Put(ctx, callKey(callID, artifactNotes), []byte(notes), ContentTypeText); err != nil {
		return apperr.External("store notes", err)
	}
	return nil
}

// PutLinkedInRaw persists the pasted LinkedIn experience text.
func (s *CallStore) PutLinkedInRaw(ctx context.Context, callID, text string) error {
	if err := s.blobs.Put(ctx, callKey(callID, artifactLinkedIn), []byte(text), ContentTypeText); err != nil {
		return apperr.External("store linkedin experience", err)
	}
	return nil
}

// PutChunks persists the call's ordered chunk sequence.
func (s *CallStore) PutChunks(ctx context.Context, callID string, chunks []models.Chunk) error {
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return err
	}
	if err := s.blobs.Put(ctx, callKey(callID, artifactChunks), data, ContentTypeJSON); err != nil {
		return apperr.External("store chunks", err)
	}
	return nil
}

// GetChunks loads the call's chunk sequence. Missing chunks are treated as
// an empty sequence, matching how retrieval tolerates partial calls.
func (s *CallStore) GetChunks(ctx context.Context, callID string) ([]models.Chunk, error) {
	data, err := s.blobs.Get(ctx, callKey(callID, artifactChunks))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.External("load chunks", err)
	}
	var chunks []models.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decode chunks for %s: %w", callID, err)
	}
	return chunks, nil
}

// ListCallIDs returns the IDs of calls that have a metadata object. Partial
// ingestions without metadata are invisible here by design.
func (s *CallStore) ListCallIDs(ctx context.Context) ([]string, error) {
	keys, err := s.blobs.List(ctx, callPrefix)
	if err != nil {
		return nil, apperr.External("list calls", err)
	}
	var ids []string
	seen := map[string]bool{}
	for _, key := range keys {
		rest := strings.TrimPrefix(key, callPrefix)
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 || parts[1] != artifactMetadata {
			continue
		}
		if !seen[parts[0]] {
			seen[parts[0]] = true
			ids = append(ids, parts[0])
		}
	}
	return ids, nil
}

// DeleteCall removes every artifact stored under the call's prefix and
// returns how many objects were removed. Unknown IDs yield a not-found
// error. Deletion is not atomic at the storage layer; a crash mid-delete
// can leave partial state.
func (s *CallStore) DeleteCall(ctx context.Context, callID string) (int, error) {
	keys, err := s.blobs.List(ctx, callPrefix+callID+"/")
	if err != nil {
		return 0, apperr.External("list call objects", err)
	}
	if len(keys) == 0 {
		return 0, apperr.NotFoundf("Call not found")
	}
	deleted, err := s.blobs.Delete(ctx, keys...)
	if err != nil {
		return deleted, apperr.External("delete call objects", err)
	}
	return deleted, nil
}
