// Package semindex maintains an optional chromem-go vector index over call
// chunks. When enabled it replaces the keyword scan with embedding
// similarity search without changing the surrounding ranking, filtering, or
// truncation logic.
package semindex

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"call-insights/internal/config"
	"call-insights/internal/helper"
	"call-insights/internal/models"
)

const compress = false

// Index wraps a chromem collection of call chunks.
type Index struct {
	col      *chromem.Collection
	embedder embeddings.Embedder
}

// NewEmbedder builds a langchaingo embedder against an OpenAI-compatible
// endpoint.
func NewEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(llm)
}

// New opens (or creates) the vector database and collection.
func New(cfg *config.EmbeddingConfig, embedder embeddings.Embedder) (*Index, error) {
	var (
		db  *chromem.DB
		err error
	)
	if cfg.InMemory {
		db = chromem.NewDB()
	} else {
		if err := helper.CreateFolder(cfg.Path); err != nil {
			return nil, err
		}
		db, err = chromem.NewPersistentDB(cfg.Path, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create vector database: %w", err)
		}
	}

	embedFn := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
	col, err := db.GetOrCreateCollection(cfg.Collection, nil, embedFn)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	return &Index{col: col, embedder: embedder}, nil
}

// IndexCall embeds and stores every chunk of a call. Document IDs are
// callId-chunkIndex so a call's documents can be removed together.
func (ix *Index) IndexCall(ctx context.Context, call *models.Call, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := ix.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:        call.CallID + "-" + strconv.Itoa(chunk.ChunkIndex),
			Content:   chunk.Text,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"callId":          call.CallID,
				"participantName": call.ParticipantName,
				"company":         call.Company,
				"callDate":        call.CallDate.Format(time.RFC3339),
				"chunkIndex":      strconv.Itoa(chunk.ChunkIndex),
			},
		}
	}
	return ix.col.AddDocuments(ctx, docs, len(docs))
}

// DeleteCall removes every indexed chunk of the call.
func (ix *Index) DeleteCall(ctx context.Context, callID string) error {
	return ix.col.Delete(ctx, map[string]string{"callId": callID}, nil)
}

// Count reports how many chunks are indexed.
func (ix *Index) Count() int {
	return ix.col.Count()
}

// Search returns up to limit chunks by descending cosine similarity.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]models.RelevanceResult, error) {
	n := ix.col.Count()
	if n == 0 {
		return nil, nil
	}
	if limit > 0 && limit < n {
		n = limit
	}

	hits, err := ix.col.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	results := make([]models.RelevanceResult, 0, len(hits))
	for _, hit := range hits {
		callDate, _ := models.ParseDate(hit.Metadata["callDate"])
		results = append(results, models.RelevanceResult{
			CallID:          hit.Metadata["callId"],
			ParticipantName: hit.Metadata["participantName"],
			Company:         hit.Metadata["company"],
			CallDate:        callDate,
			Text:            hit.Content,
			RelevanceScore:  float64(hit.Similarity),
		})
	}
	return results, nil
}
