// Package retrieval loads, filters, scores, and ranks call chunks against a
// free-text query.
package retrieval

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"call-insights/internal/apperr"
	"call-insights/internal/models"
	"call-insights/internal/store"
)

const minQueryLen = 3

// Scorer computes chunk relevance. The contract callers depend on is
// "higher score = more relevant, 0 = exclude"; the default keyword
// implementation can be swapped for embedding similarity without touching
// the ranking, filtering, or truncation around it.
type Scorer interface {
	Score(query, text string) float64
}

// Index is an optional vector-search substitute for the scan-and-score
// path. Results must come back in descending relevance order.
type Index interface {
	Search(ctx context.Context, query string, limit int) ([]models.RelevanceResult, error)
	Count() int
}

// Engine orchestrates retrieval over the call store.
type Engine struct {
	calls       *store.CallStore
	scorer      Scorer
	index       Index
	concurrency int
}

// New builds an engine. index may be nil; when set, it replaces the
// keyword scan.
func New(calls *store.CallStore, scorer Scorer, index Index, concurrency int) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Engine{calls: calls, scorer: scorer, index: index, concurrency: concurrency}
}

// Retrieve returns every matching chunk across all calls, ranked by
// descending relevance. Zero matches is a valid empty result, not an error.
func (e *Engine) Retrieve(ctx context.Context, query string, filters *models.Filters) ([]models.RelevanceResult, error) {
	if len(query) < minQueryLen {
		return nil, apperr.Validationf("Query too short (minimum 3 characters)")
	}

	calls, err := e.loadCalls(ctx)
	if err != nil {
		return nil, err
	}
	calls = applyFilters(calls, filters)

	if e.index != nil {
		return e.searchIndex(ctx, query, calls)
	}
	return e.scanAndScore(ctx, query, calls)
}

// loadCalls fetches every call's metadata record, fanning out under the
// concurrency cap. Calls whose metadata fails to load are skipped rather
// than failing the whole query.
func (e *Engine) loadCalls(ctx context.Context) ([]*models.Call, error) {
	ids, err := e.calls.ListCallIDs(ctx)
	if err != nil {
		return nil, err
	}

	loaded := make([]*models.Call, len(ids))
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.concurrency)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			call, err := e.calls.GetMetadata(ctx, id)
			if err != nil {
				log.Error().Err(err).Str("callId", id).Msg("Failed to load call metadata")
				return
			}
			loaded[i] = call
		}(i, id)
	}
	wg.Wait()

	calls := make([]*models.Call, 0, len(loaded))
	for _, c := range loaded {
		if c != nil {
			calls = append(calls, c)
		}
	}
	return calls, nil
}

// scanAndScore is the MVP retrieval path: load each surviving call's chunks
// and score every chunk against the query. Per-call buckets keep encounter
// order so the final stable sort never interleaves equal-scored chunks
// unpredictably.
func (e *Engine) scanAndScore(ctx context.Context, query string, calls []*models.Call) ([]models.RelevanceResult, error) {
	buckets := make([][]models.RelevanceResult, len(calls))
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.concurrency)
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call *models.Call) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			chunks, err := e.calls.GetChunks(ctx, call.CallID)
			if err != nil {
				log.Error().Err(err).Str("callId", call.CallID).Msg("Failed to load chunks")
				return
			}
			for _, chunk := range chunks {
				score := e.scorer.Score(query, chunk.Text)
				if score <= 0 {
					continue
				}
				buckets[i] = append(buckets[i], models.RelevanceResult{
					CallID:          call.CallID,
					ParticipantName: call.ParticipantName,
					Company:         call.Company,
					CallDate:        call.CallDate,
					Text:            chunk.Text,
					RelevanceScore:  score,
				})
			}
		}(i, call)
	}
	wg.Wait()

	var results []models.RelevanceResult
	for _, bucket := range buckets {
		results = append(results, bucket...)
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].RelevanceScore > results[b].RelevanceScore
	})
	return results, nil
}

// searchIndex answers from the semantic index, then restricts results to
// the filtered call set.
func (e *Engine) searchIndex(ctx context.Context, query string, calls []*models.Call) ([]models.RelevanceResult, error) {
	if e.index.Count() == 0 {
		return nil, nil
	}
	hits, err := e.index.Search(ctx, query, e.index.Count())
	if err != nil {
		return nil, apperr.External("semantic search failed", err)
	}

	allowed := make(map[string]bool, len(calls))
	for _, c := range calls {
		allowed[c.CallID] = true
	}
	results := make([]models.RelevanceResult, 0, len(hits))
	for _, hit := range hits {
		if allowed[hit.CallID] {
			results = append(results, hit)
		}
	}
	return results, nil
}

// applyFilters narrows calls with AND semantics; absent fields are no-ops.
func applyFilters(calls []*models.Call, filters *models.Filters) []*models.Call {
	if filters == nil {
		return calls
	}

	kept := make([]*models.Call, 0, len(calls))
	for _, call := range calls {
		if filters.DateRange != nil {
			start, okStart := models.ParseDate(filters.DateRange.Start)
			end, okEnd := models.ParseDate(filters.DateRange.End)
			if okStart && call.CallDate.Before(start) {
				continue
			}
			if okEnd && call.CallDate.After(end) {
				continue
			}
		}
		if filters.ParticipantName != "" {
			if !strings.Contains(
				strings.ToLower(call.ParticipantName),
				strings.ToLower(filters.ParticipantName),
			) {
				continue
			}
		}
		kept = append(kept, call)
	}
	return kept
}
