// Package answer builds grounded prompts from ranked chunks and produces a
// cited natural-language answer.
package answer

import (
	"context"
	"fmt"
	"strings"

	"call-insights/internal/llmservice"
	"call-insights/internal/models"
)

const (
	answerTemperature = 0.3
	answerMaxTokens   = 1000
	dateLayout        = "Jan 2, 2006"
)

// Composer turns ranked chunks and a question into an answer with sources.
type Composer struct {
	llm        *llmservice.Client
	topChunks  int
	maxSources int
}

// New builds a composer using the top topChunks excerpts and at most
// maxSources citations.
func New(llm *llmservice.Client, topChunks, maxSources int) *Composer {
	return &Composer{llm: llm, topChunks: topChunks, maxSources: maxSources}
}

// Compose answers the query from the ranked chunks. With no chunks it
// returns the canned fallback and never calls the completion service.
func (c *Composer) Compose(ctx context.Context, query string, ranked []models.RelevanceResult) (*models.Answer, error) {
	if len(ranked) == 0 {
		return &models.Answer{
			Answer:  models.NoAnswerFallback,
			Sources: []models.Source{},
		}, nil
	}

	if len(ranked) > c.topChunks {
		ranked = ranked[:c.topChunks]
	}

	prompt := buildPrompt(query, ranked)
	text, err := c.llm.Complete(ctx, models.AnswerSystemPrompt, prompt, answerTemperature, answerMaxTokens)
	if err != nil {
		return nil, err
	}

	return &models.Answer{
		Answer:  text,
		Sources: uniqueSources(ranked, c.maxSources),
	}, nil
}

// buildPrompt labels each excerpt with its 1-based index and provenance so
// the model can cite participant and date.
func buildPrompt(query string, chunks []models.RelevanceResult) string {
	var ctxText strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			ctxText.WriteString("\n\n")
		}
		fmt.Fprintf(&ctxText, "[%d] Call with %s from %s (%s):\n%s",
			i+1, chunk.ParticipantName, chunk.Company, chunk.CallDate.Format(dateLayout), chunk.Text)
	}
	return fmt.Sprintf(models.AnswerUserPromptTemplate, ctxText.String(), query)
}

// uniqueSources keeps the first occurrence per call, in rank order, capped
// at max.
func uniqueSources(chunks []models.RelevanceResult, max int) []models.Source {
	seen := map[string]bool{}
	sources := []models.Source{}
	for _, chunk := range chunks {
		if seen[chunk.CallID] {
			continue
		}
		seen[chunk.CallID] = true
		sources = append(sources, models.Source{
			CallID:          chunk.CallID,
			ParticipantName: chunk.ParticipantName,
			Company:         chunk.Company,
			CallDate:        chunk.CallDate,
			RelevanceScore:  chunk.RelevanceScore,
		})
		if len(sources) == max {
			break
		}
	}
	return sources
}
