// Package llmservice wraps the LLM endpoints behind two capabilities:
// structured JSON extraction and free-form completion.
package llmservice

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"call-insights/internal/apperr"
	"call-insights/internal/config"
)

// extractionTemperature keeps structured extraction near-deterministic.
const extractionTemperature = 0.1

// Client talks to the configured OpenAI-compatible endpoints. Extraction and
// answer generation may use different models.
type Client struct {
	extract llms.Model
	answer  llms.Model
}

// New builds a client from the extraction and answer model configs.
func New(extractCfg, answerCfg *config.LLMConfig) (*Client, error) {
	extract, err := newOpenAI(extractCfg)
	if err != nil {
		return nil, err
	}
	answer, err := newOpenAI(answerCfg)
	if err != nil {
		return nil, err
	}
	return &Client{extract: extract, answer: answer}, nil
}

// NewFromModels wires explicit models; used by tests to substitute mocks.
func NewFromModels(extract, answer llms.Model) *Client {
	return &Client{extract: extract, answer: answer}
}

func newOpenAI(cfg *config.LLMConfig) (llms.Model, error) {
	return openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
}

// ExtractJSON sends a system+user prompt pair expecting a JSON reply and
// parses it into out. A reply that does not match the expected shape is an
// external error (malformed response) rather than trusted blindly.
func (c *Client) ExtractJSON(ctx context.Context, system, user string, out any) error {
	resp, err := c.extract.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, system),
			llms.TextParts(llms.ChatMessageTypeHuman, user),
		},
		llms.WithTemperature(extractionTemperature),
		llms.WithJSONMode(),
	)
	if err != nil {
		return apperr.External("LLM extraction failed", err)
	}
	content := firstChoice(resp)
	if err := UnmarshalResponse(content, out); err != nil {
		log.Debug().Str("content", content).Msg("Malformed extraction response")
		return apperr.External("malformed LLM response", err)
	}
	return nil
}

// Complete sends a system+user prompt pair and returns the raw text reply.
func (c *Client) Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	resp, err := c.answer.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, system),
			llms.TextParts(llms.ChatMessageTypeHuman, user),
		},
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", apperr.External("LLM completion failed", err)
	}
	return firstChoice(resp), nil
}

func firstChoice(resp *llms.ContentResponse) string {
	if resp == nil || len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Content
}
