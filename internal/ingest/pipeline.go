// Package ingest orchestrates call processing: validation, LLM extraction
// and analysis, artifact persistence, and chunking.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"call-insights/internal/apperr"
	"call-insights/internal/chunker"
	"call-insights/internal/config"
	"call-insights/internal/helper"
	"call-insights/internal/llmservice"
	"call-insights/internal/models"
	"call-insights/internal/store"
)

const (
	minTranscriptLen = 100
	minNotesLen      = 50
)

// InputMetadata carries the user-supplied call fields.
type InputMetadata struct {
	ParticipantName    string `json:"participantName"`
	Company            string `json:"company"`
	CallDate           string `json:"callDate"`
	LinkedInProfileURL string `json:"linkedinProfileUrl"`
	Notes              string `json:"notes,omitempty"`
	CallDuration       string `json:"callDuration,omitempty"`
}

// Input is one ingestion request.
type Input struct {
	Transcript         string        `json:"transcript,omitempty"`
	LinkedInExperience string        `json:"linkedinExperience,omitempty"`
	Metadata           InputMetadata `json:"metadata"`
}

// Indexer receives a call's chunks for semantic indexing. Optional.
type Indexer interface {
	IndexCall(ctx context.Context, call *models.Call, chunks []models.Chunk) error
}

// Pipeline turns an Input into a stored Call.
type Pipeline struct {
	calls *store.CallStore
	llm   *llmservice.Client
	index Indexer
	cfg   *config.RAGConfig
}

// New builds a pipeline. index may be nil to skip semantic indexing.
func New(calls *store.CallStore, llm *llmservice.Client, index Indexer, cfg *config.RAGConfig) *Pipeline {
	return &Pipeline{calls: calls, llm: llm, index: index, cfg: cfg}
}

func validate(in *Input) error {
	meta := in.Metadata
	if meta.ParticipantName == "" {
		return apperr.Validationf("Participant name is required")
	}
	if meta.Company == "" {
		return apperr.Validationf("Company is required")
	}
	if meta.CallDate == "" {
		return apperr.Validationf("Call date is required")
	}
	if meta.LinkedInProfileURL == "" {
		return apperr.Validationf("LinkedIn Profile URL is required")
	}
	if len(in.Transcript) < minTranscriptLen && len(meta.Notes) < minNotesLen {
		return apperr.Validationf("Either transcript (min 100 chars) or notes (min 50 chars) is required")
	}
	return nil
}

// Ingest validates the input, runs the LLM extraction and analysis steps,
// persists every artifact, and returns the completed Call. Metadata is
// written strictly last so a partial ingestion stays invisible to listing
// and retrieval.
func (p *Pipeline) Ingest(ctx context.Context, in *Input) (*models.Call, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	callID, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	log.Info().Str("callId", callID).Str("participant", in.Metadata.ParticipantName).Msg("Processing call")

	hasTranscript := len(in.Transcript) >= minTranscriptLen

	// LinkedIn extraction and transcript analysis are independent requests
	// writing disjoint fields, so they run concurrently.
	var (
		wg          sync.WaitGroup
		profile     *models.LinkedInProfile
		insights    = models.EmptyInsights()
		analysisErr error
	)
	if in.LinkedInExperience != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			profile = p.extractLinkedIn(ctx, in.LinkedInExperience, in.Metadata.LinkedInProfileURL)
		}()
	}
	if hasTranscript {
		wg.Add(1)
		go func() {
			defer wg.Done()
			insights, analysisErr = p.analyzeTranscript(ctx, in.Transcript)
		}()
	}
	wg.Wait()
	if analysisErr != nil {
		// unlike LinkedIn extraction, transcript analysis is fatal
		return nil, analysisErr
	}

	if err := p.storeRawData(ctx, callID, in); err != nil {
		return nil, err
	}

	chunks := p.chunkCall(in)
	if err := p.calls.PutChunks(ctx, callID, chunks); err != nil {
		return nil, err
	}

	callDate, ok := models.ParseDate(in.Metadata.CallDate)
	if !ok {
		callDate = time.Now().UTC()
	}

	call := &models.Call{
		CallID:          callID,
		CallDate:        callDate,
		ParticipantName: in.Metadata.ParticipantName,
		Company:         in.Metadata.Company,
		LinkedInProfile: profile,
		Insights:        insights,
		Notes:           in.Metadata.Notes,
		Metadata: models.CallStats{
			ProcessedAt:         time.Now().UTC(),
			ChunkCount:          len(chunks),
			TranscriptWordCount: helper.WordCount(in.Transcript),
			HasTranscript:       in.Transcript != "",
			HasNotes:            in.Metadata.Notes != "",
			CallDuration:        in.Metadata.CallDuration,
		},
	}
	// extracted company takes precedence over the form field
	if profile != nil && profile.Error == "" && profile.Company != "" {
		call.Company = profile.Company
	}
	call.FillDefaults()

	if err := p.calls.PutMetadata(ctx, call); err != nil {
		return nil, err
	}

	if p.index != nil {
		if err := p.index.IndexCall(ctx, call, chunks); err != nil {
			// keyword retrieval stays usable without the semantic index
			log.Warn().Err(err).Str("callId", callID).Msg("Semantic indexing failed")
		}
	}

	log.Info().Str("callId", callID).Int("chunks", len(chunks)).Msg("Call processed")
	return call, nil
}

// extractLinkedIn derives a structured profile from pasted experience text.
// Failure never blocks ingestion: the profile records a field-level error
// instead.
func (p *Pipeline) extractLinkedIn(ctx context.Context, experience, profileURL string) *models.LinkedInProfile {
	var out models.LinkedInProfile
	err := p.llm.ExtractJSON(ctx,
		models.LinkedInSystemPrompt,
		fmt.Sprintf(models.LinkedInUserPromptTemplate, experience),
		&out,
	)
	if err != nil {
		log.Warn().Err(err).Msg("LinkedIn extraction failed")
		return &models.LinkedInProfile{Error: "Failed to extract LinkedIn data", ProfileURL: profileURL}
	}
	out.ProfileURL = profileURL
	return &out
}

func (p *Pipeline) analyzeTranscript(ctx context.Context, transcript string) (models.Insights, error) {
	var out models.Insights
	err := p.llm.ExtractJSON(ctx,
		models.AnalysisSystemPrompt,
		fmt.Sprintf(models.AnalysisUserPromptTemplate, transcript),
		&out,
	)
	if err != nil {
		return models.EmptyInsights(), err
	}
	// nil slices marshal as null; keep the arrays present
	if out.PainPoints == nil {
		out.PainPoints = []models.InsightItem{}
	}
	if out.FeatureRequests == nil {
		out.FeatureRequests = []models.InsightItem{}
	}
	if out.Objections == nil {
		out.Objections = []models.InsightItem{}
	}
	return out, nil
}

func (p *Pipeline) storeRawData(ctx context.Context, callID string, in *Input) error {
	if in.Transcript != "" {
		if err := p.calls.PutTranscript(ctx, callID, in.Transcript); err != nil {
			return err
		}
	}
	if in.LinkedInExperience != "" {
		if err := p.calls.PutLinkedInRaw(ctx, callID, in.LinkedInExperience); err != nil {
			return err
		}
	}
	if in.Metadata.Notes != "" {
		if err := p.calls.PutNotes(ctx, callID, in.Metadata.Notes); err != nil {
			return err
		}
	}
	return nil
}

// chunkCall builds the combined searchable text and splits it into windows.
// Notes are appended after a separator so they are retrievable even when no
// transcript exists.
func (p *Pipeline) chunkCall(in *Input) []models.Chunk {
	text := in.Transcript
	if in.Metadata.Notes != "" {
		if text != "" {
			text += models.NotesSeparator + in.Metadata.Notes
		} else {
			text = in.Metadata.Notes
		}
	}

	windows := chunker.Chunk(text, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	chunks := make([]models.Chunk, len(windows))
	for i, w := range windows {
		chunks[i] = models.Chunk{ChunkIndex: i, Text: w}
	}
	return chunks
}
