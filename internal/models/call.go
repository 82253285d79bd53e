// Package models holds the shared data types for discovery-call records,
// chunks, and retrieval results.
package models

import "time"

const unknown = "Unknown"

// InsightItem is a single extracted pain point, feature request, or objection
// with its supporting quote and the model's confidence in the extraction.
type InsightItem struct {
	Text       string  `json:"text"`
	Quote      string  `json:"quote"`
	Severity   string  `json:"severity,omitempty"`
	Priority   string  `json:"priority,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Insights groups the extracted insight categories for one call.
type Insights struct {
	PainPoints      []InsightItem `json:"painPoints"`
	FeatureRequests []InsightItem `json:"featureRequests"`
	Objections      []InsightItem `json:"objections"`
}

// EmptyInsights returns an Insights value whose slices marshal as empty
// arrays rather than null. Used for notes-only calls where analysis is
// never attempted.
func EmptyInsights() Insights {
	return Insights{
		PainPoints:      []InsightItem{},
		FeatureRequests: []InsightItem{},
		Objections:      []InsightItem{},
	}
}

// InsightsCount summarises how many insights each category holds.
type InsightsCount struct {
	PainPoints      int `json:"painPoints"`
	FeatureRequests int `json:"featureRequests"`
	Objections      int `json:"objections"`
}

// Count returns per-category insight counts for list views.
func (i Insights) Count() InsightsCount {
	return InsightsCount{
		PainPoints:      len(i.PainPoints),
		FeatureRequests: len(i.FeatureRequests),
		Objections:      len(i.Objections),
	}
}

// PastExperience is one previous position from a LinkedIn profile.
type PastExperience struct {
	Role        string `json:"role"`
	Company     string `json:"company"`
	Duration    string `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
}

// LinkedInProfile is the structured result of LinkedIn experience extraction.
// Error is set instead of the other fields when extraction failed; a failed
// extraction never blocks ingestion.
type LinkedInProfile struct {
	CurrentRole    string           `json:"currentRole,omitempty"`
	Company        string           `json:"company,omitempty"`
	PastExperience []PastExperience `json:"pastExperience,omitempty"`
	Skills         []string         `json:"skills,omitempty"`
	ProfileURL     string           `json:"profileUrl,omitempty"`
	Error          string           `json:"error,omitempty"`
}

// CallStats is the derived metadata computed at ingestion time.
type CallStats struct {
	ProcessedAt         time.Time `json:"processedAt"`
	ChunkCount          int       `json:"chunkCount"`
	TranscriptWordCount int       `json:"transcriptWordCount"`
	HasTranscript       bool      `json:"hasTranscript"`
	HasNotes            bool      `json:"hasNotes"`
	CallDuration        string    `json:"callDuration,omitempty"`
}

// Call is one discovery-call record. Transcript is only populated on the
// detail path; list and retrieval work from the metadata object alone.
type Call struct {
	CallID          string           `json:"callId"`
	CallDate        time.Time        `json:"callDate"`
	ParticipantName string           `json:"participantName"`
	Company         string           `json:"company"`
	LinkedInProfile *LinkedInProfile `json:"linkedInProfile,omitempty"`
	Insights        Insights         `json:"insights"`
	Notes           string           `json:"notes,omitempty"`
	Transcript      string           `json:"transcript,omitempty"`
	Metadata        CallStats        `json:"metadata"`
}

// FillDefaults applies the "Unknown" fallbacks at the construction boundary
// so consumers never have to default-fill themselves.
func (c *Call) FillDefaults() {
	if c.ParticipantName == "" {
		c.ParticipantName = unknown
	}
	if c.Company == "" {
		if c.LinkedInProfile != nil && c.LinkedInProfile.Company != "" {
			c.Company = c.LinkedInProfile.Company
		} else {
			c.Company = unknown
		}
	}
}

// Chunk is one fixed-size slice of a call's combined searchable text.
// ChunkIndex is the zero-based position within the call's chunk sequence.
type Chunk struct {
	ChunkIndex int    `json:"chunkIndex"`
	Text       string `json:"text"`
}

// RelevanceResult is a scored chunk with provenance. Produced per query and
// never persisted.
type RelevanceResult struct {
	CallID          string    `json:"callId"`
	ParticipantName string    `json:"participantName"`
	Company         string    `json:"company"`
	CallDate        time.Time `json:"callDate"`
	Text            string    `json:"text"`
	RelevanceScore  float64   `json:"relevanceScore"`
}

// Source identifies a cited call in an answer.
type Source struct {
	CallID          string    `json:"callId"`
	ParticipantName string    `json:"participantName"`
	Company         string    `json:"company"`
	CallDate        time.Time `json:"callDate"`
	RelevanceScore  float64   `json:"relevanceScore"`
}

// Answer is the composed response to a chat query.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// DateRange bounds callDate inclusively on both ends.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Filters narrow retrieval to a subset of calls. Absent fields are no-ops;
// present fields compose with AND.
type Filters struct {
	DateRange       *DateRange `json:"dateRange,omitempty"`
	ParticipantName string     `json:"participantName,omitempty"`
}

// dateLayouts are accepted callDate formats, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
}

// ParseDate parses user-supplied dates in RFC3339 or plain date form.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
