// Package server is the HTTP front door: ingestion, listing, detail,
// deletion, and chat query endpoints over the core packages.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"call-insights/internal/answer"
	"call-insights/internal/apperr"
	"call-insights/internal/ingest"
	"call-insights/internal/models"
	"call-insights/internal/parser"
	"call-insights/internal/retrieval"
	"call-insights/internal/store"
)

const (
	defaultLimit     = 20
	maxLimit         = 100
	summaryLen       = 200
	maxUploadBytes   = 32 << 20
	sortByDate       = "date"
	sortByPart       = "participant"
	orderAsc         = "asc"
	orderDesc        = "desc"
	contentTypeJSON  = "application/json"
	headerAllowedSet = "Content-Type, Authorization"
)

// Deleter removes a call from the semantic index. Optional.
type Deleter interface {
	DeleteCall(ctx context.Context, callID string) error
}

// Server wires the core packages behind the HTTP API.
type Server struct {
	pipeline *ingest.Pipeline
	engine   *retrieval.Engine
	composer *answer.Composer
	calls    *store.CallStore
	index    Deleter
}

// New builds the server. index may be nil when the semantic index is
// disabled.
func New(pipeline *ingest.Pipeline, engine *retrieval.Engine, composer *answer.Composer, calls *store.CallStore, index Deleter) *Server {
	return &Server{pipeline: pipeline, engine: engine, composer: composer, calls: calls, index: index}
}

// Handler builds the route table with permissive CORS on every response.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /calls", s.handleCreateCall)
	mux.HandleFunc("POST /calls/upload", s.handleUploadCall)
	mux.HandleFunc("GET /calls", s.handleListCalls)
	mux.HandleFunc("GET /calls/{callId}", s.handleGetCall)
	mux.HandleFunc("DELETE /calls/{callId}", s.handleDeleteCall)
	mux.HandleFunc("POST /chat/query", s.handleChatQuery)
	mux.HandleFunc("GET /health", s.handleHealth)
	return cors(mux)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", headerAllowedSet)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
		msg = "Internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateCall(w http.ResponseWriter, r *http.Request) {
	var in ingest.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperr.Validationf("Invalid JSON body"))
		return
	}
	call, err := s.pipeline.Ingest(r.Context(), &in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, call)
}

// handleUploadCall accepts a multipart form with a transcript file plus the
// metadata fields, extracts plain text from the file, and runs the same
// ingestion pipeline as the JSON endpoint.
func (s *Server) handleUploadCall(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, apperr.Validationf("Invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperr.Validationf("Transcript file is required"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !supportedExt(ext) {
		writeError(w, apperr.Validationf("Unsupported file format: %s", ext))
		return
	}

	transcript, err := extractUpload(file, ext)
	if err != nil {
		writeError(w, apperr.External("failed to parse transcript file", err))
		return
	}

	in := ingest.Input{
		Transcript:         transcript,
		LinkedInExperience: r.FormValue("linkedinExperience"),
		Metadata: ingest.InputMetadata{
			ParticipantName:    r.FormValue("participantName"),
			Company:            r.FormValue("company"),
			CallDate:           r.FormValue("callDate"),
			LinkedInProfileURL: r.FormValue("linkedinProfileUrl"),
			Notes:              r.FormValue("notes"),
			CallDuration:       r.FormValue("callDuration"),
		},
	}
	call, err := s.pipeline.Ingest(r.Context(), &in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, call)
}

// extractUpload spools the upload to a temp file so the format parsers can
// seek it.
func extractUpload(file io.Reader, ext string) (string, error) {
	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	return parser.ExtractText(tmp.Name())
}

func supportedExt(ext string) bool {
	for _, e := range parser.SupportedExtensions() {
		if e == ext {
			return true
		}
	}
	return false
}

type listItem struct {
	CallID          string               `json:"callId"`
	ParticipantName string               `json:"participantName"`
	Company         string               `json:"company"`
	CallDate        time.Time            `json:"callDate"`
	Summary         string               `json:"summary"`
	Insights        models.Insights      `json:"insights"`
	InsightsCount   models.InsightsCount `json:"insightsCount"`
}

type pagination struct {
	Total   int  `json:"total"`
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"hasMore"`
}

type listResponse struct {
	Calls      []listItem `json:"calls"`
	Pagination pagination `json:"pagination"`
}

func (s *Server) handleListCalls(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := parseBounded(q.Get("limit"), defaultLimit, 1, maxLimit)
	offset := parseBounded(q.Get("offset"), 0, 0, 1<<30)
	sortBy := q.Get("sortBy")
	if sortBy != sortByPart {
		sortBy = sortByDate
	}
	order := q.Get("order")
	if order != orderAsc {
		order = orderDesc
	}

	calls, err := s.loadAllCalls(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	sortCalls(calls, sortBy, order)

	total := len(calls)
	page := paginate(calls, offset, limit)

	items := make([]listItem, len(page))
	for i, call := range page {
		items[i] = listItem{
			CallID:          call.CallID,
			ParticipantName: call.ParticipantName,
			Company:         call.Company,
			CallDate:        call.CallDate,
			Summary:         s.summarize(r.Context(), call),
			Insights:        call.Insights,
			InsightsCount:   call.Insights.Count(),
		}
	}

	writeJSON(w, http.StatusOK, listResponse{
		Calls: items,
		Pagination: pagination{
			Total:   total,
			Offset:  offset,
			Limit:   limit,
			HasMore: offset+len(page) < total,
		},
	})
}

func (s *Server) loadAllCalls(ctx context.Context) ([]*models.Call, error) {
	ids, err := s.calls.ListCallIDs(ctx)
	if err != nil {
		return nil, err
	}
	calls := make([]*models.Call, 0, len(ids))
	for _, id := range ids {
		call, err := s.calls.GetMetadata(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("callId", id).Msg("Failed to load call metadata")
			continue
		}
		calls = append(calls, call)
	}
	return calls, nil
}

func sortCalls(calls []*models.Call, sortBy, order string) {
	less := func(a, b *models.Call) bool { return a.CallDate.Before(b.CallDate) }
	if sortBy == sortByPart {
		less = func(a, b *models.Call) bool {
			return strings.ToLower(a.ParticipantName) < strings.ToLower(b.ParticipantName)
		}
	}
	sort.SliceStable(calls, func(i, j int) bool {
		if order == orderDesc {
			return less(calls[j], calls[i])
		}
		return less(calls[i], calls[j])
	})
}

func paginate(calls []*models.Call, offset, limit int) []*models.Call {
	if offset >= len(calls) {
		return nil
	}
	end := offset + limit
	if end > len(calls) {
		end = len(calls)
	}
	return calls[offset:end]
}

// summarize returns a short transcript preview for list views, falling back
// to the notes for notes-only calls. Transcripts load lazily so only the
// visible page pays the cost.
func (s *Server) summarize(ctx context.Context, call *models.Call) string {
	text := ""
	if call.Metadata.HasTranscript {
		transcript, err := s.calls.GetTranscript(ctx, call.CallID)
		if err != nil {
			log.Error().Err(err).Str("callId", call.CallID).Msg("Failed to load transcript preview")
		}
		text = transcript
	}
	if text == "" {
		text = call.Notes
	}
	if len(text) > summaryLen {
		return text[:summaryLen] + "..."
	}
	return text
}

func parseBounded(raw string, def, min, max int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func (s *Server) handleGetCall(w http.ResponseWriter, r *http.Request) {
	callID := r.PathValue("callId")
	call, err := s.calls.GetMetadata(r.Context(), callID)
	if err != nil {
		writeError(w, err)
		return
	}
	transcript, err := s.calls.GetTranscript(r.Context(), callID)
	if err != nil {
		writeError(w, err)
		return
	}
	call.Transcript = transcript
	writeJSON(w, http.StatusOK, call)
}

func (s *Server) handleDeleteCall(w http.ResponseWriter, r *http.Request) {
	callID := r.PathValue("callId")
	deleted, err := s.calls.DeleteCall(r.Context(), callID)
	if err != nil {
		writeError(w, err)
		return
	}
	if s.index != nil {
		if err := s.index.DeleteCall(r.Context(), callID); err != nil {
			log.Warn().Err(err).Str("callId", callID).Msg("Failed to remove call from semantic index")
		}
	}
	log.Info().Str("callId", callID).Int("objects", deleted).Msg("Call deleted")
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Call deleted successfully",
		"callId":         callID,
		"deletedObjects": deleted,
	})
}

type chatRequest struct {
	Query   string          `json:"query"`
	Filters *models.Filters `json:"filters,omitempty"`
}

func (s *Server) handleChatQuery(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validationf("Invalid JSON body"))
		return
	}
	ranked, err := s.engine.Retrieve(r.Context(), req.Query, req.Filters)
	if err != nil {
		writeError(w, err)
		return
	}
	ans, err := s.composer.Compose(r.Context(), req.Query, ranked)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}
