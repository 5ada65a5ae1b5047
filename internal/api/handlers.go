package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Yates-Labs/cardsage/internal/contextutil"
	"github.com/Yates-Labs/cardsage/internal/narrative"
	"github.com/Yates-Labs/cardsage/internal/retrieval"
)

const maxRequestBytes = 1 << 16

// AskRequest is the payload of POST /api/v1/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the answer plus the retrieval decisions behind it.
type AskResponse struct {
	Answer         string                `json:"answer"`
	Subject        string                `json:"subject"`
	QueryClass     retrieval.QueryClass  `json:"query_class"`
	Fallback       bool                  `json:"fallback"`
	FallbackReason string                `json:"fallback_reason,omitempty"`
	Candidates     int                   `json:"candidates"`
	Probes         retrieval.ProbeReport `json:"probes"`
	Model          string                `json:"model,omitempty"`
}

// ErrorResponse is returned for every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AskHandler handles HTTP requests for card questions.
type AskHandler struct {
	answerer Answerer
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(answerer Answerer) *AskHandler {
	return &AskHandler{answerer: answerer}
}

// ServeHTTP answers the question in the request body. An empty question or a
// malformed body is a 400; a generation failure is a 502.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx, nil)

	var req AskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid ask request body", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(ctx, w, http.StatusBadRequest, "question is required")
		return
	}

	ans, err := h.answerer.Answer(ctx, question)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, narrative.ErrGenerationFailed) {
			status = http.StatusBadGateway
		}
		logger.ErrorContext(ctx, "ask failed", "question", question, "status", status, "error", err)
		writeError(ctx, w, status, err.Error())
		return
	}

	writeJSON(ctx, w, http.StatusOK, AskResponse{
		Answer:         ans.Text,
		Subject:        ans.Subject,
		QueryClass:     ans.Class,
		Fallback:       ans.Verdict.Fallback,
		FallbackReason: ans.Verdict.Reason,
		Candidates:     ans.CandidateCount(),
		Probes:         ans.Probes,
		Model:          ans.Model,
	})
}

// StatsHandler reports vector store statistics.
type StatsHandler struct {
	stats StatsFunc
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(stats StatsFunc) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.stats(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx, nil).ErrorContext(ctx, "stats failed", "error", err)
		writeError(ctx, w, http.StatusServiceUnavailable, "vector store unavailable")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	writeJSON(ctx, w, status, ErrorResponse{Error: msg})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx, nil).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
