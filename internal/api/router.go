// Package api exposes the recommender over HTTP.
package api

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_answerer.go -package=mocks github.com/Yates-Labs/cardsage/internal/api Answerer

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Yates-Labs/cardsage/internal/orchestrator"
)

// Answerer answers one card question.
type Answerer interface {
	Answer(ctx context.Context, query string) (*orchestrator.Answer, error)
}

// StatsFunc reports vector store statistics.
type StatsFunc func(ctx context.Context) (map[string]any, error)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Answerer Answerer
	Stats    StatsFunc // optional
	Logger   *slog.Logger
}

// NewRouter creates the HTTP router.
func NewRouter(deps *Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/ask", NewAskHandler(deps.Answerer))
		if deps.Stats != nil {
			r.Method(http.MethodGet, "/stats", NewStatsHandler(deps.Stats))
		}
	})

	return r
}

func healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
