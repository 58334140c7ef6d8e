package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/repo-sentinel/internal/core"
	"github.com/sevigo/repo-sentinel/internal/runner"
	"github.com/sevigo/repo-sentinel/internal/server/handler"
)

// NewRouter creates and configures a new HTTP router with middleware and API routes.
func NewRouter(coordinator *runner.Coordinator, history core.RunHistory, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		runHandler := handler.NewRunHandler(coordinator, history, logger)
		r.Post("/run", runHandler.Trigger)
		r.Get("/reports", runHandler.ListReports)
	})

	return r
}
