// Package handler provides the HTTP handlers for the service API.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sevigo/repo-sentinel/internal/core"
	"github.com/sevigo/repo-sentinel/internal/runner"
)

// RunHandler triggers pipeline runs and exposes the run history.
type RunHandler struct {
	coordinator *runner.Coordinator
	history     core.RunHistory
	logger      *slog.Logger
}

func NewRunHandler(coordinator *runner.Coordinator, history core.RunHistory, logger *slog.Logger) *RunHandler {
	return &RunHandler{
		coordinator: coordinator,
		history:     history,
		logger:      logger,
	}
}

type triggerRequest struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// Trigger starts a run in the background. A request that arrives while a
// run is in flight is rejected with 409; the pipeline never queues.
func (h *RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var opts runner.RunOptions

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		http.Error(w, "could not read request body", http.StatusBadRequest)
		return
	}
	if len(body) > 0 {
		var req triggerRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if (req.Owner == "") != (req.Repo == "") {
			http.Error(w, "owner and repo must be set together", http.StatusBadRequest)
			return
		}
		if req.Owner != "" {
			opts.Only = &core.RepoKey{Owner: req.Owner, Repo: req.Repo}
		}
	}

	// Claim the pipeline before answering, so a 202 always corresponds to a
	// run that actually starts.
	start, err := h.coordinator.TryStart(opts)
	if err != nil {
		http.Error(w, "a run is already in progress", http.StatusConflict)
		return
	}

	// The run outlives the request; it is detached from the request context
	// on purpose.
	go func() {
		if _, err := start(context.Background()); err != nil {
			h.logger.Error("triggered run failed", "error", err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("run accepted"))
}

// ListReports returns the most recent run records, newest first.
func (h *RunHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	recs, err := h.history.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		http.Error(w, "could not list runs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(recs); err != nil {
		h.logger.Error("failed to encode run list", "error", err)
	}
}
