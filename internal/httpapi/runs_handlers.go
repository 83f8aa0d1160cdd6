package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"resumerank-engine/internal/pipeline"
	"resumerank-engine/internal/rank"
	"resumerank-engine/internal/store"
)

type RunsHandler struct {
	DB       *sql.DB
	Pipeline *pipeline.Service
}

type RerankRequest struct {
	Weights map[string]any `json:"weights"`
}

// List accepts ?limit=N and ?since=RFC3339.
func (h RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var opts store.ListRunsOpts

	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			WriteError(w, r, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		opts.Limit = n
	}
	if s := q.Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "bad_request", "since must be RFC3339")
			return
		}
		opts.Since = t
	}

	runs, err := store.ListRuns(r.Context(), h.DB, opts)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, runs)
}

func (h RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := store.GetRun(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, http.StatusNotFound, "not_found", "run "+id+" not found")
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, run)
}

func (h RunsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := h.Pipeline.Delete(r.Context(), RequestIDFrom(r.Context()), id)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	if !ok {
		WriteError(w, r, http.StatusNotFound, "not_found", "run "+id+" not found")
		return
	}
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

// Rerank scores the stored documents of a run again with new weights.
func (h RunsHandler) Rerank(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RerankRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
	}

	res, err := h.Pipeline.Rerank(r.Context(), RequestIDFrom(r.Context()), id, req.Weights)
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, "not_found", "run "+id+" not found")
		return
	case errors.Is(err, rank.ErrEmptyBatch):
		WriteError(w, r, http.StatusUnprocessableEntity, "empty_batch", err.Error())
		return
	case err != nil:
		WriteError(w, r, http.StatusInternalServerError, "rank_failed", err.Error())
		return
	}
	writeJSON(w, RankResponse{RunID: res.Run.ID, Ranking: res.Ranking})
}
