// Package reports serves persisted coverage runs as JSON.
package reports

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/EmpoweredVote/telraam-coverage/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const defaultRunLimit = 50

// RunReader is the read side of the run store.
type RunReader interface {
	ListRuns(limit int) ([]store.Run, error)
	GetRun(id uuid.UUID) (*store.Run, error)
	Scores(runID uuid.UUID, length int) ([]store.Score, error)
	BestScores(runID uuid.UUID) ([]store.Score, error)
}

type Handler struct {
	reader RunReader
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.reader.ListRuns(limit)
	if err != nil {
		serverError(w, "list runs", err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, runs)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}

	run, err := h.reader.GetRun(id)
	if err != nil {
		storeError(w, "get run", err)
		return
	}
	writeJSON(w, run)
}

// Scores lists the combination scores of a run, optionally for one length.
func (h *Handler) Scores(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}

	length := 0
	if v := r.URL.Query().Get("length"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 {
			http.Error(w, "length must be an integer of at least 2", http.StatusBadRequest)
			return
		}
		length = n
	}

	scores, err := h.reader.Scores(id, length)
	if err != nil {
		storeError(w, "list scores", err)
		return
	}
	if length > 0 && len(scores) == 0 {
		http.Error(w, "No combination of this length", http.StatusNotFound)
		return
	}
	if scores == nil {
		scores = []store.Score{}
	}
	writeJSON(w, scores)
}

func (h *Handler) Best(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}

	scores, err := h.reader.BestScores(id)
	if err != nil {
		storeError(w, "best scores", err)
		return
	}
	if scores == nil {
		scores = []store.Score{}
	}
	writeJSON(w, scores)
}

func runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "run_id"))
	if err != nil {
		http.Error(w, "Invalid run id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrRunNotFound) {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	serverError(w, op, err)
}

func serverError(w http.ResponseWriter, op string, err error) {
	log.Printf("[reports] %s: %v", op, err)
	http.Error(w, "DB error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
