package handlers

import (
	"net/http"
	"time"

	"github.com/ETAnderson/skubridge/internal/state"
	"github.com/ETAnderson/skubridge/internal/sync"
)

// ProgressHandler exposes the live job status record.
type ProgressHandler struct {
	Store state.Store
}

func (h ProgressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rec, ok, err := h.Store.GetSyncProgress(r.Context(), sync.JobID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "get_progress_failed",
			"message": err.Error(),
		})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":   "not_found",
			"message": "no sync has run yet",
		})
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// CancelHandler flips the job status record to "cancelled". The engine
// observes it at its next polling point and stops admitting new work.
type CancelHandler struct {
	Store state.Store
}

func (h CancelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rec, ok, err := h.Store.GetSyncProgress(r.Context(), sync.JobID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "get_progress_failed",
			"message": err.Error(),
		})
		return
	}
	if !ok {
		rec = state.SyncProgressRecord{ID: sync.JobID}
	}

	rec.Status = state.StatusCancelled
	rec.Message = "cancellation requested"
	rec.UpdatedAt = time.Now().UTC()

	if err := h.Store.UpsertSyncProgress(r.Context(), rec); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "cancel_failed",
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": state.StatusCancelled,
	})
}
