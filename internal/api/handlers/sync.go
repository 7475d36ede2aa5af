package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ETAnderson/skubridge/internal/sync"
)

// SyncRunner is what the trigger endpoint needs from the engine.
type SyncRunner interface {
	SyncAll(ctx context.Context, sites []string) (sync.Report, error)
	SyncSite(ctx context.Context, site string) (sync.SiteReport, error)
	ResyncProduct(ctx context.Context, site, sku string, sourceID int64) error
	Probe(ctx context.Context, site string) (int, error)
}

type syncRequest struct {
	Action   string   `json:"action"`
	Site     string   `json:"site"`
	Sites    []string `json:"sites"`
	SKU      string   `json:"sku"`
	SourceID int64    `json:"source_id"`
}

// SyncHandler triggers synchronization runs. The run executes within the
// request; progress is observable through the progress endpoint while it
// runs.
type SyncHandler struct {
	Runner SyncRunner

	// DefaultSites is the full registry order used by full-sync when the
	// request names none; DefaultSite backs single-site actions.
	DefaultSites []string
	DefaultSite  string
}

func (h SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req syncRequest
	if r.Body != nil {
		// An empty or absent body means the default action.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Action == "" {
		req.Action = "full-sync"
	}

	switch req.Action {
	case "full-sync":
		sites := req.Sites
		if len(sites) == 0 {
			sites = h.DefaultSites
		}
		report, err := h.Runner.SyncAll(r.Context(), sites)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":   "sync_failed",
				"message": err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, report)

	case "sync-site":
		site := req.Site
		if site == "" {
			site = h.DefaultSite
		}
		report, err := h.Runner.SyncSite(r.Context(), site)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{
				"success": false,
				"site":    site,
				"error":   err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"report":  report,
		})

	case "test-product":
		if req.SKU == "" || req.SourceID == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "invalid_request",
				"message": "sku and source_id required",
			})
			return
		}
		site := req.Site
		if site == "" {
			site = h.DefaultSite
		}
		if err := h.Runner.ResyncProduct(r.Context(), site, req.SKU, req.SourceID); err != nil {
			writeJSON(w, http.StatusOK, map[string]any{
				"sku":     req.SKU,
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"sku":     req.SKU,
			"success": true,
		})

	case "test-connection":
		site := req.Site
		if site == "" {
			site = h.DefaultSite
		}
		count, err := h.Runner.Probe(r.Context(), site)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{
				"success": false,
				"site":    site,
				"error":   err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"site":          site,
			"product_count": count,
		})

	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "unknown_action",
			"message": "unknown action: " + req.Action,
		})
	}
}
