package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/crucial707/asset-lifecycle/internal/models"
	"github.com/crucial707/asset-lifecycle/internal/repo"
)

// AuditHandler serves the agency-wide audit ledger.
type AuditHandler struct {
	History *repo.HistoryRepo
}

// ListAudit returns the agency's history entries, newest first.
// Query: from, to (YYYY-MM-DD), limit (default 50, max 200), offset.
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok || actor.AgencyID == nil {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			JSONError(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			JSONError(w, "to must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		// Inclusive end of day
		to = t.Add(24*time.Hour - time.Nanosecond)
	}

	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	entries, err := h.History.ListForAgency(r.Context(), *actor.AgencyID, from, to, limit, offset)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.AssetHistory{}
	}
	JSON(w, http.StatusOK, entries)
}
