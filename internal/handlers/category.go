package handlers

import (
	"net/http"

	"github.com/crucial707/asset-lifecycle/internal/models"
	"github.com/crucial707/asset-lifecycle/internal/repo"
)

// CategoryHandler serves the agency's asset categories.
type CategoryHandler struct {
	Agencies *repo.AgencyRepo
}

func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok || actor.AgencyID == nil {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	cats, err := h.Agencies.ListCategories(r.Context(), *actor.AgencyID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if cats == nil {
		cats = []models.AssetCategory{}
	}
	JSON(w, http.StatusOK, cats)
}
