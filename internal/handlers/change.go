package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/crucial707/asset-lifecycle/internal/models"
	"github.com/crucial707/asset-lifecycle/internal/repo"
	"github.com/crucial707/asset-lifecycle/internal/workflow"
	"github.com/go-chi/chi/v5"
)

// ChangeHandler serves the change-control workflow: propose, decide, cancel.
type ChangeHandler struct {
	Svc     *workflow.Service
	Changes *repo.ChangeRepo
}

//
// ==========================
// Propose Change
// ==========================
//

func (h *ChangeHandler) ProposeChange(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	assetID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid asset id", http.StatusBadRequest)
		return
	}

	var input struct {
		Name         *string `json:"name"`
		Status       *string `json:"status"`
		SerialNumber *string `json:"serial_number"`
		AssetTag     *string `json:"asset_tag"`
		CategoryID   *int    `json:"category_id"`
		UnitID       *int    `json:"unit_id"`
		AcquiredAt   *string `json:"acquired_at"`
		Reason       string  `json:"reason" validate:"max=2000"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	change, err := h.Svc.ProposeChange(r.Context(), actor, assetID, workflow.ChangeInput{
		Name:         input.Name,
		Status:       input.Status,
		SerialNumber: input.SerialNumber,
		AssetTag:     input.AssetTag,
		CategoryID:   input.CategoryID,
		UnitID:       input.UnitID,
		AcquiredAt:   input.AcquiredAt,
		Reason:       input.Reason,
	})
	if err != nil {
		WorkflowError(w, err)
		return
	}

	JSON(w, http.StatusCreated, change)
}

//
// ==========================
// Decide / Cancel
// ==========================
//

func (h *ChangeHandler) ApproveChange(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Svc.ApproveChange)
}

func (h *ChangeHandler) RejectChange(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Svc.RejectChange)
}

func (h *ChangeHandler) decide(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, actor models.User, changeID int, note string) (models.AssetChangeRequest, error)) {
	actor, ok := Actor(r)
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid change id", http.StatusBadRequest)
		return
	}

	var input struct {
		Note string `json:"note" validate:"max=2000"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&input)
	}
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	change, err := fn(r.Context(), actor, id, input.Note)
	if err != nil {
		WorkflowError(w, err)
		return
	}
	JSON(w, http.StatusOK, change)
}

func (h *ChangeHandler) CancelChange(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid change id", http.StatusBadRequest)
		return
	}

	change, err := h.Svc.CancelChange(r.Context(), actor, id)
	if err != nil {
		WorkflowError(w, err)
		return
	}
	JSON(w, http.StatusOK, change)
}

//
// ==========================
// Lists
// ==========================
//

// ListForAsset returns a single asset's change history, newest first.
func (h *ChangeHandler) ListForAsset(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok || actor.AgencyID == nil {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	assetID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid asset id", http.StatusBadRequest)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	changes, err := h.Changes.ListForAsset(r.Context(), *actor.AgencyID, assetID, limit)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if changes == nil {
		changes = []models.AssetChangeRequest{}
	}
	JSON(w, http.StatusOK, changes)
}

// ListPending returns the agency's undecided change proposals.
func (h *ChangeHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok || actor.AgencyID == nil {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	changes, err := h.Changes.ListPending(r.Context(), *actor.AgencyID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if changes == nil {
		changes = []models.AssetChangeRequest{}
	}
	JSON(w, http.StatusOK, changes)
}
