package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/crucial707/asset-lifecycle/internal/models"
	"github.com/crucial707/asset-lifecycle/internal/repo"
	"github.com/crucial707/asset-lifecycle/internal/workflow"
	"github.com/go-chi/chi/v5"
)

// ReturnHandler serves the return-and-verification workflow.
type ReturnHandler struct {
	Svc     *workflow.Service
	Returns *repo.ReturnRepo
}

//
// ==========================
// Initiate Return
// ==========================
//

func (h *ReturnHandler) InitiateReturn(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		AssetID int    `json:"asset_id" validate:"required"`
		Reason  string `json:"reason" validate:"max=2000"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ret, err := h.Svc.InitiateReturn(r.Context(), actor, input.AssetID, input.Reason)
	if err != nil {
		WorkflowError(w, err)
		return
	}

	JSON(w, http.StatusCreated, ret)
}

//
// ==========================
// Verify Received
// ==========================
//

func (h *ReturnHandler) VerifyReceived(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid return id", http.StatusBadRequest)
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

	ret, err := h.Svc.VerifyReturnReceived(r.Context(), actor, id, input.Note)
	if err != nil {
		WorkflowError(w, err)
		return
	}
	JSON(w, http.StatusOK, ret)
}

//
// ==========================
// Cancel Return
// ==========================
//

func (h *ReturnHandler) CancelReturn(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid return id", http.StatusBadRequest)
		return
	}

	ret, err := h.Svc.CancelReturn(r.Context(), actor, id)
	if err != nil {
		WorkflowError(w, err)
		return
	}
	JSON(w, http.StatusOK, ret)
}

//
// ==========================
// Return Queue
// ==========================
//

// ListQueue returns the agency's return requests in a given status
// (default pending_ict).
func (h *ReturnHandler) ListQueue(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok || actor.AgencyID == nil {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		status = models.ReturnPendingICT
	}

	rets, err := h.Returns.ListByStatus(r.Context(), *actor.AgencyID, status)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if rets == nil {
		rets = []models.AssetReturnRequest{}
	}
	JSON(w, http.StatusOK, rets)
}
