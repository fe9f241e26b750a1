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

// RequestHandler serves the request-and-assignment workflow.
type RequestHandler struct {
	Svc      *workflow.Service
	Requests *repo.RequestRepo
}

//
// ==========================
// Create Request
// ==========================
//

func (h *RequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		CategoryID    int    `json:"category_id" validate:"required"`
		UnitID        *int   `json:"unit_id"`
		Justification string `json:"justification" validate:"required,min=5,max=2000"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	req, err := h.Svc.CreateRequest(r.Context(), actor, workflow.CreateRequestInput{
		CategoryID:    input.CategoryID,
		UnitID:        input.UnitID,
		Justification: input.Justification,
	})
	if err != nil {
		WorkflowError(w, err)
		return
	}

	JSON(w, http.StatusCreated, req)
}

//
// ==========================
// Approve / Reject
// ==========================
//

func (h *RequestHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	req, err := h.Svc.ApproveRequest(r.Context(), actor, id)
	if err != nil {
		WorkflowError(w, err)
		return
	}
	JSON(w, http.StatusOK, req)
}

func (h *RequestHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	var input struct {
		Reason string `json:"reason" validate:"required,min=3,max=2000"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	req, err := h.Svc.RejectRequest(r.Context(), actor, id, input.Reason)
	if err != nil {
		WorkflowError(w, err)
		return
	}
	JSON(w, http.StatusOK, req)
}

//
// ==========================
// Assign Asset
// ==========================
//

func (h *RequestHandler) AssignAsset(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	var input struct {
		AssetID int `json:"asset_id" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	req, err := h.Svc.AssignAsset(r.Context(), actor, id, input.AssetID)
	if err != nil {
		WorkflowError(w, err)
		return
	}
	JSON(w, http.StatusOK, req)
}

//
// ==========================
// Verify Receipt / Cancel
// ==========================
//

func (h *RequestHandler) VerifyReceipt(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	req, err := h.Svc.VerifyReceipt(r.Context(), actor, id)
	if err != nil {
		WorkflowError(w, err)
		return
	}
	JSON(w, http.StatusOK, req)
}

func (h *RequestHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}

	req, err := h.Svc.CancelRequest(r.Context(), actor, id)
	if err != nil {
		WorkflowError(w, err)
		return
	}
	JSON(w, http.StatusOK, req)
}

//
// ==========================
// Lists
// ==========================
//

// ListMine returns the actor's own requests.
func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok || actor.AgencyID == nil {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	reqs, err := h.Requests.ListByRequester(r.Context(), *actor.AgencyID, actor.ID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if reqs == nil {
		reqs = []models.AssetRequest{}
	}
	JSON(w, http.StatusOK, reqs)
}

// ListQueue returns the agency's requests in a given status
// (default pending_ict, the custodian work queue).
func (h *RequestHandler) ListQueue(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok || actor.AgencyID == nil {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		status = models.RequestPendingICT
	}

	reqs, err := h.Requests.ListByStatus(r.Context(), *actor.AgencyID, status)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if reqs == nil {
		reqs = []models.AssetRequest{}
	}
	JSON(w, http.StatusOK, reqs)
}

func (h *RequestHandler) actorAndID(w http.ResponseWriter, r *http.Request) (models.User, int, bool) {
	actor, ok := Actor(r)
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return models.User{}, 0, false
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid request id", http.StatusBadRequest)
		return models.User{}, 0, false
	}
	return actor, id, true
}
