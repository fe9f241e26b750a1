package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/crucial707/asset-lifecycle/internal/workflow"
)

// ExitHandler serves the offboarding cascade.
type ExitHandler struct {
	Svc *workflow.Service
}

// ExitOrganization records the actor's departure, opens return requests for
// everything they hold, and suspends their communication lines. The typed
// confirmation word must match exactly; the workflow rejects anything else.
func (h *ExitHandler) ExitOrganization(w http.ResponseWriter, r *http.Request) {
	actor, ok := Actor(r)
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		Reason  string `json:"reason" validate:"required,oneof=resigned reassigned"`
		Confirm string `json:"confirm" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.Svc.ExitOrganization(r.Context(), actor, input.Reason, input.Confirm)
	if err != nil {
		WorkflowError(w, err)
		return
	}

	JSON(w, http.StatusCreated, result)
}
