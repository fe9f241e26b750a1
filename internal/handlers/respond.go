package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crucial707/asset-lifecycle/internal/workflow"
)

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WorkflowError maps the workflow error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a 500 with the generic message; the detail goes to
// the log, not the client.
func WorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workflow.ErrValidation):
		JSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, workflow.ErrNotAllowed):
		JSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, workflow.ErrNotFound):
		JSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, workflow.ErrStateConflict), errors.Is(err, workflow.ErrTagExhausted):
		JSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, workflow.ErrInconsistent):
		JSONError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, workflow.ErrNoChanges):
		JSON(w, http.StatusOK, map[string]string{"message": err.Error()})
	default:
		slog.Error("internal error", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
	}
}
