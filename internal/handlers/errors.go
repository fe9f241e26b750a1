package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrMessageInternal is the only text a 500 response carries. Failure detail
// belongs in the log, not on the wire.
const ErrMessageInternal = "internal server error"

// JSONError writes a single-field error body.
func JSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// JSONValidationError writes an error body with per-field details attached
// when available.
func JSONValidationError(w http.ResponseWriter, message string, fields map[string]string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"error": message}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	json.NewEncoder(w).Encode(body)
}
