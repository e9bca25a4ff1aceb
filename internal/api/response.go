package api

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v verbatim as the response body.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// JSONError writes {"error": message}.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorBody{Error: message})
}

// JSONErrorDetails writes {"error": message, "details": details} for
// field-level validation feedback.
func JSONErrorDetails(w http.ResponseWriter, status int, message string, details any) {
	JSON(w, status, errorBody{Error: message, Details: details})
}
