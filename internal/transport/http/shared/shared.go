// Package shared centralizes the JSON response envelopes used by every
// handler so error translation stays consistent across modules.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "authgate/pkg/domain-errors"
)

// ErrorResponse is the uniform error envelope. Error is the stable
// machine-readable code; Message is caller-safe and never carries internals.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError translates a domain error into the HTTP envelope. Errors that
// never went through pkg/domain-errors collapse to a generic 500 so store
// details and stack traces cannot leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), ErrorResponse{
		Error:   string(code),
		Message: dErrors.MessageOf(err),
	})
}
