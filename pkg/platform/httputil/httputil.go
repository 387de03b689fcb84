// Package httputil writes the JSON response shapes shared by every handler.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "reentry/pkg/domain-errors"
)

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON writes v with the given status. Encoding failures at this point
// cannot be reported to the client anymore; they are swallowed.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a coded error onto its HTTP status. Internal details never
// reach the client; every other code carries its message as the description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorBody{Error: string(code)}

	switch code {
	case dErrors.CodeInternal, dErrors.CodeInvariantViolation:
		// Keep internals out of responses.
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			body.Description = de.Message
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}
