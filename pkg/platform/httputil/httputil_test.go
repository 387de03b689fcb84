package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "reentry/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal" {
			t.Fatalf("expected error code internal, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("validation error includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeValidation, "notes are required"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "validation" {
			t.Fatalf("expected error code validation, got %q", body["error"])
		}
		if body["error_description"] != "notes are required" {
			t.Fatalf("expected error_description for validation errors")
		}
	})

	t.Run("invalid transition maps to conflict", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInvalidTransition, "no transition"))

		if w.Code != http.StatusConflict {
			t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
		}
	})
}
