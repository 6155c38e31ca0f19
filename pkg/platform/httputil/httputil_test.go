package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "jesa/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "mongo write failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("not found includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeNotFound, "faculty not found"))

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "not_found" {
			t.Fatalf("expected error code not_found, got %q", body["error"])
		}
		if body["error_description"] != "faculty not found" {
			t.Fatalf("expected error_description to be returned for not found")
		}
	})
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"Name"`
	}

	t.Run("decodes object", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"Name":"Sonal"}`))
		var p payload
		if err := DecodeJSON(httptest.NewRecorder(), r, &p); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Name != "Sonal" {
			t.Fatalf("expected Sonal, got %q", p.Name)
		}
	})

	t.Run("empty body is bad request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
		var p payload
		err := DecodeJSON(httptest.NewRecorder(), r, &p)
		if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
			t.Fatalf("expected bad request, got %v", err)
		}
	})

	t.Run("malformed body is bad request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"Name":`))
		var p payload
		err := DecodeJSON(httptest.NewRecorder(), r, &p)
		if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
			t.Fatalf("expected bad request, got %v", err)
		}
	})

	t.Run("wrong field type names the field without decoder internals", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"Name":42}`))
		var p payload
		err := DecodeJSON(httptest.NewRecorder(), r, &p)
		if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
			t.Fatalf("expected bad request, got %v", err)
		}
		msg := dErrors.MessageOf(err)
		if msg != "invalid request body: field Name must be a string" {
			t.Fatalf("unexpected message %q", msg)
		}
		if strings.Contains(msg, "Go struct") || strings.Contains(msg, "unmarshal") {
			t.Fatalf("message leaks decoder detail: %q", msg)
		}
	})

	t.Run("syntax error hides decoder detail", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"Name" "x"}`))
		var p payload
		err := DecodeJSON(httptest.NewRecorder(), r, &p)
		if got := dErrors.MessageOf(err); got != "invalid request body: malformed JSON" {
			t.Fatalf("unexpected message %q", got)
		}
	})

	t.Run("oversized body is bad request", func(t *testing.T) {
		big := `{"Name":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		var p payload
		err := DecodeJSON(httptest.NewRecorder(), r, &p)
		if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
			t.Fatalf("expected bad request, got %v", err)
		}
	})
}
