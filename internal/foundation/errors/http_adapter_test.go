package errors

import (
	"encoding/json"
	stdErrors "errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, http.StatusOK},
		{"validation error", ValidationError("invalid input").Build(), http.StatusBadRequest},
		{"not found", NotFoundError("no snapshot").Build(), http.StatusNotFound},
		{"upstream error", UpstreamError("bad gateway").Build(), http.StatusBadGateway},
		{"daemon error", DaemonError("stopped").Build(), http.StatusServiceUnavailable},
		{"plain error", stdErrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.StatusCodeFor(tt.err); got != tt.expected {
				t.Errorf("StatusCodeFor() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)

	adapter.WriteErrorResponse(rec, req, NotFoundError("no poll pass completed yet").WithContext("group", "Example").Build())

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}

	var payload HTTPErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Code != "not_found" || payload.Error != "no poll pass completed yet" {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if payload.Details["group"] != "Example" {
		t.Errorf("expected group detail, got %+v", payload.Details)
	}
}
