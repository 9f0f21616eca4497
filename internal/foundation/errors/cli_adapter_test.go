package errors

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

type customError struct{ msg string }

func (e *customError) Error() string { return e.msg }

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation error", ValidationError("invalid input").Build(), 2},
		{"config error", ConfigError("bad config").Build(), 7},
		{"upstream error", UpstreamError("roster fetch failed").Fatal().Build(), 8},
		{"notify error", NotifyError("webhook rejected").Build(), 8},
		{"state error", StateError("save failed").Build(), 11},
		{"daemon error", DaemonError("loop stopped").Build(), 12},
		{"unclassified error", &customError{msg: "unknown error"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, stderr bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	adapter := NewCLIErrorAdapter(false, logger)
	adapter.stderr = &stderr

	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(UpstreamError("roster request failed").Fatal().WithContext("group", "Example").Build())

	if code != 8 {
		t.Fatalf("expected exit code 8, got %d", code)
	}
	if !strings.Contains(stderr.String(), "roster request failed") {
		t.Errorf("expected diagnostic on stderr, got %q", stderr.String())
	}
	if !strings.Contains(logs.String(), "category=upstream") {
		t.Errorf("expected fatal error to be logged, got %q", logs.String())
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	verbose := NewCLIErrorAdapter(true, nil)
	err := StateError("save failed").WithCause(&customError{msg: "disk full"}).Build()

	if got := quiet.FormatError(err); got != "Error: save failed (state)" {
		t.Errorf("unexpected quiet format: %q", got)
	}
	if got := verbose.FormatError(err); !strings.Contains(got, "disk full") {
		t.Errorf("expected verbose format to include cause, got %q", got)
	}
}
