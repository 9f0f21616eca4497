package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "config.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "config.yaml" {
			t.Errorf("expected context file=config.yaml, got %v", file)
		}
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ConfigError("test error").Build()

		if !IsClassified(err) {
			t.Error("expected error to be classified")
		}
		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if !HasSeverity(err, SeverityFatal) {
			t.Error("expected error to have fatal severity")
		}
		if err.CanRetry() {
			t.Error("expected config error to not be retryable")
		}
		if !err.IsFatal() {
			t.Error("expected config error to be fatal")
		}
	})

	t.Run("Detection through fmt wrapping", func(t *testing.T) {
		inner := StateError("save failed").Build()
		wrapped := fmt.Errorf("poll pass: %w", inner)

		if !HasCategory(wrapped, CategoryState) {
			t.Error("expected wrapped error to keep state category")
		}
		if !HasSeverity(wrapped, SeverityFatal) {
			t.Error("expected wrapped error to keep fatal severity")
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Error("expected plain errors to fall back to internal")
		}
	})

	t.Run("Sentinel matching", func(t *testing.T) {
		sentinel := NotFoundError("state file not found").Build()
		err := NotFoundError("state file not found").WithContext("path", "/tmp/x").Build()
		if !errors.Is(err, sentinel) {
			t.Error("expected errors.Is to match on category and message")
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Fluent API", func(t *testing.T) {
		originalErr := errors.New("original error")
		err := NetworkError("network failure").
			WithCause(originalErr).
			WithSeverity(SeverityWarning).
			Retryable().
			WithContext("host", "example.com").
			WithContext("port", 443).
			Build()

		if err.Category() != CategoryNetwork {
			t.Errorf("expected category %s, got %s", CategoryNetwork, err.Category())
		}
		if err.Severity() != SeverityWarning {
			t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
		}
		if err.RetryStrategy() != RetryBackoff {
			t.Errorf("expected retry strategy %s, got %s", RetryBackoff, err.RetryStrategy())
		}
		if !errors.Is(err, originalErr) {
			t.Error("expected error to wrap original error")
		}

		host, _ := err.Context().GetString("host")
		if host != "example.com" {
			t.Errorf("expected host context 'example.com', got %s", host)
		}
	})

	t.Run("Convenience constructors", func(t *testing.T) {
		tests := []struct {
			name     string
			builder  *ErrorBuilder
			category ErrorCategory
			severity ErrorSeverity
			retry    RetryStrategy
		}{
			{"ConfigError", ConfigError("test"), CategoryConfig, SeverityFatal, RetryNever},
			{"ValidationError", ValidationError("test"), CategoryValidation, SeverityFatal, RetryNever},
			{"NotFoundError", NotFoundError("test"), CategoryNotFound, SeverityError, RetryNever},
			{"NetworkError", NetworkError("test"), CategoryNetwork, SeverityError, RetryBackoff},
			{"UpstreamError", UpstreamError("test"), CategoryUpstream, SeverityError, RetryBackoff},
			{"NotifyError", NotifyError("test"), CategoryNotify, SeverityError, RetryBackoff},
			{"StateError", StateError("test"), CategoryState, SeverityFatal, RetryNever},
			{"DaemonError", DaemonError("test"), CategoryDaemon, SeverityFatal, RetryNever},
			{"InternalError", InternalError("test"), CategoryInternal, SeverityFatal, RetryNever},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.builder.Build()
				if err.Category() != tt.category {
					t.Errorf("expected category %s, got %s", tt.category, err.Category())
				}
				if err.Severity() != tt.severity {
					t.Errorf("expected severity %s, got %s", tt.severity, err.Severity())
				}
				if err.RetryStrategy() != tt.retry {
					t.Errorf("expected retry strategy %s, got %s", tt.retry, err.RetryStrategy())
				}
			})
		}
	})

	t.Run("WithContext copies", func(t *testing.T) {
		base := UpstreamError("profile lookup failed").Build()
		a := base.WithContext("member", "alice")
		b := base.WithContext("member", "bob")

		am, _ := a.Context().GetString("member")
		bm, _ := b.Context().GetString("member")
		if am != "alice" || bm != "bob" {
			t.Errorf("expected independent contexts, got %q and %q", am, bm)
		}
		if _, ok := base.Context().Get("member"); ok {
			t.Error("expected base context to stay untouched")
		}
	})
}

func TestErrorContext(t *testing.T) {
	t.Run("Context operations", func(t *testing.T) {
		ctx := make(ErrorContext)
		ctx = ctx.Set("key1", "value1")
		ctx = ctx.Set("key2", 42)

		value1, exists1 := ctx.GetString("key1")
		if !exists1 || value1 != "value1" {
			t.Errorf("expected key1=value1, got %v", value1)
		}

		value2, exists2 := ctx.Get("key2")
		if !exists2 || value2 != 42 {
			t.Errorf("expected key2=42, got %v", value2)
		}

		if _, exists3 := ctx.Get("nonexistent"); exists3 {
			t.Error("expected nonexistent key to not exist")
		}
	})
}
