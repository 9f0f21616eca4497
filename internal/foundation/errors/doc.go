// Package errors provides foundational, type-safe error primitives used across rosterwatch.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, upstream, notify, state, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: Retry behavior (never, backoff, rate limit)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - HTTP and CLI adapters for error presentation
//
// Example usage:
//
//	err := errors.UpstreamError("roster request failed").
//		Fatal().
//		WithContext("group", group).
//		WithCause(originalErr).
//		Build()
package errors
