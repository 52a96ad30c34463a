// Package errors provides foundational, type-safe error primitives used across fragmentloader.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (fetch, target, transform, config, ...)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: Retry behavior (never, immediate, backoff)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for error presentation and exit codes
//
// Example usage:
//
//	err := errors.FetchError("header", "fragment fetch failed").
//		WithContext("url", fragmentURL).
//		WithCause(originalErr).
//		Build()
package errors
