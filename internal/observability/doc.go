// Package observability builds the process logger and carries per-context
// log fields.
package observability
