// Package daemon runs the roster poll loop and its supporting services: the
// jittered pacer, the status board read by the admin HTTP server and the
// heartbeat job, and the config file watcher that applies hot settings.
//
// Only the poll loop goroutine touches the roster and calls the upstream or
// the notification sink. Everything else reads the immutable Snapshot it
// publishes, or writes the small Settings value it re-reads between calls.
package daemon
