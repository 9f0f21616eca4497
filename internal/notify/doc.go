// Package notify delivers batches of newly observed activity to the
// configured channels: a Discord-compatible webhook, a NATS JetStream subject,
// or both.
package notify
