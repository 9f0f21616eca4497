// Package upstream talks to the public group roster listing and the
// per-member activity feed over HTTP.
package upstream
