// Package state persists the roster between runs.
//
// The store is a single JSON document, an array of {"name", "lastEvent"}
// objects, that is replaced atomically on every save: the new content is
// written to a temporary file in the same directory, synced, and renamed over
// the previous file. A crash therefore leaves either the old or the new
// document on disk, never a torn one.
package state
