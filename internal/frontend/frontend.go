//go:build !embed

// Package frontend optionally carries the built web dashboard inside the
// binary. Without the embed tag the server falls back to serving the
// dashboard from the filesystem.
package frontend

import "net/http"

// Handler returns the embedded frontend, or nil when built without the
// embed tag.
func Handler() http.Handler {
	return nil
}
