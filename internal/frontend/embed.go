//go:build embed

// Package frontend optionally carries the built web dashboard inside the
// binary. Build with -tags embed after copying the dashboard's production
// build into static/.
package frontend

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var dashboard embed.FS

// Handler serves the embedded dashboard.
func Handler() http.Handler {
	sub, err := fs.Sub(dashboard, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
