// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

// Package web serves the embedded registration and login form.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed ui/*
var uiEmbedFS embed.FS

var uiFS fs.FS

func init() {
	sub, err := fs.Sub(uiEmbedFS, "ui")
	if err != nil {
		// If this fails, the binary is built incorrectly; keep the API functional.
		uiFS = nil
		return
	}
	uiFS = sub
}

// Register mounts the static form at the router root.
func Register(r chi.Router) {
	if uiFS == nil {
		return
	}
	r.Handle("/*", http.FileServer(http.FS(uiFS)))
}
