//go:build !release

package main

import (
	"log"
	"os"
	"path/filepath"
)

// Development builds read templates and static files from disk so edits show
// up on the next render. STATICBLOG_ASSETS points at a checkout elsewhere.
func init() {
	root := os.Getenv("STATICBLOG_ASSETS")
	if root == "" {
		root = "."
	}
	log.Printf("Running in debug mode, using live assets from %s.", root)
	templatesFS = os.DirFS(filepath.Join(root, "templates"))
	staticFS = os.DirFS(filepath.Join(root, "static"))
}
