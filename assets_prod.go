//go:build release

package main

import (
	"embed"
	"io/fs"
	"log"
)

//go:embed all:templates
var embedTemplatesFS embed.FS

//go:embed all:static
var embedStaticFS embed.FS

func init() {
	var err error
	templatesFS, err = fs.Sub(embedTemplatesFS, "templates")
	if err != nil {
		log.Fatalf("Failed to open embedded templates: %v", err)
	}
	staticFS, err = fs.Sub(embedStaticFS, "static")
	if err != nil {
		log.Fatalf("Failed to open embedded static files: %v", err)
	}
}
