package site

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
)

// Outcome is the terminal state of a front controller request.
type Outcome string

const (
	OutcomeCacheHit  Outcome = "cache_hit"
	OutcomeGenerated Outcome = "generated"
	OutcomeNotFound  Outcome = "not_found"
)

const (
	htmlContentType = "text/html; charset=utf-8"
	feedContentType = "application/rss+xml; charset=utf-8"
)

// Response is what the front controller decided to send.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
	Outcome     Outcome
}

// Frontend serves generated files, generating a missing route once on demand.
type Frontend struct {
	gen *Generator
}

func NewFrontend(gen *Generator) *Frontend {
	return &Frontend{gen: gen}
}

// Serve resolves u to a route and returns the cached file, a freshly
// generated one, or the not-found document. There are no retries.
func (f *Frontend) Serve(ctx context.Context, u *url.URL) Response {
	resp := f.serve(ctx, u)
	f.gen.Metrics().ObserveRequest(resp.Outcome)
	return resp
}

func (f *Frontend) serve(ctx context.Context, u *url.URL) Response {
	route, err := ParseRequest(u)
	if err != nil {
		return f.notFound(ctx)
	}

	path := f.gen.Writer().FilePath(route)
	if body, err := os.ReadFile(path); err == nil {
		return Response{Status: http.StatusOK, ContentType: contentType(route), Body: body, Outcome: OutcomeCacheHit}
	}

	if _, err := f.gen.Generate(ctx, route); err != nil {
		if !errors.Is(err, ErrNoContent) {
			log.Printf("On-demand generation of %s failed: %v", route, err)
		}
		return f.notFound(ctx)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Generated file for %s is unreadable: %v", route, err)
		return f.notFound(ctx)
	}
	return Response{Status: http.StatusOK, ContentType: contentType(route), Body: body, Outcome: OutcomeGenerated}
}

func (f *Frontend) notFound(ctx context.Context) Response {
	body, err := f.gen.RenderNotFound(ctx)
	if err != nil {
		log.Printf("Failed to render 404 page: %v", err)
		body = []byte("404 page not found")
	}
	return Response{Status: http.StatusNotFound, ContentType: htmlContentType, Body: body, Outcome: OutcomeNotFound}
}

func contentType(route Route) string {
	if route.Kind == KindFeed {
		return feedContentType
	}
	return htmlContentType
}
