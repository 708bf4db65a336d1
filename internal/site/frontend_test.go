package site

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, fe *Frontend, raw string) Response {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return fe.Serve(context.Background(), u)
}

func TestFrontendGeneratesThenServesCache(t *testing.T) {
	f := newFixture(t)
	f.publish(t, "hello-world", date(2024, time.May, 5))
	fe := NewFrontend(f.gen)

	first := serve(t, fe, "/hello-world/")
	assert.Equal(t, http.StatusOK, first.Status)
	assert.Equal(t, OutcomeGenerated, first.Outcome)
	assert.Equal(t, htmlContentType, first.ContentType)
	assert.Contains(t, string(first.Body), "Post hello-world")
	assert.True(t, f.exists("hello-world/index.html"))

	second := serve(t, fe, "/hello-world/")
	assert.Equal(t, OutcomeCacheHit, second.Outcome)
	assert.Equal(t, first.Body, second.Body)
}

func TestFrontendServesStaleCacheVerbatim(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.file("cached"), 0o755))
	require.NoError(t, os.WriteFile(f.file("cached/index.html"), []byte("old copy"), 0o644))

	resp := serve(t, NewFrontend(f.gen), "/cached/")
	assert.Equal(t, OutcomeCacheHit, resp.Outcome)
	assert.Equal(t, "old copy", string(resp.Body))
}

func TestFrontendQueryRoutes(t *testing.T) {
	f := newFixture(t)
	f.publish(t, "hello-world", date(2024, time.May, 5))
	fe := NewFrontend(f.gen)

	resp := serve(t, fe, "/?post=hello-world")
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.True(t, f.exists("hello-world/index.html"))

	resp = serve(t, fe, "/?year=2024&month=5")
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.True(t, f.exists("archive/2024/05/index.html"))

	resp = serve(t, fe, "/")
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.True(t, f.exists("index.html"))
	assert.True(t, f.exists("page/1/index.html"))
}

func TestFrontendFeed(t *testing.T) {
	f := newFixture(t)
	resp := serve(t, NewFrontend(f.gen), "/feed.xml")
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, feedContentType, resp.ContentType)
	assert.Contains(t, string(resp.Body), "<rss")
}

func TestFrontendNotFound(t *testing.T) {
	f := newFixture(t)
	f.draft(t, "unreleased")
	fe := NewFrontend(f.gen)

	for _, raw := range []string{
		"/missing/",
		"/unreleased/",
		"/category/nothing-here/",
		"/archive/2024/13/",
		"/page/0/",
		"/?category=nothing",
		"/../etc/passwd",
	} {
		resp := serve(t, fe, raw)
		assert.Equal(t, http.StatusNotFound, resp.Status, raw)
		assert.Equal(t, OutcomeNotFound, resp.Outcome, raw)
		assert.Equal(t, htmlContentType, resp.ContentType, raw)
		assert.Contains(t, string(resp.Body), "does not exist", raw)
	}
	assert.Empty(t, f.snapshot(t), "404 responses are never written")
}

func TestFrontendRequestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	f := newFixture(t, WithMetrics(m))
	f.publish(t, "one", date(2024, time.May, 5))
	fe := NewFrontend(f.gen)

	serve(t, fe, "/one/")
	serve(t, fe, "/one/")
	serve(t, fe, "/two/")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(string(OutcomeGenerated))))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(string(OutcomeCacheHit))))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues(string(OutcomeNotFound))))
}
