package site

import (
	"testing"
	"time"

	"staticblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSite() Site {
	return Site{
		Settings: SiteSettings{
			Title:         "Notes",
			URL:           "https://example.com",
			Language:      "en-us",
			PostsPerPage:  10,
			ExcerptLength: 150,
		},
		Categories: []models.Category{{Name: "Go", Slug: "go"}},
	}
}

func TestRenderPost(t *testing.T) {
	r, err := NewRenderer(templatesFS(t))
	require.NoError(t, err)
	at := date(2024, time.February, 29)

	doc, err := r.Render(KindPost, &PostPage{
		Post: models.Post{
			Title:         "Fish & <Chips>",
			Slug:          "fish-chips",
			Content:       "# Heading\n\nSome *markdown*.",
			ContentFormat: models.FormatMarkdown,
			PublishedAt:   &at,
			Author:        models.User{Username: "alice"},
		},
		Categories: []models.Category{{Name: "Go", Slug: "go"}},
		Prev:       &models.Post{Title: "Before", Slug: "before"},
	}, testSite())
	require.NoError(t, err)

	html := string(doc)
	assert.Contains(t, html, "<title>Fish &amp; &lt;Chips&gt; - Notes</title>")
	assert.Contains(t, html, `<link rel="canonical" href="https://example.com/fish-chips/">`)
	assert.Contains(t, html, "<em>markdown</em>")
	assert.Contains(t, html, `href="/category/go/"`)
	assert.Contains(t, html, `<a class="prev" href="/before/">`)
	assert.NotContains(t, html, `class="next"`)
	assert.Contains(t, html, "February 29, 2024")
}

func TestRenderMonthArchiveLinks(t *testing.T) {
	r, err := NewRenderer(templatesFS(t))
	require.NoError(t, err)
	at := date(2024, time.January, 10)

	doc, err := r.Render(KindMonth, &MonthArchivePage{
		Year:    2024,
		Month:   1,
		Posts:   []models.Post{{Title: "Jan", Slug: "jan", PublishedAt: &at}},
		HasPrev: true,
	}, testSite())
	require.NoError(t, err)

	assert.Contains(t, string(doc), `href="/archive/2023/12/"`)
	assert.NotContains(t, string(doc), `href="/archive/2024/02/"`)
}

func TestRenderRejectsMismatchedData(t *testing.T) {
	r, err := NewRenderer(templatesFS(t))
	require.NoError(t, err)

	_, err = r.Render(KindPost, &ListingPage{}, testSite())
	assert.Error(t, err)
	_, err = r.Render(KindFeed, nil, testSite())
	assert.Error(t, err)
}

func TestRenderMinified(t *testing.T) {
	plain, err := NewRenderer(templatesFS(t))
	require.NoError(t, err)
	minified, err := NewRenderer(templatesFS(t), WithMinify())
	require.NoError(t, err)
	page := &ListingPage{Page: 1, TotalPages: 1}

	a, err := plain.Render(KindHome, page, testSite())
	require.NoError(t, err)
	b, err := minified.Render(KindHome, page, testSite())
	require.NoError(t, err)

	assert.Less(t, len(b), len(a))
	assert.Contains(t, string(b), "</html>")

	feed, err := minified.Render(KindFeed, &FeedPage{}, testSite())
	require.NoError(t, err)
	assert.Contains(t, string(feed), "<rss")
}
