package utils

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func never(string) (bool, error) { return false, nil }

func TestResolveSlugIsAlwaysCanonical(t *testing.T) {
	titles := []string{
		"Hello World",
		"  --Leading and trailing--  ",
		"Déjà vu: café & crème",
		"C++ / Go / Rust!!!",
		"multiple     spaces\tand\nnewlines",
		"UPPER_case_With_Underscores",
		"你好，世界",
		"!!!",
		"",
		"a--b__c..d",
		"Ünïcödé Çhäräctérs 2024",
	}
	for _, title := range titles {
		slug, err := ResolveSlug(title, never, Disambiguate)
		require.NoError(t, err, title)
		assert.Regexp(t, slugPattern, slug, "title %q", title)
		assert.True(t, IsCanonicalSlug(slug))
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello World", "hello-world"},
		{"Hello, World!", "hello-world"},
		{"  spaced  out  ", "spaced-out"},
		{"already-a-slug", "already-a-slug"},
		{"!!!", ""},
		{"Tom & Jerry", "tom-jerry"},
		{"me@home", "me-home"},
		{"Café Olé", "cafe-ole"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestResolveSlugFallsBackToUntitled(t *testing.T) {
	slug, err := ResolveSlug("???", never, Disambiguate)
	require.NoError(t, err)
	assert.Equal(t, "untitled", slug)
}

func TestResolveSlugDisambiguatesCollisions(t *testing.T) {
	taken := map[string]bool{"hello-world": true}
	exists := func(s string) (bool, error) { return taken[s], nil }

	slug, err := ResolveSlug("Hello World", exists, Disambiguate)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(slug, "hello-world-"), slug)
	assert.Len(t, slug, len("hello-world-")+6)
	assert.Regexp(t, slugPattern, slug)
}

func TestResolveSlugRejectsCollisions(t *testing.T) {
	exists := func(s string) (bool, error) { return s == "news", nil }

	_, err := ResolveSlug("News", exists, RejectCollision)
	assert.ErrorIs(t, err, ErrSlugCollision)

	slug, err := ResolveSlug("Updates", exists, RejectCollision)
	require.NoError(t, err)
	assert.Equal(t, "updates", slug)
}

func TestResolveSlugPropagatesLookupErrors(t *testing.T) {
	boom := errors.New("database is locked")
	_, err := ResolveSlug("x", func(string) (bool, error) { return false, boom }, Disambiguate)
	assert.ErrorIs(t, err, boom)
}
