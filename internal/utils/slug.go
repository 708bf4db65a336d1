package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// ErrSlugCollision is returned by ResolveSlug under RejectCollision.
var ErrSlugCollision = errors.New("slug already in use")

// CollisionPolicy decides what happens when a slug is already taken.
type CollisionPolicy int

const (
	// Disambiguate appends a short random suffix until the slug is free.
	Disambiguate CollisionPolicy = iota
	// RejectCollision fails with ErrSlugCollision.
	RejectCollision
)

const (
	fallbackSlug      = "untitled"
	suffixLength      = 6
	maxSuffixAttempts = 8
)

// symbolWords stops the transliterator from spelling symbols out as words.
var symbolWords = strings.NewReplacer("&", " ", "@", " ")

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	canonicalSlug   = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// SlugExists reports whether slug is taken by some other entity.
type SlugExists func(slug string) (bool, error)

// Slugify turns free text into a URL-safe slug: transliterated, lowercase,
// runs of characters outside [a-z0-9] collapsed into one hyphen, no leading
// or trailing hyphen. Symbols such as & and @ are separators, not words.
// It may return "".
func Slugify(text string) string {
	s := strings.ToLower(slug.Make(symbolWords.Replace(text)))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// IsCanonicalSlug reports whether s is already in Slugify's output form.
func IsCanonicalSlug(s string) bool {
	return canonicalSlug.MatchString(s)
}

// ResolveSlug derives a collision-free slug from candidate.
func ResolveSlug(candidate string, exists SlugExists, policy CollisionPolicy) (string, error) {
	base := Slugify(candidate)
	if base == "" {
		base = fallbackSlug
	}

	taken, err := exists(base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}
	if policy == RejectCollision {
		return "", fmt.Errorf("%w: %s", ErrSlugCollision, base)
	}

	for i := 0; i < maxSuffixAttempts; i++ {
		next := base + "-" + randomSuffix()
		taken, err := exists(next)
		if err != nil {
			return "", err
		}
		if !taken {
			return next, nil
		}
	}
	return "", fmt.Errorf("%w: no free suffix for %s", ErrSlugCollision, base)
}

func randomSuffix() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:suffixLength]
}
