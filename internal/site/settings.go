package site

import (
	"strconv"
	"strings"

	"staticblog/internal/constants"
	"staticblog/internal/models"
)

const (
	DefaultPostsPerPage  = 10
	DefaultExcerptLength = 150
	DefaultLanguage      = "en-us"
	// FeedSize is the number of posts in the RSS feed.
	FeedSize = 20
	// FeedExcerptLength is the smallest excerpt budget of feed items.
	FeedExcerptLength = 300
)

// SiteSettings is the typed view of the settings table used while rendering.
type SiteSettings struct {
	Title         string
	Description   string
	URL           string
	Language      string
	AdminEmail    string
	PostsPerPage  int
	ExcerptLength int
}

// SettingsFromMap reads settings, falling back to defaults for missing or
// malformed numeric values.
func SettingsFromMap(m map[string]string) SiteSettings {
	s := SiteSettings{
		Title:         m[constants.SettingSiteTitle],
		Description:   m[constants.SettingSiteDescription],
		URL:           strings.TrimRight(m[constants.SettingSiteURL], "/"),
		Language:      m[constants.SettingSiteLanguage],
		AdminEmail:    m[constants.SettingAdminEmail],
		PostsPerPage:  positiveInt(m[constants.SettingPostsPerPage], DefaultPostsPerPage),
		ExcerptLength: positiveInt(m[constants.SettingExcerptLength], DefaultExcerptLength),
	}
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	return s
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// FeedExcerptBudget is the excerpt length of feed items, always longer than
// the page excerpt. Feed items derive it from the content, ignoring any
// hand-written excerpt.
func (s SiteSettings) FeedExcerptBudget() int {
	return max(FeedExcerptLength, 2*s.ExcerptLength)
}

// AbsoluteURL joins the canonical site URL with a root-relative path.
func (s SiteSettings) AbsoluteURL(path string) string {
	return s.URL + path
}

// Site is the shared context of every rendered page.
type Site struct {
	Settings   SiteSettings
	Categories []models.Category
}
