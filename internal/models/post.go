package models

import (
	"time"
)

type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

type ContentFormat string

const (
	FormatMarkdown ContentFormat = "markdown"
	FormatHTML     ContentFormat = "html"
)

type Post struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	Title         string        `gorm:"not null" json:"title"`
	Slug          string        `gorm:"uniqueIndex;not null" json:"slug"`
	Content       string        `gorm:"type:text;not null" json:"content"`
	ContentFormat ContentFormat `gorm:"type:varchar(16);not null;default:markdown" json:"content_format"`
	Excerpt       string        `json:"excerpt"`
	Status        PostStatus    `gorm:"type:varchar(16);not null;default:draft;index" json:"status"`
	AuthorID      uint          `gorm:"not null;index" json:"author_id"`
	Author        User          `gorm:"foreignKey:AuthorID" json:"author"`
	FeaturedImage string        `json:"featured_image,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	// PublishedAt is set once, on the first transition to published.
	PublishedAt *time.Time `gorm:"index" json:"published_at,omitempty"`
	Categories  []Category `gorm:"many2many:post_categories;" json:"categories,omitempty"`
}

// IsPublished reports whether the post is publicly visible.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished && p.PublishedAt != nil
}

// PublishedTime returns the publish timestamp or the zero time for drafts.
func (p *Post) PublishedTime() time.Time {
	if p.PublishedAt == nil {
		return time.Time{}
	}
	return *p.PublishedAt
}
