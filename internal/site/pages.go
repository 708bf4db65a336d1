package site

import (
	"sort"
	"time"

	"staticblog/internal/models"
)

// ListingPage is one page of the home listing.
type ListingPage struct {
	Posts      []models.Post
	Page       int
	TotalPages int
}

// PostPage is a single post with its categories and chronological neighbours.
type PostPage struct {
	Post       models.Post
	Categories []models.Category
	// Prev is the nearest older post, Next the nearest newer one.
	Prev *models.Post
	Next *models.Post
}

type CategoryPage struct {
	Category models.Category
	Posts    []models.Post
}

type MonthArchivePage struct {
	Year    int
	Month   int
	Posts   []models.Post
	HasPrev bool
	HasNext bool
}

type YearArchivePage struct {
	Year    int
	Posts   []models.Post
	HasPrev bool
	HasNext bool
}

type FeedPage struct {
	Posts []models.Post
}

// MonthGroup holds the posts of one month of a yearly archive.
type MonthGroup struct {
	Month int
	Posts []models.Post
}

// GroupByMonth buckets posts by UTC publish month, newest month first. Post
// order inside a bucket is preserved.
func GroupByMonth(posts []models.Post) []MonthGroup {
	var groups []MonthGroup
	index := make(map[int]int)
	for _, p := range posts {
		m := int(p.PublishedTime().UTC().Month())
		i, ok := index[m]
		if !ok {
			i = len(groups)
			index[m] = i
			groups = append(groups, MonthGroup{Month: m})
		}
		groups[i].Posts = append(groups[i].Posts, p)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Month > groups[j].Month
	})
	return groups
}

// PrevMonth and NextMonth step across year boundaries.
func PrevMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

func NextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

// MonthBounds returns the UTC half-open interval [start, end) of a month.
func MonthBounds(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// YearBounds returns the UTC half-open interval [start, end) of a year.
func YearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}
