package repository

import (
	"context"
	"sort"
	"time"

	"staticblog/internal/models"

	"gorm.io/gorm"
)

// ContentStore is the read-only view of the database used by the site generator.
type ContentStore struct {
	posts      *PostRepository
	categories *CategoryRepository
	settings   *SettingRepository
}

func NewContentStore(db *gorm.DB) *ContentStore {
	return &ContentStore{
		posts:      NewPostRepository(db),
		categories: NewCategoryRepository(db),
		settings:   NewSettingRepository(db),
	}
}

func (s *ContentStore) CountPublished(ctx context.Context) (int64, error) {
	return s.posts.CountPublished(ctx)
}

func (s *ContentStore) FindPublishedPage(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return s.posts.FindPublishedPage(ctx, limit, offset)
}

func (s *ContentStore) FindAllPublished(ctx context.Context) ([]models.Post, error) {
	return s.posts.FindAllPublished(ctx)
}

func (s *ContentStore) FindPublishedBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.posts.FindPublishedBySlug(ctx, slug)
}

func (s *ContentStore) FindCategoriesForPost(ctx context.Context, postID uint) ([]models.Category, error) {
	return s.categories.FindByPost(ctx, postID)
}

func (s *ContentStore) FindAllCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories.FindAll(ctx)
}

func (s *ContentStore) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.categories.FindBySlug(ctx, slug)
}

func (s *ContentStore) FindPublishedByCategory(ctx context.Context, categoryID uint) ([]models.Post, error) {
	return s.posts.FindPublishedByCategory(ctx, categoryID)
}

// FindArchiveMonths returns the distinct (year, month) pairs of published
// posts in UTC, newest first.
func (s *ContentStore) FindArchiveMonths(ctx context.Context) ([]models.ArchiveMonth, error) {
	times, err := s.posts.FindPublishedTimes(ctx)
	if err != nil {
		return nil, err
	}
	var months []models.ArchiveMonth
	seen := make(map[models.ArchiveMonth]bool)
	for _, t := range times {
		t = t.UTC()
		m := models.ArchiveMonth{Year: t.Year(), Month: int(t.Month())}
		if !seen[m] {
			seen[m] = true
			months = append(months, m)
		}
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year > months[j].Year
		}
		return months[i].Month > months[j].Month
	})
	return months, nil
}

func (s *ContentStore) FindPublishedBetween(ctx context.Context, from, to time.Time) ([]models.Post, error) {
	return s.posts.FindPublishedBetween(ctx, from, to)
}

func (s *ContentStore) CountPublishedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return s.posts.CountPublishedBetween(ctx, from, to)
}

func (s *ContentStore) FindAdjacentPublished(ctx context.Context, at time.Time, older bool) (*models.Post, error) {
	return s.posts.FindAdjacentPublished(ctx, at, older)
}

func (s *ContentStore) GetAllSettings(ctx context.Context) (map[string]string, error) {
	return s.settings.GetAllSettings(ctx)
}
