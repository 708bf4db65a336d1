package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"staticblog/internal/constants"
	"staticblog/internal/models"
	"staticblog/internal/repository"
	"staticblog/internal/utils"

	"gorm.io/gorm"
)

// reservedSlugs are first path segments owned by something other than posts.
var reservedSlugs = map[string]bool{
	"admin":    true,
	"static":   true,
	"page":     true,
	"category": true,
	"archive":  true,
	"login":    true,
	"logout":   true,
	"metrics":  true,
}

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title         string               `json:"title"`
	Slug          string               `json:"slug"`
	Content       string               `json:"content"`
	ContentFormat models.ContentFormat `json:"content_format"`
	Excerpt       string               `json:"excerpt"`
	Status        models.PostStatus    `json:"status"`
	FeaturedImage string               `json:"featured_image"`
	CategoryIDs   []uint               `json:"category_ids"`
	// PublishedAt overrides the first-publish time. Only importers set it.
	PublishedAt *time.Time `json:"-"`
}

type PostService struct {
	repo         *repository.PostRepository
	categoryRepo *repository.CategoryRepository
	invalidator  *Invalidator
	now          func() time.Time
}

func NewPostService(repo *repository.PostRepository, categoryRepo *repository.CategoryRepository, invalidator *Invalidator) *PostService {
	return &PostService{
		repo:         repo,
		categoryRepo: categoryRepo,
		invalidator:  invalidator,
		now:          time.Now,
	}
}

func (s *PostService) validate(in *PostInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.FeaturedImage = strings.TrimSpace(in.FeaturedImage)
	if in.Title == "" {
		return invalid("title", "is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return invalid("content", "is required")
	}
	if in.Status == "" {
		in.Status = models.StatusDraft
	}
	if !in.Status.Valid() {
		return invalid("status", "must be draft or published")
	}
	if in.ContentFormat == "" {
		in.ContentFormat = models.FormatMarkdown
	}
	if in.ContentFormat != models.FormatMarkdown && in.ContentFormat != models.FormatHTML {
		return invalid("content_format", "must be markdown or html")
	}
	if in.FeaturedImage != "" {
		u, err := url.Parse(in.FeaturedImage)
		if err != nil || (u.Scheme == "" && !strings.HasPrefix(in.FeaturedImage, "/")) {
			return invalid("featured_image", "must be an absolute or root-relative URL")
		}
	}
	return nil
}

// categories loads the requested categories, defaulting to uncategorized.
func (s *PostService) categories(ctx context.Context, ids []uint) ([]models.Category, error) {
	if len(ids) == 0 {
		c, err := s.categoryRepo.FindBySlug(ctx, constants.UncategorizedSlug)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, fmt.Errorf("%w: category %q is missing", ErrNotFound, constants.UncategorizedSlug)
		}
		return []models.Category{*c}, nil
	}
	categories, err := s.categoryRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	if len(categories) != len(seen) {
		return nil, invalid("category_ids", "contains an unknown category")
	}
	return categories, nil
}

// resolveSlug picks the post slug. Posts never fail on collision; they get a
// random suffix instead.
func (s *PostService) resolveSlug(ctx context.Context, candidate string, excludeID uint) (string, error) {
	return utils.ResolveSlug(candidate, func(slug string) (bool, error) {
		if reservedSlugs[slug] {
			return true, nil
		}
		return s.repo.CheckSlugExists(ctx, slug, excludeID)
	}, utils.Disambiguate)
}

// publishTime is the first-publish time as stored: UTC, whole seconds.
func (s *PostService) publishTime(in PostInput) *time.Time {
	t := s.now()
	if in.PublishedAt != nil {
		t = *in.PublishedAt
	}
	t = t.UTC().Truncate(time.Second)
	return &t
}

func (s *PostService) Create(ctx context.Context, authorID uint, in PostInput) (*models.Post, Outcome, error) {
	if err := s.validate(&in); err != nil {
		return nil, Outcome{}, err
	}
	categories, err := s.categories(ctx, in.CategoryIDs)
	if err != nil {
		return nil, Outcome{}, err
	}
	candidate := in.Slug
	if candidate == "" {
		candidate = in.Title
	}
	slug, err := s.resolveSlug(ctx, candidate, 0)
	if err != nil {
		return nil, Outcome{}, fmt.Errorf("resolve slug: %w", err)
	}

	post := &models.Post{
		Title:         in.Title,
		Slug:          slug,
		Content:       in.Content,
		ContentFormat: in.ContentFormat,
		Excerpt:       in.Excerpt,
		Status:        in.Status,
		AuthorID:      authorID,
		FeaturedImage: in.FeaturedImage,
		Categories:    categories,
	}
	if post.Status == models.StatusPublished {
		post.PublishedAt = s.publishTime(in)
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, Outcome{}, fmt.Errorf("create post: %w", err)
	}

	outcome := s.invalidator.Notify(ctx, Change{
		Entity:      EntityPost,
		Action:      ActionCreate,
		IsPublished: post.IsPublished(),
	})
	return post, outcome, nil
}

// Update edits a post. The slug only changes when a different one is asked
// for; the publish timestamp is set on the first publish and kept after.
func (s *PostService) Update(ctx context.Context, id uint, in PostInput) (*models.Post, Outcome, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, Outcome{}, err
	}
	if err := s.validate(&in); err != nil {
		return nil, Outcome{}, err
	}
	categories, err := s.categories(ctx, in.CategoryIDs)
	if err != nil {
		return nil, Outcome{}, err
	}
	wasPublished := post.IsPublished()

	if in.Slug != "" && in.Slug != post.Slug {
		slug, err := s.resolveSlug(ctx, in.Slug, post.ID)
		if err != nil {
			return nil, Outcome{}, fmt.Errorf("resolve slug: %w", err)
		}
		post.Slug = slug
	}
	post.Title = in.Title
	post.Content = in.Content
	post.ContentFormat = in.ContentFormat
	post.Excerpt = in.Excerpt
	post.Status = in.Status
	post.FeaturedImage = in.FeaturedImage
	post.Categories = categories
	if post.Status == models.StatusPublished && post.PublishedAt == nil {
		post.PublishedAt = s.publishTime(in)
	}

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, Outcome{}, fmt.Errorf("update post %d: %w", id, err)
	}
	outcome := s.invalidator.Notify(ctx, Change{
		Entity:       EntityPost,
		Action:       ActionUpdate,
		WasPublished: wasPublished,
		IsPublished:  post.IsPublished(),
	})
	return post, outcome, nil
}

func (s *PostService) Delete(ctx context.Context, id uint) (Outcome, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Outcome{}, fmt.Errorf("%w: post %d", ErrNotFound, id)
		}
		return Outcome{}, fmt.Errorf("delete post %d: %w", id, err)
	}
	return s.invalidator.Notify(ctx, Change{
		Entity:       EntityPost,
		Action:       ActionDelete,
		WasPublished: post.IsPublished(),
	}), nil
}

func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: post %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load post %d: %w", id, err)
	}
	return post, nil
}

// List pages through all posts for the admin, most recently edited first.
func (s *PostService) List(ctx context.Context, page, pageSize int, status string) ([]models.Post, int64, error) {
	posts, err := s.repo.FindAllByAdmin(ctx, page, pageSize, status)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountAllByAdmin(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}
