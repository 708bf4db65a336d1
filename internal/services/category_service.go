package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"staticblog/internal/constants"
	"staticblog/internal/models"
	"staticblog/internal/repository"
	"staticblog/internal/utils"

	"gorm.io/gorm"
)

type CategoryInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type CategoryService struct {
	repo        *repository.CategoryRepository
	invalidator *Invalidator
}

func NewCategoryService(repo *repository.CategoryRepository, invalidator *Invalidator) *CategoryService {
	return &CategoryService{repo: repo, invalidator: invalidator}
}

// resolveSlug rejects collisions: category slugs are chosen by people.
func (s *CategoryService) resolveSlug(ctx context.Context, candidate string, excludeID uint) (string, error) {
	slug, err := utils.ResolveSlug(candidate, func(slug string) (bool, error) {
		return s.repo.CheckSlugExists(ctx, slug, excludeID)
	}, utils.RejectCollision)
	if errors.Is(err, utils.ErrSlugCollision) {
		return "", fmt.Errorf("%w: %w", ErrSlugTaken, invalid("slug", fmt.Sprintf("%q is already used by another category", utils.Slugify(candidate))))
	}
	return slug, err
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, Outcome, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, Outcome{}, invalid("name", "is required")
	}
	candidate := strings.TrimSpace(in.Slug)
	if candidate == "" {
		candidate = in.Name
	}
	slug, err := s.resolveSlug(ctx, candidate, 0)
	if err != nil {
		return nil, Outcome{}, err
	}

	category := &models.Category{
		Name:        in.Name,
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, Outcome{}, fmt.Errorf("create category: %w", err)
	}
	return category, s.invalidator.Notify(ctx, Change{Entity: EntityCategory, Action: ActionCreate}), nil
}

// Update edits a category. The uncategorized category keeps its slug.
func (s *CategoryService) Update(ctx context.Context, id uint, in CategoryInput) (*models.Category, Outcome, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, Outcome{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, Outcome{}, invalid("name", "is required")
	}

	if candidate := utils.Slugify(in.Slug); candidate != "" && candidate != category.Slug {
		if category.Slug == constants.UncategorizedSlug {
			return nil, Outcome{}, ErrProtectedCategory
		}
		slug, err := s.resolveSlug(ctx, candidate, category.ID)
		if err != nil {
			return nil, Outcome{}, err
		}
		category.Slug = slug
	}
	category.Name = in.Name
	category.Description = strings.TrimSpace(in.Description)

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, Outcome{}, fmt.Errorf("update category %d: %w", id, err)
	}
	return category, s.invalidator.Notify(ctx, Change{Entity: EntityCategory, Action: ActionUpdate}), nil
}

// Delete removes a category, moving its posts to uncategorized.
func (s *CategoryService) Delete(ctx context.Context, id uint) (Outcome, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if category.Slug == constants.UncategorizedSlug {
		return Outcome{}, ErrProtectedCategory
	}
	fallback, err := s.repo.FindBySlug(ctx, constants.UncategorizedSlug)
	if err != nil {
		return Outcome{}, fmt.Errorf("load %s category: %w", constants.UncategorizedSlug, err)
	}
	if fallback == nil {
		return Outcome{}, fmt.Errorf("%w: category %q is missing", ErrNotFound, constants.UncategorizedSlug)
	}

	moved, err := s.repo.CountPosts(ctx, category.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("count posts of category %d: %w", id, err)
	}
	if err := s.repo.DeleteAndReassign(ctx, category.ID, fallback.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Outcome{}, fmt.Errorf("%w: category %d", ErrNotFound, id)
		}
		return Outcome{}, fmt.Errorf("delete category %d: %w", id, err)
	}
	log.Printf("Deleted category %q, %d post links moved to %s", category.Slug, moved, constants.UncategorizedSlug)
	return s.invalidator.Notify(ctx, Change{Entity: EntityCategory, Action: ActionDelete}), nil
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: category %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load category %d: %w", id, err)
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context) ([]models.CategoryCount, error) {
	return s.repo.FindAllWithCounts(ctx)
}
