package repository

import (
	"context"
	"errors"

	"staticblog/internal/models"

	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Omit("Posts").Create(category).Error
}

func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Omit("Posts").Save(category).Error
}

func (r *CategoryRepository) FindByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).First(&category, id).Error
	return &category, err
}

// FindBySlug returns nil when no category has slug.
func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where("slug = ?", slug).Take(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Category, error) {
	var categories []models.Category
	if len(ids) == 0 {
		return categories, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name asc").Find(&categories).Error
	return categories, err
}

func (r *CategoryRepository) FindAll(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("name asc, id asc").Find(&categories).Error
	return categories, err
}

// FindAllWithCounts lists categories with the number of linked posts, drafts included.
func (r *CategoryRepository) FindAllWithCounts(ctx context.Context) ([]models.CategoryCount, error) {
	var rows []models.CategoryCount
	err := r.db.WithContext(ctx).
		Table("categories").
		Select("categories.*, COUNT(post_categories.post_id) AS post_count").
		Joins("LEFT JOIN post_categories ON post_categories.category_id = categories.id").
		Group("categories.id").
		Order("categories.name asc, categories.id asc").
		Scan(&rows).Error
	return rows, err
}

// FindByPost returns the categories of a post ordered by name.
func (r *CategoryRepository) FindByPost(ctx context.Context, postID uint) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Joins("JOIN post_categories ON post_categories.category_id = categories.id").
		Where("post_categories.post_id = ?", postID).
		Order("categories.name asc, categories.id asc").
		Find(&categories).Error
	return categories, err
}

// CheckSlugExists reports whether slug belongs to a category other than excludeID.
func (r *CategoryRepository) CheckSlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Category{}).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id != ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *CategoryRepository) CountPosts(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("post_categories").Where("category_id = ?", id).Count(&count).Error
	return count, err
}

// DeleteAndReassign moves every post link of category id onto target, without
// creating duplicate links, then deletes the category.
func (r *CategoryRepository) DeleteAndReassign(ctx context.Context, id, target uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(`INSERT OR IGNORE INTO post_categories (post_id, category_id)
			SELECT post_id, ? FROM post_categories WHERE category_id = ?`, target, id).Error
		if err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM post_categories WHERE category_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
