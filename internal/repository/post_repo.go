package repository

import (
	"context"
	"errors"
	"time"

	"staticblog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const publishedOrder = "posts.published_at desc, posts.id desc"

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func published(db *gorm.DB) *gorm.DB {
	return db.Where("posts.status = ? AND posts.published_at IS NOT NULL", models.StatusPublished)
}

// Create inserts post and links it to post.Categories.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := post.Categories
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		post.Categories = categories
		return replaceCategories(tx, post)
	})
}

// Update saves post columns and replaces its category links.
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := post.Categories
		if err := tx.Omit(clause.Associations).Save(post).Error; err != nil {
			return err
		}
		post.Categories = categories
		return replaceCategories(tx, post)
	})
}

func replaceCategories(tx *gorm.DB, post *models.Post) error {
	if len(post.Categories) == 0 {
		return tx.Model(post).Association("Categories").Clear()
	}
	return tx.Model(post).Association("Categories").Replace(post.Categories)
}

func (r *PostRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM post_categories WHERE post_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *PostRepository) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("categories.name asc") }).
		First(&post, id).Error
	return &post, err
}

// CheckSlugExists reports whether slug belongs to a post other than excludeID.
func (r *PostRepository) CheckSlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id != ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostRepository) FindAllByAdmin(ctx context.Context, page, pageSize int, status string) ([]models.Post, error) {
	var posts []models.Post
	query := r.db.WithContext(ctx).Preload("Author").Order("posts.updated_at desc, posts.id desc")
	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Find(&posts).Error
	return posts, err
}

func (r *PostRepository) CountAllByAdmin(ctx context.Context, status string) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Post{})
	if status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}

func (r *PostRepository) CountPublished(ctx context.Context) (int64, error) {
	var count int64
	err := published(r.db.WithContext(ctx).Model(&models.Post{})).Count(&count).Error
	return count, err
}

func (r *PostRepository) FindPublishedPage(ctx context.Context, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := published(r.db.WithContext(ctx)).
		Preload("Author").
		Order(publishedOrder).
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *PostRepository) FindAllPublished(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	err := published(r.db.WithContext(ctx)).Preload("Author").Order(publishedOrder).Find(&posts).Error
	return posts, err
}

// FindPublishedBySlug returns nil when no published post has slug.
func (r *PostRepository) FindPublishedBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := published(r.db.WithContext(ctx)).Preload("Author").Where("posts.slug = ?", slug).Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *PostRepository) FindPublishedByCategory(ctx context.Context, categoryID uint) ([]models.Post, error) {
	var posts []models.Post
	err := published(r.db.WithContext(ctx)).
		Preload("Author").
		Joins("JOIN post_categories ON post_categories.post_id = posts.id").
		Where("post_categories.category_id = ?", categoryID).
		Order(publishedOrder).
		Find(&posts).Error
	return posts, err
}

// FindPublishedBetween returns posts published in [from, to).
func (r *PostRepository) FindPublishedBetween(ctx context.Context, from, to time.Time) ([]models.Post, error) {
	var posts []models.Post
	err := published(r.db.WithContext(ctx)).
		Preload("Author").
		Where("posts.published_at >= ? AND posts.published_at < ?", from.UTC(), to.UTC()).
		Order(publishedOrder).
		Find(&posts).Error
	return posts, err
}

func (r *PostRepository) CountPublishedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := published(r.db.WithContext(ctx).Model(&models.Post{})).
		Where("posts.published_at >= ? AND posts.published_at < ?", from.UTC(), to.UTC()).
		Count(&count).Error
	return count, err
}

// FindPublishedTimes returns the publish timestamp of every published post, newest first.
func (r *PostRepository) FindPublishedTimes(ctx context.Context) ([]time.Time, error) {
	var times []time.Time
	err := published(r.db.WithContext(ctx).Model(&models.Post{})).
		Order(publishedOrder).
		Pluck("posts.published_at", &times).Error
	return times, err
}

// FindAdjacentPublished returns the nearest published post strictly older (or
// newer) than at, or nil when there is none.
func (r *PostRepository) FindAdjacentPublished(ctx context.Context, at time.Time, older bool) (*models.Post, error) {
	var post models.Post
	query := published(r.db.WithContext(ctx))
	if older {
		query = query.Where("posts.published_at < ?", at.UTC()).Order(publishedOrder)
	} else {
		query = query.Where("posts.published_at > ?", at.UTC()).Order("posts.published_at asc, posts.id asc")
	}
	err := query.Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}
