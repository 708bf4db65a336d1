package site

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"staticblog/internal/constants"
	"staticblog/internal/models"
	"staticblog/internal/repository"
	"staticblog/internal/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// templatesFS locates the repository's templates directory from this file.
func templatesFS(t *testing.T) fs.FS {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return os.DirFS(filepath.Join(filepath.Dir(file), "..", "..", "templates"))
}

type fixture struct {
	db         *gorm.DB
	store      *repository.ContentStore
	posts      *repository.PostRepository
	categories *repository.CategoryRepository
	author     *models.User
	gen        *Generator
	root       string
}

func newFixture(t *testing.T, opts ...GeneratorOption) *fixture {
	t.Helper()
	db, err := utils.InitDatabase("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	author := &models.User{Username: "alice", PasswordHash: "x", Email: "alice@example.com"}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), author))

	renderer, err := NewRenderer(templatesFS(t))
	require.NoError(t, err)

	root := t.TempDir()
	store := repository.NewContentStore(db)
	return &fixture{
		db:         db,
		store:      store,
		posts:      repository.NewPostRepository(db),
		categories: repository.NewCategoryRepository(db),
		author:     author,
		gen:        NewGenerator(store, renderer, NewWriter(root), append([]GeneratorOption{WithWorkers(4)}, opts...)...),
		root:       root,
	}
}

func (f *fixture) setting(t *testing.T, key, value string) {
	t.Helper()
	require.NoError(t, repository.NewSettingRepository(f.db).UpdateSettings(context.Background(), map[string]string{key: value}))
}

func (f *fixture) category(t *testing.T, name, slug string) models.Category {
	t.Helper()
	c := models.Category{Name: name, Slug: slug}
	require.NoError(t, f.categories.Create(context.Background(), &c))
	return c
}

func (f *fixture) uncategorized(t *testing.T) models.Category {
	t.Helper()
	c, err := f.categories.FindBySlug(context.Background(), constants.UncategorizedSlug)
	require.NoError(t, err)
	require.NotNil(t, c)
	return *c
}

// publish stores a published post at the given UTC time.
func (f *fixture) publish(t *testing.T, slug string, at time.Time, categories ...models.Category) *models.Post {
	t.Helper()
	at = at.UTC().Truncate(time.Second)
	if len(categories) == 0 {
		categories = []models.Category{f.uncategorized(t)}
	}
	p := &models.Post{
		Title:         "Post " + slug,
		Slug:          slug,
		Content:       "Body of **" + slug + "** with enough words to make an excerpt.",
		ContentFormat: models.FormatMarkdown,
		Status:        models.StatusPublished,
		AuthorID:      f.author.ID,
		PublishedAt:   &at,
		Categories:    categories,
	}
	require.NoError(t, f.posts.Create(context.Background(), p))
	return p
}

func (f *fixture) draft(t *testing.T, slug string) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:      "Draft " + slug,
		Slug:       slug,
		Content:    "not yet",
		Status:     models.StatusDraft,
		AuthorID:   f.author.ID,
		Categories: []models.Category{f.uncategorized(t)},
	}
	require.NoError(t, f.posts.Create(context.Background(), p))
	return p
}

func (f *fixture) file(rel string) string {
	return filepath.Join(f.root, filepath.FromSlash(rel))
}

func (f *fixture) exists(rel string) bool {
	_, err := os.Stat(f.file(rel))
	return err == nil
}

// snapshot reads every file below the output root.
func (f *fixture) snapshot(t *testing.T) map[string][]byte {
	t.Helper()
	files := make(map[string][]byte)
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(f.root, p)
		files[filepath.ToSlash(rel)] = b
		return nil
	})
	require.NoError(t, err)
	return files
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}
