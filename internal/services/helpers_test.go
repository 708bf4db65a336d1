package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"staticblog/internal/models"
	"staticblog/internal/repository"
	"staticblog/internal/site"
	"staticblog/internal/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeRegenerator counts regenerations and fails when err is set.
type fakeRegenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRegenerator) Regenerate(context.Context) (*site.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return &site.Report{}, f.err
}

func (f *fakeRegenerator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var errDiskFull = errors.New("disk full")

type env struct {
	db         *gorm.DB
	regen      *fakeRegenerator
	invalidate *Invalidator
	author     *models.User
	posts      *PostService
	categories *CategoryService
	settings   *SettingService
	users      *UserService
}

func newEnv(t *testing.T) *env {
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

	regen := &fakeRegenerator{}
	inv := NewInvalidator(regen)
	postRepo := repository.NewPostRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	return &env{
		db:         db,
		regen:      regen,
		invalidate: inv,
		author:     author,
		posts:      NewPostService(postRepo, categoryRepo, inv),
		categories: NewCategoryService(categoryRepo, inv),
		settings:   NewSettingService(repository.NewSettingRepository(db), inv),
		users:      NewUserService(repository.NewUserRepository(db)),
	}
}
