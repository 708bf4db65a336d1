package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"staticblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostRegeneratesOnlyWhenPublished(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	draft, out, err := e.posts.Create(ctx, e.author.ID, PostInput{Title: "Draft", Content: "x"})
	require.NoError(t, err)
	assert.False(t, out.Regenerated)
	assert.Equal(t, models.StatusDraft, draft.Status)
	assert.Nil(t, draft.PublishedAt)
	require.Len(t, draft.Categories, 1)
	assert.Equal(t, "uncategorized", draft.Categories[0].Slug)

	post, out, err := e.posts.Create(ctx, e.author.ID, PostInput{Title: "Hello World", Content: "x", Status: models.StatusPublished})
	require.NoError(t, err)
	assert.True(t, out.Regenerated)
	assert.Equal(t, "hello-world", post.Slug)
	assert.Equal(t, 1, e.regen.count())
}

func TestPublishTimestampIsSetOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	first := time.Date(2024, time.March, 1, 10, 30, 15, 999, time.FixedZone("CET", 3600))
	e.posts.now = func() time.Time { return first }

	post, _, err := e.posts.Create(ctx, e.author.ID, PostInput{Title: "T", Content: "x"})
	require.NoError(t, err)
	require.Nil(t, post.PublishedAt)

	post, _, err = e.posts.Update(ctx, post.ID, PostInput{Title: "T", Content: "x", Status: models.StatusPublished})
	require.NoError(t, err)
	require.NotNil(t, post.PublishedAt)
	want := time.Date(2024, time.March, 1, 9, 30, 15, 0, time.UTC)
	assert.True(t, want.Equal(*post.PublishedAt))
	assert.Equal(t, time.UTC, post.PublishedAt.Location())

	// Unpublish and republish later: the first timestamp stays.
	e.posts.now = func() time.Time { return first.Add(48 * time.Hour) }
	_, _, err = e.posts.Update(ctx, post.ID, PostInput{Title: "T", Content: "x"})
	require.NoError(t, err)
	post, _, err = e.posts.Update(ctx, post.ID, PostInput{Title: "T", Content: "y", Status: models.StatusPublished})
	require.NoError(t, err)
	assert.True(t, want.Equal(post.PublishedTime()))
}

func TestPostSlugCollisionsGetSuffix(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a, _, err := e.posts.Create(ctx, e.author.ID, PostInput{Title: "Same Title", Content: "x"})
	require.NoError(t, err)
	b, _, err := e.posts.Create(ctx, e.author.ID, PostInput{Title: "Same Title", Content: "x"})
	require.NoError(t, err)

	assert.Equal(t, "same-title", a.Slug)
	assert.Regexp(t, regexp.MustCompile(`^same-title-[a-z0-9]{6}$`), b.Slug)

	reserved, _, err := e.posts.Create(ctx, e.author.ID, PostInput{Title: "Admin", Content: "x"})
	require.NoError(t, err)
	assert.NotEqual(t, "admin", reserved.Slug)
	assert.Regexp(t, `^admin-`, reserved.Slug)
}

func TestUpdateKeepsSlugUnlessAsked(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	post, _, err := e.posts.Create(ctx, e.author.ID, PostInput{Title: "Original", Content: "x"})
	require.NoError(t, err)

	post, _, err = e.posts.Update(ctx, post.ID, PostInput{Title: "Renamed", Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, "original", post.Slug)

	post, _, err = e.posts.Update(ctx, post.ID, PostInput{Title: "Renamed", Slug: "Brand New", Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, "brand-new", post.Slug)
}

func TestPostValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, in := range []PostInput{
		{Content: "x"},
		{Title: "T"},
		{Title: "T", Content: "x", Status: "scheduled"},
		{Title: "T", Content: "x", ContentFormat: "rst"},
		{Title: "T", Content: "x", FeaturedImage: "relative.png"},
		{Title: "T", Content: "x", CategoryIDs: []uint{999}},
	} {
		_, _, err := e.posts.Create(ctx, e.author.ID, in)
		assert.ErrorIs(t, err, ErrValidation, "%+v", in)
	}
	assert.Zero(t, e.regen.count())
}

func TestDeletePost(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	draft, _, err := e.posts.Create(ctx, e.author.ID, PostInput{Title: "D", Content: "x"})
	require.NoError(t, err)
	out, err := e.posts.Delete(ctx, draft.ID)
	require.NoError(t, err)
	assert.False(t, out.Regenerated)

	live, _, err := e.posts.Create(ctx, e.author.ID, PostInput{Title: "L", Content: "x", Status: models.StatusPublished})
	require.NoError(t, err)
	out, err = e.posts.Delete(ctx, live.ID)
	require.NoError(t, err)
	assert.True(t, out.Regenerated)

	_, err = e.posts.Delete(ctx, live.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMutationSucceedsWhenRegenerationFails(t *testing.T) {
	e := newEnv(t)
	e.regen.err = errDiskFull

	post, out, err := e.posts.Create(context.Background(), e.author.ID, PostInput{Title: "T", Content: "x", Status: models.StatusPublished})
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
	assert.True(t, out.Regenerated)
	assert.NotEmpty(t, out.Warning)
}
