package repository

import (
	"context"
	"testing"
	"time"

	"kinship/internal/models"
	"kinship/internal/testutil"
	"kinship/internal/visibility"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_ListVisible(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	createUser(t, db, "a")
	createUser(t, db, "b")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	posts := []models.Post{
		{ID: "old", UserID: "a", Content: "old", Visibility: models.VisibilityPublic, UpdatedAt: base},
		{ID: "new", UserID: "a", Content: "new", Visibility: models.VisibilityPublic, UpdatedAt: base.Add(2 * time.Hour)},
		{ID: "mid", UserID: "b", Content: "mid", Visibility: models.VisibilityPublic, UpdatedAt: base.Add(time.Hour)},
		{ID: "private", UserID: "b", Content: "p", Visibility: models.VisibilityPrivate, UpdatedAt: base.Add(3 * time.Hour)},
	}
	for i := range posts {
		require.NoError(t, db.Create(&posts[i]).Error)
		// UpdatedAt is overwritten on create; pin it for ordering.
		require.NoError(t, db.Model(&posts[i]).UpdateColumn("updated_at", posts[i].UpdatedAt).Error)
	}
	require.NoError(t, db.Create(&models.Like{UserID: "a", PostID: "mid"}).Error)
	require.NoError(t, db.Create(&models.Comment{PostID: "mid", UserID: "a", Content: "c"}).Error)

	list, total, err := repo.ListVisible(ctx, "a", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{list[0].ID, list[1].ID, list[2].ID})
	assert.True(t, list[1].Liked)
	assert.Equal(t, 1, list[1].LikesCount)
	assert.Equal(t, 1, list[1].CommentsCount)
	require.NotNil(t, list[1].User)
	assert.Equal(t, "user_b", list[1].User.Username)
	assert.Empty(t, list[1].User.Email)

	page, _, err := repo.ListVisible(ctx, "a", 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "mid", page[0].ID)

	anon, total, err := repo.ListVisible(ctx, visibility.Anonymous, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	for _, p := range anon {
		assert.False(t, p.Liked)
	}

	own, total, err := repo.ListVisible(ctx, "b", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Equal(t, "private", own[0].ID)
}

func TestPostRepository_GetVisible(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	createUser(t, db, "a")
	createUser(t, db, "b")
	require.NoError(t, db.Create(&models.Post{ID: "secret", UserID: "b", Content: "s", Visibility: models.VisibilityPrivate}).Error)

	_, err := repo.GetVisible(ctx, "secret", "a")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	_, err = repo.GetVisible(ctx, "missing", "a")
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	post, err := repo.GetVisible(ctx, "secret", "b")
	require.NoError(t, err)
	assert.Equal(t, "s", post.Content)
}

func TestPostRepository_LikeUnlike(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	createUser(t, db, "a")
	require.NoError(t, db.Create(&models.Post{ID: "p1", UserID: "a", Content: "x"}).Error)

	require.NoError(t, repo.Like(ctx, "a", "p1"))
	err := repo.Like(ctx, "a", "p1")
	assert.True(t, models.HasCode(err, models.CodeConflict))

	removed, err := repo.Unlike(ctx, "a", "p1")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Unlike(ctx, "a", "p1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPostRepository_UpdateAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()
	createUser(t, db, "a")

	post := &models.Post{UserID: "a", Content: "draft"}
	require.NoError(t, repo.Create(ctx, post))
	assert.Equal(t, models.VisibilityPublic, post.Visibility)

	post.Content = "final"
	post.Visibility = models.VisibilityFriendOnly
	require.NoError(t, repo.Update(ctx, post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Content)
	assert.Equal(t, models.VisibilityFriendOnly, got.Visibility)

	require.NoError(t, comments.Create(ctx, &models.Comment{PostID: post.ID, UserID: "a", Content: "c"}))
	list, err := comments.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "user_a", list[0].User.Username)

	require.NoError(t, repo.Delete(ctx, post.ID))
	_, err = repo.GetByID(ctx, post.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}
