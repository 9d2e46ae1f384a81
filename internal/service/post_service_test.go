package service

import (
	"context"
	"testing"

	"kinship/internal/models"
	"kinship/internal/visibility"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postIDs(page *PostPage) []string {
	ids := make([]string, 0, len(page.Posts))
	for _, p := range page.Posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestPostService_FriendOnlyFollowsMutualState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "a", "alice", "")
	env.createUser(t, "b", "bob", "")

	post, err := env.posts.Create(ctx, "a", CreatePostInput{Content: "friends only", Visibility: models.VisibilityFriendOnly})
	require.NoError(t, err)

	assertHidden := func(msg string) {
		t.Helper()
		_, err := env.posts.Get(ctx, post.ID, "b")
		assert.True(t, models.HasCode(err, models.CodeNotFound), msg)
		page, err := env.posts.List(ctx, "b", 1, 10)
		require.NoError(t, err)
		assert.NotContains(t, postIDs(page), post.ID, msg)
		assert.True(t, models.HasCode(env.posts.Like(ctx, "b", post.ID), models.CodeNotFound), msg)
	}
	assertVisible := func(msg string) {
		t.Helper()
		got, err := env.posts.Get(ctx, post.ID, "b")
		require.NoError(t, err, msg)
		assert.Equal(t, post.ID, got.ID)
		page, err := env.posts.List(ctx, "b", 1, 10)
		require.NoError(t, err)
		assert.Contains(t, postIDs(page), post.ID, msg)
	}

	assertHidden("no edges")

	_, err = env.follow.Follow(ctx, "b", "a")
	require.NoError(t, err)
	assertHidden("one-way follow")

	_, err = env.follow.Follow(ctx, "a", "b")
	require.NoError(t, err)
	assertVisible("mutual")

	require.NoError(t, env.follow.Unfollow(ctx, "a", "b"))
	assertHidden("after unfollow")
}

func TestPostService_VisibilityLevels(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "a", "alice", "")
	env.createUser(t, "b", "bob", "")

	public, err := env.posts.Create(ctx, "a", CreatePostInput{Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPublic, public.Visibility)
	private, err := env.posts.Create(ctx, "a", CreatePostInput{Content: "diary", Visibility: models.VisibilityPrivate})
	require.NoError(t, err)

	for _, viewer := range []string{"b", visibility.Anonymous} {
		page, err := env.posts.List(ctx, viewer, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{public.ID}, postIDs(page))
		assert.EqualValues(t, 1, page.Total)

		_, err = env.posts.Get(ctx, private.ID, viewer)
		assert.True(t, models.HasCode(err, models.CodeNotFound))
	}

	page, err := env.posts.List(ctx, "a", 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{public.ID, private.ID}, postIDs(page))
}

func TestPostService_ListPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "a", "alice", "")
	for i := 0; i < 3; i++ {
		_, err := env.posts.Create(ctx, "a", CreatePostInput{Content: "post"})
		require.NoError(t, err)
	}

	page, err := env.posts.List(ctx, "a", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPage, page.Page)
	assert.Equal(t, DefaultLimit, page.Limit)

	page, err = env.posts.List(ctx, "a", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Posts, 1)
	assert.EqualValues(t, 3, page.Total)

	page, err = env.posts.List(ctx, "a", 1, MaxLimit+50)
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, page.Limit)

	page, err = env.posts.List(ctx, "a", 5, 10)
	require.NoError(t, err)
	assert.NotNil(t, page.Posts)
	assert.Empty(t, page.Posts)
}

func TestPostService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "a", "alice", "")

	_, err := env.posts.Create(ctx, "a", CreatePostInput{Content: "   "})
	assert.True(t, models.HasCode(err, models.CodeValidation))
	_, err = env.posts.Create(ctx, "a", CreatePostInput{Content: "x", Visibility: "SECRET"})
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestPostService_OwnerOnlyEdits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "a", "alice", "")
	env.createUser(t, "b", "bob", "")

	post, err := env.posts.Create(ctx, "a", CreatePostInput{Content: "original"})
	require.NoError(t, err)

	content := "hijacked"
	_, err = env.posts.Update(ctx, "b", post.ID, UpdatePostInput{Content: &content})
	assert.True(t, models.HasCode(err, models.CodeForbidden))
	assert.True(t, models.HasCode(env.posts.Delete(ctx, "b", post.ID), models.CodeForbidden))

	content = "edited"
	level := models.VisibilityPrivate
	updated, err := env.posts.Update(ctx, "a", post.ID, UpdatePostInput{Content: &content, Visibility: &level})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.Equal(t, models.VisibilityPrivate, updated.Visibility)

	// Once private, b can no longer even see it.
	_, err = env.posts.Update(ctx, "b", post.ID, UpdatePostInput{Content: &content})
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	require.NoError(t, env.posts.Delete(ctx, "a", post.ID))
	_, err = env.posts.Get(ctx, post.ID, "a")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestPostService_LikesAndComments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "a", "alice", "")
	env.createUser(t, "b", "bob", "")

	post, err := env.posts.Create(ctx, "a", CreatePostInput{Content: "like me"})
	require.NoError(t, err)

	assert.True(t, models.HasCode(env.posts.Unlike(ctx, "b", post.ID), models.CodeValidation))
	require.NoError(t, env.posts.Like(ctx, "b", post.ID))
	assert.True(t, models.HasCode(env.posts.Like(ctx, "b", post.ID), models.CodeConflict))

	got, err := env.posts.Get(ctx, post.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikesCount)
	assert.True(t, got.Liked)

	require.NoError(t, env.posts.Unlike(ctx, "b", post.ID))

	_, err = env.posts.AddComment(ctx, "b", post.ID, "  ")
	assert.True(t, models.HasCode(err, models.CodeValidation))
	comment, err := env.posts.AddComment(ctx, "b", post.ID, "nice")
	require.NoError(t, err)
	assert.Equal(t, "b", comment.UserID)

	comments, err := env.posts.Comments(ctx, post.ID, visibility.Anonymous)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "nice", comments[0].Content)

	got, err = env.posts.Get(ctx, post.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, got.LikesCount)
	assert.Equal(t, 1, got.CommentsCount)
}

func TestPostService_CommentsOfHiddenPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "a", "alice", "")
	env.createUser(t, "b", "bob", "")

	post, err := env.posts.Create(ctx, "a", CreatePostInput{Content: "mine", Visibility: models.VisibilityPrivate})
	require.NoError(t, err)

	_, err = env.posts.Comments(ctx, post.ID, "b")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	_, err = env.posts.AddComment(ctx, "b", post.ID, "sneaky")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}
