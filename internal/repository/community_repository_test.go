package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maeum-toegeun/backend/internal/models"
)

func seedPost(t *testing.T, repo *CommunityRepository, title string) models.Post {
	t.Helper()
	post, err := repo.CreatePost(context.Background(), models.Post{
		Title:    title,
		Content:  "내용",
		Category: "고민",
		AuthorID: "author",
	})
	require.NoError(t, err)
	return post
}

func TestToggleLikeRestoresCount(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	repo := NewCommunityRepository(store)
	post := seedPost(t, repo, "첫 글")

	liked, count, err := repo.ToggleLike(ctx, "u1", post.ID, models.TargetPost)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	got, err := repo.Post(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikeCount)

	liked, count, err = repo.ToggleLike(ctx, "u1", post.ID, models.TargetPost)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, count)

	got, err = repo.Post(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.LikeCount, got.LikeCount)
}

func TestPostsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	repo := NewCommunityRepository(store)
	first := seedPost(t, repo, "하나")
	second := seedPost(t, repo, "둘")

	posts, err := repo.Posts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)
}

func TestDeleteCommentRemovesReplies(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	repo := NewCommunityRepository(store)
	post := seedPost(t, repo, "글")

	parent, err := repo.CreateComment(ctx, models.Comment{PostID: post.ID, Content: "부모", AuthorID: "a"})
	require.NoError(t, err)
	reply, err := repo.CreateComment(ctx, models.Comment{PostID: post.ID, Content: "답글", AuthorID: "b", ParentID: parent.ID})
	require.NoError(t, err)
	other, err := repo.CreateComment(ctx, models.Comment{PostID: post.ID, Content: "다른", AuthorID: "c"})
	require.NoError(t, err)

	_, _, err = repo.ToggleLike(ctx, "u1", reply.ID, models.TargetComment)
	require.NoError(t, err)

	got, err := repo.Post(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CommentCount)

	ok, err := repo.DeleteComment(ctx, parent.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	comments, err := repo.Comments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, other.ID, comments[0].ID)

	got, err = repo.Post(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CommentCount)

	liked, err := repo.IsLiked(ctx, "u1", reply.ID, models.TargetComment)
	require.NoError(t, err)
	assert.False(t, liked)

	ok, err = repo.DeleteComment(ctx, parent.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeletePostCascades(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	repo := NewCommunityRepository(store)
	post := seedPost(t, repo, "삭제될 글")
	keep := seedPost(t, repo, "남을 글")

	comment, err := repo.CreateComment(ctx, models.Comment{PostID: post.ID, Content: "댓글", AuthorID: "a"})
	require.NoError(t, err)
	_, _, err = repo.ToggleLike(ctx, "u1", post.ID, models.TargetPost)
	require.NoError(t, err)
	_, _, err = repo.ToggleLike(ctx, "u1", comment.ID, models.TargetComment)
	require.NoError(t, err)
	_, _, err = repo.ToggleLike(ctx, "u1", keep.ID, models.TargetPost)
	require.NoError(t, err)
	_, err = repo.ToggleBookmark(ctx, "u1", post.ID)
	require.NoError(t, err)

	ok, err := repo.DeletePost(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.Post(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	likes, err := repo.likes().All(ctx)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, keep.ID, likes[0].TargetID)

	comments, err := repo.comments().All(ctx)
	require.NoError(t, err)
	assert.Empty(t, comments)

	marked, err := repo.BookmarkedPosts(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, marked)
}

func TestToggleBookmark(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	repo := NewCommunityRepository(store)
	a := seedPost(t, repo, "a")
	b := seedPost(t, repo, "b")

	added, err := repo.ToggleBookmark(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.True(t, added)
	_, err = repo.ToggleBookmark(ctx, "u1", b.ID)
	require.NoError(t, err)

	marked, err := repo.BookmarkedPosts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, marked, 2)
	assert.Equal(t, b.ID, marked[0].ID, "board order")

	added, err = repo.ToggleBookmark(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.False(t, added)

	has, err := repo.IsBookmarked(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCreateCommentOnMissingPost(t *testing.T) {
	store, _ := newTestStore(t)
	repo := NewCommunityRepository(store)

	_, err := repo.CreateComment(context.Background(), models.Comment{PostID: "nope", Content: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIncrementViewAndUpdate(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	repo := NewCommunityRepository(store)
	post := seedPost(t, repo, "조회")

	require.NoError(t, repo.IncrementView(ctx, post.ID))
	require.NoError(t, repo.IncrementView(ctx, post.ID))

	updated, err := repo.UpdatePost(ctx, post.ID, func(p *models.Post) { p.Title = "수정" })
	require.NoError(t, err)
	assert.Equal(t, "수정", updated.Title)
	assert.Equal(t, 2, updated.ViewCount)

	_, err = repo.UpdatePost(ctx, "missing", func(p *models.Post) {})
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := repo.CountPostsBy(ctx, "author")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
