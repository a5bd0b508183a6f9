package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maeum-toegeun/backend/internal/models"
)

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func postRequest(title string) models.CreatePostRequest {
	return models.CreatePostRequest{
		Title:    title,
		Content:  "오늘은 **조금** 나아졌어요.",
		Category: "일상",
		Tags:     []string{"회복", "#회복", " 일상 "},
	}
}

func TestCreatePostValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name  string
		mod   func(*models.CreatePostRequest)
		field string
	}{
		{name: "empty title", mod: func(r *models.CreatePostRequest) { r.Title = " " }, field: "title"},
		{name: "long title", mod: func(r *models.CreatePostRequest) { r.Title = strings.Repeat("가", 101) }, field: "title"},
		{name: "empty content", mod: func(r *models.CreatePostRequest) { r.Content = "" }, field: "content"},
		{name: "unknown category", mod: func(r *models.CreatePostRequest) { r.Category = "잡담" }, field: "category"},
		{name: "too many tags", mod: func(r *models.CreatePostRequest) { r.Tags = []string{"a", "b", "c", "d", "e", "f"} }, field: "tags"},
		{name: "too many images", mod: func(r *models.CreatePostRequest) { r.Images = make([]string, 6) }, field: "images"},
		{name: "not an image", mod: func(r *models.CreatePostRequest) { r.Images = []string{"data:text/plain;base64,aGk="} }, field: "images"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := postRequest("제목")
			tt.mod(&req)
			_, err := f.community.Create(ctx, "u1", req)
			assertStatus(t, err, http.StatusBadRequest)
		})
	}
}

func TestCreateAndGetPost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := postRequest("첫 글")
	req.Images = []string{pngDataURL(t, 400, 200)}
	post, err := f.community.Create(ctx, "u1", req)
	require.NoError(t, err)

	assert.Equal(t, "익명의 직장인", post.AuthorName)
	assert.Equal(t, []string{"회복", "일상"}, post.Tags)
	assert.Contains(t, post.ContentHTML, "<strong>조금</strong>")
	require.Len(t, post.Images, 1)
	assert.True(t, strings.HasPrefix(post.Images[0], "data:image/jpeg;base64,"))
	assert.Contains(t, f.publisher.types(), models.ActivityPostCreate)
	assert.True(t, badgeState(t, f, "u1", "community-starter").Unlocked)

	detail, err := f.community.Get(ctx, "u2", post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.ViewCount)
	assert.False(t, detail.Liked)

	_, err = f.community.Get(ctx, "u2", "missing")
	assertStatus(t, err, http.StatusNotFound)
}

func TestPostOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	post, err := f.community.Create(ctx, "u1", postRequest("내 글"))
	require.NoError(t, err)

	title := "남의 글"
	_, err = f.community.Update(ctx, "u2", post.ID, models.UpdatePostRequest{Title: &title})
	assertStatus(t, err, http.StatusForbidden)
	assertStatus(t, f.community.Delete(ctx, "u2", post.ID), http.StatusForbidden)

	title = "고친 글"
	content := "# 제목\n본문"
	updated, err := f.community.Update(ctx, "u1", post.ID, models.UpdatePostRequest{Title: &title, Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "고친 글", updated.Title)
	assert.Contains(t, updated.ContentHTML, "<h1>")
	assert.Equal(t, post.Tags, updated.Tags, "nil tags leave tags alone")

	withImage, err := f.community.AddImages(ctx, "u1", post.ID, []string{pngDataURL(t, 20, 20)})
	require.NoError(t, err)
	assert.Len(t, withImage.Images, 1)

	require.NoError(t, f.community.Delete(ctx, "u1", post.ID))
	_, err = f.community.Get(ctx, "u1", post.ID)
	assertStatus(t, err, http.StatusNotFound)
}

func TestCommentsThreadAndLikes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	post, err := f.community.Create(ctx, "u1", postRequest("고민"))
	require.NoError(t, err)

	_, err = f.community.AddComment(ctx, "u2", post.ID, models.CreateCommentRequest{Content: "  "})
	assertStatus(t, err, http.StatusBadRequest)

	root, err := f.community.AddComment(ctx, "u2", post.ID, models.CreateCommentRequest{Content: "힘내요"})
	require.NoError(t, err)
	reply, err := f.community.AddComment(ctx, "u1", post.ID, models.CreateCommentRequest{Content: "고마워요", ParentID: root.ID})
	require.NoError(t, err)

	_, err = f.community.AddComment(ctx, "u1", post.ID, models.CreateCommentRequest{Content: "x", ParentID: "missing"})
	assertStatus(t, err, http.StatusNotFound)

	thread, err := f.community.Comments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	require.Len(t, thread[0].Replies, 1)
	assert.Equal(t, reply.ID, thread[0].Replies[0].ID)

	res, err := f.community.ToggleLike(ctx, "u2", models.ToggleLikeRequest{TargetID: post.ID, TargetType: models.TargetPost})
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, LikeCount: 1}, res)

	detail, err := f.community.Get(ctx, "u2", post.ID)
	require.NoError(t, err)
	assert.True(t, detail.Liked)
	assert.Equal(t, 1, detail.LikeCount)
	assert.Equal(t, 2, detail.CommentCount)

	res, err = f.community.ToggleLike(ctx, "u2", models.ToggleLikeRequest{TargetID: post.ID, TargetType: models.TargetPost})
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: false, LikeCount: 0}, res)

	_, err = f.community.ToggleLike(ctx, "u2", models.ToggleLikeRequest{TargetID: "missing", TargetType: models.TargetComment})
	assertStatus(t, err, http.StatusNotFound)

	assertStatus(t, f.community.DeleteComment(ctx, "u1", root.ID), http.StatusForbidden)
	require.NoError(t, f.community.DeleteComment(ctx, "u2", root.ID))
	thread, err = f.community.Comments(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, thread, "replies go with their parent")
}

func TestBookmarks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	post, err := f.community.Create(ctx, "u1", postRequest("저장할 글"))
	require.NoError(t, err)

	added, err := f.community.ToggleBookmark(ctx, "u2", post.ID)
	require.NoError(t, err)
	assert.True(t, added)

	marked, err := f.community.Bookmarks(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, marked, 1)
	assert.Equal(t, post.ID, marked[0].ID)

	added, err = f.community.ToggleBookmark(ctx, "u2", post.ID)
	require.NoError(t, err)
	assert.False(t, added)

	_, err = f.community.ToggleBookmark(ctx, "u2", "missing")
	assertStatus(t, err, http.StatusNotFound)
}

func TestFilterPosts(t *testing.T) {
	posts := []models.Post{
		{ID: "a", Title: "Burnout 이야기", Category: "고민", Tags: []string{"번아웃"}, CreatedAt: 3, LikeCount: 1, ViewCount: 10, CommentCount: 5},
		{ID: "b", Title: "점심 메뉴", Content: "burnout 예방 식단", Category: "일상", Tags: []string{"식단"}, CreatedAt: 2, LikeCount: 5, ViewCount: 30, AuthorID: "u9"},
		{ID: "c", Title: "질문", Category: "질문", Tags: []string{"번아웃", "이직"}, CreatedAt: 1, LikeCount: 5, ViewCount: 20, CommentCount: 1},
	}
	ids := func(ps []models.Post) []string {
		out := []string{}
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	assert.Equal(t, []string{"a", "b", "c"}, ids(FilterPosts(posts, models.PostFilter{})))
	assert.Equal(t, []string{"a", "b"}, ids(FilterPosts(posts, models.PostFilter{SearchQuery: "BURNOUT"})))
	assert.Equal(t, []string{"a", "c"}, ids(FilterPosts(posts, models.PostFilter{Tags: []string{"번아웃"}})))
	assert.Equal(t, []string{"b"}, ids(FilterPosts(posts, models.PostFilter{AuthorID: "u9"})))
	assert.Equal(t, []string{"c"}, ids(FilterPosts(posts, models.PostFilter{Category: "질문"})))
	assert.Equal(t, []string{"b", "c", "a"}, ids(FilterPosts(posts, models.PostFilter{SortBy: models.SortPopular})), "ties keep board order")
	assert.Equal(t, []string{"a", "c", "b"}, ids(FilterPosts(posts, models.PostFilter{SortBy: models.SortComments})))
	assert.Equal(t, []string{"b", "c", "a"}, ids(FilterPosts(posts, models.PostFilter{SortBy: models.SortViews})))
}

func TestThreadPromotesOrphans(t *testing.T) {
	flat := []models.Comment{
		{ID: "1"},
		{ID: "2", ParentID: "1"},
		{ID: "3", ParentID: "2"},
		{ID: "4", ParentID: "gone"},
	}
	thread := Thread(flat)
	require.Len(t, thread, 2)
	assert.Equal(t, "1", thread[0].ID)
	require.Len(t, thread[0].Replies, 1)
	require.Len(t, thread[0].Replies[0].Replies, 1)
	assert.Equal(t, "3", thread[0].Replies[0].Replies[0].ID)
	assert.Equal(t, "4", thread[1].ID)
}

func TestSeedOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	seeded, err := f.community.Seed(ctx, false)
	require.NoError(t, err)
	assert.True(t, seeded)

	posts, err := f.community.List(ctx, models.PostFilter{})
	require.NoError(t, err)
	require.Len(t, posts, 10)
	assert.Equal(t, "익명의 직장인 1", posts[0].AuthorName)
	assert.Equal(t, fixedNow.UnixMilli(), posts[0].CreatedAt)
	for _, p := range posts {
		assert.GreaterOrEqual(t, p.ViewCount, 50)
		assert.Less(t, p.ViewCount, 150)
		assert.GreaterOrEqual(t, p.CommentCount, 1)
	}

	seeded, err = f.community.Seed(ctx, false)
	require.NoError(t, err)
	assert.False(t, seeded)

	seeded, err = f.community.Seed(ctx, true)
	require.NoError(t, err)
	assert.True(t, seeded)
}
