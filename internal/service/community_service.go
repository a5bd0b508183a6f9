package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"

	"maeum-toegeun/backend/internal/catalog"
	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/repository"
	apperrors "maeum-toegeun/backend/pkg/errors"
	"maeum-toegeun/backend/pkg/imageutil"
	"maeum-toegeun/backend/pkg/logger"
)

const (
	anonymousAuthor = "익명의 직장인"
	maxTitleLength  = 100
	maxTags         = 5
	seedViewBase    = 50
	seedViewSpread  = 100
)

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithXHTML(),
	),
)

// RenderContent converts post markdown to HTML. Raw HTML in the source is
// not passed through.
func RenderContent(content string) string {
	text := strings.TrimSpace(content)
	if text == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return ""
	}
	return buf.String()
}

// ImageOptions bounds post images
type ImageOptions struct {
	MaxPerPost int
	MaxWidth   int
	TargetKB   int
}

// PostDetail is a post with its comment thread and the viewer's state
type PostDetail struct {
	models.Post
	Comments   []models.Comment `json:"comments"`
	Liked      bool             `json:"liked"`
	Bookmarked bool             `json:"bookmarked"`
}

// LikeResult is the state of a target after a like toggle
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

// CommunityService runs the shared board
type CommunityService struct {
	catalog      *catalog.Catalog
	repo         *repository.CommunityRepository
	profiles     *ProfileService
	activities   *ActivityService
	achievements *AchievementService
	images       ImageOptions
	now          Clock
	log          *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewCommunityService(
	cat *catalog.Catalog,
	repo *repository.CommunityRepository,
	profiles *ProfileService,
	activities *ActivityService,
	achievements *AchievementService,
	images ImageOptions,
	now Clock,
	log *logger.Logger,
) *CommunityService {
	if images.MaxPerPost <= 0 {
		images.MaxPerPost = 5
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	return &CommunityService{
		catalog:      cat,
		repo:         repo,
		profiles:     profiles,
		activities:   activities,
		achievements: achievements,
		images:       images,
		now:          orNow(now),
		log:          log.WithComponent("community"),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func forbidden(message string) error {
	return apperrors.NewForbiddenError(apperrors.CodeForbidden, message)
}

func validatePost(title, content string, category models.PostCategory) error {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		return invalid("title", "제목을 입력해주세요.")
	case len([]rune(title)) > maxTitleLength:
		return invalid("title", "제목은 100자 이내로 입력해주세요.")
	case strings.TrimSpace(content) == "":
		return invalid("content", "내용을 입력해주세요.")
	case category == "" || !category.Valid():
		return invalid("category", "카테고리를 선택해주세요.")
	}
	return nil
}

// normalizeTags trims, drops empties and duplicates and enforces the cap
func normalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" || containsString(out, t) {
			continue
		}
		out = append(out, t)
	}
	if len(out) > maxTags {
		return nil, invalid("tags", "태그는 최대 5개까지 추가할 수 있습니다.")
	}
	return out, nil
}

// compressImages recompresses data URLs. Plain URLs are kept as they are.
func (s *CommunityService) compressImages(images []string) ([]string, error) {
	if len(images) > s.images.MaxPerPost {
		return nil, invalid("images", fmt.Sprintf("이미지는 최대 %d개까지 업로드할 수 있습니다.", s.images.MaxPerPost))
	}
	out := make([]string, 0, len(images))
	for _, img := range images {
		if !strings.HasPrefix(img, "data:") {
			out = append(out, img)
			continue
		}
		res, err := imageutil.Compress(img, imageutil.Options{
			MaxWidth:   s.images.MaxWidth,
			MaxHeight:  s.images.MaxWidth,
			TargetSize: s.images.TargetKB,
		})
		if err != nil {
			if errors.Is(err, imageutil.ErrNotImage) || errors.Is(err, imageutil.ErrTooLarge) {
				return nil, invalid("images", err.Error())
			}
			return nil, invalid("images", "이미지를 처리할 수 없습니다.")
		}
		out = append(out, res.Data)
	}
	return out, nil
}

// List filters and sorts the board
func (s *CommunityService) List(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	posts, err := s.repo.Posts(ctx)
	if err != nil {
		return nil, err
	}
	return FilterPosts(posts, filter), nil
}

// FilterPosts applies category, author, tag and search filters, then sorts.
// Search matches title, content and tags case-insensitively. Ties keep board
// order.
func FilterPosts(posts []models.Post, filter models.PostFilter) []models.Post {
	query := strings.ToLower(strings.TrimSpace(filter.SearchQuery))
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.AuthorID != "" && p.AuthorID != filter.AuthorID {
			continue
		}
		if len(filter.Tags) > 0 && !anyShared(p.Tags, filter.Tags) {
			continue
		}
		if query != "" && !postMatches(p, query) {
			continue
		}
		out = append(out, p)
	}

	var less func(a, b models.Post) bool
	switch filter.SortBy {
	case models.SortPopular:
		less = func(a, b models.Post) bool { return a.LikeCount > b.LikeCount }
	case models.SortComments:
		less = func(a, b models.Post) bool { return a.CommentCount > b.CommentCount }
	case models.SortViews:
		less = func(a, b models.Post) bool { return a.ViewCount > b.ViewCount }
	default:
		less = func(a, b models.Post) bool { return a.CreatedAt > b.CreatedAt }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func postMatches(p models.Post, query string) bool {
	if strings.Contains(strings.ToLower(p.Title), query) || strings.Contains(strings.ToLower(p.Content), query) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), query) {
			return true
		}
	}
	return false
}

// Create validates and stores a new post under the caller's identity
func (s *CommunityService) Create(ctx context.Context, userID string, req models.CreatePostRequest) (models.Post, error) {
	if err := validatePost(req.Title, req.Content, req.Category); err != nil {
		return models.Post{}, err
	}
	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return models.Post{}, err
	}
	images, err := s.compressImages(req.Images)
	if err != nil {
		return models.Post{}, err
	}

	anonymous := req.Anonymous == nil || *req.Anonymous
	author, err := s.profiles.Author(ctx, userID, anonymous)
	if err != nil {
		return models.Post{}, err
	}

	post, err := s.repo.CreatePost(ctx, models.Post{
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		ContentHTML: RenderContent(req.Content),
		Category:    req.Category,
		Tags:        tags,
		AuthorID:    author.ID,
		AuthorName:  author.Name,
		AuthorJob:   author.Job,
		AuthorLevel: author.Level,
		CreatedAt:   s.now().UnixMilli(),
		Images:      images,
	})
	if err != nil {
		return post, err
	}

	s.activities.record(ctx, models.Activity{
		UserID:      userID,
		Type:        models.ActivityPostCreate,
		TargetID:    post.ID,
		TargetType:  "post",
		Title:       "커뮤니티 글 작성",
		Description: post.Title,
	})
	s.checkBadges(ctx, userID)
	return post, nil
}

// Get returns the post with its thread and bumps the view counter
func (s *CommunityService) Get(ctx context.Context, userID, postID string) (PostDetail, error) {
	if err := s.repo.IncrementView(ctx, postID); err != nil {
		return PostDetail{}, notFound(err, "게시글을 찾을 수 없습니다.")
	}
	post, err := s.repo.Post(ctx, postID)
	if err != nil {
		return PostDetail{}, notFound(err, "게시글을 찾을 수 없습니다.")
	}
	if post.ContentHTML == "" {
		post.ContentHTML = RenderContent(post.Content)
	}
	comments, err := s.Comments(ctx, postID)
	if err != nil {
		return PostDetail{}, err
	}

	detail := PostDetail{Post: post, Comments: comments}
	if userID != "" {
		if detail.Liked, err = s.repo.IsLiked(ctx, userID, postID, models.TargetPost); err != nil {
			return detail, err
		}
		if detail.Bookmarked, err = s.repo.IsBookmarked(ctx, userID, postID); err != nil {
			return detail, err
		}
	}
	return detail, nil
}

func (s *CommunityService) owned(ctx context.Context, userID, postID string) (models.Post, error) {
	post, err := s.repo.Post(ctx, postID)
	if err != nil {
		return post, notFound(err, "게시글을 찾을 수 없습니다.")
	}
	if post.AuthorID != userID {
		return post, forbidden("작성자만 수정하거나 삭제할 수 있습니다.")
	}
	return post, nil
}

// Update edits the caller's own post
func (s *CommunityService) Update(ctx context.Context, userID, postID string, req models.UpdatePostRequest) (models.Post, error) {
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return post, err
	}

	title, content, category := post.Title, post.Content, post.Category
	if req.Title != nil {
		title = *req.Title
	}
	if req.Content != nil {
		content = *req.Content
	}
	if req.Category != nil {
		category = *req.Category
	}
	if err := validatePost(title, content, category); err != nil {
		return post, err
	}

	var tags, images []string
	if req.Tags != nil {
		if tags, err = normalizeTags(req.Tags); err != nil {
			return post, err
		}
	}
	if req.Images != nil {
		if images, err = s.compressImages(req.Images); err != nil {
			return post, err
		}
	}

	updated, err := s.repo.UpdatePost(ctx, postID, func(p *models.Post) {
		p.Title = strings.TrimSpace(title)
		p.Content = content
		p.ContentHTML = RenderContent(content)
		p.Category = category
		if req.Tags != nil {
			p.Tags = tags
		}
		if req.Images != nil {
			p.Images = images
		}
	})
	return updated, notFound(err, "게시글을 찾을 수 없습니다.")
}

// AddImages appends compressed images to the caller's own post
func (s *CommunityService) AddImages(ctx context.Context, userID, postID string, images []string) (models.Post, error) {
	post, err := s.owned(ctx, userID, postID)
	if err != nil {
		return post, err
	}
	if len(post.Images)+len(images) > s.images.MaxPerPost {
		return post, invalid("images", fmt.Sprintf("이미지는 최대 %d개까지 업로드할 수 있습니다.", s.images.MaxPerPost))
	}
	compressed, err := s.compressImages(images)
	if err != nil {
		return post, err
	}
	updated, err := s.repo.UpdatePost(ctx, postID, func(p *models.Post) {
		p.Images = append(p.Images, compressed...)
	})
	return updated, notFound(err, "게시글을 찾을 수 없습니다.")
}

// Delete removes the caller's own post with everything attached to it
func (s *CommunityService) Delete(ctx context.Context, userID, postID string) error {
	if _, err := s.owned(ctx, userID, postID); err != nil {
		return err
	}
	ok, err := s.repo.DeletePost(ctx, postID)
	if err != nil {
		return err
	}
	if !ok {
		return missing("게시글을 찾을 수 없습니다.")
	}
	return nil
}

// Comments returns the thread of a post. Top-level comments are in creation
// order with their replies nested below them.
func (s *CommunityService) Comments(ctx context.Context, postID string) ([]models.Comment, error) {
	flat, err := s.repo.Comments(ctx, postID)
	if err != nil {
		return nil, err
	}
	return Thread(flat), nil
}

// Thread nests comments under their parents. Replies whose parent is gone
// are promoted to the top level.
func Thread(flat []models.Comment) []models.Comment {
	ids := make(map[string]bool, len(flat))
	for _, c := range flat {
		ids[c.ID] = true
	}
	children := make(map[string][]models.Comment)
	roots := []models.Comment{}
	for _, c := range flat {
		c.Replies = nil
		if c.ParentID != "" && ids[c.ParentID] && c.ParentID != c.ID {
			children[c.ParentID] = append(children[c.ParentID], c)
			continue
		}
		roots = append(roots, c)
	}

	var attach func(c models.Comment, depth int) models.Comment
	attach = func(c models.Comment, depth int) models.Comment {
		if depth > len(flat) {
			return c
		}
		for _, child := range children[c.ID] {
			c.Replies = append(c.Replies, attach(child, depth+1))
		}
		return c
	}
	for i := range roots {
		roots[i] = attach(roots[i], 0)
	}
	return roots
}

// AddComment writes a comment or a reply under the caller's identity
func (s *CommunityService) AddComment(ctx context.Context, userID, postID string, req models.CreateCommentRequest) (models.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return models.Comment{}, invalid("content", "댓글 내용을 입력해주세요.")
	}
	if req.ParentID != "" {
		parent, err := s.repo.Comment(ctx, req.ParentID)
		if err != nil {
			return models.Comment{}, notFound(err, "답글을 달 댓글을 찾을 수 없습니다.")
		}
		if parent.PostID != postID {
			return models.Comment{}, invalid("parentId", "다른 게시글의 댓글에는 답글을 달 수 없습니다.")
		}
	}

	author, err := s.profiles.Author(ctx, userID, true)
	if err != nil {
		return models.Comment{}, err
	}
	comment, err := s.repo.CreateComment(ctx, models.Comment{
		PostID:      postID,
		Content:     content,
		AuthorID:    author.ID,
		AuthorName:  author.Name,
		AuthorJob:   author.Job,
		AuthorLevel: author.Level,
		ParentID:    req.ParentID,
		CreatedAt:   s.now().UnixMilli(),
	})
	if err != nil {
		return comment, notFound(err, "게시글을 찾을 수 없습니다.")
	}

	s.activities.record(ctx, models.Activity{
		UserID:     userID,
		Type:       models.ActivityPostComment,
		TargetID:   postID,
		TargetType: "post",
		Title:      "댓글 작성",
	})
	s.checkBadges(ctx, userID)
	return comment, nil
}

func (s *CommunityService) ownedComment(ctx context.Context, userID, commentID string) error {
	c, err := s.repo.Comment(ctx, commentID)
	if err != nil {
		return notFound(err, "댓글을 찾을 수 없습니다.")
	}
	if c.AuthorID != userID {
		return forbidden("작성자만 수정하거나 삭제할 수 있습니다.")
	}
	return nil
}

func (s *CommunityService) UpdateComment(ctx context.Context, userID, commentID, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, invalid("content", "댓글 내용을 입력해주세요.")
	}
	if err := s.ownedComment(ctx, userID, commentID); err != nil {
		return models.Comment{}, err
	}
	c, err := s.repo.UpdateComment(ctx, commentID, content)
	return c, notFound(err, "댓글을 찾을 수 없습니다.")
}

// DeleteComment removes the caller's comment and its replies
func (s *CommunityService) DeleteComment(ctx context.Context, userID, commentID string) error {
	if err := s.ownedComment(ctx, userID, commentID); err != nil {
		return err
	}
	ok, err := s.repo.DeleteComment(ctx, commentID)
	if err != nil {
		return err
	}
	if !ok {
		return missing("댓글을 찾을 수 없습니다.")
	}
	return nil
}

// ToggleLike likes or unlikes a post or comment
func (s *CommunityService) ToggleLike(ctx context.Context, userID string, req models.ToggleLikeRequest) (LikeResult, error) {
	switch req.TargetType {
	case models.TargetPost:
		if _, err := s.repo.Post(ctx, req.TargetID); err != nil {
			return LikeResult{}, notFound(err, "게시글을 찾을 수 없습니다.")
		}
	case models.TargetComment:
		if _, err := s.repo.Comment(ctx, req.TargetID); err != nil {
			return LikeResult{}, notFound(err, "댓글을 찾을 수 없습니다.")
		}
	default:
		return LikeResult{}, invalid("targetType", "알 수 없는 대상입니다.")
	}

	liked, count, err := s.repo.ToggleLike(ctx, userID, req.TargetID, req.TargetType)
	if err != nil {
		return LikeResult{}, err
	}
	if liked && req.TargetType == models.TargetPost {
		s.activities.record(ctx, models.Activity{
			UserID:     userID,
			Type:       models.ActivityPostLike,
			TargetID:   req.TargetID,
			TargetType: string(req.TargetType),
			Title:      "게시글 좋아요",
		})
	}
	return LikeResult{Liked: liked, LikeCount: count}, nil
}

// ToggleBookmark reports whether the post is bookmarked afterwards
func (s *CommunityService) ToggleBookmark(ctx context.Context, userID, postID string) (bool, error) {
	if _, err := s.repo.Post(ctx, postID); err != nil {
		return false, notFound(err, "게시글을 찾을 수 없습니다.")
	}
	added, err := s.repo.ToggleBookmark(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if added {
		s.activities.record(ctx, models.Activity{
			UserID:     userID,
			Type:       models.ActivityPostBookmark,
			TargetID:   postID,
			TargetType: "post",
			Title:      "게시글 북마크",
		})
	}
	return added, nil
}

func (s *CommunityService) Bookmarks(ctx context.Context, userID string) ([]models.Post, error) {
	return s.repo.BookmarkedPosts(ctx, userID)
}

func (s *CommunityService) checkBadges(ctx context.Context, userID string) {
	if s.achievements == nil {
		return
	}
	if _, err := s.achievements.CheckAndAward(ctx, userID); err != nil {
		s.log.LogError(err, "badge check after community action failed", "user_id", userID)
	}
}

// Seed fills an empty board with the sample posts. With force the board is
// replaced even when it has posts. It reports whether anything was written.
func (s *CommunityService) Seed(ctx context.Context, force bool) (bool, error) {
	if !force {
		empty, err := s.repo.Empty(ctx)
		if err != nil {
			return false, err
		}
		if !empty {
			return false, nil
		}
	}

	posts, comments := s.samples()
	if err := s.repo.Replace(ctx, posts, comments); err != nil {
		return false, err
	}
	s.log.Info("community seeded", "posts", len(posts), "comments", len(comments))
	return true, nil
}

func (s *CommunityService) samples() ([]models.Post, []models.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.catalog.Community()
	now := s.now()
	posts := make([]models.Post, 0, len(data.Posts))
	comments := []models.Comment{}
	for i, sample := range data.Posts {
		created := now.AddDate(0, 0, -i).UnixMilli()
		post := models.Post{
			ID:          uuid.NewString(),
			Title:       sample.Title,
			Content:     sample.Content,
			ContentHTML: RenderContent(sample.Content),
			Category:    models.PostCategories[i%len(models.PostCategories)],
			Tags:        append([]string{}, sample.Tags...),
			AuthorID:    fmt.Sprintf("user_%d", i+1),
			AuthorName:  fmt.Sprintf("%s %d", anonymousAuthor, i+1),
			AuthorJob:   pickAt(data.AuthorJobs, i),
			AuthorLevel: pickAt(data.AuthorLevels, i),
			CreatedAt:   created,
			UpdatedAt:   created,
			ViewCount:   s.rng.Intn(seedViewSpread) + seedViewBase,
		}

		thread := s.sampleComments(post, data, now)
		post.CommentCount = len(thread)
		comments = append(comments, thread...)
		posts = append(posts, post)
	}
	return posts, comments
}

// sampleComments writes one to five comments, each with a 50% chance of one
// to three replies addressed to its author
func (s *CommunityService) sampleComments(post models.Post, data catalog.CommunitySamples, now time.Time) []models.Comment {
	if len(data.Comments) == 0 {
		return nil
	}
	span := now.UnixMilli() - post.CreatedAt
	at := func() int64 {
		if span <= 0 {
			return post.CreatedAt
		}
		return post.CreatedAt + s.rng.Int63n(span)
	}
	author := func() (string, string, string) {
		n := s.rng.Intn(100) + 1
		return fmt.Sprintf("user_c%d", n),
			fmt.Sprintf("%s %d", anonymousAuthor, n),
			pickAt(data.AuthorJobs, s.rng.Intn(100))
	}

	out := []models.Comment{}
	for j, n := 0, s.rng.Intn(5)+1; j < n; j++ {
		id, name, job := author()
		created := at()
		parent := models.Comment{
			ID:         uuid.NewString(),
			PostID:     post.ID,
			Content:    data.Comments[s.rng.Intn(len(data.Comments))],
			AuthorID:   id,
			AuthorName: name,
			AuthorJob:  job,
			CreatedAt:  created,
			UpdatedAt:  created,
		}
		out = append(out, parent)

		if s.rng.Intn(2) == 0 {
			continue
		}
		for k, m := 0, s.rng.Intn(3)+1; k < m; k++ {
			rid, rname, rjob := author()
			rcreated := created
			if now.UnixMilli() > created {
				rcreated = created + s.rng.Int63n(now.UnixMilli()-created)
			}
			out = append(out, models.Comment{
				ID:         uuid.NewString(),
				PostID:     post.ID,
				Content:    "@" + parent.AuthorName + " " + data.Comments[s.rng.Intn(len(data.Comments))],
				AuthorID:   rid,
				AuthorName: rname,
				AuthorJob:  rjob,
				CreatedAt:  rcreated,
				UpdatedAt:  rcreated,
				ParentID:   parent.ID,
			})
		}
	}
	return out
}

func pickAt(list []string, i int) string {
	if len(list) == 0 {
		return ""
	}
	return list[i%len(list)]
}
