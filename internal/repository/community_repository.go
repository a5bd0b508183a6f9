package repository

import (
	"context"
	"errors"

	"maeum-toegeun/backend/internal/models"
)

// CommunityRepository owns the shared post, comment, like and bookmark
// tables. Cascades fan out over the tables one key at a time; the like and
// comment counters are recomputed from the child tables on read.
type CommunityRepository struct {
	store *Store
}

func NewCommunityRepository(store *Store) *CommunityRepository {
	return &CommunityRepository{store: store}
}

func (r *CommunityRepository) posts() Table[models.Post] {
	return table[models.Post](r.store, r.store.sharedKey(tablePosts))
}

func (r *CommunityRepository) comments() Table[models.Comment] {
	return table[models.Comment](r.store, r.store.sharedKey(tableComments))
}

func (r *CommunityRepository) likes() Table[models.Like] {
	return table[models.Like](r.store, r.store.sharedKey(tableLikes))
}

func (r *CommunityRepository) bookmarks() Table[models.Bookmark] {
	return table[models.Bookmark](r.store, r.store.sharedKey(tableBookmarks))
}

// Posts returns every post newest first with fresh counters
func (r *CommunityRepository) Posts(ctx context.Context) ([]models.Post, error) {
	posts, err := r.posts().All(ctx)
	if err != nil {
		return nil, err
	}
	return r.hydrate(ctx, posts)
}

func (r *CommunityRepository) Post(ctx context.Context, id string) (models.Post, error) {
	post, err := r.posts().Find(ctx, func(p models.Post) bool { return p.ID == id })
	if err != nil {
		return post, err
	}
	hydrated, err := r.hydrate(ctx, []models.Post{post})
	if err != nil {
		return post, err
	}
	return hydrated[0], nil
}

func (r *CommunityRepository) hydrate(ctx context.Context, posts []models.Post) ([]models.Post, error) {
	if len(posts) == 0 {
		return posts, nil
	}
	comments, err := r.comments().All(ctx)
	if err != nil {
		return nil, err
	}
	likes, err := r.likes().All(ctx)
	if err != nil {
		return nil, err
	}

	commentCounts := make(map[string]int)
	for _, c := range comments {
		commentCounts[c.PostID]++
	}
	likeCounts := make(map[string]int)
	for _, l := range likes {
		if l.TargetType == models.TargetPost {
			likeCounts[l.TargetID]++
		}
	}
	for i := range posts {
		posts[i].CommentCount = commentCounts[posts[i].ID]
		posts[i].LikeCount = likeCounts[posts[i].ID]
	}
	return posts, nil
}

// CreatePost stamps id and times and puts the post at the top of the board
func (r *CommunityRepository) CreatePost(ctx context.Context, post models.Post) (models.Post, error) {
	now := r.store.millis()
	if post.ID == "" {
		post.ID = newID()
	}
	if post.CreatedAt == 0 {
		post.CreatedAt = now
	}
	post.UpdatedAt = post.CreatedAt
	if post.Tags == nil {
		post.Tags = []string{}
	}
	_, err := r.posts().Mutate(ctx, func(rows []models.Post) ([]models.Post, error) {
		return prepend(rows, post), nil
	})
	return post, err
}

// UpdatePost applies fn to the post and stamps UpdatedAt
func (r *CommunityRepository) UpdatePost(ctx context.Context, id string, fn func(*models.Post)) (models.Post, error) {
	var updated models.Post
	_, err := r.posts().Mutate(ctx, func(rows []models.Post) ([]models.Post, error) {
		for i := range rows {
			if rows[i].ID == id {
				fn(&rows[i])
				rows[i].UpdatedAt = r.store.millis()
				updated = rows[i]
				return rows, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return updated, err
	}
	return r.Post(ctx, id)
}

// IncrementView bumps the view counter without touching UpdatedAt
func (r *CommunityRepository) IncrementView(ctx context.Context, id string) error {
	_, err := r.posts().Mutate(ctx, func(rows []models.Post) ([]models.Post, error) {
		for i := range rows {
			if rows[i].ID == id {
				rows[i].ViewCount++
				return rows, nil
			}
		}
		return nil, ErrNotFound
	})
	return err
}

// DeletePost removes the post, its comments, every like on the post or its
// comments and every bookmark of it
func (r *CommunityRepository) DeletePost(ctx context.Context, id string) (bool, error) {
	n, err := r.posts().Remove(ctx, func(p models.Post) bool { return p.ID == id })
	if err != nil || n == 0 {
		return false, err
	}

	commentIDs := make(map[string]bool)
	if _, err := r.comments().Remove(ctx, func(c models.Comment) bool {
		if c.PostID == id {
			commentIDs[c.ID] = true
			return true
		}
		return false
	}); err != nil {
		return true, err
	}

	if _, err := r.likes().Remove(ctx, func(l models.Like) bool {
		return (l.TargetType == models.TargetPost && l.TargetID == id) ||
			(l.TargetType == models.TargetComment && commentIDs[l.TargetID])
	}); err != nil {
		return true, err
	}

	if _, err := r.bookmarks().Remove(ctx, func(b models.Bookmark) bool { return b.PostID == id }); err != nil {
		return true, err
	}
	return true, nil
}

// CountPostsBy counts the posts written by authorID
func (r *CommunityRepository) CountPostsBy(ctx context.Context, authorID string) (int, error) {
	posts, err := r.posts().All(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range posts {
		if p.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

// Comments returns the comments of postID in creation order with fresh like
// counts. Replies are not nested.
func (r *CommunityRepository) Comments(ctx context.Context, postID string) ([]models.Comment, error) {
	all, err := r.comments().All(ctx)
	if err != nil {
		return nil, err
	}
	likes, err := r.likes().All(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, l := range likes {
		if l.TargetType == models.TargetComment {
			counts[l.TargetID]++
		}
	}

	out := []models.Comment{}
	for _, c := range all {
		if c.PostID == postID {
			c.LikeCount = counts[c.ID]
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *CommunityRepository) Comment(ctx context.Context, id string) (models.Comment, error) {
	return r.comments().Find(ctx, func(c models.Comment) bool { return c.ID == id })
}

// CreateComment appends the comment and refreshes the post comment count
func (r *CommunityRepository) CreateComment(ctx context.Context, comment models.Comment) (models.Comment, error) {
	if _, err := r.posts().Find(ctx, func(p models.Post) bool { return p.ID == comment.PostID }); err != nil {
		return comment, err
	}

	now := r.store.millis()
	if comment.ID == "" {
		comment.ID = newID()
	}
	if comment.CreatedAt == 0 {
		comment.CreatedAt = now
	}
	comment.UpdatedAt = comment.CreatedAt
	comment.Replies = nil

	count := 0
	_, err := r.comments().Mutate(ctx, func(rows []models.Comment) ([]models.Comment, error) {
		rows = append(rows, comment)
		count = countComments(rows, comment.PostID)
		return rows, nil
	})
	if err != nil {
		return comment, err
	}
	return comment, r.setCommentCount(ctx, comment.PostID, count)
}

// UpdateComment replaces the comment text
func (r *CommunityRepository) UpdateComment(ctx context.Context, id, content string) (models.Comment, error) {
	var updated models.Comment
	_, err := r.comments().Mutate(ctx, func(rows []models.Comment) ([]models.Comment, error) {
		for i := range rows {
			if rows[i].ID == id {
				rows[i].Content = content
				rows[i].UpdatedAt = r.store.millis()
				updated = rows[i]
				return rows, nil
			}
		}
		return nil, ErrNotFound
	})
	return updated, err
}

// DeleteComment removes the comment with its direct replies and their likes
func (r *CommunityRepository) DeleteComment(ctx context.Context, id string) (bool, error) {
	var (
		postID  string
		removed = make(map[string]bool)
		count   int
	)
	_, err := r.comments().Mutate(ctx, func(rows []models.Comment) ([]models.Comment, error) {
		postID = ""
		removed = make(map[string]bool)
		for _, c := range rows {
			if c.ID == id {
				postID = c.PostID
			}
		}
		if postID == "" {
			return rows, nil
		}
		kept := rows[:0]
		for _, c := range rows {
			if c.ID == id || c.ParentID == id {
				removed[c.ID] = true
				continue
			}
			kept = append(kept, c)
		}
		count = countComments(kept, postID)
		return kept, nil
	})
	if err != nil || len(removed) == 0 {
		return false, err
	}

	if _, err := r.likes().Remove(ctx, func(l models.Like) bool {
		return l.TargetType == models.TargetComment && removed[l.TargetID]
	}); err != nil {
		return true, err
	}
	return true, r.setCommentCount(ctx, postID, count)
}

// CountCommentsBy counts the comments written by authorID
func (r *CommunityRepository) CountCommentsBy(ctx context.Context, authorID string) (int, error) {
	all, err := r.comments().All(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range all {
		if c.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

func (r *CommunityRepository) setCommentCount(ctx context.Context, postID string, count int) error {
	_, err := r.posts().Mutate(ctx, func(rows []models.Post) ([]models.Post, error) {
		for i := range rows {
			if rows[i].ID == postID {
				rows[i].CommentCount = count
			}
		}
		return rows, nil
	})
	return err
}

func countComments(rows []models.Comment, postID string) int {
	n := 0
	for _, c := range rows {
		if c.PostID == postID {
			n++
		}
	}
	return n
}

// ToggleLike adds or removes the like of userID on the target. It returns
// whether the target is now liked and its like count.
func (r *CommunityRepository) ToggleLike(ctx context.Context, userID, targetID string, target models.LikeTarget) (bool, int, error) {
	var liked bool
	var count int
	_, err := r.likes().Mutate(ctx, func(rows []models.Like) ([]models.Like, error) {
		liked = true
		kept := make([]models.Like, 0, len(rows)+1)
		for _, l := range rows {
			if l.UserID == userID && l.TargetID == targetID && l.TargetType == target {
				liked = false
				continue
			}
			kept = append(kept, l)
		}
		if liked {
			kept = append(kept, models.Like{
				ID:         newID(),
				UserID:     userID,
				TargetID:   targetID,
				TargetType: target,
				CreatedAt:  r.store.millis(),
			})
		}
		count = 0
		for _, l := range kept {
			if l.TargetID == targetID && l.TargetType == target {
				count++
			}
		}
		return kept, nil
	})
	if err != nil {
		return false, 0, err
	}

	switch target {
	case models.TargetPost:
		_, err = r.posts().Mutate(ctx, func(rows []models.Post) ([]models.Post, error) {
			for i := range rows {
				if rows[i].ID == targetID {
					rows[i].LikeCount = count
				}
			}
			return rows, nil
		})
	case models.TargetComment:
		_, err = r.comments().Mutate(ctx, func(rows []models.Comment) ([]models.Comment, error) {
			for i := range rows {
				if rows[i].ID == targetID {
					rows[i].LikeCount = count
				}
			}
			return rows, nil
		})
	}
	return liked, count, err
}

func (r *CommunityRepository) IsLiked(ctx context.Context, userID, targetID string, target models.LikeTarget) (bool, error) {
	_, err := r.likes().Find(ctx, func(l models.Like) bool {
		return l.UserID == userID && l.TargetID == targetID && l.TargetType == target
	})
	return found(err)
}

// ToggleBookmark adds or removes the bookmark and reports whether it now exists
func (r *CommunityRepository) ToggleBookmark(ctx context.Context, userID, postID string) (bool, error) {
	var added bool
	_, err := r.bookmarks().Mutate(ctx, func(rows []models.Bookmark) ([]models.Bookmark, error) {
		added = true
		kept := make([]models.Bookmark, 0, len(rows)+1)
		for _, b := range rows {
			if b.UserID == userID && b.PostID == postID {
				added = false
				continue
			}
			kept = append(kept, b)
		}
		if added {
			kept = append(kept, models.Bookmark{
				ID:        newID(),
				UserID:    userID,
				PostID:    postID,
				CreatedAt: r.store.millis(),
			})
		}
		return kept, nil
	})
	return added, err
}

func (r *CommunityRepository) IsBookmarked(ctx context.Context, userID, postID string) (bool, error) {
	_, err := r.bookmarks().Find(ctx, func(b models.Bookmark) bool {
		return b.UserID == userID && b.PostID == postID
	})
	return found(err)
}

// BookmarkedPosts returns the posts bookmarked by userID in board order
func (r *CommunityRepository) BookmarkedPosts(ctx context.Context, userID string) ([]models.Post, error) {
	marks, err := r.bookmarks().All(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool)
	for _, b := range marks {
		if b.UserID == userID {
			ids[b.PostID] = true
		}
	}

	posts, err := r.Posts(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Post{}
	for _, p := range posts {
		if ids[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

// Empty reports whether the board has no posts
func (r *CommunityRepository) Empty(ctx context.Context) (bool, error) {
	posts, err := r.posts().All(ctx)
	return len(posts) == 0, err
}

// Replace overwrites the post and comment tables and clears likes and bookmarks
func (r *CommunityRepository) Replace(ctx context.Context, posts []models.Post, comments []models.Comment) error {
	if err := r.posts().Save(ctx, posts); err != nil {
		return err
	}
	if err := r.comments().Save(ctx, comments); err != nil {
		return err
	}
	if err := r.likes().Save(ctx, []models.Like{}); err != nil {
		return err
	}
	return r.bookmarks().Save(ctx, []models.Bookmark{})
}

func found(err error) (bool, error) {
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
