package models

// PostCategory is the board a post belongs to
type PostCategory string

// PostCategories lists every board in display order
var PostCategories = []PostCategory{"일상", "고민", "질문", "정보", "극복담", "응원", "기타"}

// Valid reports whether c is a known board
func (c PostCategory) Valid() bool {
	for _, known := range PostCategories {
		if known == c {
			return true
		}
	}
	return false
}

// Post author fields are copied at creation time and never refreshed.
type Post struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Content      string       `json:"content"`
	ContentHTML  string       `json:"contentHtml,omitempty"`
	Category     PostCategory `json:"category"`
	Tags         []string     `json:"tags"`
	AuthorID     string       `json:"authorId"`
	AuthorName   string       `json:"authorName"`
	AuthorJob    string       `json:"authorJob,omitempty"`
	AuthorLevel  string       `json:"authorLevel,omitempty"`
	CreatedAt    int64        `json:"createdAt"`
	UpdatedAt    int64        `json:"updatedAt"`
	LikeCount    int          `json:"likeCount"`
	CommentCount int          `json:"commentCount"`
	ViewCount    int          `json:"viewCount"`
	Images       []string     `json:"images,omitempty"`
}

// Comment is a reply to a post, or to another comment when ParentID is set
type Comment struct {
	ID          string    `json:"id"`
	PostID      string    `json:"postId"`
	Content     string    `json:"content"`
	AuthorID    string    `json:"authorId"`
	AuthorName  string    `json:"authorName"`
	AuthorJob   string    `json:"authorJob,omitempty"`
	AuthorLevel string    `json:"authorLevel,omitempty"`
	CreatedAt   int64     `json:"createdAt"`
	UpdatedAt   int64     `json:"updatedAt"`
	LikeCount   int       `json:"likeCount"`
	ParentID    string    `json:"parentId,omitempty"`
	Replies     []Comment `json:"replies,omitempty"`
}

// LikeTarget is post or comment
type LikeTarget string

const (
	TargetPost    LikeTarget = "post"
	TargetComment LikeTarget = "comment"
)

type Like struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	TargetID   string     `json:"targetId"`
	TargetType LikeTarget `json:"targetType"`
	CreatedAt  int64      `json:"createdAt"`
}

type Bookmark struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	PostID    string `json:"postId"`
	CreatedAt int64  `json:"createdAt"`
}

// Post sort orders
const (
	SortRecent   = "recent"
	SortPopular  = "popular"
	SortComments = "comments"
	SortViews    = "views"
)

// PostFilter narrows and orders the post list. Empty fields do not filter.
type PostFilter struct {
	Category    PostCategory `form:"category"`
	SearchQuery string       `form:"q"`
	SortBy      string       `form:"sortBy"`
	AuthorID    string       `form:"authorId"`
	Tags        []string     `form:"tags"`
}

// CreatePostRequest is the payload of POST /community/posts
type CreatePostRequest struct {
	Title    string       `json:"title" binding:"required,max=100"`
	Content  string       `json:"content" binding:"required"`
	Category PostCategory `json:"category" binding:"required"`
	Tags     []string     `json:"tags" binding:"max=5"`
	Images   []string     `json:"images"`
	// Anonymous hides the profile display name; nil means anonymous
	Anonymous *bool `json:"anonymous"`
}

// UpdatePostRequest carries the fields a post author may change
type UpdatePostRequest struct {
	Title    *string       `json:"title"`
	Content  *string       `json:"content"`
	Category *PostCategory `json:"category"`
	Tags     []string      `json:"tags" binding:"max=5"`
	Images   []string      `json:"images"`
}

// CreateCommentRequest is the payload of POST /community/posts/:id/comments
type CreateCommentRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID string `json:"parentId"`
}

// UpdateCommentRequest edits a comment's text
type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// ToggleLikeRequest is the payload of POST /community/likes/toggle
type ToggleLikeRequest struct {
	TargetID   string     `json:"targetId" binding:"required"`
	TargetType LikeTarget `json:"targetType" binding:"required,oneof=post comment"`
}

// Author is the identity stamped onto new posts and comments
type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Job   string `json:"job,omitempty"`
	Level string `json:"level,omitempty"`
}
