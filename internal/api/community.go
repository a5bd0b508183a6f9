package api

import (
	"net/http"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// CommunityHandler serves the shared board
type CommunityHandler struct {
	community *service.CommunityService
}

func NewCommunityHandler(community *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{community: community}
}

func (h *CommunityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	community := rg.Group("/community")
	{
		community.GET("/posts", h.ListPosts)
		community.POST("/posts", h.CreatePost)
		community.GET("/posts/:id", h.GetPost)
		community.PUT("/posts/:id", h.UpdatePost)
		community.DELETE("/posts/:id", h.DeletePost)
		community.POST("/posts/:id/images", h.AddImages)
		community.GET("/posts/:id/comments", h.Comments)
		community.POST("/posts/:id/comments", h.AddComment)
		community.POST("/posts/:id/bookmark", h.ToggleBookmark)
		community.PUT("/comments/:id", h.UpdateComment)
		community.DELETE("/comments/:id", h.DeleteComment)
		community.POST("/likes/toggle", h.ToggleLike)
		community.GET("/bookmarks", h.Bookmarks)
		community.POST("/seed", h.Seed)
	}
}

// ListPosts takes the PostFilter query parameters
func (h *CommunityHandler) ListPosts(c *gin.Context) {
	var filter models.PostFilter
	if !bindQuery(c, &filter) {
		return
	}
	posts, err := h.community.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *CommunityHandler) CreatePost(c *gin.Context) {
	var req models.CreatePostRequest
	if !bind(c, &req) {
		return
	}
	post, err := h.community.Create(c.Request.Context(), userID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// GetPost counts a view
func (h *CommunityHandler) GetPost(c *gin.Context) {
	detail, err := h.community.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *CommunityHandler) UpdatePost(c *gin.Context) {
	var req models.UpdatePostRequest
	if !bind(c, &req) {
		return
	}
	post, err := h.community.Update(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *CommunityHandler) DeletePost(c *gin.Context) {
	if err := h.community.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CommunityHandler) AddImages(c *gin.Context) {
	var req struct {
		Images []string `json:"images" binding:"required,min=1"`
	}
	if !bind(c, &req) {
		return
	}
	post, err := h.community.AddImages(c.Request.Context(), userID(c), c.Param("id"), req.Images)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *CommunityHandler) Comments(c *gin.Context) {
	comments, err := h.community.Comments(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (h *CommunityHandler) AddComment(c *gin.Context) {
	var req models.CreateCommentRequest
	if !bind(c, &req) {
		return
	}
	comment, err := h.community.AddComment(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *CommunityHandler) UpdateComment(c *gin.Context) {
	var req models.UpdateCommentRequest
	if !bind(c, &req) {
		return
	}
	comment, err := h.community.UpdateComment(c.Request.Context(), userID(c), c.Param("id"), req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommunityHandler) DeleteComment(c *gin.Context) {
	if err := h.community.DeleteComment(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CommunityHandler) ToggleLike(c *gin.Context) {
	var req models.ToggleLikeRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.community.ToggleLike(c.Request.Context(), userID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *CommunityHandler) ToggleBookmark(c *gin.Context) {
	added, err := h.community.ToggleBookmark(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarked": added})
}

func (h *CommunityHandler) Bookmarks(c *gin.Context) {
	posts, err := h.community.Bookmarks(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Seed fills an empty board with sample posts; ?force=true replaces it
func (h *CommunityHandler) Seed(c *gin.Context) {
	seeded, err := h.community.Seed(c.Request.Context(), c.Query("force") == "true")
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seeded": seeded})
}
