package api

import (
	"net/http"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ProfileHandler serves the user profile and topic suggestions drawn from it
type ProfileHandler struct {
	profiles *service.ProfileService
	topics   *service.TopicService
}

func NewProfileHandler(profiles *service.ProfileService, topics *service.TopicService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, topics: topics}
}

func (h *ProfileHandler) RegisterRoutes(rg *gin.RouterGroup) {
	profile := rg.Group("/profile")
	{
		profile.GET("", h.Get)
		profile.PUT("", h.Update)
		profile.DELETE("", h.Reset)
		profile.POST("/emotions", h.AddEmotion)
		profile.POST("/situations", h.AddSituation)
		profile.POST("/tutorial", h.CompleteTutorial)
	}
	rg.POST("/topics/recommended", h.RecommendTopics)
}

func (h *ProfileHandler) Get(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) Update(c *gin.Context) {
	var req models.UpdateProfileRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.profiles.Update(c.Request.Context(), userID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) Reset(c *gin.Context) {
	if err := h.profiles.Reset(c.Request.Context(), userID(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProfileHandler) AddEmotion(c *gin.Context) {
	var req models.ProfileTagRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.profiles.AddEmotion(c.Request.Context(), userID(c), req.Value)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) AddSituation(c *gin.Context) {
	var req models.ProfileTagRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.profiles.AddSituation(c.Request.Context(), userID(c), req.Value)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) CompleteTutorial(c *gin.Context) {
	p, err := h.profiles.CompleteTutorial(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// RecommendTopics scores the catalog topics against the profile and the
// posted recent messages
func (h *ProfileHandler) RecommendTopics(c *gin.Context) {
	var req models.TopicRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	topics, err := h.topics.Recommend(c.Request.Context(), userID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}
