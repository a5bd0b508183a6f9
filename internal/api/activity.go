package api

import (
	"net/http"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ActivityHandler serves the user's activity feed
type ActivityHandler struct {
	activities *service.ActivityService
}

func NewActivityHandler(activities *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

func (h *ActivityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/activities", h.List)
	rg.DELETE("/activities/:id", h.Delete)
}

// List takes an optional ?type= filter
func (h *ActivityHandler) List(c *gin.Context) {
	items, err := h.activities.List(c.Request.Context(), userID(c), models.ActivityType(c.Query("type")))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": items})
}

func (h *ActivityHandler) Delete(c *gin.Context) {
	if err := h.activities.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
