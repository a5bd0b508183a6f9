package api

import (
	"net/http"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// MissionHandler serves the mission catalog and the user's mission progress
type MissionHandler struct {
	missions *service.MissionService
}

func NewMissionHandler(missions *service.MissionService) *MissionHandler {
	return &MissionHandler{missions: missions}
}

func (h *MissionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	missions := rg.Group("/missions")
	{
		missions.GET("", h.Catalog)
		missions.GET("/daily", h.Daily)
		missions.GET("/recommended", h.Recommended)
		missions.GET("/active", h.Active)
		missions.GET("/completions", h.History)
		missions.GET("/stats", h.Stats)
		missions.GET("/:id", h.Get)
		missions.POST("/:id/start", h.Start)
		missions.POST("/:id/complete", h.Complete)
	}
}

// Catalog takes optional ?category= and ?difficulty= filters
func (h *MissionHandler) Catalog(c *gin.Context) {
	missions := h.missions.Catalog(
		models.MissionCategory(c.Query("category")),
		models.MissionDifficulty(c.Query("difficulty")),
	)
	c.JSON(http.StatusOK, gin.H{"missions": missions})
}

func (h *MissionHandler) Get(c *gin.Context) {
	m, err := h.missions.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MissionHandler) Daily(c *gin.Context) {
	missions, err := h.missions.Daily(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"missions": missions})
}

func (h *MissionHandler) Recommended(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"missions": h.missions.Recommended(intQuery(c, "count", 0))})
}

func (h *MissionHandler) Active(c *gin.Context) {
	missions, err := h.missions.Active(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"missions": missions})
}

func (h *MissionHandler) Start(c *gin.Context) {
	active, err := h.missions.Start(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"missions": active})
}

// Complete accepts an empty body, which records a full completion
func (h *MissionHandler) Complete(c *gin.Context) {
	var req models.CompleteMissionRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	res, err := h.missions.Complete(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *MissionHandler) History(c *gin.Context) {
	completions, err := h.missions.History(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completions": completions})
}

func (h *MissionHandler) Stats(c *gin.Context) {
	stats, err := h.missions.Stats(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
