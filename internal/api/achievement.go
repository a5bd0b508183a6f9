package api

import (
	"net/http"

	"maeum-toegeun/backend/internal/catalog"
	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// AchievementHandler serves badges and levels
type AchievementHandler struct {
	achievements *service.AchievementService
}

func NewAchievementHandler(achievements *service.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievements: achievements}
}

func (h *AchievementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	achievements := rg.Group("/achievements")
	{
		achievements.GET("/badges", h.Badges)
		achievements.POST("/check", h.Check)
		achievements.GET("/level", h.Level)
	}
}

func (h *AchievementHandler) Badges(c *gin.Context) {
	badges, err := h.achievements.UserBadges(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": badges})
}

// Check awards every badge whose criteria are now met
func (h *AchievementHandler) Check(c *gin.Context) {
	awarded, err := h.achievements.CheckAndAward(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"newBadges": awarded})
}

func (h *AchievementHandler) Level(c *gin.Context) {
	info, err := h.achievements.LevelInfo(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// CatalogHandler serves the static reference data. It needs no session.
type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

func (h *CatalogHandler) RegisterRoutes(public *gin.RouterGroup) {
	cat := public.Group("/catalog")
	{
		cat.GET("/levels", h.Levels)
		cat.GET("/badges", h.Badges)
		cat.GET("/emotions", h.Emotions)
		cat.GET("/job-roles", h.JobRoles)
		cat.GET("/post-categories", h.PostCategories)
	}
}

func (h *CatalogHandler) Levels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"levels": h.catalog.Levels()})
}

// Badges takes an optional ?type= filter
func (h *CatalogHandler) Badges(c *gin.Context) {
	if t := c.Query("type"); t != "" {
		c.JSON(http.StatusOK, gin.H{"badges": h.catalog.BadgesByType(models.BadgeType(t))})
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": h.catalog.Badges()})
}

func (h *CatalogHandler) Emotions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"positive": models.PositiveEmotions,
		"negative": models.NegativeEmotions,
	})
}

func (h *CatalogHandler) JobRoles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobRoles": catalog.JobRoles})
}

func (h *CatalogHandler) PostCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": models.PostCategories})
}
