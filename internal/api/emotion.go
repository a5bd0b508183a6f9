package api

import (
	"net/http"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// EmotionHandler serves emotion records, statistics and predictions
type EmotionHandler struct {
	emotions *service.EmotionService
}

func NewEmotionHandler(emotions *service.EmotionService) *EmotionHandler {
	return &EmotionHandler{emotions: emotions}
}

func (h *EmotionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	emotions := rg.Group("/emotions")
	{
		emotions.POST("", h.Create)
		emotions.GET("", h.List)
		emotions.GET("/today", h.Today)
		emotions.GET("/stats", h.Stats)
		emotions.GET("/analysis", h.Analysis)
		emotions.GET("/predictions", h.Predictions)
		emotions.GET("/predictions/:date", h.PredictionForDate)
		emotions.GET("/predictions/:date/strategies", h.Strategies)
		emotions.GET("/:id", h.Get)
		emotions.GET("/:id/accuracy", h.Accuracy)
		emotions.DELETE("/:id", h.Delete)
	}
}

func (h *EmotionHandler) Create(c *gin.Context) {
	var req models.CreateEmotionRecordRequest
	if !bind(c, &req) {
		return
	}
	rec, err := h.emotions.Save(c.Request.Context(), userID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// List returns every record newest first, or the latest n with ?limit=n
func (h *EmotionHandler) List(c *gin.Context) {
	var (
		records []models.EmotionRecord
		err     error
	)
	if limit := intQuery(c, "limit", 0); limit > 0 {
		records, err = h.emotions.Recent(c.Request.Context(), userID(c), limit)
	} else {
		records, err = h.emotions.List(c.Request.Context(), userID(c))
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *EmotionHandler) Today(c *gin.Context) {
	records, err := h.emotions.Today(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *EmotionHandler) Get(c *gin.Context) {
	rec, err := h.emotions.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *EmotionHandler) Delete(c *gin.Context) {
	if err := h.emotions.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EmotionHandler) Stats(c *gin.Context) {
	stats, err := h.emotions.Stats(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Analysis takes ?range=week|month|year
func (h *EmotionHandler) Analysis(c *gin.Context) {
	report, err := h.emotions.Analysis(c.Request.Context(), userID(c), c.Query("range"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Predictions takes ?period=week|month
func (h *EmotionHandler) Predictions(c *gin.Context) {
	predictions, err := h.emotions.Predictions(c.Request.Context(), userID(c), c.Query("period"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

func (h *EmotionHandler) PredictionForDate(c *gin.Context) {
	p, err := h.emotions.PredictionForDate(c.Request.Context(), userID(c), c.Param("date"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *EmotionHandler) Strategies(c *gin.Context) {
	strategies, err := h.emotions.Strategies(c.Request.Context(), userID(c), c.Param("date"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"strategies": strategies})
}

func (h *EmotionHandler) Accuracy(c *gin.Context) {
	acc, err := h.emotions.Accuracy(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}
