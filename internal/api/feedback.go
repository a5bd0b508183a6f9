package api

import (
	"net/http"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/service"
	"maeum-toegeun/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// FeedbackHandler serves ratings of assistant replies and the quality reports
type FeedbackHandler struct {
	feedback *service.FeedbackService
}

func NewFeedbackHandler(feedback *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

func (h *FeedbackHandler) RegisterRoutes(rg *gin.RouterGroup) {
	feedback := rg.Group("/feedback")
	{
		feedback.POST("", h.Create)
		feedback.GET("", h.List)
		feedback.GET("/stats", h.Stats)
		feedback.GET("/metrics", h.Metrics)
		feedback.GET("/quality", h.Quality)
		feedback.GET("/export", h.Export)
		feedback.POST("/import", h.Import)
		feedback.DELETE("/:id", h.Delete)
	}
	rg.GET("/conversations/:id/feedback", h.ByConversation)
}

func (h *FeedbackHandler) Create(c *gin.Context) {
	var req models.CreateFeedbackRequest
	if !bind(c, &req) {
		return
	}
	item, err := h.feedback.Save(c.Request.Context(), userID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *FeedbackHandler) List(c *gin.Context) {
	items, err := h.feedback.List(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": items})
}

// ByConversation also reports whether the conversation was rated
func (h *FeedbackHandler) ByConversation(c *gin.Context) {
	ctx := c.Request.Context()
	items, err := h.feedback.ByConversation(ctx, userID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	rated, err := h.feedback.HasFeedback(ctx, userID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": items, "hasFeedback": rated})
}

func (h *FeedbackHandler) Delete(c *gin.Context) {
	if err := h.feedback.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stats takes ?days=n, 30 by default
func (h *FeedbackHandler) Stats(c *gin.Context) {
	stats, err := h.feedback.Stats(c.Request.Context(), userID(c), intQuery(c, "days", 0))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *FeedbackHandler) Metrics(c *gin.Context) {
	m, err := h.feedback.Metrics(c.Request.Context(), userID(c), intQuery(c, "days", 0))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *FeedbackHandler) Quality(c *gin.Context) {
	report, err := h.feedback.Quality(c.Request.Context(), userID(c), intQuery(c, "days", 0))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *FeedbackHandler) Export(c *gin.Context) {
	data, err := h.feedback.Export(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="feedback.json"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// Import replaces the feedback list with the JSON array in the body
func (h *FeedbackHandler) Import(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		fail(c, errors.NewBadRequestError(errors.CodeValidation, "Failed to read request body").Wrap(err))
		return
	}
	n, err := h.feedback.Import(c.Request.Context(), userID(c), data)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n})
}
