package api

import (
	"net/http"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// RecoveryNoteHandler serves the recovery journal
type RecoveryNoteHandler struct {
	notes *service.RecoveryNoteService
}

func NewRecoveryNoteHandler(notes *service.RecoveryNoteService) *RecoveryNoteHandler {
	return &RecoveryNoteHandler{notes: notes}
}

func (h *RecoveryNoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	notes := rg.Group("/recovery-notes")
	{
		notes.GET("", h.List)
		notes.POST("", h.Create)
		notes.GET("/tags", h.Tags)
		notes.GET("/:id", h.Get)
		notes.PUT("/:id", h.Update)
		notes.DELETE("/:id", h.Delete)
	}
}

func (h *RecoveryNoteHandler) List(c *gin.Context) {
	var filter models.RecoveryNoteFilter
	if !bindQuery(c, &filter) {
		return
	}
	notes, err := h.notes.List(c.Request.Context(), userID(c), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

func (h *RecoveryNoteHandler) Create(c *gin.Context) {
	var req models.RecoveryNoteRequest
	if !bind(c, &req) {
		return
	}
	note, err := h.notes.Create(c.Request.Context(), userID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (h *RecoveryNoteHandler) Get(c *gin.Context) {
	note, err := h.notes.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (h *RecoveryNoteHandler) Update(c *gin.Context) {
	var req models.RecoveryNoteRequest
	if !bind(c, &req) {
		return
	}
	note, err := h.notes.Update(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (h *RecoveryNoteHandler) Delete(c *gin.Context) {
	if err := h.notes.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecoveryNoteHandler) Tags(c *gin.Context) {
	tags, err := h.notes.Tags(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
