package api

import (
	"context"
	"net/http"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/pkg/errors"
	"maeum-toegeun/backend/pkg/jwt"
	"maeum-toegeun/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Registrar remembers issued user ids
type Registrar interface {
	Register(ctx context.Context, userID string) error
}

// SessionHandler issues anonymous user ids with their bearer token
type SessionHandler struct {
	tokens *jwt.Service
	users  Registrar
	logger *logger.Logger
}

func NewSessionHandler(tokens *jwt.Service, users Registrar, logger *logger.Logger) *SessionHandler {
	return &SessionHandler{tokens: tokens, users: users, logger: logger}
}

func (h *SessionHandler) RegisterRoutes(public *gin.RouterGroup) {
	public.POST("/session", h.Create)
}

// Create issues a new anonymous user
func (h *SessionHandler) Create(c *gin.Context) {
	id := uuid.NewString()
	token, err := h.tokens.GenerateToken(id)
	if err != nil {
		fail(c, errors.NewInternalServerError(errors.CodeInternal, "Failed to issue session token").Wrap(err))
		return
	}
	if h.users != nil {
		if err := h.users.Register(c.Request.Context(), id); err != nil {
			h.logger.LogError(err, "Failed to register user", "user_id", id)
		}
	}
	c.JSON(http.StatusCreated, models.Session{UserID: id, Token: token})
}
