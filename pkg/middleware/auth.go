package middleware

import (
	"context"
	"strings"

	"maeum-toegeun/backend/pkg/errors"
	"maeum-toegeun/backend/pkg/jwt"
	"maeum-toegeun/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// UserIDContextKey is the gin key holding the authenticated user id
const UserIDContextKey = "userID"

// JWTAuth requires a valid bearer token and stores its user id on the
// request. Tokens are also accepted from the "token" query parameter so
// browsers can open the chat websocket.
func JWTAuth(tokens *jwt.Service, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			_ = c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authorization header is required"))
			c.Abort()
			return
		}
		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			log.Warn("Invalid JWT token", "error", err.Error())
			_ = c.Error(errors.NewUnauthorizedError(errors.CodeInvalidToken, "Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Set(UserIDContextKey, claims.UserID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), UserIDKey, claims.UserID))

		c.Next()
	}
}

// CurrentUser returns the authenticated user id
func CurrentUser(c *gin.Context) string {
	return c.GetString(UserIDContextKey)
}
