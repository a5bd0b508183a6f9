// Package api holds the gin handlers of the /api/v1 surface. Handlers bind
// the request, call one service method and either render JSON or push the
// error onto the gin context for errors.ErrorHandler.
package api

import (
	"strconv"

	"maeum-toegeun/backend/pkg/errors"
	"maeum-toegeun/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// fail records err for the error middleware and stops the chain
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// bind decodes the JSON body into req. Binding failures become 400s.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, errors.NewValidationError("Invalid request format", map[string]string{"body": err.Error()}))
		return false
	}
	return true
}

// bindQuery decodes query parameters into req
func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		fail(c, errors.NewValidationError("Invalid query parameters", map[string]string{"query": err.Error()}))
		return false
	}
	return true
}

func userID(c *gin.Context) string {
	return middleware.CurrentUser(c)
}

// intQuery reads an integer query parameter, falling back to def when it is
// missing or malformed
func intQuery(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
