package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"maeum-toegeun/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckerCriticalComponent(t *testing.T) {
	c := NewChecker(logger.Discard(), 0)

	var pingErr error
	c.RegisterPing("store", func(context.Context) error { return pingErr })
	c.RegisterCheck("gemini", false, func(context.Context) (Status, string, error) {
		return StatusDegraded, "circuit open", nil
	})

	var flips []bool
	c.OnChange(func(healthy bool) { flips = append(flips, healthy) })

	c.RunChecks(context.Background())
	assert.True(t, c.IsSystemHealthy())
	assert.Equal(t, StatusDegraded, c.GetStatus()["gemini"].Status)

	pingErr = errors.New("connection refused")
	c.RunChecks(context.Background())
	assert.False(t, c.IsSystemHealthy())
	assert.Equal(t, "connection refused", c.GetStatus()["store"].Error)

	pingErr = nil
	c.RunChecks(context.Background())
	assert.Equal(t, []bool{false, true}, flips)
}

func TestHandlerReportsUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := NewChecker(logger.Discard(), 0)
	c.RegisterPing("store", func(context.Context) error { return errors.New("down") })
	c.RunChecks(context.Background())

	r := gin.New()
	r.GET("/health", c.Handler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unavailable", body["status"])
}
