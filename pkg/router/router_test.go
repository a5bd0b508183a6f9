package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/pkg/config"
	"maeum-toegeun/backend/pkg/di"
	"maeum-toegeun/backend/pkg/kv"
	"maeum-toegeun/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noSecrets struct{}

func (noSecrets) GetSecret(context.Context, string) (string, error) { return "", nil }

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Load()
	cfg.Server.Env = "test"
	cfg.Kafka.Brokers = nil
	cfg.Security.RateLimit = 1000
	cfg.Security.RateLimitBurst = 1000
	cfg.Security.AllowedOrigins = []string{"http://localhost:3000"}

	reg := prometheus.NewRegistry()
	c, err := di.New(context.Background(), cfg, logger.Discard(), di.Options{
		Backend:    kv.NewMemory(),
		Registerer: reg,
		Secrets:    noSecrets{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	r := New(c, WithGatherer(reg))
	r.AddOpenAPIValidation("../../api/openapi.yaml")
	r.SetupRoutes()
	t.Cleanup(r.Stop)
	return r
}

func do(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func session(t *testing.T, r *Router) models.Session {
	t.Helper()
	w := do(r.Engine, http.MethodPost, "/api/v1/session", "", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var s models.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	require.NotEmpty(t, s.Token)
	return s
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	r := newTestRouter(t)

	w := do(r.Engine, http.MethodGet, "/api/v1/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_REQUIRED")

	w = do(r.Engine, http.MethodGet, "/api/v1/profile", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r.Engine, http.MethodGet, "/api/v1/catalog/levels", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionFlow(t *testing.T) {
	r := newTestRouter(t)
	s := session(t, r)

	users, err := r.Container.Users.All(context.Background())
	require.NoError(t, err)
	assert.Contains(t, users, s.UserID)

	w := do(r.Engine, http.MethodPost, "/api/v1/emotions", s.Token,
		`{"emotions":[{"category":"기쁨","intensity":4}],"energyLevel":70,"situation":"회의"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r.Engine, http.MethodGet, "/api/v1/emotions/today", s.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "기쁨")

	w = do(r.Engine, http.MethodGet, "/api/v1/achievements/badges", s.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "emotion-starter")

	w = do(r.Engine, http.MethodGet, "/api/v1/activities?type=emotion_record", s.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "emotion_record")
}

func TestValidationErrorsRenderEnvelope(t *testing.T) {
	r := newTestRouter(t)
	s := session(t, r)

	// rejected by the schema
	w := do(r.Engine, http.MethodPost, "/api/v1/feedback", s.Token,
		`{"conversationId":"c1","messageId":"m1","rating":"amazing"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// rejected by binding
	w = do(r.Engine, http.MethodPost, "/api/v1/recovery-notes", s.Token, `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)

	w = do(r.Engine, http.MethodGet, "/api/v1/community/posts/missing", s.Token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommunityRoundTrip(t *testing.T) {
	r := newTestRouter(t)
	s := session(t, r)

	w := do(r.Engine, http.MethodPost, "/api/v1/community/posts", s.Token,
		`{"title":"퇴근길","content":"**오늘도** 수고했어요","category":"일상","tags":["퇴근"]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var post models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))

	w = do(r.Engine, http.MethodPost, "/api/v1/community/likes/toggle", s.Token,
		`{"targetId":"`+post.ID+`","targetType":"post"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"liked":true`)

	w = do(r.Engine, http.MethodDelete, "/api/v1/community/posts/"+post.ID, s.Token, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)
	s := session(t, r)
	w := do(r.Engine, http.MethodPost, "/api/v1/emotions", s.Token,
		`{"emotions":[{"category":"평온","intensity":2}],"energyLevel":50}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r.Engine, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store"`)

	w = do(r.Engine, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `maeum_activities_total{type="emotion_record"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/profile", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
