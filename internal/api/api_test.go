package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"maeum-toegeun/backend/ai"
	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/service"
	"maeum-toegeun/backend/pkg/errors"
	"maeum-toegeun/backend/pkg/jwt"
	"maeum-toegeun/backend/pkg/logger"
	"maeum-toegeun/backend/pkg/resilience"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGenerator struct {
	frames  string
	openErr error
	text    string
	textErr error
}

func (g *stubGenerator) Generate(context.Context, []models.ChatTurn) models.ChatReply {
	return models.ChatReply{Text: g.text}
}

func (g *stubGenerator) GenerateText(context.Context, []models.ChatTurn) (string, error) {
	return g.text, g.textErr
}

func (g *stubGenerator) OpenStream(context.Context, []models.ChatTurn) (*http.Response, error) {
	if g.openErr != nil {
		return nil, g.openErr
	}
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(g.frames))}, nil
}

func frame(text string) string {
	return `data: {"candidates":[{"content":{"parts":[{"text":"` + text + `"}]}}]}` + "\n\n"
}

func chatEngine(gen service.Generator) *gin.Engine {
	e := gin.New()
	e.Use(errors.ErrorHandler())
	svc := service.NewChatService(gen, nil, nil, nil, time.Second, logger.Discard())
	NewChatHandler(svc).RegisterRoutes(e.Group("/api/v1"))
	return e
}

func post(t *testing.T, e *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func hello() models.ChatRequest {
	return models.ChatRequest{Messages: []models.ChatTurn{{Role: "user", Parts: "안녕"}}}
}

func TestUpstreamFailure(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"provider status", &ai.UpstreamError{Status: http.StatusTooManyRequests, Message: "quota"}, http.StatusTooManyRequests, errors.CodeUpstream},
		{"missing key", ai.ErrMissingAPIKey, http.StatusInternalServerError, errors.CodeInternal},
		{"circuit open", resilience.ErrCircuitOpen, http.StatusServiceUnavailable, errors.CodeUpstream},
		{"other", stderrors.New("connection reset"), http.StatusBadGateway, errors.CodeUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := upstreamFailure(tt.err)
			assert.Equal(t, tt.status, appErr.StatusCode)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestUpstreamMessageKeepsValidationText(t *testing.T) {
	err := errors.NewValidationError("메시지를 입력해주세요.", nil)
	assert.Equal(t, "메시지를 입력해주세요.", UpstreamMessage(err))
	assert.Equal(t, "AI 응답을 가져오지 못했습니다.", UpstreamMessage(stderrors.New("boom")))
}

func TestDecodedStreamsFragments(t *testing.T) {
	e := chatEngine(&stubGenerator{frames: frame("오늘") + frame(" 수고했어요")})
	w := post(t, e, "/api/v1/chat/stream/decoded", hello())

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Equal(t, 2, strings.Count(body, "event:fragment"))
	assert.Contains(t, body, "수고했어요")
	assert.Contains(t, body, "event:done")
	assert.NotContains(t, body, "event:error")
}

func TestDecodedReportsUpstreamError(t *testing.T) {
	upstream := &ai.UpstreamError{Status: http.StatusServiceUnavailable, Message: "overloaded"}
	e := chatEngine(&stubGenerator{openErr: upstream, textErr: upstream})
	w := post(t, e, "/api/v1/chat/stream/decoded", hello())

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "event:error")
	assert.Contains(t, body, "overloaded")
	assert.NotContains(t, body, "event:done")
}

func TestDecodedRejectsEmptyMessages(t *testing.T) {
	e := chatEngine(&stubGenerator{})
	w := post(t, e, "/api/v1/chat/stream/decoded", models.ChatRequest{Messages: []models.ChatTurn{{Role: "user", Parts: " "}}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), errors.CodeValidation)
}

func TestProxyPassesFramesThrough(t *testing.T) {
	frames := frame("그대로")
	e := chatEngine(&stubGenerator{frames: frames})
	w := post(t, e, "/api/v1/chat/stream", hello())

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, frames, w.Body.String())
}

func TestProxyMapsOpenFailure(t *testing.T) {
	e := chatEngine(&stubGenerator{openErr: resilience.ErrCircuitOpen})
	w := post(t, e, "/api/v1/chat/stream", hello())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReplyBindingFailure(t *testing.T) {
	e := chatEngine(&stubGenerator{text: "응"})

	w := post(t, e, "/api/v1/chat", map[string]any{"messages": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, e, "/api/v1/chat", hello())
	require.Equal(t, http.StatusOK, w.Code)
	var reply models.ChatReply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, "응", reply.Text)
}

type recordingRegistrar struct{ ids []string }

func (r *recordingRegistrar) Register(_ context.Context, id string) error {
	r.ids = append(r.ids, id)
	return nil
}

func TestSessionCreate(t *testing.T) {
	tokens := jwt.NewService("test-secret", time.Hour)
	users := &recordingRegistrar{}
	e := gin.New()
	e.Use(errors.ErrorHandler())
	NewSessionHandler(tokens, users, logger.Discard()).RegisterRoutes(e.Group("/api/v1"))

	w := post(t, e, "/api/v1/session", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var s models.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	claims, err := tokens.ValidateToken(s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.UserID, claims.UserID)
	assert.Equal(t, []string{s.UserID}, users.ids)
}
