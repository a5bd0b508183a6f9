package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/pkg/logger"
	"maeum-toegeun/backend/pkg/resilience"
	"maeum-toegeun/backend/pkg/sse"
)

func testClient(baseURL string) *Client {
	return NewClient(Config{
		APIKey:          "test-key",
		BaseURL:         baseURL,
		Model:           "gemini-2.0-flash",
		Timeout:         time.Second,
		Temperature:     0.7,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 1024,
	}, nil, nil, logger.Discard())
}

var turns = []models.ChatTurn{
	{Role: "user", Parts: "팀장이 책임을 떠넘겨서 화가 나요"},
	{Role: "assistant", Parts: "많이 속상하셨겠어요."},
}

func TestBuildRequest(t *testing.T) {
	req := testClient("http://unused").BuildRequest(turns)

	require.Len(t, req.Contents, 3)
	assert.Equal(t, "user", req.Contents[0].Role)
	assert.Equal(t, SystemPrompt, req.Contents[0].Parts[0].Text)
	assert.Equal(t, "user", req.Contents[1].Role)
	assert.Equal(t, "model", req.Contents[2].Role, "non-user roles map to model")

	assert.Equal(t, GenerationConfig{Temperature: 0.7, TopK: 40, TopP: 0.95, MaxOutputTokens: 1024}, req.GenerationConfig)
	require.Len(t, req.SafetySettings, 4)
	for _, s := range req.SafetySettings {
		assert.Equal(t, "BLOCK_MEDIUM_AND_ABOVE", s.Threshold)
	}
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var body Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Contents, 3)

		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"힘드셨겠어요."}]}}]}`)
	}))
	defer srv.Close()

	reply := testClient(srv.URL).Generate(context.Background(), turns)
	assert.Equal(t, "힘드셨겠어요.", reply.Text)
}

func TestGenerateMissingText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	reply := testClient(srv.URL).Generate(context.Background(), turns)
	assert.Equal(t, MissingTextText, reply.Text)
}

func TestGenerateFallsBackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	reply := testClient(srv.URL).Generate(context.Background(), turns)
	assert.Equal(t, FallbackText, reply.Text)

	noKey := testClient(srv.URL)
	noKey.cfg.APIKey = ""
	_, err := noKey.GenerateText(context.Background(), turns)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.cfg.Timeout = 50 * time.Millisecond

	_, err := c.GenerateText(context.Background(), turns)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotContains(t, err.Error(), "test-key")
}

func TestOpenStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		assert.True(t, strings.HasSuffix(r.URL.Path, ":streamGenerateContent"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, `data: {"candidates":[{"content":{"parts":[{"text":"안녕"}]}}]}`+"\n\n")
	}))
	defer srv.Close()

	resp, err := testClient(srv.URL).OpenStream(context.Background(), turns)
	require.NoError(t, err)

	var got []string
	err = sse.Decode(context.Background(), resp.Body, sse.Handler{
		OnFragment: func(text string) { got = append(got, text) },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"안녕"}, got)
}

func TestOpenStreamUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "bad" {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "not json")
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"Resource has been exhausted"}}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).OpenStream(context.Background(), turns)
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusTooManyRequests, upstream.Status)
	assert.Equal(t, "Resource has been exhausted", upstream.Message)

	c := testClient(srv.URL)
	c.cfg.APIKey = "bad"
	_, err = c.OpenStream(context.Background(), turns)
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "API 오류: 502 Bad Gateway", upstream.Message)
}

func TestBreakerSkipsClientErrors(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusBadRequest)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		_, _ = io.WriteString(w, `{"error":{"message":"rejected"}}`)
	}))
	defer srv.Close()

	breaker := resilience.NewCircuitBreaker(resilience.Config{
		Name:             "gemini",
		FailureThreshold: 2,
		RetryTimeout:     time.Minute,
		IsSuccessful:     IsClientError,
	}, logger.Discard())
	c := testClient(srv.URL)
	c.breaker = breaker
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.GenerateText(ctx, turns)
		assert.True(t, IsClientError(err))
	}
	assert.Equal(t, resilience.StateClosed, breaker.State(), "4xx keeps the circuit closed")

	status.Store(http.StatusTooManyRequests)
	for i := 0; i < 2; i++ {
		_, err := c.GenerateText(ctx, turns)
		assert.False(t, IsClientError(err))
	}
	assert.Equal(t, resilience.StateOpen, breaker.State(), "429 counts as a failure")

	_, err := c.GenerateText(ctx, turns)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(&UpstreamError{Status: http.StatusBadRequest}))
	assert.True(t, IsClientError(&UpstreamError{Status: http.StatusForbidden}))
	assert.False(t, IsClientError(&UpstreamError{Status: http.StatusTooManyRequests}))
	assert.False(t, IsClientError(&UpstreamError{Status: http.StatusServiceUnavailable}))
	assert.False(t, IsClientError(context.DeadlineExceeded))
}
