package api

import (
	stderrors "errors"
	"io"
	"net/http"

	"maeum-toegeun/backend/ai"
	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/service"
	"maeum-toegeun/backend/pkg/errors"
	"maeum-toegeun/backend/pkg/logger"
	"maeum-toegeun/backend/pkg/resilience"
	"maeum-toegeun/backend/pkg/sse"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves the assistant in plain, proxied and decoded form
type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) RegisterRoutes(rg *gin.RouterGroup) {
	chat := rg.Group("/chat")
	{
		chat.POST("", h.Reply)
		chat.POST("/stream", h.Proxy)
		chat.POST("/stream/decoded", h.Decoded)
	}
}

// upstreamFailure maps provider errors onto the response status
func upstreamFailure(err error) *errors.AppError {
	var upstream *ai.UpstreamError
	switch {
	case stderrors.As(err, &upstream):
		return errors.NewUpstreamError(upstream.Status, upstream.Message)
	case stderrors.Is(err, ai.ErrMissingAPIKey):
		return errors.NewInternalServerError(errors.CodeInternal, err.Error())
	case stderrors.Is(err, resilience.ErrCircuitOpen):
		return errors.NewError(http.StatusServiceUnavailable, errors.CodeUpstream, "AI 서비스가 일시적으로 사용할 수 없습니다.")
	}
	return errors.NewUpstreamError(http.StatusBadGateway, "AI 응답을 가져오지 못했습니다.").Wrap(err)
}

// UpstreamMessage is the user-facing text for a failed reply
func UpstreamMessage(err error) string {
	if errors.GetStatusCode(err) == http.StatusBadRequest {
		return errors.FromError(err).Message
	}
	return upstreamFailure(err).Message
}

// Reply answers with one complete message
func (h *ChatHandler) Reply(c *gin.Context) {
	var req models.ChatRequest
	if !bind(c, &req) {
		return
	}
	reply, err := h.chat.Reply(c.Request.Context(), userID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// Proxy pipes the provider's event stream through unchanged
func (h *ChatHandler) Proxy(c *gin.Context) {
	var req models.ChatRequest
	if !bind(c, &req) {
		return
	}
	resp, err := h.chat.OpenStream(c.Request.Context(), userID(c), req)
	if err != nil {
		if errors.GetStatusCode(err) == http.StatusBadRequest {
			fail(c, err)
			return
		}
		fail(c, upstreamFailure(err))
		return
	}
	defer resp.Body.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				return
			}
			c.Writer.Flush()
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			logger.FromContext(c).LogError(err, "Stream proxy read failed")
			return
		}
	}
}

// Decoded streams decoded text fragments as fragment events, followed by one
// done or error event
func (h *ChatHandler) Decoded(c *gin.Context) {
	var req models.ChatRequest
	if !bind(c, &req) {
		return
	}
	if err := service.ValidateChat(req); err != nil {
		fail(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	_ = h.chat.Stream(c.Request.Context(), userID(c), req, sse.Handler{
		OnFragment: func(text string) {
			c.SSEvent("fragment", gin.H{"text": text})
			c.Writer.Flush()
		},
		OnError: func(err error) {
			c.SSEvent("error", gin.H{"message": UpstreamMessage(err)})
			c.Writer.Flush()
		},
		OnFinish: func() {
			c.SSEvent("done", gin.H{})
			c.Writer.Flush()
		},
	})
}
