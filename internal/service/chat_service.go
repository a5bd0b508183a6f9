package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/pkg/logger"
	"maeum-toegeun/backend/pkg/sse"
	"maeum-toegeun/backend/shared/observability"
)

// Generator is the generative-text provider
type Generator interface {
	Generate(ctx context.Context, turns []models.ChatTurn) models.ChatReply
	GenerateText(ctx context.Context, turns []models.ChatTurn) (string, error)
	OpenStream(ctx context.Context, turns []models.ChatTurn) (*http.Response, error)
}

// ChatService answers chat turns in plain, proxied and decoded streaming form
type ChatService struct {
	gen           Generator
	feedback      *FeedbackService
	profiles      *ProfileService
	metrics       *observability.Metrics
	streamTimeout time.Duration
	log           *logger.Logger
}

// NewChatService creates the service. feedback, profiles and metrics may be nil.
func NewChatService(gen Generator, feedback *FeedbackService, profiles *ProfileService, metrics *observability.Metrics, streamTimeout time.Duration, log *logger.Logger) *ChatService {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &ChatService{
		gen:           gen,
		feedback:      feedback,
		profiles:      profiles,
		metrics:       metrics,
		streamTimeout: streamTimeout,
		log:           log.WithComponent("chat"),
	}
}

// ValidateChat requires at least one turn with text
func ValidateChat(req models.ChatRequest) error {
	if len(req.Messages) == 0 {
		return invalid("messages", "메시지를 입력해주세요.")
	}
	for _, t := range req.Messages {
		if strings.TrimSpace(t.Parts) != "" {
			return nil
		}
	}
	return invalid("messages", "메시지를 입력해주세요.")
}

// Reply returns one complete answer. Provider failures become the fallback
// text inside the generator.
func (s *ChatService) Reply(ctx context.Context, userID string, req models.ChatRequest) (models.ChatReply, error) {
	if err := ValidateChat(req); err != nil {
		return models.ChatReply{}, err
	}
	s.learn(ctx, userID, req)
	start := time.Now()
	reply := s.gen.Generate(ctx, req.Messages)
	s.recordLatency(ctx, userID, req.ConversationID, time.Since(start))
	return reply, nil
}

// OpenStream starts the upstream stream for a raw proxy. The caller owns the
// response body.
func (s *ChatService) OpenStream(ctx context.Context, userID string, req models.ChatRequest) (*http.Response, error) {
	if err := ValidateChat(req); err != nil {
		return nil, err
	}
	s.learn(ctx, userID, req)
	return s.gen.OpenStream(ctx, req.Messages)
}

// Stream decodes the upstream stream into fragments. When the stream fails
// before its first fragment, one non-streaming request is made and its text
// delivered as a single fragment. Exactly one of OnError or OnFinish is
// called.
func (s *ChatService) Stream(ctx context.Context, userID string, req models.ChatRequest, h sse.Handler) error {
	if err := ValidateChat(req); err != nil {
		return err
	}
	h = completeHandler(h)
	s.learn(ctx, userID, req)
	start := time.Now()

	fragments := 0
	var streamErr error
	resp, err := s.gen.OpenStream(ctx, req.Messages)
	if err != nil {
		streamErr = err
	} else {
		streamErr = sse.Decode(ctx, resp.Body, sse.Handler{
			OnFragment: func(text string) {
				fragments++
				if s.metrics != nil {
					s.metrics.StreamFragments.Inc()
				}
				h.OnFragment(text)
			},
			OnError:  func(error) {},
			OnFinish: func() {},
		}, sse.WithTimeout(s.streamTimeout))
	}

	switch {
	case streamErr == nil:
		s.outcome("ok")
		s.recordLatency(ctx, userID, req.ConversationID, time.Since(start))
		h.OnFinish()
		return nil

	case fragments > 0 || errors.Is(streamErr, context.Canceled):
		s.outcome("error")
		s.log.LogError(streamErr, "chat stream failed", "fragments", fragments)
		h.OnError(streamErr)
		return streamErr
	}

	s.log.Warn("chat stream failed, retrying without streaming", "error", streamErr)
	text, err := s.gen.GenerateText(ctx, req.Messages)
	if err != nil {
		s.outcome("error")
		s.log.LogError(err, "chat retry failed")
		h.OnError(streamErr)
		return streamErr
	}
	s.outcome("retried")
	h.OnFragment(text)
	s.recordLatency(ctx, userID, req.ConversationID, time.Since(start))
	h.OnFinish()
	return nil
}

func (s *ChatService) outcome(label string) {
	if s.metrics != nil {
		s.metrics.StreamOutcomes.WithLabelValues(label).Inc()
	}
}

// learn feeds the latest user message into the recommendation profile
func (s *ChatService) learn(ctx context.Context, userID string, req models.ChatRequest) {
	if s.profiles == nil || userID == "" {
		return
	}
	text := lastUserMessage(req.Messages)
	if text == "" {
		return
	}
	if _, err := s.profiles.LearnFromMessage(ctx, userID, text); err != nil {
		s.log.LogError(err, "profile update from chat failed", "user_id", userID)
	}
}

func lastUserMessage(turns []models.ChatTurn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == "user" && strings.TrimSpace(turns[i].Parts) != "" {
			return turns[i].Parts
		}
	}
	return ""
}

func (s *ChatService) recordLatency(ctx context.Context, userID, conversationID string, d time.Duration) {
	if s.feedback == nil || userID == "" {
		return
	}
	if err := s.feedback.RecordResponseTime(ctx, userID, conversationID, d); err != nil {
		s.log.LogError(err, "record response time failed", "user_id", userID)
	}
}

func completeHandler(h sse.Handler) sse.Handler {
	if h.OnFragment == nil {
		h.OnFragment = func(string) {}
	}
	if h.OnError == nil {
		h.OnError = func(error) {}
	}
	if h.OnFinish == nil {
		h.OnFinish = func() {}
	}
	return h
}
