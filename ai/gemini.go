// Package ai is the client of the Gemini generative-text API
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/pkg/logger"
	"maeum-toegeun/backend/pkg/middleware"
	"maeum-toegeun/backend/pkg/resilience"
	"maeum-toegeun/backend/pkg/sse"
	"maeum-toegeun/backend/shared/observability"
)

// ErrMissingAPIKey is returned when no provider key is configured
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not defined")

// Config is the provider endpoint and generation parameters
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	Timeout         time.Duration
	Temperature     float64
	TopK            int
	TopP            float64
	MaxOutputTokens int
}

// Part is one text part of a content turn
type Part struct {
	Text string `json:"text"`
}

// Content is one turn in the provider format
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// Request is the generateContent body
type Request struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
	SafetySettings   []SafetySetting  `json:"safetySettings"`
}

// UpstreamError is a non-OK provider response
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gemini: %d %s", e.Status, e.Message)
}

// IsClientError reports a 4xx provider rejection other than 429. The
// provider answered, so these do not count against the circuit.
func IsClientError(err error) bool {
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		return false
	}
	return upstream.Status >= 400 && upstream.Status < 500 && upstream.Status != http.StatusTooManyRequests
}

// Client talks to the provider through a circuit breaker
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *resilience.CircuitBreaker
	metrics *observability.Metrics
	log     *logger.Logger
}

// NewClient builds a client. breaker and metrics may be nil.
func NewClient(cfg Config, breaker *resilience.CircuitBreaker, metrics *observability.Metrics, log *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{},
		breaker: breaker,
		metrics: metrics,
		log:     log.WithComponent("gemini"),
	}
}

// BuildRequest prepends the system prompt and maps every non-user role to model
func (c *Client) BuildRequest(turns []models.ChatTurn) Request {
	contents := make([]Content, 0, len(turns)+1)
	contents = append(contents, Content{Role: "user", Parts: []Part{{Text: SystemPrompt}}})
	for _, t := range turns {
		role := "model"
		if t.Role == "user" {
			role = "user"
		}
		contents = append(contents, Content{Role: role, Parts: []Part{{Text: t.Parts}}})
	}

	safety := make([]SafetySetting, 0, len(safetyCategories))
	for _, category := range safetyCategories {
		safety = append(safety, SafetySetting{Category: category, Threshold: blockThreshold})
	}

	return Request{
		Contents: contents,
		GenerationConfig: GenerationConfig{
			Temperature:     c.cfg.Temperature,
			TopK:            c.cfg.TopK,
			TopP:            c.cfg.TopP,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
		SafetySettings: safety,
	}
}

// Generate returns the reply text. Provider failures are logged and replaced
// by a fixed apology; the caller never sees an error.
func (c *Client) Generate(ctx context.Context, turns []models.ChatTurn) models.ChatReply {
	text, err := c.GenerateText(ctx, turns)
	if err != nil {
		c.log.LogError(err, "gemini generate failed")
		return models.ChatReply{Text: FallbackText}
	}
	return models.ChatReply{Text: text}
}

// GenerateText is Generate with the error surfaced
func (c *Client) GenerateText(ctx context.Context, turns []models.ChatTurn) (string, error) {
	ctx, span := observability.Tracer().Start(ctx, "gemini.generateContent")
	defer span.End()
	start := time.Now()

	var text string
	err := c.guard(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		resp, err := c.post(ctx, "generateContent", nil, turns)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var chunk sse.Chunk
		if err := json.NewDecoder(resp.Body).Decode(&chunk); err != nil {
			return fmt.Errorf("decode gemini response: %w", err)
		}
		t, ok := chunk.Text()
		if !ok {
			t = MissingTextText
		}
		text = t
		return nil
	})

	c.observe("generate", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("reply.length", len([]rune(text))))
	return text, nil
}

// OpenStream starts a streamGenerateContent call in SSE mode. The caller owns
// the returned body. A non-OK status yields *UpstreamError.
func (c *Client) OpenStream(ctx context.Context, turns []models.ChatTurn) (*http.Response, error) {
	ctx, span := observability.Tracer().Start(ctx, "gemini.streamGenerateContent")
	defer span.End()
	start := time.Now()

	var resp *http.Response
	err := c.guard(ctx, func(ctx context.Context) error {
		r, err := c.post(ctx, "streamGenerateContent", url.Values{"alt": {"sse"}}, turns)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})

	c.observe("stream", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return resp, nil
}

func (c *Client) guard(ctx context.Context, fn func(context.Context) error) error {
	if c.cfg.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.breaker == nil {
		return fn(ctx)
	}
	return c.breaker.Execute(ctx, fn)
}

func (c *Client) post(ctx context.Context, method string, query url.Values, turns []models.ChatTurn) (*http.Response, error) {
	body, err := json.Marshal(c.BuildRequest(turns))
	if err != nil {
		return nil, err
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("key", c.cfg.APIKey)
	endpoint := fmt.Sprintf("%s/models/%s:%s?%s", c.cfg.BaseURL, c.cfg.Model, method, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if id := middleware.GetRequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini %s: %w", method, redact(err))
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, upstreamError(resp)
	}
	return resp, nil
}

func (c *Client) observe(mode string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.metrics.ChatLatency.WithLabelValues(mode, outcome).Observe(time.Since(start).Seconds())
}

// upstreamError prefers the provider's error.message over the status text
func upstreamError(resp *http.Response) *UpstreamError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return &UpstreamError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("API 오류: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}
	msg := http.StatusText(resp.StatusCode)
	if payload.Error != nil && payload.Error.Message != "" {
		msg = payload.Error.Message
	}
	return &UpstreamError{Status: resp.StatusCode, Message: msg}
}

// redact strips the request URL, which carries the API key, from transport errors
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
