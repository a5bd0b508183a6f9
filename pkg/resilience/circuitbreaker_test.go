package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maeum-toegeun/backend/pkg/logger"
)

func TestBreakerOpensAndRecovers(t *testing.T) {
	var transitions []State
	cfg := Config{
		Name:             "gemini",
		FailureThreshold: 2,
		SuccessThreshold: 1,
		RetryTimeout:     time.Minute,
		OnStateChange:    func(_ string, to State) { transitions = append(transitions, to) },
	}
	cb := NewCircuitBreaker(cfg, logger.Discard())
	now := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	ctx := context.Background()
	boom := errors.New("upstream 503")
	fail := func(context.Context) error { return boom }
	ok := func(context.Context) error { return nil }

	assert.ErrorIs(t, cb.Execute(ctx, fail), boom)
	assert.ErrorIs(t, cb.Execute(ctx, fail), boom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Execute(ctx, ok))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, transitions)
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	cb := NewCircuitBreaker(Config{Name: "x", FailureThreshold: 1}, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := cb.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerIsSuccessful(t *testing.T) {
	rejected := errors.New("bad request")
	cb := NewCircuitBreaker(Config{
		Name:             "x",
		FailureThreshold: 1,
		IsSuccessful:     func(err error) bool { return errors.Is(err, rejected) },
	}, logger.Discard())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, func(context.Context) error { return rejected }), rejected)
	}
	assert.Equal(t, StateClosed, cb.State())

	_ = cb.Execute(ctx, func(context.Context) error { return errors.New("timeout") })
	assert.Equal(t, StateOpen, cb.State())
}
