// Package resilience guards calls to the generative-text provider
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"maeum-toegeun/backend/pkg/logger"
)

// ErrCircuitOpen is returned without calling the guarded function
var ErrCircuitOpen = errors.New("circuit open")

// State is closed, open or half-open
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// Config holds the thresholds of a breaker
type Config struct {
	Name             string
	FailureThreshold uint
	SuccessThreshold uint
	RetryTimeout     time.Duration
	// OnStateChange is called with the new state, outside the breaker lock
	OnStateChange func(name string, to State)
	// IsSuccessful reports errors that still prove the upstream is healthy.
	// They are returned to the caller but recorded as successes.
	IsSuccessful func(err error) bool
}

// DefaultConfig opens after 5 consecutive failures and probes again after a minute
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		RetryTimeout:     time.Minute,
	}
}

// CircuitBreaker short-circuits calls while the upstream keeps failing
type CircuitBreaker struct {
	cfg Config
	log *logger.Logger
	now func() time.Time

	mu              sync.Mutex
	state           State
	failureCount    uint
	successCount    uint
	nextAttemptTime time.Time
	lastFailureTime time.Time

	totalRequests  uint64
	totalFailures  uint64
	totalSuccesses uint64
	openCount      uint64
}

func NewCircuitBreaker(cfg Config, log *logger.Logger) *CircuitBreaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 1
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	return &CircuitBreaker{
		cfg:   cfg,
		log:   log.WithComponent("circuit"),
		now:   time.Now,
		state: StateClosed,
	}
}

// Execute runs fn unless the circuit is open. Context cancellation by the
// caller is not counted as an upstream failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.allow() {
		cb.log.Warn("circuit preventing request", "name", cb.cfg.Name)
		return ErrCircuitOpen
	}

	start := cb.now()
	err := fn(ctx)
	switch {
	case err == nil:
		cb.record(true)
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		// caller went away
	case cb.cfg.IsSuccessful != nil && cb.cfg.IsSuccessful(err):
		cb.record(true)
	default:
		cb.record(false)
		cb.log.Warn("circuit recorded failure",
			"name", cb.cfg.Name,
			"error", err.Error(),
			"duration", cb.now().Sub(start).String(),
		)
	}
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	changed := false
	allowed := false

	switch cb.state {
	case StateClosed:
		allowed = true
	case StateOpen:
		if cb.now().After(cb.nextAttemptTime) {
			cb.state = StateHalfOpen
			cb.successCount = 0
			changed, allowed = true, true
		}
	case StateHalfOpen:
		allowed = cb.successCount < cb.cfg.SuccessThreshold
	}
	if allowed {
		cb.totalRequests++
	}
	state := cb.state
	cb.mu.Unlock()

	if changed {
		cb.notify(state)
	}
	return allowed
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	before := cb.state

	if success {
		cb.totalSuccesses++
		switch cb.state {
		case StateClosed:
			cb.failureCount = 0
		case StateHalfOpen:
			cb.successCount++
			if cb.successCount >= cb.cfg.SuccessThreshold {
				cb.state = StateClosed
				cb.failureCount = 0
				cb.successCount = 0
			}
		}
	} else {
		cb.totalFailures++
		cb.lastFailureTime = cb.now()
		switch cb.state {
		case StateClosed:
			cb.failureCount++
			if cb.failureCount >= cb.cfg.FailureThreshold {
				cb.open()
			}
		case StateHalfOpen:
			cb.open()
		}
	}

	after := cb.state
	cb.mu.Unlock()

	if after != before {
		cb.notify(after)
	}
}

// open must be called with the lock held
func (cb *CircuitBreaker) open() {
	cb.state = StateOpen
	cb.openCount++
	cb.nextAttemptTime = cb.now().Add(cb.cfg.RetryTimeout)
}

func (cb *CircuitBreaker) notify(state State) {
	cb.log.Info("circuit state changed", "name", cb.cfg.Name, "state", string(state))
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, state)
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Metrics returns counters for the health endpoint
func (cb *CircuitBreaker) Metrics() map[string]any {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return map[string]any{
		"name":              cb.cfg.Name,
		"state":             string(cb.state),
		"total_requests":    cb.totalRequests,
		"total_failures":    cb.totalFailures,
		"total_successes":   cb.totalSuccesses,
		"open_count":        cb.openCount,
		"last_failure_time": cb.lastFailureTime,
	}
}
