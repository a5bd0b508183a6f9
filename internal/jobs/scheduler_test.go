package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticUsers []string

func (u staticUsers) All(context.Context) ([]string, error) { return u, nil }

type fakeAwarder struct {
	calls []string
}

func (a *fakeAwarder) CheckAndAward(_ context.Context, userID string) ([]models.Badge, error) {
	a.calls = append(a.calls, userID)
	switch userID {
	case "broken":
		return nil, errors.New("store offline")
	case "u1":
		return []models.Badge{{ID: "emotion-starter"}, {ID: "first-mission"}}, nil
	}
	return nil, nil
}

type countingProber struct{ runs atomic.Int32 }

func (p *countingProber) RunChecks(context.Context) { p.runs.Add(1) }

func TestSweepBadgesContinuesPastFailures(t *testing.T) {
	awarder := &fakeAwarder{}
	s := NewScheduler(Specs{}, staticUsers{"u1", "broken", "u2"}, awarder, nil, logger.Discard())

	n, err := s.SweepBadges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"u1", "broken", "u2"}, awarder.calls)
}

func TestSweepBadgesStopsOnCancel(t *testing.T) {
	awarder := &fakeAwarder{}
	s := NewScheduler(Specs{}, staticUsers{"u1", "u2"}, awarder, nil, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.SweepBadges(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, awarder.calls)
}

func TestSchedulerRunsHealthJob(t *testing.T) {
	prober := &countingProber{}
	s := NewScheduler(Specs{HealthCheck: "@every 1s"}, nil, nil, prober, logger.Discard())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return prober.runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler(Specs{BadgeSweep: "every night"}, staticUsers{}, &fakeAwarder{}, nil, logger.Discard())
	assert.Error(t, s.Start())
}
