// Package jobs runs the periodic background work: the nightly badge sweep and
// the health probe refresh.
package jobs

import (
	"context"
	"fmt"
	"time"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/pkg/logger"

	"github.com/robfig/cron/v3"
)

// UserLister lists every known user id
type UserLister interface {
	All(ctx context.Context) ([]string, error)
}

// Awarder unlocks the badges a user qualifies for
type Awarder interface {
	CheckAndAward(ctx context.Context, userID string) ([]models.Badge, error)
}

// Prober refreshes component health
type Prober interface {
	RunChecks(ctx context.Context)
}

// Specs are the cron expressions of each job. An empty spec disables the job.
type Specs struct {
	BadgeSweep  string
	HealthCheck string
}

// Scheduler owns the cron runner
type Scheduler struct {
	cron    *cron.Cron
	specs   Specs
	users   UserLister
	awarder Awarder
	prober  Prober
	log     *logger.Logger
	timeout time.Duration
}

func NewScheduler(specs Specs, users UserLister, awarder Awarder, prober Prober, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		specs:   specs,
		users:   users,
		awarder: awarder,
		prober:  prober,
		log:     log.WithComponent("jobs"),
		timeout: 5 * time.Minute,
	}
}

// Start registers the jobs and starts the runner
func (s *Scheduler) Start() error {
	if s.specs.BadgeSweep != "" && s.users != nil && s.awarder != nil {
		if _, err := s.cron.AddFunc(s.specs.BadgeSweep, s.runBadgeSweep); err != nil {
			return fmt.Errorf("failed to add badge sweep job: %w", err)
		}
	}
	if s.specs.HealthCheck != "" && s.prober != nil {
		if _, err := s.cron.AddFunc(s.specs.HealthCheck, s.runHealthCheck); err != nil {
			return fmt.Errorf("failed to add health check job: %w", err)
		}
	}

	s.cron.Start()
	s.log.Info("Scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) runBadgeSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	awarded, err := s.SweepBadges(ctx)
	if err != nil {
		s.log.LogError(err, "Badge sweep failed")
		return
	}
	s.log.Info("Badge sweep completed", "awarded", awarded)
}

func (s *Scheduler) runHealthCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	s.prober.RunChecks(ctx)
}

// SweepBadges rechecks every user and returns the number of badges awarded.
// One user's failure does not stop the sweep.
func (s *Scheduler) SweepBadges(ctx context.Context) (int, error) {
	ids, err := s.users.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	awarded := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return awarded, err
		}
		badges, err := s.awarder.CheckAndAward(ctx, id)
		if err != nil {
			s.log.LogError(err, "Badge check failed", "user_id", id)
			continue
		}
		awarded += len(badges)
	}
	return awarded, nil
}
