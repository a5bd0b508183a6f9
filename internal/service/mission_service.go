package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"maeum-toegeun/backend/internal/catalog"
	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/repository"
	"maeum-toegeun/backend/pkg/logger"
)

const (
	streakWindowDays  = 30
	completionWindow  = 7 * 24 * time.Hour
	defaultDailyCount = 3
	dateLayout        = "2006-01-02"
)

// MissionService runs the daily draw, mission completion and mission stats
type MissionService struct {
	catalog      *catalog.Catalog
	repo         *repository.MissionRepository
	achievements *AchievementService
	activities   *ActivityService
	dailyCount   int
	now          Clock
	log          *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// MissionOption customises a MissionService
type MissionOption func(*MissionService)

// WithRand fixes the random source of the draw
func WithRand(rng *rand.Rand) MissionOption {
	return func(s *MissionService) { s.rng = rng }
}

// WithDailyCount sets how many missions are drawn per day
func WithDailyCount(n int) MissionOption {
	return func(s *MissionService) {
		if n > 0 {
			s.dailyCount = n
		}
	}
}

func NewMissionService(
	cat *catalog.Catalog,
	repo *repository.MissionRepository,
	achievements *AchievementService,
	activities *ActivityService,
	now Clock,
	log *logger.Logger,
	opts ...MissionOption,
) *MissionService {
	if log == nil {
		log = logger.GetGlobal()
	}
	s := &MissionService{
		catalog:      cat,
		repo:         repo,
		achievements: achievements,
		activities:   activities,
		dailyCount:   defaultDailyCount,
		now:          orNow(now),
		log:          log.WithComponent("mission"),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog lists missions, optionally narrowed by category and difficulty
func (s *MissionService) Catalog(category models.MissionCategory, difficulty models.MissionDifficulty) []models.Mission {
	out := []models.Mission{}
	for _, m := range s.catalog.Missions() {
		if category != "" && m.Category != category {
			continue
		}
		if difficulty != "" && m.Difficulty != difficulty {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (s *MissionService) Get(id string) (models.Mission, error) {
	m, ok := s.catalog.MissionByID(id)
	if !ok {
		return m, missing("미션을 찾을 수 없습니다.")
	}
	return m, nil
}

func (s *MissionService) random(n int) []models.Mission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.RandomMissions(s.rng, n)
}

// Recommended draws count random missions. Zero means the daily count.
func (s *MissionService) Recommended(count int) []models.Mission {
	if count <= 0 {
		count = s.dailyCount
	}
	return s.random(count)
}

// Daily returns today's missions. The first call of a day draws a fresh set
// and puts it on the active list.
func (s *MissionService) Daily(ctx context.Context, userID string) ([]models.Mission, error) {
	today := s.now().Format(dateLayout)

	var drawn []string
	daily, err := s.repo.DailyFor(ctx, userID, today, func() []string {
		picked := s.random(s.dailyCount)
		ids := make([]string, 0, len(picked))
		for _, m := range picked {
			ids = append(ids, m.ID)
		}
		drawn = ids
		return ids
	})
	if err != nil {
		return nil, err
	}

	if len(drawn) > 0 && sameIDs(drawn, daily.MissionIDs) {
		if _, err := s.repo.AddActive(ctx, userID, drawn...); err != nil {
			return nil, err
		}
	}
	return s.resolve(daily.MissionIDs), nil
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// resolve maps ids to catalog missions, skipping ids no longer in the catalog
func (s *MissionService) resolve(ids []string) []models.Mission {
	out := make([]models.Mission, 0, len(ids))
	for _, id := range ids {
		if m, ok := s.catalog.MissionByID(id); ok {
			out = append(out, m)
		}
	}
	return out
}

// Start puts a mission on the active list
func (s *MissionService) Start(ctx context.Context, userID, missionID string) ([]models.Mission, error) {
	if _, err := s.Get(missionID); err != nil {
		return nil, err
	}
	ids, err := s.repo.AddActive(ctx, userID, missionID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ids), nil
}

func (s *MissionService) Active(ctx context.Context, userID string) ([]models.Mission, error) {
	ids, err := s.repo.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ids), nil
}

// PointsFor is the full mission points for a finished mission and half,
// rounded down, for any other outcome
func PointsFor(m models.Mission, status models.MissionStatus) int {
	if status == models.StatusDone {
		return m.Points
	}
	return m.Points / 2
}

func validStatus(status models.MissionStatus) bool {
	switch status {
	case models.StatusWaiting, models.StatusInProgress, models.StatusDone, models.StatusFailed:
		return true
	}
	return false
}

// Complete records a completion, credits its points, and then re-evaluates
// badges. A level change is logged as its own activity.
func (s *MissionService) Complete(ctx context.Context, userID, missionID string, req models.CompleteMissionRequest) (models.CompletionResult, error) {
	var result models.CompletionResult

	mission, err := s.Get(missionID)
	if err != nil {
		return result, err
	}
	status := req.Status
	if status == "" {
		status = models.StatusDone
	}
	if !validStatus(status) {
		return result, invalid("status", "알 수 없는 미션 상태입니다.")
	}

	before, err := s.repo.Points(ctx, userID)
	if err != nil {
		return result, err
	}

	completion, total, err := s.repo.Complete(ctx, userID, models.MissionCompletion{
		MissionID:    mission.ID,
		Timestamp:    s.now().UnixMilli(),
		Status:       status,
		Reflection:   req.Reflection,
		PointsEarned: PointsFor(mission, status),
	})
	if err != nil {
		return result, err
	}

	s.activities.record(ctx, models.Activity{
		UserID:      userID,
		Type:        models.ActivityMissionComplete,
		TargetID:    mission.ID,
		TargetType:  "mission",
		Title:       "회복 미션 완료",
		Description: fmt.Sprintf("'%s' 미션을 완료했습니다. (+%d 포인트)", mission.Title, completion.PointsEarned),
	})

	oldLevel := s.catalog.LevelByPoints(before)
	newLevel := s.catalog.LevelByPoints(total)
	leveledUp := newLevel.Level > oldLevel.Level
	if leveledUp {
		s.activities.record(ctx, models.Activity{
			UserID:      userID,
			Type:        models.ActivityLevelUp,
			TargetType:  "level",
			Title:       "레벨 업",
			Description: fmt.Sprintf("레벨 %d '%s'에 도달했습니다.", newLevel.Level, newLevel.Name),
		})
	}

	badges := []models.Badge{}
	if s.achievements != nil {
		if badges, err = s.achievements.CheckAndAward(ctx, userID); err != nil {
			s.log.LogError(err, "badge check after mission failed", "user_id", userID)
			badges = []models.Badge{}
		}
	}

	return models.CompletionResult{
		Completion:  completion,
		TotalPoints: total,
		Level:       newLevel,
		LeveledUp:   leveledUp,
		NewBadges:   badges,
	}, nil
}

// History returns completions newest first
func (s *MissionService) History(ctx context.Context, userID string) ([]models.MissionCompletion, error) {
	return s.repo.Completions(ctx, userID)
}

func (s *MissionService) Stats(ctx context.Context, userID string) (models.MissionStats, error) {
	completions, err := s.repo.Completions(ctx, userID)
	if err != nil {
		return models.MissionStats{}, err
	}
	return MissionStats(completions, s.now()), nil
}

// MissionStats counts completions and points, the share of the last seven
// days with a completion, and the current streak
func MissionStats(completions []models.MissionCompletion, now time.Time) models.MissionStats {
	if len(completions) == 0 {
		return models.MissionStats{}
	}

	stats := models.MissionStats{TotalCompleted: len(completions)}
	cutoff := now.Add(-completionWindow).UnixMilli()
	days := make(map[string]bool)
	for _, c := range completions {
		stats.TotalPoints += c.PointsEarned
		if c.Timestamp >= cutoff {
			days[time.UnixMilli(c.Timestamp).In(now.Location()).Format(dateLayout)] = true
		}
	}
	stats.CompletionRate = int(math.Round(float64(len(days)) / 7 * 100))
	stats.Streak = Streak(completions, now)
	return stats
}

// Streak counts consecutive calendar days with a completion, scanning back
// from today for at most thirty days. An empty today does not break it.
func Streak(completions []models.MissionCompletion, now time.Time) int {
	days := make(map[string]bool, len(completions))
	for _, c := range completions {
		days[time.UnixMilli(c.Timestamp).In(now.Location()).Format(dateLayout)] = true
	}

	today := startOfDay(now)
	streak := 0
	for i := 0; i < streakWindowDays; i++ {
		if days[today.AddDate(0, 0, -i).Format(dateLayout)] {
			streak++
		} else if i > 0 {
			break
		}
	}
	return streak
}
