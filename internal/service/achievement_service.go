package service

import (
	"context"
	"fmt"

	"maeum-toegeun/backend/internal/catalog"
	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/internal/repository"
	"maeum-toegeun/backend/pkg/logger"
)

// AchievementService evaluates badge criteria and the level ladder
type AchievementService struct {
	catalog    *catalog.Catalog
	badges     *repository.BadgeRepository
	missions   *repository.MissionRepository
	emotions   *repository.EmotionRepository
	community  *repository.CommunityRepository
	activities *ActivityService
	now        Clock
	log        *logger.Logger
}

func NewAchievementService(
	cat *catalog.Catalog,
	badges *repository.BadgeRepository,
	missions *repository.MissionRepository,
	emotions *repository.EmotionRepository,
	community *repository.CommunityRepository,
	activities *ActivityService,
	now Clock,
	log *logger.Logger,
) *AchievementService {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &AchievementService{
		catalog:    cat,
		badges:     badges,
		missions:   missions,
		emotions:   emotions,
		community:  community,
		activities: activities,
		now:        orNow(now),
		log:        log.WithComponent("achievement"),
	}
}

// counts are the inputs every badge criterion is measured against
type counts struct {
	completions []models.MissionCompletion
	emotions    int
	posts       int
	comments    int
	streak      int
}

func (s *AchievementService) gather(ctx context.Context, userID string) (counts, error) {
	var c counts
	var err error
	if c.completions, err = s.missions.Completions(ctx, userID); err != nil {
		return c, err
	}
	if c.emotions, err = s.emotions.Count(ctx, userID); err != nil {
		return c, err
	}
	if c.posts, err = s.community.CountPostsBy(ctx, userID); err != nil {
		return c, err
	}
	if c.comments, err = s.community.CountCommentsBy(ctx, userID); err != nil {
		return c, err
	}
	c.streak = Streak(c.completions, s.now())
	return c, nil
}

// measure returns the current count for a criterion. ok is false for unknown
// criteria types.
func (s *AchievementService) measure(criteria models.UnlockCriteria, c counts) (int, bool) {
	switch criteria.Type {
	case models.CriteriaMissionCount:
		return len(c.completions), true
	case models.CriteriaMissionCategory:
		n := 0
		for _, completion := range c.completions {
			mission, ok := s.catalog.MissionByID(completion.MissionID)
			if ok && string(mission.Category) == criteria.Category {
				n++
			}
		}
		return n, true
	case models.CriteriaMissionStreak:
		return c.streak, true
	case models.CriteriaEmotionCount:
		return c.emotions, true
	case models.CriteriaCommunityPosts:
		return c.posts, true
	case models.CriteriaCommunityComment:
		return c.comments, true
	}
	return 0, false
}

func progressOf(count, target int) int {
	if target <= 0 {
		return 0
	}
	p := count * 100 / target
	if p > 100 {
		p = 100
	}
	return p
}

// CheckAndAward unlocks every badge whose criterion is now met and records
// partial progress on the rest. Already unlocked badges are skipped. It
// returns the newly unlocked badges in catalog order.
func (s *AchievementService) CheckAndAward(ctx context.Context, userID string) ([]models.Badge, error) {
	owned, err := s.badges.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	unlocked := make(map[string]bool, len(owned))
	for _, b := range owned {
		if b.UnlockedAt > 0 {
			unlocked[b.BadgeID] = true
		}
	}

	c, err := s.gather(ctx, userID)
	if err != nil {
		return nil, err
	}

	awarded := []models.Badge{}
	for _, badge := range s.catalog.Badges() {
		if unlocked[badge.ID] {
			continue
		}
		count, ok := s.measure(badge.UnlockCriteria, c)
		if !ok {
			continue
		}
		progress := progressOf(count, badge.UnlockCriteria.Value)

		if count >= badge.UnlockCriteria.Value && badge.UnlockCriteria.Value > 0 {
			isNew, err := s.badges.Award(ctx, userID, badge.ID, progress)
			if err != nil {
				return awarded, err
			}
			if isNew {
				awarded = append(awarded, badge)
				s.activities.record(ctx, models.Activity{
					UserID:      userID,
					Type:        models.ActivityBadgeEarn,
					TargetID:    badge.ID,
					TargetType:  "badge",
					Title:       "배지 획득",
					Description: fmt.Sprintf("'%s' 배지를 획득했습니다.", badge.Name),
				})
			}
			continue
		}
		if progress > 0 {
			if err := s.badges.SetProgress(ctx, userID, badge.ID, progress); err != nil {
				return awarded, err
			}
		}
	}

	if len(awarded) > 0 {
		s.log.Info("badges awarded", "user_id", userID, "count", len(awarded))
	}
	return awarded, nil
}

// UserBadges pairs every catalog badge with the user's state
func (s *AchievementService) UserBadges(ctx context.Context, userID string) ([]models.BadgeProgress, error) {
	owned, err := s.badges.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.UserBadge, len(owned))
	for _, b := range owned {
		byID[b.BadgeID] = b
	}

	out := make([]models.BadgeProgress, 0, len(s.catalog.Badges()))
	for _, badge := range s.catalog.Badges() {
		bp := models.BadgeProgress{Badge: badge}
		if ub, ok := byID[badge.ID]; ok {
			bp.Unlocked = ub.UnlockedAt > 0
			bp.UnlockedAt = ub.UnlockedAt
			if ub.Progress != nil {
				bp.Progress = *ub.Progress
			}
			if bp.Unlocked {
				bp.Progress = 100
			}
		}
		out = append(out, bp)
	}
	return out, nil
}

// LevelInfo maps the accumulated recovery points onto the ladder
func (s *AchievementService) LevelInfo(ctx context.Context, userID string) (models.LevelInfo, error) {
	points, err := s.missions.Points(ctx, userID)
	if err != nil {
		return models.LevelInfo{}, err
	}
	return s.catalog.LevelInfo(points), nil
}
