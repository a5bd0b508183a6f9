package repository

import (
	"context"

	"maeum-toegeun/backend/internal/models"
)

// BadgeRepository keeps unlocked and in-progress badges. A badge counts as
// earned only once UnlockedAt is set.
type BadgeRepository struct {
	store *Store
}

func NewBadgeRepository(store *Store) *BadgeRepository {
	return &BadgeRepository{store: store}
}

func (r *BadgeRepository) table(userID string) Table[models.UserBadge] {
	return table[models.UserBadge](r.store, r.store.userKey(userID, tableUserBadges))
}

func (r *BadgeRepository) All(ctx context.Context, userID string) ([]models.UserBadge, error) {
	return r.table(userID).All(ctx)
}

// Award unlocks badgeID. It reports false when the badge was already unlocked.
func (r *BadgeRepository) Award(ctx context.Context, userID, badgeID string, progress int) (bool, error) {
	awarded := false
	_, err := r.table(userID).Mutate(ctx, func(rows []models.UserBadge) ([]models.UserBadge, error) {
		awarded = false
		p := progress
		for i := range rows {
			if rows[i].BadgeID != badgeID {
				continue
			}
			if rows[i].UnlockedAt > 0 {
				return rows, nil
			}
			rows[i].UnlockedAt = r.store.millis()
			rows[i].Progress = &p
			awarded = true
			return rows, nil
		}
		awarded = true
		return append(rows, models.UserBadge{BadgeID: badgeID, UnlockedAt: r.store.millis(), Progress: &p}), nil
	})
	return awarded, err
}

// SetProgress records partial progress on a badge that is not yet unlocked
func (r *BadgeRepository) SetProgress(ctx context.Context, userID, badgeID string, progress int) error {
	_, err := r.table(userID).Mutate(ctx, func(rows []models.UserBadge) ([]models.UserBadge, error) {
		p := progress
		for i := range rows {
			if rows[i].BadgeID != badgeID {
				continue
			}
			if rows[i].UnlockedAt == 0 {
				rows[i].Progress = &p
			}
			return rows, nil
		}
		return append(rows, models.UserBadge{BadgeID: badgeID, Progress: &p}), nil
	})
	return err
}
