package repository

import (
	"context"

	"maeum-toegeun/backend/internal/models"
)

// ActivityRepository is the capped activity timeline of one user
type ActivityRepository struct {
	store    *Store
	maxItems int
}

func NewActivityRepository(store *Store, maxItems int) *ActivityRepository {
	if maxItems <= 0 {
		maxItems = 100
	}
	return &ActivityRepository{store: store, maxItems: maxItems}
}

func (r *ActivityRepository) table(userID string) Table[models.Activity] {
	return table[models.Activity](r.store, r.store.userKey(userID, tableActivities))
}

func (r *ActivityRepository) All(ctx context.Context, userID string) ([]models.Activity, error) {
	return r.table(userID).All(ctx)
}

// Add prepends the activity and drops the oldest entries past the cap
func (r *ActivityRepository) Add(ctx context.Context, activity models.Activity) (models.Activity, error) {
	if activity.ID == "" {
		activity.ID = newID()
	}
	if activity.CreatedAt == 0 {
		activity.CreatedAt = r.store.millis()
	}
	_, err := r.table(activity.UserID).Mutate(ctx, func(rows []models.Activity) ([]models.Activity, error) {
		rows = prepend(rows, activity)
		if len(rows) > r.maxItems {
			rows = rows[:r.maxItems]
		}
		return rows, nil
	})
	return activity, err
}

func (r *ActivityRepository) ByType(ctx context.Context, userID string, t models.ActivityType) ([]models.Activity, error) {
	rows, err := r.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := []models.Activity{}
	for _, a := range rows {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *ActivityRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	n, err := r.table(userID).Remove(ctx, func(a models.Activity) bool { return a.ID == id })
	return n > 0, err
}
