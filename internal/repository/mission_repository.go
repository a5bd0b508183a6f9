package repository

import (
	"context"

	"maeum-toegeun/backend/internal/models"
)

// MissionRepository keeps completions, the active list, recovery points and
// the daily draw of one user
type MissionRepository struct {
	store *Store
}

func NewMissionRepository(store *Store) *MissionRepository {
	return &MissionRepository{store: store}
}

func (r *MissionRepository) completions(userID string) Table[models.MissionCompletion] {
	return table[models.MissionCompletion](r.store, r.store.userKey(userID, tableMissionCompletions))
}

func (r *MissionRepository) active(userID string) Table[string] {
	return table[string](r.store, r.store.userKey(userID, tableActiveMissions))
}

func (r *MissionRepository) points(userID string) Doc[int] {
	return document[int](r.store, r.store.userKey(userID, tableRecoveryPoints))
}

func (r *MissionRepository) daily(userID string) Doc[models.DailyMissions] {
	return document[models.DailyMissions](r.store, r.store.userKey(userID, tableDailyMissions))
}

// Completions returns the history newest first
func (r *MissionRepository) Completions(ctx context.Context, userID string) ([]models.MissionCompletion, error) {
	return r.completions(userID).All(ctx)
}

// Complete prepends the completion, adds its points and takes the mission off
// the active list. It returns the stamped completion and the new point total.
func (r *MissionRepository) Complete(ctx context.Context, userID string, c models.MissionCompletion) (models.MissionCompletion, int, error) {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.Timestamp == 0 {
		c.Timestamp = r.store.millis()
	}
	if c.Status == "" {
		c.Status = models.StatusDone
	}

	_, err := r.completions(userID).Mutate(ctx, func(rows []models.MissionCompletion) ([]models.MissionCompletion, error) {
		return prepend(rows, c), nil
	})
	if err != nil {
		return c, 0, err
	}

	total, err := r.AddPoints(ctx, userID, c.PointsEarned)
	if err != nil {
		return c, 0, err
	}

	if _, err := r.RemoveActive(ctx, userID, c.MissionID); err != nil {
		return c, total, err
	}
	return c, total, nil
}

// Points returns the accumulated recovery points
func (r *MissionRepository) Points(ctx context.Context, userID string) (int, error) {
	return r.points(userID).Load(ctx)
}

func (r *MissionRepository) AddPoints(ctx context.Context, userID string, delta int) (int, error) {
	return r.points(userID).Update(ctx, func(cur int) (int, error) {
		return cur + delta, nil
	})
}

// Active returns the ids of started missions in start order
func (r *MissionRepository) Active(ctx context.Context, userID string) ([]string, error) {
	return r.active(userID).All(ctx)
}

// AddActive appends missionID unless it is already active
func (r *MissionRepository) AddActive(ctx context.Context, userID string, missionIDs ...string) ([]string, error) {
	return r.active(userID).Mutate(ctx, func(ids []string) ([]string, error) {
		for _, id := range missionIDs {
			if !contains(ids, id) {
				ids = append(ids, id)
			}
		}
		return ids, nil
	})
}

func (r *MissionRepository) RemoveActive(ctx context.Context, userID, missionID string) (bool, error) {
	n, err := r.active(userID).Remove(ctx, func(id string) bool { return id == missionID })
	return n > 0, err
}

// DailyFor returns the draw cached for date. When the cache holds another
// date, draw is called and its result stored.
func (r *MissionRepository) DailyFor(ctx context.Context, userID, date string, draw func() []string) (models.DailyMissions, error) {
	return r.daily(userID).Update(ctx, func(cur models.DailyMissions) (models.DailyMissions, error) {
		if cur.Date == date && len(cur.MissionIDs) > 0 {
			return cur, nil
		}
		return models.DailyMissions{Date: date, MissionIDs: draw()}, nil
	})
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
