package repository

import (
	"context"

	"maeum-toegeun/backend/internal/models"
)

// ProfileRepository stores one profile document per user
type ProfileRepository struct {
	store *Store
}

func NewProfileRepository(store *Store) *ProfileRepository {
	return &ProfileRepository{store: store}
}

func (r *ProfileRepository) doc(userID string) Doc[models.Profile] {
	return document[models.Profile](r.store, r.store.userKey(userID, tableProfile))
}

// Get returns the stored profile, or an empty one for a new user
func (r *ProfileRepository) Get(ctx context.Context, userID string) (models.Profile, error) {
	p, err := r.doc(userID).Load(ctx)
	if err != nil {
		return p, err
	}
	return normalizeProfile(p, userID), nil
}

func (r *ProfileRepository) Update(ctx context.Context, userID string, fn func(*models.Profile)) (models.Profile, error) {
	return r.doc(userID).Update(ctx, func(p models.Profile) (models.Profile, error) {
		p = normalizeProfile(p, userID)
		fn(&p)
		p.UserID = userID
		return p, nil
	})
}

// Reset drops the profile
func (r *ProfileRepository) Reset(ctx context.Context, userID string) error {
	return r.doc(userID).Clear(ctx)
}

func normalizeProfile(p models.Profile, userID string) models.Profile {
	p.UserID = userID
	if p.RecentEmotions == nil {
		p.RecentEmotions = []string{}
	}
	if p.RecentSituations == nil {
		p.RecentSituations = []string{}
	}
	return p
}

// UserRegistry remembers every issued user id so background jobs can visit them
type UserRegistry struct {
	store *Store
}

func NewUserRegistry(store *Store) *UserRegistry {
	return &UserRegistry{store: store}
}

func (r *UserRegistry) table() Table[string] {
	return table[string](r.store, r.store.sharedKey(tableUsers))
}

func (r *UserRegistry) Register(ctx context.Context, userID string) error {
	_, err := r.table().Mutate(ctx, func(ids []string) ([]string, error) {
		if contains(ids, userID) {
			return ids, nil
		}
		return append(ids, userID), nil
	})
	return err
}

func (r *UserRegistry) All(ctx context.Context) ([]string, error) {
	return r.table().All(ctx)
}
