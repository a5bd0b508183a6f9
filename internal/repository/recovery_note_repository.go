package repository

import (
	"context"

	"maeum-toegeun/backend/internal/models"
)

// RecoveryNoteRepository stores journal notes newest first
type RecoveryNoteRepository struct {
	store *Store
}

func NewRecoveryNoteRepository(store *Store) *RecoveryNoteRepository {
	return &RecoveryNoteRepository{store: store}
}

func (r *RecoveryNoteRepository) table(userID string) Table[models.RecoveryNote] {
	return table[models.RecoveryNote](r.store, r.store.userKey(userID, tableRecoveryNotes))
}

func (r *RecoveryNoteRepository) All(ctx context.Context, userID string) ([]models.RecoveryNote, error) {
	return r.table(userID).All(ctx)
}

func (r *RecoveryNoteRepository) Get(ctx context.Context, userID, id string) (models.RecoveryNote, error) {
	return r.table(userID).Find(ctx, func(n models.RecoveryNote) bool { return n.ID == id })
}

func (r *RecoveryNoteRepository) Create(ctx context.Context, userID string, note models.RecoveryNote) (models.RecoveryNote, error) {
	now := r.store.millis()
	if note.ID == "" {
		note.ID = newID()
	}
	if note.CreatedAt == 0 {
		note.CreatedAt = now
	}
	note.UpdatedAt = note.CreatedAt
	if note.Tags == nil {
		note.Tags = []string{}
	}
	_, err := r.table(userID).Mutate(ctx, func(rows []models.RecoveryNote) ([]models.RecoveryNote, error) {
		return prepend(rows, note), nil
	})
	return note, err
}

// Update applies fn to the note and stamps UpdatedAt
func (r *RecoveryNoteRepository) Update(ctx context.Context, userID, id string, fn func(*models.RecoveryNote)) (models.RecoveryNote, error) {
	var updated models.RecoveryNote
	_, err := r.table(userID).Mutate(ctx, func(rows []models.RecoveryNote) ([]models.RecoveryNote, error) {
		for i := range rows {
			if rows[i].ID == id {
				fn(&rows[i])
				rows[i].ID = id
				rows[i].UpdatedAt = r.store.millis()
				updated = rows[i]
				return rows, nil
			}
		}
		return nil, ErrNotFound
	})
	return updated, err
}

func (r *RecoveryNoteRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	n, err := r.table(userID).Remove(ctx, func(n models.RecoveryNote) bool { return n.ID == id })
	return n > 0, err
}
