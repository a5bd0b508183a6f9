package repository

import (
	"context"
	"time"

	"maeum-toegeun/backend/internal/models"
)

// EmotionRepository stores emotion records newest first
type EmotionRepository struct {
	store *Store
}

func NewEmotionRepository(store *Store) *EmotionRepository {
	return &EmotionRepository{store: store}
}

func (r *EmotionRepository) table(userID string) Table[models.EmotionRecord] {
	return table[models.EmotionRecord](r.store, r.store.userKey(userID, tableEmotionRecords))
}

func (r *EmotionRepository) All(ctx context.Context, userID string) ([]models.EmotionRecord, error) {
	return r.table(userID).All(ctx)
}

// Save assigns an id and timestamp when missing and prepends the record
func (r *EmotionRepository) Save(ctx context.Context, userID string, record models.EmotionRecord) (models.EmotionRecord, error) {
	if record.ID == "" {
		record.ID = newID()
	}
	if record.Timestamp == 0 {
		record.Timestamp = r.store.millis()
	}
	_, err := r.table(userID).Mutate(ctx, func(rows []models.EmotionRecord) ([]models.EmotionRecord, error) {
		return prepend(rows, record), nil
	})
	return record, err
}

func (r *EmotionRepository) Get(ctx context.Context, userID, id string) (models.EmotionRecord, error) {
	return r.table(userID).Find(ctx, func(rec models.EmotionRecord) bool { return rec.ID == id })
}

func (r *EmotionRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	n, err := r.table(userID).Remove(ctx, func(rec models.EmotionRecord) bool { return rec.ID == id })
	return n > 0, err
}

// Recent returns the first n records in store order
func (r *EmotionRepository) Recent(ctx context.Context, userID string, n int) ([]models.EmotionRecord, error) {
	rows, err := r.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	if n >= 0 && n < len(rows) {
		rows = rows[:n]
	}
	return rows, nil
}

// Today returns the records created on the calendar day of now
func (r *EmotionRepository) Today(ctx context.Context, userID string, now time.Time) ([]models.EmotionRecord, error) {
	rows, err := r.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	out := []models.EmotionRecord{}
	for _, rec := range rows {
		t := rec.Time()
		if !t.Before(start) && t.Before(end) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *EmotionRepository) Count(ctx context.Context, userID string) (int, error) {
	rows, err := r.All(ctx, userID)
	return len(rows), err
}
