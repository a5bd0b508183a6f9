package repository

import (
	"context"

	"maeum-toegeun/backend/internal/models"
)

// FeedbackRepository keeps the feedback list, the per-conversation status
// side table and recent response-time samples of one user
type FeedbackRepository struct {
	store     *Store
	sampleCap int
}

func NewFeedbackRepository(store *Store, sampleCap int) *FeedbackRepository {
	if sampleCap <= 0 {
		sampleCap = 100
	}
	return &FeedbackRepository{store: store, sampleCap: sampleCap}
}

func (r *FeedbackRepository) items(userID string) Table[models.FeedbackItem] {
	return table[models.FeedbackItem](r.store, r.store.userKey(userID, tableFeedback))
}

func (r *FeedbackRepository) status(userID string) Doc[map[string]bool] {
	return document[map[string]bool](r.store, r.store.userKey(userID, tableConversationStatus))
}

func (r *FeedbackRepository) samples(userID string) Table[models.ResponseTime] {
	return table[models.ResponseTime](r.store, r.store.userKey(userID, tableResponseTimes))
}

func (r *FeedbackRepository) All(ctx context.Context, userID string) ([]models.FeedbackItem, error) {
	return r.items(userID).All(ctx)
}

// Save appends the item and marks its conversation as rated
func (r *FeedbackRepository) Save(ctx context.Context, userID string, item models.FeedbackItem) (models.FeedbackItem, error) {
	if item.ID == "" {
		item.ID = newID()
	}
	if item.Timestamp == 0 {
		item.Timestamp = r.store.millis()
	}
	item.UserID = userID

	if _, err := r.items(userID).Mutate(ctx, func(rows []models.FeedbackItem) ([]models.FeedbackItem, error) {
		return append(rows, item), nil
	}); err != nil {
		return item, err
	}

	_, err := r.status(userID).Update(ctx, func(m map[string]bool) (map[string]bool, error) {
		if m == nil {
			m = make(map[string]bool)
		}
		m[item.ConversationID] = true
		return m, nil
	})
	return item, err
}

func (r *FeedbackRepository) ByConversation(ctx context.Context, userID, conversationID string) ([]models.FeedbackItem, error) {
	rows, err := r.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := []models.FeedbackItem{}
	for _, item := range rows {
		if item.ConversationID == conversationID {
			out = append(out, item)
		}
	}
	return out, nil
}

// HasFeedback reads the status side table
func (r *FeedbackRepository) HasFeedback(ctx context.Context, userID, conversationID string) (bool, error) {
	m, err := r.status(userID).Load(ctx)
	if err != nil {
		return false, err
	}
	return m[conversationID], nil
}

// Delete removes one item and clears its conversation's status once no
// feedback for that conversation is left
func (r *FeedbackRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	var (
		removed      bool
		conversation string
		stillRated   bool
	)
	if _, err := r.items(userID).Mutate(ctx, func(rows []models.FeedbackItem) ([]models.FeedbackItem, error) {
		kept := rows[:0:0]
		for _, item := range rows {
			if item.ID == id {
				removed = true
				conversation = item.ConversationID
				continue
			}
			kept = append(kept, item)
		}
		for _, item := range kept {
			if removed && item.ConversationID == conversation {
				stillRated = true
				break
			}
		}
		return kept, nil
	}); err != nil || !removed || stillRated {
		return removed, err
	}

	_, err := r.status(userID).Update(ctx, func(m map[string]bool) (map[string]bool, error) {
		delete(m, conversation)
		return m, nil
	})
	return true, err
}

// Replace overwrites the feedback list and rebuilds the status table from it
func (r *FeedbackRepository) Replace(ctx context.Context, userID string, items []models.FeedbackItem) error {
	if items == nil {
		items = []models.FeedbackItem{}
	}
	status := make(map[string]bool)
	for i := range items {
		items[i].UserID = userID
		status[items[i].ConversationID] = true
	}
	if err := r.items(userID).Save(ctx, items); err != nil {
		return err
	}
	return r.status(userID).Save(ctx, status)
}

// RecordResponseTime appends a sample and keeps only the newest ones
func (r *FeedbackRepository) RecordResponseTime(ctx context.Context, userID string, sample models.ResponseTime) error {
	if sample.Timestamp == 0 {
		sample.Timestamp = r.store.millis()
	}
	_, err := r.samples(userID).Mutate(ctx, func(rows []models.ResponseTime) ([]models.ResponseTime, error) {
		rows = append(rows, sample)
		if len(rows) > r.sampleCap {
			rows = rows[len(rows)-r.sampleCap:]
		}
		return rows, nil
	})
	return err
}

func (r *FeedbackRepository) ResponseTimes(ctx context.Context, userID string) ([]models.ResponseTime, error) {
	return r.samples(userID).All(ctx)
}
