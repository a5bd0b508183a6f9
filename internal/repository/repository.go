// Package repository keeps every entity table as one JSON document in a
// kv.Backend. Per-user tables live under "<prefix>users:<id>:<table>", the
// community tables are shared by all users.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"maeum-toegeun/backend/pkg/kv"
	"maeum-toegeun/backend/pkg/logger"
)

// ErrNotFound is returned when an entity id is not present in its table
var ErrNotFound = errors.New("not found")

// Table names
const (
	tableEmotionRecords     = "emotion_records"
	tableMissionCompletions = "mission_completions"
	tableActiveMissions     = "active_missions"
	tableRecoveryPoints     = "recovery_points"
	tableDailyMissions      = "daily_missions"
	tableUserBadges         = "user_badges"
	tablePosts              = "posts"
	tableComments           = "comments"
	tableLikes              = "likes"
	tableBookmarks          = "bookmarks"
	tableActivities         = "activities"
	tableRecoveryNotes      = "recovery_notes"
	tableFeedback           = "feedback_data"
	tableConversationStatus = "conversation_feedback"
	tableResponseTimes      = "response_times"
	tableProfile            = "user_profile"
	tableUsers              = "users"
)

// Store is the shared handle every repository is built from
type Store struct {
	backend kv.Backend
	prefix  string
	log     *logger.Logger
	now     func() time.Time
}

// Option customises a Store
type Option func(*Store)

// WithClock replaces time.Now for creation and update stamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store writing keys with the given prefix
func NewStore(backend kv.Backend, prefix string, log *logger.Logger, opts ...Option) *Store {
	if log == nil {
		log = logger.GetGlobal()
	}
	s := &Store{
		backend: backend,
		prefix:  prefix,
		log:     log.WithComponent("repository"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend exposes the underlying backend for health checks
func (s *Store) Backend() kv.Backend { return s.backend }

// Now returns the store clock
func (s *Store) Now() time.Time { return s.now() }

func (s *Store) millis() int64 { return s.now().UnixMilli() }

func (s *Store) userKey(userID, table string) string {
	return fmt.Sprintf("%susers:%s:%s", s.prefix, userID, table)
}

func (s *Store) sharedKey(table string) string {
	return s.prefix + table
}

func newID() string { return uuid.NewString() }

// Doc is one JSON document under a single key
type Doc[T any] struct {
	store *Store
	key   string
}

func document[T any](s *Store, key string) Doc[T] {
	return Doc[T]{store: s, key: key}
}

// Load returns the stored value. A missing key or an unparsable value yields
// the zero value; only backend failures are returned.
func (d Doc[T]) Load(ctx context.Context) (T, error) {
	var v T
	raw, err := d.store.backend.Get(ctx, d.key)
	if errors.Is(err, kv.ErrNotFound) {
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("load %s: %w", d.key, err)
	}
	return d.decode(raw), nil
}

// Update applies fn atomically and returns the stored result
func (d Doc[T]) Update(ctx context.Context, fn func(T) (T, error)) (T, error) {
	var result T
	err := d.store.backend.Update(ctx, d.key, func(current []byte) ([]byte, error) {
		var v T
		if current != nil {
			v = d.decode(current)
		}
		next, err := fn(v)
		if err != nil {
			return nil, err
		}
		result = next
		return json.Marshal(next)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Save overwrites the stored value
func (d Doc[T]) Save(ctx context.Context, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := d.store.backend.Set(ctx, d.key, raw); err != nil {
		return fmt.Errorf("save %s: %w", d.key, err)
	}
	return nil
}

// Clear removes the key
func (d Doc[T]) Clear(ctx context.Context) error {
	return d.store.backend.Delete(ctx, d.key)
}

func (d Doc[T]) decode(raw []byte) T {
	var v T
	if len(raw) == 0 {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		d.store.log.Warn("discarding unparsable value", "key", d.key, "error", err)
		var zero T
		return zero
	}
	return v
}

// Table is a JSON array of T under one key
type Table[T any] struct {
	Doc[[]T]
}

func table[T any](s *Store, key string) Table[T] {
	return Table[T]{Doc: document[[]T](s, key)}
}

// All returns every row, never nil
func (t Table[T]) All(ctx context.Context) ([]T, error) {
	rows, err := t.Load(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

// Mutate rewrites the whole array atomically
func (t Table[T]) Mutate(ctx context.Context, fn func([]T) ([]T, error)) ([]T, error) {
	return t.Update(ctx, func(rows []T) ([]T, error) {
		next, err := fn(rows)
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = []T{}
		}
		return next, nil
	})
}

// Find returns the first row matching fn
func (t Table[T]) Find(ctx context.Context, fn func(T) bool) (T, error) {
	var zero T
	rows, err := t.All(ctx)
	if err != nil {
		return zero, err
	}
	for _, row := range rows {
		if fn(row) {
			return row, nil
		}
	}
	return zero, ErrNotFound
}

// Remove drops every row matching fn and reports how many were dropped
func (t Table[T]) Remove(ctx context.Context, fn func(T) bool) (int, error) {
	removed := 0
	_, err := t.Mutate(ctx, func(rows []T) ([]T, error) {
		removed = 0
		kept := rows[:0]
		for _, row := range rows {
			if fn(row) {
				removed++
				continue
			}
			kept = append(kept, row)
		}
		return kept, nil
	})
	return removed, err
}

func prepend[T any](rows []T, row T) []T {
	out := make([]T, 0, len(rows)+1)
	out = append(out, row)
	return append(out, rows...)
}
