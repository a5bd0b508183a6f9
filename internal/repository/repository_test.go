package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/pkg/kv"
	"maeum-toegeun/backend/pkg/logger"
)

const testPrefix = "workplace_emotion_app_"

var fixedNow = time.Date(2025, 6, 18, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *kv.Memory) {
	t.Helper()
	backend := kv.NewMemory()
	return NewStore(backend, testPrefix, logger.Discard(), WithClock(func() time.Time { return fixedNow })), backend
}

func TestEmotionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	repo := NewEmotionRepository(store)

	first, err := repo.Save(ctx, "u1", models.EmotionRecord{
		Emotions:    []models.EmotionEntry{{Category: models.EmotionAnxiety, Intensity: 3}},
		Note:        "발표 전",
		Situation:   "업무과다",
		EnergyLevel: 40,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, fixedNow.UnixMilli(), first.Timestamp)

	second, err := repo.Save(ctx, "u1", models.EmotionRecord{
		Emotions:    []models.EmotionEntry{{Category: models.EmotionJoy, Intensity: 5}},
		EnergyLevel: 80,
	})
	require.NoError(t, err)

	all, err := repo.All(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")
	assert.Equal(t, first, all[1])

	ok, err := repo.Delete(ctx, "u1", first.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	all, err = repo.All(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []models.EmotionRecord{second}, all)

	ok, err = repo.Delete(ctx, "u1", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := repo.All(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestEmotionToday(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	repo := NewEmotionRepository(store)

	_, err := repo.Save(ctx, "u1", models.EmotionRecord{ID: "old", Timestamp: fixedNow.AddDate(0, 0, -1).UnixMilli()})
	require.NoError(t, err)
	_, err = repo.Save(ctx, "u1", models.EmotionRecord{ID: "today"})
	require.NoError(t, err)

	today, err := repo.Today(ctx, "u1", fixedNow.In(time.UTC))
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, "today", today[0].ID)
}

func TestUnparsableValueReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	store, backend := newTestStore(t)
	repo := NewEmotionRepository(store)

	require.NoError(t, backend.Set(ctx, store.userKey("u1", tableEmotionRecords), []byte("{broken")))

	all, err := repo.All(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = repo.Save(ctx, "u1", models.EmotionRecord{ID: "fresh"})
	require.NoError(t, err)
	all, err = repo.All(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMissionPointsAccumulate(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	repo := NewMissionRepository(store)

	active, err := repo.AddActive(ctx, "u1", "mission-1", "mission-2", "mission-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"mission-1", "mission-2"}, active)

	_, total, err := repo.Complete(ctx, "u1", models.MissionCompletion{MissionID: "mission-1", PointsEarned: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, total)

	c, total, err := repo.Complete(ctx, "u1", models.MissionCompletion{MissionID: "mission-2", PointsEarned: 15})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Equal(t, models.StatusDone, c.Status)

	points, err := repo.Points(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 25, points)

	history, err := repo.Completions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "mission-2", history[0].MissionID)

	active, err = repo.Active(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestDailyMissionsCachedPerDate(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	repo := NewMissionRepository(store)

	draws := 0
	draw := func() []string {
		draws++
		return []string{"a", "b", "c"}
	}

	d, err := repo.DailyFor(ctx, "u1", "2025-06-18", draw)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, d.MissionIDs)

	_, err = repo.DailyFor(ctx, "u1", "2025-06-18", draw)
	require.NoError(t, err)
	assert.Equal(t, 1, draws)

	d, err = repo.DailyFor(ctx, "u1", "2025-06-19", draw)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-19", d.Date)
	assert.Equal(t, 2, draws)
}

func TestBadgeAwardOnce(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	repo := NewBadgeRepository(store)

	require.NoError(t, repo.SetProgress(ctx, "u1", "badge-1", 2))
	badges, err := repo.All(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Zero(t, badges[0].UnlockedAt)

	awarded, err := repo.Award(ctx, "u1", "badge-1", 5)
	require.NoError(t, err)
	assert.True(t, awarded, "in-progress badge must still unlock")

	awarded, err = repo.Award(ctx, "u1", "badge-1", 5)
	require.NoError(t, err)
	assert.False(t, awarded)

	require.NoError(t, repo.SetProgress(ctx, "u1", "badge-1", 1))
	badges, err = repo.All(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, badges, 1)
	assert.Equal(t, fixedNow.UnixMilli(), badges[0].UnlockedAt)
	assert.Equal(t, 5, *badges[0].Progress)
}

func TestActivityCap(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	repo := NewActivityRepository(store, 3)

	for i := 0; i < 5; i++ {
		_, err := repo.Add(ctx, models.Activity{UserID: "u1", Type: models.ActivityEmotionRecord, Title: string(rune('a' + i))})
		require.NoError(t, err)
	}

	all, err := repo.All(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "e", all[0].Title)
	assert.Equal(t, "c", all[2].Title)
}

func TestFeedbackStatusAndSamples(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	repo := NewFeedbackRepository(store, 2)

	item, err := repo.Save(ctx, "u1", models.FeedbackItem{ConversationID: "c1", MessageID: "m1", Rating: models.RatingPositive})
	require.NoError(t, err)

	has, err := repo.HasFeedback(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.True(t, has)
	has, err = repo.HasFeedback(ctx, "u1", "c2")
	require.NoError(t, err)
	assert.False(t, has)

	byConv, err := repo.ByConversation(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, []models.FeedbackItem{item}, byConv)

	for _, ms := range []int64{100, 200, 300} {
		require.NoError(t, repo.RecordResponseTime(ctx, "u1", models.ResponseTime{ConversationID: "c1", ResponseTimeMs: ms}))
	}
	samples, err := repo.ResponseTimes(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, int64(200), samples[0].ResponseTimeMs)
}

func TestFeedbackDeleteClearsStatus(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	repo := NewFeedbackRepository(store, 10)

	first, err := repo.Save(ctx, "u1", models.FeedbackItem{ConversationID: "c1", MessageID: "m1", Rating: models.RatingPositive})
	require.NoError(t, err)
	second, err := repo.Save(ctx, "u1", models.FeedbackItem{ConversationID: "c1", MessageID: "m2", Rating: models.RatingNegative})
	require.NoError(t, err)

	ok, err := repo.Delete(ctx, "u1", first.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	has, err := repo.HasFeedback(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.True(t, has, "one item still rates the conversation")

	ok, err = repo.Delete(ctx, "u1", second.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	has, err = repo.HasFeedback(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.False(t, has)

	ok, err = repo.Delete(ctx, "u1", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProfileDefaultsAndRegistry(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	profiles := NewProfileRepository(store)

	p, err := profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.NotNil(t, p.RecentEmotions)

	p, err = profiles.Update(ctx, "u1", func(p *models.Profile) {
		p.JobRole = "개발자"
		p.AddEmotion("분노")
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"분노"}, p.RecentEmotions)

	require.NoError(t, profiles.Reset(ctx, "u1"))
	p, err = profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, p.JobRole)

	users := NewUserRegistry(store)
	require.NoError(t, users.Register(ctx, "u1"))
	require.NoError(t, users.Register(ctx, "u1"))
	require.NoError(t, users.Register(ctx, "u2"))
	ids, err := users.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, ids)
}

func TestRecoveryNoteUpdate(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	repo := NewRecoveryNoteRepository(store)

	note, err := repo.Create(ctx, "u1", models.RecoveryNote{Title: "산책", Content: "좋았다", Mood: "평온"})
	require.NoError(t, err)
	assert.NotNil(t, note.Tags)

	updated, err := repo.Update(ctx, "u1", note.ID, func(n *models.RecoveryNote) { n.Mood = "기쁨" })
	require.NoError(t, err)
	assert.Equal(t, "기쁨", updated.Mood)
	assert.Equal(t, "산책", updated.Title)

	_, err = repo.Update(ctx, "u1", "missing", func(n *models.RecoveryNote) {})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTablesOverRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewStore(kv.NewRedis(client), testPrefix, logger.Discard())
	repo := NewMissionRepository(store)

	_, _, err := repo.Complete(ctx, "u1", models.MissionCompletion{MissionID: "m", PointsEarned: 10})
	require.NoError(t, err)
	points, err := repo.Points(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, points)

	assert.True(t, mr.Exists(testPrefix+"users:u1:recovery_points"))
}
