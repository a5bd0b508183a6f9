package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maeum-toegeun/backend/internal/models"
)

func completionAt(t time.Time) models.MissionCompletion {
	return models.MissionCompletion{MissionID: "mission-1", Timestamp: t.UnixMilli(), PointsEarned: 10}
}

func TestStreak(t *testing.T) {
	day := func(offset int) time.Time { return fixedNow.AddDate(0, 0, -offset) }

	tests := []struct {
		name        string
		completions []models.MissionCompletion
		want        int
	}{
		{name: "empty", want: 0},
		{name: "today only", completions: []models.MissionCompletion{completionAt(day(0))}, want: 1},
		{
			name:        "today missing does not break",
			completions: []models.MissionCompletion{completionAt(day(1)), completionAt(day(2))},
			want:        2,
		},
		{
			name:        "gap breaks",
			completions: []models.MissionCompletion{completionAt(day(0)), completionAt(day(1)), completionAt(day(3))},
			want:        2,
		},
		{
			name:        "two on one day count once",
			completions: []models.MissionCompletion{completionAt(day(0)), completionAt(day(0).Add(-time.Hour))},
			want:        1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Streak(tt.completions, fixedNow))
		})
	}

	var month []models.MissionCompletion
	for i := 0; i < 40; i++ {
		month = append(month, completionAt(day(i)))
	}
	assert.Equal(t, 30, Streak(month, fixedNow), "scan stops after thirty days")
}

func TestMissionStats(t *testing.T) {
	assert.Equal(t, models.MissionStats{}, MissionStats(nil, fixedNow))

	completions := []models.MissionCompletion{
		completionAt(fixedNow),
		completionAt(fixedNow.AddDate(0, 0, -1)),
		completionAt(fixedNow.AddDate(0, 0, -1).Add(-time.Hour)),
		completionAt(fixedNow.AddDate(0, 0, -10)),
	}
	stats := MissionStats(completions, fixedNow)
	assert.Equal(t, 4, stats.TotalCompleted)
	assert.Equal(t, 40, stats.TotalPoints)
	assert.Equal(t, 29, stats.CompletionRate, "two distinct days of seven")
	assert.Equal(t, 2, stats.Streak)
}

func TestDailyMissionsAreCachedPerDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.missions.Daily(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, first, 3)

	again, err := f.missions.Daily(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	active, err := f.missions.Active(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first, active, "a fresh draw is put on the active list")

	f.setNow(fixedNow.AddDate(0, 0, 1))
	next, err := f.missions.Daily(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, next, 3)
}

func TestCompleteMission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.missions.Start(ctx, "u1", "mission-1")
	require.NoError(t, err)

	res, err := f.missions.Complete(ctx, "u1", "mission-1", models.CompleteMissionRequest{Reflection: "좋았다"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, res.Completion.Status)
	assert.Equal(t, 10, res.Completion.PointsEarned)
	assert.Equal(t, 10, res.TotalPoints)
	assert.Equal(t, 1, res.Level.Level)
	assert.False(t, res.LeveledUp)

	ids := make([]string, 0, len(res.NewBadges))
	for _, b := range res.NewBadges {
		ids = append(ids, b.ID)
	}
	assert.Contains(t, ids, "mission-starter")

	active, err := f.missions.Active(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, active)

	failed, err := f.missions.Complete(ctx, "u1", "mission-2", models.CompleteMissionRequest{Status: models.StatusFailed})
	require.NoError(t, err)
	assert.Equal(t, 7, failed.Completion.PointsEarned, "half of 15, rounded down")

	assert.Contains(t, f.publisher.types(), models.ActivityMissionComplete)
	assert.Contains(t, f.publisher.types(), models.ActivityBadgeEarn)

	_, err = f.missions.Complete(ctx, "u1", "nope", models.CompleteMissionRequest{})
	assertStatus(t, err, http.StatusNotFound)

	_, err = f.missions.Complete(ctx, "u1", "mission-1", models.CompleteMissionRequest{Status: "뭔가"})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestCompleteMissionLevelUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.missionRepo.AddPoints(ctx, "u1", 95)
	require.NoError(t, err)

	res, err := f.missions.Complete(ctx, "u1", "mission-1", models.CompleteMissionRequest{})
	require.NoError(t, err)
	assert.True(t, res.LeveledUp)
	assert.Equal(t, 2, res.Level.Level)
	assert.Contains(t, f.publisher.types(), models.ActivityLevelUp)
}

func TestMissionCatalogFilters(t *testing.T) {
	f := newFixture(t)

	all := f.missions.Catalog("", "")
	assert.Len(t, all, len(f.catalog.Missions()))

	for _, m := range f.missions.Catalog(models.MissionMindfulness, "") {
		assert.Equal(t, models.MissionMindfulness, m.Category)
	}
	assert.Len(t, f.missions.Recommended(0), 3)
	assert.Len(t, f.missions.Recommended(5), 5)
}
