package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maeum-toegeun/backend/internal/models"
)

func badgeState(t *testing.T, f *fixture, userID, badgeID string) models.BadgeProgress {
	t.Helper()
	all, err := f.achievements.UserBadges(context.Background(), userID)
	require.NoError(t, err)
	for _, b := range all {
		if b.Badge.ID == badgeID {
			return b
		}
	}
	t.Fatalf("badge %s not in catalog", badgeID)
	return models.BadgeProgress{}
}

func TestCategoryBadgeCountsRealCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	mindful := f.catalog.MissionsByCategory(models.MissionMindfulness)
	physical := f.catalog.MissionsByCategory(models.MissionPhysical)
	require.NotEmpty(t, mindful)
	require.NotEmpty(t, physical)

	for i := 0; i < 5; i++ {
		_, _, err := f.missionRepo.Complete(ctx, "u1", models.MissionCompletion{MissionID: physical[0].ID, PointsEarned: 1})
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, _, err := f.missionRepo.Complete(ctx, "u1", models.MissionCompletion{MissionID: mindful[0].ID, PointsEarned: 1})
		require.NoError(t, err)
	}

	awarded, err := f.achievements.CheckAndAward(ctx, "u1")
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, b := range awarded {
		ids[b.ID] = true
	}
	assert.True(t, ids["physical-beginner"])
	assert.False(t, ids["mindfulness-beginner"])

	mindfulState := badgeState(t, f, "u1", "mindfulness-beginner")
	assert.False(t, mindfulState.Unlocked)
	assert.Equal(t, 40, mindfulState.Progress)

	explorer := badgeState(t, f, "u1", "mission-explorer")
	assert.Equal(t, 70, explorer.Progress, "7 of 10")
}

func TestCheckAndAwardSkipsUnlocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, _, err := f.missionRepo.Complete(ctx, "u1", models.MissionCompletion{MissionID: "mission-1", PointsEarned: 10})
	require.NoError(t, err)

	first, err := f.achievements.CheckAndAward(ctx, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := f.achievements.CheckAndAward(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, second)

	starter := badgeState(t, f, "u1", "mission-starter")
	assert.True(t, starter.Unlocked)
	assert.Equal(t, fixedNow.UnixMilli(), starter.UnlockedAt)
	assert.Equal(t, 100, starter.Progress)

	special := badgeState(t, f, "u1", "early-adopter")
	assert.False(t, special.Unlocked, "unknown criteria never unlock")
}

func TestLevelInfo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.missionRepo.AddPoints(ctx, "u1", 150)
	require.NoError(t, err)

	info, err := f.achievements.LevelInfo(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 150, info.Points)
	assert.Equal(t, 2, info.Current.Level)
	require.NotNil(t, info.Next)
	assert.Equal(t, 3, info.Next.Level)
	assert.Equal(t, 150, info.PointsToNextLevel)
	assert.Equal(t, 25, info.Progress)
}
