package achievement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foundry/internal/domain"
)

func TestDeriveLockedWithProgress(t *testing.T) {
	defs := []domain.AchievementDefinition{{Key: "A", Title: "Ten Protocols", Threshold: 10}}
	progress := []domain.AchievementProgress{{Key: "A", Current: 4, Threshold: 10}}

	views := Derive(defs, progress, nil)
	require.Len(t, views, 1)
	assert.False(t, views[0].IsUnlocked)
	assert.Equal(t, 40.0, views[0].ProgressPercent)
	assert.Equal(t, 4, views[0].Current)
	assert.Equal(t, "Ten Protocols", views[0].Title)
}

func TestDeriveUnlockedIgnoresProgress(t *testing.T) {
	at := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	defs := []domain.AchievementDefinition{{Key: "A", Threshold: 10}}
	progress := []domain.AchievementProgress{{Key: "A", Current: 4, Threshold: 10}}
	unlocked := []domain.Achievement{{ID: 1, AchievementKey: "A", UnlockedAt: at}}

	views := Derive(defs, progress, unlocked)
	require.Len(t, views, 1)
	assert.True(t, views[0].IsUnlocked)
	assert.Equal(t, 100.0, views[0].ProgressPercent)
	assert.Equal(t, at, views[0].UnlockedAt)
}

func TestDeriveClampsProgress(t *testing.T) {
	defs := []domain.AchievementDefinition{{Key: "A", Threshold: 10}}
	views := Derive(defs, []domain.AchievementProgress{{Key: "A", Current: 15, Threshold: 10}}, nil)
	assert.Equal(t, 100.0, views[0].ProgressPercent)
	assert.False(t, views[0].IsUnlocked, "a full counter is not an unlock record")

	views = Derive(defs, []domain.AchievementProgress{{Key: "A", Current: -3, Threshold: 10}}, nil)
	assert.Equal(t, 0.0, views[0].ProgressPercent)
}

func TestDeriveMissingProgressIsZero(t *testing.T) {
	defs := []domain.AchievementDefinition{
		{Key: "first_protocol", Threshold: 1},
		{Key: "streak_7", Threshold: 7},
	}
	views := Derive(defs, nil, nil)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.False(t, v.IsUnlocked)
		assert.Zero(t, v.ProgressPercent)
	}
}

func TestDeriveFallsBackToDefinitionThreshold(t *testing.T) {
	defs := []domain.AchievementDefinition{{Key: "A", Threshold: 4}}
	views := Derive(defs, []domain.AchievementProgress{{Key: "A", Current: 1}}, nil)
	assert.Equal(t, 25.0, views[0].ProgressPercent)
	assert.Equal(t, 4, views[0].Threshold)
}

func TestDeriveKeepsCatalogOrderAndDropsUnknownKeys(t *testing.T) {
	defs := []domain.AchievementDefinition{{Key: "B"}, {Key: "A"}}
	unlocked := []domain.Achievement{{AchievementKey: "A"}, {AchievementKey: "retired"}}

	board := NewBoard(Derive(defs, nil, unlocked))
	require.Len(t, board.Views, 2)
	assert.Equal(t, "B", board.Views[0].Key)
	assert.Equal(t, "A", board.Views[1].Key)
	assert.Equal(t, 1, board.Unlocked)
	assert.Equal(t, 2, board.Total)
}

func TestPercentZeroThreshold(t *testing.T) {
	assert.Zero(t, Percent(5, 0))
	assert.Equal(t, 50.0, Percent(1, 2))
}
