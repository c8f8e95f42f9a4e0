package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/domain/achievement"
)

func TestGormAchievementRepository(t *testing.T) {
	db := newTestDB(t)
	users := NewGormUserRepository(db)
	achievements := NewGormAchievementRepository(db)
	progress := NewGormUserAchievementRepository(db)
	ctx := context.Background()

	early := createTestUser(t, users, "early")

	planner, err := achievement.NewAchievement(achievement.CodePlanner, "Planner", "Create tasks with deadlines", 2)
	require.NoError(t, err)
	require.NoError(t, achievements.Create(ctx, planner))

	newbie, err := achievement.NewAchievement(achievement.CodeNewbie, "Newbie", "Complete a task", 1)
	require.NoError(t, err)
	require.NoError(t, achievements.Create(ctx, newbie))

	t.Run("duplicate code", func(t *testing.T) {
		dup, err := achievement.NewAchievement(achievement.CodePlanner, "Planner 2", "", 1)
		require.NoError(t, err)
		assert.ErrorIs(t, achievements.Create(ctx, dup), achievement.ErrAchievementExists)

		exists, err := achievements.ExistsByCode(ctx, achievement.CodePlanner)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("existing users are seeded on create", func(t *testing.T) {
		rows, err := progress.FindByUser(ctx, early.ID)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Newbie", rows[0].Achievement.Name)
		assert.Equal(t, "Planner", rows[1].Achievement.Name)
		assert.Zero(t, rows[1].Progress)
	})

	t.Run("seeding is idempotent", func(t *testing.T) {
		late := createTestUser(t, users, "late")
		require.NoError(t, progress.SeedForUser(ctx, late.ID))
		require.NoError(t, progress.SeedForUser(ctx, late.ID))

		rows, err := progress.FindByUser(ctx, late.ID)
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("update stores completion", func(t *testing.T) {
		rows, err := progress.FindByUser(ctx, early.ID)
		require.NoError(t, err)
		ua := rows[0]
		require.True(t, ua.Apply(1, ua.Achievement.TargetValue, time.Now().UTC()))
		require.NoError(t, progress.Update(ctx, ua))

		rows, err = progress.FindByUser(ctx, early.ID)
		require.NoError(t, err)
		assert.True(t, rows[0].Completed)
		assert.Equal(t, 1, rows[0].Progress)
		assert.NotNil(t, rows[0].CompletedAt)
	})

	all, err := achievements.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
