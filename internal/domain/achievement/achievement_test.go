package achievement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/domain/task"
)

func TestUserAchievement_Apply(t *testing.T) {
	a, err := NewAchievement(CodeNewbie, "Newbie", "Complete tasks", 2)
	require.NoError(t, err)
	now := time.Now()

	t.Run("completes once at target", func(t *testing.T) {
		ua := NewUserAchievement(uuid.New(), a)

		assert.False(t, ua.Apply(1, a.TargetValue, now))
		assert.True(t, ua.Apply(1, a.TargetValue, now))
		assert.True(t, ua.Completed)
		require.NotNil(t, ua.CompletedAt)
		assert.Equal(t, 2, ua.Progress)
	})

	t.Run("idempotent after completion", func(t *testing.T) {
		ua := NewUserAchievement(uuid.New(), a)
		ua.Apply(1, a.TargetValue, now)
		ua.Apply(1, a.TargetValue, now)

		for i := 0; i < 3; i++ {
			assert.False(t, ua.Apply(1, a.TargetValue, now))
			assert.False(t, ua.Apply(-1, a.TargetValue, now))
		}
		assert.True(t, ua.Completed)
		assert.Equal(t, 2, ua.Progress)
	})

	t.Run("progress floors at zero", func(t *testing.T) {
		ua := NewUserAchievement(uuid.New(), a)

		ua.Apply(-1, a.TargetValue, now)

		assert.Equal(t, 0, ua.Progress)
		assert.False(t, ua.Completed)
	})

	t.Run("target already exceeded completes", func(t *testing.T) {
		ua := NewUserAchievement(uuid.New(), a)
		ua.Progress = 5

		assert.True(t, ua.Apply(1, a.TargetValue, now))
	})
}

func TestNewAchievement(t *testing.T) {
	_, err := NewAchievement(CodePlanner, "Planner", "", 0)
	assert.Error(t, err)

	a, err := NewAchievement(" planner ", "Planner", "", 3)
	require.NoError(t, err)
	assert.Equal(t, CodePlanner, a.Code)
}

func snapshot(status task.Status, priority task.Priority) task.Snapshot {
	return task.Snapshot{
		ID:        uuid.New(),
		Status:    status,
		Priority:  priority,
		CreatedAt: time.Now().Add(-10 * time.Minute),
	}
}

func TestRules(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	cat := uuid.New()
	parent := uuid.New()

	todo := snapshot(task.StatusToDo, task.PriorityMedium)
	done := todo
	done.Status = task.StatusDone

	dated := func(s task.Snapshot) task.Snapshot { s.DueDate = &future; return s }
	sub := func(s task.Snapshot) task.Snapshot { s.ParentID = &parent; return s }

	tests := []struct {
		name   string
		code   Code
		change TaskChange
		want   int
	}{
		{"newbie completion", CodeNewbie, TaskChange{Action: ActionUpdate, Before: &todo, After: done, Now: now}, 1},
		{"newbie revert", CodeNewbie, TaskChange{Action: ActionUpdate, Before: &done, After: todo, Now: now}, -1},
		{"newbie ignores subtasks", CodeNewbie, TaskChange{Action: ActionUpdate, Before: ptr(sub(todo)), After: sub(done), Now: now}, 0},
		{"deadline master before due", CodeDeadlineMaster, TaskChange{Action: ActionUpdate, Before: ptr(dated(todo)), After: dated(done), Now: now}, 1},
		{"deadline master without due", CodeDeadlineMaster, TaskChange{Action: ActionUpdate, Before: &todo, After: done, Now: now}, 0},
		{"sprinter within hour", CodeSprinter, TaskChange{Action: ActionUpdate, Before: &todo, After: done, Now: now}, 1},
		{"sprinter late", CodeSprinter, TaskChange{Action: ActionUpdate, Before: &todo, After: done, Now: now.Add(2 * time.Hour)}, 0},
		{"planner create with date", CodePlanner, TaskChange{Action: ActionCreate, After: dated(todo), Now: now}, 1},
		{"planner create without date", CodePlanner, TaskChange{Action: ActionCreate, After: todo, Now: now}, 0},
		{"categorizer", CodeCategorizer, TaskChange{Action: ActionCreate, After: func() task.Snapshot { s := todo; s.CategoryID = &cat; return s }(), Now: now}, 1},
		{"priority guru create high", CodePriorityGuru, TaskChange{Action: ActionCreate, After: snapshot(task.StatusToDo, task.PriorityHigh), Now: now}, 1},
		{"priority guru raised", CodePriorityGuru, TaskChange{Action: ActionUpdate, Before: &todo, After: snapshot(task.StatusToDo, task.PriorityHigh), Now: now}, 1},
		{"priority guru lowered", CodePriorityGuru, TaskChange{Action: ActionUpdate, Before: ptr(snapshot(task.StatusToDo, task.PriorityHigh)), After: todo, Now: now}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := RuleFor(tt.code)
			require.NotNil(t, rule)
			assert.Equal(t, tt.want, rule(tt.change))
		})
	}

	assert.Nil(t, RuleFor(Code("UNKNOWN")))
}

func ptr(s task.Snapshot) *task.Snapshot { return &s }
