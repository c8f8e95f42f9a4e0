package task

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrTime(t time.Time) *time.Time { return &t }

func newTestTask(t *testing.T) *Task {
	t.Helper()
	tk, err := NewTask(uuid.New(), "Write report", "", "", "")
	require.NoError(t, err)
	return tk
}

func TestNewTask(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		tk := newTestTask(t)

		assert.Equal(t, StatusToDo, tk.Status)
		assert.Equal(t, PriorityMedium, tk.Priority)
		assert.Nil(t, tk.CompletedAt)
		assert.True(t, tk.IsRoot())
	})

	t.Run("created as done sets completed at", func(t *testing.T) {
		tk, err := NewTask(uuid.New(), "Done already", "", StatusDone, PriorityHigh)

		require.NoError(t, err)
		require.NotNil(t, tk.CompletedAt)
	})

	t.Run("rejects blank title", func(t *testing.T) {
		_, err := NewTask(uuid.New(), "   ", "", "", "")

		assert.Error(t, err)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := NewTask(uuid.New(), "x", "", Status("LATER"), "")

		assert.Error(t, err)
	})

	t.Run("counts title and description in characters", func(t *testing.T) {
		title := strings.Repeat("ж", maxTitleLength)
		description := strings.Repeat("ж", maxDescriptionLength)

		tk, err := NewTask(uuid.New(), title, description, "", "")
		require.NoError(t, err)
		assert.Equal(t, title, tk.Title)

		_, err = NewTask(uuid.New(), title+"ж", "", "", "")
		assert.Error(t, err)
		_, err = NewTask(uuid.New(), "x", description+"ж", "", "")
		assert.Error(t, err)
	})
}

func TestTask_SetStatus(t *testing.T) {
	tk := newTestTask(t)
	now := time.Now()

	require.NoError(t, tk.SetStatus(StatusDone, now))
	require.NotNil(t, tk.CompletedAt)
	assert.True(t, tk.CompletedAt.Equal(now))

	require.NoError(t, tk.SetStatus(StatusDone, now.Add(time.Hour)))
	assert.True(t, tk.CompletedAt.Equal(now), "re-setting DONE keeps the first completion time")

	require.NoError(t, tk.SetStatus(StatusInProgress, now))
	assert.Nil(t, tk.CompletedAt)
}

func TestTask_TransitionStatus(t *testing.T) {
	now := time.Now()

	t.Run("overdue task may only move to done", func(t *testing.T) {
		tk := newTestTask(t)
		tk.DueDate = ptrTime(now.Add(-time.Hour))

		err := tk.TransitionStatus(StatusInProgress, now)
		assert.ErrorIs(t, err, ErrOverdueStatusLocked)

		assert.NoError(t, tk.TransitionStatus(StatusDone, now))
		assert.Equal(t, StatusDone, tk.Status)
	})

	t.Run("task with future deadline moves freely", func(t *testing.T) {
		tk := newTestTask(t)
		tk.DueDate = ptrTime(now.Add(time.Hour))

		assert.NoError(t, tk.TransitionStatus(StatusInProgress, now))
	})
}

func TestTask_ChangeDueDate(t *testing.T) {
	now := time.Now()

	t.Run("rejects past date", func(t *testing.T) {
		tk := newTestTask(t)

		err := tk.ChangeDueDate(ptrTime(now.Add(-time.Minute)), nil, now)
		assert.ErrorIs(t, err, ErrDueDateInPast)
		assert.Nil(t, tk.DueDate)
	})

	t.Run("subtask cannot be due after parent", func(t *testing.T) {
		parent := newTestTask(t)
		parent.DueDate = ptrTime(time.Date(2099, 1, 10, 0, 0, 0, 0, time.UTC))
		sub := newTestTask(t)
		require.NoError(t, sub.AttachToParent(parent, false))

		err := sub.ChangeDueDate(ptrTime(time.Date(2099, 1, 15, 0, 0, 0, 0, time.UTC)), parent, now)
		assert.ErrorIs(t, err, ErrSubtaskDueAfterParent)

		err = sub.ChangeDueDate(ptrTime(time.Date(2099, 1, 9, 0, 0, 0, 0, time.UTC)), parent, now)
		assert.NoError(t, err)
	})

	t.Run("change re-arms reminder", func(t *testing.T) {
		tk := newTestTask(t)
		tk.MarkNotified()

		require.NoError(t, tk.ChangeDueDate(ptrTime(now.Add(2*time.Hour)), nil, now))
		assert.False(t, tk.Notified)
	})

	t.Run("unchanged past date is accepted", func(t *testing.T) {
		tk := newTestTask(t)
		past := now.Add(-time.Hour)
		tk.DueDate = ptrTime(past)
		tk.MarkNotified()

		assert.NoError(t, tk.ChangeDueDate(ptrTime(past), nil, now))
		assert.True(t, tk.Notified)
	})

	t.Run("clearing is allowed", func(t *testing.T) {
		tk := newTestTask(t)
		tk.DueDate = ptrTime(now.Add(time.Hour))

		require.NoError(t, tk.ChangeDueDate(nil, nil, now))
		assert.Nil(t, tk.DueDate)
	})
}

func TestTask_AttachToParent(t *testing.T) {
	t.Run("inherits parent category", func(t *testing.T) {
		parent := newTestTask(t)
		cat := uuid.New()
		parent.CategoryID = &cat
		sub := newTestTask(t)

		require.NoError(t, sub.AttachToParent(parent, false))
		require.NotNil(t, sub.ParentID)
		assert.Equal(t, parent.ID, *sub.ParentID)
		assert.Equal(t, &cat, sub.CategoryID)
	})

	t.Run("rejects third level", func(t *testing.T) {
		root := newTestTask(t)
		mid := newTestTask(t)
		require.NoError(t, mid.AttachToParent(root, false))
		leaf := newTestTask(t)

		assert.ErrorIs(t, leaf.AttachToParent(mid, false), ErrNestingTooDeep)
	})

	t.Run("rejects moving a parent under another task", func(t *testing.T) {
		a := newTestTask(t)
		b := newTestTask(t)

		assert.ErrorIs(t, a.AttachToParent(b, true), ErrNestingTooDeep)
	})

	t.Run("rejects self", func(t *testing.T) {
		a := newTestTask(t)

		assert.ErrorIs(t, a.AttachToParent(a, false), ErrInvalidParent)
	})
}

func TestTask_CheckSubtaskDeadlines(t *testing.T) {
	parent := newTestTask(t)
	parent.DueDate = ptrTime(time.Date(2099, 1, 10, 0, 0, 0, 0, time.UTC))
	sub := newTestTask(t)
	sub.DueDate = ptrTime(time.Date(2099, 1, 12, 0, 0, 0, 0, time.UTC))

	assert.ErrorIs(t, parent.CheckSubtaskDeadlines([]*Task{sub}), ErrSubtaskDueAfterParent)

	sub.DueDate = ptrTime(time.Date(2099, 1, 8, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, parent.CheckSubtaskDeadlines([]*Task{sub}))
}

func TestTaskAccess(t *testing.T) {
	taskID := uuid.New()

	t.Run("owner grant is immutable", func(t *testing.T) {
		owner := NewOwnerAccess(taskID, uuid.New())

		assert.True(t, owner.IsOwner())
		assert.ErrorIs(t, owner.ChangeLevel(AccessView), ErrOwnerAccessImmutable)
	})

	t.Run("cannot grant owner", func(t *testing.T) {
		_, err := NewTaskAccess(taskID, uuid.New(), AccessOwner)

		assert.ErrorIs(t, err, ErrInvalidAccessLevel)
	})

	t.Run("changes between edit and view", func(t *testing.T) {
		a, err := NewTaskAccess(taskID, uuid.New(), AccessView)
		require.NoError(t, err)

		require.NoError(t, a.ChangeLevel(AccessEdit))
		assert.True(t, a.Level.CanEdit())
	})
}

func TestCategory(t *testing.T) {
	t.Run("defaults color", func(t *testing.T) {
		c, err := NewCategory(uuid.New(), "Work", "")

		require.NoError(t, err)
		assert.Equal(t, DefaultCategoryColor, c.Color)
	})

	t.Run("rejects bad color", func(t *testing.T) {
		_, err := NewCategory(uuid.New(), "Work", "red")

		assert.Error(t, err)
	})

	t.Run("counts name in characters", func(t *testing.T) {
		_, err := NewCategory(uuid.New(), strings.Repeat("р", 100), "")
		require.NoError(t, err)

		_, err = NewCategory(uuid.New(), strings.Repeat("р", 101), "")
		assert.Error(t, err)
	})
}

func TestNewComment(t *testing.T) {
	t.Run("rejects blank content", func(t *testing.T) {
		_, err := NewComment(uuid.New(), uuid.New(), "  ")

		assert.Error(t, err)
	})

	t.Run("counts content in characters", func(t *testing.T) {
		c, err := NewComment(uuid.New(), uuid.New(), strings.Repeat("ё", 2000))
		require.NoError(t, err)
		assert.NotEmpty(t, c.Content)

		_, err = NewComment(uuid.New(), uuid.New(), strings.Repeat("ё", 2001))
		assert.Error(t, err)
	})
}

func TestTaskUpdatedEvent_Transitions(t *testing.T) {
	tk := newTestTask(t)
	before := tk.Snapshot()
	require.NoError(t, tk.SetStatus(StatusDone, time.Now()))

	evt := NewTaskUpdatedEvent(before, tk, tk.OwnerID)
	assert.True(t, evt.CompletedNow())
	assert.False(t, evt.RevertedNow())
	assert.Equal(t, EventTypeTaskUpdated, evt.EventType())
}
