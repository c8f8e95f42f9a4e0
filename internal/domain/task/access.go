package task

import (
	"time"

	"github.com/google/uuid"
)

// AccessLevel is a user's permission on a task
type AccessLevel string

const (
	AccessOwner AccessLevel = "OWNER"
	AccessEdit  AccessLevel = "EDIT"
	AccessView  AccessLevel = "VIEW"
)

// IsValid reports whether the level is known
func (l AccessLevel) IsValid() bool {
	switch l {
	case AccessOwner, AccessEdit, AccessView:
		return true
	}
	return false
}

// CanEdit reports whether the level allows modifying the task
func (l AccessLevel) CanEdit() bool {
	return l == AccessOwner || l == AccessEdit
}

// IsGrantable reports whether the level can be handed to another user
func (l AccessLevel) IsGrantable() bool {
	return l == AccessEdit || l == AccessView
}

// TaskAccess grants one user a level on one task. Every task has exactly
// one OWNER grant, belonging to its owner.
type TaskAccess struct {
	ID        uuid.UUID
	TaskID    uuid.UUID
	UserID    uuid.UUID
	Level     AccessLevel
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOwnerAccess creates the OWNER grant for a new task
func NewOwnerAccess(taskID, ownerID uuid.UUID) *TaskAccess {
	now := time.Now().UTC()
	return &TaskAccess{
		ID:        uuid.New(),
		TaskID:    taskID,
		UserID:    ownerID,
		Level:     AccessOwner,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTaskAccess creates an EDIT or VIEW grant
func NewTaskAccess(taskID, userID uuid.UUID, level AccessLevel) (*TaskAccess, error) {
	if !level.IsGrantable() {
		return nil, ErrInvalidAccessLevel
	}
	now := time.Now().UTC()
	return &TaskAccess{
		ID:        uuid.New(),
		TaskID:    taskID,
		UserID:    userID,
		Level:     level,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ChangeLevel moves a non-owner grant between EDIT and VIEW
func (a *TaskAccess) ChangeLevel(level AccessLevel) error {
	if a.Level == AccessOwner {
		return ErrOwnerAccessImmutable
	}
	if !level.IsGrantable() {
		return ErrInvalidAccessLevel
	}
	a.Level = level
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// IsOwner reports whether this is the owner grant
func (a *TaskAccess) IsOwner() bool {
	return a.Level == AccessOwner
}
