package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskFilter selects tasks visible to a user. Visibility is having any
// TaskAccess row, so owners see their tasks through their OWNER grant.
type TaskFilter struct {
	UserID          uuid.UUID
	RootOnly        bool
	Query           string
	Status          *Status
	Priority        *Priority
	CategoryID      *uuid.UUID
	Level           *AccessLevel
	DueFrom         *time.Time // inclusive
	DueTo           *time.Time // exclusive
	NoDueDate       bool
	OnlyNotNotified bool
	SortBy          string // created_at, due_date, priority, title or status
	SortOrder       string // asc or desc
}

// VisibleTask is a task paired with the viewer's access level
type VisibleTask struct {
	Task  *Task
	Level AccessLevel
}

// TaskRepository defines the interface for task persistence
type TaskRepository interface {
	// CreateWithOwner stores the task and its OWNER grant in one transaction
	CreateWithOwner(ctx context.Context, t *Task) error
	Update(ctx context.Context, t *Task) error
	// Delete removes the task; subtasks, grants, comments and invitations cascade
	Delete(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*Task, error)
	FindSubtasks(ctx context.Context, parentID uuid.UUID) ([]*Task, error)
	FindVisible(ctx context.Context, filter TaskFilter) ([]VisibleTask, error)
	CountSubtasks(ctx context.Context, parentIDs []uuid.UUID) (map[uuid.UUID]int, error)

	SetCategoryForSubtasks(ctx context.Context, parentID uuid.UUID, categoryID *uuid.UUID) error

	FindNotNotifiedDueBetween(ctx context.Context, from, to time.Time) ([]*Task, error)
	MarkNotified(ctx context.Context, ids []uuid.UUID) error

	FindOwnedWithDueDate(ctx context.Context, ownerID uuid.UUID) ([]*Task, error)
	FindByCalendarEventIDs(ctx context.Context, ownerID uuid.UUID, eventIDs []string) ([]*Task, error)
	// ClearCalendarLinks unlinks the given events, or every linked task of
	// the owner when eventIDs is nil
	ClearCalendarLinks(ctx context.Context, ownerID uuid.UUID, eventIDs []string) error
}

// AccessRepository defines the interface for task access persistence
type AccessRepository interface {
	Create(ctx context.Context, a *TaskAccess) error
	Update(ctx context.Context, a *TaskAccess) error
	Delete(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*TaskAccess, error)
	FindByTaskAndUser(ctx context.Context, taskID, userID uuid.UUID) (*TaskAccess, error)
	FindByTask(ctx context.Context, taskID uuid.UUID) ([]*TaskAccess, error)

	// FindSharedOwnerIDs returns owners of tasks on which userID holds a non-owner grant
	FindSharedOwnerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	// Delete removes the category and detaches it from its tasks
	Delete(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Category, error)
	// IsVisibleThroughTask reports whether userID has access to a task in the category
	IsVisibleThroughTask(ctx context.Context, categoryID, userID uuid.UUID) (bool, error)
}

// CommentRepository defines the interface for comment persistence
type CommentRepository interface {
	Create(ctx context.Context, c *Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Comment, error)
	// FindByTask returns comments newest first
	FindByTask(ctx context.Context, taskID uuid.UUID) ([]*Comment, error)
}
