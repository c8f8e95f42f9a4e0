package task

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
)

// Status is the workflow state of a task
type Status string

const (
	StatusToDo       Status = "TO_DO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// IsValid reports whether the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority is the importance of a task
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// IsValid reports whether the priority is known
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

const (
	maxTitleLength       = 255
	maxDescriptionLength = 2000
)

// AggregateTypeTask is the aggregate type for task events
const AggregateTypeTask = "Task"

// Task is a unit of work. Tasks form a tree at most two levels deep:
// a root task may have subtasks, a subtask may not.
type Task struct {
	shared.BaseAggregateRoot
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
	ParentID    *uuid.UUID
	CategoryID  *uuid.UUID
	OwnerID     uuid.UUID
	CompletedAt *time.Time
	Notified    bool

	CalendarEventID string
	CalendarID      string
	LastSyncedAt    *time.Time
}

// NewTask creates a task owned by ownerID
func NewTask(ownerID uuid.UUID, title, description string, status Status, priority Priority) (*Task, error) {
	if status == "" {
		status = StatusToDo
	}
	if priority == "" {
		priority = PriorityMedium
	}
	t := &Task{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerID:           ownerID,
		Status:            StatusToDo,
	}
	if err := t.SetDetails(title, description); err != nil {
		return nil, err
	}
	if err := t.SetPriority(priority); err != nil {
		return nil, err
	}
	if err := t.SetStatus(status, t.CreatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

// SetDetails changes title and description
func (t *Task) SetDetails(title, description string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 255 characters")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 2000 characters")
	}
	t.Title = title
	t.Description = description
	t.Touch()
	return nil
}

// SetPriority changes the priority
func (t *Task) SetPriority(p Priority) error {
	if !p.IsValid() {
		return shared.NewDomainError("INVALID_PRIORITY", "Priority must be LOW, MEDIUM or HIGH")
	}
	t.Priority = p
	t.Touch()
	return nil
}

// SetStatus changes the status and maintains CompletedAt
func (t *Task) SetStatus(s Status, now time.Time) error {
	if !s.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Status must be TO_DO, IN_PROGRESS or DONE")
	}
	switch {
	case s == StatusDone && t.Status != StatusDone:
		completed := now
		t.CompletedAt = &completed
	case s != StatusDone:
		t.CompletedAt = nil
	}
	t.Status = s
	t.Touch()
	return nil
}

// TransitionStatus is SetStatus with the overdue rule: once the due date has
// passed, the only allowed move is to DONE.
func (t *Task) TransitionStatus(s Status, now time.Time) error {
	if s != t.Status && s != StatusDone && t.IsOverdue(now) {
		return ErrOverdueStatusLocked
	}
	return t.SetStatus(s, now)
}

// IsOverdue reports whether the due date passed before the task was done
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusDone
}

// ChangeDueDate sets or clears the due date. A new date must not be in the
// past and must not be later than the parent's due date. Changing the date
// re-arms the deadline reminder.
func (t *Task) ChangeDueDate(due *time.Time, parent *Task, now time.Time) error {
	if sameInstant(t.DueDate, due) {
		return nil
	}
	if due != nil {
		if due.Before(now) {
			return ErrDueDateInPast
		}
		if parent != nil && parent.DueDate != nil && due.After(*parent.DueDate) {
			return ErrSubtaskDueAfterParent
		}
		d := due.UTC()
		due = &d
	}
	t.DueDate = due
	t.Notified = false
	t.Touch()
	return nil
}

// CheckSubtaskDeadlines rejects a parent due date earlier than any subtask's
func (t *Task) CheckSubtaskDeadlines(subtasks []*Task) error {
	if t.DueDate == nil {
		return nil
	}
	for _, sub := range subtasks {
		if sub.DueDate != nil && sub.DueDate.After(*t.DueDate) {
			return ErrSubtaskDueAfterParent
		}
	}
	return nil
}

// AttachToParent makes t a subtask of parent, or a root task when parent is
// nil. The subtask inherits the parent's category.
func (t *Task) AttachToParent(parent *Task, hasSubtasks bool) error {
	if parent == nil {
		t.ParentID = nil
		t.Touch()
		return nil
	}
	if parent.ID == t.ID {
		return ErrInvalidParent
	}
	if parent.ParentID != nil || hasSubtasks {
		return ErrNestingTooDeep
	}
	if t.DueDate != nil && parent.DueDate != nil && t.DueDate.After(*parent.DueDate) {
		return ErrSubtaskDueAfterParent
	}
	parentID := parent.ID
	t.ParentID = &parentID
	t.CategoryID = parent.CategoryID
	t.Touch()
	return nil
}

// SetCategory changes the category reference
func (t *Task) SetCategory(categoryID *uuid.UUID) {
	t.CategoryID = categoryID
	t.Touch()
}

// IsRoot reports whether the task has no parent
func (t *Task) IsRoot() bool {
	return t.ParentID == nil
}

// MarkNotified records that the deadline reminder went out
func (t *Task) MarkNotified() {
	t.Notified = true
}

// LinkCalendarEvent records the external event the task was pushed to
func (t *Task) LinkCalendarEvent(calendarID, eventID string, now time.Time) {
	t.CalendarID = calendarID
	t.CalendarEventID = eventID
	synced := now
	t.LastSyncedAt = &synced
}

// UnlinkCalendarEvent drops the external event reference
func (t *Task) UnlinkCalendarEvent() {
	t.CalendarID = ""
	t.CalendarEventID = ""
	t.LastSyncedAt = nil
}

// Snapshot captures the fields other components react to
func (t *Task) Snapshot() Snapshot {
	return Snapshot{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     copyTime(t.DueDate),
		ParentID:    copyUUID(t.ParentID),
		CategoryID:  copyUUID(t.CategoryID),
		OwnerID:     t.OwnerID,
		CreatedAt:   t.CreatedAt,
		CompletedAt: copyTime(t.CompletedAt),
	}
}

// Snapshot is an immutable copy of a task's state
type Snapshot struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ParentID    *uuid.UUID `json:"parent_task_id,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsRoot reports whether the snapshot is of a root task
func (s Snapshot) IsRoot() bool {
	return s.ParentID == nil
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
