package task

import (
	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
)

// Task domain event types
const (
	EventTypeTaskCreated   = "task.created"
	EventTypeTaskUpdated   = "task.updated"
	EventTypeTaskDeleted   = "task.deleted"
	EventTypeAccessChanged = "task.access_changed"
	EventTypeAccessRemoved = "task.access_removed"
)

// TaskCreatedEvent is published after a task is stored
type TaskCreatedEvent struct {
	shared.BaseDomainEvent
	Task    Snapshot  `json:"task"`
	ActorID uuid.UUID `json:"actor_id"`
}

// NewTaskCreatedEvent creates a TaskCreatedEvent
func NewTaskCreatedEvent(t *Task, actorID uuid.UUID) *TaskCreatedEvent {
	return &TaskCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTaskCreated, AggregateTypeTask, t.ID),
		Task:            t.Snapshot(),
		ActorID:         actorID,
	}
}

// TaskUpdatedEvent carries the task state before and after a change
type TaskUpdatedEvent struct {
	shared.BaseDomainEvent
	Before  Snapshot  `json:"before"`
	After   Snapshot  `json:"after"`
	ActorID uuid.UUID `json:"actor_id"`
}

// NewTaskUpdatedEvent creates a TaskUpdatedEvent
func NewTaskUpdatedEvent(before Snapshot, t *Task, actorID uuid.UUID) *TaskUpdatedEvent {
	return &TaskUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTaskUpdated, AggregateTypeTask, t.ID),
		Before:          before,
		After:           t.Snapshot(),
		ActorID:         actorID,
	}
}

// CompletedNow reports a transition into DONE
func (e *TaskUpdatedEvent) CompletedNow() bool {
	return e.Before.Status != StatusDone && e.After.Status == StatusDone
}

// RevertedNow reports a transition out of DONE
func (e *TaskUpdatedEvent) RevertedNow() bool {
	return e.Before.Status == StatusDone && e.After.Status != StatusDone
}

// TaskDeletedEvent is published after a task and its subtasks are removed
type TaskDeletedEvent struct {
	shared.BaseDomainEvent
	TaskID     uuid.UUID   `json:"task_id"`
	SubtaskIDs []uuid.UUID `json:"subtask_ids"`
	ActorID    uuid.UUID   `json:"actor_id"`
	// UserIDs held access to the task before deletion
	UserIDs []uuid.UUID `json:"user_ids"`
}

// NewTaskDeletedEvent creates a TaskDeletedEvent
func NewTaskDeletedEvent(t *Task, subtaskIDs, userIDs []uuid.UUID, actorID uuid.UUID) *TaskDeletedEvent {
	return &TaskDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTaskDeleted, AggregateTypeTask, t.ID),
		TaskID:          t.ID,
		SubtaskIDs:      subtaskIDs,
		ActorID:         actorID,
		UserIDs:         userIDs,
	}
}

// AccessChangedEvent is published when a grant moves between EDIT and VIEW
type AccessChangedEvent struct {
	shared.BaseDomainEvent
	AccessID  uuid.UUID   `json:"access_id"`
	TaskID    uuid.UUID   `json:"task_id"`
	TaskTitle string      `json:"task_title"`
	UserID    uuid.UUID   `json:"user_id"`
	Level     AccessLevel `json:"access_level"`
}

// NewAccessChangedEvent creates an AccessChangedEvent
func NewAccessChangedEvent(a *TaskAccess, t *Task) *AccessChangedEvent {
	return &AccessChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccessChanged, AggregateTypeTask, t.ID),
		AccessID:        a.ID,
		TaskID:          t.ID,
		TaskTitle:       t.Title,
		UserID:          a.UserID,
		Level:           a.Level,
	}
}

// AccessRemovedEvent is published once when a grant is revoked
type AccessRemovedEvent struct {
	shared.BaseDomainEvent
	AccessID  uuid.UUID `json:"access_id"`
	TaskID    uuid.UUID `json:"task_id"`
	TaskTitle string    `json:"task_title"`
	UserID    uuid.UUID `json:"user_id"`
}

// NewAccessRemovedEvent creates an AccessRemovedEvent
func NewAccessRemovedEvent(a *TaskAccess, t *Task) *AccessRemovedEvent {
	return &AccessRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccessRemoved, AggregateTypeTask, t.ID),
		AccessID:        a.ID,
		TaskID:          t.ID,
		TaskTitle:       t.Title,
		UserID:          a.UserID,
	}
}
