package notification

import (
	"context"
	"strings"

	"github.com/google/uuid"
	taskapp "github.com/taskflow/backend/internal/application/task"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
	"go.uber.org/zap"
)

// ErrTopicForbidden is returned when a client subscribes to a topic it may not read
var ErrTopicForbidden = shared.NewDomainError("TOPIC_FORBIDDEN", "Subscription to this topic is not allowed")

// LiveUpdates pushes task changes to the collaborators watching the task
type LiveUpdates struct {
	pusher Pusher
	perms  *taskapp.TaskPermissionService
	logger *zap.Logger
}

// NewLiveUpdates creates a new LiveUpdates handler
func NewLiveUpdates(pusher Pusher, perms *taskapp.TaskPermissionService, logger *zap.Logger) *LiveUpdates {
	return &LiveUpdates{pusher: pusher, perms: perms, logger: logger}
}

// EventTypes implements shared.EventHandler
func (l *LiveUpdates) EventTypes() []string {
	return []string{task.EventTypeTaskUpdated}
}

// Handle sends the new task state to every subscriber except the actor.
// Each recipient gets their own level; subscribers who lost access are skipped.
func (l *LiveUpdates) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*task.TaskUpdatedEvent)
	if !ok {
		return nil
	}

	topic := TaskUpdatesTopic(e.After.ID)
	for _, userID := range l.pusher.TopicSubscribers(topic) {
		if userID == e.ActorID {
			continue
		}
		level, err := l.perms.Level(ctx, userID, e.After.ID)
		if err != nil {
			l.logger.Debug("Skipping live update",
				zap.String("user_id", userID.String()),
				zap.String("task_id", e.After.ID.String()),
				zap.Error(err))
			continue
		}
		l.pusher.PushToTopic(topic, userID, taskapp.TaskUpdatePayload{
			TaskID:      e.After.ID,
			Title:       e.After.Title,
			Description: e.After.Description,
			Status:      e.After.Status,
			Priority:    e.After.Priority,
			DueDate:     e.After.DueDate,
			CompletedAt: e.After.CompletedAt,
			AccessLevel: level,
			UpdatedBy:   e.ActorID,
		})
	}
	return nil
}

// AuthorizeTopic allows the private notification queue and the update topics
// of tasks the user can read
func (l *LiveUpdates) AuthorizeTopic(ctx context.Context, userID uuid.UUID, topic string) error {
	if topic == UserQueue {
		return nil
	}
	raw, ok := strings.CutPrefix(topic, TaskUpdatesPrefix)
	if !ok {
		return ErrTopicForbidden
	}
	taskID, err := uuid.Parse(raw)
	if err != nil {
		return ErrTopicForbidden
	}
	allowed, err := l.perms.HasAccess(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrTopicForbidden
	}
	return nil
}
