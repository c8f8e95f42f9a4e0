package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/achievement"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/invitation"
	"github.com/taskflow/backend/internal/domain/notification"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
	"go.uber.org/zap"
)

// EventHandler turns invitation, access and achievement events into
// notifications for the affected user
type EventHandler struct {
	notifications *NotificationService
	taskRepo      task.TaskRepository
	userRepo      identity.UserRepository
	logger        *zap.Logger
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(
	notifications *NotificationService,
	taskRepo task.TaskRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *EventHandler {
	return &EventHandler{
		notifications: notifications,
		taskRepo:      taskRepo,
		userRepo:      userRepo,
		logger:        logger,
	}
}

// EventTypes implements shared.EventHandler
func (h *EventHandler) EventTypes() []string {
	return []string{
		invitation.EventTypeInvitationCreated,
		invitation.EventTypeInvitationResponded,
		task.EventTypeAccessChanged,
		task.EventTypeAccessRemoved,
		achievement.EventTypeAchievementCompleted,
	}
}

// Handle implements shared.EventHandler
func (h *EventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var err error
	switch e := event.(type) {
	case *invitation.InvitationCreatedEvent:
		_, err = h.notifications.Notify(ctx, e.RecipientID, notification.TypeTaskInvitation, notification.Metadata{
			"task_id":       e.TaskID.String(),
			"task_title":    h.taskTitle(ctx, e.TaskID),
			"invitation_id": e.InvitationID.String(),
			"sender":        h.username(ctx, e.SenderID),
			"access_level":  string(e.Level),
		})
	case *invitation.InvitationRespondedEvent:
		_, err = h.notifications.Notify(ctx, e.SenderID, notification.TypeTaskInvitationResponse, notification.Metadata{
			"invitation_id": e.InvitationID.String(),
			"task_id":       e.TaskID.String(),
			"recipient":     h.username(ctx, e.RecipientID),
			"action":        e.Action,
		})
	case *task.AccessChangedEvent:
		_, err = h.notifications.Notify(ctx, e.UserID, notification.TypeAccessRightsChanged, notification.Metadata{
			"task_id":      e.TaskID.String(),
			"task_title":   e.TaskTitle,
			"access_level": string(e.Level),
		})
	case *task.AccessRemovedEvent:
		_, err = h.notifications.Notify(ctx, e.UserID, notification.TypeAccessRightsRemoved, notification.Metadata{
			"task_id":    e.TaskID.String(),
			"task_title": e.TaskTitle,
		})
	case *achievement.AchievementCompletedEvent:
		_, err = h.notifications.Notify(ctx, e.UserID, notification.TypeUserAchievement, notification.Metadata{
			"achievement_id":   e.AchievementID.String(),
			"achievement_name": e.AchievementName,
		})
	default:
		h.logger.Debug("Ignoring event", zap.String("event_type", event.EventType()))
	}
	return err
}

func (h *EventHandler) taskTitle(ctx context.Context, taskID uuid.UUID) string {
	t, err := h.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		h.logger.Warn("Failed to load task for notification",
			zap.String("task_id", taskID.String()),
			zap.Error(err))
		return ""
	}
	return t.Title
}

func (h *EventHandler) username(ctx context.Context, userID uuid.UUID) string {
	u, err := h.userRepo.FindByID(ctx, userID)
	if err != nil {
		h.logger.Warn("Failed to load user for notification",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return ""
	}
	return u.Username
}
