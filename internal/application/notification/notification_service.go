package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/notification"
	"github.com/taskflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// NotificationService persists notifications and pushes them to their
// recipient's private channel
type NotificationService struct {
	repo     notification.Repository
	userRepo identity.UserRepository
	pusher   Pusher
	logger   *zap.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	repo notification.Repository,
	userRepo identity.UserRepository,
	pusher Pusher,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		repo:     repo,
		userRepo: userRepo,
		pusher:   pusher,
		logger:   logger,
	}
}

// enabled reports whether the user's settings allow the type. Access-change
// notifications are always delivered.
func enabled(settings identity.NotificationSettings, typ notification.Type) bool {
	switch typ {
	case notification.TypeTaskDeadline:
		return settings.TaskEnabled
	case notification.TypeTaskInvitation, notification.TypeTaskInvitationResponse:
		return settings.InvitationEnabled
	case notification.TypeUserAchievement:
		return settings.AchievementEnabled
	}
	return true
}

// Notify creates and pushes a notification unless the recipient has the
// type switched off. It returns nil without error when nothing was sent.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, typ notification.Type, metadata notification.Metadata) (*notification.Notification, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Debug("Notification recipient is gone", zap.String("user_id", userID.String()))
			return nil, nil
		}
		return nil, err
	}
	return s.notifyUser(ctx, user, typ, metadata)
}

func (s *NotificationService) notifyUser(ctx context.Context, user *identity.User, typ notification.Type, metadata notification.Metadata) (*notification.Notification, error) {
	if !enabled(user.Settings, typ) {
		return nil, nil
	}

	n, err := notification.New(user.ID, typ, metadata)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	if s.pusher != nil {
		s.pusher.PushToUser(user.ID, UserQueue, ToResponse(n))
	}
	s.logger.Debug("Notification sent",
		zap.String("user_id", user.ID.String()),
		zap.String("type", string(typ)))
	return n, nil
}

// List returns the caller's notifications newest first
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, req ListRequest) ([]NotificationResponse, error) {
	notifications, err := s.repo.FindByUser(ctx, userID, req.OnlyOpen)
	if err != nil {
		return nil, err
	}
	out := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, ToResponse(n))
	}
	return out, nil
}

// MarkAsRead flags one of the caller's notifications as read
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) (*NotificationResponse, error) {
	return s.change(ctx, userID, id, (*notification.Notification).MarkRead)
}

// Close hides one of the caller's notifications
func (s *NotificationService) Close(ctx context.Context, userID, id uuid.UUID) (*NotificationResponse, error) {
	return s.change(ctx, userID, id, (*notification.Notification).Close)
}

func (s *NotificationService) change(ctx context.Context, userID, id uuid.UUID, apply func(*notification.Notification)) (*NotificationResponse, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !n.BelongsTo(userID) {
		return nil, notification.ErrNotificationNotFound
	}
	apply(n)
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}
	resp := ToResponse(n)
	return &resp, nil
}
