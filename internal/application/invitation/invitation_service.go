package invitation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	identityapp "github.com/taskflow/backend/internal/application/identity"
	taskapp "github.com/taskflow/backend/internal/application/task"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/invitation"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
	"github.com/taskflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InvitationService handles task invitations
type InvitationService struct {
	invitationRepo invitation.Repository
	taskRepo       task.TaskRepository
	accessRepo     task.AccessRepository
	userRepo       identity.UserRepository
	perms          *taskapp.TaskPermissionService
	events         shared.EventPublisher
	now            func() time.Time
	logger         *zap.Logger
}

// NewInvitationService creates a new InvitationService
func NewInvitationService(
	invitationRepo invitation.Repository,
	taskRepo task.TaskRepository,
	accessRepo task.AccessRepository,
	userRepo identity.UserRepository,
	perms *taskapp.TaskPermissionService,
	events shared.EventPublisher,
	logger *zap.Logger,
) *InvitationService {
	return &InvitationService{
		invitationRepo: invitationRepo,
		taskRepo:       taskRepo,
		accessRepo:     accessRepo,
		userRepo:       userRepo,
		perms:          perms,
		events:         events,
		now:            func() time.Time { return time.Now().UTC() },
		logger:         logger,
	}
}

// Create invites a user to a task. Only the task owner may invite.
func (s *InvitationService) Create(ctx context.Context, senderID uuid.UUID, req CreateInvitationRequest) (*InvitationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invitation", "create",
		telemetry.AttrUserID, senderID.String(),
		telemetry.AttrTaskID, req.TaskID.String())
	defer span.End()

	if err := s.perms.RequireOwner(ctx, senderID, req.TaskID); err != nil {
		return nil, err
	}
	inv, err := invitation.NewInvitation(req.TaskID, senderID, req.RecipientID, task.AccessLevel(req.AccessLevel))
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByID(ctx, req.RecipientID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, identityapp.ErrUserNotFound
		}
		return nil, err
	}

	switch _, err := s.accessRepo.FindByTaskAndUser(ctx, req.TaskID, req.RecipientID); {
	case err == nil:
		return nil, invitation.ErrAlreadyHasAccess
	case !errors.Is(err, task.ErrAccessNotFound):
		return nil, err
	}

	pending, err := s.invitationRepo.ExistsPending(ctx, req.TaskID, req.RecipientID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, invitation.ErrInvitationExists
	}

	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.AttrInvitation, inv.ID.String())

	s.logger.Info("Invitation created",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("task_id", req.TaskID.String()),
		zap.String("recipient_id", req.RecipientID.String()))
	s.publish(ctx, invitation.NewInvitationCreatedEvent(inv))

	resp := s.decorate(ctx, []*invitation.Invitation{inv})[0]
	return &resp, nil
}

// Accept accepts a pending invitation and grants the proposed level
func (s *InvitationService) Accept(ctx context.Context, userID, invitationID uuid.UUID) (*InvitationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invitation", "accept",
		telemetry.AttrUserID, userID.String(),
		telemetry.AttrInvitation, invitationID.String())
	defer span.End()

	inv, err := s.invitationRepo.FindByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	access, err := inv.Accept(userID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.invitationRepo.Accept(ctx, inv, access); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.perms.InvalidateUser(ctx, userID)

	s.logger.Info("Invitation accepted",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("task_id", inv.TaskID.String()),
		zap.String("user_id", userID.String()))
	s.publish(ctx, invitation.NewInvitationRespondedEvent(inv))

	resp := s.decorate(ctx, []*invitation.Invitation{inv})[0]
	return &resp, nil
}

// Decline declines a pending invitation
func (s *InvitationService) Decline(ctx context.Context, userID, invitationID uuid.UUID) (*InvitationResponse, error) {
	inv, err := s.invitationRepo.FindByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if err := inv.Decline(userID, s.now()); err != nil {
		return nil, err
	}
	if err := s.invitationRepo.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("Invitation declined",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("user_id", userID.String()))
	s.publish(ctx, invitation.NewInvitationRespondedEvent(inv))

	resp := s.decorate(ctx, []*invitation.Invitation{inv})[0]
	return &resp, nil
}

// ListPending returns the caller's pending invitations, newest first
func (s *InvitationService) ListPending(ctx context.Context, userID uuid.UUID) ([]InvitationResponse, error) {
	invitations, err := s.invitationRepo.FindPendingByRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, invitations), nil
}

// decorate adds task titles and sender names; lookup failures leave them empty
func (s *InvitationService) decorate(ctx context.Context, invitations []*invitation.Invitation) []InvitationResponse {
	titles := map[uuid.UUID]string{}
	senderIDs := make([]uuid.UUID, 0, len(invitations))
	for _, inv := range invitations {
		senderIDs = append(senderIDs, inv.SenderID)
		if _, ok := titles[inv.TaskID]; ok {
			continue
		}
		t, err := s.taskRepo.FindByID(ctx, inv.TaskID)
		if err != nil {
			s.logger.Warn("Failed to load invitation task",
				zap.String("task_id", inv.TaskID.String()),
				zap.Error(err))
			titles[inv.TaskID] = ""
			continue
		}
		titles[inv.TaskID] = t.Title
	}

	names := map[uuid.UUID]string{}
	if len(senderIDs) > 0 {
		if users, err := s.userRepo.FindByIDs(ctx, senderIDs); err == nil {
			for _, u := range users {
				names[u.ID] = u.Username
			}
		} else {
			s.logger.Warn("Failed to load invitation senders", zap.Error(err))
		}
	}

	out := make([]InvitationResponse, 0, len(invitations))
	for _, inv := range invitations {
		out = append(out, toResponse(inv, titles[inv.TaskID], names[inv.SenderID]))
	}
	return out
}

func (s *InvitationService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish invitation events", zap.Error(err))
	}
}
