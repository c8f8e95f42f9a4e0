package invitation

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
)

// Status is the lifecycle state of an invitation
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusDeclined Status = "DECLINED"
)

// Response actions carried in invitation-response notifications
const (
	ActionAccepted = "accepted"
	ActionDeclined = "declined"
)

// AggregateTypeInvitation is the aggregate type for invitation events
const AggregateTypeInvitation = "Invitation"

// Invitation errors
var (
	ErrInvitationNotFound = shared.NewDomainError("INVITATION_NOT_FOUND", "Invitation not found")
	ErrNotRecipient       = shared.NewDomainError("ACCESS_DENIED", "You are not the recipient")
	ErrNotPending         = shared.NewDomainError("INVITATION_NOT_PENDING", "Invitation has already been answered")
	ErrSelfInvitation     = shared.NewDomainError("SELF_INVITATION", "You cannot invite yourself")
	ErrAlreadyHasAccess   = shared.NewDomainError("ALREADY_HAS_ACCESS", "User already has access to this task")
	ErrInvitationExists   = shared.NewDomainError("INVITATION_EXISTS", "User already has a pending invitation for this task")
)

// Invitation offers a recipient access to a task. Accepting it creates
// exactly one TaskAccess row at the proposed level.
type Invitation struct {
	shared.BaseAggregateRoot
	TaskID      uuid.UUID
	SenderID    uuid.UUID
	RecipientID uuid.UUID
	Level       task.AccessLevel
	Status      Status
	RespondedAt *time.Time
}

// NewInvitation creates a pending invitation
func NewInvitation(taskID, senderID, recipientID uuid.UUID, level task.AccessLevel) (*Invitation, error) {
	if senderID == recipientID {
		return nil, ErrSelfInvitation
	}
	if !level.IsGrantable() {
		return nil, task.ErrInvalidAccessLevel
	}
	return &Invitation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TaskID:            taskID,
		SenderID:          senderID,
		RecipientID:       recipientID,
		Level:             level,
		Status:            StatusPending,
	}, nil
}

// Accept marks the invitation accepted and returns the grant to store
func (i *Invitation) Accept(userID uuid.UUID, now time.Time) (*task.TaskAccess, error) {
	if err := i.respond(userID, StatusAccepted, now); err != nil {
		return nil, err
	}
	return task.NewTaskAccess(i.TaskID, i.RecipientID, i.Level)
}

// Decline marks the invitation declined
func (i *Invitation) Decline(userID uuid.UUID, now time.Time) error {
	return i.respond(userID, StatusDeclined, now)
}

func (i *Invitation) respond(userID uuid.UUID, status Status, now time.Time) error {
	if i.RecipientID != userID {
		return ErrNotRecipient
	}
	if i.Status != StatusPending {
		return ErrNotPending
	}
	i.Status = status
	responded := now
	i.RespondedAt = &responded
	i.Touch()
	return nil
}

// IsPending reports whether the invitation awaits an answer
func (i *Invitation) IsPending() bool {
	return i.Status == StatusPending
}
