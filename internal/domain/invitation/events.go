package invitation

import (
	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
)

// Invitation event types
const (
	EventTypeInvitationCreated   = "invitation.created"
	EventTypeInvitationResponded = "invitation.responded"
)

// InvitationCreatedEvent is published after an invitation is stored
type InvitationCreatedEvent struct {
	shared.BaseDomainEvent
	InvitationID uuid.UUID        `json:"invitation_id"`
	TaskID       uuid.UUID        `json:"task_id"`
	SenderID     uuid.UUID        `json:"sender_id"`
	RecipientID  uuid.UUID        `json:"recipient_id"`
	Level        task.AccessLevel `json:"access_level"`
}

// NewInvitationCreatedEvent creates an InvitationCreatedEvent
func NewInvitationCreatedEvent(i *Invitation) *InvitationCreatedEvent {
	return &InvitationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvitationCreated, AggregateTypeInvitation, i.ID),
		InvitationID:    i.ID,
		TaskID:          i.TaskID,
		SenderID:        i.SenderID,
		RecipientID:     i.RecipientID,
		Level:           i.Level,
	}
}

// InvitationRespondedEvent is published after the recipient answers
type InvitationRespondedEvent struct {
	shared.BaseDomainEvent
	InvitationID uuid.UUID `json:"invitation_id"`
	TaskID       uuid.UUID `json:"task_id"`
	SenderID     uuid.UUID `json:"sender_id"`
	RecipientID  uuid.UUID `json:"recipient_id"`
	Action       string    `json:"action"`
}

// NewInvitationRespondedEvent creates an InvitationRespondedEvent
func NewInvitationRespondedEvent(i *Invitation) *InvitationRespondedEvent {
	action := ActionDeclined
	if i.Status == StatusAccepted {
		action = ActionAccepted
	}
	return &InvitationRespondedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvitationResponded, AggregateTypeInvitation, i.ID),
		InvitationID:    i.ID,
		TaskID:          i.TaskID,
		SenderID:        i.SenderID,
		RecipientID:     i.RecipientID,
		Action:          action,
	}
}
