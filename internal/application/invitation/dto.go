package invitation

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/invitation"
	"github.com/taskflow/backend/internal/domain/task"
)

// CreateInvitationRequest invites a user to a task
type CreateInvitationRequest struct {
	TaskID      uuid.UUID `json:"task_id" binding:"required"`
	RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
	AccessLevel string    `json:"access_level" binding:"required,oneof=EDIT VIEW"`
}

// InvitationResponse represents an invitation in API responses
type InvitationResponse struct {
	ID          uuid.UUID         `json:"id"`
	TaskID      uuid.UUID         `json:"task_id"`
	TaskTitle   string            `json:"task_title"`
	SenderID    uuid.UUID         `json:"sender_id"`
	Sender      string            `json:"sender"`
	RecipientID uuid.UUID         `json:"recipient_id"`
	AccessLevel task.AccessLevel  `json:"access_level"`
	Status      invitation.Status `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	RespondedAt *time.Time        `json:"responded_at"`
}

func toResponse(i *invitation.Invitation, taskTitle, sender string) InvitationResponse {
	return InvitationResponse{
		ID:          i.ID,
		TaskID:      i.TaskID,
		TaskTitle:   taskTitle,
		SenderID:    i.SenderID,
		Sender:      sender,
		RecipientID: i.RecipientID,
		AccessLevel: i.Level,
		Status:      i.Status,
		CreatedAt:   i.CreatedAt,
		RespondedAt: i.RespondedAt,
	}
}
