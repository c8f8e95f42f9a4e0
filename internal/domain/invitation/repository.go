package invitation

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/task"
)

// Repository defines the interface for invitation persistence
type Repository interface {
	Create(ctx context.Context, i *Invitation) error
	Update(ctx context.Context, i *Invitation) error
	// Accept stores the ACCEPTED invitation and the new grant in one transaction
	Accept(ctx context.Context, i *Invitation, access *task.TaskAccess) error

	FindByID(ctx context.Context, id uuid.UUID) (*Invitation, error)
	FindPendingByRecipient(ctx context.Context, recipientID uuid.UUID) ([]*Invitation, error)
	ExistsPending(ctx context.Context, taskID, recipientID uuid.UUID) (bool, error)
}
