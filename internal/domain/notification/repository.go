package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for notification persistence
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	Update(ctx context.Context, n *Notification) error
	FindByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	// FindByUser returns the user's notifications newest first
	FindByUser(ctx context.Context, userID uuid.UUID, onlyOpen bool) ([]*Notification, error)
	// DeleteClosedBefore removes closed notifications created before cutoff
	DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
