package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenRepository defines the interface for OAuth token persistence
type TokenRepository interface {
	Save(ctx context.Context, t *Token) error
	FindByUser(ctx context.Context, userID uuid.UUID) (*Token, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// SyncHistoryRepository defines the interface for sync history persistence
type SyncHistoryRepository interface {
	Create(ctx context.Context, h *SyncHistory) error
	Update(ctx context.Context, h *SyncHistory) error
	// FindLatestCompletedSince returns the newest COMPLETED run at or after since
	FindLatestCompletedSince(ctx context.Context, userID uuid.UUID, since time.Time) (*SyncHistory, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}
