package achievement

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for achievement definitions
type Repository interface {
	// Create stores the achievement and seeds a UserAchievement for every user
	Create(ctx context.Context, a *Achievement) error
	FindAll(ctx context.Context) ([]*Achievement, error)
	ExistsByCode(ctx context.Context, code Code) (bool, error)
}

// UserAchievementRepository defines the interface for per-user progress
type UserAchievementRepository interface {
	// SeedForUser creates missing progress rows for every achievement
	SeedForUser(ctx context.Context, userID uuid.UUID) error
	// FindByUser returns progress rows with their achievement loaded
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*UserAchievement, error)
	Update(ctx context.Context, ua *UserAchievement) error
}
