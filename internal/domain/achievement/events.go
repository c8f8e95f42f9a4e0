package achievement

import (
	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
)

// EventTypeAchievementCompleted is published once per completed user achievement
const EventTypeAchievementCompleted = "achievement.completed"

// AchievementCompletedEvent is published when progress first reaches the target
type AchievementCompletedEvent struct {
	shared.BaseDomainEvent
	UserID          uuid.UUID `json:"user_id"`
	AchievementID   uuid.UUID `json:"achievement_id"`
	AchievementName string    `json:"achievement_name"`
}

// NewAchievementCompletedEvent creates an AchievementCompletedEvent
func NewAchievementCompletedEvent(ua *UserAchievement) *AchievementCompletedEvent {
	name := ""
	if ua.Achievement != nil {
		name = ua.Achievement.Name
	}
	return &AchievementCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAchievementCompleted, AggregateTypeAchievement, ua.AchievementID),
		UserID:          ua.UserID,
		AchievementID:   ua.AchievementID,
		AchievementName: name,
	}
}
