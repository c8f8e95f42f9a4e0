package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/achievement"
)

// AchievementModel is the persistence model for an Achievement definition
type AchievementModel struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Code        achievement.Code `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string           `gorm:"type:varchar(100);not null;uniqueIndex"`
	Description string           `gorm:"type:text"`
	TargetValue int              `gorm:"not null"`
	CreatedAt   time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AchievementModel) TableName() string {
	return "achievements"
}

// ToDomain converts the persistence model to a domain Achievement
func (m *AchievementModel) ToDomain() *achievement.Achievement {
	return &achievement.Achievement{
		ID:          m.ID,
		Code:        m.Code,
		Name:        m.Name,
		Description: m.Description,
		TargetValue: m.TargetValue,
		CreatedAt:   m.CreatedAt,
	}
}

// AchievementModelFromDomain creates a persistence model from a domain Achievement
func AchievementModelFromDomain(a *achievement.Achievement) *AchievementModel {
	return &AchievementModel{
		ID:          a.ID,
		Code:        a.Code,
		Name:        a.Name,
		Description: a.Description,
		TargetValue: a.TargetValue,
		CreatedAt:   a.CreatedAt,
	}
}

// UserAchievementModel is the persistence model for a user's progress.
// (user_id, achievement_id) is unique.
type UserAchievementModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievements_user_achievement"`
	AchievementID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievements_user_achievement"`
	Progress      int        `gorm:"not null;default:0"`
	Completed     bool       `gorm:"not null;default:false"`
	CompletedAt   *time.Time `gorm:"column:completed_at"`

	Achievement *AchievementModel `gorm:"foreignKey:AchievementID"`
}

// TableName returns the table name for GORM
func (UserAchievementModel) TableName() string {
	return "user_achievements"
}

// ToDomain converts the persistence model to a domain UserAchievement
func (m *UserAchievementModel) ToDomain() *achievement.UserAchievement {
	ua := &achievement.UserAchievement{
		ID:            m.ID,
		UserID:        m.UserID,
		AchievementID: m.AchievementID,
		Progress:      m.Progress,
		Completed:     m.Completed,
		CompletedAt:   m.CompletedAt,
	}
	if m.Achievement != nil {
		ua.Achievement = m.Achievement.ToDomain()
	}
	return ua
}

// UserAchievementModelFromDomain creates a persistence model from a domain
// UserAchievement. The achievement association is not written.
func UserAchievementModelFromDomain(ua *achievement.UserAchievement) *UserAchievementModel {
	return &UserAchievementModel{
		ID:            ua.ID,
		UserID:        ua.UserID,
		AchievementID: ua.AchievementID,
		Progress:      ua.Progress,
		Completed:     ua.Completed,
		CompletedAt:   ua.CompletedAt,
	}
}
