package achievement

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/achievement"
)

// CreateAchievementRequest defines a new achievement
type CreateAchievementRequest struct {
	Code        string `json:"code" binding:"required,max=50"`
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	TargetValue int    `json:"target_value" binding:"required,min=1"`
}

// AchievementResponse represents an achievement definition
type AchievementResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TargetValue int       `json:"target_value"`
}

// UserAchievementResponse is the caller's progress toward one achievement
type UserAchievementResponse struct {
	ID          uuid.UUID           `json:"id"`
	Achievement AchievementResponse `json:"achievement"`
	Progress    int                 `json:"progress"`
	Completed   bool                `json:"completed"`
	CompletedAt *time.Time          `json:"completed_at"`
}

func toResponse(a *achievement.Achievement) AchievementResponse {
	return AchievementResponse{
		ID:          a.ID,
		Code:        string(a.Code),
		Name:        a.Name,
		Description: a.Description,
		TargetValue: a.TargetValue,
	}
}

func toUserResponse(ua *achievement.UserAchievement) UserAchievementResponse {
	resp := UserAchievementResponse{
		ID:          ua.ID,
		Progress:    ua.Progress,
		Completed:   ua.Completed,
		CompletedAt: ua.CompletedAt,
	}
	if ua.Achievement != nil {
		resp.Achievement = toResponse(ua.Achievement)
	}
	return resp
}
