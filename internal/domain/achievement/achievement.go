package achievement

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
)

// AggregateTypeAchievement is the aggregate type for achievement events
const AggregateTypeAchievement = "Achievement"

// Achievement errors
var (
	ErrAchievementNotFound = shared.NewDomainError("ACHIEVEMENT_NOT_FOUND", "Achievement not found")
	ErrAchievementExists   = shared.NewDomainError("ACHIEVEMENT_EXISTS", "Achievement with this code already exists")
)

// Achievement is a global goal with a numeric target
type Achievement struct {
	ID          uuid.UUID
	Code        Code
	Name        string
	Description string
	TargetValue int
	CreatedAt   time.Time
}

// NewAchievement creates an achievement definition
func NewAchievement(code Code, name, description string, target int) (*Achievement, error) {
	code = Code(strings.ToUpper(strings.TrimSpace(string(code))))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ACHIEVEMENT", "Achievement code cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ACHIEVEMENT", "Achievement name cannot be empty")
	}
	if target < 1 {
		return nil, shared.NewDomainError("INVALID_ACHIEVEMENT", "Target value must be at least 1")
	}
	return &Achievement{
		ID:          uuid.New(),
		Code:        code,
		Name:        name,
		Description: description,
		TargetValue: target,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// UserAchievement is a user's progress toward one achievement
type UserAchievement struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	AchievementID uuid.UUID
	Progress      int
	Completed     bool
	CompletedAt   *time.Time

	// Achievement is loaded alongside for rule lookup and display
	Achievement *Achievement
}

// NewUserAchievement starts tracking progress at zero
func NewUserAchievement(userID uuid.UUID, a *Achievement) *UserAchievement {
	return &UserAchievement{
		ID:            uuid.New(),
		UserID:        userID,
		AchievementID: a.ID,
		Achievement:   a,
	}
}

// Apply adds delta to progress. Progress never drops below zero and a
// completed achievement no longer changes. Returns true only on the update
// that completes it.
func (ua *UserAchievement) Apply(delta, target int, now time.Time) bool {
	if ua.Completed || delta == 0 {
		return false
	}
	ua.Progress += delta
	if ua.Progress < 0 {
		ua.Progress = 0
	}
	if delta > 0 && ua.Progress >= target {
		ua.Completed = true
		completed := now
		ua.CompletedAt = &completed
		return true
	}
	return false
}
