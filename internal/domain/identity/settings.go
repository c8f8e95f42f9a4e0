package identity

import "github.com/taskflow/backend/internal/domain/shared"

// Notification interval bounds, in minutes
const (
	DefaultTaskNotificationInterval = 60
	MaxTaskNotificationInterval     = 24 * 60
)

// NotificationSettings controls which notifications a user receives
type NotificationSettings struct {
	TaskNotificationInterval int  `json:"task_notification_interval"`
	TaskEnabled              bool `json:"task_enabled"`
	InvitationEnabled        bool `json:"invitation_enabled"`
	AchievementEnabled       bool `json:"achievement_enabled"`
}

// DefaultNotificationSettings enables everything with a one hour reminder
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		TaskNotificationInterval: DefaultTaskNotificationInterval,
		TaskEnabled:              true,
		InvitationEnabled:        true,
		AchievementEnabled:       true,
	}
}

// Validate checks the reminder interval
func (s NotificationSettings) Validate() error {
	if s.TaskNotificationInterval < 1 || s.TaskNotificationInterval > MaxTaskNotificationInterval {
		return shared.NewDomainError("INVALID_NOTIFICATION_INTERVAL", "Task notification interval must be between 1 and 1440 minutes")
	}
	return nil
}
