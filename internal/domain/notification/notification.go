package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
)

// Type identifies what triggered a notification
type Type string

const (
	TypeTaskDeadline           Type = "TASK_DEADLINE"
	TypeTaskInvitation         Type = "TASK_INVITATION"
	TypeUserAchievement        Type = "USER_ACHIEVEMENT"
	TypeTaskInvitationResponse Type = "TASK_INVITATION_RESPONSE"
	TypeAccessRightsChanged    Type = "TASK_ACCESS_RIGHTS_CHANGED"
	TypeAccessRightsRemoved    Type = "TASK_ACCESS_RIGHTS_REMOVED"
)

// Default titles per type
var titles = map[Type]string{
	TypeTaskDeadline:           "Task reminder",
	TypeTaskInvitation:         "New invitation",
	TypeUserAchievement:        "New achievement",
	TypeTaskInvitationResponse: "Invitation response",
	TypeAccessRightsChanged:    "Task access rights changed",
	TypeAccessRightsRemoved:    "Task access revoked",
}

// Title returns the display title for the type
func (t Type) Title() string {
	return titles[t]
}

// IsValid reports whether the type is known
func (t Type) IsValid() bool {
	_, ok := titles[t]
	return ok
}

// ErrNotificationNotFound is returned for missing or foreign notifications
var ErrNotificationNotFound = shared.NewDomainError("NOTIFICATION_NOT_FOUND", "Notification not found")

// Metadata is free-form context such as task id or inviter
type Metadata map[string]any

// Notification is a message addressed to one user
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      Type
	Title     string
	Metadata  Metadata
	IsRead    bool
	IsClosed  bool
	CreatedAt time.Time
}

// New creates an unread, open notification
func New(userID uuid.UUID, typ Type, metadata Metadata) (*Notification, error) {
	if !typ.IsValid() {
		return nil, shared.NewDomainError("INVALID_NOTIFICATION_TYPE", "Unknown notification type")
	}
	if metadata == nil {
		metadata = Metadata{}
	}
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Title:     typ.Title(),
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// MarkRead flags the notification as read
func (n *Notification) MarkRead() {
	n.IsRead = true
}

// Close hides the notification; closed notifications are read by definition
func (n *Notification) Close() {
	n.IsClosed = true
	n.IsRead = true
}

// BelongsTo reports whether the notification is addressed to userID
func (n *Notification) BelongsTo(userID uuid.UUID) bool {
	return n.UserID == userID
}
