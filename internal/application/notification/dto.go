package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/notification"
)

// ListRequest filters the caller's notifications
type ListRequest struct {
	OnlyOpen bool `form:"only_open"`
}

// NotificationResponse represents a notification in API responses and pushes
type NotificationResponse struct {
	ID        uuid.UUID             `json:"id"`
	Type      notification.Type     `json:"type"`
	Title     string                `json:"title"`
	Metadata  notification.Metadata `json:"metadata"`
	IsRead    bool                  `json:"is_read"`
	IsClosed  bool                  `json:"is_closed"`
	CreatedAt time.Time             `json:"created_at"`
}

// ToResponse converts a notification into its response
func ToResponse(n *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Metadata:  n.Metadata,
		IsRead:    n.IsRead,
		IsClosed:  n.IsClosed,
		CreatedAt: n.CreatedAt,
	}
}
