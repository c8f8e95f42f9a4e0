package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/notification"
)

// NotificationModel is the persistence model for a Notification
type NotificationModel struct {
	ID        uuid.UUID             `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	Type      notification.Type     `gorm:"type:varchar(40);not null"`
	Title     string                `gorm:"type:varchar(255);not null"`
	Metadata  notification.Metadata `gorm:"type:jsonb;serializer:json"`
	IsRead    bool                  `gorm:"not null;default:false"`
	IsClosed  bool                  `gorm:"not null;default:false;index"`
	CreatedAt time.Time             `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the persistence model to a domain Notification
func (m *NotificationModel) ToDomain() *notification.Notification {
	metadata := m.Metadata
	if metadata == nil {
		metadata = notification.Metadata{}
	}
	return &notification.Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Type:      m.Type,
		Title:     m.Title,
		Metadata:  metadata,
		IsRead:    m.IsRead,
		IsClosed:  m.IsClosed,
		CreatedAt: m.CreatedAt,
	}
}

// NotificationModelFromDomain creates a persistence model from a domain Notification
func NotificationModelFromDomain(n *notification.Notification) *NotificationModel {
	return &NotificationModel{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Metadata:  n.Metadata,
		IsRead:    n.IsRead,
		IsClosed:  n.IsClosed,
		CreatedAt: n.CreatedAt,
	}
}
