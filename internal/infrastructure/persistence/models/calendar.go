package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/calendar"
)

// GoogleTokenModel stores a user's OAuth token. Token columns hold
// ciphertext; encryption happens in the repository.
type GoogleTokenModel struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccessToken  string    `gorm:"type:text;not null"`
	RefreshToken string    `gorm:"type:text"`
	TokenType    string    `gorm:"type:varchar(20)"`
	Expiry       time.Time
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (GoogleTokenModel) TableName() string {
	return "google_tokens"
}

// SyncHistoryModel is the persistence model for a calendar sync run
type SyncHistoryModel struct {
	ID       uuid.UUID           `gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	SyncedAt time.Time           `gorm:"not null;index"`
	Status   calendar.SyncStatus `gorm:"type:varchar(20);not null"`
	EventIDs []string            `gorm:"column:event_ids;type:jsonb;serializer:json"`
	Error    string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SyncHistoryModel) TableName() string {
	return "sync_history"
}

// ToDomain converts the persistence model to a domain SyncHistory
func (m *SyncHistoryModel) ToDomain() *calendar.SyncHistory {
	ids := m.EventIDs
	if ids == nil {
		ids = []string{}
	}
	return &calendar.SyncHistory{
		ID:       m.ID,
		UserID:   m.UserID,
		SyncedAt: m.SyncedAt,
		Status:   m.Status,
		EventIDs: ids,
		Error:    m.Error,
	}
}

// SyncHistoryModelFromDomain creates a persistence model from a domain SyncHistory
func SyncHistoryModelFromDomain(h *calendar.SyncHistory) *SyncHistoryModel {
	return &SyncHistoryModel{
		ID:       h.ID,
		UserID:   h.UserID,
		SyncedAt: h.SyncedAt,
		Status:   h.Status,
		EventIDs: h.EventIDs,
		Error:    h.Error,
	}
}
