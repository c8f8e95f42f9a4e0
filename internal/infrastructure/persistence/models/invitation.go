package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/invitation"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
)

// InvitationModel is the persistence model for the Invitation aggregate
type InvitationModel struct {
	BaseModel
	TaskID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	SenderID    uuid.UUID         `gorm:"type:uuid;not null"`
	RecipientID uuid.UUID         `gorm:"type:uuid;not null;index"`
	Level       task.AccessLevel  `gorm:"type:varchar(10);not null"`
	Status      invitation.Status `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	RespondedAt *time.Time
}

// TableName returns the table name for GORM
func (InvitationModel) TableName() string {
	return "invitations"
}

// ToDomain converts the persistence model to a domain Invitation
func (m *InvitationModel) ToDomain() *invitation.Invitation {
	return &invitation.Invitation{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: m.BaseModel.ToDomain()},
		TaskID:            m.TaskID,
		SenderID:          m.SenderID,
		RecipientID:       m.RecipientID,
		Level:             m.Level,
		Status:            m.Status,
		RespondedAt:       m.RespondedAt,
	}
}

// InvitationModelFromDomain creates a persistence model from a domain Invitation
func InvitationModelFromDomain(i *invitation.Invitation) *InvitationModel {
	m := &InvitationModel{
		TaskID:      i.TaskID,
		SenderID:    i.SenderID,
		RecipientID: i.RecipientID,
		Level:       i.Level,
		Status:      i.Status,
		RespondedAt: i.RespondedAt,
	}
	m.FromDomainBaseEntity(i.BaseEntity)
	return m
}
