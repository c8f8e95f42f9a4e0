package models

import (
	"github.com/taskflow/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User entity
type UserModel struct {
	BaseModel
	Username     string                        `gorm:"type:varchar(50);not null;uniqueIndex:idx_users_username"`
	Email        string                        `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email"`
	PasswordHash string                        `gorm:"type:varchar(255);not null"`
	Role         identity.Role                 `gorm:"type:varchar(20);not null;default:'USER'"`
	Bio          string                        `gorm:"type:text"`
	Avatar       string                        `gorm:"type:varchar(500)"`
	Settings     identity.NotificationSettings `gorm:"type:jsonb;serializer:json;not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity:   m.BaseModel.ToDomain(),
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		Bio:          m.Bio,
		Avatar:       m.Avatar,
		Settings:     m.Settings,
	}
}

// FromDomain populates the persistence model from a domain User
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainBaseEntity(u.BaseEntity)
	m.Username = u.Username
	m.Email = u.Email
	m.PasswordHash = u.PasswordHash
	m.Role = u.Role
	m.Bio = u.Bio
	m.Avatar = u.Avatar
	m.Settings = u.Settings
}

// UserModelFromDomain creates a persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
