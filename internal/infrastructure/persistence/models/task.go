package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
)

// TaskModel is the persistence model for the Task aggregate
type TaskModel struct {
	BaseModel
	Title           string        `gorm:"type:varchar(255);not null"`
	Description     string        `gorm:"type:text"`
	Status          task.Status   `gorm:"type:varchar(20);not null;default:'TO_DO';index"`
	Priority        task.Priority `gorm:"type:varchar(20);not null;default:'MEDIUM'"`
	DueDate         *time.Time    `gorm:"index"`
	ParentID        *uuid.UUID    `gorm:"type:uuid;index"`
	CategoryID      *uuid.UUID    `gorm:"type:uuid;index"`
	OwnerID         uuid.UUID     `gorm:"type:uuid;not null;index"`
	CompletedAt     *time.Time
	Notified        bool   `gorm:"not null;default:false"`
	CalendarEventID string `gorm:"column:google_event_id;type:varchar(255);index"`
	CalendarID      string `gorm:"type:varchar(255)"`
	LastSyncedAt    *time.Time
}

// TableName returns the table name for GORM
func (TaskModel) TableName() string {
	return "tasks"
}

// ToDomain converts the persistence model to a domain Task
func (m *TaskModel) ToDomain() *task.Task {
	return &task.Task{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: m.BaseModel.ToDomain()},
		Title:             m.Title,
		Description:       m.Description,
		Status:            m.Status,
		Priority:          m.Priority,
		DueDate:           m.DueDate,
		ParentID:          m.ParentID,
		CategoryID:        m.CategoryID,
		OwnerID:           m.OwnerID,
		CompletedAt:       m.CompletedAt,
		Notified:          m.Notified,
		CalendarEventID:   m.CalendarEventID,
		CalendarID:        m.CalendarID,
		LastSyncedAt:      m.LastSyncedAt,
	}
}

// FromDomain populates the persistence model from a domain Task
func (m *TaskModel) FromDomain(t *task.Task) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.Title = t.Title
	m.Description = t.Description
	m.Status = t.Status
	m.Priority = t.Priority
	m.DueDate = t.DueDate
	m.ParentID = t.ParentID
	m.CategoryID = t.CategoryID
	m.OwnerID = t.OwnerID
	m.CompletedAt = t.CompletedAt
	m.Notified = t.Notified
	m.CalendarEventID = t.CalendarEventID
	m.CalendarID = t.CalendarID
	m.LastSyncedAt = t.LastSyncedAt
}

// TaskModelFromDomain creates a persistence model from a domain Task
func TaskModelFromDomain(t *task.Task) *TaskModel {
	m := &TaskModel{}
	m.FromDomain(t)
	return m
}

// TaskAccessModel is the persistence model for a TaskAccess grant.
// (task_id, user_id) is unique.
type TaskAccessModel struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey"`
	TaskID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_task_access_task_user"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_task_access_task_user;index"`
	Level     task.AccessLevel `gorm:"type:varchar(10);not null"`
	CreatedAt time.Time        `gorm:"not null"`
	UpdatedAt time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TaskAccessModel) TableName() string {
	return "task_access"
}

// ToDomain converts the persistence model to a domain TaskAccess
func (m *TaskAccessModel) ToDomain() *task.TaskAccess {
	return &task.TaskAccess{
		ID:        m.ID,
		TaskID:    m.TaskID,
		UserID:    m.UserID,
		Level:     m.Level,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// TaskAccessModelFromDomain creates a persistence model from a domain TaskAccess
func TaskAccessModelFromDomain(a *task.TaskAccess) *TaskAccessModel {
	return &TaskAccessModel{
		ID:        a.ID,
		TaskID:    a.TaskID,
		UserID:    a.UserID,
		Level:     a.Level,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// CategoryModel is the persistence model for a Category
type CategoryModel struct {
	BaseModel
	Name    string    `gorm:"type:varchar(100);not null"`
	Color   string    `gorm:"type:varchar(7);not null;default:'#808080'"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category
func (m *CategoryModel) ToDomain() *task.Category {
	return &task.Category{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Color:      m.Color,
		OwnerID:    m.OwnerID,
	}
}

// CategoryModelFromDomain creates a persistence model from a domain Category
func CategoryModelFromDomain(c *task.Category) *CategoryModel {
	m := &CategoryModel{Name: c.Name, Color: c.Color, OwnerID: c.OwnerID}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// CommentModel is the persistence model for a task Comment
type CommentModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TaskID    uuid.UUID `gorm:"type:uuid;not null;index"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CommentModel) TableName() string {
	return "comments"
}

// ToDomain converts the persistence model to a domain Comment
func (m *CommentModel) ToDomain() *task.Comment {
	return &task.Comment{
		ID:        m.ID,
		TaskID:    m.TaskID,
		AuthorID:  m.AuthorID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

// CommentModelFromDomain creates a persistence model from a domain Comment
func CommentModelFromDomain(c *task.Comment) *CommentModel {
	return &CommentModel{
		ID:        c.ID,
		TaskID:    c.TaskID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}
