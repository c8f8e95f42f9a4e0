package task

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/task"
)

// CreateTaskRequest represents a request to create a task
type CreateTaskRequest struct {
	Title        string     `json:"title" binding:"required,min=1,max=255"`
	Description  string     `json:"description" binding:"max=2000"`
	Status       string     `json:"status" binding:"omitempty,oneof=TO_DO IN_PROGRESS DONE"`
	Priority     string     `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	DueDate      *time.Time `json:"due_date"`
	ParentTaskID *uuid.UUID `json:"parent_task_id"`
	CategoryID   *uuid.UUID `json:"category_id"`
}

// UpdateTaskRequest represents a request to update a task. Nil fields are
// left unchanged; the Clear flags remove the optional references.
type UpdateTaskRequest struct {
	Title         *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Description   *string    `json:"description" binding:"omitempty,max=2000"`
	Status        *string    `json:"status" binding:"omitempty,oneof=TO_DO IN_PROGRESS DONE"`
	Priority      *string    `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	DueDate       *time.Time `json:"due_date"`
	ClearDueDate  bool       `json:"clear_due_date"`
	ParentTaskID  *uuid.UUID `json:"parent_task_id"`
	ClearParent   bool       `json:"clear_parent"`
	CategoryID    *uuid.UUID `json:"category_id"`
	ClearCategory bool       `json:"clear_category"`
}

// UpdateStatusRequest changes only the status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=TO_DO IN_PROGRESS DONE"`
}

// UpdateDueDateRequest changes only the due date; null clears it
type UpdateDueDateRequest struct {
	DueDate *time.Time `json:"due_date"`
}

// Due filters accepted by search
const (
	DueToday   = "today"
	DueWeek    = "week"
	DueOverdue = "overdue"
	DueNoDate  = "no_date"
)

// SearchTasksRequest filters the caller's visible root tasks
type SearchTasksRequest struct {
	Query       string `form:"q" binding:"max=255"`
	Status      string `form:"status" binding:"omitempty,oneof=TO_DO IN_PROGRESS DONE"`
	Priority    string `form:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	CategoryID  string `form:"category_id" binding:"omitempty,uuid"`
	Due         string `form:"due" binding:"omitempty,oneof=today week overdue no_date"`
	AccessLevel string `form:"access_level" binding:"omitempty,oneof=OWNER EDIT VIEW"`
	SortBy      string `form:"sort_by" binding:"omitempty,oneof=created_at due_date priority title status"`
	SortOrder   string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// UpcomingRequest selects tasks due within the next Minutes
type UpcomingRequest struct {
	Minutes     int  `form:"minutes" binding:"omitempty,min=1"`
	NotNotified bool `form:"not_notified"`
}

// TaskResponse represents a task in API responses, seen by one viewer
type TaskResponse struct {
	ID            uuid.UUID        `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Status        task.Status      `json:"status"`
	Priority      task.Priority    `json:"priority"`
	DueDate       *time.Time       `json:"due_date"`
	CreatedAt     time.Time        `json:"created_at"`
	CompletedAt   *time.Time       `json:"completed_at"`
	UserID        uuid.UUID        `json:"user_id"`
	OwnerName     string           `json:"owner_name,omitempty"`
	ParentTaskID  *uuid.UUID       `json:"parent_task_id"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	SubtasksCount int              `json:"subtasks_count"`
	AccessLevel   task.AccessLevel `json:"access_level"`
	Notified      bool             `json:"notified"`
	Subtasks      []TaskResponse   `json:"subtasks,omitempty"`
}

// ToTaskResponse converts a task into its response for a viewer at level
func ToTaskResponse(t *task.Task, level task.AccessLevel) TaskResponse {
	return TaskResponse{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       t.Status,
		Priority:     t.Priority,
		DueDate:      t.DueDate,
		CreatedAt:    t.CreatedAt,
		CompletedAt:  t.CompletedAt,
		UserID:       t.OwnerID,
		ParentTaskID: t.ParentID,
		CategoryID:   t.CategoryID,
		AccessLevel:  level,
		Notified:     t.Notified,
	}
}

// TaskUpdatePayload is pushed to collaborators when a task changes
type TaskUpdatePayload struct {
	TaskID      uuid.UUID        `json:"task_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Status      task.Status      `json:"status"`
	Priority    task.Priority    `json:"priority"`
	DueDate     *time.Time       `json:"due_date"`
	CompletedAt *time.Time       `json:"completed_at"`
	AccessLevel task.AccessLevel `json:"access_level"`
	UpdatedBy   uuid.UUID        `json:"updated_by"`
}

// AccessResponse represents a grant in API responses
type AccessResponse struct {
	ID          uuid.UUID        `json:"id"`
	TaskID      uuid.UUID        `json:"task_id"`
	UserID      uuid.UUID        `json:"user_id"`
	Username    string           `json:"username"`
	AccessLevel task.AccessLevel `json:"access_level"`
	CreatedAt   time.Time        `json:"created_at"`
}

// UpdateAccessRequest moves a grant between EDIT and VIEW
type UpdateAccessRequest struct {
	AccessLevel string `json:"access_level" binding:"required,oneof=EDIT VIEW"`
}

// OwnerSummary is an owner of tasks shared with the caller
type OwnerSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// CategoryRequest creates or updates a category
type CategoryRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=100"`
	Color string `json:"color" binding:"omitempty,hexcolor,len=7"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ToCategoryResponse converts a category into its response
func ToCategoryResponse(c *task.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Color:     c.Color,
		UserID:    c.OwnerID,
		CreatedAt: c.CreatedAt,
	}
}

// CommentRequest adds a comment
type CommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=2000"`
}

// CommentResponse represents a comment in API responses
type CommentResponse struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
