package task

import "github.com/taskflow/backend/internal/domain/shared"

// Task domain errors
var (
	ErrTaskNotFound          = shared.NewDomainError("TASK_NOT_FOUND", "Task not found")
	ErrAccessDenied          = shared.NewDomainError("ACCESS_DENIED", "You do not have access to this task")
	ErrEditAccessRequired    = shared.NewDomainError("ACCESS_DENIED", "Edit access is required for this operation")
	ErrOwnerRequired         = shared.NewDomainError("ACCESS_DENIED", "Only the task owner can perform this operation")
	ErrCategoryOwnerRequired = shared.NewDomainError("CATEGORY_OWNER_REQUIRED", "Only the task owner can change its category")
	ErrDueDateInPast         = shared.NewDomainError("DUE_DATE_IN_PAST", "Due date cannot be in the past")
	ErrSubtaskDueAfterParent = shared.NewDomainError("SUBTASK_DUE_AFTER_PARENT", "Subtask due date cannot be later than the parent task due date")
	ErrNestingTooDeep        = shared.NewDomainError("SUBTASK_NESTING_TOO_DEEP", "Subtasks cannot have their own subtasks")
	ErrInvalidParent         = shared.NewDomainError("INVALID_PARENT_TASK", "A task cannot be its own parent")
	ErrOverdueStatusLocked   = shared.NewDomainError("OVERDUE_STATUS_LOCKED", "Cannot change status of overdue task except to DONE")
	ErrAccessNotFound        = shared.NewDomainError("ACCESS_NOT_FOUND", "Task access not found")
	ErrOwnerAccessImmutable  = shared.NewDomainError("OWNER_ACCESS_IMMUTABLE", "The owner access level cannot be changed or removed")
	ErrInvalidAccessLevel    = shared.NewDomainError("INVALID_ACCESS_LEVEL", "Access level must be EDIT or VIEW")
	ErrCategoryNotFound      = shared.NewDomainError("CATEGORY_NOT_FOUND", "Category not found")
	ErrCommentNotFound       = shared.NewDomainError("COMMENT_NOT_FOUND", "Comment not found")
	ErrCommentAuthorRequired = shared.NewDomainError("ACCESS_DENIED", "You can only delete your own comments")
)
