package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/task"
	"github.com/taskflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTaskRepository implements task.TaskRepository using GORM
type GormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GormTaskRepository
func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// CreateWithOwner inserts the task and its OWNER grant in one transaction
func (r *GormTaskRepository) CreateWithOwner(ctx context.Context, t *task.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.TaskModelFromDomain(t)).Error; err != nil {
			return translate(err, task.ErrTaskNotFound)
		}
		owner := task.NewOwnerAccess(t.ID, t.OwnerID)
		return translate(tx.Create(models.TaskAccessModelFromDomain(owner)).Error, task.ErrAccessNotFound)
	})
}

// Update saves every column of the task
func (r *GormTaskRepository) Update(ctx context.Context, t *task.Task) error {
	result := r.db.WithContext(ctx).
		Model(&models.TaskModel{}).
		Where("id = ?", t.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(models.TaskModelFromDomain(t))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}

// Delete removes the task and its subtasks with their grants, comments and
// invitations.
func (r *GormTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.TaskModel{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return task.ErrTaskNotFound
		}
		return deleteTaskTree(tx, []uuid.UUID{id})
	})
}

// deleteTaskTree deletes the given tasks, their subtasks and all dependent
// rows inside tx. The SQL schema cascades too; doing it here keeps the
// behaviour identical on databases without enforced foreign keys.
func deleteTaskTree(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	var subtaskIDs []uuid.UUID
	if err := tx.Model(&models.TaskModel{}).Where("parent_id IN ?", ids).Pluck("id", &subtaskIDs).Error; err != nil {
		return err
	}
	all := append(append([]uuid.UUID{}, ids...), subtaskIDs...)

	for _, m := range []any{&models.InvitationModel{}, &models.CommentModel{}, &models.TaskAccessModel{}} {
		if err := tx.Where("task_id IN ?", all).Delete(m).Error; err != nil {
			return err
		}
	}
	if len(subtaskIDs) > 0 {
		if err := tx.Where("id IN ?", subtaskIDs).Delete(&models.TaskModel{}).Error; err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", ids).Delete(&models.TaskModel{}).Error
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	var model models.TaskModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, task.ErrTaskNotFound)
	}
	return model.ToDomain(), nil
}

// FindSubtasks returns the direct subtasks of parentID, oldest first
func (r *GormTaskRepository) FindSubtasks(ctx context.Context, parentID uuid.UUID) ([]*task.Task, error) {
	var taskModels []models.TaskModel
	if err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&taskModels).Error; err != nil {
		return nil, err
	}
	return toTasks(taskModels), nil
}

// visibleTaskRow is a task joined with the viewer's grant
type visibleTaskRow struct {
	models.TaskModel
	AccessLevel task.AccessLevel
}

// FindVisible returns the tasks filter.UserID holds a grant on, with the grant level
func (r *GormTaskRepository) FindVisible(ctx context.Context, filter task.TaskFilter) ([]task.VisibleTask, error) {
	q := r.db.WithContext(ctx).
		Table("tasks").
		Select("tasks.*, task_access.level AS access_level").
		Joins("JOIN task_access ON task_access.task_id = tasks.id").
		Where("task_access.user_id = ?", filter.UserID)

	if filter.RootOnly {
		q = q.Where("tasks.parent_id IS NULL")
	}
	if s := strings.TrimSpace(filter.Query); s != "" {
		pattern := containsPattern(s)
		q = q.Where(`(LOWER(tasks.title) LIKE ? ESCAPE '\' OR LOWER(tasks.description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if filter.Status != nil {
		q = q.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		q = q.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.CategoryID != nil {
		q = q.Where("tasks.category_id = ?", *filter.CategoryID)
	}
	if filter.Level != nil {
		q = q.Where("task_access.level = ?", *filter.Level)
	}
	if filter.NoDueDate {
		q = q.Where("tasks.due_date IS NULL")
	}
	if filter.DueFrom != nil {
		q = q.Where("tasks.due_date >= ?", filter.DueFrom.UTC())
	}
	if filter.DueTo != nil {
		q = q.Where("tasks.due_date < ?", filter.DueTo.UTC())
	}
	if filter.OnlyNotNotified {
		q = q.Where("tasks.notified = ?", false)
	}

	column := ValidateSortField(filter.SortBy, TaskSortFields, "created_at")
	q = q.Order(column + " " + ValidateSortOrder(filter.SortOrder)).Order("tasks.id ASC")

	var rows []visibleTaskRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]task.VisibleTask, len(rows))
	for i := range rows {
		result[i] = task.VisibleTask{Task: rows[i].TaskModel.ToDomain(), Level: rows[i].AccessLevel}
	}
	return result, nil
}

// CountSubtasks returns the number of subtasks per parent; parents without
// subtasks are absent from the map.
func (r *GormTaskRepository) CountSubtasks(ctx context.Context, parentIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(parentIDs))
	if len(parentIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ParentID uuid.UUID
		Total    int
	}
	if err := r.db.WithContext(ctx).
		Model(&models.TaskModel{}).
		Select("parent_id, COUNT(*) AS total").
		Where("parent_id IN ?", parentIDs).
		Group("parent_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ParentID] = row.Total
	}
	return counts, nil
}

// SetCategoryForSubtasks copies the parent's category to all its subtasks
func (r *GormTaskRepository) SetCategoryForSubtasks(ctx context.Context, parentID uuid.UUID, categoryID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.TaskModel{}).
		Where("parent_id = ?", parentID).
		Updates(map[string]any{"category_id": categoryID, "updated_at": time.Now().UTC()}).Error
}

// FindNotNotifiedDueBetween returns unfinished tasks due in [from, to) whose
// reminder has not been sent
func (r *GormTaskRepository) FindNotNotifiedDueBetween(ctx context.Context, from, to time.Time) ([]*task.Task, error) {
	var taskModels []models.TaskModel
	if err := r.db.WithContext(ctx).
		Where("notified = ? AND status <> ?", false, task.StatusDone).
		Where("due_date >= ? AND due_date < ?", from.UTC(), to.UTC()).
		Order("due_date ASC").
		Find(&taskModels).Error; err != nil {
		return nil, err
	}
	return toTasks(taskModels), nil
}

// MarkNotified flags the tasks' reminders as sent
func (r *GormTaskRepository) MarkNotified(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.TaskModel{}).
		Where("id IN ?", ids).
		Update("notified", true).Error
}

// FindOwnedWithDueDate returns the owner's tasks that have a due date
func (r *GormTaskRepository) FindOwnedWithDueDate(ctx context.Context, ownerID uuid.UUID) ([]*task.Task, error) {
	var taskModels []models.TaskModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND due_date IS NOT NULL", ownerID).
		Order("due_date ASC").
		Find(&taskModels).Error; err != nil {
		return nil, err
	}
	return toTasks(taskModels), nil
}

// FindByCalendarEventIDs returns the owner's tasks linked to the given events
func (r *GormTaskRepository) FindByCalendarEventIDs(ctx context.Context, ownerID uuid.UUID, eventIDs []string) ([]*task.Task, error) {
	if len(eventIDs) == 0 {
		return []*task.Task{}, nil
	}
	var taskModels []models.TaskModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND google_event_id IN ?", ownerID, eventIDs).
		Find(&taskModels).Error; err != nil {
		return nil, err
	}
	return toTasks(taskModels), nil
}

// ClearCalendarLinks removes event references from the owner's tasks. A nil
// eventIDs clears every linked task.
func (r *GormTaskRepository) ClearCalendarLinks(ctx context.Context, ownerID uuid.UUID, eventIDs []string) error {
	q := r.db.WithContext(ctx).
		Model(&models.TaskModel{}).
		Where("owner_id = ? AND google_event_id <> ''", ownerID)
	if eventIDs != nil {
		if len(eventIDs) == 0 {
			return nil
		}
		q = q.Where("google_event_id IN ?", eventIDs)
	}
	return q.Updates(map[string]any{
		"google_event_id": "",
		"calendar_id":     "",
		"last_synced_at":  nil,
	}).Error
}

func toTasks(taskModels []models.TaskModel) []*task.Task {
	tasks := make([]*task.Task, len(taskModels))
	for i := range taskModels {
		tasks[i] = taskModels[i].ToDomain()
	}
	return tasks
}

var _ task.TaskRepository = (*GormTaskRepository)(nil)
