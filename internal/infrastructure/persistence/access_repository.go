package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/invitation"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
	"github.com/taskflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAccessRepository implements task.AccessRepository using GORM
type GormAccessRepository struct {
	db *gorm.DB
}

// NewGormAccessRepository creates a new GormAccessRepository
func NewGormAccessRepository(db *gorm.DB) *GormAccessRepository {
	return &GormAccessRepository{db: db}
}

// Create inserts a grant; a second grant for the same user and task is rejected
func (r *GormAccessRepository) Create(ctx context.Context, a *task.TaskAccess) error {
	err := translate(r.db.WithContext(ctx).Create(models.TaskAccessModelFromDomain(a)).Error, task.ErrAccessNotFound)
	if errors.Is(err, shared.ErrAlreadyExists) {
		return invitation.ErrAlreadyHasAccess
	}
	return err
}

// Update changes the level of an existing grant
func (r *GormAccessRepository) Update(ctx context.Context, a *task.TaskAccess) error {
	result := r.db.WithContext(ctx).
		Model(&models.TaskAccessModel{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{"level": a.Level, "updated_at": a.UpdatedAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return task.ErrAccessNotFound
	}
	return nil
}

// Delete removes a grant
func (r *GormAccessRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.TaskAccessModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return task.ErrAccessNotFound
	}
	return nil
}

// FindByID finds a grant by ID
func (r *GormAccessRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.TaskAccess, error) {
	var model models.TaskAccessModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, task.ErrAccessNotFound)
	}
	return model.ToDomain(), nil
}

// FindByTaskAndUser finds the grant userID holds on taskID
func (r *GormAccessRepository) FindByTaskAndUser(ctx context.Context, taskID, userID uuid.UUID) (*task.TaskAccess, error) {
	var model models.TaskAccessModel
	if err := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		First(&model).Error; err != nil {
		return nil, translate(err, task.ErrAccessNotFound)
	}
	return model.ToDomain(), nil
}

// FindByTask returns all grants on a task, the owner's first
func (r *GormAccessRepository) FindByTask(ctx context.Context, taskID uuid.UUID) ([]*task.TaskAccess, error) {
	var accessModels []models.TaskAccessModel
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("CASE WHEN level = 'OWNER' THEN 0 ELSE 1 END, created_at ASC").
		Find(&accessModels).Error; err != nil {
		return nil, err
	}
	grants := make([]*task.TaskAccess, len(accessModels))
	for i := range accessModels {
		grants[i] = accessModels[i].ToDomain()
	}
	return grants, nil
}

// FindSharedOwnerIDs returns the distinct owners of tasks shared with userID
func (r *GormAccessRepository) FindSharedOwnerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.TaskAccessModel{}).
		Distinct("tasks.owner_id").
		Joins("JOIN tasks ON tasks.id = task_access.task_id").
		Where("task_access.user_id = ? AND task_access.level <> ?", userID, task.AccessOwner).
		Pluck("tasks.owner_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

var _ task.AccessRepository = (*GormAccessRepository)(nil)
