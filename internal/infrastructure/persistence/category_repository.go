package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/task"
	"github.com/taskflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCategoryRepository implements task.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// Create creates a new category
func (r *GormCategoryRepository) Create(ctx context.Context, c *task.Category) error {
	return r.db.WithContext(ctx).Create(models.CategoryModelFromDomain(c)).Error
}

// Update updates name and color
func (r *GormCategoryRepository) Update(ctx context.Context, c *task.Category) error {
	result := r.db.WithContext(ctx).
		Model(&models.CategoryModel{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{"name": c.Name, "color": c.Color, "updated_at": c.UpdatedAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return task.ErrCategoryNotFound
	}
	return nil
}

// Delete removes the category after detaching it from every task
func (r *GormCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.TaskModel{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.CategoryModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return task.ErrCategoryNotFound
		}
		return nil
	})
}

// FindByID finds a category by ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Category, error) {
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, task.ErrCategoryNotFound)
	}
	return model.ToDomain(), nil
}

// FindByOwner returns the owner's categories ordered by name
func (r *GormCategoryRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*task.Category, error) {
	var categoryModels []models.CategoryModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&categoryModels).Error; err != nil {
		return nil, err
	}
	categories := make([]*task.Category, len(categoryModels))
	for i := range categoryModels {
		categories[i] = categoryModels[i].ToDomain()
	}
	return categories, nil
}

// IsVisibleThroughTask reports whether userID holds a grant on any task in the category
func (r *GormCategoryRepository) IsVisibleThroughTask(ctx context.Context, categoryID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TaskModel{}).
		Joins("JOIN task_access ON task_access.task_id = tasks.id").
		Where("tasks.category_id = ? AND task_access.user_id = ?", categoryID, userID).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ task.CategoryRepository = (*GormCategoryRepository)(nil)
