package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/notification"
	"github.com/taskflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormNotificationRepository implements notification.Repository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create creates a new notification
func (r *GormNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return r.db.WithContext(ctx).Create(models.NotificationModelFromDomain(n)).Error
}

// Update stores the read and closed flags
func (r *GormNotificationRepository) Update(ctx context.Context, n *notification.Notification) error {
	result := r.db.WithContext(ctx).
		Model(&models.NotificationModel{}).
		Where("id = ?", n.ID).
		Updates(map[string]any{"is_read": n.IsRead, "is_closed": n.IsClosed})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

// FindByID finds a notification by ID
func (r *GormNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	var model models.NotificationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, notification.ErrNotificationNotFound)
	}
	return model.ToDomain(), nil
}

// FindByUser returns the user's notifications newest first
func (r *GormNotificationRepository) FindByUser(ctx context.Context, userID uuid.UUID, onlyOpen bool) ([]*notification.Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if onlyOpen {
		q = q.Where("is_closed = ?", false)
	}
	var notificationModels []models.NotificationModel
	if err := q.Order("created_at DESC").Find(&notificationModels).Error; err != nil {
		return nil, err
	}
	result := make([]*notification.Notification, len(notificationModels))
	for i := range notificationModels {
		result[i] = notificationModels[i].ToDomain()
	}
	return result, nil
}

// DeleteClosedBefore removes closed notifications created before cutoff
func (r *GormNotificationRepository) DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("is_closed = ? AND created_at < ?", true, cutoff.UTC()).
		Delete(&models.NotificationModel{})
	return result.RowsAffected, result.Error
}

var _ notification.Repository = (*GormNotificationRepository)(nil)
