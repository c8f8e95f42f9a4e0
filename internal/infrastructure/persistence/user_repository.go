package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return translate(r.db.WithContext(ctx).Create(models.UserModelFromDomain(user)).Error, shared.ErrNotFound)
}

// Update updates an existing user
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	result := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ?", user.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(models.UserModelFromDomain(user))
	if result.Error != nil {
		return translate(result.Error, shared.ErrNotFound)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the user together with everything that belongs to them:
// owned tasks (and their subtasks and grants), grants on other tasks,
// invitations, notifications, progress, categories and calendar data.
func (r *GormUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []uuid.UUID
		if err := tx.Model(&models.TaskModel{}).Where("owner_id = ?", id).Pluck("id", &owned).Error; err != nil {
			return err
		}
		if err := deleteTaskTree(tx, owned); err != nil {
			return err
		}

		var categoryIDs []uuid.UUID
		if err := tx.Model(&models.CategoryModel{}).Where("owner_id = ?", id).Pluck("id", &categoryIDs).Error; err != nil {
			return err
		}
		if len(categoryIDs) > 0 {
			if err := tx.Model(&models.TaskModel{}).
				Where("category_id IN ?", categoryIDs).
				Update("category_id", nil).Error; err != nil {
				return err
			}
		}

		cleanups := []struct {
			model any
			where string
		}{
			{&models.TaskAccessModel{}, "user_id = ?"},
			{&models.InvitationModel{}, "sender_id = ? OR recipient_id = ?"},
			{&models.CommentModel{}, "author_id = ?"},
			{&models.NotificationModel{}, "user_id = ?"},
			{&models.UserAchievementModel{}, "user_id = ?"},
			{&models.GoogleTokenModel{}, "user_id = ?"},
			{&models.SyncHistoryModel{}, "user_id = ?"},
			{&models.CategoryModel{}, "owner_id = ?"},
		}
		for _, c := range cleanups {
			args := []any{id}
			if strings.Count(c.where, "?") == 2 {
				args = append(args, id)
			}
			if err := tx.Where(c.where, args...).Delete(c.model).Error; err != nil {
				return err
			}
		}

		result := tx.Delete(&models.UserModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, shared.ErrNotFound)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the users with the given IDs; missing IDs are skipped
func (r *GormUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.User, error) {
	if len(ids) == 0 {
		return []*identity.User{}, nil
	}
	var userModels []models.UserModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&userModels).Error; err != nil {
		return nil, err
	}
	return toUsers(userModels), nil
}

// FindByUsername finds a user by username, case-insensitively
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&model).Error; err != nil {
		return nil, translate(err, shared.ErrNotFound)
	}
	return model.ToDomain(), nil
}

// FindByEmail finds a user by email, case-insensitively
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	if email == "" {
		return nil, shared.ErrNotFound
	}
	var model models.UserModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&model).Error; err != nil {
		return nil, translate(err, shared.ErrNotFound)
	}
	return model.ToDomain(), nil
}

// FindAll returns every user ordered by username
func (r *GormUserRepository) FindAll(ctx context.Context) ([]*identity.User, error) {
	var userModels []models.UserModel
	if err := r.db.WithContext(ctx).Order("username ASC").Find(&userModels).Error; err != nil {
		return nil, err
	}
	return toUsers(userModels), nil
}

// Search matches usernames containing query, excluding administrators
func (r *GormUserRepository) Search(ctx context.Context, query string, limit int) ([]*identity.User, error) {
	var userModels []models.UserModel
	q := r.db.WithContext(ctx).
		Where("role <> ?", identity.RoleAdmin).
		Order("username ASC")
	if strings.TrimSpace(query) != "" {
		q = q.Where(`LOWER(username) LIKE ? ESCAPE '\'`, containsPattern(query))
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&userModels).Error; err != nil {
		return nil, err
	}
	return toUsers(userModels), nil
}

// ExistsByUsername checks if a username is taken
func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsByEmail checks if an email is taken
func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// MaxNotificationInterval returns the largest reminder interval among users
// with task notifications enabled, or 0 when nobody has them on.
func (r *GormUserRepository) MaxNotificationInterval(ctx context.Context) (int, error) {
	var query string
	switch r.db.Dialector.Name() {
	case "sqlite":
		query = `SELECT COALESCE(MAX(CAST(json_extract(settings, '$.task_notification_interval') AS INTEGER)), 0)
			FROM users WHERE json_extract(settings, '$.task_enabled') = 1`
	default:
		query = `SELECT COALESCE(MAX((settings->>'task_notification_interval')::int), 0)
			FROM users WHERE (settings->>'task_enabled')::boolean`
	}

	var maxInterval int
	if err := r.db.WithContext(ctx).Raw(query).Scan(&maxInterval).Error; err != nil {
		return 0, err
	}
	return maxInterval, nil
}

func toUsers(userModels []models.UserModel) []*identity.User {
	users := make([]*identity.User, len(userModels))
	for i := range userModels {
		users[i] = userModels[i].ToDomain()
	}
	return users
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
