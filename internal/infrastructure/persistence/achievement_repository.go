package persistence

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/achievement"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAchievementRepository implements achievement.Repository using GORM
type GormAchievementRepository struct {
	db *gorm.DB
}

// NewGormAchievementRepository creates a new GormAchievementRepository
func NewGormAchievementRepository(db *gorm.DB) *GormAchievementRepository {
	return &GormAchievementRepository{db: db}
}

// Create stores the achievement and starts a zero progress row for every user
func (r *GormAchievementRepository) Create(ctx context.Context, a *achievement.Achievement) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := translate(tx.Create(models.AchievementModelFromDomain(a)).Error, achievement.ErrAchievementNotFound)
		if errors.Is(err, shared.ErrAlreadyExists) {
			return achievement.ErrAchievementExists
		}
		if err != nil {
			return err
		}

		var userIDs []uuid.UUID
		if err := tx.Model(&models.UserModel{}).Pluck("id", &userIDs).Error; err != nil {
			return err
		}
		if len(userIDs) == 0 {
			return nil
		}
		rows := make([]models.UserAchievementModel, len(userIDs))
		for i, userID := range userIDs {
			rows[i] = *models.UserAchievementModelFromDomain(achievement.NewUserAchievement(userID, a))
		}
		return tx.Omit(clause.Associations).CreateInBatches(rows, 500).Error
	})
}

// FindAll returns every achievement ordered by name
func (r *GormAchievementRepository) FindAll(ctx context.Context) ([]*achievement.Achievement, error) {
	var achievementModels []models.AchievementModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&achievementModels).Error; err != nil {
		return nil, err
	}
	result := make([]*achievement.Achievement, len(achievementModels))
	for i := range achievementModels {
		result[i] = achievementModels[i].ToDomain()
	}
	return result, nil
}

// ExistsByCode checks if an achievement with the code exists
func (r *GormAchievementRepository) ExistsByCode(ctx context.Context, code achievement.Code) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AchievementModel{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ achievement.Repository = (*GormAchievementRepository)(nil)

// GormUserAchievementRepository implements achievement.UserAchievementRepository using GORM
type GormUserAchievementRepository struct {
	db *gorm.DB
}

// NewGormUserAchievementRepository creates a new GormUserAchievementRepository
func NewGormUserAchievementRepository(db *gorm.DB) *GormUserAchievementRepository {
	return &GormUserAchievementRepository{db: db}
}

// SeedForUser creates missing progress rows; existing rows are left untouched
func (r *GormUserAchievementRepository) SeedForUser(ctx context.Context, userID uuid.UUID) error {
	var achievementModels []models.AchievementModel
	if err := r.db.WithContext(ctx).Find(&achievementModels).Error; err != nil {
		return err
	}
	if len(achievementModels) == 0 {
		return nil
	}
	rows := make([]models.UserAchievementModel, len(achievementModels))
	for i := range achievementModels {
		rows[i] = *models.UserAchievementModelFromDomain(
			achievement.NewUserAchievement(userID, achievementModels[i].ToDomain()))
	}
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

// FindByUser returns the user's progress rows with achievements loaded,
// ordered by achievement name
func (r *GormUserAchievementRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*achievement.UserAchievement, error) {
	var rows []models.UserAchievementModel
	if err := r.db.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]*achievement.UserAchievement, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	sort.SliceStable(result, func(i, j int) bool {
		return achievementName(result[i]) < achievementName(result[j])
	})
	return result, nil
}

// Update stores progress and completion
func (r *GormUserAchievementRepository) Update(ctx context.Context, ua *achievement.UserAchievement) error {
	result := r.db.WithContext(ctx).
		Model(&models.UserAchievementModel{}).
		Where("id = ?", ua.ID).
		Updates(map[string]any{
			"progress":     ua.Progress,
			"completed":    ua.Completed,
			"completed_at": ua.CompletedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return achievement.ErrAchievementNotFound
	}
	return nil
}

func achievementName(ua *achievement.UserAchievement) string {
	if ua.Achievement == nil {
		return ""
	}
	return ua.Achievement.Name
}

var _ achievement.UserAchievementRepository = (*GormUserAchievementRepository)(nil)
