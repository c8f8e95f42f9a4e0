package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/calendar"
	"github.com/taskflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenCipher encrypts token strings before they reach the database
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// GormTokenRepository implements calendar.TokenRepository using GORM
type GormTokenRepository struct {
	db     *gorm.DB
	cipher TokenCipher
}

// NewGormTokenRepository creates a new GormTokenRepository
func NewGormTokenRepository(db *gorm.DB, cipher TokenCipher) *GormTokenRepository {
	return &GormTokenRepository{db: db, cipher: cipher}
}

// Save inserts or replaces the user's token
func (r *GormTokenRepository) Save(ctx context.Context, t *calendar.Token) error {
	access, err := r.cipher.Encrypt(t.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	refresh := ""
	if t.RefreshToken != "" {
		if refresh, err = r.cipher.Encrypt(t.RefreshToken); err != nil {
			return fmt.Errorf("encrypt refresh token: %w", err)
		}
	}

	model := &models.GoogleTokenModel{
		UserID:       t.UserID,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry.UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"access_token", "refresh_token", "token_type", "expiry", "updated_at"}),
		}).
		Create(model).Error
}

// FindByUser loads and decrypts the user's token
func (r *GormTokenRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*calendar.Token, error) {
	var model models.GoogleTokenModel
	if err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err, calendar.ErrNotConnected)
	}

	access, err := r.cipher.Decrypt(model.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token: %w", err)
	}
	refresh := ""
	if model.RefreshToken != "" {
		if refresh, err = r.cipher.Decrypt(model.RefreshToken); err != nil {
			return nil, fmt.Errorf("decrypt refresh token: %w", err)
		}
	}
	return &calendar.Token{
		UserID:       model.UserID,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    model.TokenType,
		Expiry:       model.Expiry,
		UpdatedAt:    model.UpdatedAt,
	}, nil
}

// Delete removes the user's token; deleting a missing token is not an error
func (r *GormTokenRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.GoogleTokenModel{}, "user_id = ?", userID).Error
}

var _ calendar.TokenRepository = (*GormTokenRepository)(nil)

// GormSyncHistoryRepository implements calendar.SyncHistoryRepository using GORM
type GormSyncHistoryRepository struct {
	db *gorm.DB
}

// NewGormSyncHistoryRepository creates a new GormSyncHistoryRepository
func NewGormSyncHistoryRepository(db *gorm.DB) *GormSyncHistoryRepository {
	return &GormSyncHistoryRepository{db: db}
}

// Create records a sync run
func (r *GormSyncHistoryRepository) Create(ctx context.Context, h *calendar.SyncHistory) error {
	return r.db.WithContext(ctx).Create(models.SyncHistoryModelFromDomain(h)).Error
}

// Update stores the run's status
func (r *GormSyncHistoryRepository) Update(ctx context.Context, h *calendar.SyncHistory) error {
	result := r.db.WithContext(ctx).
		Model(&models.SyncHistoryModel{}).
		Where("id = ?", h.ID).
		Updates(map[string]any{"status": h.Status, "error": h.Error})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return calendar.ErrNoRecentSync
	}
	return nil
}

// FindLatestCompletedSince returns the newest COMPLETED run at or after since
func (r *GormSyncHistoryRepository) FindLatestCompletedSince(ctx context.Context, userID uuid.UUID, since time.Time) (*calendar.SyncHistory, error) {
	var model models.SyncHistoryModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND synced_at >= ?", userID, calendar.SyncCompleted, since.UTC()).
		Order("synced_at DESC").
		First(&model).Error; err != nil {
		return nil, translate(err, calendar.ErrNoRecentSync)
	}
	return model.ToDomain(), nil
}

// DeleteByUser removes the user's sync history
func (r *GormSyncHistoryRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.SyncHistoryModel{}, "user_id = ?", userID).Error
}

var _ calendar.SyncHistoryRepository = (*GormSyncHistoryRepository)(nil)
