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

// GormInvitationRepository implements invitation.Repository using GORM
type GormInvitationRepository struct {
	db *gorm.DB
}

// NewGormInvitationRepository creates a new GormInvitationRepository
func NewGormInvitationRepository(db *gorm.DB) *GormInvitationRepository {
	return &GormInvitationRepository{db: db}
}

// Create creates a new invitation
func (r *GormInvitationRepository) Create(ctx context.Context, i *invitation.Invitation) error {
	return r.db.WithContext(ctx).Create(models.InvitationModelFromDomain(i)).Error
}

// Update stores the invitation status
func (r *GormInvitationRepository) Update(ctx context.Context, i *invitation.Invitation) error {
	return updateInvitation(r.db.WithContext(ctx), i)
}

// Accept stores the answered invitation and the new grant atomically. The
// status update is conditional on the row still being PENDING, so two
// concurrent accepts cannot both create a grant.
func (r *GormInvitationRepository) Accept(ctx context.Context, i *invitation.Invitation, access *task.TaskAccess) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateInvitation(tx, i); err != nil {
			return err
		}
		err := translate(tx.Create(models.TaskAccessModelFromDomain(access)).Error, task.ErrAccessNotFound)
		if errors.Is(err, shared.ErrAlreadyExists) {
			return invitation.ErrAlreadyHasAccess
		}
		return err
	})
}

func updateInvitation(db *gorm.DB, i *invitation.Invitation) error {
	result := db.Model(&models.InvitationModel{}).
		Where("id = ? AND status = ?", i.ID, invitation.StatusPending).
		Updates(map[string]any{
			"status":       i.Status,
			"responded_at": i.RespondedAt,
			"updated_at":   i.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.InvitationModel{}).Where("id = ?", i.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return invitation.ErrInvitationNotFound
		}
		return invitation.ErrNotPending
	}
	return nil
}

// FindByID finds an invitation by ID
func (r *GormInvitationRepository) FindByID(ctx context.Context, id uuid.UUID) (*invitation.Invitation, error) {
	var model models.InvitationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err, invitation.ErrInvitationNotFound)
	}
	return model.ToDomain(), nil
}

// FindPendingByRecipient returns the recipient's pending invitations, newest first
func (r *GormInvitationRepository) FindPendingByRecipient(ctx context.Context, recipientID uuid.UUID) ([]*invitation.Invitation, error) {
	var invitationModels []models.InvitationModel
	if err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND status = ?", recipientID, invitation.StatusPending).
		Order("created_at DESC").
		Find(&invitationModels).Error; err != nil {
		return nil, err
	}
	invitations := make([]*invitation.Invitation, len(invitationModels))
	for i := range invitationModels {
		invitations[i] = invitationModels[i].ToDomain()
	}
	return invitations, nil
}

// ExistsPending reports whether recipientID already has a pending invitation for taskID
func (r *GormInvitationRepository) ExistsPending(ctx context.Context, taskID, recipientID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvitationModel{}).
		Where("task_id = ? AND recipient_id = ? AND status = ?", taskID, recipientID, invitation.StatusPending).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ invitation.Repository = (*GormInvitationRepository)(nil)
