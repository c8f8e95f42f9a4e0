package identity

import (
	"context"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AvatarService validates and stores profile pictures
type AvatarService struct {
	userRepo  identity.UserRepository
	avatars   AvatarStorage
	presenter presenter
	logger    *zap.Logger
}

// NewAvatarService creates a new avatar service
func NewAvatarService(userRepo identity.UserRepository, avatars AvatarStorage, logger *zap.Logger) *AvatarService {
	return &AvatarService{
		userRepo:  userRepo,
		avatars:   avatars,
		presenter: presenter{avatars: avatars},
		logger:    logger,
	}
}

// Upload checks size, name, extension and sniffed content type, stores the
// image under a fresh key and removes the previous avatar
func (s *AvatarService) Upload(ctx context.Context, userID uuid.UUID, filename string, data []byte) (*UserResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "avatar", "upload", telemetry.AttrUserID, userID.String())
	defer span.End()

	if err := identity.ValidateAvatarSize(int64(len(data))); err != nil {
		return nil, err
	}
	ext, err := identity.AvatarExtension(filename)
	if err != nil {
		return nil, err
	}
	detected := mimetype.Detect(data)
	if !identity.IsAllowedAvatarMime(detected.String()) {
		s.logger.Warn("Rejected avatar upload",
			zap.String("user_id", userID.String()),
			zap.String("detected_mime", detected.String()))
		return nil, identity.ErrInvalidMimeType
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}

	key := identity.NewAvatarKey(userID, ext)
	if err := identity.CheckAvatarKey(key); err != nil {
		return nil, err
	}
	if err := s.avatars.Put(ctx, key, data, detected.String()); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	previous := user.SetAvatar(key)
	if err := s.userRepo.Update(ctx, user); err != nil {
		if delErr := s.avatars.Delete(ctx, key); delErr != nil {
			s.logger.Warn("Failed to remove orphaned avatar", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	if previous != "" && previous != key {
		if err := s.avatars.Delete(ctx, previous); err != nil {
			s.logger.Warn("Failed to delete previous avatar",
				zap.String("user_id", userID.String()),
				zap.String("key", previous),
				zap.Error(err))
		}
	}

	s.logger.Info("Avatar uploaded",
		zap.String("user_id", userID.String()),
		zap.String("key", key),
		zap.Int("size", len(data)))

	resp := s.presenter.user(ctx, user)
	return &resp, nil
}
