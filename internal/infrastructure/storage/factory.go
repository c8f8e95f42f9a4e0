package storage

import (
	"context"
	"fmt"

	identityapp "github.com/taskflow/backend/internal/application/identity"
	infraconfig "github.com/taskflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewAvatarStorage builds the backend selected by cfg.Type. The S3 bucket is
// created when missing.
func NewAvatarStorage(ctx context.Context, cfg *infraconfig.StorageConfig, logger *zap.Logger) (identityapp.AvatarStorage, error) {
	switch cfg.Type {
	case "s3":
		s, err := NewS3AvatarStorage(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		logger.Info("Avatar storage: S3", zap.String("bucket", s.Bucket()))
		return s, nil
	case "local", "":
		s, err := NewLocalAvatarStorage(cfg.LocalRoot, cfg.PublicURL)
		if err != nil {
			return nil, err
		}
		logger.Info("Avatar storage: local", zap.String("root", s.Root()))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
