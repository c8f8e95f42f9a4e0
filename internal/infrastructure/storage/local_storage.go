package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	identityapp "github.com/taskflow/backend/internal/application/identity"
	"github.com/taskflow/backend/internal/domain/identity"
)

var _ identityapp.AvatarStorage = (*LocalAvatarStorage)(nil)

// LocalAvatarStorage stores avatars below a directory on disk
type LocalAvatarStorage struct {
	root      string
	publicURL string
}

// NewLocalAvatarStorage creates the root directory if needed
func NewLocalAvatarStorage(root, publicURL string) (*LocalAvatarStorage, error) {
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalAvatarStorage{root: abs, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Root returns the absolute storage directory
func (s *LocalAvatarStorage) Root() string {
	return s.root
}

// Resolve maps a key to a file path, rejecting keys that escape the root
func (s *LocalAvatarStorage) Resolve(key string) (string, error) {
	if err := identity.CheckAvatarKey(key); err != nil {
		return "", err
	}
	p := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", identity.ErrInvalidFilePath
	}
	return p, nil
}

// Put writes the avatar atomically via a temporary file
func (s *LocalAvatarStorage) Put(_ context.Context, key string, data []byte, _ string) error {
	p, err := s.Resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create avatar directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write avatar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write avatar: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("failed to store avatar: %w", err)
	}
	return nil
}

// Delete removes the avatar file. Deleting a missing key succeeds.
func (s *LocalAvatarStorage) Delete(_ context.Context, key string) error {
	p, err := s.Resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete avatar: %w", err)
	}
	return nil
}

// URL joins the public prefix and the key
func (s *LocalAvatarStorage) URL(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return s.publicURL + "/" + key, nil
}
