package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

func TestLocalAvatarStorage_PutDelete(t *testing.T) {
	s, err := NewLocalAvatarStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)
	ctx := context.Background()
	key := "avatars/abc_def.png"

	require.NoError(t, s.Put(ctx, key, []byte("img"), "image/png"))

	data, err := os.ReadFile(filepath.Join(s.Root(), "avatars", "abc_def.png"))
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	u, err := s.URL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/avatars/abc_def.png", u)

	require.NoError(t, s.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(s.Root(), "avatars", "abc_def.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(ctx, key), "deleting a missing avatar succeeds")
}

func TestLocalAvatarStorage_Resolve(t *testing.T) {
	s, err := NewLocalAvatarStorage(t.TempDir(), "")
	require.NoError(t, err)

	p, err := s.Resolve("avatars/x.gif")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "avatars", "x.gif"), p)

	for _, key := range []string{"avatars/../../etc/passwd", "../avatars/x.png", "x.png", `avatars\..\..\x.png`} {
		_, err := s.Resolve(key)
		assert.ErrorIs(t, err, identity.ErrInvalidFilePath, key)
	}
}

func TestNewLocalAvatarStorage_RequiresRoot(t *testing.T) {
	_, err := NewLocalAvatarStorage("", "")
	assert.Error(t, err)
}

func TestNewAvatarStorage(t *testing.T) {
	s, err := NewAvatarStorage(context.Background(), &config.StorageConfig{Type: "local", LocalRoot: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LocalAvatarStorage{}, s)

	_, err = NewAvatarStorage(context.Background(), &config.StorageConfig{Type: "ftp"}, zap.NewNop())
	assert.ErrorContains(t, err, "unknown storage type")
}
