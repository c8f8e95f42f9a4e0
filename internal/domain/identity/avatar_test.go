package identity

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvatarExtension(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr error
	}{
		{"me.PNG", "png", nil},
		{"photo.jpeg", "jpeg", nil},
		{"a.gif", "gif", nil},
		{"", "", ErrInvalidFileName},
		{"   ", "", ErrInvalidFileName},
		{"../etc/passwd.png", "", ErrInvalidFileName},
		{`dir\file.png`, "", ErrInvalidFileName},
		{"a..png", "", ErrInvalidFileName},
		{"doc.pdf", "", ErrInvalidMimeType},
		{"noext", "", ErrInvalidMimeType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := AvatarExtension(tt.name)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ext)
		})
	}
}

func TestValidateAvatarSize(t *testing.T) {
	assert.ErrorIs(t, ValidateAvatarSize(0), ErrFileEmpty)
	assert.ErrorIs(t, ValidateAvatarSize(MaxAvatarSize+1), ErrFileTooLarge)
	assert.NoError(t, ValidateAvatarSize(MaxAvatarSize))
}

func TestIsAllowedAvatarMime(t *testing.T) {
	assert.True(t, IsAllowedAvatarMime("image/png"))
	assert.True(t, IsAllowedAvatarMime("image/jpeg; charset=binary"))
	assert.False(t, IsAllowedAvatarMime("image/svg+xml"))
	assert.False(t, IsAllowedAvatarMime("text/plain; charset=utf-8"))
}

func TestAvatarKeys(t *testing.T) {
	userID := uuid.New()
	key := NewAvatarKey(userID, "png")

	assert.True(t, strings.HasPrefix(key, AvatarPrefix))
	assert.True(t, strings.HasSuffix(key, "_"+userID.String()+".png"))
	assert.NoError(t, CheckAvatarKey(key))

	assert.ErrorIs(t, CheckAvatarKey("avatars/../secrets.png"), ErrInvalidFilePath)
	assert.ErrorIs(t, CheckAvatarKey("other/x.png"), ErrInvalidFilePath)
	assert.ErrorIs(t, CheckAvatarKey("/avatars/x.png"), ErrInvalidFilePath)
}
