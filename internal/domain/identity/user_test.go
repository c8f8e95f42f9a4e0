package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("creates user with defaults", func(t *testing.T) {
		user, err := NewUser("alice", "Alice@Example.com", "secret1")

		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, RoleUser, user.Role)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotEqual(t, "secret1", user.PasswordHash)
		assert.Equal(t, DefaultNotificationSettings(), user.Settings)
	})

	t.Run("keeps username case", func(t *testing.T) {
		user, err := NewUser("  Alice  ", "a@example.com", "secret1")

		require.NoError(t, err)
		assert.Equal(t, "Alice", user.Username)
	})

	t.Run("rejects short username", func(t *testing.T) {
		_, err := NewUser("ab", "a@example.com", "secret1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "at least 3 characters")
	})

	t.Run("rejects invalid username characters", func(t *testing.T) {
		_, err := NewUser("al ice", "a@example.com", "secret1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "only contain letters")
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := NewUser("alice", "not-an-email", "secret1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid email")
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, err := NewUser("alice", "a@example.com", "12345")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "at least 6 characters")
	})
}

func TestUser_ChangePassword(t *testing.T) {
	user, err := NewUser("alice", "a@example.com", "secret1")
	require.NoError(t, err)

	t.Run("rejects wrong current password", func(t *testing.T) {
		err := user.ChangePassword("wrong", "secret2")

		assert.EqualError(t, err, "Current password is incorrect")
	})

	t.Run("rejects unchanged password", func(t *testing.T) {
		err := user.ChangePassword("secret1", "secret1")

		assert.EqualError(t, err, "New password must differ from the current one")
	})

	t.Run("changes password", func(t *testing.T) {
		require.NoError(t, user.ChangePassword("secret1", "secret2"))

		assert.True(t, user.VerifyPassword("secret2"))
		assert.False(t, user.VerifyPassword("secret1"))
	})
}

func TestUser_SetBio(t *testing.T) {
	user, err := NewUser("alice", "a@example.com", "secret1")
	require.NoError(t, err)

	bio := strings.Repeat("ж", maxBioLength)
	require.NoError(t, user.SetBio(bio))
	assert.Equal(t, bio, user.Bio)

	assert.Error(t, user.SetBio(bio+"ж"))
	assert.Equal(t, bio, user.Bio)
}

func TestUser_SetAvatar(t *testing.T) {
	user, err := NewUser("alice", "a@example.com", "secret1")
	require.NoError(t, err)

	assert.Empty(t, user.SetAvatar("avatars/one.png"))
	assert.Equal(t, "avatars/one.png", user.SetAvatar("avatars/two.png"))
	assert.Equal(t, "avatars/two.png", user.Avatar)
}

func TestUser_SetRole(t *testing.T) {
	user, err := NewUser("alice", "a@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, user.SetRole(RoleAdmin))
	assert.True(t, user.IsAdmin())

	assert.Error(t, user.SetRole(Role("ROOT")))
	assert.True(t, user.IsAdmin())
}

func TestNotificationSettings_Validate(t *testing.T) {
	tests := []struct {
		name     string
		interval int
		wantErr  bool
	}{
		{"default", DefaultTaskNotificationInterval, false},
		{"minimum", 1, false},
		{"maximum", MaxTaskNotificationInterval, false},
		{"zero", 0, true},
		{"too large", MaxTaskNotificationInterval + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultNotificationSettings()
			s.TaskNotificationInterval = tt.interval

			err := s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
