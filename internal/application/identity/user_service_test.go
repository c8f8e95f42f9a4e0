package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
	"github.com/taskflow/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("changes username and bio", func(t *testing.T) {
		users := new(MockUserRepository)
		user := createTestUser(t, "alice")
		users.On("FindByID", ctx, user.ID).Return(user, nil)
		users.On("ExistsByUsername", ctx, "alice2").Return(false, nil)
		users.On("Update", ctx, user).Return(nil)
		svc := NewUserService(users, new(MockAccessRepository), nil, zap.NewNop())

		resp, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
			Username: strPtr("alice2"),
			Bio:      strPtr("hello"),
		})

		require.NoError(t, err)
		assert.Equal(t, "alice2", resp.Username)
		assert.Equal(t, "hello", resp.Bio)
		users.AssertExpectations(t)
	})

	t.Run("taken username", func(t *testing.T) {
		users := new(MockUserRepository)
		user := createTestUser(t, "alice")
		users.On("FindByID", ctx, user.ID).Return(user, nil)
		users.On("ExistsByUsername", ctx, "bob").Return(true, nil)
		svc := NewUserService(users, new(MockAccessRepository), nil, zap.NewNop())

		_, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Username: strPtr("bob")})
		assert.ErrorIs(t, err, ErrUsernameExists)
		users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("password change rules", func(t *testing.T) {
		users := new(MockUserRepository)
		user := createTestUser(t, "alice")
		users.On("FindByID", ctx, user.ID).Return(user, nil)
		users.On("Update", ctx, user).Return(nil)
		svc := NewUserService(users, new(MockAccessRepository), nil, zap.NewNop())

		_, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{CurrentPassword: "wrong", NewPassword: "NewPass1"})
		assert.ErrorIs(t, err, shared.NewDomainError("INVALID_PASSWORD", ""))

		_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{CurrentPassword: "Password123", NewPassword: "Password123"})
		assert.ErrorIs(t, err, shared.NewDomainError("PASSWORD_UNCHANGED", ""))

		_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{CurrentPassword: "Password123", NewPassword: "NewPass1"})
		require.NoError(t, err)
		assert.True(t, user.VerifyPassword("NewPass1"))
	})
}

func TestUserService_Settings(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	user := createTestUser(t, "alice")
	users.On("FindByID", ctx, user.ID).Return(user, nil)
	users.On("Update", ctx, user).Return(nil)
	svc := NewUserService(users, new(MockAccessRepository), nil, zap.NewNop())

	got, err := svc.GetSettings(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.DefaultNotificationSettings(), *got)

	updated, err := svc.UpdateSettings(ctx, user.ID, SettingsRequest{
		TaskNotificationInterval: 30,
		TaskEnabled:              boolPtr(false),
		InvitationEnabled:        boolPtr(true),
		AchievementEnabled:       boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, 30, updated.TaskNotificationInterval)
	assert.False(t, user.Settings.TaskEnabled)
	assert.False(t, user.Settings.AchievementEnabled)

	_, err = svc.UpdateSettings(ctx, user.ID, SettingsRequest{TaskNotificationInterval: 5000})
	assert.Error(t, err)
}

func TestUserService_SearchExcludesCallerAdminsAndHolders(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	access := new(MockAccessRepository)

	caller := createTestUser(t, "caller")
	holder := createTestUser(t, "holder")
	admin := createTestUser(t, "boss")
	require.NoError(t, admin.SetRole(identity.RoleAdmin))
	free := createTestUser(t, "free")
	taskID := uuid.New()

	access.On("FindByTask", ctx, taskID).Return([]*task.TaskAccess{
		task.NewOwnerAccess(taskID, caller.ID),
		{ID: uuid.New(), TaskID: taskID, UserID: holder.ID, Level: task.AccessView},
	}, nil)
	users.On("Search", ctx, "e", mock.AnythingOfType("int")).Return([]*identity.User{caller, holder, admin, free}, nil)
	svc := NewUserService(users, access, nil, zap.NewNop())

	got, err := svc.Search(ctx, caller.ID, " e ", &taskID)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "free", got[0].Username)
}

func TestUserService_GetByUsername_ResolvesAvatarURL(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	avatars := new(MockAvatarStorage)
	user := createTestUser(t, "alice")
	user.SetAvatar("avatars/a.png")
	users.On("FindByUsername", ctx, "alice").Return(user, nil)
	users.On("FindByUsername", ctx, "ghost").Return(nil, shared.ErrNotFound)
	avatars.On("URL", ctx, "avatars/a.png").Return("/uploads/avatars/a.png", nil)
	svc := NewUserService(users, new(MockAccessRepository), avatars, zap.NewNop())

	profile, err := svc.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/avatars/a.png", profile.AvatarURL)
	assert.WithinDuration(t, time.Now(), profile.JoinedAt, time.Minute)

	_, err = svc.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdminService_ChangeRoleRevokesSessions(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	blacklist := auth.NewInMemoryTokenBlacklist()
	user := createTestUser(t, "alice")
	actor := uuid.New()
	users.On("FindByID", ctx, user.ID).Return(user, nil)
	users.On("Update", ctx, user).Return(nil)
	svc := NewAdminService(users, new(MockUserAchievementRepository), blacklist, nil, time.Hour, zap.NewNop())

	resp, err := svc.ChangeRole(ctx, actor, user.ID, ChangeRoleRequest{Role: "ADMIN"})
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", resp.Role)

	revoked, err := blacklist.IsUserTokenInvalidated(ctx, user.ID.String(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = svc.ChangeRole(ctx, actor, actor, ChangeRoleRequest{Role: "USER"})
	assert.ErrorIs(t, err, ErrCannotModifySelf)
}

func TestAdminService_DeleteRemovesAvatar(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	avatars := new(MockAvatarStorage)
	user := createTestUser(t, "alice")
	user.SetAvatar("avatars/old.png")
	users.On("FindByID", ctx, user.ID).Return(user, nil)
	users.On("Delete", ctx, user.ID).Return(nil)
	avatars.On("Delete", ctx, "avatars/old.png").Return(nil)
	svc := NewAdminService(users, new(MockUserAchievementRepository), auth.NewInMemoryTokenBlacklist(), avatars, time.Hour, zap.NewNop())

	require.NoError(t, svc.Delete(ctx, uuid.New(), user.ID))
	avatars.AssertExpectations(t)
}
