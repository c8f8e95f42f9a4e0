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
	"github.com/taskflow/backend/internal/infrastructure/auth"
	"github.com/taskflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Helper function to create a test user
func createTestUser(t *testing.T, username string) *identity.User {
	t.Helper()
	user, err := identity.NewUser(username, username+"@example.com", "Password123")
	require.NoError(t, err)
	return user
}

type authFixture struct {
	service      *AuthService
	users        *MockUserRepository
	achievements *MockUserAchievementRepository
	sessions     *auth.SessionService
	blacklist    *auth.InMemoryTokenBlacklist
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:        new(MockUserRepository),
		achievements: new(MockUserAchievementRepository),
		sessions: auth.NewSessionService(config.SessionConfig{
			Secret:     "test-secret-key-that-is-at-least-32-chars",
			Expiration: time.Hour,
			Issuer:     "taskflow-test",
		}),
		blacklist: auth.NewInMemoryTokenBlacklist(),
	}
	f.service = NewAuthService(f.users, f.achievements, f.sessions, f.blacklist, nil, zap.NewNop())
	return f
}

func TestAuthService_Register_Success(t *testing.T) {
	f := newAuthFixture()
	f.users.On("ExistsByUsername", mock.Anything, "alice").Return(false, nil)
	f.users.On("ExistsByEmail", mock.Anything, "alice@example.com").Return(false, nil)
	f.users.On("Create", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)
	f.achievements.On("SeedForUser", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil)

	resp, err := f.service.Register(context.Background(), RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret1",
	})

	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "USER", resp.Role)
	assert.True(t, resp.Settings.TaskEnabled)
	f.users.AssertExpectations(t)
	f.achievements.AssertExpectations(t)
}

func TestAuthService_Register_Duplicates(t *testing.T) {
	t.Run("username", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("ExistsByUsername", mock.Anything, "alice").Return(true, nil)

		_, err := f.service.Register(context.Background(), RegisterRequest{Username: "alice", Email: "a@example.com", Password: "secret1"})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "USERNAME_EXISTS", domainErr.Code)
		assert.Equal(t, "Username already exists", domainErr.Message)
		f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("email", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("ExistsByUsername", mock.Anything, "bob").Return(false, nil)
		f.users.On("ExistsByEmail", mock.Anything, "a@example.com").Return(true, nil)

		_, err := f.service.Register(context.Background(), RegisterRequest{Username: "bob", Email: "a@example.com", Password: "secret1"})

		assert.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("unique index race", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("ExistsByUsername", mock.Anything, "carol").Return(false, nil)
		f.users.On("ExistsByEmail", mock.Anything, "c@example.com").Return(false, nil)
		f.users.On("Create", mock.Anything, mock.Anything).Return(shared.ErrAlreadyExists)

		_, err := f.service.Register(context.Background(), RegisterRequest{Username: "carol", Email: "c@example.com", Password: "secret1"})

		assert.ErrorIs(t, err, ErrUsernameExists)
	})
}

func TestAuthService_Register_SeedFailureDoesNotFail(t *testing.T) {
	f := newAuthFixture()
	f.users.On("ExistsByUsername", mock.Anything, "dave").Return(false, nil)
	f.users.On("ExistsByEmail", mock.Anything, "dave@example.com").Return(false, nil)
	f.users.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.achievements.On("SeedForUser", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := f.service.Register(context.Background(), RegisterRequest{Username: "dave", Email: "dave@example.com", Password: "secret1"})
	assert.NoError(t, err)
}

func TestAuthService_Login(t *testing.T) {
	user := createTestUser(t, "alice")

	t.Run("by username", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("FindByUsername", mock.Anything, "alice").Return(user, nil)

		result, err := f.service.Login(context.Background(), LoginRequest{Username: "alice", Password: "Password123"})

		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.NotEmpty(t, result.SessionID)
		assert.Equal(t, user.ID, result.User.ID)

		principal, err := f.service.Authenticate(context.Background(), result.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, principal.UserID)
		assert.Equal(t, result.SessionID, principal.SessionID)
		assert.False(t, principal.IsAdmin())
	})

	t.Run("by email", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("FindByEmail", mock.Anything, "alice@example.com").Return(user, nil)

		_, err := f.service.Login(context.Background(), LoginRequest{Username: "alice@example.com", Password: "Password123"})
		assert.NoError(t, err)
		f.users.AssertNotCalled(t, "FindByUsername", mock.Anything, mock.Anything)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("FindByUsername", mock.Anything, "alice").Return(user, nil)

		_, err := f.service.Login(context.Background(), LoginRequest{Username: "alice", Password: "wrong-password"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("FindByUsername", mock.Anything, "nobody").Return(nil, shared.ErrNotFound)

		_, err := f.service.Login(context.Background(), LoginRequest{Username: "nobody", Password: "Password123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_LogoutRevokesSession(t *testing.T) {
	f := newAuthFixture()
	user := createTestUser(t, "alice")
	f.users.On("FindByUsername", mock.Anything, "alice").Return(user, nil)
	ctx := context.Background()

	result, err := f.service.Login(ctx, LoginRequest{Username: "alice", Password: "Password123"})
	require.NoError(t, err)
	principal, err := f.service.Authenticate(ctx, result.Token)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, *principal))

	_, err = f.service.Authenticate(ctx, result.Token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestAuthService_Authenticate_Rejects(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.service.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrSessionInvalid)

	_, err = f.service.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrSessionInvalid)

	userID := uuid.New()
	session, err := f.sessions.Issue(userID, "erin", "USER")
	require.NoError(t, err)
	// Revocations cover tokens issued before the current second
	time.Sleep(1100 * time.Millisecond)
	require.NoError(t, f.blacklist.AddUserTokensToBlacklist(ctx, userID.String(), time.Hour))

	_, err = f.service.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestAuthService_Me(t *testing.T) {
	f := newAuthFixture()
	user := createTestUser(t, "alice")
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	f.users.On("FindByID", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)

	resp, err := f.service.Me(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", resp.Email)

	_, err = f.service.Me(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
