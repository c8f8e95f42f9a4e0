package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/taskflow/backend/internal/domain/achievement"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/task"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context) ([]*identity.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) Search(ctx context.Context, query string, limit int) ([]*identity.User, error) {
	args := m.Called(ctx, query, limit)
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) MaxNotificationInterval(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockUserAchievementRepository is a mock implementation of achievement.UserAchievementRepository
type MockUserAchievementRepository struct {
	mock.Mock
}

func (m *MockUserAchievementRepository) SeedForUser(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockUserAchievementRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*achievement.UserAchievement, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*achievement.UserAchievement), args.Error(1)
}

func (m *MockUserAchievementRepository) Update(ctx context.Context, ua *achievement.UserAchievement) error {
	return m.Called(ctx, ua).Error(0)
}

// MockAccessRepository is a mock implementation of task.AccessRepository
type MockAccessRepository struct {
	mock.Mock
}

func (m *MockAccessRepository) Create(ctx context.Context, a *task.TaskAccess) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAccessRepository) Update(ctx context.Context, a *task.TaskAccess) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAccessRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAccessRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.TaskAccess, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.TaskAccess), args.Error(1)
}

func (m *MockAccessRepository) FindByTaskAndUser(ctx context.Context, taskID, userID uuid.UUID) (*task.TaskAccess, error) {
	args := m.Called(ctx, taskID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.TaskAccess), args.Error(1)
}

func (m *MockAccessRepository) FindByTask(ctx context.Context, taskID uuid.UUID) ([]*task.TaskAccess, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).([]*task.TaskAccess), args.Error(1)
}

func (m *MockAccessRepository) FindSharedOwnerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockAvatarStorage is a mock implementation of AvatarStorage
type MockAvatarStorage struct {
	mock.Mock
}

func (m *MockAvatarStorage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *MockAvatarStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockAvatarStorage) URL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}
