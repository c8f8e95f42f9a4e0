package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
)

// MockTaskRepository is a mock implementation of task.TaskRepository
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) CreateWithOwner(ctx context.Context, t *task.Task) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, t *task.Task) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) FindSubtasks(ctx context.Context, parentID uuid.UUID) ([]*task.Task, error) {
	args := m.Called(ctx, parentID)
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) FindVisible(ctx context.Context, filter task.TaskFilter) ([]task.VisibleTask, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]task.VisibleTask), args.Error(1)
}

func (m *MockTaskRepository) CountSubtasks(ctx context.Context, parentIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	args := m.Called(ctx, parentIDs)
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}

func (m *MockTaskRepository) SetCategoryForSubtasks(ctx context.Context, parentID uuid.UUID, categoryID *uuid.UUID) error {
	return m.Called(ctx, parentID, categoryID).Error(0)
}

func (m *MockTaskRepository) FindNotNotifiedDueBetween(ctx context.Context, from, to time.Time) ([]*task.Task, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) MarkNotified(ctx context.Context, ids []uuid.UUID) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockTaskRepository) FindOwnedWithDueDate(ctx context.Context, ownerID uuid.UUID) ([]*task.Task, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) FindByCalendarEventIDs(ctx context.Context, ownerID uuid.UUID, eventIDs []string) ([]*task.Task, error) {
	args := m.Called(ctx, ownerID, eventIDs)
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) ClearCalendarLinks(ctx context.Context, ownerID uuid.UUID, eventIDs []string) error {
	return m.Called(ctx, ownerID, eventIDs).Error(0)
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

// MockCategoryRepository is a mock implementation of task.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, c *task.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCategoryRepository) Update(ctx context.Context, c *task.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*task.Category, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]*task.Category), args.Error(1)
}

func (m *MockCategoryRepository) IsVisibleThroughTask(ctx context.Context, categoryID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, categoryID, userID)
	return args.Bool(0), args.Error(1)
}

// MockCommentRepository is a mock implementation of task.CommentRepository
type MockCommentRepository struct {
	mock.Mock
}

func (m *MockCommentRepository) Create(ctx context.Context, c *task.Comment) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCommentRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Comment), args.Error(1)
}

func (m *MockCommentRepository) FindByTask(ctx context.Context, taskID uuid.UUID) ([]*task.Comment, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).([]*task.Comment), args.Error(1)
}

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

// recordingPublisher keeps every published event
type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []shared.DomainEvent {
	var out []shared.DomainEvent
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}
