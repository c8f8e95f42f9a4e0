package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/task"
	"github.com/taskflow/backend/internal/infrastructure/cache"
	"go.uber.org/zap"
)

// AccessCachePrefix namespaces the cached permission entries
const AccessCachePrefix = "access:"

// DefaultAccessCacheTTL is how long a resolved level is cached
const DefaultAccessCacheTTL = 10 * time.Minute

// TaskPermissionService resolves a user's access level on a task. Subtasks
// without their own grant inherit the level held on the parent. Resolved
// levels are cached per (user, task) and dropped on every grant change.
type TaskPermissionService struct {
	taskRepo   task.TaskRepository
	accessRepo task.AccessRepository
	store      cache.Store
	ttl        time.Duration
	logger     *zap.Logger
}

// NewTaskPermissionService creates a new permission service
func NewTaskPermissionService(
	taskRepo task.TaskRepository,
	accessRepo task.AccessRepository,
	store cache.Store,
	ttl time.Duration,
	logger *zap.Logger,
) *TaskPermissionService {
	if ttl <= 0 {
		ttl = DefaultAccessCacheTTL
	}
	return &TaskPermissionService{
		taskRepo:   taskRepo,
		accessRepo: accessRepo,
		store:      store,
		ttl:        ttl,
		logger:     logger,
	}
}

func userPrefix(userID uuid.UUID) string {
	return AccessCachePrefix + userID.String() + ":"
}

func accessKey(userID, taskID uuid.UUID) string {
	return userPrefix(userID) + taskID.String()
}

// Level returns the user's level on the task, ErrTaskNotFound for a missing
// task and ErrAccessDenied when the user holds no grant
func (s *TaskPermissionService) Level(ctx context.Context, userID, taskID uuid.UUID) (task.AccessLevel, error) {
	key := accessKey(userID, taskID)
	if cached, ok, err := s.store.Get(ctx, key); err != nil {
		s.logger.Warn("Access cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return task.AccessLevel(cached), nil
	}

	level, err := s.resolve(ctx, userID, taskID)
	if err != nil {
		return "", err
	}
	if err := s.store.Set(ctx, key, string(level), s.ttl); err != nil {
		s.logger.Warn("Access cache write failed", zap.String("key", key), zap.Error(err))
	}
	return level, nil
}

func (s *TaskPermissionService) resolve(ctx context.Context, userID, taskID uuid.UUID) (task.AccessLevel, error) {
	grant, err := s.accessRepo.FindByTaskAndUser(ctx, taskID, userID)
	if err == nil {
		return grant.Level, nil
	}
	if !errors.Is(err, task.ErrAccessNotFound) {
		return "", err
	}

	t, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return "", err
	}
	if t.ParentID == nil {
		return "", task.ErrAccessDenied
	}
	grant, err = s.accessRepo.FindByTaskAndUser(ctx, *t.ParentID, userID)
	if errors.Is(err, task.ErrAccessNotFound) {
		return "", task.ErrAccessDenied
	}
	if err != nil {
		return "", err
	}
	return grant.Level, nil
}

// HasAccess reports whether the user holds any level on the task
func (s *TaskPermissionService) HasAccess(ctx context.Context, userID, taskID uuid.UUID) (bool, error) {
	_, err := s.Level(ctx, userID, taskID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, task.ErrAccessDenied), errors.Is(err, task.ErrTaskNotFound):
		return false, nil
	}
	return false, err
}

// RequireEdit fails unless the user is OWNER or EDIT
func (s *TaskPermissionService) RequireEdit(ctx context.Context, userID, taskID uuid.UUID) (task.AccessLevel, error) {
	level, err := s.Level(ctx, userID, taskID)
	if err != nil {
		return "", err
	}
	if !level.CanEdit() {
		return "", task.ErrEditAccessRequired
	}
	return level, nil
}

// RequireOwner fails unless the user is the OWNER
func (s *TaskPermissionService) RequireOwner(ctx context.Context, userID, taskID uuid.UUID) error {
	level, err := s.Level(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if level != task.AccessOwner {
		return task.ErrOwnerRequired
	}
	return nil
}

// InvalidateUser drops every cached level of the user. A change on a parent
// task also changes what its subtasks inherit, so entries are cleared per
// user rather than per task.
func (s *TaskPermissionService) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	if _, err := s.store.DeletePrefix(ctx, userPrefix(userID)); err != nil {
		s.logger.Warn("Access cache invalidation failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}

// InvalidateUsers drops the cached levels of several users
func (s *TaskPermissionService) InvalidateUsers(ctx context.Context, userIDs []uuid.UUID) {
	for _, id := range userIDs {
		s.InvalidateUser(ctx, id)
	}
}

// Flush drops the whole access cache namespace and returns how many entries
// were removed
func (s *TaskPermissionService) Flush(ctx context.Context) (int64, error) {
	return s.store.DeletePrefix(ctx, AccessCachePrefix)
}
