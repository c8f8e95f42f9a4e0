package task

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
	"github.com/taskflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AccessService manages the grants of a task
type AccessService struct {
	taskRepo   task.TaskRepository
	accessRepo task.AccessRepository
	userRepo   identity.UserRepository
	perms      *TaskPermissionService
	events     shared.EventPublisher
	logger     *zap.Logger
}

// NewAccessService creates a new AccessService
func NewAccessService(
	taskRepo task.TaskRepository,
	accessRepo task.AccessRepository,
	userRepo identity.UserRepository,
	perms *TaskPermissionService,
	events shared.EventPublisher,
	logger *zap.Logger,
) *AccessService {
	return &AccessService{
		taskRepo:   taskRepo,
		accessRepo: accessRepo,
		userRepo:   userRepo,
		perms:      perms,
		events:     events,
		logger:     logger,
	}
}

// List returns the grants of a task; any level may read them
func (s *AccessService) List(ctx context.Context, userID, taskID uuid.UUID) ([]AccessResponse, error) {
	if _, err := s.perms.Level(ctx, userID, taskID); err != nil {
		return nil, err
	}
	grants, err := s.accessRepo.FindByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	userIDs := make([]uuid.UUID, len(grants))
	for i, g := range grants {
		userIDs[i] = g.UserID
	}
	names := map[uuid.UUID]string{}
	if users, err := s.userRepo.FindByIDs(ctx, userIDs); err == nil {
		for _, u := range users {
			names[u.ID] = u.Username
		}
	} else {
		s.logger.Warn("Failed to load grant holders", zap.Error(err))
	}

	out := make([]AccessResponse, 0, len(grants))
	for _, g := range grants {
		out = append(out, AccessResponse{
			ID:          g.ID,
			TaskID:      g.TaskID,
			UserID:      g.UserID,
			Username:    names[g.UserID],
			AccessLevel: g.Level,
			CreatedAt:   g.CreatedAt,
		})
	}
	return out, nil
}

// UpdateLevel moves a grant between EDIT and VIEW. Only the task owner may
// do so and the OWNER grant itself is immutable.
func (s *AccessService) UpdateLevel(ctx context.Context, actorID, taskID, accessID uuid.UUID, req UpdateAccessRequest) (*AccessResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "access", "update_level",
		telemetry.AttrUserID, actorID.String(),
		telemetry.AttrTaskID, taskID.String())
	defer span.End()

	if err := s.perms.RequireOwner(ctx, actorID, taskID); err != nil {
		return nil, err
	}
	grant, t, err := s.load(ctx, taskID, accessID)
	if err != nil {
		return nil, err
	}
	if grant.Level == task.AccessLevel(req.AccessLevel) {
		return s.response(ctx, grant), nil
	}
	if err := grant.ChangeLevel(task.AccessLevel(req.AccessLevel)); err != nil {
		return nil, err
	}
	if err := s.accessRepo.Update(ctx, grant); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.perms.InvalidateUser(ctx, grant.UserID)

	s.logger.Info("Task access changed",
		zap.String("task_id", taskID.String()),
		zap.String("user_id", grant.UserID.String()),
		zap.String("access_level", string(grant.Level)))
	s.publish(ctx, task.NewAccessChangedEvent(grant, t))
	return s.response(ctx, grant), nil
}

// Revoke deletes a grant. The task owner may revoke any non-owner grant and
// a grantee may drop their own.
func (s *AccessService) Revoke(ctx context.Context, actorID, taskID, accessID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "access", "revoke",
		telemetry.AttrUserID, actorID.String(),
		telemetry.AttrTaskID, taskID.String())
	defer span.End()

	level, err := s.perms.Level(ctx, actorID, taskID)
	if err != nil {
		return err
	}
	grant, t, err := s.load(ctx, taskID, accessID)
	if err != nil {
		return err
	}
	if grant.IsOwner() {
		return task.ErrOwnerAccessImmutable
	}
	if grant.UserID != actorID && level != task.AccessOwner {
		return task.ErrOwnerRequired
	}

	if err := s.accessRepo.Delete(ctx, grant.ID); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.perms.InvalidateUser(ctx, grant.UserID)

	s.logger.Info("Task access revoked",
		zap.String("task_id", taskID.String()),
		zap.String("user_id", grant.UserID.String()),
		zap.String("actor_id", actorID.String()))
	s.publish(ctx, task.NewAccessRemovedEvent(grant, t))
	return nil
}

// SharedOwners returns the distinct owners of tasks shared with the caller
func (s *AccessService) SharedOwners(ctx context.Context, userID uuid.UUID) ([]OwnerSummary, error) {
	ownerIDs, err := s.accessRepo.FindSharedOwnerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ownerIDs) == 0 {
		return []OwnerSummary{}, nil
	}
	users, err := s.userRepo.FindByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	out := make([]OwnerSummary, 0, len(users))
	for _, u := range users {
		out = append(out, OwnerSummary{ID: u.ID, Username: u.Username})
	}
	return out, nil
}

// load returns the grant and its task, rejecting grants of other tasks
func (s *AccessService) load(ctx context.Context, taskID, accessID uuid.UUID) (*task.TaskAccess, *task.Task, error) {
	grant, err := s.accessRepo.FindByID(ctx, accessID)
	if err != nil {
		return nil, nil, err
	}
	if grant.TaskID != taskID {
		return nil, nil, task.ErrAccessNotFound
	}
	t, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	return grant, t, nil
}

func (s *AccessService) response(ctx context.Context, g *task.TaskAccess) *AccessResponse {
	resp := &AccessResponse{
		ID:          g.ID,
		TaskID:      g.TaskID,
		UserID:      g.UserID,
		AccessLevel: g.Level,
		CreatedAt:   g.CreatedAt,
	}
	if u, err := s.userRepo.FindByID(ctx, g.UserID); err == nil {
		resp.Username = u.Username
	}
	return resp
}

func (s *AccessService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish access events", zap.Error(err))
	}
}
