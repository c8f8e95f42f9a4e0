package achievement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/achievement"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
	"github.com/taskflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AchievementService manages achievement definitions and scores task
// changes against them
type AchievementService struct {
	repo     achievement.Repository
	progress achievement.UserAchievementRepository
	events   shared.EventPublisher
	now      func() time.Time
	logger   *zap.Logger
}

// NewAchievementService creates a new AchievementService
func NewAchievementService(
	repo achievement.Repository,
	progress achievement.UserAchievementRepository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *AchievementService {
	return &AchievementService{
		repo:     repo,
		progress: progress,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// List returns every achievement
func (s *AchievementService) List(ctx context.Context) ([]AchievementResponse, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AchievementResponse, 0, len(all))
	for _, a := range all {
		out = append(out, toResponse(a))
	}
	return out, nil
}

// Create defines a new achievement and starts tracking it for every user
func (s *AchievementService) Create(ctx context.Context, req CreateAchievementRequest) (*AchievementResponse, error) {
	a, err := achievement.NewAchievement(achievement.Code(req.Code), req.Name, req.Description, req.TargetValue)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByCode(ctx, a.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, achievement.ErrAchievementExists
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	if achievement.RuleFor(a.Code) == nil {
		s.logger.Warn("Achievement has no progress rule", zap.String("code", string(a.Code)))
	}

	s.logger.Info("Achievement created",
		zap.String("achievement_id", a.ID.String()),
		zap.String("code", string(a.Code)))
	resp := toResponse(a)
	return &resp, nil
}

// ListMine returns the caller's progress on every achievement
func (s *AchievementService) ListMine(ctx context.Context, userID uuid.UUID) ([]UserAchievementResponse, error) {
	if err := s.progress.SeedForUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.progress.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]UserAchievementResponse, 0, len(rows))
	for _, ua := range rows {
		out = append(out, toUserResponse(ua))
	}
	return out, nil
}

// Score applies a task change to the owner's open achievements and publishes
// an event for each one it completes
func (s *AchievementService) Score(ctx context.Context, ownerID uuid.UUID, change achievement.TaskChange) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "achievement", "score",
		telemetry.AttrUserID, ownerID.String(),
		telemetry.AttrTaskID, change.After.ID.String())
	defer span.End()

	rows, err := s.progress.FindByUser(ctx, ownerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	var completed []shared.DomainEvent
	for _, ua := range rows {
		if ua.Completed || ua.Achievement == nil {
			continue
		}
		rule := achievement.RuleFor(ua.Achievement.Code)
		if rule == nil {
			continue
		}
		delta := rule(change)
		if delta == 0 {
			continue
		}
		done := ua.Apply(delta, ua.Achievement.TargetValue, change.Now)
		if err := s.progress.Update(ctx, ua); err != nil {
			telemetry.RecordError(span, err)
			return err
		}
		if done {
			s.logger.Info("Achievement completed",
				zap.String("user_id", ownerID.String()),
				zap.String("code", string(ua.Achievement.Code)))
			completed = append(completed, achievement.NewAchievementCompletedEvent(ua))
		}
	}

	if len(completed) > 0 && s.events != nil {
		if err := s.events.Publish(ctx, completed...); err != nil {
			s.logger.Error("Failed to publish achievement events", zap.Error(err))
		}
	}
	return nil
}

// EventHandler scores task creations and updates made by the task owner
type EventHandler struct {
	svc    *AchievementService
	logger *zap.Logger
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(svc *AchievementService, logger *zap.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// EventTypes implements shared.EventHandler
func (h *EventHandler) EventTypes() []string {
	return []string{task.EventTypeTaskCreated, task.EventTypeTaskUpdated}
}

// Handle implements shared.EventHandler
func (h *EventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	now := h.svc.now()
	switch e := event.(type) {
	case *task.TaskCreatedEvent:
		if e.ActorID != e.Task.OwnerID {
			return nil
		}
		return h.svc.Score(ctx, e.Task.OwnerID, achievement.TaskChange{
			Action: achievement.ActionCreate,
			After:  e.Task,
			Now:    now,
		})
	case *task.TaskUpdatedEvent:
		if e.ActorID != e.After.OwnerID {
			return nil
		}
		before := e.Before
		return h.svc.Score(ctx, e.After.OwnerID, achievement.TaskChange{
			Action: achievement.ActionUpdate,
			Before: &before,
			After:  e.After,
			Now:    now,
		})
	}
	return nil
}
