package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
	"github.com/taskflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// TaskServiceConfig bounds the upcoming-task window
type TaskServiceConfig struct {
	DefaultUpcomingMinutes int
	MaxUpcomingMinutes     int
}

// DefaultTaskServiceConfig returns default configuration
func DefaultTaskServiceConfig() TaskServiceConfig {
	return TaskServiceConfig{
		DefaultUpcomingMinutes: 60,
		MaxUpcomingMinutes:     7 * 24 * 60,
	}
}

// TaskService handles task lifecycle and queries
type TaskService struct {
	taskRepo     task.TaskRepository
	accessRepo   task.AccessRepository
	categoryRepo task.CategoryRepository
	userRepo     identity.UserRepository
	perms        *TaskPermissionService
	events       shared.EventPublisher
	config       TaskServiceConfig
	now          func() time.Time
	logger       *zap.Logger
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo task.TaskRepository,
	accessRepo task.AccessRepository,
	categoryRepo task.CategoryRepository,
	userRepo identity.UserRepository,
	perms *TaskPermissionService,
	events shared.EventPublisher,
	config TaskServiceConfig,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		accessRepo:   accessRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		perms:        perms,
		events:       events,
		config:       config,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger,
	}
}

// Create creates a task and its OWNER grant
func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, req CreateTaskRequest) (*TaskResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "task", "create", telemetry.AttrUserID, userID.String())
	defer span.End()

	t, err := task.NewTask(userID, req.Title, req.Description, task.Status(req.Status), task.Priority(req.Priority))
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, userID, *req.CategoryID); err != nil {
			return nil, err
		}
		t.SetCategory(req.CategoryID)
	}

	var parent *task.Task
	if req.ParentTaskID != nil {
		if parent, err = s.editableParent(ctx, userID, *req.ParentTaskID); err != nil {
			return nil, err
		}
		if err := t.AttachToParent(parent, false); err != nil {
			return nil, err
		}
	}

	if err := t.ChangeDueDate(req.DueDate, parent, s.now()); err != nil {
		return nil, err
	}

	if err := s.taskRepo.CreateWithOwner(ctx, t); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.AttrTaskID, t.ID.String())

	s.logger.Info("Task created",
		zap.String("task_id", t.ID.String()),
		zap.String("user_id", userID.String()))
	s.publish(ctx, task.NewTaskCreatedEvent(t, userID))

	resp := ToTaskResponse(t, task.AccessOwner)
	return &resp, nil
}

// Update changes any editable field. Category changes need the OWNER level.
func (s *TaskService) Update(ctx context.Context, userID, taskID uuid.UUID, req UpdateTaskRequest) (*TaskResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "task", "update",
		telemetry.AttrUserID, userID.String(),
		telemetry.AttrTaskID, taskID.String())
	defer span.End()

	level, err := s.perms.RequireEdit(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	categoryChange := req.CategoryID != nil || req.ClearCategory
	if categoryChange && level != task.AccessOwner {
		return nil, task.ErrCategoryOwnerRequired
	}

	t, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	before := t.Snapshot()
	now := s.now()

	if req.Title != nil || req.Description != nil {
		title, description := t.Title, t.Description
		if req.Title != nil {
			title = *req.Title
		}
		if req.Description != nil {
			description = *req.Description
		}
		if err := t.SetDetails(title, description); err != nil {
			return nil, err
		}
	}
	if req.Priority != nil {
		if err := t.SetPriority(task.Priority(*req.Priority)); err != nil {
			return nil, err
		}
	}

	parent, err := s.applyParent(ctx, userID, t, req)
	if err != nil {
		return nil, err
	}

	if categoryChange {
		categoryID := req.CategoryID
		if req.ClearCategory {
			categoryID = nil
		} else if err := s.checkCategory(ctx, userID, *categoryID); err != nil {
			return nil, err
		}
		t.SetCategory(categoryID)
	}

	if req.ClearDueDate || req.DueDate != nil {
		if err := s.changeDueDate(ctx, t, req.DueDate, parent, now); err != nil {
			return nil, err
		}
	}

	if req.Status != nil {
		if err := t.TransitionStatus(task.Status(*req.Status), now); err != nil {
			return nil, err
		}
	}

	if err := s.taskRepo.Update(ctx, t); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if categoryChange && t.IsRoot() {
		if err := s.taskRepo.SetCategoryForSubtasks(ctx, t.ID, t.CategoryID); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	s.publish(ctx, task.NewTaskUpdatedEvent(before, t, userID))
	return s.single(ctx, t, level)
}

// UpdateStatus changes only the status; overdue tasks may only become DONE
func (s *TaskService) UpdateStatus(ctx context.Context, userID, taskID uuid.UUID, req UpdateStatusRequest) (*TaskResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "task", "update_status", telemetry.AttrTaskID, taskID.String())
	defer span.End()

	level, err := s.perms.RequireEdit(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	t, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	before := t.Snapshot()

	if err := t.TransitionStatus(task.Status(req.Status), s.now()); err != nil {
		return nil, err
	}
	if err := s.taskRepo.Update(ctx, t); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, task.NewTaskUpdatedEvent(before, t, userID))
	return s.single(ctx, t, level)
}

// UpdateDueDate changes only the due date
func (s *TaskService) UpdateDueDate(ctx context.Context, userID, taskID uuid.UUID, req UpdateDueDateRequest) (*TaskResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "task", "update_due_date", telemetry.AttrTaskID, taskID.String())
	defer span.End()

	level, err := s.perms.RequireEdit(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	t, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	before := t.Snapshot()

	var parent *task.Task
	if t.ParentID != nil {
		if parent, err = s.taskRepo.FindByID(ctx, *t.ParentID); err != nil {
			return nil, err
		}
	}
	if err := s.changeDueDate(ctx, t, req.DueDate, parent, s.now()); err != nil {
		return nil, err
	}
	if err := s.taskRepo.Update(ctx, t); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, task.NewTaskUpdatedEvent(before, t, userID))
	return s.single(ctx, t, level)
}

// Delete removes a task with its subtasks. Only the OWNER may delete.
func (s *TaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "task", "delete", telemetry.AttrTaskID, taskID.String())
	defer span.End()

	if err := s.perms.RequireOwner(ctx, userID, taskID); err != nil {
		return err
	}
	t, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	subtasks, err := s.taskRepo.FindSubtasks(ctx, taskID)
	if err != nil {
		return err
	}

	subtaskIDs := make([]uuid.UUID, 0, len(subtasks))
	affected := map[uuid.UUID]bool{}
	for _, id := range append([]uuid.UUID{taskID}, ids(subtasks)...) {
		if id != taskID {
			subtaskIDs = append(subtaskIDs, id)
		}
		grants, err := s.accessRepo.FindByTask(ctx, id)
		if err != nil {
			return err
		}
		for _, g := range grants {
			affected[g.UserID] = true
		}
	}
	userIDs := make([]uuid.UUID, 0, len(affected))
	for id := range affected {
		userIDs = append(userIDs, id)
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.perms.InvalidateUsers(ctx, userIDs)

	s.logger.Info("Task deleted",
		zap.String("task_id", taskID.String()),
		zap.Int("subtasks", len(subtaskIDs)),
		zap.String("user_id", userID.String()))
	s.publish(ctx, task.NewTaskDeletedEvent(t, subtaskIDs, userIDs, userID))
	return nil
}

// Get returns a task with its subtasks as seen by the caller
func (s *TaskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*TaskResponse, error) {
	level, err := s.perms.Level(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	t, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	subtasks, err := s.taskRepo.FindSubtasks(ctx, taskID)
	if err != nil {
		return nil, err
	}

	resp := ToTaskResponse(t, level)
	resp.OwnerName = s.ownerNames(ctx, []*task.Task{t})[t.OwnerID]
	resp.SubtasksCount = len(subtasks)
	resp.Subtasks = make([]TaskResponse, 0, len(subtasks))
	for _, sub := range subtasks {
		subLevel, err := s.perms.Level(ctx, userID, sub.ID)
		if err != nil {
			subLevel = level
		}
		resp.Subtasks = append(resp.Subtasks, ToTaskResponse(sub, subLevel))
	}
	return &resp, nil
}

// ListTopLevel returns the caller's owned and shared root tasks
func (s *TaskService) ListTopLevel(ctx context.Context, userID uuid.UUID) ([]TaskResponse, error) {
	return s.list(ctx, task.TaskFilter{UserID: userID, RootOnly: true, SortBy: "created_at", SortOrder: "desc"})
}

// Search filters the caller's visible root tasks
func (s *TaskService) Search(ctx context.Context, userID uuid.UUID, req SearchTasksRequest) ([]TaskResponse, error) {
	filter := task.TaskFilter{
		UserID:    userID,
		RootOnly:  true,
		Query:     req.Query,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_CATEGORY", "Invalid category_id")
		}
		filter.CategoryID = &id
	}
	if req.Status != "" {
		st := task.Status(req.Status)
		filter.Status = &st
	}
	if req.Priority != "" {
		p := task.Priority(req.Priority)
		filter.Priority = &p
	}
	if req.AccessLevel != "" {
		l := task.AccessLevel(req.AccessLevel)
		filter.Level = &l
	}

	today := startOfDay(s.now())
	switch req.Due {
	case DueToday:
		filter.DueFrom, filter.DueTo = timePtr(today), timePtr(today.AddDate(0, 0, 1))
	case DueWeek:
		filter.DueFrom, filter.DueTo = timePtr(today), timePtr(today.AddDate(0, 0, 8))
	case DueOverdue:
		filter.DueTo = timePtr(today)
	case DueNoDate:
		filter.NoDueDate = true
	}
	return s.list(ctx, filter)
}

// ListToday returns visible tasks due today
func (s *TaskService) ListToday(ctx context.Context, userID uuid.UUID) ([]TaskResponse, error) {
	today := startOfDay(s.now())
	return s.list(ctx, task.TaskFilter{
		UserID:    userID,
		DueFrom:   timePtr(today),
		DueTo:     timePtr(today.AddDate(0, 0, 1)),
		SortBy:    "due_date",
		SortOrder: "asc",
	})
}

// ListUpcoming returns visible tasks due within the requested window
func (s *TaskService) ListUpcoming(ctx context.Context, userID uuid.UUID, req UpcomingRequest) ([]TaskResponse, error) {
	return s.list(ctx, s.upcomingFilter(userID, req))
}

// MarkUpcomingNotified flags the caller's not-notified upcoming tasks and
// returns how many were marked
func (s *TaskService) MarkUpcomingNotified(ctx context.Context, userID uuid.UUID, req UpcomingRequest) (int, error) {
	req.NotNotified = true
	visible, err := s.taskRepo.FindVisible(ctx, s.upcomingFilter(userID, req))
	if err != nil {
		return 0, err
	}
	taskIDs := make([]uuid.UUID, 0, len(visible))
	for _, v := range visible {
		taskIDs = append(taskIDs, v.Task.ID)
	}
	if err := s.taskRepo.MarkNotified(ctx, taskIDs); err != nil {
		return 0, err
	}
	return len(taskIDs), nil
}

func (s *TaskService) upcomingFilter(userID uuid.UUID, req UpcomingRequest) task.TaskFilter {
	minutes := req.Minutes
	if minutes <= 0 {
		minutes = s.config.DefaultUpcomingMinutes
	}
	if s.config.MaxUpcomingMinutes > 0 && minutes > s.config.MaxUpcomingMinutes {
		minutes = s.config.MaxUpcomingMinutes
	}
	now := s.now()
	return task.TaskFilter{
		UserID:          userID,
		DueFrom:         timePtr(now),
		DueTo:           timePtr(now.Add(time.Duration(minutes) * time.Minute)),
		OnlyNotNotified: req.NotNotified,
		SortBy:          "due_date",
		SortOrder:       "asc",
	}
}

func (s *TaskService) list(ctx context.Context, filter task.TaskFilter) ([]TaskResponse, error) {
	visible, err := s.taskRepo.FindVisible(ctx, filter)
	if err != nil {
		return nil, err
	}

	tasks := make([]*task.Task, len(visible))
	for i, v := range visible {
		tasks[i] = v.Task
	}
	counts, err := s.taskRepo.CountSubtasks(ctx, ids(tasks))
	if err != nil {
		return nil, err
	}
	names := s.ownerNames(ctx, tasks)

	out := make([]TaskResponse, 0, len(visible))
	for _, v := range visible {
		resp := ToTaskResponse(v.Task, v.Level)
		resp.SubtasksCount = counts[v.Task.ID]
		resp.OwnerName = names[v.Task.OwnerID]
		out = append(out, resp)
	}
	return out, nil
}

func (s *TaskService) single(ctx context.Context, t *task.Task, level task.AccessLevel) (*TaskResponse, error) {
	counts, err := s.taskRepo.CountSubtasks(ctx, []uuid.UUID{t.ID})
	if err != nil {
		return nil, err
	}
	resp := ToTaskResponse(t, level)
	resp.SubtasksCount = counts[t.ID]
	resp.OwnerName = s.ownerNames(ctx, []*task.Task{t})[t.OwnerID]
	return &resp, nil
}

// ownerNames maps owner ids to usernames; lookup failures leave names empty
func (s *TaskService) ownerNames(ctx context.Context, tasks []*task.Task) map[uuid.UUID]string {
	names := map[uuid.UUID]string{}
	seen := map[uuid.UUID]bool{}
	owners := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		if !seen[t.OwnerID] {
			seen[t.OwnerID] = true
			owners = append(owners, t.OwnerID)
		}
	}
	if len(owners) == 0 {
		return names
	}
	users, err := s.userRepo.FindByIDs(ctx, owners)
	if err != nil {
		s.logger.Warn("Failed to load task owners", zap.Error(err))
		return names
	}
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names
}

// editableParent loads a prospective parent the caller may edit
func (s *TaskService) editableParent(ctx context.Context, userID, parentID uuid.UUID) (*task.Task, error) {
	if _, err := s.perms.RequireEdit(ctx, userID, parentID); err != nil {
		return nil, err
	}
	return s.taskRepo.FindByID(ctx, parentID)
}

// applyParent moves t under a new parent or to the root when requested and
// returns the parent t ends up with
func (s *TaskService) applyParent(ctx context.Context, userID uuid.UUID, t *task.Task, req UpdateTaskRequest) (*task.Task, error) {
	switch {
	case req.ClearParent:
		if err := t.AttachToParent(nil, false); err != nil {
			return nil, err
		}
		return nil, nil

	case req.ParentTaskID != nil && (t.ParentID == nil || *t.ParentID != *req.ParentTaskID):
		parent, err := s.editableParent(ctx, userID, *req.ParentTaskID)
		if err != nil {
			return nil, err
		}
		counts, err := s.taskRepo.CountSubtasks(ctx, []uuid.UUID{t.ID})
		if err != nil {
			return nil, err
		}
		if err := t.AttachToParent(parent, counts[t.ID] > 0); err != nil {
			return nil, err
		}
		return parent, nil

	case t.ParentID != nil:
		return s.taskRepo.FindByID(ctx, *t.ParentID)
	}
	return nil, nil
}

// changeDueDate applies the due-date rules including the subtask bound
func (s *TaskService) changeDueDate(ctx context.Context, t *task.Task, due *time.Time, parent *task.Task, now time.Time) error {
	if err := t.ChangeDueDate(due, parent, now); err != nil {
		return err
	}
	if !t.IsRoot() || t.DueDate == nil {
		return nil
	}
	subtasks, err := s.taskRepo.FindSubtasks(ctx, t.ID)
	if err != nil {
		return err
	}
	return t.CheckSubtaskDeadlines(subtasks)
}

// checkCategory requires the category to exist and belong to userID
func (s *TaskService) checkCategory(ctx context.Context, userID, categoryID uuid.UUID) error {
	c, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if !c.IsOwnedBy(userID) {
		return task.ErrCategoryNotFound
	}
	return nil
}

// publish delivers events after the change is stored; handler failures are
// logged and never undo the change
func (s *TaskService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish task events", zap.Error(err))
	}
}

func ids(tasks []*task.Task) []uuid.UUID {
	out := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
