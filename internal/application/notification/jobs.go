package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	taskapp "github.com/taskflow/backend/internal/application/task"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/notification"
	"github.com/taskflow/backend/internal/domain/task"
	"github.com/taskflow/backend/internal/infrastructure/cache"
	"github.com/taskflow/backend/internal/infrastructure/scheduler"
	"github.com/taskflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Job names
const (
	JobDeadlineReminder = "deadline-reminder"
	JobNotificationGC   = "notification-cleanup"
	JobAccessCacheEvict = "access-cache-eviction"
)

const reminderKeyPrefix = "reminder:"

// JobsConfig holds the background job settings
type JobsConfig struct {
	DeadlineInterval      time.Duration
	DeadlineWorkers       int
	CleanupInterval       time.Duration
	ClosedRetention       time.Duration
	CacheEvictionInterval time.Duration
}

// DefaultJobsConfig returns the default job settings
func DefaultJobsConfig() JobsConfig {
	return JobsConfig{
		DeadlineInterval:      time.Minute,
		DeadlineWorkers:       10,
		CleanupInterval:       time.Hour,
		ClosedRetention:       48 * time.Hour,
		CacheEvictionInterval: time.Hour,
	}
}

// Jobs runs the periodic notification work
type Jobs struct {
	notifications *NotificationService
	repo          notification.Repository
	taskRepo      task.TaskRepository
	accessRepo    task.AccessRepository
	userRepo      identity.UserRepository
	perms         *taskapp.TaskPermissionService
	store         cache.Store
	config        JobsConfig
	now           func() time.Time
	logger        *zap.Logger
}

// NewJobs creates the notification jobs
func NewJobs(
	notifications *NotificationService,
	repo notification.Repository,
	taskRepo task.TaskRepository,
	accessRepo task.AccessRepository,
	userRepo identity.UserRepository,
	perms *taskapp.TaskPermissionService,
	store cache.Store,
	config JobsConfig,
	logger *zap.Logger,
) *Jobs {
	return &Jobs{
		notifications: notifications,
		repo:          repo,
		taskRepo:      taskRepo,
		accessRepo:    accessRepo,
		userRepo:      userRepo,
		perms:         perms,
		store:         store,
		config:        config,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logger,
	}
}

// Scheduled returns the jobs to register with the scheduler
func (j *Jobs) Scheduled() []scheduler.Job {
	return []scheduler.Job{
		{Name: JobDeadlineReminder, Interval: j.config.DeadlineInterval, RunOnStart: true, Run: j.RemindDeadlines},
		{Name: JobNotificationGC, Interval: j.config.CleanupInterval, Run: j.CleanupClosed},
		{Name: JobAccessCacheEvict, Interval: j.config.CacheEvictionInterval, Run: j.EvictAccessCache},
	}
}

// RemindDeadlines notifies collaborators of tasks whose due date falls
// within their reminder interval. A task is marked notified once its owner
// has been reminded; other recipients are deduplicated through the cache.
func (j *Jobs) RemindDeadlines(ctx context.Context) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "notification", "remind_deadlines")
	defer span.End()

	maxInterval, err := j.userRepo.MaxNotificationInterval(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("load max notification interval: %w", err)
	}
	if maxInterval <= 0 {
		return nil
	}

	now := j.now()
	tasks, err := j.taskRepo.FindNotNotifiedDueBetween(ctx, now, now.Add(time.Duration(maxInterval)*time.Minute))
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("find due tasks: %w", err)
	}
	telemetry.SetAttributes(span, telemetry.AttrCount, len(tasks))
	if len(tasks) == 0 {
		return nil
	}

	return scheduler.ForEach(ctx, j.config.DeadlineWorkers, tasks, func(ctx context.Context, t *task.Task) error {
		if err := j.remind(ctx, t, now); err != nil {
			j.logger.Error("Deadline reminder failed",
				zap.String("task_id", t.ID.String()),
				zap.Error(err))
		}
		return nil
	})
}

func (j *Jobs) remind(ctx context.Context, t *task.Task, now time.Time) error {
	if t.DueDate == nil {
		return nil
	}
	recipients, err := j.recipients(ctx, t)
	if err != nil {
		return err
	}
	users, err := j.userRepo.FindByIDs(ctx, recipients)
	if err != nil {
		return err
	}

	due := *t.DueDate
	// The owner settles the task by being reminded. An owner with task
	// reminders off settles it once every opted-in collaborator is reminded.
	ownerNotified, ownerOptedOut, pending := false, false, 0
	for _, u := range users {
		if !u.Settings.TaskEnabled {
			if u.ID == t.OwnerID {
				ownerOptedOut = true
			}
			continue
		}
		window := now.Add(time.Duration(u.Settings.TaskNotificationInterval) * time.Minute)
		if !due.After(now) || due.After(window) {
			pending++
			continue
		}

		first, err := j.store.SetNX(ctx, reminderKey(t.ID, u.ID, due), "1", due.Sub(now)+time.Hour)
		if err != nil {
			j.logger.Warn("Reminder dedupe check failed", zap.Error(err))
			first = true
		}
		if first {
			if _, err := j.notifications.notifyUser(ctx, u, notification.TypeTaskDeadline, notification.Metadata{
				"task_id":    t.ID.String(),
				"task_title": t.Title,
				"deadline":   due.Format(time.RFC3339),
			}); err != nil {
				return err
			}
		}
		if u.ID == t.OwnerID {
			ownerNotified = true
		}
	}

	if ownerNotified || (ownerOptedOut && pending == 0) {
		return j.taskRepo.MarkNotified(ctx, []uuid.UUID{t.ID})
	}
	return nil
}

// recipients returns the holders of a grant on the task, plus those on the
// parent for subtasks since they inherit access
func (j *Jobs) recipients(ctx context.Context, t *task.Task) ([]uuid.UUID, error) {
	taskIDs := []uuid.UUID{t.ID}
	if t.ParentID != nil {
		taskIDs = append(taskIDs, *t.ParentID)
	}
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, id := range taskIDs {
		grants, err := j.accessRepo.FindByTask(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, g := range grants {
			if !seen[g.UserID] {
				seen[g.UserID] = true
				out = append(out, g.UserID)
			}
		}
	}
	return out, nil
}

// reminderKey includes the deadline so a rescheduled task is reminded again
func reminderKey(taskID, userID uuid.UUID, due time.Time) string {
	return fmt.Sprintf("%s%s:%s:%d", reminderKeyPrefix, taskID, userID, due.Unix())
}

// CleanupClosed deletes closed notifications older than the retention
func (j *Jobs) CleanupClosed(ctx context.Context) error {
	removed, err := j.repo.DeleteClosedBefore(ctx, j.now().Add(-j.config.ClosedRetention))
	if err != nil {
		return fmt.Errorf("delete closed notifications: %w", err)
	}
	if removed > 0 {
		j.logger.Info("Closed notifications removed", zap.Int64("count", removed))
	}
	return nil
}

// EvictAccessCache flushes every cached access level
func (j *Jobs) EvictAccessCache(ctx context.Context) error {
	removed, err := j.perms.Flush(ctx)
	if err != nil {
		return fmt.Errorf("flush access cache: %w", err)
	}
	j.logger.Debug("Access cache flushed", zap.Int64("count", removed))
	return nil
}
