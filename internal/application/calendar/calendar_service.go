package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/calendar"
	"github.com/taskflow/backend/internal/domain/task"
	"github.com/taskflow/backend/internal/infrastructure/cache"
	"github.com/taskflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Cache namespaces
const (
	statePrefix  = "calendar:state:"
	cancelPrefix = "calendar:cancel:"
	lockPrefix   = "calendar:lock:"
)

// UntitledEvent names tasks imported from events without a summary
const UntitledEvent = "Untitled Event"

// CalendarServiceConfig holds calendar sync settings
type CalendarServiceConfig struct {
	CalendarID     string
	FrontendURL    string
	StateTTL       time.Duration
	CancelFlagTTL  time.Duration
	LockTTL        time.Duration
	ImportLookback time.Duration
	EventDuration  time.Duration
}

// DefaultCalendarServiceConfig returns the default settings
func DefaultCalendarServiceConfig() CalendarServiceConfig {
	return CalendarServiceConfig{
		CalendarID:     "primary",
		FrontendURL:    "http://localhost:3000",
		StateTTL:       10 * time.Minute,
		CancelFlagTTL:  10 * time.Minute,
		LockTTL:        5 * time.Minute,
		ImportLookback: 30 * 24 * time.Hour,
		EventDuration:  time.Hour,
	}
}

// CalendarService links users' tasks with their Google Calendar
type CalendarService struct {
	provider Provider
	tokens   calendar.TokenRepository
	history  calendar.SyncHistoryRepository
	taskRepo task.TaskRepository
	store    cache.Store
	config   CalendarServiceConfig
	now      func() time.Time
	logger   *zap.Logger
}

// NewCalendarService creates a new CalendarService
func NewCalendarService(
	provider Provider,
	tokens calendar.TokenRepository,
	history calendar.SyncHistoryRepository,
	taskRepo task.TaskRepository,
	store cache.Store,
	config CalendarServiceConfig,
	logger *zap.Logger,
) *CalendarService {
	if config.CalendarID == "" {
		config.CalendarID = "primary"
	}
	if config.EventDuration <= 0 {
		config.EventDuration = time.Hour
	}
	return &CalendarService{
		provider: provider,
		tokens:   tokens,
		history:  history,
		taskRepo: taskRepo,
		store:    store,
		config:   config,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// AuthURL starts the OAuth flow with a one-time state bound to the user
func (s *CalendarService) AuthURL(ctx context.Context, userID uuid.UUID) (*AuthURLResponse, error) {
	state := uuid.NewString()
	if err := s.store.Set(ctx, statePrefix+state, userID.String(), s.config.StateTTL); err != nil {
		return nil, fmt.Errorf("store oauth state: %w", err)
	}
	return &AuthURLResponse{URL: s.provider.AuthCodeURL(state)}, nil
}

// Callback completes the OAuth flow and returns where to send the browser.
// The state is consumed whether or not the exchange succeeds.
func (s *CalendarService) Callback(ctx context.Context, req CallbackRequest) (string, error) {
	raw, ok, err := s.store.Take(ctx, statePrefix+req.State)
	if err != nil {
		return s.redirect("error"), fmt.Errorf("load oauth state: %w", err)
	}
	if !ok {
		return s.redirect("error"), calendar.ErrInvalidState
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return s.redirect("error"), calendar.ErrInvalidState
	}
	if req.Error != "" || req.Code == "" {
		s.logger.Info("Google authorization declined",
			zap.String("user_id", userID.String()),
			zap.String("error", req.Error))
		return s.redirect("error"), calendar.ErrAuthFailed
	}

	token, err := s.provider.Exchange(ctx, req.Code)
	if err != nil {
		s.logger.Warn("Google code exchange failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return s.redirect("error"), calendar.ErrAuthFailed
	}
	token.UserID = userID
	token.UpdatedAt = s.now()
	if err := s.tokens.Save(ctx, token); err != nil {
		return s.redirect("error"), err
	}

	s.logger.Info("Google Calendar connected", zap.String("user_id", userID.String()))
	return s.redirect("success"), nil
}

func (s *CalendarService) redirect(status string) string {
	return strings.TrimRight(s.config.FrontendURL, "/") + "?status=" + url.QueryEscape(status)
}

// Check reports whether the user has a stored grant
func (s *CalendarService) Check(ctx context.Context, userID uuid.UUID) (*StatusResponse, error) {
	_, err := s.tokens.FindByUser(ctx, userID)
	switch {
	case err == nil:
		return &StatusResponse{Connected: true}, nil
	case errors.Is(err, calendar.ErrNotConnected):
		return &StatusResponse{Connected: false}, nil
	}
	return nil, err
}

// Cancel asks a running or upcoming sync of the user to stop
func (s *CalendarService) Cancel(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Set(ctx, cancelPrefix+userID.String(), "1", s.config.CancelFlagTTL); err != nil {
		return fmt.Errorf("raise cancel flag: %w", err)
	}
	s.logger.Info("Sync cancellation requested", zap.String("user_id", userID.String()))
	return nil
}

// cancelled consumes the user's cancel flag
func (s *CalendarService) cancelled(ctx context.Context, userID uuid.UUID) bool {
	_, ok, err := s.store.Take(ctx, cancelPrefix+userID.String())
	if err != nil {
		s.logger.Warn("Cancel flag check failed", zap.Error(err))
		return false
	}
	return ok
}

type syncRun struct {
	userID   uuid.UUID
	client   Client
	created  []string
	updated  int
	imported int
}

// Sync pushes every dated task of the user to the calendar, then imports
// recent timed events that no task is linked to
func (s *CalendarService) Sync(ctx context.Context, userID uuid.UUID) (*SyncResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "calendar", "sync", telemetry.AttrUserID, userID.String())
	defer span.End()

	lockKey := lockPrefix + userID.String()
	acquired, err := s.store.SetNX(ctx, lockKey, "1", s.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !acquired {
		return nil, calendar.ErrSyncInProgress
	}
	defer func() {
		if err := s.store.Delete(context.WithoutCancel(ctx), lockKey); err != nil {
			s.logger.Warn("Failed to release sync lock", zap.Error(err))
		}
	}()

	if s.cancelled(ctx, userID) {
		return nil, calendar.ErrSyncCancelled
	}

	run, err := s.open(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.pushTasks(ctx, run)
	if err == nil {
		err = s.importEvents(ctx, run)
	}
	s.saveRefreshedToken(ctx, run)

	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.fail(ctx, run, err)
	}

	h := calendar.NewSyncHistory(userID, calendar.SyncCompleted, run.created, s.now())
	if err := s.history.Create(ctx, h); err != nil {
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.AttrCount, len(run.created))

	s.logger.Info("Calendar sync completed",
		zap.String("user_id", userID.String()),
		zap.Int("created", len(run.created)),
		zap.Int("updated", run.updated),
		zap.Int("imported", run.imported))
	return &SyncResponse{
		HistoryID: h.ID,
		SyncedAt:  h.SyncedAt,
		Created:   len(run.created),
		Updated:   run.updated,
		Imported:  run.imported,
		EventIDs:  h.EventIDs,
	}, nil
}

// open loads the user's token and starts a calendar session
func (s *CalendarService) open(ctx context.Context, userID uuid.UUID) (*syncRun, error) {
	token, err := s.tokens.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	client, err := s.provider.NewClient(ctx, token)
	if err != nil {
		return nil, s.reconnectIfRevoked(ctx, userID, err)
	}
	return &syncRun{userID: userID, client: client}, nil
}

func (s *CalendarService) pushTasks(ctx context.Context, run *syncRun) error {
	tasks, err := s.taskRepo.FindOwnedWithDueDate(ctx, run.userID)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if s.cancelled(ctx, run.userID) {
			return calendar.ErrSyncCancelled
		}
		if err := s.pushTask(ctx, run, t); err != nil {
			return err
		}
	}
	return nil
}

func (s *CalendarService) pushTask(ctx context.Context, run *syncRun, t *task.Task) error {
	ev := EventInput{
		Summary:     t.Title,
		Description: t.Description,
		Start:       *t.DueDate,
		End:         t.DueDate.Add(s.config.EventDuration),
	}
	calendarID := t.CalendarID
	if calendarID == "" {
		calendarID = s.config.CalendarID
	}

	if t.CalendarEventID != "" {
		err := run.client.UpdateEvent(ctx, calendarID, t.CalendarEventID, ev)
		switch {
		case err == nil:
			t.LinkCalendarEvent(calendarID, t.CalendarEventID, s.now())
			run.updated++
			return s.taskRepo.Update(ctx, t)
		case !errors.Is(err, calendar.ErrEventNotFound):
			return err
		}
		s.logger.Warn("Linked event is gone, recreating",
			zap.String("task_id", t.ID.String()),
			zap.String("event_id", t.CalendarEventID))
		calendarID = s.config.CalendarID
	}

	eventID, err := run.client.InsertEvent(ctx, calendarID, ev)
	if err != nil {
		return err
	}
	t.LinkCalendarEvent(calendarID, eventID, s.now())
	run.created = append(run.created, eventID)
	return s.taskRepo.Update(ctx, t)
}

func (s *CalendarService) importEvents(ctx context.Context, run *syncRun) error {
	events, err := run.client.ListEvents(ctx, s.config.CalendarID, s.now().Add(-s.config.ImportLookback))
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	linked, err := s.taskRepo.FindByCalendarEventIDs(ctx, run.userID, ids)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(linked)+len(run.created))
	for _, t := range linked {
		known[t.CalendarEventID] = true
	}
	for _, id := range run.created {
		known[id] = true
	}

	for _, ev := range events {
		if ev.AllDay || known[ev.ID] {
			continue
		}
		if s.cancelled(ctx, run.userID) {
			return calendar.ErrSyncCancelled
		}
		t, err := s.taskFromEvent(run.userID, ev)
		if err != nil {
			s.logger.Warn("Skipping calendar event",
				zap.String("event_id", ev.ID),
				zap.Error(err))
			continue
		}
		if err := s.taskRepo.CreateWithOwner(ctx, t); err != nil {
			return err
		}
		known[ev.ID] = true
		run.imported++
	}
	return nil
}

// truncate cuts s to at most limit characters without splitting a rune
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func (s *CalendarService) taskFromEvent(userID uuid.UUID, ev Event) (*task.Task, error) {
	title := strings.TrimSpace(ev.Summary)
	if title == "" {
		title = UntitledEvent
	}
	title = truncate(title, 255)
	description := truncate(ev.Description, 2000)
	t, err := task.NewTask(userID, title, description, task.StatusToDo, task.PriorityMedium)
	if err != nil {
		return nil, err
	}
	// Imported events are usually in the past, so the due date is set
	// without the future-date check.
	due := ev.Start.UTC()
	t.DueDate = &due
	t.LinkCalendarEvent(s.config.CalendarID, ev.ID, s.now())
	return t, nil
}

func (s *CalendarService) saveRefreshedToken(ctx context.Context, run *syncRun) {
	token, refreshed, err := run.client.Token()
	if err != nil || !refreshed {
		return
	}
	token.UserID = run.userID
	token.UpdatedAt = s.now()
	if err := s.tokens.Save(ctx, token); err != nil {
		s.logger.Warn("Failed to store refreshed token", zap.Error(err))
	}
}

// fail records a FAILED run and maps the cause to the error returned to the caller
func (s *CalendarService) fail(ctx context.Context, run *syncRun, cause error) error {
	h := calendar.NewSyncHistory(run.userID, calendar.SyncFailed, run.created, s.now())
	h.Error = cause.Error()
	if err := s.history.Create(ctx, h); err != nil {
		s.logger.Error("Failed to record sync failure", zap.Error(err))
	}
	s.logger.Warn("Calendar sync failed",
		zap.String("user_id", run.userID.String()),
		zap.Int("created", len(run.created)),
		zap.Error(cause))
	return s.reconnectIfRevoked(ctx, run.userID, cause)
}

// reconnectIfRevoked drops the stored token when Google revoked the grant
func (s *CalendarService) reconnectIfRevoked(ctx context.Context, userID uuid.UUID, err error) error {
	if !errors.Is(err, calendar.ErrReconnectRequired) {
		return err
	}
	if derr := s.tokens.Delete(ctx, userID); derr != nil {
		s.logger.Error("Failed to delete revoked token", zap.Error(derr))
	}
	return calendar.ErrReconnectRequired
}

// Undo removes the events created by the user's latest sync, provided it
// completed within the undo window
func (s *CalendarService) Undo(ctx context.Context, userID uuid.UUID) (*UndoResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "calendar", "undo", telemetry.AttrUserID, userID.String())
	defer span.End()

	now := s.now()
	h, err := s.history.FindLatestCompletedSince(ctx, userID, now.Add(-calendar.UndoWindow))
	if err != nil {
		return nil, err
	}
	if !h.CanUndo(now) {
		return nil, calendar.ErrNoRecentSync
	}

	run, err := s.open(ctx, userID)
	if err != nil {
		return nil, err
	}

	removed := 0
	for _, eventID := range h.EventIDs {
		err := run.client.DeleteEvent(ctx, s.config.CalendarID, eventID)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, calendar.ErrEventNotFound):
			s.logger.Debug("Event already gone", zap.String("event_id", eventID))
		default:
			telemetry.RecordError(span, err)
			return nil, s.reconnectIfRevoked(ctx, userID, err)
		}
	}
	s.saveRefreshedToken(ctx, run)

	if err := s.taskRepo.ClearCalendarLinks(ctx, userID, h.EventIDs); err != nil {
		return nil, err
	}
	h.MarkCancelled()
	if err := s.history.Update(ctx, h); err != nil {
		return nil, err
	}

	s.logger.Info("Calendar sync undone",
		zap.String("user_id", userID.String()),
		zap.String("history_id", h.ID.String()),
		zap.Int("removed", removed))
	return &UndoResponse{HistoryID: h.ID, RemovedEvents: removed}, nil
}

// Disconnect revokes the grant at Google and forgets all sync state
func (s *CalendarService) Disconnect(ctx context.Context, userID uuid.UUID) error {
	token, err := s.tokens.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.provider.Revoke(ctx, token); err != nil {
		s.logger.Warn("Google token revocation failed", zap.Error(err))
	}
	if err := s.tokens.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.taskRepo.ClearCalendarLinks(ctx, userID, nil); err != nil {
		return err
	}
	if err := s.history.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("Google Calendar disconnected", zap.String("user_id", userID.String()))
	return nil
}
