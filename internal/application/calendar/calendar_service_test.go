package calendar

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/domain/calendar"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/task"
	"github.com/taskflow/backend/internal/infrastructure/cache"
	"github.com/taskflow/backend/internal/infrastructure/persistence"
	"github.com/taskflow/backend/tests/testutil"
	"go.uber.org/zap"
)

type plainCipher struct{}

func (plainCipher) Encrypt(s string) (string, error) { return "enc:" + s, nil }

func (plainCipher) Decrypt(s string) (string, error) { return strings.TrimPrefix(s, "enc:"), nil }

type fakeCalendar struct {
	mu      sync.Mutex
	events  map[string]Event
	nextID  int
	listErr error
}

func (c *fakeCalendar) InsertEvent(_ context.Context, _ string, ev EventInput) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := fmt.Sprintf("ev-%d", c.nextID)
	c.events[id] = Event{ID: id, Summary: ev.Summary, Description: ev.Description, Start: ev.Start}
	return id, nil
}

func (c *fakeCalendar) UpdateEvent(_ context.Context, _, eventID string, ev EventInput) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.events[eventID]; !ok {
		return calendar.ErrEventNotFound
	}
	c.events[eventID] = Event{ID: eventID, Summary: ev.Summary, Description: ev.Description, Start: ev.Start}
	return nil
}

func (c *fakeCalendar) DeleteEvent(_ context.Context, _, eventID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.events[eventID]; !ok {
		return calendar.ErrEventNotFound
	}
	delete(c.events, eventID)
	return nil
}

func (c *fakeCalendar) ListEvents(_ context.Context, _ string, since time.Time) ([]Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listErr != nil {
		return nil, c.listErr
	}
	var out []Event
	for _, ev := range c.events {
		if !ev.Start.Before(since) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (c *fakeCalendar) has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.events[id]
	return ok
}

type fakeSession struct {
	*fakeCalendar
	token *calendar.Token
}

func (s fakeSession) Token() (*calendar.Token, bool, error) {
	return s.token, false, nil
}

type fakeProvider struct {
	calendar *fakeCalendar
	revoked  []string
}

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*calendar.Token, error) {
	if code != "good-code" {
		return nil, calendar.ErrAuthFailed
	}
	return &calendar.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}, nil
}

func (p *fakeProvider) Revoke(_ context.Context, token *calendar.Token) error {
	p.revoked = append(p.revoked, token.AccessToken)
	return nil
}

func (p *fakeProvider) NewClient(_ context.Context, token *calendar.Token) (Client, error) {
	if token.AccessToken == "revoked" {
		return nil, calendar.ErrReconnectRequired
	}
	return fakeSession{fakeCalendar: p.calendar, token: token}, nil
}

type fixture struct {
	svc      *CalendarService
	provider *fakeProvider
	events   *fakeCalendar
	tokens   *persistence.GormTokenRepository
	tasks    *persistence.GormTaskRepository
	store    *cache.InMemoryStore
	user     *identity.User
	base     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	store := cache.NewInMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{
		events: &fakeCalendar{events: map[string]Event{}},
		tokens: persistence.NewGormTokenRepository(db, plainCipher{}),
		tasks:  persistence.NewGormTaskRepository(db),
		store:  store,
		base:   time.Now().UTC().Truncate(time.Second),
	}
	f.provider = &fakeProvider{calendar: f.events}
	cfg := DefaultCalendarServiceConfig()
	cfg.FrontendURL = "http://app.example.com/settings/"
	f.svc = NewCalendarService(f.provider, f.tokens, persistence.NewGormSyncHistoryRepository(db),
		f.tasks, store, cfg, zap.NewNop())
	f.svc.now = func() time.Time { return f.base }

	users := persistence.NewGormUserRepository(db)
	u, err := identity.NewUser("carol", "carol@example.com", "Password123")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), u))
	f.user = u
	return f
}

func (f *fixture) connect(t *testing.T) {
	t.Helper()
	require.NoError(t, f.tokens.Save(context.Background(), &calendar.Token{
		UserID: f.user.ID, AccessToken: "access", RefreshToken: "refresh", Expiry: f.base.Add(time.Hour),
	}))
}

func (f *fixture) datedTask(t *testing.T, title string, in time.Duration) *task.Task {
	t.Helper()
	tk, err := task.NewTask(f.user.ID, title, "", task.StatusToDo, task.PriorityMedium)
	require.NoError(t, err)
	due := f.base.Add(in)
	require.NoError(t, tk.ChangeDueDate(&due, nil, f.base))
	require.NoError(t, f.tasks.CreateWithOwner(context.Background(), tk))
	return tk
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *task.Task {
	t.Helper()
	tk, err := f.tasks.FindByID(context.Background(), id)
	require.NoError(t, err)
	return tk
}

func TestCalendarService_AuthFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	status, err := f.svc.Check(ctx, f.user.ID)
	require.NoError(t, err)
	assert.False(t, status.Connected)

	auth, err := f.svc.AuthURL(ctx, f.user.ID)
	require.NoError(t, err)
	state := strings.TrimPrefix(auth.URL, "https://accounts.example.com/auth?state=")
	require.NotEmpty(t, state)

	redirect, err := f.svc.Callback(ctx, CallbackRequest{Code: "good-code", State: state})
	require.NoError(t, err)
	assert.Equal(t, "http://app.example.com/settings?status=success", redirect)

	status, err = f.svc.Check(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, status.Connected)

	redirect, err = f.svc.Callback(ctx, CallbackRequest{Code: "good-code", State: state})
	assert.ErrorIs(t, err, calendar.ErrInvalidState)
	assert.Contains(t, redirect, "status=error")
}

func TestCalendarService_Callback_ExchangeFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	auth, err := f.svc.AuthURL(ctx, f.user.ID)
	require.NoError(t, err)
	state := strings.TrimPrefix(auth.URL, "https://accounts.example.com/auth?state=")

	_, err = f.svc.Callback(ctx, CallbackRequest{Code: "bad-code", State: state})
	assert.ErrorIs(t, err, calendar.ErrAuthFailed)

	status, err := f.svc.Check(ctx, f.user.ID)
	require.NoError(t, err)
	assert.False(t, status.Connected)
}

func TestCalendarService_SyncAndUndo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.connect(t)

	fresh := f.datedTask(t, "Dentist", 24*time.Hour)
	stale := f.datedTask(t, "Review", 48*time.Hour)
	stale.LinkCalendarEvent("primary", "deleted-on-google", f.base)
	require.NoError(t, f.tasks.Update(ctx, stale))
	existing := f.datedTask(t, "Standup", 72*time.Hour)
	existing.LinkCalendarEvent("primary", "kept", f.base)
	require.NoError(t, f.tasks.Update(ctx, existing))

	f.events.events["kept"] = Event{ID: "kept", Summary: "Standup", Start: f.base.Add(72 * time.Hour)}
	f.events.events["g-1"] = Event{ID: "g-1", Summary: "  ", Start: f.base.Add(-48 * time.Hour)}
	f.events.events["g-2"] = Event{ID: "g-2", Summary: "Holiday", Start: f.base.Add(-24 * time.Hour), AllDay: true}
	f.events.events["g-old"] = Event{ID: "g-old", Summary: "Ancient", Start: f.base.Add(-60 * 24 * time.Hour)}

	resp, err := f.svc.Sync(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Created)
	assert.Equal(t, 1, resp.Updated)
	assert.Equal(t, 1, resp.Imported)
	require.Len(t, resp.EventIDs, 2)

	assert.NotEmpty(t, f.reload(t, fresh.ID).CalendarEventID)
	assert.NotEqual(t, "deleted-on-google", f.reload(t, stale.ID).CalendarEventID)
	assert.Equal(t, "kept", f.reload(t, existing.ID).CalendarEventID)

	imported, err := f.tasks.FindByCalendarEventIDs(ctx, f.user.ID, []string{"g-1", "g-2", "g-old"})
	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Equal(t, UntitledEvent, imported[0].Title)
	assert.Equal(t, task.StatusToDo, imported[0].Status)

	f.base = f.base.Add(4 * time.Minute)
	undo, err := f.svc.Undo(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, undo.RemovedEvents)
	for _, id := range resp.EventIDs {
		assert.False(t, f.events.has(id))
	}
	assert.True(t, f.events.has("kept"))
	assert.Empty(t, f.reload(t, fresh.ID).CalendarEventID)
	assert.Equal(t, "kept", f.reload(t, existing.ID).CalendarEventID)

	_, err = f.svc.Undo(ctx, f.user.ID)
	assert.ErrorIs(t, err, calendar.ErrNoRecentSync)
}

func TestCalendarService_Sync_ImportsLongNonASCIIEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.connect(t)

	f.events.events["g-long"] = Event{
		ID:          "g-long",
		Summary:     strings.Repeat("ж", 300),
		Description: strings.Repeat("ё", 2500),
		Start:       f.base.Add(-time.Hour),
	}

	resp, err := f.svc.Sync(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Imported)

	imported, err := f.tasks.FindByCalendarEventIDs(ctx, f.user.ID, []string{"g-long"})
	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.True(t, utf8.ValidString(imported[0].Title))
	assert.Equal(t, 255, utf8.RuneCountInString(imported[0].Title))
	assert.True(t, utf8.ValidString(imported[0].Description))
	assert.Equal(t, 2000, utf8.RuneCountInString(imported[0].Description))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "жжж", truncate("жжжж", 3))
	assert.Equal(t, "", truncate("ж", 0))
}

func TestCalendarService_Undo_WindowExpired(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.connect(t)
	f.datedTask(t, "Dentist", 24*time.Hour)

	_, err := f.svc.Sync(ctx, f.user.ID)
	require.NoError(t, err)

	f.base = f.base.Add(6 * time.Minute)
	_, err = f.svc.Undo(ctx, f.user.ID)
	assert.ErrorIs(t, err, calendar.ErrNoRecentSync)
}

func TestCalendarService_Sync_Guards(t *testing.T) {
	ctx := context.Background()

	t.Run("not connected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Sync(ctx, f.user.ID)
		assert.ErrorIs(t, err, calendar.ErrNotConnected)
	})

	t.Run("cancel flag is honored once", func(t *testing.T) {
		f := newFixture(t)
		f.connect(t)
		require.NoError(t, f.svc.Cancel(ctx, f.user.ID))

		_, err := f.svc.Sync(ctx, f.user.ID)
		assert.ErrorIs(t, err, calendar.ErrSyncCancelled)

		_, err = f.svc.Sync(ctx, f.user.ID)
		assert.NoError(t, err)
	})

	t.Run("concurrent sync is refused", func(t *testing.T) {
		f := newFixture(t)
		f.connect(t)
		require.NoError(t, f.store.Set(ctx, lockPrefix+f.user.ID.String(), "1", time.Minute))

		_, err := f.svc.Sync(ctx, f.user.ID)
		assert.ErrorIs(t, err, calendar.ErrSyncInProgress)
	})

	t.Run("revoked grant drops the token", func(t *testing.T) {
		f := newFixture(t)
		f.connect(t)
		f.events.listErr = calendar.ErrReconnectRequired

		_, err := f.svc.Sync(ctx, f.user.ID)
		assert.ErrorIs(t, err, calendar.ErrReconnectRequired)

		status, err := f.svc.Check(ctx, f.user.ID)
		require.NoError(t, err)
		assert.False(t, status.Connected)
	})
}

func TestCalendarService_Disconnect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.connect(t)
	tk := f.datedTask(t, "Dentist", 24*time.Hour)
	_, err := f.svc.Sync(ctx, f.user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, f.reload(t, tk.ID).CalendarEventID)

	require.NoError(t, f.svc.Disconnect(ctx, f.user.ID))

	assert.Equal(t, []string{"access"}, f.provider.revoked)
	assert.Empty(t, f.reload(t, tk.ID).CalendarEventID)
	status, err := f.svc.Check(ctx, f.user.ID)
	require.NoError(t, err)
	assert.False(t, status.Connected)

	_, err = f.svc.Undo(ctx, f.user.ID)
	assert.ErrorIs(t, err, calendar.ErrNoRecentSync)

	assert.ErrorIs(t, f.svc.Disconnect(ctx, f.user.ID), calendar.ErrNotConnected)
}
