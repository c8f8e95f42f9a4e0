package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	achievementapp "github.com/taskflow/backend/internal/application/achievement"
	identityapp "github.com/taskflow/backend/internal/application/identity"
	invitationapp "github.com/taskflow/backend/internal/application/invitation"
	notificationapp "github.com/taskflow/backend/internal/application/notification"
	taskapp "github.com/taskflow/backend/internal/application/task"
	"github.com/taskflow/backend/internal/domain/notification"
	"github.com/taskflow/backend/internal/infrastructure/auth"
	"github.com/taskflow/backend/internal/infrastructure/cache"
	"github.com/taskflow/backend/internal/infrastructure/config"
	"github.com/taskflow/backend/internal/infrastructure/event"
	"github.com/taskflow/backend/internal/infrastructure/persistence"
	"github.com/taskflow/backend/internal/infrastructure/storage"
	"github.com/taskflow/backend/internal/infrastructure/websocket"
	"github.com/taskflow/backend/internal/interfaces/http/handler"
	"github.com/taskflow/backend/internal/interfaces/http/router"
	"github.com/taskflow/backend/tests/testutil"
	"go.uber.org/zap/zaptest"
)

// newAPIServer wires the full engine the way cmd/server does, minus telemetry
func newAPIServer(t *testing.T, tdb *TestDB) http.Handler {
	t.Helper()
	log := zaptest.NewLogger(t)

	cfg := &config.Config{
		App:     config.AppConfig{Name: "taskflow", Env: "test"},
		Session: config.SessionConfig{Secret: "integration-secret", Expiration: time.Hour, Issuer: "taskflow"},
		Cookie:  config.CookieConfig{Name: "JSESSIONID", Path: "/", SameSite: "lax"},
		HTTP:    config.HTTPConfig{MaxBodySize: 1 << 20},
	}

	store := cache.NewInMemoryStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	avatars, err := storage.NewLocalAvatarStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	userRepo := persistence.NewGormUserRepository(tdb.DB)
	taskRepo := persistence.NewGormTaskRepository(tdb.DB)
	accessRepo := persistence.NewGormAccessRepository(tdb.DB)
	notificationRepo := persistence.NewGormNotificationRepository(tdb.DB)
	userAchievementRepo := persistence.NewGormUserAchievementRepository(tdb.DB)
	blacklist := auth.NewInMemoryTokenBlacklist()

	bus := event.NewInMemoryEventBus(log)
	var live *notificationapp.LiveUpdates
	hub := websocket.NewHub(websocket.TopicAuthorizerFunc(func(ctx context.Context, userID uuid.UUID, topic string) error {
		return live.AuthorizeTopic(ctx, userID, topic)
	}), log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	perms := taskapp.NewTaskPermissionService(taskRepo, accessRepo, store, time.Minute, log)
	authService := identityapp.NewAuthService(userRepo, userAchievementRepo,
		auth.NewSessionService(cfg.Session), blacklist, avatars, log)
	notifications := notificationapp.NewNotificationService(notificationRepo, userRepo, hub, log)
	achievements := achievementapp.NewAchievementService(
		persistence.NewGormAchievementRepository(tdb.DB), userAchievementRepo, bus, log)
	live = notificationapp.NewLiveUpdates(hub, perms, log)

	bus.Subscribe(notificationapp.NewEventHandler(notifications, taskRepo, userRepo, log))
	bus.Subscribe(live)
	bus.Subscribe(achievementapp.NewEventHandler(achievements, log))

	engine := router.NewEngine(router.EngineDeps{
		Config: cfg,
		Logger: log,
		Auth:   authService,
		Handlers: router.Handlers{
			Auth: handler.NewAuthHandler(authService, cfg.Cookie),
			User: handler.NewUserHandler(
				identityapp.NewUserService(userRepo, accessRepo, avatars, log),
				identityapp.NewAvatarService(userRepo, avatars, log)),
			Admin: handler.NewAdminHandler(identityapp.NewAdminService(
				userRepo, userAchievementRepo, blacklist, avatars, cfg.Session.Expiration, log)),
			Task: handler.NewTaskHandler(
				taskapp.NewTaskService(taskRepo, accessRepo, persistence.NewGormCategoryRepository(tdb.DB),
					userRepo, perms, bus, taskapp.DefaultTaskServiceConfig(), log),
				taskapp.NewAccessService(taskRepo, accessRepo, userRepo, perms, bus, log)),
			Category: handler.NewCategoryHandler(taskapp.NewCategoryService(persistence.NewGormCategoryRepository(tdb.DB), log)),
			Comment: handler.NewCommentHandler(taskapp.NewCommentService(
				persistence.NewGormCommentRepository(tdb.DB), userRepo, perms, log)),
			Invitation: handler.NewInvitationHandler(invitationapp.NewInvitationService(
				persistence.NewGormInvitationRepository(tdb.DB), taskRepo, accessRepo, userRepo, perms, bus, log)),
			Notification: handler.NewNotificationHandler(notifications),
			Achievement:  handler.NewAchievementHandler(achievements),
		},
		System: handler.NewSystemHandler("test", map[string]handler.HealthCheck{
			"database": func(ctx context.Context) error { return tdb.SqlDB.PingContext(ctx) },
		}),
	})
	t.Cleanup(engine.Close)
	return engine
}

type client struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	return w
}

func signUp(t *testing.T, h http.Handler, username string) (*client, identityapp.UserResponse) {
	t.Helper()
	c := &client{t: t, handler: h}
	w := c.do(http.MethodPost, "/api/auth/register", identityapp.RegisterRequest{
		Username: username, Email: username + "@example.com", Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = c.do(http.MethodPost, "/api/auth/login", identityapp.LoginRequest{Username: username, Password: "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "JSESSIONID" {
			c.cookie = ck
		}
	}
	require.NotNil(t, c.cookie, "session cookie not set")
	return c, testutil.DataAs[identityapp.UserResponse](t, w.Body.Bytes())
}

func TestAPI_SharingFlow(t *testing.T) {
	tdb := NewTestDB(t)
	h := newAPIServer(t, tdb)

	alice, _ := signUp(t, h, "alice")
	bob, bobUser := signUp(t, h, "bob")

	w := alice.do(http.MethodPost, "/api/tasks", taskapp.CreateTaskRequest{Title: "Quarterly report", Priority: "HIGH"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := testutil.DataAs[taskapp.TaskResponse](t, w.Body.Bytes())

	w = bob.do(http.MethodGet, "/api/tasks/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = alice.do(http.MethodPost, "/api/invitations", invitationapp.CreateInvitationRequest{
		TaskID: created.ID, RecipientID: bobUser.ID, AccessLevel: "VIEW",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	inv := testutil.DataAs[invitationapp.InvitationResponse](t, w.Body.Bytes())

	w = bob.do(http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	notes := testutil.DataAs[[]notificationapp.NotificationResponse](t, w.Body.Bytes())
	require.Len(t, notes, 1)
	assert.Equal(t, notification.TypeTaskInvitation, notes[0].Type)

	w = bob.do(http.MethodPut, "/api/invitations/"+inv.ID.String()+"/accept", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = bob.do(http.MethodGet, "/api/tasks/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// VIEW grants cannot edit
	w = bob.do(http.MethodPatch, "/api/tasks/"+created.ID.String()+"/status", taskapp.UpdateStatusRequest{Status: "DONE"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = alice.do(http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	notes = testutil.DataAs[[]notificationapp.NotificationResponse](t, w.Body.Bytes())
	require.NotEmpty(t, notes)
	assert.Equal(t, notification.TypeTaskInvitationResponse, notes[0].Type)

	w = alice.do(http.MethodDelete, "/api/tasks/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = bob.do(http.MethodGet, "/api/tasks/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_Health(t *testing.T) {
	tdb := NewTestDB(t)
	h := newAPIServer(t, tdb)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)
}
