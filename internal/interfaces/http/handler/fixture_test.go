package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	identityapp "github.com/taskflow/backend/internal/application/identity"
	taskapp "github.com/taskflow/backend/internal/application/task"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/infrastructure/auth"
	"github.com/taskflow/backend/internal/infrastructure/cache"
	"github.com/taskflow/backend/internal/infrastructure/config"
	"github.com/taskflow/backend/internal/infrastructure/persistence"
	"github.com/taskflow/backend/internal/infrastructure/storage"
	"github.com/taskflow/backend/internal/interfaces/http/middleware"
	"github.com/taskflow/backend/tests/testutil"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// apiFixture wires real services over SQLite behind a minimal engine
type apiFixture struct {
	engine *gin.Engine
	users  *persistence.GormUserRepository
	auth   *identityapp.AuthService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	log := zap.NewNop()

	store := cache.NewInMemoryStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	avatars, err := storage.NewLocalAvatarStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	users := persistence.NewGormUserRepository(db)
	tasks := persistence.NewGormTaskRepository(db)
	access := persistence.NewGormAccessRepository(db)
	categories := persistence.NewGormCategoryRepository(db)
	progress := persistence.NewGormUserAchievementRepository(db)
	events := testutil.NewEventRecorder()

	sessions := auth.NewSessionService(config.SessionConfig{
		Secret:     "handler-test-secret-that-is-32-chars-long",
		Expiration: time.Hour,
		Issuer:     "taskflow-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	authService := identityapp.NewAuthService(users, progress, sessions, blacklist, avatars, log)
	perms := taskapp.NewTaskPermissionService(tasks, access, store, time.Minute, log)

	authHandler := NewAuthHandler(authService, config.CookieConfig{SameSite: "strict"})
	userHandler := NewUserHandler(
		identityapp.NewUserService(users, access, avatars, log),
		identityapp.NewAvatarService(users, avatars, log))
	adminHandler := NewAdminHandler(identityapp.NewAdminService(users, progress, blacklist, avatars, time.Hour, log))
	taskHandler := NewTaskHandler(
		taskapp.NewTaskService(tasks, access, categories, users, perms, events, taskapp.DefaultTaskServiceConfig(), log),
		taskapp.NewAccessService(tasks, access, users, perms, events, log))
	categoryHandler := NewCategoryHandler(taskapp.NewCategoryService(categories, log))
	commentHandler := NewCommentHandler(taskapp.NewCommentService(persistence.NewGormCommentRepository(db), users, perms, log))

	r := gin.New()
	api := r.Group("/api")
	api.Use(middleware.SessionAuth(middleware.SessionConfig{
		Auth:      authService,
		SkipPaths: []string{"/api/auth/register", "/api/auth/login"},
	}))
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/me", authHandler.Me)

	api.GET("/users/me", userHandler.GetMe)
	api.PATCH("/users/me", userHandler.UpdateMe)
	api.GET("/users", userHandler.Search)
	api.GET("/users/:username", userHandler.GetByUsername)
	api.POST("/users/upload-avatar", userHandler.UploadAvatar)

	admin := api.Group("/admin", middleware.RequireAdmin())
	admin.GET("/users", adminHandler.List)
	admin.PUT("/users/:userId/role", adminHandler.ChangeRole)

	api.POST("/tasks", taskHandler.Create)
	api.GET("/tasks", taskHandler.List)
	api.GET("/tasks/search", taskHandler.Search)
	api.GET("/tasks/:id", taskHandler.Get)
	api.PATCH("/tasks/:id/status", taskHandler.UpdateStatus)
	api.DELETE("/tasks/:id", taskHandler.Delete)
	api.GET("/tasks/:id/access", taskHandler.ListAccess)

	api.POST("/categories", categoryHandler.Create)
	api.GET("/categories", categoryHandler.List)

	api.POST("/comments/task/:taskId", commentHandler.Add)
	api.GET("/comments/task/:taskId", commentHandler.List)
	api.DELETE("/comments/task/:taskId/:id", commentHandler.Delete)

	return &apiFixture{engine: r, users: users, auth: authService}
}

// do sends a request, attaching the session cookie when one is given
func (f *apiFixture) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = testutil.ToJSONReader(t, body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

// signUp registers and logs in a user, returning its session cookie
func (f *apiFixture) signUp(t *testing.T, username string) (*http.Cookie, identityapp.UserResponse) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/auth/register", identityapp.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret1",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return f.login(t, username, "secret1")
}

func (f *apiFixture) login(t *testing.T, username, password string) (*http.Cookie, identityapp.UserResponse) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/auth/login", identityapp.LoginRequest{Username: username, Password: password}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return sessionCookie(t, w), testutil.DataAs[identityapp.UserResponse](t, w.Body.Bytes())
}

// promote makes the user an admin directly in the store
func (f *apiFixture) promote(t *testing.T, username string) {
	t.Helper()
	ctx := context.Background()
	u, err := f.users.FindByUsername(ctx, username)
	require.NoError(t, err)
	require.NoError(t, u.SetRole(identity.RoleAdmin))
	require.NoError(t, f.users.Update(ctx, u))
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "JSESSIONID" {
			return c
		}
	}
	require.FailNow(t, "session cookie not set")
	return nil
}
