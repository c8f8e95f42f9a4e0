package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	achievementapp "github.com/taskflow/backend/internal/application/achievement"
	calendarapp "github.com/taskflow/backend/internal/application/calendar"
	identityapp "github.com/taskflow/backend/internal/application/identity"
	invitationapp "github.com/taskflow/backend/internal/application/invitation"
	notificationapp "github.com/taskflow/backend/internal/application/notification"
	taskapp "github.com/taskflow/backend/internal/application/task"
	"github.com/taskflow/backend/internal/infrastructure/auth"
	"github.com/taskflow/backend/internal/infrastructure/cache"
	"github.com/taskflow/backend/internal/infrastructure/config"
	"github.com/taskflow/backend/internal/infrastructure/event"
	"github.com/taskflow/backend/internal/infrastructure/google"
	"github.com/taskflow/backend/internal/infrastructure/logger"
	"github.com/taskflow/backend/internal/infrastructure/persistence"
	"github.com/taskflow/backend/internal/infrastructure/scheduler"
	"github.com/taskflow/backend/internal/infrastructure/storage"
	"github.com/taskflow/backend/internal/infrastructure/telemetry"
	"github.com/taskflow/backend/internal/infrastructure/websocket"
	"github.com/taskflow/backend/internal/interfaces/http/handler"
	"github.com/taskflow/backend/internal/interfaces/http/router"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/taskflow/backend/docs"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			TaskFlow API
//	@version		1.0
//	@description	Collaborative task tracking: tasks, sharing, notifications and Google Calendar sync.

//	@BasePath	/api

//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						JSESSIONID

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "server failed: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logCfg := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}

	// Telemetry needs a logger before the final one exists
	bootLog, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	var providers *telemetry.Providers
	if cfg.Telemetry.Enabled {
		providers, err = telemetry.Setup(ctx, cfg.Telemetry, cfg.App.Env, bootLog)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := providers.Shutdown(shutdownCtx); err != nil {
				bootLog.Warn("Telemetry shutdown failed", zap.Error(err))
			}
		}()
	}

	log := bootLog
	if providers != nil && providers.Logs != nil {
		core := providers.Logs.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
		if log, err = logger.New(logCfg, core); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting TaskFlow backend",
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	var meterProvider *telemetry.MeterProvider
	if providers != nil {
		meterProvider = providers.Meter
	}
	if err := telemetry.InstrumentDB(db.DB, telemetry.DBOptions{
		Tracing:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		Meter:      meterOf(meterProvider),
	}, log); err != nil {
		return err
	}

	store, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithKeyPrefix("taskflow:"),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).CreateStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	blacklist, closeBlacklist, err := newBlacklist(cfg, log)
	if err != nil {
		return err
	}
	defer closeBlacklist()

	avatars, err := storage.NewAvatarStorage(ctx, &cfg.Storage, log)
	if err != nil {
		return err
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	taskRepo := persistence.NewGormTaskRepository(db.DB)
	accessRepo := persistence.NewGormAccessRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	commentRepo := persistence.NewGormCommentRepository(db.DB)
	invitationRepo := persistence.NewGormInvitationRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)
	achievementRepo := persistence.NewGormAchievementRepository(db.DB)
	userAchievementRepo := persistence.NewGormUserAchievementRepository(db.DB)

	bus := event.NewInMemoryEventBus(log)

	// The hub authorizes topics through LiveUpdates, which pushes through the hub
	var liveUpdates *notificationapp.LiveUpdates
	hub := websocket.NewHub(websocket.TopicAuthorizerFunc(func(ctx context.Context, userID uuid.UUID, topic string) error {
		return liveUpdates.AuthorizeTopic(ctx, userID, topic)
	}), log, websocket.WithSendBuffer(cfg.WebSocket.SendBuffer))

	// Services
	perms := taskapp.NewTaskPermissionService(taskRepo, accessRepo, store, cfg.Jobs.AccessCacheTTL, log)
	sessions := auth.NewSessionService(cfg.Session)
	authService := identityapp.NewAuthService(userRepo, userAchievementRepo, sessions, blacklist, avatars, log)
	userService := identityapp.NewUserService(userRepo, accessRepo, avatars, log)
	avatarService := identityapp.NewAvatarService(userRepo, avatars, log)
	adminService := identityapp.NewAdminService(userRepo, userAchievementRepo, blacklist, avatars, cfg.Session.Expiration, log)
	taskService := taskapp.NewTaskService(taskRepo, accessRepo, categoryRepo, userRepo, perms, bus, taskapp.TaskServiceConfig{
		DefaultUpcomingMinutes: cfg.Jobs.DefaultUpcomingMinutes,
		MaxUpcomingMinutes:     cfg.Jobs.MaxUpcomingMinutes,
	}, log)
	accessService := taskapp.NewAccessService(taskRepo, accessRepo, userRepo, perms, bus, log)
	categoryService := taskapp.NewCategoryService(categoryRepo, log)
	commentService := taskapp.NewCommentService(commentRepo, userRepo, perms, log)
	invitationService := invitationapp.NewInvitationService(invitationRepo, taskRepo, accessRepo, userRepo, perms, bus, log)
	notificationService := notificationapp.NewNotificationService(notificationRepo, userRepo, hub, log)
	achievementService := achievementapp.NewAchievementService(achievementRepo, userAchievementRepo, bus, log)
	liveUpdates = notificationapp.NewLiveUpdates(hub, perms, log)

	bus.Subscribe(notificationapp.NewEventHandler(notificationService, taskRepo, userRepo, log))
	bus.Subscribe(liveUpdates)
	bus.Subscribe(achievementapp.NewEventHandler(achievementService, log))
	if meterProvider != nil {
		metrics, err := telemetry.NewEventMetrics(meterProvider.Meter())
		if err != nil {
			return err
		}
		bus.Subscribe(metrics)
	}

	var googleHandler *handler.GoogleHandler
	if cfg.Google.Enabled {
		calendarService, err := newCalendarService(cfg, db, taskRepo, store, log)
		if err != nil {
			return err
		}
		googleHandler = handler.NewGoogleHandler(calendarService)
	}

	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Enabled:    cfg.Jobs.Enabled,
		JobTimeout: cfg.Jobs.JobTimeout,
	}, log)
	jobs := notificationapp.NewJobs(notificationService, notificationRepo, taskRepo, accessRepo, userRepo, perms, store,
		notificationapp.JobsConfig{
			DeadlineInterval:      cfg.Jobs.DeadlineInterval,
			DeadlineWorkers:       cfg.Jobs.DeadlineWorkers,
			CleanupInterval:       cfg.Jobs.CleanupInterval,
			ClosedRetention:       cfg.Jobs.ClosedRetention,
			CacheEvictionInterval: cfg.Jobs.CacheEvictionInterval,
		}, log)
	for _, job := range jobs.Scheduled() {
		if err := sched.Register(job); err != nil {
			return err
		}
	}

	var uploadsDir string
	if local, ok := avatars.(*storage.LocalAvatarStorage); ok {
		uploadsDir = local.Root()
	}

	engine := router.NewEngine(router.EngineDeps{
		Config: cfg,
		Logger: log,
		Auth:   authService,
		Handlers: router.Handlers{
			Auth:         handler.NewAuthHandler(authService, cfg.Cookie),
			User:         handler.NewUserHandler(userService, avatarService),
			Admin:        handler.NewAdminHandler(adminService),
			Task:         handler.NewTaskHandler(taskService, accessService),
			Category:     handler.NewCategoryHandler(categoryService),
			Comment:      handler.NewCommentHandler(commentService),
			Invitation:   handler.NewInvitationHandler(invitationService),
			Notification: handler.NewNotificationHandler(notificationService),
			Achievement:  handler.NewAchievementHandler(achievementService),
			Google:       googleHandler,
		},
		System: handler.NewSystemHandler(version, map[string]handler.HealthCheck{
			"database": db.Ping,
		}),
		WS: handler.NewWebSocketHandler(websocket.NewServer(hub, websocket.ServerConfig{
			AllowedOrigins: cfg.WebSocket.AllowedOrigins,
			MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		})),
		UploadsDir: uploadsDir,
		Meter:      meterOf(meterProvider),
	})
	defer engine.Close()

	hubCtx, stopHub := context.WithCancel(context.WithoutCancel(ctx))
	defer stopHub()
	go hub.Run(hubCtx)

	if err := bus.Start(ctx); err != nil {
		return err
	}
	if err := sched.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
		ErrorLog:       zap.NewStdLog(log.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Warn("Scheduler did not stop cleanly", zap.Error(err))
	}
	stopHub()
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not stop cleanly", zap.Error(err))
	}

	log.Info("Server exited gracefully")
	return nil
}

// newBlacklist shares Redis with the cache when it is configured, so logouts
// are visible to every instance.
func newBlacklist(cfg *config.Config, log *zap.Logger) (auth.TokenBlacklist, func(), error) {
	if !cfg.Redis.Enabled() {
		log.Info("Using in-memory token blacklist")
		return auth.NewInMemoryTokenBlacklist(), func() {}, nil
	}
	client, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		if cfg.App.IsProduction() {
			return nil, nil, err
		}
		log.Warn("Redis unavailable, using in-memory token blacklist", zap.Error(err))
		return auth.NewInMemoryTokenBlacklist(), func() {}, nil
	}
	return auth.NewRedisTokenBlacklist(client), func() { _ = client.Close() }, nil
}

func newCalendarService(
	cfg *config.Config,
	db *persistence.Database,
	taskRepo *persistence.GormTaskRepository,
	store cache.Store,
	log *zap.Logger,
) (*calendarapp.CalendarService, error) {
	key, err := cfg.Google.TokenKeyBytes()
	if err != nil {
		return nil, err
	}
	cipher, err := google.NewSecretboxCipher(key)
	if err != nil {
		return nil, err
	}

	provider := google.NewProvider(cfg.Google,
		google.WithHTTPClient(&http.Client{Timeout: cfg.Jobs.CalendarRequestTimeout}),
		google.WithProviderLogger(log),
	)

	return calendarapp.NewCalendarService(
		provider,
		persistence.NewGormTokenRepository(db.DB, cipher),
		persistence.NewGormSyncHistoryRepository(db.DB),
		taskRepo,
		store,
		calendarapp.CalendarServiceConfig{
			CalendarID:     cfg.Google.CalendarID,
			FrontendURL:    cfg.App.FrontendURL,
			StateTTL:       cfg.Jobs.OAuthStateTTL,
			CancelFlagTTL:  cfg.Jobs.SyncCancelFlagTTL,
			LockTTL:        cfg.Jobs.SyncLockTTL,
			ImportLookback: cfg.Jobs.ImportLookback,
			EventDuration:  cfg.Jobs.CalendarEventDuration,
		},
		log,
	), nil
}

func meterOf(mp *telemetry.MeterProvider) metric.Meter {
	if mp == nil {
		return nil
	}
	return mp.Meter()
}
