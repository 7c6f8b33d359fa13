package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/course-server-go/internal/bootstrap"
	"github.com/mo-amir99/course-server-go/internal/features/unlock"
	"github.com/mo-amir99/course-server-go/internal/http/routes"
	authmw "github.com/mo-amir99/course-server-go/internal/middleware"
	"github.com/mo-amir99/course-server-go/pkg/cache"
	"github.com/mo-amir99/course-server-go/pkg/config"
	"github.com/mo-amir99/course-server-go/pkg/database"
	"github.com/mo-amir99/course-server-go/pkg/email"
	"github.com/mo-amir99/course-server-go/pkg/jobs"
	"github.com/mo-amir99/course-server-go/pkg/logger"
	"github.com/mo-amir99/course-server-go/pkg/metrics"
	"github.com/mo-amir99/course-server-go/pkg/middleware"
	"github.com/mo-amir99/course-server-go/pkg/request"
	socketioserver "github.com/mo-amir99/course-server-go/pkg/socketio"
	"github.com/mo-amir99/course-server-go/pkg/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(ctx, cfg.Database, appLogger)
	if err != nil {
		appLogger.Error("database connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := database.Close(db, appLogger); err != nil {
			appLogger.Error("database close failed", slog.String("error", err.Error()))
		}
	}()

	if err := bootstrap.ApplyDatabaseMigrations(db, cfg, appLogger); err != nil {
		appLogger.Error("migrations failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if !cfg.IsProduction() {
		if err := bootstrap.EnsureAdmin(db, appLogger, bootstrap.DefaultAdmin()); err != nil {
			appLogger.Error("ensure admin failed", slog.String("error", err.Error()))
		}
	}

	// Redis when configured, in-process otherwise
	cacheClient, err := cache.New(cfg.Redis)
	if err != nil {
		appLogger.Error("cache initialization failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cacheClient.Close()

	store, err := storage.NewLocal(filepath.Join(cfg.PublicDir, "storage"))
	if err != nil {
		appLogger.Error("storage initialization failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var mailer email.Mailer
	if cfg.Email.Enabled() {
		mailer = email.NewClient(
			cfg.Email.Host,
			cfg.Email.Port,
			cfg.Email.Username,
			cfg.Email.Password,
			cfg.Email.From,
		)
	} else {
		appLogger.Info("smtp credentials missing, completion mail disabled")
	}

	auth := authmw.NewAuth(db, cfg.JWTSecret, appLogger)

	socketIOServer, err := socketioserver.NewServer(appLogger, func(token string) (*socketioserver.Identity, error) {
		usr, err := auth.VerifyToken(token)
		if err != nil {
			return nil, err
		}
		return &socketioserver.Identity{UserID: usr.ID, Name: usr.Name, Admin: usr.IsAdmin()}, nil
	})
	if err != nil {
		appLogger.Error("socket.io server initialization failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer socketIOServer.Close()

	appLogger.Info("socket.io server initialized")

	if cfg.JobsEnabled {
		scheduler := jobs.NewScheduler(appLogger)
		scheduler.AddJob(jobs.NewLessonCountSyncJob(func(ctx context.Context) (int64, error) {
			return unlock.SyncLessonCounts(ctx, db)
		}, appLogger), 30*time.Minute)
		scheduler.AddJob(jobs.NewOrphanImageCleanupJob(db, store, appLogger, time.Hour), 24*time.Hour)

		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	router := gin.New()

	// Socket.IO gets recovery and CORS only
	router.Use(middleware.Recovery(appLogger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	router.GET("/socket.io/*any", gin.WrapH(socketIOServer.GetHandler()))
	router.POST("/socket.io/*any", gin.WrapH(socketIOServer.GetHandler()))

	router.Use(middleware.RequestID())
	router.Use(middleware.Compression(middleware.BestSpeed))
	router.Use(middleware.RequestLogger(appLogger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CacheControl(routes.StoragePrefix))
	router.Use(middleware.RequestSizeLimit(cfg.MaxUploadBytes()))
	router.Use(metrics.Middleware())
	router.Use(request.Handler(appLogger))

	rateLimiter := middleware.NewRateLimiter(cacheClient, appLogger, cfg.RateLimitPerMinute, time.Minute)
	router.Use(rateLimiter.Middleware())

	routes.Register(router, cfg, routes.Dependencies{
		DB:       db,
		Logger:   appLogger,
		Cache:    cacheClient,
		Storage:  store,
		Notifier: socketIOServer,
		Mailer:   mailer,
		Auth:     auth,
		BaseURL:  cfg.PublicURL,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		appLogger.Info("server starting",
			slog.String("addr", cfg.ServerAddress()),
			slog.String("env", cfg.Env),
			slog.String("log_level", cfg.LogLevel),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server listen failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", slog.String("error", err.Error()))
	} else {
		appLogger.Info("server stopped gracefully")
	}
}
