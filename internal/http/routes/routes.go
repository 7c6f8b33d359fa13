package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/features/auth"
	"github.com/mo-amir99/course-server-go/internal/features/chapter"
	"github.com/mo-amir99/course-server-go/internal/features/course"
	"github.com/mo-amir99/course-server-go/internal/features/feedback"
	"github.com/mo-amir99/course-server-go/internal/features/forum"
	"github.com/mo-amir99/course-server-go/internal/features/language"
	"github.com/mo-amir99/course-server-go/internal/features/lesson"
	"github.com/mo-amir99/course-server-go/internal/features/user"
	"github.com/mo-amir99/course-server-go/internal/middleware"
	"github.com/mo-amir99/course-server-go/pkg/cache"
	"github.com/mo-amir99/course-server-go/pkg/config"
	"github.com/mo-amir99/course-server-go/pkg/email"
	"github.com/mo-amir99/course-server-go/pkg/health"
	"github.com/mo-amir99/course-server-go/pkg/socketio"
	"github.com/mo-amir99/course-server-go/pkg/storage"
	"github.com/mo-amir99/course-server-go/pkg/types"
)

// StoragePrefix is where uploaded files are served from.
const StoragePrefix = "/storage"

// Dependencies are the shared clients handed to feature handlers. Cache and
// Mailer may be nil.
type Dependencies struct {
	DB       *gorm.DB
	Logger   *slog.Logger
	Cache    cache.Client
	Storage  *storage.Local
	Notifier socketio.Notifier
	Mailer   email.Mailer
	Auth     *middleware.Auth
	// BaseURL prefixes links sent outside the API, such as certificate mail.
	BaseURL string
}

// Register wires all feature routes onto the engine.
func Register(engine *gin.Engine, cfg *config.Config, deps Dependencies) {
	db, logger := deps.DB, deps.Logger

	// Health check endpoints (no /api prefix for Kubernetes probes)
	pingers := map[string]health.Pinger{}
	if deps.Cache != nil {
		pingers["cache"] = deps.Cache
	}
	healthHandler := health.NewHandler(db, logger, pingers)
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/version", healthHandler.Version)

	// Metrics endpoint for Prometheus
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if !cfg.IsProduction() {
		engine.GET("/debug/db-stats", healthHandler.DBStats)
	}

	if deps.Storage != nil {
		engine.Static(StoragePrefix, deps.Storage.Root())
	}

	api := engine.Group("/api")

	acAll := deps.Auth.RequireRoles(types.RoleStudent, types.RoleAdmin)
	acAdmin := deps.Auth.AdminOnly()

	authHandler := auth.NewHandler(db, logger, cfg)
	auth.RegisterRoutes(api, authHandler)

	userHandler := user.NewHandler(db, logger)
	user.RegisterRoutes(api, userHandler, acAll, acAdmin)

	languageHandler := language.NewHandler(db, logger)
	language.RegisterRoutes(api, languageHandler, acAdmin)

	courseHandler := course.NewHandler(db, logger, deps.Cache, deps.Storage, deps.Notifier)
	course.RegisterRoutes(api, courseHandler, acAll, acAdmin)

	chapterHandler := chapter.NewHandler(db, logger)
	chapter.RegisterRoutes(api, chapterHandler, acAdmin)

	lessonHandler := lesson.NewHandler(db, logger, deps.Notifier, deps.Mailer, deps.BaseURL)
	lesson.RegisterRoutes(api, lessonHandler, acAll, acAdmin)

	feedbackHandler := feedback.NewHandler(db, logger)
	feedback.RegisterRoutes(api, feedbackHandler, acAll, acAdmin)

	forumHandler := forum.NewHandler(db, logger, deps.Notifier)
	forum.RegisterRoutes(api, forumHandler, acAll)
}
