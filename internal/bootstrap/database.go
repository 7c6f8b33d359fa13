package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/features/chapter"
	"github.com/mo-amir99/course-server-go/internal/features/course"
	"github.com/mo-amir99/course-server-go/internal/features/feedback"
	"github.com/mo-amir99/course-server-go/internal/features/forum"
	"github.com/mo-amir99/course-server-go/internal/features/language"
	"github.com/mo-amir99/course-server-go/internal/features/lesson"
	"github.com/mo-amir99/course-server-go/internal/features/unlock"
	"github.com/mo-amir99/course-server-go/internal/features/user"
	"github.com/mo-amir99/course-server-go/pkg/config"
	"github.com/mo-amir99/course-server-go/pkg/database"
	"github.com/mo-amir99/course-server-go/pkg/database/migrations"
)

// Models lists every persisted model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&language.Language{},
		&course.Course{},
		&chapter.Chapter{},
		&lesson.Lesson{},
		&unlock.Record{},
		&unlock.Progress{},
		&feedback.Feedback{},
		&forum.Reaction{},
	}
}

func init() {
	migrations.Register("20240101_lowercase_user_emails", func(tx *gorm.DB) error {
		return tx.Exec("UPDATE users SET email = LOWER(email) WHERE email <> LOWER(email)").Error
	})
	migrations.Register("20240102_sync_unlock_lesson_counts", func(tx *gorm.DB) error {
		_, err := unlock.SyncLessonCounts(context.Background(), tx)
		return err
	})
}

// ApplyDatabaseMigrations migrates the schema and runs pending data
// migrations when enabled via configuration.
func ApplyDatabaseMigrations(db *gorm.DB, cfg *config.Config, logger *slog.Logger) error {
	if !cfg.Database.RunMigrations {
		logger.Info("database migrations skipped", slog.String("env_var", "COURSE_DB_RUN_MIGRATIONS=false"))
		return nil
	}

	if err := database.Migrate(db, logger, Models()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	logger.Info("database migrations applied successfully")
	return nil
}
