package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/pkg/storage"
)

// LessonCountSyncer refreshes the denormalised lesson totals on unlock records.
type LessonCountSyncer func(ctx context.Context) (int64, error)

// LessonCountSyncJob keeps unlock records in step with course content edits.
type LessonCountSyncJob struct {
	sync   LessonCountSyncer
	logger *slog.Logger
}

// NewLessonCountSyncJob creates the job.
func NewLessonCountSyncJob(sync LessonCountSyncer, logger *slog.Logger) *LessonCountSyncJob {
	return &LessonCountSyncJob{sync: sync, logger: logger}
}

func (j *LessonCountSyncJob) Name() string {
	return "lesson_count_sync"
}

func (j *LessonCountSyncJob) Execute(ctx context.Context) error {
	updated, err := j.sync(ctx)
	if err != nil {
		return fmt.Errorf("sync lesson counts: %w", err)
	}
	if updated > 0 {
		j.logger.Info("unlock lesson counts refreshed", slog.Int64("updated", updated))
	}
	return nil
}

// FileStore is the subset of storage used by the orphan sweep.
type FileStore interface {
	List(dir string) ([]storage.File, error)
	Delete(rel string) error
}

// OrphanImageCleanupJob deletes course images no course row references.
// Files younger than grace are kept so an in-flight upload is never removed
// before its row commits.
type OrphanImageCleanupJob struct {
	db     *gorm.DB
	store  FileStore
	logger *slog.Logger
	grace  time.Duration
	now    func() time.Time
}

// NewOrphanImageCleanupJob creates the job.
func NewOrphanImageCleanupJob(db *gorm.DB, store FileStore, logger *slog.Logger, grace time.Duration) *OrphanImageCleanupJob {
	return &OrphanImageCleanupJob{
		db:     db,
		store:  store,
		logger: logger,
		grace:  grace,
		now:    time.Now,
	}
}

func (j *OrphanImageCleanupJob) Name() string {
	return "orphan_image_cleanup"
}

func (j *OrphanImageCleanupJob) Execute(ctx context.Context) error {
	files, err := j.store.List(storage.CourseImagesDir)
	if err != nil {
		return fmt.Errorf("list course images: %w", err)
	}
	if len(files) == 0 {
		return nil
	}

	var referenced []string
	if err := j.db.WithContext(ctx).Table("courses").Where("image <> ''").Pluck("image", &referenced).Error; err != nil {
		return fmt.Errorf("load referenced images: %w", err)
	}

	inUse := make(map[string]struct{}, len(referenced))
	for _, path := range referenced {
		inUse[path] = struct{}{}
	}

	cutoff := j.now().Add(-j.grace)
	removed := 0
	for _, file := range files {
		if _, ok := inUse[file.Path]; ok || file.ModTime.After(cutoff) {
			continue
		}
		if err := j.store.Delete(file.Path); err != nil {
			j.logger.Warn("failed to delete orphaned image", slog.String("path", file.Path), slog.String("error", err.Error()))
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.Info("orphaned course images removed", slog.Int("count", removed))
	}
	return nil
}
