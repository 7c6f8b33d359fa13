package course

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/features/language"
	"github.com/mo-amir99/course-server-go/internal/features/unlock"
	"github.com/mo-amir99/course-server-go/internal/middleware"
	"github.com/mo-amir99/course-server-go/pkg/apperrors"
	"github.com/mo-amir99/course-server-go/pkg/cache"
	"github.com/mo-amir99/course-server-go/pkg/certificate"
	"github.com/mo-amir99/course-server-go/pkg/metrics"
	"github.com/mo-amir99/course-server-go/pkg/request"
	"github.com/mo-amir99/course-server-go/pkg/response"
	"github.com/mo-amir99/course-server-go/pkg/socketio"
	"github.com/mo-amir99/course-server-go/pkg/storage"
	"github.com/mo-amir99/course-server-go/pkg/validation"
)

// ImageStore persists course images.
type ImageStore interface {
	SaveImage(dir string, header *multipart.FileHeader) (string, error)
	Delete(rel string) error
}

// Handler processes course HTTP requests.
type Handler struct {
	db       *gorm.DB
	logger   *slog.Logger
	cache    cache.Client
	images   ImageStore
	notifier socketio.Notifier
}

// NewHandler constructs a course handler instance. cache may be nil.
func NewHandler(db *gorm.DB, logger *slog.Logger, cacheClient cache.Client, images ImageStore, notifier socketio.Notifier) *Handler {
	if notifier == nil {
		notifier = socketio.Nop{}
	}
	validation.Engine()
	return &Handler{
		db:       db,
		logger:   logger,
		cache:    cacheClient,
		images:   images,
		notifier: notifier,
	}
}

type lessonSummary struct {
	ID              uint   `json:"id"`
	CourseChapterID uint   `json:"courseChapterId"`
	Name            string `json:"name"`
	Completed       bool   `gorm:"-" json:"completed"`
}

func (lessonSummary) TableName() string { return "course_chapter_lessons" }

type chapterSummary struct {
	ID       uint            `json:"id"`
	CourseID uint            `json:"courseId"`
	Name     string          `json:"name"`
	Lessons  []lessonSummary `gorm:"foreignKey:CourseChapterID" json:"lessons"`
}

func (chapterSummary) TableName() string { return "course_chapters" }

type showPayload struct {
	Course   Course           `json:"course"`
	Chapters []chapterSummary `json:"chapters"`
	Progress unlock.Summary   `json:"progress"`
	Unlocked bool             `json:"unlocked"`
}

type formPayload struct {
	Course    *Course             `json:"course,omitempty"`
	Languages []language.Language `json:"languages"`
}

// List returns every course.
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	if courses, ok := h.cachedIndex(ctx); ok {
		response.Success(c, http.StatusOK, courses, "", nil)
		return
	}

	courses, err := List(h.db.WithContext(ctx))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list courses", err)
		return
	}

	h.storeIndex(ctx, courses)
	response.Success(c, http.StatusOK, courses, "", nil)
}

// CreateForm returns the data needed to build a course form.
func (h *Handler) CreateForm(c *gin.Context) {
	languages, err := language.List(h.db.WithContext(c.Request.Context()))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load languages", err)
		return
	}
	response.Success(c, http.StatusOK, formPayload{Languages: languages}, "", nil)
}

// Create validates the multipart form, stores the image and inserts the course.
func (h *Handler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	db := h.db.WithContext(ctx)

	sub, err := bindSubmission(c, db, true)
	if err != nil {
		h.respondError(c, err, "failed to validate course")
		return
	}

	imagePath, err := h.images.SaveImage(storage.CourseImagesDir, sub.image)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to store course image", err)
		return
	}

	crs, err := Create(db, sub.createInput(imagePath))
	if err != nil {
		h.discardImage(imagePath)
		h.respondError(c, err, "failed to create course")
		return
	}

	h.invalidateIndex(ctx)
	h.logger.Info("course created", slog.Uint64("courseId", uint64(crs.ID)))
	response.Created(c, crs, "Course created.")
}

// Show returns the course when the user can view it. Otherwise the price is
// paid from the user's credits first.
func (h *Handler) Show(c *gin.Context) {
	usr, crs, ok := h.userCourse(c)
	if !ok {
		return
	}
	db := h.db.WithContext(c.Request.Context())

	can, err := unlock.CanView(db, usr.ID, usr.IsAdmin(), crs.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to check course access", err)
		return
	}

	if !can {
		rec, err := unlock.Unlock(db, usr.ID, crs.ID, crs.Price)
		switch {
		case errors.Is(err, unlock.ErrInsufficientCredits):
			metrics.RecordUnlock(metrics.UnlockInsufficient)
			// expected outcome, not logged
			response.ErrorWithData(nil, c, http.StatusPaymentRequired, "You do not have enough credits to unlock this course.",
				gin.H{"courseId": crs.ID, "price": crs.Price}, err)
			return
		case errors.Is(err, unlock.ErrAlreadyUnlocked):
			metrics.RecordUnlock(metrics.UnlockDuplicate)
		case err != nil:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to unlock course", err)
			return
		default:
			metrics.RecordUnlock(metrics.UnlockSucceeded)
			h.notifier.NotifyUser(usr.ID, socketio.EventCourseUnlocked, gin.H{
				"courseId": crs.ID,
				"unlockId": rec.ID,
			})
			h.logger.Info("course unlocked",
				slog.Uint64("courseId", uint64(crs.ID)),
				slog.Uint64("userId", uint64(usr.ID)))
		}
	}

	payload, err := h.showPayload(db, usr.ID, crs)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load course", err)
		return
	}
	response.SuccessNoCache(c, http.StatusOK, payload, "")
}

func (h *Handler) showPayload(db *gorm.DB, userID uint, crs Course) (showPayload, error) {
	chapters := make([]chapterSummary, 0)
	err := db.Where("course_id = ?", crs.ID).
		Order("id ASC").
		Preload("Lessons", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Find(&chapters).Error
	if err != nil {
		return showPayload{}, err
	}

	var done []uint
	err = db.Model(&unlock.Progress{}).
		Where("user_id = ? AND completed = ? AND course_chapter_lesson_id IN (?)", userID, true,
			db.Table("course_chapter_lessons l").
				Select("l.id").
				Joins("JOIN course_chapters ch ON ch.id = l.course_chapter_id").
				Where("ch.course_id = ?", crs.ID)).
		Pluck("course_chapter_lesson_id", &done).Error
	if err != nil {
		return showPayload{}, err
	}

	completed := make(map[uint]bool, len(done))
	for _, id := range done {
		completed[id] = true
	}

	var total int64
	for i := range chapters {
		for j := range chapters[i].Lessons {
			chapters[i].Lessons[j].Completed = completed[chapters[i].Lessons[j].ID]
			total++
		}
	}

	payload := showPayload{Course: crs, Chapters: chapters}
	rec, err := unlock.Find(db, userID, crs.ID)
	switch {
	case errors.Is(err, unlock.ErrNotUnlocked):
		payload.Progress = unlock.Summarize(unlock.Record{CourseID: crs.ID}, total)
	case err != nil:
		return showPayload{}, err
	default:
		payload.Unlocked = true
		payload.Progress = unlock.Summarize(rec, total)
	}
	return payload, nil
}

// Edit returns the course with the language list.
func (h *Handler) Edit(c *gin.Context) {
	crs, ok := h.loadCourse(c)
	if !ok {
		return
	}

	languages, err := language.List(h.db.WithContext(c.Request.Context()))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load languages", err)
		return
	}
	response.Success(c, http.StatusOK, formPayload{Course: &crs, Languages: languages}, "", nil)
}

// Update replaces the course fields. A new image replaces the stored one.
func (h *Handler) Update(c *gin.Context) {
	crs, ok := h.loadCourse(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	db := h.db.WithContext(ctx)

	sub, err := bindSubmission(c, db, false)
	if err != nil {
		h.respondError(c, err, "failed to validate course")
		return
	}

	newImage := ""
	if sub.image != nil {
		newImage, err = h.images.SaveImage(storage.CourseImagesDir, sub.image)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to store course image", err)
			return
		}
	}

	updated, previousImage, err := Update(db, crs.ID, sub.updateInput(newImage))
	if err != nil {
		if newImage != "" {
			h.discardImage(newImage)
		}
		h.respondError(c, err, "failed to update course")
		return
	}

	if newImage != "" && previousImage != "" && previousImage != newImage {
		h.discardImage(previousImage)
	}

	h.invalidateIndex(ctx)
	response.Success(c, http.StatusOK, updated, "Course updated.", nil)
}

// Delete removes the course, its content and its image.
func (h *Handler) Delete(c *gin.Context) {
	id, err := request.ParamID(c, "courseId")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid course id", err)
		return
	}
	ctx := c.Request.Context()

	crs, err := Delete(h.db.WithContext(ctx), id)
	if err != nil {
		h.respondError(c, err, "failed to delete course")
		return
	}

	if crs.Image != "" {
		h.discardImage(crs.Image)
	}
	h.invalidateIndex(ctx)
	h.logger.Info("course deleted", slog.Uint64("courseId", uint64(id)))
	response.Success(c, http.StatusOK, true, "Course deleted.", nil)
}

// Certificate streams the completion certificate as a PDF.
func (h *Handler) Certificate(c *gin.Context) {
	usr, crs, ok := h.userCourse(c)
	if !ok {
		return
	}

	if _, ok := h.finishedRecord(c, usr.ID, crs); !ok {
		return
	}

	languageName := ""
	if crs.ProgrammingLanguage != nil {
		languageName = crs.ProgrammingLanguage.Name
	}

	pdf, err := certificate.Render(certificate.Data{
		CourseName: crs.Name,
		UserName:   usr.Name,
		Language:   languageName,
		IssuedAt:   time.Now().UTC(),
	})
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to render certificate", err)
		return
	}

	metrics.RecordCertificate()
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, certificate.Filename(crs.Name)))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, certificate.ContentType, pdf)
}

// Completed returns the completion view, or redirects to the course when the
// user has not finished it yet.
func (h *Handler) Completed(c *gin.Context) {
	usr, crs, ok := h.userCourse(c)
	if !ok {
		return
	}
	db := h.db.WithContext(c.Request.Context())

	rec, err := unlock.Find(db, usr.ID, crs.ID)
	if err != nil && !errors.Is(err, unlock.ErrNotUnlocked) {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load progress", err)
		return
	}

	finished := false
	if err == nil {
		finished, err = unlock.IsFinished(db, rec)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load progress", err)
			return
		}
	}

	if !finished {
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/api/courses/%d", crs.ID))
		return
	}

	total, err := unlock.AssignmentCount(db, crs.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load progress", err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"course":         crs,
		"progress":       unlock.Summarize(rec, total),
		"certificateUrl": fmt.Sprintf("/api/courses/%d/certificate", crs.ID),
	}, "Congratulations, you completed this course.", nil)
}

func (h *Handler) finishedRecord(c *gin.Context, userID uint, crs Course) (unlock.Record, bool) {
	db := h.db.WithContext(c.Request.Context())

	rec, err := unlock.Find(db, userID, crs.ID)
	if err != nil {
		h.respondError(c, err, "failed to load progress")
		return rec, false
	}

	finished, err := unlock.IsFinished(db, rec)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load progress", err)
		return rec, false
	}
	if !finished {
		h.respondError(c, ErrNotFinished, "")
		return rec, false
	}
	return rec, true
}

func (h *Handler) userCourse(c *gin.Context) (*middleware.User, Course, bool) {
	usr, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Authentication required.", nil)
		return nil, Course{}, false
	}

	crs, ok := h.loadCourse(c)
	return usr, crs, ok
}

func (h *Handler) loadCourse(c *gin.Context) (Course, bool) {
	id, err := request.ParamID(c, "courseId")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid course id", err)
		return Course{}, false
	}

	crs, err := Get(h.db.WithContext(c.Request.Context()), id)
	if err != nil {
		h.respondError(c, err, "failed to load course")
		return crs, false
	}
	return crs, true
}

func (h *Handler) discardImage(path string) {
	if err := h.images.Delete(path); err != nil {
		h.logger.Warn("failed to delete course image",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		response.AppError(h.logger, c, appErr)
		return
	}

	switch {
	case errors.Is(err, ErrCourseNotFound):
		response.Error(c, http.StatusNotFound, "Course not found.", err)
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrImageRequired):
		response.Error(c, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, unlock.ErrNotUnlocked):
		response.Error(c, http.StatusForbidden, "Unlock the course first.", err)
	case errors.Is(err, ErrNotFinished):
		response.Error(c, http.StatusForbidden, "Finish the course to receive a certificate.", err)
	default:
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, fallback, err)
	}
}
