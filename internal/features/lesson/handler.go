package lesson

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/features/chapter"
	"github.com/mo-amir99/course-server-go/internal/features/course"
	"github.com/mo-amir99/course-server-go/internal/features/unlock"
	"github.com/mo-amir99/course-server-go/internal/middleware"
	"github.com/mo-amir99/course-server-go/pkg/apperrors"
	"github.com/mo-amir99/course-server-go/pkg/email"
	"github.com/mo-amir99/course-server-go/pkg/metrics"
	"github.com/mo-amir99/course-server-go/pkg/request"
	"github.com/mo-amir99/course-server-go/pkg/response"
	"github.com/mo-amir99/course-server-go/pkg/socketio"
	"github.com/mo-amir99/course-server-go/pkg/validation"
)

// Handler processes lesson HTTP requests.
type Handler struct {
	db       *gorm.DB
	logger   *slog.Logger
	notifier socketio.Notifier
	mailer   email.Mailer
	baseURL  string
}

// NewHandler constructs a lesson handler instance. mailer may be nil.
func NewHandler(db *gorm.DB, logger *slog.Logger, notifier socketio.Notifier, mailer email.Mailer, baseURL string) *Handler {
	if notifier == nil {
		notifier = socketio.Nop{}
	}
	validation.Engine()
	return &Handler{
		db:       db,
		logger:   logger,
		notifier: notifier,
		mailer:   mailer,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

type lessonRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description" binding:"required"`
	Assignment  string `json:"assignment" binding:"required"`
	InputCheck  string `json:"input_check"`
	OutputCheck string `json:"output_check" binding:"required"`
}

func (r lessonRequest) input() Input {
	return Input{
		Name:        r.Name,
		Description: r.Description,
		Assignment:  r.Assignment,
		InputCheck:  r.InputCheck,
		OutputCheck: r.OutputCheck,
	}
}

type lessonPayload struct {
	Lesson   View           `json:"lesson"`
	Next     Next           `json:"next"`
	Progress unlock.Summary `json:"progress"`
}

// Show returns a lesson to a learner who can view its course.
func (h *Handler) Show(c *gin.Context) {
	usr, crs, l, ok := h.learnerLesson(c)
	if !ok {
		return
	}
	db := h.db.WithContext(c.Request.Context())

	done, err := Completed(db, usr.ID, l)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load progress", err)
		return
	}

	next, err := NextLesson(db, l)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to resolve next lesson", err)
		return
	}

	summary, err := h.summary(db, usr.ID, crs.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load progress", err)
		return
	}

	response.SuccessNoCache(c, http.StatusOK, lessonPayload{
		Lesson:   ViewOf(l, done),
		Next:     next,
		Progress: summary,
	}, "")
}

// Complete checks the submitted output and records the lesson as done.
func (h *Handler) Complete(c *gin.Context) {
	usr, crs, l, ok := h.learnerLesson(c)
	if !ok {
		return
	}

	var req struct {
		Output string `json:"output"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid submission payload", err)
		return
	}

	if !Matches(l, req.Output) {
		response.AppError(h.logger, c, apperrors.Validation(ErrWrongOutput.Error(),
			map[string]string{"output": "The output does not match the expected result."}))
		return
	}

	db := h.db.WithContext(c.Request.Context())
	next, err := NextLesson(db, l)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to resolve next lesson", err)
		return
	}

	// Admins view courses without unlocking them, so nothing is recorded.
	if usr.IsAdmin() {
		summary, err := h.summary(db, usr.ID, crs.ID)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load progress", err)
			return
		}
		response.Success(c, http.StatusOK, lessonPayload{
			Lesson:   ViewOf(l, false),
			Next:     next,
			Progress: summary,
		}, "Output matches. Progress is not recorded for admins.", nil)
		return
	}

	result, err := unlock.RecordCompletion(db, usr.ID, l.ID)
	if err != nil {
		h.respondError(c, err, "failed to record completion")
		return
	}

	summary := unlock.Summarize(result.Record, result.Total)
	if result.Counted {
		metrics.RecordLessonCompletion()
		h.notifier.NotifyUser(usr.ID, socketio.EventProgressUpdated, gin.H{
			"courseId": crs.ID,
			"lessonId": l.ID,
			"progress": summary,
		})
		if summary.Finished {
			h.courseFinished(usr, crs)
		}
	}

	response.Success(c, http.StatusOK, lessonPayload{
		Lesson:   ViewOf(l, true),
		Next:     next,
		Progress: summary,
	}, "Lesson completed.", nil)
}

func (h *Handler) courseFinished(usr *middleware.User, crs course.Course) {
	certificateURL := fmt.Sprintf("%s/api/courses/%d/certificate", h.baseURL, crs.ID)

	h.notifier.NotifyUser(usr.ID, socketio.EventCourseCompleted, gin.H{
		"courseId":       crs.ID,
		"courseName":     crs.Name,
		"certificateUrl": certificateURL,
	})

	if h.mailer == nil || usr.Email == "" {
		return
	}
	go func(to, name, courseName string) {
		if err := email.SendCourseCompleted(h.mailer, to, name, courseName, certificateURL); err != nil {
			h.logger.Error("failed to send course completion email",
				slog.String("email", to),
				slog.String("error", err.Error()))
		}
	}(usr.Email, usr.Name, crs.Name)
}

// List returns a chapter's lessons with their expected outputs.
func (h *Handler) List(c *gin.Context) {
	ch, ok := h.chapter(c)
	if !ok {
		return
	}

	lessons, err := ListByChapter(h.db.WithContext(c.Request.Context()), ch.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list lessons", err)
		return
	}
	response.Success(c, http.StatusOK, lessons, "", nil)
}

// Create adds a lesson to a chapter.
func (h *Handler) Create(c *gin.Context) {
	ch, ok := h.chapter(c)
	if !ok {
		return
	}

	var req lessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	l, err := Create(h.db.WithContext(c.Request.Context()), ch.ID, req.input())
	if err != nil {
		h.respondError(c, err, "failed to create lesson")
		return
	}
	response.Created(c, l, "")
}

// Update replaces a lesson's content.
func (h *Handler) Update(c *gin.Context) {
	ch, ok := h.chapter(c)
	if !ok {
		return
	}

	l, ok := h.chapterLesson(c, ch)
	if !ok {
		return
	}

	var req lessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	l, err := Update(h.db.WithContext(c.Request.Context()), l, req.input())
	if err != nil {
		h.respondError(c, err, "failed to update lesson")
		return
	}
	response.Success(c, http.StatusOK, l, "", nil)
}

// Delete removes a lesson.
func (h *Handler) Delete(c *gin.Context) {
	ch, ok := h.chapter(c)
	if !ok {
		return
	}

	l, ok := h.chapterLesson(c, ch)
	if !ok {
		return
	}

	if err := Delete(h.db.WithContext(c.Request.Context()), l); err != nil {
		h.respondError(c, err, "failed to delete lesson")
		return
	}
	response.Success(c, http.StatusOK, true, "Lesson deleted.", nil)
}

func (h *Handler) summary(db *gorm.DB, userID, courseID uint) (unlock.Summary, error) {
	total, err := unlock.AssignmentCount(db, courseID)
	if err != nil {
		return unlock.Summary{}, err
	}

	rec, err := unlock.Find(db, userID, courseID)
	if errors.Is(err, unlock.ErrNotUnlocked) {
		return unlock.Summarize(unlock.Record{CourseID: courseID}, total), nil
	}
	if err != nil {
		return unlock.Summary{}, err
	}
	return unlock.Summarize(rec, total), nil
}

// learnerLesson resolves the lesson and enforces course access.
func (h *Handler) learnerLesson(c *gin.Context) (*middleware.User, course.Course, Lesson, bool) {
	usr, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Authentication required.", nil)
		return nil, course.Course{}, Lesson{}, false
	}

	courseID, err := request.ParamID(c, "courseId")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid course id", err)
		return nil, course.Course{}, Lesson{}, false
	}
	lessonID, err := request.ParamID(c, "lessonId")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid lesson id", err)
		return nil, course.Course{}, Lesson{}, false
	}

	db := h.db.WithContext(c.Request.Context())
	crs, err := course.Get(db, courseID)
	if err != nil {
		h.respondError(c, err, "failed to load course")
		return nil, crs, Lesson{}, false
	}

	l, _, err := GetForCourse(db, lessonID, crs.ID)
	if err != nil {
		h.respondError(c, err, "failed to load lesson")
		return nil, crs, l, false
	}

	can, err := unlock.CanView(db, usr.ID, usr.IsAdmin(), crs.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to check course access", err)
		return nil, crs, l, false
	}
	if !can {
		h.respondError(c, unlock.ErrNotUnlocked, "")
		return nil, crs, l, false
	}
	return usr, crs, l, true
}

func (h *Handler) chapter(c *gin.Context) (chapter.Chapter, bool) {
	courseID, err := request.ParamID(c, "courseId")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid course id", err)
		return chapter.Chapter{}, false
	}
	chapterID, err := request.ParamID(c, "chapterId")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid chapter id", err)
		return chapter.Chapter{}, false
	}

	ch, err := chapter.GetForCourse(h.db.WithContext(c.Request.Context()), chapterID, courseID)
	if err != nil {
		h.respondError(c, err, "failed to load chapter")
		return ch, false
	}
	return ch, true
}

func (h *Handler) chapterLesson(c *gin.Context, ch chapter.Chapter) (Lesson, bool) {
	id, err := request.ParamID(c, "lessonId")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid lesson id", err)
		return Lesson{}, false
	}

	l, err := GetForChapter(h.db.WithContext(c.Request.Context()), id, ch.ID)
	if err != nil {
		h.respondError(c, err, "failed to load lesson")
		return l, false
	}
	return l, true
}

func (h *Handler) bindError(c *gin.Context, err error) {
	response.AppError(h.logger, c, apperrors.Validation("The given data was invalid.", validation.Fields(err)))
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, course.ErrCourseNotFound):
		response.Error(c, http.StatusNotFound, "Course not found.", err)
	case errors.Is(err, chapter.ErrChapterNotFound):
		response.Error(c, http.StatusNotFound, "Chapter not found.", err)
	case errors.Is(err, ErrLessonNotFound), errors.Is(err, unlock.ErrLessonMissing):
		response.Error(c, http.StatusNotFound, "Lesson not found.", err)
	case errors.Is(err, unlock.ErrNotUnlocked):
		response.Error(c, http.StatusForbidden, "Unlock the course to access its lessons.", err)
	case errors.Is(err, ErrNameRequired):
		response.Error(c, http.StatusBadRequest, err.Error(), err)
	default:
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, fallback, err)
	}
}
