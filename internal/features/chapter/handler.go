package chapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/features/course"
	"github.com/mo-amir99/course-server-go/pkg/request"
	"github.com/mo-amir99/course-server-go/pkg/response"
)

// Handler processes chapter HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a chapter handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

type chapterRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

// List returns the course's chapters.
func (h *Handler) List(c *gin.Context) {
	crs, ok := h.course(c)
	if !ok {
		return
	}

	chapters, err := ListByCourse(h.db.WithContext(c.Request.Context()), crs.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list chapters", err)
		return
	}
	response.Success(c, http.StatusOK, chapters, "", nil)
}

// Create adds a chapter to the course.
func (h *Handler) Create(c *gin.Context) {
	crs, ok := h.course(c)
	if !ok {
		return
	}

	var req chapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid chapter payload", err)
		return
	}

	ch, err := Create(h.db.WithContext(c.Request.Context()), crs.ID, req.Name)
	if err != nil {
		h.respondError(c, err, "failed to create chapter")
		return
	}
	response.Created(c, ch, "")
}

// Update renames a chapter.
func (h *Handler) Update(c *gin.Context) {
	ch, ok := h.chapter(c)
	if !ok {
		return
	}

	var req chapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid chapter payload", err)
		return
	}

	ch, err := Rename(h.db.WithContext(c.Request.Context()), ch, req.Name)
	if err != nil {
		h.respondError(c, err, "failed to update chapter")
		return
	}
	response.Success(c, http.StatusOK, ch, "", nil)
}

// Delete removes a chapter and its lessons.
func (h *Handler) Delete(c *gin.Context) {
	ch, ok := h.chapter(c)
	if !ok {
		return
	}

	if err := Delete(h.db.WithContext(c.Request.Context()), ch); err != nil {
		h.respondError(c, err, "failed to delete chapter")
		return
	}
	response.Success(c, http.StatusOK, true, "Chapter deleted.", nil)
}

func (h *Handler) course(c *gin.Context) (course.Course, bool) {
	id, err := request.ParamID(c, "courseId")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid course id", err)
		return course.Course{}, false
	}

	crs, err := course.Get(h.db.WithContext(c.Request.Context()), id)
	if err != nil {
		h.respondError(c, err, "failed to load course")
		return crs, false
	}
	return crs, true
}

func (h *Handler) chapter(c *gin.Context) (Chapter, bool) {
	crs, ok := h.course(c)
	if !ok {
		return Chapter{}, false
	}

	id, err := request.ParamID(c, "chapterId")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid chapter id", err)
		return Chapter{}, false
	}

	ch, err := GetForCourse(h.db.WithContext(c.Request.Context()), id, crs.ID)
	if err != nil {
		h.respondError(c, err, "failed to load chapter")
		return ch, false
	}
	return ch, true
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, course.ErrCourseNotFound):
		response.Error(c, http.StatusNotFound, "Course not found.", err)
	case errors.Is(err, ErrChapterNotFound):
		response.Error(c, http.StatusNotFound, "Chapter not found.", err)
	case errors.Is(err, ErrNameRequired):
		response.Error(c, http.StatusBadRequest, err.Error(), err)
	default:
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, fallback, err)
	}
}
