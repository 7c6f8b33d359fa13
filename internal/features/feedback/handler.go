package feedback

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/features/course"
	"github.com/mo-amir99/course-server-go/internal/middleware"
	"github.com/mo-amir99/course-server-go/pkg/apperrors"
	"github.com/mo-amir99/course-server-go/pkg/pagination"
	"github.com/mo-amir99/course-server-go/pkg/request"
	"github.com/mo-amir99/course-server-go/pkg/response"
	"github.com/mo-amir99/course-server-go/pkg/validation"
)

// Handler processes course feedback requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a feedback handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	validation.Engine()
	return &Handler{db: db, logger: logger}
}

// Create appends feedback for a course.
func (h *Handler) Create(c *gin.Context) {
	usr, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Authentication required.", nil)
		return
	}

	crs, ok := h.course(c)
	if !ok {
		return
	}

	var req struct {
		Comment string `json:"comment" form:"comment" binding:"required,max=2048"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.AppError(h.logger, c, apperrors.Validation("The given data was invalid.", validation.Fields(err)))
		return
	}

	entry, err := Append(h.db.WithContext(c.Request.Context()), crs.ID, usr.ID, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, ErrCommentRequired), errors.Is(err, ErrCommentTooLong):
			response.AppError(h.logger, c, apperrors.Validation(err.Error(), map[string]string{"comment": err.Error()}))
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to store feedback", err)
		}
		return
	}

	response.Created(c, entry, "Thank you for your feedback.")
}

// List returns feedback for a course.
func (h *Handler) List(c *gin.Context) {
	crs, ok := h.course(c)
	if !ok {
		return
	}

	params := pagination.Extract(c)
	entries, total, err := ListForCourse(h.db.WithContext(c.Request.Context()), crs.ID, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list feedback", err)
		return
	}
	response.Success(c, http.StatusOK, entries, "", pagination.MetadataFrom(total, params))
}

func (h *Handler) course(c *gin.Context) (course.Course, bool) {
	id, err := request.ParamID(c, "courseId")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid course id", err)
		return course.Course{}, false
	}

	crs, err := course.Get(h.db.WithContext(c.Request.Context()), id)
	if err != nil {
		if errors.Is(err, course.ErrCourseNotFound) {
			response.Error(c, http.StatusNotFound, "Course not found.", err)
		} else {
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load course", err)
		}
		return crs, false
	}
	return crs, true
}
