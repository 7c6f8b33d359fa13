package language

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/pkg/response"
)

// Handler processes programming language requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a language handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// List returns every language.
func (h *Handler) List(c *gin.Context) {
	languages, err := List(h.db.WithContext(c.Request.Context()))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list languages", err)
		return
	}
	response.SuccessWithCache(c, http.StatusOK, languages, "", 300)
}

// Create adds a language.
func (h *Handler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid language payload", err)
		return
	}

	lang, err := Create(h.db.WithContext(c.Request.Context()), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, ErrNameTaken):
			response.Error(c, http.StatusConflict, "Language already exists.", err)
		case errors.Is(err, ErrNameRequired):
			response.Error(c, http.StatusBadRequest, err.Error(), err)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to create language", err)
		}
		return
	}

	response.Created(c, lang, "")
}
