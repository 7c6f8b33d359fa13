package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/middleware"
	"github.com/mo-amir99/course-server-go/pkg/pagination"
	"github.com/mo-amir99/course-server-go/pkg/request"
	"github.com/mo-amir99/course-server-go/pkg/response"
	"github.com/mo-amir99/course-server-go/pkg/types"
)

// Handler processes user HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a user handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// Me returns the authenticated user's profile and balance.
func (h *Handler) Me(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Authentication required.", nil)
		return
	}

	usr, err := Get(h.db.WithContext(c.Request.Context()), current.ID)
	if err != nil {
		h.respondError(c, err, "failed to load user")
		return
	}

	response.Success(c, http.StatusOK, usr, "", nil)
}

// List returns a page of users.
func (h *Handler) List(c *gin.Context) {
	params := pagination.Extract(c)

	users, total, err := List(h.db.WithContext(c.Request.Context()), c.Query("filterKeyword"), params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list users", err)
		return
	}

	response.Success(c, http.StatusOK, users, "", pagination.MetadataFrom(total, params))
}

// GrantCredits adds credits to a user's balance.
func (h *Handler) GrantCredits(c *gin.Context) {
	id, err := request.ParamID(c, "userId")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid user id", err)
		return
	}

	var req struct {
		Amount string `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid credit payload", err)
		return
	}

	amount, err := types.NewMoneyFromString(req.Amount)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "amount must be a number", err)
		return
	}

	usr, err := GrantCredits(h.db.WithContext(c.Request.Context()), id, amount)
	if err != nil {
		h.respondError(c, err, "failed to grant credits")
		return
	}

	h.logger.Info("credits granted",
		slog.Uint64("userId", uint64(id)),
		slog.String("amount", amount.String()))

	response.Success(c, http.StatusOK, usr, "Credits granted.", nil)
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ErrUserNotFound):
		status = http.StatusNotFound
		message = "User not found."
	case errors.Is(err, ErrEmailTaken):
		status = http.StatusConflict
		message = "Email already exists."
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrInvalidRole), errors.Is(err, ErrNameRequired):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, ErrInsufficientCredits):
		status = http.StatusPaymentRequired
		message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		response.ErrorWithLog(h.logger, c, status, message, err)
		return
	}
	response.Error(c, status, message, err)
}
