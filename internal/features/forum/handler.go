package forum

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/middleware"
	"github.com/mo-amir99/course-server-go/pkg/request"
	"github.com/mo-amir99/course-server-go/pkg/response"
	"github.com/mo-amir99/course-server-go/pkg/socketio"
)

// Handler processes forum reaction requests.
type Handler struct {
	db       *gorm.DB
	logger   *slog.Logger
	notifier socketio.Notifier
}

// NewHandler constructs a forum handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, notifier socketio.Notifier) *Handler {
	if notifier == nil {
		notifier = socketio.Nop{}
	}
	return &Handler{db: db, logger: logger, notifier: notifier}
}

// Toggle adds or removes the caller's reaction and broadcasts the new count.
func (h *Handler) Toggle(c *gin.Context) {
	usr, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Authentication required.", nil)
		return
	}

	postID, err := request.ParamID(c, "postId")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid post id", err)
		return
	}

	state, err := Toggle(h.db.WithContext(c.Request.Context()), usr.ID, postID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to toggle reaction", err)
		return
	}

	h.notifier.BroadcastForumPost(postID, socketio.EventReactionsUpdated, gin.H{
		"postId": postID,
		"count":  state.Count,
	})
	response.Success(c, http.StatusOK, state, "", nil)
}

// Count returns a post's reaction count and whether the caller reacted.
func (h *Handler) Count(c *gin.Context) {
	usr, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Authentication required.", nil)
		return
	}

	postID, err := request.ParamID(c, "postId")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid post id", err)
		return
	}

	db := h.db.WithContext(c.Request.Context())
	count, err := Count(db, postID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to count reactions", err)
		return
	}
	reacted, err := HasReacted(db, usr.ID, postID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to count reactions", err)
		return
	}

	response.Success(c, http.StatusOK, ReactionState{PostID: postID, Reacted: reacted, Count: count}, "", nil)
}
