package forum

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mo-amir99/course-server-go/internal/testutil"
	"github.com/mo-amir99/course-server-go/pkg/logger"
	"github.com/mo-amir99/course-server-go/pkg/socketio"
)

func TestToggleAddsThenRemoves(t *testing.T) {
	db := testutil.NewDB(t, &Reaction{})

	state, err := Toggle(db, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, ReactionState{PostID: 10, Reacted: true, Count: 1}, state)

	_, err = Toggle(db, 2, 10)
	require.NoError(t, err)

	state, err = Toggle(db, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, ReactionState{PostID: 10, Reacted: false, Count: 1}, state)

	reacted, err := HasReacted(db, 2, 10)
	require.NoError(t, err)
	assert.True(t, reacted)
}

func TestToggleBroadcastsCount(t *testing.T) {
	db := testutil.NewDB(t, &Reaction{})
	notifier := &testutil.Notifier{}

	router := testutil.Router()
	RegisterRoutes(router.Group("/api"), NewHandler(db, logger.Discard(), notifier),
		[]gin.HandlerFunc{testutil.AsUser(testutil.Student(3, "Ada"))})

	rec := testutil.JSON(router, http.MethodPost, "/api/forum/posts/5/reactions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	events := notifier.Events(socketio.EventReactionsUpdated)
	require.Len(t, events, 1)
	assert.Equal(t, "forum_post_5", events[0].Room)

	rec = testutil.JSON(router, http.MethodGet, "/api/forum/posts/5/reactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
	assert.Contains(t, rec.Body.String(), `"reacted":true`)
}
