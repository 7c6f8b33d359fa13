package user

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mo-amir99/course-server-go/internal/testutil"
	"github.com/mo-amir99/course-server-go/pkg/logger"
)

func TestMeAndGrantCredits(t *testing.T) {
	db := testutil.NewDB(t, &User{})
	usr, err := Create(db, CreateInput{Name: "Dee", Email: "dee@example.com", Password: "password1"})
	require.NoError(t, err)

	h := NewHandler(db, logger.Discard())
	router := testutil.Router()
	router.GET("/users/me", testutil.AsUser(testutil.Student(usr.ID, "Dee")), h.Me)
	router.POST("/users/:userId/credits", h.GrantCredits)

	rec := testutil.JSON(router, http.MethodPost, "/users/1/credits", `{"amount":"12.50"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = testutil.JSON(router, http.MethodGet, "/users/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"credits":"12.5"`)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = testutil.JSON(router, http.MethodPost, "/users/1/credits", `{"amount":"-3"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.JSON(router, http.MethodPost, "/users/abc/credits", `{"amount":"3"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
