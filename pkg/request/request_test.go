package request_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/pkg/apperrors"
	"github.com/mo-amir99/course-server-go/pkg/logger"
	"github.com/mo-amir99/course-server-go/pkg/request"
)

func TestParseID(t *testing.T) {
	id, err := request.ParseID(" 42 ")
	assert.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, raw := range []string{"", "0", "-1", "abc"} {
		_, err := request.ParseID(raw)
		assert.ErrorIs(t, err, request.ErrInvalidID, raw)
	}
}

func TestHandlerRendersPushedErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "app error", err: apperrors.NotFound("Course not found", nil), status: http.StatusNotFound},
		{name: "record not found", err: fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), status: http.StatusNotFound},
		{name: "invalid id", err: request.ErrInvalidID, status: http.StatusBadRequest},
		{name: "unknown", err: fmt.Errorf("boom"), status: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.Use(request.Handler(logger.Discard()))
			router.GET("/", func(c *gin.Context) { _ = c.Error(tc.err) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
