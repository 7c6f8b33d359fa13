package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/pkg/logger"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReady(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	healthy := NewHandler(db, logger.Discard(), map[string]Pinger{
		"cache": pingFunc(func(context.Context) error { return nil }),
	})
	broken := NewHandler(db, logger.Discard(), map[string]Pinger{
		"cache": pingFunc(func(context.Context) error { return errors.New("down") }),
	})

	for _, tc := range []struct {
		handler *Handler
		want    int
	}{{healthy, http.StatusOK}, {broken, http.StatusServiceUnavailable}} {
		router := gin.New()
		router.GET("/ready", tc.handler.Ready)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, tc.want, w.Code)
	}
}
