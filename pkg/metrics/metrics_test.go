package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/api/courses/:courseId", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/courses/:courseId", "200"))

	for _, path := range []string{"/api/courses/1", "/api/courses/2"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/courses/:courseId", "200"))
	assert.Equal(t, before+2, after)
}

func TestRecordUnlockAndJobs(t *testing.T) {
	before := testutil.ToFloat64(courseUnlocks.WithLabelValues(UnlockInsufficient))
	RecordUnlock(UnlockInsufficient)
	assert.Equal(t, before+1, testutil.ToFloat64(courseUnlocks.WithLabelValues(UnlockInsufficient)))

	failed := testutil.ToFloat64(jobRuns.WithLabelValues("sync", "error"))
	RecordJobRun("sync", errors.New("boom"))
	assert.Equal(t, failed+1, testutil.ToFloat64(jobRuns.WithLabelValues("sync", "error")))
}
