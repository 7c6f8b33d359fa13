package response_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mo-amir99/course-server-go/pkg/apperrors"
	"github.com/mo-amir99/course-server-go/pkg/response"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAppErrorRendersFields(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/courses", nil)

	response.AppError(nil, c, apperrors.Validation("Invalid course data", map[string]string{"price": "too high"}))

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, "too high", body.Error.Fields["price"])
}

func TestErrorDerivesCodeFromStatus(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/courses/1", nil)

	response.Error(c, http.StatusPaymentRequired, "Not enough credits", errors.New("insufficient"))

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "payment_required", body.Error.Code)
	assert.Equal(t, "Not enough credits", body.Message)
}

func TestCacheControl(t *testing.T) {
	assert.Equal(t, "no-cache", response.CacheControl(0))
	assert.Equal(t, "public, max-age=60", response.CacheControl(60))
}
