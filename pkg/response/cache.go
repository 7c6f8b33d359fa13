package response

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// SuccessWithCache sends a successful JSON response that shared caches may keep.
func SuccessWithCache(c *gin.Context, status int, data interface{}, message string, maxAge int) {
	c.Header("Cache-Control", CacheControl(maxAge))
	Success(c, status, data, message, nil)
}

// SuccessNoCache sends a successful JSON response with no-store headers.
// Used for per-user payloads such as credit balances.
func SuccessNoCache(c *gin.Context, status int, data interface{}, message string) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	Success(c, status, data, message, nil)
}

// CacheControl formats a public Cache-Control value.
func CacheControl(maxAge int) string {
	if maxAge <= 0 {
		return "no-cache"
	}
	return "public, max-age=" + strconv.Itoa(maxAge)
}
