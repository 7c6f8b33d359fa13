package request

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrInvalidID is returned when a path parameter is not a positive integer.
var ErrInvalidID = errors.New("invalid id")

// ParamID reads a positive integer path parameter such as :courseId.
func ParamID(c *gin.Context, name string) (uint, error) {
	return ParseID(c.Param(name))
}

// ParseID parses a positive integer identifier.
func ParseID(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || value == 0 {
		return 0, ErrInvalidID
	}
	return uint(value), nil
}

// TrimmedForm returns a multipart/urlencoded form value with surrounding
// whitespace removed.
func TrimmedForm(c *gin.Context, key string) string {
	return strings.TrimSpace(c.PostForm(key))
}
