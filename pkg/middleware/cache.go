package middleware

import (
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// CacheControl disables caching for API responses and lets clients keep
// files served from the public storage prefix.
func CacheControl(storagePrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path

		switch {
		case strings.HasPrefix(p, "/api/"):
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		case storagePrefix != "" && strings.HasPrefix(p, storagePrefix) && isStaticAsset(p):
			// stored names are random uuids, so content never changes
			c.Header("Cache-Control", "public, max-age=31536000, immutable")
		}

		c.Next()
	}
}

var staticExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".svg": {}, ".ico": {}, ".pdf": {},
}

func isStaticAsset(p string) bool {
	_, ok := staticExtensions[strings.ToLower(path.Ext(p))]
	return ok
}
