package forum

import "github.com/gin-gonic/gin"

// RegisterRoutes sets up reaction endpoints under /forum/posts/:postId.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acAll []gin.HandlerFunc) {
	reactions := router.Group("/forum/posts/:postId/reactions")
	{
		reactions.GET("", append(acAll, handler.Count)...)
		reactions.POST("", append(acAll, handler.Toggle)...)
	}
}
