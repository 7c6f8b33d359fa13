package feedback

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches feedback endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acAll, acAdmin []gin.HandlerFunc) {
	feedback := router.Group("/courses/:courseId/feedback")

	feedback.POST("", append(acAll, handler.Create)...)
	feedback.GET("", append(acAdmin, handler.List)...)
}
