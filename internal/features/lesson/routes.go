package lesson

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches lesson endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acAll, acAdmin []gin.HandlerFunc) {
	learner := router.Group("/courses/:courseId/lessons")
	learner.GET("/:lessonId", append(acAll, handler.Show)...)
	learner.POST("/:lessonId/complete", append(acAll, handler.Complete)...)

	admin := router.Group("/courses/:courseId/chapters/:chapterId/lessons")
	admin.GET("", append(acAdmin, handler.List)...)
	admin.POST("", append(acAdmin, handler.Create)...)
	admin.PUT("/:lessonId", append(acAdmin, handler.Update)...)
	admin.DELETE("/:lessonId", append(acAdmin, handler.Delete)...)
}
