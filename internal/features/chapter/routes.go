package chapter

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches chapter endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acAdmin []gin.HandlerFunc) {
	chapters := router.Group("/courses/:courseId/chapters")

	chapters.GET("", append(acAdmin, handler.List)...)
	chapters.POST("", append(acAdmin, handler.Create)...)
	chapters.PUT("/:chapterId", append(acAdmin, handler.Update)...)
	chapters.DELETE("/:chapterId", append(acAdmin, handler.Delete)...)
}
