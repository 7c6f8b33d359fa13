package course

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches course endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acAll, acAdmin []gin.HandlerFunc) {
	courses := router.Group("/courses")

	courses.GET("", handler.List)
	courses.GET("/create", append(acAdmin, handler.CreateForm)...)
	courses.POST("", append(acAdmin, handler.Create)...)
	courses.GET("/:courseId", append(acAll, handler.Show)...)
	courses.GET("/:courseId/edit", append(acAdmin, handler.Edit)...)
	courses.PUT("/:courseId", append(acAdmin, handler.Update)...)
	courses.PATCH("/:courseId", append(acAdmin, handler.Update)...)
	courses.DELETE("/:courseId", append(acAdmin, handler.Delete)...)
	courses.GET("/:courseId/certificate", append(acAll, handler.Certificate)...)
	courses.GET("/:courseId/completed", append(acAll, handler.Completed)...)
}
