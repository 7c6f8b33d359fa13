package language

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches language endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acAdmin []gin.HandlerFunc) {
	languages := router.Group("/languages")

	languages.GET("", handler.List)
	languages.POST("", append(acAdmin, handler.Create)...)
}
