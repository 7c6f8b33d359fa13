package user

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches user endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, acAll, acAdmin []gin.HandlerFunc) {
	users := router.Group("/users")

	users.GET("/me", append(acAll, handler.Me)...)
	users.GET("", append(acAdmin, handler.List)...)
	users.POST("/:userId/credits", append(acAdmin, handler.GrantCredits)...)
}
