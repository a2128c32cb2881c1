package route

import (
	"github.com/gin-gonic/gin"
)

type UserHandler interface {
	GetUser(c *gin.Context)
	ListUsers(c *gin.Context)
}

func RegisterUserRoutes(g *gin.RouterGroup, h UserHandler) {
	g.GET("", h.ListUsers)
	g.GET("/:user_id", h.GetUser)
}
