package route

import (
	"github.com/gin-gonic/gin"
)

type WithdrawalHandler interface {
	CreateWithdrawal(c *gin.Context)
	GetWithdrawal(c *gin.Context)
	ListWithdrawals(c *gin.Context)
	ListWithdrawalEvents(c *gin.Context)
}

func RegisterWithdrawalRoutes(g *gin.RouterGroup, h WithdrawalHandler) {
	g.POST("", h.CreateWithdrawal)
	g.GET("", h.ListWithdrawals)
	g.GET("/:withdrawal_id", h.GetWithdrawal)
	g.GET("/:withdrawal_id/events", h.ListWithdrawalEvents)
}
