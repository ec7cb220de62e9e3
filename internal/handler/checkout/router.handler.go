package checkout

import (
	"storefront-checkout/internal/pkg/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) NewRoutes(e *gin.RouterGroup) {
	checkout := e.Group("/v1/checkout", middleware.AuthMiddleware())

	checkout.GET("/history", h.History)

	sessions := checkout.Group("/sessions")
	sessions.POST("", h.OpenSession)
	sessions.GET("/:id", h.GetSession)
	sessions.DELETE("/:id", h.CloseSession)
	sessions.POST("/:id/reconnect", h.Reconnect)
	sessions.GET("/:id/quote", h.Quote)
	sessions.POST("/:id/orders", h.SubmitOrder)
	sessions.GET("/:id/notifications", h.Notifications)

	pay := sessions.Group("/:id/payment")
	pay.POST("/card", h.SubmitCard)
	pay.POST("/code/resend", h.ResendCode)
	pay.POST("/confirm", h.ConfirmPayment)
	pay.POST("/abort", h.AbortPayment)
}
