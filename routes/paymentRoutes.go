package routes

import (
	"github.com/Kariqs/amexan-commerce/controllers"
	"github.com/gin-gonic/gin"
)

func PaymentRoutes(server *gin.Engine, c *controllers.Controller, mw Middlewares) {
	server.GET("/payments/pesapal/ipn", c.HandlePesapalIPN)
	server.POST("/payments/pesapal/ipn", c.HandlePesapalIPN)

	payments := server.Group("/payments", mw.Auth)
	{
		payments.POST("", mw.Idempotency, c.CreatePayment)
		payments.GET("/:paymentId", c.GetPayment)
		payments.POST("/:paymentId", c.MarkPaymentPaid)
		payments.POST("/:paymentId/gateway", mw.Idempotency, c.InitiateGatewayPayment)
	}
}
