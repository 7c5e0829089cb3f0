package routes

import (
	"github.com/Kariqs/amexan-commerce/controllers"
	"github.com/gin-gonic/gin"
)

func ShipmentRoutes(server *gin.Engine, c *controllers.Controller, mw Middlewares) {
	shipments := server.Group("/shipments", mw.Auth)
	{
		shipments.GET("", c.GetShipments)
		shipments.GET("/:shipmentId", c.GetShipment)
		shipments.GET("/:shipmentId/estimated-days", c.GetEstimatedDaysLeft)

		shipments.POST("", mw.Admin, mw.Idempotency, c.CreateShipment)
		shipments.PATCH("/:shipmentId/status", mw.Admin, c.UpdateShipmentStatus)
		shipments.POST("/:shipmentId/mark-delivered", mw.Admin, c.MarkShipmentDelivered)
	}

	server.GET("/shipping-methods", c.GetShippingMethods)
	server.GET("/shipping-methods/:methodId", c.GetShippingMethod)
	server.GET("/shipping-methods/:methodId/cost", c.GetShippingCost)
	server.POST("/shipping-methods", mw.Auth, mw.Admin, c.CreateShippingMethod)
}
