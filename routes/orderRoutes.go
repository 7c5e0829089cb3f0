package routes

import (
	"github.com/Kariqs/amexan-commerce/controllers"
	"github.com/gin-gonic/gin"
)

func OrderRoutes(server *gin.Engine, c *controllers.Controller, mw Middlewares) {
	orders := server.Group("/orders", mw.Auth)
	{
		orders.POST("", mw.Idempotency, c.CreateOrder)
		orders.GET("", c.GetOrders)
		orders.GET("/:orderId", c.GetOrderById)
		orders.DELETE("/:orderId", c.DeleteOrder)
		orders.POST("/:orderId/items", mw.Idempotency, c.AddOrderItem)
		orders.PATCH("/:orderId/items/:itemId", c.UpdateOrderItem)
		orders.DELETE("/:orderId/items/:itemId", c.DeleteOrderItem)
		orders.POST("/:orderId/cancel", c.CancelOrder)
		orders.POST("/:orderId/coupon", mw.Idempotency, c.ApplyOrderCoupon)

		orders.PATCH("/:orderId/status", mw.Admin, c.UpdateOrderStatus)
		orders.POST("/:orderId/restore", mw.Admin, c.RestoreOrder)
	}
}
