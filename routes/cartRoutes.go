package routes

import (
	"github.com/Kariqs/amexan-commerce/controllers"
	"github.com/gin-gonic/gin"
)

func CartRoutes(server *gin.Engine, c *controllers.Controller, mw Middlewares) {
	cart := server.Group("/cart", mw.Auth)
	{
		cart.POST("", c.CreateCartItem)
		cart.GET("", c.GetCart)
		cart.DELETE("/items/:itemId", c.DeleteCartItem)
		cart.POST("/checkout", mw.Idempotency, c.Checkout)
	}
}
