package routes

import (
	"github.com/Kariqs/amexan-commerce/controllers"
	"github.com/gin-gonic/gin"
)

func AuthRoutes(server *gin.Engine, c *controllers.Controller, mw Middlewares) {
	auth := server.Group("/auth")
	{
		auth.POST("/signup", c.Signup)
		auth.POST("/login", c.Login)
	}

	addresses := server.Group("/addresses", mw.Auth)
	{
		addresses.POST("", c.CreateAddress)
		addresses.GET("", c.GetAddresses)
	}
}
