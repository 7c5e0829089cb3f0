package routes

import (
	"github.com/Kariqs/amexan-commerce/controllers"
	"github.com/gin-gonic/gin"
)

func CouponRoutes(server *gin.Engine, c *controllers.Controller, mw Middlewares) {
	server.POST("/coupons/validate", c.ValidateCoupon)

	coupons := server.Group("/coupons", mw.Auth, mw.Admin)
	{
		coupons.POST("", c.CreateCoupon)
		coupons.GET("", c.GetCoupons)
		coupons.GET("/:couponId", c.GetCoupon)
		coupons.PUT("/:couponId", c.UpdateCoupon)
		coupons.DELETE("/:couponId", c.DeleteCoupon)
	}
}
