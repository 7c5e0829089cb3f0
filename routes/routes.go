package routes

import (
	"github.com/Kariqs/amexan-commerce/controllers"
	"github.com/gin-gonic/gin"
)

// Middlewares are the guards the route groups are built from.
type Middlewares struct {
	Auth        gin.HandlerFunc
	Admin       gin.HandlerFunc
	Idempotency gin.HandlerFunc
}

func Register(server *gin.Engine, c *controllers.Controller, mw Middlewares) {
	DefaultRoutes(server)
	AuthRoutes(server, c, mw)
	ProductRoutes(server, c, mw)
	CartRoutes(server, c, mw)
	OrderRoutes(server, c, mw)
	PaymentRoutes(server, c, mw)
	CouponRoutes(server, c, mw)
	ShipmentRoutes(server, c, mw)
}
