package routes

import (
	"github.com/Kariqs/amexan-commerce/controllers"
	"github.com/gin-gonic/gin"
)

func ProductRoutes(server *gin.Engine, c *controllers.Controller, mw Middlewares) {
	server.GET("/product", c.GetProducts)
	server.GET("/product/:id", c.GetProduct)
	server.GET("/categories", c.GetCategories)
	server.GET("/brands", c.GetBrands)
	server.GET("/warranties", c.GetWarranties)

	admin := server.Group("", mw.Auth, mw.Admin)
	{
		admin.POST("/product", c.CreateProduct)
		admin.POST("/product-specs", c.CreateProductSpecs)
		admin.POST("/product-images", c.UploadProductImages)
		admin.PUT("/product/:id/stock", c.SetProductStock)
		admin.DELETE("/product/:id", c.DeleteProduct)
		admin.POST("/product/:id/restore", c.RestoreProduct)
		admin.POST("/categories", c.CreateCategory)
		admin.POST("/brands", c.CreateBrand)
		admin.POST("/warranties", c.CreateWarranty)
	}
}
