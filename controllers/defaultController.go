package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetHome(ctx *gin.Context) {
	message := `Welcome to Amexan API ❤️. Enjoy seamless interaction with this API.

The following are the endpoints for this API:

AUTH
- POST "/auth/signup" - Create user account
- POST "/auth/login" - Access user account
- POST "/addresses" - Add a delivery address
- GET "/addresses" - List your addresses

PRODUCT
- POST "/product" - Create new product
- GET "/product" - Get all products
- POST "/product-specs" - Add product specifications
- POST "/product-images" - Add product images
- GET "/product/{id}" - Get product by ID
- PUT "/product/{id}/stock" - Set product stock
- DELETE "/product/{id}" - Delete product
- POST "/product/{id}/restore" - Restore a deleted product

CART
- POST "/cart" - Add a product to your cart
- GET "/cart" - Get your cart
- DELETE "/cart/items/:itemId" - Remove a cart item
- POST "/cart/checkout" - Turn your cart into an order

ORDER
- POST "/orders" - Create a new order
- GET "/orders" - Retrieve orders
- GET "/orders/:orderId" - Get order by ID
- POST "/orders/:orderId/items" - Add an item
- PATCH "/orders/:orderId/items/:itemId" - Change an item's quantity
- DELETE "/orders/:orderId/items/:itemId" - Remove an item
- POST "/orders/:orderId/cancel" - Cancel order
- POST "/orders/:orderId/coupon" - Apply a coupon
- PATCH "/orders/:orderId/status" - Update order status
- DELETE "/orders/:orderId" - Delete order by ID

PAYMENT
- POST "/payments" - Create a payment for an order
- GET "/payments/:paymentId" - Get payment
- POST "/payments/:paymentId" - Mark payment as paid
- POST "/payments/:paymentId/gateway" - Pay through Pesapal

COUPON
- POST "/coupons/validate" - Check a coupon code

SHIPMENT
- GET "/shipments" - List your shipments
- GET "/shipments/:shipmentId" - Get shipment
- GET "/shipments/:shipmentId/estimated-days" - Days until delivery
- GET "/shipping-methods" - List shipping methods
- GET "/shipping-methods/:methodId/cost" - Price a shipment`

	ctx.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}
