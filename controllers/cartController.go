package controllers

import (
	"net/http"

	"github.com/Kariqs/amexan-commerce/services"
	"github.com/gin-gonic/gin"
)

type cartItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

func (c *Controller) CreateCartItem(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var input cartItemInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid input")
		return
	}

	cart, err := c.Carts.AddToCart(ctx.Request.Context(), actor, input.ProductID, input.Quantity)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Cart updated", "cart": cart})
}

func (c *Controller) GetCart(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	cart, err := c.Carts.GetCart(ctx.Request.Context(), actor)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"cart": cart})
}

func (c *Controller) DeleteCartItem(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	itemID, ok := paramID(ctx, "itemId")
	if !ok {
		return
	}

	cart, err := c.Carts.RemoveFromCart(ctx.Request.Context(), actor, itemID)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"cart": cart})
}

// Checkout turns the caller's cart into a pending order.
func (c *Controller) Checkout(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var input services.CheckoutInput
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&input); err != nil {
			respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	result, err := c.Carts.Checkout(ctx.Request.Context(), actor, input)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}

	response := gin.H{
		"message": "Order created successfully.",
		"order":   result.Order,
	}
	if res := result.Redemption; res != nil {
		response["discount"] = res.Discount
		if res.Reason != nil {
			response["coupon_message"] = services.RejectionMessage(res.Reason)
		}
	}
	sendJSONResponse(ctx, http.StatusCreated, response)
}
