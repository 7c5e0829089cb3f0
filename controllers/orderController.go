package controllers

import (
	"net/http"

	"github.com/Kariqs/amexan-commerce/models"
	"github.com/Kariqs/amexan-commerce/repositories"
	"github.com/Kariqs/amexan-commerce/services"
	"github.com/gin-gonic/gin"
)

type createOrderInput struct {
	AddressID *uint `json:"address_id"`
}

type addItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

type quantityInput struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (c *Controller) CreateOrder(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var input createOrderInput
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&input); err != nil {
			sendErrorResponse(ctx, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	order, err := c.Orders.CreateOrder(ctx.Request.Context(), actor, input.AddressID)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusCreated, gin.H{"order": order})
}

func (c *Controller) GetOrders(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	page, limit := pageQuery(ctx)
	list, err := c.Orders.ListOrders(ctx.Request.Context(), actor, repositories.OrderFilter{
		Status: models.OrderStatus(ctx.Query("status")),
		Page:   page,
		Limit:  limit,
		Sort:   ctx.DefaultQuery("sort", "desc"),
	})
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"orders":   list.Orders,
		"metadata": pageMetadata(list.Total, list.Page, list.Limit),
	})
}

func (c *Controller) GetOrderById(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	orderId, ok := paramID(ctx, "orderId")
	if !ok {
		return
	}

	order, err := c.Orders.GetOrder(ctx.Request.Context(), actor, orderId)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"order": order})
}

func (c *Controller) AddOrderItem(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	orderId, ok := paramID(ctx, "orderId")
	if !ok {
		return
	}

	var input addItemInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	item, order, err := c.Orders.AddItem(ctx.Request.Context(), actor, orderId, input.ProductID, input.Quantity)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusCreated, gin.H{"item": item, "order_total": order.TotalAmount})
}

func (c *Controller) UpdateOrderItem(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	orderId, ok := paramID(ctx, "orderId")
	if !ok {
		return
	}
	itemId, ok := paramID(ctx, "itemId")
	if !ok {
		return
	}

	var input quantityInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	item, order, err := c.Orders.UpdateItemQuantity(ctx.Request.Context(), actor, orderId, itemId, *input.Quantity)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"item": item, "order_total": order.TotalAmount})
}

func (c *Controller) DeleteOrderItem(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	orderId, ok := paramID(ctx, "orderId")
	if !ok {
		return
	}
	itemId, ok := paramID(ctx, "itemId")
	if !ok {
		return
	}

	if _, err := c.Orders.RemoveItem(ctx.Request.Context(), actor, orderId, itemId); err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (c *Controller) CancelOrder(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	orderId, ok := paramID(ctx, "orderId")
	if !ok {
		return
	}

	order, err := c.Orders.CancelOrder(ctx.Request.Context(), actor, orderId)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Order canceled.", "order": order})
}

func (c *Controller) ApplyOrderCoupon(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	orderId, ok := paramID(ctx, "orderId")
	if !ok {
		return
	}

	var input struct {
		Code string `json:"code" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&input); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	order, res, err := c.Orders.ApplyCoupon(ctx.Request.Context(), actor, orderId, input.Code)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}

	response := gin.H{"order": order, "discount": res.Discount}
	if res.Reason != nil {
		response["message"] = services.RejectionMessage(res.Reason)
	}
	sendJSONResponse(ctx, http.StatusOK, response)
}

func (c *Controller) UpdateOrderStatus(ctx *gin.Context) {
	var orderStatusData struct {
		Status string `json:"status" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&orderStatusData); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse request body")
		return
	}
	orderId, ok := paramID(ctx, "orderId")
	if !ok {
		return
	}

	order, err := c.Orders.AdvanceStatus(ctx.Request.Context(), orderId, models.OrderStatus(orderStatusData.Status))
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"message": "Order status updated successfully.",
		"order":   order,
	})
}

func (c *Controller) DeleteOrder(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	orderId, ok := paramID(ctx, "orderId")
	if !ok {
		return
	}

	if err := c.Orders.DeleteOrder(ctx.Request.Context(), actor, orderId); err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Order deleted successfully."})
}

func (c *Controller) RestoreOrder(ctx *gin.Context) {
	orderId, ok := paramID(ctx, "orderId")
	if !ok {
		return
	}

	order, err := c.Orders.RestoreOrder(ctx.Request.Context(), orderId)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"order": order})
}
