package controllers

import (
	"net/http"
	"time"

	"github.com/Kariqs/amexan-commerce/models"
	"github.com/Kariqs/amexan-commerce/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func (c *Controller) CreateShipment(ctx *gin.Context) {
	var input services.CreateShipmentInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	shipment, err := c.Shipments.CreateShipment(ctx.Request.Context(), input)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusCreated, gin.H{"shipment": shipment})
}

func (c *Controller) GetShipments(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	shipments, err := c.Shipments.ListShipments(ctx.Request.Context(), actor)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"shipments": shipments})
}

func (c *Controller) GetShipment(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	shipmentId, ok := paramID(ctx, "shipmentId")
	if !ok {
		return
	}

	shipment, err := c.Shipments.GetShipment(ctx.Request.Context(), actor, shipmentId)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"shipment": shipment})
}

func (c *Controller) UpdateShipmentStatus(ctx *gin.Context) {
	shipmentId, ok := paramID(ctx, "shipmentId")
	if !ok {
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&input); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse request body")
		return
	}

	shipment, err := c.Shipments.UpdateStatus(ctx.Request.Context(), shipmentId, models.ShipmentStatus(input.Status))
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"shipment": shipment})
}

// MarkShipmentDelivered delivers a shipment and its order. The delivery
// date defaults to now.
func (c *Controller) MarkShipmentDelivered(ctx *gin.Context) {
	shipmentId, ok := paramID(ctx, "shipmentId")
	if !ok {
		return
	}

	var input struct {
		DeliveredDate *time.Time `json:"delivered_date"`
	}
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&input); err != nil {
			respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}
	deliveredAt := time.Now().UTC()
	if input.DeliveredDate != nil {
		deliveredAt = *input.DeliveredDate
	}

	shipment, err := c.Shipments.MarkDelivered(ctx.Request.Context(), shipmentId, deliveredAt)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Shipment marked as delivered.", "shipment": shipment})
}

func (c *Controller) GetEstimatedDaysLeft(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	shipmentId, ok := paramID(ctx, "shipmentId")
	if !ok {
		return
	}

	days, err := c.Shipments.EstimatedDaysLeft(ctx.Request.Context(), actor, shipmentId)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"remaining_days": days})
}

func (c *Controller) CreateShippingMethod(ctx *gin.Context) {
	var input services.ShippingMethodInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	method, err := c.Shipments.CreateMethod(ctx.Request.Context(), input)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusCreated, gin.H{"shipping_method": method})
}

func decimalQuery(ctx *gin.Context, name string) (decimal.NullDecimal, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return decimal.NullDecimal{}, true
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Invalid "+name)
		return decimal.NullDecimal{}, false
	}
	return decimal.NewNullDecimal(value), true
}

func (c *Controller) GetShippingMethods(ctx *gin.Context) {
	minCost, ok := decimalQuery(ctx, "min_cost")
	if !ok {
		return
	}
	maxCost, ok := decimalQuery(ctx, "max_cost")
	if !ok {
		return
	}

	methods, err := c.Shipments.ListMethods(ctx.Request.Context(), minCost, maxCost)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"shipping_methods": methods})
}

func (c *Controller) GetShippingMethod(ctx *gin.Context) {
	methodId, ok := paramID(ctx, "methodId")
	if !ok {
		return
	}

	method, err := c.Shipments.GetMethod(ctx.Request.Context(), methodId)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"shipping_method": method})
}

// GetShippingCost prices a shipment, weight and distance default to 10
// and 100.
func (c *Controller) GetShippingCost(ctx *gin.Context) {
	methodId, ok := paramID(ctx, "methodId")
	if !ok {
		return
	}
	weight, ok := decimalQuery(ctx, "weight")
	if !ok {
		return
	}
	distance, ok := decimalQuery(ctx, "distance")
	if !ok {
		return
	}
	if !weight.Valid {
		weight = decimal.NewNullDecimal(services.DefaultWeight)
	}
	if !distance.Valid {
		distance = decimal.NewNullDecimal(services.DefaultDistance)
	}

	cost, err := c.Shipments.CalculateCost(ctx.Request.Context(), methodId, weight.Decimal, distance.Decimal)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"cost": cost})
}
