package controllers

import (
	"net/http"

	"github.com/Kariqs/amexan-commerce/services"
	"github.com/gin-gonic/gin"
)

func (c *Controller) CreatePayment(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	var input services.CreatePaymentInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	payment, err := c.Payments.CreatePayment(ctx.Request.Context(), actor, input)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusCreated, gin.H{"payment": payment})
}

func (c *Controller) GetPayment(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	paymentId, ok := paramID(ctx, "paymentId")
	if !ok {
		return
	}

	payment, err := c.Payments.GetPayment(ctx.Request.Context(), actor, paymentId)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"payment": payment})
}

// MarkPaymentPaid settles a payment. Paying a canceled order answers 400.
func (c *Controller) MarkPaymentPaid(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	paymentId, ok := paramID(ctx, "paymentId")
	if !ok {
		return
	}

	payment, err := c.Payments.MarkPaid(ctx.Request.Context(), actor, paymentId)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Payment marked as paid.", "payment": payment})
}

func (c *Controller) InitiateGatewayPayment(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	paymentId, ok := paramID(ctx, "paymentId")
	if !ok {
		return
	}

	checkout, err := c.Payments.InitiateGatewayPayment(ctx.Request.Context(), actor, paymentId)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"message":           "Redirect user to payment.",
		"redirect_url":      checkout.RedirectURL,
		"order_tracking_id": checkout.TrackingID,
		"payment":           checkout.Payment,
	})
}

func (c *Controller) HandlePesapalIPN(ctx *gin.Context) {
	var trackingId, merchantRef string

	// POST carries a JSON body, GET carries query parameters
	if ctx.Request.Method == http.MethodPost {
		var payload struct {
			OrderTrackingId        string `json:"OrderTrackingId"`
			OrderMerchantReference string `json:"OrderMerchantReference"`
		}
		if err := ctx.ShouldBindJSON(&payload); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		trackingId = payload.OrderTrackingId
		merchantRef = payload.OrderMerchantReference
	} else {
		trackingId = ctx.Query("orderTrackingId")
		merchantRef = ctx.Query("orderMerchantReference")
	}

	if trackingId == "" || merchantRef == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing parameters"})
		return
	}

	if _, err := c.Payments.HandleGatewayNotification(ctx.Request.Context(), trackingId); err != nil {
		kind := services.KindOf(err)
		message := errorMessage(err)
		if kind == services.KindInternal {
			c.logger.Error().Err(err).Str("tracking_id", trackingId).Msg("pesapal ipn failed")
			message = "Failed to update payment status"
		}
		ctx.JSON(statusFor(kind), gin.H{"error": message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"orderNotificationType":  "IPNCHANGE",
		"orderTrackingId":        trackingId,
		"orderMerchantReference": merchantRef,
		"status":                 200,
	})
}
