package controllers

import (
	"net/http"
	"strconv"

	"github.com/Kariqs/amexan-commerce/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type validateCouponInput struct {
	Code       string              `json:"code" binding:"required"`
	OrderTotal decimal.NullDecimal `json:"order_total"`
}

// ValidateCoupon previews a coupon without redeeming it.
func (c *Controller) ValidateCoupon(ctx *gin.Context) {
	var input validateCouponInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		sendJSONResponse(ctx, http.StatusBadRequest, gin.H{"valid": false, "message": "Coupon code is required."})
		return
	}

	res, err := c.Coupons.Preview(ctx.Request.Context(), input.Code, input.OrderTotal)
	switch {
	case services.IsKind(err, services.KindNotFound):
		sendJSONResponse(ctx, http.StatusNotFound, gin.H{"valid": false, "message": "Invalid coupon code."})
		return
	case err != nil:
		c.handleServiceError(ctx, err)
		return
	case res.Reason != nil:
		sendJSONResponse(ctx, http.StatusBadRequest, gin.H{"valid": false, "message": services.RejectionMessage(res.Reason)})
		return
	}

	response := gin.H{"valid": true, "coupon": res.Coupon}
	if input.OrderTotal.Valid {
		response["discount"] = res.Discount
	}
	sendJSONResponse(ctx, http.StatusOK, response)
}

func (c *Controller) CreateCoupon(ctx *gin.Context) {
	var input services.CouponInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	coupon, err := c.Coupons.CreateCoupon(ctx.Request.Context(), input)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusCreated, gin.H{"coupon": coupon})
}

func (c *Controller) GetCoupons(ctx *gin.Context) {
	var active *bool
	if raw := ctx.Query("active"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			sendErrorResponse(ctx, http.StatusBadRequest, "active must be true or false")
			return
		}
		active = &value
	}

	coupons, err := c.Coupons.ListCoupons(ctx.Request.Context(), active)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"coupons": coupons})
}

func (c *Controller) GetCoupon(ctx *gin.Context) {
	couponId, ok := paramID(ctx, "couponId")
	if !ok {
		return
	}

	coupon, err := c.Coupons.GetCoupon(ctx.Request.Context(), couponId)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"coupon": coupon})
}

func (c *Controller) UpdateCoupon(ctx *gin.Context) {
	couponId, ok := paramID(ctx, "couponId")
	if !ok {
		return
	}

	var input services.CouponInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		respondWithError(ctx, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	coupon, err := c.Coupons.UpdateCoupon(ctx.Request.Context(), couponId, input)
	if err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"coupon": coupon})
}

func (c *Controller) DeleteCoupon(ctx *gin.Context) {
	couponId, ok := paramID(ctx, "couponId")
	if !ok {
		return
	}

	if err := c.Coupons.DeleteCoupon(ctx.Request.Context(), couponId); err != nil {
		c.handleServiceError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Coupon deleted successfully."})
}
