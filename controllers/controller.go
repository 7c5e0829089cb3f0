package controllers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/Kariqs/amexan-commerce/middlewares"
	"github.com/Kariqs/amexan-commerce/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	msgInvalidInput        = "invalid input"
	msgInternalServerError = "Internal server error"
	msgUnauthenticated     = "Authentication required"
)

// Services groups the domain services the handlers call.
type Services struct {
	Accounts  *services.AccountService
	Catalog   *services.CatalogService
	Carts     *services.CartService
	Orders    *services.OrderService
	Coupons   *services.CouponService
	Payments  *services.PaymentService
	Shipments *services.ShipmentService
}

type Controller struct {
	Services
	logger zerolog.Logger
}

func New(svc Services, logger zerolog.Logger) *Controller {
	return &Controller{Services: svc, logger: logger}
}

func sendJSONResponse(ctx *gin.Context, status int, data gin.H) {
	ctx.JSON(status, data)
}

func sendErrorResponse(ctx *gin.Context, status int, message string) {
	sendJSONResponse(ctx, status, gin.H{"message": message})
}

// Common error response helper
func respondWithError(ctx *gin.Context, statusCode int, message string, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	ctx.JSON(statusCode, gin.H{
		"message": message,
		"error":   errMsg,
	})
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation, services.KindInvalidState:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func errorMessage(err error) string {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	return msgInternalServerError
}

// handleServiceError writes the response for an error returned by a
// service. Causes of internal errors are logged, never sent.
func (c *Controller) handleServiceError(ctx *gin.Context, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		svcErr = &services.Error{Kind: services.KindInternal, Message: msgInternalServerError, Err: err}
	}

	status := statusFor(svcErr.Kind)
	if status >= http.StatusInternalServerError {
		_ = ctx.Error(err)
		c.logger.Error().Err(err).
			Str("method", ctx.Request.Method).
			Str("path", ctx.FullPath()).
			Msg("request failed")
	}
	sendErrorResponse(ctx, status, svcErr.Message)
}

// currentActor reads the caller set by RequireAuth. It writes a 401 and
// returns false when there is none.
func currentActor(ctx *gin.Context) (services.Actor, bool) {
	userID, ok := middlewares.UserID(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, msgUnauthenticated)
		return services.Actor{}, false
	}
	return services.Actor{UserID: userID, Admin: middlewares.IsAdmin(ctx)}, true
}

// paramID parses a positive numeric path parameter, answering 400 when it
// is malformed.
func paramID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse "+name)
		return 0, false
	}
	return uint(id), true
}

func pageQuery(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "15"))
	return page, limit
}

func pageMetadata(total int64, page, limit int) gin.H {
	previousPage := page - 1
	nextPage := page + 1
	totalPages := math.Ceil(float64(total) / float64(limit))

	return gin.H{
		"total":        total,
		"currentPage":  page,
		"limit":        limit,
		"hasPrevPage":  previousPage > 0,
		"hasNextPage":  int(totalPages) > page,
		"previousPage": previousPage,
		"nextPage":     nextPage,
	}
}
