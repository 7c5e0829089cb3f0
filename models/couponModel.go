package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrCouponInactive    = errors.New("coupon is not active")
	ErrCouponNotStarted  = errors.New("coupon is not valid yet")
	ErrCouponExpired     = errors.New("coupon has expired")
	ErrCouponUsageLimit  = errors.New("coupon usage limit reached")
	ErrCouponMinPurchase = errors.New("order total is below the coupon minimum purchase")
	ErrCouponNoDiscount  = errors.New("coupon gives no discount on this total")
)

var hundred = decimal.NewFromInt(100)

type Coupon struct {
	Base
	Code          string              `gorm:"type:varchar(50);not null;uniqueIndex" json:"code" binding:"required"`
	DiscountValue decimal.Decimal     `gorm:"type:decimal(5,2);not null" json:"discount_value"`
	MinPurchase   decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"min_purchase"`
	MaxDiscount   decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"max_discount"`
	ValidFrom     time.Time           `gorm:"not null" json:"valid_from" binding:"required"`
	ValidUntil    time.Time           `gorm:"not null" json:"valid_until" binding:"required"`
	Active        bool                `gorm:"not null" json:"active"`
	UsageLimit    *int                `json:"usage_limit"`
	UsedCount     int                 `gorm:"not null" json:"used_count"`
}

// Check reports why the coupon cannot be redeemed at the given time, or nil.
// It never mutates the coupon.
func (c *Coupon) Check(at time.Time) error {
	switch {
	case !c.Active:
		return ErrCouponInactive
	case at.Before(c.ValidFrom):
		return ErrCouponNotStarted
	case at.After(c.ValidUntil):
		return ErrCouponExpired
	case c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit:
		return ErrCouponUsageLimit
	}
	return nil
}

func (c *Coupon) IsValid(at time.Time) bool {
	return c.Check(at) == nil
}

// DiscountFor applies the percentage and the min/max bounds without looking
// at validity. Used to re-derive the discount of an already redeemed coupon.
func (c *Coupon) DiscountFor(total decimal.Decimal) decimal.Decimal {
	if total.IsNegative() || total.IsZero() {
		return decimal.Zero
	}
	if c.MinPurchase.Valid && total.LessThan(c.MinPurchase.Decimal) {
		return decimal.Zero
	}

	discount := total.Mul(c.DiscountValue).Div(hundred)
	if c.MaxDiscount.Valid && discount.GreaterThan(c.MaxDiscount.Decimal) {
		discount = c.MaxDiscount.Decimal
	}
	return discount.Round(2)
}

// ZeroDiscountReason explains why DiscountFor returned zero for total.
func (c *Coupon) ZeroDiscountReason(total decimal.Decimal) error {
	if c.MinPurchase.Valid && total.LessThan(c.MinPurchase.Decimal) {
		return ErrCouponMinPurchase
	}
	return ErrCouponNoDiscount
}

// CalculateDiscount returns zero when the coupon is invalid at the given
// time or the total is below the minimum purchase.
func (c *Coupon) CalculateDiscount(total decimal.Decimal, at time.Time) decimal.Decimal {
	if !c.IsValid(at) {
		return decimal.Zero
	}
	return c.DiscountFor(total)
}
