package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoupon() *Coupon {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	limit := 2
	return &Coupon{
		Code:          "SAVE20",
		DiscountValue: decimal.NewFromInt(20),
		MinPurchase:   decimal.NewNullDecimal(decimal.NewFromInt(50)),
		MaxDiscount:   decimal.NewNullDecimal(decimal.NewFromInt(15)),
		ValidFrom:     now.Add(-24 * time.Hour),
		ValidUntil:    now.Add(24 * time.Hour),
		Active:        true,
		UsageLimit:    &limit,
	}
}

func TestCouponCalculateDiscount(t *testing.T) {
	at := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	coupon := newTestCoupon()

	require.True(t, coupon.CalculateDiscount(decimal.NewFromInt(100), at).Equal(decimal.NewFromInt(15)), "capped by max_discount")
	require.True(t, coupon.CalculateDiscount(decimal.NewFromInt(40), at).IsZero(), "below min_purchase")
	require.True(t, coupon.CalculateDiscount(decimal.NewFromInt(60), at).Equal(decimal.NewFromInt(12)))
	require.True(t, coupon.CalculateDiscount(decimal.NewFromInt(50), at).Equal(decimal.NewFromInt(10)), "min_purchase is inclusive")
}

func TestCouponWithoutBounds(t *testing.T) {
	at := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	coupon := newTestCoupon()
	coupon.MinPurchase = decimal.NullDecimal{}
	coupon.MaxDiscount = decimal.NullDecimal{}
	coupon.UsageLimit = nil
	coupon.UsedCount = 1000

	got := coupon.CalculateDiscount(decimal.RequireFromString("33.33"), at)
	assert.Equal(t, "6.67", got.StringFixed(2))
	assert.True(t, coupon.IsValid(at))
}

func TestCouponCheck(t *testing.T) {
	at := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(c *Coupon)
		at     time.Time
		want   error
	}{
		{name: "valid", mutate: func(c *Coupon) {}, at: at, want: nil},
		{name: "inactive", mutate: func(c *Coupon) { c.Active = false }, at: at, want: ErrCouponInactive},
		{name: "not started", mutate: func(c *Coupon) {}, at: at.Add(-48 * time.Hour), want: ErrCouponNotStarted},
		{name: "expired", mutate: func(c *Coupon) {}, at: at.Add(48 * time.Hour), want: ErrCouponExpired},
		{name: "window start inclusive", mutate: func(c *Coupon) {}, at: at.Add(-24 * time.Hour), want: nil},
		{name: "window end inclusive", mutate: func(c *Coupon) {}, at: at.Add(24 * time.Hour), want: nil},
		{name: "usage limit reached", mutate: func(c *Coupon) { c.UsedCount = 2 }, at: at, want: ErrCouponUsageLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coupon := newTestCoupon()
			tt.mutate(coupon)
			assert.ErrorIs(t, coupon.Check(tt.at), tt.want)
			if tt.want != nil {
				assert.True(t, coupon.CalculateDiscount(decimal.NewFromInt(100), tt.at).IsZero())
			}
		})
	}
}

func TestCouponIsValidDoesNotMutate(t *testing.T) {
	at := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	coupon := newTestCoupon()
	coupon.UsedCount = 1

	for i := 0; i < 5; i++ {
		require.True(t, coupon.IsValid(at))
		coupon.CalculateDiscount(decimal.NewFromInt(100), at)
	}
	require.Equal(t, 1, coupon.UsedCount)
}

func TestCouponZeroDiscountReason(t *testing.T) {
	coupon := newTestCoupon()
	assert.ErrorIs(t, coupon.ZeroDiscountReason(decimal.NewFromInt(40)), ErrCouponMinPurchase)

	coupon.MinPurchase = decimal.NullDecimal{}
	coupon.DiscountValue = decimal.Zero
	assert.True(t, coupon.DiscountFor(decimal.NewFromInt(100)).IsZero())
	assert.ErrorIs(t, coupon.ZeroDiscountReason(decimal.NewFromInt(100)), ErrCouponNoDiscount)
	assert.ErrorIs(t, coupon.ZeroDiscountReason(decimal.Zero), ErrCouponNoDiscount, "empty order without a minimum")
}
