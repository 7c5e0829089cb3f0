package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Kariqs/amexan-commerce/events"
	"github.com/Kariqs/amexan-commerce/models"
	"github.com/Kariqs/amexan-commerce/repositories"
	"github.com/shopspring/decimal"
)

// Redemption is the outcome of applying a coupon. Reason is set when the
// coupon was rejected; the discount is then zero and nothing was redeemed.
type Redemption struct {
	Coupon   *models.Coupon
	Discount decimal.Decimal
	Reason   error
}

func (r Redemption) Applied() bool {
	return r.Reason == nil && r.Discount.IsPositive()
}

type CouponInput struct {
	Code          string              `json:"code" binding:"required"`
	DiscountValue decimal.Decimal     `json:"discount_value"`
	MinPurchase   decimal.NullDecimal `json:"min_purchase"`
	MaxDiscount   decimal.NullDecimal `json:"max_discount"`
	ValidFrom     time.Time           `json:"valid_from" binding:"required"`
	ValidUntil    time.Time           `json:"valid_until" binding:"required"`
	Active        *bool               `json:"active"`
	UsageLimit    *int                `json:"usage_limit"`
}

type CouponService struct {
	base
}

func NewCouponService(store *repositories.Store, opts Options) *CouponService {
	return &CouponService{base: newBase(store, opts)}
}

// Validate looks a coupon up by code. Whether it can be redeemed is a
// separate question answered by IsValid or Check.
func (s *CouponService) Validate(ctx context.Context, code string) (*models.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, Validation("coupon code is required")
	}

	coupon, err := s.reader(ctx).GetCouponByCode(code)
	if err != nil {
		return nil, s.fail("validate coupon", lookup(err, "coupon"))
	}
	return coupon, nil
}

func (s *CouponService) IsValid(coupon *models.Coupon, at time.Time) bool {
	return coupon.IsValid(at)
}

// Preview reports the discount the coupon would give on total right now
// without redeeming it.
func (s *CouponService) Preview(ctx context.Context, code string, total decimal.NullDecimal) (Redemption, error) {
	coupon, err := s.Validate(ctx, code)
	if err != nil {
		return Redemption{}, err
	}

	res := Redemption{Coupon: coupon, Discount: decimal.Zero}
	if res.Reason = coupon.Check(s.now()); res.Reason != nil {
		return res, nil
	}
	if total.Valid {
		res.Discount = coupon.DiscountFor(total.Decimal)
		if res.Discount.IsZero() {
			res.Reason = coupon.ZeroDiscountReason(total.Decimal)
		}
	}
	return res, nil
}

// Apply redeems the coupon against total inside the caller's transaction.
// Every validity failure yields a zero discount with the reason attached;
// only an unknown code or a database failure is returned as an error.
func (s *CouponService) Apply(tx *repositories.Store, code string, total decimal.Decimal) (Redemption, error) {
	coupon, err := tx.GetCouponByCode(strings.TrimSpace(code))
	if err != nil {
		return Redemption{}, lookup(err, "coupon")
	}

	coupon, err = tx.LockCoupon(coupon.ID)
	if err != nil {
		return Redemption{}, lookup(err, "coupon")
	}

	res := Redemption{Coupon: coupon, Discount: decimal.Zero}
	if res.Reason = coupon.Check(s.now()); res.Reason != nil {
		return res, nil
	}

	discount := coupon.DiscountFor(total)
	if discount.IsZero() {
		res.Reason = coupon.ZeroDiscountReason(total)
		return res, nil
	}

	redeemed, err := tx.RedeemCoupon(coupon.ID)
	if err != nil {
		return Redemption{}, err
	}
	if !redeemed {
		res.Reason = models.ErrCouponUsageLimit
		return res, nil
	}

	coupon.UsedCount++
	res.Discount = discount
	return res, nil
}

// Redeem applies the coupon in a transaction of its own.
func (s *CouponService) Redeem(ctx context.Context, code string, total decimal.Decimal) (Redemption, error) {
	var res Redemption
	err := s.inTx(ctx, "redeem coupon", func(tx *repositories.Store) error {
		var err error
		res, err = s.Apply(tx, code, total)
		return err
	})
	if err != nil {
		return Redemption{}, err
	}

	if res.Applied() {
		s.publish(ctx, events.New(events.CouponRedeemed, res.Coupon.ID, map[string]any{
			"code":     res.Coupon.Code,
			"discount": res.Discount,
		}))
	}
	return res, nil
}

func validateCouponInput(in CouponInput) error {
	switch {
	case strings.TrimSpace(in.Code) == "":
		return Validation("coupon code is required")
	case in.DiscountValue.IsNegative() || in.DiscountValue.GreaterThan(decimal.NewFromInt(100)):
		return Validation("discount value must be between 0 and 100")
	case in.ValidFrom.After(in.ValidUntil):
		return Validation("valid_from must not be after valid_until")
	case in.MinPurchase.Valid && in.MinPurchase.Decimal.IsNegative():
		return Validation("min purchase must not be negative")
	case in.MaxDiscount.Valid && in.MaxDiscount.Decimal.IsNegative():
		return Validation("max discount must not be negative")
	case in.UsageLimit != nil && *in.UsageLimit < 0:
		return Validation("usage limit must not be negative")
	}
	return nil
}

func (in CouponInput) apply(coupon *models.Coupon) {
	coupon.Code = strings.TrimSpace(in.Code)
	coupon.DiscountValue = in.DiscountValue
	coupon.MinPurchase = in.MinPurchase
	coupon.MaxDiscount = in.MaxDiscount
	coupon.ValidFrom = in.ValidFrom
	coupon.ValidUntil = in.ValidUntil
	coupon.UsageLimit = in.UsageLimit
	if in.Active != nil {
		coupon.Active = *in.Active
	}
}

func (s *CouponService) CreateCoupon(ctx context.Context, in CouponInput) (*models.Coupon, error) {
	if err := validateCouponInput(in); err != nil {
		return nil, err
	}

	coupon := &models.Coupon{Active: true}
	in.apply(coupon)

	err := s.inTx(ctx, "create coupon", func(tx *repositories.Store) error {
		exists, err := tx.CouponCodeExists(coupon.Code)
		if err != nil {
			return err
		}
		if exists {
			return Conflict("coupon code %q already exists", coupon.Code)
		}
		return tx.CreateCoupon(coupon)
	})
	if err != nil {
		return nil, err
	}
	return coupon, nil
}

// UpdateCoupon rewrites the coupon's terms. The usage counter is never
// taken from the client.
func (s *CouponService) UpdateCoupon(ctx context.Context, id uint, in CouponInput) (*models.Coupon, error) {
	if err := validateCouponInput(in); err != nil {
		return nil, err
	}

	var coupon *models.Coupon
	err := s.inTx(ctx, "update coupon", func(tx *repositories.Store) error {
		var err error
		coupon, err = tx.LockCoupon(id)
		if err != nil {
			return lookup(err, "coupon")
		}

		code := strings.TrimSpace(in.Code)
		if code != coupon.Code {
			exists, err := tx.CouponCodeExists(code)
			if err != nil {
				return err
			}
			if exists {
				return Conflict("coupon code %q already exists", code)
			}
		}

		in.apply(coupon)
		return tx.SaveCoupon(coupon)
	})
	if err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *CouponService) DeleteCoupon(ctx context.Context, id uint) error {
	err := s.reader(ctx).SoftDelete(&models.Coupon{}, id)
	if err != nil {
		return s.fail("delete coupon", lookup(err, "coupon"))
	}
	return nil
}

func (s *CouponService) GetCoupon(ctx context.Context, id uint) (*models.Coupon, error) {
	coupon, err := s.reader(ctx).GetCoupon(id)
	if err != nil {
		return nil, s.fail("get coupon", lookup(err, "coupon"))
	}
	return coupon, nil
}

func (s *CouponService) ListCoupons(ctx context.Context, active *bool) ([]models.Coupon, error) {
	coupons, err := s.reader(ctx).ListCoupons(active)
	if err != nil {
		return nil, s.fail("list coupons", err)
	}
	return coupons, nil
}

// RejectionMessage turns a coupon rejection reason into the text shown to
// clients.
func RejectionMessage(reason error) string {
	switch {
	case reason == nil:
		return ""
	case errors.Is(reason, models.ErrCouponInactive):
		return "This coupon is not active."
	case errors.Is(reason, models.ErrCouponNotStarted):
		return "This coupon is not valid yet."
	case errors.Is(reason, models.ErrCouponExpired):
		return "This coupon has expired."
	case errors.Is(reason, models.ErrCouponUsageLimit):
		return "This coupon has reached its usage limit."
	case errors.Is(reason, models.ErrCouponMinPurchase):
		return "The order total does not meet the coupon's minimum purchase."
	case errors.Is(reason, models.ErrCouponNoDiscount):
		return "This coupon gives no discount on this order."
	}
	return "This coupon cannot be applied."
}
