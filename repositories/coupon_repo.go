package repositories

import (
	"github.com/Kariqs/amexan-commerce/models"
	"gorm.io/gorm"
)

func (s *Store) CreateCoupon(coupon *models.Coupon) error {
	return s.db.Create(coupon).Error
}

func (s *Store) SaveCoupon(coupon *models.Coupon) error {
	return s.db.Save(coupon).Error
}

func (s *Store) GetCoupon(id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := s.db.Scopes(live).First(&coupon, id).Error; err != nil {
		return nil, translate(err)
	}
	return &coupon, nil
}

// GetRedeemedCoupon reads a coupon including soft-deleted ones. Orders that
// already redeemed a coupon keep its terms after it is deleted.
func (s *Store) GetRedeemedCoupon(id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := s.db.Unscoped().First(&coupon, id).Error; err != nil {
		return nil, translate(err)
	}
	return &coupon, nil
}

func (s *Store) GetCouponByCode(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := s.db.Scopes(live).Where("code = ?", code).First(&coupon).Error; err != nil {
		return nil, translate(err)
	}
	return &coupon, nil
}

func (s *Store) CouponCodeExists(code string) (bool, error) {
	var count int64
	err := s.db.Unscoped().Model(&models.Coupon{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

func (s *Store) LockCoupon(id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := s.db.Scopes(live, forUpdate).First(&coupon, id).Error; err != nil {
		return nil, translate(err)
	}
	return &coupon, nil
}

func (s *Store) ListCoupons(active *bool) ([]models.Coupon, error) {
	var coupons []models.Coupon
	query := s.db.Scopes(live)
	if active != nil {
		query = query.Where("active = ?", *active)
	}
	err := query.Order("id").Find(&coupons).Error
	return coupons, err
}

// RedeemCoupon increments used_count only if the coupon still has room
// under its usage limit. It reports false when another redemption got
// there first.
func (s *Store) RedeemCoupon(id uint) (bool, error) {
	res := s.db.Model(&models.Coupon{}).
		Where("id = ? AND active = ?", id, true).
		Where("usage_limit IS NULL OR used_count < usage_limit").
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
