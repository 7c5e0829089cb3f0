package repositories

import (
	"errors"

	"github.com/Kariqs/amexan-commerce/models"
	"gorm.io/gorm/clause"
)

// GetOrCreateCart returns the user's cart, creating an empty one on first
// use.
func (s *Store) GetOrCreateCart(userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.Scopes(live).Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(translate(err), ErrNotFound) {
		return nil, err
	}

	cart = models.Cart{UserID: userID}
	if err := s.db.Omit(clause.Associations).Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *Store) CartItems(cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := s.db.Scopes(live).
		Preload("Product").
		Where("cart_id = ?", cartID).
		Order("id").
		Find(&items).Error
	return items, err
}

func (s *Store) FindCartItem(cartID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.Scopes(live).Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *Store) GetCartItem(cartID, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.Scopes(live).Where("cart_id = ?", cartID).First(&item, itemID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *Store) SaveCartItem(item *models.CartItem) error {
	return s.db.Omit(clause.Associations).Save(item).Error
}

// DeleteCartItem hard-deletes: cart lines are never referenced by orders.
func (s *Store) DeleteCartItem(cartID, itemID uint) error {
	res := s.db.Unscoped().Where("cart_id = ? AND id = ?", cartID, itemID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ClearCart(cartID uint) error {
	return s.db.Unscoped().Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}
