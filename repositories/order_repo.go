package repositories

import (
	"github.com/Kariqs/amexan-commerce/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderFilter struct {
	UserID *uint
	Status models.OrderStatus
	Page   int
	Limit  int
	Sort   string
}

func (s *Store) CreateOrder(order *models.Order) error {
	return s.db.Omit(clause.Associations).Create(order).Error
}

// GetOrder loads the order with its live items and their products.
func (s *Store) GetOrder(id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Scopes(live).
		Preload("OrderItems", live).
		Preload("OrderItems.Product", withDeleted).
		Preload("Address").
		First(&order, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *Store) LockOrder(id uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.Scopes(live, forUpdate).First(&order, id).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// SaveOrder writes the order row only; items are written through their own
// methods so a stale preloaded slice can never overwrite them.
func (s *Store) SaveOrder(order *models.Order) error {
	return s.db.Omit(clause.Associations).Save(order).Error
}

func (s *Store) ListOrders(filter OrderFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	var count int64

	filtered := func() *gorm.DB {
		query := s.db.Model(&models.Order{}).Scopes(live)
		if filter.UserID != nil {
			query = query.Where("user_id = ?", *filter.UserID)
		}
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		return query
	}
	if err := filtered().Count(&count).Error; err != nil {
		return nil, 0, err
	}

	sortOrder := "desc"
	if filter.Sort == "asc" {
		sortOrder = "asc"
	}

	err := filtered().Preload("OrderItems", live).
		Order("created_at " + sortOrder).
		Order("id " + sortOrder).
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&orders).Error
	return orders, count, err
}

func (s *Store) LiveItems(orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.Scopes(live).Where("order_id = ?", orderID).Order("id").Find(&items).Error
	return items, err
}

func (s *Store) FindLiveItemByProduct(orderID, productID uint) (*models.OrderItem, error) {
	var item models.OrderItem
	err := s.db.Scopes(live, forUpdate).
		Where("order_id = ? AND product_id = ?", orderID, productID).
		First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *Store) LockItem(orderID, itemID uint) (*models.OrderItem, error) {
	var item models.OrderItem
	err := s.db.Scopes(live, forUpdate).
		Where("order_id = ?", orderID).
		First(&item, itemID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *Store) CreateItem(item *models.OrderItem) error {
	return s.db.Omit(clause.Associations).Create(item).Error
}

func (s *Store) SaveItem(item *models.OrderItem) error {
	return s.db.Omit(clause.Associations).Save(item).Error
}
