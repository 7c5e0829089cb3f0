package repositories

import (
	"github.com/Kariqs/amexan-commerce/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

func (s *Store) CreateShipment(shipment *models.Shipment) error {
	return s.db.Omit(clause.Associations).Create(shipment).Error
}

// SaveShipment uses Save so the BeforeSave hook validates the full row.
func (s *Store) SaveShipment(shipment *models.Shipment) error {
	return s.db.Omit(clause.Associations).Save(shipment).Error
}

func (s *Store) GetShipment(id uint) (*models.Shipment, error) {
	var shipment models.Shipment
	err := s.db.Scopes(live).
		Preload("Address").
		Preload("ShippingMethod").
		First(&shipment, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &shipment, nil
}

func (s *Store) LockShipment(id uint) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := s.db.Scopes(live, forUpdate).First(&shipment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &shipment, nil
}

func (s *Store) ShipmentExistsForOrder(orderID uint) (bool, error) {
	var count int64
	err := s.db.Unscoped().Model(&models.Shipment{}).Where("order_id = ?", orderID).Count(&count).Error
	return count > 0, err
}

func (s *Store) ListShipmentsForUser(userID uint) ([]models.Shipment, error) {
	var shipments []models.Shipment
	err := s.db.Scopes(live).
		Joins("JOIN orders ON orders.id = shipments.order_id").
		Where("orders.user_id = ?", userID).
		Order("shipments.id DESC").
		Find(&shipments).Error
	return shipments, err
}

func (s *Store) CreateShippingMethod(method *models.ShippingMethod) error {
	return s.db.Create(method).Error
}

func (s *Store) GetShippingMethod(id uint) (*models.ShippingMethod, error) {
	var method models.ShippingMethod
	if err := s.db.Scopes(live).First(&method, id).Error; err != nil {
		return nil, translate(err)
	}
	return &method, nil
}

func (s *Store) ListShippingMethods(minCost, maxCost decimal.NullDecimal) ([]models.ShippingMethod, error) {
	var methods []models.ShippingMethod
	query := s.db.Scopes(live)
	if minCost.Valid {
		query = query.Where("cost >= ?", minCost.Decimal)
	}
	if maxCost.Valid {
		query = query.Where("cost <= ?", maxCost.Decimal)
	}
	err := query.Order("name").Find(&methods).Error
	return methods, err
}
