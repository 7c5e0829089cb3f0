package models

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrDeliveredWithoutDate = errors.New("delivered date must be set if shipment is marked as delivered")

var (
	weightRate   = decimal.RequireFromString("0.5")
	distanceRate = decimal.RequireFromString("0.2")
)

type ShipmentStatus string

const (
	ShipmentStatusPending   ShipmentStatus = "pending"
	ShipmentStatusInTransit ShipmentStatus = "in_transit"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
)

type ShippingMethod struct {
	Base
	Name           string          `gorm:"type:varchar(100);not null" json:"name" binding:"required"`
	Cost           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost"`
	EstimatedDays  int             `gorm:"not null" json:"estimated_days" binding:"min=0"`
	AvailableFrom  *time.Time      `json:"available_from"`
	AvailableUntil *time.Time      `json:"available_until"`
	Description    string          `gorm:"type:text" json:"description"`
}

func (m *ShippingMethod) IsAvailable(at time.Time) bool {
	if m.AvailableFrom != nil && at.Before(*m.AvailableFrom) {
		return false
	}
	if m.AvailableUntil != nil && at.After(*m.AvailableUntil) {
		return false
	}
	return true
}

// CalculateCost is cost + weight*0.5 + distance*0.2.
func (m *ShippingMethod) CalculateCost(weight, distance decimal.Decimal) decimal.Decimal {
	return m.Cost.
		Add(weight.Mul(weightRate)).
		Add(distance.Mul(distanceRate)).
		Round(2)
}

type Shipment struct {
	Base
	OrderID               *uint           `gorm:"uniqueIndex" json:"order_id"`
	Order                 *Order          `json:"-"`
	AddressID             uint            `gorm:"not null" json:"address_id"`
	Address               *Address        `json:"address,omitempty"`
	ShippingMethodID      *uint           `json:"shipping_method_id"`
	ShippingMethod        *ShippingMethod `json:"shipping_method,omitempty"`
	TrackingNumber        string          `gorm:"type:varchar(50);not null;uniqueIndex" json:"tracking_number"`
	ShippedDate           *time.Time      `json:"shipped_date"`
	DeliveredDate         *time.Time      `json:"delivered_date"`
	EstimatedDeliveryDate *time.Time      `json:"estimated_delivery_date"`
	IsDelivered           bool            `gorm:"not null" json:"is_delivered"`
	OrderStatus           ShipmentStatus  `gorm:"type:varchar(20);not null" json:"order_status"`
}

func (s *Shipment) Validate() error {
	if s.IsDelivered && (s.DeliveredDate == nil || s.DeliveredDate.IsZero()) {
		return ErrDeliveredWithoutDate
	}
	return nil
}

func (s *Shipment) BeforeSave(tx *gorm.DB) error {
	return s.Validate()
}

// EstimatedDaysLeft counts whole days until the estimated delivery, rounding
// down, so an overdue shipment yields a negative number. Nil when no
// estimate is set.
func (s *Shipment) EstimatedDaysLeft(now time.Time) *int {
	if s.EstimatedDeliveryDate == nil {
		return nil
	}
	days := int(math.Floor(s.EstimatedDeliveryDate.Sub(now).Hours() / 24))
	return &days
}
