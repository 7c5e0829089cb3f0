package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MsgPaidCanceledOrder is the message clients receive when paying a canceled
// order.
const MsgPaidCanceledOrder = "Cannot mark payment as paid for a canceled order."

var ErrPaidCanceledOrder = errors.New("payment cannot be paid for a canceled order")

type Payment struct {
	Base
	OrderID       uint            `gorm:"not null;uniqueIndex" json:"order_id"`
	Order         *Order          `json:"-"`
	PaymentMethod string          `gorm:"type:varchar(50);not null" json:"payment_method"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20);not null" json:"payment_status"`
	TransactionID *string         `gorm:"type:varchar(100);uniqueIndex" json:"transaction_id"`
	PaymentDate   *time.Time      `json:"payment_date"`
	FinalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"final_amount"`
}

// BeforeSave rejects a paid payment for a canceled order on every write
// path, not only the service's mark-paid flow.
func (p *Payment) BeforeSave(tx *gorm.DB) error {
	if p.PaymentStatus != PaymentStatusPaid || p.OrderID == 0 {
		return nil
	}

	var order Order
	err := tx.Session(&gorm.Session{NewDB: true}).
		Select("id", "status").
		First(&order, p.OrderID).Error
	if err != nil {
		return err
	}
	if order.Status == OrderStatusCanceled {
		return ErrPaidCanceledOrder
	}
	return nil
}
