package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	OrderCreated       Type = "order.created"
	OrderItemsChanged  Type = "order.items_changed"
	OrderStatusChanged Type = "order.status_changed"
	OrderCanceled      Type = "order.canceled"
	OrderDelivered     Type = "order.delivered"
	CouponRedeemed     Type = "coupon.redeemed"
	PaymentCreated     Type = "payment.created"
	PaymentPaid        Type = "payment.paid"
	ShipmentCreated    Type = "shipment.created"
	ShipmentDelivered  Type = "shipment.delivered"
	StockChanged       Type = "product.stock_changed"
)

// Event is an integration message emitted after a transaction commits.
// Consumers must not rely on it for consistency of this service's data.
type Event struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	AggregateID uint      `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Payload     any       `json:"payload,omitempty"`
}

func New(t Type, aggregateID uint, payload any) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        t,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	}
}

type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, events ...Event) error { return nil }

func (NopPublisher) Close() error { return nil }
