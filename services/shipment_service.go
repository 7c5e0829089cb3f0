package services

import (
	"context"
	"strings"
	"time"

	"github.com/Kariqs/amexan-commerce/events"
	"github.com/Kariqs/amexan-commerce/models"
	"github.com/Kariqs/amexan-commerce/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	DefaultWeight   = decimal.NewFromInt(10)
	DefaultDistance = decimal.NewFromInt(100)
)

type CreateShipmentInput struct {
	OrderID          *uint `json:"order_id"`
	AddressID        uint  `json:"address_id" binding:"required"`
	ShippingMethodID *uint `json:"shipping_method_id"`
}

type ShippingMethodInput struct {
	Name           string          `json:"name" binding:"required"`
	Cost           decimal.Decimal `json:"cost"`
	EstimatedDays  int             `json:"estimated_days"`
	AvailableFrom  *time.Time      `json:"available_from"`
	AvailableUntil *time.Time      `json:"available_until"`
	Description    string          `json:"description"`
}

type ShipmentService struct {
	base
	orders *OrderService
}

func NewShipmentService(store *repositories.Store, orders *OrderService, opts Options) *ShipmentService {
	return &ShipmentService{base: newBase(store, opts), orders: orders}
}

func newTrackingNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "SHP-" + strings.ToUpper(id[:12])
}

// CreateShipment dispatches a shipment. An attached order must be
// processing; it moves to shipped and shares the shipment's tracking
// number.
func (s *ShipmentService) CreateShipment(ctx context.Context, in CreateShipmentInput) (*models.Shipment, error) {
	var shipment *models.Shipment
	var order *models.Order
	err := s.inTx(ctx, "create shipment", func(tx *repositories.Store) error {
		if _, err := tx.GetAddress(in.AddressID); err != nil {
			return lookup(err, "address")
		}

		now := s.now()
		shipment = &models.Shipment{
			AddressID:        in.AddressID,
			ShippingMethodID: in.ShippingMethodID,
			TrackingNumber:   newTrackingNumber(),
			OrderStatus:      models.ShipmentStatusPending,
		}

		if in.ShippingMethodID != nil {
			method, err := tx.GetShippingMethod(*in.ShippingMethodID)
			if err != nil {
				return lookup(err, "shipping method")
			}
			if !method.IsAvailable(now) {
				return Validation("Shipping method %s is not available.", method.Name)
			}
			estimate := now.AddDate(0, 0, method.EstimatedDays)
			shipment.EstimatedDeliveryDate = &estimate
		}

		if in.OrderID != nil {
			exists, err := tx.ShipmentExistsForOrder(*in.OrderID)
			if err != nil {
				return err
			}
			if exists {
				return Conflict("A shipment already exists for this order.")
			}

			if order, err = tx.LockOrder(*in.OrderID); err != nil {
				return lookup(err, "order")
			}
			if order.Status != models.OrderStatusProcessing {
				return InvalidState("Only processing orders can be shipped, this order is %s.", order.Status)
			}

			order.Status = models.OrderStatusShipped
			order.ShippingDate = &now
			order.TrackingNumber = &shipment.TrackingNumber
			if err := tx.SaveOrder(order); err != nil {
				return err
			}
			shipment.OrderID = &order.ID
		}

		return tx.CreateShipment(shipment)
	})
	if err != nil {
		return nil, err
	}

	s.logger().Info().Uint("shipment_id", shipment.ID).Str("tracking_number", shipment.TrackingNumber).Msg("shipment created")
	evts := []events.Event{events.New(events.ShipmentCreated, shipment.ID, map[string]any{
		"order_id":        shipment.OrderID,
		"tracking_number": shipment.TrackingNumber,
	})}
	if order != nil {
		evts = append(evts, events.New(events.OrderStatusChanged, order.ID, orderPayload(order)))
	}
	s.publish(ctx, evts...)
	return shipment, nil
}

func (s *ShipmentService) GetShipment(ctx context.Context, actor Actor, shipmentID uint) (*models.Shipment, error) {
	shipment, err := s.reader(ctx).GetShipment(shipmentID)
	if err != nil {
		return nil, s.fail("get shipment", lookup(err, "shipment"))
	}
	if !actor.Admin && (shipment.Address == nil || shipment.Address.UserID != actor.UserID) {
		return nil, NotFound("shipment")
	}
	return shipment, nil
}

func (s *ShipmentService) ListShipments(ctx context.Context, actor Actor) ([]models.Shipment, error) {
	shipments, err := s.reader(ctx).ListShipmentsForUser(actor.UserID)
	if err != nil {
		return nil, s.fail("list shipments", err)
	}
	return shipments, nil
}

// UpdateStatus moves a pending shipment in transit. Delivery goes through
// MarkDelivered so the order is finalized with it.
func (s *ShipmentService) UpdateStatus(ctx context.Context, shipmentID uint, status models.ShipmentStatus) (*models.Shipment, error) {
	switch status {
	case models.ShipmentStatusPending, models.ShipmentStatusInTransit:
	case models.ShipmentStatusDelivered:
		return nil, Validation("Use mark-delivered to deliver a shipment.")
	default:
		return nil, Validation("Unknown shipment status %q.", status)
	}

	var shipment *models.Shipment
	err := s.inTx(ctx, "update shipment status", func(tx *repositories.Store) error {
		var err error
		if shipment, err = tx.LockShipment(shipmentID); err != nil {
			return lookup(err, "shipment")
		}
		if shipment.OrderStatus == status {
			return nil
		}
		if shipment.OrderStatus != models.ShipmentStatusPending || status != models.ShipmentStatusInTransit {
			return InvalidState("Cannot move a shipment from %s to %s.", shipment.OrderStatus, status)
		}

		now := s.now()
		shipment.OrderStatus = status
		shipment.ShippedDate = &now
		return tx.SaveShipment(shipment)
	})
	if err != nil {
		return nil, err
	}
	return shipment, nil
}

// MarkDelivered records delivery and finalizes the attached order in the
// same transaction. A shipment that is already delivered is returned
// unchanged.
func (s *ShipmentService) MarkDelivered(ctx context.Context, shipmentID uint, deliveredAt time.Time) (*models.Shipment, error) {
	if deliveredAt.IsZero() {
		return nil, Validation("Delivered date must be set if shipment is marked as delivered.")
	}

	var shipment *models.Shipment
	var order *models.Order
	var changed bool
	err := s.inTx(ctx, "mark shipment delivered", func(tx *repositories.Store) error {
		changed, order = false, nil
		var err error
		if shipment, err = tx.LockShipment(shipmentID); err != nil {
			return lookup(err, "shipment")
		}
		if shipment.IsDelivered {
			return nil
		}

		shipment.IsDelivered = true
		shipment.DeliveredDate = &deliveredAt
		shipment.OrderStatus = models.ShipmentStatusDelivered
		if shipment.ShippedDate == nil {
			shipment.ShippedDate = &deliveredAt
		}
		if err := tx.SaveShipment(shipment); err != nil {
			return err
		}

		if shipment.OrderID != nil {
			if order, _, err = s.orders.markDeliveredTx(tx, *shipment.OrderID); err != nil {
				return err
			}
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		evts := []events.Event{events.New(events.ShipmentDelivered, shipment.ID, map[string]any{
			"order_id":       shipment.OrderID,
			"delivered_date": deliveredAt,
		})}
		if order != nil {
			evts = append(evts, events.New(events.OrderDelivered, order.ID, orderPayload(order)))
		}
		s.publish(ctx, evts...)
	}
	return shipment, nil
}

func (s *ShipmentService) EstimatedDaysLeft(ctx context.Context, actor Actor, shipmentID uint) (*int, error) {
	shipment, err := s.GetShipment(ctx, actor, shipmentID)
	if err != nil {
		return nil, err
	}
	return shipment.EstimatedDaysLeft(s.now()), nil
}

// CalculateCost prices a shipment with the method's base cost plus weight
// and distance rates.
func (s *ShipmentService) CalculateCost(ctx context.Context, methodID uint, weight, distance decimal.Decimal) (decimal.Decimal, error) {
	if weight.IsNegative() || distance.IsNegative() {
		return decimal.Zero, Validation("Weight and distance must not be negative.")
	}

	method, err := s.reader(ctx).GetShippingMethod(methodID)
	if err != nil {
		return decimal.Zero, s.fail("calculate shipping cost", lookup(err, "shipping method"))
	}
	return method.CalculateCost(weight, distance), nil
}

func (s *ShipmentService) CreateMethod(ctx context.Context, in ShippingMethodInput) (*models.ShippingMethod, error) {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return nil, Validation("Shipping method name is required.")
	case in.Cost.IsNegative():
		return nil, Validation("Cost must not be negative.")
	case in.EstimatedDays < 0:
		return nil, Validation("Estimated days must not be negative.")
	case in.AvailableFrom != nil && in.AvailableUntil != nil && in.AvailableFrom.After(*in.AvailableUntil):
		return nil, Validation("available_from must not be after available_until")
	}

	method := &models.ShippingMethod{
		Name:           strings.TrimSpace(in.Name),
		Cost:           in.Cost.Round(2),
		EstimatedDays:  in.EstimatedDays,
		AvailableFrom:  in.AvailableFrom,
		AvailableUntil: in.AvailableUntil,
		Description:    in.Description,
	}
	if err := s.reader(ctx).CreateShippingMethod(method); err != nil {
		return nil, s.fail("create shipping method", err)
	}
	return method, nil
}

func (s *ShipmentService) GetMethod(ctx context.Context, methodID uint) (*models.ShippingMethod, error) {
	method, err := s.reader(ctx).GetShippingMethod(methodID)
	if err != nil {
		return nil, s.fail("get shipping method", lookup(err, "shipping method"))
	}
	return method, nil
}

func (s *ShipmentService) ListMethods(ctx context.Context, minCost, maxCost decimal.NullDecimal) ([]models.ShippingMethod, error) {
	methods, err := s.reader(ctx).ListShippingMethods(minCost, maxCost)
	if err != nil {
		return nil, s.fail("list shipping methods", err)
	}
	return methods, nil
}
