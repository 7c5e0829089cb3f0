package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kariqs/amexan-commerce/events"
	"github.com/Kariqs/amexan-commerce/gateways/pesapal"
	"github.com/Kariqs/amexan-commerce/models"
	"github.com/Kariqs/amexan-commerce/repositories"
	"github.com/shopspring/decimal"
)

// PaymentGateway is the hosted checkout a payment can be settled through.
type PaymentGateway interface {
	SubmitOrder(ctx context.Context, req pesapal.OrderRequest) (*pesapal.OrderResponse, error)
	TransactionStatus(ctx context.Context, trackingID string) (*pesapal.TransactionStatus, error)
}

type CreatePaymentInput struct {
	OrderID       uint                `json:"order_id" binding:"required"`
	PaymentMethod string              `json:"payment_method" binding:"required"`
	FinalAmount   decimal.NullDecimal `json:"final_amount"`
	TransactionID *string             `json:"transaction_id"`
}

type GatewayCheckout struct {
	Payment     *models.Payment
	RedirectURL string
	TrackingID  string
}

type PaymentService struct {
	base
	gateway PaymentGateway
}

func NewPaymentService(store *repositories.Store, gateway PaymentGateway, opts Options) *PaymentService {
	return &PaymentService{base: newBase(store, opts), gateway: gateway}
}

// CreatePayment opens the single payment an order may have. The amount
// defaults to the order total less its discount.
func (s *PaymentService) CreatePayment(ctx context.Context, actor Actor, in CreatePaymentInput) (*models.Payment, error) {
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		return nil, Validation("Payment method is required.")
	}
	if in.FinalAmount.Valid && in.FinalAmount.Decimal.IsNegative() {
		return nil, Validation("Final amount must not be negative.")
	}
	if in.TransactionID != nil && strings.TrimSpace(*in.TransactionID) == "" {
		in.TransactionID = nil
	}

	var payment *models.Payment
	err := s.inTx(ctx, "create payment", func(tx *repositories.Store) error {
		order, err := tx.LockOrder(in.OrderID)
		if err != nil {
			return lookup(err, "order")
		}
		if !actor.owns(order.UserID) {
			return NotFound("order")
		}
		if order.Status == models.OrderStatusCanceled {
			return InvalidState("Cannot create a payment for a canceled order.")
		}

		exists, err := tx.PaymentExistsForOrder(order.ID)
		if err != nil {
			return err
		}
		if exists {
			return Conflict("A payment already exists for this order.")
		}
		if in.TransactionID != nil {
			taken, err := tx.TransactionIDExists(*in.TransactionID)
			if err != nil {
				return err
			}
			if taken {
				return Conflict("Transaction id is already in use.")
			}
		}

		amount := order.PayableAmount()
		if in.FinalAmount.Valid {
			amount = in.FinalAmount.Decimal.Round(2)
		}

		payment = &models.Payment{
			OrderID:       order.ID,
			PaymentMethod: method,
			PaymentStatus: models.PaymentStatusPending,
			TransactionID: in.TransactionID,
			FinalAmount:   amount,
		}
		return tx.CreatePayment(payment)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.New(events.PaymentCreated, payment.ID, map[string]any{
		"order_id":     payment.OrderID,
		"final_amount": payment.FinalAmount,
	}))
	return payment, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, actor Actor, paymentID uint) (*models.Payment, error) {
	store := s.reader(ctx)
	payment, err := store.GetPayment(paymentID)
	if err != nil {
		return nil, s.fail("get payment", lookup(err, "payment"))
	}
	if !actor.Admin {
		order, err := store.GetOrder(payment.OrderID)
		if err != nil || order.UserID != actor.UserID {
			return nil, NotFound("payment")
		}
	}
	return payment, nil
}

// MarkPaid settles a payment and projects the result onto its order,
// advancing a pending order to processing. Paying an already paid payment
// changes nothing.
func (s *PaymentService) MarkPaid(ctx context.Context, actor Actor, paymentID uint) (*models.Payment, error) {
	var payment *models.Payment
	var order *models.Order
	var changed bool
	err := s.inTx(ctx, "mark payment paid", func(tx *repositories.Store) error {
		var err error
		payment, order, changed, err = s.markPaidTx(tx, actor, paymentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger().Info().
			Uint("payment_id", payment.ID).
			Uint("order_id", order.ID).
			Str("order_status", string(order.Status)).
			Msg("payment marked paid")
		s.publish(ctx,
			events.New(events.PaymentPaid, payment.ID, map[string]any{
				"order_id":     payment.OrderID,
				"final_amount": payment.FinalAmount,
			}),
			events.New(events.OrderStatusChanged, order.ID, orderPayload(order)),
		)
	}
	return payment, nil
}

func (s *PaymentService) markPaidTx(tx *repositories.Store, actor Actor, paymentID uint) (*models.Payment, *models.Order, bool, error) {
	payment, err := tx.LockPayment(paymentID)
	if err != nil {
		return nil, nil, false, lookup(err, "payment")
	}
	order, err := tx.LockOrder(payment.OrderID)
	if err != nil {
		return nil, nil, false, lookup(err, "order")
	}
	if !actor.owns(order.UserID) {
		return nil, nil, false, NotFound("payment")
	}

	if order.Status == models.OrderStatusCanceled {
		return nil, nil, false, InvalidState(models.MsgPaidCanceledOrder)
	}
	if payment.PaymentStatus == models.PaymentStatusPaid {
		return payment, order, false, nil
	}

	now := s.now()
	payment.PaymentStatus = models.PaymentStatusPaid
	payment.PaymentDate = &now
	if err := tx.SavePayment(payment); err != nil {
		return nil, nil, false, err
	}

	order.PaymentStatus = models.PaymentStatusPaid
	if order.Status == models.OrderStatusPending {
		order.Status = models.OrderStatusProcessing
	}
	if err := tx.SaveOrder(order); err != nil {
		return nil, nil, false, err
	}
	return payment, order, true, nil
}

// InitiateGatewayPayment registers the payment with the hosted checkout and
// keeps the gateway tracking id as the payment's transaction id.
func (s *PaymentService) InitiateGatewayPayment(ctx context.Context, actor Actor, paymentID uint) (*GatewayCheckout, error) {
	if s.gateway == nil {
		return nil, InvalidState("Payment gateway is not configured.")
	}

	payment, err := s.GetPayment(ctx, actor, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.PaymentStatus == models.PaymentStatusPaid {
		return nil, InvalidState("Payment is already paid.")
	}

	store := s.reader(ctx)
	order, err := store.GetOrder(payment.OrderID)
	if err != nil {
		return nil, s.fail("initiate gateway payment", lookup(err, "order"))
	}
	if order.Status == models.OrderStatusCanceled {
		return nil, InvalidState(models.MsgPaidCanceledOrder)
	}
	user, err := store.GetUser(order.UserID)
	if err != nil {
		return nil, s.fail("initiate gateway payment", lookup(err, "user"))
	}

	billing := pesapal.BillingAddress{
		EmailAddress: user.Email,
		PhoneNumber:  user.Phone,
		CountryCode:  "KE",
		FirstName:    user.Fullname,
	}
	if order.Address != nil {
		billing.City = order.Address.City
		billing.Line1 = order.Address.Street
	}

	amount, _ := payment.FinalAmount.Float64()
	resp, err := s.gateway.SubmitOrder(ctx, pesapal.OrderRequest{
		ID:             fmt.Sprintf("ORDER-%d-PAY-%d", order.ID, payment.ID),
		Currency:       "KES",
		Amount:         amount,
		Description:    fmt.Sprintf("Payment for order #%d", order.ID),
		BillingAddress: billing,
	})
	if err != nil {
		s.logger().Error().Err(err).Uint("payment_id", payment.ID).Msg("pesapal submit order failed")
		return nil, Internal("Failed to initiate payment", err)
	}

	err = s.inTx(ctx, "store gateway tracking id", func(tx *repositories.Store) error {
		locked, err := tx.LockPayment(payment.ID)
		if err != nil {
			return lookup(err, "payment")
		}
		if locked.PaymentStatus == models.PaymentStatusPaid {
			return InvalidState("Payment is already paid.")
		}
		locked.TransactionID = &resp.OrderTrackingID
		payment = locked
		return tx.SavePayment(locked)
	})
	if err != nil {
		return nil, err
	}

	return &GatewayCheckout{Payment: payment, RedirectURL: resp.RedirectURL, TrackingID: resp.OrderTrackingID}, nil
}

// HandleGatewayNotification re-reads the transaction from the gateway and
// settles the payment when the gateway reports it completed.
func (s *PaymentService) HandleGatewayNotification(ctx context.Context, trackingID string) (*models.Payment, error) {
	if s.gateway == nil {
		return nil, InvalidState("Payment gateway is not configured.")
	}
	if strings.TrimSpace(trackingID) == "" {
		return nil, Validation("Missing parameters")
	}

	payment, err := s.reader(ctx).GetPaymentByTransactionID(trackingID)
	if err != nil {
		return nil, s.fail("gateway notification", lookup(err, "payment"))
	}

	status, err := s.gateway.TransactionStatus(ctx, trackingID)
	if err != nil {
		s.logger().Error().Err(err).Str("tracking_id", trackingID).Msg("pesapal status check failed")
		return nil, Internal("Failed to check payment status", err)
	}

	s.logger().Info().
		Str("tracking_id", trackingID).
		Str("status", status.PaymentStatusDescription).
		Msg("pesapal notification")
	if !status.Completed() {
		return payment, nil
	}
	return s.MarkPaid(ctx, System, payment.ID)
}
