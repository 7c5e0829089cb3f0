package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Kariqs/amexan-commerce/events"
	"github.com/Kariqs/amexan-commerce/models"
	"github.com/Kariqs/amexan-commerce/repositories"
)

type CheckoutInput struct {
	AddressID  *uint  `json:"address_id"`
	CouponCode string `json:"coupon_code"`
	Note       string `json:"note"`
}

type CheckoutResult struct {
	Order      *models.Order
	Redemption *Redemption
}

type CartService struct {
	base
	orders *OrderService
}

func NewCartService(store *repositories.Store, orders *OrderService, opts Options) *CartService {
	return &CartService{base: newBase(store, opts), orders: orders}
}

func (s *CartService) loadCart(tx *repositories.Store, userID uint) (*models.Cart, error) {
	cart, err := tx.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}
	if cart.Items, err = tx.CartItems(cart.ID); err != nil {
		return nil, err
	}
	return cart, nil
}

// AddToCart merges quantity into the cart line for the product. Stock is
// checked but not reserved; reservation happens at checkout.
func (s *CartService) AddToCart(ctx context.Context, actor Actor, productID uint, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, Validation("Quantity must be at least 1.")
	}

	var cart *models.Cart
	err := s.inTx(ctx, "add to cart", func(tx *repositories.Store) error {
		product, err := tx.GetProduct(productID)
		if err != nil {
			return lookup(err, "product")
		}

		c, err := tx.GetOrCreateCart(actor.UserID)
		if err != nil {
			return err
		}

		item, err := tx.FindCartItem(c.ID, product.ID)
		switch {
		case err == nil:
		case errors.Is(err, repositories.ErrNotFound):
			item = &models.CartItem{CartID: c.ID, ProductID: product.ID}
		default:
			return err
		}

		if item.Quantity+quantity > product.Stock {
			return insufficientStock(product, item.Quantity+quantity)
		}
		item.Quantity += quantity
		if err := tx.SaveCartItem(item); err != nil {
			return err
		}

		cart, err = s.loadCart(tx, actor.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) GetCart(ctx context.Context, actor Actor) (*models.Cart, error) {
	cart, err := s.loadCart(s.reader(ctx), actor.UserID)
	if err != nil {
		return nil, s.fail("get cart", err)
	}
	return cart, nil
}

func (s *CartService) RemoveFromCart(ctx context.Context, actor Actor, itemID uint) (*models.Cart, error) {
	var cart *models.Cart
	err := s.inTx(ctx, "remove from cart", func(tx *repositories.Store) error {
		c, err := tx.GetOrCreateCart(actor.UserID)
		if err != nil {
			return err
		}
		if err := tx.DeleteCartItem(c.ID, itemID); err != nil {
			return lookup(err, "cart item")
		}
		cart, err = s.loadCart(tx, actor.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// Checkout turns the cart into a pending order in one transaction: every
// line is added with its stock debit, the optional coupon is redeemed and
// the cart is emptied. Any failure leaves cart, stock and coupon as they
// were.
func (s *CartService) Checkout(ctx context.Context, actor Actor, in CheckoutInput) (*CheckoutResult, error) {
	var result *CheckoutResult
	err := s.inTx(ctx, "checkout", func(tx *repositories.Store) error {
		cart, err := s.loadCart(tx, actor.UserID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return Validation("Your cart is empty.")
		}

		addressID := in.AddressID
		if addressID == nil {
			address, err := tx.DefaultAddress(actor.UserID)
			if errors.Is(err, repositories.ErrNotFound) {
				return Validation("A delivery address is required to check out.")
			}
			if err != nil {
				return err
			}
			addressID = &address.ID
		}

		order, err := s.orders.createOrderTx(tx, actor.UserID, addressID)
		if err != nil {
			return err
		}
		order.Note = in.Note

		for _, line := range cart.Items {
			if _, err := s.orders.addItemTx(tx, order, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		if err := s.orders.recompute(tx, order); err != nil {
			return err
		}

		result = &CheckoutResult{Order: order}
		if code := strings.TrimSpace(in.CouponCode); code != "" {
			res, err := s.orders.applyCouponTx(tx, order, code)
			if err != nil {
				return err
			}
			result.Redemption = &res
		}

		if err := tx.ClearCart(cart.ID); err != nil {
			return err
		}

		result.Order, err = tx.GetOrder(order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	order := result.Order
	s.logger().Info().
		Uint("order_id", order.ID).
		Uint("user_id", order.UserID).
		Int("items", len(order.OrderItems)).
		Msg("cart checked out")

	evts := []events.Event{events.New(events.OrderCreated, order.ID, orderPayload(order))}
	for _, item := range order.OrderItems {
		evts = append(evts, events.New(events.StockChanged, item.ProductID, map[string]any{"delta": -item.Quantity}))
	}
	if result.Redemption != nil && result.Redemption.Applied() {
		evts = append(evts, events.New(events.CouponRedeemed, result.Redemption.Coupon.ID, map[string]any{
			"order_id": order.ID,
			"code":     result.Redemption.Coupon.Code,
			"discount": result.Redemption.Discount,
		}))
	}
	s.publish(ctx, evts...)
	return result, nil
}
