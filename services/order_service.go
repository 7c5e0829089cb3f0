package services

import (
	"context"
	"errors"
	"sort"

	"github.com/Kariqs/amexan-commerce/events"
	"github.com/Kariqs/amexan-commerce/models"
	"github.com/Kariqs/amexan-commerce/repositories"
	"github.com/shopspring/decimal"
)

type OrderService struct {
	base
	coupons *CouponService
}

func NewOrderService(store *repositories.Store, coupons *CouponService, opts Options) *OrderService {
	return &OrderService{base: newBase(store, opts), coupons: coupons}
}

type OrderList struct {
	Orders []models.Order
	Total  int64
	Page   int
	Limit  int
}

func orderPayload(order *models.Order) map[string]any {
	return map[string]any{
		"user_id":         order.UserID,
		"status":          order.Status,
		"payment_status":  order.PaymentStatus,
		"total_amount":    order.TotalAmount,
		"discount_amount": order.DiscountAmount,
	}
}

func insufficientStock(product *models.Product, requested int) error {
	return Validation("Only %d units of %s are in stock, %d requested.", product.Stock, product.Name, requested)
}

func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, addressID *uint) (*models.Order, error) {
	var order *models.Order
	err := s.inTx(ctx, "create order", func(tx *repositories.Store) error {
		var err error
		order, err = s.createOrderTx(tx, actor.UserID, addressID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger().Info().Uint("order_id", order.ID).Uint("user_id", order.UserID).Msg("order created")
	s.publish(ctx, events.New(events.OrderCreated, order.ID, orderPayload(order)))
	return order, nil
}

func (s *OrderService) createOrderTx(tx *repositories.Store, userID uint, addressID *uint) (*models.Order, error) {
	if addressID != nil {
		if _, err := tx.GetAddressForUser(*addressID, userID); err != nil {
			return nil, lookup(err, "address")
		}
	}

	order := &models.Order{
		UserID:         userID,
		AddressID:      addressID,
		TotalAmount:    decimal.Zero,
		DiscountAmount: decimal.Zero,
		Status:         models.OrderStatusPending,
		PaymentStatus:  models.PaymentStatusPending,
	}
	if err := tx.CreateOrder(order); err != nil {
		return nil, err
	}
	return order, nil
}

// lockOrder reads the order under a row lock. Orders of other users are
// reported as missing.
func (s *OrderService) lockOrder(tx *repositories.Store, actor Actor, orderID uint) (*models.Order, error) {
	order, err := tx.LockOrder(orderID)
	if err != nil {
		return nil, lookup(err, "order")
	}
	if !actor.owns(order.UserID) {
		return nil, NotFound("order")
	}
	return order, nil
}

func requireEditable(order *models.Order) error {
	if order.Status != models.OrderStatusPending {
		return InvalidState("Items can only be changed while the order is pending, this order is %s.", order.Status)
	}
	return nil
}

// recompute rewrites the order total from its live items and re-derives the
// discount of an already redeemed coupon.
func (s *OrderService) recompute(tx *repositories.Store, order *models.Order) error {
	items, err := tx.LiveItems(order.ID)
	if err != nil {
		return err
	}

	order.TotalAmount = models.SumItems(items)
	order.DiscountAmount = decimal.Zero
	if order.CouponID != nil {
		coupon, err := tx.GetRedeemedCoupon(*order.CouponID)
		switch {
		case err == nil:
			order.DiscountAmount = coupon.DiscountFor(order.TotalAmount)
		case !errors.Is(err, repositories.ErrNotFound):
			return err
		}
	}
	return tx.SaveOrder(order)
}

// AddItem puts quantity units of a product on a pending order, debiting
// stock and recomputing the total in the same transaction. A product that
// is already on the order is merged into its existing line.
func (s *OrderService) AddItem(ctx context.Context, actor Actor, orderID, productID uint, quantity int) (*models.OrderItem, *models.Order, error) {
	if quantity < 1 {
		return nil, nil, Validation("Quantity must be at least 1.")
	}

	var item *models.OrderItem
	var order *models.Order
	err := s.inTx(ctx, "add order item", func(tx *repositories.Store) error {
		var err error
		if order, err = s.lockOrder(tx, actor, orderID); err != nil {
			return err
		}
		if err := requireEditable(order); err != nil {
			return err
		}
		if item, err = s.addItemTx(tx, order, productID, quantity); err != nil {
			return err
		}
		return s.recompute(tx, order)
	})
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx,
		events.New(events.OrderItemsChanged, order.ID, orderPayload(order)),
		events.New(events.StockChanged, productID, map[string]any{"delta": -quantity}),
	)
	return item, order, nil
}

func (s *OrderService) addItemTx(tx *repositories.Store, order *models.Order, productID uint, quantity int) (*models.OrderItem, error) {
	product, err := tx.LockProduct(productID)
	if err != nil {
		return nil, lookup(err, "product")
	}
	if quantity > product.Stock {
		return nil, insufficientStock(product, quantity)
	}
	if err := tx.DebitStock(product.ID, quantity); err != nil {
		if errors.Is(err, repositories.ErrInsufficientStock) {
			return nil, insufficientStock(product, quantity)
		}
		return nil, err
	}

	item, err := tx.FindLiveItemByProduct(order.ID, product.ID)
	switch {
	case err == nil:
		item.Quantity += quantity
		err = tx.SaveItem(item)
	case errors.Is(err, repositories.ErrNotFound):
		item = &models.OrderItem{
			OrderID:   order.ID,
			ProductID: product.ID,
			Quantity:  quantity,
			UnitPrice: product.Price,
		}
		err = tx.CreateItem(item)
	}
	if err != nil {
		return nil, err
	}

	product.Stock -= quantity
	item.Product = product
	return item, nil
}

// UpdateItemQuantity sets a line to newQuantity, debiting or crediting only
// the difference.
func (s *OrderService) UpdateItemQuantity(ctx context.Context, actor Actor, orderID, itemID uint, newQuantity int) (*models.OrderItem, *models.Order, error) {
	if newQuantity < 1 {
		return nil, nil, Validation("Quantity must be at least 1.")
	}

	var item *models.OrderItem
	var order *models.Order
	var delta int
	err := s.inTx(ctx, "update order item", func(tx *repositories.Store) error {
		var err error
		if order, err = s.lockOrder(tx, actor, orderID); err != nil {
			return err
		}
		if err := requireEditable(order); err != nil {
			return err
		}
		if item, err = tx.LockItem(order.ID, itemID); err != nil {
			return lookup(err, "order item")
		}

		product, err := tx.LockProductWithDeleted(item.ProductID)
		if err != nil {
			return lookup(err, "product")
		}

		delta = newQuantity - item.Quantity
		switch {
		case delta > 0 && product.IsDeleted:
			return NotFound("product")
		case delta > 0:
			if delta > product.Stock {
				return insufficientStock(product, delta)
			}
			if err := tx.DebitStock(product.ID, delta); err != nil {
				if errors.Is(err, repositories.ErrInsufficientStock) {
					return insufficientStock(product, delta)
				}
				return err
			}
		case delta < 0:
			if err := tx.CreditStock(product.ID, -delta); err != nil {
				return err
			}
		default:
			return nil
		}

		product.Stock -= delta
		item.Quantity = newQuantity
		item.Product = product
		if err := tx.SaveItem(item); err != nil {
			return err
		}
		return s.recompute(tx, order)
	})
	if err != nil {
		return nil, nil, err
	}

	if delta != 0 {
		s.publish(ctx,
			events.New(events.OrderItemsChanged, order.ID, orderPayload(order)),
			events.New(events.StockChanged, item.ProductID, map[string]any{"delta": -delta}),
		)
	}
	return item, order, nil
}

// RemoveItem credits the line's stock back and soft-deletes it.
func (s *OrderService) RemoveItem(ctx context.Context, actor Actor, orderID, itemID uint) (*models.Order, error) {
	var order *models.Order
	var item *models.OrderItem
	err := s.inTx(ctx, "remove order item", func(tx *repositories.Store) error {
		var err error
		if order, err = s.lockOrder(tx, actor, orderID); err != nil {
			return err
		}
		if err := requireEditable(order); err != nil {
			return err
		}
		if item, err = tx.LockItem(order.ID, itemID); err != nil {
			return lookup(err, "order item")
		}
		if err := tx.CreditStock(item.ProductID, item.Quantity); err != nil {
			return err
		}
		if err := tx.SoftDelete(&models.OrderItem{}, item.ID); err != nil {
			return err
		}
		return s.recompute(tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx,
		events.New(events.OrderItemsChanged, order.ID, orderPayload(order)),
		events.New(events.StockChanged, item.ProductID, map[string]any{"delta": item.Quantity}),
	)
	return order, nil
}

// CancelOrder moves a non-terminal order to canceled and returns the stock
// of every live line. A redeemed coupon stays consumed.
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, orderID uint) (*models.Order, error) {
	var order *models.Order
	err := s.inTx(ctx, "cancel order", func(tx *repositories.Store) error {
		var err error
		if order, err = s.lockOrder(tx, actor, orderID); err != nil {
			return err
		}
		return s.cancelTx(tx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger().Info().Uint("order_id", order.ID).Msg("order canceled")
	s.publish(ctx, events.New(events.OrderCanceled, order.ID, orderPayload(order)))
	return order, nil
}

func (s *OrderService) cancelTx(tx *repositories.Store, order *models.Order) error {
	if order.Status == models.OrderStatusCanceled {
		return InvalidState("Order is already canceled.")
	}
	if !order.Status.CanCancel() {
		return InvalidState("Cannot cancel an order that is %s.", order.Status)
	}

	items, err := tx.LiveItems(order.ID)
	if err != nil {
		return err
	}
	// Credit in product order so concurrent cancellations lock rows in the
	// same sequence.
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	for _, item := range items {
		if err := tx.CreditStock(item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	order.Status = models.OrderStatusCanceled
	return tx.SaveOrder(order)
}

// MarkDelivered finalizes a shipped order. Calling it again on a delivered
// order is a no-op.
func (s *OrderService) MarkDelivered(ctx context.Context, orderID uint) (*models.Order, error) {
	var order *models.Order
	var changed bool
	err := s.inTx(ctx, "mark order delivered", func(tx *repositories.Store) error {
		var err error
		order, changed, err = s.markDeliveredTx(tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publish(ctx, events.New(events.OrderDelivered, order.ID, orderPayload(order)))
	}
	return order, nil
}

func (s *OrderService) markDeliveredTx(tx *repositories.Store, orderID uint) (*models.Order, bool, error) {
	order, err := tx.LockOrder(orderID)
	if err != nil {
		return nil, false, lookup(err, "order")
	}

	switch order.Status {
	case models.OrderStatusDelivered:
		return order, false, nil
	case models.OrderStatusShipped:
	default:
		return nil, false, InvalidState("Only shipped orders can be delivered, this order is %s.", order.Status)
	}

	order.Status = models.OrderStatusDelivered
	if err := tx.SaveOrder(order); err != nil {
		return nil, false, err
	}
	return order, true, nil
}

// AdvanceStatus moves an order one step forward, or cancels it. Skipping a
// step is rejected.
func (s *OrderService) AdvanceStatus(ctx context.Context, orderID uint, target models.OrderStatus) (*models.Order, error) {
	if !target.Valid() {
		return nil, Validation("Unknown order status %q.", target)
	}
	switch target {
	case models.OrderStatusCanceled:
		return s.CancelOrder(ctx, System, orderID)
	case models.OrderStatusDelivered:
		return s.MarkDelivered(ctx, orderID)
	}

	var order *models.Order
	var changed bool
	err := s.inTx(ctx, "advance order status", func(tx *repositories.Store) error {
		changed = false
		var err error
		if order, err = s.lockOrder(tx, System, orderID); err != nil {
			return err
		}
		if order.Status == target {
			return nil
		}

		next, ok := order.Status.Next()
		if !ok || next != target {
			return InvalidState("Cannot move an order from %s to %s.", order.Status, target)
		}

		order.Status = target
		if target == models.OrderStatusShipped && order.ShippingDate == nil {
			now := s.now()
			order.ShippingDate = &now
		}
		changed = true
		return tx.SaveOrder(order)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publish(ctx, events.New(events.OrderStatusChanged, order.ID, orderPayload(order)))
	}
	return order, nil
}

// ApplyCoupon redeems a coupon against the current total of a pending
// order. A rejected coupon leaves the order untouched and reports why.
func (s *OrderService) ApplyCoupon(ctx context.Context, actor Actor, orderID uint, code string) (*models.Order, Redemption, error) {
	var order *models.Order
	var res Redemption
	err := s.inTx(ctx, "apply coupon", func(tx *repositories.Store) error {
		var err error
		if order, err = s.lockOrder(tx, actor, orderID); err != nil {
			return err
		}
		if err := requireEditable(order); err != nil {
			return err
		}
		if order.CouponID != nil {
			return Conflict("A coupon has already been applied to this order.")
		}
		res, err = s.applyCouponTx(tx, order, code)
		return err
	})
	if err != nil {
		return nil, Redemption{}, err
	}

	if res.Applied() {
		s.publish(ctx, events.New(events.CouponRedeemed, res.Coupon.ID, map[string]any{
			"order_id": order.ID,
			"code":     res.Coupon.Code,
			"discount": res.Discount,
		}))
	}
	return order, res, nil
}

func (s *OrderService) applyCouponTx(tx *repositories.Store, order *models.Order, code string) (Redemption, error) {
	res, err := s.coupons.Apply(tx, code, order.TotalAmount)
	if err != nil || !res.Applied() {
		return res, err
	}

	order.CouponID = &res.Coupon.ID
	order.DiscountAmount = res.Discount
	return res, tx.SaveOrder(order)
}

func (s *OrderService) GetOrder(ctx context.Context, actor Actor, orderID uint) (*models.Order, error) {
	order, err := s.reader(ctx).GetOrder(orderID)
	if err != nil {
		return nil, s.fail("get order", lookup(err, "order"))
	}
	if !actor.owns(order.UserID) {
		return nil, NotFound("order")
	}
	return order, nil
}

// ListOrders pages through the caller's orders. Admins see every order.
func (s *OrderService) ListOrders(ctx context.Context, actor Actor, filter repositories.OrderFilter) (*OrderList, error) {
	if !actor.Admin {
		userID := actor.UserID
		filter.UserID = &userID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, Validation("Unknown order status %q.", filter.Status)
	}
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	orders, count, err := s.reader(ctx).ListOrders(filter)
	if err != nil {
		return nil, s.fail("list orders", err)
	}
	return &OrderList{Orders: orders, Total: count, Page: filter.Page, Limit: filter.Limit}, nil
}

// DeleteOrder soft-deletes an order that no longer carries reserved stock:
// a finished order or an empty pending one.
func (s *OrderService) DeleteOrder(ctx context.Context, actor Actor, orderID uint) error {
	return s.inTx(ctx, "delete order", func(tx *repositories.Store) error {
		order, err := s.lockOrder(tx, actor, orderID)
		if err != nil {
			return err
		}

		switch order.Status {
		case models.OrderStatusCanceled, models.OrderStatusDelivered:
		case models.OrderStatusPending:
			items, err := tx.LiveItems(order.ID)
			if err != nil {
				return err
			}
			if len(items) > 0 {
				return InvalidState("Cancel the order or remove its items before deleting it.")
			}
		default:
			return InvalidState("Cannot delete an order that is %s.", order.Status)
		}
		return tx.SoftDelete(&models.Order{}, order.ID)
	})
}

func (s *OrderService) RestoreOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	if err := s.reader(ctx).Restore(&models.Order{}, orderID); err != nil {
		return nil, s.fail("restore order", lookup(err, "order"))
	}
	return s.GetOrder(ctx, System, orderID)
}
