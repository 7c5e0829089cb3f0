package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Kariqs/amexan-commerce/events"
	"github.com/Kariqs/amexan-commerce/models"
	"github.com/Kariqs/amexan-commerce/repositories"
	"github.com/Kariqs/amexan-commerce/testutil"
	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, evts ...events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(t events.Type) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, evt := range p.events {
		if evt.Type == t {
			n++
		}
	}
	return n
}

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type serviceSuite struct {
	suite.Suite
	ctx       context.Context
	db        *gorm.DB
	store     *repositories.Store
	publisher *recordingPublisher
	coupons   *CouponService
	orders    *OrderService
	carts     *CartService
	payments  *PaymentService
	shipments *ShipmentService
	user      *models.User
	actor     Actor
	address   *models.Address
}

func (s *serviceSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewDB(s.T())
	s.store = repositories.NewStore(s.db)
	s.publisher = &recordingPublisher{}

	opts := Options{
		MaxRetries: 3,
		Logger:     zerolog.Nop(),
		Publisher:  s.publisher,
		Now:        func() time.Time { return testNow },
	}
	s.coupons = NewCouponService(s.store, opts)
	s.orders = NewOrderService(s.store, s.coupons, opts)
	s.carts = NewCartService(s.store, s.orders, opts)
	s.payments = NewPaymentService(s.store, nil, opts)
	s.shipments = NewShipmentService(s.store, s.orders, opts)

	s.user = testutil.CreateUser(s.T(), s.db, "jane")
	s.actor = Actor{UserID: s.user.ID}
	s.address = testutil.CreateAddress(s.T(), s.db, s.user.ID, true)
}

func (s *serviceSuite) newOrder() *models.Order {
	order, err := s.orders.CreateOrder(s.ctx, s.actor, &s.address.ID)
	require.NoError(s.T(), err)
	return order
}

func (s *serviceSuite) reloadOrder(id uint) *models.Order {
	order, err := s.store.GetOrder(id)
	require.NoError(s.T(), err)
	return order
}

func (s *serviceSuite) createCoupon(code string, limit *int) *models.Coupon {
	coupon, err := s.coupons.CreateCoupon(s.ctx, CouponInput{
		Code:          code,
		DiscountValue: decimal.NewFromInt(20),
		MinPurchase:   decimal.NewNullDecimal(decimal.NewFromInt(50)),
		MaxDiscount:   decimal.NewNullDecimal(decimal.NewFromInt(15)),
		ValidFrom:     testNow.Add(-24 * time.Hour),
		ValidUntil:    testNow.Add(24 * time.Hour),
		UsageLimit:    limit,
	})
	require.NoError(s.T(), err)
	return coupon
}

func (s *serviceSuite) assertTotal(orderID uint, want string) {
	order := s.reloadOrder(orderID)
	s.Equal(want, order.TotalAmount.StringFixed(2))

	sum := decimal.Zero
	for _, item := range order.OrderItems {
		sum = sum.Add(item.LineTotal())
	}
	s.True(order.TotalAmount.Equal(sum.Round(2)), "total %s must equal sum of live items %s", order.TotalAmount, sum)
}

type OrderServiceTestSuite struct {
	serviceSuite
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

func (s *OrderServiceTestSuite) TestItemLifecycleKeepsTotalAndStock() {
	product := testutil.CreateProduct(s.T(), s.db, "Phone", "10.00", 5)
	order := s.newOrder()

	item, updated, err := s.orders.AddItem(s.ctx, s.actor, order.ID, product.ID, 3)
	require.NoError(s.T(), err)
	s.Equal("30.00", updated.TotalAmount.StringFixed(2))
	s.Equal(2, testutil.Stock(s.T(), s.db, product.ID))
	s.assertTotal(order.ID, "30.00")

	_, updated, err = s.orders.UpdateItemQuantity(s.ctx, s.actor, order.ID, item.ID, 1)
	require.NoError(s.T(), err)
	s.Equal("10.00", updated.TotalAmount.StringFixed(2))
	s.Equal(4, testutil.Stock(s.T(), s.db, product.ID))

	updated, err = s.orders.RemoveItem(s.ctx, s.actor, order.ID, item.ID)
	require.NoError(s.T(), err)
	s.Equal("0.00", updated.TotalAmount.StringFixed(2))
	s.Equal(5, testutil.Stock(s.T(), s.db, product.ID))
	s.assertTotal(order.ID, "0.00")

	s.Equal(3, s.publisher.count(events.OrderItemsChanged))
}

func (s *OrderServiceTestSuite) TestAddItemValidatesQuantityAndStock() {
	product := testutil.CreateProduct(s.T(), s.db, "Phone", "10.00", 5)
	order := s.newOrder()

	_, _, err := s.orders.AddItem(s.ctx, s.actor, order.ID, product.ID, 0)
	s.True(IsKind(err, KindValidation))

	_, _, err = s.orders.AddItem(s.ctx, s.actor, order.ID, product.ID, 6)
	s.True(IsKind(err, KindValidation))
	s.Equal(5, testutil.Stock(s.T(), s.db, product.ID))
	s.assertTotal(order.ID, "0.00")

	_, _, err = s.orders.AddItem(s.ctx, s.actor, order.ID, 9999, 1)
	s.True(IsKind(err, KindNotFound))

	_, _, err = s.orders.AddItem(s.ctx, s.actor, 9999, product.ID, 1)
	s.True(IsKind(err, KindNotFound))
}

func (s *OrderServiceTestSuite) TestAddSameProductMergesLine() {
	product := testutil.CreateProduct(s.T(), s.db, "Phone", "10.00", 5)
	order := s.newOrder()

	first, _, err := s.orders.AddItem(s.ctx, s.actor, order.ID, product.ID, 2)
	require.NoError(s.T(), err)
	second, updated, err := s.orders.AddItem(s.ctx, s.actor, order.ID, product.ID, 2)
	require.NoError(s.T(), err)

	s.Equal(first.ID, second.ID)
	s.Equal(4, second.Quantity)
	s.Equal("40.00", updated.TotalAmount.StringFixed(2))
	s.Equal(1, testutil.Stock(s.T(), s.db, product.ID))

	_, _, err = s.orders.AddItem(s.ctx, s.actor, order.ID, product.ID, 2)
	s.True(IsKind(err, KindValidation), "only one unit left")
	s.Len(s.reloadOrder(order.ID).OrderItems, 1)
}

func (s *OrderServiceTestSuite) TestUpdateItemBeyondStockIsRejected() {
	product := testutil.CreateProduct(s.T(), s.db, "Phone", "10.00", 5)
	order := s.newOrder()
	item, _, err := s.orders.AddItem(s.ctx, s.actor, order.ID, product.ID, 2)
	require.NoError(s.T(), err)

	_, _, err = s.orders.UpdateItemQuantity(s.ctx, s.actor, order.ID, item.ID, 6)
	s.True(IsKind(err, KindValidation))
	s.Equal(3, testutil.Stock(s.T(), s.db, product.ID))
	s.assertTotal(order.ID, "20.00")

	_, _, err = s.orders.UpdateItemQuantity(s.ctx, s.actor, order.ID, item.ID, 5)
	require.NoError(s.T(), err)
	s.Equal(0, testutil.Stock(s.T(), s.db, product.ID))
	s.assertTotal(order.ID, "50.00")
}

func (s *OrderServiceTestSuite) TestUnitPriceIsCapturedOnAdd() {
	product := testutil.CreateProduct(s.T(), s.db, "Phone", "10.00", 5)
	order := s.newOrder()
	_, _, err := s.orders.AddItem(s.ctx, s.actor, order.ID, product.ID, 1)
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.db.Model(product).Update("price", decimal.RequireFromString("99.00")).Error)

	_, _, err = s.orders.AddItem(s.ctx, s.actor, order.ID, product.ID, 1)
	require.NoError(s.T(), err)
	s.assertTotal(order.ID, "20.00")
}

func (s *OrderServiceTestSuite) TestCancelRestoresStockAndIsTerminal() {
	phone := testutil.CreateProduct(s.T(), s.db, "Phone", "10.00", 5)
	cover := testutil.CreateProduct(s.T(), s.db, "Case", "2.50", 10)
	order := s.newOrder()

	_, _, err := s.orders.AddItem(s.ctx, s.actor, order.ID, phone.ID, 3)
	require.NoError(s.T(), err)
	_, _, err = s.orders.AddItem(s.ctx, s.actor, order.ID, cover.ID, 4)
	require.NoError(s.T(), err)

	canceled, err := s.orders.CancelOrder(s.ctx, s.actor, order.ID)
	require.NoError(s.T(), err)
	s.Equal(models.OrderStatusCanceled, canceled.Status)
	s.Equal(5, testutil.Stock(s.T(), s.db, phone.ID))
	s.Equal(10, testutil.Stock(s.T(), s.db, cover.ID))

	_, err = s.orders.CancelOrder(s.ctx, s.actor, order.ID)
	s.True(IsKind(err, KindInvalidState))
	s.Equal(5, testutil.Stock(s.T(), s.db, phone.ID), "stock is not credited twice")

	_, _, err = s.orders.AddItem(s.ctx, s.actor, order.ID, phone.ID, 1)
	s.True(IsKind(err, KindInvalidState))
}

func (s *OrderServiceTestSuite) TestOrdersOfOtherUsersAreHidden() {
	product := testutil.CreateProduct(s.T(), s.db, "Phone", "10.00", 5)
	order := s.newOrder()
	other := testutil.CreateUser(s.T(), s.db, "john")
	intruder := Actor{UserID: other.ID}

	_, err := s.orders.GetOrder(s.ctx, intruder, order.ID)
	s.True(IsKind(err, KindNotFound))
	_, _, err = s.orders.AddItem(s.ctx, intruder, order.ID, product.ID, 1)
	s.True(IsKind(err, KindNotFound))
	s.Equal(5, testutil.Stock(s.T(), s.db, product.ID))

	_, err = s.orders.GetOrder(s.ctx, Actor{UserID: other.ID, Admin: true}, order.ID)
	s.NoError(err)
}

func (s *OrderServiceTestSuite) TestCreateOrderWithForeignAddress() {
	other := testutil.CreateUser(s.T(), s.db, "john")
	foreign := testutil.CreateAddress(s.T(), s.db, other.ID, false)

	_, err := s.orders.CreateOrder(s.ctx, s.actor, &foreign.ID)
	s.True(IsKind(err, KindNotFound))
}

func (s *OrderServiceTestSuite) TestAdvanceStatusIsSingleStep() {
	order := s.newOrder()

	_, err := s.orders.AdvanceStatus(s.ctx, order.ID, models.OrderStatusShipped)
	s.True(IsKind(err, KindInvalidState), "pending cannot skip to shipped")

	updated, err := s.orders.AdvanceStatus(s.ctx, order.ID, models.OrderStatusProcessing)
	require.NoError(s.T(), err)
	s.Equal(models.OrderStatusProcessing, updated.Status)

	updated, err = s.orders.AdvanceStatus(s.ctx, order.ID, models.OrderStatusShipped)
	require.NoError(s.T(), err)
	s.NotNil(updated.ShippingDate)

	updated, err = s.orders.AdvanceStatus(s.ctx, order.ID, models.OrderStatusDelivered)
	require.NoError(s.T(), err)
	s.Equal(models.OrderStatusDelivered, updated.Status)

	_, err = s.orders.AdvanceStatus(s.ctx, order.ID, models.OrderStatusCanceled)
	s.True(IsKind(err, KindInvalidState), "delivered is terminal")

	_, err = s.orders.AdvanceStatus(s.ctx, order.ID, "archived")
	s.True(IsKind(err, KindValidation))
}

func (s *OrderServiceTestSuite) TestMarkDeliveredRequiresShipped() {
	order := s.newOrder()
	_, err := s.orders.MarkDelivered(s.ctx, order.ID)
	s.True(IsKind(err, KindInvalidState))
}

func (s *OrderServiceTestSuite) TestApplyCouponAndRederiveDiscount() {
	product := testutil.CreateProduct(s.T(), s.db, "Phone", "50.00", 10)
	s.createCoupon("SAVE20", nil)
	order := s.newOrder()

	item, _, err := s.orders.AddItem(s.ctx, s.actor, order.ID, product.ID, 2)
	require.NoError(s.T(), err)

	updated, res, err := s.orders.ApplyCoupon(s.ctx, s.actor, order.ID, "SAVE20")
	require.NoError(s.T(), err)
	s.True(res.Applied())
	s.Equal("15.00", res.Discount.StringFixed(2), "20% of 100 capped at 15")
	s.Equal("15.00", updated.DiscountAmount.StringFixed(2))

	_, _, err = s.orders.ApplyCoupon(s.ctx, s.actor, order.ID, "SAVE20")
	s.True(IsKind(err, KindConflict))

	_, updated, err = s.orders.UpdateItemQuantity(s.ctx, s.actor, order.ID, item.ID, 1)
	require.NoError(s.T(), err)
	s.Equal("10.00", updated.DiscountAmount.StringFixed(2), "20% of 50")

	coupon, err := s.coupons.Validate(s.ctx, "SAVE20")
	require.NoError(s.T(), err)
	s.Equal(1, coupon.UsedCount, "re-deriving never redeems again")
}

func (s *OrderServiceTestSuite) TestApplyCouponBelowMinimumFailsSoft() {
	product := testutil.CreateProduct(s.T(), s.db, "Phone", "40.00", 10)
	s.createCoupon("SAVE20", nil)
	order := s.newOrder()
	_, _, err := s.orders.AddItem(s.ctx, s.actor, order.ID, product.ID, 1)
	require.NoError(s.T(), err)

	updated, res, err := s.orders.ApplyCoupon(s.ctx, s.actor, order.ID, "SAVE20")
	require.NoError(s.T(), err)
	s.False(res.Applied())
	s.ErrorIs(res.Reason, models.ErrCouponMinPurchase)
	s.True(updated.DiscountAmount.IsZero())
	s.Nil(updated.CouponID)

	_, _, err = s.orders.ApplyCoupon(s.ctx, s.actor, order.ID, "NOPE")
	s.True(IsKind(err, KindNotFound))
}

func (s *OrderServiceTestSuite) TestDeleteAndRestoreOrder() {
	product := testutil.CreateProduct(s.T(), s.db, "Phone", "10.00", 5)
	order := s.newOrder()
	_, _, err := s.orders.AddItem(s.ctx, s.actor, order.ID, product.ID, 1)
	require.NoError(s.T(), err)

	s.True(IsKind(s.orders.DeleteOrder(s.ctx, s.actor, order.ID), KindInvalidState))

	_, err = s.orders.CancelOrder(s.ctx, s.actor, order.ID)
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.orders.DeleteOrder(s.ctx, s.actor, order.ID))

	_, err = s.orders.GetOrder(s.ctx, s.actor, order.ID)
	s.True(IsKind(err, KindNotFound))

	restored, err := s.orders.RestoreOrder(s.ctx, order.ID)
	require.NoError(s.T(), err)
	s.False(restored.IsDeleted)
	s.Equal(models.OrderStatusCanceled, restored.Status)
}

func (s *OrderServiceTestSuite) TestListOrdersScopesToCaller() {
	s.newOrder()
	s.newOrder()
	other := testutil.CreateUser(s.T(), s.db, "john")
	_, err := s.orders.CreateOrder(s.ctx, Actor{UserID: other.ID}, nil)
	require.NoError(s.T(), err)

	list, err := s.orders.ListOrders(s.ctx, s.actor, repositories.OrderFilter{})
	require.NoError(s.T(), err)
	s.EqualValues(2, list.Total)
	s.Equal(1, list.Page)
	s.Equal(15, list.Limit)

	list, err = s.orders.ListOrders(s.ctx, Actor{Admin: true}, repositories.OrderFilter{})
	require.NoError(s.T(), err)
	s.EqualValues(3, list.Total)
}

func (s *OrderServiceTestSuite) TestConcurrentAddItemNeverOversells() {
	product := testutil.CreateProduct(s.T(), s.db, "Phone", "10.00", 5)
	const buyers = 8
	orders := make([]*models.Order, buyers)
	for i := range orders {
		orders[i] = s.newOrder()
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := map[uint]bool{}
	for _, order := range orders {
		wg.Add(1)
		go func(orderID uint) {
			defer wg.Done()
			_, _, err := s.orders.AddItem(s.ctx, s.actor, orderID, product.ID, 2)
			if err != nil {
				assert.True(s.T(), IsKind(err, KindValidation), "unexpected error: %v", err)
				return
			}
			mu.Lock()
			succeeded[orderID] = true
			mu.Unlock()
		}(order.ID)
	}
	wg.Wait()

	stock := testutil.Stock(s.T(), s.db, product.ID)
	s.GreaterOrEqual(stock, 0)
	s.Len(succeeded, 2)
	s.Equal(5-2*len(succeeded), stock, "every debit belongs to a successful add")
	for _, order := range orders {
		if succeeded[order.ID] {
			s.assertTotal(order.ID, "20.00")
		} else {
			s.assertTotal(order.ID, "0.00")
		}
	}
}

func (s *OrderServiceTestSuite) TestCancelRestoresStockAfterFulfilmentStarted() {
	product := testutil.CreateProduct(s.T(), s.db, "Phone", "10.00", 10)

	for _, target := range []models.OrderStatus{models.OrderStatusProcessing, models.OrderStatusShipped} {
		order := s.newOrder()
		_, _, err := s.orders.AddItem(s.ctx, s.actor, order.ID, product.ID, 3)
		require.NoError(s.T(), err)
		_, err = s.orders.AdvanceStatus(s.ctx, order.ID, models.OrderStatusProcessing)
		require.NoError(s.T(), err)
		if target == models.OrderStatusShipped {
			_, err = s.orders.AdvanceStatus(s.ctx, order.ID, models.OrderStatusShipped)
			require.NoError(s.T(), err)
		}
		s.Equal(7, testutil.Stock(s.T(), s.db, product.ID))

		canceled, err := s.orders.CancelOrder(s.ctx, s.actor, order.ID)
		require.NoError(s.T(), err, "cancel from %s", target)
		s.Equal(models.OrderStatusCanceled, canceled.Status)
		s.Equal(10, testutil.Stock(s.T(), s.db, product.ID), "stock restored after %s", target)
	}
}

func (s *OrderServiceTestSuite) TestDeletedProductStockIsStillReturned() {
	phone := testutil.CreateProduct(s.T(), s.db, "Phone", "10.00", 5)
	cover := testutil.CreateProduct(s.T(), s.db, "Case", "2.50", 10)
	first := s.newOrder()
	second := s.newOrder()

	item, _, err := s.orders.AddItem(s.ctx, s.actor, first.ID, phone.ID, 3)
	require.NoError(s.T(), err)
	_, _, err = s.orders.AddItem(s.ctx, s.actor, second.ID, cover.ID, 4)
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.store.SoftDelete(&models.Product{}, phone.ID))
	require.NoError(s.T(), s.store.SoftDelete(&models.Product{}, cover.ID))

	_, _, err = s.orders.UpdateItemQuantity(s.ctx, s.actor, first.ID, item.ID, 4)
	s.True(IsKind(err, KindNotFound), "a deleted product cannot be reserved further")

	_, _, err = s.orders.UpdateItemQuantity(s.ctx, s.actor, first.ID, item.ID, 2)
	require.NoError(s.T(), err)
	s.Equal(3, testutil.Stock(s.T(), s.db, phone.ID))

	_, err = s.orders.RemoveItem(s.ctx, s.actor, first.ID, item.ID)
	require.NoError(s.T(), err)
	s.Equal(5, testutil.Stock(s.T(), s.db, phone.ID))
	s.assertTotal(first.ID, "0.00")

	canceled, err := s.orders.CancelOrder(s.ctx, s.actor, second.ID)
	require.NoError(s.T(), err)
	s.Equal(models.OrderStatusCanceled, canceled.Status)
	s.Equal(10, testutil.Stock(s.T(), s.db, cover.ID))
}

func (s *OrderServiceTestSuite) TestDeletedCouponKeepsRedeemedDiscount() {
	product := testutil.CreateProduct(s.T(), s.db, "Phone", "50.00", 10)
	coupon := s.createCoupon("SAVE20", nil)
	order := s.newOrder()

	item, _, err := s.orders.AddItem(s.ctx, s.actor, order.ID, product.ID, 2)
	require.NoError(s.T(), err)
	_, res, err := s.orders.ApplyCoupon(s.ctx, s.actor, order.ID, "SAVE20")
	require.NoError(s.T(), err)
	s.True(res.Applied())

	require.NoError(s.T(), s.coupons.DeleteCoupon(s.ctx, coupon.ID))

	_, updated, err := s.orders.UpdateItemQuantity(s.ctx, s.actor, order.ID, item.ID, 1)
	require.NoError(s.T(), err)
	s.Equal("10.00", updated.DiscountAmount.StringFixed(2))
	s.Require().NotNil(updated.CouponID)
	s.Equal(coupon.ID, *updated.CouponID)
}

func (s *OrderServiceTestSuite) TestAdvanceStatusReplayDoesNotRepublish() {
	order := s.newOrder()

	var deadlocked, movedElsewhere bool
	require.NoError(s.T(), s.db.Callback().Update().After("gorm:update").Register("test:deadlock_once", func(db *gorm.DB) {
		if db.Statement.Table == "orders" && !deadlocked {
			deadlocked = true
			db.AddError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"})
		}
	}))
	// Before the replay reads the order, another writer has already moved it.
	require.NoError(s.T(), s.db.Callback().Query().Before("gorm:query").Register("test:concurrent_writer", func(db *gorm.DB) {
		if db.Statement.Table == "orders" && deadlocked && !movedElsewhere {
			movedElsewhere = true
			db.Session(&gorm.Session{NewDB: true}).
				Exec("UPDATE orders SET status = ? WHERE id = ?", models.OrderStatusProcessing, order.ID)
		}
	}))

	updated, err := s.orders.AdvanceStatus(s.ctx, order.ID, models.OrderStatusProcessing)
	require.NoError(s.T(), err)
	s.True(deadlocked)
	s.True(movedElsewhere)
	s.Equal(models.OrderStatusProcessing, updated.Status)
	s.Zero(s.publisher.count(events.OrderStatusChanged), "the replay changed nothing")
}
