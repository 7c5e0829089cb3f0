package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/Kariqs/amexan-commerce/models"
	"github.com/Kariqs/amexan-commerce/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type StoreTestSuite struct {
	suite.Suite
	db    *gorm.DB
	store *Store
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.store = NewStore(s.db)
}

func (s *StoreTestSuite) TestSoftDeleteHidesAndRestoreReturns() {
	product := testutil.CreateProduct(s.T(), s.db, "Phone", "10.00", 5)

	require.NoError(s.T(), s.store.SoftDelete(&models.Product{}, product.ID))
	_, err := s.store.GetProduct(product.ID)
	s.ErrorIs(err, ErrNotFound)

	var raw models.Product
	require.NoError(s.T(), s.db.Unscoped().First(&raw, product.ID).Error)
	s.True(raw.IsDeleted)
	s.True(raw.DeletedAt.Valid)

	s.ErrorIs(s.store.SoftDelete(&models.Product{}, product.ID), ErrNotFound, "already deleted")

	require.NoError(s.T(), s.store.Restore(&models.Product{}, product.ID))
	restored, err := s.store.GetProduct(product.ID)
	require.NoError(s.T(), err)
	s.False(restored.IsDeleted)
	s.False(restored.DeletedAt.Valid)

	s.ErrorIs(s.store.Restore(&models.Product{}, product.ID), ErrNotFound, "not deleted")
}

func (s *StoreTestSuite) TestDebitStockNeverGoesNegative() {
	product := testutil.CreateProduct(s.T(), s.db, "Phone", "10.00", 5)

	require.NoError(s.T(), s.store.DebitStock(product.ID, 3))
	s.ErrorIs(s.store.DebitStock(product.ID, 3), ErrInsufficientStock)
	s.Equal(2, testutil.Stock(s.T(), s.db, product.ID))

	require.NoError(s.T(), s.store.DebitStock(product.ID, 2))
	s.Equal(0, testutil.Stock(s.T(), s.db, product.ID))

	require.NoError(s.T(), s.store.CreditStock(product.ID, 4))
	s.Equal(4, testutil.Stock(s.T(), s.db, product.ID))
	s.ErrorIs(s.store.CreditStock(9999, 1), ErrNotFound)
}

func (s *StoreTestSuite) TestTransactionRollsBack() {
	product := testutil.CreateProduct(s.T(), s.db, "Phone", "10.00", 5)
	boom := errors.New("boom")

	err := s.store.Transaction(context.Background(), func(tx *Store) error {
		if err := tx.DebitStock(product.ID, 5); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)
	s.Equal(5, testutil.Stock(s.T(), s.db, product.ID))
}

func (s *StoreTestSuite) TestRedeemCouponRespectsUsageLimit() {
	limit := 2
	coupon := &models.Coupon{Code: "TWICE", DiscountValue: decimal.NewFromInt(10), Active: true, UsageLimit: &limit}
	require.NoError(s.T(), s.store.CreateCoupon(coupon))

	for i := 0; i < 2; i++ {
		ok, err := s.store.RedeemCoupon(coupon.ID)
		require.NoError(s.T(), err)
		s.True(ok)
	}
	ok, err := s.store.RedeemCoupon(coupon.ID)
	require.NoError(s.T(), err)
	s.False(ok)

	stored, err := s.store.GetCoupon(coupon.ID)
	require.NoError(s.T(), err)
	s.Equal(2, stored.UsedCount)
}

func (s *StoreTestSuite) TestRedeemInactiveCoupon() {
	coupon := &models.Coupon{Code: "OFF", DiscountValue: decimal.NewFromInt(10), Active: true}
	require.NoError(s.T(), s.store.CreateCoupon(coupon))
	require.NoError(s.T(), s.db.Model(coupon).Update("active", false).Error)

	ok, err := s.store.RedeemCoupon(coupon.ID)
	require.NoError(s.T(), err)
	s.False(ok)
}

func (s *StoreTestSuite) TestOrderItemsSkipSoftDeleted() {
	user := testutil.CreateUser(s.T(), s.db, "jane")
	product := testutil.CreateProduct(s.T(), s.db, "Phone", "10.00", 5)

	order := &models.Order{UserID: user.ID, Status: models.OrderStatusPending, PaymentStatus: models.PaymentStatusPending}
	require.NoError(s.T(), s.store.CreateOrder(order))

	kept := &models.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: 1, UnitPrice: product.Price}
	gone := &models.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: 2, UnitPrice: product.Price}
	require.NoError(s.T(), s.store.CreateItem(kept))
	require.NoError(s.T(), s.store.CreateItem(gone))
	require.NoError(s.T(), s.store.SoftDelete(&models.OrderItem{}, gone.ID))

	items, err := s.store.LiveItems(order.ID)
	require.NoError(s.T(), err)
	s.Len(items, 1)
	s.Equal(kept.ID, items[0].ID)

	loaded, err := s.store.GetOrder(order.ID)
	require.NoError(s.T(), err)
	s.Len(loaded.OrderItems, 1)
	s.NotNil(loaded.OrderItems[0].Product)
}

func (s *StoreTestSuite) TestListOrdersFiltersAndPaginates() {
	jane := testutil.CreateUser(s.T(), s.db, "jane")
	john := testutil.CreateUser(s.T(), s.db, "john")

	for i := 0; i < 3; i++ {
		require.NoError(s.T(), s.store.CreateOrder(&models.Order{UserID: jane.ID, Status: models.OrderStatusPending, PaymentStatus: models.PaymentStatusPending}))
	}
	require.NoError(s.T(), s.store.CreateOrder(&models.Order{UserID: john.ID, Status: models.OrderStatusCanceled, PaymentStatus: models.PaymentStatusPending}))

	orders, count, err := s.store.ListOrders(OrderFilter{UserID: &jane.ID, Page: 1, Limit: 2})
	require.NoError(s.T(), err)
	s.EqualValues(3, count)
	s.Len(orders, 2)

	orders, count, err = s.store.ListOrders(OrderFilter{Status: models.OrderStatusCanceled, Page: 1, Limit: 10})
	require.NoError(s.T(), err)
	s.EqualValues(1, count)
	s.Equal(john.ID, orders[0].UserID)
}

func (s *StoreTestSuite) TestCartLifecycle() {
	user := testutil.CreateUser(s.T(), s.db, "jane")
	product := testutil.CreateProduct(s.T(), s.db, "Phone", "10.00", 5)

	cart, err := s.store.GetOrCreateCart(user.ID)
	require.NoError(s.T(), err)
	again, err := s.store.GetOrCreateCart(user.ID)
	require.NoError(s.T(), err)
	s.Equal(cart.ID, again.ID)

	item := &models.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 2}
	require.NoError(s.T(), s.store.SaveCartItem(item))

	items, err := s.store.CartItems(cart.ID)
	require.NoError(s.T(), err)
	s.Len(items, 1)
	s.Equal("Phone", items[0].Product.Name)

	require.NoError(s.T(), s.store.ClearCart(cart.ID))
	items, err = s.store.CartItems(cart.ID)
	require.NoError(s.T(), err)
	s.Empty(items)
	s.ErrorIs(s.store.DeleteCartItem(cart.ID, item.ID), ErrNotFound)
}

func (s *StoreTestSuite) TestListShippingMethodsByCost() {
	for _, cost := range []string{"5.00", "12.50", "30.00"} {
		require.NoError(s.T(), s.store.CreateShippingMethod(&models.ShippingMethod{Name: "M" + cost, Cost: decimal.RequireFromString(cost)}))
	}

	methods, err := s.store.ListShippingMethods(
		decimal.NewNullDecimal(decimal.NewFromInt(10)),
		decimal.NewNullDecimal(decimal.NewFromInt(30)),
	)
	require.NoError(s.T(), err)
	s.Len(methods, 2)

	methods, err = s.store.ListShippingMethods(decimal.NullDecimal{}, decimal.NullDecimal{})
	require.NoError(s.T(), err)
	s.Len(methods, 3)
}
