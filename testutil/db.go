// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/Kariqs/amexan-commerce/initializers"
	"github.com/Kariqs/amexan-commerce/models"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database. It is pinned to a single
// connection, so transactions are serialized and code under test must never
// use a second handle while one is open.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, initializers.Migrate(db))
	return db
}

func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@amexan.store", Role: "user"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateAddress(t testing.TB, db *gorm.DB, userID uint, isDefault bool) *models.Address {
	t.Helper()
	address := &models.Address{UserID: userID, Street: "Moi Avenue 1", City: "Nairobi", IsDefault: isDefault}
	require.NoError(t, db.Create(address).Error)
	return address
}

func CreateProduct(t testing.TB, db *gorm.DB, name, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{Name: name, Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, db.Create(product).Error)
	return product
}

// Stock reads the current stock straight from the table.
func Stock(t testing.TB, db *gorm.DB, productID uint) int {
	t.Helper()
	var product models.Product
	require.NoError(t, db.Unscoped().First(&product, productID).Error)
	return product.Stock
}
