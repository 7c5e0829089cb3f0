package initializers

import (
	"github.com/Kariqs/amexan-commerce/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Models lists every table in dependency order.
var Models = []any{
	&models.User{},
	&models.Address{},
	&models.Category{},
	&models.Brand{},
	&models.Warranty{},
	&models.Product{},
	&models.ProductImage{},
	&models.ProductSpecs{},
	&models.Coupon{},
	&models.Order{},
	&models.OrderItem{},
	&models.Payment{},
	&models.ShippingMethod{},
	&models.Shipment{},
	&models.Cart{},
	&models.CartItem{},
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models...)
}

func SyncDatabase() error {
	if err := Migrate(DB); err != nil {
		return err
	}
	log.Info().Int("tables", len(Models)).Msg("database synced")
	return nil
}
