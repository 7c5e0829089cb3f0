package repositories

import (
	"github.com/Kariqs/amexan-commerce/models"
	"gorm.io/gorm"
)

func (s *Store) CreateProduct(product *models.Product) error {
	return s.db.Create(product).Error
}

func (s *Store) GetProduct(id uint) (*models.Product, error) {
	var product models.Product
	err := s.db.Scopes(live).
		Preload("Specifications", live).
		Preload("Images", live).
		First(&product, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// LockProduct reads the product row with SELECT ... FOR UPDATE. Only
// meaningful inside Transaction.
func (s *Store) LockProduct(id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.Scopes(live, forUpdate).First(&product, id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// LockProductWithDeleted locks the row even after the product was taken out
// of the catalog, so stock held by existing orders can still be returned.
func (s *Store) LockProductWithDeleted(id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.Unscoped().Scopes(forUpdate).First(&product, id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (s *Store) ListProducts(page, limit int, search string) ([]models.Product, int64, error) {
	var products []models.Product
	var count int64

	filtered := func() *gorm.DB {
		query := s.db.Model(&models.Product{}).Scopes(live)
		if search != "" {
			query = query.Where("name LIKE ?", "%"+search+"%")
		}
		return query
	}
	if err := filtered().Count(&count).Error; err != nil {
		return nil, 0, err
	}

	err := filtered().Preload("Images", live).
		Order("id").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&products).Error
	return products, count, err
}

// DebitStock subtracts quantity only while enough stock remains, so a
// concurrent writer that slipped past the lock still cannot drive stock
// below zero.
func (s *Store) DebitStock(productID uint, quantity int) error {
	res := s.db.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// CreditStock returns units to a product. Soft-deleted products are credited
// too: their stock is still reserved by the orders that hold it.
func (s *Store) CreditStock(productID uint, quantity int) error {
	res := s.db.Unscoped().Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStock overwrites the stock level. Callers lock the row first; MySQL
// reports zero affected rows for an unchanged value, so existence is not
// checked here.
func (s *Store) SetStock(productID uint, stock int) error {
	return s.db.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", stock).Error
}

func (s *Store) CreateProductSpecs(spec *models.ProductSpecs) error {
	return s.db.Create(spec).Error
}

func (s *Store) CreateProductImage(image *models.ProductImage) error {
	return s.db.Create(image).Error
}
