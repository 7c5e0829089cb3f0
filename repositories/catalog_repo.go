package repositories

import (
	"github.com/Kariqs/amexan-commerce/models"
)

func (s *Store) CreateCategory(category *models.Category) error {
	return s.db.Create(category).Error
}

func (s *Store) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	err := s.db.Scopes(live).Order("name").Find(&categories).Error
	return categories, err
}

func (s *Store) CreateBrand(brand *models.Brand) error {
	return s.db.Create(brand).Error
}

func (s *Store) ListBrands() ([]models.Brand, error) {
	var brands []models.Brand
	err := s.db.Scopes(live).Order("popularity DESC, name").Find(&brands).Error
	return brands, err
}

func (s *Store) CreateWarranty(warranty *models.Warranty) error {
	return s.db.Create(warranty).Error
}

func (s *Store) ListWarranties() ([]models.Warranty, error) {
	var warranties []models.Warranty
	err := s.db.Scopes(live).Order("name").Find(&warranties).Error
	return warranties, err
}
