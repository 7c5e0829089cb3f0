package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Category struct {
	Base
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name" binding:"required"`
	Description string `gorm:"type:text" json:"description"`
}

type Brand struct {
	Base
	Name       string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name" binding:"required"`
	Country    string `gorm:"type:varchar(100)" json:"country"`
	Popularity int    `json:"popularity"`
}

type Warranty struct {
	Base
	Name         string `gorm:"type:varchar(100);not null" json:"name" binding:"required"`
	DurationDays int    `gorm:"not null" json:"duration_days" binding:"min=0"`
	Terms        string `gorm:"type:text" json:"terms"`
}

type ProductSpecs struct {
	Base
	Label     string `json:"label" binding:"required"`
	Value     string `json:"value" binding:"required"`
	ProductID uint   `json:"product_id" binding:"required"`
}

type ProductImage struct {
	Base
	Url       string `json:"url" binding:"required"`
	ProductID uint   `json:"product_id" binding:"required"`
}

type Product struct {
	Base
	Name           string          `gorm:"type:varchar(255);not null" json:"name" binding:"required"`
	Description    string          `gorm:"type:text" json:"description"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock          int             `gorm:"not null;check:chk_products_stock,stock >= 0" json:"stock" binding:"min=0"`
	CategoryID     *uint           `json:"category_id"`
	Category       *Category       `json:"category,omitempty"`
	BrandID        *uint           `json:"brand_id"`
	Brand          *Brand          `json:"brand,omitempty"`
	WarrantyID     *uint           `json:"warranty_id"`
	Warranty       *Warranty       `json:"warranty,omitempty"`
	Colors         datatypes.JSON  `json:"colors"`
	Specifications []ProductSpecs  `json:"specifications,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images         []ProductImage  `json:"images,omitempty" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}
