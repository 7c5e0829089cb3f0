package models

import (
	"time"

	"gorm.io/gorm"
)

// Base replaces gorm.Model so soft deletion is visible as an explicit
// is_deleted column next to deleted_at.
type Base struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	IsDeleted bool           `gorm:"not null;default:false" json:"is_deleted"`
}
