package models

type CartItem struct {
	Base
	CartID    uint     `gorm:"not null;index" json:"cart_id"`
	ProductID uint     `gorm:"not null" json:"product_id"`
	Product   *Product `json:"product,omitempty"`
	Quantity  int      `gorm:"not null" json:"quantity"`
}

type Cart struct {
	Base
	UserID uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	Items  []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}
