package models

type User struct {
	Base
	Fullname   string `json:"fullname"`
	Username   string `gorm:"type:varchar(100);not null;uniqueIndex" json:"username"`
	Email      string `gorm:"type:varchar(191);not null;uniqueIndex" json:"email"`
	Phone      string `json:"phone"`
	Occupation string `json:"occupation"`
	Password   string `json:"-"`
	Role       string `gorm:"type:varchar(20);not null" json:"role"`
}

type SignupData struct {
	Fullname   string `json:"fullname"`
	Username   string `json:"username" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone"`
	Occupation string `json:"occupation"`
	Password   string `json:"password" binding:"required,min=8"`
}

type LoginData struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type Address struct {
	Base
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	Street      string `gorm:"type:varchar(255);not null" json:"street" binding:"required"`
	City        string `gorm:"type:varchar(100);not null" json:"city" binding:"required"`
	State       string `gorm:"type:varchar(100)" json:"state"`
	PostalCode  string `gorm:"type:varchar(10)" json:"postal_code"`
	FullAddress string `gorm:"type:text" json:"full_address"`
	IsDefault   bool   `gorm:"not null" json:"is_default"`
}
