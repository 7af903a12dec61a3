package models

import "time"

type Menu struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	TenantID    string       `gorm:"type:varchar(64);not null;index" json:"tenantId"`
	CategoryID  uint         `gorm:"not null" json:"categoryId"`
	Category    MenuCategory `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Name        string       `gorm:"type:varchar(255);not null" json:"name"`
	Price       float64      `gorm:"type:decimal(10,2);not null" json:"price"`
	Description string       `gorm:"type:text" json:"description"`
	ImageURL    string       `gorm:"type:varchar(255)" json:"imageUrl,omitempty"`
	IsAvailable bool         `gorm:"not null;default:true" json:"isAvailable"`
	CreatedAt   time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updatedAt"`
}
