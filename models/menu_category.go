package models

import "time"

type MenuCategory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_category_tenant_name" json:"tenantId"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_category_tenant_name" json:"name"`
	SortOrder int       `gorm:"not null;default:0" json:"sortOrder"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}
