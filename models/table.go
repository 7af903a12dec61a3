package models

import "time"

type Floor struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TenantID    string    `gorm:"type:varchar(64);not null;index:idx_floor_tenant_name" json:"tenantId"`
	Name        string    `gorm:"type:varchar(100);not null;index:idx_floor_tenant_name" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	SortOrder   int       `gorm:"not null;default:0" json:"sortOrder"`
	IsActive    bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt   time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" json:"updatedAt"`
}

// Table is a physical table of a tenant. TokenVersion only ever grows; every
// QR token signed for a lower version is dead.
type Table struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	TenantID      string     `gorm:"type:varchar(64);not null;index:idx_table_tenant_name" json:"tenantId"`
	FloorID       *uint      `gorm:"index" json:"floorId,omitempty"`
	Name          string     `gorm:"type:varchar(100);not null;index:idx_table_tenant_name" json:"name"`
	Capacity      int        `gorm:"not null" json:"capacity"`
	IsActive      bool       `gorm:"not null;default:true" json:"isActive"`
	TokenVersion  uint       `gorm:"not null;default:1" json:"tokenVersion"`
	QRToken       string     `gorm:"column:qr_token;type:varchar(255)" json:"-"`
	QRGeneratedAt *time.Time `gorm:"column:qr_generated_at" json:"qrGeneratedAt,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updatedAt"`
}
