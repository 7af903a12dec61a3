package contracts

import (
	"strings"

	"github.com/yeremiapane/restaurant-platform/models"
)

type CreateCategoryRequest struct {
	TenantID  string `json:"tenantId"`
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder,omitempty"`
}

func (r *CreateCategoryRequest) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	f.name("name", r.Name)
	r.Name = strings.TrimSpace(r.Name)
	return f.err()
}

type CategoryRef struct {
	TenantID   string `json:"tenantId"`
	CategoryID uint   `json:"categoryId"`
}

func (r *CategoryRef) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	f.id("categoryId", r.CategoryID)
	return f.err()
}

type UpdateCategoryRequest struct {
	TenantID   string  `json:"tenantId"`
	CategoryID uint    `json:"categoryId"`
	Name       *string `json:"name,omitempty"`
	SortOrder  *int    `json:"sortOrder,omitempty"`
}

func (r *UpdateCategoryRequest) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	f.id("categoryId", r.CategoryID)
	if r.Name != nil {
		f.name("name", *r.Name)
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
	return f.err()
}

type CreateMenuRequest struct {
	TenantID    string  `json:"tenantId"`
	CategoryID  uint    `json:"categoryId"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	IsAvailable *bool   `json:"isAvailable,omitempty"`
}

func (r *CreateMenuRequest) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	f.id("categoryId", r.CategoryID)
	f.name("name", r.Name)
	f.check(r.Price >= 0, "price", "must not be negative")
	r.Name = strings.TrimSpace(r.Name)
	return f.err()
}

type MenuRef struct {
	TenantID string `json:"tenantId"`
	MenuID   uint   `json:"menuId"`
}

func (r *MenuRef) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	f.id("menuId", r.MenuID)
	return f.err()
}

type ListMenusRequest struct {
	TenantID      string `json:"tenantId"`
	CategoryID    *uint  `json:"categoryId,omitempty"`
	OnlyAvailable bool   `json:"onlyAvailable,omitempty"`
}

func (r *ListMenusRequest) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	if r.CategoryID != nil {
		f.id("categoryId", *r.CategoryID)
	}
	return f.err()
}

type UpdateMenuRequest struct {
	TenantID    string   `json:"tenantId"`
	MenuID      uint     `json:"menuId"`
	CategoryID  *uint    `json:"categoryId,omitempty"`
	Name        *string  `json:"name,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Description *string  `json:"description,omitempty"`
	ImageURL    *string  `json:"imageUrl,omitempty"`
	IsAvailable *bool    `json:"isAvailable,omitempty"`
}

func (r *UpdateMenuRequest) Validate() error {
	var f fieldErrors
	f.tenant(r.TenantID)
	f.id("menuId", r.MenuID)
	if r.CategoryID != nil {
		f.id("categoryId", *r.CategoryID)
	}
	if r.Name != nil {
		f.name("name", *r.Name)
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
	if r.Price != nil {
		f.check(*r.Price >= 0, "price", "must not be negative")
	}
	return f.err()
}

type PublicCategory struct {
	ID    uint          `json:"id"`
	Name  string        `json:"name"`
	Items []models.Menu `json:"items"`
}

type PublicMenu struct {
	TenantID   string           `json:"tenantId"`
	Categories []PublicCategory `json:"categories"`
}
