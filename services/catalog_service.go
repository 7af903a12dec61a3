package services

import (
	"context"
	"errors"

	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/models"
	"github.com/yeremiapane/restaurant-platform/utils"
	"gorm.io/gorm"
)

var (
	errCategoryNotFound = utils.NotFound("category not found")
	errMenuNotFound     = utils.NotFound("menu not found")
)

// CatalogService manages menu categories and items per tenant.
type CatalogService struct {
	DB *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db}
}

func (cs *CatalogService) CreateCategory(ctx context.Context, req contracts.CreateCategoryRequest) (*models.MenuCategory, error) {
	db := cs.DB.WithContext(ctx)
	if err := categoryNameFree(db, req.TenantID, req.Name, 0); err != nil {
		return nil, err
	}

	category := models.MenuCategory{TenantID: req.TenantID, Name: req.Name, SortOrder: req.SortOrder}
	if err := db.Create(&category).Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("New category created: %s (tenant=%s)", category.Name, category.TenantID)
	return &category, nil
}

func (cs *CatalogService) ListCategories(ctx context.Context, tenantID string) ([]models.MenuCategory, error) {
	categories := []models.MenuCategory{}
	err := cs.DB.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error
	return categories, err
}

func (cs *CatalogService) UpdateCategory(ctx context.Context, req contracts.UpdateCategoryRequest) (*models.MenuCategory, error) {
	var updated models.MenuCategory

	err := cs.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := findCategory(tx, req.TenantID, req.CategoryID)
		if err != nil {
			return err
		}

		changes := map[string]interface{}{}
		if req.Name != nil && *req.Name != category.Name {
			if err := categoryNameFree(tx, req.TenantID, *req.Name, category.ID); err != nil {
				return err
			}
			changes["name"] = *req.Name
		}
		if req.SortOrder != nil {
			changes["sort_order"] = *req.SortOrder
		}
		if len(changes) > 0 {
			if err := tx.Model(category).Updates(changes).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ? AND tenant_id = ?", category.ID, req.TenantID).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteCategory refuses to remove a category that still holds items.
func (cs *CatalogService) DeleteCategory(ctx context.Context, tenantID string, categoryID uint) error {
	return cs.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findCategory(tx, tenantID, categoryID); err != nil {
			return err
		}

		var items int64
		if err := tx.Model(&models.Menu{}).Where("category_id = ? AND tenant_id = ?", categoryID, tenantID).Count(&items).Error; err != nil {
			return err
		}
		if items > 0 {
			return utils.Conflict("category still contains menu items")
		}

		return tx.Where("id = ? AND tenant_id = ?", categoryID, tenantID).Delete(&models.MenuCategory{}).Error
	})
}

func (cs *CatalogService) CreateMenu(ctx context.Context, req contracts.CreateMenuRequest) (*models.Menu, error) {
	var menu models.Menu

	err := cs.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findCategory(tx, req.TenantID, req.CategoryID); err != nil {
			return err
		}

		menu = models.Menu{
			TenantID:    req.TenantID,
			CategoryID:  req.CategoryID,
			Name:        req.Name,
			Price:       req.Price,
			Description: req.Description,
			ImageURL:    req.ImageURL,
			IsAvailable: true,
		}
		if err := tx.Omit("Category").Create(&menu).Error; err != nil {
			return err
		}

		// the column default swallows a false on insert
		if req.IsAvailable != nil && !*req.IsAvailable {
			if err := tx.Model(&menu).Update("is_available", false).Error; err != nil {
				return err
			}
			menu.IsAvailable = false
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("New menu created: %s (tenant=%s)", menu.Name, menu.TenantID)
	return &menu, nil
}

func (cs *CatalogService) ListMenus(ctx context.Context, req contracts.ListMenusRequest) ([]models.Menu, error) {
	query := cs.DB.WithContext(ctx).Where("tenant_id = ?", req.TenantID)
	if req.CategoryID != nil {
		query = query.Where("category_id = ?", *req.CategoryID)
	}
	if req.OnlyAvailable {
		query = query.Where("is_available = ?", true)
	}

	menus := []models.Menu{}
	err := query.Order("name ASC").Find(&menus).Error
	return menus, err
}

func (cs *CatalogService) UpdateMenu(ctx context.Context, req contracts.UpdateMenuRequest) (*models.Menu, error) {
	var updated models.Menu

	err := cs.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var menu models.Menu
		err := tx.Where("id = ? AND tenant_id = ?", req.MenuID, req.TenantID).First(&menu).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errMenuNotFound
		}
		if err != nil {
			return err
		}

		changes := map[string]interface{}{}
		if req.CategoryID != nil {
			if _, err := findCategory(tx, req.TenantID, *req.CategoryID); err != nil {
				return err
			}
			changes["category_id"] = *req.CategoryID
		}
		if req.Name != nil {
			changes["name"] = *req.Name
		}
		if req.Price != nil {
			changes["price"] = *req.Price
		}
		if req.Description != nil {
			changes["description"] = *req.Description
		}
		if req.ImageURL != nil {
			changes["image_url"] = *req.ImageURL
		}
		if req.IsAvailable != nil {
			changes["is_available"] = *req.IsAvailable
		}
		if len(changes) > 0 {
			if err := tx.Model(&menu).Omit("Category").Updates(changes).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ? AND tenant_id = ?", menu.ID, req.TenantID).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (cs *CatalogService) DeleteMenu(ctx context.Context, tenantID string, menuID uint) error {
	result := cs.DB.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", menuID, tenantID).
		Delete(&models.Menu{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errMenuNotFound
	}
	return nil
}

// PublicMenu lists the tenant's available items grouped by category, in
// category order. Empty categories are left out.
func (cs *CatalogService) PublicMenu(ctx context.Context, tenantID string) (*contracts.PublicMenu, error) {
	categories, err := cs.ListCategories(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	menus, err := cs.ListMenus(ctx, contracts.ListMenusRequest{TenantID: tenantID, OnlyAvailable: true})
	if err != nil {
		return nil, err
	}

	byCategory := map[uint][]models.Menu{}
	for _, m := range menus {
		byCategory[m.CategoryID] = append(byCategory[m.CategoryID], m)
	}

	public := &contracts.PublicMenu{TenantID: tenantID, Categories: []contracts.PublicCategory{}}
	for _, category := range categories {
		items := byCategory[category.ID]
		if len(items) == 0 {
			continue
		}
		public.Categories = append(public.Categories, contracts.PublicCategory{ID: category.ID, Name: category.Name, Items: items})
	}
	return public, nil
}

func findCategory(db *gorm.DB, tenantID string, categoryID uint) (*models.MenuCategory, error) {
	var category models.MenuCategory
	err := db.Where("id = ? AND tenant_id = ?", categoryID, tenantID).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func categoryNameFree(db *gorm.DB, tenantID, name string, exceptID uint) error {
	var count int64
	query := db.Model(&models.MenuCategory{}).Where("tenant_id = ? AND name = ?", tenantID, name)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return utils.Conflict("a category named " + name + " already exists")
	}
	return nil
}
