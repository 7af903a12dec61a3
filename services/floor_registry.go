package services

import (
	"context"
	"errors"

	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/models"
	"github.com/yeremiapane/restaurant-platform/utils"
	"gorm.io/gorm"
)

type FloorRegistry struct {
	DB *gorm.DB
}

func NewFloorRegistry(db *gorm.DB) *FloorRegistry {
	return &FloorRegistry{DB: db}
}

func (fr *FloorRegistry) Create(ctx context.Context, req contracts.CreateFloorRequest) (*models.Floor, error) {
	db := fr.DB.WithContext(ctx)
	if err := floorNameFree(db, req.TenantID, req.Name, 0); err != nil {
		return nil, err
	}

	floor := models.Floor{
		TenantID:    req.TenantID,
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		IsActive:    true,
	}
	if err := db.Create(&floor).Error; err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("New floor created: %s (tenant=%s id=%d)", floor.Name, floor.TenantID, floor.ID)
	return &floor, nil
}

func (fr *FloorRegistry) Get(ctx context.Context, tenantID string, floorID uint) (*models.Floor, error) {
	var floor models.Floor
	err := fr.DB.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", floorID, tenantID).
		First(&floor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errFloorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &floor, nil
}

func (fr *FloorRegistry) List(ctx context.Context, req contracts.ListFloorsRequest) ([]models.Floor, error) {
	query := fr.DB.WithContext(ctx).Where("tenant_id = ?", req.TenantID)
	if !req.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}

	floors := []models.Floor{}
	if err := query.Order("sort_order ASC, name ASC").Find(&floors).Error; err != nil {
		return nil, err
	}
	return floors, nil
}

func (fr *FloorRegistry) Update(ctx context.Context, req contracts.UpdateFloorRequest) (*models.Floor, error) {
	var updated models.Floor

	err := fr.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var floor models.Floor
		err := tx.Where("id = ? AND tenant_id = ?", req.FloorID, req.TenantID).First(&floor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errFloorNotFound
		}
		if err != nil {
			return err
		}

		changes := map[string]interface{}{}
		if req.Name != nil && *req.Name != floor.Name {
			changes["name"] = *req.Name
		}
		if req.Description != nil {
			changes["description"] = *req.Description
		}
		if req.SortOrder != nil {
			changes["sort_order"] = *req.SortOrder
		}
		if req.IsActive != nil {
			changes["is_active"] = *req.IsActive
		}

		reactivated := req.IsActive != nil && *req.IsActive && !floor.IsActive
		stillActive := req.IsActive == nil || *req.IsActive
		if (changes["name"] != nil || reactivated) && stillActive {
			name := floor.Name
			if req.Name != nil {
				name = *req.Name
			}
			if err := floorNameFree(tx, req.TenantID, name, floor.ID); err != nil {
				return err
			}
		}

		if len(changes) > 0 {
			if err := tx.Model(&floor).Updates(changes).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ? AND tenant_id = ?", floor.ID, req.TenantID).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (fr *FloorRegistry) SoftDelete(ctx context.Context, tenantID string, floorID uint) (*models.Floor, error) {
	inactive := false
	return fr.Update(ctx, contracts.UpdateFloorRequest{TenantID: tenantID, FloorID: floorID, IsActive: &inactive})
}

// PermanentDelete removes the floor and detaches its tables.
func (fr *FloorRegistry) PermanentDelete(ctx context.Context, tenantID string, floorID uint) error {
	return fr.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND tenant_id = ?", floorID, tenantID).Delete(&models.Floor{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errFloorNotFound
		}

		return tx.Model(&models.Table{}).
			Where("floor_id = ? AND tenant_id = ?", floorID, tenantID).
			Update("floor_id", nil).Error
	})
}

func floorNameFree(db *gorm.DB, tenantID, name string, exceptID uint) error {
	var count int64
	query := db.Model(&models.Floor{}).
		Where("tenant_id = ? AND name = ? AND is_active = ?", tenantID, name, true)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return utils.Conflict("a floor named " + name + " already exists")
	}
	return nil
}
