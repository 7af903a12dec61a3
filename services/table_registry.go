package services

import (
	"context"
	"errors"
	"time"

	"github.com/yeremiapane/restaurant-platform/contracts"
	"github.com/yeremiapane/restaurant-platform/models"
	"github.com/yeremiapane/restaurant-platform/utils"
	"gorm.io/gorm"
)

var (
	errTableNotFound = utils.NotFound("table not found")
	errFloorNotFound = utils.NotFound("floor not found")
)

// TableRegistry owns table rows. Every read and write is scoped by tenant, and
// a row of another tenant is reported exactly like a missing one.
type TableRegistry struct {
	DB *gorm.DB
}

func NewTableRegistry(db *gorm.DB) *TableRegistry {
	return &TableRegistry{DB: db}
}

func (tr *TableRegistry) Create(ctx context.Context, req contracts.CreateTableRequest) (*models.Table, error) {
	db := tr.DB.WithContext(ctx)

	if req.FloorID != nil {
		if err := floorExists(db, req.TenantID, *req.FloorID); err != nil {
			return nil, err
		}
	}
	if err := tableNameFree(db, req.TenantID, req.Name, 0); err != nil {
		return nil, err
	}

	table := models.Table{
		TenantID:     req.TenantID,
		FloorID:      req.FloorID,
		Name:         req.Name,
		Capacity:     req.Capacity,
		IsActive:     true,
		TokenVersion: 1,
	}
	if err := db.Create(&table).Error; err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("New table created: %s (tenant=%s id=%d)", table.Name, table.TenantID, table.ID)
	return &table, nil
}

func (tr *TableRegistry) Get(ctx context.Context, tenantID string, tableID uint) (*models.Table, error) {
	var table models.Table
	err := tr.DB.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", tableID, tenantID).
		First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errTableNotFound
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (tr *TableRegistry) List(ctx context.Context, req contracts.ListTablesRequest) ([]models.Table, error) {
	query := tr.DB.WithContext(ctx).Where("tenant_id = ?", req.TenantID)
	if req.FloorID != nil {
		query = query.Where("floor_id = ?", *req.FloorID)
	}
	if !req.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}

	tables := []models.Table{}
	if err := query.Order("name ASC").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

// ListByIDs returns the tenant's tables among ids, in no particular order.
func (tr *TableRegistry) ListByIDs(ctx context.Context, tenantID string, ids []uint) ([]models.Table, error) {
	tables := []models.Table{}
	if len(ids) == 0 {
		return tables, nil
	}
	err := tr.DB.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&tables).Error
	return tables, err
}

func (tr *TableRegistry) Update(ctx context.Context, req contracts.UpdateTableRequest) (*models.Table, error) {
	var updated *models.Table

	err := tr.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var table models.Table
		err := tx.Where("id = ? AND tenant_id = ?", req.TableID, req.TenantID).First(&table).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errTableNotFound
		}
		if err != nil {
			return err
		}

		changes := map[string]interface{}{}
		if req.Name != nil && *req.Name != table.Name {
			changes["name"] = *req.Name
		}
		if req.Capacity != nil {
			changes["capacity"] = *req.Capacity
		}
		if req.FloorID != nil {
			if err := floorExists(tx, req.TenantID, *req.FloorID); err != nil {
				return err
			}
			changes["floor_id"] = *req.FloorID
		}
		if req.ClearFloor {
			changes["floor_id"] = nil
		}
		if req.IsActive != nil {
			changes["is_active"] = *req.IsActive
		}

		// renaming or reactivating puts the name back into the uniqueness set
		nameChanged := changes["name"] != nil
		reactivated := req.IsActive != nil && *req.IsActive && !table.IsActive
		stillActive := req.IsActive == nil || *req.IsActive
		if (nameChanged || reactivated) && stillActive {
			name := table.Name
			if req.Name != nil {
				name = *req.Name
			}
			if err := tableNameFree(tx, req.TenantID, name, table.ID); err != nil {
				return err
			}
		}

		if len(changes) > 0 {
			if err := tx.Model(&table).Updates(changes).Error; err != nil {
				return err
			}
		}

		var fresh models.Table
		if err := tx.Where("id = ? AND tenant_id = ?", table.ID, req.TenantID).First(&fresh).Error; err != nil {
			return err
		}
		updated = &fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Table %d updated (tenant=%s)", updated.ID, updated.TenantID)
	return updated, nil
}

// SoftDelete deactivates the table. Its tokens stop scanning because inactive
// tables are rejected by the scan validator.
func (tr *TableRegistry) SoftDelete(ctx context.Context, tenantID string, tableID uint) (*models.Table, error) {
	inactive := false
	return tr.Update(ctx, contracts.UpdateTableRequest{TenantID: tenantID, TableID: tableID, IsActive: &inactive})
}

func (tr *TableRegistry) PermanentDelete(ctx context.Context, tenantID string, tableID uint) error {
	result := tr.DB.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", tableID, tenantID).
		Delete(&models.Table{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errTableNotFound
	}

	utils.InfoLogger.Printf("Table %d deleted (tenant=%s)", tableID, tenantID)
	return nil
}

// IncrementTokenVersion bumps tokenVersion by exactly one with a single
// UPDATE ... SET token_version = token_version + 1, then reads the row back
// inside the same transaction so the caller sees the version it produced.
func (tr *TableRegistry) IncrementTokenVersion(ctx context.Context, tenantID string, tableID uint) (*models.Table, error) {
	var table models.Table

	err := tr.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Table{}).
			Where("id = ? AND tenant_id = ?", tableID, tenantID).
			Updates(map[string]interface{}{
				"token_version": gorm.Expr("token_version + ?", 1),
				"updated_at":    time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errTableNotFound
		}
		return tx.Where("id = ? AND tenant_id = ?", tableID, tenantID).First(&table).Error
	})
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// CacheToken stores token next to the row if the row is still at version.
// It reports whether the row was updated.
func (tr *TableRegistry) CacheToken(ctx context.Context, tenantID string, tableID, version uint, token string, at time.Time) (bool, error) {
	result := tr.DB.WithContext(ctx).Model(&models.Table{}).
		Where("id = ? AND tenant_id = ? AND token_version = ?", tableID, tenantID, version).
		Updates(map[string]interface{}{
			"qr_token":        token,
			"qr_generated_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func tableNameFree(db *gorm.DB, tenantID, name string, exceptID uint) error {
	var count int64
	query := db.Model(&models.Table{}).
		Where("tenant_id = ? AND name = ? AND is_active = ?", tenantID, name, true)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return utils.Conflict("a table named " + name + " already exists")
	}
	return nil
}

func floorExists(db *gorm.DB, tenantID string, floorID uint) error {
	var count int64
	err := db.Model(&models.Floor{}).
		Where("id = ? AND tenant_id = ?", floorID, tenantID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return errFloorNotFound
	}
	return nil
}
