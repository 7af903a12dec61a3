package database

import (
	"fmt"

	"github.com/yeremiapane/restaurant-platform/models"
	"github.com/yeremiapane/restaurant-platform/utils"
	"gorm.io/gorm"
)

// Each service owns its own tables; standalone mode migrates all of them into one schema.

func MigrateTables(db *gorm.DB) error {
	return migrate(db, "tables", &models.Floor{}, &models.Table{})
}

func MigrateIdentity(db *gorm.DB) error {
	return migrate(db, "identity", &models.User{}, &models.RevokedToken{})
}

func MigrateCatalog(db *gorm.DB) error {
	return migrate(db, "catalog", &models.MenuCategory{}, &models.Menu{})
}

func MigrateAll(db *gorm.DB) error {
	for _, fn := range []func(*gorm.DB) error{MigrateIdentity, MigrateTables, MigrateCatalog} {
		if err := fn(db); err != nil {
			return err
		}
	}
	return nil
}

func migrate(db *gorm.DB, service string, dst ...interface{}) error {
	if err := db.AutoMigrate(dst...); err != nil {
		return fmt.Errorf("auto-migrate %s: %w", service, err)
	}
	utils.InfoLogger.Printf("AutoMigrate completed for %s service.", service)
	return nil
}
