package database

import (
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smartfab/model-factory-mes/internal/models"
)

// Initialize opens the datastore selected by the URL scheme (postgres://,
// mysql://, anything else is a sqlite file path) and migrates the schema.
func Initialize(databaseURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		dialector = postgres.Open(databaseURL)
	case strings.HasPrefix(databaseURL, "mysql://"):
		dialector = mysql.Open(strings.TrimPrefix(databaseURL, "mysql://"))
	default:
		dialector = sqlite.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates every table of the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Workstation{},
		&models.Product{},
		&models.Module{},
		&models.Part{},
		&models.ProductModule{},
		&models.ModuleComponent{},
		&models.StockRecord{},
		&models.StockLedgerEntry{},
		&models.StockAdjustmentKey{},
		&models.SystemConfiguration{},
		&models.CustomerOrder{},
		&models.CustomerOrderItem{},
		&models.WarehouseOrder{},
		&models.WarehouseOrderItem{},
		&models.ProductionOrder{},
		&models.ControlOrder{},
		&models.WorkstationOrder{},
		&models.SupplyOrder{},
		&models.SupplyOrderItem{},
		&models.FinalAssemblyOrder{},
	)
}
