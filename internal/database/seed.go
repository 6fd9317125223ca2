package database

import (
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/smartfab/model-factory-mes/internal/models"
)

// Seed populates the factory layout, default users, configuration and a demo
// catalog with starting stock. It runs on first boot only.
func Seed(db *gorm.DB) error {
	var count int64
	db.Model(&models.Workstation{}).Count(&count)
	if count > 0 {
		return nil
	}

	log.Println("Seeding factory layout and demo data")

	workstations := []models.Workstation{
		{ID: 1, Name: "Injection Molding Cell", Role: models.WorkstationRoleManufacturing},
		{ID: 2, Name: "Parts Pre-Production Cell", Role: models.WorkstationRoleManufacturing},
		{ID: 3, Name: "Part Finishing Cell", Role: models.WorkstationRoleManufacturing},
		{ID: 4, Name: "Gear Assembly Cell", Role: models.WorkstationRoleAssembly},
		{ID: 5, Name: "Motor Assembly Cell", Role: models.WorkstationRoleAssembly},
		{ID: 6, Name: "Final Assembly Cell", Role: models.WorkstationRoleAssembly},
		{ID: 7, Name: "Plant Warehouse", Role: models.WorkstationRoleWarehouse},
		{ID: 8, Name: "Modules Supermarket", Role: models.WorkstationRoleWarehouse},
		{ID: 9, Name: "Parts Supply Warehouse", Role: models.WorkstationRoleWarehouse},
	}
	if err := db.Create(&workstations).Error; err != nil {
		return err
	}

	configs := []models.SystemConfiguration{
		{Key: models.ConfigKeyLotSizeThreshold, Value: "3", Description: "Order quantity at or above which a customer order triggers direct production"},
	}
	if err := db.Create(&configs).Error; err != nil {
		return err
	}

	users := []models.User{
		{Username: "admin", Role: models.RoleAdmin},
		{Username: "warehouse7", Role: models.RoleOperator, WorkstationID: ptr(uint(7))},
		{Username: "supermarket8", Role: models.RoleOperator, WorkstationID: ptr(uint(8))},
		{Username: "supply9", Role: models.RoleOperator, WorkstationID: ptr(uint(9))},
		{Username: "cell1", Role: models.RoleOperator, WorkstationID: ptr(uint(1))},
		{Username: "cell4", Role: models.RoleOperator, WorkstationID: ptr(uint(4))},
		{Username: "cell6", Role: models.RoleOperator, WorkstationID: ptr(uint(6))},
		{Username: "customer", Role: models.RoleCustomer},
	}
	for i := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(users[i].Username+"123"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		users[i].PasswordHash = string(hash)
		users[i].IsActive = true
	}
	if err := db.Create(&users).Error; err != nil {
		return err
	}

	parts := []models.Part{
		{ID: 1, Name: "Gear Wheel Blank", IsActive: true},
		{ID: 2, Name: "Axle Rod", IsActive: true},
		{ID: 3, Name: "Housing Shell", IsActive: true},
		{ID: 4, Name: "Motor Coil", IsActive: true},
		{ID: 5, Name: "Fastener Set", IsActive: true},
	}
	if err := db.Create(&parts).Error; err != nil {
		return err
	}

	modules := []models.Module{
		{ID: 10, Name: "Molded Housing", ProductionWorkstationID: 1, EstimatedTimeMinutes: 12, IsActive: true},
		{ID: 11, Name: "Gear Set", ProductionWorkstationID: 2, EstimatedTimeMinutes: 9, IsActive: true},
		{ID: 12, Name: "Finished Axle", ProductionWorkstationID: 3, EstimatedTimeMinutes: 6, IsActive: true},
		{ID: 13, Name: "Gear Drive Assembly", ProductionWorkstationID: 4, EstimatedTimeMinutes: 15, IsActive: true},
		{ID: 14, Name: "Motor Unit", ProductionWorkstationID: 5, EstimatedTimeMinutes: 18, IsActive: true},
	}
	if err := db.Create(&modules).Error; err != nil {
		return err
	}

	components := []models.ModuleComponent{
		{ModuleID: 10, ComponentType: models.ItemTypePart, ComponentID: 3, Quantity: 1},
		{ModuleID: 10, ComponentType: models.ItemTypePart, ComponentID: 5, Quantity: 2},
		{ModuleID: 11, ComponentType: models.ItemTypePart, ComponentID: 1, Quantity: 4},
		{ModuleID: 12, ComponentType: models.ItemTypePart, ComponentID: 2, Quantity: 2},
		{ModuleID: 13, ComponentType: models.ItemTypeModule, ComponentID: 11, Quantity: 1},
		{ModuleID: 13, ComponentType: models.ItemTypeModule, ComponentID: 12, Quantity: 1},
		{ModuleID: 14, ComponentType: models.ItemTypeModule, ComponentID: 10, Quantity: 1},
		{ModuleID: 14, ComponentType: models.ItemTypePart, ComponentID: 4, Quantity: 1},
	}
	if err := db.Create(&components).Error; err != nil {
		return err
	}

	products := []models.Product{
		{ID: 1, Name: "Model Truck", EstimatedTimeMinutes: 25, IsActive: true},
		{ID: 2, Name: "Model Crane", EstimatedTimeMinutes: 40, IsActive: true},
	}
	if err := db.Create(&products).Error; err != nil {
		return err
	}

	productModules := []models.ProductModule{
		{ProductID: 1, ModuleID: 13, Quantity: 1},
		{ProductID: 1, ModuleID: 14, Quantity: 1},
		{ProductID: 2, ModuleID: 13, Quantity: 2},
		{ProductID: 2, ModuleID: 14, Quantity: 1},
	}
	if err := db.Create(&productModules).Error; err != nil {
		return err
	}

	now := time.Now()
	stock := []models.StockRecord{
		{WorkstationID: 7, ItemType: models.ItemTypeProduct, ItemID: 1, Quantity: 5, LastUpdated: now},
		{WorkstationID: 7, ItemType: models.ItemTypeProduct, ItemID: 2, Quantity: 2, LastUpdated: now},
		{WorkstationID: 8, ItemType: models.ItemTypeModule, ItemID: 13, Quantity: 10, LastUpdated: now},
		{WorkstationID: 8, ItemType: models.ItemTypeModule, ItemID: 14, Quantity: 10, LastUpdated: now},
		{WorkstationID: 9, ItemType: models.ItemTypePart, ItemID: 1, Quantity: 200, LastUpdated: now},
		{WorkstationID: 9, ItemType: models.ItemTypePart, ItemID: 2, Quantity: 200, LastUpdated: now},
		{WorkstationID: 9, ItemType: models.ItemTypePart, ItemID: 3, Quantity: 100, LastUpdated: now},
		{WorkstationID: 9, ItemType: models.ItemTypePart, ItemID: 4, Quantity: 100, LastUpdated: now},
		{WorkstationID: 9, ItemType: models.ItemTypePart, ItemID: 5, Quantity: 400, LastUpdated: now},
	}
	if err := db.Create(&stock).Error; err != nil {
		return err
	}

	ledger := make([]models.StockLedgerEntry, 0, len(stock))
	for _, record := range stock {
		ledger = append(ledger, models.StockLedgerEntry{
			Timestamp:     now,
			WorkstationID: record.WorkstationID,
			ItemType:      record.ItemType,
			ItemID:        record.ItemID,
			Delta:         record.Quantity,
			Reason:        models.StockReasonAdjustment,
			Actor:         "seed",
		})
	}
	return db.Create(&ledger).Error
}

func ptr(v uint) *uint { return &v }
