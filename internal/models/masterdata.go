package models

import (
	"time"
)

// Workstation roles
const (
	WorkstationRoleWarehouse     = "WAREHOUSE"
	WorkstationRoleManufacturing = "MANUFACTURING"
	WorkstationRoleAssembly      = "ASSEMBLY"
)

// Well-known workstation ids of the model factory layout
const (
	WorkstationPlantWarehouse    uint = 7 // finished products
	WorkstationModuleSupermarket uint = 8 // produced modules
	WorkstationPartsSupply       uint = 9 // raw parts
	WorkstationFinalAssembly     uint = 6
)

// Item categories carried by stock entries and order items
const (
	ItemTypeProduct = "PRODUCT"
	ItemTypeModule  = "MODULE"
	ItemTypePart    = "PART"
)

// Workstation represents one of the nine stations (WS-1..WS-9).
// Seeded at startup and immutable afterwards.
type Workstation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Role      string    `json:"role" gorm:"type:varchar(20);not null;index"` // WAREHOUSE, MANUFACTURING, ASSEMBLY
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Product is a finished good stored at the plant warehouse (WS-7).
type Product struct {
	ID                   uint      `json:"id" gorm:"primaryKey"`
	Name                 string    `json:"name" gorm:"type:varchar(255);not null"`
	Description          string    `json:"description" gorm:"type:text"`
	EstimatedTimeMinutes int       `json:"estimatedTimeMinutes" gorm:"default:0"`
	IsActive             bool      `json:"isActive" gorm:"default:true;index"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`

	Modules []ProductModule `json:"modules,omitempty" gorm:"foreignKey:ProductID"`
}

// Module is an intermediate good stored at the module supermarket (WS-8).
// ProductionWorkstationID identifies the cell that produces it: 1..3 for
// manufacturing modules, 4..6 for assembly modules.
type Module struct {
	ID                      uint      `json:"id" gorm:"primaryKey"`
	Name                    string    `json:"name" gorm:"type:varchar(255);not null"`
	Description             string    `json:"description" gorm:"type:text"`
	ProductionWorkstationID uint      `json:"productionWorkstationId" gorm:"not null;index"`
	EstimatedTimeMinutes    int       `json:"estimatedTimeMinutes" gorm:"default:0"`
	IsActive                bool      `json:"isActive" gorm:"default:true;index"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`

	Components []ModuleComponent `json:"components,omitempty" gorm:"foreignKey:ModuleID"`
}

// Part is a raw component supplied from the parts supply warehouse (WS-9).
type Part struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	IsActive    bool      `json:"isActive" gorm:"default:true;index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductModule is a BOM edge Product -> (Module, qty).
type ProductModule struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProductID uint      `json:"productId" gorm:"not null;index:idx_product_module,unique"`
	ModuleID  uint      `json:"moduleId" gorm:"not null;index:idx_product_module,unique"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Module Module `json:"module,omitempty" gorm:"foreignKey:ModuleID"`
}

// ModuleComponent is a BOM edge Module -> (Part, qty) or Module -> (sub-Module, qty).
// ComponentType selects which table ComponentID points into.
type ModuleComponent struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ModuleID      uint      `json:"moduleId" gorm:"not null;index:idx_module_component,unique"`
	ComponentType string    `json:"componentType" gorm:"type:varchar(20);not null;index:idx_module_component,unique"` // MODULE, PART
	ComponentID   uint      `json:"componentId" gorm:"not null;index:idx_module_component,unique"`
	Quantity      int       `json:"quantity" gorm:"not null"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (ProductModule) TableName() string   { return "product_modules" }
func (ModuleComponent) TableName() string { return "module_components" }

// BOMComponentView is the wire shape of a resolved BOM edge. ModuleID mirrors
// ComponentID for clients that still send/expect the legacy moduleId field.
type BOMComponentView struct {
	ComponentID   uint   `json:"componentId"`
	ModuleID      uint   `json:"moduleId"`
	ComponentName string `json:"componentName"`
	ComponentType string `json:"componentType"`
	Quantity      int    `json:"quantity"`
}
