package models

import (
	"time"
)

// Order priorities
const (
	PriorityLow    = "LOW"
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// Customer order statuses
const (
	OrderStatusPending    = "PENDING"
	OrderStatusConfirmed  = "CONFIRMED"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

// Warehouse order statuses (PENDING/CONFIRMED/PROCESSING shared above)
const (
	OrderStatusFulfilled = "FULFILLED"
)

// Production / control order statuses
const (
	OrderStatusScheduled  = "SCHEDULED"
	OrderStatusAssigned   = "ASSIGNED"
	OrderStatusInProgress = "IN_PROGRESS"
)

// Workstation / final assembly order statuses
const (
	OrderStatusCompletedAssembly = "COMPLETED_ASSEMBLY"
	OrderStatusRejected          = "REJECTED"
)

// Trigger scenarios selected at confirmation time
const (
	ScenarioDirectFulfillment    = "DIRECT_FULFILLMENT"
	ScenarioWarehouseOrderNeeded = "WAREHOUSE_ORDER_NEEDED"
	ScenarioDirectProduction     = "DIRECT_PRODUCTION"
	ScenarioProductionRequired   = "PRODUCTION_REQUIRED"
)

// Control order kinds
const (
	ControlOrderProduction = "PRODUCTION"
	ControlOrderAssembly   = "ASSEMBLY"
)

// Workstation order kinds, one per cell operation
const (
	WorkstationOrderInjectionMolding   = "INJECTION_MOLDING"
	WorkstationOrderPartsPreProduction = "PARTS_PRE_PRODUCTION"
	WorkstationOrderPartFinishing      = "PART_FINISHING"
	WorkstationOrderGearAssembly       = "GEAR_ASSEMBLY"
	WorkstationOrderMotorAssembly      = "MOTOR_ASSEMBLY"
	WorkstationOrderFinalAssembly      = "FINAL_ASSEMBLY"
)

// Order type tags used on ledger references and idempotency keys
const (
	OrderTypeCustomer      = "CUSTOMER_ORDER"
	OrderTypeWarehouse     = "WAREHOUSE_ORDER"
	OrderTypeProduction    = "PRODUCTION_ORDER"
	OrderTypeControl       = "CONTROL_ORDER"
	OrderTypeWorkstation   = "WORKSTATION_ORDER"
	OrderTypeSupply        = "SUPPLY_ORDER"
	OrderTypeFinalAssembly = "FINAL_ASSEMBLY_ORDER"
)

// CustomerOrder is the root of the order tree (number CO-n), placed against
// the plant warehouse WS-7.
type CustomerOrder struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	Number          string     `json:"number" gorm:"type:varchar(20);uniqueIndex;not null"`
	WorkstationID   uint       `json:"workstationId" gorm:"not null"`
	Status          string     `json:"status" gorm:"type:varchar(30);default:'PENDING';index"`
	Priority        string     `json:"priority" gorm:"type:varchar(10);default:'NORMAL'"`
	TriggerScenario string     `json:"triggerScenario" gorm:"type:varchar(30)"`
	Notes           string     `json:"notes" gorm:"type:text"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	OrderItems          []CustomerOrderItem  `json:"orderItems,omitempty" gorm:"foreignKey:CustomerOrderID"`
	WarehouseOrders     []WarehouseOrder     `json:"warehouseOrders,omitempty" gorm:"foreignKey:CustomerOrderID"`
	FinalAssemblyOrders []FinalAssemblyOrder `json:"finalAssemblyOrders,omitempty" gorm:"foreignKey:CustomerOrderID"`
}

// CustomerOrderItem is one (PRODUCT, id, qty) line. Quantity mirrors
// RequestedQuantity on output for clients still reading the legacy field.
type CustomerOrderItem struct {
	ID                uint   `json:"id" gorm:"primaryKey"`
	CustomerOrderID   uint   `json:"customerOrderId" gorm:"not null;index"`
	ItemType          string `json:"itemType" gorm:"type:varchar(20);not null"`
	ItemID            uint   `json:"itemId" gorm:"not null"`
	RequestedQuantity int    `json:"requestedQuantity" gorm:"not null"`
	Quantity          int    `json:"quantity" gorm:"-"`
}

// WarehouseOrder (WO-n) asks the module supermarket WS-8 for the modules of a
// customer order. A non-nil ProductionOrderID means the modules were produced
// by a campaign and are reserved: fulfillment skips availability checks.
type WarehouseOrder struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	Number            string    `json:"number" gorm:"type:varchar(20);uniqueIndex;not null"`
	CustomerOrderID   uint      `json:"customerOrderId" gorm:"not null;index"`
	ProductionOrderID *uint     `json:"productionOrderId" gorm:"index"`
	Status            string    `json:"status" gorm:"type:varchar(30);default:'PENDING';index"`
	Priority          string    `json:"priority" gorm:"type:varchar(10);default:'NORMAL'"`
	TriggerScenario   string    `json:"triggerScenario" gorm:"type:varchar(30)"`
	Notes             string    `json:"notes" gorm:"type:text"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`

	OrderItems          []WarehouseOrderItem `json:"orderItems,omitempty" gorm:"foreignKey:WarehouseOrderID"`
	FinalAssemblyOrders []FinalAssemblyOrder `json:"finalAssemblyOrders,omitempty" gorm:"foreignKey:WarehouseOrderID"`
}

// WarehouseOrderItem is one (MODULE, id, qty) line produced by BOM expansion.
type WarehouseOrderItem struct {
	ID                uint   `json:"id" gorm:"primaryKey"`
	WarehouseOrderID  uint   `json:"warehouseOrderId" gorm:"not null;index"`
	ItemType          string `json:"itemType" gorm:"type:varchar(20);not null"`
	ItemID            uint   `json:"itemId" gorm:"not null"`
	RequestedQuantity int    `json:"requestedQuantity" gorm:"not null"`
	Quantity          int    `json:"quantity" gorm:"-"`
}

// ProductionOrder (PO-n) drives a production campaign. Exactly one of
// SourceCustomerOrderID (direct production) or SourceWarehouseOrderID
// (production for a warehouse order) is set.
type ProductionOrder struct {
	ID                     uint       `json:"id" gorm:"primaryKey"`
	Number                 string     `json:"number" gorm:"type:varchar(20);uniqueIndex;not null"`
	SourceCustomerOrderID  *uint      `json:"sourceCustomerOrderId" gorm:"index"`
	SourceWarehouseOrderID *uint      `json:"sourceWarehouseOrderId" gorm:"index"`
	ScheduleID             string     `json:"scheduleId" gorm:"type:varchar(100)"`
	Status                 string     `json:"status" gorm:"type:varchar(30);default:'PENDING';index"`
	Priority               string     `json:"priority" gorm:"type:varchar(10);default:'NORMAL'"`
	Notes                  string     `json:"notes" gorm:"type:text"`
	DueDate                *time.Time `json:"dueDate,omitempty"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`

	ControlOrders       []ControlOrder       `json:"controlOrders,omitempty" gorm:"foreignKey:ProductionOrderID"`
	FinalAssemblyOrders []FinalAssemblyOrder `json:"finalAssemblyOrders,omitempty" gorm:"foreignKey:ProductionOrderID"`
}

// ControlOrder groups the scheduled tasks of a production order by cell type:
// PRODUCTION (PCO-n, workstations 1..3) or ASSEMBLY (ACO-n, workstations 4..6).
// One control order per scheduled task.
type ControlOrder struct {
	ID                    uint       `json:"id" gorm:"primaryKey"`
	Number                string     `json:"number" gorm:"type:varchar(20);uniqueIndex;not null"`
	Kind                  string     `json:"kind" gorm:"type:varchar(20);not null;index"`
	ProductionOrderID     uint       `json:"productionOrderId" gorm:"not null;index"`
	AssignedWorkstationID uint       `json:"assignedWorkstationId" gorm:"not null;index"`
	TaskID                string     `json:"taskId" gorm:"type:varchar(100)"`
	ItemType              string     `json:"itemType" gorm:"type:varchar(20);not null"`
	ItemID                uint       `json:"itemId" gorm:"not null"`
	Quantity              int        `json:"quantity" gorm:"not null"`
	Sequence              int        `json:"sequence" gorm:"default:0"`
	StartTime             *time.Time `json:"startTime,omitempty"`
	EndTime               *time.Time `json:"endTime,omitempty"`
	Status                string     `json:"status" gorm:"type:varchar(30);default:'PENDING';index"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`

	WorkstationOrders []WorkstationOrder `json:"workstationOrders,omitempty" gorm:"foreignKey:ControlOrderID"`
	SupplyOrders      []SupplyOrder      `json:"supplyOrders,omitempty" gorm:"foreignKey:ControlOrderID"`
}

// WorkstationOrder is a leaf task executed at one cell. Kind selects the
// operation; manufacturing kinds skip COMPLETED_ASSEMBLY on completion.
// A workstation order may not leave PENDING while its supply order is open.
type WorkstationOrder struct {
	ID                    uint      `json:"id" gorm:"primaryKey"`
	Number                string    `json:"number" gorm:"type:varchar(20);uniqueIndex;not null"`
	Kind                  string    `json:"kind" gorm:"type:varchar(30);not null;index"`
	ControlOrderID        uint      `json:"controlOrderId" gorm:"not null;index"`
	AssignedWorkstationID uint      `json:"assignedWorkstationId" gorm:"not null;index"`
	SupplyOrderID         *uint     `json:"supplyOrderId" gorm:"index"`
	ItemType              string    `json:"itemType" gorm:"type:varchar(20);not null"`
	ItemID                uint      `json:"itemId" gorm:"not null"`
	Quantity              int       `json:"quantity" gorm:"not null"`
	Status                string    `json:"status" gorm:"type:varchar(30);default:'PENDING';index"`
	Notes                 string    `json:"notes" gorm:"type:text"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// SupplyOrder (SO-n) requests raw parts from the parts supply warehouse WS-9
// on behalf of a control order. Fulfillment debits WS-9 and unblocks the
// dependent workstation orders.
type SupplyOrder struct {
	ID                           uint      `json:"id" gorm:"primaryKey"`
	Number                       string    `json:"number" gorm:"type:varchar(20);uniqueIndex;not null"`
	ControlOrderID               uint      `json:"controlOrderId" gorm:"not null;index"`
	SupplyWarehouseWorkstationID uint      `json:"supplyWarehouseWorkstationId" gorm:"not null"`
	RequestingWorkstationID      uint      `json:"requestingWorkstationId" gorm:"not null"`
	Status                       string    `json:"status" gorm:"type:varchar(30);default:'PENDING';index"`
	Notes                        string    `json:"notes" gorm:"type:text"`
	CreatedAt                    time.Time `json:"createdAt"`
	UpdatedAt                    time.Time `json:"updatedAt"`

	Items []SupplyOrderItem `json:"items,omitempty" gorm:"foreignKey:SupplyOrderID"`
}

// SupplyOrderItem is one (PART, id, qty) line.
type SupplyOrderItem struct {
	ID                uint   `json:"id" gorm:"primaryKey"`
	SupplyOrderID     uint   `json:"supplyOrderId" gorm:"not null;index"`
	ItemType          string `json:"itemType" gorm:"type:varchar(20);not null"`
	ItemID            uint   `json:"itemId" gorm:"not null"`
	RequestedQuantity int    `json:"requestedQuantity" gorm:"not null"`
	Quantity          int    `json:"quantity" gorm:"-"`
}

// FinalAssemblyOrder (FA-n) turns modules into a finished product at WS-6.
// Parent is either a warehouse order (direct fulfillment from stock) or a
// production order (direct production campaign). OutputProductID always
// resolves to a PRODUCT; submission credits WS-7.
type FinalAssemblyOrder struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	Number            string    `json:"number" gorm:"type:varchar(20);uniqueIndex;not null"`
	WarehouseOrderID  *uint     `json:"warehouseOrderId" gorm:"index"`
	ProductionOrderID *uint     `json:"productionOrderId" gorm:"index"`
	CustomerOrderID   uint      `json:"customerOrderId" gorm:"not null;index"`
	WorkstationID     uint      `json:"workstationId" gorm:"not null"`
	OutputProductID   uint      `json:"outputProductId" gorm:"not null"`
	OutputQuantity    int       `json:"outputQuantity" gorm:"not null"`
	Status            string    `json:"status" gorm:"type:varchar(30);default:'PENDING';index"`
	Notes             string    `json:"notes" gorm:"type:text"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// SyncQuantities mirrors requestedQuantity into the legacy quantity field on
// every item of the order before it is written to the wire.
func (o *CustomerOrder) SyncQuantities() {
	for i := range o.OrderItems {
		o.OrderItems[i].Quantity = o.OrderItems[i].RequestedQuantity
	}
}

func (o *WarehouseOrder) SyncQuantities() {
	for i := range o.OrderItems {
		o.OrderItems[i].Quantity = o.OrderItems[i].RequestedQuantity
	}
}

func (o *SupplyOrder) SyncQuantities() {
	for i := range o.Items {
		o.Items[i].Quantity = o.Items[i].RequestedQuantity
	}
}
