package models

import (
	"time"
)

// Ledger reason codes
const (
	StockReasonFulfillment = "FULFILLMENT"
	StockReasonProduction  = "PRODUCTION"
	StockReasonConsumption = "CONSUMPTION"
	StockReasonAdjustment  = "ADJUSTMENT"
	StockReasonReturn      = "RETURN"
)

// StockRecord holds the authoritative quantity for one
// (workstation, itemType, itemId) key. Quantity never goes negative and
// records are never deleted once created.
type StockRecord struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	WorkstationID uint      `json:"workstationId" gorm:"not null;index:idx_stock_key,unique"`
	ItemType      string    `json:"itemType" gorm:"type:varchar(20);not null;index:idx_stock_key,unique"`
	ItemID        uint      `json:"itemId" gorm:"not null;index:idx_stock_key,unique"`
	Quantity      int       `json:"quantity" gorm:"not null;default:0"`
	LastUpdated   time.Time `json:"lastUpdated"`
	CreatedAt     time.Time `json:"createdAt"`
}

// StockLedgerEntry is the immutable audit trail of one stock delta. The sum of
// deltas over a key always equals the current StockRecord quantity.
type StockLedgerEntry struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Timestamp     time.Time `json:"timestamp" gorm:"index"`
	WorkstationID uint      `json:"workstationId" gorm:"not null;index:idx_ledger_key"`
	ItemType      string    `json:"itemType" gorm:"type:varchar(20);not null;index:idx_ledger_key"`
	ItemID        uint      `json:"itemId" gorm:"not null;index:idx_ledger_key"`
	Delta         int       `json:"delta" gorm:"not null"`
	Reason        string    `json:"reason" gorm:"type:varchar(20);not null"`
	RefOrderType  string    `json:"refOrderType" gorm:"type:varchar(30)"`
	RefOrderID    uint      `json:"refOrderId"`
	Actor         string    `json:"actor" gorm:"type:varchar(255)"`
}

// StockAdjustmentKey records the outcome of an idempotent adjust call so a
// retried request replays the prior result instead of double-posting.
type StockAdjustmentKey struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Key           string    `json:"key" gorm:"type:varchar(255);uniqueIndex;not null"`
	LedgerEntryID uint      `json:"ledgerEntryId"`
	ResultingQty  int       `json:"resultingQuantity"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SystemConfiguration is a key/value store for runtime-tunable settings.
// LOT_SIZE_THRESHOLD is the only key the orchestrator depends on.
type SystemConfiguration struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Key         string    `json:"key" gorm:"type:varchar(100);uniqueIndex;not null"`
	Value       string    `json:"value" gorm:"type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

const ConfigKeyLotSizeThreshold = "LOT_SIZE_THRESHOLD"

// DefaultLotSizeThreshold applies when the configuration row is absent.
const DefaultLotSizeThreshold = 3
