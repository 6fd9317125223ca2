package inventory

import (
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/models"
)

var validReasons = map[string]bool{
	models.StockReasonFulfillment: true,
	models.StockReasonProduction:  true,
	models.StockReasonConsumption: true,
	models.StockReasonAdjustment:  true,
	models.StockReasonReturn:      true,
}

var validItemTypes = map[string]bool{
	models.ItemTypeProduct: true,
	models.ItemTypeModule:  true,
	models.ItemTypePart:    true,
}

// Service is the authoritative stock keeper. Every mutation of a stock record
// appends exactly one ledger entry inside the same transaction, and all
// adjusts on one (workstation, itemType, itemId) key serialize on a per-key
// mutex; different keys proceed in parallel.
type Service struct {
	db       *gorm.DB
	keyLocks sync.Map // stock key -> *sync.Mutex
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// AdjustRequest describes one credit (positive delta) or debit (negative
// delta). IdempotencyKey makes retried calls replay the original outcome.
type AdjustRequest struct {
	WorkstationID  uint   `json:"workstationId" binding:"required"`
	ItemType       string `json:"itemType" binding:"required"`
	ItemID         uint   `json:"itemId" binding:"required"`
	Delta          int    `json:"delta" binding:"required"`
	ReasonCode     string `json:"reasonCode" binding:"required"`
	Notes          string `json:"notes"`
	IdempotencyKey string `json:"idempotencyKey"`
	RefOrderType   string `json:"-"`
	RefOrderID     uint   `json:"-"`
	Actor          string `json:"-"`
}

// StockFilter narrows GetStock results; zero values match everything.
type StockFilter struct {
	WorkstationID uint
	ItemType      string
	ItemID        uint
}

func (s *Service) GetStock(filter StockFilter) ([]models.StockRecord, error) {
	query := s.db.Model(&models.StockRecord{})
	if filter.WorkstationID != 0 {
		query = query.Where("workstation_id = ?", filter.WorkstationID)
	}
	if filter.ItemType != "" {
		query = query.Where("item_type = ?", filter.ItemType)
	}
	if filter.ItemID != 0 {
		query = query.Where("item_id = ?", filter.ItemID)
	}

	var records []models.StockRecord
	if err := query.Order("workstation_id, item_type, item_id").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Available returns the quantity on hand for one key, zero when the record
// does not exist yet.
func (s *Service) Available(workstationID uint, itemType string, itemID uint) (int, error) {
	var record models.StockRecord
	err := s.db.Where("workstation_id = ? AND item_type = ? AND item_id = ?", workstationID, itemType, itemID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return record.Quantity, nil
}

// Adjust applies one delta to a stock key. A debit that would drive the
// quantity negative fails with INVENTORY_VALIDATION_ERROR and writes nothing.
func (s *Service) Adjust(req AdjustRequest) (*models.StockRecord, error) {
	if !validItemTypes[req.ItemType] {
		return nil, apperrors.BadRequest(apperrors.CodeInventoryValidation,
			fmt.Sprintf("unknown item type %q", req.ItemType))
	}
	if !validReasons[req.ReasonCode] {
		return nil, apperrors.BadRequest(apperrors.CodeInventoryValidation,
			fmt.Sprintf("unknown reason code %q", req.ReasonCode))
	}
	if req.Delta == 0 {
		return nil, apperrors.BadRequest(apperrors.CodeInventoryValidation, "delta must not be zero")
	}

	lock := s.lockFor(req.WorkstationID, req.ItemType, req.ItemID)
	lock.Lock()
	defer lock.Unlock()

	// A previously seen idempotency key replays the stored outcome without
	// touching the ledger.
	if req.IdempotencyKey != "" {
		var seen models.StockAdjustmentKey
		err := s.db.Where("key = ?", req.IdempotencyKey).First(&seen).Error
		if err == nil {
			record, err := s.record(req.WorkstationID, req.ItemType, req.ItemID)
			if err != nil {
				return nil, err
			}
			record.Quantity = seen.ResultingQty
			return record, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var result *models.StockRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		record, err := applyAdjust(tx, req)
		if err != nil {
			return err
		}
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func insufficientErr(req AdjustRequest, available int) error {
	return apperrors.BadRequest(apperrors.CodeInventoryValidation,
		"debit would drive stock negative").WithDetails(map[string]interface{}{
		"workstationId": req.WorkstationID,
		"itemType":      req.ItemType,
		"itemId":        req.ItemID,
		"available":     available,
		"requested":     -req.Delta,
	})
}

// Alert is one workstation's group of low-stock records.
type Alert struct {
	WorkstationID uint                 `json:"workstationId"`
	Records       []models.StockRecord `json:"records"`
}

// ListAlerts returns the stock records at or below the threshold, grouped by
// workstation.
func (s *Service) ListAlerts(threshold int) ([]Alert, error) {
	var records []models.StockRecord
	if err := s.db.Where("quantity <= ?", threshold).
		Order("workstation_id, item_type, item_id").Find(&records).Error; err != nil {
		return nil, err
	}

	var alerts []Alert
	for _, record := range records {
		if len(alerts) == 0 || alerts[len(alerts)-1].WorkstationID != record.WorkstationID {
			alerts = append(alerts, Alert{WorkstationID: record.WorkstationID})
		}
		last := &alerts[len(alerts)-1]
		last.Records = append(last.Records, record)
	}
	return alerts, nil
}

// Ledger lists ledger entries, optionally filtered to one key, newest first.
func (s *Service) Ledger(filter StockFilter, limit int) ([]models.StockLedgerEntry, error) {
	query := s.db.Model(&models.StockLedgerEntry{})
	if filter.WorkstationID != 0 {
		query = query.Where("workstation_id = ?", filter.WorkstationID)
	}
	if filter.ItemType != "" {
		query = query.Where("item_type = ?", filter.ItemType)
	}
	if filter.ItemID != 0 {
		query = query.Where("item_id = ?", filter.ItemID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entries []models.StockLedgerEntry
	if err := query.Order("id DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Service) record(workstationID uint, itemType string, itemID uint) (*models.StockRecord, error) {
	var record models.StockRecord
	err := s.db.Where("workstation_id = ? AND item_type = ? AND item_id = ?", workstationID, itemType, itemID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(apperrors.CodeInventoryNotFound, "stock record not found")
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Service) lockFor(workstationID uint, itemType string, itemID uint) *sync.Mutex {
	key := fmt.Sprintf("%d:%s:%d", workstationID, itemType, itemID)
	actual, _ := s.keyLocks.LoadOrStore(key, &sync.Mutex{})
	return actual.(*sync.Mutex)
}
