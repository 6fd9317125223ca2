package inventory

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/models"
)

// AdjustBatch applies a set of adjusts atomically: either every delta lands
// with its ledger entry, or none do. The involved keys are locked in sorted
// order so two overlapping batches cannot deadlock. Requests whose
// idempotency key was already recorded are skipped, which makes a retried
// batch safe after a transport failure.
func (s *Service) AdjustBatch(reqs []AdjustRequest) ([]models.StockRecord, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	for _, req := range reqs {
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
	}

	locks := s.locksFor(reqs)
	for _, lock := range locks {
		lock.Lock()
	}
	defer func() {
		for _, lock := range locks {
			lock.Unlock()
		}
	}()

	var results []models.StockRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		results = results[:0]
		for _, req := range reqs {
			if req.IdempotencyKey != "" {
				var seen models.StockAdjustmentKey
				err := tx.Where("key = ?", req.IdempotencyKey).First(&seen).Error
				if err == nil {
					continue
				}
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
			}

			record, err := applyAdjust(tx, req)
			if err != nil {
				return err
			}
			results = append(results, *record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// applyAdjust performs one delta inside the caller's transaction.
func applyAdjust(tx *gorm.DB, req AdjustRequest) (*models.StockRecord, error) {
	var record models.StockRecord
	err := tx.Where("workstation_id = ? AND item_type = ? AND item_id = ?",
		req.WorkstationID, req.ItemType, req.ItemID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if req.Delta < 0 {
			return nil, insufficientErr(req, 0)
		}
		record = models.StockRecord{
			WorkstationID: req.WorkstationID,
			ItemType:      req.ItemType,
			ItemID:        req.ItemID,
		}
	} else if err != nil {
		return nil, err
	}

	if record.Quantity+req.Delta < 0 {
		return nil, insufficientErr(req, record.Quantity)
	}

	record.Quantity += req.Delta
	record.LastUpdated = time.Now()
	if err := tx.Save(&record).Error; err != nil {
		return nil, err
	}

	entry := models.StockLedgerEntry{
		Timestamp:     time.Now(),
		WorkstationID: req.WorkstationID,
		ItemType:      req.ItemType,
		ItemID:        req.ItemID,
		Delta:         req.Delta,
		Reason:        req.ReasonCode,
		RefOrderType:  req.RefOrderType,
		RefOrderID:    req.RefOrderID,
		Actor:         req.Actor,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		key := models.StockAdjustmentKey{
			Key:           req.IdempotencyKey,
			LedgerEntryID: entry.ID,
			ResultingQty:  record.Quantity,
		}
		if err := tx.Create(&key).Error; err != nil {
			return nil, err
		}
	}
	return &record, nil
}

// locksFor returns the mutexes of the distinct keys in reqs, in sorted key
// order.
func (s *Service) locksFor(reqs []AdjustRequest) []*sync.Mutex {
	keys := make([]string, 0, len(reqs))
	seen := map[string]bool{}
	for _, req := range reqs {
		key := fmt.Sprintf("%d:%s:%d", req.WorkstationID, req.ItemType, req.ItemID)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	locks := make([]*sync.Mutex, 0, len(keys))
	for _, key := range keys {
		actual, _ := s.keyLocks.LoadOrStore(key, &sync.Mutex{})
		locks = append(locks, actual.(*sync.Mutex))
	}
	return locks
}
