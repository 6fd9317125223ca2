// Package orders owns the order hierarchy and drives the fulfillment
// workflow from customer order to workstation task and back up.
package orders

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/config"
	"github.com/smartfab/model-factory-mes/internal/models"
	"github.com/smartfab/model-factory-mes/pkg/bom"
	"github.com/smartfab/model-factory-mes/pkg/inventory"
	"github.com/smartfab/model-factory-mes/pkg/masterdata"
	"github.com/smartfab/model-factory-mes/pkg/scheduler"
)

// Service is the order orchestrator. It owns every order entity, consults
// master data and inventory, and calls the scheduling engine through the
// planner. Order status is authoritative here; stock is authoritative in the
// inventory service and only ever touched through its idempotent adjusts.
type Service struct {
	db         *gorm.DB
	inventory  *inventory.Service
	masterdata *masterdata.Service
	resolver   *bom.Resolver
	planner    scheduler.Planner
	cfg        *config.Config
}

func NewService(db *gorm.DB, inv *inventory.Service, md *masterdata.Service, resolver *bom.Resolver, planner scheduler.Planner, cfg *config.Config) *Service {
	return &Service{db: db, inventory: inv, masterdata: md, resolver: resolver, planner: planner, cfg: cfg}
}

// LotSizeThreshold resolves the campaign threshold: environment override
// first, then the configuration row, then the built-in default.
func (s *Service) LotSizeThreshold() int {
	if s.cfg != nil && s.cfg.LotSizeThreshold > 0 {
		return s.cfg.LotSizeThreshold
	}
	var row models.SystemConfiguration
	err := s.db.Where("key = ?", models.ConfigKeyLotSizeThreshold).First(&row).Error
	if err == nil {
		if parsed, convErr := strconv.Atoi(row.Value); convErr == nil && parsed > 0 {
			return parsed
		}
	}
	return models.DefaultLotSizeThreshold
}

// SetLotSizeThreshold updates the configuration row (admin operation).
func (s *Service) SetLotSizeThreshold(value int) error {
	if value <= 0 {
		return apperrors.BadRequest(apperrors.CodeOrderValidation, "lot size threshold must be positive")
	}
	row := models.SystemConfiguration{Key: models.ConfigKeyLotSizeThreshold}
	err := s.db.Where("key = ?", models.ConfigKeyLotSizeThreshold).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row.Value = strconv.Itoa(value)
		return s.db.Create(&row).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&row).Update("value", strconv.Itoa(value)).Error
}

// nextNumber produces the typed order number for a new row from the current
// row count of the table.
func nextNumber(tx *gorm.DB, model interface{}, prefix string) (string, error) {
	var count int64
	if err := tx.Model(model).Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", prefix, count+1), nil
}

// nextControlNumber numbers PCOs and ACOs independently.
func nextControlNumber(tx *gorm.DB, kind string) (string, error) {
	prefix := "PCO"
	if kind == models.ControlOrderAssembly {
		prefix = "ACO"
	}
	var count int64
	if err := tx.Model(&models.ControlOrder{}).Where("kind = ?", kind).Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", prefix, count+1), nil
}

// Allowed forward edges of each state machine. CANCELLED and REJECTED are
// reachable only where listed and always terminal.
var (
	customerTransitions = map[string][]string{
		models.OrderStatusPending:    {models.OrderStatusConfirmed, models.OrderStatusCancelled},
		models.OrderStatusConfirmed:  {models.OrderStatusProcessing, models.OrderStatusCompleted, models.OrderStatusCancelled},
		models.OrderStatusProcessing: {models.OrderStatusCompleted},
	}
	warehouseTransitions = map[string][]string{
		models.OrderStatusPending:    {models.OrderStatusConfirmed},
		models.OrderStatusConfirmed:  {models.OrderStatusProcessing, models.OrderStatusFulfilled},
		models.OrderStatusProcessing: {models.OrderStatusFulfilled},
	}
	productionTransitions = map[string][]string{
		models.OrderStatusPending:    {models.OrderStatusScheduled},
		models.OrderStatusScheduled:  {models.OrderStatusInProgress, models.OrderStatusPending},
		models.OrderStatusInProgress: {models.OrderStatusCompleted},
	}
	controlTransitions = map[string][]string{
		models.OrderStatusPending:    {models.OrderStatusAssigned},
		models.OrderStatusAssigned:   {models.OrderStatusInProgress, models.OrderStatusCompleted},
		models.OrderStatusInProgress: {models.OrderStatusCompleted},
	}
	workstationTransitions = map[string][]string{
		models.OrderStatusPending:           {models.OrderStatusConfirmed},
		models.OrderStatusConfirmed:         {models.OrderStatusInProgress},
		models.OrderStatusInProgress:        {models.OrderStatusCompletedAssembly, models.OrderStatusCompleted},
		models.OrderStatusCompletedAssembly: {models.OrderStatusCompleted},
	}
	supplyTransitions = map[string][]string{
		models.OrderStatusPending: {models.OrderStatusFulfilled, models.OrderStatusRejected},
	}
)

// guardTransition rejects anything that is not a listed forward edge.
func guardTransition(table map[string][]string, number, current, next string) error {
	for _, allowed := range table[current] {
		if allowed == next {
			return nil
		}
	}
	return apperrors.BadRequest(apperrors.CodeOrderInvalidState,
		fmt.Sprintf("order %s cannot move from %s to %s", number, current, next)).
		WithDetails(map[string]interface{}{"current": current, "requested": next})
}

func (s *Service) touch(model interface{}, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return s.db.Model(model).Updates(updates).Error
}

// idemKey builds the idempotency key of one inventory mutation step:
// (orderType, orderId, step[, itemKey]).
func idemKey(orderType string, orderID uint, step string, parts ...string) string {
	key := fmt.Sprintf("%s:%d:%s", orderType, orderID, step)
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

// compensate reverses already-applied adjusts after a failure later in the
// same workflow step. Reversals carry the RETURN reason and their own
// idempotency keys.
func (s *Service) compensate(applied []inventory.AdjustRequest) {
	if len(applied) == 0 {
		return
	}
	reversed := make([]inventory.AdjustRequest, 0, len(applied))
	for _, req := range applied {
		req.Delta = -req.Delta
		req.ReasonCode = models.StockReasonReturn
		req.IdempotencyKey = req.IdempotencyKey + ":comp"
		reversed = append(reversed, req)
	}
	if _, err := s.inventory.AdjustBatch(reversed); err != nil {
		// The reversal is idempotent; a failure here leaves the original
		// adjusts in place and must be resolved by an operator.
		log.Printf("compensation failed: %v", err)
	}
}

// asInsufficientStock remaps an inventory shortage to the orchestrator's
// error code, keeping the structured details.
func asInsufficientStock(err error) error {
	if appErr := apperrors.As(err); appErr != nil && appErr.Code == apperrors.CodeInventoryValidation {
		mapped := apperrors.BadRequest(apperrors.CodeOrderInsufficientStock, "insufficient stock")
		mapped.Details = appErr.Details
		return mapped
	}
	return err
}
