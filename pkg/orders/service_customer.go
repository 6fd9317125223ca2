package orders

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/models"
	"github.com/smartfab/model-factory-mes/pkg/inventory"
	"github.com/smartfab/model-factory-mes/pkg/scenario"
)

// OrderItemInput is one requested line. RequestedQuantity and the legacy
// Quantity field are accepted as synonyms.
type OrderItemInput struct {
	ItemType          string `json:"itemType"`
	ItemID            uint   `json:"itemId" binding:"required"`
	RequestedQuantity int    `json:"requestedQuantity"`
	Quantity          int    `json:"quantity"`
}

func (in *OrderItemInput) quantity() int {
	if in.RequestedQuantity > 0 {
		return in.RequestedQuantity
	}
	return in.Quantity
}

// CreateCustomerOrder validates that every line references an existing
// product with a positive quantity and creates the order in PENDING.
func (s *Service) CreateCustomerOrder(items []OrderItemInput, notes, priority string) (*models.CustomerOrder, error) {
	if len(items) == 0 {
		return nil, apperrors.BadRequest(apperrors.CodeOrderValidation, "order must contain at least one item")
	}
	if priority == "" {
		priority = models.PriorityNormal
	}
	switch priority {
	case models.PriorityLow, models.PriorityNormal, models.PriorityHigh, models.PriorityUrgent:
	default:
		return nil, apperrors.BadRequest(apperrors.CodeOrderValidation, fmt.Sprintf("unknown priority %q", priority))
	}

	rows := make([]models.CustomerOrderItem, 0, len(items))
	for _, item := range items {
		if item.ItemType != "" && item.ItemType != models.ItemTypeProduct {
			return nil, apperrors.BadRequest(apperrors.CodeOrderValidation,
				fmt.Sprintf("customer orders accept products only, got %q", item.ItemType))
		}
		if item.quantity() <= 0 {
			return nil, apperrors.BadRequest(apperrors.CodeOrderValidation, "requestedQuantity must be positive")
		}
		if _, err := s.masterdata.GetProduct(item.ItemID); err != nil {
			return nil, apperrors.BadRequest(apperrors.CodeOrderValidation,
				fmt.Sprintf("item %d is not a known product", item.ItemID))
		}
		rows = append(rows, models.CustomerOrderItem{
			ItemType:          models.ItemTypeProduct,
			ItemID:            item.ItemID,
			RequestedQuantity: item.quantity(),
		})
	}

	var order models.CustomerOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		number, err := nextNumber(tx, &models.CustomerOrder{}, "CO")
		if err != nil {
			return err
		}
		order = models.CustomerOrder{
			Number:        number,
			WorkstationID: models.WorkstationPlantWarehouse,
			Status:        models.OrderStatusPending,
			Priority:      priority,
			Notes:         notes,
			OrderItems:    rows,
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}
	order.SyncQuantities()
	return &order, nil
}

// ConfirmCustomerOrder selects the trigger scenario and moves the order to
// CONFIRMED. The lot-size threshold beats warehouse availability.
func (s *Service) ConfirmCustomerOrder(id uint) (*models.CustomerOrder, error) {
	order, err := s.GetCustomerOrder(id)
	if err != nil {
		return nil, err
	}
	if err := guardTransition(customerTransitions, order.Number, order.Status, models.OrderStatusConfirmed); err != nil {
		return nil, err
	}

	demands := make([]scenario.ItemDemand, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		available, err := s.inventory.Available(models.WorkstationPlantWarehouse, models.ItemTypeProduct, item.ItemID)
		if err != nil {
			return nil, err
		}
		demands = append(demands, scenario.ItemDemand{
			ItemID:    item.ItemID,
			Requested: item.RequestedQuantity,
			Available: available,
		})
	}

	selected := scenario.Select(demands, s.LotSizeThreshold())
	if err := s.touch(order, map[string]interface{}{
		"status":           models.OrderStatusConfirmed,
		"trigger_scenario": selected,
	}); err != nil {
		return nil, err
	}
	return s.GetCustomerOrder(id)
}

// FulfillCustomerOrder dispatches on the scenario chosen at confirmation.
func (s *Service) FulfillCustomerOrder(id uint) (*models.CustomerOrder, error) {
	order, err := s.GetCustomerOrder(id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusConfirmed {
		return nil, apperrors.BadRequest(apperrors.CodeOrderInvalidState,
			fmt.Sprintf("order %s must be CONFIRMED to fulfill, is %s", order.Number, order.Status))
	}

	switch order.TriggerScenario {
	case models.ScenarioDirectFulfillment:
		return s.fulfillDirect(order)
	case models.ScenarioWarehouseOrderNeeded:
		return s.fulfillViaWarehouse(order)
	case models.ScenarioDirectProduction:
		return s.fulfillViaProduction(order)
	default:
		return nil, apperrors.BadRequest(apperrors.CodeOrderInvalidOperation,
			fmt.Sprintf("order %s has no trigger scenario", order.Number))
	}
}

// fulfillDirect debits the plant warehouse for every line and completes the
// order. The batch is all-or-nothing: a shortage aborts with no ledger entry
// written.
func (s *Service) fulfillDirect(order *models.CustomerOrder) (*models.CustomerOrder, error) {
	reqs := make([]inventory.AdjustRequest, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		reqs = append(reqs, inventory.AdjustRequest{
			WorkstationID:  models.WorkstationPlantWarehouse,
			ItemType:       models.ItemTypeProduct,
			ItemID:         item.ItemID,
			Delta:          -item.RequestedQuantity,
			ReasonCode:     models.StockReasonFulfillment,
			IdempotencyKey: idemKey(models.OrderTypeCustomer, order.ID, "fulfill", fmt.Sprintf("%d", item.ItemID)),
			RefOrderType:   models.OrderTypeCustomer,
			RefOrderID:     order.ID,
			Actor:          "orchestrator",
		})
	}

	if _, err := s.inventory.AdjustBatch(reqs); err != nil {
		return nil, asInsufficientStock(err)
	}

	if err := s.touch(order, map[string]interface{}{"status": models.OrderStatusCompleted}); err != nil {
		s.compensate(reqs)
		return nil, err
	}
	return s.GetCustomerOrder(order.ID)
}

// fulfillViaWarehouse converts the product lines to module demand and opens a
// warehouse order against the module supermarket.
func (s *Service) fulfillViaWarehouse(order *models.CustomerOrder) (*models.CustomerOrder, error) {
	demand := map[uint]int{}
	for _, item := range order.OrderItems {
		modules, err := s.resolver.ExpandProduct(item.ItemID, item.RequestedQuantity)
		if err != nil {
			return nil, err
		}
		for _, req := range modules {
			demand[req.ItemID] += req.Quantity
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		number, err := nextNumber(tx, &models.WarehouseOrder{}, "WO")
		if err != nil {
			return err
		}
		wo := models.WarehouseOrder{
			Number:          number,
			CustomerOrderID: order.ID,
			Status:          models.OrderStatusPending,
			Priority:        order.Priority,
		}
		for moduleID, quantity := range demand {
			wo.OrderItems = append(wo.OrderItems, models.WarehouseOrderItem{
				ItemType:          models.ItemTypeModule,
				ItemID:            moduleID,
				RequestedQuantity: quantity,
			})
		}
		if err := tx.Create(&wo).Error; err != nil {
			return err
		}
		return tx.Model(order).Update("status", models.OrderStatusProcessing).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetCustomerOrder(order.ID)
}

// fulfillViaProduction opens a production order sourced from this customer
// order and schedules it.
func (s *Service) fulfillViaProduction(order *models.CustomerOrder) (*models.CustomerOrder, error) {
	var po models.ProductionOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		number, err := nextNumber(tx, &models.ProductionOrder{}, "PO")
		if err != nil {
			return err
		}
		sourceID := order.ID
		po = models.ProductionOrder{
			Number:                number,
			SourceCustomerOrderID: &sourceID,
			Status:                models.OrderStatusPending,
			Priority:              order.Priority,
			DueDate:               order.DueDate,
		}
		if err := tx.Create(&po).Error; err != nil {
			return err
		}
		return tx.Model(order).Update("status", models.OrderStatusProcessing).Error
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.ScheduleProduction(po.ID); err != nil {
		// The production order stays PENDING; scheduling can be retried.
		return nil, err
	}
	return s.GetCustomerOrder(order.ID)
}

// CancelCustomerOrder is allowed while nothing downstream exists. Produced
// modules are never rolled back.
func (s *Service) CancelCustomerOrder(id uint) (*models.CustomerOrder, error) {
	order, err := s.GetCustomerOrder(id)
	if err != nil {
		return nil, err
	}
	if err := guardTransition(customerTransitions, order.Number, order.Status, models.OrderStatusCancelled); err != nil {
		return nil, err
	}
	if err := s.touch(order, map[string]interface{}{"status": models.OrderStatusCancelled}); err != nil {
		return nil, err
	}
	return s.GetCustomerOrder(id)
}

func (s *Service) GetCustomerOrder(id uint) (*models.CustomerOrder, error) {
	var order models.CustomerOrder
	err := s.db.Preload("OrderItems").Preload("WarehouseOrders").Preload("FinalAssemblyOrders").
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(apperrors.CodeOrderNotFound, fmt.Sprintf("customer order %d not found", id))
	}
	if err != nil {
		return nil, err
	}
	order.SyncQuantities()
	return &order, nil
}

func (s *Service) ListCustomerOrders(status string) ([]models.CustomerOrder, error) {
	query := s.db.Preload("OrderItems").Order("id DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var list []models.CustomerOrder
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	for i := range list {
		list[i].SyncQuantities()
	}
	return list, nil
}
