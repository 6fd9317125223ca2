package orders

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/models"
	"github.com/smartfab/model-factory-mes/pkg/inventory"
)

// ConfirmWarehouseOrder checks module availability at the supermarket and
// selects between direct fulfillment and a production campaign.
func (s *Service) ConfirmWarehouseOrder(id uint) (*models.WarehouseOrder, error) {
	order, err := s.GetWarehouseOrder(id)
	if err != nil {
		return nil, err
	}
	if err := guardTransition(warehouseTransitions, order.Number, order.Status, models.OrderStatusConfirmed); err != nil {
		return nil, err
	}

	selected := models.ScenarioDirectFulfillment
	for _, item := range order.OrderItems {
		available, err := s.inventory.Available(models.WorkstationModuleSupermarket, models.ItemTypeModule, item.ItemID)
		if err != nil {
			return nil, err
		}
		if available < item.RequestedQuantity {
			selected = models.ScenarioProductionRequired
			break
		}
	}

	if err := s.touch(order, map[string]interface{}{
		"status":           models.OrderStatusConfirmed,
		"trigger_scenario": selected,
	}); err != nil {
		return nil, err
	}
	return s.GetWarehouseOrder(id)
}

// FulfillWarehouseOrder debits the supermarket and spawns the final assembly
// orders. With a linked production order the modules are reserved by the
// campaign, so availability is not re-checked; the order must otherwise have
// been confirmed for direct fulfillment.
func (s *Service) FulfillWarehouseOrder(id uint) (*models.WarehouseOrder, error) {
	order, err := s.GetWarehouseOrder(id)
	if err != nil {
		return nil, err
	}
	if err := guardTransition(warehouseTransitions, order.Number, order.Status, models.OrderStatusFulfilled); err != nil {
		return nil, err
	}

	if order.ProductionOrderID != nil {
		po, err := s.GetProductionOrder(*order.ProductionOrderID)
		if err != nil {
			return nil, err
		}
		if po.Status != models.OrderStatusCompleted {
			return nil, apperrors.BadRequest(apperrors.CodeOrderInvalidOperation,
				fmt.Sprintf("production order %s has not completed", po.Number))
		}
	} else if order.TriggerScenario != models.ScenarioDirectFulfillment {
		return nil, apperrors.BadRequest(apperrors.CodeOrderInvalidOperation,
			fmt.Sprintf("order %s requires production; order it from the warehouse first", order.Number))
	}

	reqs := make([]inventory.AdjustRequest, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		reqs = append(reqs, inventory.AdjustRequest{
			WorkstationID:  models.WorkstationModuleSupermarket,
			ItemType:       models.ItemTypeModule,
			ItemID:         item.ItemID,
			Delta:          -item.RequestedQuantity,
			ReasonCode:     models.StockReasonFulfillment,
			IdempotencyKey: idemKey(models.OrderTypeWarehouse, order.ID, "fulfill", fmt.Sprintf("%d", item.ItemID)),
			RefOrderType:   models.OrderTypeWarehouse,
			RefOrderID:     order.ID,
			Actor:          "orchestrator",
		})
	}
	if _, err := s.inventory.AdjustBatch(reqs); err != nil {
		return nil, asInsufficientStock(err)
	}

	co, err := s.GetCustomerOrder(order.CustomerOrderID)
	if err != nil {
		s.compensate(reqs)
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.createFinalAssemblyOrders(tx, co, &order.ID, nil); err != nil {
			return err
		}
		return tx.Model(order).Update("status", models.OrderStatusFulfilled).Error
	})
	if err != nil {
		s.compensate(reqs)
		return nil, err
	}
	return s.GetWarehouseOrder(id)
}

// OrderProductionFromWarehouse opens a production campaign for a warehouse
// order that cannot be served from stock. The warehouse order keeps its
// CONFIRMED status until the campaign completes.
func (s *Service) OrderProductionFromWarehouse(id uint) (*models.ProductionOrder, error) {
	order, err := s.GetWarehouseOrder(id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusConfirmed {
		return nil, apperrors.BadRequest(apperrors.CodeOrderInvalidState,
			fmt.Sprintf("order %s must be CONFIRMED to order production, is %s", order.Number, order.Status))
	}
	if order.TriggerScenario != models.ScenarioProductionRequired {
		return nil, apperrors.BadRequest(apperrors.CodeOrderInvalidOperation,
			fmt.Sprintf("order %s does not require production", order.Number))
	}
	if order.ProductionOrderID != nil {
		return nil, apperrors.BadRequest(apperrors.CodeOrderInvalidOperation,
			fmt.Sprintf("order %s already has a production order", order.Number))
	}

	var po models.ProductionOrder
	err = s.db.Transaction(func(tx *gorm.DB) error {
		number, err := nextNumber(tx, &models.ProductionOrder{}, "PO")
		if err != nil {
			return err
		}
		sourceID := order.ID
		po = models.ProductionOrder{
			Number:                 number,
			SourceWarehouseOrderID: &sourceID,
			Status:                 models.OrderStatusPending,
			Priority:               order.Priority,
		}
		if err := tx.Create(&po).Error; err != nil {
			return err
		}
		return tx.Model(order).Update("production_order_id", po.ID).Error
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.ScheduleProduction(po.ID); err != nil {
		return nil, err
	}
	return s.GetProductionOrder(po.ID)
}

func (s *Service) GetWarehouseOrder(id uint) (*models.WarehouseOrder, error) {
	var order models.WarehouseOrder
	err := s.db.Preload("OrderItems").Preload("FinalAssemblyOrders").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(apperrors.CodeOrderNotFound, fmt.Sprintf("warehouse order %d not found", id))
	}
	if err != nil {
		return nil, err
	}
	order.SyncQuantities()
	return &order, nil
}

func (s *Service) ListWarehouseOrders(status string) ([]models.WarehouseOrder, error) {
	query := s.db.Preload("OrderItems").Order("id DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var list []models.WarehouseOrder
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	for i := range list {
		list[i].SyncQuantities()
	}
	return list, nil
}
