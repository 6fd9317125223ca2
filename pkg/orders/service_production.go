package orders

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/models"
	"github.com/smartfab/model-factory-mes/pkg/inventory"
	"github.com/smartfab/model-factory-mes/pkg/scheduler"
)

// workstationOrderKinds maps a cell to the operation it performs.
var workstationOrderKinds = map[uint]string{
	1: models.WorkstationOrderInjectionMolding,
	2: models.WorkstationOrderPartsPreProduction,
	3: models.WorkstationOrderPartFinishing,
	4: models.WorkstationOrderGearAssembly,
	5: models.WorkstationOrderMotorAssembly,
	6: models.WorkstationOrderFinalAssembly,
}

var workstationOrderPrefixes = map[string]string{
	models.WorkstationOrderInjectionMolding:   "IM",
	models.WorkstationOrderPartsPreProduction: "PP",
	models.WorkstationOrderPartFinishing:      "PF",
	models.WorkstationOrderGearAssembly:       "GA",
	models.WorkstationOrderMotorAssembly:      "MA",
	models.WorkstationOrderFinalAssembly:      "FAW",
}

// assemblyKinds consume modules from the supermarket when they start.
var assemblyKinds = map[string]bool{
	models.WorkstationOrderGearAssembly:  true,
	models.WorkstationOrderMotorAssembly: true,
	models.WorkstationOrderFinalAssembly: true,
}

// ScheduleProduction sends the order's demand to the scheduling engine and
// materializes the returned task list as control orders. A planning failure
// leaves the order PENDING so scheduling can be retried.
func (s *Service) ScheduleProduction(id uint) (*models.ProductionOrder, error) {
	order, err := s.GetProductionOrder(id)
	if err != nil {
		return nil, err
	}
	if err := guardTransition(productionTransitions, order.Number, order.Status, models.OrderStatusScheduled); err != nil {
		return nil, err
	}

	lineItems, err := s.scheduleLineItems(order)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.OutboundTimeout)
	defer cancel()

	schedule, err := s.planner.Plan(ctx, scheduler.ScheduleRequest{
		OrderNumber: order.Number,
		Priority:    order.Priority,
		DueDate:     order.DueDate,
		LineItems:   lineItems,
	})
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, task := range schedule.Tasks {
			kind := models.ControlOrderAssembly
			if task.WorkstationID >= 1 && task.WorkstationID <= 3 {
				kind = models.ControlOrderProduction
			}
			number, err := nextControlNumber(tx, kind)
			if err != nil {
				return err
			}
			start := task.StartTime
			end := task.EndTime
			control := models.ControlOrder{
				Number:                number,
				Kind:                  kind,
				ProductionOrderID:     order.ID,
				AssignedWorkstationID: task.WorkstationID,
				TaskID:                task.TaskID,
				ItemType:              models.ItemTypeModule,
				ItemID:                task.ItemID,
				Quantity:              task.Quantity,
				Sequence:              task.Sequence,
				StartTime:             &start,
				EndTime:               &end,
				Status:                models.OrderStatusPending,
			}
			if err := tx.Create(&control).Error; err != nil {
				return err
			}
		}
		return tx.Model(order).Updates(map[string]interface{}{
			"schedule_id": schedule.ScheduleID,
			"status":      models.OrderStatusScheduled,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetProductionOrder(id)
}

// scheduleLineItems derives the demand lines: products for a direct
// production campaign, modules for a warehouse-sourced one.
func (s *Service) scheduleLineItems(order *models.ProductionOrder) ([]scheduler.LineItem, error) {
	switch {
	case order.SourceCustomerOrderID != nil:
		co, err := s.GetCustomerOrder(*order.SourceCustomerOrderID)
		if err != nil {
			return nil, err
		}
		items := make([]scheduler.LineItem, 0, len(co.OrderItems))
		for _, item := range co.OrderItems {
			product, err := s.masterdata.GetProduct(item.ItemID)
			if err != nil {
				return nil, err
			}
			items = append(items, scheduler.LineItem{
				ItemID:               product.ID,
				ItemType:             models.ItemTypeProduct,
				ItemName:             product.Name,
				Quantity:             item.RequestedQuantity,
				EstimatedTimeMinutes: product.EstimatedTimeMinutes,
			})
		}
		return items, nil
	case order.SourceWarehouseOrderID != nil:
		wo, err := s.GetWarehouseOrder(*order.SourceWarehouseOrderID)
		if err != nil {
			return nil, err
		}
		items := make([]scheduler.LineItem, 0, len(wo.OrderItems))
		for _, item := range wo.OrderItems {
			module, err := s.masterdata.GetModule(item.ItemID)
			if err != nil {
				return nil, err
			}
			items = append(items, scheduler.LineItem{
				ItemID:               module.ID,
				ItemType:             models.ItemTypeModule,
				ItemName:             module.Name,
				Quantity:             item.RequestedQuantity,
				EstimatedTimeMinutes: module.EstimatedTimeMinutes,
			})
		}
		return items, nil
	default:
		return nil, apperrors.BadRequest(apperrors.CodeOrderInvalidOperation,
			fmt.Sprintf("production order %s has no source order", order.Number))
	}
}

// DispatchControlOrder creates the supply order for the task's raw parts and
// the workstation order that performs it, then marks the task ASSIGNED.
func (s *Service) DispatchControlOrder(id uint) (*models.ControlOrder, error) {
	control, err := s.GetControlOrder(id)
	if err != nil {
		return nil, err
	}
	if err := guardTransition(controlTransitions, control.Number, control.Status, models.OrderStatusAssigned); err != nil {
		return nil, err
	}

	components, err := s.resolver.DirectComponents(control.ItemID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var supplyOrderID *uint

		partItems := make([]models.SupplyOrderItem, 0, len(components))
		for _, component := range components {
			if component.ComponentType == models.ItemTypePart {
				partItems = append(partItems, models.SupplyOrderItem{
					ItemType:          models.ItemTypePart,
					ItemID:            component.ComponentID,
					RequestedQuantity: component.Quantity * control.Quantity,
				})
			}
		}
		if len(partItems) > 0 {
			number, err := nextNumber(tx, &models.SupplyOrder{}, "SO")
			if err != nil {
				return err
			}
			supply := models.SupplyOrder{
				Number:                       number,
				ControlOrderID:               control.ID,
				SupplyWarehouseWorkstationID: models.WorkstationPartsSupply,
				RequestingWorkstationID:      control.AssignedWorkstationID,
				Status:                       models.OrderStatusPending,
				Items:                        partItems,
			}
			if err := tx.Create(&supply).Error; err != nil {
				return err
			}
			supplyOrderID = &supply.ID
		}

		kind, ok := workstationOrderKinds[control.AssignedWorkstationID]
		if !ok {
			return apperrors.BadRequest(apperrors.CodeOrderInvalidOperation,
				fmt.Sprintf("workstation %d does not execute tasks", control.AssignedWorkstationID))
		}
		var count int64
		if err := tx.Model(&models.WorkstationOrder{}).Where("kind = ?", kind).Count(&count).Error; err != nil {
			return err
		}
		wso := models.WorkstationOrder{
			Number:                fmt.Sprintf("%s-%d", workstationOrderPrefixes[kind], count+1),
			Kind:                  kind,
			ControlOrderID:        control.ID,
			AssignedWorkstationID: control.AssignedWorkstationID,
			SupplyOrderID:         supplyOrderID,
			ItemType:              control.ItemType,
			ItemID:                control.ItemID,
			Quantity:              control.Quantity,
			Status:                models.OrderStatusPending,
		}
		if err := tx.Create(&wso).Error; err != nil {
			return err
		}

		if err := tx.Model(control).Update("status", models.OrderStatusAssigned).Error; err != nil {
			return err
		}

		// First dispatched task moves the campaign into execution.
		var po models.ProductionOrder
		if err := tx.First(&po, control.ProductionOrderID).Error; err != nil {
			return err
		}
		if po.Status == models.OrderStatusScheduled {
			return tx.Model(&po).Update("status", models.OrderStatusInProgress).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetControlOrder(id)
}

// ResetProductionOrder returns a scheduled but not yet started campaign to
// PENDING, discarding its control orders. Admin path for scheduler failures.
func (s *Service) ResetProductionOrder(id uint) (*models.ProductionOrder, error) {
	order, err := s.GetProductionOrder(id)
	if err != nil {
		return nil, err
	}
	if err := guardTransition(productionTransitions, order.Number, order.Status, models.OrderStatusPending); err != nil {
		return nil, err
	}
	for _, control := range order.ControlOrders {
		if control.Status != models.OrderStatusPending {
			return nil, apperrors.BadRequest(apperrors.CodeOrderInvalidOperation,
				fmt.Sprintf("control order %s has already been dispatched", control.Number))
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("production_order_id = ?", order.ID).Delete(&models.ControlOrder{}).Error; err != nil {
			return err
		}
		return tx.Model(order).Updates(map[string]interface{}{
			"schedule_id": "",
			"status":      models.OrderStatusPending,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetProductionOrder(id)
}

// onControlOrderCompleted closes the campaign once every task is done. A
// warehouse-sourced campaign completes immediately; a direct production
// campaign first debits the produced modules and opens the final assembly
// orders, completing only when those are submitted.
func (s *Service) onControlOrderCompleted(control *models.ControlOrder) error {
	po, err := s.GetProductionOrder(control.ProductionOrderID)
	if err != nil {
		return err
	}
	for _, sibling := range po.ControlOrders {
		if sibling.Status != models.OrderStatusCompleted {
			return nil
		}
	}

	if po.SourceWarehouseOrderID != nil {
		return s.touch(po, map[string]interface{}{"status": models.OrderStatusCompleted})
	}

	co, err := s.GetCustomerOrder(*po.SourceCustomerOrderID)
	if err != nil {
		return err
	}

	// Consume the freshly produced modules from the supermarket for final
	// assembly, then open one assembly order per product unit.
	var reqs []inventory.AdjustRequest
	for _, item := range co.OrderItems {
		modules, err := s.resolver.ExpandProduct(item.ItemID, item.RequestedQuantity)
		if err != nil {
			return err
		}
		for _, module := range modules {
			reqs = append(reqs, inventory.AdjustRequest{
				WorkstationID:  models.WorkstationModuleSupermarket,
				ItemType:       models.ItemTypeModule,
				ItemID:         module.ItemID,
				Delta:          -module.Quantity,
				ReasonCode:     models.StockReasonConsumption,
				IdempotencyKey: idemKey(models.OrderTypeProduction, po.ID, "fa-consume", fmt.Sprintf("%d", module.ItemID)),
				RefOrderType:   models.OrderTypeProduction,
				RefOrderID:     po.ID,
				Actor:          "orchestrator",
			})
		}
	}
	if _, err := s.inventory.AdjustBatch(reqs); err != nil {
		return asInsufficientStock(err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.createFinalAssemblyOrders(tx, co, nil, &po.ID)
	})
	if err != nil {
		s.compensate(reqs)
		return err
	}
	return nil
}

func (s *Service) GetProductionOrder(id uint) (*models.ProductionOrder, error) {
	var order models.ProductionOrder
	err := s.db.Preload("ControlOrders").Preload("FinalAssemblyOrders").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(apperrors.CodeOrderNotFound, fmt.Sprintf("production order %d not found", id))
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) ListProductionOrders(status string) ([]models.ProductionOrder, error) {
	query := s.db.Preload("ControlOrders").Order("id DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var list []models.ProductionOrder
	err := query.Find(&list).Error
	return list, err
}

func (s *Service) GetControlOrder(id uint) (*models.ControlOrder, error) {
	var order models.ControlOrder
	err := s.db.Preload("WorkstationOrders").Preload("SupplyOrders").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(apperrors.CodeOrderNotFound, fmt.Sprintf("control order %d not found", id))
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) ListControlOrders(productionOrderID uint, status string) ([]models.ControlOrder, error) {
	query := s.db.Preload("WorkstationOrders").Preload("SupplyOrders").Order("sequence")
	if productionOrderID != 0 {
		query = query.Where("production_order_id = ?", productionOrderID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var list []models.ControlOrder
	err := query.Find(&list).Error
	return list, err
}
