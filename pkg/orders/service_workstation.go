package orders

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/models"
	"github.com/smartfab/model-factory-mes/pkg/inventory"
)

// FulfillSupplyOrder debits the parts supply warehouse for every line and
// releases the workstation orders waiting on it.
func (s *Service) FulfillSupplyOrder(id uint) (*models.SupplyOrder, error) {
	order, err := s.GetSupplyOrder(id)
	if err != nil {
		return nil, err
	}
	if err := guardTransition(supplyTransitions, order.Number, order.Status, models.OrderStatusFulfilled); err != nil {
		return nil, err
	}

	reqs := make([]inventory.AdjustRequest, 0, len(order.Items))
	for _, item := range order.Items {
		reqs = append(reqs, inventory.AdjustRequest{
			WorkstationID:  models.WorkstationPartsSupply,
			ItemType:       models.ItemTypePart,
			ItemID:         item.ItemID,
			Delta:          -item.RequestedQuantity,
			ReasonCode:     models.StockReasonFulfillment,
			IdempotencyKey: idemKey(models.OrderTypeSupply, order.ID, "fulfill", fmt.Sprintf("%d", item.ItemID)),
			RefOrderType:   models.OrderTypeSupply,
			RefOrderID:     order.ID,
			Actor:          "orchestrator",
		})
	}
	if _, err := s.inventory.AdjustBatch(reqs); err != nil {
		return nil, asInsufficientStock(err)
	}

	if err := s.touch(order, map[string]interface{}{"status": models.OrderStatusFulfilled}); err != nil {
		s.compensate(reqs)
		return nil, err
	}
	return s.GetSupplyOrder(id)
}

// RejectSupplyOrder is terminal; the dependent workstation orders stay
// blocked until an operator intervenes.
func (s *Service) RejectSupplyOrder(id uint, notes string) (*models.SupplyOrder, error) {
	order, err := s.GetSupplyOrder(id)
	if err != nil {
		return nil, err
	}
	if err := guardTransition(supplyTransitions, order.Number, order.Status, models.OrderStatusRejected); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{"status": models.OrderStatusRejected}
	if notes != "" {
		updates["notes"] = notes
	}
	if err := s.touch(order, updates); err != nil {
		return nil, err
	}
	return s.GetSupplyOrder(id)
}

// ConfirmWorkstationOrder takes a task off PENDING. The supply gate is
// enforced here: the linked supply order must be fulfilled first.
func (s *Service) ConfirmWorkstationOrder(id uint) (*models.WorkstationOrder, error) {
	order, err := s.GetWorkstationOrder(id)
	if err != nil {
		return nil, err
	}
	if err := guardTransition(workstationTransitions, order.Number, order.Status, models.OrderStatusConfirmed); err != nil {
		return nil, err
	}
	if err := s.requireSupplyFulfilled(order); err != nil {
		return nil, err
	}
	if err := s.touch(order, map[string]interface{}{"status": models.OrderStatusConfirmed}); err != nil {
		return nil, err
	}
	return s.GetWorkstationOrder(id)
}

// StartWorkstationOrder begins execution. Assembly tasks consume their input
// modules from the supermarket at this point.
func (s *Service) StartWorkstationOrder(id uint) (*models.WorkstationOrder, error) {
	order, err := s.GetWorkstationOrder(id)
	if err != nil {
		return nil, err
	}
	if err := guardTransition(workstationTransitions, order.Number, order.Status, models.OrderStatusInProgress); err != nil {
		return nil, err
	}
	if err := s.requireSupplyFulfilled(order); err != nil {
		return nil, err
	}

	var reqs []inventory.AdjustRequest
	if assemblyKinds[order.Kind] {
		components, err := s.resolver.DirectComponents(order.ItemID)
		if err != nil {
			return nil, err
		}
		for _, component := range components {
			if component.ComponentType != models.ItemTypeModule {
				continue
			}
			reqs = append(reqs, inventory.AdjustRequest{
				WorkstationID:  models.WorkstationModuleSupermarket,
				ItemType:       models.ItemTypeModule,
				ItemID:         component.ComponentID,
				Delta:          -component.Quantity * order.Quantity,
				ReasonCode:     models.StockReasonConsumption,
				IdempotencyKey: idemKey(models.OrderTypeWorkstation, order.ID, "consume", fmt.Sprintf("%d", component.ComponentID)),
				RefOrderType:   models.OrderTypeWorkstation,
				RefOrderID:     order.ID,
				Actor:          "orchestrator",
			})
		}
		if _, err := s.inventory.AdjustBatch(reqs); err != nil {
			return nil, asInsufficientStock(err)
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Update("status", models.OrderStatusInProgress).Error; err != nil {
			return err
		}
		var control models.ControlOrder
		if err := tx.First(&control, order.ControlOrderID).Error; err != nil {
			return err
		}
		if control.Status == models.OrderStatusAssigned {
			return tx.Model(&control).Update("status", models.OrderStatusInProgress).Error
		}
		return nil
	})
	if err != nil {
		s.compensate(reqs)
		return nil, err
	}
	return s.GetWorkstationOrder(id)
}

// CompleteWorkstationOrder advances a running task. Manufacturing tasks
// complete in one step and credit the supermarket with their output; assembly
// tasks first reach COMPLETED_ASSEMBLY and credit on the final step.
func (s *Service) CompleteWorkstationOrder(id uint) (*models.WorkstationOrder, error) {
	order, err := s.GetWorkstationOrder(id)
	if err != nil {
		return nil, err
	}

	switch {
	case order.Status == models.OrderStatusInProgress && assemblyKinds[order.Kind]:
		if err := s.touch(order, map[string]interface{}{"status": models.OrderStatusCompletedAssembly}); err != nil {
			return nil, err
		}
		return s.GetWorkstationOrder(id)
	case order.Status == models.OrderStatusInProgress || order.Status == models.OrderStatusCompletedAssembly:
		return s.finishWorkstationOrder(order)
	default:
		return nil, apperrors.BadRequest(apperrors.CodeOrderInvalidState,
			fmt.Sprintf("order %s cannot complete from %s", order.Number, order.Status)).
			WithDetails(map[string]interface{}{"current": order.Status})
	}
}

func (s *Service) finishWorkstationOrder(order *models.WorkstationOrder) (*models.WorkstationOrder, error) {
	reqs := []inventory.AdjustRequest{{
		WorkstationID:  models.WorkstationModuleSupermarket,
		ItemType:       models.ItemTypeModule,
		ItemID:         order.ItemID,
		Delta:          order.Quantity,
		ReasonCode:     models.StockReasonProduction,
		IdempotencyKey: idemKey(models.OrderTypeWorkstation, order.ID, "produce", fmt.Sprintf("%d", order.ItemID)),
		RefOrderType:   models.OrderTypeWorkstation,
		RefOrderID:     order.ID,
		Actor:          "orchestrator",
	}}
	if _, err := s.inventory.AdjustBatch(reqs); err != nil {
		return nil, asInsufficientStock(err)
	}

	if err := s.touch(order, map[string]interface{}{"status": models.OrderStatusCompleted}); err != nil {
		s.compensate(reqs)
		return nil, err
	}

	if err := s.onWorkstationOrderCompleted(order); err != nil {
		return nil, err
	}
	return s.GetWorkstationOrder(order.ID)
}

// onWorkstationOrderCompleted closes the parent control order once every
// sibling is done, then lets the campaign re-evaluate.
func (s *Service) onWorkstationOrderCompleted(order *models.WorkstationOrder) error {
	control, err := s.GetControlOrder(order.ControlOrderID)
	if err != nil {
		return err
	}
	for _, sibling := range control.WorkstationOrders {
		if sibling.Status != models.OrderStatusCompleted {
			return nil
		}
	}
	if err := s.touch(control, map[string]interface{}{"status": models.OrderStatusCompleted}); err != nil {
		return err
	}
	control.Status = models.OrderStatusCompleted
	return s.onControlOrderCompleted(control)
}

// requireSupplyFulfilled enforces the supply gate on a workstation order.
func (s *Service) requireSupplyFulfilled(order *models.WorkstationOrder) error {
	if order.SupplyOrderID == nil {
		return nil
	}
	supply, err := s.GetSupplyOrder(*order.SupplyOrderID)
	if err != nil {
		return err
	}
	if supply.Status != models.OrderStatusFulfilled {
		return apperrors.BadRequest(apperrors.CodeOrderInvalidOperation,
			fmt.Sprintf("supply order %s must be fulfilled before %s can start", supply.Number, order.Number)).
			WithDetails(map[string]interface{}{"supplyOrderStatus": supply.Status})
	}
	return nil
}

func (s *Service) GetSupplyOrder(id uint) (*models.SupplyOrder, error) {
	var order models.SupplyOrder
	err := s.db.Preload("Items").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(apperrors.CodeOrderNotFound, fmt.Sprintf("supply order %d not found", id))
	}
	if err != nil {
		return nil, err
	}
	order.SyncQuantities()
	return &order, nil
}

func (s *Service) ListSupplyOrders(status string) ([]models.SupplyOrder, error) {
	query := s.db.Preload("Items").Order("id DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var list []models.SupplyOrder
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	for i := range list {
		list[i].SyncQuantities()
	}
	return list, nil
}

func (s *Service) GetWorkstationOrder(id uint) (*models.WorkstationOrder, error) {
	var order models.WorkstationOrder
	err := s.db.First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(apperrors.CodeOrderNotFound, fmt.Sprintf("workstation order %d not found", id))
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListWorkstationOrders is the per-cell work queue.
func (s *Service) ListWorkstationOrders(workstationID uint, status string) ([]models.WorkstationOrder, error) {
	query := s.db.Order("id")
	if workstationID != 0 {
		query = query.Where("assigned_workstation_id = ?", workstationID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var list []models.WorkstationOrder
	err := query.Find(&list).Error
	return list, err
}
