package orders

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/models"
	"github.com/smartfab/model-factory-mes/pkg/inventory"
)

// createFinalAssemblyOrders opens one final assembly order per requested
// product unit. Exactly one of warehouseOrderID and productionOrderID is set,
// matching the two scenarios that reach final assembly.
func (s *Service) createFinalAssemblyOrders(tx *gorm.DB, co *models.CustomerOrder, warehouseOrderID, productionOrderID *uint) error {
	for _, item := range co.OrderItems {
		var product models.Product
		if err := tx.First(&product, item.ItemID).Error; err != nil {
			return apperrors.BadRequest(apperrors.CodeOrderValidation,
				fmt.Sprintf("final assembly output %d is not a product", item.ItemID))
		}
		for unit := 0; unit < item.RequestedQuantity; unit++ {
			number, err := nextNumber(tx, &models.FinalAssemblyOrder{}, "FA")
			if err != nil {
				return err
			}
			fa := models.FinalAssemblyOrder{
				Number:            number,
				WarehouseOrderID:  warehouseOrderID,
				ProductionOrderID: productionOrderID,
				CustomerOrderID:   co.ID,
				WorkstationID:     models.WorkstationFinalAssembly,
				OutputProductID:   item.ItemID,
				OutputQuantity:    1,
				Status:            models.OrderStatusPending,
			}
			if err := tx.Create(&fa).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) ConfirmFinalAssemblyOrder(id uint) (*models.FinalAssemblyOrder, error) {
	return s.advanceFinalAssembly(id, models.OrderStatusConfirmed)
}

func (s *Service) StartFinalAssemblyOrder(id uint) (*models.FinalAssemblyOrder, error) {
	return s.advanceFinalAssembly(id, models.OrderStatusInProgress)
}

func (s *Service) CompleteFinalAssembly(id uint) (*models.FinalAssemblyOrder, error) {
	return s.advanceFinalAssembly(id, models.OrderStatusCompletedAssembly)
}

func (s *Service) advanceFinalAssembly(id uint, next string) (*models.FinalAssemblyOrder, error) {
	order, err := s.GetFinalAssemblyOrder(id)
	if err != nil {
		return nil, err
	}
	if err := guardTransition(workstationTransitions, order.Number, order.Status, next); err != nil {
		return nil, err
	}
	if err := s.touch(order, map[string]interface{}{"status": next}); err != nil {
		return nil, err
	}
	return s.GetFinalAssemblyOrder(id)
}

// SubmitFinalAssemblyOrder books the finished product into the plant
// warehouse and propagates completion up the order tree.
func (s *Service) SubmitFinalAssemblyOrder(id uint) (*models.FinalAssemblyOrder, error) {
	order, err := s.GetFinalAssemblyOrder(id)
	if err != nil {
		return nil, err
	}
	if err := guardTransition(workstationTransitions, order.Number, order.Status, models.OrderStatusCompleted); err != nil {
		return nil, err
	}

	reqs := []inventory.AdjustRequest{{
		WorkstationID:  models.WorkstationPlantWarehouse,
		ItemType:       models.ItemTypeProduct,
		ItemID:         order.OutputProductID,
		Delta:          order.OutputQuantity,
		ReasonCode:     models.StockReasonProduction,
		IdempotencyKey: idemKey(models.OrderTypeFinalAssembly, order.ID, "submit"),
		RefOrderType:   models.OrderTypeFinalAssembly,
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

	if order.ProductionOrderID != nil {
		if err := s.onProductionFinalAssemblySubmitted(*order.ProductionOrderID); err != nil {
			return nil, err
		}
	} else {
		if err := s.completeCustomerOrderIfReady(order.CustomerOrderID); err != nil {
			return nil, err
		}
	}
	return s.GetFinalAssemblyOrder(id)
}

// onProductionFinalAssemblySubmitted closes a direct production campaign once
// every assembly order is submitted, then finishes the customer order.
func (s *Service) onProductionFinalAssemblySubmitted(productionOrderID uint) error {
	po, err := s.GetProductionOrder(productionOrderID)
	if err != nil {
		return err
	}
	for _, fa := range po.FinalAssemblyOrders {
		if fa.Status != models.OrderStatusCompleted {
			return nil
		}
	}
	if po.Status != models.OrderStatusCompleted {
		if err := s.touch(po, map[string]interface{}{"status": models.OrderStatusCompleted}); err != nil {
			return err
		}
	}
	if po.SourceCustomerOrderID != nil {
		return s.completeCustomerOrderIfReady(*po.SourceCustomerOrderID)
	}
	return nil
}

// completeCustomerOrderIfReady applies the final plant-warehouse debit and
// closes the customer order once all of its assembly orders are submitted.
// The credit-then-debit pair keeps the module-to-product conversion visible
// in the ledger.
func (s *Service) completeCustomerOrderIfReady(customerOrderID uint) error {
	co, err := s.GetCustomerOrder(customerOrderID)
	if err != nil {
		return err
	}
	if co.Status != models.OrderStatusProcessing {
		return nil
	}

	var fas []models.FinalAssemblyOrder
	if err := s.db.Where("customer_order_id = ?", co.ID).Find(&fas).Error; err != nil {
		return err
	}
	if len(fas) == 0 {
		return nil
	}
	for _, fa := range fas {
		if fa.Status != models.OrderStatusCompleted {
			return nil
		}
	}

	reqs := make([]inventory.AdjustRequest, 0, len(co.OrderItems))
	for _, item := range co.OrderItems {
		reqs = append(reqs, inventory.AdjustRequest{
			WorkstationID:  models.WorkstationPlantWarehouse,
			ItemType:       models.ItemTypeProduct,
			ItemID:         item.ItemID,
			Delta:          -item.RequestedQuantity,
			ReasonCode:     models.StockReasonFulfillment,
			IdempotencyKey: idemKey(models.OrderTypeCustomer, co.ID, "final-debit", fmt.Sprintf("%d", item.ItemID)),
			RefOrderType:   models.OrderTypeCustomer,
			RefOrderID:     co.ID,
			Actor:          "orchestrator",
		})
	}
	if _, err := s.inventory.AdjustBatch(reqs); err != nil {
		return asInsufficientStock(err)
	}

	if err := s.touch(co, map[string]interface{}{"status": models.OrderStatusCompleted}); err != nil {
		s.compensate(reqs)
		return err
	}
	return nil
}

func (s *Service) GetFinalAssemblyOrder(id uint) (*models.FinalAssemblyOrder, error) {
	var order models.FinalAssemblyOrder
	err := s.db.First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound(apperrors.CodeOrderNotFound, fmt.Sprintf("final assembly order %d not found", id))
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) ListFinalAssemblyOrders(status string) ([]models.FinalAssemblyOrder, error) {
	query := s.db.Order("id")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var list []models.FinalAssemblyOrder
	err := query.Find(&list).Error
	return list, err
}
