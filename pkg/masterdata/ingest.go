package masterdata

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/models"
)

// BOMEdgeInput is one incoming BOM edge. ComponentID and the legacy ModuleID
// field are accepted as synonyms.
type BOMEdgeInput struct {
	ComponentID   uint   `json:"componentId"`
	ModuleID      uint   `json:"moduleId"`
	ComponentType string `json:"componentType"`
	Quantity      int    `json:"quantity"`
}

func (in *BOMEdgeInput) componentID() uint {
	if in.ComponentID != 0 {
		return in.ComponentID
	}
	return in.ModuleID
}

func (s *Service) CreateProduct(product *models.Product) error {
	if product.Name == "" {
		return apperrors.BadRequest(apperrors.CodeMasterdataValidation, "product name is required")
	}
	product.IsActive = true
	if err := s.db.Create(product).Error; err != nil {
		return err
	}
	s.invalidateCache()
	return nil
}

func (s *Service) CreateModule(module *models.Module) error {
	if module.Name == "" {
		return apperrors.BadRequest(apperrors.CodeMasterdataValidation, "module name is required")
	}
	ws, err := s.GetWorkstation(module.ProductionWorkstationID)
	if err != nil {
		return err
	}
	if ws.Role == models.WorkstationRoleWarehouse {
		return apperrors.BadRequest(apperrors.CodeMasterdataValidation,
			fmt.Sprintf("workstation %d is a warehouse and cannot produce modules", ws.ID))
	}
	module.IsActive = true
	if err := s.db.Create(module).Error; err != nil {
		return err
	}
	s.invalidateCache()
	return nil
}

func (s *Service) CreatePart(part *models.Part) error {
	if part.Name == "" {
		return apperrors.BadRequest(apperrors.CodeMasterdataValidation, "part name is required")
	}
	part.IsActive = true
	if err := s.db.Create(part).Error; err != nil {
		return err
	}
	s.invalidateCache()
	return nil
}

// SetProductBOM replaces the module list of a product.
func (s *Service) SetProductBOM(productID uint, edges []BOMEdgeInput) error {
	if _, err := s.GetProduct(productID); err != nil {
		return err
	}

	rows := make([]models.ProductModule, 0, len(edges))
	for _, edge := range edges {
		moduleID := edge.componentID()
		if edge.Quantity <= 0 {
			return apperrors.BadRequest(apperrors.CodeMasterdataValidation, "BOM edge quantity must be positive")
		}
		if _, err := s.GetModule(moduleID); err != nil {
			return err
		}
		rows = append(rows, models.ProductModule{ProductID: productID, ModuleID: moduleID, Quantity: edge.Quantity})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&models.ProductModule{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return err
	}
	s.invalidateCache()
	return nil
}

// SetModuleBOM replaces the component list of a module. Cycles through
// sub-module edges are rejected at ingest so expansion never has to guard
// against unbounded recursion, and the cell-dependency rule is enforced:
// manufacturing modules consume parts only, assembly modules consume modules
// and parts.
func (s *Service) SetModuleBOM(moduleID uint, edges []BOMEdgeInput) error {
	module, err := s.GetModule(moduleID)
	if err != nil {
		return err
	}
	manufacturing := module.ProductionWorkstationID >= 1 && module.ProductionWorkstationID <= 3

	rows := make([]models.ModuleComponent, 0, len(edges))
	for _, edge := range edges {
		componentID := edge.componentID()
		if edge.Quantity <= 0 {
			return apperrors.BadRequest(apperrors.CodeMasterdataValidation, "BOM edge quantity must be positive")
		}
		switch edge.ComponentType {
		case models.ItemTypePart:
			if _, err := s.GetPart(componentID); err != nil {
				return err
			}
		case models.ItemTypeModule:
			if manufacturing {
				return apperrors.BadRequest(apperrors.CodeMasterdataValidation,
					fmt.Sprintf("manufacturing module %d may depend on parts only", moduleID))
			}
			if _, err := s.GetModule(componentID); err != nil {
				return err
			}
			if componentID == moduleID {
				return apperrors.BadRequest(apperrors.CodeMasterdataValidation,
					fmt.Sprintf("module %d cannot contain itself", moduleID))
			}
			reaches, err := s.moduleReaches(componentID, moduleID, map[uint]bool{})
			if err != nil {
				return err
			}
			if reaches {
				return apperrors.BadRequest(apperrors.CodeMasterdataValidation,
					fmt.Sprintf("adding module %d to module %d would create a BOM cycle", componentID, moduleID))
			}
		default:
			return apperrors.BadRequest(apperrors.CodeMasterdataValidation,
				fmt.Sprintf("unknown component type %q", edge.ComponentType))
		}
		rows = append(rows, models.ModuleComponent{
			ModuleID:      moduleID,
			ComponentType: edge.ComponentType,
			ComponentID:   componentID,
			Quantity:      edge.Quantity,
		})
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("module_id = ?", moduleID).Delete(&models.ModuleComponent{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return err
	}
	s.invalidateCache()
	return nil
}

// moduleReaches reports whether target is reachable from start by walking
// sub-module edges.
func (s *Service) moduleReaches(start, target uint, seen map[uint]bool) (bool, error) {
	if start == target {
		return true, nil
	}
	if seen[start] {
		return false, nil
	}
	seen[start] = true

	var edges []models.ModuleComponent
	if err := s.db.Where("module_id = ? AND component_type = ?", start, models.ItemTypeModule).Find(&edges).Error; err != nil {
		return false, err
	}
	for _, edge := range edges {
		reaches, err := s.moduleReaches(edge.ComponentID, target, seen)
		if err != nil {
			return false, err
		}
		if reaches {
			return true, nil
		}
	}
	return false, nil
}
