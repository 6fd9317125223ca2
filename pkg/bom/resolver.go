// Package bom expands products into module demand and modules into part
// demand over the bill-of-materials DAG.
package bom

import (
	"fmt"
	"sort"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/models"
	"github.com/smartfab/model-factory-mes/pkg/masterdata"
)

// Requirement is one aggregated (itemType, itemId) demand line.
type Requirement struct {
	ItemType string `json:"itemType"`
	ItemID   uint   `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// Resolver walks BOM edges served by the master data service. Quantities
// multiply along edges; results are grouped by (itemType, itemId) and summed.
type Resolver struct {
	masterdata *masterdata.Service
}

func NewResolver(md *masterdata.Service) *Resolver {
	return &Resolver{masterdata: md}
}

// ExpandProduct converts a product demand into the module multiset a
// warehouse order requests.
func (r *Resolver) ExpandProduct(productID uint, quantity int) ([]Requirement, error) {
	if quantity <= 0 {
		return nil, apperrors.BadRequest(apperrors.CodeOrderBOMConversionFailed,
			"expansion quantity must be positive")
	}

	edges, err := r.masterdata.ProductComponents(productID)
	if err != nil {
		return nil, conversionErr(err)
	}
	if len(edges) == 0 {
		return nil, apperrors.BadRequest(apperrors.CodeOrderBOMConversionFailed,
			fmt.Sprintf("product %d has no bill of materials", productID))
	}

	demand := map[uint]int{}
	for _, edge := range edges {
		demand[edge.ComponentID] += edge.Quantity * quantity
	}
	return grouped(models.ItemTypeModule, demand), nil
}

// ExpandModule converts a module demand into the part multiset a control
// order consumes, descending through sub-modules. A cycle that slipped past
// ingest is reported rather than recursed into.
func (r *Resolver) ExpandModule(moduleID uint, quantity int) ([]Requirement, error) {
	if quantity <= 0 {
		return nil, apperrors.BadRequest(apperrors.CodeOrderBOMConversionFailed,
			"expansion quantity must be positive")
	}

	demand := map[uint]int{}
	if err := r.expandModuleInto(moduleID, quantity, demand, map[uint]bool{}); err != nil {
		return nil, err
	}
	return grouped(models.ItemTypePart, demand), nil
}

// DirectComponents returns a module's immediate BOM edges.
func (r *Resolver) DirectComponents(moduleID uint) ([]models.BOMComponentView, error) {
	edges, err := r.masterdata.ModuleComponents(moduleID)
	if err != nil {
		return nil, conversionErr(err)
	}
	if len(edges) == 0 {
		return nil, apperrors.BadRequest(apperrors.CodeOrderBOMConversionFailed,
			fmt.Sprintf("module %d has no bill of materials", moduleID))
	}
	return edges, nil
}

func (r *Resolver) expandModuleInto(moduleID uint, multiplier int, demand map[uint]int, path map[uint]bool) error {
	if path[moduleID] {
		return apperrors.BadRequest(apperrors.CodeOrderBOMConversionFailed,
			fmt.Sprintf("BOM cycle detected at module %d", moduleID))
	}
	path[moduleID] = true
	defer delete(path, moduleID)

	edges, err := r.masterdata.ModuleComponents(moduleID)
	if err != nil {
		return conversionErr(err)
	}
	if len(edges) == 0 {
		return apperrors.BadRequest(apperrors.CodeOrderBOMConversionFailed,
			fmt.Sprintf("module %d has no bill of materials", moduleID))
	}

	for _, edge := range edges {
		switch edge.ComponentType {
		case models.ItemTypePart:
			demand[edge.ComponentID] += edge.Quantity * multiplier
		case models.ItemTypeModule:
			if err := r.expandModuleInto(edge.ComponentID, edge.Quantity*multiplier, demand, path); err != nil {
				return err
			}
		default:
			return apperrors.BadRequest(apperrors.CodeOrderBOMConversionFailed,
				fmt.Sprintf("unknown component type %q on module %d", edge.ComponentType, moduleID))
		}
	}
	return nil
}

// conversionErr remaps a master-data miss to the orchestrator's conversion
// error so callers see one failure mode for an unresolvable BOM.
func conversionErr(err error) error {
	if appErr := apperrors.As(err); appErr != nil && appErr.Code == apperrors.CodeMasterdataNotFound {
		return apperrors.BadRequest(apperrors.CodeOrderBOMConversionFailed, appErr.Message)
	}
	return err
}

func grouped(itemType string, demand map[uint]int) []Requirement {
	ids := make([]uint, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	requirements := make([]Requirement, 0, len(ids))
	for _, id := range ids {
		requirements = append(requirements, Requirement{ItemType: itemType, ItemID: id, Quantity: demand[id]})
	}
	return requirements
}
