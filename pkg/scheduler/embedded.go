package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/smartfab/model-factory-mes/internal/models"
	"github.com/smartfab/model-factory-mes/pkg/masterdata"
)

// EmbeddedPlanner is the in-process fallback used when no SimAL endpoint is
// configured. It walks the BOM closure of the requested items and emits one
// task per module at that module's production workstation, manufacturing
// cells before assembly cells, in sequential time windows. Task order, items,
// quantities and workstations are deterministic for a given catalog so the
// full order cascade runs in dev and in tests; the schedule id is random and
// the first window starts at the current minute.
type EmbeddedPlanner struct {
	masterdata *masterdata.Service
}

func NewEmbeddedPlanner(md *masterdata.Service) *EmbeddedPlanner {
	return &EmbeddedPlanner{masterdata: md}
}

func (p *EmbeddedPlanner) Plan(ctx context.Context, req ScheduleRequest) (*Schedule, error) {
	demand := map[uint]int{}
	for _, item := range req.LineItems {
		switch item.ItemType {
		case models.ItemTypeProduct:
			components, err := p.masterdata.ProductComponents(item.ItemID)
			if err != nil {
				return nil, err
			}
			for _, component := range components {
				if err := p.collectModuleDemand(component.ComponentID, component.Quantity*item.Quantity, demand); err != nil {
					return nil, err
				}
			}
		default:
			if err := p.collectModuleDemand(item.ItemID, item.Quantity, demand); err != nil {
				return nil, err
			}
		}
	}

	moduleIDs := make([]uint, 0, len(demand))
	for id := range demand {
		moduleIDs = append(moduleIDs, id)
	}

	type plannedModule struct {
		module   *models.Module
		quantity int
	}
	planned := make([]plannedModule, 0, len(moduleIDs))
	for _, id := range moduleIDs {
		module, err := p.masterdata.GetModule(id)
		if err != nil {
			return nil, err
		}
		planned = append(planned, plannedModule{module: module, quantity: demand[id]})
	}
	// Manufacturing cells first so assembly inputs exist by the time the
	// assembly windows open.
	sort.Slice(planned, func(i, j int) bool {
		if planned[i].module.ProductionWorkstationID != planned[j].module.ProductionWorkstationID {
			return planned[i].module.ProductionWorkstationID < planned[j].module.ProductionWorkstationID
		}
		return planned[i].module.ID < planned[j].module.ID
	})

	scheduleID := "SCH-" + uuid.NewString()[:8]
	cursor := time.Now().Truncate(time.Minute)
	tasks := make([]Task, 0, len(planned))
	for i, pm := range planned {
		duration := pm.module.EstimatedTimeMinutes * pm.quantity
		if duration == 0 {
			duration = 10 * pm.quantity
		}
		end := cursor.Add(time.Duration(duration) * time.Minute)
		tasks = append(tasks, Task{
			TaskID:          fmt.Sprintf("%s-T%d", scheduleID, i+1),
			ItemID:          pm.module.ID,
			Quantity:        pm.quantity,
			WorkstationID:   pm.module.ProductionWorkstationID,
			StartTime:       cursor,
			EndTime:         end,
			DurationMinutes: duration,
			Sequence:        i + 1,
		})
		cursor = end
	}

	return &Schedule{ScheduleID: scheduleID, Tasks: tasks}, nil
}

// collectModuleDemand adds a module and its transitive sub-modules to the
// demand map. BOM cycles are rejected at ingest, so the walk terminates.
func (p *EmbeddedPlanner) collectModuleDemand(moduleID uint, quantity int, demand map[uint]int) error {
	demand[moduleID] += quantity

	components, err := p.masterdata.ModuleComponents(moduleID)
	if err != nil {
		return err
	}
	for _, component := range components {
		if component.ComponentType == models.ItemTypeModule {
			if err := p.collectModuleDemand(component.ComponentID, component.Quantity*quantity, demand); err != nil {
				return err
			}
		}
	}
	return nil
}
