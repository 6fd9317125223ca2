// Package scenario decides which fulfillment path a customer order takes.
// Selection is a pure function so it can be tested without the rest of the
// stack.
package scenario

import (
	"github.com/smartfab/model-factory-mes/internal/models"
)

// ItemDemand is one requested line with the matching plant-warehouse stock.
type ItemDemand struct {
	ItemID    uint
	Requested int
	Available int
}

// Select picks the trigger scenario for a customer order. The lot-size
// threshold check runs before the stock check, so a large order goes to
// direct production even when the warehouse could cover it.
func Select(demands []ItemDemand, lotSizeThreshold int) string {
	total := 0
	for _, d := range demands {
		total += d.Requested
	}

	if total >= lotSizeThreshold {
		return models.ScenarioDirectProduction
	}

	for _, d := range demands {
		if d.Available < d.Requested {
			return models.ScenarioWarehouseOrderNeeded
		}
	}
	return models.ScenarioDirectFulfillment
}
