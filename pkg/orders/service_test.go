package orders

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/config"
	"github.com/smartfab/model-factory-mes/internal/database"
	"github.com/smartfab/model-factory-mes/internal/models"
	"github.com/smartfab/model-factory-mes/pkg/bom"
	"github.com/smartfab/model-factory-mes/pkg/inventory"
	"github.com/smartfab/model-factory-mes/pkg/masterdata"
	"github.com/smartfab/model-factory-mes/pkg/scheduler"
)

type testRig struct {
	orders    *Service
	inventory *inventory.Service
	db        *gorm.DB
}

// newTestRig builds the full orchestrator over an in-memory database with the
// demo catalog: product 1 = module 10 (manufactured at WS-1 from part 101)
// plus module 11 (assembled at WS-4 from sub-module 12 and part 102); module
// 12 is manufactured at WS-2 from part 102.
func newTestRig(t *testing.T) *testRig {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	workstations := []models.Workstation{
		{ID: 1, Name: "Injection Molding Cell", Role: models.WorkstationRoleManufacturing},
		{ID: 2, Name: "Parts Pre-Production Cell", Role: models.WorkstationRoleManufacturing},
		{ID: 3, Name: "Part Finishing Cell", Role: models.WorkstationRoleManufacturing},
		{ID: 4, Name: "Gear Assembly Cell", Role: models.WorkstationRoleAssembly},
		{ID: 5, Name: "Motor Assembly Cell", Role: models.WorkstationRoleAssembly},
		{ID: 6, Name: "Final Assembly Cell", Role: models.WorkstationRoleAssembly},
		{ID: 7, Name: "Plant Warehouse", Role: models.WorkstationRoleWarehouse},
		{ID: 8, Name: "Modules Supermarket", Role: models.WorkstationRoleWarehouse},
		{ID: 9, Name: "Parts Supply Warehouse", Role: models.WorkstationRoleWarehouse},
	}
	require.NoError(t, db.Create(&workstations).Error)
	require.NoError(t, db.Create(&models.SystemConfiguration{
		Key: models.ConfigKeyLotSizeThreshold, Value: "3",
	}).Error)

	parts := []models.Part{
		{ID: 101, Name: "Gear Wheel Blank", IsActive: true},
		{ID: 102, Name: "Axle Rod", IsActive: true},
	}
	require.NoError(t, db.Create(&parts).Error)

	modules := []models.Module{
		{ID: 10, Name: "Molded Housing", ProductionWorkstationID: 1, EstimatedTimeMinutes: 5, IsActive: true},
		{ID: 11, Name: "Gear Drive Assembly", ProductionWorkstationID: 4, EstimatedTimeMinutes: 8, IsActive: true},
		{ID: 12, Name: "Gear Set", ProductionWorkstationID: 2, EstimatedTimeMinutes: 4, IsActive: true},
	}
	require.NoError(t, db.Create(&modules).Error)

	components := []models.ModuleComponent{
		{ModuleID: 10, ComponentType: models.ItemTypePart, ComponentID: 101, Quantity: 2},
		{ModuleID: 12, ComponentType: models.ItemTypePart, ComponentID: 102, Quantity: 1},
		{ModuleID: 11, ComponentType: models.ItemTypeModule, ComponentID: 12, Quantity: 1},
		{ModuleID: 11, ComponentType: models.ItemTypePart, ComponentID: 102, Quantity: 1},
	}
	require.NoError(t, db.Create(&components).Error)

	require.NoError(t, db.Create(&models.Product{ID: 1, Name: "Model Truck", EstimatedTimeMinutes: 20, IsActive: true}).Error)
	productEdges := []models.ProductModule{
		{ProductID: 1, ModuleID: 10, Quantity: 1},
		{ProductID: 1, ModuleID: 11, Quantity: 1},
	}
	require.NoError(t, db.Create(&productEdges).Error)

	md := masterdata.NewService(db)
	inv := inventory.NewService(db)
	resolver := bom.NewResolver(md)
	planner := scheduler.NewEmbeddedPlanner(md)
	cfg := &config.Config{OutboundTimeout: time.Second}

	return &testRig{
		orders:    NewService(db, inv, md, resolver, planner, cfg),
		inventory: inv,
		db:        db,
	}
}

func (r *testRig) seedStock(t *testing.T, workstationID uint, itemType string, itemID uint, quantity int) {
	_, err := r.inventory.Adjust(inventory.AdjustRequest{
		WorkstationID: workstationID,
		ItemType:      itemType,
		ItemID:        itemID,
		Delta:         quantity,
		ReasonCode:    models.StockReasonAdjustment,
		Actor:         "seed",
	})
	require.NoError(t, err)
}

func (r *testRig) available(t *testing.T, workstationID uint, itemType string, itemID uint) int {
	quantity, err := r.inventory.Available(workstationID, itemType, itemID)
	require.NoError(t, err)
	return quantity
}

func (r *testRig) assertLedgerInvariant(t *testing.T) {
	var records []models.StockRecord
	require.NoError(t, r.db.Find(&records).Error)
	for _, record := range records {
		var sum int
		require.NoError(t, r.db.Model(&models.StockLedgerEntry{}).
			Where("workstation_id = ? AND item_type = ? AND item_id = ?",
				record.WorkstationID, record.ItemType, record.ItemID).
			Select("COALESCE(SUM(delta), 0)").Scan(&sum).Error)
		assert.Equal(t, record.Quantity, sum)
		assert.GreaterOrEqual(t, record.Quantity, 0)
	}
}

// runControlOrder drives one scheduled task through dispatch, supply,
// confirmation and completion.
func (r *testRig) runControlOrder(t *testing.T, controlOrderID uint) {
	control, err := r.orders.DispatchControlOrder(controlOrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAssigned, control.Status)

	for _, supply := range control.SupplyOrders {
		_, err := r.orders.FulfillSupplyOrder(supply.ID)
		require.NoError(t, err)
	}

	require.Len(t, control.WorkstationOrders, 1)
	wso := control.WorkstationOrders[0]

	_, err = r.orders.ConfirmWorkstationOrder(wso.ID)
	require.NoError(t, err)
	_, err = r.orders.StartWorkstationOrder(wso.ID)
	require.NoError(t, err)

	done, err := r.orders.CompleteWorkstationOrder(wso.ID)
	require.NoError(t, err)
	if done.Status == models.OrderStatusCompletedAssembly {
		done, err = r.orders.CompleteWorkstationOrder(wso.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, models.OrderStatusCompleted, done.Status)
}

func (r *testRig) submitFinalAssembly(t *testing.T, faID uint) {
	_, err := r.orders.ConfirmFinalAssemblyOrder(faID)
	require.NoError(t, err)
	_, err = r.orders.StartFinalAssemblyOrder(faID)
	require.NoError(t, err)
	_, err = r.orders.CompleteFinalAssembly(faID)
	require.NoError(t, err)
	_, err = r.orders.SubmitFinalAssemblyOrder(faID)
	require.NoError(t, err)
}

func TestScenarioDirectFulfillment(t *testing.T) {
	r := newTestRig(t)
	r.seedStock(t, 7, models.ItemTypeProduct, 1, 50)

	co, err := r.orders.CreateCustomerOrder([]OrderItemInput{
		{ItemID: 1, RequestedQuantity: 2},
	}, "", "")
	require.NoError(t, err)
	assert.Equal(t, "CO-1", co.Number)
	assert.Equal(t, models.OrderStatusPending, co.Status)
	require.Len(t, co.OrderItems, 1)
	assert.Equal(t, 2, co.OrderItems[0].Quantity) // legacy mirror

	co, err = r.orders.ConfirmCustomerOrder(co.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScenarioDirectFulfillment, co.TriggerScenario)

	co, err = r.orders.FulfillCustomerOrder(co.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, co.Status)
	assert.Equal(t, 48, r.available(t, 7, models.ItemTypeProduct, 1))

	var entries []models.StockLedgerEntry
	require.NoError(t, r.db.Where("delta < 0").Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, -2, entries[0].Delta)
	assert.Equal(t, models.StockReasonFulfillment, entries[0].Reason)
	r.assertLedgerInvariant(t)
}

func TestDirectFulfillmentShortageAborts(t *testing.T) {
	r := newTestRig(t)
	r.seedStock(t, 7, models.ItemTypeProduct, 1, 2)

	co, err := r.orders.CreateCustomerOrder([]OrderItemInput{{ItemID: 1, RequestedQuantity: 2}}, "", "")
	require.NoError(t, err)
	confirmed, err := r.orders.ConfirmCustomerOrder(co.ID)
	require.NoError(t, err)
	require.Equal(t, models.ScenarioDirectFulfillment, confirmed.TriggerScenario)

	// Someone drains the warehouse between confirmation and fulfillment.
	_, err = r.inventory.Adjust(inventory.AdjustRequest{
		WorkstationID: 7, ItemType: models.ItemTypeProduct, ItemID: 1,
		Delta: -2, ReasonCode: models.StockReasonAdjustment, Actor: "test",
	})
	require.NoError(t, err)

	_, err = r.orders.FulfillCustomerOrder(co.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeOrderInsufficientStock, apperrors.As(err).Code)

	co, err = r.orders.GetCustomerOrder(co.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, co.Status)
	assert.Equal(t, 0, r.available(t, 7, models.ItemTypeProduct, 1))
	r.assertLedgerInvariant(t)
}

func TestReconfirmIsRejected(t *testing.T) {
	r := newTestRig(t)
	r.seedStock(t, 7, models.ItemTypeProduct, 1, 10)

	co, err := r.orders.CreateCustomerOrder([]OrderItemInput{{ItemID: 1, RequestedQuantity: 1}}, "", "")
	require.NoError(t, err)
	first, err := r.orders.ConfirmCustomerOrder(co.ID)
	require.NoError(t, err)

	_, err = r.orders.ConfirmCustomerOrder(co.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeOrderInvalidState, apperrors.As(err).Code)

	again, err := r.orders.GetCustomerOrder(co.ID)
	require.NoError(t, err)
	assert.Equal(t, first.TriggerScenario, again.TriggerScenario)
	assert.Equal(t, models.OrderStatusConfirmed, again.Status)
}

func TestCreateCustomerOrderValidation(t *testing.T) {
	r := newTestRig(t)

	_, err := r.orders.CreateCustomerOrder(nil, "", "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeOrderValidation, apperrors.As(err).Code)

	_, err = r.orders.CreateCustomerOrder([]OrderItemInput{{ItemID: 999, RequestedQuantity: 1}}, "", "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeOrderValidation, apperrors.As(err).Code)

	_, err = r.orders.CreateCustomerOrder([]OrderItemInput{{ItemID: 1, RequestedQuantity: 0}}, "", "")
	require.Error(t, err)

	_, err = r.orders.CreateCustomerOrder([]OrderItemInput{
		{ItemType: models.ItemTypeModule, ItemID: 10, RequestedQuantity: 1},
	}, "", "")
	require.Error(t, err)
}

func TestLegacyQuantityFieldAccepted(t *testing.T) {
	r := newTestRig(t)

	co, err := r.orders.CreateCustomerOrder([]OrderItemInput{{ItemID: 1, Quantity: 3}}, "", "")
	require.NoError(t, err)
	require.Len(t, co.OrderItems, 1)
	assert.Equal(t, 3, co.OrderItems[0].RequestedQuantity)
	assert.Equal(t, 3, co.OrderItems[0].Quantity)
}

func TestScenarioWarehouseFulfillment(t *testing.T) {
	r := newTestRig(t)
	r.seedStock(t, 8, models.ItemTypeModule, 10, 20)
	r.seedStock(t, 8, models.ItemTypeModule, 11, 20)

	co, err := r.orders.CreateCustomerOrder([]OrderItemInput{{ItemID: 1, RequestedQuantity: 2}}, "", "")
	require.NoError(t, err)
	co, err = r.orders.ConfirmCustomerOrder(co.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScenarioWarehouseOrderNeeded, co.TriggerScenario)

	co, err = r.orders.FulfillCustomerOrder(co.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, co.Status)
	require.Len(t, co.WarehouseOrders, 1)

	wo, err := r.orders.GetWarehouseOrder(co.WarehouseOrders[0].ID)
	require.NoError(t, err)
	assert.Nil(t, wo.ProductionOrderID)
	require.Len(t, wo.OrderItems, 2)
	byModule := map[uint]int{}
	for _, item := range wo.OrderItems {
		byModule[item.ItemID] = item.RequestedQuantity
	}
	assert.Equal(t, map[uint]int{10: 2, 11: 2}, byModule)

	wo, err = r.orders.ConfirmWarehouseOrder(wo.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScenarioDirectFulfillment, wo.TriggerScenario)

	wo, err = r.orders.FulfillWarehouseOrder(wo.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFulfilled, wo.Status)
	assert.Equal(t, 18, r.available(t, 8, models.ItemTypeModule, 10))
	assert.Equal(t, 18, r.available(t, 8, models.ItemTypeModule, 11))

	fas, err := r.orders.ListFinalAssemblyOrders("")
	require.NoError(t, err)
	require.Len(t, fas, 2)
	for _, fa := range fas {
		assert.EqualValues(t, 6, fa.WorkstationID)
		assert.EqualValues(t, 1, fa.OutputProductID)
		assert.Equal(t, 1, fa.OutputQuantity)
		require.NotNil(t, fa.WarehouseOrderID)
		r.submitFinalAssembly(t, fa.ID)
	}

	co, err = r.orders.GetCustomerOrder(co.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, co.Status)
	// Credited by two submissions, then debited for the order.
	assert.Equal(t, 0, r.available(t, 7, models.ItemTypeProduct, 1))
	r.assertLedgerInvariant(t)
}

func TestScenarioFullProduction(t *testing.T) {
	r := newTestRig(t)
	r.seedStock(t, 8, models.ItemTypeModule, 11, 20)
	r.seedStock(t, 9, models.ItemTypePart, 101, 100)
	r.seedStock(t, 9, models.ItemTypePart, 102, 100)

	co, err := r.orders.CreateCustomerOrder([]OrderItemInput{{ItemID: 1, RequestedQuantity: 2}}, "", "")
	require.NoError(t, err)
	co, err = r.orders.ConfirmCustomerOrder(co.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScenarioWarehouseOrderNeeded, co.TriggerScenario)

	co, err = r.orders.FulfillCustomerOrder(co.ID)
	require.NoError(t, err)
	wo, err := r.orders.GetWarehouseOrder(co.WarehouseOrders[0].ID)
	require.NoError(t, err)

	wo, err = r.orders.ConfirmWarehouseOrder(wo.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScenarioProductionRequired, wo.TriggerScenario)

	// Fulfillment is blocked until production has been ordered and completed.
	_, err = r.orders.FulfillWarehouseOrder(wo.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeOrderInvalidOperation, apperrors.As(err).Code)

	po, err := r.orders.OrderProductionFromWarehouse(wo.ID)
	require.NoError(t, err)
	require.NotNil(t, po.SourceWarehouseOrderID)
	assert.Nil(t, po.SourceCustomerOrderID)
	assert.Equal(t, models.OrderStatusScheduled, po.Status)
	assert.NotEmpty(t, po.ScheduleID)

	wo, err = r.orders.GetWarehouseOrder(wo.ID)
	require.NoError(t, err)
	require.NotNil(t, wo.ProductionOrderID)
	assert.Equal(t, po.ID, *wo.ProductionOrderID)
	assert.Equal(t, models.OrderStatusConfirmed, wo.Status)

	controls, err := r.orders.ListControlOrders(po.ID, "")
	require.NoError(t, err)
	require.Len(t, controls, 3)
	kinds := map[string]int{}
	for _, control := range controls {
		kinds[control.Kind]++
	}
	assert.Equal(t, 2, kinds[models.ControlOrderProduction])
	assert.Equal(t, 1, kinds[models.ControlOrderAssembly])

	for _, control := range controls {
		r.runControlOrder(t, control.ID)
	}

	po, err = r.orders.GetProductionOrder(po.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, po.Status)

	// Produced into the supermarket: module 10 and 11 for the order, the
	// intermediate gear set consumed by assembly.
	assert.Equal(t, 2, r.available(t, 8, models.ItemTypeModule, 10))
	assert.Equal(t, 0, r.available(t, 8, models.ItemTypeModule, 12))

	// Reserved modules: fulfillment succeeds without a fresh availability
	// check even though the trigger scenario still reads PRODUCTION_REQUIRED.
	wo, err = r.orders.FulfillWarehouseOrder(wo.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFulfilled, wo.Status)

	fas, err := r.orders.ListFinalAssemblyOrders("")
	require.NoError(t, err)
	require.Len(t, fas, 2)
	for _, fa := range fas {
		r.submitFinalAssembly(t, fa.ID)
	}

	co, err = r.orders.GetCustomerOrder(co.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, co.Status)
	assert.Equal(t, 0, r.available(t, 7, models.ItemTypeProduct, 1))
	r.assertLedgerInvariant(t)
}

func TestScenarioDirectProduction(t *testing.T) {
	r := newTestRig(t)
	r.seedStock(t, 7, models.ItemTypeProduct, 1, 100)
	r.seedStock(t, 9, models.ItemTypePart, 101, 100)
	r.seedStock(t, 9, models.ItemTypePart, 102, 100)

	co, err := r.orders.CreateCustomerOrder([]OrderItemInput{{ItemID: 1, RequestedQuantity: 5}}, "", "")
	require.NoError(t, err)
	co, err = r.orders.ConfirmCustomerOrder(co.ID)
	require.NoError(t, err)
	// The threshold wins over the hundred units on hand.
	assert.Equal(t, models.ScenarioDirectProduction, co.TriggerScenario)

	co, err = r.orders.FulfillCustomerOrder(co.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, co.Status)

	wos, err := r.orders.ListWarehouseOrders("")
	require.NoError(t, err)
	assert.Empty(t, wos)

	pos, err := r.orders.ListProductionOrders("")
	require.NoError(t, err)
	require.Len(t, pos, 1)
	po := pos[0]
	require.NotNil(t, po.SourceCustomerOrderID)
	assert.Nil(t, po.SourceWarehouseOrderID)
	assert.Equal(t, models.OrderStatusScheduled, po.Status)

	controls, err := r.orders.ListControlOrders(po.ID, "")
	require.NoError(t, err)
	require.Len(t, controls, 3)
	for _, control := range controls {
		r.runControlOrder(t, control.ID)
	}

	fas, err := r.orders.ListFinalAssemblyOrders("")
	require.NoError(t, err)
	require.Len(t, fas, 5)
	for _, fa := range fas {
		require.NotNil(t, fa.ProductionOrderID)
		assert.Nil(t, fa.WarehouseOrderID)
		r.submitFinalAssembly(t, fa.ID)
	}

	po2, err := r.orders.GetProductionOrder(po.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, po2.Status)

	co, err = r.orders.GetCustomerOrder(co.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, co.Status)
	// Credited by five submissions and debited by five on completion.
	assert.Equal(t, 100, r.available(t, 7, models.ItemTypeProduct, 1))
	r.assertLedgerInvariant(t)
}

func TestSupplyGateBlocksWorkstationOrder(t *testing.T) {
	r := newTestRig(t)
	r.seedStock(t, 9, models.ItemTypePart, 101, 100)
	r.seedStock(t, 9, models.ItemTypePart, 102, 100)

	co, err := r.orders.CreateCustomerOrder([]OrderItemInput{{ItemID: 1, RequestedQuantity: 3}}, "", "")
	require.NoError(t, err)
	_, err = r.orders.ConfirmCustomerOrder(co.ID)
	require.NoError(t, err)
	_, err = r.orders.FulfillCustomerOrder(co.ID)
	require.NoError(t, err)

	pos, err := r.orders.ListProductionOrders("")
	require.NoError(t, err)
	require.Len(t, pos, 1)
	controls, err := r.orders.ListControlOrders(pos[0].ID, "")
	require.NoError(t, err)
	require.NotEmpty(t, controls)

	control, err := r.orders.DispatchControlOrder(controls[0].ID)
	require.NoError(t, err)
	require.Len(t, control.SupplyOrders, 1)
	require.Len(t, control.WorkstationOrders, 1)

	_, err = r.orders.ConfirmWorkstationOrder(control.WorkstationOrders[0].ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeOrderInvalidOperation, apperrors.As(err).Code)

	_, err = r.orders.FulfillSupplyOrder(control.SupplyOrders[0].ID)
	require.NoError(t, err)

	wso, err := r.orders.ConfirmWorkstationOrder(control.WorkstationOrders[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, wso.Status)
}

func TestSupplyOrderDebitsPartsSupply(t *testing.T) {
	r := newTestRig(t)
	r.seedStock(t, 9, models.ItemTypePart, 101, 100)
	r.seedStock(t, 9, models.ItemTypePart, 102, 100)

	co, err := r.orders.CreateCustomerOrder([]OrderItemInput{{ItemID: 1, RequestedQuantity: 3}}, "", "")
	require.NoError(t, err)
	_, err = r.orders.ConfirmCustomerOrder(co.ID)
	require.NoError(t, err)
	_, err = r.orders.FulfillCustomerOrder(co.ID)
	require.NoError(t, err)

	pos, err := r.orders.ListProductionOrders("")
	require.NoError(t, err)
	controls, err := r.orders.ListControlOrders(pos[0].ID, "")
	require.NoError(t, err)

	// First task produces module 10 (two part 101 per unit, three units).
	control, err := r.orders.DispatchControlOrder(controls[0].ID)
	require.NoError(t, err)
	require.Len(t, control.SupplyOrders, 1)
	supply := control.SupplyOrders[0]
	assert.EqualValues(t, 9, supply.SupplyWarehouseWorkstationID)
	assert.EqualValues(t, 1, supply.RequestingWorkstationID)

	_, err = r.orders.FulfillSupplyOrder(supply.ID)
	require.NoError(t, err)
	assert.Equal(t, 94, r.available(t, 9, models.ItemTypePart, 101))

	// A fulfilled supply order is terminal; a second fulfillment is rejected.
	_, err = r.orders.FulfillSupplyOrder(supply.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeOrderInvalidState, apperrors.As(err).Code)
	r.assertLedgerInvariant(t)
}

func TestCancelCustomerOrder(t *testing.T) {
	r := newTestRig(t)
	r.seedStock(t, 7, models.ItemTypeProduct, 1, 10)

	co, err := r.orders.CreateCustomerOrder([]OrderItemInput{{ItemID: 1, RequestedQuantity: 1}}, "", "")
	require.NoError(t, err)
	cancelled, err := r.orders.CancelCustomerOrder(co.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	// Terminal: nothing moves a cancelled order.
	_, err = r.orders.ConfirmCustomerOrder(co.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeOrderInvalidState, apperrors.As(err).Code)
}

func TestLotSizeThresholdConfiguration(t *testing.T) {
	r := newTestRig(t)
	assert.Equal(t, 3, r.orders.LotSizeThreshold())

	require.NoError(t, r.orders.SetLotSizeThreshold(10))
	assert.Equal(t, 10, r.orders.LotSizeThreshold())

	require.Error(t, r.orders.SetLotSizeThreshold(0))
}

func TestResetProductionOrder(t *testing.T) {
	r := newTestRig(t)
	r.seedStock(t, 9, models.ItemTypePart, 101, 100)
	r.seedStock(t, 9, models.ItemTypePart, 102, 100)

	co, err := r.orders.CreateCustomerOrder([]OrderItemInput{{ItemID: 1, RequestedQuantity: 4}}, "", "")
	require.NoError(t, err)
	_, err = r.orders.ConfirmCustomerOrder(co.ID)
	require.NoError(t, err)
	_, err = r.orders.FulfillCustomerOrder(co.ID)
	require.NoError(t, err)

	pos, err := r.orders.ListProductionOrders("")
	require.NoError(t, err)
	po := pos[0]

	reset, err := r.orders.ResetProductionOrder(po.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, reset.Status)
	assert.Empty(t, reset.ScheduleID)
	assert.Empty(t, reset.ControlOrders)

	// And it can be scheduled again.
	again, err := r.orders.ScheduleProduction(po.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusScheduled, again.Status)
	assert.NotEmpty(t, again.ControlOrders)
}
