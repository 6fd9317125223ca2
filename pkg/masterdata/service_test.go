package masterdata

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/database"
	"github.com/smartfab/model-factory-mes/internal/models"
)

func newTestMasterdata(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	workstations := []models.Workstation{
		{ID: 1, Name: "Injection Molding Cell", Role: models.WorkstationRoleManufacturing},
		{ID: 4, Name: "Gear Assembly Cell", Role: models.WorkstationRoleAssembly},
		{ID: 5, Name: "Motor Assembly Cell", Role: models.WorkstationRoleAssembly},
		{ID: 7, Name: "Plant Warehouse", Role: models.WorkstationRoleWarehouse},
	}
	require.NoError(t, db.Create(&workstations).Error)

	return NewService(db), db
}

func TestCreateModuleRejectsWarehouseCell(t *testing.T) {
	s, _ := newTestMasterdata(t)

	err := s.CreateModule(&models.Module{Name: "Misplaced", ProductionWorkstationID: 7})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeMasterdataValidation, apperrors.As(err).Code)
}

func TestManufacturingModuleAcceptsPartsOnly(t *testing.T) {
	s, _ := newTestMasterdata(t)

	require.NoError(t, s.CreatePart(&models.Part{Name: "Blank"}))
	manufactured := models.Module{Name: "Housing", ProductionWorkstationID: 1}
	require.NoError(t, s.CreateModule(&manufactured))
	other := models.Module{Name: "Gear Drive", ProductionWorkstationID: 4}
	require.NoError(t, s.CreateModule(&other))

	err := s.SetModuleBOM(manufactured.ID, []BOMEdgeInput{
		{ComponentID: other.ID, ComponentType: models.ItemTypeModule, Quantity: 1},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeMasterdataValidation, apperrors.As(err).Code)
}

func TestSetModuleBOMRejectsCycle(t *testing.T) {
	s, _ := newTestMasterdata(t)

	a := models.Module{Name: "Assembly A", ProductionWorkstationID: 4}
	b := models.Module{Name: "Assembly B", ProductionWorkstationID: 5}
	require.NoError(t, s.CreateModule(&a))
	require.NoError(t, s.CreateModule(&b))

	require.NoError(t, s.SetModuleBOM(a.ID, []BOMEdgeInput{
		{ComponentID: b.ID, ComponentType: models.ItemTypeModule, Quantity: 1},
	}))

	err := s.SetModuleBOM(b.ID, []BOMEdgeInput{
		{ComponentID: a.ID, ComponentType: models.ItemTypeModule, Quantity: 1},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeMasterdataValidation, apperrors.As(err).Code)

	err = s.SetModuleBOM(a.ID, []BOMEdgeInput{
		{ComponentID: a.ID, ComponentType: models.ItemTypeModule, Quantity: 1},
	})
	require.Error(t, err)
}

func TestBOMEdgeInputAcceptsModuleIDSynonym(t *testing.T) {
	s, _ := newTestMasterdata(t)

	module := models.Module{Name: "Gear Drive", ProductionWorkstationID: 4}
	require.NoError(t, s.CreateModule(&module))
	product := models.Product{Name: "Model Truck"}
	require.NoError(t, s.CreateProduct(&product))

	// Legacy clients send moduleId instead of componentId.
	require.NoError(t, s.SetProductBOM(product.ID, []BOMEdgeInput{
		{ModuleID: module.ID, Quantity: 2},
	}))

	components, err := s.ProductComponents(product.ID)
	require.NoError(t, err)
	require.Len(t, components, 1)
	assert.Equal(t, module.ID, components[0].ComponentID)
	assert.Equal(t, module.ID, components[0].ModuleID)
	assert.Equal(t, 2, components[0].Quantity)
	assert.Equal(t, models.ItemTypeModule, components[0].ComponentType)
}

func TestProductComponentsCacheInvalidatedOnWrite(t *testing.T) {
	s, _ := newTestMasterdata(t)

	module := models.Module{Name: "Gear Drive", ProductionWorkstationID: 4}
	require.NoError(t, s.CreateModule(&module))
	product := models.Product{Name: "Model Truck"}
	require.NoError(t, s.CreateProduct(&product))
	require.NoError(t, s.SetProductBOM(product.ID, []BOMEdgeInput{{ComponentID: module.ID, Quantity: 1}}))

	first, err := s.ProductComponents(product.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, s.SetProductBOM(product.ID, []BOMEdgeInput{{ComponentID: module.ID, Quantity: 3}}))
	second, err := s.ProductComponents(product.ID)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 3, second[0].Quantity)
}

func TestGetUnknownEntities(t *testing.T) {
	s, _ := newTestMasterdata(t)

	_, err := s.GetProduct(42)
	assert.Equal(t, apperrors.CodeMasterdataNotFound, apperrors.As(err).Code)
	_, err = s.GetModule(42)
	assert.Equal(t, apperrors.CodeMasterdataNotFound, apperrors.As(err).Code)
	_, err = s.GetPart(42)
	assert.Equal(t, apperrors.CodeMasterdataNotFound, apperrors.As(err).Code)
	_, err = s.GetWorkstation(42)
	assert.Equal(t, apperrors.CodeMasterdataNotFound, apperrors.As(err).Code)
}
