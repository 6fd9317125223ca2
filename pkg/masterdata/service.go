package masterdata

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/models"
)

// cacheTTL bounds staleness of the read-mostly BOM edge cache.
const cacheTTL = 10 * time.Minute

type cacheEntry struct {
	components []models.BOMComponentView
	expires    time.Time
}

// Service owns products, modules, parts, workstations and the BOM graph.
type Service struct {
	db *gorm.DB

	mu       sync.RWMutex
	bomCache map[string]cacheEntry
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, bomCache: make(map[string]cacheEntry)}
}

func (s *Service) ListWorkstations() ([]models.Workstation, error) {
	var workstations []models.Workstation
	err := s.db.Order("id").Find(&workstations).Error
	return workstations, err
}

func (s *Service) GetWorkstation(id uint) (*models.Workstation, error) {
	var ws models.Workstation
	if err := s.db.First(&ws, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeMasterdataNotFound, fmt.Sprintf("workstation %d not found", id))
		}
		return nil, err
	}
	return &ws, nil
}

func (s *Service) ListProducts() ([]models.Product, error) {
	var products []models.Product
	err := s.db.Where("is_active = ?", true).Order("id").Find(&products).Error
	return products, err
}

func (s *Service) GetProduct(id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeMasterdataNotFound, fmt.Sprintf("product %d not found", id))
		}
		return nil, err
	}
	return &product, nil
}

func (s *Service) ListModules() ([]models.Module, error) {
	var modules []models.Module
	err := s.db.Where("is_active = ?", true).Order("id").Find(&modules).Error
	return modules, err
}

func (s *Service) GetModule(id uint) (*models.Module, error) {
	var module models.Module
	if err := s.db.First(&module, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeMasterdataNotFound, fmt.Sprintf("module %d not found", id))
		}
		return nil, err
	}
	return &module, nil
}

func (s *Service) ListParts() ([]models.Part, error) {
	var parts []models.Part
	err := s.db.Where("is_active = ?", true).Order("id").Find(&parts).Error
	return parts, err
}

func (s *Service) GetPart(id uint) (*models.Part, error) {
	var part models.Part
	if err := s.db.First(&part, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeMasterdataNotFound, fmt.Sprintf("part %d not found", id))
		}
		return nil, err
	}
	return &part, nil
}

// ItemName resolves the display name of any (itemType, itemId) pair.
func (s *Service) ItemName(itemType string, itemID uint) string {
	switch itemType {
	case models.ItemTypeProduct:
		if p, err := s.GetProduct(itemID); err == nil {
			return p.Name
		}
	case models.ItemTypeModule:
		if m, err := s.GetModule(itemID); err == nil {
			return m.Name
		}
	case models.ItemTypePart:
		if p, err := s.GetPart(itemID); err == nil {
			return p.Name
		}
	}
	return ""
}

// ProductComponents returns the direct BOM edges of a product, cached.
func (s *Service) ProductComponents(productID uint) ([]models.BOMComponentView, error) {
	key := fmt.Sprintf("product:%d", productID)
	if cached, ok := s.cached(key); ok {
		return cached, nil
	}

	if _, err := s.GetProduct(productID); err != nil {
		return nil, err
	}

	var edges []models.ProductModule
	if err := s.db.Where("product_id = ?", productID).Order("module_id").Find(&edges).Error; err != nil {
		return nil, err
	}

	views := make([]models.BOMComponentView, 0, len(edges))
	for _, edge := range edges {
		views = append(views, models.BOMComponentView{
			ComponentID:   edge.ModuleID,
			ModuleID:      edge.ModuleID,
			ComponentName: s.ItemName(models.ItemTypeModule, edge.ModuleID),
			ComponentType: models.ItemTypeModule,
			Quantity:      edge.Quantity,
		})
	}
	s.store(key, views)
	return views, nil
}

// ModuleComponents returns the direct BOM edges of a module (parts and
// sub-modules), cached.
func (s *Service) ModuleComponents(moduleID uint) ([]models.BOMComponentView, error) {
	key := fmt.Sprintf("module:%d", moduleID)
	if cached, ok := s.cached(key); ok {
		return cached, nil
	}

	if _, err := s.GetModule(moduleID); err != nil {
		return nil, err
	}

	var edges []models.ModuleComponent
	if err := s.db.Where("module_id = ?", moduleID).Order("component_type, component_id").Find(&edges).Error; err != nil {
		return nil, err
	}

	views := make([]models.BOMComponentView, 0, len(edges))
	for _, edge := range edges {
		views = append(views, models.BOMComponentView{
			ComponentID:   edge.ComponentID,
			ModuleID:      edge.ComponentID,
			ComponentName: s.ItemName(edge.ComponentType, edge.ComponentID),
			ComponentType: edge.ComponentType,
			Quantity:      edge.Quantity,
		})
	}
	s.store(key, views)
	return views, nil
}

func (s *Service) cached(key string) ([]models.BOMComponentView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.bomCache[key]
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.components, true
}

func (s *Service) store(key string, views []models.BOMComponentView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bomCache[key] = cacheEntry{components: views, expires: time.Now().Add(cacheTTL)}
}

func (s *Service) invalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bomCache = make(map[string]cacheEntry)
}
