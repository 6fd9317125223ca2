package masterdata

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/middleware"
	"github.com/smartfab/model-factory-mes/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the catalog reads on the public group and the
// master-data writes on the protected group (ADMIN only).
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	md := public.Group("/masterdata")
	{
		md.GET("/workstations", h.ListWorkstations)
		md.GET("/workstations/:id", h.GetWorkstation)
		md.GET("/products", h.ListProducts)
		md.GET("/products/:id", h.GetProduct)
		md.GET("/products/:id/modules", h.GetProductModules)
		md.GET("/modules", h.ListModules)
		md.GET("/modules/:id", h.GetModule)
		md.GET("/modules/:id/components", h.GetModuleComponents)
		md.GET("/parts", h.ListParts)
		md.GET("/parts/:id", h.GetPart)
	}

	admin := protected.Group("/masterdata")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/products", h.CreateProduct)
		admin.POST("/modules", h.CreateModule)
		admin.POST("/parts", h.CreatePart)
		admin.PUT("/products/:id/modules", h.SetProductBOM)
		admin.PUT("/modules/:id/components", h.SetModuleBOM)
	}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.Respond(c, apperrors.BadRequest(apperrors.CodeMasterdataValidation, "id must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) ListWorkstations(c *gin.Context) {
	workstations, err := h.service.ListWorkstations()
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, workstations)
}

func (h *Handler) GetWorkstation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ws, err := h.service.GetWorkstation(id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts()
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, err := h.service.GetProduct(id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) GetProductModules(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	components, err := h.service.ProductComponents(id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, components)
}

func (h *Handler) ListModules(c *gin.Context) {
	modules, err := h.service.ListModules()
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, modules)
}

func (h *Handler) GetModule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	module, err := h.service.GetModule(id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, module)
}

func (h *Handler) GetModuleComponents(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	components, err := h.service.ModuleComponents(id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, components)
}

func (h *Handler) ListParts(c *gin.Context) {
	parts, err := h.service.ListParts()
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, parts)
}

func (h *Handler) GetPart(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	part, err := h.service.GetPart(id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, part)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		apperrors.Respond(c, apperrors.BadRequest(apperrors.CodeMasterdataValidation, err.Error()))
		return
	}
	if err := h.service.CreateProduct(&product); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) CreateModule(c *gin.Context) {
	var module models.Module
	if err := c.ShouldBindJSON(&module); err != nil {
		apperrors.Respond(c, apperrors.BadRequest(apperrors.CodeMasterdataValidation, err.Error()))
		return
	}
	if err := h.service.CreateModule(&module); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, module)
}

func (h *Handler) CreatePart(c *gin.Context) {
	var part models.Part
	if err := c.ShouldBindJSON(&part); err != nil {
		apperrors.Respond(c, apperrors.BadRequest(apperrors.CodeMasterdataValidation, err.Error()))
		return
	}
	if err := h.service.CreatePart(&part); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, part)
}

func (h *Handler) SetProductBOM(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var edges []BOMEdgeInput
	if err := c.ShouldBindJSON(&edges); err != nil {
		apperrors.Respond(c, apperrors.BadRequest(apperrors.CodeMasterdataValidation, err.Error()))
		return
	}
	if err := h.service.SetProductBOM(id, edges); err != nil {
		apperrors.Respond(c, err)
		return
	}
	components, err := h.service.ProductComponents(id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, components)
}

func (h *Handler) SetModuleBOM(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var edges []BOMEdgeInput
	if err := c.ShouldBindJSON(&edges); err != nil {
		apperrors.Respond(c, apperrors.BadRequest(apperrors.CodeMasterdataValidation, err.Error()))
		return
	}
	if err := h.service.SetModuleBOM(id, edges); err != nil {
		apperrors.Respond(c, err)
		return
	}
	components, err := h.service.ModuleComponents(id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, components)
}
