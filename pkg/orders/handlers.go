package orders

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

// RegisterRoutes mounts the orchestration API. Customers may place orders;
// everything that moves material requires an operator or admin.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	operator := middleware.RequireRole(models.RoleOperator, models.RoleAdmin)
	admin := middleware.RequireRole(models.RoleAdmin)

	co := protected.Group("/customer-orders")
	{
		co.GET("", h.ListCustomerOrders)
		co.GET("/:id", h.GetCustomerOrder)
		co.POST("", middleware.RequireRole(models.RoleCustomer, models.RoleOperator, models.RoleAdmin), h.CreateCustomerOrder)
		co.PUT("/:id/confirm", operator, h.ConfirmCustomerOrder)
		co.POST("/:id/complete", operator, h.FulfillCustomerOrder)
		co.POST("/:id/cancel", operator, h.CancelCustomerOrder)
	}

	wo := protected.Group("/warehouse-orders")
	{
		wo.GET("", h.ListWarehouseOrders)
		wo.GET("/:id", h.GetWarehouseOrder)
		wo.PUT("/:id/confirm", operator, h.ConfirmWarehouseOrder)
		wo.POST("/:id/fulfill", operator, h.FulfillWarehouseOrder)
		wo.POST("/:id/order-production", operator, h.OrderProductionFromWarehouse)
	}

	po := protected.Group("/production-orders")
	{
		po.GET("", h.ListProductionOrders)
		po.GET("/:id", h.GetProductionOrder)
		po.POST("/:id/schedule", operator, h.ScheduleProduction)
		po.POST("/:id/reset", admin, h.ResetProductionOrder)
	}

	control := protected.Group("/control-orders")
	{
		control.GET("", h.ListControlOrders)
		control.GET("/:id", h.GetControlOrder)
		control.POST("/:id/dispatch", operator, h.DispatchControlOrder)
	}

	so := protected.Group("/supply-orders")
	{
		so.GET("", h.ListSupplyOrders)
		so.GET("/:id", h.GetSupplyOrder)
		so.POST("/:id/fulfill", operator, h.FulfillSupplyOrder)
		so.POST("/:id/reject", operator, h.RejectSupplyOrder)
	}

	wso := protected.Group("/workstation-orders")
	{
		wso.GET("", h.ListWorkstationOrders)
		wso.GET("/:id", h.GetWorkstationOrder)
		wso.POST("/:id/confirm", operator, h.ConfirmWorkstationOrder)
		wso.POST("/:id/start", operator, h.StartWorkstationOrder)
		wso.POST("/:id/complete", operator, h.CompleteWorkstationOrder)
	}

	fa := protected.Group("/final-assembly-orders")
	{
		fa.GET("", h.ListFinalAssemblyOrders)
		fa.GET("/:id", h.GetFinalAssemblyOrder)
		fa.POST("/:id/confirm", operator, h.ConfirmFinalAssemblyOrder)
		fa.POST("/:id/start", operator, h.StartFinalAssemblyOrder)
		fa.POST("/:id/complete-assembly", operator, h.CompleteFinalAssemblyOrder)
		fa.POST("/:id/submit", operator, h.SubmitFinalAssemblyOrder)
	}

	cfg := protected.Group("/configuration")
	{
		cfg.GET("/lot-size-threshold", h.GetLotSizeThreshold)
		cfg.PUT("/lot-size-threshold", admin, h.SetLotSizeThreshold)
	}
}

func orderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.Respond(c, apperrors.BadRequest(apperrors.CodeOrderValidation, "id must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

// respond writes the order or translates the error.
func respond(c *gin.Context, status int, payload interface{}, err error) {
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(status, payload)
}

func (h *Handler) CreateCustomerOrder(c *gin.Context) {
	var req struct {
		OrderItems []OrderItemInput `json:"orderItems" binding:"required"`
		Notes      string           `json:"notes"`
		Priority   string           `json:"priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.BadRequest(apperrors.CodeOrderValidation, err.Error()))
		return
	}
	order, err := h.service.CreateCustomerOrder(req.OrderItems, req.Notes, req.Priority)
	respond(c, http.StatusCreated, order, err)
}

func (h *Handler) ListCustomerOrders(c *gin.Context) {
	orders, err := h.service.ListCustomerOrders(c.Query("status"))
	respond(c, http.StatusOK, orders, err)
}

func (h *Handler) GetCustomerOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.GetCustomerOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) ConfirmCustomerOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.ConfirmCustomerOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) FulfillCustomerOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.FulfillCustomerOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) CancelCustomerOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.CancelCustomerOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) ListWarehouseOrders(c *gin.Context) {
	orders, err := h.service.ListWarehouseOrders(c.Query("status"))
	respond(c, http.StatusOK, orders, err)
}

func (h *Handler) GetWarehouseOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.GetWarehouseOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) ConfirmWarehouseOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.ConfirmWarehouseOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) FulfillWarehouseOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.FulfillWarehouseOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) OrderProductionFromWarehouse(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.OrderProductionFromWarehouse(id)
	respond(c, http.StatusCreated, order, err)
}

func (h *Handler) ListProductionOrders(c *gin.Context) {
	orders, err := h.service.ListProductionOrders(c.Query("status"))
	respond(c, http.StatusOK, orders, err)
}

func (h *Handler) GetProductionOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.GetProductionOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) ScheduleProduction(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.ScheduleProduction(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) ResetProductionOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.ResetProductionOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) ListControlOrders(c *gin.Context) {
	var productionOrderID uint
	if raw := c.Query("productionOrderId"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 32); err == nil {
			productionOrderID = uint(parsed)
		}
	}
	orders, err := h.service.ListControlOrders(productionOrderID, c.Query("status"))
	respond(c, http.StatusOK, orders, err)
}

func (h *Handler) GetControlOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.GetControlOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) DispatchControlOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.DispatchControlOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) ListSupplyOrders(c *gin.Context) {
	orders, err := h.service.ListSupplyOrders(c.Query("status"))
	respond(c, http.StatusOK, orders, err)
}

func (h *Handler) GetSupplyOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.GetSupplyOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) FulfillSupplyOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.FulfillSupplyOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) RejectSupplyOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&req)
	order, err := h.service.RejectSupplyOrder(id, req.Notes)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) ListWorkstationOrders(c *gin.Context) {
	var workstationID uint
	if raw := c.Query("workstationId"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 32); err == nil {
			workstationID = uint(parsed)
		}
	}
	orders, err := h.service.ListWorkstationOrders(workstationID, c.Query("status"))
	respond(c, http.StatusOK, orders, err)
}

func (h *Handler) GetWorkstationOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.GetWorkstationOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) ConfirmWorkstationOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.ConfirmWorkstationOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) StartWorkstationOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.StartWorkstationOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) CompleteWorkstationOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.CompleteWorkstationOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) ListFinalAssemblyOrders(c *gin.Context) {
	orders, err := h.service.ListFinalAssemblyOrders(c.Query("status"))
	respond(c, http.StatusOK, orders, err)
}

func (h *Handler) GetFinalAssemblyOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.GetFinalAssemblyOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) ConfirmFinalAssemblyOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.ConfirmFinalAssemblyOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) StartFinalAssemblyOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.StartFinalAssemblyOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) CompleteFinalAssemblyOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.CompleteFinalAssembly(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) SubmitFinalAssemblyOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.service.SubmitFinalAssemblyOrder(id)
	respond(c, http.StatusOK, order, err)
}

func (h *Handler) GetLotSizeThreshold(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"key": models.ConfigKeyLotSizeThreshold, "value": h.service.LotSizeThreshold()})
}

func (h *Handler) SetLotSizeThreshold(c *gin.Context) {
	var req struct {
		Value int `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.BadRequest(apperrors.CodeOrderValidation, err.Error()))
		return
	}
	if err := h.service.SetLotSizeThreshold(req.Value); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": models.ConfigKeyLotSizeThreshold, "value": req.Value})
}
