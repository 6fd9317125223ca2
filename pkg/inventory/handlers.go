package inventory

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
	"github.com/smartfab/model-factory-mes/internal/middleware"
	"github.com/smartfab/model-factory-mes/internal/models"
)

type Handler struct {
	service          *Service
	defaultThreshold int
}

func NewHandler(service *Service, defaultThreshold int) *Handler {
	return &Handler{service: service, defaultThreshold: defaultThreshold}
}

// RegisterRoutes mounts the stock API. Reads are open to any authenticated
// user; mutations require an operator or admin.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	stock := protected.Group("/stock")
	{
		stock.GET("", h.GetStock)
		stock.GET("/alerts", h.GetAlerts)
		stock.GET("/ledger", h.GetLedger)
		stock.POST("/adjust", h.requireMutationRole(), h.Adjust)
	}
}

// requireMutationRole differs from middleware.RequireRole only in the error
// body: inventory mutations surface the inventory error code.
func (h *Handler) requireMutationRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role != models.RoleOperator && role != models.RoleAdmin {
			apperrors.Respond(c, apperrors.Forbidden(apperrors.CodeInventoryUnauthorized,
				"stock mutations require an operator or admin role"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func queryUint(c *gin.Context, name string) uint {
	value, err := strconv.ParseUint(c.Query(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(value)
}

func (h *Handler) GetStock(c *gin.Context) {
	filter := StockFilter{
		WorkstationID: queryUint(c, "workstationId"),
		ItemType:      c.Query("itemType"),
		ItemID:        queryUint(c, "itemId"),
	}
	records, err := h.service.GetStock(filter)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) Adjust(c *gin.Context) {
	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.BadRequest(apperrors.CodeInventoryValidation, err.Error()))
		return
	}
	req.Actor = middleware.Actor(c)

	record, err := h.service.Adjust(req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) GetAlerts(c *gin.Context) {
	threshold := h.defaultThreshold
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			apperrors.Respond(c, apperrors.BadRequest(apperrors.CodeInventoryValidation, "threshold must be an integer"))
			return
		}
		threshold = parsed
	}

	alerts, err := h.service.ListAlerts(threshold)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *Handler) GetLedger(c *gin.Context) {
	filter := StockFilter{
		WorkstationID: queryUint(c, "workstationId"),
		ItemType:      c.Query("itemType"),
		ItemID:        queryUint(c, "itemId"),
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	entries, err := h.service.Ledger(filter, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
