package scheduler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartfab/model-factory-mes/internal/apperrors"
)

// Handler serves the SimAL schedule contract locally through the embedded
// planner, so the dev profile exposes the same wire surface as a deployment
// with the real engine.
type Handler struct {
	planner Planner
}

func NewHandler(planner Planner) *Handler {
	return &Handler{planner: planner}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.POST("/simal/schedules", h.CreateSchedule)
}

func (h *Handler) CreateSchedule(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.BadRequest(apperrors.CodeOrderPlanningError, err.Error()))
		return
	}
	if len(req.LineItems) == 0 {
		apperrors.Respond(c, apperrors.BadRequest(apperrors.CodeOrderPlanningError, "lineItems must not be empty"))
		return
	}

	schedule, err := h.planner.Plan(c.Request.Context(), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}
