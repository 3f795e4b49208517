package handlers

import (
	"errors"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"availability-service/internal/metrics"
	"availability-service/internal/models"
	"availability-service/internal/scheduler"
	"availability-service/internal/telemetry"
)

type PlanHandler struct {
	plans *scheduler.PlanScheduler
	audit *telemetry.AuditEmitter
}

func NewPlanHandler(plans *scheduler.PlanScheduler, audit *telemetry.AuditEmitter) *PlanHandler {
	return &PlanHandler{plans: plans, audit: audit}
}

type planBody struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Note      string `json:"note"`
}

func (h *PlanHandler) CreatePlan(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID := userIDFromContext(c)

	var body planBody
	if err := c.ShouldBindJSON(&body); err != nil {
		metrics.IncPlanOp("save", metrics.StatusFailed)
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	plan := models.Plan{
		OwnerID:   userID,
		StartDate: body.StartDate,
		EndDate:   body.EndDate,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Note:      body.Note,
	}

	id, err := h.plans.Save(c.Request.Context(), plan)
	if err != nil {
		h.failPlanOp(c, "save", requestID, userID, err)
		return
	}

	h.emitAudit(c, "INFO", "Plan created", requestID, userID)
	metrics.IncPlanOp("save", metrics.StatusSuccess)
	c.JSON(nethttp.StatusCreated, gin.H{"id": id})
}

func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID := userIDFromContext(c)

	var body planBody
	if err := c.ShouldBindJSON(&body); err != nil {
		metrics.IncPlanOp("update", metrics.StatusFailed)
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	plan := models.Plan{
		ID:        c.Param("id"),
		OwnerID:   userID,
		StartDate: body.StartDate,
		EndDate:   body.EndDate,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Note:      body.Note,
	}

	if err := h.plans.Update(c.Request.Context(), plan); err != nil {
		h.failPlanOp(c, "update", requestID, userID, err)
		return
	}

	h.emitAudit(c, "INFO", "Plan updated", requestID, userID)
	metrics.IncPlanOp("update", metrics.StatusSuccess)
	c.JSON(nethttp.StatusOK, gin.H{"status": "updated"})
}

func (h *PlanHandler) DeletePlan(c *gin.Context) {
	requestID := requestIDFromHeader(c)
	userID := userIDFromContext(c)

	if err := h.plans.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.failPlanOp(c, "delete", requestID, userID, err)
		return
	}

	h.emitAudit(c, "INFO", "Plan deleted", requestID, userID)
	metrics.IncPlanOp("delete", metrics.StatusSuccess)
	c.Status(nethttp.StatusNoContent)
}

func (h *PlanHandler) ListPlans(c *gin.Context) {
	userID := userIDFromContext(c)

	plans, err := h.plans.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(planStatusCode(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(nethttp.StatusOK, plans)
}

// PlannedDays answers GET /plans/days?year=2026&month=5 with the days
// of that month touched by any plan, for calendar highlighting.
func (h *PlanHandler) PlannedDays(c *gin.Context) {
	userID := userIDFromContext(c)

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}

	days, err := h.plans.PlannedDaysForMonth(c.Request.Context(), userID, year, time.Month(month))
	if err != nil {
		c.JSON(planStatusCode(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(nethttp.StatusOK, gin.H{"days": days})
}

func (h *PlanHandler) failPlanOp(c *gin.Context, op, requestID, userID string, err error) {
	if errors.Is(err, scheduler.ErrOverlappingPlan) {
		metrics.IncPlanConflict()
	}
	h.emitAudit(c, "ERROR", "plan "+op+" failed: "+err.Error(), requestID, userID)
	metrics.IncPlanOp(op, metrics.StatusFailed)
	c.JSON(planStatusCode(err), gin.H{"error": err.Error()})
}

// planStatusCode is the one place scheduler failure kinds become HTTP
// statuses.
func planStatusCode(err error) int {
	switch {
	case errors.Is(err, scheduler.ErrUnauthorized):
		return nethttp.StatusUnauthorized
	case errors.Is(err, scheduler.ErrInvalidPlanData), errors.Is(err, scheduler.ErrPastDateTime):
		return nethttp.StatusBadRequest
	case errors.Is(err, scheduler.ErrOverlappingPlan):
		return nethttp.StatusConflict
	case errors.Is(err, scheduler.ErrPlanNotFound):
		return nethttp.StatusNotFound
	case errors.Is(err, scheduler.ErrNetworkUnavailable):
		return nethttp.StatusServiceUnavailable
	default:
		return nethttp.StatusInternalServerError
	}
}

func (h *PlanHandler) emitAudit(c *gin.Context, level, text, requestID, userID string) {
	if h.audit == nil {
		return
	}
	h.audit.EmitAudit(c.Request.Context(), level, text, requestID, userID)
}
