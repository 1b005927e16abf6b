package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"callcampaign_backend/internal/campaigns/service"
	"callcampaign_backend/internal/campaigns/transport"
	"callcampaign_backend/platform/httpkit"
	"callcampaign_backend/platform/validator"
)

// Handler handles HTTP requests for campaign jobs.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidJobID     = "invalid job id"
)

// New creates a new campaign handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Schedule arms a new campaign dispatch.
// POST /api/campaigns/schedule
func (h *Handler) Schedule(c *gin.Context) {
	var req transport.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Schedule(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// Cancel cancels a pending or running campaign job.
// POST /api/campaigns/:id/cancel
func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidJobID, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.Cancel(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, gin.H{"cancelled": true})
}

// ListScheduled lists the live dispatch timers.
// GET /api/campaigns/scheduled
func (h *Handler) ListScheduled(c *gin.Context) {
	result, err := h.svc.ListScheduled(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Get retrieves one job.
// GET /api/campaigns/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidJobID, nil)
		return
	}

	result, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListByAgent lists the agent's jobs.
// GET /api/campaigns/agent/:agentId
func (h *Handler) ListByAgent(c *gin.Context) {
	agentID := c.Param("agentId")
	if agentID == "" {
		httpkit.Error(c, http.StatusBadRequest, "agentId is required", nil)
		return
	}

	result, err := h.svc.ListByAgent(c.Request.Context(), agentID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListAll lists recent jobs across agents.
// GET /api/campaigns
func (h *Handler) ListAll(c *gin.Context) {
	result, err := h.svc.ListAll(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
