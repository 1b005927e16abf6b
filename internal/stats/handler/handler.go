package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"callcampaign_backend/internal/stats/service"
	"callcampaign_backend/internal/stats/transport"
	"callcampaign_backend/platform/httpkit"
	"callcampaign_backend/platform/validator"
)

// Handler handles HTTP requests for statistics.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new statistics handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Query returns aggregated statistics for the requested agents and period.
// POST /api/stats/query
func (h *Handler) Query(c *gin.Context) {
	var req transport.StatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.svc.Query(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
