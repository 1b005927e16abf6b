package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"callcampaign_backend/internal/calls/service"
	"callcampaign_backend/internal/calls/transport"
	"callcampaign_backend/platform/httpkit"
	"callcampaign_backend/platform/logger"
)

// Handler handles the provider webhook and call event inspection.
type Handler struct {
	svc *service.Service
	log *logger.Logger
}

// New creates a new calls handler.
func New(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Webhook receives provider call-lifecycle events. The provider retries
// non-2xx responses, so every delivery is acknowledged: failures are
// logged and the idempotency lock keeps retries from replaying them.
// POST /api/webhook
func (h *Handler) Webhook(c *gin.Context) {
	var req transport.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("malformed webhook payload", "error", err)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	if err := h.svc.HandleEvent(c.Request.Context(), req); err != nil {
		h.log.Error("webhook reconciliation failed",
			"event", req.Event, "call_id", req.Call.CallID, "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetCallEvent returns the stored record of one call.
// GET /api/calls/:callId
func (h *Handler) GetCallEvent(c *gin.Context) {
	callID := c.Param("callId")
	if callID == "" {
		httpkit.Error(c, http.StatusBadRequest, "callId is required", nil)
		return
	}

	result, err := h.svc.GetCallEvent(c.Request.Context(), callID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
