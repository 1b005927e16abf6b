package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"callcampaign_backend/internal/contacts/service"
	"callcampaign_backend/internal/contacts/transport"
	"callcampaign_backend/platform/httpkit"
	"callcampaign_backend/platform/validator"
)

// Handler handles HTTP requests for contacts.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid contact id"
	msgMissingAgentID   = "agentId is required"
)

// New creates a new contact handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Import bulk-imports contact rows.
// POST /api/contacts/import
func (h *Handler) Import(c *gin.Context) {
	var req transport.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Import(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create creates a single contact.
// POST /api/contacts
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// List retrieves a contact page.
// GET /api/contacts
func (h *Handler) List(c *gin.Context) {
	var req transport.ListContactsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID retrieves one contact.
// GET /api/contacts/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Update updates contact fields.
// PUT /api/contacts/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Update(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete soft-deletes one contact.
// DELETE /api/contacts/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

// DeleteMany soft-deletes a batch of contacts.
// POST /api/contacts/delete
func (h *Handler) DeleteMany(c *gin.Context) {
	var req transport.DeleteManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	affected, err := h.svc.DeleteMany(c.Request.Context(), req.IDs)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.AffectedResponse{Affected: affected})
}

// DeleteNotCalled soft-deletes every not-called contact of an agent.
// DELETE /api/contacts/not-called/:agentId
func (h *Handler) DeleteNotCalled(c *gin.Context) {
	agentID := c.Param("agentId")
	if agentID == "" {
		httpkit.Error(c, http.StatusBadRequest, msgMissingAgentID, nil)
		return
	}

	affected, err := h.svc.DeleteNotCalled(c.Request.Context(), agentID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.AffectedResponse{Affected: affected})
}

// ResetStatuses resets the call status of an agent's contacts.
// POST /api/contacts/reset/:agentId
func (h *Handler) ResetStatuses(c *gin.Context) {
	agentID := c.Param("agentId")
	if agentID == "" {
		httpkit.Error(c, http.StatusBadRequest, msgMissingAgentID, nil)
		return
	}

	affected, err := h.svc.ResetStatuses(c.Request.Context(), agentID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.AffectedResponse{Affected: affected})
}

// ListTags returns the distinct tags of an agent's contacts.
// GET /api/contacts/tags/:agentId
func (h *Handler) ListTags(c *gin.Context) {
	agentID := c.Param("agentId")
	if agentID == "" {
		httpkit.Error(c, http.StatusBadRequest, msgMissingAgentID, nil)
		return
	}

	tags, err := h.svc.ListTags(c.Request.Context(), agentID)
	if httpkit.HandleError(c, err) {
		return
	}
	if tags == nil {
		tags = []string{}
	}
	httpkit.OK(c, transport.TagListResponse{Tags: tags})
}
