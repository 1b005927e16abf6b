// Package contacts provides the contact bounded context module.
package contacts

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"callcampaign_backend/internal/contacts/handler"
	"callcampaign_backend/internal/contacts/repository"
	"callcampaign_backend/internal/contacts/service"
	apphttp "callcampaign_backend/internal/http"
	"callcampaign_backend/platform/logger"
	"callcampaign_backend/platform/validator"
)

// Module is the contact bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the contact module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "contacts"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for cross-module access.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts contact routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.API.Group("/contacts")
	group.POST("/import", m.handler.Import)
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.GetByID)
	group.PUT("/:id", m.handler.Update)
	group.DELETE("/:id", m.handler.Delete)
	group.POST("/delete", m.handler.DeleteMany)
	group.DELETE("/not-called/:agentId", m.handler.DeleteNotCalled)
	group.POST("/reset/:agentId", m.handler.ResetStatuses)
	group.GET("/tags/:agentId", m.handler.ListTags)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
