// Package campaigns provides the campaign scheduling bounded context module.
package campaigns

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"callcampaign_backend/internal/calls/provider"
	"callcampaign_backend/internal/campaigns/handler"
	"callcampaign_backend/internal/campaigns/repository"
	"callcampaign_backend/internal/campaigns/service"
	contactsrepo "callcampaign_backend/internal/contacts/repository"
	apphttp "callcampaign_backend/internal/http"
	"callcampaign_backend/platform/logger"
	"callcampaign_backend/platform/validator"
)

// Module is the campaign scheduling module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the campaign module.
func NewModule(pool *pgxpool.Pool, contacts contactsrepo.Repository, dispatcher service.DispatchScheduler, dialer provider.Dialer, dialsPerSecond float64, loc *time.Location, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, contacts, dispatcher, dialer, dialsPerSecond, loc, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "campaigns"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the job registry for cross-module access.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts campaign routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.API.Group("/campaigns")
	group.POST("/schedule", m.handler.Schedule)
	group.GET("/scheduled", m.handler.ListScheduled)
	group.GET("", m.handler.ListAll)
	group.GET("/agent/:agentId", m.handler.ListByAgent)
	group.GET("/:id", m.handler.Get)
	group.POST("/:id/cancel", m.handler.Cancel)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
