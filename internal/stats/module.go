// Package stats provides the statistics bounded context module.
package stats

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	contactsrepo "callcampaign_backend/internal/contacts/repository"
	contactssvc "callcampaign_backend/internal/contacts/service"
	apphttp "callcampaign_backend/internal/http"
	"callcampaign_backend/internal/stats/handler"
	"callcampaign_backend/internal/stats/repository"
	"callcampaign_backend/internal/stats/service"
	"callcampaign_backend/platform/logger"
	"callcampaign_backend/platform/validator"
)

// Module is the statistics bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the statistics module.
func NewModule(pool *pgxpool.Pool, contacts contactsrepo.Repository, contactQ *contactssvc.Service, jobs service.LastScheduleSource, loc *time.Location, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, contacts, contactQ, jobs, loc, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "stats"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts statistics routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.API.POST("/stats/query", m.handler.Query)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
