// Package calls provides the call reconciliation bounded context module.
package calls

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"callcampaign_backend/internal/calls/handler"
	"callcampaign_backend/internal/calls/repository"
	"callcampaign_backend/internal/calls/service"
	contactsrepo "callcampaign_backend/internal/contacts/repository"
	apphttp "callcampaign_backend/internal/http"
	"callcampaign_backend/platform/ai"
	"callcampaign_backend/platform/idempotency"
	"callcampaign_backend/platform/logger"
)

// Module is the call reconciliation module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the calls module.
func NewModule(pool *pgxpool.Pool, guard idempotency.Guard, lockTTL time.Duration, contacts contactsrepo.Repository, stats service.StatsRecorder, classifier ai.Classifier, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(guard, lockTTL, contacts, repo, stats, classifier, log)
	h := handler.New(svc, log)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "calls"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts webhook and call inspection routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.API.POST("/webhook", m.handler.Webhook)
	ctx.API.GET("/calls/:callId", m.handler.GetCallEvent)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
