// Package invoices provides the orçamento (invoice) domain module.
package invoices

import (
	"orcamento_backend/internal/events"
	apphttp "orcamento_backend/internal/http"
	"orcamento_backend/internal/invoices/handler"
	"orcamento_backend/internal/invoices/repository"
	"orcamento_backend/internal/invoices/service"
	"orcamento_backend/internal/invoices/transport"
	"orcamento_backend/platform/branding"
	"orcamento_backend/platform/config"
	"orcamento_backend/platform/logger"
	"orcamento_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the invoices domain module
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	service       *service.Service
}

// Config is the configuration the invoice service reads at startup.
type Config interface {
	config.InvoiceCodeConfig
	config.PublicLinkConfig
}

// ServiceOptions builds the service options from configuration and branding.
func ServiceOptions(cfg Config, company branding.Company) service.Options {
	return service.Options{
		CodePrefix: cfg.GetInvoiceCodePrefix(),
		CodeWidth:  cfg.GetInvoiceCodeWidth(),
		AppBaseURL: cfg.GetAppBaseURL(),
		Company:    company,
	}
}

// NewModule creates a new invoices module with all dependencies wired
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, renderer service.Renderer, opts service.Options, log *logger.Logger) *Module {
	transport.RegisterValidations(val)

	repo := repository.New(pool)
	svc := service.New(repo, eventBus, renderer, opts, log)

	return &Module{
		handler:       handler.New(svc, val),
		publicHandler: handler.NewPublicHandler(svc, val),
		service:       svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "invoices"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/invoices"))

	// Public routes: rate limited, no auth middleware
	m.publicHandler.RegisterRoutes(ctx.Public.Group("/invoices"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
