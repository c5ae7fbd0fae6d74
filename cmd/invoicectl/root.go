package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"orcamento_backend/internal/events"
	"orcamento_backend/internal/invoices"
	"orcamento_backend/internal/invoices/service"
	"orcamento_backend/internal/pdf"
	"orcamento_backend/platform/branding"
	"orcamento_backend/platform/config"
	"orcamento_backend/platform/db"
	"orcamento_backend/platform/logger"
	"orcamento_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "invoicectl",
	Short: "Operational commands for the orçamento service",
	Long: `invoicectl runs maintenance tasks against the same database and
configuration as the API: schema migrations, the expiry sweep, offline PDF
rendering and code sequence inspection.

Configuration is read from the environment (and .env), as for the API.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd, expireCmd, pdfCmd, nextCodeCmd)
}

// env is what every command needs: config, a logger and a pool.
type env struct {
	cfg  *config.Config
	log  *logger.Logger
	pool *pgxpool.Pool
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Env)

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &env{cfg: cfg, log: log, pool: pool}, nil
}

func (e *env) Close() {
	e.pool.Close()
}

func (e *env) invoiceService() (*service.Service, error) {
	company, err := branding.Load(e.cfg)
	if err != nil {
		return nil, err
	}
	bus := events.NewInMemoryBus(e.log)
	module := invoices.NewModule(e.pool, bus, validator.New(), pdf.NewGenerator(), invoices.ServiceOptions(e.cfg, company), e.log)
	return module.Service(), nil
}
