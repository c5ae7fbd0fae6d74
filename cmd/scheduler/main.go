package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orcamento_backend/internal/adapters/storage"
	"orcamento_backend/internal/events"
	"orcamento_backend/internal/invoices"
	"orcamento_backend/internal/pdf"
	"orcamento_backend/internal/scheduler"
	"orcamento_backend/platform/branding"
	"orcamento_backend/platform/config"
	"orcamento_backend/platform/db"
	"orcamento_backend/platform/logger"
	"orcamento_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	company, err := branding.Load(cfg)
	if err != nil {
		log.Error("failed to load company branding", "error", err)
		panic("failed to load company branding: " + err.Error())
	}

	// Worker-side invoice wiring (no HTTP handlers required).
	invoicesModule := invoices.NewModule(pool, eventBus, validator.New(), pdf.NewGenerator(), invoices.ServiceOptions(cfg, company), log)

	expirySweep := scheduler.NewExpirySweep(invoicesModule.Service(), log, cfg.GetExpirySweepInterval())
	go expirySweep.Run(ctx)

	if !cfg.IsSchedulerEnabled() {
		log.Warn("REDIS_URL not configured; running expiry sweep only")
		<-ctx.Done()
		eventBus.Wait()
		return
	}

	objectStore := initObjectStore(ctx, cfg, log)

	worker, err := scheduler.NewWorker(cfg, invoicesModule.Service(), objectStore, cfg.GetMinioBucketInvoicePDFs(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	eventBus.Wait()
}

// initObjectStore returns nil when MinIO is not configured; archive jobs are then skipped.
func initObjectStore(ctx context.Context, cfg config.MinIOConfig, log *logger.Logger) storage.ObjectStore {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; invoice pdf archiving disabled")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinioBucketInvoicePDFs()
	if err := withRetry(ctx, log, "ensure invoice-pdfs bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "invoicePDFsBucket", bucket)

	return storageSvc
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
