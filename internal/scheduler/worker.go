package scheduler

import (
	"bytes"
	"context"
	"fmt"

	"orcamento_backend/internal/adapters/storage"
	"orcamento_backend/internal/invoices/service"
	"orcamento_backend/platform/config"
	"orcamento_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// PDFRenderer renders the current PDF of an invoice.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, id uuid.UUID) (*service.RenderedPDF, error)
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	renderer PDFRenderer
	store    storage.ObjectStore
	bucket   string
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, renderer PDFRenderer, store storage.ObjectStore, bucket string, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueue()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 5
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		renderer: renderer,
		store:    store,
		bucket:   bucket,
		log:      log,
	}

	mux.HandleFunc(TaskArchiveInvoicePDF, w.handleArchivePDF)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleArchivePDF(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseArchiveInvoicePDFPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	invoiceID, err := uuid.Parse(payload.InvoiceID)
	if err != nil {
		return fmt.Errorf("invalid invoice id %q: %w", payload.InvoiceID, asynq.SkipRetry)
	}

	if w.store == nil {
		w.log.Warn("pdf archive skipped: object storage not configured", "invoiceId", invoiceID)
		return nil
	}

	doc, err := w.renderer.RenderPDF(ctx, invoiceID)
	if err != nil {
		return fmt.Errorf("render invoice %s: %w", invoiceID, err)
	}

	key := storage.InvoicePDFKey(doc.Code)
	if err := w.store.PutObject(ctx, w.bucket, key, "application/pdf", bytes.NewReader(doc.Content), int64(len(doc.Content))); err != nil {
		return err
	}

	w.log.Info("invoice pdf archived", "invoiceId", invoiceID, "code", doc.Code, "key", key)
	return nil
}
