package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"orcamento_backend/internal/adapters/storage"
	"orcamento_backend/internal/invoices/service"
	"orcamento_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueArchivePDFDeduplicatesPerInvoice(t *testing.T) {
	mr := miniredis.RunT(t)
	opt := asynq.RedisClientOpt{Addr: mr.Addr()}

	client := newClient(opt, "invoices")
	t.Cleanup(func() { _ = client.Close() })

	payload := ArchiveInvoicePDFPayload{InvoiceID: uuid.NewString(), Code: "ORC-000042"}
	require.NoError(t, client.EnqueueArchivePDF(context.Background(), payload))
	require.NoError(t, client.EnqueueArchivePDF(context.Background(), payload))

	inspector := asynq.NewInspector(opt)
	t.Cleanup(func() { _ = inspector.Close() })

	pending, err := inspector.ListPendingTasks("invoices")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, TaskArchiveInvoicePDF, pending[0].Type)
	assert.Equal(t, archiveMaxRetry, pending[0].MaxRetry)

	parsed, err := ParseArchiveInvoicePDFPayload(asynq.NewTask(pending[0].Type, pending[0].Payload))
	require.NoError(t, err)
	assert.Equal(t, payload, parsed)
}

func TestNilClientIsNoop(t *testing.T) {
	var client *Client
	assert.NoError(t, client.EnqueueArchivePDF(context.Background(), ArchiveInvoicePDFPayload{}))
	assert.NoError(t, client.Close())
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("rediss://:secret@cache.internal:6380/2", true)
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opt.Addr)
	assert.Equal(t, "secret", opt.Password)
	assert.Equal(t, 2, opt.DB)
	require.NotNil(t, opt.TLSConfig)
	assert.True(t, opt.TLSConfig.InsecureSkipVerify)

	opt, err = redisClientOpt("redis://localhost:6379/0", false)
	require.NoError(t, err)
	assert.Nil(t, opt.TLSConfig)
}

type fakeRenderer struct {
	doc *service.RenderedPDF
	err error
}

func (r fakeRenderer) RenderPDF(context.Context, uuid.UUID) (*service.RenderedPDF, error) {
	return r.doc, r.err
}

type putCall struct {
	bucket, key, contentType string
	body                     []byte
}

type fakeObjectStore struct {
	storage.ObjectStore

	mu    sync.Mutex
	calls []putCall
}

func (s *fakeObjectStore) PutObject(_ context.Context, bucket, key, contentType string, reader io.Reader, _ int64) error {
	body, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, putCall{bucket: bucket, key: key, contentType: contentType, body: body})
	return nil
}

func archiveTask(t *testing.T, invoiceID string) *asynq.Task {
	t.Helper()
	task, err := NewArchiveInvoicePDFTask(ArchiveInvoicePDFPayload{InvoiceID: invoiceID, Code: "ORC-000042"})
	require.NoError(t, err)
	return task
}

func TestHandleArchivePDFUploadsRenderedDocument(t *testing.T) {
	store := &fakeObjectStore{}
	w := &Worker{
		renderer: fakeRenderer{doc: &service.RenderedPDF{Code: "ORC-000042", Content: []byte("%PDF-1.3")}},
		store:    store,
		bucket:   "invoice-pdfs",
		log:      logger.Nop(),
	}

	require.NoError(t, w.handleArchivePDF(context.Background(), archiveTask(t, uuid.NewString())))

	require.Len(t, store.calls, 1)
	assert.Equal(t, putCall{
		bucket:      "invoice-pdfs",
		key:         "invoices/ORC-000042.pdf",
		contentType: "application/pdf",
		body:        []byte("%PDF-1.3"),
	}, store.calls[0])
}

func TestHandleArchivePDFErrors(t *testing.T) {
	w := &Worker{
		renderer: fakeRenderer{err: errors.New("db down")},
		store:    &fakeObjectStore{},
		log:      logger.Nop(),
	}

	err := w.handleArchivePDF(context.Background(), archiveTask(t, "not-a-uuid"))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = w.handleArchivePDF(context.Background(), asynq.NewTask(TaskArchiveInvoicePDF, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = w.handleArchivePDF(context.Background(), archiveTask(t, uuid.NewString()))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleArchivePDFWithoutStorage(t *testing.T) {
	w := &Worker{renderer: fakeRenderer{err: errors.New("unused")}, log: logger.Nop()}
	assert.NoError(t, w.handleArchivePDF(context.Background(), archiveTask(t, uuid.NewString())))
}

type countingExpirer struct {
	calls atomic.Int32
	err   error
}

func (e *countingExpirer) ExpireOverdue(context.Context) (int, error) {
	e.calls.Add(1)
	return 3, e.err
}

func TestExpirySweepRunsImmediatelyAndOnTick(t *testing.T) {
	expirer := &countingExpirer{}
	sweep := NewExpirySweep(expirer, logger.Nop(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweep.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return expirer.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep did not stop after cancel")
	}
}

func TestExpirySweepSurvivesErrors(t *testing.T) {
	expirer := &countingExpirer{err: errors.New("timeout")}
	sweep := NewExpirySweep(expirer, logger.Nop(), 0)
	assert.Equal(t, defaultExpirySweepInterval, sweep.interval)

	sweep.sweep(context.Background())
	sweep.sweep(context.Background())
	assert.Equal(t, int32(2), expirer.calls.Load())
}
