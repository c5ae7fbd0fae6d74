package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"orcamento_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const archiveMaxRetry = 5

type Client struct {
	client *asynq.Client
	queue  string
}

// ArchiveScheduler queues the archiving of an invoice PDF.
type ArchiveScheduler interface {
	EnqueueArchivePDF(ctx context.Context, payload ArchiveInvoicePDFPayload) error
}

var _ ArchiveScheduler = (*Client)(nil)

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return newClient(opt, cfg.GetAsynqQueue()), nil
}

func newClient(opt asynq.RedisConnOpt, queue string) *Client {
	if queue == "" {
		queue = "default"
	}
	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueArchivePDF queues one archive job per invoice. A job already
// waiting for the same invoice is left in place.
func (c *Client) EnqueueArchivePDF(ctx context.Context, payload ArchiveInvoicePDFPayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewArchiveInvoicePDFTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.TaskID("archive-pdf:"+payload.InvoiceID),
		asynq.MaxRetry(archiveMaxRetry),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
