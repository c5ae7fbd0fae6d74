package scheduler

import (
	"context"
	"time"

	"orcamento_backend/platform/logger"
)

const defaultExpirySweepInterval = 15 * time.Minute

// Expirer moves overdue open invoices to EXPIRED and reports how many changed.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// ExpirySweep periodically expires invoices past their validity date.
type ExpirySweep struct {
	expirer  Expirer
	log      *logger.Logger
	interval time.Duration
}

func NewExpirySweep(expirer Expirer, log *logger.Logger, interval time.Duration) *ExpirySweep {
	if interval <= 0 {
		interval = defaultExpirySweepInterval
	}
	return &ExpirySweep{
		expirer:  expirer,
		log:      log,
		interval: interval,
	}
}

func (s *ExpirySweep) Run(ctx context.Context) {
	if s == nil || s.expirer == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *ExpirySweep) sweep(ctx context.Context) {
	expired, err := s.expirer.ExpireOverdue(ctx)
	if err != nil {
		s.log.Warn("invoice expiry sweep failed", "error", err)
		return
	}

	if expired > 0 {
		s.log.Info("invoice expiry sweep expired invoices", "expired", expired)
	}
}
