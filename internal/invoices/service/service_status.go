package service

import (
	"context"
	"strings"

	"orcamento_backend/internal/events"
	"orcamento_backend/internal/invoices/domain"
	"orcamento_backend/internal/invoices/repository"
	"orcamento_backend/internal/invoices/transport"

	"github.com/google/uuid"
)

// ChangeStatus moves an invoice to another status on behalf of an operator.
// Moving to ABANDONED, DESISTED or REFUSED with a reason records the client response.
// Asking for the current status writes nothing.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, req transport.ChangeStatusRequest) (*transport.InvoiceResponse, error) {
	to, err := domain.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	var before repository.Invoice
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		inv, err := tx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := domain.ValidateTransition(inv.Status, to); err != nil {
			return err
		}
		before = *inv
		if inv.Status == to {
			return nil
		}

		now := s.now()
		var stamp *repository.ResponseStamp
		if reason := strings.TrimSpace(derefString(req.Reason)); reason != "" && domain.RequiresResponseStamp(to) {
			stamp = &repository.ResponseStamp{Status: to, Date: now, Reason: &reason}
		}
		return tx.UpdateStatus(ctx, id, to, stamp, now)
	})
	if err != nil {
		return nil, err
	}

	s.statusChanged(ctx, before.ID, before.Code, before.Status, to, events.SourceOperator)
	return s.FindOne(ctx, id)
}

// ExpireOverdue moves every DRAFT or READY invoice past its validity date to
// EXPIRED and returns how many changed.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	expired, err := s.store.ExpireOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for _, e := range expired {
		s.statusChanged(ctx, e.ID, e.Code, e.PreviousStatus, domain.StatusExpired, events.SourceExpiry)
	}
	if len(expired) > 0 {
		s.log.WithContext(ctx).Info("invoices_expired", "count", len(expired))
	}
	return len(expired), nil
}

// statusChanged logs and publishes a persisted transition. Same-status
// writes are silent.
func (s *Service) statusChanged(ctx context.Context, id uuid.UUID, code string, from, to domain.Status, source string) {
	if from == to {
		return
	}
	s.log.WithContext(ctx).StatusChange(id.String(), string(from), string(to), source)
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, events.InvoiceStatusChanged{
		BaseEvent:  events.NewBaseEventAt(s.now()),
		InvoiceID:  id,
		Code:       code,
		FromStatus: string(from),
		ToStatus:   string(to),
		Source:     source,
	})
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
