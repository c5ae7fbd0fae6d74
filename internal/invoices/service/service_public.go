package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"orcamento_backend/internal/events"
	"orcamento_backend/internal/invoices/domain"
	"orcamento_backend/internal/invoices/repository"
	"orcamento_backend/internal/invoices/transport"
	"orcamento_backend/platform/apperr"
	"orcamento_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	msgUnavailable    = "quote is no longer available"
	msgReasonRequired = "a reason is required"

	publicTokenBytes = 32
)

func errUnavailable() error { return apperr.Gone(msgUnavailable) }

// GetPublic returns the customer view of an invoice reached through its public link.
func (s *Service) GetPublic(ctx context.Context, token string) (*transport.PublicInvoiceResponse, error) {
	inv, err := s.openPublic(ctx, token)
	if err != nil {
		return nil, err
	}
	view, err := s.hydrate(ctx, inv, false)
	if err != nil {
		return nil, err
	}
	return s.toPublicResponse(view), nil
}

// Approve records the customer's approval.
func (s *Service) Approve(ctx context.Context, token string) (*transport.PublicInvoiceResponse, error) {
	return s.respond(ctx, token, domain.StatusApproved, "")
}

// Refuse records the customer's refusal. A reason is required.
func (s *Service) Refuse(ctx context.Context, token, reason string) (*transport.PublicInvoiceResponse, error) {
	reason = sanitize.Text(reason)
	if reason == "" {
		return nil, apperr.Validation(msgReasonRequired)
	}
	return s.respond(ctx, token, domain.StatusRefused, reason)
}

// Abandon records that the customer gave up on the quote. A reason is required.
func (s *Service) Abandon(ctx context.Context, token, reason string) (*transport.PublicInvoiceResponse, error) {
	reason = sanitize.Text(reason)
	if reason == "" {
		return nil, apperr.Validation(msgReasonRequired)
	}
	return s.respond(ctx, token, domain.StatusAbandoned, reason)
}

// respond applies a customer decision. The gate is evaluated again on the
// locked row so a concurrent change cannot slip through.
func (s *Service) respond(ctx context.Context, token string, to domain.Status, reason string) (*transport.PublicInvoiceResponse, error) {
	opened, err := s.openPublic(ctx, token)
	if err != nil {
		return nil, err
	}

	var (
		from    domain.Status
		updated *repository.Invoice
	)
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		inv, err := tx.GetByIDForUpdate(ctx, opened.ID)
		if err != nil {
			return err
		}
		now := s.now()
		if !domain.EvaluatePublicAccess(inv.PublicURLActive, inv.Status, inv.ProposalValidDate, now).Allowed {
			return errUnavailable()
		}
		if err := domain.ValidateTransition(inv.Status, to); err != nil {
			return err
		}
		if err := domain.EnsureAwaitingResponse(inv.Status); err != nil {
			return err
		}

		stamp := &repository.ResponseStamp{Status: to, Date: now}
		if reason != "" {
			stamp.Reason = &reason
		}
		if err := tx.UpdateStatus(ctx, inv.ID, to, stamp, now); err != nil {
			return err
		}

		from = inv.Status
		inv.Status = to
		inv.ClientResponseStatus = stringPtr(string(to))
		inv.ClientResponseDate = &stamp.Date
		inv.ClientResponseReason = stamp.Reason
		inv.UpdatedAt = now
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.statusChanged(ctx, updated.ID, updated.Code, from, to, events.SourcePublic)
	s.publishDecision(ctx, updated, reason)

	view, err := s.hydrate(ctx, updated, false)
	if err != nil {
		return nil, err
	}
	return s.toPublicResponse(view), nil
}

func (s *Service) publishDecision(ctx context.Context, inv *repository.Invoice, reason string) {
	if s.eventBus == nil {
		return
	}
	base := events.NewBaseEventAt(s.now())
	switch inv.Status {
	case domain.StatusApproved:
		s.eventBus.Publish(ctx, events.InvoiceApproved{
			BaseEvent:  base,
			InvoiceID:  inv.ID,
			Code:       inv.Code,
			ClientName: inv.ClientName,
			FinalTotal: inv.FinalAmount.StringFixed(2),
		})
	case domain.StatusRefused:
		s.eventBus.Publish(ctx, events.InvoiceRefused{
			BaseEvent:  base,
			InvoiceID:  inv.ID,
			Code:       inv.Code,
			ClientName: inv.ClientName,
			Reason:     reason,
		})
	case domain.StatusAbandoned:
		s.eventBus.Publish(ctx, events.InvoiceAbandoned{
			BaseEvent:  base,
			InvoiceID:  inv.ID,
			Code:       inv.Code,
			ClientName: inv.ClientName,
			Reason:     reason,
		})
	}
}

// openPublic resolves a token and runs the access gate. An overdue open
// invoice is moved to EXPIRED on a best-effort basis; the caller is denied
// either way.
func (s *Service) openPublic(ctx context.Context, token string) (*repository.Invoice, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.NotFound("invoice not found")
	}
	inv, err := s.store.GetByPublicURL(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.now()
	access := domain.EvaluatePublicAccess(inv.PublicURLActive, inv.Status, inv.ProposalValidDate, now)
	if access.ExpireNow {
		s.expireLazily(ctx, inv)
	}
	if !access.Allowed {
		return nil, errUnavailable()
	}
	return inv, nil
}

func (s *Service) expireLazily(ctx context.Context, inv *repository.Invoice) {
	changed, err := s.store.ExpireIfOpen(ctx, inv.ID, s.now())
	if err != nil {
		s.log.WithContext(ctx).Warn("lazy expiry failed", "invoice_id", inv.ID.String(), "error", err)
		return
	}
	if changed {
		s.statusChanged(ctx, inv.ID, inv.Code, inv.Status, domain.StatusExpired, events.SourceExpiry)
	}
	inv.Status = domain.StatusExpired
}

// RegeneratePublicURL issues a new public token. The previous link stops working.
func (s *Service) RegeneratePublicURL(ctx context.Context, id uuid.UUID) (*transport.PublicURLResponse, error) {
	token, err := generatePublicToken()
	if err != nil {
		return nil, err
	}
	if err := s.store.SetPublicURL(ctx, id, token, s.now()); err != nil {
		return nil, err
	}
	return s.publicURLResponse(ctx, id)
}

// TogglePublicURL enables or disables the public link.
func (s *Service) TogglePublicURL(ctx context.Context, id uuid.UUID, active bool) (*transport.PublicURLResponse, error) {
	if err := s.store.SetPublicURLActive(ctx, id, active, s.now()); err != nil {
		return nil, err
	}
	return s.publicURLResponse(ctx, id)
}

func (s *Service) publicURLResponse(ctx context.Context, id uuid.UUID) (*transport.PublicURLResponse, error) {
	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &transport.PublicURLResponse{
		PublicURL:       inv.PublicURL,
		PublicLink:      s.publicLink(inv.PublicURL),
		PublicURLActive: inv.PublicURLActive,
	}, nil
}

func generatePublicToken() (string, error) {
	buf := make([]byte, publicTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate public token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func stringPtr(s string) *string { return &s }
