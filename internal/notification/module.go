// Package notification reacts to customer decisions on invoices. It inverts
// the dependency: the invoice module publishes events and never sees mail
// providers or job queues.
package notification

import (
	"context"
	"fmt"

	"orcamento_backend/internal/email"
	"orcamento_backend/internal/events"
	"orcamento_backend/internal/invoices/domain"
	"orcamento_backend/internal/invoices/service"
	"orcamento_backend/internal/pdf"
	"orcamento_backend/internal/scheduler"
	"orcamento_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Config provides the notification recipient and link base.
type Config interface {
	GetNotifyEmail() string
	GetAppBaseURL() string
}

// PDFRenderer renders an invoice PDF to attach to approval mails.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, id uuid.UUID) (*service.RenderedPDF, error)
}

// Module handles the invoice decision event subscriptions.
type Module struct {
	sender   email.Sender
	cfg      Config
	log      *logger.Logger
	archiver scheduler.ArchiveScheduler
	pdfs     PDFRenderer
	printer  *message.Printer
}

// New creates a notification module. A nil sender disables mail.
func New(sender email.Sender, cfg Config, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{
		sender:  sender,
		cfg:     cfg,
		log:     log,
		printer: message.NewPrinter(language.BrazilianPortuguese),
	}
}

// SetArchiveScheduler enables PDF archiving on approval.
func (m *Module) SetArchiveScheduler(s scheduler.ArchiveScheduler) { m.archiver = s }

// SetPDFRenderer enables attaching the PDF to approval mails.
func (m *Module) SetPDFRenderer(r PDFRenderer) { m.pdfs = r }

// RegisterHandlers subscribes the module to the invoice decision events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.InvoiceApproved{}.EventName(), m)
	bus.Subscribe(events.InvoiceRefused{}.EventName(), m)
	bus.Subscribe(events.InvoiceAbandoned{}.EventName(), m)
	m.log.Info("notification module registered event handlers")
}

// Handle implements events.Handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.InvoiceApproved:
		return m.handleApproved(ctx, e)
	case events.InvoiceRefused:
		return m.notifyDecision(ctx, e.InvoiceID, email.InvoiceDecision{
			Code:       e.Code,
			ClientName: e.ClientName,
			Status:     string(domain.StatusRefused),
			Reason:     e.Reason,
		})
	case events.InvoiceAbandoned:
		return m.notifyDecision(ctx, e.InvoiceID, email.InvoiceDecision{
			Code:       e.Code,
			ClientName: e.ClientName,
			Status:     string(domain.StatusAbandoned),
			Reason:     e.Reason,
		})
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleApproved(ctx context.Context, e events.InvoiceApproved) error {
	var archiveErr error
	if m.archiver != nil {
		archiveErr = m.archiver.EnqueueArchivePDF(ctx, scheduler.ArchiveInvoicePDFPayload{
			InvoiceID: e.InvoiceID.String(),
			Code:      e.Code,
		})
		if archiveErr != nil {
			m.log.Error("failed to enqueue pdf archive", "invoiceId", e.InvoiceID, "error", archiveErr)
			archiveErr = fmt.Errorf("enqueue archive for %s: %w", e.Code, archiveErr)
		}
	}

	decision := email.InvoiceDecision{
		Code:       e.Code,
		ClientName: e.ClientName,
		Status:     string(domain.StatusApproved),
		FinalTotal: m.formatTotal(e.FinalTotal),
	}
	if err := m.notifyDecision(ctx, e.InvoiceID, decision, m.attachment(ctx, e.InvoiceID)...); err != nil {
		return err
	}
	return archiveErr
}

func (m *Module) notifyDecision(ctx context.Context, invoiceID uuid.UUID, decision email.InvoiceDecision, attachments ...email.Attachment) error {
	to := m.cfg.GetNotifyEmail()
	if to == "" {
		return nil
	}

	decision.StatusLabel = domain.Status(decision.Status).Label()
	decision.InvoiceURL = m.cfg.GetAppBaseURL() + "/orcamentos/" + invoiceID.String()

	if err := m.sender.SendInvoiceDecisionEmail(ctx, to, decision, attachments...); err != nil {
		m.log.Error("failed to send invoice decision email",
			"invoiceId", invoiceID,
			"code", decision.Code,
			"status", decision.Status,
			"error", err,
		)
		return err
	}

	m.log.Info("invoice decision email sent", "invoiceId", invoiceID, "code", decision.Code, "status", decision.Status)
	return nil
}

// attachment renders the PDF for the mail. A failure only drops the attachment.
func (m *Module) attachment(ctx context.Context, invoiceID uuid.UUID) []email.Attachment {
	if m.pdfs == nil {
		return nil
	}
	doc, err := m.pdfs.RenderPDF(ctx, invoiceID)
	if err != nil {
		m.log.Warn("approval mail sent without pdf", "invoiceId", invoiceID, "error", err)
		return nil
	}
	return []email.Attachment{{
		Content:  doc.Content,
		FileName: doc.Filename,
		MIMEType: "application/pdf",
	}}
}

func (m *Module) formatTotal(raw string) string {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return pdf.FormatBRL(m.printer, amount.InexactFloat64())
}
