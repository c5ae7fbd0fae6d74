// Package email delivers operator notifications over SMTP.
package email

import "context"

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte
	FileName string // e.g. "orcamento-ORC-000042.pdf"
	MIMEType string
}

// InvoiceDecision describes a customer's answer to a quote.
type InvoiceDecision struct {
	Code        string
	ClientName  string
	Status      string
	StatusLabel string
	FinalTotal  string
	Reason      string
	InvoiceURL  string
}

type Sender interface {
	SendInvoiceDecisionEmail(ctx context.Context, toEmail string, decision InvoiceDecision, attachments ...Attachment) error
}

type NoopSender struct{}

func (NoopSender) SendInvoiceDecisionEmail(context.Context, string, InvoiceDecision, ...Attachment) error {
	return nil
}
