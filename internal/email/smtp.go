package email

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string, attachments ...Attachment) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	for _, att := range attachments {
		if err := msg.AttachReader(att.FileName, bytes.NewReader(att.Content)); err != nil {
			return fmt.Errorf("smtp attach %s: %w", att.FileName, err)
		}
	}

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendInvoiceDecisionEmail(ctx context.Context, toEmail string, decision InvoiceDecision, attachments ...Attachment) error {
	subject := fmt.Sprintf(subjectInvoiceDecisionFmt, decision.Code, decision.StatusLabel)
	content, err := renderInvoiceDecision(decision, len(attachments) > 0)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content, attachments...)
}

func renderInvoiceDecision(decision InvoiceDecision, hasAttachments bool) (string, error) {
	heading := decisionHeading(decision.Status)
	return renderEmailTemplate("invoice_decision.html", invoiceDecisionEmailData{
		baseEmailData: baseEmailData{
			Title:    heading,
			Heading:  heading,
			CTALabel: "Abrir orçamento",
			CTAURL:   decision.InvoiceURL,
		},
		Code:           decision.Code,
		ClientName:     decision.ClientName,
		StatusLabel:    decision.StatusLabel,
		FinalTotal:     decision.FinalTotal,
		Reason:         decision.Reason,
		HasAttachments: hasAttachments,
	})
}
