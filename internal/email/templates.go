package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type invoiceDecisionEmailData struct {
	baseEmailData
	Code           string
	ClientName     string
	StatusLabel    string
	FinalTotal     string
	Reason         string
	HasAttachments bool
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func decisionHeading(status string) string {
	switch status {
	case "APPROVED":
		return "Orçamento aprovado"
	case "REFUSED":
		return "Orçamento recusado"
	case "ABANDONED":
		return "Orçamento abandonado"
	default:
		return "Resposta do cliente"
	}
}
