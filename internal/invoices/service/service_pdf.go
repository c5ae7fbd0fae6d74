package service

import (
	"context"
	"fmt"

	"orcamento_backend/internal/invoices/domain"
	"orcamento_backend/internal/pdf"
	"orcamento_backend/platform/apperr"
	"orcamento_backend/platform/money"

	"github.com/google/uuid"
)

// RenderedPDF is a generated document with the name it should be served under.
type RenderedPDF struct {
	Filename string
	Code     string
	Content  []byte
}

// RenderPDF renders the PDF of an invoice for operators.
func (s *Service) RenderPDF(ctx context.Context, id uuid.UUID) (*RenderedPDF, error) {
	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view, err := s.hydrate(ctx, inv, true)
	if err != nil {
		return nil, err
	}
	return s.render(view)
}

// RenderPublicPDF renders the PDF reached through a public link. The access gate applies.
func (s *Service) RenderPublicPDF(ctx context.Context, token string) (*RenderedPDF, error) {
	inv, err := s.openPublic(ctx, token)
	if err != nil {
		return nil, err
	}
	view, err := s.hydrate(ctx, inv, true)
	if err != nil {
		return nil, err
	}
	return s.render(view)
}

func (s *Service) render(view *invoiceView) (*RenderedPDF, error) {
	if s.renderer == nil {
		return nil, apperr.Internal("pdf rendering is not configured")
	}
	content, err := s.renderer.Render(s.toDocument(view))
	if err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", view.invoice.Code, err)
	}
	return &RenderedPDF{
		Filename: fmt.Sprintf("orcamento-%s.pdf", view.invoice.Code),
		Code:     view.invoice.Code,
		Content:  content,
	}, nil
}

func (s *Service) toDocument(view *invoiceView) pdf.Document {
	inv := view.invoice
	client := toClientResponse(view.client, inv)

	doc := pdf.Document{
		Company:      s.opts.Company,
		Code:         inv.Code,
		Status:       string(inv.Status),
		StatusLabel:  inv.Status.Label(),
		IssuedAt:     inv.CreatedAt,
		ValidUntil:   inv.ProposalValidDate,
		ClientName:   client.Name,
		ClientEmail:  derefString(client.Email),
		ClientPhone:  derefString(client.Phone),
		TotalAmount:  money.Normalize(inv.TotalAmount),
		Discounts:    money.Normalize(inv.Discounts),
		Additions:    money.Normalize(inv.Additions),
		Displacement: money.Normalize(inv.Displacement),
		FinalAmount:  money.Normalize(inv.FinalAmount),
		Observations: derefString(inv.Observations),
	}
	if inv.PublicURLActive && domain.AwaitingResponse(inv.Status) {
		doc.PublicLink = s.publicLink(inv.PublicURL)
	}

	for _, g := range toGroupResponses(view.groups) {
		group := pdf.Group{Name: g.Name, Type: string(g.Type), Total: g.Total}
		for _, it := range g.Items {
			group.Lines = append(group.Lines, pdf.Line{
				Name:        it.Name,
				Description: derefString(it.Description),
				Quantity:    it.Quantity,
				UnitPrice:   effectiveUnitPrice(it.UnitPrice, it.CustomPrice),
				Total:       it.TotalPrice,
			})
		}
		doc.Groups = append(doc.Groups, group)
	}

	for _, pc := range view.conditions {
		doc.PaymentConditions = append(doc.PaymentConditions, pdf.PaymentTerm{
			Type:         pc.Type,
			Description:  derefString(pc.Description),
			Installments: pc.NumberOfInstallments,
			InterestRate: money.Normalize(pc.InterestRate),
		})
	}
	return doc
}

func effectiveUnitPrice(unit float64, custom *float64) float64 {
	if custom != nil {
		return *custom
	}
	return unit
}
