package service

import (
	"orcamento_backend/internal/invoices/domain"
	"orcamento_backend/internal/invoices/repository"
	"orcamento_backend/internal/invoices/transport"
	"orcamento_backend/platform/money"
	"orcamento_backend/platform/phone"

	"github.com/shopspring/decimal"
)

// invoiceView is an invoice with its collections loaded.
type invoiceView struct {
	invoice    *repository.Invoice
	groups     []repository.Group
	conditions []repository.PaymentCondition
	client     *repository.Client
}

func (s *Service) toResponse(v *invoiceView) *transport.InvoiceResponse {
	inv := v.invoice
	return &transport.InvoiceResponse{
		ID:                inv.ID,
		Code:              inv.Code,
		PublicURL:         inv.PublicURL,
		PublicLink:        s.publicLink(inv.PublicURL),
		PublicURLActive:   inv.PublicURLActive,
		Status:            string(inv.Status),
		StatusLabel:       inv.Status.Label(),
		ProposalValidDate: inv.ProposalValidDate,
		TotalAmount:       money.Normalize(inv.TotalAmount),
		FinalAmount:       money.Normalize(inv.FinalAmount),
		Discounts:         money.Normalize(inv.Discounts),
		Additions:         money.Normalize(inv.Additions),
		Displacement:      money.Normalize(inv.Displacement),
		Origin:            inv.Origin,
		Observations:      inv.Observations,
		Responsible:       inv.Responsible,
		InternalReference: inv.InternalReference,
		Response:          toDecision(inv),
		Client:            toClientResponse(v.client, inv),
		Groups:            toGroupResponses(v.groups),
		PaymentConditions: toPaymentConditionResponses(v.conditions),
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
	}
}

func (s *Service) toPublicResponse(v *invoiceView) *transport.PublicInvoiceResponse {
	inv := v.invoice
	return &transport.PublicInvoiceResponse{
		Code:              inv.Code,
		Status:            string(inv.Status),
		StatusLabel:       inv.Status.Label(),
		CompanyName:       s.opts.Company.Name,
		ClientName:        inv.ClientName,
		ProposalValidDate: inv.ProposalValidDate,
		TotalAmount:       money.Normalize(inv.TotalAmount),
		FinalAmount:       money.Normalize(inv.FinalAmount),
		Discounts:         money.Normalize(inv.Discounts),
		Additions:         money.Normalize(inv.Additions),
		Displacement:      money.Normalize(inv.Displacement),
		Observations:      inv.Observations,
		Response:          toDecision(inv),
		Groups:            toGroupResponses(v.groups),
		PaymentConditions: toPaymentConditionResponses(v.conditions),
		CanRespond:        domain.AwaitingResponse(inv.Status),
	}
}

func toListItem(inv *repository.Invoice, client *repository.Client) transport.InvoiceListItem {
	return transport.InvoiceListItem{
		ID:                inv.ID,
		Code:              inv.Code,
		Status:            string(inv.Status),
		StatusLabel:       inv.Status.Label(),
		ClientID:          inv.ClientID,
		ClientName:        inv.ClientName,
		Client:            toClientResponse(client, inv),
		ProposalValidDate: inv.ProposalValidDate,
		TotalAmount:       money.Normalize(inv.TotalAmount),
		FinalAmount:       money.Normalize(inv.FinalAmount),
		PublicURLActive:   inv.PublicURLActive,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
	}
}

// toDecision maps the stored client response columns to the exposed shape.
func toDecision(inv *repository.Invoice) *transport.ClientDecisionResponse {
	if inv.ClientResponseStatus == nil || *inv.ClientResponseStatus == "" {
		return nil
	}
	return &transport.ClientDecisionResponse{
		Status:      *inv.ClientResponseStatus,
		RespondedAt: inv.ClientResponseDate,
		Reason:      inv.ClientResponseReason,
	}
}

func toClientResponse(c *repository.Client, inv *repository.Invoice) transport.ClientResponse {
	if c == nil {
		return transport.ClientResponse{ID: inv.ClientID, Name: inv.ClientName}
	}
	resp := transport.ClientResponse{
		ID:       c.ID,
		Name:     c.Name,
		Nickname: c.Nickname,
	}
	if email := displayEmail(c.Emails); email != "" {
		resp.Email = &email
	}
	if number := displayPhone(c.Phones); number != "" {
		resp.Phone = &number
	}
	return resp
}

// displayEmail prefers the primary address, else the first one.
func displayEmail(emails []repository.ContactEmail) string {
	for _, e := range emails {
		if e.Primary {
			return e.Email
		}
	}
	if len(emails) > 0 {
		return emails[0].Email
	}
	return ""
}

// displayPhone prefers the primary number, else the first one.
func displayPhone(phones []repository.ContactPhone) string {
	for _, p := range phones {
		if p.Primary {
			return phone.Display(p.Phone)
		}
	}
	if len(phones) > 0 {
		return phone.Display(phones[0].Phone)
	}
	return ""
}

func toGroupResponses(groups []repository.Group) []transport.GroupResponse {
	out := make([]transport.GroupResponse, len(groups))
	for gi, g := range groups {
		total := decimal.Zero
		items := make([]transport.ItemResponse, len(g.Items))
		for ii := range g.Items {
			it := &g.Items[ii]
			total = total.Add(it.TotalPrice)
			items[ii] = toItemResponse(it)
		}
		out[gi] = transport.GroupResponse{
			ID:    g.ID,
			Name:  g.Name,
			Type:  transport.GroupType(g.Type),
			Total: money.Normalize(total),
			Items: items,
		}
	}
	return out
}

func toItemResponse(it *repository.Item) transport.ItemResponse {
	resp := transport.ItemResponse{
		ID:                 it.ID,
		ProductID:          it.ProductID,
		ProductVariationID: it.ProductVariationID,
		ServiceID:          it.ServiceID,
		ServiceVariationID: it.ServiceVariationID,
		Name:               itemName(it),
		Description:        itemDescription(it),
		Quantity:           money.Normalize(it.Quantity),
		UnitPrice:          money.Normalize(it.UnitPrice),
		CustomName:         it.CustomName,
		CustomDescription:  it.CustomDescription,
		TotalPrice:         money.Normalize(it.TotalPrice),
	}
	if it.CustomPrice != nil {
		price := money.Normalize(*it.CustomPrice)
		resp.CustomPrice = &price
	}
	return resp
}

func itemName(it *repository.Item) string {
	if it.CustomName != nil && *it.CustomName != "" {
		return *it.CustomName
	}
	return it.CatalogName
}

func itemDescription(it *repository.Item) *string {
	if it.CustomDescription != nil && *it.CustomDescription != "" {
		return it.CustomDescription
	}
	return it.CatalogDescription
}

func toPaymentConditionResponses(conditions []repository.PaymentCondition) []transport.PaymentConditionResponse {
	out := make([]transport.PaymentConditionResponse, len(conditions))
	for i, pc := range conditions {
		out[i] = transport.PaymentConditionResponse{
			ID:                   pc.ID,
			Type:                 pc.Type,
			Description:          pc.Description,
			NumberOfInstallments: pc.NumberOfInstallments,
			InterestRate:         money.Normalize(pc.InterestRate),
		}
	}
	return out
}
