package service

import (
	"context"
	"time"

	"orcamento_backend/internal/invoices/domain"
	"orcamento_backend/internal/invoices/repository"
	"orcamento_backend/internal/invoices/transport"
	"orcamento_backend/platform/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// buildGroups turns request groups into rows with fresh ids and line totals.
// Quantities and prices are rounded to their column scale first so the stored
// line total is always the product of the stored values.
func buildGroups(invoiceID uuid.UUID, reqs []transport.GroupRequest) []repository.Group {
	groups := make([]repository.Group, len(reqs))
	for gi, gr := range reqs {
		groupID := uuid.New()
		items := make([]repository.Item, len(gr.Items))
		for ii, it := range gr.Items {
			quantity := money.RoundQuantity(it.Quantity)
			unitPrice := money.Round(it.UnitPrice)
			customPrice := roundedCopy(it.CustomPrice)
			items[ii] = repository.Item{
				ID:                 uuid.New(),
				InvoiceID:          invoiceID,
				GroupID:            groupID,
				ProductID:          it.ProductID,
				ProductVariationID: it.ProductVariationID,
				ServiceID:          it.ServiceID,
				ServiceVariationID: it.ServiceVariationID,
				Quantity:           quantity,
				UnitPrice:          unitPrice,
				TotalPrice:         domain.ItemTotal(quantity, unitPrice, customPrice),
				CustomName:         trimmedOrNil(it.CustomName),
				CustomDescription:  trimmedOrNil(it.CustomDescription),
				CustomPrice:        customPrice,
				SortOrder:          ii,
			}
		}
		groups[gi] = repository.Group{
			ID:        groupID,
			InvoiceID: invoiceID,
			Name:      gr.Name,
			Type:      string(gr.Type),
			SortOrder: gi,
			Items:     items,
		}
	}
	return groups
}

func buildPaymentConditions(invoiceID uuid.UUID, reqs []transport.PaymentConditionRequest) []repository.PaymentCondition {
	conditions := make([]repository.PaymentCondition, len(reqs))
	for i, pc := range reqs {
		installments := pc.NumberOfInstallments
		if installments < 1 {
			installments = 1
		}
		conditions[i] = repository.PaymentCondition{
			ID:                   uuid.New(),
			InvoiceID:            invoiceID,
			Type:                 pc.Type,
			Description:          trimmedOrNil(pc.Description),
			NumberOfInstallments: installments,
			InterestRate:         pc.InterestRate.Round(transport.InterestRateScale),
			SortOrder:            i,
		}
	}
	return conditions
}

// recompute re-reads the stored line totals and persists total and final
// amounts. Nothing else writes those two columns.
func recompute(ctx context.Context, tx repository.Store, inv *repository.Invoice, now time.Time) error {
	itemTotals, err := tx.ItemTotals(ctx, inv.ID)
	if err != nil {
		return err
	}
	totals := domain.ComputeTotals(itemTotals, inv.Adjustments())
	if err := tx.SetTotals(ctx, inv.ID, totals, now); err != nil {
		return err
	}
	inv.TotalAmount = totals.TotalAmount
	inv.FinalAmount = totals.FinalAmount
	return nil
}

// cloneRequest copies header, adjustments and collections of a stored
// invoice into a create request.
func cloneRequest(src *repository.Invoice, groups []repository.Group, conditions []repository.PaymentCondition) transport.CreateInvoiceRequest {
	req := transport.CreateInvoiceRequest{
		ClientID:          src.ClientID,
		ProposalValidDate: src.ProposalValidDate,
		Discounts:         src.Discounts,
		Additions:         src.Additions,
		Displacement:      src.Displacement,
		Origin:            src.Origin,
		Observations:      src.Observations,
		Responsible:       src.Responsible,
		InternalReference: src.InternalReference,
		Groups:            make([]transport.GroupRequest, len(groups)),
		PaymentConditions: make([]transport.PaymentConditionRequest, len(conditions)),
	}

	for gi, g := range groups {
		items := make([]transport.ItemRequest, len(g.Items))
		for ii, it := range g.Items {
			items[ii] = transport.ItemRequest{
				ProductID:          it.ProductID,
				ProductVariationID: it.ProductVariationID,
				ServiceID:          it.ServiceID,
				ServiceVariationID: it.ServiceVariationID,
				Quantity:           it.Quantity,
				UnitPrice:          it.UnitPrice,
				CustomName:         it.CustomName,
				CustomDescription:  it.CustomDescription,
				CustomPrice:        copyDecimal(it.CustomPrice),
			}
		}
		req.Groups[gi] = transport.GroupRequest{
			Name:  g.Name,
			Type:  transport.GroupType(g.Type),
			Items: items,
		}
	}

	for i, pc := range conditions {
		req.PaymentConditions[i] = transport.PaymentConditionRequest{
			Type:                 pc.Type,
			Description:          pc.Description,
			NumberOfInstallments: pc.NumberOfInstallments,
			InterestRate:         pc.InterestRate,
		}
	}
	return req
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func roundedCopy(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	r := money.Round(*d)
	return &r
}
