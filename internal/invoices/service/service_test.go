package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"orcamento_backend/internal/events"
	"orcamento_backend/internal/invoices/domain"
	"orcamento_backend/internal/invoices/repository"
	"orcamento_backend/internal/invoices/transport"
	"orcamento_backend/platform/apperr"
	"orcamento_backend/platform/branding"
	"orcamento_backend/platform/logger"
	"orcamento_backend/platform/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store    *fakeStore
	bus      *recordingBus
	renderer *captureRenderer
	svc      *Service
	clientID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newFakeStore()
	bus := &recordingBus{}
	renderer := &captureRenderer{}
	svc := New(store, bus, renderer, Options{
		AppBaseURL: "https://app.example.com/",
		Company:    branding.Company{Name: "Marcenaria Silva"},
	}, logger.Nop())
	svc.now = func() time.Time { return fixedNow }

	clientID := store.addClient("Maria Souza",
		[]repository.ContactEmail{{Email: "outro@example.com"}, {Email: "maria@example.com", Primary: true}},
		[]repository.ContactPhone{{Phone: "11987654321"}},
	)
	return &fixture{store: store, bus: bus, renderer: renderer, svc: svc, clientID: clientID}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

func newID() *uuid.UUID {
	id := uuid.New()
	return &id
}

func (f *fixture) create(t *testing.T, mutate func(req *transport.CreateInvoiceRequest)) *transport.InvoiceResponse {
	t.Helper()
	req := transport.CreateInvoiceRequest{
		ClientID: f.clientID,
		Groups: []transport.GroupRequest{{
			Name: "Opção 1",
			Type: transport.GroupTypeProduct,
			Items: []transport.ItemRequest{
				{ProductID: newID(), Quantity: dec("2"), UnitPrice: dec("100.00")},
				{ProductID: newID(), Quantity: dec("1"), UnitPrice: dec("50.00"), CustomPrice: decPtr("40.00")},
			},
		}},
		Discounts:    dec("10"),
		Additions:    dec("5"),
		Displacement: dec("15"),
	}
	if mutate != nil {
		mutate(&req)
	}
	resp, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	return resp
}

func TestPreviewNextCodeDoesNotReserve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	code, err := f.svc.PreviewNextCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ORC-000001", code)

	again, err := f.svc.PreviewNextCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, code, again)

	created := f.create(t, nil)
	assert.Equal(t, code, created.Code)

	code, err = f.svc.PreviewNextCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ORC-000002", code)
}

func TestCreateComputesTotalsAndCodes(t *testing.T) {
	f := newFixture(t)

	first := f.create(t, nil)
	second := f.create(t, nil)

	assert.Equal(t, "ORC-000001", first.Code)
	assert.Equal(t, "ORC-000002", second.Code)
	assert.Equal(t, string(domain.StatusDraft), first.Status)
	assert.Equal(t, 240.0, first.TotalAmount)
	assert.Equal(t, 250.0, first.FinalAmount)
	require.Len(t, first.Groups, 1)
	assert.Equal(t, 240.0, first.Groups[0].Total)
	assert.Equal(t, 40.0, first.Groups[0].Items[1].TotalPrice)

	assert.True(t, first.PublicURLActive)
	assert.Len(t, first.PublicURL, 64)
	assert.Equal(t, "https://app.example.com/orcamento/"+first.PublicURL, first.PublicLink)
	assert.NotEqual(t, first.PublicURL, second.PublicURL)

	assert.Equal(t, "maria@example.com", *first.Client.Email)
	require.NotNil(t, first.Client.Phone)
	assert.Equal(t, "(11) 98765-4321", *first.Client.Phone)
}

func TestCreateStoresAmountsAtColumnScale(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, func(req *transport.CreateInvoiceRequest) {
		req.Groups[0].Items[0].Quantity = dec("10")
		req.Groups[0].Items[0].UnitPrice = dec("0.125")
		req.Groups[0].Items[1].Quantity = dec("1.0005")
		req.Groups[0].Items[1].CustomPrice = decPtr("0.333")
		req.Discounts = dec("0.005")
		req.Additions = decimal.Zero
		req.Displacement = decimal.Zero
	})

	groups, err := f.store.GetGroups(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, groups[0].Items, 2)
	for _, it := range groups[0].Items {
		price := domain.EffectivePrice(it.UnitPrice, it.CustomPrice)
		assert.True(t, money.FitsScale(it.Quantity, money.QuantityScale), it.Quantity.String())
		assert.True(t, money.FitsScale(price, money.Scale), price.String())
		assert.True(t, it.TotalPrice.Equal(money.Round(it.Quantity.Mul(price))),
			"%s x %s != %s", it.Quantity, price, it.TotalPrice)
	}

	first := groups[0].Items[0]
	assert.Equal(t, "0.13", first.UnitPrice.StringFixed(2))
	assert.Equal(t, "1.30", first.TotalPrice.StringFixed(2))

	second := groups[0].Items[1]
	assert.Equal(t, "1.001", second.Quantity.String())
	assert.Equal(t, "0.33", second.CustomPrice.StringFixed(2))
	assert.Equal(t, "0.33", second.TotalPrice.StringFixed(2))

	stored := f.store.invoice(created.ID)
	assert.Equal(t, "0.01", stored.Discounts.StringFixed(2))
	assert.InDelta(t, 1.63, created.TotalAmount, 1e-9)
	assert.InDelta(t, 1.62, created.FinalAmount, 1e-9)

	clone, err := f.svc.Clone(context.Background(), created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, created.TotalAmount, clone.TotalAmount)
	assert.Equal(t, created.FinalAmount, clone.FinalAmount)
	assert.Equal(t, created.Groups[0].Items[0].TotalPrice, clone.Groups[0].Items[0].TotalPrice)
}

func TestCreateFinalAmountNeverNegative(t *testing.T) {
	f := newFixture(t)
	resp := f.create(t, func(req *transport.CreateInvoiceRequest) {
		req.Discounts = dec("10000")
	})
	assert.Equal(t, 240.0, resp.TotalAmount)
	assert.Equal(t, 0.0, resp.FinalAmount)
}

func TestCreateRejectsUnknownClientAndStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), transport.CreateInvoiceRequest{ClientID: uuid.New()})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.Create(context.Background(), transport.CreateInvoiceRequest{ClientID: f.clientID, Status: "SHIPPED"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCreateAcceptsExplicitStatus(t *testing.T) {
	f := newFixture(t)
	resp := f.create(t, func(req *transport.CreateInvoiceRequest) { req.Status = "ready" })
	assert.Equal(t, string(domain.StatusReady), resp.Status)
}

func TestUpdateReplacesOnlySentCollections(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, func(req *transport.CreateInvoiceRequest) {
		req.PaymentConditions = []transport.PaymentConditionRequest{{Type: "PIX"}}
	})

	resp, err := f.svc.Update(context.Background(), created.ID, transport.UpdateInvoiceRequest{
		Observations: strPtr("  entrega em 10 dias "),
		Discounts:    decPtr("0"),
	})
	require.NoError(t, err)
	assert.Len(t, resp.Groups, 1)
	assert.Len(t, resp.PaymentConditions, 1)
	assert.Equal(t, "entrega em 10 dias", *resp.Observations)
	assert.Equal(t, 260.0, resp.FinalAmount)

	empty := []transport.GroupRequest{}
	resp, err = f.svc.Update(context.Background(), created.ID, transport.UpdateInvoiceRequest{Groups: &empty})
	require.NoError(t, err)
	assert.Empty(t, resp.Groups)
	assert.Len(t, resp.PaymentConditions, 1)
	assert.Equal(t, 0.0, resp.TotalAmount)
	assert.Equal(t, 20.0, resp.FinalAmount)
}

func TestUpdateClearsValidityDate(t *testing.T) {
	f := newFixture(t)
	valid := fixedNow.Add(72 * time.Hour)
	created := f.create(t, func(req *transport.CreateInvoiceRequest) { req.ProposalValidDate = &valid })
	require.NotNil(t, created.ProposalValidDate)

	resp, err := f.svc.Update(context.Background(), created.ID, transport.UpdateInvoiceRequest{ClearValidDate: true})
	require.NoError(t, err)
	assert.Nil(t, resp.ProposalValidDate)
}

func TestApprovedInvoiceIsLocked(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, nil)
	f.store.mutate(created.ID, func(inv *repository.Invoice) { inv.Status = domain.StatusApproved })

	_, err := f.svc.Update(context.Background(), created.ID, transport.UpdateInvoiceRequest{Observations: strPtr("x")})
	assert.True(t, apperr.Is(err, apperr.KindLocked))

	err = f.svc.Delete(context.Background(), created.ID)
	assert.True(t, apperr.Is(err, apperr.KindLocked))

	_, err = f.svc.FindOne(context.Background(), created.ID)
	assert.NoError(t, err)
}

func TestDeleteRemovesInvoice(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, nil)

	require.NoError(t, f.svc.Delete(context.Background(), created.ID))
	_, err := f.svc.FindOne(context.Background(), created.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestChangeStatusRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, nil)

	resp, err := f.svc.ChangeStatus(ctx, created.ID, transport.ChangeStatusRequest{Status: "APPROVED"})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", resp.Status)
	assert.Nil(t, resp.Response)

	_, err = f.svc.ChangeStatus(ctx, created.ID, transport.ChangeStatusRequest{Status: "READY"})
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))
	assert.Equal(t, domain.StatusApproved, f.store.invoice(created.ID).Status)

	resp, err = f.svc.ChangeStatus(ctx, created.ID, transport.ChangeStatusRequest{Status: "INVOICED"})
	require.NoError(t, err)
	assert.Equal(t, "INVOICED", resp.Status)

	changes := f.bus.statusChanges()
	require.Len(t, changes, 2)
	assert.Equal(t, events.SourceOperator, changes[0].Source)
	assert.Equal(t, "DRAFT", changes[0].FromStatus)
	assert.Equal(t, "INVOICED", changes[1].ToStatus)
}

func TestChangeStatusStampsReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	withReason := f.create(t, nil)
	resp, err := f.svc.ChangeStatus(ctx, withReason.ID, transport.ChangeStatusRequest{Status: "DESISTED", Reason: strPtr("cliente mudou de ideia")})
	require.NoError(t, err)
	require.NotNil(t, resp.Response)
	assert.Equal(t, "DESISTED", resp.Response.Status)
	assert.Equal(t, "cliente mudou de ideia", *resp.Response.Reason)
	assert.True(t, resp.Response.RespondedAt.Equal(fixedNow))

	withoutReason := f.create(t, nil)
	resp, err = f.svc.ChangeStatus(ctx, withoutReason.ID, transport.ChangeStatusRequest{Status: "REFUSED", Reason: strPtr("   ")})
	require.NoError(t, err)
	assert.Nil(t, resp.Response)

	readyWithReason := f.create(t, nil)
	resp, err = f.svc.ChangeStatus(ctx, readyWithReason.ID, transport.ChangeStatusRequest{Status: "READY", Reason: strPtr("ignored")})
	require.NoError(t, err)
	assert.Nil(t, resp.Response)
}

func TestChangeStatusToSameStatusIsSilent(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, nil)

	_, err := f.svc.ChangeStatus(context.Background(), created.ID, transport.ChangeStatusRequest{Status: "DRAFT"})
	require.NoError(t, err)
	assert.Empty(t, f.bus.statusChanges())
}

func TestChangeStatusToSameStatusKeepsResponse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created := f.create(t, nil)

	_, err := f.svc.ChangeStatus(ctx, created.ID, transport.ChangeStatusRequest{Status: "REFUSED", Reason: strPtr("prazo longo")})
	require.NoError(t, err)
	before := f.store.invoice(created.ID)

	f.svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	resp, err := f.svc.ChangeStatus(ctx, created.ID, transport.ChangeStatusRequest{Status: "REFUSED", Reason: strPtr("outro motivo")})
	require.NoError(t, err)

	after := f.store.invoice(created.ID)
	require.NotNil(t, after.ClientResponseReason)
	assert.Equal(t, "prazo longo", *after.ClientResponseReason)
	assert.True(t, after.ClientResponseDate.Equal(*before.ClientResponseDate))
	assert.True(t, after.UpdatedAt.Equal(before.UpdatedAt))
	assert.Equal(t, "prazo longo", *resp.Response.Reason)
	assert.Len(t, f.bus.statusChanges(), 1)
}

func TestCloneCopiesVerbatim(t *testing.T) {
	f := newFixture(t)
	variation := uuid.New()
	f.store.variations[variation] = dec("999.00")
	source := f.create(t, func(req *transport.CreateInvoiceRequest) {
		req.Observations = strPtr("obs")
		req.Groups[0].Items[1].ProductVariationID = &variation
		req.Groups[0].Items[1].CustomName = strPtr("Armário sob medida")
		req.PaymentConditions = []transport.PaymentConditionRequest{{Type: "Cartão", NumberOfInstallments: 3, InterestRate: dec("1.5")}}
	})
	f.store.mutate(source.ID, func(inv *repository.Invoice) { inv.Status = domain.StatusApproved })

	clone, err := f.svc.Clone(context.Background(), source.ID, false)
	require.NoError(t, err)

	assert.NotEqual(t, source.ID, clone.ID)
	assert.Equal(t, "ORC-000002", clone.Code)
	assert.NotEqual(t, source.PublicURL, clone.PublicURL)
	assert.Equal(t, "DRAFT", clone.Status)
	assert.Nil(t, clone.Response)
	assert.Equal(t, source.TotalAmount, clone.TotalAmount)
	assert.Equal(t, source.FinalAmount, clone.FinalAmount)
	assert.Equal(t, "obs", *clone.Observations)
	require.Len(t, clone.Groups, 1)
	assert.NotEqual(t, source.Groups[0].ID, clone.Groups[0].ID)
	item := clone.Groups[0].Items[1]
	assert.Equal(t, "Armário sob medida", item.Name)
	require.NotNil(t, item.CustomPrice)
	assert.Equal(t, 40.0, *item.CustomPrice)
	require.Len(t, clone.PaymentConditions, 1)
	assert.Equal(t, 3, clone.PaymentConditions[0].NumberOfInstallments)
}

func TestCloneWithUpdatedPrices(t *testing.T) {
	f := newFixture(t)
	variation := uuid.New()
	f.store.variations[variation] = dec("75.50")
	source := f.create(t, func(req *transport.CreateInvoiceRequest) {
		req.Groups[0].Items[1].ProductVariationID = &variation
		req.Groups[0].Items[1].CustomName = strPtr("custom")
		req.Groups[0].Items[1].CustomDescription = strPtr("custom desc")
	})

	clone, err := f.svc.Clone(context.Background(), source.ID, true)
	require.NoError(t, err)

	repriced := clone.Groups[0].Items[1]
	assert.Equal(t, 75.5, repriced.UnitPrice)
	assert.Nil(t, repriced.CustomPrice)
	assert.Nil(t, repriced.CustomName)
	assert.Nil(t, repriced.CustomDescription)
	assert.Equal(t, 75.5, repriced.TotalPrice)

	untouched := clone.Groups[0].Items[0]
	assert.Equal(t, 100.0, untouched.UnitPrice)

	assert.Equal(t, 275.5, clone.TotalAmount)
	assert.Equal(t, 285.5, clone.FinalAmount)
}

func TestCloneFailsWhenVariationIsGone(t *testing.T) {
	f := newFixture(t)
	source := f.create(t, func(req *transport.CreateInvoiceRequest) {
		req.Groups[0].Items[0].ProductVariationID = newID()
	})

	_, err := f.svc.Clone(context.Background(), source.ID, true)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	list, err := f.svc.FindAll(context.Background(), transport.ListInvoicesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
}

func TestFindAllFilters(t *testing.T) {
	f := newFixture(t)
	product := uuid.New()
	service := uuid.New()
	other := f.store.addClient("Carlos Lima", nil, nil)

	withProduct := f.create(t, func(req *transport.CreateInvoiceRequest) {
		req.Groups[0].Items[0].ProductID = &product
	})
	withService := f.create(t, func(req *transport.CreateInvoiceRequest) {
		req.ClientID = other
		req.Groups = append(req.Groups, transport.GroupRequest{
			Name:  "Serviços",
			Type:  transport.GroupTypeService,
			Items: []transport.ItemRequest{{ServiceID: &service, Quantity: dec("1"), UnitPrice: dec("30")}},
		})
	})

	ctx := context.Background()
	cases := []struct {
		name string
		req  transport.ListInvoicesRequest
		want []uuid.UUID
	}{
		{"product", transport.ListInvoicesRequest{ProductID: product.String()}, []uuid.UUID{withProduct.ID}},
		{"service", transport.ListInvoicesRequest{ServiceID: service.String()}, []uuid.UUID{withService.ID}},
		{"client", transport.ListInvoicesRequest{ClientID: other.String()}, []uuid.UUID{withService.ID}},
		{"search client name", transport.ListInvoicesRequest{Search: "carlos"}, []uuid.UUID{withService.ID}},
		{"search code", transport.ListInvoicesRequest{Search: "orc-000001"}, []uuid.UUID{withProduct.ID}},
		{"status", transport.ListInvoicesRequest{Status: "draft"}, []uuid.UUID{withService.ID, withProduct.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			list, err := f.svc.FindAll(ctx, tc.req)
			require.NoError(t, err)
			got := make([]uuid.UUID, len(list.Items))
			for i, it := range list.Items {
				got[i] = it.ID
			}
			assert.ElementsMatch(t, tc.want, got)
		})
	}

	list, err := f.svc.FindAll(ctx, transport.ListInvoicesRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	for _, row := range list.Items {
		assert.Equal(t, row.ClientID, row.Client.ID)
		switch row.ID {
		case withProduct.ID:
			assert.Equal(t, "Maria Souza", row.Client.Name)
			require.NotNil(t, row.Client.Email)
			assert.Equal(t, "maria@example.com", *row.Client.Email)
			require.NotNil(t, row.Client.Phone)
			assert.Equal(t, "(11) 98765-4321", *row.Client.Phone)
		case withService.ID:
			assert.Equal(t, "Carlos Lima", row.Client.Name)
			assert.Nil(t, row.Client.Email)
			assert.Nil(t, row.Client.Phone)
		}
	}

	_, err = f.svc.FindAll(ctx, transport.ListInvoicesRequest{ClientID: "nope"})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestFindAllPaging(t *testing.T) {
	f := newFixture(t)
	for range 3 {
		f.create(t, nil)
	}

	list, err := f.svc.FindAll(context.Background(), transport.ListInvoicesRequest{PageSize: 2, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, 2, list.TotalPages)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, "Rascunho", list.Items[0].StatusLabel)
}

func TestExpireOverdueSweep(t *testing.T) {
	f := newFixture(t)
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(time.Hour)

	overdue := f.create(t, func(req *transport.CreateInvoiceRequest) { req.ProposalValidDate = &past })
	fresh := f.create(t, func(req *transport.CreateInvoiceRequest) { req.ProposalValidDate = &future })
	approved := f.create(t, func(req *transport.CreateInvoiceRequest) { req.ProposalValidDate = &past })
	f.store.mutate(approved.ID, func(inv *repository.Invoice) { inv.Status = domain.StatusApproved })

	n, err := f.svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.StatusExpired, f.store.invoice(overdue.ID).Status)
	assert.Equal(t, domain.StatusDraft, f.store.invoice(fresh.ID).Status)
	assert.Equal(t, domain.StatusApproved, f.store.invoice(approved.ID).Status)

	changes := f.bus.statusChanges()
	require.Len(t, changes, 1)
	assert.Equal(t, events.SourceExpiry, changes[0].Source)

	n, err = f.svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRenderPDFMapsDocument(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, func(req *transport.CreateInvoiceRequest) {
		req.PaymentConditions = []transport.PaymentConditionRequest{{Type: "Boleto", NumberOfInstallments: 2}}
	})

	out, err := f.svc.RenderPDF(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "orcamento-ORC-000001.pdf", out.Filename)
	assert.True(t, strings.HasPrefix(string(out.Content), "%PDF"))

	doc := f.renderer.last
	assert.Equal(t, "Marcenaria Silva", doc.Company.Name)
	assert.Equal(t, "Rascunho", doc.StatusLabel)
	assert.Equal(t, "maria@example.com", doc.ClientEmail)
	assert.Equal(t, 250.0, doc.FinalAmount)
	require.Len(t, doc.Groups, 1)
	assert.Equal(t, 40.0, doc.Groups[0].Lines[1].UnitPrice)
	require.Len(t, doc.PaymentConditions, 1)
	assert.Equal(t, created.PublicLink, doc.PublicLink)
}

func TestRenderPDFWithoutRenderer(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, nil)
	f.svc.renderer = nil

	_, err := f.svc.RenderPDF(context.Background(), created.ID)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}

func TestCreateRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	f.create(t, nil)

	err := f.store.WithTx(context.Background(), func(ctx context.Context, tx repository.Store) error {
		_, err := f.svc.createInTx(ctx, tx, transport.CreateInvoiceRequest{ClientID: f.clientID}, domain.StatusDraft)
		require.NoError(t, err)
		return errors.New("boom")
	})
	require.Error(t, err)

	list, err := f.svc.FindAll(context.Background(), transport.ListInvoicesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
}
