package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"orcamento_backend/internal/events"
	"orcamento_backend/internal/invoices/domain"
	"orcamento_backend/internal/invoices/repository"
	"orcamento_backend/internal/pdf"
	"orcamento_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory repository.Store. WithTx restores the previous
// state when fn fails.
type fakeStore struct {
	mu sync.Mutex

	invoices   map[uuid.UUID]repository.Invoice
	order      []uuid.UUID
	groups     map[uuid.UUID][]repository.Group
	conditions map[uuid.UUID][]repository.PaymentCondition

	clients      map[uuid.UUID]repository.Client
	catalogNames map[uuid.UUID]string
	variations   map[uuid.UUID]decimal.Decimal

	expireErr error
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		invoices:     map[uuid.UUID]repository.Invoice{},
		groups:       map[uuid.UUID][]repository.Group{},
		conditions:   map[uuid.UUID][]repository.PaymentCondition{},
		clients:      map[uuid.UUID]repository.Client{},
		catalogNames: map[uuid.UUID]string{},
		variations:   map[uuid.UUID]decimal.Decimal{},
	}
}

func (f *fakeStore) addClient(name string, emails []repository.ContactEmail, phones []repository.ContactPhone) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.clients[id] = repository.Client{ID: id, Name: name, Emails: emails, Phones: phones}
	return id
}

func (f *fakeStore) invoice(id uuid.UUID) repository.Invoice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invoices[id]
}

func (f *fakeStore) mutate(id uuid.UUID, fn func(inv *repository.Invoice)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv := f.invoices[id]
	fn(&inv)
	f.invoices[id] = inv
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	f.mu.Lock()
	invoices := make(map[uuid.UUID]repository.Invoice, len(f.invoices))
	for k, v := range f.invoices {
		invoices[k] = v
	}
	groups := make(map[uuid.UUID][]repository.Group, len(f.groups))
	for k, v := range f.groups {
		groups[k] = v
	}
	conditions := make(map[uuid.UUID][]repository.PaymentCondition, len(f.conditions))
	for k, v := range f.conditions {
		conditions[k] = v
	}
	order := append([]uuid.UUID(nil), f.order...)
	f.mu.Unlock()

	if err := fn(ctx, f); err != nil {
		f.mu.Lock()
		f.invoices, f.groups, f.conditions, f.order = invoices, groups, conditions, order
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) LockCodeSequence(context.Context) error { return nil }

func (f *fakeStore) LastCode(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.order) == 0 {
		return "", nil
	}
	return f.invoices[f.order[len(f.order)-1]].Code, nil
}

func (f *fakeStore) Insert(_ context.Context, inv *repository.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[inv.ClientID]; !ok {
		return apperr.Validation("referenced client, product or service does not exist")
	}
	for _, existing := range f.invoices {
		if existing.Code == inv.Code || existing.PublicURL == inv.PublicURL {
			return apperr.Conflict("invoice code or public link already in use")
		}
	}
	stored := *inv
	stored.ClientName = f.clients[inv.ClientID].Name
	f.invoices[inv.ID] = stored
	f.order = append(f.order, inv.ID)
	return nil
}

func (f *fakeStore) UpdateHeader(_ context.Context, inv *repository.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.invoices[inv.ID]
	if !ok {
		return apperr.NotFound("invoice not found")
	}
	stored.ClientID = inv.ClientID
	stored.ClientName = f.clients[inv.ClientID].Name
	stored.ProposalValidDate = inv.ProposalValidDate
	stored.Discounts, stored.Additions, stored.Displacement = inv.Discounts, inv.Additions, inv.Displacement
	stored.Origin, stored.Observations = inv.Origin, inv.Observations
	stored.Responsible, stored.InternalReference = inv.Responsible, inv.InternalReference
	stored.UpdatedAt = inv.UpdatedAt
	f.invoices[inv.ID] = stored
	return nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, status domain.Status, stamp *repository.ResponseStamp, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return apperr.NotFound("invoice not found")
	}
	inv.Status = status
	inv.UpdatedAt = now
	if stamp != nil {
		s := string(stamp.Status)
		date := stamp.Date
		inv.ClientResponseStatus = &s
		inv.ClientResponseDate = &date
		inv.ClientResponseReason = stamp.Reason
	}
	f.invoices[id] = inv
	return nil
}

func (f *fakeStore) ReplaceGroups(_ context.Context, invoiceID uuid.UUID, groups []repository.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := make([]repository.Group, len(groups))
	for i, g := range groups {
		g.Items = append([]repository.Item(nil), g.Items...)
		stored[i] = g
	}
	f.groups[invoiceID] = stored
	return nil
}

func (f *fakeStore) ReplacePaymentConditions(_ context.Context, invoiceID uuid.UUID, conditions []repository.PaymentCondition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conditions[invoiceID] = append([]repository.PaymentCondition(nil), conditions...)
	return nil
}

func (f *fakeStore) ItemTotals(_ context.Context, invoiceID uuid.UUID) ([]decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var totals []decimal.Decimal
	for _, g := range f.groups[invoiceID] {
		for _, it := range g.Items {
			totals = append(totals, it.TotalPrice)
		}
	}
	return totals, nil
}

func (f *fakeStore) SetTotals(_ context.Context, invoiceID uuid.UUID, totals domain.Totals, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[invoiceID]
	if !ok {
		return apperr.NotFound("invoice not found")
	}
	inv.TotalAmount, inv.FinalAmount, inv.UpdatedAt = totals.TotalAmount, totals.FinalAmount, now
	f.invoices[invoiceID] = inv
	return nil
}

func (f *fakeStore) SetPublicURL(_ context.Context, id uuid.UUID, token string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return apperr.NotFound("invoice not found")
	}
	inv.PublicURL, inv.UpdatedAt = token, now
	f.invoices[id] = inv
	return nil
}

func (f *fakeStore) SetPublicURLActive(_ context.Context, id uuid.UUID, active bool, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return apperr.NotFound("invoice not found")
	}
	inv.PublicURLActive, inv.UpdatedAt = active, now
	f.invoices[id] = inv
	return nil
}

func (f *fakeStore) ExpireIfOpen(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.expireErr != nil {
		return false, f.expireErr
	}
	inv, ok := f.invoices[id]
	if !ok || !domain.AwaitingResponse(inv.Status) {
		return false, nil
	}
	inv.Status, inv.UpdatedAt = domain.StatusExpired, now
	f.invoices[id] = inv
	return true, nil
}

func (f *fakeStore) ExpireOverdue(_ context.Context, now time.Time) ([]repository.ExpiredInvoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var expired []repository.ExpiredInvoice
	for _, id := range f.order {
		inv := f.invoices[id]
		if !domain.IsOverdue(inv.Status, inv.ProposalValidDate, now) {
			continue
		}
		expired = append(expired, repository.ExpiredInvoice{ID: id, Code: inv.Code, PreviousStatus: inv.Status})
		inv.Status, inv.UpdatedAt = domain.StatusExpired, now
		f.invoices[id] = inv
	}
	return expired, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.invoices[id]; !ok {
		return apperr.NotFound("invoice not found")
	}
	delete(f.invoices, id)
	delete(f.groups, id)
	delete(f.conditions, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return nil, apperr.NotFound("invoice not found")
	}
	return &inv, nil
}

func (f *fakeStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*repository.Invoice, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeStore) GetByPublicURL(_ context.Context, token string) (*repository.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invoices {
		if inv.PublicURL == token {
			return &inv, nil
		}
	}
	return nil, apperr.NotFound("invoice not found")
}

func (f *fakeStore) GetGroups(_ context.Context, invoiceID uuid.UUID) ([]repository.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Group, len(f.groups[invoiceID]))
	for i, g := range f.groups[invoiceID] {
		items := make([]repository.Item, len(g.Items))
		for j, it := range g.Items {
			for _, ref := range []*uuid.UUID{it.ProductID, it.ServiceID} {
				if ref != nil {
					it.CatalogName = f.catalogNames[*ref]
				}
			}
			items[j] = it
		}
		g.Items = items
		out[i] = g
	}
	return out, nil
}

func (f *fakeStore) GetPaymentConditions(_ context.Context, invoiceID uuid.UUID) ([]repository.PaymentCondition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]repository.PaymentCondition(nil), f.conditions[invoiceID]...), nil
}

func (f *fakeStore) List(_ context.Context, params repository.ListParams) (*repository.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []repository.Invoice
	for _, id := range f.order {
		inv := f.invoices[id]
		if params.ClientID != nil && inv.ClientID != *params.ClientID {
			continue
		}
		if params.Status != nil && string(inv.Status) != *params.Status {
			continue
		}
		if params.ProductID != nil && !f.references(id, *params.ProductID, true) {
			continue
		}
		if params.ServiceID != nil && !f.references(id, *params.ServiceID, false) {
			continue
		}
		if q := strings.ToLower(params.Search); q != "" &&
			!strings.Contains(strings.ToLower(inv.Code), q) &&
			!strings.Contains(strings.ToLower(inv.ClientName), q) {
			continue
		}
		matched = append(matched, inv)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Code > matched[j].Code })

	total := len(matched)
	start := min((params.Page-1)*params.PageSize, total)
	end := min(start+params.PageSize, total)
	return &repository.ListResult{
		Items:      matched[start:end],
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: (total + params.PageSize - 1) / params.PageSize,
	}, nil
}

func (f *fakeStore) references(invoiceID, ref uuid.UUID, product bool) bool {
	for _, g := range f.groups[invoiceID] {
		for _, it := range g.Items {
			id := it.ServiceID
			if product {
				id = it.ProductID
			}
			if id != nil && *id == ref {
				return true
			}
		}
	}
	return false
}

func (f *fakeStore) GetClient(_ context.Context, id uuid.UUID) (*repository.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return nil, apperr.NotFound("client not found")
	}
	return &c, nil
}

func (f *fakeStore) VariationPrice(_ context.Context, _ repository.VariationKind, id uuid.UUID) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	price, ok := f.variations[id]
	if !ok {
		return decimal.Zero, apperr.NotFound("variation not found")
	}
	return price, nil
}

// recordingBus keeps published events in order.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, len(b.events))
	for i, e := range b.events {
		names[i] = e.EventName()
	}
	return names
}

func (b *recordingBus) statusChanges() []events.InvoiceStatusChanged {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.InvoiceStatusChanged
	for _, e := range b.events {
		if sc, ok := e.(events.InvoiceStatusChanged); ok {
			out = append(out, sc)
		}
	}
	return out
}

// captureRenderer records the last document instead of drawing it.
type captureRenderer struct {
	last pdf.Document
}

func (r *captureRenderer) Render(doc pdf.Document) ([]byte, error) {
	r.last = doc
	return []byte("%PDF-fake"), nil
}
