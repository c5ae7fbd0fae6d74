package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"orcamento_backend/internal/events"
	"orcamento_backend/internal/invoices/domain"
	"orcamento_backend/internal/invoices/repository"
	"orcamento_backend/internal/invoices/transport"
	"orcamento_backend/internal/pdf"
	"orcamento_backend/platform/apperr"
	"orcamento_backend/platform/branding"
	"orcamento_backend/platform/logger"
	"orcamento_backend/platform/money"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	publicLinkPath = "/orcamento/"

	listClientConcurrency = 4
)

// Renderer turns a printable document into PDF bytes.
type Renderer interface {
	Render(doc pdf.Document) ([]byte, error)
}

// Options configures code generation, public links and branding.
type Options struct {
	CodePrefix string
	CodeWidth  int
	AppBaseURL string
	Company    branding.Company
}

// Service provides business logic for invoices
type Service struct {
	store    repository.Store
	eventBus events.Bus
	renderer Renderer
	opts     Options
	log      *logger.Logger
	now      func() time.Time
}

// New creates a new invoices service
func New(store repository.Store, eventBus events.Bus, renderer Renderer, opts Options, log *logger.Logger) *Service {
	if opts.CodePrefix == "" {
		opts.CodePrefix = domain.DefaultCodePrefix
	}
	if opts.CodeWidth <= 0 {
		opts.CodeWidth = domain.DefaultCodeWidth
	}
	opts.AppBaseURL = strings.TrimRight(opts.AppBaseURL, "/")
	if opts.Company.Name == "" {
		opts.Company.Name = branding.DefaultCompanyName
	}
	return &Service{
		store:    store,
		eventBus: eventBus,
		renderer: renderer,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// Create creates an invoice with its groups and payment conditions, computing totals server-side
func (s *Service) Create(ctx context.Context, req transport.CreateInvoiceRequest) (*transport.InvoiceResponse, error) {
	status := domain.DefaultStatus
	if strings.TrimSpace(req.Status) != "" {
		parsed, err := domain.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	var created *repository.Invoice
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		inv, err := s.createInTx(ctx, tx, req, status)
		created = inv
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("invoice_created", "invoice_id", created.ID.String(), "code", created.Code)
	return s.FindOne(ctx, created.ID)
}

// createInTx is shared by Create and Clone. The code advisory lock is held
// until the surrounding transaction ends.
func (s *Service) createInTx(ctx context.Context, tx repository.Store, req transport.CreateInvoiceRequest, status domain.Status) (*repository.Invoice, error) {
	if _, err := tx.GetClient(ctx, req.ClientID); err != nil {
		return nil, err
	}

	if err := tx.LockCodeSequence(ctx); err != nil {
		return nil, err
	}
	last, err := tx.LastCode(ctx)
	if err != nil {
		return nil, err
	}

	token, err := generatePublicToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	inv := &repository.Invoice{
		ID:                uuid.New(),
		Code:              domain.NextCode(last, s.opts.CodePrefix, s.opts.CodeWidth),
		PublicURL:         token,
		PublicURLActive:   true,
		ClientID:          req.ClientID,
		Status:            status,
		ProposalValidDate: req.ProposalValidDate,
		Discounts:         money.Round(req.Discounts),
		Additions:         money.Round(req.Additions),
		Displacement:      money.Round(req.Displacement),
		Origin:            trimmedOrNil(req.Origin),
		Observations:      trimmedOrNil(req.Observations),
		Responsible:       trimmedOrNil(req.Responsible),
		InternalReference: trimmedOrNil(req.InternalReference),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := tx.Insert(ctx, inv); err != nil {
		return nil, err
	}

	if err := tx.ReplaceGroups(ctx, inv.ID, buildGroups(inv.ID, req.Groups)); err != nil {
		return nil, err
	}
	if err := tx.ReplacePaymentConditions(ctx, inv.ID, buildPaymentConditions(inv.ID, req.PaymentConditions)); err != nil {
		return nil, err
	}
	if err := recompute(ctx, tx, inv, now); err != nil {
		return nil, err
	}
	return inv, nil
}

// PreviewNextCode reports the code the next created invoice would receive.
// Nothing is reserved.
func (s *Service) PreviewNextCode(ctx context.Context) (string, error) {
	last, err := s.store.LastCode(ctx)
	if err != nil {
		return "", err
	}
	return domain.NextCode(last, s.opts.CodePrefix, s.opts.CodeWidth), nil
}

// FindAll retrieves invoices with filtering and pagination
func (s *Service) FindAll(ctx context.Context, req transport.ListInvoicesRequest) (*transport.InvoiceListResponse, error) {
	params := repository.ListParams{
		Search:    strings.TrimSpace(req.Search),
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Page:      max(req.Page, 1),
		PageSize:  clampPageSize(req.PageSize),
	}

	var err error
	if params.ClientID, err = parseOptionalUUID(req.ClientID, "clientId"); err != nil {
		return nil, err
	}
	if params.ProductID, err = parseOptionalUUID(req.ProductID, "productId"); err != nil {
		return nil, err
	}
	if params.ServiceID, err = parseOptionalUUID(req.ServiceID, "serviceId"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Status) != "" {
		status, err := domain.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		raw := string(status)
		params.Status = &raw
	}

	result, err := s.store.List(ctx, params)
	if err != nil {
		return nil, err
	}

	clients, err := s.listClients(ctx, result.Items)
	if err != nil {
		return nil, err
	}

	items := make([]transport.InvoiceListItem, len(result.Items))
	for i := range result.Items {
		inv := &result.Items[i]
		items[i] = toListItem(inv, clients[inv.ClientID])
	}

	return &transport.InvoiceListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// FindOne retrieves a single invoice with its groups, payment conditions and client
func (s *Service) FindOne(ctx context.Context, id uuid.UUID) (*transport.InvoiceResponse, error) {
	inv, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view, err := s.hydrate(ctx, inv, true)
	if err != nil {
		return nil, err
	}
	return s.toResponse(view), nil
}

// Update changes the header fields and, when sent, replaces groups and payment conditions
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateInvoiceRequest) (*transport.InvoiceResponse, error) {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		inv, err := tx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := domain.EnsureEditable(inv.Status); err != nil {
			return err
		}

		if req.ClientID != nil && *req.ClientID != inv.ClientID {
			if _, err := tx.GetClient(ctx, *req.ClientID); err != nil {
				return err
			}
		}
		applyUpdate(inv, req)
		now := s.now()
		inv.UpdatedAt = now

		if err := tx.UpdateHeader(ctx, inv); err != nil {
			return err
		}
		if req.Groups != nil {
			if err := tx.ReplaceGroups(ctx, inv.ID, buildGroups(inv.ID, *req.Groups)); err != nil {
				return err
			}
		}
		if req.PaymentConditions != nil {
			if err := tx.ReplacePaymentConditions(ctx, inv.ID, buildPaymentConditions(inv.ID, *req.PaymentConditions)); err != nil {
				return err
			}
		}
		return recompute(ctx, tx, inv, now)
	})
	if err != nil {
		return nil, err
	}

	return s.FindOne(ctx, id)
}

// Delete removes an invoice with its groups, items and payment conditions
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		inv, err := tx.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := domain.EnsureEditable(inv.Status); err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
}

// Clone creates a new invoice from an existing one. With updatePrices, items
// referencing a variation take its current catalog price and lose their
// custom overrides.
func (s *Service) Clone(ctx context.Context, sourceID uuid.UUID, updatePrices bool) (*transport.InvoiceResponse, error) {
	source, err := s.store.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	var (
		groups     []repository.Group
		conditions []repository.PaymentCondition
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		groups, err = s.store.GetGroups(gctx, sourceID)
		return err
	})
	g.Go(func() error {
		var err error
		conditions, err = s.store.GetPaymentConditions(gctx, sourceID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	req := cloneRequest(source, groups, conditions)

	var created *repository.Invoice
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if updatePrices {
			if err := reprice(ctx, tx, req.Groups); err != nil {
				return err
			}
		}
		inv, err := s.createInTx(ctx, tx, req, domain.DefaultStatus)
		created = inv
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("invoice_cloned",
		"source_id", sourceID.String(),
		"invoice_id", created.ID.String(),
		"code", created.Code,
		"update_prices", updatePrices,
	)
	return s.FindOne(ctx, created.ID)
}

// reprice overwrites unit prices of variation-backed items with the current
// catalog price and drops their custom overrides.
func reprice(ctx context.Context, tx repository.Store, groups []transport.GroupRequest) error {
	for gi := range groups {
		items := groups[gi].Items
		for ii := range items {
			it := &items[ii]

			var (
				kind repository.VariationKind
				id   uuid.UUID
			)
			switch {
			case it.ProductVariationID != nil:
				kind, id = repository.VariationProduct, *it.ProductVariationID
			case it.ServiceVariationID != nil:
				kind, id = repository.VariationService, *it.ServiceVariationID
			default:
				continue
			}

			price, err := tx.VariationPrice(ctx, kind, id)
			if err != nil {
				return fmt.Errorf("reprice %s variation %s: %w", kind, id, err)
			}
			it.UnitPrice = price
			it.CustomPrice = nil
			it.CustomName = nil
			it.CustomDescription = nil
		}
	}
	return nil
}

// listClients loads each distinct client of a page once, a few at a time.
func (s *Service) listClients(ctx context.Context, invoices []repository.Invoice) (map[uuid.UUID]*repository.Client, error) {
	var ids []uuid.UUID
	seen := make(map[uuid.UUID]struct{}, len(invoices))
	for _, inv := range invoices {
		if _, ok := seen[inv.ClientID]; ok {
			continue
		}
		seen[inv.ClientID] = struct{}{}
		ids = append(ids, inv.ClientID)
	}

	loaded := make([]*repository.Client, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listClientConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			client, err := s.store.GetClient(gctx, id)
			if err != nil {
				return fmt.Errorf("load client %s: %w", id, err)
			}
			loaded[i] = client
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	clients := make(map[uuid.UUID]*repository.Client, len(ids))
	for i, id := range ids {
		clients[id] = loaded[i]
	}
	return clients, nil
}

// hydrate loads the collections of inv concurrently. The client is only
// fetched for admin views.
func (s *Service) hydrate(ctx context.Context, inv *repository.Invoice, withClient bool) (*invoiceView, error) {
	view := &invoiceView{invoice: inv}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		view.groups, err = s.store.GetGroups(gctx, inv.ID)
		return err
	})
	g.Go(func() error {
		var err error
		view.conditions, err = s.store.GetPaymentConditions(gctx, inv.ID)
		return err
	})
	if withClient {
		g.Go(func() error {
			var err error
			view.client, err = s.store.GetClient(gctx, inv.ClientID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

func applyUpdate(inv *repository.Invoice, req transport.UpdateInvoiceRequest) {
	if req.ClientID != nil {
		inv.ClientID = *req.ClientID
	}
	if req.ClearValidDate {
		inv.ProposalValidDate = nil
	} else if req.ProposalValidDate != nil {
		inv.ProposalValidDate = req.ProposalValidDate
	}
	if req.Discounts != nil {
		inv.Discounts = money.Round(*req.Discounts)
	}
	if req.Additions != nil {
		inv.Additions = money.Round(*req.Additions)
	}
	if req.Displacement != nil {
		inv.Displacement = money.Round(*req.Displacement)
	}
	if req.Origin != nil {
		inv.Origin = trimmedOrNil(req.Origin)
	}
	if req.Observations != nil {
		inv.Observations = trimmedOrNil(req.Observations)
	}
	if req.Responsible != nil {
		inv.Responsible = trimmedOrNil(req.Responsible)
	}
	if req.InternalReference != nil {
		inv.InternalReference = trimmedOrNil(req.InternalReference)
	}
}

func (s *Service) publicLink(token string) string {
	return s.opts.AppBaseURL + publicLinkPath + token
}

func parseOptionalUUID(raw, field string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.BadRequest(fmt.Sprintf("invalid %s format", field))
	}
	return &parsed, nil
}

func clampPageSize(size int) int {
	if size <= 0 {
		return defaultPageSize
	}
	return min(size, maxPageSize)
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
