package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"orcamento_backend/internal/invoices/domain"
	"orcamento_backend/platform/apperr"
	"orcamento_backend/platform/db"
	"orcamento_backend/platform/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Store is the persistence contract of the invoices service. Methods called
// inside WithTx run on the transaction.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	LockCodeSequence(ctx context.Context) error
	LastCode(ctx context.Context) (string, error)

	Insert(ctx context.Context, inv *Invoice) error
	UpdateHeader(ctx context.Context, inv *Invoice) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status, stamp *ResponseStamp, now time.Time) error
	ReplaceGroups(ctx context.Context, invoiceID uuid.UUID, groups []Group) error
	ReplacePaymentConditions(ctx context.Context, invoiceID uuid.UUID, conditions []PaymentCondition) error
	ItemTotals(ctx context.Context, invoiceID uuid.UUID) ([]decimal.Decimal, error)
	SetTotals(ctx context.Context, invoiceID uuid.UUID, totals domain.Totals, now time.Time) error
	SetPublicURL(ctx context.Context, id uuid.UUID, token string, now time.Time) error
	SetPublicURLActive(ctx context.Context, id uuid.UUID, active bool, now time.Time) error
	ExpireIfOpen(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	ExpireOverdue(ctx context.Context, now time.Time) ([]ExpiredInvoice, error)
	Delete(ctx context.Context, id uuid.UUID) error

	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)
	GetByPublicURL(ctx context.Context, token string) (*Invoice, error)
	GetGroups(ctx context.Context, invoiceID uuid.UUID) ([]Group, error)
	GetPaymentConditions(ctx context.Context, invoiceID uuid.UUID) ([]PaymentCondition, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)

	GetClient(ctx context.Context, id uuid.UUID) (*Client, error)
	VariationPrice(ctx context.Context, kind VariationKind, id uuid.UUID) (decimal.Decimal, error)
}

// ── Repository ────────────────────────────────────────────────────────────────

const (
	invoiceNotFoundMsg   = "invoice not found"
	clientNotFoundMsg    = "client not found"
	variationNotFoundMsg = "variation not found"
	catalogRefMsg        = "referenced client, product or service does not exist"

	codeLockKey = "invoices.code"
)

// Repository provides database operations for invoices
type Repository struct {
	pool *pgxpool.Pool
	db   db.Querier
}

var _ Store = (*Repository)(nil)

// New creates a new invoices repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

// WithTx runs fn on a repository bound to a read-committed transaction.
// Row locks (FOR UPDATE) and the code advisory lock serialise writers.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return db.WithTxLevel(ctx, r.pool, pgx.ReadCommitted, func(tx pgx.Tx) error {
		return fn(ctx, &Repository{pool: r.pool, db: tx})
	})
}

// LockCodeSequence takes a transaction-scoped advisory lock so concurrent
// creates derive codes one after another.
func (r *Repository) LockCodeSequence(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, codeLockKey); err != nil {
		return fmt.Errorf("failed to lock invoice code sequence: %w", err)
	}
	return nil
}

// LastCode returns the code of the most recently created invoice, or "" when none exist.
func (r *Repository) LastCode(ctx context.Context) (string, error) {
	var code string
	err := r.db.QueryRow(ctx, `SELECT code FROM invoices ORDER BY created_at DESC, code DESC LIMIT 1`).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read last invoice code: %w", err)
	}
	return code, nil
}

// Insert creates the invoice header row
func (r *Repository) Insert(ctx context.Context, inv *Invoice) error {
	query := `
		INSERT INTO invoices (
			id, code, public_url, public_url_active, client_id, status, proposal_valid_date,
			total_amount, final_amount, discounts, additions, displacement,
			origin, observations, responsible, internal_reference, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	if _, err := r.db.Exec(ctx, query,
		inv.ID, inv.Code, inv.PublicURL, inv.PublicURLActive, inv.ClientID, string(inv.Status), inv.ProposalValidDate,
		money.ToNumeric(inv.TotalAmount), money.ToNumeric(inv.FinalAmount),
		money.ToNumeric(inv.Discounts), money.ToNumeric(inv.Additions), money.ToNumeric(inv.Displacement),
		inv.Origin, inv.Observations, inv.Responsible, inv.InternalReference, inv.CreatedAt, inv.UpdatedAt,
	); err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Conflict("invoice code or public link already in use")
		}
		if db.IsForeignKeyViolation(err) {
			return apperr.Validation(catalogRefMsg)
		}
		return fmt.Errorf("failed to insert invoice: %w", err)
	}
	return nil
}

// UpdateHeader writes the editable header fields
func (r *Repository) UpdateHeader(ctx context.Context, inv *Invoice) error {
	query := `
		UPDATE invoices SET
			client_id = $2, proposal_valid_date = $3,
			discounts = $4, additions = $5, displacement = $6,
			origin = $7, observations = $8, responsible = $9, internal_reference = $10,
			updated_at = $11
		WHERE id = $1`

	result, err := r.db.Exec(ctx, query,
		inv.ID, inv.ClientID, inv.ProposalValidDate,
		money.ToNumeric(inv.Discounts), money.ToNumeric(inv.Additions), money.ToNumeric(inv.Displacement),
		inv.Origin, inv.Observations, inv.Responsible, inv.InternalReference,
		inv.UpdatedAt,
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.Validation(catalogRefMsg)
		}
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(invoiceNotFoundMsg)
	}
	return nil
}

// UpdateStatus sets the status and, when stamp is given, the client response fields
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status, stamp *ResponseStamp, now time.Time) error {
	var (
		query string
		args  []any
	)
	if stamp == nil {
		query = `UPDATE invoices SET status = $2, updated_at = $3 WHERE id = $1`
		args = []any{id, string(status), now}
	} else {
		query = `
			UPDATE invoices SET
				status = $2, updated_at = $3,
				client_response_status = $4, client_response_date = $5, client_response_reason = $6
			WHERE id = $1`
		args = []any{id, string(status), now, string(stamp.Status), stamp.Date, stamp.Reason}
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(invoiceNotFoundMsg)
	}
	return nil
}

// ReplaceGroups deletes every group and item of the invoice and inserts groups.
func (r *Repository) ReplaceGroups(ctx context.Context, invoiceID uuid.UUID, groups []Group) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM invoice_groups WHERE invoice_id = $1`, invoiceID); err != nil {
		return fmt.Errorf("failed to delete invoice groups: %w", err)
	}

	groupQuery := `INSERT INTO invoice_groups (id, invoice_id, name, type, sort_order) VALUES ($1, $2, $3, $4, $5)`
	itemQuery := `
		INSERT INTO invoice_items (
			id, invoice_id, group_id, product_id, product_variation_id, service_id, service_variation_id,
			quantity, unit_price, total_price, custom_name, custom_description, custom_price, sort_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	for _, g := range groups {
		if _, err := r.db.Exec(ctx, groupQuery, g.ID, invoiceID, g.Name, g.Type, g.SortOrder); err != nil {
			return fmt.Errorf("failed to insert invoice group: %w", err)
		}
		for _, it := range g.Items {
			if _, err := r.db.Exec(ctx, itemQuery,
				it.ID, invoiceID, g.ID, it.ProductID, it.ProductVariationID, it.ServiceID, it.ServiceVariationID,
				money.ToNumeric(it.Quantity), money.ToNumeric(it.UnitPrice), money.ToNumeric(it.TotalPrice),
				it.CustomName, it.CustomDescription, money.ToNullableNumeric(it.CustomPrice), it.SortOrder,
			); err != nil {
				if db.IsForeignKeyViolation(err) {
					return apperr.Validation(catalogRefMsg)
				}
				return fmt.Errorf("failed to insert invoice item: %w", err)
			}
		}
	}
	return nil
}

// ReplacePaymentConditions deletes and re-inserts the payment conditions of the invoice
func (r *Repository) ReplacePaymentConditions(ctx context.Context, invoiceID uuid.UUID, conditions []PaymentCondition) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM invoice_payment_conditions WHERE invoice_id = $1`, invoiceID); err != nil {
		return fmt.Errorf("failed to delete payment conditions: %w", err)
	}

	query := `
		INSERT INTO invoice_payment_conditions (
			id, invoice_id, type, description, number_of_installments, interest_rate, sort_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, pc := range conditions {
		if _, err := r.db.Exec(ctx, query,
			pc.ID, invoiceID, pc.Type, pc.Description, pc.NumberOfInstallments,
			money.ToNumeric(pc.InterestRate), pc.SortOrder,
		); err != nil {
			return fmt.Errorf("failed to insert payment condition: %w", err)
		}
	}
	return nil
}

// ItemTotals re-reads the line totals of the invoice
func (r *Repository) ItemTotals(ctx context.Context, invoiceID uuid.UUID) ([]decimal.Decimal, error) {
	rows, err := r.db.Query(ctx, `SELECT total_price FROM invoice_items WHERE invoice_id = $1`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query item totals: %w", err)
	}
	defer rows.Close()

	var totals []decimal.Decimal
	for rows.Next() {
		var n pgtype.Numeric
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan item total: %w", err)
		}
		totals = append(totals, money.FromNumeric(n))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate item totals: %w", err)
	}
	return totals, nil
}

// SetTotals persists the derived amounts
func (r *Repository) SetTotals(ctx context.Context, invoiceID uuid.UUID, totals domain.Totals, now time.Time) error {
	result, err := r.db.Exec(ctx,
		`UPDATE invoices SET total_amount = $2, final_amount = $3, updated_at = $4 WHERE id = $1`,
		invoiceID, money.ToNumeric(totals.TotalAmount), money.ToNumeric(totals.FinalAmount), now,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice totals: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(invoiceNotFoundMsg)
	}
	return nil
}

// SetPublicURL replaces the public token
func (r *Repository) SetPublicURL(ctx context.Context, id uuid.UUID, token string, now time.Time) error {
	result, err := r.db.Exec(ctx, `UPDATE invoices SET public_url = $2, updated_at = $3 WHERE id = $1`, id, token, now)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Conflict("public link already in use")
		}
		return fmt.Errorf("failed to set public url: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(invoiceNotFoundMsg)
	}
	return nil
}

// SetPublicURLActive enables or disables the public link
func (r *Repository) SetPublicURLActive(ctx context.Context, id uuid.UUID, active bool, now time.Time) error {
	result, err := r.db.Exec(ctx, `UPDATE invoices SET public_url_active = $2, updated_at = $3 WHERE id = $1`, id, active, now)
	if err != nil {
		return fmt.Errorf("failed to toggle public url: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(invoiceNotFoundMsg)
	}
	return nil
}

// ExpireIfOpen moves a DRAFT or READY invoice to EXPIRED. It reports whether a row changed,
// so repeating it is harmless.
func (r *Repository) ExpireIfOpen(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE invoices SET status = $2, updated_at = $3
		WHERE id = $1 AND status IN ($4, $5)`,
		id, string(domain.StatusExpired), now, string(domain.StatusDraft), string(domain.StatusReady),
	)
	if err != nil {
		return false, fmt.Errorf("failed to expire invoice: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ExpireOverdue moves every open invoice whose validity date has passed to EXPIRED.
func (r *Repository) ExpireOverdue(ctx context.Context, now time.Time) ([]ExpiredInvoice, error) {
	rows, err := r.db.Query(ctx, `
		WITH due AS (
			SELECT id, status FROM invoices
			WHERE status IN ($3, $4) AND proposal_valid_date IS NOT NULL AND proposal_valid_date < $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE invoices i SET status = $2, updated_at = $1
		FROM due WHERE i.id = due.id
		RETURNING i.id, i.code, due.status`,
		now, string(domain.StatusExpired), string(domain.StatusDraft), string(domain.StatusReady),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to expire overdue invoices: %w", err)
	}
	defer rows.Close()

	var expired []ExpiredInvoice
	for rows.Next() {
		var e ExpiredInvoice
		var prev string
		if err := rows.Scan(&e.ID, &e.Code, &prev); err != nil {
			return nil, fmt.Errorf("failed to scan expired invoice: %w", err)
		}
		e.PreviousStatus = domain.Status(prev)
		expired = append(expired, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expired invoices: %w", err)
	}
	return expired, nil
}

// Delete removes an invoice (cascade deletes groups, items and payment conditions)
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(invoiceNotFoundMsg)
	}
	return nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

const invoiceSelect = `
	SELECT i.id, i.code, i.public_url, i.public_url_active, i.client_id, i.status, i.proposal_valid_date,
		i.total_amount, i.final_amount, i.discounts, i.additions, i.displacement,
		i.client_response_status, i.client_response_date, i.client_response_reason,
		i.origin, i.observations, i.responsible, i.internal_reference,
		i.created_at, i.updated_at, c.name
	FROM invoices i
	JOIN clients c ON c.id = i.client_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row scanner) (*Invoice, error) {
	var (
		inv                                              Invoice
		status                                           string
		total, final, discounts, additions, displacement pgtype.Numeric
	)
	if err := row.Scan(
		&inv.ID, &inv.Code, &inv.PublicURL, &inv.PublicURLActive, &inv.ClientID, &status, &inv.ProposalValidDate,
		&total, &final, &discounts, &additions, &displacement,
		&inv.ClientResponseStatus, &inv.ClientResponseDate, &inv.ClientResponseReason,
		&inv.Origin, &inv.Observations, &inv.Responsible, &inv.InternalReference,
		&inv.CreatedAt, &inv.UpdatedAt, &inv.ClientName,
	); err != nil {
		return nil, err
	}
	inv.Status = domain.Status(status)
	inv.TotalAmount = money.FromNumeric(total)
	inv.FinalAmount = money.FromNumeric(final)
	inv.Discounts = money.FromNumeric(discounts)
	inv.Additions = money.FromNumeric(additions)
	inv.Displacement = money.FromNumeric(displacement)
	return &inv, nil
}

func (r *Repository) getOne(ctx context.Context, where string, arg any) (*Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, invoiceSelect+" "+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(invoiceNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}

// GetByID retrieves an invoice by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return r.getOne(ctx, "WHERE i.id = $1", id)
}

// GetByIDForUpdate retrieves an invoice and locks its row until the transaction ends
func (r *Repository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return r.getOne(ctx, "WHERE i.id = $1 FOR UPDATE OF i", id)
}

// GetByPublicURL retrieves an invoice by its public token
func (r *Repository) GetByPublicURL(ctx context.Context, token string) (*Invoice, error) {
	return r.getOne(ctx, "WHERE i.public_url = $1", token)
}

// GetGroups retrieves the groups of an invoice with their items and catalog names
func (r *Repository) GetGroups(ctx context.Context, invoiceID uuid.UUID) ([]Group, error) {
	groupRows, err := r.db.Query(ctx, `
		SELECT id, invoice_id, name, type, sort_order
		FROM invoice_groups WHERE invoice_id = $1
		ORDER BY sort_order ASC`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice groups: %w", err)
	}
	defer groupRows.Close()

	groups := make([]Group, 0)
	index := make(map[uuid.UUID]int)
	for groupRows.Next() {
		var g Group
		if err := groupRows.Scan(&g.ID, &g.InvoiceID, &g.Name, &g.Type, &g.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan invoice group: %w", err)
		}
		g.Items = make([]Item, 0)
		index[g.ID] = len(groups)
		groups = append(groups, g)
	}
	if err := groupRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoice groups: %w", err)
	}

	itemRows, err := r.db.Query(ctx, `
		SELECT it.id, it.invoice_id, it.group_id,
			it.product_id, it.product_variation_id, it.service_id, it.service_variation_id,
			it.quantity, it.unit_price, it.total_price,
			it.custom_name, it.custom_description, it.custom_price, it.sort_order,
			COALESCE(p.name, s.name, ''), COALESCE(pv.name, sv.name), COALESCE(p.description, s.description)
		FROM invoice_items it
		LEFT JOIN products p ON p.id = it.product_id
		LEFT JOIN product_variations pv ON pv.id = it.product_variation_id
		LEFT JOIN services s ON s.id = it.service_id
		LEFT JOIN service_variations sv ON sv.id = it.service_variation_id
		WHERE it.invoice_id = $1
		ORDER BY it.sort_order ASC`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			it                      Item
			qty, unit, total, custm pgtype.Numeric
			variationName           *string
		)
		if err := itemRows.Scan(
			&it.ID, &it.InvoiceID, &it.GroupID,
			&it.ProductID, &it.ProductVariationID, &it.ServiceID, &it.ServiceVariationID,
			&qty, &unit, &total,
			&it.CustomName, &it.CustomDescription, &custm, &it.SortOrder,
			&it.CatalogName, &variationName, &it.CatalogDescription,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		it.Quantity = money.FromNumeric(qty)
		it.UnitPrice = money.FromNumeric(unit)
		it.TotalPrice = money.FromNumeric(total)
		it.CustomPrice = money.FromNullableNumeric(custm)
		if variationName != nil && strings.TrimSpace(*variationName) != "" {
			it.CatalogName = strings.TrimSpace(it.CatalogName + " - " + *variationName)
		}

		if i, ok := index[it.GroupID]; ok {
			groups[i].Items = append(groups[i].Items, it)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoice items: %w", err)
	}

	return groups, nil
}

// GetPaymentConditions retrieves the payment conditions of an invoice
func (r *Repository) GetPaymentConditions(ctx context.Context, invoiceID uuid.UUID) ([]PaymentCondition, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_id, type, description, number_of_installments, interest_rate, sort_order
		FROM invoice_payment_conditions WHERE invoice_id = $1
		ORDER BY sort_order ASC`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment conditions: %w", err)
	}
	defer rows.Close()

	conditions := make([]PaymentCondition, 0)
	for rows.Next() {
		var (
			pc   PaymentCondition
			rate pgtype.Numeric
		)
		if err := rows.Scan(&pc.ID, &pc.InvoiceID, &pc.Type, &pc.Description, &pc.NumberOfInstallments, &rate, &pc.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan payment condition: %w", err)
		}
		pc.InterestRate = money.FromNumeric(rate)
		conditions = append(conditions, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment conditions: %w", err)
	}
	return conditions, nil
}

// List retrieves invoices with filtering and pagination
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	sortBy, err := resolveSortBy(params.SortBy)
	if err != nil {
		return nil, err
	}
	sortOrder, err := resolveSortOrder(params.SortOrder)
	if err != nil {
		return nil, err
	}

	var searchParam interface{}
	if s := strings.TrimSpace(params.Search); s != "" {
		searchParam = containsPattern(s)
	}

	var statusParam interface{}
	if params.Status != nil {
		statusParam = *params.Status
	}

	var clientParam, productParam, serviceParam interface{}
	if params.ClientID != nil {
		clientParam = *params.ClientID
	}
	if params.ProductID != nil {
		productParam = *params.ProductID
	}
	if params.ServiceID != nil {
		serviceParam = *params.ServiceID
	}

	baseQuery := `
		FROM invoices i
		JOIN clients c ON c.id = i.client_id
		WHERE ($1::uuid IS NULL OR i.client_id = $1)
			AND ($2::text IS NULL OR i.status = $2)
			AND ($3::uuid IS NULL OR EXISTS (SELECT 1 FROM invoice_items it WHERE it.invoice_id = i.id AND it.product_id = $3))
			AND ($4::uuid IS NULL OR EXISTS (SELECT 1 FROM invoice_items it WHERE it.invoice_id = i.id AND it.service_id = $4))
			AND ($5::text IS NULL OR i.code ILIKE $5 ESCAPE '\' OR c.name ILIKE $5 ESCAPE '\')
	`
	args := []interface{}{clientParam, statusParam, productParam, serviceParam, searchParam}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}

	totalPages := 0
	if params.PageSize > 0 {
		totalPages = (total + params.PageSize - 1) / params.PageSize
	}
	offset := (params.Page - 1) * params.PageSize

	selectQuery := `
		SELECT i.id, i.code, i.public_url, i.public_url_active, i.client_id, i.status, i.proposal_valid_date,
			i.total_amount, i.final_amount, i.discounts, i.additions, i.displacement,
			i.client_response_status, i.client_response_date, i.client_response_reason,
			i.origin, i.observations, i.responsible, i.internal_reference,
			i.created_at, i.updated_at, c.name
		` + baseQuery + `
		ORDER BY
			CASE WHEN $6 = 'code' AND $7 = 'asc' THEN i.code END ASC,
			CASE WHEN $6 = 'code' AND $7 = 'desc' THEN i.code END DESC,
			CASE WHEN $6 = 'status' AND $7 = 'asc' THEN i.status END ASC,
			CASE WHEN $6 = 'status' AND $7 = 'desc' THEN i.status END DESC,
			CASE WHEN $6 = 'finalAmount' AND $7 = 'asc' THEN i.final_amount END ASC,
			CASE WHEN $6 = 'finalAmount' AND $7 = 'desc' THEN i.final_amount END DESC,
			CASE WHEN $6 = 'proposalValidDate' AND $7 = 'asc' THEN i.proposal_valid_date END ASC,
			CASE WHEN $6 = 'proposalValidDate' AND $7 = 'desc' THEN i.proposal_valid_date END DESC,
			CASE WHEN $6 = 'clientName' AND $7 = 'asc' THEN c.name END ASC,
			CASE WHEN $6 = 'clientName' AND $7 = 'desc' THEN c.name END DESC,
			CASE WHEN $6 = 'createdAt' AND $7 = 'asc' THEN i.created_at END ASC,
			CASE WHEN $6 = 'createdAt' AND $7 = 'desc' THEN i.created_at END DESC,
			CASE WHEN $6 = 'updatedAt' AND $7 = 'asc' THEN i.updated_at END ASC,
			CASE WHEN $6 = 'updatedAt' AND $7 = 'desc' THEN i.updated_at END DESC,
			i.created_at DESC
		LIMIT $8 OFFSET $9`

	args = append(args, sortBy, sortOrder, params.PageSize, offset)

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	items := make([]Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		items = append(items, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s literally anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func resolveSortBy(sortBy string) (string, error) {
	if sortBy == "" {
		return "createdAt", nil
	}
	switch sortBy {
	case "code", "status", "finalAmount", "proposalValidDate", "clientName", "createdAt", "updatedAt":
		return sortBy, nil
	default:
		return "", apperr.BadRequest("invalid sort field")
	}
}

func resolveSortOrder(sortOrder string) (string, error) {
	if sortOrder == "" {
		return "desc", nil
	}
	switch sortOrder {
	case "asc", "desc":
		return sortOrder, nil
	default:
		return "", apperr.BadRequest("invalid sort order")
	}
}
