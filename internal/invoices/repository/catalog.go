package repository

import (
	"context"
	"errors"
	"fmt"

	"orcamento_backend/platform/apperr"
	"orcamento_backend/platform/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Lookups against records owned by the client and catalog modules. They are
// read-only from the invoices point of view.

// GetClient retrieves a client with its e-mail addresses and phone numbers
func (r *Repository) GetClient(ctx context.Context, id uuid.UUID) (*Client, error) {
	var c Client
	err := r.db.QueryRow(ctx, `SELECT id, name, nickname FROM clients WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Nickname)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(clientNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	emailRows, err := r.db.Query(ctx, `
		SELECT email, is_primary FROM client_emails
		WHERE client_id = $1 ORDER BY created_at ASC, id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query client emails: %w", err)
	}
	c.Emails, err = pgx.CollectRows(emailRows, func(row pgx.CollectableRow) (ContactEmail, error) {
		var e ContactEmail
		err := row.Scan(&e.Email, &e.Primary)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan client emails: %w", err)
	}

	phoneRows, err := r.db.Query(ctx, `
		SELECT phone, is_primary FROM client_phones
		WHERE client_id = $1 ORDER BY created_at ASC, id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query client phones: %w", err)
	}
	c.Phones, err = pgx.CollectRows(phoneRows, func(row pgx.CollectableRow) (ContactPhone, error) {
		var p ContactPhone
		err := row.Scan(&p.Phone, &p.Primary)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan client phones: %w", err)
	}

	return &c, nil
}

// VariationPrice returns the current catalog price of a product or service variation
func (r *Repository) VariationPrice(ctx context.Context, kind VariationKind, id uuid.UUID) (decimal.Decimal, error) {
	var query string
	switch kind {
	case VariationProduct:
		query = `SELECT price FROM product_variations WHERE id = $1`
	case VariationService:
		query = `SELECT price FROM service_variations WHERE id = $1`
	default:
		return decimal.Zero, fmt.Errorf("unknown variation kind %q", kind)
	}

	var price pgtype.Numeric
	if err := r.db.QueryRow(ctx, query, id).Scan(&price); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, apperr.NotFound(variationNotFoundMsg)
		}
		return decimal.Zero, fmt.Errorf("failed to get variation price: %w", err)
	}
	return money.FromNumeric(price), nil
}
