package repository

import (
	"time"

	"orcamento_backend/internal/invoices/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// Invoice is the database model for an invoice header
type Invoice struct {
	ID                   uuid.UUID
	Code                 string
	PublicURL            string
	PublicURLActive      bool
	ClientID             uuid.UUID
	Status               domain.Status
	ProposalValidDate    *time.Time
	TotalAmount          decimal.Decimal
	FinalAmount          decimal.Decimal
	Discounts            decimal.Decimal
	Additions            decimal.Decimal
	Displacement         decimal.Decimal
	ClientResponseStatus *string
	ClientResponseDate   *time.Time
	ClientResponseReason *string
	Origin               *string
	Observations         *string
	Responsible          *string
	InternalReference    *string
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// ClientName is filled on reads from the joined client row.
	ClientName string
}

// Adjustments returns the caller-supplied amounts of the invoice.
func (i *Invoice) Adjustments() domain.Adjustments {
	return domain.Adjustments{
		Discounts:    i.Discounts,
		Additions:    i.Additions,
		Displacement: i.Displacement,
	}
}

// Group is one option bundle with its items
type Group struct {
	ID        uuid.UUID
	InvoiceID uuid.UUID
	Name      string
	Type      string
	SortOrder int
	Items     []Item
}

// Item is one invoice line
type Item struct {
	ID                 uuid.UUID
	InvoiceID          uuid.UUID
	GroupID            uuid.UUID
	ProductID          *uuid.UUID
	ProductVariationID *uuid.UUID
	ServiceID          *uuid.UUID
	ServiceVariationID *uuid.UUID
	Quantity           decimal.Decimal
	UnitPrice          decimal.Decimal
	TotalPrice         decimal.Decimal
	CustomName         *string
	CustomDescription  *string
	CustomPrice        *decimal.Decimal
	SortOrder          int

	// CatalogName and CatalogDescription come from the referenced product or
	// service (variation name appended) and are only filled on reads.
	CatalogName        string
	CatalogDescription *string
}

// PaymentCondition is one payment term of an invoice
type PaymentCondition struct {
	ID                   uuid.UUID
	InvoiceID            uuid.UUID
	Type                 string
	Description          *string
	NumberOfInstallments int
	InterestRate         decimal.Decimal
	SortOrder            int
}

// ResponseStamp records the client's decision on an invoice.
type ResponseStamp struct {
	Status domain.Status
	Date   time.Time
	Reason *string
}

// ContactEmail is one e-mail address of a client.
type ContactEmail struct {
	Email   string
	Primary bool
}

// ContactPhone is one phone number of a client.
type ContactPhone struct {
	Phone   string
	Primary bool
}

// Client is the read-only view of a client record.
type Client struct {
	ID       uuid.UUID
	Name     string
	Nickname *string
	Emails   []ContactEmail
	Phones   []ContactPhone
}

// VariationKind selects the product or service variation table.
type VariationKind string

const (
	VariationProduct VariationKind = "product"
	VariationService VariationKind = "service"
)

// ExpiredInvoice identifies an invoice moved to EXPIRED by a sweep.
type ExpiredInvoice struct {
	ID             uuid.UUID
	Code           string
	PreviousStatus domain.Status
}

// ListParams contains parameters for listing invoices
type ListParams struct {
	ClientID  *uuid.UUID
	ProductID *uuid.UUID
	ServiceID *uuid.UUID
	Status    *string
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// ListResult contains the paginated result of listing invoices
type ListResult struct {
	Items      []Invoice
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}
