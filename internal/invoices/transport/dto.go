package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GroupType tells whether a group bundles products or services.
type GroupType string

const (
	GroupTypeProduct GroupType = "PRODUCT"
	GroupTypeService GroupType = "SERVICE"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// ItemRequest is one line within a group. It references exactly one catalog
// entry: a product (optionally one of its variations) or a service (optionally
// one of its variations). The rule is enforced by ValidateItemRequest.
type ItemRequest struct {
	ProductID          *uuid.UUID       `json:"productId"`
	ProductVariationID *uuid.UUID       `json:"productVariationId"`
	ServiceID          *uuid.UUID       `json:"serviceId"`
	ServiceVariationID *uuid.UUID       `json:"serviceVariationId"`
	Quantity           decimal.Decimal  `json:"quantity"`
	UnitPrice          decimal.Decimal  `json:"unitPrice"`
	CustomName         *string          `json:"customName" validate:"omitempty,max=255"`
	CustomDescription  *string          `json:"customDescription" validate:"omitempty,max=2000"`
	CustomPrice        *decimal.Decimal `json:"customPrice"`
}

// GroupRequest is a named option bundle.
type GroupRequest struct {
	Name  string        `json:"name" validate:"required,max=255"`
	Type  GroupType     `json:"type" validate:"required,oneof=PRODUCT SERVICE"`
	Items []ItemRequest `json:"items" validate:"omitempty,dive"`
}

// PaymentConditionRequest is one payment term.
type PaymentConditionRequest struct {
	Type                 string          `json:"type" validate:"required,max=100"`
	Description          *string         `json:"description" validate:"omitempty,max=1000"`
	NumberOfInstallments int             `json:"numberOfInstallments" validate:"omitempty,min=1,max=360"`
	InterestRate         decimal.Decimal `json:"interestRate"`
}

// CreateInvoiceRequest is the request body for creating an invoice.
type CreateInvoiceRequest struct {
	ClientID          uuid.UUID                 `json:"clientId" validate:"required"`
	Status            string                    `json:"status"`
	ProposalValidDate *time.Time                `json:"proposalValidDate"`
	Discounts         decimal.Decimal           `json:"discounts"`
	Additions         decimal.Decimal           `json:"additions"`
	Displacement      decimal.Decimal           `json:"displacement"`
	Origin            *string                   `json:"origin" validate:"omitempty,max=255"`
	Observations      *string                   `json:"observations" validate:"omitempty,max=5000"`
	Responsible       *string                   `json:"responsible" validate:"omitempty,max=255"`
	InternalReference *string                   `json:"internalReference" validate:"omitempty,max=255"`
	Groups            []GroupRequest            `json:"groups" validate:"omitempty,dive"`
	PaymentConditions []PaymentConditionRequest `json:"paymentConditions" validate:"omitempty,dive"`
}

// UpdateInvoiceRequest is the request body for updating an invoice. Nil
// fields keep their stored values. A non-nil Groups or PaymentConditions
// replaces that collection wholesale, an empty list included.
type UpdateInvoiceRequest struct {
	ClientID          *uuid.UUID                 `json:"clientId"`
	ProposalValidDate *time.Time                 `json:"proposalValidDate"`
	ClearValidDate    bool                       `json:"clearProposalValidDate"`
	Discounts         *decimal.Decimal           `json:"discounts"`
	Additions         *decimal.Decimal           `json:"additions"`
	Displacement      *decimal.Decimal           `json:"displacement"`
	Origin            *string                    `json:"origin" validate:"omitempty,max=255"`
	Observations      *string                    `json:"observations" validate:"omitempty,max=5000"`
	Responsible       *string                    `json:"responsible" validate:"omitempty,max=255"`
	InternalReference *string                    `json:"internalReference" validate:"omitempty,max=255"`
	Groups            *[]GroupRequest            `json:"groups" validate:"omitempty,dive"`
	PaymentConditions *[]PaymentConditionRequest `json:"paymentConditions" validate:"omitempty,dive"`
}

// ChangeStatusRequest is the request body for an operator status change.
type ChangeStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Reason *string `json:"reason" validate:"omitempty,max=2000"`
}

// PublicReasonRequest carries the customer's reason on refuse and abandon.
type PublicReasonRequest struct {
	Reason string `json:"reason" validate:"max=2000"`
}

// TogglePublicURLRequest enables or disables the public link.
type TogglePublicURLRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// CloneInvoiceRequest holds the clone query parameters.
type CloneInvoiceRequest struct {
	UpdatePrices bool `form:"updatePrices"`
}

// ListInvoicesRequest defines the query parameters for listing invoices.
type ListInvoicesRequest struct {
	ClientID  string `form:"clientId" validate:"omitempty,uuid"`
	Status    string `form:"status"`
	ProductID string `form:"productId" validate:"omitempty,uuid"`
	ServiceID string `form:"serviceId" validate:"omitempty,uuid"`
	Search    string `form:"search" validate:"omitempty,max=200"`
	SortBy    string `form:"sortBy" validate:"omitempty,oneof=code status finalAmount proposalValidDate clientName createdAt updatedAt"`
	SortOrder string `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// ClientResponse is the client as shown on an invoice, with one display
// email and phone.
type ClientResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Nickname *string   `json:"nickname,omitempty"`
	Email    *string   `json:"email,omitempty"`
	Phone    *string   `json:"phone,omitempty"`
}

// ItemResponse is one normalised line.
type ItemResponse struct {
	ID                 uuid.UUID  `json:"id"`
	ProductID          *uuid.UUID `json:"productId,omitempty"`
	ProductVariationID *uuid.UUID `json:"productVariationId,omitempty"`
	ServiceID          *uuid.UUID `json:"serviceId,omitempty"`
	ServiceVariationID *uuid.UUID `json:"serviceVariationId,omitempty"`
	Name               string     `json:"name"`
	Description        *string    `json:"description,omitempty"`
	Quantity           float64    `json:"quantity"`
	UnitPrice          float64    `json:"unitPrice"`
	CustomName         *string    `json:"customName,omitempty"`
	CustomDescription  *string    `json:"customDescription,omitempty"`
	CustomPrice        *float64   `json:"customPrice,omitempty"`
	TotalPrice         float64    `json:"totalPrice"`
}

// GroupResponse is one option group with its lines and subtotal.
type GroupResponse struct {
	ID    uuid.UUID      `json:"id"`
	Name  string         `json:"name"`
	Type  GroupType      `json:"type"`
	Total float64        `json:"total"`
	Items []ItemResponse `json:"items"`
}

// PaymentConditionResponse is one payment term.
type PaymentConditionResponse struct {
	ID                   uuid.UUID `json:"id"`
	Type                 string    `json:"type"`
	Description          *string   `json:"description,omitempty"`
	NumberOfInstallments int       `json:"numberOfInstallments"`
	InterestRate         float64   `json:"interestRate"`
}

// ClientDecisionResponse is the recorded client response on an invoice.
type ClientDecisionResponse struct {
	Status      string     `json:"status"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
	Reason      *string    `json:"reason,omitempty"`
}

// InvoiceResponse is the normalised admin read model.
type InvoiceResponse struct {
	ID                uuid.UUID                  `json:"id"`
	Code              string                     `json:"code"`
	PublicURL         string                     `json:"publicUrl"`
	PublicLink        string                     `json:"publicLink"`
	PublicURLActive   bool                       `json:"publicUrlActive"`
	Status            string                     `json:"status"`
	StatusLabel       string                     `json:"statusLabel"`
	ProposalValidDate *time.Time                 `json:"proposalValidDate,omitempty"`
	TotalAmount       float64                    `json:"totalAmount"`
	FinalAmount       float64                    `json:"finalAmount"`
	Discounts         float64                    `json:"discounts"`
	Additions         float64                    `json:"additions"`
	Displacement      float64                    `json:"displacement"`
	Origin            *string                    `json:"origin,omitempty"`
	Observations      *string                    `json:"observations,omitempty"`
	Responsible       *string                    `json:"responsible,omitempty"`
	InternalReference *string                    `json:"internalReference,omitempty"`
	Response          *ClientDecisionResponse    `json:"response,omitempty"`
	Client            ClientResponse             `json:"client"`
	Groups            []GroupResponse            `json:"groups"`
	PaymentConditions []PaymentConditionResponse `json:"paymentConditions"`
	CreatedAt         time.Time                  `json:"createdAt"`
	UpdatedAt         time.Time                  `json:"updatedAt"`
}

// InvoiceListItem is the row shape of the invoice listing.
type InvoiceListItem struct {
	ID                uuid.UUID      `json:"id"`
	Code              string         `json:"code"`
	Status            string         `json:"status"`
	StatusLabel       string         `json:"statusLabel"`
	ClientID          uuid.UUID      `json:"clientId"`
	ClientName        string         `json:"clientName"`
	Client            ClientResponse `json:"client"`
	ProposalValidDate *time.Time     `json:"proposalValidDate,omitempty"`
	TotalAmount       float64        `json:"totalAmount"`
	FinalAmount       float64        `json:"finalAmount"`
	PublicURLActive   bool           `json:"publicUrlActive"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// InvoiceListResponse is a page of invoices.
type InvoiceListResponse struct {
	Items      []InvoiceListItem `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// PublicInvoiceResponse is what an anonymous customer sees through the public link.
type PublicInvoiceResponse struct {
	Code              string                     `json:"code"`
	Status            string                     `json:"status"`
	StatusLabel       string                     `json:"statusLabel"`
	CompanyName       string                     `json:"companyName"`
	ClientName        string                     `json:"clientName"`
	ProposalValidDate *time.Time                 `json:"proposalValidDate,omitempty"`
	TotalAmount       float64                    `json:"totalAmount"`
	FinalAmount       float64                    `json:"finalAmount"`
	Discounts         float64                    `json:"discounts"`
	Additions         float64                    `json:"additions"`
	Displacement      float64                    `json:"displacement"`
	Observations      *string                    `json:"observations,omitempty"`
	Response          *ClientDecisionResponse    `json:"response,omitempty"`
	Groups            []GroupResponse            `json:"groups"`
	PaymentConditions []PaymentConditionResponse `json:"paymentConditions"`
	CanRespond        bool                       `json:"canRespond"`
}

// PublicURLResponse reports the current public link of an invoice.
type PublicURLResponse struct {
	PublicURL       string `json:"publicUrl"`
	PublicLink      string `json:"publicLink"`
	PublicURLActive bool   `json:"publicUrlActive"`
}
