// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"orcamento_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewBaseEventAt = events.NewBaseEventAt
)

// Sources of a status change.
const (
	SourceOperator = "operator"
	SourcePublic   = "public"
	SourceExpiry   = "expiry"
)

// =============================================================================
// Invoice Domain Events
// =============================================================================

// InvoiceStatusChanged is published after any persisted status change.
type InvoiceStatusChanged struct {
	BaseEvent
	InvoiceID  uuid.UUID `json:"invoiceId"`
	Code       string    `json:"code"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	Source     string    `json:"source"`
}

func (e InvoiceStatusChanged) EventName() string { return "invoices.status_changed" }

// InvoiceApproved is published when the customer approves through the public link.
type InvoiceApproved struct {
	BaseEvent
	InvoiceID  uuid.UUID `json:"invoiceId"`
	Code       string    `json:"code"`
	ClientName string    `json:"clientName"`
	FinalTotal string    `json:"finalTotal"`
}

func (e InvoiceApproved) EventName() string { return "invoices.approved" }

// InvoiceRefused is published when the customer refuses through the public link.
type InvoiceRefused struct {
	BaseEvent
	InvoiceID  uuid.UUID `json:"invoiceId"`
	Code       string    `json:"code"`
	ClientName string    `json:"clientName"`
	Reason     string    `json:"reason"`
}

func (e InvoiceRefused) EventName() string { return "invoices.refused" }

// InvoiceAbandoned is published when the customer abandons through the public link.
type InvoiceAbandoned struct {
	BaseEvent
	InvoiceID  uuid.UUID `json:"invoiceId"`
	Code       string    `json:"code"`
	ClientName string    `json:"clientName"`
	Reason     string    `json:"reason"`
}

func (e InvoiceAbandoned) EventName() string { return "invoices.abandoned" }
