// Package domain holds the pure lifecycle and pricing rules for invoices.
// Nothing in this package performs I/O.
package domain

import (
	"strings"

	"orcamento_backend/platform/apperr"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusReady     Status = "READY"
	StatusExpired   Status = "EXPIRED"
	StatusApproved  Status = "APPROVED"
	StatusRefused   Status = "REFUSED"
	StatusCompleted Status = "COMPLETED"
	StatusInvoiced  Status = "INVOICED"
	StatusAbandoned Status = "ABANDONED"
	StatusDesisted  Status = "DESISTED"
)

// DefaultStatus is assigned to newly created invoices.
const DefaultStatus = StatusDraft

const (
	msgApprovedTransition = "approved quotes may only be completed or invoiced"
	msgApprovedLocked     = "approved quotes cannot be edited or deleted"
	msgUnknownStatus      = "unknown status"
	msgAlreadyAnswered    = "quote has already been answered"
)

var allStatuses = []Status{
	StatusDraft, StatusReady, StatusExpired, StatusApproved, StatusRefused,
	StatusCompleted, StatusInvoiced, StatusAbandoned, StatusDesisted,
}

var statusLabels = map[Status]string{
	StatusDraft:     "Rascunho",
	StatusReady:     "Pronto",
	StatusExpired:   "Expirado",
	StatusApproved:  "Aprovado",
	StatusRefused:   "Recusado",
	StatusCompleted: "Concluído",
	StatusInvoiced:  "Faturado",
	StatusAbandoned: "Abandonado",
	StatusDesisted:  "Desistência",
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus accepts a status name in any letter case.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", apperr.Validation(msgUnknownStatus).WithDetails(map[string]string{"status": raw})
	}
	return s, nil
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the Portuguese display name of the status.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// ValidateTransition checks a status change. Every move is allowed except
// leaving APPROVED for anything other than COMPLETED or INVOICED.
func ValidateTransition(from, to Status) error {
	if !to.Valid() {
		return apperr.Validation(msgUnknownStatus).WithDetails(map[string]string{"status": string(to)})
	}
	if from == StatusApproved && to != StatusCompleted && to != StatusInvoiced {
		return apperr.InvalidTransition(msgApprovedTransition).WithDetails(map[string]string{
			"from": string(from),
			"to":   string(to),
		})
	}
	return nil
}

// EnsureEditable rejects update and delete on approved invoices.
func EnsureEditable(current Status) error {
	if current == StatusApproved {
		return apperr.Locked(msgApprovedLocked)
	}
	return nil
}

// RequiresResponseStamp reports whether moving to s with a reason records
// the client's response (reason, date and status).
func RequiresResponseStamp(s Status) bool {
	switch s {
	case StatusAbandoned, StatusDesisted, StatusRefused:
		return true
	}
	return false
}

// AwaitingResponse reports whether the customer can still answer the invoice.
func AwaitingResponse(s Status) bool {
	return s == StatusDraft || s == StatusReady
}

// EnsureAwaitingResponse rejects customer decisions on invoices that already
// left the open states.
func EnsureAwaitingResponse(current Status) error {
	if !AwaitingResponse(current) {
		return apperr.InvalidTransition(msgAlreadyAnswered)
	}
	return nil
}
