package domain

import "time"

// Access is the outcome of evaluating a public link.
type Access struct {
	Allowed bool
	// ExpireNow is set when the validity date has passed on a DRAFT or READY
	// invoice. The caller is responsible for persisting the EXPIRED status.
	ExpireNow bool
	// Effective is the status the caller should present, EXPIRED when ExpireNow is set.
	Effective Status
}

// EvaluatePublicAccess decides whether an anonymous caller may view or act
// on an invoice. It does not mutate anything, so repeated calls with the same
// inputs return the same result.
func EvaluatePublicAccess(active bool, status Status, validUntil *time.Time, now time.Time) Access {
	if !active {
		return Access{Effective: status}
	}

	switch status {
	case StatusApproved, StatusCompleted, StatusInvoiced:
		return Access{Allowed: true, Effective: status}
	}

	if validUntil != nil && now.After(*validUntil) {
		if status == StatusReady || status == StatusDraft {
			return Access{ExpireNow: true, Effective: StatusExpired}
		}
		return Access{Effective: status}
	}

	return Access{
		Allowed:   status == StatusDraft || status == StatusReady,
		Effective: status,
	}
}

// IsOverdue reports whether an open invoice has passed its validity date.
// The background sweep uses it to pick rows the gate would expire.
func IsOverdue(status Status, validUntil *time.Time, now time.Time) bool {
	if status != StatusDraft && status != StatusReady {
		return false
	}
	return validUntil != nil && now.After(*validUntil)
}
