// Package events re-exports the platform event bus so modules depend on
// internal/events only.
package events

import (
	platformevents "orcamento_backend/platform/events"
	"orcamento_backend/platform/logger"
)

// InMemoryBus is a type alias to the platform InMemoryBus
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
