// Package ports defines the EventBus interface for event-driven communication.
package ports

import (
	"github.com/tejashwikalptaru/offtune/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
// It decouples event producers (services) from consumers (CLI, logging).
//
// Thread-safety: implementations must be safe for concurrent publish and
// subscribe from multiple goroutines.
type EventBus interface {
	// Publish delivers an event to all subscribers of its type.
	// Handlers should return quickly; long work belongs in a goroutine.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the given type and
	// returns an id for later unsubscription. The same handler may be
	// registered more than once.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered handler. Unknown ids
	// are a no-op.
	Unsubscribe(id domain.SubscriptionID)

	// Close shuts down the bus and drops all subscriptions.
	Close() error
}
