package infrastructure

import (
	"casino/domain/events"

	log "github.com/sirupsen/logrus"
)

// NoopEventPublisher drops every event. Used when NATS is disabled and by
// admin commands.
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a new no-op event publisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

// Publish logs the event at trace level and drops it
func (n *NoopEventPublisher) Publish(event events.Event) error {
	log.WithField("eventType", event.Type()).Trace("Event dropped")
	return nil
}
