package infrastructure

import (
	"fmt"

	"casino/domain/events"
)

var eventSubjects = map[events.EventType]string{
	events.EventTypeBalanceChange: "casino.balance.changed",
	events.EventTypeBetSettled:    "casino.bets.settled",
	events.EventTypeCrashOpened:   "casino.crash.opened",
	events.EventTypeCrashExpired:  "casino.crash.expired",
	events.EventTypePolicyChanged: "casino.policy.changed",
}

// EventSubjectMapper maps domain events to NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := eventSubjects[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("casino.unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range eventSubjects {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// StreamSubjects returns the wildcard the event stream listens on
func (m *EventSubjectMapper) StreamSubjects() []string {
	return []string{"casino.>"}
}
