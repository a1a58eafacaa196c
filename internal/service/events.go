package service

// EventType defines the type of event
type EventType string

const (
	EventScanStarted   EventType = "scan-started"
	EventScanProgress  EventType = "scan-progress"
	EventScanComplete  EventType = "scan-complete"
	EventOnboardDone   EventType = "onboard-complete"
	EventSecretCreated EventType = "secret-created"
	EventSecretUpdated EventType = "secret-updated"
	EventSecretDeleted EventType = "secret-deleted"
)

// Event represents an event that occurred in the system
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}

// EventPublisher adapts the event bus to the publisher contracts of
// the scan coordinator and the onboarding dispatcher
type EventPublisher struct {
	bus *EventBus
}

// NewEventPublisher wraps the bus for lifecycle event producers
func NewEventPublisher(bus *EventBus) *EventPublisher {
	return &EventPublisher{bus: bus}
}

// PublishEvent forwards a lifecycle event onto the bus
func (p *EventPublisher) PublishEvent(eventType string, payload interface{}) {
	p.bus.Publish(Event{Type: EventType(eventType), Payload: payload})
}
