// internal/wizard/events.go
package wizard

// EventLevel classifies user-facing notifications.
type EventLevel string

const (
	EventSuccess EventLevel = "success"
	EventError   EventLevel = "error"
)

// Event is one user-facing notification. The original surfaced these as
// fire-and-forget toasts; here they accumulate on the session so callers and
// tests can assert on them.
type Event struct {
	Level   EventLevel `json:"level"`
	Message string     `json:"message"`
}

// Notifier collects events in emission order.
type Notifier struct {
	events []Event
}

func (n *Notifier) Success(msg string) {
	n.events = append(n.events, Event{Level: EventSuccess, Message: msg})
}

func (n *Notifier) Error(msg string) {
	n.events = append(n.events, Event{Level: EventError, Message: msg})
}

// Events returns all events emitted so far.
func (n *Notifier) Events() []Event {
	return n.events
}

// Drain returns pending events and clears them.
func (n *Notifier) Drain() []Event {
	out := n.events
	n.events = nil
	return out
}
