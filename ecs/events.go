package ecs

// EventType identifies registry lifecycle events.
type EventType string

const (
	EventAdded   EventType = "added"
	EventDied    EventType = "died"
	EventRemoved EventType = "removed"
)

// Event is a registry lifecycle notification.
type Event struct {
	Type   EventType
	Entity int
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}
