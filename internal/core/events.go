package core

import (
	"sync"
	"time"
)

// EventKind classifies a UiEvent for display.
type EventKind string

const (
	EventError   EventKind = "error"
	EventSuccess EventKind = "success"
	EventInfo    EventKind = "info"
)

// UiEvent is a discrete notification for the presentation layer to show,
// typically as a toast.
type UiEvent struct {
	Kind    EventKind `json:"kind"`
	Message string    `json:"message"`
	Action  string    `json:"action,omitempty"`
	Code    string    `json:"code,omitempty"`
	At      time.Time `json:"at"`

	Err error `json:"-"` // technical error, for logging only
}

// ErrorEvent builds an error notification from err.
func ErrorEvent(err error) UiEvent {
	msg := MapError(err)
	return UiEvent{
		Kind:    EventError,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		At:      time.Now(),
		Err:     err,
	}
}

// SuccessEvent builds a success notification.
func SuccessEvent(message string) UiEvent {
	return UiEvent{Kind: EventSuccess, Message: message, At: time.Now()}
}

// DefaultEventQueueSize bounds an EventQueue. The oldest events are dropped
// first when a client never drains its queue.
const DefaultEventQueueSize = 50

// EventQueue is a bounded FIFO of UiEvents. Safe for concurrent use.
type EventQueue struct {
	mu     sync.Mutex
	events []UiEvent
	max    int
}

// NewEventQueue creates a queue holding at most max events.
func NewEventQueue(max int) *EventQueue {
	if max <= 0 {
		max = DefaultEventQueueSize
	}
	return &EventQueue{max: max}
}

// Push appends an event.
func (q *EventQueue) Push(ev UiEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = append(q.events, ev)
	if over := len(q.events) - q.max; over > 0 {
		q.events = append(q.events[:0:0], q.events[over:]...)
	}
}

// Drain removes and returns all queued events, oldest first.
func (q *EventQueue) Drain() []UiEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.events
	q.events = nil
	if out == nil {
		out = []UiEvent{}
	}
	return out
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
