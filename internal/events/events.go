package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rescale/singleinstance/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventLog EventType = "log"

	// Coordination lifecycle
	EventRoleDetermined EventType = "role_determined" // Setup settled on leader or follower
	EventStaleEndpoint  EventType = "stale_endpoint"  // Abandoned socket found and removed
	EventActivation     EventType = "activation"      // Follower hand-off delivered to the leader
	EventShutdown       EventType = "shutdown"        // Leader released the endpoint
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// LogEvent represents log messages
type LogEvent struct {
	BaseEvent
	Level     LogLevel
	Message   string
	Component string
}

// RoleEvent is published once per Setup call that reaches a role.
type RoleEvent struct {
	BaseEvent
	Role     string // "leader" or "follower"
	Endpoint string
}

// StaleEndpointEvent is published each time an abandoned endpoint is removed.
type StaleEndpointEvent struct {
	BaseEvent
	Endpoint  string
	Remaining int // retry budget left after this recovery
}

// ActivationEvent carries the arguments a follower forwarded to the leader.
type ActivationEvent struct {
	BaseEvent
	ID   string
	Args []string
}

// ShutdownEvent is published when the leader has released its endpoint.
type ShutdownEvent struct {
	BaseEvent
	Endpoint    string
	Activations int64 // total hand-offs served during the leader's lifetime
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers without blocking. Subscribers
// with a full buffer miss the event and the drop counter is incremented.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishLog is a convenience method for publishing log events
func (eb *EventBus) PublishLog(level LogLevel, component, message string) {
	eb.Publish(&LogEvent{
		BaseEvent: BaseEvent{
			EventType: EventLog,
			Time:      time.Now(),
		},
		Level:     level,
		Message:   message,
		Component: component,
	})
}

// PublishRole is a convenience method for publishing role events
func (eb *EventBus) PublishRole(role, endpoint string) {
	eb.Publish(&RoleEvent{
		BaseEvent: BaseEvent{
			EventType: EventRoleDetermined,
			Time:      time.Now(),
		},
		Role:     role,
		Endpoint: endpoint,
	})
}

// PublishActivation is a convenience method for publishing activation events.
// The args slice is copied so subscribers never share it with the callback.
func (eb *EventBus) PublishActivation(id string, args []string) {
	eb.Publish(&ActivationEvent{
		BaseEvent: BaseEvent{
			EventType: EventActivation,
			Time:      time.Now(),
		},
		ID:   id,
		Args: append([]string(nil), args...),
	})
}

// Unsubscribe removes a subscription channel from a specific event type
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
