package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"regionbank/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBankConfigChanged EventType = "bank_config_changed"
	EventTypePlayerJoined      EventType = "player_joined"
	EventTypePlayerQuit        EventType = "player_quit"
	EventTypePayoutCompleted   EventType = "payout_completed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BankConfigChangedEvent signals that a bank's configuration (payout times in
// particular) changed. BankID is zero when the global defaults changed.
type BankConfigChangedEvent struct {
	BankID int64
}

func (e BankConfigChangedEvent) Type() EventType {
	return EventTypeBankConfigChanged
}

// PlayerJoinedEvent is emitted when a player becomes present.
// LastSeen is the zero time for a player never seen before.
type PlayerJoinedEvent struct {
	Player   uuid.UUID
	LastSeen time.Time
}

func (e PlayerJoinedEvent) Type() EventType {
	return EventTypePlayerJoined
}

// PlayerQuitEvent is emitted when a player stops being present
type PlayerQuitEvent struct {
	Player uuid.UUID
	At     time.Time
}

func (e PlayerQuitEvent) Type() EventType {
	return EventTypePlayerQuit
}

// PayoutCompletedEvent summarizes a processed payout batch
type PayoutCompletedEvent struct {
	PayoutTime models.TimeOfDay
	FiredAt    time.Time
	BankIDs    []int64
}

func (e PayoutCompletedEvent) Type() EventType {
	return EventTypePayoutCompleted
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit delivers an event to all registered handlers. Handlers run on their own
// goroutines and a panicking handler is logged and contained.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Publish emits the event with a background context
func (b *Bus) Publish(event Event) {
	b.Emit(context.Background(), event)
}
