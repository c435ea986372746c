// Package events provides the in-process event bus used to fan out liquidity
// alerts and state changes to stream subscribers.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a kind of event
type EventType string

const (
	// LiquidityAlert is emitted for every alert raised by a fund analysis
	LiquidityAlert EventType = "LIQUIDITY_ALERT"
	// AnalysisCompleted is emitted after a fund analysis, alert or not
	AnalysisCompleted EventType = "ANALYSIS_COMPLETED"
	// FundChanged is emitted when a fund, its holdings or its history change
	FundChanged EventType = "FUND_CHANGED"
	// BackupCompleted is emitted after a database backup upload
	BackupCompleted EventType = "BACKUP_COMPLETED"
)

// Event is a single published event
type Event struct {
	Type      EventType `json:"type"`
	Module    string    `json:"module"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data,omitempty"`
}

// Handler receives published events. Handlers must not block.
type Handler func(*Event)

type subscription struct {
	id      int
	types   map[EventType]bool // nil = all types
	handler Handler
}

// Bus is a synchronous publish/subscribe hub
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
	log    zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[int]subscription),
		log:  log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a handler for the given types (all types when none are
// given) and returns a function that removes the subscription
func (b *Bus) Subscribe(handler Handler, types ...EventType) func() {
	var filter map[EventType]bool
	if len(types) > 0 {
		filter = make(map[EventType]bool, len(types))
		for _, t := range types {
			filter[t] = true
		}
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = subscription{id: id, types: filter, handler: handler}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Emit publishes typed event data on behalf of a module
func (b *Bus) Emit(module string, data EventData) {
	b.Publish(&Event{
		Type:      data.EventType(),
		Module:    module,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

// Publish delivers an event to every matching subscriber
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.types == nil || s.types[event.Type] {
			handlers = append(handlers, s.handler)
		}
	}
	b.mu.RUnlock()

	b.log.Debug().
		Str("event_type", string(event.Type)).
		Str("module", event.Module).
		Int("subscribers", len(handlers)).
		Msg("Publishing event")

	for _, h := range handlers {
		h(event)
	}
}

// SubscriberCount returns the number of active subscriptions
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
