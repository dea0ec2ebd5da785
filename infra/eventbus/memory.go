package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/marketledger/pkg/domain/events"
	"github.com/amirasaad/marketledger/pkg/eventbus"
)

// MemoryEventBus dispatches events synchronously to in-process handlers.
type MemoryEventBus struct {
	handlers  handlerSet
	mu        sync.RWMutex
	logger    *slog.Logger
	record    bool
	published []events.Event
}

// NewWithMemory creates a new in-memory event bus.
func NewWithMemory(logger *slog.Logger) *MemoryEventBus {
	return &MemoryEventBus{
		handlers: make(handlerSet),
		logger:   logger.With("bus", "memory"),
	}
}

// NewWithMemoryRecording creates an in-memory bus that also keeps every
// emitted event for inspection through Published.
func NewWithMemoryRecording(logger *slog.Logger) *MemoryEventBus {
	b := NewWithMemory(logger)
	b.record = true
	return b
}

// Register registers a handler for a specific event type.
func (b *MemoryEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit dispatches the event to all registered handlers for its type.
// Handler failures are logged and never returned, since the transaction
// that produced the event has already committed.
func (b *MemoryEventBus) Emit(ctx context.Context, event events.Event) error {
	b.mu.Lock()
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[events.EventType(event.Type())]...)
	if b.record {
		b.published = append(b.published, event)
	}
	b.mu.Unlock()

	dispatch(ctx, b.logger, handlers, event)
	return nil
}

// Published returns every emitted event when recording is enabled.
func (b *MemoryEventBus) Published() []events.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]events.Event(nil), b.published...)
}

// ClearPublished forgets emitted events.
func (b *MemoryEventBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)
