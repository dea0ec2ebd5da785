// Package eventbus defines the contract used to publish domain events after
// a ledger transaction commits.
package eventbus

import (
	"context"
	"log/slog"

	"github.com/amirasaad/marketledger/pkg/domain/events"
)

// HandlerFunc handles one event. Returning an error marks the delivery as failed.
type HandlerFunc func(ctx context.Context, e events.Event) error

// Bus publishes and subscribes to domain events.
type Bus interface {
	Emit(ctx context.Context, event events.Event) error
	Register(eventType events.EventType, handler HandlerFunc)
}

// Publish emits events after a transaction committed. The ledger state is
// already durable at that point, so delivery failures are logged and never
// returned to the caller.
func Publish(ctx context.Context, bus Bus, logger *slog.Logger, evts ...events.Event) {
	if bus == nil {
		return
	}
	for _, evt := range evts {
		if err := bus.Emit(ctx, evt); err != nil {
			logger.Error("failed to emit event", "type", evt.Type(), "error", err)
		}
	}
}
