package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/amirasaad/marketledger/pkg/domain/events"
	"github.com/amirasaad/marketledger/pkg/eventbus"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encodeEnvelope(event events.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal failed: %w", err)
	}
	envBytes, err := json.Marshal(envelope{Type: event.Type(), Payload: data})
	if err != nil {
		return nil, fmt.Errorf("envelope marshal failed: %w", err)
	}
	return envBytes, nil
}

func decodeEnvelope(raw []byte, factories map[string]func() events.Event) (events.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	constructor, ok := factories[env.Type]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	evt := constructor()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload of %s: %w", env.Type, err)
	}
	return evt, nil
}

// handlerSet is the registry shared by every bus implementation.
type handlerSet map[events.EventType][]eventbus.HandlerFunc

// dispatch runs every handler, recovering panics. It reports whether all succeeded.
func dispatch(
	ctx context.Context,
	logger *slog.Logger,
	handlers []eventbus.HandlerFunc,
	evt events.Event,
) bool {
	ok := true
	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					ok = false
					logger.Error("panic recovered in event handler", "type", evt.Type(), "panic", r)
				}
			}()
			if err := handler(ctx, evt); err != nil {
				ok = false
				logger.Error("failed to process event", "type", evt.Type(), "error", err)
			}
		}()
	}
	return ok
}
