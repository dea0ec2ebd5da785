// Package app wires services and event handlers from infrastructure
// dependencies.
package app

import (
	"github.com/amirasaad/marketledger/pkg/handler"
)

// setupEventBus registers the post-commit handlers with the event bus.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}
	logger := a.Deps.Logger

	metricsHandler := handler.RecordLedgerMetrics(logger)
	for _, eventType := range handler.BalanceEventTypes {
		bus.Register(eventType, metricsHandler)
		if a.Deps.BalanceCache != nil {
			bus.Register(eventType, handler.InvalidateBalances(a.Deps.BalanceCache, logger))
		}
	}
}
