// Package handler holds the event handlers that react to committed ledger
// operations: balance cache invalidation and ledger metrics.
package handler

import (
	"context"
	"log/slog"

	"github.com/amirasaad/marketledger/pkg/cache"
	"github.com/amirasaad/marketledger/pkg/domain/events"
	"github.com/amirasaad/marketledger/pkg/domain/ledger"
	"github.com/amirasaad/marketledger/pkg/eventbus"
	"github.com/amirasaad/marketledger/pkg/metrics"
)

// BalanceEventTypes lists every event that changes user balances.
var BalanceEventTypes = []events.EventType{
	events.EventTypeCreditsTransferred,
	events.EventTypeInvestmentPlaced,
	events.EventTypeCaseCompleted,
	events.EventTypeCreditRequestDecided,
	events.EventTypeLoanRepaid,
	events.EventTypeConnectionCreated,
}

// InvalidateBalances drops cached balances of every user an event touched.
func InvalidateBalances(balances cache.BalanceCache, logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		be, ok := e.(events.BalanceEvent)
		if !ok {
			return nil
		}
		users := be.AffectedUsers()
		if len(users) == 0 {
			return nil
		}
		if err := balances.Delete(ctx, users...); err != nil {
			logger.Warn("balance cache invalidation failed", "type", e.Type(), "error", err)
			return err
		}
		return nil
	}
}

// RecordLedgerMetrics counts the credits each event moved.
func RecordLedgerMetrics(logger *slog.Logger) eventbus.HandlerFunc {
	return func(_ context.Context, e events.Event) error {
		switch evt := e.(type) {
		case *events.CreditsTransferred:
			metrics.RecordCredits(string(ledger.KindTransferOut), evt.Amount)
		case *events.InvestmentPlaced:
			metrics.RecordCredits(string(ledger.KindInvestment), evt.Amount)
		case *events.CaseCompleted:
			metrics.RecordCredits(string(ledger.KindReward), evt.RewardTotal)
			metrics.RecordCredits(string(ledger.KindPayout), evt.PayoutTotal)
		case *events.CreditRequestDecided:
			if evt.LoanID != nil {
				metrics.RecordCredits(string(ledger.KindLoanDisbursement), evt.Amount)
			}
		case *events.LoanRepaid:
			metrics.RecordCredits(string(ledger.KindLoanRepayment), evt.Amount)
		case *events.ConnectionCreated:
			metrics.RecordCredits(string(ledger.KindConnectionBonus), evt.Bonus)
		default:
			logger.Debug("no metrics for event", "type", e.Type())
		}
		return nil
	}
}
