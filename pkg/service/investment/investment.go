// Package investment handles credit stakes placed on open cases.
package investment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/domain"
	"github.com/amirasaad/marketledger/pkg/domain/cases"
	"github.com/amirasaad/marketledger/pkg/domain/events"
	"github.com/amirasaad/marketledger/pkg/domain/investment"
	"github.com/amirasaad/marketledger/pkg/domain/ledger"
	"github.com/amirasaad/marketledger/pkg/eventbus"
	"github.com/amirasaad/marketledger/pkg/metrics"
	"github.com/amirasaad/marketledger/pkg/repository"
	"github.com/google/uuid"
)

// Service provides investment intake and listing.
type Service struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	logger *slog.Logger
}

// New creates an investment Service.
func New(deps config.Deps) *Service {
	return &Service{
		uow:    deps.Uow,
		bus:    deps.EventBus,
		logger: deps.Logger,
	}
}

// Invest debits the investor and records an immutable investment on the case.
// There is no escrow: the credits leave the investor's balance immediately and
// come back with the bonus when the case completes.
func (s *Service) Invest(
	ctx context.Context,
	investorID, caseID uuid.UUID,
	amount int64,
) (inv *investment.Investment, err error) {
	started := time.Now()
	defer func() { metrics.RecordOperation("invest", started, err) }()

	log := s.logger.With("investor", investorID, "case", caseID, "amount", amount)
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		caseRepo, err := uow.CaseRepository()
		if err != nil {
			return err
		}
		investments, err := uow.InvestmentRepository()
		if err != nil {
			return err
		}
		journal, err := uow.LedgerRepository()
		if err != nil {
			return err
		}

		// The case row is locked before the investor, matching completion,
		// which locks the case before any payee.
		c, caseErr := caseRepo.GetForUpdate(ctx, caseID)
		if caseErr != nil && !errors.Is(caseErr, cases.ErrCaseNotFound) {
			return caseErr
		}
		investor, err := users.GetForUpdate(ctx, investorID)
		if err != nil {
			return err
		}
		if err := investor.Debit(amount); err != nil {
			return err
		}
		if caseErr != nil {
			return caseErr
		}
		if c.IsParticipant(investorID) {
			return investment.ErrSelfDealing
		}
		if c.Status.Terminal() {
			return cases.ErrCaseClosed
		}

		inv, err = investment.New(investorID, caseID, amount)
		if err != nil {
			return err
		}
		if err := users.UpdateBalance(ctx, investor); err != nil {
			return err
		}
		if err := investments.Create(ctx, inv); err != nil {
			return err
		}
		return journal.Append(ctx,
			ledger.NewEntry(investorID, ledger.KindInvestment, -amount, investor.Credits, "case:"+caseID.String()),
		)
	})
	if err != nil {
		log.Warn("Invest failed", "error", err)
		return nil, err
	}

	log.Info("Investment placed", "investmentID", inv.ID)
	eventbus.Publish(ctx, s.bus, log, events.NewInvestmentPlaced(inv.ID, investorID, caseID, amount))
	return inv, nil
}

// ListByCase returns the investments placed on a case.
func (s *Service) ListByCase(ctx context.Context, caseID uuid.UUID) (list []*investment.Investment, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		caseRepo, err := uow.CaseRepository()
		if err != nil {
			return err
		}
		if _, err := caseRepo.Get(ctx, caseID); err != nil {
			return err
		}
		investments, err := uow.InvestmentRepository()
		if err != nil {
			return err
		}
		list, err = investments.ListByCase(ctx, caseID)
		return err
	})
	return
}

// ListByInvestor returns the investments placed by a user.
func (s *Service) ListByInvestor(ctx context.Context, investorID uuid.UUID) (list []*investment.Investment, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		investments, err := uow.InvestmentRepository()
		if err != nil {
			return err
		}
		list, err = investments.ListByInvestor(ctx, investorID)
		return err
	})
	return
}
