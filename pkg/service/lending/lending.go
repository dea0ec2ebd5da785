// Package lending runs the micro-credit fund: credit requests, admin
// decisions, loan repayment and the overdue sweep.
//
// Every approval locks the request row and then the singleton fund row, so
// concurrent approvals serialize on the fund and the pool can never lend more
// than its capital.
package lending

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/domain"
	"github.com/amirasaad/marketledger/pkg/domain/events"
	"github.com/amirasaad/marketledger/pkg/domain/ledger"
	"github.com/amirasaad/marketledger/pkg/domain/lending"
	"github.com/amirasaad/marketledger/pkg/eventbus"
	"github.com/amirasaad/marketledger/pkg/metrics"
	"github.com/amirasaad/marketledger/pkg/repository"
	"github.com/google/uuid"
)

const defaultTermDays = 30

// Decision is the outcome of an approval.
type Decision struct {
	Request *lending.CreditRequest `json:"request"`
	Loan    *lending.Loan          `json:"loan,omitempty"`
}

// Service provides micro-credit operations.
type Service struct {
	uow      repository.UnitOfWork
	bus      eventbus.Bus
	termDays int
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a lending Service.
func New(deps config.Deps) *Service {
	termDays := defaultTermDays
	if deps.Config != nil && deps.Config.Ledger != nil && deps.Config.Ledger.RepaymentTermDays > 0 {
		termDays = deps.Config.Ledger.RepaymentTermDays
	}
	return &Service{
		uow:      deps.Uow,
		bus:      deps.EventBus,
		termDays: termDays,
		logger:   deps.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RequestCredit files a pending credit request for the user.
func (s *Service) RequestCredit(
	ctx context.Context,
	userID uuid.UUID,
	amount int64,
) (req *lending.CreditRequest, err error) {
	req, err = lending.NewCreditRequest(userID, amount)
	if err != nil {
		return nil, err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		if _, err := users.Get(ctx, userID); err != nil {
			return err
		}
		requests, err := uow.CreditRequestRepository()
		if err != nil {
			return err
		}
		return requests.Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Credit requested", "requestID", req.ID, "userID", userID, "amount", amount)
	return req, nil
}

// ListRequests returns credit requests matching filter, newest first.
func (s *Service) ListRequests(
	ctx context.Context,
	filter repository.CreditRequestFilter,
) (list []*lending.CreditRequest, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		requests, err := uow.CreditRequestRepository()
		if err != nil {
			return err
		}
		list, err = requests.List(ctx, filter)
		return err
	})
	return
}

// ListLoans returns the loans of a user.
func (s *Service) ListLoans(ctx context.Context, userID uuid.UUID) (list []*lending.Loan, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		loans, err := uow.LoanRepository()
		if err != nil {
			return err
		}
		list, err = loans.ListByUser(ctx, userID)
		return err
	})
	return
}

// Approve grants a pending request: a loan is opened, the borrower is
// credited and the fund's loaned-out total grows by the request amount.
func (s *Service) Approve(
	ctx context.Context,
	adminID, requestID uuid.UUID,
) (decision *Decision, err error) {
	started := time.Now()
	defer func() { metrics.RecordOperation("approve_credit", started, err) }()
	log := s.logger.With("admin", adminID, "requestID", requestID)

	var fund *lending.Fund
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		if err := requireAdmin(ctx, uow, adminID); err != nil {
			return err
		}
		requests, err := uow.CreditRequestRepository()
		if err != nil {
			return err
		}
		funds, err := uow.FundRepository()
		if err != nil {
			return err
		}
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		loans, err := uow.LoanRepository()
		if err != nil {
			return err
		}
		journal, err := uow.LedgerRepository()
		if err != nil {
			return err
		}

		req, err := requests.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != lending.RequestPending {
			return fmt.Errorf("%w: request is %s", lending.ErrRequestAlreadyResolved, req.Status)
		}
		fund, err = funds.GetForUpdate(ctx)
		if err != nil {
			return err
		}
		if err := fund.Lend(req.Amount); err != nil {
			return err
		}
		borrower, err := users.GetForUpdate(ctx, req.UserID)
		if err != nil {
			return err
		}

		now := s.now()
		loan := lending.NewLoan(req, now, s.termDays)
		if err := req.Approve(adminID, loan.ID, now); err != nil {
			return err
		}
		if err := borrower.Credit(req.Amount); err != nil {
			return err
		}

		if err := loans.Create(ctx, loan); err != nil {
			return err
		}
		if err := requests.Update(ctx, req); err != nil {
			return err
		}
		if err := funds.Update(ctx, fund); err != nil {
			return err
		}
		if err := users.UpdateBalance(ctx, borrower); err != nil {
			return err
		}
		if err := journal.Append(ctx,
			ledger.NewEntry(borrower.ID, ledger.KindLoanDisbursement, req.Amount, borrower.Credits, "loan:"+loan.ID.String()).
				WithKey(ledger.DisbursementKey(loan.ID)),
		); err != nil {
			return err
		}
		decision = &Decision{Request: req, Loan: loan}
		return nil
	})
	if err != nil {
		log.Warn("Approve failed", "error", err)
		return nil, err
	}

	metrics.SetFundLoanedOut(fund.TotalLoanedOut)
	log.Info("Credit request approved", "loanID", decision.Loan.ID, "loanedOut", fund.TotalLoanedOut)
	req := decision.Request
	eventbus.Publish(ctx, s.bus, log, events.NewCreditRequestDecided(
		req.ID, req.UserID, adminID, string(req.Status), req.Amount, req.LoanID,
	))
	return decision, nil
}

// Reject declines a pending request. No balance changes.
func (s *Service) Reject(
	ctx context.Context,
	adminID, requestID uuid.UUID,
) (req *lending.CreditRequest, err error) {
	log := s.logger.With("admin", adminID, "requestID", requestID)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		if err := requireAdmin(ctx, uow, adminID); err != nil {
			return err
		}
		requests, err := uow.CreditRequestRepository()
		if err != nil {
			return err
		}
		req, err = requests.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if err := req.Reject(adminID, s.now()); err != nil {
			return err
		}
		return requests.Update(ctx, req)
	})
	if err != nil {
		log.Warn("Reject failed", "error", err)
		return nil, err
	}
	log.Info("Credit request rejected")
	eventbus.Publish(ctx, s.bus, log, events.NewCreditRequestDecided(
		req.ID, req.UserID, adminID, string(req.Status), req.Amount, nil,
	))
	return req, nil
}

// Repay settles an open loan from the borrower's balance and returns the
// capital to the fund.
func (s *Service) Repay(ctx context.Context, userID, loanID uuid.UUID) (loan *lending.Loan, err error) {
	started := time.Now()
	defer func() { metrics.RecordOperation("repay_loan", started, err) }()
	log := s.logger.With("userID", userID, "loanID", loanID)

	var fund *lending.Fund
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		loans, err := uow.LoanRepository()
		if err != nil {
			return err
		}
		funds, err := uow.FundRepository()
		if err != nil {
			return err
		}
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		journal, err := uow.LedgerRepository()
		if err != nil {
			return err
		}

		loan, err = loans.GetForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.UserID != userID {
			return lending.ErrNotBorrower
		}
		if !loan.Open() {
			return lending.ErrLoanNotOutstanding
		}
		// Fund before borrower, the same order Approve uses.
		fund, err = funds.GetForUpdate(ctx)
		if err != nil {
			return err
		}
		borrower, err := users.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := borrower.Debit(loan.Amount); err != nil {
			return err
		}
		if err := fund.Release(loan.Amount); err != nil {
			return err
		}
		if err := loan.MarkRepaid(s.now()); err != nil {
			return err
		}

		if err := users.UpdateBalance(ctx, borrower); err != nil {
			return err
		}
		if err := funds.Update(ctx, fund); err != nil {
			return err
		}
		if err := loans.Update(ctx, loan); err != nil {
			return err
		}
		return journal.Append(ctx,
			ledger.NewEntry(userID, ledger.KindLoanRepayment, -loan.Amount, borrower.Credits, "loan:"+loan.ID.String()).
				WithKey(ledger.RepaymentKey(loan.ID)),
		)
	})
	if err != nil {
		log.Warn("Repay failed", "error", err)
		return nil, err
	}

	metrics.SetFundLoanedOut(fund.TotalLoanedOut)
	log.Info("Loan repaid", "amount", loan.Amount)
	eventbus.Publish(ctx, s.bus, log, events.NewLoanRepaid(loan.ID, userID, loan.Amount))
	return loan, nil
}

// SweepOverdue flags outstanding loans past their due date and returns how
// many were flagged.
func (s *Service) SweepOverdue(ctx context.Context) (n int64, err error) {
	now := s.now()
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		loans, err := uow.LoanRepository()
		if err != nil {
			return err
		}
		n, err = loans.MarkOverdue(ctx, now)
		return err
	})
	if err != nil {
		return 0, err
	}
	metrics.RecordOverdue(n)
	if n > 0 {
		s.logger.Info("Loans flagged overdue", "count", n)
	}
	return n, nil
}

// AddCapital grows the fund's capital.
func (s *Service) AddCapital(ctx context.Context, adminID uuid.UUID, amount int64) (fund *lending.Fund, err error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		if err := requireAdmin(ctx, uow, adminID); err != nil {
			return err
		}
		funds, err := uow.FundRepository()
		if err != nil {
			return err
		}
		fund, err = funds.GetForUpdate(ctx)
		if err != nil {
			return err
		}
		if err := fund.AddCapital(amount); err != nil {
			return err
		}
		return funds.Update(ctx, fund)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Fund capital added", "admin", adminID, "amount", amount, "capital", fund.TotalCapital)
	return fund, nil
}

// FundStatus returns the current fund row.
func (s *Service) FundStatus(ctx context.Context) (fund *lending.Fund, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		funds, err := uow.FundRepository()
		if err != nil {
			return err
		}
		fund, err = funds.Get(ctx)
		return err
	})
	if err == nil {
		metrics.SetFundLoanedOut(fund.TotalLoanedOut)
	}
	return
}

func requireAdmin(ctx context.Context, uow repository.UnitOfWork, adminID uuid.UUID) error {
	users, err := uow.UserRepository()
	if err != nil {
		return err
	}
	admin, err := users.Get(ctx, adminID)
	if err != nil {
		return err
	}
	if !admin.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}
