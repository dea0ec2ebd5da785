package repository

import (
	"context"
)

// UnitOfWork runs work inside one database transaction and hands out
// repositories bound to that transaction.
//
// Every repository obtained from the UnitOfWork passed to fn shares the same
// session, so writes made through different repositories commit or roll back
// together. Returning an error from fn rolls everything back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	UserRepository() (UserRepository, error)
	CaseRepository() (CaseRepository, error)
	InvestmentRepository() (InvestmentRepository, error)
	CreditRequestRepository() (CreditRequestRepository, error)
	LoanRepository() (LoanRepository, error)
	FundRepository() (FundRepository, error)
	ConnectionRepository() (ConnectionRepository, error)
	LedgerRepository() (LedgerRepository, error)
}
