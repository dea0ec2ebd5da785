package repository

import (
	"context"
	"errors"

	"github.com/amirasaad/marketledger/pkg/repository"
	"gorm.io/gorm"
)

// ErrNoTransaction is returned when a repository is requested outside Do.
var ErrNoTransaction = errors.New("repository requested outside of a transaction")

// UoW provides the transaction boundary and repository access in one
// abstraction, so every repository used by a service call shares one session.
type UoW struct {
	db *gorm.DB
	tx *gorm.DB
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{db: db}
}

// Do runs fn in a database transaction. Any error returned by fn, or a panic,
// rolls back every write made through the repositories of the txn UoW.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		// Already inside a transaction; join it.
		return fn(u)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx})
	})
}

func (u *UoW) session() (*gorm.DB, error) {
	if u.tx == nil {
		return nil, ErrNoTransaction
	}
	return u.tx, nil
}

func (u *UoW) UserRepository() (repository.UserRepository, error) {
	tx, err := u.session()
	if err != nil {
		return nil, err
	}
	return NewUserRepository(tx), nil
}

func (u *UoW) CaseRepository() (repository.CaseRepository, error) {
	tx, err := u.session()
	if err != nil {
		return nil, err
	}
	return NewCaseRepository(tx), nil
}

func (u *UoW) InvestmentRepository() (repository.InvestmentRepository, error) {
	tx, err := u.session()
	if err != nil {
		return nil, err
	}
	return NewInvestmentRepository(tx), nil
}

func (u *UoW) CreditRequestRepository() (repository.CreditRequestRepository, error) {
	tx, err := u.session()
	if err != nil {
		return nil, err
	}
	return NewCreditRequestRepository(tx), nil
}

func (u *UoW) LoanRepository() (repository.LoanRepository, error) {
	tx, err := u.session()
	if err != nil {
		return nil, err
	}
	return NewLoanRepository(tx), nil
}

func (u *UoW) FundRepository() (repository.FundRepository, error) {
	tx, err := u.session()
	if err != nil {
		return nil, err
	}
	return NewFundRepository(tx), nil
}

func (u *UoW) ConnectionRepository() (repository.ConnectionRepository, error) {
	tx, err := u.session()
	if err != nil {
		return nil, err
	}
	return NewConnectionRepository(tx), nil
}

func (u *UoW) LedgerRepository() (repository.LedgerRepository, error) {
	tx, err := u.session()
	if err != nil {
		return nil, err
	}
	return NewLedgerRepository(tx), nil
}

var _ repository.UnitOfWork = (*UoW)(nil)
