package repository

import (
	"context"
	"time"

	"github.com/amirasaad/marketledger/pkg/domain/cases"
	"github.com/amirasaad/marketledger/pkg/domain/investment"
	"github.com/amirasaad/marketledger/pkg/domain/ledger"
	"github.com/amirasaad/marketledger/pkg/domain/lending"
	"github.com/amirasaad/marketledger/pkg/domain/network"
	"github.com/amirasaad/marketledger/pkg/domain/user"
	"github.com/google/uuid"
)

// UserRepository defines data access for users.
//
// Methods suffixed ForUpdate take a row lock that is held until the
// surrounding transaction ends. They must only be called inside UnitOfWork.Do.
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	// GetForUpdate locks and returns a user row.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*user.User, error)
	// LockMany locks the given users in ascending id order and returns them keyed by id.
	// Missing ids are absent from the map.
	LockMany(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*user.User, error)
	// UpdateBalance persists credits and the network bonus flag.
	UpdateBalance(ctx context.Context, u *user.User) error
}

// CaseRepository defines data access for cases and their comments.
type CaseRepository interface {
	Create(ctx context.Context, c *cases.Case) error
	Get(ctx context.Context, id uuid.UUID) (*cases.Case, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*cases.Case, error)
	Update(ctx context.Context, c *cases.Case) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*cases.Case, error)
	AddComment(ctx context.Context, c *cases.Comment) error
	ListComments(ctx context.Context, caseID uuid.UUID) ([]*cases.Comment, error)
}

// InvestmentRepository is append-only. There is deliberately no update or delete.
type InvestmentRepository interface {
	Create(ctx context.Context, inv *investment.Investment) error
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]*investment.Investment, error)
	ListByInvestor(ctx context.Context, investorID uuid.UUID) ([]*investment.Investment, error)
}

// CreditRequestFilter narrows CreditRequestRepository.List. Zero values match everything.
type CreditRequestFilter struct {
	UserID *uuid.UUID
	Status lending.RequestStatus
}

// CreditRequestRepository defines data access for micro-credit requests.
type CreditRequestRepository interface {
	Create(ctx context.Context, r *lending.CreditRequest) error
	Get(ctx context.Context, id uuid.UUID) (*lending.CreditRequest, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*lending.CreditRequest, error)
	Update(ctx context.Context, r *lending.CreditRequest) error
	List(ctx context.Context, filter CreditRequestFilter) ([]*lending.CreditRequest, error)
}

// LoanRepository defines data access for loans.
type LoanRepository interface {
	Create(ctx context.Context, l *lending.Loan) error
	GetForUpdate(ctx context.Context, id uuid.UUID) (*lending.Loan, error)
	Update(ctx context.Context, l *lending.Loan) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*lending.Loan, error)
	// MarkOverdue flips outstanding loans due before now to overdue and returns how many changed.
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// FundRepository defines data access for the singleton fund row.
type FundRepository interface {
	Get(ctx context.Context) (*lending.Fund, error)
	GetForUpdate(ctx context.Context) (*lending.Fund, error)
	Update(ctx context.Context, f *lending.Fund) error
	// Ensure creates the fund row with the given capital when it does not exist yet.
	Ensure(ctx context.Context, capital int64) error
}

// ConnectionRepository defines data access for network connections.
type ConnectionRepository interface {
	Exists(ctx context.Context, ownerID, contactID uuid.UUID) (bool, error)
	Create(ctx context.Context, conns ...*network.Connection) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*network.Connection, error)
}

// LedgerRepository appends to and reads the accounting journal.
type LedgerRepository interface {
	Append(ctx context.Context, entries ...*ledger.Entry) error
	ExistsByKey(ctx context.Context, key string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*ledger.Entry, error)
	ListAll(ctx context.Context) ([]*ledger.Entry, error)
}
