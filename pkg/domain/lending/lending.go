// Package lending models the micro-credit pool: credit requests, the loans
// they produce and the fund that backs them.
package lending

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/marketledger/pkg/domain"
	"github.com/google/uuid"
)

var (
	// ErrInsufficientFundCapital is returned when the pool cannot cover a loan.
	// It is distinct from domain.ErrInsufficientCredits, which concerns a user balance.
	ErrInsufficientFundCapital = errors.New("insufficient fund capital")
	// ErrRequestNotFound is returned when a credit request cannot be found.
	ErrRequestNotFound = errors.New("credit request not found")
	// ErrRequestAlreadyResolved is returned when a request was already approved or rejected.
	ErrRequestAlreadyResolved = errors.New("credit request already resolved")
	// ErrLoanNotFound is returned when a loan cannot be found.
	ErrLoanNotFound = errors.New("loan not found")
	// ErrLoanNotOutstanding is returned when repaying a loan that is already repaid.
	ErrLoanNotOutstanding = errors.New("loan is not outstanding")
	// ErrNotBorrower is returned when someone other than the borrower repays a loan.
	ErrNotBorrower = errors.New("loan belongs to another user")
)

// FundID is the key of the singleton fund row.
const FundID = "main"

// RequestStatus is the state of a credit request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// CreditRequest asks the fund for a micro-loan.
type CreditRequest struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	Amount    int64         `json:"amount"`
	Status    RequestStatus `json:"status"`
	DecidedBy *uuid.UUID    `json:"decided_by,omitempty"`
	DecidedAt *time.Time    `json:"decided_at,omitempty"`
	LoanID    *uuid.UUID    `json:"loan_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewCreditRequest builds a pending request.
func NewCreditRequest(userID uuid.UUID, amount int64) (*CreditRequest, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	return &CreditRequest{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Status:    RequestPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (r *CreditRequest) resolve(status RequestStatus, adminID uuid.UUID, at time.Time) error {
	if r.Status != RequestPending {
		return fmt.Errorf("%w: request is %s", ErrRequestAlreadyResolved, r.Status)
	}
	r.Status = status
	r.DecidedBy = &adminID
	r.DecidedAt = &at
	return nil
}

// Approve marks the request approved and links the resulting loan.
func (r *CreditRequest) Approve(adminID, loanID uuid.UUID, at time.Time) error {
	if err := r.resolve(RequestApproved, adminID, at); err != nil {
		return err
	}
	r.LoanID = &loanID
	return nil
}

// Reject marks the request rejected.
func (r *CreditRequest) Reject(adminID uuid.UUID, at time.Time) error {
	return r.resolve(RequestRejected, adminID, at)
}

// LoanStatus is the repayment state of a loan.
type LoanStatus string

const (
	LoanOutstanding LoanStatus = "outstanding"
	LoanOverdue     LoanStatus = "overdue"
	LoanRepaid      LoanStatus = "repaid"
)

// Loan is created when a credit request is approved.
type Loan struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	RequestID uuid.UUID  `json:"request_id"`
	Amount    int64      `json:"amount"`
	Status    LoanStatus `json:"status"`
	DueDate   time.Time  `json:"due_date"`
	RepaidAt  *time.Time `json:"repaid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewLoan builds an outstanding loan due termDays after now.
func NewLoan(req *CreditRequest, now time.Time, termDays int) *Loan {
	return &Loan{
		ID:        uuid.New(),
		UserID:    req.UserID,
		RequestID: req.ID,
		Amount:    req.Amount,
		Status:    LoanOutstanding,
		DueDate:   now.AddDate(0, 0, termDays),
		CreatedAt: now,
	}
}

// Open reports whether the loan still counts against the fund.
func (l *Loan) Open() bool {
	return l.Status == LoanOutstanding || l.Status == LoanOverdue
}

// MarkRepaid closes the loan.
func (l *Loan) MarkRepaid(at time.Time) error {
	if !l.Open() {
		return ErrLoanNotOutstanding
	}
	l.Status = LoanRepaid
	l.RepaidAt = &at
	return nil
}

// MarkOverdue flags an outstanding loan whose due date has passed.
func (l *Loan) MarkOverdue(now time.Time) bool {
	if l.Status != LoanOutstanding || !now.After(l.DueDate) {
		return false
	}
	l.Status = LoanOverdue
	return true
}

// Fund is the singleton micro-credit capital pool.
// TotalLoanedOut never exceeds TotalCapital.
type Fund struct {
	ID             string    `json:"id"`
	TotalCapital   int64     `json:"total_capital"`
	TotalLoanedOut int64     `json:"total_loaned_out"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Available is the capital that can still be lent.
func (f *Fund) Available() int64 {
	return f.TotalCapital - f.TotalLoanedOut
}

// Lend reserves amount from the pool.
func (f *Fund) Lend(amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if f.Available() < amount {
		return fmt.Errorf(
			"%w: available %d, requested %d",
			ErrInsufficientFundCapital,
			f.Available(),
			amount,
		)
	}
	f.TotalLoanedOut += amount
	return nil
}

// Release returns repaid capital to the pool.
func (f *Fund) Release(amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if amount > f.TotalLoanedOut {
		return fmt.Errorf("release of %d exceeds loaned out %d", amount, f.TotalLoanedOut)
	}
	f.TotalLoanedOut -= amount
	return nil
}

// AddCapital grows the pool.
func (f *Fund) AddCapital(amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	f.TotalCapital += amount
	return nil
}
