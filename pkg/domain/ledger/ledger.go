// Package ledger holds the accounting record of every credit movement.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a ledger entry.
type Kind string

const (
	KindTransferOut      Kind = "transfer_out"
	KindTransferIn       Kind = "transfer_in"
	KindInvestment       Kind = "investment"
	KindReward           Kind = "reward"
	KindPayout           Kind = "payout"
	KindLoanDisbursement Kind = "loan_disbursement"
	KindLoanRepayment    Kind = "loan_repayment"
	KindConnectionBonus  Kind = "connection_bonus"
)

// Entry is a single signed movement on a user's balance. Debits are negative.
type Entry struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Kind           Kind      `json:"kind"`
	Amount         int64     `json:"amount"`
	BalanceAfter   int64     `json:"balance_after"`
	Reference      string    `json:"reference"`
	IdempotencyKey *string   `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewEntry builds an entry for a movement that already happened on the user row.
func NewEntry(userID uuid.UUID, kind Kind, amount, balanceAfter int64, reference string) *Entry {
	return &Entry{
		ID:           uuid.New(),
		UserID:       userID,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Reference:    reference,
		CreatedAt:    time.Now().UTC(),
	}
}

// WithKey sets the idempotency key and returns the entry.
func (e *Entry) WithKey(key string) *Entry {
	e.IdempotencyKey = &key
	return e
}

// RewardKey identifies the completion reward paid to a participant of a case.
func RewardKey(caseID, userID uuid.UUID) string {
	return fmt.Sprintf("case:%s:reward:%s", caseID, userID)
}

// PayoutKey identifies the completion payout of an investment.
func PayoutKey(caseID, investmentID uuid.UUID) string {
	return fmt.Sprintf("case:%s:payout:%s", caseID, investmentID)
}

// DisbursementKey identifies the credit of an approved loan.
func DisbursementKey(loanID uuid.UUID) string {
	return fmt.Sprintf("loan:%s:disbursement", loanID)
}

// RepaymentKey identifies the repayment of a loan.
func RepaymentKey(loanID uuid.UUID) string {
	return fmt.Sprintf("loan:%s:repayment", loanID)
}

// ConnectionBonusKey identifies the one-time network bonus of a user.
func ConnectionBonusKey(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:connection_bonus", userID)
}
