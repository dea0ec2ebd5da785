// Package investment models credit stakes placed by third parties on a case.
package investment

import (
	"errors"
	"time"

	"github.com/amirasaad/marketledger/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrSelfDealing is returned when a case participant tries to invest in their own case.
var ErrSelfDealing = errors.New("participants cannot invest in their own case")

// Investment is an immutable claim on a case payout. It has no setters and
// the repository exposes no update or delete.
type Investment struct {
	ID         uuid.UUID `json:"id"`
	InvestorID uuid.UUID `json:"investor_id"`
	CaseID     uuid.UUID `json:"case_id"`
	Amount     int64     `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}

// New builds an investment stamped with the current server time.
func New(investorID, caseID uuid.UUID, amount int64) (*Investment, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	return &Investment{
		ID:         uuid.New(),
		InvestorID: investorID,
		CaseID:     caseID,
		Amount:     amount,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// PayoutPolicy computes what an investment returns on case completion.
type PayoutPolicy struct {
	bonus decimal.Decimal
}

// NewPayoutPolicy returns a policy paying the principal plus bonusPercent.
func NewPayoutPolicy(bonusPercent int64) PayoutPolicy {
	return PayoutPolicy{bonus: decimal.NewFromInt(bonusPercent).Div(decimal.NewFromInt(100))}
}

// DefaultPayoutPolicy pays a fixed 10% bonus.
func DefaultPayoutPolicy() PayoutPolicy {
	return NewPayoutPolicy(10)
}

// Payout returns amount * (1 + bonus), rounded half away from zero to whole credits.
func (p PayoutPolicy) Payout(amount int64) int64 {
	total := decimal.NewFromInt(amount).Mul(decimal.NewFromInt(1).Add(p.bonus))
	return total.Round(0).IntPart()
}
