// Package events defines the domain events published after a ledger
// transaction commits.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is anything that can travel on the event bus.
type Event interface {
	Type() string
}

// BalanceEvent is implemented by events that changed user balances.
type BalanceEvent interface {
	Event
	AffectedUsers() []uuid.UUID
}

// EventType names an event on the wire.
type EventType string

const (
	EventTypeCreditsTransferred   EventType = "Credits.Transferred"
	EventTypeInvestmentPlaced     EventType = "Investment.Placed"
	EventTypeCaseCompleted        EventType = "Case.Completed"
	EventTypeCreditRequestDecided EventType = "CreditRequest.Decided"
	EventTypeLoanRepaid           EventType = "Loan.Repaid"
	EventTypeConnectionCreated    EventType = "Connection.Created"
)

func (t EventType) String() string { return string(t) }

// Meta is embedded in every event.
type Meta struct {
	ID         uuid.UUID `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newMeta() Meta {
	return Meta{ID: uuid.New(), OccurredAt: time.Now().UTC()}
}

// CreditsTransferred is emitted after a peer to peer transfer.
type CreditsTransferred struct {
	Meta
	SenderID    uuid.UUID `json:"sender_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	Amount      int64     `json:"amount"`
}

// InvestmentPlaced is emitted after an investor stakes credits on a case.
type InvestmentPlaced struct {
	Meta
	InvestmentID uuid.UUID `json:"investment_id"`
	InvestorID   uuid.UUID `json:"investor_id"`
	CaseID       uuid.UUID `json:"case_id"`
	Amount       int64     `json:"amount"`
}

// CaseCompleted is emitted once per case, after rewards and payouts commit.
type CaseCompleted struct {
	Meta
	CaseID      uuid.UUID   `json:"case_id"`
	Sentiment   string      `json:"sentiment"`
	RewardTotal int64       `json:"reward_total"`
	PayoutTotal int64       `json:"payout_total"`
	Payees      []uuid.UUID `json:"payees"`
}

// CreditRequestDecided is emitted when an admin approves or rejects a request.
type CreditRequestDecided struct {
	Meta
	RequestID uuid.UUID  `json:"request_id"`
	UserID    uuid.UUID  `json:"user_id"`
	AdminID   uuid.UUID  `json:"admin_id"`
	Status    string     `json:"status"`
	Amount    int64      `json:"amount"`
	LoanID    *uuid.UUID `json:"loan_id,omitempty"`
}

// LoanRepaid is emitted when a borrower settles a loan.
type LoanRepaid struct {
	Meta
	LoanID uuid.UUID `json:"loan_id"`
	UserID uuid.UUID `json:"user_id"`
	Amount int64     `json:"amount"`
}

// ConnectionCreated is emitted for every new mutual connection.
type ConnectionCreated struct {
	Meta
	OwnerID   uuid.UUID `json:"owner_id"`
	ContactID uuid.UUID `json:"contact_id"`
	Bonus     int64     `json:"bonus"`
}

func (CreditsTransferred) Type() string   { return EventTypeCreditsTransferred.String() }
func (InvestmentPlaced) Type() string     { return EventTypeInvestmentPlaced.String() }
func (CaseCompleted) Type() string        { return EventTypeCaseCompleted.String() }
func (CreditRequestDecided) Type() string { return EventTypeCreditRequestDecided.String() }
func (LoanRepaid) Type() string           { return EventTypeLoanRepaid.String() }
func (ConnectionCreated) Type() string    { return EventTypeConnectionCreated.String() }

func (e CreditsTransferred) AffectedUsers() []uuid.UUID {
	return []uuid.UUID{e.SenderID, e.RecipientID}
}
func (e InvestmentPlaced) AffectedUsers() []uuid.UUID { return []uuid.UUID{e.InvestorID} }
func (e CaseCompleted) AffectedUsers() []uuid.UUID    { return e.Payees }
func (e CreditRequestDecided) AffectedUsers() []uuid.UUID {
	if e.LoanID == nil {
		return nil
	}
	return []uuid.UUID{e.UserID}
}
func (e LoanRepaid) AffectedUsers() []uuid.UUID { return []uuid.UUID{e.UserID} }
func (e ConnectionCreated) AffectedUsers() []uuid.UUID {
	if e.Bonus == 0 {
		return nil
	}
	return []uuid.UUID{e.OwnerID}
}
