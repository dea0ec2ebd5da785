package events

import "github.com/google/uuid"

func NewCreditsTransferred(sender, recipient uuid.UUID, amount int64) *CreditsTransferred {
	return &CreditsTransferred{Meta: newMeta(), SenderID: sender, RecipientID: recipient, Amount: amount}
}

func NewInvestmentPlaced(investmentID, investorID, caseID uuid.UUID, amount int64) *InvestmentPlaced {
	return &InvestmentPlaced{
		Meta:         newMeta(),
		InvestmentID: investmentID,
		InvestorID:   investorID,
		CaseID:       caseID,
		Amount:       amount,
	}
}

type CaseCompletedOpt func(*CaseCompleted)

// WithReward records a completion reward paid to a participant.
func WithReward(userID uuid.UUID, amount int64) CaseCompletedOpt {
	return func(e *CaseCompleted) {
		e.RewardTotal += amount
		e.Payees = appendUnique(e.Payees, userID)
	}
}

// WithPayout records an investment payout.
func WithPayout(userID uuid.UUID, amount int64) CaseCompletedOpt {
	return func(e *CaseCompleted) {
		e.PayoutTotal += amount
		e.Payees = appendUnique(e.Payees, userID)
	}
}

func NewCaseCompleted(caseID uuid.UUID, sentiment string, opts ...CaseCompletedOpt) *CaseCompleted {
	e := &CaseCompleted{Meta: newMeta(), CaseID: caseID, Sentiment: sentiment}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func NewCreditRequestDecided(
	requestID, userID, adminID uuid.UUID,
	status string,
	amount int64,
	loanID *uuid.UUID,
) *CreditRequestDecided {
	return &CreditRequestDecided{
		Meta:      newMeta(),
		RequestID: requestID,
		UserID:    userID,
		AdminID:   adminID,
		Status:    status,
		Amount:    amount,
		LoanID:    loanID,
	}
}

func NewLoanRepaid(loanID, userID uuid.UUID, amount int64) *LoanRepaid {
	return &LoanRepaid{Meta: newMeta(), LoanID: loanID, UserID: userID, Amount: amount}
}

func NewConnectionCreated(ownerID, contactID uuid.UUID, bonus int64) *ConnectionCreated {
	return &ConnectionCreated{Meta: newMeta(), OwnerID: ownerID, ContactID: contactID, Bonus: bonus}
}

// Factories maps wire type names to constructors used when decoding
// events coming back from an external broker.
func Factories() map[string]func() Event {
	return map[string]func() Event{
		EventTypeCreditsTransferred.String():   func() Event { return &CreditsTransferred{} },
		EventTypeInvestmentPlaced.String():     func() Event { return &InvestmentPlaced{} },
		EventTypeCaseCompleted.String():        func() Event { return &CaseCompleted{} },
		EventTypeCreditRequestDecided.String(): func() Event { return &CreditRequestDecided{} },
		EventTypeLoanRepaid.String():           func() Event { return &LoanRepaid{} },
		EventTypeConnectionCreated.String():    func() Event { return &ConnectionCreated{} },
	}
}

func appendUnique(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
