package repository

import (
	"github.com/amirasaad/marketledger/pkg/domain/cases"
	"github.com/amirasaad/marketledger/pkg/domain/investment"
	"github.com/amirasaad/marketledger/pkg/domain/ledger"
	"github.com/amirasaad/marketledger/pkg/domain/lending"
	"github.com/amirasaad/marketledger/pkg/domain/network"
	"github.com/amirasaad/marketledger/pkg/domain/user"
)

func toUserModel(u *user.User) *User {
	return &User{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		Password:            u.Password,
		Names:               u.Names,
		Role:                string(u.Role),
		Credits:             u.Credits,
		NetworkBonusAwarded: u.NetworkBonusAwarded,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func toUserDomain(m *User) *user.User {
	return &user.User{
		ID:                  m.ID,
		Username:            m.Username,
		Email:               m.Email,
		Password:            m.Password,
		Names:               m.Names,
		Role:                user.Role(m.Role),
		Credits:             m.Credits,
		NetworkBonusAwarded: m.NetworkBonusAwarded,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func toCaseModel(c *cases.Case) *Case {
	return &Case{
		ID:                c.ID,
		Title:             c.Title,
		ClientID:          c.ClientID,
		ProviderID:        c.ProviderID,
		Status:            string(c.Status),
		Sentiment:         string(c.Sentiment),
		PayoutProcessedAt: c.PayoutProcessedAt,
		LastUpdate:        c.LastUpdate,
		CreatedAt:         c.CreatedAt,
	}
}

func toCaseDomain(m *Case) *cases.Case {
	return &cases.Case{
		ID:                m.ID,
		Title:             m.Title,
		ClientID:          m.ClientID,
		ProviderID:        m.ProviderID,
		Status:            cases.Status(m.Status),
		Sentiment:         cases.Sentiment(m.Sentiment),
		PayoutProcessedAt: m.PayoutProcessedAt,
		LastUpdate:        m.LastUpdate,
		CreatedAt:         m.CreatedAt,
	}
}

func toCommentDomain(m *Comment) *cases.Comment {
	return &cases.Comment{
		ID:        m.ID,
		CaseID:    m.CaseID,
		AuthorID:  m.AuthorID,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}

func toInvestmentDomain(m *Investment) *investment.Investment {
	return &investment.Investment{
		ID:         m.ID,
		InvestorID: m.InvestorID,
		CaseID:     m.CaseID,
		Amount:     m.Amount,
		CreatedAt:  m.CreatedAt,
	}
}

func toCreditRequestModel(r *lending.CreditRequest) *CreditRequest {
	return &CreditRequest{
		ID:        r.ID,
		UserID:    r.UserID,
		Amount:    r.Amount,
		Status:    string(r.Status),
		DecidedBy: r.DecidedBy,
		DecidedAt: r.DecidedAt,
		LoanID:    r.LoanID,
		CreatedAt: r.CreatedAt,
	}
}

func toCreditRequestDomain(m *CreditRequest) *lending.CreditRequest {
	return &lending.CreditRequest{
		ID:        m.ID,
		UserID:    m.UserID,
		Amount:    m.Amount,
		Status:    lending.RequestStatus(m.Status),
		DecidedBy: m.DecidedBy,
		DecidedAt: m.DecidedAt,
		LoanID:    m.LoanID,
		CreatedAt: m.CreatedAt,
	}
}

func toLoanModel(l *lending.Loan) *Loan {
	return &Loan{
		ID:        l.ID,
		UserID:    l.UserID,
		RequestID: l.RequestID,
		Amount:    l.Amount,
		Status:    string(l.Status),
		DueDate:   l.DueDate,
		RepaidAt:  l.RepaidAt,
		CreatedAt: l.CreatedAt,
	}
}

func toLoanDomain(m *Loan) *lending.Loan {
	return &lending.Loan{
		ID:        m.ID,
		UserID:    m.UserID,
		RequestID: m.RequestID,
		Amount:    m.Amount,
		Status:    lending.LoanStatus(m.Status),
		DueDate:   m.DueDate,
		RepaidAt:  m.RepaidAt,
		CreatedAt: m.CreatedAt,
	}
}

func toFundDomain(m *Fund) *lending.Fund {
	return &lending.Fund{
		ID:             m.ID,
		TotalCapital:   m.TotalCapital,
		TotalLoanedOut: m.TotalLoanedOut,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toConnectionDomain(m *Connection) *network.Connection {
	return &network.Connection{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		ContactID: m.ContactID,
		CreatedAt: m.CreatedAt,
	}
}

func toLedgerModel(e *ledger.Entry) *LedgerEntry {
	return &LedgerEntry{
		ID:             e.ID,
		UserID:         e.UserID,
		Kind:           string(e.Kind),
		Amount:         e.Amount,
		BalanceAfter:   e.BalanceAfter,
		Reference:      e.Reference,
		IdempotencyKey: e.IdempotencyKey,
		CreatedAt:      e.CreatedAt,
	}
}

func toLedgerDomain(m *LedgerEntry) *ledger.Entry {
	return &ledger.Entry{
		ID:             m.ID,
		UserID:         m.UserID,
		Kind:           ledger.Kind(m.Kind),
		Amount:         m.Amount,
		BalanceAfter:   m.BalanceAfter,
		Reference:      m.Reference,
		IdempotencyKey: m.IdempotencyKey,
		CreatedAt:      m.CreatedAt,
	}
}
