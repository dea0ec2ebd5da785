package repository

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user record in the database.
type User struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username            string    `gorm:"uniqueIndex;not null;size:50"`
	Email               string    `gorm:"uniqueIndex;not null;size:255"`
	Password            string    `gorm:"not null"`
	Names               string    `gorm:"size:255"`
	Role                string    `gorm:"size:16;not null;default:client"`
	Credits             int64     `gorm:"not null;default:0;check:credits >= 0"`
	NetworkBonusAwarded bool      `gorm:"not null;default:false"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Case represents a marketplace case.
type Case struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title             string    `gorm:"size:255;not null"`
	ClientID          uuid.UUID `gorm:"type:uuid;index;not null"`
	ProviderID        uuid.UUID `gorm:"type:uuid;index;not null"`
	Status            string    `gorm:"size:16;not null"`
	Sentiment         string    `gorm:"size:16"`
	PayoutProcessedAt *time.Time
	LastUpdate        time.Time
	CreatedAt         time.Time
}

// Comment is a message on a case thread.
type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CaseID    uuid.UUID `gorm:"type:uuid;index;not null"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null"`
	Body      string    `gorm:"type:text;not null"`
	CreatedAt time.Time
}

// Investment is an append-only stake on a case.
type Investment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	InvestorID uuid.UUID `gorm:"type:uuid;index;not null"`
	CaseID     uuid.UUID `gorm:"type:uuid;index;not null"`
	Amount     int64     `gorm:"not null;check:amount > 0"`
	CreatedAt  time.Time
}

// CreditRequest is a micro-credit application.
type CreditRequest struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	Amount    int64      `gorm:"not null"`
	Status    string     `gorm:"size:16;index;not null"`
	DecidedBy *uuid.UUID `gorm:"type:uuid"`
	DecidedAt *time.Time
	LoanID    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
}

// Loan is the result of an approved credit request.
type Loan struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	RequestID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Amount    int64     `gorm:"not null"`
	Status    string    `gorm:"size:16;index;not null"`
	DueDate   time.Time `gorm:"index"`
	RepaidAt  *time.Time
	CreatedAt time.Time
}

// Fund is the singleton capital pool.
type Fund struct {
	ID             string `gorm:"primaryKey;size:16"`
	TotalCapital   int64  `gorm:"not null;default:0"`
	TotalLoanedOut int64  `gorm:"not null;default:0"`
	UpdatedAt      time.Time
}

// TableName keeps the singleton table name explicit.
func (Fund) TableName() string { return "fund" }

// Connection is one direction of a network link.
type Connection struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_connections_owner_contact"`
	ContactID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_connections_owner_contact"`
	CreatedAt time.Time
}

// LedgerEntry is a row of the accounting journal.
type LedgerEntry struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;index;not null"`
	Kind           string    `gorm:"size:32;not null"`
	Amount         int64     `gorm:"not null"`
	BalanceAfter   int64     `gorm:"not null"`
	Reference      string    `gorm:"size:255"`
	IdempotencyKey *string   `gorm:"size:255;uniqueIndex"`
	CreatedAt      time.Time `gorm:"index"`
}

// TableName maps ledger entries onto the transactions table.
func (LedgerEntry) TableName() string { return "transactions" }

// Models lists every persisted model, in dependency order, for AutoMigrate.
func Models() []any {
	return []any{
		&User{},
		&Case{},
		&Comment{},
		&Investment{},
		&CreditRequest{},
		&Loan{},
		&Fund{},
		&Connection{},
		&LedgerEntry{},
	}
}
