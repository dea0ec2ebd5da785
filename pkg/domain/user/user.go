package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/marketledger/pkg/domain"
	"github.com/amirasaad/marketledger/pkg/utils"
	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is returned when a user cannot be found in the
	// repository.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserUnauthorized is returned when credentials do not match.
	ErrUserUnauthorized = errors.New("user unauthorized")
	// ErrInvalidRole is returned for roles outside the known set.
	ErrInvalidRole = errors.New("invalid role")
)

// Role is the marketplace role a user acts under.
type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
	RoleInvestor Role = "investor"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleProvider, RoleInvestor, RoleAdmin:
		return true
	}
	return false
}

// User is a marketplace participant holding a credit balance.
//
// Credits are only changed through Debit and Credit, which keep the balance
// non-negative. Users are never deleted.
type User struct {
	ID                  uuid.UUID `json:"id"`
	Username            string    `json:"username"`
	Email               string    `json:"email"`
	Password            string    `json:"-"`
	Names               string    `json:"names"`
	Role                Role      `json:"role"`
	Credits             int64     `json:"credits"`
	NetworkBonusAwarded bool      `json:"network_bonus_awarded"`
	CreatedAt           time.Time `json:"created"`
	UpdatedAt           time.Time `json:"updated"`
}

// New creates a new User with a hashed password and a zero balance.
func New(username, email, password string, role Role) (*User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, errors.New("username cannot be empty")
	}
	if strings.TrimSpace(email) == "" {
		return nil, errors.New("email cannot be empty")
	}
	if role == "" {
		role = RoleClient
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New(),
		Username:  username,
		Email:     email,
		Password:  hashedPassword,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsAdmin reports whether the user may decide credit requests.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Debit removes amount credits from the balance.
func (u *User) Debit(amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if u.Credits < amount {
		return fmt.Errorf(
			"%w: balance %d, requested %d",
			domain.ErrInsufficientCredits,
			u.Credits,
			amount,
		)
	}
	u.Credits -= amount
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// Credit adds amount credits to the balance.
func (u *User) Credit(amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	u.Credits += amount
	u.UpdatedAt = time.Now().UTC()
	return nil
}
