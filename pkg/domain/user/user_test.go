package user

import (
	"testing"

	"github.com/amirasaad/marketledger/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	u, err := New("alice", "alice@example.com", "secret123", RoleProvider)
	require.NoError(t, err)
	assert.Equal(t, RoleProvider, u.Role)
	assert.Zero(t, u.Credits)
	assert.NotEqual(t, "secret123", u.Password)

	u, err = New("bob", "bob@example.com", "secret123", "")
	require.NoError(t, err)
	assert.Equal(t, RoleClient, u.Role)
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("", "a@example.com", "secret123", RoleClient)
	require.Error(t, err)
	_, err = New("alice", " ", "secret123", RoleClient)
	require.Error(t, err)
	_, err = New("alice", "a@example.com", "secret123", "pirate")
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestDebit(t *testing.T) {
	u := &User{Credits: 100}
	require.NoError(t, u.Debit(40))
	assert.Equal(t, int64(60), u.Credits)

	err := u.Debit(61)
	require.ErrorIs(t, err, domain.ErrInsufficientCredits)
	assert.Contains(t, err.Error(), "insufficient")
	assert.Equal(t, int64(60), u.Credits)

	require.ErrorIs(t, u.Debit(0), domain.ErrInvalidAmount)
	require.NoError(t, u.Debit(60))
	assert.Zero(t, u.Credits)
}

func TestCredit(t *testing.T) {
	u := &User{Credits: 10}
	require.NoError(t, u.Credit(40))
	assert.Equal(t, int64(50), u.Credits)
	require.ErrorIs(t, u.Credit(-1), domain.ErrInvalidAmount)
}
