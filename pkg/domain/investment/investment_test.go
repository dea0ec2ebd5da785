package investment

import (
	"testing"

	"github.com/amirasaad/marketledger/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	inv, err := New(uuid.New(), uuid.New(), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), inv.Amount)
	assert.False(t, inv.CreatedAt.IsZero())

	_, err = New(uuid.New(), uuid.New(), 0)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestPayoutPolicy(t *testing.T) {
	p := DefaultPayoutPolicy()
	assert.Equal(t, int64(110), p.Payout(100))
	assert.Equal(t, int64(55), p.Payout(50))
	assert.Equal(t, int64(17), p.Payout(15)) // 16.5 rounds up
	assert.Equal(t, int64(1), p.Payout(1))

	assert.Equal(t, int64(125), NewPayoutPolicy(25).Payout(100))
	assert.Equal(t, int64(100), NewPayoutPolicy(0).Payout(100))
}
