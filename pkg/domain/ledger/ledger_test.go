package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	uid := uuid.New()
	e := NewEntry(uid, KindTransferOut, -40, 60, "transfer")
	assert.Equal(t, uid, e.UserID)
	assert.Equal(t, int64(-40), e.Amount)
	assert.Nil(t, e.IdempotencyKey)

	e.WithKey("k1")
	require.NotNil(t, e.IdempotencyKey)
	assert.Equal(t, "k1", *e.IdempotencyKey)
}

func TestKeys(t *testing.T) {
	c := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	u := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	assert.Equal(t, "case:"+c.String()+":reward:"+u.String(), RewardKey(c, u))
	assert.Equal(t, "case:"+c.String()+":payout:"+u.String(), PayoutKey(c, u))
	assert.NotEqual(t, DisbursementKey(c), RepaymentKey(c))
}
